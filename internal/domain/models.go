package domain

import "time"

// Asset is a fetched resource body together with the metadata the source reported.
type Asset struct {
	Path        string
	ContentType string
	Data        []byte
	FetchedAt   time.Time
}
