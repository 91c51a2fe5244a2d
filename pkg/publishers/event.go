package publishers

import (
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/samvad-hq/samvad-asset-loader/internal/domain"
)

var eventJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// Asset kinds carried by events.
const (
	KindJSON    = "json"
	KindBinary  = "binary"
	KindMap     = "map"
	KindTileset = "tileset"
)

// Event reports one completed asset load to downstream sinks.
type Event struct {
	Path        string    `json:"path"`
	Location    string    `json:"location,omitempty"`
	Kind        string    `json:"kind"`
	ContentType string    `json:"content_type,omitempty"`
	Size        int       `json:"size"`
	Status      int       `json:"status,omitempty"`
	LoadedAt    time.Time `json:"loaded_at"`
}

// NewEvent constructs an Event for an asset of the given kind.
func NewEvent(kind, location string, status int, asset domain.Asset) Event {
	return Event{
		Path:        asset.Path,
		Location:    location,
		Kind:        kind,
		ContentType: asset.ContentType,
		Size:        len(asset.Data),
		Status:      status,
		LoadedAt:    time.Now().UTC(),
	}
}

// Encode renders the event as the JSON body every sink sends.
func (e Event) Encode() ([]byte, error) {
	return eventJSON.Marshal(e)
}
