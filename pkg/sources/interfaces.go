package sources

import (
	"context"
	"net/url"

	"github.com/samvad-hq/samvad-asset-loader/internal/domain"
	"github.com/samvad-hq/samvad-asset-loader/pkg/httpclient"
)

// Source retrieves the raw body for a resolved location.
// Concrete implementations live in scheme-specific files (e.g., http.go).
type Source interface {
	Scheme() string
	Fetch(ctx context.Context, loc *url.URL) (httpclient.Response, error)
}

// Registry resolves resource paths into locations and selects the source serving them.
type Registry interface {
	Resolve(path string) (*url.URL, error)
	SourceFor(loc *url.URL) (Source, error)
}

// AssetReader looks up archived assets by bundle key.
type AssetReader interface {
	GetAsset(path string) (domain.Asset, bool, error)
}

// HTTPClient aliases the shared httpclient.Client interface for clarity within sources.
type HTTPClient = httpclient.Client
