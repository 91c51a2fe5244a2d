package sources

import (
	"context"
	"fmt"
	"net/url"

	"github.com/samvad-hq/samvad-asset-loader/pkg/httpclient"
)

// bundleSource serves assets archived by `assetctl bundle`.
type bundleSource struct {
	store AssetReader
}

// NewBundleSource builds the bundle: source on top of an archive reader.
func NewBundleSource(store AssetReader) Source {
	return &bundleSource{store: store}
}

func (s *bundleSource) Scheme() string { return SchemeBundle }

func (s *bundleSource) Fetch(ctx context.Context, loc *url.URL) (httpclient.Response, error) {
	if loc == nil {
		return nil, fmt.Errorf("location is nil")
	}
	if s.store == nil {
		return nil, fmt.Errorf("bundle source has no store")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p := loc.Opaque
	if p == "" {
		p = loc.Path
	}
	key := BundleKey(p)

	asset, found, err := s.store.GetAsset(key)
	if err != nil {
		return nil, fmt.Errorf("read bundle entry %s: %w", key, err)
	}
	if !found {
		return nil, fmt.Errorf("bundle has no entry %q", key)
	}
	return newStaticResponse(asset.Data, asset.ContentType), nil
}
