package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/samvad-hq/samvad-asset-loader/internal/config"
	"github.com/samvad-hq/samvad-asset-loader/internal/domain"
	"github.com/samvad-hq/samvad-asset-loader/internal/logger"
	"github.com/samvad-hq/samvad-asset-loader/internal/storage"
	"github.com/samvad-hq/samvad-asset-loader/pkg/httpclient"
	"github.com/samvad-hq/samvad-asset-loader/pkg/loader"
	"github.com/samvad-hq/samvad-asset-loader/pkg/publishers"
	"github.com/samvad-hq/samvad-asset-loader/pkg/sources"
	"github.com/samvad-hq/samvad-asset-loader/pkg/tilemap"
)

// Runtime wires the loader to its sources, the optional bundle archive and
// the load-notification publishers.
type Runtime struct {
	cfg    *config.Config
	loader *loader.Loader
	fanout *publishers.Fanout
	bundle storage.Store
	log    logger.Logger
}

// Option customizes NewRuntime.
type Option func(*runtimeOptions)

type runtimeOptions struct {
	client     httpclient.Client
	publishers []publishers.Publisher
}

// WithHTTPClient replaces the resty client used by the http(s) sources.
func WithHTTPClient(c httpclient.Client) Option {
	return func(o *runtimeOptions) { o.client = c }
}

// WithPublishers adds publishers on top of the ones declared in the publishers file.
func WithPublishers(pubs ...publishers.Publisher) Option {
	return func(o *runtimeOptions) { o.publishers = append(o.publishers, pubs...) }
}

// NewRuntime builds a runtime from config.
func NewRuntime(ctx context.Context, cfg *config.Config, log logger.Logger, opts ...Option) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)
	if ctx == nil {
		ctx = context.Background()
	}

	var o runtimeOptions
	for _, opt := range opts {
		opt(&o)
	}
	client := o.client
	if client == nil {
		client = httpclient.NewRestyClient(
			httpclient.WithTimeout(cfg.RequestTimeout),
			httpclient.WithRedirectLimit(cfg.MaxRedirects),
		)
	}

	reg, err := sources.DefaultRegistry(cfg.BaseURL, client, cfg.Headers())
	if err != nil {
		return nil, fmt.Errorf("build source registry: %w", err)
	}

	rt := &Runtime{cfg: cfg, log: log}

	if usesBundle(cfg.BaseURL) {
		store, err := storage.NewStore(cfg.StorageType, cfg.BundlePath, storage.Options{
			MaxAge:   cfg.BundleMaxAge,
			ReadOnly: true,
		})
		if err != nil {
			return nil, fmt.Errorf("open bundle: %w", err)
		}
		if storage.IsDisabled(store) {
			return nil, fmt.Errorf("base %q: %w", cfg.BaseURL, storage.ErrDisabled)
		}
		rt.bundle = store
		reg = sources.WithSources(reg, sources.NewBundleSource(store))
		log.InfoObj("bundle source enabled", "bundle_config", map[string]any{
			"type": cfg.StorageType,
			"path": cfg.BundlePath,
		})
	}

	rt.loader = loader.New(reg, loader.WithLogger(log))

	pubs, err := buildPublishers(ctx, cfg, log)
	if err != nil {
		rt.Close()
		return nil, err
	}
	pubs = append(pubs, o.publishers...)
	rt.fanout = publishers.NewFanout(pubs)

	log.InfoObj("runtime initialized", "runtime_config", map[string]any{
		"base_url":         cfg.BaseURL,
		"resources_dir":    cfg.ResourcesDir,
		"request_timeout":  cfg.RequestTimeout.String(),
		"publishers_count": rt.fanout.Size(),
	})
	return rt, nil
}

func buildPublishers(ctx context.Context, cfg *config.Config, log logger.Logger) ([]publishers.Publisher, error) {
	if cfg.PublishersFile == "" {
		return nil, nil
	}

	cfgs, err := publishers.LoadConfigs(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers file: %w", err)
	}
	enabled := publishers.Enabled(cfgs)

	pubs, err := publishers.DefaultBuilders().BuildAll(ctx, enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, pubCfg := range enabled {
		summaries = append(summaries, map[string]string{
			"id":    pubCfg.ID,
			"type":  pubCfg.Type,
			"kinds": strings.Join(pubCfg.Kinds, ","),
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return pubs, nil
}

func usesBundle(base string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(base)), sources.SchemeBundle+":")
}

// Loader exposes the configured loader.
func (r *Runtime) Loader() *loader.Loader { return r.loader }

// FetchJSON loads path as JSON and notifies publishers.
func (r *Runtime) FetchJSON(ctx context.Context, path string) (any, error) {
	var v any
	blob, err := r.loader.LoadJSONBlob(ctx, path, &v)
	if err != nil {
		return nil, err
	}
	r.notify(ctx, publishers.KindJSON, blob, path)
	return v, nil
}

// FetchBinary loads path as a blob and notifies publishers.
func (r *Runtime) FetchBinary(ctx context.Context, path string) (loader.Blob, error) {
	blob, err := r.loader.LoadBinary(ctx, path)
	if err != nil {
		return loader.Blob{}, err
	}
	r.notify(ctx, publishers.KindBinary, blob, path)
	return blob, nil
}

// FetchMap loads a tile map with its tileset images and notifies publishers.
func (r *Runtime) FetchMap(ctx context.Context, path string) (*tilemap.Map, error) {
	doc, err := r.loader.LoadBinary(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("load map document: %w", err)
	}
	m, err := tilemap.Build(ctx, r.loader, path, doc.Data, r.mapOptions()...)
	if err != nil {
		return nil, err
	}
	r.notify(ctx, publishers.KindMap, doc, path)
	for _, ts := range m.Tilesets {
		r.notify(ctx, publishers.KindTileset, ts.Image, ts.ImagePath)
	}
	return m, nil
}

func (r *Runtime) mapOptions() []tilemap.Option {
	if r.cfg.ResourcesDir == "" {
		return nil
	}
	return []tilemap.Option{tilemap.WithResourcesDir(r.cfg.ResourcesDir)}
}

// notify publishes a load event. Publish failures are logged and never fail the load.
func (r *Runtime) notify(ctx context.Context, kind string, blob loader.Blob, path string) {
	if r.fanout.Size() == 0 {
		return
	}
	evt := publishers.NewEvent(kind, blob.Location, blob.Status, domain.Asset{
		Path:        path,
		ContentType: blob.Type,
		Data:        blob.Data,
	})
	if _, err := r.fanout.Publish(ctx, evt); err != nil {
		r.log.WarnObj("load notification failed", "publish_error", map[string]any{
			"path":  path,
			"kind":  kind,
			"error": err.Error(),
		})
	}
}

// Close releases the bundle archive, if one is open.
func (r *Runtime) Close() {
	if r == nil || r.bundle == nil {
		return
	}
	if err := r.bundle.Close(); err != nil {
		r.log.ErrorObj("bundle close failed", "error", err)
	}
	r.bundle = nil
}
