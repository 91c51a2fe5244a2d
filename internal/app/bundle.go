package app

import (
	"context"
	"fmt"
	"time"

	"github.com/samvad-hq/samvad-asset-loader/internal/domain"
	"github.com/samvad-hq/samvad-asset-loader/internal/storage"
	"github.com/samvad-hq/samvad-asset-loader/pkg/loader"
	"github.com/samvad-hq/samvad-asset-loader/pkg/publishers"
	"github.com/samvad-hq/samvad-asset-loader/pkg/sources"
	"github.com/samvad-hq/samvad-asset-loader/pkg/tilemap"
)

// BundleReport summarizes one bundle run.
type BundleReport struct {
	MapPath string
	Entries []BundleEntry
	Bytes   int
	Elapsed time.Duration
}

// BundleEntry is one archived asset.
type BundleEntry struct {
	Key         string
	ContentType string
	Size        int
}

// Bundle fetches the map at mapPath and every tileset image it references and
// archives them in the configured bundle store, keyed by their normalized
// relative paths so a later run with base "bundle:" serves the same paths.
func (r *Runtime) Bundle(ctx context.Context, mapPath string) (BundleReport, error) {
	if usesBundle(r.cfg.BaseURL) {
		return BundleReport{}, fmt.Errorf("cannot bundle while reading from a bundle")
	}

	store, err := storage.NewStore(r.cfg.StorageType, r.cfg.BundlePath, storage.Options{MaxAge: r.cfg.BundleMaxAge})
	if err != nil {
		return BundleReport{}, fmt.Errorf("open bundle: %w", err)
	}
	if storage.IsDisabled(store) {
		return BundleReport{}, fmt.Errorf("bundle %s: %w", r.cfg.BundlePath, storage.ErrDisabled)
	}
	defer func() {
		if err := store.Close(); err != nil {
			r.log.ErrorObj("bundle close failed", "error", err)
		}
	}()

	start := time.Now()
	report := BundleReport{MapPath: mapPath}

	doc, err := r.loader.LoadBinary(ctx, mapPath)
	if err != nil {
		return report, err
	}
	m, err := tilemap.Build(ctx, r.loader, mapPath, doc.Data, r.mapOptions()...)
	if err != nil {
		return report, err
	}

	if err := r.archive(ctx, store, &report, publishers.KindMap, mapPath, doc); err != nil {
		return report, err
	}
	for _, ts := range m.Tilesets {
		if err := r.archive(ctx, store, &report, publishers.KindTileset, ts.ImagePath, ts.Image); err != nil {
			return report, err
		}
	}

	report.Elapsed = time.Since(start)
	r.log.InfoObj("bundle written", "bundle_report", map[string]any{
		"map":        mapPath,
		"entries":    len(report.Entries),
		"bytes":      report.Bytes,
		"elapsed_ms": report.Elapsed.Milliseconds(),
		"path":       r.cfg.BundlePath,
	})
	return report, nil
}

func (r *Runtime) archive(ctx context.Context, store storage.Store, report *BundleReport, kind, path string, blob loader.Blob) error {
	key := sources.BundleKey(path)
	asset := domain.Asset{
		Path:        key,
		ContentType: blob.Type,
		Data:        blob.Data,
		FetchedAt:   time.Now(),
	}
	if err := store.PutAsset(key, asset); err != nil {
		return fmt.Errorf("archive %s: %w", key, err)
	}

	report.Entries = append(report.Entries, BundleEntry{Key: key, ContentType: blob.Type, Size: len(blob.Data)})
	report.Bytes += len(blob.Data)
	r.notify(ctx, kind, blob, path)
	return nil
}
