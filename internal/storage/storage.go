// Package storage archives fetched assets into a local bundle file.
package storage

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samvad-hq/samvad-asset-loader/internal/domain"
)

// Store keeps archived assets keyed by the path they were fetched from.
type Store interface {
	Close() error
	PutAsset(path string, asset domain.Asset) error
	GetAsset(path string) (domain.Asset, bool, error)
	ListAssets() ([]string, error)
}

// Options controls how a bundle is opened and how long its entries live.
type Options struct {
	// MaxAge expires entries older than it. Zero keeps entries forever.
	MaxAge          time.Duration
	CleanupInterval time.Duration
	// ReadOnly opens an existing bundle for serving; writes fail with ErrReadOnly.
	ReadOnly bool
}

// Storage backends accepted by NewStore.
const (
	TypeNone  = "none"
	TypeBbolt = "bbolt"
)

const defaultCleanupInterval = 12 * time.Hour

var (
	// ErrReadOnly is returned by writes to a bundle opened for serving.
	ErrReadOnly = errors.New("bundle opened read-only")
	// ErrDisabled is returned when a bundle is required but storage is off.
	ErrDisabled = errors.New("bundle storage disabled")
)

// NewStore opens the bundle backend named by typ.
func NewStore(typ, path string, opts Options) (Store, error) {
	opts = normalizeOptions(opts)

	switch strings.TrimSpace(strings.ToLower(typ)) {
	case "", TypeNone, "disabled":
		return noopStore{}, nil
	case TypeBbolt:
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

// IsDisabled reports whether s is the no-op store returned for storage type none.
func IsDisabled(s Store) bool {
	_, ok := s.(noopStore)
	return ok
}

func normalizeOptions(opts Options) Options {
	if opts.MaxAge < 0 {
		opts.MaxAge = 0
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                                { return nil }
func (noopStore) PutAsset(string, domain.Asset) error         { return nil }
func (noopStore) GetAsset(string) (domain.Asset, bool, error) { return domain.Asset{}, false, nil }
func (noopStore) ListAssets() ([]string, error)               { return nil, nil }
