package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samvad-hq/samvad-asset-loader/internal/domain"
	bolt "go.etcd.io/bbolt"
)

const (
	assetBucket     = "assets"
	typeLenBytes    = 2
	fetchedAtBytes  = 8
	maxContentTypeL = 1<<16 - 1
)

var errBucketMissing = errors.New("asset bucket missing")

// boltStore implements a Store backed by BoltDB.
type boltStore struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	maxAge          time.Duration
	cleanupInterval time.Duration
	readOnly        bool
	now             func() time.Time
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string, opts Options) (Store, error) {
	if !opts.ReadOnly {
		dir := filepath.Dir(path)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create storage directory: %w", err)
			}
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second, ReadOnly: opts.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if !opts.ReadOnly {
		if err := db.Update(func(tx *bolt.Tx) error {
			_, err := tx.CreateBucketIfNotExists([]byte(assetBucket))
			return err
		}); err != nil {
			db.Close()
			return nil, fmt.Errorf("init bucket: %w", err)
		}
	}

	store := &boltStore{
		db:              db,
		maxAge:          opts.MaxAge,
		cleanupInterval: opts.CleanupInterval,
		readOnly:        opts.ReadOnly,
		now:             time.Now,
	}
	store.lastCleanup.Store(store.now().Unix())
	return store, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// PutAsset archives the asset under path, replacing any previous entry.
func (b *boltStore) PutAsset(path string, asset domain.Asset) error {
	if b == nil || b.db == nil {
		return nil
	}
	if b.readOnly {
		return ErrReadOnly
	}
	if path == "" {
		return fmt.Errorf("asset path is empty")
	}

	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return err
	}
	if asset.FetchedAt.IsZero() {
		asset.FetchedAt = now
	}

	value, err := encodeAsset(asset)
	if err != nil {
		return err
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(assetBucket))
		if bucket == nil {
			return errBucketMissing
		}
		return bucket.Put([]byte(path), value)
	})
}

// GetAsset returns the archived asset for path. Expired entries are reported missing.
func (b *boltStore) GetAsset(path string) (domain.Asset, bool, error) {
	if b == nil || b.db == nil {
		return domain.Asset{}, false, nil
	}

	var (
		asset domain.Asset
		found bool
	)
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(assetBucket))
		if bucket == nil {
			return errBucketMissing
		}
		value := bucket.Get([]byte(path))
		if value == nil {
			return nil
		}
		decoded, ok := decodeAsset(value)
		if !ok || b.expired(decoded.FetchedAt, b.now()) {
			return nil
		}
		decoded.Path = path
		asset = decoded
		found = true
		return nil
	})
	return asset, found, err
}

// ListAssets returns the archived paths in key order.
func (b *boltStore) ListAssets() ([]string, error) {
	if b == nil || b.db == nil {
		return nil, nil
	}

	var paths []string
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(assetBucket))
		if bucket == nil {
			return errBucketMissing
		}
		now := b.now()
		return bucket.ForEach(func(k, v []byte) error {
			decoded, ok := decodeAsset(v)
			if !ok || b.expired(decoded.FetchedAt, now) {
				return nil
			}
			paths = append(paths, string(k))
			return nil
		})
	})
	return paths, err
}

func (b *boltStore) expired(fetchedAt, now time.Time) bool {
	if b.maxAge <= 0 {
		return false
	}
	return !fetchedAt.Add(b.maxAge).After(now)
}

// maybeCleanupExpired removes expired assets on a fixed cadence to avoid unbounded growth.
func (b *boltStore) maybeCleanupExpired(now time.Time) error {
	if b == nil || b.db == nil || b.readOnly || b.maxAge <= 0 {
		return nil
	}

	last := time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()

	last = time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(assetBucket))
		if bucket == nil {
			return errBucketMissing
		}

		cursor := bucket.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			decoded, ok := decodeAsset(v)
			if !ok || b.expired(decoded.FetchedAt, now) {
				if err := cursor.Delete(); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err == nil {
		b.lastCleanup.Store(now.Unix())
	}
	return err
}

// encodeAsset lays out content type length, content type, fetch time and payload.
func encodeAsset(asset domain.Asset) ([]byte, error) {
	if len(asset.ContentType) > maxContentTypeL {
		return nil, fmt.Errorf("content type too long (%d bytes)", len(asset.ContentType))
	}
	buf := make([]byte, typeLenBytes+len(asset.ContentType)+fetchedAtBytes+len(asset.Data))
	binary.BigEndian.PutUint16(buf, uint16(len(asset.ContentType)))
	off := typeLenBytes
	off += copy(buf[off:], asset.ContentType)
	binary.BigEndian.PutUint64(buf[off:], uint64(asset.FetchedAt.UnixNano()))
	off += fetchedAtBytes
	copy(buf[off:], asset.Data)
	return buf, nil
}

// decodeAsset reverses encodeAsset. The returned data is a copy safe to use outside the transaction.
func decodeAsset(value []byte) (domain.Asset, bool) {
	if len(value) < typeLenBytes+fetchedAtBytes {
		return domain.Asset{}, false
	}
	typeLen := int(binary.BigEndian.Uint16(value))
	if len(value) < typeLenBytes+typeLen+fetchedAtBytes {
		return domain.Asset{}, false
	}
	off := typeLenBytes
	contentType := string(value[off : off+typeLen])
	off += typeLen
	nanos := int64(binary.BigEndian.Uint64(value[off:]))
	off += fetchedAtBytes

	data := make([]byte, len(value)-off)
	copy(data, value[off:])

	return domain.Asset{
		ContentType: contentType,
		Data:        data,
		FetchedAt:   time.Unix(0, nanos),
	}, true
}
