// Package bbolt implements the ports.CatalogCache interface using bbolt (embedded B+ tree).
// Each catalog key (flake reference or file path) gets its own sub-bucket under
// "catalog" holding the raw JSON and the time it was fetched. Writes are
// transactional. A crash mid-write cannot corrupt previously committed data.
package bbolt

import (
	"encoding/binary"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Bucket keys
var (
	bucketCatalog = []byte("catalog")
	keyData       = []byte("data")
	keyFetchedAt  = []byte("fetched_at")
)

// Store implements ports.CatalogCache backed by bbolt.
type Store struct {
	db   *bolt.DB
	path string
}

// NewStore opens (or creates) a bbolt database at the given path.
// The file lock is held until Close; a second opener times out after 1s.
func NewStore(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying bbolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveCatalog stores the raw catalog JSON for key, replacing any prior entry.
func (s *Store) SaveCatalog(key string, data []byte, fetchedAt time.Time) error {
	if key == "" {
		return fmt.Errorf("empty catalog key")
	}
	ts := make([]byte, 8)
	binary.LittleEndian.PutUint64(ts, uint64(fetchedAt.UnixNano()))

	return s.db.Update(func(tx *bolt.Tx) error {
		root, err := tx.CreateBucketIfNotExists(bucketCatalog)
		if err != nil {
			return err
		}
		cb, err := root.CreateBucketIfNotExists([]byte(key))
		if err != nil {
			return err
		}
		if err := cb.Put(keyData, data); err != nil {
			return err
		}
		return cb.Put(keyFetchedAt, ts)
	})
}

// LoadCatalog retrieves the raw catalog JSON for key.
// Returns nil, zero time, nil if nothing is cached.
func (s *Store) LoadCatalog(key string) ([]byte, time.Time, error) {
	var data, ts []byte

	err := s.db.View(func(tx *bolt.Tx) error {
		root := tx.Bucket(bucketCatalog)
		if root == nil {
			return nil
		}
		cb := root.Bucket([]byte(key))
		if cb == nil {
			return nil
		}
		// Copy bytes out of the transaction (bbolt slices are only valid within tx)
		if v := cb.Get(keyData); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		if v := cb.Get(keyFetchedAt); v != nil {
			ts = make([]byte, len(v))
			copy(ts, v)
		}
		return nil
	})
	if err != nil {
		return nil, time.Time{}, err
	}

	if data == nil {
		return nil, time.Time{}, nil
	}
	if len(ts) != 8 {
		return nil, time.Time{}, fmt.Errorf("corrupt fetch time for catalog %q", key)
	}
	fetchedAt := time.Unix(0, int64(binary.LittleEndian.Uint64(ts)))
	return data, fetchedAt, nil
}

// DeleteCatalog removes the cached entry for key.
// Idempotent: deleting a missing entry is not an error.
func (s *Store) DeleteCatalog(key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		root := tx.Bucket(bucketCatalog)
		if root == nil {
			return nil
		}
		if err := root.DeleteBucket([]byte(key)); err == bolt.ErrBucketNotFound {
			return nil // idempotent
		} else {
			return err
		}
	})
}
