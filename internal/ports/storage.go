// Package ports defines the interfaces (contracts) that adapters must implement.
// These are the boundaries of the hexagonal architecture. Domain logic depends
// only on these interfaces, never on concrete implementations.
package ports

import (
	"context"
	"time"
)

// CatalogSource produces the raw package catalog: a JSON object mapping
// attribute paths to {description, pname, version} records, exactly as
// `nix search --json` prints it.
type CatalogSource interface {
	// Fetch returns the catalog JSON. Any error is a load failure.
	Fetch(ctx context.Context) ([]byte, error)

	// Key identifies the catalog this source produces (e.g. the flake
	// reference). It namespaces cached copies.
	Key() string
}

// CatalogCache persists raw catalog JSON between daemon runs so startup does
// not have to wait for `nix search`. The search index itself is never
// persisted; it is rebuilt from the catalog on every load.
//
// Crash safety: SaveCatalog must be transactional. A crash mid-write must not
// corrupt a previously committed entry.
type CatalogCache interface {
	// SaveCatalog stores data for key, replacing any prior entry.
	SaveCatalog(key string, data []byte, fetchedAt time.Time) error

	// LoadCatalog returns the cached data for key.
	// Returns nil data and a zero time if nothing is cached.
	LoadCatalog(key string) ([]byte, time.Time, error)

	// DeleteCatalog removes the entry for key.
	// Idempotent: deleting a missing entry is not an error.
	DeleteCatalog(key string) error
}
