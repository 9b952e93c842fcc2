// Package app wires together all adapters and domain logic.
// It provides lifecycle management for the krunner-nix daemon: create, load,
// start, reload, stop.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pluiedev/krunner-nix/internal/adapters/socket"
	"github.com/pluiedev/krunner-nix/internal/domain/catalog"
	"github.com/pluiedev/krunner-nix/internal/domain/dispatch"
	"github.com/pluiedev/krunner-nix/internal/domain/match"
	"github.com/pluiedev/krunner-nix/internal/ports"
)

var (
	// ErrNotLoaded is returned by operations that need a catalog before Load succeeded.
	ErrNotLoaded = errors.New("catalog not loaded")
	// ErrUnknownProgram is returned when asked to run an id missing from the catalog.
	ErrUnknownProgram = errors.New("unknown program")
)

// Config holds initialization parameters for the App.
type Config struct {
	Source   ports.CatalogSource // required
	Spawner  ports.Spawner       // required
	Flake    string              // empty = dispatch.DefaultFlake
	Cache    ports.CatalogCache  // nil = no catalog cache
	CacheTTL time.Duration       // 0 = never trust the cache

	Watcher   ports.Watcher // nil = no reload on catalog file change
	WatchPath string

	SocketPath string // empty = no socket server
	Logger     *slog.Logger
}

// App is the top-level container wiring all components together.
type App struct {
	Server     *socket.Server
	Dispatcher *dispatch.Dispatcher

	source    ports.CatalogSource
	cache     ports.CatalogCache
	cacheTTL  time.Duration
	watcher   ports.Watcher
	watchPath string
	logger    *slog.Logger
	now       func() time.Time

	snap     atomic.Pointer[Snapshot]
	reloadMu sync.Mutex // serializes Load and Reload
}

// New creates an App with all dependencies wired. Does not load the catalog
// or start services.
func New(cfg Config) (*App, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("catalog source required")
	}
	if cfg.Spawner == nil {
		return nil, fmt.Errorf("spawner required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	a := &App{
		Dispatcher: dispatch.NewDispatcher(cfg.Flake, cfg.Spawner, logger),
		source:     cfg.Source,
		cache:      cfg.Cache,
		cacheTTL:   cfg.CacheTTL,
		watcher:    cfg.Watcher,
		watchPath:  cfg.WatchPath,
		logger:     logger,
		now:        time.Now,
	}
	if cfg.SocketPath != "" {
		a.Server = socket.NewServer(cfg.SocketPath, a, logger)
	}
	return a, nil
}

// Snapshot returns the generation currently being served, or nil before Load.
func (a *App) Snapshot() *Snapshot {
	return a.snap.Load()
}

// Load builds the first snapshot, preferring a fresh cache entry over the
// source. Any failure here is fatal for the daemon.
func (a *App) Load(ctx context.Context) (*Snapshot, error) {
	return a.rebuild(ctx, true)
}

// rebuild fetches, parses and indexes a catalog, then publishes it.
// On error the current snapshot stays in place.
func (a *App) rebuild(ctx context.Context, useCache bool) (*Snapshot, error) {
	a.reloadMu.Lock()
	defer a.reloadMu.Unlock()

	start := a.now()
	c, fromCache, err := a.loadCatalog(ctx, useCache)
	if err != nil {
		return nil, err
	}

	var generation uint64 = 1
	if prev := a.snap.Load(); prev != nil {
		generation = prev.Generation + 1
	}
	snap := newSnapshot(c, generation, a.source.Key(), fromCache, a.now())
	a.snap.Store(snap)

	a.logger.Info("catalog loaded",
		"source", snap.Source,
		"programs", c.Len(),
		"tokens", snap.Engine.Index().TokenCount(),
		"generation", generation,
		"from_cache", fromCache,
		"elapsed", a.now().Sub(start))
	return snap, nil
}

// loadCatalog returns a parsed catalog from the cache when allowed and fresh,
// otherwise from the source (refreshing the cache).
func (a *App) loadCatalog(ctx context.Context, useCache bool) (*catalog.Catalog, bool, error) {
	key := a.source.Key()

	if useCache && a.cache != nil && a.cacheTTL > 0 {
		data, fetchedAt, err := a.cache.LoadCatalog(key)
		switch {
		case err != nil:
			a.logger.Warn("catalog cache unreadable", "key", key, "err", err)
		case data != nil && a.now().Sub(fetchedAt) < a.cacheTTL:
			c, err := catalog.Parse(data)
			if err == nil {
				return c, true, nil
			}
			a.logger.Warn("discarding corrupt cached catalog", "key", key, "err", err)
			if err := a.cache.DeleteCatalog(key); err != nil {
				a.logger.Warn("delete cached catalog", "key", key, "err", err)
			}
		}
	}

	data, err := a.source.Fetch(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("fetch catalog: %w", err)
	}
	c, err := catalog.Parse(data)
	if err != nil {
		return nil, false, fmt.Errorf("parse catalog from %s: %w", key, err)
	}

	if a.cache != nil {
		if err := a.cache.SaveCatalog(key, data, a.now()); err != nil {
			a.logger.Warn("save catalog cache", "key", key, "err", err)
		}
	}
	return c, false, nil
}

// Matches returns the formatted launcher results for query against the
// current snapshot. Before Load it returns nil.
func (a *App) Matches(query string) []match.Match {
	snap := a.snap.Load()
	if snap == nil {
		return nil
	}
	return snap.Matches(query)
}

// Launch dispatches the program with matchID using actionID ("" means run).
// The id must exist in the current catalog.
func (a *App) Launch(matchID, actionID string) (dispatch.InvocationRequest, error) {
	var action *match.Action
	if actionID != "" {
		act, err := match.ParseAction(actionID)
		if err != nil {
			return dispatch.InvocationRequest{}, err
		}
		action = &act
	}

	snap := a.snap.Load()
	if snap == nil {
		return dispatch.InvocationRequest{}, ErrNotLoaded
	}
	if !snap.hasID(matchID) {
		return dispatch.InvocationRequest{}, fmt.Errorf("%w: %q", ErrUnknownProgram, matchID)
	}
	return a.Dispatcher.Dispatch(matchID, action)
}

// Start begins the daemon (socket server + optional catalog watcher).
// Load must have succeeded first.
func (a *App) Start() error {
	if a.snap.Load() == nil {
		return ErrNotLoaded
	}
	if a.Server != nil {
		if err := a.Server.Start(); err != nil {
			return fmt.Errorf("start server: %w", err)
		}
	}
	// Start catalog watcher, non-fatal if setup fails
	if a.watcher != nil && a.watchPath != "" {
		if err := a.watcher.Watch(a.watchPath, a.onCatalogChanged); err != nil {
			a.logger.Warn("catalog watcher unavailable", "path", a.watchPath, "err", err)
		}
	}
	return nil
}

// Stop gracefully shuts down all services.
func (a *App) Stop() error {
	if a.watcher != nil {
		a.watcher.Stop()
	}
	if a.Server != nil {
		a.Server.Stop()
	}
	return nil
}

// onCatalogChanged rebuilds from the changed catalog file. A broken file
// keeps the current generation.
func (a *App) onCatalogChanged(path string) {
	a.logger.Info("catalog file changed", "path", path)
	if _, err := a.rebuild(context.Background(), false); err != nil {
		a.logger.Error("reload after catalog change failed", "path", path, "err", err)
	}
}
