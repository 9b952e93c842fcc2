package app

import (
	"fmt"
	"log/slog"

	"github.com/pluiedev/krunner-nix/internal/adapters/bbolt"
	fsw "github.com/pluiedev/krunner-nix/internal/adapters/fsnotify"
	"github.com/pluiedev/krunner-nix/internal/adapters/nix"
	"github.com/pluiedev/krunner-nix/internal/adapters/socket"
	"github.com/pluiedev/krunner-nix/internal/adapters/terminal"
	"github.com/pluiedev/krunner-nix/internal/config"
	"github.com/pluiedev/krunner-nix/internal/ports"
)

// Daemon is an App plus the adapters it owns for the lifetime of the process.
type Daemon struct {
	*App
	Store *bbolt.Store // nil when the cache is disabled or the catalog is a file
}

// SourceFor picks the catalog source described by cfg: the configured JSON
// file if any, otherwise `nix search` over the flake.
func SourceFor(cfg *config.Config) ports.CatalogSource {
	if cfg.CatalogFile != "" {
		return nix.NewFileSource(cfg.CatalogFile)
	}
	return nix.NewCommandSource(cfg.NixCommand, cfg.Flake)
}

// SocketPathFor returns the configured socket path or the default one.
func SocketPathFor(cfg *config.Config) string {
	if cfg.SocketPath != "" {
		return cfg.SocketPath
	}
	return socket.SocketPath()
}

// NewDaemon builds the production adapters from cfg and wires them into an App.
// paths must already exist (see Paths.EnsureDirs).
func NewDaemon(cfg *config.Config, paths *Paths, logger *slog.Logger) (*Daemon, error) {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Daemon{}

	appCfg := Config{
		Source:     SourceFor(cfg),
		Spawner:    terminal.NewSpawner(cfg.Terminal, cfg.NixCommand, logger),
		Flake:      cfg.Flake,
		CacheTTL:   cfg.CacheTTL,
		SocketPath: SocketPathFor(cfg),
		Logger:     logger,
	}

	// A catalog file is already local and may be regenerated while the daemon
	// is down; only `nix search` output is cached.
	if cfg.CacheTTL > 0 && cfg.CatalogFile == "" {
		dbPath := cfg.CachePath
		if dbPath == "" {
			dbPath = paths.DB
		}
		store, err := bbolt.NewStore(dbPath)
		if err != nil {
			return nil, fmt.Errorf("open catalog cache: %w", err)
		}
		d.Store = store
		appCfg.Cache = store
		logger.Debug("catalog cache opened", "path", store.Path(), "ttl", cfg.CacheTTL)
	}

	if cfg.CatalogFile != "" && cfg.WatchCatalog {
		watcher, err := fsw.NewWatcher()
		if err != nil {
			d.closeStore()
			return nil, fmt.Errorf("create watcher: %w", err)
		}
		appCfg.Watcher = watcher
		appCfg.WatchPath = cfg.CatalogFile
	}

	a, err := New(appCfg)
	if err != nil {
		d.closeStore()
		return nil, err
	}
	d.App = a
	return d, nil
}

// Stop shuts the App down and closes the cache.
func (d *Daemon) Stop() error {
	err := d.App.Stop()
	d.closeStore()
	return err
}

func (d *Daemon) closeStore() {
	if d.Store != nil {
		d.Store.Close()
	}
}
