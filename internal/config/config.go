// Package config loads the krunner-nix YAML configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppName names the config and state directories.
const AppName = "krunner-nix"

// Config is the in-memory representation of config.yaml.
type Config struct {
	// Flake is the flake searched and launched from.
	Flake string `yaml:"flake"`
	// CatalogFile, when set, is read instead of running `nix search`.
	CatalogFile string `yaml:"catalog_file,omitempty"`
	// NixCommand is the nix binary used for search and launch.
	NixCommand string `yaml:"nix_command"`
	// Terminal is the terminal argv prefix, e.g. [konsole, -e].
	Terminal []string `yaml:"terminal"`
	// SocketPath overrides the daemon socket location.
	SocketPath string `yaml:"socket_path,omitempty"`
	// CachePath overrides the catalog cache database location.
	CachePath string `yaml:"cache_path,omitempty"`
	// CacheTTL is how long a cached catalog is trusted. Zero disables the cache.
	CacheTTL time.Duration `yaml:"cache_ttl"`
	// WatchCatalog reloads the daemon when CatalogFile changes.
	WatchCatalog bool `yaml:"watch_catalog"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Flake:        "nixpkgs",
		NixCommand:   "nix",
		Terminal:     []string{"konsole", "-e"},
		CacheTTL:     24 * time.Hour,
		WatchCatalog: true,
	}
}

// Dir returns $XDG_CONFIG_HOME/krunner-nix, falling back to ~/.config.
func Dir() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", AppName), nil
}

// StateDir returns $XDG_STATE_HOME/krunner-nix, falling back to ~/.local/state.
func StateDir() (string, error) {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".local", "state", AppName), nil
}

// Path returns the default config file path.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand ~: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}

// Load reads and parses the config at path. A missing file yields
// DefaultConfig; fields absent from the file keep their defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}

	// Expand ~ in paths at load time.
	for _, p := range []*string{&cfg.CatalogFile, &cfg.SocketPath, &cfg.CachePath} {
		if *p, err = ExpandPath(*p); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first unusable setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Flake) == "":
		return errors.New("flake must not be empty")
	case c.NixCommand == "":
		return errors.New("nix_command must not be empty")
	case len(c.Terminal) == 0 || c.Terminal[0] == "":
		return errors.New("terminal must name a program")
	case c.CacheTTL < 0:
		return errors.New("cache_ttl must not be negative")
	}
	return nil
}

// Save marshals cfg and writes it to path, creating the directory.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write config %s: %w", path, err)
	}
	return nil
}
