package app

import (
	"os"
	"path/filepath"
)

// Paths holds all resolved filesystem paths under the daemon's state directory.
// All fields are pre-computed strings.
type Paths struct {
	Root string // $XDG_STATE_HOME/krunner-nix/
	DB   string // catalog.db
	Lock string // daemon.lock

	LogDir    string // log/
	DaemonLog string // log/daemon.log
}

// NewPaths constructs all resolved paths from a state directory.
func NewPaths(stateDir string) *Paths {
	return &Paths{
		Root: stateDir,
		DB:   filepath.Join(stateDir, "catalog.db"),
		Lock: filepath.Join(stateDir, "daemon.lock"),

		LogDir:    filepath.Join(stateDir, "log"),
		DaemonLog: filepath.Join(stateDir, "log", "daemon.log"),
	}
}

// EnsureDirs creates the state directory tree. Idempotent.
func (p *Paths) EnsureDirs() error {
	for _, d := range []string{p.Root, p.LogDir} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return err
		}
	}
	return nil
}
