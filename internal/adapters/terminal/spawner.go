// Package terminal implements ports.Spawner by opening a terminal emulator
// that runs `nix run` or `nix shell`.
package terminal

import (
	"errors"
	"fmt"
	"log/slog"
	"os/exec"

	"github.com/pluiedev/krunner-nix/internal/adapters/nix"
	"github.com/pluiedev/krunner-nix/internal/ports"
)

// DefaultTerminal is the terminal command prefix used when none is configured.
var DefaultTerminal = []string{"konsole", "-e"}

// ErrUnknownVerb is returned for invocations the spawner does not support.
var ErrUnknownVerb = errors.New("unknown verb")

// Spawner starts `<terminal...> <nix> <verb> <target> <flags>` and returns
// without waiting for the process. A background goroutine reaps the child.
type Spawner struct {
	terminal []string
	nix      string
	logger   *slog.Logger
}

// NewSpawner creates a spawner. An empty terminal means DefaultTerminal, an
// empty nix means "nix", and a nil logger means slog.Default().
func NewSpawner(terminal []string, nixBin string, logger *slog.Logger) *Spawner {
	if len(terminal) == 0 {
		terminal = DefaultTerminal
	}
	if nixBin == "" {
		nixBin = "nix"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Spawner{
		terminal: append([]string(nil), terminal...),
		nix:      nixBin,
		logger:   logger,
	}
}

// Argv returns the full argument vector for inv.
func (s *Spawner) Argv(inv ports.Invocation) ([]string, error) {
	switch inv.Verb {
	case ports.VerbRun, ports.VerbShell:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownVerb, inv.Verb)
	}
	argv := append([]string(nil), s.terminal...)
	argv = append(argv, s.nix, inv.Verb, inv.Target)
	return append(argv, nix.ExperimentalFlags...), nil
}

// Spawn implements ports.Spawner.
func (s *Spawner) Spawn(inv ports.Invocation) error {
	argv, err := s.Argv(inv)
	if err != nil {
		return err
	}
	c := exec.Command(argv[0], argv[1:]...)
	if err := c.Start(); err != nil {
		return err
	}
	pid := c.Process.Pid
	go func() {
		if err := c.Wait(); err != nil {
			s.logger.Debug("terminal exited", "pid", pid, "target", inv.Target, "err", err)
		}
	}()
	return nil
}
