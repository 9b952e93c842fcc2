// Package dispatch resolves a selected match and action into a single process
// invocation and hands it to a spawner.
//
// Resolution is a pure mapping: no action and Run both yield `nix run`,
// Shell yields `nix shell`. Spawn failures are returned as *SpawnError and
// never terminate the caller.
package dispatch

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/pluiedev/krunner-nix/internal/domain/match"
	"github.com/pluiedev/krunner-nix/internal/ports"
)

// DefaultFlake is the flake whose packages are launched when none is configured.
const DefaultFlake = "nixpkgs"

// ErrEmptyMatchID is returned when asked to dispatch an empty match id.
var ErrEmptyMatchID = errors.New("empty match id")

// InvocationRequest is the resolved request handed to the spawner.
type InvocationRequest = ports.Invocation

// SpawnError reports that the external process for Request could not be started.
type SpawnError struct {
	Request InvocationRequest
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn nix %s %s: %v", e.Request.Verb, e.Request.Target, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// Resolve maps a match id and optional action to an invocation against flake.
func Resolve(flake, matchID string, action *match.Action) InvocationRequest {
	verb := ports.VerbRun
	if action != nil && *action == match.Shell {
		verb = ports.VerbShell
	}
	return InvocationRequest{Verb: verb, Target: flake + "#" + matchID}
}

// Dispatcher resolves actions and spawns them.
type Dispatcher struct {
	flake   string
	spawner ports.Spawner
	logger  *slog.Logger
}

// NewDispatcher creates a dispatcher launching packages from flake.
// An empty flake means DefaultFlake. A nil logger means slog.Default().
func NewDispatcher(flake string, spawner ports.Spawner, logger *slog.Logger) *Dispatcher {
	if flake == "" {
		flake = DefaultFlake
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{flake: flake, spawner: spawner, logger: logger}
}

// Flake returns the flake reference used for targets.
func (d *Dispatcher) Flake() string {
	return d.flake
}

// Resolve maps a match id and optional action using the dispatcher's flake.
func (d *Dispatcher) Resolve(matchID string, action *match.Action) InvocationRequest {
	return Resolve(d.flake, matchID, action)
}

// Dispatch resolves and spawns the invocation. It does not wait for the
// process. On failure the returned error is a *SpawnError wrapping the cause.
func (d *Dispatcher) Dispatch(matchID string, action *match.Action) (InvocationRequest, error) {
	if matchID == "" {
		return InvocationRequest{}, ErrEmptyMatchID
	}
	req := d.Resolve(matchID, action)
	if err := d.spawner.Spawn(req); err != nil {
		d.logger.Warn("spawn failed", "verb", req.Verb, "target", req.Target, "err", err)
		return req, &SpawnError{Request: req, Err: err}
	}
	d.logger.Info("spawned", "verb", req.Verb, "target", req.Target)
	return req, nil
}
