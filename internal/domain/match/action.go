package match

import (
	"errors"
	"fmt"
)

// ErrUnknownAction is returned by ParseAction for ids outside the action set.
var ErrUnknownAction = errors.New("unknown action")

// Action is one of the fixed operations attached to every match.
type Action int

const (
	// Run launches the program in a terminal (`nix run`).
	Run Action = iota
	// Shell opens a terminal shell with the program on PATH (`nix shell`).
	Shell
)

// ActionInfo is the static metadata shown by the launcher for an action.
type ActionInfo struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Icon string `json:"icon"`
}

// AllActions returns every action in display order.
func AllActions() []Action {
	return []Action{Run, Shell}
}

// Info returns the metadata for a.
func (a Action) Info() ActionInfo {
	switch a {
	case Run:
		return ActionInfo{ID: "run", Text: "Run Nix program", Icon: "system-run-symbolic"}
	case Shell:
		return ActionInfo{ID: "shell", Text: "Spawn a new shell with Nix program", Icon: "new-command-alarm"}
	default:
		panic(fmt.Sprintf("match: invalid action %d", int(a)))
	}
}

// ID returns the wire identifier of a.
func (a Action) ID() string {
	return a.Info().ID
}

// String implements fmt.Stringer.
func (a Action) String() string {
	return a.ID()
}

// ParseAction maps a wire identifier back to its Action.
func ParseAction(id string) (Action, error) {
	switch id {
	case "run":
		return Run, nil
	case "shell":
		return Shell, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownAction, id)
	}
}
