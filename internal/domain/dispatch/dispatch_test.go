package dispatch

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/pluiedev/krunner-nix/internal/domain/match"
	"github.com/pluiedev/krunner-nix/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSpawner captures invocations and optionally fails.
type recordingSpawner struct {
	mu    sync.Mutex
	calls []ports.Invocation
	err   error
}

func (s *recordingSpawner) Spawn(inv ports.Invocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, inv)
	return s.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func actionPtr(a match.Action) *match.Action { return &a }

func TestResolve_DefaultIsRun(t *testing.T) {
	for _, id := range []string{"hello", "python3Packages.requests", ""} {
		assert.Equal(t, Resolve("nixpkgs", id, nil), Resolve("nixpkgs", id, actionPtr(match.Run)))
	}
	assert.Equal(t, InvocationRequest{Verb: "run", Target: "nixpkgs#hello"}, Resolve("nixpkgs", "hello", nil))
}

func TestResolve_ShellDiffersInVerbOnly(t *testing.T) {
	run := Resolve("nixpkgs", "hello", nil)
	shell := Resolve("nixpkgs", "hello", actionPtr(match.Shell))
	assert.Equal(t, "shell", shell.Verb)
	assert.NotEqual(t, run.Verb, shell.Verb)
	assert.Equal(t, run.Target, shell.Target)
}

func TestResolve_CustomFlake(t *testing.T) {
	req := Resolve("github:edolstra/nix-warez?dir=blender", "blender_4_0", nil)
	assert.Equal(t, "github:edolstra/nix-warez?dir=blender#blender_4_0", req.Target)
}

func TestNewDispatcher_Defaults(t *testing.T) {
	d := NewDispatcher("", &recordingSpawner{}, nil)
	assert.Equal(t, DefaultFlake, d.Flake())
}

func TestDispatch_Spawns(t *testing.T) {
	sp := &recordingSpawner{}
	d := NewDispatcher("nixpkgs", sp, quietLogger())

	req, err := d.Dispatch("hello", actionPtr(match.Shell))
	require.NoError(t, err)
	assert.Equal(t, InvocationRequest{Verb: "shell", Target: "nixpkgs#hello"}, req)
	assert.Equal(t, []ports.Invocation{req}, sp.calls)
}

func TestDispatch_SpawnFailureIsTypedAndRecoverable(t *testing.T) {
	cause := errors.New("konsole: not found")
	sp := &recordingSpawner{err: cause}
	d := NewDispatcher("nixpkgs", sp, quietLogger())

	_, err := d.Dispatch("hello", nil)
	require.Error(t, err)

	var spawnErr *SpawnError
	require.ErrorAs(t, err, &spawnErr)
	assert.Equal(t, "run", spawnErr.Request.Verb)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "nixpkgs#hello")

	// The dispatcher keeps working after a failure.
	sp.err = nil
	_, err = d.Dispatch("cowsay", nil)
	assert.NoError(t, err)
	assert.Len(t, sp.calls, 2)
}

func TestDispatch_EmptyID(t *testing.T) {
	sp := &recordingSpawner{}
	d := NewDispatcher("nixpkgs", sp, quietLogger())
	_, err := d.Dispatch("", nil)
	assert.ErrorIs(t, err, ErrEmptyMatchID)
	assert.Empty(t, sp.calls)
}
