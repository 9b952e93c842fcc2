package terminal

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/pluiedev/krunner-nix/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgv_Run(t *testing.T) {
	s := NewSpawner(nil, "", nil)
	argv, err := s.Argv(ports.Invocation{Verb: ports.VerbRun, Target: "nixpkgs#hello"})
	require.NoError(t, err)
	assert.Equal(t, []string{"konsole", "-e", "nix", "run", "nixpkgs#hello", "--extra-experimental-features", "nix-command flakes"}, argv)
}

func TestArgv_ShellCustomTerminal(t *testing.T) {
	s := NewSpawner([]string{"foot", "--"}, "/run/current-system/sw/bin/nix", nil)
	argv, err := s.Argv(ports.Invocation{Verb: ports.VerbShell, Target: "nixpkgs#cowsay"})
	require.NoError(t, err)
	assert.Equal(t, []string{"foot", "--", "/run/current-system/sw/bin/nix", "shell", "nixpkgs#cowsay", "--extra-experimental-features", "nix-command flakes"}, argv)
}

func TestArgv_UnknownVerb(t *testing.T) {
	_, err := NewSpawner(nil, "", nil).Argv(ports.Invocation{Verb: "develop", Target: "nixpkgs#hello"})
	assert.ErrorIs(t, err, ErrUnknownVerb)
}

func TestNewSpawner_CopiesTerminal(t *testing.T) {
	term := []string{"foot", "--"}
	s := NewSpawner(term, "", nil)
	term[0] = "mutated"
	argv, err := s.Argv(ports.Invocation{Verb: ports.VerbRun, Target: "x#y"})
	require.NoError(t, err)
	assert.Equal(t, "foot", argv[0])
}

func TestSpawn_MissingTerminalIsError(t *testing.T) {
	s := NewSpawner([]string{filepath.Join(t.TempDir(), "no-such-terminal")}, "", nil)
	err := s.Spawn(ports.Invocation{Verb: ports.VerbRun, Target: "nixpkgs#hello"})
	assert.Error(t, err)
}

func TestSpawn_DoesNotWait(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	dir := t.TempDir()
	marker := filepath.Join(dir, "ran")
	term := filepath.Join(dir, "term")
	// The fake terminal records its arguments, then lingers.
	script := "#!/bin/sh\necho \"$@\" > " + marker + "\nsleep 5\n"
	require.NoError(t, os.WriteFile(term, []byte(script), 0o755))

	s := NewSpawner([]string{term}, "nix", nil)
	start := time.Now()
	require.NoError(t, s.Spawn(ports.Invocation{Verb: ports.VerbShell, Target: "nixpkgs#hello"}))
	assert.Less(t, time.Since(start), 2*time.Second)

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(marker)
		return err == nil && len(data) > 0
	}, 3*time.Second, 20*time.Millisecond)
	data, _ := os.ReadFile(marker)
	assert.Contains(t, string(data), "nix shell nixpkgs#hello")
}
