// Package nix implements ports.CatalogSource by running `nix search` or by
// reading a previously dumped catalog file.
package nix

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// ExperimentalFlags enables the nix CLI on installations that still gate it.
var ExperimentalFlags = []string{"--extra-experimental-features", "nix-command flakes"}

// ErrEmptyOutput is returned when nix exits cleanly but prints nothing.
var ErrEmptyOutput = errors.New("nix search produced no output")

// CommandSource runs `nix search <flake> ^ --json` and returns its stdout.
type CommandSource struct {
	nix   string
	flake string
}

// NewCommandSource creates a source for flake using the nix binary at nix
// (looked up on PATH when it has no slash).
func NewCommandSource(nix, flake string) *CommandSource {
	if nix == "" {
		nix = "nix"
	}
	return &CommandSource{nix: nix, flake: flake}
}

// Args returns the argument vector passed to nix.
func (s *CommandSource) Args() []string {
	args := []string{"search", s.flake, "^", "--json"}
	return append(args, ExperimentalFlags...)
}

// Key implements ports.CatalogSource.
func (s *CommandSource) Key() string {
	return s.flake
}

// Fetch implements ports.CatalogSource.
func (s *CommandSource) Fetch(ctx context.Context) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	c := exec.CommandContext(ctx, s.nix, s.Args()...)
	c.Stdout = &stdout
	c.Stderr = &stderr
	if err := c.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("could not get nix index: %w: %s", err, lastLine(msg))
		}
		return nil, fmt.Errorf("could not get nix index: %w", err)
	}
	if stdout.Len() == 0 {
		return nil, ErrEmptyOutput
	}
	return stdout.Bytes(), nil
}

// FileSource reads catalog JSON from a file, e.g. one produced by
// `nix search nixpkgs ^ --json > catalog.json`.
type FileSource struct {
	path string
}

// NewFileSource creates a source reading path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Path returns the catalog file path.
func (s *FileSource) Path() string {
	return s.path
}

// Key implements ports.CatalogSource.
func (s *FileSource) Key() string {
	return "file:" + s.path
}

// Fetch implements ports.CatalogSource.
func (s *FileSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", s.path, err)
	}
	return data, nil
}

// lastLine keeps error output short; nix prints progress before the error.
func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
