// Package socket implements a JSON-over-Unix-socket protocol for the
// krunner-nix daemon. The launcher frontend and the CLI talk to the daemon
// through it. Each message is one JSON object followed by \n.
package socket

import (
	"fmt"
	"os"
	"path/filepath"
)

// SocketPath returns the default Unix socket path.
// Format: $XDG_RUNTIME_DIR/krunner-nix.sock, or /tmp/krunner-nix-{uid}.sock
// when no runtime dir is set.
func SocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "krunner-nix.sock")
	}
	return fmt.Sprintf("/tmp/krunner-nix-%d.sock", os.Getuid())
}

// Method names for the protocol.
const (
	MethodMatch    = "match"
	MethodActions  = "actions"
	MethodRun      = "run"
	MethodHealth   = "health"
	MethodReload   = "reload"
	MethodShutdown = "shutdown"
)

// Request is the wire format for client-to-server messages.
type Request struct {
	ID     string      `json:"id"`
	Method string      `json:"method"`
	Params interface{} `json:"params,omitempty"`
}

// Response is the wire format for server-to-client messages.
type Response struct {
	ID     string      `json:"id"`
	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// MatchParams is the params for a match request.
type MatchParams struct {
	Query string `json:"query"`
}

// MatchResult is the result of a match request.
type MatchResult struct {
	Matches []MatchHit `json:"matches"`
	Count   int        `json:"count"`
	Elapsed string     `json:"elapsed"`
}

// MatchHit is a single launcher match (wire format).
type MatchHit struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Subtitle  string   `json:"subtitle"`
	Icon      string   `json:"icon"`
	MatchType string   `json:"match_type"` // "exact" or "possible"
	Actions   []string `json:"actions"`
	Relevance float64  `json:"relevance"`
}

// ActionInfo describes one action a match offers.
type ActionInfo struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Icon string `json:"icon"`
}

// ActionsResult is the result of an actions request.
type ActionsResult struct {
	Actions []ActionInfo `json:"actions"`
}

// RunParams is the params for a run request. An empty Action means run.
type RunParams struct {
	ID     string `json:"id"`
	Action string `json:"action,omitempty"`
}

// RunResult is the result of a run request.
type RunResult struct {
	Verb   string `json:"verb"`
	Target string `json:"target"`
}

// HealthResult is the result of a health request.
type HealthResult struct {
	Status     string `json:"status"`
	Source     string `json:"source"`
	Programs   int    `json:"programs"`
	Tokens     int    `json:"tokens"`
	Generation uint64 `json:"generation"`
	LoadedAt   int64  `json:"loaded_at"`
	Uptime     string `json:"uptime"`
}

// ReloadResult is the result of a reload request.
type ReloadResult struct {
	Programs   int    `json:"programs"`
	Tokens     int    `json:"tokens"`
	Generation uint64 `json:"generation"`
	FromCache  bool   `json:"from_cache"`
	ElapsedMs  int64  `json:"elapsed_ms"`
}

// SnapshotStats describes the catalog snapshot currently being served.
// Returned by AppQueries.Stats; the server adds status and uptime.
type SnapshotStats struct {
	Source     string
	Programs   int
	Tokens     int
	Generation uint64
	LoadedAt   int64
}
