package ports

// Verbs understood by the process spawner. Each maps to the nix subcommand of
// the same name.
const (
	VerbRun   = "run"
	VerbShell = "shell"
)

// Invocation is a request to run one nix subcommand against a flake output,
// e.g. {Verb: "run", Target: "nixpkgs#hello"}.
type Invocation struct {
	Verb   string `json:"verb"`
	Target string `json:"target"`
}

// Spawner starts an external process for an Invocation.
// Spawn is fire-and-forget: it returns once the process has started (or failed
// to start) and never waits for it to exit. Implementations must be safe for
// concurrent use; no ordering exists between concurrent spawns.
type Spawner interface {
	Spawn(inv Invocation) error
}
