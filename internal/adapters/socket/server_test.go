package socket

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Unix Socket Daemon: JSON-over-socket protocol for match, run, reload, shutdown
// =============================================================================

// fakeQueries is an in-memory AppQueries.
type fakeQueries struct {
	mu       sync.Mutex
	launched []RunParams
	reloads  int
	panicOn  string
}

func (f *fakeQueries) Match(query string) []MatchHit {
	if query == f.panicOn && query != "" {
		panic("index/catalog desynchronized")
	}
	if strings.TrimSpace(query) == "" {
		return nil
	}
	var hits []MatchHit
	for _, id := range []string{"hello", "hello-wayland"} {
		if strings.Contains(id, query) {
			typ := "possible"
			if id == query {
				typ = "exact"
			}
			hits = append(hits, MatchHit{
				ID:        id,
				Title:     "Nix: " + id,
				Icon:      "nix-snowflake",
				MatchType: typ,
				Actions:   []string{"run", "shell"},
				Relevance: 0.5,
			})
		}
	}
	return hits
}

func (f *fakeQueries) Actions() []ActionInfo {
	return []ActionInfo{
		{ID: "run", Text: "Run Nix program", Icon: "system-run-symbolic"},
		{ID: "shell", Text: "Spawn a new shell with Nix program", Icon: "new-command-alarm"},
	}
}

func (f *fakeQueries) Run(id, action string) (RunResult, error) {
	if action != "" && action != "run" && action != "shell" {
		return RunResult{}, errors.New("unknown action")
	}
	f.mu.Lock()
	f.launched = append(f.launched, RunParams{ID: id, Action: action})
	f.mu.Unlock()
	verb := "run"
	if action == "shell" {
		verb = "shell"
	}
	return RunResult{Verb: verb, Target: "nixpkgs#" + id}, nil
}

func (f *fakeQueries) Reload(ctx context.Context) (ReloadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reloads++
	return ReloadResult{Programs: 2, Tokens: 7, Generation: uint64(f.reloads + 1)}, nil
}

func (f *fakeQueries) Stats() SnapshotStats {
	return SnapshotStats{Source: "file:/tmp/catalog.json", Programs: 2, Tokens: 7, Generation: 1}
}

// testSocketPath returns a unique socket path for a test.
func testSocketPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.sock")
}

func startServer(t *testing.T, q AppQueries) (*Server, *Client) {
	t.Helper()
	sockPath := testSocketPath(t)
	srv := NewServer(sockPath, q, nil)
	require.NoError(t, srv.Start())
	t.Cleanup(func() { srv.Stop() })
	return srv, NewClient(sockPath)
}

func TestServer_MatchRoundtrip(t *testing.T) {
	_, client := startServer(t, &fakeQueries{})

	result, err := client.Match("hello")
	require.NoError(t, err)
	require.Equal(t, 2, result.Count)
	assert.Equal(t, "hello", result.Matches[0].ID)
	assert.Equal(t, "exact", result.Matches[0].MatchType)
	assert.Equal(t, []string{"run", "shell"}, result.Matches[0].Actions)
	assert.Equal(t, "possible", result.Matches[1].MatchType)
	assert.NotEmpty(t, result.Elapsed)

	// Nonexistent term
	result, err = client.Match("nonexistent")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Count)
	assert.NotNil(t, result.Matches)
}

func TestServer_EmptyQuery(t *testing.T) {
	_, client := startServer(t, &fakeQueries{})

	result, err := client.Match("   ")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Count)
	assert.Empty(t, result.Matches)
}

func TestServer_Actions(t *testing.T) {
	_, client := startServer(t, &fakeQueries{})

	result, err := client.Actions()
	require.NoError(t, err)
	require.Len(t, result.Actions, 2)
	assert.Equal(t, "run", result.Actions[0].ID)
	assert.Equal(t, "new-command-alarm", result.Actions[1].Icon)
}

func TestServer_Run(t *testing.T) {
	q := &fakeQueries{}
	_, client := startServer(t, q)

	result, err := client.Run("hello", "shell")
	require.NoError(t, err)
	assert.Equal(t, "shell", result.Verb)
	assert.Equal(t, "nixpkgs#hello", result.Target)

	result, err = client.Run("cowsay", "")
	require.NoError(t, err)
	assert.Equal(t, "run", result.Verb)

	_, err = client.Run("hello", "explode")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown action")

	assert.Len(t, q.launched, 2)
}

func TestServer_Reload(t *testing.T) {
	q := &fakeQueries{}
	_, client := startServer(t, q)

	result, err := client.Reload()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), result.Generation)
	assert.Equal(t, 1, q.reloads)
}

func TestServer_Health(t *testing.T) {
	_, client := startServer(t, &fakeQueries{})

	health, err := client.Health()
	require.NoError(t, err)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, 2, health.Programs)
	assert.Equal(t, 7, health.Tokens)
	assert.Equal(t, uint64(1), health.Generation)
	assert.NotEmpty(t, health.Uptime)
}

func TestServer_PanicIsContained(t *testing.T) {
	_, client := startServer(t, &fakeQueries{panicOn: "boom"})

	_, err := client.Match("boom")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "internal error")

	// Daemon keeps serving.
	result, err := client.Match("hello")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Count)
}

func TestServer_UnknownMethod(t *testing.T) {
	_, client := startServer(t, &fakeQueries{})

	_, err := client.call(Request{ID: "7", Method: "frobnicate"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown method")
}

func TestServer_InvalidJSON(t *testing.T) {
	srv, _ := startServer(t, &fakeQueries{})

	conn, err := net.Dial("unix", srv.Addr())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("{not json\n"))
	require.NoError(t, err)

	buf := make([]byte, 256)
	n, err := conn.Read(buf)
	require.NoError(t, err)
	assert.Contains(t, string(buf[:n]), "invalid request JSON")
}

func TestServer_Shutdown(t *testing.T) {
	sockPath := testSocketPath(t)
	srv := NewServer(sockPath, &fakeQueries{}, nil)
	require.NoError(t, srv.Start())

	client := NewClient(sockPath)

	// Verify it's running
	assert.True(t, client.Ping())

	// Send shutdown request, which closes shutdownCh (signals the daemon).
	require.NoError(t, client.Shutdown())

	select {
	case <-srv.ShutdownCh():
	default:
		t.Fatal("ShutdownCh should be closed after Shutdown request")
	}

	// The daemon is responsible for calling Stop() after receiving the signal.
	srv.Stop()
	srv.Stop()

	_, err := os.Stat(sockPath)
	assert.True(t, os.IsNotExist(err), "socket file should be removed after shutdown")
	assert.False(t, client.Ping())
}

func TestServer_StopWithIdleConnection(t *testing.T) {
	sockPath := testSocketPath(t)
	srv := NewServer(sockPath, &fakeQueries{}, nil)
	require.NoError(t, srv.Start())

	conn, err := net.Dial("unix", sockPath)
	require.NoError(t, err)
	defer conn.Close()

	// One roundtrip so the handler is parked reading the next line.
	_, err = conn.Write([]byte(`{"method":"health"}` + "\n"))
	require.NoError(t, err)
	buf := make([]byte, 4096)
	_, err = conn.Read(buf)
	require.NoError(t, err)

	stopped := make(chan struct{})
	go func() {
		srv.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked while an idle client connection was open")
	}

	_, err = os.Stat(sockPath)
	assert.True(t, os.IsNotExist(err), "socket file should be removed")

	// The server side hung up.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, err = conn.Read(buf)
	assert.Error(t, err)
}

func TestServer_ConcurrentClients(t *testing.T) {
	_, client := startServer(t, &fakeQueries{})
	sockPath := client.sockPath

	var wg sync.WaitGroup
	errs := make(chan error, 100)

	// 10 clients x 10 requests each
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := NewClient(sockPath)
			for j := 0; j < 10; j++ {
				result, err := c.Match("hello")
				if err != nil {
					errs <- err
					return
				}
				if result.Count != 2 {
					errs <- assert.AnError
					return
				}
			}
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent client error: %v", err)
	}
}

func TestServer_StaleSocket(t *testing.T) {
	sockPath := testSocketPath(t)

	// Create a stale socket file (not a real listener)
	require.NoError(t, os.WriteFile(sockPath, []byte("stale"), 0600))

	srv := NewServer(sockPath, &fakeQueries{}, nil)
	require.NoError(t, srv.Start(), "should replace stale socket")
	defer srv.Stop()

	health, err := NewClient(sockPath).Health()
	require.NoError(t, err)
	assert.Equal(t, "ok", health.Status)
}

func TestServer_AlreadyRunning(t *testing.T) {
	srv, _ := startServer(t, &fakeQueries{})

	second := NewServer(srv.Addr(), &fakeQueries{}, nil)
	err := second.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")
}

func TestSocketPath_RuntimeDir(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	assert.Equal(t, "/run/user/1000/krunner-nix.sock", SocketPath())

	t.Setenv("XDG_RUNTIME_DIR", "")
	assert.True(t, strings.HasPrefix(SocketPath(), "/tmp/krunner-nix-"))
}
