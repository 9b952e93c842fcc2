package socket

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"
)

// AppQueries is what the server needs from the daemon's app layer.
// Thread safety is the implementor's responsibility.
type AppQueries interface {
	Match(query string) []MatchHit
	Actions() []ActionInfo
	Run(id, action string) (RunResult, error)
	Reload(ctx context.Context) (ReloadResult, error)
	Stats() SnapshotStats
}

// Server is the daemon that listens on a Unix socket and serves launcher requests.
type Server struct {
	queries  AppQueries
	logger   *slog.Logger
	listener net.Listener
	sockPath string
	started  time.Time

	ctx          context.Context // cancelled by Stop; bounds long requests like reload
	cancel       context.CancelFunc
	done         chan struct{}
	shutdownCh   chan struct{} // closed when a remote shutdown request is received
	shutdownOnce sync.Once
	stopOnce     sync.Once
	wg           sync.WaitGroup

	connMu sync.Mutex
	conns  map[net.Conn]struct{}
}

// NewServer creates a daemon server answering from queries.
// A nil logger means slog.Default().
func NewServer(sockPath string, queries AppQueries, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		queries:    queries,
		logger:     logger,
		sockPath:   sockPath,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
		shutdownCh: make(chan struct{}),
		conns:      make(map[net.Conn]struct{}),
	}
}

// Start begins listening on the Unix socket. It handles stale sockets by
// attempting a connection first. If the connection fails, the stale socket
// is removed before binding.
func (s *Server) Start() error {
	// Handle stale socket
	if _, err := os.Stat(s.sockPath); err == nil {
		conn, err := net.DialTimeout("unix", s.sockPath, 500*time.Millisecond)
		if err == nil {
			conn.Close()
			return fmt.Errorf("daemon already running at %s", s.sockPath)
		}
		// Stale socket, remove it
		os.Remove(s.sockPath)
	}

	ln, err := net.Listen("unix", s.sockPath)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	s.listener = ln
	s.started = time.Now()

	s.wg.Add(1)
	go s.acceptLoop()

	s.logger.Info("listening", "socket", s.sockPath)
	return nil
}

// Stop gracefully shuts down the server, closing the listener and removing the socket file.
// Idempotent: safe to call after a remote shutdown and again on signal.
func (s *Server) Stop() error {
	s.stopOnce.Do(func() {
		close(s.done)
		s.cancel()
		if s.listener == nil {
			return // never bound, leave any existing socket alone
		}
		s.listener.Close()
		s.closeConns()
		s.wg.Wait()
		os.Remove(s.sockPath)
	})
	return nil
}

// ShutdownCh returns a channel that is closed when a remote shutdown request
// is received. The daemon's main goroutine should select on this alongside
// OS signals so the process actually exits after a remote stop.
func (s *Server) ShutdownCh() <-chan struct{} {
	return s.shutdownCh
}

// Addr returns the socket path the server is listening on.
func (s *Server) Addr() string {
	return s.sockPath
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				continue
			}
		}
		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

// trackConn registers a live connection so Stop can unblock its reader.
// It reports false once the server is stopping.
func (s *Server) trackConn(conn net.Conn) bool {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	select {
	case <-s.done:
		return false
	default:
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrackConn(conn net.Conn) {
	s.connMu.Lock()
	delete(s.conns, conn)
	s.connMu.Unlock()
}

// closeConns closes every open client connection. Idle clients are parked
// in a read and would otherwise hold Stop forever.
func (s *Server) closeConns() {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	for conn := range s.conns {
		conn.Close()
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()
	if !s.trackConn(conn) {
		return
	}
	defer s.untrackConn(conn)

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024) // 1MB max message

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.writeResponse(conn, Response{Error: "invalid request JSON"})
			continue
		}

		resp := s.handleRequest(req)
		s.writeResponse(conn, resp)

		if req.Method == MethodShutdown {
			s.shutdownOnce.Do(func() { close(s.shutdownCh) })
			return
		}
	}
}

// handleRequest dispatches one request. A panicking handler answers with an
// error instead of taking the daemon down.
func (s *Server) handleRequest(req Request) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("request panicked", "method", req.Method, "panic", r)
			resp = Response{ID: req.ID, Error: "internal error"}
		}
	}()

	switch req.Method {
	case MethodMatch:
		return s.handleMatch(req)
	case MethodActions:
		return Response{ID: req.ID, Result: ActionsResult{Actions: s.queries.Actions()}}
	case MethodRun:
		return s.handleRun(req)
	case MethodHealth:
		return s.handleHealth(req)
	case MethodReload:
		return s.handleReload(req)
	case MethodShutdown:
		return Response{ID: req.ID, Result: struct{}{}}
	default:
		return Response{ID: req.ID, Error: fmt.Sprintf("unknown method: %s", req.Method)}
	}
}

// decodeParams re-marshals the generic params into the typed struct.
func decodeParams(req Request, v interface{}) error {
	paramsJSON, err := json.Marshal(req.Params)
	if err != nil {
		return err
	}
	return json.Unmarshal(paramsJSON, v)
}

func (s *Server) handleMatch(req Request) Response {
	var params MatchParams
	if err := decodeParams(req, &params); err != nil {
		return Response{ID: req.ID, Error: "invalid match params"}
	}

	start := time.Now()
	hits := s.queries.Match(params.Query)
	elapsed := time.Since(start)

	if hits == nil {
		hits = []MatchHit{}
	}
	s.logger.Debug("match", "query", params.Query, "count", len(hits), "elapsed", elapsed)

	return Response{
		ID: req.ID,
		Result: MatchResult{
			Matches: hits,
			Count:   len(hits),
			Elapsed: elapsed.String(),
		},
	}
}

func (s *Server) handleRun(req Request) Response {
	var params RunParams
	if err := decodeParams(req, &params); err != nil {
		return Response{ID: req.ID, Error: "invalid run params"}
	}
	result, err := s.queries.Run(params.ID, params.Action)
	if err != nil {
		return Response{ID: req.ID, Error: err.Error()}
	}
	return Response{ID: req.ID, Result: result}
}

func (s *Server) handleHealth(req Request) Response {
	stats := s.queries.Stats()
	return Response{
		ID: req.ID,
		Result: HealthResult{
			Status:     "ok",
			Source:     stats.Source,
			Programs:   stats.Programs,
			Tokens:     stats.Tokens,
			Generation: stats.Generation,
			LoadedAt:   stats.LoadedAt,
			Uptime:     time.Since(s.started).Round(time.Second).String(),
		},
	}
}

func (s *Server) handleReload(req Request) Response {
	result, err := s.queries.Reload(s.ctx)
	if err != nil {
		return Response{ID: req.ID, Error: err.Error()}
	}
	return Response{ID: req.ID, Result: result}
}

func (s *Server) writeResponse(conn net.Conn, resp Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	data = append(data, '\n')
	conn.Write(data)
}
