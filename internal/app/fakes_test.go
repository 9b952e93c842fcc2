package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/pluiedev/krunner-nix/internal/ports"
)

const helloCatalog = `{
  "legacyPackages.x86_64-linux.hello": {"description": "A program that produces a familiar, friendly greeting", "pname": "hello", "version": "2.12.1"},
  "legacyPackages.x86_64-linux.hello-wayland": {"description": "Hello world Wayland client", "pname": "hello-wayland", "version": "0-unstable"},
  "legacyPackages.x86_64-linux.cowsay": {"description": "A program which generates ASCII pictures of a cow with a message", "pname": "cowsay", "version": "3.7.0"},
  "legacyPackages.x86_64-linux.ripgrep": {"description": "A utility that combines the usability of The Silver Searcher with the raw speed of grep", "pname": "ripgrep", "version": "14.1.0"}
}`

type entryJSON struct {
	Description string `json:"description"`
	Pname       string `json:"pname"`
	Version     string `json:"version"`
}

// catalogJSON renders id -> description into nix search JSON.
func catalogJSON(programs map[string]string) []byte {
	raw := make(map[string]entryJSON, len(programs))
	for id, desc := range programs {
		raw["legacyPackages.x86_64-linux."+id] = entryJSON{Description: desc, Pname: id, Version: "1.0"}
	}
	data, err := json.Marshal(raw)
	if err != nil {
		panic(err)
	}
	return data
}

// fakeSource is an in-memory ports.CatalogSource.
type fakeSource struct {
	mu    sync.Mutex
	key   string
	data  []byte
	err   error
	calls int
}

func newFakeSource(data string) *fakeSource {
	return &fakeSource{key: "nixpkgs", data: []byte(data)}
}

func (s *fakeSource) Key() string { return s.key }

func (s *fakeSource) Fetch(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return append([]byte(nil), s.data...), nil
}

func (s *fakeSource) set(data []byte, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data, s.err = data, err
}

func (s *fakeSource) fetches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// memCache is an in-memory ports.CatalogCache.
type memCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	saves   int
}

type cacheEntry struct {
	data []byte
	at   time.Time
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string]cacheEntry)}
}

func (c *memCache) SaveCatalog(key string, data []byte, fetchedAt time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saves++
	c.entries[key] = cacheEntry{data: append([]byte(nil), data...), at: fetchedAt}
	return nil
}

func (c *memCache) LoadCatalog(key string) ([]byte, time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, time.Time{}, nil
	}
	return e.data, e.at, nil
}

func (c *memCache) DeleteCatalog(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

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

// fakeWatcher hands its callback back to the test.
type fakeWatcher struct {
	path     string
	onChange func(string)
	stopped  bool
	err      error
}

func (w *fakeWatcher) Watch(path string, onChange func(string)) error {
	if w.err != nil {
		return w.err
	}
	w.path, w.onChange = path, onChange
	return nil
}

func (w *fakeWatcher) Stop() error {
	w.stopped = true
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fixedClock returns a now func the test can advance.
func fixedClock(start time.Time) (func() time.Time, func(time.Duration)) {
	var mu sync.Mutex
	now := start
	return func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			return now
		}, func(d time.Duration) {
			mu.Lock()
			defer mu.Unlock()
			now = now.Add(d)
		}
}

func fillerWords(n int) string {
	s := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("word%d", i)
	}
	return s
}

func (s *recordingSpawner) invocations() []ports.Invocation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.Invocation(nil), s.calls...)
}
