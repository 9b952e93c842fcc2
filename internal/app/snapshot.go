package app

import (
	"strings"
	"time"

	"github.com/pluiedev/krunner-nix/internal/domain/catalog"
	"github.com/pluiedev/krunner-nix/internal/domain/index"
	"github.com/pluiedev/krunner-nix/internal/domain/match"
)

// Snapshot is one immutable generation of catalog, index and engine.
// Requests load a snapshot once and never observe a partial reload.
type Snapshot struct {
	Catalog    *catalog.Catalog
	Engine     *index.Engine
	Generation uint64
	Source     string // ports.CatalogSource key the catalog came from
	FromCache  bool
	LoadedAt   time.Time
}

// newSnapshot indexes c and bundles it into a generation.
func newSnapshot(c *catalog.Catalog, generation uint64, source string, fromCache bool, at time.Time) *Snapshot {
	return &Snapshot{
		Catalog:    c,
		Engine:     index.NewEngine(index.Build(c)),
		Generation: generation,
		Source:     source,
		FromCache:  fromCache,
		LoadedAt:   at,
	}
}

// Query scores query and pins programs whose id equals it.
func (s *Snapshot) Query(query string) []index.Result {
	results := s.Engine.Query(query)
	exact := s.Catalog.LookupID(strings.TrimSpace(query))
	return pinExact(results, exact, func(key int) float64 {
		return s.Engine.Score(key, query)
	})
}

// Matches runs Query and formats the results for the launcher.
func (s *Snapshot) Matches(query string) []match.Match {
	return match.FormatAll(query, s.Query(query), s.Catalog)
}

// pinExact makes sure every key in exact appears in results. Missing keys
// take the slots of the lowest ranked non-exact results once the list is
// full; the list is then re-sorted and never grows past index.MaxResults.
func pinExact(results []index.Result, exact []int, score func(key int) float64) []index.Result {
	if len(exact) == 0 {
		return results
	}

	present := make(map[int]bool, len(results))
	for _, r := range results {
		present[r.Key] = true
	}
	pinned := make(map[int]bool, len(exact))
	for _, key := range exact {
		pinned[key] = true
	}

	changed := false
	for _, key := range exact {
		if present[key] {
			continue
		}
		r := index.Result{Key: key, Score: score(key)}
		if len(results) < index.MaxResults {
			results = append(results, r)
		} else {
			slot := -1
			for i := len(results) - 1; i >= 0; i-- {
				if !pinned[results[i].Key] {
					slot = i
					break
				}
			}
			if slot < 0 {
				break
			}
			results[slot] = r
		}
		present[key] = true
		changed = true
	}

	if changed {
		index.SortResults(results)
	}
	return results
}

// hasID reports whether a program with exactly this id is in the catalog.
func (s *Snapshot) hasID(id string) bool {
	for _, key := range s.Catalog.LookupID(id) {
		if s.Catalog.MustGet(key).ID == id {
			return true
		}
	}
	return false
}
