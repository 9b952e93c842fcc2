// Package match turns scored query results into the records shown by the
// launcher.
package match

import (
	"strings"

	"github.com/pluiedev/krunner-nix/internal/domain/catalog"
	"github.com/pluiedev/krunner-nix/internal/domain/index"
)

// Icon is the icon shown for every match.
const Icon = "nix-snowflake"

// Type classifies how well a match fits the query.
type Type int

const (
	// PossibleMatch is any result that is not an exact id match.
	PossibleMatch Type = iota
	// ExactMatch means the trimmed query equals the program id, ignoring case.
	ExactMatch
)

// String implements fmt.Stringer.
func (t Type) String() string {
	if t == ExactMatch {
		return "exact"
	}
	return "possible"
}

// Match is one launcher result.
type Match struct {
	ID        string
	Title     string
	Subtitle  string
	Icon      string
	Type      Type
	Actions   []Action
	Relevance float64
}

// ActionIDs returns the wire identifiers of m's actions, in order.
func (m Match) ActionIDs() []string {
	ids := make([]string, len(m.Actions))
	for i, a := range m.Actions {
		ids[i] = a.ID()
	}
	return ids
}

// Format builds the Match for one query result. It has no side effects.
func Format(query string, r index.Result, p catalog.Program) Match {
	title := "Nix: " + p.ID
	if p.Version != "" {
		title += " (" + p.Version + ")"
	}

	typ := PossibleMatch
	if catalog.SameID(strings.TrimSpace(query), p.ID) {
		typ = ExactMatch
	}

	return Match{
		ID:        p.ID,
		Title:     title,
		Subtitle:  p.Description,
		Icon:      Icon,
		Type:      typ,
		Actions:   AllActions(),
		Relevance: r.Score,
	}
}

// FormatAll formats results against c, preserving order. A result whose key
// is missing from c is an internal invariant violation and panics.
func FormatAll(query string, results []index.Result, c *catalog.Catalog) []Match {
	matches := make([]Match, len(results))
	for i, r := range results {
		matches[i] = Format(query, r, c.MustGet(r.Key))
	}
	return matches
}
