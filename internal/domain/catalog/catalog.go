// Package catalog holds the immutable snapshot of searchable Nix programs.
//
// A Catalog is built exactly once from the JSON emitted by `nix search --json`
// and never mutated afterwards. Each Program gets a document key equal to its
// position in the catalog; the search index refers to programs only through
// these keys.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrMalformedAttrPath is returned when an attribute path has no third segment.
	ErrMalformedAttrPath = errors.New("malformed attribute path")
	// ErrMissingPname is returned when a catalog entry has an empty pname.
	ErrMissingPname = errors.New("missing pname")
	// ErrMalformedJSON is returned when the catalog source is not a JSON object of entries.
	ErrMalformedJSON = errors.New("malformed catalog JSON")
)

// Program is a single installable package.
type Program struct {
	ID          string `json:"id"`
	AttrPath    string `json:"attr_path"`
	Description string `json:"description"`
	Pname       string `json:"pname"`
	Version     string `json:"version"`
}

// IndexableFields returns the fields tokenized into the search index, in order.
func (p Program) IndexableFields() []string {
	return []string{p.ID, p.Description, p.Pname}
}

// entry is the value shape of one key in the nix search JSON object.
type entry struct {
	Description string `json:"description"`
	Pname       string `json:"pname"`
	Version     string `json:"version"`
}

// Catalog is an ordered, read-only collection of programs.
type Catalog struct {
	programs []Program
	byID     map[string][]int // FoldID(id) -> keys
}

// New builds a catalog from programs in the given order. The slice is copied.
func New(programs []Program) *Catalog {
	c := &Catalog{
		programs: make([]Program, len(programs)),
		byID:     make(map[string][]int, len(programs)),
	}
	copy(c.programs, programs)
	for key, p := range c.programs {
		lid := FoldID(p.ID)
		c.byID[lid] = append(c.byID[lid], key)
	}
	return c
}

// Parse decodes nix search JSON into a Catalog. Entries are ordered by
// attribute path so document keys are reproducible across loads.
func Parse(data []byte) (*Catalog, error) {
	var raw map[string]entry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}

	paths := make([]string, 0, len(raw))
	for path := range raw {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	programs := make([]Program, 0, len(paths))
	for _, path := range paths {
		e := raw[path]
		id, err := DeriveID(path)
		if err != nil {
			return nil, err
		}
		if e.Pname == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingPname, path)
		}
		programs = append(programs, Program{
			ID:          id,
			AttrPath:    path,
			Description: e.Description,
			Pname:       e.Pname,
			Version:     e.Version,
		})
	}
	return New(programs), nil
}

// DeriveID returns everything after the second '.' of an attribute path.
//
//	"legacyPackages.x86_64-linux.hello"              -> "hello"
//	"legacyPackages.x86_64-linux.python3Packages.rq" -> "python3Packages.rq"
func DeriveID(attrPath string) (string, error) {
	parts := strings.SplitN(attrPath, ".", 3)
	if len(parts) < 3 || parts[2] == "" {
		return "", fmt.Errorf("%w: %q", ErrMalformedAttrPath, attrPath)
	}
	return parts[2], nil
}

// FoldID lowercases ASCII letters only. Other runes are kept as is, so
// "ß" and "SS" or "ς" and "σ" stay distinct.
func FoldID(id string) string {
	for i := 0; i < len(id); i++ {
		if c := id[i]; 'A' <= c && c <= 'Z' {
			buf := []byte(id)
			for j := i; j < len(buf); j++ {
				if 'A' <= buf[j] && buf[j] <= 'Z' {
					buf[j] += 'a' - 'A'
				}
			}
			return string(buf)
		}
	}
	return id
}

// SameID reports whether two ids are equal ignoring ASCII case.
func SameID(a, b string) bool {
	return len(a) == len(b) && FoldID(a) == FoldID(b)
}

// Len returns the number of programs.
func (c *Catalog) Len() int {
	return len(c.programs)
}

// Get returns the program for a document key.
func (c *Catalog) Get(key int) (Program, bool) {
	if key < 0 || key >= len(c.programs) {
		return Program{}, false
	}
	return c.programs[key], true
}

// MustGet returns the program for a document key and panics if the key is out
// of range. An out-of-range key means the index and catalog are out of sync.
func (c *Catalog) MustGet(key int) Program {
	p, ok := c.Get(key)
	if !ok {
		panic(fmt.Sprintf("catalog: document key %d out of range [0,%d): index/catalog desynchronized", key, len(c.programs)))
	}
	return p
}

// LookupID returns the keys of programs whose ID equals id, ignoring ASCII case.
func (c *Catalog) LookupID(id string) []int {
	keys := c.byID[FoldID(id)]
	if len(keys) == 0 {
		return nil
	}
	out := make([]int, len(keys))
	copy(out, keys)
	return out
}

// Each calls fn for every program in key order.
func (c *Catalog) Each(fn func(key int, p Program)) {
	for key, p := range c.programs {
		fn(key, p)
	}
}
