package index

import (
	"math"
	"sort"
)

// MaxResults caps the number of results returned by a query.
const MaxResults = 10

// BM25 parameters. Term-frequency saturation is divided by k1+1 so every
// per-term weight lies in [0,1).
const (
	k1 = 1.2
	b  = 0.75
)

// Result is one scored document for a query.
type Result struct {
	Key   int     `json:"key"`
	Score float64 `json:"score"`
}

// Filter decides whether a document key may appear in results.
type Filter func(key int) bool

// Option configures an Engine.
type Option func(*Engine)

// WithFilter restricts results to documents accepted by f.
func WithFilter(f Filter) Option {
	return func(e *Engine) { e.filter = f }
}

// withLimit lowers the result cap. Values <= 0 or > MaxResults are ignored.
func withLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 && n <= MaxResults {
			e.limit = n
		}
	}
}

// Engine answers free-text queries against one Index.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	idx    *Index
	filter Filter
	limit  int
}

// NewEngine creates a query engine over idx.
func NewEngine(idx *Index, opts ...Option) *Engine {
	e := &Engine{idx: idx, limit: MaxResults}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Index returns the index the engine reads from.
func (e *Engine) Index() *Index {
	return e.idx
}

// Query tokenizes text and returns up to MaxResults documents sharing at
// least one token with it, ordered by descending score and then ascending
// document key. A query without non-empty tokens returns an empty result.
func (e *Engine) Query(text string) []Result {
	terms := e.queryTerms(text)
	if len(terms) == 0 {
		return []Result{}
	}

	scores := make(map[int]float64)
	for _, qt := range terms {
		for _, p := range e.idx.postings[qt.token] {
			if e.filter != nil && !e.filter(p.Key) {
				continue
			}
			scores[p.Key] += qt.idf * e.weight(p)
		}
	}

	norm := idfSum(terms)
	results := make([]Result, 0, len(scores))
	for key, raw := range scores {
		results = append(results, Result{Key: key, Score: clamp01(raw / norm)})
	}
	SortResults(results)

	if len(results) > e.limit {
		results = results[:e.limit]
	}
	return results
}

// Score returns the relevance of a single document for text, using the same
// function as Query. Documents sharing no token with text score 0.
func (e *Engine) Score(key int, text string) float64 {
	terms := e.queryTerms(text)
	if len(terms) == 0 {
		return 0
	}
	var raw float64
	for _, qt := range terms {
		for _, p := range e.idx.postings[qt.token] {
			if p.Key == key {
				raw += qt.idf * e.weight(p)
				break
			}
			if p.Key > key {
				break
			}
		}
	}
	return clamp01(raw / idfSum(terms))
}

// SortResults orders results by descending score, breaking ties by
// ascending document key.
func SortResults(results []Result) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Key < results[j].Key
	})
}

type queryTerm struct {
	token string
	idf   float64
}

// queryTerms returns the distinct non-empty query tokens with their idf.
func (e *Engine) queryTerms(text string) []queryTerm {
	n := float64(e.idx.DocCount())
	if n == 0 {
		return nil
	}
	seen := make(map[string]bool)
	var terms []queryTerm
	for _, tok := range indexTokens(text) {
		if seen[tok] {
			continue
		}
		seen[tok] = true
		df := float64(e.idx.DocFrequency(tok))
		terms = append(terms, queryTerm{
			token: tok,
			idf:   math.Log(1 + (n-df+0.5)/(df+0.5)),
		})
	}
	return terms
}

// weight is the saturated, length-normalized term frequency in [0,1).
func (e *Engine) weight(p Posting) float64 {
	tf := float64(p.Frequency)
	lenRatio := 1.0
	if e.idx.avgLen > 0 {
		lenRatio = float64(e.idx.docLen[p.Key]) / e.idx.avgLen
	}
	return tf * (k1 + 1) / (tf + k1*(1-b+b*lenRatio)) / (k1 + 1)
}

func idfSum(terms []queryTerm) float64 {
	var sum float64
	for _, qt := range terms {
		sum += qt.idf
	}
	return sum
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
