// Package index implements the in-memory inverted index and relevance scoring
// over a catalog snapshot.
//
// An Index is produced by a single call to Build and is read-only afterwards.
// There is no way to add documents to an existing Index: rebuilding means
// building a new Index from a new catalog and discarding the old pair
// together. Concurrent reads are safe.
package index

import "github.com/pluiedev/krunner-nix/internal/domain/catalog"

// Posting records how often a token occurs in one document.
type Posting struct {
	Key       int    // document key in the catalog
	Frequency uint32 // term frequency across all indexable fields
}

// Index maps tokens to posting lists for one catalog snapshot.
type Index struct {
	postings map[string][]Posting
	docLen   []int // non-empty token count per document key
	avgLen   float64
}

// Build tokenizes the indexable fields of every program and returns the
// inverted index. Fields carry equal weight: their tokens are counted into a
// single term-frequency table per document. Posting lists are ordered by
// ascending document key.
func Build(c *catalog.Catalog) *Index {
	idx := &Index{
		postings: make(map[string][]Posting),
		docLen:   make([]int, c.Len()),
	}

	total := 0
	c.Each(func(key int, p catalog.Program) {
		freq := make(map[string]uint32)
		n := 0
		for _, field := range p.IndexableFields() {
			for _, tok := range indexTokens(field) {
				freq[tok]++
				n++
			}
		}
		for tok, f := range freq {
			idx.postings[tok] = append(idx.postings[tok], Posting{Key: key, Frequency: f})
		}
		idx.docLen[key] = n
		total += n
	})

	if len(idx.docLen) > 0 {
		idx.avgLen = float64(total) / float64(len(idx.docLen))
	}
	return idx
}

// DocCount returns the number of documents the index was built from.
func (idx *Index) DocCount() int {
	return len(idx.docLen)
}

// TokenCount returns the number of distinct tokens in the index.
func (idx *Index) TokenCount() int {
	return len(idx.postings)
}

// DocFrequency returns how many documents contain token.
func (idx *Index) DocFrequency(token string) int {
	return len(idx.postings[token])
}
