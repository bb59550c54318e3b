// Package patternsearch ranks indexed text entries by similarity to a
// query. It is a standalone index: resume.Engine.FindBestResumePoint does
// not consult it.
//
// Grounded in the teacher's internal/learning/knowledge_graph.go (node/
// edge vocabulary over tasks, files, and outcomes) trimmed to the single
// concern spec.md §9's Open Question calls for: a pluggable Vectorizer,
// defaulting to a hash-based bit-vector placeholder rather than a real
// embedding model.
package patternsearch

import "hash/fnv"

// VectorBits is the placeholder vectorizer's output width.
const VectorBits = 64

// Vectorizer turns arbitrary text (a task prompt, an error message, a
// normalized output) into a fixed-width bit vector for similarity
// comparison. Implementations may back this with a real embedding
// model; HashVectorizer is a deterministic placeholder.
type Vectorizer interface {
	Vectorize(text string) uint64
}

// HashVectorizer derives a bit vector from an FNV-1a hash of the input.
// It has no semantic notion of similarity beyond "identical text hashes
// identically" — good enough to break ties deterministically, not a
// substitute for a trained embedding.
type HashVectorizer struct{}

func (HashVectorizer) Vectorize(text string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(text))
	return h.Sum64()
}

// HammingDistance counts the differing bits between two vectors; 0 means
// identical, VectorBits means maximally different.
func HammingDistance(a, b uint64) int {
	x := a ^ b
	count := 0
	for x != 0 {
		count++
		x &= x - 1
	}
	return count
}

// Similarity converts a Hamming distance to a 0.0-1.0 score, 1.0 being
// identical vectors.
func Similarity(a, b uint64) float64 {
	return 1.0 - float64(HammingDistance(a, b))/float64(VectorBits)
}

// Entry is one indexed record: an identifier plus the text it was
// vectorized from.
type Entry struct {
	ID   string
	Text string
}

// Index ranks candidate entries by similarity to a query text.
type Index struct {
	vectorizer Vectorizer
	entries    []indexedEntry
}

type indexedEntry struct {
	id     string
	vector uint64
}

// NewIndex builds an Index using v to vectorize both stored entries and
// queries. A nil v defaults to HashVectorizer.
func NewIndex(v Vectorizer) *Index {
	if v == nil {
		v = HashVectorizer{}
	}
	return &Index{vectorizer: v}
}

// Add indexes one entry for future similarity queries.
func (idx *Index) Add(e Entry) {
	idx.entries = append(idx.entries, indexedEntry{id: e.ID, vector: idx.vectorizer.Vectorize(e.Text)})
}

// Best returns the indexed entry's ID most similar to query, and its
// similarity score. ok is false when the index is empty.
func (idx *Index) Best(query string) (id string, similarity float64, ok bool) {
	if len(idx.entries) == 0 {
		return "", 0, false
	}

	qv := idx.vectorizer.Vectorize(query)
	bestID := idx.entries[0].id
	bestSim := Similarity(qv, idx.entries[0].vector)

	for _, e := range idx.entries[1:] {
		sim := Similarity(qv, e.vector)
		if sim > bestSim {
			bestSim = sim
			bestID = e.id
		}
	}
	return bestID, bestSim, true
}
