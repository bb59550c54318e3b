package patternsearch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashVectorizer_IdenticalTextHashesIdentically(t *testing.T) {
	v := HashVectorizer{}
	assert.Equal(t, v.Vectorize("step-1 timeout"), v.Vectorize("step-1 timeout"))
}

func TestHashVectorizer_DifferentTextUsuallyDiffers(t *testing.T) {
	v := HashVectorizer{}
	assert.NotEqual(t, v.Vectorize("step-1 timeout"), v.Vectorize("step-2 panic"))
}

func TestSimilarity_IdenticalVectorsScoreOne(t *testing.T) {
	assert.Equal(t, 1.0, Similarity(42, 42))
}

func TestSimilarity_OppositeVectorsScoreZero(t *testing.T) {
	assert.Equal(t, 0.0, Similarity(0, ^uint64(0)))
}

func TestIndex_BestReturnsFalseWhenEmpty(t *testing.T) {
	idx := NewIndex(nil)
	_, _, ok := idx.Best("anything")
	assert.False(t, ok)
}

func TestIndex_BestPrefersExactMatch(t *testing.T) {
	idx := NewIndex(nil)
	idx.Add(Entry{ID: "a", Text: "connection refused"})
	idx.Add(Entry{ID: "b", Text: "disk full"})

	id, sim, ok := idx.Best("connection refused")
	assert.True(t, ok)
	assert.Equal(t, "a", id)
	assert.Equal(t, 1.0, sim)
}
