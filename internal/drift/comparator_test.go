package drift

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComparator_HashEqualityFastPath(t *testing.T) {
	c := NewComparator()
	result := c.Compare("same text", "hash-x", "same text", "hash-x")
	assert.True(t, result.Identical)
	assert.Equal(t, 1.0, result.Similarity)
}

func TestComparator_StructuralAndContentWeighting(t *testing.T) {
	c := NewComparator()
	result := c.Compare("line one\nline two", "h1", "line one\nline three", "h2")
	assert.False(t, result.Identical)
	assert.Greater(t, result.Content, 0.0)
	require.NotEmpty(t, result.Differences)
}

func TestComparator_DifferencesAreBounded(t *testing.T) {
	c := NewComparator()
	var a, b string
	for i := 0; i < MaxDifferences+10; i++ {
		a += "unique-a-line\n"
		b += "unique-b-line\n"
	}
	result := c.Compare(a, "ha", b, "hb")
	assert.LessOrEqual(t, len(result.Differences), MaxDifferences)
}

func TestSectionHistogram_ClassifiesLinesByRole(t *testing.T) {
	text := "import \"fmt\"\nfunc main() {\nfmt.Println(\"hi\")\n}"
	hist := sectionHistogram(text)
	assert.Equal(t, 1, hist["import"])
	assert.Equal(t, 1, hist["block_open"])
	assert.Equal(t, 1, hist["block_close"])
	assert.Equal(t, 1, hist["statement"])
}

func TestHistogramOverlap_EdgeCases(t *testing.T) {
	assert.Equal(t, 1.0, histogramOverlap(map[string]int{}, map[string]int{}))
	assert.Equal(t, 0.0, histogramOverlap(map[string]int{"statement": 1}, map[string]int{}))
	assert.Equal(t, 1.0, histogramOverlap(map[string]int{"statement": 3}, map[string]int{"statement": 3}))
}

func TestHistogramOverlap_PartialOverlap(t *testing.T) {
	a := map[string]int{"statement": 4, "import": 2}
	b := map[string]int{"statement": 2, "import": 2}
	// min(4,2)+min(2,2) = 4, max(4,2)+max(2,2) = 6
	assert.InDelta(t, 4.0/6.0, histogramOverlap(a, b), 0.0001)
}

func TestComparator_StructuralUsesHistogramOverlapNotLineJaccard(t *testing.T) {
	c := NewComparator()
	// Same section-type shape (import, block_open, statement, block_close)
	// but different content, so structural should score high even though
	// the lines themselves differ entirely.
	a := "import \"fmt\"\nfunc main() {\nfmt.Println(\"a\")\n}"
	b := "import \"os\"\nfunc run() {\nos.Exit(1)\n}"
	result := c.Compare(a, "ha", b, "hb")
	assert.Equal(t, 1.0, result.Structural)
	assert.Less(t, result.Content, 1.0)
}

func TestJaccard_EdgeCases(t *testing.T) {
	assert.Equal(t, 1.0, jaccard(nil, nil))
	assert.Equal(t, 0.0, jaccard([]string{"a"}, nil))
	assert.Equal(t, 1.0, jaccard([]string{"a", "b"}, []string{"b", "a"}))
}

func TestFindConsensus_MajorityWins(t *testing.T) {
	texts := []string{"a", "a", "b"}
	hashes := []string{"h1", "h1", "h2"}
	consensus, unique, agreement := FindConsensus(texts, hashes)
	assert.Equal(t, "a", consensus)
	assert.Equal(t, 2, unique)
	assert.InDelta(t, 2.0/3.0, agreement, 0.0001)
}

func TestFindConsensus_Empty(t *testing.T) {
	consensus, unique, agreement := FindConsensus(nil, nil)
	assert.Equal(t, "", consensus)
	assert.Equal(t, 0, unique)
	assert.Equal(t, 0.0, agreement)
}
