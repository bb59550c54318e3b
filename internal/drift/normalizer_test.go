package drift

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_StripsCommentsAndWhitespace(t *testing.T) {
	n := NewNormalizer()
	source := "func foo() { // a comment\n  return 1 \n}\n"
	result := n.Normalize(source)

	assert.NotContains(t, result.Normalized, "comment")
	assert.Contains(t, result.Transformations, "strip_comments")
	assert.Contains(t, result.Transformations, "collapse_whitespace")
}

func TestNormalize_IsDeterministic(t *testing.T) {
	n := NewNormalizer()
	source := "x := 1 // set x\ny := 2\n"
	a := n.Normalize(source)
	b := n.Normalize(source)
	assert.Equal(t, a.Hash, b.Hash)
	assert.Equal(t, a.Normalized, b.Normalized)
}

func TestNormalize_IsIdempotent(t *testing.T) {
	n := NewNormalizer()
	once := n.Normalize("a   b\t\tc // x\n")
	twice := n.Normalize(once.Normalized)
	assert.Equal(t, once.Normalized, twice.Normalized)
}

func TestTokenize_LowercasesAndDropsPunctuation(t *testing.T) {
	tokens := Tokenize("Hello, World! Foo-bar.")
	joined := map[string]bool{}
	for _, tok := range tokens {
		joined[tok] = true
	}
	assert.True(t, joined["hello"])
	assert.True(t, joined["world"])
	assert.False(t, joined[","])
	assert.False(t, joined["!"])
}
