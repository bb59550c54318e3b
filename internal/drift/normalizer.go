// Package drift implements the drift-detection pipeline (spec.md §4.7):
// normalizing generated output, comparing normalized variants, sampling
// repeated runs of a task for reproducibility, and rolling those up into
// a confidence-scored determinism verdict.
//
// The Normalizer/Comparator pair is grounded on the teacher's
// internal/pattern/hash.go (normalize: lowercase, strip punctuation,
// split, drop stopwords, sort, rejoin; JaccardSimilarity over token
// sets), generalized from task-description deduplication to source-text
// drift: this package additionally strips comments, collapses
// whitespace, and sorts import lines before hashing, and tokenizes with
// github.com/clipperhouse/uax29/v2 instead of unicode.IsLetter/IsDigit
// rune scanning so multi-byte and punctuation-adjacent tokens split the
// way a real word-segmentation algorithm would.
package drift

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"sort"
	"strings"

	"github.com/clipperhouse/uax29/v2/words"

	"github.com/wavecore/execore/internal/model"
)

var (
	lineCommentRE  = regexp.MustCompile(`(?m)//.*$`)
	blockCommentRE = regexp.MustCompile(`(?s)/\*.*?\*/`)
	hashCommentRE  = regexp.MustCompile(`(?m)#.*$`)
	whitespaceRE   = regexp.MustCompile(`\s+`)
	importLineRE   = regexp.MustCompile(`(?m)^\s*(import\s+.+|from\s+\S+\s+import\s+.+)$`)
)

// Normalizer reduces source text to a canonical form for hash-based and
// similarity-based comparison.
type Normalizer struct{}

func NewNormalizer() *Normalizer { return &Normalizer{} }

// Normalize applies, in order: comment stripping, import-block sorting,
// quote-style unification, and whitespace collapsing (runs of whitespace
// inside a line become one space, leading indentation is kept, and blank
// lines are dropped), then hashes the result with a 32-bit rolling hash
// (FNV-1a) for cheap equality checks.
func (n *Normalizer) Normalize(source string) model.NormalizationResult {
	originalLines := strings.Count(source, "\n") + 1
	transformations := make([]string, 0, 4)

	text := source

	before := text
	text = lineCommentRE.ReplaceAllString(text, "")
	text = blockCommentRE.ReplaceAllString(text, "")
	text = hashCommentRE.ReplaceAllString(text, "")
	if text != before {
		transformations = append(transformations, "strip_comments")
	}

	before = text
	text = sortImportLines(text)
	if text != before {
		transformations = append(transformations, "sort_imports")
	}

	before = text
	text = unifyQuotes(text)
	if text != before {
		transformations = append(transformations, "unify_quotes")
	}

	before = text
	kept := make([]string, 0, originalLines)
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		kept = append(kept, indent+whitespaceRE.ReplaceAllString(trimmed, " "))
	}
	text = strings.Join(kept, "\n")
	if text != before {
		transformations = append(transformations, "collapse_whitespace")
	}

	normalizedLines := strings.Count(text, "\n") + 1
	if text == "" {
		normalizedLines = 0
	}

	return model.NormalizationResult{
		Normalized:          text,
		Hash:                rollingHash32(text),
		Transformations:     transformations,
		OriginalLineCount:   originalLines,
		NormalizedLineCount: normalizedLines,
	}
}

func sortImportLines(text string) string {
	matches := importLineRE.FindAllString(text, -1)
	if len(matches) < 2 {
		return text
	}
	sorted := append([]string{}, matches...)
	sort.Strings(sorted)

	i := 0
	return importLineRE.ReplaceAllStringFunc(text, func(string) string {
		replacement := sorted[i]
		i++
		return replacement
	})
}

func unifyQuotes(text string) string {
	r := strings.NewReplacer("“", "\"", "”", "\"", "‘", "'", "’", "'")
	return r.Replace(text)
}

// rollingHash32 is a 32-bit FNV-1a hash rendered as hex, used for the
// cheap identical-vs-different fast path ahead of the more expensive
// similarity comparison in Comparator.
func rollingHash32(s string) string {
	const (
		offset32 = 2166136261
		prime32  = 16777619
	)
	var h uint32 = offset32
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= prime32
	}
	return hex.EncodeToString([]byte{byte(h >> 24), byte(h >> 16), byte(h >> 8), byte(h)})
}

// sha256Hex returns the hex SHA-256 digest of s, a collision-resistant
// alternative to the cheap rolling hash above. Reproducibility runs are
// clustered by rollingHash32, not by this digest.
func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Tokenize splits s into lowercase word tokens using the Unicode text
// segmentation algorithm (UAX #29) instead of naive rune-class scanning,
// filtering out pure-punctuation/whitespace segments.
func Tokenize(s string) []string {
	tokens := make([]string, 0, len(s)/5)
	seg := words.FromString(s)
	for seg.Next() {
		tok := strings.ToLower(strings.TrimSpace(seg.Value()))
		if tok == "" || !containsWordChar(tok) {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

func containsWordChar(s string) bool {
	for _, r := range s {
		if ('a' <= r && r <= 'z') || ('0' <= r && r <= '9') || r > 127 {
			return true
		}
	}
	return false
}
