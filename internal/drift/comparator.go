package drift

import (
	"sort"
	"strings"
)

// Difference describes one bounded, human-readable deviation found between
// two normalized texts. At most MaxDifferences are ever returned.
type Difference struct {
	Kind        string
	Description string
}

// MaxDifferences bounds how many Difference entries Compare returns.
const MaxDifferences = 20

// IdenticalThreshold is the default similarity score at/above which two
// texts are considered identical for drift-rate purposes.
const IdenticalThreshold = 0.98

// CompareResult is the outcome of comparing two normalized texts.
type CompareResult struct {
	Similarity    float64
	Identical     bool
	Structural    float64
	Content       float64
	Differences   []Difference
}

// Comparator measures similarity between normalized code/text variants,
// combining a section-type histogram overlap (structural score) with a
// line-set Jaccard score (content score), weighted per spec.md §4.7b.
type Comparator struct {
	StructuralWeight float64
	ContentWeight    float64
	Threshold        float64
}

func NewComparator() *Comparator {
	return &Comparator{StructuralWeight: 0.4, ContentWeight: 0.6, Threshold: IdenticalThreshold}
}

// Compare scores a and b (already Normalizer output) via a fast
// hash-equality path, then the weighted structural+content score.
func (c *Comparator) Compare(aNormalized, aHash, bNormalized, bHash string) CompareResult {
	if aHash == bHash {
		return CompareResult{Similarity: 1.0, Identical: true, Structural: 1.0, Content: 1.0}
	}

	structural := histogramOverlap(sectionHistogram(aNormalized), sectionHistogram(bNormalized))
	content := lineJaccard(aNormalized, bNormalized)
	score := c.StructuralWeight*structural + c.ContentWeight*content

	result := CompareResult{
		Similarity: score,
		Identical:  score >= c.Threshold,
		Structural: structural,
		Content:    content,
	}
	if !result.Identical {
		result.Differences = findDifferences(aNormalized, bNormalized)
	}
	return result
}

func lineJaccard(a, b string) float64 {
	return jaccard(splitNonEmpty(a, "\n"), splitNonEmpty(b, "\n"))
}

// sectionType buckets one line of normalized text into a coarse
// structural role: blank, import, a line opening a block, a line closing
// one, or a plain statement.
func sectionType(line string) string {
	trimmed := strings.TrimSpace(line)
	switch {
	case trimmed == "":
		return "blank"
	case importLineRE.MatchString(trimmed):
		return "import"
	case strings.HasSuffix(trimmed, "{") || strings.HasSuffix(trimmed, "("):
		return "block_open"
	case strings.HasPrefix(trimmed, "}") || strings.HasPrefix(trimmed, ")"):
		return "block_close"
	default:
		return "statement"
	}
}

// sectionHistogram counts how many lines of normalized fall into each
// sectionType bucket.
func sectionHistogram(normalized string) map[string]int {
	hist := make(map[string]int)
	for _, line := range splitNonEmpty(normalized, "\n") {
		hist[sectionType(line)]++
	}
	return hist
}

// histogramOverlap computes the section-type histogram overlap between
// two texts' bucket counts: sum(min(a_i, b_i)) / sum(max(a_i, b_i)) over
// the union of buckets present in either histogram. Two empty histograms
// are identical (1.0); one empty and one non-empty share nothing (0.0).
func histogramOverlap(a, b map[string]int) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	buckets := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		buckets[k] = struct{}{}
	}
	for k := range b {
		buckets[k] = struct{}{}
	}

	var minSum, maxSum int
	for k := range buckets {
		av, bv := a[k], b[k]
		if av < bv {
			minSum += av
			maxSum += bv
		} else {
			minSum += bv
			maxSum += av
		}
	}
	if maxSum == 0 {
		return 1.0
	}
	return float64(minSum) / float64(maxSum)
}

func splitNonEmpty(s, sep string) []string {
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// jaccard computes |A∩B| / |A∪B| over two token slices. Two empty slices
// are considered identical (similarity 1.0); one empty and one non-empty
// has zero similarity — matching the teacher's JaccardSimilarity edge
// cases in internal/pattern/hash.go.
func jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	setA := make(map[string]bool, len(a))
	for _, t := range a {
		setA[t] = true
	}
	setB := make(map[string]bool, len(b))
	for _, t := range b {
		setB[t] = true
	}

	intersection := 0
	for t := range setA {
		if setB[t] {
			intersection++
		}
	}
	union := len(setA)
	for t := range setB {
		if !setA[t] {
			union++
		}
	}
	return float64(intersection) / float64(union)
}

// findDifferences returns up to MaxDifferences line-level additions/
// removals between a and b.
func findDifferences(a, b string) []Difference {
	linesA := splitNonEmpty(a, "\n")
	linesB := splitNonEmpty(b, "\n")

	setA := make(map[string]bool, len(linesA))
	for _, l := range linesA {
		setA[l] = true
	}
	setB := make(map[string]bool, len(linesB))
	for _, l := range linesB {
		setB[l] = true
	}

	var diffs []Difference
	for _, l := range linesA {
		if len(diffs) >= MaxDifferences {
			return diffs
		}
		if !setB[l] {
			diffs = append(diffs, Difference{Kind: "removed", Description: truncate(l, 120)})
		}
	}
	for _, l := range linesB {
		if len(diffs) >= MaxDifferences {
			return diffs
		}
		if !setA[l] {
			diffs = append(diffs, Difference{Kind: "added", Description: truncate(l, 120)})
		}
	}
	return diffs
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}

// variant groups equal-normalized-hash outputs for consensus finding.
type variant struct {
	hash  string
	text  string
	count int
}

// FindConsensus clusters normalizedTexts by exact normalized hash and
// returns the most common variant's text, the number of distinct
// variants, and the fraction of inputs agreeing with the consensus.
func FindConsensus(normalizedTexts []string, hashes []string) (consensusText string, uniqueVariants int, agreement float64) {
	if len(normalizedTexts) == 0 {
		return "", 0, 0
	}

	byHash := make(map[string]*variant)
	var order []string
	for i, h := range hashes {
		v, ok := byHash[h]
		if !ok {
			v = &variant{hash: h, text: normalizedTexts[i]}
			byHash[h] = v
			order = append(order, h)
		}
		v.count++
	}

	sort.SliceStable(order, func(i, j int) bool { return byHash[order[i]].count > byHash[order[j]].count })

	best := byHash[order[0]]
	return best.text, len(order), float64(best.count) / float64(len(normalizedTexts))
}
