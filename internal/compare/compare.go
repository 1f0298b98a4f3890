// Package compare decides whether a re-fetched page changed enough to
// be worth analyzing, and which of its items are previously unseen.
package compare

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// maxDiffLines caps the advisory diff summary.
const maxDiffLines = 20

// initialFetchSummary is the diff text used for a first observation.
const initialFetchSummary = "initial content fetch"

// Comparison is the outcome of comparing two content versions.
// It is a per-cycle value, never persisted.
type Comparison struct {
	Significant bool
	Similarity  float64
	DiffSummary string
}

// Comparator computes textual similarity between snapshots.
type Comparator struct {
	threshold float64
}

// New creates a comparator. Pages with a similarity ratio below
// threshold count as significantly changed.
func New(threshold float64) *Comparator {
	return &Comparator{threshold: threshold}
}

// FirstObservation is the comparison for a source with no stored
// snapshot: always significant, ratio pinned to zero.
func FirstObservation() Comparison {
	return Comparison{
		Significant: true,
		Similarity:  0.0,
		DiffSummary: initialFetchSummary,
	}
}

// Compare computes the similarity ratio between the previous and current
// content and a bounded unified diff. The ratio is 1.0 for identical
// texts and trends toward 0 as they diverge.
func (c *Comparator) Compare(previous, current string) Comparison {
	matcher := difflib.NewMatcherWithJunk(splitRunes(previous), splitRunes(current), false, nil)
	ratio := matcher.Ratio()

	return Comparison{
		Significant: ratio < c.threshold,
		Similarity:  ratio,
		DiffSummary: diffSummary(previous, current),
	}
}

// diffSummary renders a unified diff with 3 lines of context, truncated
// to the first maxDiffLines lines. Advisory only; nothing branches on it.
func diffSummary(previous, current string) string {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(previous),
		B:        difflib.SplitLines(current),
		FromFile: "previous",
		ToFile:   "current",
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil || text == "" {
		return ""
	}

	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(lines) > maxDiffLines {
		lines = lines[:maxDiffLines]
	}
	return strings.Join(lines, "\n")
}

func splitRunes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
