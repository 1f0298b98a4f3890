package compare

import (
	"fmt"
	"strings"
	"testing"
)

func TestCompareIdenticalTexts(t *testing.T) {
	c := New(0.9)
	cmp := c.Compare("same text", "same text")

	if cmp.Similarity != 1.0 {
		t.Errorf("similarity = %v, want 1.0", cmp.Similarity)
	}
	if cmp.Significant {
		t.Errorf("identical texts flagged as significant")
	}
	if cmp.DiffSummary != "" {
		t.Errorf("diff summary = %q, want empty for identical texts", cmp.DiffSummary)
	}
}

func TestCompareSymmetric(t *testing.T) {
	a := "The quick brown fox jumps over the lazy dog.\nSecond line here."
	b := "The quick brown fox leaps over the lazy dog.\nSecond line there."

	c := New(0.9)
	ab := c.Compare(a, b).Similarity
	ba := c.Compare(b, a).Similarity

	if ab != ba {
		t.Errorf("similarity not symmetric: %v vs %v", ab, ba)
	}
}

func TestCompareRatioBounds(t *testing.T) {
	cases := []struct {
		a, b string
	}{
		{"", ""},
		{"abc", ""},
		{"", "abc"},
		{"completely different", "nothing in common!!"},
		{"overlap here", "overlap there"},
	}

	c := New(0.9)
	for _, tc := range cases {
		cmp := c.Compare(tc.a, tc.b)
		if cmp.Similarity < 0 || cmp.Similarity > 1 {
			t.Errorf("Compare(%q, %q) similarity = %v, want within [0, 1]", tc.a, tc.b, cmp.Similarity)
		}
	}
}

func TestFirstObservation(t *testing.T) {
	cmp := FirstObservation()

	if !cmp.Significant {
		t.Errorf("first observation must be significant")
	}
	if cmp.Similarity != 0.0 {
		t.Errorf("similarity = %v, want 0.0", cmp.Similarity)
	}
}

func TestCompareSmallInsertionBelowThreshold(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 50; i++ {
		fmt.Fprintf(&sb, "Sentence number %d stays exactly the same.\n", i)
	}
	before := sb.String()
	after := before + "One new sentence appended at the end.\n"

	c := New(0.9)
	cmp := c.Compare(before, after)

	if cmp.Similarity < 0.9 {
		t.Errorf("similarity = %v, want >= 0.9 for one inserted sentence in 50", cmp.Similarity)
	}
	if cmp.Significant {
		t.Errorf("one inserted sentence in 50 flagged as significant at threshold 0.9")
	}
}

func TestCompareDivergentTexts(t *testing.T) {
	c := New(0.9)
	cmp := c.Compare("alpha beta gamma delta", "zxqwv jklmn pqrst uvxyz")

	if !cmp.Significant {
		t.Errorf("divergent texts not flagged as significant (similarity %v)", cmp.Similarity)
	}
}

func TestDiffSummaryTruncated(t *testing.T) {
	var a, b strings.Builder
	for i := 0; i < 1000; i++ {
		fmt.Fprintf(&a, "left line %d\n", i)
		fmt.Fprintf(&b, "right line %d\n", i)
	}

	c := New(0.9)
	cmp := c.Compare(a.String(), b.String())

	if got := len(strings.Split(cmp.DiffSummary, "\n")); got > 20 {
		t.Errorf("diff summary has %d lines, want at most 20", got)
	}
}

func TestDiffSummaryHasContext(t *testing.T) {
	a := "one\ntwo\nthree\nfour\nfive\nsix\nseven\n"
	b := "one\ntwo\nthree\nCHANGED\nfive\nsix\nseven\n"

	c := New(0.9)
	cmp := c.Compare(a, b)

	if !strings.Contains(cmp.DiffSummary, "-four") {
		t.Errorf("diff summary missing removed line:\n%s", cmp.DiffSummary)
	}
	if !strings.Contains(cmp.DiffSummary, "+CHANGED") {
		t.Errorf("diff summary missing added line:\n%s", cmp.DiffSummary)
	}
	if !strings.Contains(cmp.DiffSummary, "three") {
		t.Errorf("diff summary missing context line:\n%s", cmp.DiffSummary)
	}
}
