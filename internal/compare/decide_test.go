package compare

import (
	"testing"

	"github.com/pagewatch/pagewatch/internal/news"
)

func items(titles ...string) []news.Item {
	out := make([]news.Item, len(titles))
	for i, title := range titles {
		out[i] = news.Item{Title: title}
	}
	return out
}

func TestDecideNoveltyEscalatesDespiteHighSimilarity(t *testing.T) {
	cmp := Comparison{Significant: false, Similarity: 1.0}

	d := Decide(items("Storm warning"), items("Storm warning", "New playground opens"), cmp)

	if !d.Escalate {
		t.Errorf("novel item must escalate even at similarity 1.0")
	}
	if len(d.NewItems) != 1 || d.NewItems[0].Title != "New playground opens" {
		t.Errorf("new items = %v, want just the playground item", d.NewItems)
	}
}

func TestDecideNoChanges(t *testing.T) {
	cmp := Comparison{Significant: false, Similarity: 0.97}

	d := Decide(items("A", "B"), items("A", "B"), cmp)

	if d.Escalate {
		t.Errorf("unchanged source escalated")
	}
	if len(d.NewItems) != 0 {
		t.Errorf("new items = %v, want none", d.NewItems)
	}
}

func TestDecideSignificantChangeWithoutNewItems(t *testing.T) {
	cmp := Comparison{Significant: true, Similarity: 0.4}

	d := Decide(items("A"), items("A"), cmp)

	if !d.Escalate {
		t.Errorf("significant page change must escalate without new items")
	}
	if len(d.NewItems) != 0 {
		t.Errorf("new items = %v, want none", d.NewItems)
	}
}

func TestDecideNoPreviousSnapshot(t *testing.T) {
	d := Decide(nil, items("A", "B"), FirstObservation())

	if !d.Escalate {
		t.Errorf("first observation must escalate")
	}
	if len(d.NewItems) != 2 {
		t.Errorf("new items = %d, want all current items", len(d.NewItems))
	}
}

func TestDecideTitleTrimming(t *testing.T) {
	cmp := Comparison{Significant: false, Similarity: 1.0}

	d := Decide(items("Storm warning"), items("  Storm warning  "), cmp)

	if d.Escalate {
		t.Errorf("whitespace-only title difference treated as novelty")
	}
}
