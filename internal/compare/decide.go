package compare

import "github.com/pagewatch/pagewatch/internal/news"

// Decision is the escalation verdict for one monitoring cycle.
type Decision struct {
	// Escalate is true when the source should be forwarded for analysis.
	Escalate bool
	// NewItems are current items whose trimmed title was not present in
	// the previous snapshot.
	NewItems []news.Item
}

// Decide combines whole-page similarity with item-level novelty. A novel
// item title escalates on its own even when page similarity is high:
// pages dominated by static boilerplate would otherwise hide low-volume
// changes. Pure function, no I/O.
func Decide(previous, current []news.Item, cmp Comparison) Decision {
	known := make(map[string]bool, len(previous))
	for _, it := range previous {
		known[it.Key()] = true
	}

	var fresh []news.Item
	for _, it := range current {
		if !known[it.Key()] {
			fresh = append(fresh, it)
		}
	}

	return Decision{
		Escalate: cmp.Significant || len(fresh) > 0,
		NewItems: fresh,
	}
}
