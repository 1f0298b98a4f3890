package analyze

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/pagewatch/pagewatch/internal/config"
	"github.com/pagewatch/pagewatch/internal/news"
)

func TestHeuristicScore(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    int
	}{
		{"empty", "", 1},
		{"plain", "nothing of note here", 1},
		{"one signal", "a new bridge", 2},
		{"two signals", "important update about the school", 3},
		{"signal inside word", "read our newsletter", 2},
		{"all signals", "breaking: new important update", 5},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := heuristicScore(tc.content); got != tc.want {
				t.Errorf("heuristicScore(%q) = %d, want %d", tc.content, got, tc.want)
			}
		})
	}
}

func TestHeuristicScoreLongContent(t *testing.T) {
	long := strings.Repeat("word ", 1001)
	if got := heuristicScore(long); got != 2 {
		t.Errorf("score = %d, want base 1 plus long-content bonus", got)
	}
}

func TestHeuristicScoreCapped(t *testing.T) {
	content := "breaking new important update " + strings.Repeat("word ", 1001)
	if got := heuristicScore(content); got != 5 {
		t.Errorf("score = %d, want capped at 5", got)
	}
}

func TestHeuristicAnalyzerNeverFails(t *testing.T) {
	h := NewHeuristicAnalyzer()
	analysis, err := h.Analyze(context.Background(), Input{Content: "new stuff"})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if analysis.Rating != 2 {
		t.Errorf("rating = %d, want 2", analysis.Rating)
	}
	if !strings.Contains(analysis.Text, "2/5") {
		t.Errorf("text = %q, want the score named", analysis.Text)
	}
}

func TestOverallRating(t *testing.T) {
	cases := []struct {
		name string
		text string
		want int
	}{
		{"labelled", "Rating: 4\nBig development in the harbor area.", 4},
		{"labelled no colon", "Rating 3. Moderately interesting.", 3},
		{"leading digit", "4. A significant development.", 4},
		{"missing", "Nothing here carries a verdict.", 0},
		{"out of range ignored", "Rating: 9.", 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := overallRating(tc.text); got != tc.want {
				t.Errorf("overallRating(%q) = %d, want %d", tc.text, got, tc.want)
			}
		})
	}
}

func TestAssociateRatings(t *testing.T) {
	items := []news.Item{
		{Title: "Storm warning"},
		{Title: "New playground opens"},
		{Title: "Library hours"},
	}

	text := `Rating: 4

**Storm warning (1 March, 2026)** - Rating: 5
A severe weather event affecting the whole region.

- New playground opens ... Rating: 2

The library hours piece was not rated.`

	rated := associateRatings(text, items)

	if rated[0].Rating != 5 {
		t.Errorf("storm warning rating = %d, want 5", rated[0].Rating)
	}
	if rated[1].Rating != 2 {
		t.Errorf("playground rating = %d, want 2", rated[1].Rating)
	}
	if rated[2].Rating != 0 {
		t.Errorf("library rating = %d, want unrated", rated[2].Rating)
	}
}

func TestAssociateRatingsSlashFive(t *testing.T) {
	items := []news.Item{{Title: "Road closed"}}
	rated := associateRatings("Road closed is worth 3/5 at most.", items)
	if rated[0].Rating != 3 {
		t.Errorf("rating = %d, want 3 from N/5 form", rated[0].Rating)
	}
}

func TestAssociateRatingsProximityFallback(t *testing.T) {
	items := []news.Item{{Title: "Harbor expansion"}}
	text := "The Harbor expansion plan is the standout story this week.\nIt deserves a high rating: 4 given the scale."
	rated := associateRatings(text, items)
	if rated[0].Rating != 4 {
		t.Errorf("rating = %d, want 4 from proximity search", rated[0].Rating)
	}
}

func TestAssociateRatingsRegexTitle(t *testing.T) {
	// Titles with regex metacharacters must not break matching.
	items := []news.Item{{Title: "Budget (2026) +5% proposal"}}
	text := "**Budget (2026) +5% proposal** - Rating: 3"
	rated := associateRatings(text, items)
	if rated[0].Rating != 3 {
		t.Errorf("rating = %d, want 3 for title with metacharacters", rated[0].Rating)
	}
}

func TestAssociateRatingsLeavesInputUntouched(t *testing.T) {
	items := []news.Item{{Title: "Storm warning"}}
	_ = associateRatings("Storm warning - Rating: 5", items)
	if items[0].Rating != 0 {
		t.Errorf("input slice mutated, rating = %d", items[0].Rating)
	}
}

func TestLLMAnalyzer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != chatPath {
			t.Errorf("path = %q, want %q", r.URL.Path, chatPath)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer llm-key" {
			t.Errorf("authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Rating: 4\n\n**Storm warning** - Rating: 5\nSerious weather."}}]}`))
	}))
	defer srv.Close()

	l := NewLLMAnalyzer(config.LLMConfig{
		Endpoint: srv.URL,
		APIKey:   "llm-key",
		Model:    "gpt-4o-mini",
	}, zap.NewNop())

	analysis, err := l.Analyze(context.Background(), Input{
		URL:     "https://example.org",
		Content: "page text",
		Items:   []news.Item{{Title: "Storm warning"}},
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if analysis.Rating != 4 {
		t.Errorf("overall rating = %d, want 4", analysis.Rating)
	}
	if len(analysis.Items) != 1 || analysis.Items[0].Rating != 5 {
		t.Errorf("item ratings = %+v, want storm warning rated 5", analysis.Items)
	}
}

func TestLLMAnalyzerFallsBackToHeuristic(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	l := NewLLMAnalyzer(config.LLMConfig{
		Endpoint: srv.URL,
		APIKey:   "llm-key",
		Model:    "gpt-4o-mini",
	}, zap.NewNop())

	analysis, err := l.Analyze(context.Background(), Input{Content: "new update"})
	if err != nil {
		t.Fatalf("Analyze must not fail when the API is down: %v", err)
	}
	if analysis.Rating != 3 {
		t.Errorf("fallback rating = %d, want heuristic score 3", analysis.Rating)
	}
	if !strings.Contains(analysis.Text, "LLM unavailable") {
		t.Errorf("text = %q, want degraded analysis named", analysis.Text)
	}
}

func TestNewPicksAnalyzer(t *testing.T) {
	if _, ok := New(config.AnalyzeConfig{Mode: "heuristic"}, nil).(*HeuristicAnalyzer); !ok {
		t.Errorf("heuristic mode built the wrong analyzer")
	}
	if _, ok := New(config.AnalyzeConfig{Mode: "llm"}, nil).(*LLMAnalyzer); !ok {
		t.Errorf("llm mode built the wrong analyzer")
	}
}
