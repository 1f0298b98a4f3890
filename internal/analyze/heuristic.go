package analyze

import (
	"context"
	"fmt"
	"strings"
)

// Words that suggest the page carries something other than routine
// housekeeping. Substring matching is deliberate so "newsletter" and
// "updates" count too.
var signalWords = []string{"new", "important", "update", "breaking"}

const longContentWords = 1000

// HeuristicAnalyzer scores content from plain text signals. It never
// fails, which makes it the fallback for the LLM analyzer.
type HeuristicAnalyzer struct{}

func NewHeuristicAnalyzer() *HeuristicAnalyzer {
	return &HeuristicAnalyzer{}
}

func (h *HeuristicAnalyzer) Analyze(_ context.Context, in Input) (Analysis, error) {
	score := heuristicScore(in.Content)
	return Analysis{
		Text: fmt.Sprintf("Automated analysis: interest score %d/5, based on simple text signals.",
			score),
		Rating:     score,
		Items:      in.Items,
		AnalyzedAt: nowFunc(),
	}, nil
}

func heuristicScore(content string) int {
	lower := strings.ToLower(content)

	score := 1
	for _, word := range signalWords {
		if strings.Contains(lower, word) {
			score++
		}
	}
	if len(strings.Fields(content)) > longContentWords {
		score++
	}
	if score > 5 {
		score = 5
	}
	return score
}
