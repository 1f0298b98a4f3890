// Package analyze rates fetched content for newsworthiness on a 1-5
// scale, either with an LLM or with a plain text heuristic. The LLM
// analyzer degrades to the heuristic when the API is unreachable, so a
// monitoring run always produces a verdict.
package analyze

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/pagewatch/pagewatch/internal/config"
	"github.com/pagewatch/pagewatch/internal/news"
)

// nowFunc returns the current time; overridden in tests.
var nowFunc = time.Now

// Input is the material for one analysis.
type Input struct {
	URL     string
	Content string
	Changes string // diff summary from the comparison step
	Items   []news.Item
}

// Analysis is the analyzer verdict. Items echoes the input items with
// per-item ratings filled in where the analyzer could attribute them.
type Analysis struct {
	Text       string
	Rating     int // 1-5, 0 when no overall rating could be determined
	Items      []news.Item
	AnalyzedAt time.Time
}

type Analyzer interface {
	Analyze(ctx context.Context, in Input) (Analysis, error)
}

// New builds the analyzer selected by the configuration.
func New(cfg config.AnalyzeConfig, log *zap.Logger) Analyzer {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Mode == "llm" {
		return NewLLMAnalyzer(cfg.LLM, log)
	}
	return NewHeuristicAnalyzer()
}
