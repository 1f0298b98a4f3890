// Package monitor runs the per-source monitoring cycle: fetch, compare
// against the stored snapshot, extract news items, decide whether the
// change is worth analysis, and record the new snapshot.
package monitor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pagewatch/pagewatch/internal/analyze"
	"github.com/pagewatch/pagewatch/internal/compare"
	"github.com/pagewatch/pagewatch/internal/config"
	"github.com/pagewatch/pagewatch/internal/fetch"
	"github.com/pagewatch/pagewatch/internal/news"
	"github.com/pagewatch/pagewatch/internal/store"
)

// nowFunc returns the current time; overridden in tests.
var nowFunc = time.Now

type Status string

const (
	// StatusAnalyzed means the source escalated and analysis produced a verdict.
	StatusAnalyzed Status = "analyzed"
	// StatusSuccess means the snapshot was recorded without analysis
	// (nothing escalated, or the analyzer failed after the fact).
	StatusSuccess Status = "success"
	// StatusError means the fetch failed and the stored snapshot was left alone.
	StatusError Status = "error"
)

// Result is the outcome for one source in one cycle. Every source
// produces exactly one, whatever happened.
type Result struct {
	CycleID     string
	Source      config.Source
	Status      Status
	Err         string
	FirstSeen   bool
	Similarity  float64
	Significant bool
	DiffSummary string
	Items       []news.Item
	NewItems    []news.Item
	Analysis    *analyze.Analysis
	CompletedAt time.Time
}

// Rating returns the most useful rating on the result: the overall
// analysis rating when present, else the highest per-item rating.
func (r Result) Rating() int {
	rating := 0
	if r.Analysis != nil {
		rating = r.Analysis.Rating
	}
	for _, item := range r.Items {
		if item.Rating > rating {
			rating = item.Rating
		}
	}
	return rating
}

// Notifier consumes the finished result list after a full cycle.
type Notifier interface {
	Name() string
	Send(ctx context.Context, results []Result) error
}

type Monitor struct {
	sources   []config.Source
	fetcher   fetch.Fetcher
	store     *store.Store
	cmp       *compare.Comparator
	analyzer  analyze.Analyzer
	notifiers []Notifier
	log       *zap.Logger
}

func New(sources []config.Source, fetcher fetch.Fetcher, st *store.Store,
	cmp *compare.Comparator, analyzer analyze.Analyzer, notifiers []Notifier,
	log *zap.Logger) *Monitor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Monitor{
		sources:   sources,
		fetcher:   fetcher,
		store:     st,
		cmp:       cmp,
		analyzer:  analyzer,
		notifiers: notifiers,
		log:       log,
	}
}

// Run executes one monitoring cycle. Sources are processed one at a
// time in list order; one source failing never aborts the rest.
func (m *Monitor) Run(ctx context.Context) []Result {
	if ctx == nil {
		ctx = context.Background()
	}

	cycleID := uuid.NewString()
	m.log.Info("cycle started",
		zap.String("cycle_id", cycleID), zap.Int("sources", len(m.sources)))

	results := make([]Result, 0, len(m.sources))
	for _, src := range m.sources {
		result := m.runSource(ctx, src)
		result.CycleID = cycleID
		result.CompletedAt = nowFunc()
		results = append(results, result)

		m.log.Info("source processed",
			zap.String("source", src.Label()),
			zap.String("status", string(result.Status)),
			zap.Float64("similarity", result.Similarity),
			zap.Int("new_items", len(result.NewItems)))
	}

	for _, n := range m.notifiers {
		if err := n.Send(ctx, results); err != nil {
			m.log.Warn("notifier failed",
				zap.String("notifier", n.Name()), zap.Error(err))
		}
	}

	m.log.Info("cycle finished", zap.String("cycle_id", cycleID))
	return results
}

func (m *Monitor) runSource(ctx context.Context, src config.Source) Result {
	result := Result{Source: src}

	fetched, err := m.fetcher.Fetch(ctx, src)
	if err != nil {
		m.log.Warn("fetch failed, keeping stored snapshot",
			zap.String("source", src.Label()), zap.Error(err))
		result.Status = StatusError
		result.Err = err.Error()
		return result
	}

	previous, found := m.store.Get(ctx, src.ID())

	var comparison compare.Comparison
	if found {
		comparison = m.cmp.Compare(previous.Content, fetched.Content)
	} else {
		comparison = compare.FirstObservation()
		result.FirstSeen = true
	}
	result.Similarity = comparison.Similarity
	result.Significant = comparison.Significant
	result.DiffSummary = comparison.DiffSummary

	var input news.ContentInput
	if len(fetched.Items) > 0 {
		input = news.Structured(fetched.Items)
	} else {
		input = news.Raw(fetched.Content)
	}
	items := news.Extract(input, src.URL)

	decision := compare.Decide(previous.Items, items, comparison)
	result.NewItems = decision.NewItems

	result.Status = StatusSuccess
	if decision.Escalate {
		items = m.analyzeSource(ctx, src, fetched, comparison, items, &result)
	}
	result.Items = items

	if err := m.store.Put(ctx, src.ID(), store.Snapshot{
		URL:        fetched.URL,
		Content:    fetched.Content,
		Items:      items,
		CapturedAt: fetched.CapturedAt,
	}); err != nil {
		// Best effort: a dropped write costs novelty detection next
		// cycle, not this one.
		m.log.Warn("snapshot write failed",
			zap.String("source", src.Label()), zap.Error(err))
	}

	return result
}

// analyzeSource runs the analyzer on an escalated source and returns
// the item list with any per-item ratings attached. Analyzer failure
// leaves the result at StatusSuccess; the snapshot is still recorded.
func (m *Monitor) analyzeSource(ctx context.Context, src config.Source,
	fetched fetch.Result, comparison compare.Comparison, items []news.Item,
	result *Result) []news.Item {

	analysis, err := m.analyzer.Analyze(ctx, analyze.Input{
		URL:     src.URL,
		Content: fetched.Content,
		Changes: comparison.DiffSummary,
		Items:   items,
	})
	if err != nil {
		m.log.Warn("analysis failed, recording snapshot anyway",
			zap.String("source", src.Label()), zap.Error(err))
		return items
	}

	result.Status = StatusAnalyzed
	result.Analysis = &analysis
	if len(analysis.Items) == len(items) {
		items = analysis.Items
	}

	if err := m.store.SaveAnalysis(ctx, store.Analysis{
		SourceID:        src.ID(),
		URL:             src.URL,
		SiteName:        src.Label(),
		Rating:          analysis.Rating,
		Text:            analysis.Text,
		ChangesDetected: comparison.Significant || len(result.NewItems) > 0,
		AnalyzedAt:      analysis.AnalyzedAt,
	}); err != nil {
		m.log.Warn("analysis write failed",
			zap.String("source", src.Label()), zap.Error(err))
	}

	return items
}
