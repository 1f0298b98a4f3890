package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pagewatch/pagewatch/internal/config"
	"github.com/pagewatch/pagewatch/internal/monitor"
)

// FileNotifier writes a JSON and a plain-text summary of each cycle
// into a local directory. It skips cycles with nothing above the
// rating gate, matching the other notifiers.
type FileNotifier struct {
	dir       string
	minRating int
	log       *zap.Logger
}

func NewFile(cfg config.FileConfig, minRating int, log *zap.Logger) *FileNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &FileNotifier{
		dir:       cfg.Dir,
		minRating: minRating,
		log:       log,
	}
}

func (f *FileNotifier) Name() string { return "file" }

type fileSummary struct {
	Timestamp time.Time          `json:"timestamp"`
	CycleID   string             `json:"cycle_id,omitempty"`
	Items     []highInterestItem `json:"high_interest_items"`
	Updates   []fileUpdate       `json:"all_updates"`
}

type fileUpdate struct {
	Site      string `json:"site"`
	URL       string `json:"url"`
	Status    string `json:"status"`
	Rating    int    `json:"rating,omitempty"`
	Analysis  string `json:"analysis,omitempty"`
	NewsCount int    `json:"news_count"`
	Err       string `json:"error,omitempty"`
}

func (f *FileNotifier) Send(_ context.Context, results []monitor.Result) error {
	items := highInterestItems(results, f.minRating)
	if len(items) == 0 {
		f.log.Debug("no high-interest items, skipping summary files")
		return nil
	}

	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("create notification dir: %w", err)
	}

	summary := fileSummary{
		Timestamp: nowFunc(),
		Items:     items,
		Updates:   make([]fileUpdate, 0, len(results)),
	}
	if len(results) > 0 {
		summary.CycleID = results[0].CycleID
	}
	for _, r := range results {
		update := fileUpdate{
			Site:      r.Source.Label(),
			URL:       r.Source.URL,
			Status:    string(r.Status),
			Rating:    r.Rating(),
			NewsCount: len(r.Items),
			Err:       r.Err,
		}
		if r.Analysis != nil {
			update.Analysis = r.Analysis.Text
		}
		summary.Updates = append(summary.Updates, update)
	}

	stamp := summary.Timestamp.Format("20060102_150405")
	base := fmt.Sprintf("summary_%s_%s", stamp, uuid.NewString()[:8])

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	jsonPath := filepath.Join(f.dir, base+".json")
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", jsonPath, err)
	}

	textPath := filepath.Join(f.dir, base+".txt")
	if err := os.WriteFile(textPath, []byte(renderText(summary)), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", textPath, err)
	}

	f.log.Info("summary files written",
		zap.String("json", jsonPath), zap.Int("items", len(items)))
	return nil
}

func renderText(s fileSummary) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "pagewatch summary - %s\n\n", s.Timestamp.Format("2006-01-02 15:04"))

	sb.WriteString("High-interest items:\n")
	for _, item := range s.Items {
		fmt.Fprintf(&sb, "  [%d] %s (%s)", item.Rating, item.Title, item.Site)
		if item.Date != "" {
			fmt.Fprintf(&sb, " - %s", item.Date)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\nAll sources:\n")
	for _, u := range s.Updates {
		fmt.Fprintf(&sb, "  %s: %s", u.Site, u.Status)
		if u.Rating > 0 {
			fmt.Fprintf(&sb, " (rating %d)", u.Rating)
		}
		if u.Err != "" {
			fmt.Fprintf(&sb, " - %s", u.Err)
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
