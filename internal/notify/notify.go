// Package notify delivers cycle results to subscribers: a Slack
// incoming webhook, an email API, and local summary files. Notifiers
// are best effort; the orchestrator logs their failures and moves on.
package notify

import (
	"time"

	"go.uber.org/zap"

	"github.com/pagewatch/pagewatch/internal/config"
	"github.com/pagewatch/pagewatch/internal/monitor"
	"github.com/pagewatch/pagewatch/internal/news"
)

// nowFunc returns the current time; overridden in tests.
var nowFunc = time.Now

// New builds the notifiers enabled in the configuration.
func New(cfg config.NotificationsConfig, log *zap.Logger) []monitor.Notifier {
	if log == nil {
		log = zap.NewNop()
	}

	var notifiers []monitor.Notifier
	if cfg.Slack.Enabled && cfg.Slack.WebhookURL != "" {
		notifiers = append(notifiers, NewSlack(cfg.Slack, cfg.MinRating, log))
	}
	if cfg.Email.Enabled {
		notifiers = append(notifiers, NewEmail(cfg.Email, cfg.MinRating, log))
	}
	if cfg.File.Enabled {
		notifiers = append(notifiers, NewFile(cfg.File, cfg.MinRating, log))
	}
	return notifiers
}

// interesting reports whether a result clears the rating gate: the
// overall rating, or any per-item rating, at or above min. Unrated
// analyzed results pass too, since absence of a rating is not evidence
// of low interest.
func interesting(r monitor.Result, minRating int) bool {
	if r.Status != monitor.StatusAnalyzed {
		return false
	}
	if r.Analysis != nil && r.Analysis.Rating == 0 {
		return true
	}
	return r.Rating() >= minRating
}

// highInterestItem is one item worth calling out in a summary.
type highInterestItem struct {
	Site   string    `json:"site"`
	Title  string    `json:"title"`
	Date   string    `json:"date,omitempty"`
	Rating int       `json:"rating"`
	URL    string    `json:"url,omitempty"`
	Seen   time.Time `json:"first_seen,omitempty"`
}

// highInterestItems collects items rated at or above min across all
// results, in result order.
func highInterestItems(results []monitor.Result, minRating int) []highInterestItem {
	var out []highInterestItem
	for _, r := range results {
		if r.Status != monitor.StatusAnalyzed {
			continue
		}
		for _, item := range r.Items {
			if item.Rating >= minRating && item.Rating > 0 {
				out = append(out, highInterestItem{
					Site:   r.Source.Label(),
					Title:  item.Key(),
					Date:   item.Date,
					Rating: item.Rating,
					URL:    item.URL,
					Seen:   item.FirstSeen,
				})
			}
		}
	}
	return out
}

// topItems returns at most n items, preferring the new ones.
func topItems(items []news.Item, n int) []news.Item {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
