package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pagewatch/pagewatch/internal/config"
	"github.com/pagewatch/pagewatch/internal/monitor"
)

const (
	slackTimeout      = 10 * time.Second
	slackMaxItems     = 5
	slackAnalysisMax  = 800
	slackPreviewRunes = 300
)

// SlackNotifier posts one block-formatted message per interesting
// source to an incoming webhook.
type SlackNotifier struct {
	webhookURL     string
	minRating      int
	includePreview bool
	client         *http.Client
	log            *zap.Logger
}

func NewSlack(cfg config.SlackConfig, minRating int, log *zap.Logger) *SlackNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &SlackNotifier{
		webhookURL:     cfg.WebhookURL,
		minRating:      minRating,
		includePreview: cfg.IncludePreview,
		client:         &http.Client{Timeout: slackTimeout},
		log:            log,
	}
}

func (s *SlackNotifier) Name() string { return "slack" }

func (s *SlackNotifier) Send(ctx context.Context, results []monitor.Result) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var firstErr error
	for _, r := range results {
		if !interesting(r, s.minRating) || len(r.NewItems) == 0 {
			continue
		}
		if err := s.post(ctx, buildBlocks(r, s.includePreview)); err != nil {
			s.log.Warn("slack post failed",
				zap.String("source", r.Source.Label()), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		s.log.Info("slack notification sent", zap.String("source", r.Source.Label()))
	}
	return firstErr
}

type slackBlock struct {
	Type string     `json:"type"`
	Text *slackText `json:"text,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func buildBlocks(r monitor.Result, includePreview bool) []slackBlock {
	rating := "not rated"
	if v := r.Rating(); v > 0 {
		rating = fmt.Sprintf("%d", v)
	}

	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text",
				Text: "Content change detected: " + r.Source.Label()},
		},
		{
			Type: "section",
			Text: &slackText{Type: "mrkdwn",
				Text: fmt.Sprintf("*URL:* <%s|%s>\n*Rating:* %s",
					r.Source.URL, r.Source.URL, rating)},
		},
	}

	if len(r.NewItems) > 0 {
		var sb strings.Builder
		sb.WriteString("*New items:*\n")
		for _, item := range topItems(r.NewItems, slackMaxItems) {
			itemRating := "?"
			if item.Rating > 0 {
				itemRating = fmt.Sprintf("%d", item.Rating)
			}
			date := item.Date
			if date == "" {
				date = "no date"
			}
			if item.URL != "" {
				fmt.Fprintf(&sb, "• <%s|%s> (rating: %s) - %s\n",
					item.URL, item.Key(), itemRating, date)
			} else {
				fmt.Fprintf(&sb, "• %s (rating: %s) - %s\n",
					item.Key(), itemRating, date)
			}
		}
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: sb.String()},
		})
	}

	if r.Analysis != nil && r.Analysis.Text != "" {
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn",
				Text: "*Analysis:*\n" + firstNRunes(r.Analysis.Text, slackAnalysisMax)},
		})
	}

	if includePreview && r.DiffSummary != "" {
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn",
				Text: "*Change preview:*\n```" + firstNRunes(r.DiffSummary, slackPreviewRunes) + "```"},
		})
	}

	blocks = append(blocks, slackBlock{Type: "divider"})
	return blocks
}

func (s *SlackNotifier) post(ctx context.Context, blocks []slackBlock) error {
	body, err := json.Marshal(map[string]any{"blocks": blocks})
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func firstNRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
