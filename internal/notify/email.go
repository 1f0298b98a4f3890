package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pagewatch/pagewatch/internal/config"
	"github.com/pagewatch/pagewatch/internal/monitor"
)

const (
	defaultEmailEndpoint = "https://api.resend.com"
	emailPath            = "/emails"
	emailTimeout         = 15 * time.Second
)

// EmailNotifier sends one summary email per cycle through a
// Resend-compatible HTTP API, and only when the cycle produced
// something above the rating gate.
type EmailNotifier struct {
	endpoint  string
	apiKey    string
	from      string
	to        []string
	minRating int
	client    *http.Client
	log       *zap.Logger
}

func NewEmail(cfg config.EmailConfig, minRating int, log *zap.Logger) *EmailNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultEmailEndpoint
	}
	return &EmailNotifier{
		endpoint:  strings.TrimRight(endpoint, "/"),
		apiKey:    cfg.APIKey,
		from:      cfg.From,
		to:        cfg.To,
		minRating: minRating,
		client:    &http.Client{Timeout: emailTimeout},
		log:       log,
	}
}

func (e *EmailNotifier) Name() string { return "email" }

type emailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text"`
}

func (e *EmailNotifier) Send(ctx context.Context, results []monitor.Result) error {
	if ctx == nil {
		ctx = context.Background()
	}

	items := highInterestItems(results, e.minRating)
	if len(items) == 0 {
		e.log.Debug("no high-interest items, skipping email")
		return nil
	}

	subject := fmt.Sprintf("pagewatch - %d interesting items (%s)",
		len(items), nowFunc().Format("2006-01-02"))

	body, err := json.Marshal(emailRequest{
		From:    e.from,
		To:      e.to,
		Subject: subject,
		HTML:    emailHTML(items, results),
		Text:    emailText(items, results),
	})
	if err != nil {
		return fmt.Errorf("encode email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint+emailPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+e.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("email api returned status %d", resp.StatusCode)
	}

	e.log.Info("summary email sent", zap.Int("items", len(items)))
	return nil
}

func emailHTML(items []highInterestItem, results []monitor.Result) string {
	var sb strings.Builder
	sb.WriteString("<h1>pagewatch summary</h1>\n")

	sb.WriteString("<h2>High-interest items</h2>\n<ul>\n")
	for _, item := range items {
		fmt.Fprintf(&sb, "<li><strong>%s</strong> (%s, rating %d)",
			html.EscapeString(item.Title), html.EscapeString(item.Site), item.Rating)
		if item.Date != "" {
			fmt.Fprintf(&sb, " - %s", html.EscapeString(item.Date))
		}
		sb.WriteString("</li>\n")
	}
	sb.WriteString("</ul>\n")

	sb.WriteString("<h2>All sources</h2>\n<ul>\n")
	for _, r := range results {
		fmt.Fprintf(&sb, "<li>%s: %s", html.EscapeString(r.Source.Label()), r.Status)
		if rating := r.Rating(); rating > 0 {
			fmt.Fprintf(&sb, " (rating %d)", rating)
		}
		sb.WriteString("</li>\n")
	}
	sb.WriteString("</ul>\n")

	return sb.String()
}

func emailText(items []highInterestItem, results []monitor.Result) string {
	var sb strings.Builder
	sb.WriteString("pagewatch summary\n\nHigh-interest items:\n")
	for _, item := range items {
		fmt.Fprintf(&sb, "- %s (%s, rating %d)", item.Title, item.Site, item.Rating)
		if item.Date != "" {
			fmt.Fprintf(&sb, " - %s", item.Date)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\nAll sources:\n")
	for _, r := range results {
		fmt.Fprintf(&sb, "- %s: %s", r.Source.Label(), r.Status)
		if rating := r.Rating(); rating > 0 {
			fmt.Fprintf(&sb, " (rating %d)", rating)
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
