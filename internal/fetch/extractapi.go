package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pagewatch/pagewatch/internal/config"
	"github.com/pagewatch/pagewatch/internal/news"
)

const (
	extractPath = "/v1/extract"

	// After a 429 without a usable Retry-After header, back off this long.
	defaultCooldown = 5 * time.Minute

	// After this many failed calls in a row the client stops trying until
	// a call succeeds again, so a broken API key does not burn the quota.
	maxConsecutiveErrors = 3
)

// nowFunc returns the current time; overridden in tests.
var nowFunc = time.Now

// ExtractClient calls a structured-extraction API that turns a web page
// into a list of news items plus general site information.
type ExtractClient struct {
	endpoint string
	apiKey   string
	client   *http.Client
	limiter  *rate.Limiter
	log      *zap.Logger

	mu                sync.Mutex
	cooldownUntil     time.Time
	consecutiveErrors int
}

func NewExtractClient(cfg config.FetchConfig, log *zap.Logger) *ExtractClient {
	if log == nil {
		log = zap.NewNop()
	}
	return &ExtractClient{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: fetchTimeout},
		limiter:  rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		log:      log,
	}
}

type extractRequest struct {
	URLs   []string       `json:"urls"`
	Prompt string         `json:"prompt"`
	Schema map[string]any `json:"schema"`
}

type extractResponse struct {
	Success bool        `json:"success"`
	Error   string      `json:"error"`
	Data    extractData `json:"data"`
}

type extractData struct {
	NewsItems []extractItem `json:"news_items"`
	General   extractInfo   `json:"general_information"`
}

type extractItem struct {
	Title   string `json:"title"`
	Date    string `json:"date"`
	Content string `json:"content"`
	URL     string `json:"url"`
}

type extractInfo struct {
	Description string `json:"description"`
	Body        string `json:"body"`
	ContactInfo string `json:"contact_info"`
}

var extractSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"news_items": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"date":    map[string]any{"type": "string"},
					"title":   map[string]any{"type": "string"},
					"content": map[string]any{"type": "string"},
				},
				"required": []string{"title"},
			},
		},
		"general_information": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"body":         map[string]any{"type": "string"},
				"description":  map[string]any{"type": "string"},
				"contact_info": map[string]any{"type": "string"},
			},
		},
	},
}

const extractPrompt = "Extract news items from this webpage. Each news item should have " +
	"a title, date (if available), and the content of the news. Also extract general " +
	"information about the site."

func (e *ExtractClient) Fetch(ctx context.Context, pageURL string) (Result, error) {
	if e == nil {
		return Result{}, errors.New("extract client is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if err := e.checkAvailable(); err != nil {
		return Result{}, err
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return Result{}, fmt.Errorf("rate limiter: %w", err)
	}

	body, err := json.Marshal(extractRequest{
		URLs:   []string{pageURL},
		Prompt: extractPrompt,
		Schema: extractSchema,
	})
	if err != nil {
		return Result{}, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint+extractPath, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+e.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		e.recordError()
		return Result{}, fmt.Errorf("call extract api: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		e.startCooldown(resp.Header.Get("Retry-After"))
		return Result{}, errors.New("extract api rate limited")
	}
	if resp.StatusCode != http.StatusOK {
		e.recordError()
		return Result{}, fmt.Errorf("extract api returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		e.recordError()
		return Result{}, fmt.Errorf("read response: %w", err)
	}

	var parsed extractResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		e.recordError()
		return Result{}, fmt.Errorf("decode response: %w", err)
	}
	if !parsed.Success {
		e.recordError()
		if parsed.Error != "" {
			return Result{}, fmt.Errorf("extract api: %s", parsed.Error)
		}
		return Result{}, errors.New("extract api reported failure")
	}

	e.recordSuccess()

	items := make([]news.RawItem, 0, len(parsed.Data.NewsItems))
	for _, it := range parsed.Data.NewsItems {
		items = append(items, news.RawItem{
			Title:   it.Title,
			Date:    it.Date,
			Content: it.Content,
			URL:     it.URL,
		})
	}

	return Result{
		URL:        pageURL,
		Title:      parsed.Data.General.Description,
		Content:    buildContent(pageURL, parsed.Data),
		Items:      items,
		CapturedAt: nowFunc(),
	}, nil
}

// checkAvailable reports whether the client may make a call right now.
func (e *ExtractClient) checkAvailable() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if until := e.cooldownUntil; nowFunc().Before(until) {
		return fmt.Errorf("extract api cooling down until %s", until.Format(time.RFC3339))
	}
	if e.consecutiveErrors >= maxConsecutiveErrors {
		return fmt.Errorf("extract api disabled after %d consecutive errors", e.consecutiveErrors)
	}
	return nil
}

func (e *ExtractClient) startCooldown(retryAfter string) {
	cooldown := defaultCooldown
	if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
		cooldown = time.Duration(seconds) * time.Second
	}

	e.mu.Lock()
	e.cooldownUntil = nowFunc().Add(cooldown)
	e.mu.Unlock()

	e.log.Warn("extract api rate limited", zap.Duration("cooldown", cooldown))
}

func (e *ExtractClient) recordError() {
	e.mu.Lock()
	e.consecutiveErrors++
	e.mu.Unlock()
}

func (e *ExtractClient) recordSuccess() {
	e.mu.Lock()
	e.consecutiveErrors = 0
	e.mu.Unlock()
}

// buildContent renders the extracted data as markdown so that snapshots
// from the extract API diff cleanly against each other.
func buildContent(pageURL string, data extractData) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", pageURL)

	if data.General.Description != "" {
		fmt.Fprintf(&sb, "%s\n\n", data.General.Description)
	}
	if data.General.Body != "" {
		fmt.Fprintf(&sb, "%s\n\n", data.General.Body)
	}

	if len(data.NewsItems) > 0 {
		sb.WriteString("## News\n\n")
		for _, item := range data.NewsItems {
			if item.Date != "" {
				fmt.Fprintf(&sb, "### %s (%s)\n\n", item.Title, item.Date)
			} else {
				fmt.Fprintf(&sb, "### %s\n\n", item.Title)
			}
			if item.Content != "" {
				fmt.Fprintf(&sb, "%s\n\n", item.Content)
			}
		}
	}

	if data.General.ContactInfo != "" {
		fmt.Fprintf(&sb, "## Contact\n\n%s\n\n", data.General.ContactInfo)
	}

	return strings.TrimSpace(sb.String())
}
