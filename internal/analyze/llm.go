package analyze

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pagewatch/pagewatch/internal/config"
)

const (
	defaultLLMEndpoint = "https://api.openai.com"
	chatPath           = "/v1/chat/completions"
	llmTimeout         = 60 * time.Second

	// promptContentLimit bounds how much page text goes into the prompt.
	promptContentLimit = 5000

	// promptItemLimit bounds how many items are called out for rating.
	promptItemLimit = 5
)

// LLMAnalyzer rates content with a chat-completions API. Any API
// failure degrades to the heuristic analyzer so the run still gets a
// verdict; the degraded analysis text names the failure.
type LLMAnalyzer struct {
	endpoint  string
	apiKey    string
	model     string
	maxTokens int
	client    *http.Client
	fallback  *HeuristicAnalyzer
	log       *zap.Logger
}

func NewLLMAnalyzer(cfg config.LLMConfig, log *zap.Logger) *LLMAnalyzer {
	if log == nil {
		log = zap.NewNop()
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultLLMEndpoint
	}
	return &LLMAnalyzer{
		endpoint:  strings.TrimRight(endpoint, "/"),
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		client:    &http.Client{Timeout: llmTimeout},
		fallback:  NewHeuristicAnalyzer(),
		log:       log,
	}
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (l *LLMAnalyzer) Analyze(ctx context.Context, in Input) (Analysis, error) {
	text, err := l.complete(ctx, buildPrompt(in))
	if err != nil {
		l.log.Warn("llm analysis failed, using heuristic fallback",
			zap.String("url", in.URL), zap.Error(err))
		analysis, _ := l.fallback.Analyze(ctx, in)
		analysis.Text = fmt.Sprintf("Automated analysis (LLM unavailable: %v): interest score %d/5.",
			err, analysis.Rating)
		return analysis, nil
	}

	return Analysis{
		Text:       text,
		Rating:     overallRating(text),
		Items:      associateRatings(text, in.Items),
		AnalyzedAt: nowFunc(),
	}, nil
}

func (l *LLMAnalyzer) complete(ctx context.Context, prompt string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	body, err := json.Marshal(chatRequest{
		Model:     l.model,
		MaxTokens: l.maxTokens,
		Messages: []chatMessage{
			{Role: "system", Content: "You rate web page changes for newsworthiness. Always answer with an overall rating in the form \"Rating: N\" where N is 1-5, followed by a short explanation, then a per-item rating for each listed news item."},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.endpoint+chatPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+l.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call llm api: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("llm api returned status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("llm api: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("llm api returned no choices")
	}

	text := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if text == "" {
		return "", errors.New("llm api returned empty content")
	}
	return text, nil
}

func buildPrompt(in Input) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Analyze the following web content from %s and rate it on a scale of 1-5:\n\n", in.URL)
	fmt.Fprintf(&sb, "Content:\n%s\n\n", firstNRunes(in.Content, promptContentLimit))

	if in.Changes != "" {
		fmt.Fprintf(&sb, "Latest changes:\n%s\n\n", in.Changes)
	}

	sb.WriteString(`Rate this content on news value, relevance, and significance where:
1 = Not interesting (routine updates)
2 = Slightly interesting
3 = Moderately interesting
4 = Very interesting (significant development)
5 = Extremely interesting (major development)

Give your rating (1-5) and a short explanation.
`)

	if len(in.Items) > 0 {
		sb.WriteString("\nRate the news value of these specific items (if present in the content):\n")
		for i, item := range in.Items {
			if i >= promptItemLimit {
				break
			}
			date := item.Date
			if date == "" {
				date = "no date"
			}
			fmt.Fprintf(&sb, "- %q (%s)\n", item.Key(), date)
		}
	}

	return sb.String()
}

func firstNRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
