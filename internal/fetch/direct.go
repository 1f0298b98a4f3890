package fetch

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pagewatch/pagewatch/internal/news"
)

const (
	directMaxItems    = 5
	directMaxHeadings = 3
	directSnippetLen  = 200
)

var collapseWhitespaceRe = regexp.MustCompile(`\s+`)

// DirectScraper fetches a page over plain HTTP and extracts news items
// from common markup patterns. It is the fallback when no extract API
// is configured or the API is unavailable.
type DirectScraper struct {
	client           *http.Client
	maxContentLength int
}

func NewDirectScraper(maxContentLength int) *DirectScraper {
	return &DirectScraper{
		client:           &http.Client{Timeout: fetchTimeout},
		maxContentLength: maxContentLength,
	}
}

func (d *DirectScraper) Fetch(ctx context.Context, pageURL string) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return Result{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("fetch %s: status %d", pageURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("parse %s: %w", pageURL, err)
	}

	doc.Find("script, style, noscript").Remove()

	title := strings.TrimSpace(doc.Find("title").First().Text())
	items := extractItems(doc)
	body := cleanText(doc.Find("body").Text())
	if d.maxContentLength > 0 {
		body = firstNRunes(body, d.maxContentLength)
	}

	return Result{
		URL:        pageURL,
		Title:      title,
		Content:    renderPage(pageURL, title, items, body),
		Items:      items,
		CapturedAt: nowFunc(),
	}, nil
}

// extractItems pulls news-looking blocks out of the document. Pages
// without recognizable article markup fall back to top-level headings.
func extractItems(doc *goquery.Document) []news.RawItem {
	var items []news.RawItem

	selectors := []string{
		"article",
		"div[class*=news]",
		"div[class*=article]",
		"div[class*=post]",
		"li[class*=news]",
	}

	for _, sel := range selectors {
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if len(items) >= directMaxItems {
				return false
			}

			title := cleanText(s.Find("h1, h2, h3, h4, h5, h6").First().Text())
			if title == "" {
				return true
			}

			items = append(items, news.RawItem{
				Title:   title,
				Date:    cleanText(s.Find("time").First().Text()),
				Content: firstNRunes(cleanText(s.Find("p").First().Text()), directSnippetLen),
			})
			return true
		})
		if len(items) > 0 {
			break
		}
	}

	if len(items) == 0 {
		doc.Find("h1, h2, h3").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if len(items) >= directMaxHeadings {
				return false
			}
			heading := cleanText(s.Text())
			if len(heading) > 5 {
				items = append(items, news.RawItem{Title: heading})
			}
			return true
		})
	}

	return items
}

func renderPage(pageURL, title string, items []news.RawItem, body string) string {
	var sb strings.Builder
	if title != "" {
		fmt.Fprintf(&sb, "# %s\n\n", title)
	} else {
		fmt.Fprintf(&sb, "# %s\n\n", pageURL)
	}

	if len(items) > 0 {
		sb.WriteString("## News\n\n")
		for _, item := range items {
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

	if body != "" {
		fmt.Fprintf(&sb, "## Content\n\n%s\n\n", body)
	}

	return strings.TrimSpace(sb.String())
}

func cleanText(s string) string {
	return strings.TrimSpace(collapseWhitespaceRe.ReplaceAllString(s, " "))
}

func firstNRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
