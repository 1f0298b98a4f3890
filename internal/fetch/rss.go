package fetch

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"regexp"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/pagewatch/pagewatch/internal/news"
)

const feedDateLayout = "2 January, 2006"

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)

// FeedFetcher parses RSS/Atom feeds and presents each entry as a news
// item, so feed sources flow through the same pipeline as pages.
type FeedFetcher struct {
	parser *gofeed.Parser
}

// feedTransport injects a User-Agent header into every request.
type feedTransport struct {
	base http.RoundTripper
}

func (t *feedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", userAgent)
	return t.base.RoundTrip(req)
}

func NewFeedFetcher() *FeedFetcher {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{
		Timeout:   fetchTimeout,
		Transport: &feedTransport{base: http.DefaultTransport},
	}
	return &FeedFetcher{parser: parser}
}

func (f *FeedFetcher) Fetch(ctx context.Context, feedURL string) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	feed, err := f.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return Result{}, fmt.Errorf("fetch feed %s: %w", feedURL, err)
	}

	items := make([]news.RawItem, 0, len(feed.Items))
	for _, entry := range feed.Items {
		items = append(items, news.RawItem{
			Title:   strings.TrimSpace(entry.Title),
			Date:    entryDate(entry),
			Content: entryText(entry),
			URL:     entry.Link,
		})
	}

	return Result{
		URL:        feedURL,
		Title:      feed.Title,
		Content:    renderFeed(feedURL, feed.Title, items),
		Items:      items,
		CapturedAt: nowFunc(),
	}, nil
}

func entryDate(entry *gofeed.Item) string {
	if entry.PublishedParsed != nil {
		return entry.PublishedParsed.Format(feedDateLayout)
	}
	if entry.UpdatedParsed != nil {
		return entry.UpdatedParsed.Format(feedDateLayout)
	}
	return strings.TrimSpace(entry.Published)
}

func entryText(entry *gofeed.Item) string {
	raw := entry.Content
	if raw == "" {
		raw = entry.Description
	}
	return stripHTML(raw)
}

func stripHTML(s string) string {
	s = htmlTagRe.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return cleanText(s)
}

func renderFeed(feedURL, title string, items []news.RawItem) string {
	var sb strings.Builder
	if title != "" {
		fmt.Fprintf(&sb, "# %s\n\n", title)
	} else {
		fmt.Fprintf(&sb, "# %s\n\n", feedURL)
	}

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

	return strings.TrimSpace(sb.String())
}
