// Package fetch retrieves the current content of monitored sources.
// Page sources go through the extract API when one is configured, with
// direct scraping as the fallback; feed sources are parsed as RSS/Atom.
package fetch

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/pagewatch/pagewatch/internal/config"
	"github.com/pagewatch/pagewatch/internal/news"
)

const (
	fetchTimeout = 30 * time.Second
	userAgent    = "Mozilla/5.0 (compatible; pagewatch/1.0)"
)

// Result is the captured content of one source.
type Result struct {
	URL        string
	Title      string
	Content    string
	Items      []news.RawItem // structured items, when the fetcher produced them
	CapturedAt time.Time
}

// Fetcher retrieves the current content of a source.
type Fetcher interface {
	Fetch(ctx context.Context, src config.Source) (Result, error)
}

// Client routes each source to the right fetcher.
type Client struct {
	extract *ExtractClient
	direct  *DirectScraper
	feed    *FeedFetcher
	log     *zap.Logger
}

func NewClient(cfg config.FetchConfig, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}

	var extract *ExtractClient
	if cfg.Endpoint != "" && cfg.APIKey != "" {
		extract = NewExtractClient(cfg, log)
	}

	return &Client{
		extract: extract,
		direct:  NewDirectScraper(cfg.MaxContentLength),
		feed:    NewFeedFetcher(),
		log:     log,
	}
}

func (c *Client) Fetch(ctx context.Context, src config.Source) (Result, error) {
	if src.Type == config.SourceTypeFeed {
		return c.feed.Fetch(ctx, src.URL)
	}

	if c.extract != nil {
		result, err := c.extract.Fetch(ctx, src.URL)
		if err == nil {
			return result, nil
		}
		c.log.Warn("extract api failed, falling back to direct scrape",
			zap.String("url", src.URL), zap.Error(err))
	}

	return c.direct.Fetch(ctx, src.URL)
}
