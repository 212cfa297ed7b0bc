package loader

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"sentcorr/internal/interfaces"
	"sentcorr/internal/logger"
	"sentcorr/internal/types"
)

// RSSNewsSource reads headlines from an RSS or Atom feed. Feeds carry no
// ticker, so every item is tagged with Ticker. URL may be http(s) or a local
// file path.
type RSSNewsSource struct {
	URL         string
	Ticker      string
	Publisher   string
	MaxArticles int
	Timeout     time.Duration
}

var _ interfaces.NewsSource = (*RSSNewsSource)(nil)

func (s *RSSNewsSource) Name() string { return s.URL }

func (s *RSSNewsSource) FetchNews(ctx context.Context) ([]types.RawNews, error) {
	feed, err := s.parse(ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", s.URL, err)
	}

	publisher := s.Publisher
	if publisher == "" {
		publisher = strings.TrimSpace(feed.Title)
	}

	rows := make([]types.RawNews, 0, len(feed.Items))
	skipped := 0
	for _, item := range feed.Items {
		if s.MaxArticles > 0 && len(rows) >= s.MaxArticles {
			break
		}
		published := item.PublishedParsed
		if published == nil {
			published = item.UpdatedParsed
		}
		if published == nil || strings.TrimSpace(item.Title) == "" {
			skipped++
			continue
		}
		rows = append(rows, types.RawNews{
			Headline:  strings.TrimSpace(item.Title),
			URL:       item.Link,
			Publisher: publisher,
			Date:      published.Format(time.RFC3339),
			Stock:     s.Ticker,
		})
	}

	if skipped > 0 {
		logger.Warn(ctx, "Skipped feed items without title or date", "feed", s.URL, "skipped", skipped)
	}
	logger.Debug(ctx, "Feed read", "feed", s.URL, "items", len(rows), "ticker", s.Ticker)
	return rows, nil
}

func (s *RSSNewsSource) parse(ctx context.Context) (*gofeed.Feed, error) {
	fp := gofeed.NewParser()
	if strings.HasPrefix(s.URL, "http://") || strings.HasPrefix(s.URL, "https://") {
		if s.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.Timeout)
			defer cancel()
		}
		return fp.ParseURLWithContext(s.URL, ctx)
	}

	f, err := os.Open(strings.TrimPrefix(s.URL, "file://"))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return fp.Parse(f)
}
