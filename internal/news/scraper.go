// Package news scrapes headlines from HTML listing pages.
package news

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"sentcorr/internal/interfaces"
	"sentcorr/internal/loader"
	"sentcorr/internal/logger"
	"sentcorr/internal/types"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// ArticleSelectors defines CSS selectors for extracting article data
type ArticleSelectors struct {
	ArticleContainer string
	Title            string
	URL              string
	PublishedAt      string
}

// Source is one listing page. SearchURL may contain {symbol}, replaced by
// the lower-cased ticker.
type Source struct {
	Name        string
	SearchURL   string
	Ticker      string
	Selectors   ArticleSelectors
	MaxArticles int
	Timeout     time.Duration
	RateLimit   time.Duration
}

// Scraper is a NewsSource backed by a colly collector.
type Scraper struct {
	src Source
}

var _ interfaces.NewsSource = (*Scraper)(nil)

// NewScraper creates a scraper for one listing page.
func NewScraper(src Source) *Scraper {
	if src.Timeout == 0 {
		src.Timeout = 30 * time.Second
	}
	if src.Name == "" {
		src.Name = getDomain(src.SearchURL)
	}
	return &Scraper{src: src}
}

func (s *Scraper) Name() string { return s.src.Name }

// FetchNews visits the listing page and returns one row per article block.
// Blocks without a title or a parsable publication time are skipped.
func (s *Scraper) FetchNews(ctx context.Context) ([]types.RawNews, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src := s.src
	searchURL := strings.ReplaceAll(src.SearchURL, "{symbol}", strings.ToLower(src.Ticker))
	logger.Info(ctx, "Starting news scraping", "source", src.Name, "ticker", src.Ticker)

	c := colly.NewCollector(
		colly.AllowedDomains(getDomain(searchURL)),
		colly.MaxDepth(1),
		colly.UserAgent(userAgent),
	)
	c.SetRequestTimeout(src.Timeout)
	if src.RateLimit > 0 {
		if err := c.Limit(&colly.LimitRule{DomainGlob: "*", Delay: src.RateLimit}); err != nil {
			return nil, fmt.Errorf("configure rate limit: %w", err)
		}
	}

	var (
		rows     []types.RawNews
		skipped  int
		visitErr error
	)

	c.OnHTML(src.Selectors.ArticleContainer, func(e *colly.HTMLElement) {
		if src.MaxArticles > 0 && len(rows) >= src.MaxArticles {
			return
		}
		title := strings.TrimSpace(e.DOM.Find(src.Selectors.Title).First().Text())
		published := publishedAt(e.DOM, src.Selectors.PublishedAt)
		if title == "" || published == "" {
			skipped++
			return
		}
		// Display text such as "2 hours ago" cannot be placed on a calendar.
		if _, err := loader.ParseTimestamp(published, time.UTC); err != nil {
			skipped++
			return
		}

		link := ""
		if src.Selectors.URL != "" {
			link = e.Request.AbsoluteURL(e.ChildAttr(src.Selectors.URL, "href"))
		}
		rows = append(rows, types.RawNews{
			Headline:  title,
			URL:       link,
			Publisher: src.Name,
			Date:      published,
			Stock:     src.Ticker,
		})
	})

	c.OnError(func(r *colly.Response, err error) {
		visitErr = fmt.Errorf("scrape %s: status %d: %w", r.Request.URL, r.StatusCode, err)
	})

	if err := c.Visit(searchURL); err != nil {
		return nil, fmt.Errorf("failed to visit %s: %w", searchURL, err)
	}
	c.Wait()
	if visitErr != nil {
		return nil, visitErr
	}

	if skipped > 0 {
		logger.Warn(ctx, "Skipped article blocks without title or usable time", "source", src.Name, "skipped", skipped)
	}
	logger.Info(ctx, "News scraping completed", "source", src.Name, "ticker", src.Ticker, "articles", len(rows))
	return rows, nil
}

// publishedAt prefers a machine-readable datetime attribute over the
// element's display text.
func publishedAt(sel *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	node := sel.Find(selector).First()
	if dt, ok := node.Attr("datetime"); ok && strings.TrimSpace(dt) != "" {
		return strings.TrimSpace(dt)
	}
	return strings.TrimSpace(node.Text())
}

// getDomain extracts domain from URL
func getDomain(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
