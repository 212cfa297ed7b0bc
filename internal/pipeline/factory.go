package pipeline

import (
	"fmt"
	"os"
	"time"

	"github.com/jonboulle/clockwork"

	"sentcorr/internal/interfaces"
	"sentcorr/internal/loader"
	"sentcorr/internal/marketdata"
	"sentcorr/internal/news"
	"sentcorr/internal/sentiment"
	"sentcorr/internal/sentiment/sentimentobs"
	"sentcorr/internal/store"
)

const feedTimeout = 30 * time.Second

// FromConfig builds a pipeline, its sources and its scorer from cfg.
func FromConfig(cfg *store.Config, clock clockwork.Clock) (*Pipeline, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	newsSources, err := NewsSources(cfg)
	if err != nil {
		return nil, err
	}
	priceSources, err := PriceSources(cfg, loc)
	if err != nil {
		return nil, err
	}
	scorer, err := NewScorer(cfg.Scorer, clock)
	if err != nil {
		return nil, err
	}

	return New(Deps{
		Loader: loader.New(loc),
		News:   newsSources,
		Prices: priceSources,
		Scorer: scorer,
		Clock:  clock,
	}, Options{
		Lag:             cfg.Align.Lag,
		Daily:           cfg.Align.Aggregate == store.AggregateDaily,
		MinSamples:      cfg.Correlation.MinSamples,
		Lags:            cfg.Correlation.Lags,
		Capability:      cfg.Scorer.Capability,
		Timezone:        cfg.Timezone,
		IncludeCoverage: true,
	}), nil
}

// NewScorer builds the observable scorer for cfg.
func NewScorer(cfg store.ScorerConfig, clock clockwork.Clock) (interfaces.Scorer, error) {
	capability, err := sentiment.NewCapability(cfg, clock)
	if err != nil {
		return nil, fmt.Errorf("scorer: %w", err)
	}
	return sentimentobs.Wrap(sentiment.NewScorer(capability, cfg.Timeout, cfg.Workers)), nil
}

// NewsSources maps news.sources onto source implementations.
func NewsSources(cfg *store.Config) ([]interfaces.NewsSource, error) {
	out := make([]interfaces.NewsSource, 0, len(cfg.News.Sources))
	for i, s := range cfg.News.Sources {
		switch s.Kind {
		case store.KindCSV:
			out = append(out, &loader.CSVNewsSource{Path: s.Path})
		case store.KindJSON:
			out = append(out, &loader.JSONNewsSource{Path: s.Path})
		case store.KindRSS:
			out = append(out, &loader.RSSNewsSource{
				URL:         s.URL,
				Ticker:      s.Ticker,
				Publisher:   s.Publisher,
				MaxArticles: s.MaxArticles,
				Timeout:     feedTimeout,
			})
		case store.KindScrape:
			out = append(out, news.NewScraper(news.Source{
				Name:      s.Publisher,
				SearchURL: s.URL,
				Ticker:    s.Ticker,
				Selectors: news.ArticleSelectors{
					ArticleContainer: s.Selectors.Container,
					Title:            s.Selectors.Title,
					URL:              s.Selectors.URL,
					PublishedAt:      s.Selectors.PublishedAt,
				},
				MaxArticles: s.MaxArticles,
				Timeout:     feedTimeout,
				RateLimit:   time.Second,
			}))
		default:
			return nil, fmt.Errorf("news.sources[%d]: unsupported kind %q", i, s.Kind)
		}
	}
	return out, nil
}

// PriceSources maps prices.sources onto source implementations. Kite
// credentials come from the environment variables named in prices.kite.
func PriceSources(cfg *store.Config, loc *time.Location) ([]interfaces.PriceSource, error) {
	out := make([]interfaces.PriceSource, 0, len(cfg.Prices.Sources))
	for i, s := range cfg.Prices.Sources {
		switch s.Kind {
		case store.KindCSV:
			out = append(out, &loader.CSVPriceSource{Path: s.Path, Ticker: s.Ticker})
		case store.KindJSON:
			out = append(out, &loader.JSONPriceSource{Path: s.Path, Ticker: s.Ticker})
		case store.KindKite:
			kc, err := kiteConfig(cfg.Prices.Kite, loc)
			if err != nil {
				return nil, fmt.Errorf("prices.sources[%d]: %w", i, err)
			}
			src, err := marketdata.NewKiteSource(kc, s.Ticker, s.InstrumentToken)
			if err != nil {
				return nil, fmt.Errorf("prices.sources[%d]: %w", i, err)
			}
			out = append(out, src)
		default:
			return nil, fmt.Errorf("prices.sources[%d]: unsupported kind %q", i, s.Kind)
		}
	}
	return out, nil
}

func kiteConfig(k store.KiteConfig, loc *time.Location) (marketdata.KiteConfig, error) {
	from, err := loader.ParseDate(k.From, loc)
	if err != nil {
		return marketdata.KiteConfig{}, fmt.Errorf("prices.kite.from: %w", err)
	}
	to, err := loader.ParseDate(k.To, loc)
	if err != nil {
		return marketdata.KiteConfig{}, fmt.Errorf("prices.kite.to: %w", err)
	}
	return marketdata.KiteConfig{
		APIKey:      os.Getenv(k.APIKeyEnv),
		AccessToken: os.Getenv(k.AccessTokenEnv),
		BaseURL:     k.BaseURL,
		From:        from,
		To:          to,
	}, nil
}
