package store

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

// Source kinds accepted by news.sources and prices.sources.
const (
	KindCSV    = "csv"
	KindJSON   = "json"
	KindRSS    = "rss"
	KindScrape = "scrape"
	KindKite   = "kite"
)

// Scoring capabilities.
const (
	CapabilityLexicon = "lexicon"
	CapabilityHTTP    = "http"
	CapabilityOpenAI  = "openai"
	CapabilityClaude  = "claude"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatText = "text"
)

// Aggregation modes for the aligner.
const (
	AggregateNone  = "none"
	AggregateDaily = "daily"
)

type Config struct {
	Timezone string `yaml:"timezone"`

	News struct {
		Sources []SourceConfig `yaml:"sources"`
	} `yaml:"news"`

	Prices struct {
		Sources []SourceConfig `yaml:"sources"`
		Kite    KiteConfig     `yaml:"kite"`
	} `yaml:"prices"`

	Scorer ScorerConfig `yaml:"scorer"`

	Align struct {
		Lag       int    `yaml:"lag"`
		Aggregate string `yaml:"aggregate"`
	} `yaml:"align"`

	Correlation struct {
		MinSamples int   `yaml:"min_samples"`
		Lags       []int `yaml:"lags"`
	} `yaml:"correlation"`

	Output struct {
		Format string `yaml:"format"`
		Path   string `yaml:"path"`
	} `yaml:"output"`

	RunLog struct {
		Dir           string `yaml:"dir"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"run_log"`
}

// SourceConfig describes one raw input. Path is used by file kinds, URL by
// feeds and scrapes. Ticker tags rows that carry no ticker column.
type SourceConfig struct {
	Kind            string          `yaml:"kind"`
	Path            string          `yaml:"path"`
	URL             string          `yaml:"url"`
	Ticker          string          `yaml:"ticker"`
	Publisher       string          `yaml:"publisher"`
	InstrumentToken int             `yaml:"instrument_token"`
	Selectors       ScrapeSelectors `yaml:"selectors"`
	MaxArticles     int             `yaml:"max_articles"`
}

// ScrapeSelectors are the CSS selectors used to pull headlines out of an
// HTML listing page.
type ScrapeSelectors struct {
	Container   string `yaml:"container"`
	Title       string `yaml:"title"`
	URL         string `yaml:"url"`
	PublishedAt string `yaml:"published_at"`
}

// KiteConfig configures historical candles from Kite Connect. Credentials
// are read from the named environment variables.
type KiteConfig struct {
	APIKeyEnv      string `yaml:"api_key_env"`
	AccessTokenEnv string `yaml:"access_token_env"`
	BaseURL        string `yaml:"base_url"`
	From           string `yaml:"from"`
	To             string `yaml:"to"`
}

type ScorerConfig struct {
	Capability    string        `yaml:"capability"`
	Endpoint      string        `yaml:"endpoint"`
	Model         string        `yaml:"model"`
	APIKeyEnv     string        `yaml:"api_key_env"`
	Timeout       time.Duration `yaml:"timeout"`
	Workers       int           `yaml:"workers"`
	RatePerSecond float64       `yaml:"rate_per_second"`
	Burst         int           `yaml:"burst"`
	Breaker       struct {
		MaxFailures uint32        `yaml:"max_failures"`
		OpenTimeout time.Duration `yaml:"open_timeout"`
	} `yaml:"breaker"`
	Cache struct {
		Dir string        `yaml:"dir"`
		TTL time.Duration `yaml:"ttl"`
	} `yaml:"cache"`
}

// Default returns a config with every default applied. LoadConfig decodes
// YAML over it so explicit zero values (align.lag: 0) survive.
func Default() *Config {
	c := &Config{Timezone: "America/New_York"}
	c.Prices.Kite.APIKeyEnv = "KITE_API_KEY"
	c.Prices.Kite.AccessTokenEnv = "KITE_ACCESS_TOKEN"
	c.Scorer.Capability = CapabilityLexicon
	c.Scorer.Timeout = 10 * time.Second
	c.Scorer.Workers = 4
	c.Scorer.RatePerSecond = 5
	c.Scorer.Burst = 1
	c.Scorer.Breaker.MaxFailures = 5
	c.Scorer.Breaker.OpenTimeout = 30 * time.Second
	c.Scorer.Cache.TTL = 24 * time.Hour
	c.Align.Lag = 1
	c.Align.Aggregate = AggregateNone
	c.Correlation.MinSamples = 2
	c.Output.Format = FormatJSON
	c.RunLog.RetentionDays = 30
	return c
}

func (c *Config) Validate() error {
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid timezone '%s': %w", c.Timezone, err)
	}
	if len(c.News.Sources) == 0 {
		return errors.New("news.sources cannot be empty")
	}
	if len(c.Prices.Sources) == 0 {
		return errors.New("prices.sources cannot be empty")
	}
	for i, s := range c.News.Sources {
		if err := s.validate(KindCSV, KindJSON, KindRSS, KindScrape); err != nil {
			return fmt.Errorf("news.sources[%d]: %w", i, err)
		}
	}
	for i, s := range c.Prices.Sources {
		if err := s.validate(KindCSV, KindJSON, KindKite); err != nil {
			return fmt.Errorf("prices.sources[%d]: %w", i, err)
		}
	}
	switch c.Scorer.Capability {
	case CapabilityLexicon:
	case CapabilityHTTP:
		if c.Scorer.Endpoint == "" {
			return errors.New("scorer.endpoint is required for the http capability")
		}
	case CapabilityOpenAI, CapabilityClaude:
		if c.Scorer.APIKeyEnv == "" {
			return fmt.Errorf("scorer.api_key_env is required for the %s capability", c.Scorer.Capability)
		}
	default:
		return fmt.Errorf("scorer.capability must be 'lexicon', 'http', 'openai' or 'claude', got '%s'", c.Scorer.Capability)
	}
	if c.Scorer.Timeout <= 0 {
		return fmt.Errorf("scorer.timeout must be positive, got %s", c.Scorer.Timeout)
	}
	if c.Scorer.Workers < 1 {
		return fmt.Errorf("scorer.workers must be at least 1, got %d", c.Scorer.Workers)
	}
	if c.Align.Lag < 0 {
		return fmt.Errorf("align.lag cannot be negative, got %d", c.Align.Lag)
	}
	if c.Align.Aggregate != AggregateNone && c.Align.Aggregate != AggregateDaily {
		return fmt.Errorf("align.aggregate must be 'none' or 'daily', got '%s'", c.Align.Aggregate)
	}
	if c.Correlation.MinSamples < 2 {
		return fmt.Errorf("correlation.min_samples must be at least 2, got %d", c.Correlation.MinSamples)
	}
	for _, lag := range c.Correlation.Lags {
		if lag < 0 {
			return fmt.Errorf("correlation.lags cannot contain negative values, got %d", lag)
		}
	}
	switch c.Output.Format {
	case FormatJSON, FormatCSV, FormatText:
	default:
		return fmt.Errorf("output.format must be 'json', 'csv' or 'text', got '%s'", c.Output.Format)
	}
	return nil
}

func (s SourceConfig) validate(kinds ...string) error {
	ok := false
	for _, k := range kinds {
		if s.Kind == k {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("kind must be one of %s, got '%s'", strings.Join(kinds, ", "), s.Kind)
	}
	switch s.Kind {
	case KindCSV, KindJSON:
		if s.Path == "" {
			return errors.New("path is required")
		}
	case KindRSS, KindScrape:
		if s.URL == "" {
			return errors.New("url is required")
		}
		if s.Ticker == "" {
			return errors.New("ticker is required")
		}
		if s.Kind == KindScrape && (s.Selectors.Container == "" || s.Selectors.Title == "") {
			return errors.New("selectors.container and selectors.title are required")
		}
	case KindKite:
		if s.Ticker == "" || s.InstrumentToken == 0 {
			return errors.New("ticker and instrument_token are required")
		}
	}
	return nil
}

// Location resolves the reference timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(b)
}

// ParseConfig decodes YAML bytes over the defaults and validates the result.
func ParseConfig(b []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}
	c.Scorer.Capability = strings.ToLower(c.Scorer.Capability)
	c.Output.Format = strings.ToLower(c.Output.Format)
	c.Align.Aggregate = strings.ToLower(c.Align.Aggregate)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return c, nil
}
