package types

import "time"

// Counts tracks how many records survived each stage.
type Counts struct {
	NewsLoaded    int `json:"news_loaded"`
	BarsLoaded    int `json:"bars_loaded"`
	Tickers       int `json:"tickers"`
	Scored        int `json:"scored"`
	AlignedEvents int `json:"aligned_events"`
	Omitted       int `json:"omitted"`
}

// RunSettings echoes the knobs that shaped a run.
type RunSettings struct {
	Timezone   string `json:"timezone"`
	Capability string `json:"capability"`
	Lag        int    `json:"lag"`
	Aggregate  string `json:"aggregate"`
	MinSamples int    `json:"min_samples"`
}

// Report is the full output of one pipeline run.
type Report struct {
	RunID       string              `json:"run_id"`
	GeneratedAt time.Time           `json:"generated_at"`
	Settings    RunSettings         `json:"settings"`
	Counts      Counts              `json:"counts"`
	Results     []CorrelationResult `json:"results"`
	LagResults  []LagResult         `json:"lag_results,omitempty"`
	Drops       DropSummary         `json:"drops"`
	Coverage    *CoverageStats      `json:"coverage,omitempty"`
	Events      []AlignedEvent      `json:"events,omitempty"`
}

// Global returns the global correlation result, if present.
func (r *Report) Global() (CorrelationResult, bool) {
	for _, res := range r.Results {
		if res.Scope == GlobalScope {
			return res, true
		}
	}
	return CorrelationResult{}, false
}

// NamedCount is a label with its count, used for ranked lists.
type NamedCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// PublisherStats describes one publisher's output.
type PublisherStats struct {
	Publisher      string       `json:"publisher"`
	Articles       int          `json:"articles"`
	AvgPerDay      float64      `json:"avg_per_day"`
	UniqueTickers  int          `json:"unique_tickers"`
	TopTickers     []NamedCount `json:"top_tickers"`
	FirstArticleAt time.Time    `json:"first_article_at"`
	LastArticleAt  time.Time    `json:"last_article_at"`
}

// TickerStats describes the news coverage of one ticker.
type TickerStats struct {
	Ticker             string  `json:"ticker"`
	Articles           int     `json:"articles"`
	Publishers         int     `json:"publishers"`
	PublisherDiversity float64 `json:"publisher_diversity"`
	MeanSentiment      float64 `json:"mean_sentiment,omitempty"`
	PositiveHeadlines  int     `json:"positive_headlines,omitempty"`
	NegativeHeadlines  int     `json:"negative_headlines,omitempty"`
}

// TemporalStats describes when news was published.
type TemporalStats struct {
	Daily        []NamedCount `json:"daily"`
	Hourly       [24]int      `json:"hourly"`
	Weekday      [7]int       `json:"weekday"`
	Monthly      []NamedCount `json:"monthly"`
	PeakHour     int          `json:"peak_hour"`
	PeakDay      string       `json:"peak_day"`
	WeekendRatio float64      `json:"weekend_ratio"`
}

// CoverageStats summarizes a news dataset.
type CoverageStats struct {
	TotalArticles int              `json:"total_articles"`
	Publishers    []PublisherStats `json:"publishers"`
	Tickers       []TickerStats    `json:"tickers"`
	Temporal      TemporalStats    `json:"temporal"`
}
