package types

import (
	"encoding/json"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-date layout used for trading dates everywhere.
const DateLayout = "2006-01-02"

// GlobalScope names the correlation group that spans every ticker.
const GlobalScope = "global"

// NewsRecord is a single validated headline. Timestamp is already in the
// reference timezone of the run.
type NewsRecord struct {
	Headline  string    `json:"headline"`
	URL       string    `json:"url,omitempty"`
	Publisher string    `json:"publisher,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Ticker    string    `json:"ticker"`
}

// TradingDate returns the calendar date of the record in its own location.
func (n NewsRecord) TradingDate() time.Time {
	return DateOf(n.Timestamp)
}

// PriceBar is one daily OHLC bar.
type PriceBar struct {
	Ticker string          `json:"ticker"`
	Date   time.Time       `json:"date"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
}

// SentimentLabel buckets a score into a coarse category.
type SentimentLabel string

const (
	LabelPositive SentimentLabel = "positive"
	LabelNeutral  SentimentLabel = "neutral"
	LabelNegative SentimentLabel = "negative"
)

// LabelFor maps a score to a label using a ±0.05 neutral band.
func LabelFor(score float64) SentimentLabel {
	switch {
	case score > 0.05:
		return LabelPositive
	case score < -0.05:
		return LabelNegative
	default:
		return LabelNeutral
	}
}

// ScoredNews is a NewsRecord with its sentiment in [-1, 1].
type ScoredNews struct {
	NewsRecord
	Sentiment float64        `json:"sentiment"`
	Label     SentimentLabel `json:"label"`
}

// AlignedEvent joins one scored headline (or one daily aggregate) to the
// close-to-close return of the bar it was aligned to.
type AlignedEvent struct {
	Ticker      string    `json:"ticker"`
	TradingDate time.Time `json:"trading_date"`
	NewsDate    time.Time `json:"news_date"`
	Sentiment   float64   `json:"sentiment"`
	PriceReturn float64   `json:"price_return"`
	Lag         int       `json:"lag"`
	Headlines   int       `json:"headlines"`
}

// ResultFlag qualifies a CorrelationResult whose coefficient is not usable.
type ResultFlag string

const (
	FlagNone             ResultFlag = ""
	FlagInsufficientData ResultFlag = "InsufficientData"
	FlagNoPriceData      ResultFlag = "NoPriceData"
	FlagConstantInput    ResultFlag = "ConstantInput"
)

// CorrelationResult is the Pearson statistic for one scope. Coefficient and
// PValue are NaN whenever Flag is set.
type CorrelationResult struct {
	Scope       string     `json:"scope"`
	Coefficient float64    `json:"coefficient"`
	SampleSize  int        `json:"sample_size"`
	PValue      float64    `json:"p_value"`
	Flag        ResultFlag `json:"flag,omitempty"`
}

// Computed reports whether the coefficient carries a signal.
func (r CorrelationResult) Computed() bool {
	return r.Flag == FlagNone
}

// MarshalJSON writes NaN statistics as null.
func (r CorrelationResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Scope       string     `json:"scope"`
		Coefficient *float64   `json:"coefficient"`
		SampleSize  int        `json:"sample_size"`
		PValue      *float64   `json:"p_value"`
		Flag        ResultFlag `json:"flag,omitempty"`
	}{r.Scope, finite(r.Coefficient), r.SampleSize, finite(r.PValue), r.Flag})
}

// UnmarshalJSON reads null statistics back as NaN.
func (r *CorrelationResult) UnmarshalJSON(b []byte) error {
	var raw struct {
		Scope       string     `json:"scope"`
		Coefficient *float64   `json:"coefficient"`
		SampleSize  int        `json:"sample_size"`
		PValue      *float64   `json:"p_value"`
		Flag        ResultFlag `json:"flag"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*r = CorrelationResult{Scope: raw.Scope, SampleSize: raw.SampleSize, Flag: raw.Flag, Coefficient: math.NaN(), PValue: math.NaN()}
	if raw.Coefficient != nil {
		r.Coefficient = *raw.Coefficient
	}
	if raw.PValue != nil {
		r.PValue = *raw.PValue
	}
	return nil
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// LagResult is the global correlation measured at a given alignment lag.
type LagResult struct {
	Lag    int               `json:"lag"`
	Result CorrelationResult `json:"result"`
}

// DateOf truncates t to midnight in t's location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
