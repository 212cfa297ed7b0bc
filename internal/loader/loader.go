// Package loader turns raw news and price rows into validated,
// deduplicated, timezone-normalized tables.
package loader

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"sentcorr/internal/errs"
	"sentcorr/internal/interfaces"
	"sentcorr/internal/logger"
	"sentcorr/internal/types"
)

// Loader validates raw rows against the reference timezone.
type Loader struct {
	loc *time.Location
}

// New returns a Loader that expresses every timestamp in loc.
func New(loc *time.Location) *Loader {
	if loc == nil {
		loc = time.UTC
	}
	return &Loader{loc: loc}
}

// Location returns the reference timezone.
func (l *Loader) Location() *time.Location { return l.loc }

// LoadNews fetches every source in order and normalizes the combined rows.
// Any schema or parse failure aborts the load.
func (l *Loader) LoadNews(ctx context.Context, sources []interfaces.NewsSource) ([]types.NewsRecord, []types.Drop, error) {
	var all []types.NewsRecord
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		rows, err := src.FetchNews(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("load news from %s: %w", src.Name(), err)
		}
		records, err := l.parseNews(src.Name(), rows)
		if err != nil {
			return nil, nil, err
		}
		logger.Debug(ctx, "News source loaded", "source", src.Name(), "rows", len(rows))
		all = append(all, records...)
	}
	news, drops := dedupNews(all)
	logger.Info(ctx, "News loaded", "sources", len(sources), "records", len(news), "duplicates", len(drops))
	return news, drops, nil
}

// LoadPrices fetches every price source in order and normalizes the bars.
func (l *Loader) LoadPrices(ctx context.Context, sources []interfaces.PriceSource) ([]types.PriceBar, []types.Drop, error) {
	var all []types.PriceBar
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		rows, err := src.FetchPrices(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("load prices from %s: %w", src.Name(), err)
		}
		bars, err := l.parsePrices(src.Name(), rows)
		if err != nil {
			return nil, nil, err
		}
		logger.Debug(ctx, "Price source loaded", "source", src.Name(), "rows", len(rows))
		all = append(all, bars...)
	}
	bars, drops := dedupPrices(all)
	logger.Info(ctx, "Prices loaded", "sources", len(sources), "bars", len(bars), "duplicates", len(drops))
	return bars, drops, nil
}

// NormalizeNews validates in-memory rows.
func (l *Loader) NormalizeNews(rows []types.RawNews) ([]types.NewsRecord, []types.Drop, error) {
	records, err := l.parseNews("rows", rows)
	if err != nil {
		return nil, nil, err
	}
	news, drops := dedupNews(records)
	return news, drops, nil
}

// NormalizePrices validates in-memory bars.
func (l *Loader) NormalizePrices(rows []types.RawPrice) ([]types.PriceBar, []types.Drop, error) {
	parsed, err := l.parsePrices("rows", rows)
	if err != nil {
		return nil, nil, err
	}
	bars, drops := dedupPrices(parsed)
	return bars, drops, nil
}

func (l *Loader) parseNews(source string, rows []types.RawNews) ([]types.NewsRecord, error) {
	out := make([]types.NewsRecord, 0, len(rows))
	for i, r := range rows {
		row := i + 1
		headline := strings.TrimSpace(r.Headline)
		ticker := normalizeTicker(r.Stock)
		for _, f := range [][2]string{{"headline", headline}, {"date", strings.TrimSpace(r.Date)}, {"stock", ticker}} {
			if f[1] == "" {
				return nil, &errs.SchemaError{Source: source, Row: row, Field: f[0], Reason: "is empty"}
			}
		}
		ts, err := ParseTimestamp(r.Date, l.loc)
		if err != nil {
			return nil, &errs.ParseError{Source: source, Row: row, Field: "date", Value: r.Date, Err: err}
		}
		out = append(out, types.NewsRecord{
			Headline:  headline,
			URL:       strings.TrimSpace(r.URL),
			Publisher: strings.TrimSpace(r.Publisher),
			Timestamp: ts,
			Ticker:    ticker,
		})
	}
	return out, nil
}

var errNonPositiveClose = errors.New("close must be positive")

func (l *Loader) parsePrices(source string, rows []types.RawPrice) ([]types.PriceBar, error) {
	out := make([]types.PriceBar, 0, len(rows))
	for i, r := range rows {
		row := i + 1
		ticker := normalizeTicker(r.Ticker)
		if ticker == "" {
			return nil, &errs.SchemaError{Source: source, Row: row, Field: "ticker", Reason: "is empty"}
		}
		if strings.TrimSpace(r.Date) == "" {
			return nil, &errs.SchemaError{Source: source, Row: row, Field: "date", Reason: "is empty"}
		}
		date, err := ParseDate(r.Date, l.loc)
		if err != nil {
			return nil, &errs.ParseError{Source: source, Row: row, Field: "date", Value: r.Date, Err: err}
		}

		bar := types.PriceBar{Ticker: ticker, Date: date}
		for _, f := range []struct {
			name string
			raw  string
			dst  *decimal.Decimal
		}{
			{"open", r.Open, &bar.Open},
			{"high", r.High, &bar.High},
			{"low", r.Low, &bar.Low},
			{"close", r.Close, &bar.Close},
		} {
			v := strings.TrimSpace(f.raw)
			if v == "" {
				return nil, &errs.SchemaError{Source: source, Row: row, Field: f.name, Reason: "is empty"}
			}
			d, err := decimal.NewFromString(v)
			if err != nil {
				return nil, &errs.ParseError{Source: source, Row: row, Field: f.name, Value: f.raw, Err: err}
			}
			*f.dst = d
		}
		if !bar.Close.IsPositive() {
			return nil, &errs.ParseError{Source: source, Row: row, Field: "close", Value: r.Close, Err: errNonPositiveClose}
		}
		out = append(out, bar)
	}
	return out, nil
}

func normalizeTicker(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// dedupNews keeps the first of each (headline, ticker, timestamp) and sorts
// the survivors by (timestamp, ticker, headline).
func dedupNews(records []types.NewsRecord) ([]types.NewsRecord, []types.Drop) {
	type key struct {
		headline string
		ticker   string
		nanos    int64
	}
	seen := make(map[key]bool, len(records))
	out := make([]types.NewsRecord, 0, len(records))
	var drops []types.Drop
	for _, r := range records {
		k := key{r.Headline, r.Ticker, r.Timestamp.UnixNano()}
		if seen[k] {
			drops = append(drops, types.Drop{
				Reason:   types.DropDuplicateNews,
				Ticker:   r.Ticker,
				Headline: r.Headline,
				Detail:   r.Timestamp.Format(time.RFC3339),
			})
			continue
		}
		seen[k] = true
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		if a.Ticker != b.Ticker {
			return a.Ticker < b.Ticker
		}
		return a.Headline < b.Headline
	})
	return out, drops
}

// dedupPrices keeps the first bar per (ticker, date) and sorts by
// (ticker, date).
func dedupPrices(bars []types.PriceBar) ([]types.PriceBar, []types.Drop) {
	type key struct {
		ticker string
		date   string
	}
	seen := make(map[key]bool, len(bars))
	out := make([]types.PriceBar, 0, len(bars))
	var drops []types.Drop
	for _, b := range bars {
		k := key{b.Ticker, b.Date.Format(types.DateLayout)}
		if seen[k] {
			drops = append(drops, types.Drop{
				Reason: types.DropDuplicatePrice,
				Ticker: b.Ticker,
				Detail: k.date,
			})
			continue
		}
		seen[k] = true
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Ticker != out[j].Ticker {
			return out[i].Ticker < out[j].Ticker
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out, drops
}
