// Package align joins scored headlines to the close-to-close return of the
// trading session they precede.
package align

import (
	"sort"
	"time"

	"sentcorr/internal/errs"
	"sentcorr/internal/types"
)

// Options controls alignment.
type Options struct {
	// Lag is how many bars after the anchor bar the return is read from.
	// The anchor is the first bar dated on or after the news trading date.
	// Negative lags omit every event.
	Lag int
	// Daily collapses events sharing (ticker, trading date) into one event
	// carrying the mean sentiment.
	Daily bool
}

// Result is the output of Align.
type Result struct {
	Events []types.AlignedEvent
	// Omitted counts events with no located bar or no predecessor bar.
	Omitted int
	// NoPriceData lists, sorted, tickers that appear in the news but have
	// no bars at all.
	NoPriceData []string
	// Errors holds one NoPriceDataError per ticker in NoPriceData.
	Errors []error
	Drops  []types.Drop
}

type series struct {
	bars []types.PriceBar
	keys []int
}

// Align maps each scored headline to a price return. It never fails as a
// whole: missing bars become omissions and missing tickers become
// per-ticker errors.
func Align(news []types.ScoredNews, bars []types.PriceBar, opts Options) Result {
	bySymbol := indexBars(bars)

	var res Result
	missing := map[string]bool{}
	for _, n := range news {
		s, ok := bySymbol[n.Ticker]
		if !ok {
			if !missing[n.Ticker] {
				missing[n.Ticker] = true
				res.NoPriceData = append(res.NoPriceData, n.Ticker)
			}
			res.Drops = append(res.Drops, types.Drop{
				Reason:   types.DropNoPriceData,
				Ticker:   n.Ticker,
				Headline: n.Headline,
			})
			continue
		}

		newsDate := types.DateOf(n.Timestamp)
		anchor := sort.SearchInts(s.keys, dateKey(newsDate))
		idx := anchor + opts.Lag
		// A negative lag would read a return from before the news.
		if anchor >= len(s.bars) || idx >= len(s.bars) || idx < 1 || opts.Lag < 0 {
			res.Omitted++
			res.Drops = append(res.Drops, types.Drop{
				Reason:   types.DropNoPredecessor,
				Ticker:   n.Ticker,
				Headline: n.Headline,
				Detail:   newsDate.Format(types.DateLayout),
			})
			continue
		}

		res.Events = append(res.Events, types.AlignedEvent{
			Ticker:      n.Ticker,
			TradingDate: s.bars[idx].Date,
			NewsDate:    newsDate,
			Sentiment:   n.Sentiment,
			PriceReturn: closeReturn(s.bars[idx-1], s.bars[idx]),
			Lag:         opts.Lag,
			Headlines:   1,
		})
	}

	sort.Strings(res.NoPriceData)
	for _, t := range res.NoPriceData {
		res.Errors = append(res.Errors, &errs.NoPriceDataError{Ticker: t})
	}

	sort.SliceStable(res.Events, func(i, j int) bool {
		a, b := res.Events[i], res.Events[j]
		if a.Ticker != b.Ticker {
			return a.Ticker < b.Ticker
		}
		return a.TradingDate.Before(b.TradingDate)
	})
	if opts.Daily {
		res.Events = aggregateDaily(res.Events)
	}
	return res
}

func indexBars(bars []types.PriceBar) map[string]*series {
	out := map[string]*series{}
	for _, b := range bars {
		s, ok := out[b.Ticker]
		if !ok {
			s = &series{}
			out[b.Ticker] = s
		}
		s.bars = append(s.bars, b)
	}
	for _, s := range out {
		sort.SliceStable(s.bars, func(i, j int) bool { return s.bars[i].Date.Before(s.bars[j].Date) })
		s.keys = make([]int, len(s.bars))
		for i, b := range s.bars {
			s.keys[i] = dateKey(b.Date)
		}
	}
	return out
}

// closeReturn is (cur.close - prev.close) / prev.close. Closes are positive
// after loading.
func closeReturn(prev, cur types.PriceBar) float64 {
	r, _ := cur.Close.Sub(prev.Close).Div(prev.Close).Float64()
	return r
}

// dateKey orders calendar dates independently of location.
func dateKey(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}
