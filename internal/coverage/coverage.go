// Package coverage summarizes who published the loaded news, which tickers
// it covers, and when it was published.
package coverage

import (
	"sort"
	"time"

	"sentcorr/internal/types"
)

// TopTickers is how many tickers are listed per publisher.
const TopTickers = 5

// Analyze builds coverage statistics for news. When scored is non-empty the
// per-ticker stats also carry sentiment figures.
func Analyze(news []types.NewsRecord, scored []types.ScoredNews) *types.CoverageStats {
	stats := &types.CoverageStats{
		TotalArticles: len(news),
		Publishers:    publishers(news),
		Tickers:       tickers(news, scored),
		Temporal:      temporal(news),
	}
	return stats
}

type publisherAcc struct {
	articles    int
	days        map[string]int
	tickers     map[string]int
	first, last time.Time
}

func publishers(news []types.NewsRecord) []types.PublisherStats {
	acc := map[string]*publisherAcc{}
	for _, n := range news {
		name := n.Publisher
		if name == "" {
			name = "unknown"
		}
		a, ok := acc[name]
		if !ok {
			a = &publisherAcc{days: map[string]int{}, tickers: map[string]int{}, first: n.Timestamp, last: n.Timestamp}
			acc[name] = a
		}
		a.articles++
		a.days[n.Timestamp.Format(types.DateLayout)]++
		a.tickers[n.Ticker]++
		if n.Timestamp.Before(a.first) {
			a.first = n.Timestamp
		}
		if n.Timestamp.After(a.last) {
			a.last = n.Timestamp
		}
	}

	out := make([]types.PublisherStats, 0, len(acc))
	for name, a := range acc {
		top := ranked(a.tickers)
		if len(top) > TopTickers {
			top = top[:TopTickers]
		}
		out = append(out, types.PublisherStats{
			Publisher:      name,
			Articles:       a.articles,
			AvgPerDay:      float64(a.articles) / float64(len(a.days)),
			UniqueTickers:  len(a.tickers),
			TopTickers:     top,
			FirstArticleAt: a.first,
			LastArticleAt:  a.last,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Articles != out[j].Articles {
			return out[i].Articles > out[j].Articles
		}
		return out[i].Publisher < out[j].Publisher
	})
	return out
}

type tickerAcc struct {
	articles   int
	publishers map[string]bool
	scored     int
	sum        float64
	pos, neg   int
}

func tickers(news []types.NewsRecord, scored []types.ScoredNews) []types.TickerStats {
	acc := map[string]*tickerAcc{}
	get := func(t string) *tickerAcc {
		a, ok := acc[t]
		if !ok {
			a = &tickerAcc{publishers: map[string]bool{}}
			acc[t] = a
		}
		return a
	}
	for _, n := range news {
		a := get(n.Ticker)
		a.articles++
		if n.Publisher != "" {
			a.publishers[n.Publisher] = true
		}
	}
	for _, s := range scored {
		a := get(s.Ticker)
		a.scored++
		a.sum += s.Sentiment
		switch types.LabelFor(s.Sentiment) {
		case types.LabelPositive:
			a.pos++
		case types.LabelNegative:
			a.neg++
		}
	}

	out := make([]types.TickerStats, 0, len(acc))
	for t, a := range acc {
		ts := types.TickerStats{
			Ticker:            t,
			Articles:          a.articles,
			Publishers:        len(a.publishers),
			PositiveHeadlines: a.pos,
			NegativeHeadlines: a.neg,
		}
		if a.articles > 0 {
			ts.PublisherDiversity = float64(len(a.publishers)) / float64(a.articles)
		}
		if a.scored > 0 {
			ts.MeanSentiment = a.sum / float64(a.scored)
		}
		out = append(out, ts)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Articles != out[j].Articles {
			return out[i].Articles > out[j].Articles
		}
		return out[i].Ticker < out[j].Ticker
	})
	return out
}

func temporal(news []types.NewsRecord) types.TemporalStats {
	var ts types.TemporalStats
	daily := map[string]int{}
	monthly := map[string]int{}
	weekend := 0
	for _, n := range news {
		at := n.Timestamp
		daily[at.Format(types.DateLayout)]++
		monthly[at.Format("2006-01")]++
		ts.Hourly[at.Hour()]++
		ts.Weekday[at.Weekday()]++
		if at.Weekday() == time.Saturday || at.Weekday() == time.Sunday {
			weekend++
		}
	}
	ts.Daily = chronological(daily)
	ts.Monthly = chronological(monthly)
	ts.PeakHour = argmax(ts.Hourly[:])
	if len(news) > 0 {
		ts.PeakDay = time.Weekday(argmax(ts.Weekday[:])).String()
		ts.WeekendRatio = float64(weekend) / float64(len(news))
	}
	return ts
}

// ranked orders counts descending, ties by name.
func ranked(m map[string]int) []types.NamedCount {
	out := make([]types.NamedCount, 0, len(m))
	for k, v := range m {
		out = append(out, types.NamedCount{Name: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func chronological(m map[string]int) []types.NamedCount {
	out := make([]types.NamedCount, 0, len(m))
	for k, v := range m {
		out = append(out, types.NamedCount{Name: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func argmax(v []int) int {
	best := 0
	for i, c := range v {
		if c > v[best] {
			best = i
		}
	}
	return best
}
