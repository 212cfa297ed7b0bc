package align

import "sentcorr/internal/types"

// aggregateDaily collapses consecutive events with the same ticker and
// trading date. Events must already be sorted by (ticker, trading date).
func aggregateDaily(events []types.AlignedEvent) []types.AlignedEvent {
	out := make([]types.AlignedEvent, 0, len(events))
	for _, e := range events {
		last := len(out) - 1
		if last >= 0 && out[last].Ticker == e.Ticker && out[last].TradingDate.Equal(e.TradingDate) {
			agg := &out[last]
			total := agg.Sentiment*float64(agg.Headlines) + e.Sentiment
			agg.Headlines += e.Headlines
			agg.Sentiment = total / float64(agg.Headlines)
			if e.NewsDate.Before(agg.NewsDate) {
				agg.NewsDate = e.NewsDate
			}
			continue
		}
		out = append(out, e)
	}
	return out
}
