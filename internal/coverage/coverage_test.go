package coverage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentcorr/internal/types"
)

func rec(publisher, ticker string, ts time.Time) types.NewsRecord {
	return types.NewsRecord{Headline: publisher + " on " + ticker, Publisher: publisher, Ticker: ticker, Timestamp: ts}
}

func fixture() []types.NewsRecord {
	// 2024-01-05 is a Friday, 2024-01-06 a Saturday.
	return []types.NewsRecord{
		rec("Reuters", "AAPL", time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)),
		rec("Bloomberg", "AAPL", time.Date(2024, 1, 5, 9, 30, 0, 0, time.UTC)),
		rec("Reuters", "MSFT", time.Date(2024, 1, 6, 14, 0, 0, 0, time.UTC)),
	}
}

func TestAnalyzePublishers(t *testing.T) {
	stats := Analyze(fixture(), nil)

	assert.Equal(t, 3, stats.TotalArticles)
	require.Len(t, stats.Publishers, 2)

	reuters := stats.Publishers[0]
	assert.Equal(t, "Reuters", reuters.Publisher)
	assert.Equal(t, 2, reuters.Articles)
	assert.Equal(t, 1.0, reuters.AvgPerDay)
	assert.Equal(t, 2, reuters.UniqueTickers)
	assert.Equal(t, []types.NamedCount{{Name: "AAPL", Count: 1}, {Name: "MSFT", Count: 1}}, reuters.TopTickers)
	assert.Equal(t, "2024-01-05", reuters.FirstArticleAt.Format(types.DateLayout))
	assert.Equal(t, "2024-01-06", reuters.LastArticleAt.Format(types.DateLayout))

	assert.Equal(t, "Bloomberg", stats.Publishers[1].Publisher)
}

func TestAnalyzeTickers(t *testing.T) {
	news := fixture()
	scored := []types.ScoredNews{
		{NewsRecord: news[0], Sentiment: 0.6},
		{NewsRecord: news[1], Sentiment: -0.2},
		{NewsRecord: news[2], Sentiment: 0.0},
	}

	stats := Analyze(news, scored)

	require.Len(t, stats.Tickers, 2)
	aapl := stats.Tickers[0]
	assert.Equal(t, "AAPL", aapl.Ticker)
	assert.Equal(t, 2, aapl.Articles)
	assert.Equal(t, 2, aapl.Publishers)
	assert.Equal(t, 1.0, aapl.PublisherDiversity)
	assert.InDelta(t, 0.2, aapl.MeanSentiment, 1e-12)
	assert.Equal(t, 1, aapl.PositiveHeadlines)
	assert.Equal(t, 1, aapl.NegativeHeadlines)

	msft := stats.Tickers[1]
	assert.Equal(t, 1, msft.Articles)
	assert.Zero(t, msft.PositiveHeadlines)
}

func TestAnalyzeTemporal(t *testing.T) {
	tmp := Analyze(fixture(), nil).Temporal

	assert.Equal(t, []types.NamedCount{{Name: "2024-01-05", Count: 2}, {Name: "2024-01-06", Count: 1}}, tmp.Daily)
	assert.Equal(t, []types.NamedCount{{Name: "2024-01", Count: 3}}, tmp.Monthly)
	assert.Equal(t, 2, tmp.Hourly[9])
	assert.Equal(t, 9, tmp.PeakHour)
	assert.Equal(t, "Friday", tmp.PeakDay)
	assert.InDelta(t, 1.0/3, tmp.WeekendRatio, 1e-12)
}

func TestAnalyzeEmpty(t *testing.T) {
	stats := Analyze(nil, nil)
	assert.Zero(t, stats.TotalArticles)
	assert.Empty(t, stats.Publishers)
	assert.Empty(t, stats.Temporal.PeakDay)
}
