package loader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentcorr/internal/errs"
	"sentcorr/internal/interfaces"
	"sentcorr/internal/types"
)

func TestLoadNewsFromCSV(t *testing.T) {
	loc := newYork(t)
	l := New(loc)

	news, drops, err := l.LoadNews(context.Background(), []interfaces.NewsSource{&CSVNewsSource{Path: "testdata/news.csv"}})
	require.NoError(t, err)

	require.Len(t, news, 3)
	assert.Equal(t, "Tesla Stock Surges 10%", news[0].Headline)
	assert.Equal(t, "TSLA", news[0].Ticker)
	assert.Equal(t, "Reuters", news[0].Publisher)
	assert.True(t, time.Date(2024, 1, 1, 9, 0, 0, 0, loc).Equal(news[0].Timestamp))
	assert.Equal(t, loc, news[0].Timestamp.Location())
	assert.Equal(t, "AAPL", news[1].Ticker)
	assert.Equal(t, "MSFT", news[2].Ticker)

	require.Len(t, drops, 1)
	assert.Equal(t, types.DropDuplicateNews, drops[0].Reason)
	assert.Equal(t, "AAPL", drops[0].Ticker)
}

func TestLoadPricesFromCSVWithConfiguredTicker(t *testing.T) {
	loc := newYork(t)
	l := New(loc)

	bars, drops, err := l.LoadPrices(context.Background(), []interfaces.PriceSource{
		&CSVPriceSource{Path: "testdata/prices_aapl.csv", Ticker: "aapl"},
		&JSONPriceSource{Path: "testdata/prices.json"},
	})
	require.NoError(t, err)

	require.Len(t, bars, 4)
	assert.Equal(t, "AAPL", bars[0].Ticker)
	assert.True(t, time.Date(2024, 1, 2, 0, 0, 0, 0, loc).Equal(bars[0].Date))
	assert.True(t, decimal.RequireFromString("100").Equal(bars[0].Close))
	assert.True(t, decimal.RequireFromString("105").Equal(bars[1].Close))
	assert.Equal(t, "MSFT", bars[2].Ticker)
	assert.Equal(t, "371.25", bars[2].Close.String())

	require.Len(t, drops, 1)
	assert.Equal(t, types.DropDuplicatePrice, drops[0].Reason)
	assert.Equal(t, "2024-01-02", drops[0].Detail)
}

func TestLoadNewsFromJSONAliases(t *testing.T) {
	l := New(newYork(t))

	news, _, err := l.LoadNews(context.Background(), []interfaces.NewsSource{&JSONNewsSource{Path: "testdata/news.json"}})
	require.NoError(t, err)
	require.Len(t, news, 1)
	assert.Equal(t, "Nvidia Unveils New Chip", news[0].Headline)
	assert.Equal(t, "NVDA", news[0].Ticker)
	assert.Equal(t, 9, news[0].Timestamp.Hour())
}

func TestLoadNewsMissingColumnIsSchemaError(t *testing.T) {
	_, err := ReadNewsCSV("inline", strings.NewReader("headline,url,publisher,stock\nA,,,AAPL\n"))

	var se *errs.SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "date", se.Field)
	assert.Equal(t, 0, se.Row)
}

func TestNormalizeNewsEmptyRequiredField(t *testing.T) {
	l := New(newYork(t))

	_, _, err := l.NormalizeNews([]types.RawNews{
		{Headline: "Fine", Date: "2024-01-02", Stock: "AAPL"},
		{Headline: "  ", Date: "2024-01-02", Stock: "AAPL"},
	})

	var se *errs.SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 2, se.Row)
	assert.Equal(t, "headline", se.Field)
}

func TestNormalizeNewsBadTimestampIsParseError(t *testing.T) {
	l := New(newYork(t))

	_, _, err := l.NormalizeNews([]types.RawNews{{Headline: "A", Date: "not a date", Stock: "AAPL"}})

	var pe *errs.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "date", pe.Field)
	assert.Equal(t, "not a date", pe.Value)
}

func TestNormalizePricesRejectsBadNumbers(t *testing.T) {
	l := New(newYork(t))
	base := types.RawPrice{Ticker: "AAPL", Date: "2024-01-02", Open: "1", High: "1", Low: "1", Close: "1"}

	bad := base
	bad.High = "abc"
	_, _, err := l.NormalizePrices([]types.RawPrice{bad})
	var pe *errs.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "high", pe.Field)

	zero := base
	zero.Close = "0"
	_, _, err = l.NormalizePrices([]types.RawPrice{zero})
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "close", pe.Field)
	assert.ErrorIs(t, err, errNonPositiveClose)
}

func TestNormalizeSortsOutput(t *testing.T) {
	l := New(newYork(t))

	news, _, err := l.NormalizeNews([]types.RawNews{
		{Headline: "b", Date: "2024-01-02 10:00:00", Stock: "MSFT"},
		{Headline: "a", Date: "2024-01-02 10:00:00", Stock: "MSFT"},
		{Headline: "z", Date: "2024-01-02 10:00:00", Stock: "AAPL"},
		{Headline: "early", Date: "2024-01-01", Stock: "ZZZ"},
	})
	require.NoError(t, err)
	var got []string
	for _, n := range news {
		got = append(got, n.Headline)
	}
	assert.Equal(t, []string{"early", "z", "a", "b"}, got)

	bars, _, err := l.NormalizePrices([]types.RawPrice{
		{Ticker: "MSFT", Date: "2024-01-02", Open: "1", High: "1", Low: "1", Close: "1"},
		{Ticker: "AAPL", Date: "2024-01-03", Open: "1", High: "1", Low: "1", Close: "1"},
		{Ticker: "AAPL", Date: "2024-01-02", Open: "1", High: "1", Low: "1", Close: "1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "AAPL", bars[0].Ticker)
	assert.Equal(t, 2, bars[0].Date.Day())
	assert.Equal(t, "AAPL", bars[1].Ticker)
	assert.Equal(t, "MSFT", bars[2].Ticker)
}

func TestPricesCSVWithoutTickerNeedsConfig(t *testing.T) {
	f, err := os.Open("testdata/prices_aapl.csv")
	require.NoError(t, err)
	defer f.Close()

	_, err = ReadPricesCSV("prices_aapl.csv", f, "")
	var se *errs.SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "ticker", se.Field)
}

func TestLoadNewsHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := New(time.UTC).LoadNews(ctx, []interfaces.NewsSource{&CSVNewsSource{Path: "testdata/news.csv"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRSSSourceFromFileAndHTTP(t *testing.T) {
	body, err := os.ReadFile("testdata/feed.xml")
	require.NoError(t, err)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	for _, url := range []string{"testdata/feed.xml", srv.URL} {
		src := &RSSNewsSource{URL: url, Ticker: "AAPL"}
		rows, err := src.FetchNews(context.Background())
		require.NoError(t, err, url)
		require.Len(t, rows, 1, url)
		assert.Equal(t, "Apple Beats Estimates", rows[0].Headline)
		assert.Equal(t, "Market Wire", rows[0].Publisher)
		assert.Equal(t, "AAPL", rows[0].Stock)
		assert.Equal(t, "2024-01-02T14:00:00Z", rows[0].Date)
	}
}
