package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentcorr/internal/store"
	"sentcorr/internal/types"
)

const fileConfig = `
news:
  sources:
    - kind: csv
      path: ../loader/testdata/news.csv
prices:
  sources:
    - kind: csv
      path: ../loader/testdata/prices_aapl.csv
      ticker: AAPL
`

func TestFromConfigRunsFileSources(t *testing.T) {
	cfg, err := store.ParseConfig([]byte(fileConfig))
	require.NoError(t, err)

	p, err := FromConfig(cfg, clockwork.NewFakeClockAt(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	report, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, report.Counts.NewsLoaded)
	assert.Equal(t, 2, report.Counts.BarsLoaded)
	assert.Equal(t, 1, report.Counts.AlignedEvents)
	assert.Equal(t, 1, report.Drops[types.DropDuplicateNews])
	assert.Equal(t, 1, report.Drops[types.DropDuplicatePrice])
	assert.Equal(t, 2, report.Drops[types.DropNoPriceData])
	assert.Equal(t, "lexicon", report.Settings.Capability)

	scopes := make([]string, 0, len(report.Results))
	for _, r := range report.Results {
		scopes = append(scopes, r.Scope)
	}
	assert.Equal(t, []string{"AAPL", "MSFT", "TSLA", types.GlobalScope}, scopes)
	assert.NotNil(t, report.Coverage)
}

func TestFromConfigKiteNeedsCredentials(t *testing.T) {
	t.Setenv("KITE_API_KEY", "")
	t.Setenv("KITE_ACCESS_TOKEN", "")
	cfg, err := store.ParseConfig([]byte(`
news:
  sources:
    - kind: csv
      path: ../loader/testdata/news.csv
prices:
  kite:
    from: "2024-01-01"
    to: "2024-01-31"
  sources:
    - kind: kite
      ticker: INFY
      instrument_token: 408065
`))
	require.NoError(t, err)

	_, err = FromConfig(cfg, clockwork.NewRealClock())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prices.sources[0]")
}

func TestNewsSourcesMapsKinds(t *testing.T) {
	cfg := store.Default()
	cfg.News.Sources = []store.SourceConfig{
		{Kind: store.KindCSV, Path: "a.csv"},
		{Kind: store.KindJSON, Path: "b.json"},
		{Kind: store.KindRSS, URL: "https://example.com/feed", Ticker: "AAPL"},
		{Kind: store.KindScrape, URL: "https://example.com/{symbol}", Ticker: "AAPL", Selectors: store.ScrapeSelectors{Container: "article", Title: "h2"}},
	}

	sources, err := NewsSources(cfg)
	require.NoError(t, err)
	require.Len(t, sources, 4)
	assert.Equal(t, "a.csv", sources[0].Name())
	assert.Equal(t, "https://example.com/feed", sources[2].Name())
	assert.Equal(t, "example.com", sources[3].Name())
}
