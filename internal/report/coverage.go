package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"sentcorr/internal/store"
	"sentcorr/internal/types"
)

// WriteCoverage renders coverage statistics. CSV lists one row per ticker.
func WriteCoverage(w io.Writer, stats *types.CoverageStats, format string) error {
	switch format {
	case store.FormatJSON, "":
		return WriteJSON(w, stats)
	case store.FormatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write([]string{"ticker", "articles", "publishers", "publisher_diversity", "mean_sentiment"}); err != nil {
			return err
		}
		for _, t := range stats.Tickers {
			if err := cw.Write([]string{
				t.Ticker,
				strconv.Itoa(t.Articles),
				strconv.Itoa(t.Publishers),
				strconv.FormatFloat(t.PublisherDiversity, 'f', 4, 64),
				strconv.FormatFloat(t.MeanSentiment, 'f', 4, 64),
			}); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	case store.FormatText:
		return writeCoverageText(w, stats)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func writeCoverageText(w io.Writer, stats *types.CoverageStats) error {
	var b strings.Builder
	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "                      NEWS COVERAGE")
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "Articles:        %d\n", stats.TotalArticles)
	fmt.Fprintf(&b, "Publishers:      %d\n", len(stats.Publishers))
	fmt.Fprintf(&b, "Tickers:         %d\n", len(stats.Tickers))
	fmt.Fprintf(&b, "Peak hour:       %02d:00\n", stats.Temporal.PeakHour)
	fmt.Fprintf(&b, "Peak weekday:    %s\n", stats.Temporal.PeakDay)
	fmt.Fprintf(&b, "Weekend share:   %.1f%%\n", stats.Temporal.WeekendRatio*100)
	fmt.Fprintln(&b)

	fmt.Fprintf(&b, "%-24s %8s %10s  %s\n", "PUBLISHER", "ARTICLES", "PER DAY", "TOP TICKERS")
	for _, p := range stats.Publishers {
		top := make([]string, 0, len(p.TopTickers))
		for _, t := range p.TopTickers {
			top = append(top, fmt.Sprintf("%s(%d)", t.Name, t.Count))
		}
		fmt.Fprintf(&b, "%-24s %8d %10.2f  %s\n", p.Publisher, p.Articles, p.AvgPerDay, strings.Join(top, " "))
	}
	fmt.Fprintln(&b)

	fmt.Fprintf(&b, "%-10s %8s %10s %10s\n", "TICKER", "ARTICLES", "SOURCES", "SENTIMENT")
	for _, t := range stats.Tickers {
		fmt.Fprintf(&b, "%-10s %8d %10d %10.3f\n", t.Ticker, t.Articles, t.Publishers, t.MeanSentiment)
	}
	fmt.Fprintln(&b, rule)

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteScored renders scored headlines. Text and CSV both print one line
// per headline.
func WriteScored(w io.Writer, scored []types.ScoredNews, format string) error {
	switch format {
	case store.FormatJSON, "":
		return WriteJSON(w, scored)
	case store.FormatCSV, store.FormatText:
		cw := csv.NewWriter(w)
		if format == store.FormatText {
			cw.Comma = '\t'
		}
		if err := cw.Write([]string{"timestamp", "ticker", "sentiment", "label", "headline"}); err != nil {
			return err
		}
		for _, s := range scored {
			if err := cw.Write([]string{
				s.Timestamp.Format("2006-01-02 15:04:05-07:00"),
				s.Ticker,
				strconv.FormatFloat(s.Sentiment, 'f', 4, 64),
				string(s.Label),
				s.Headline,
			}); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
