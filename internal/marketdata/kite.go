// Package marketdata fetches daily bars from Kite Connect.
package marketdata

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"sentcorr/internal/interfaces"
	"sentcorr/internal/logger"
	"sentcorr/internal/types"
)

const dayInterval = "day"

// historicalClient is the slice of the Kite client this package needs.
type historicalClient interface {
	GetHistoricalData(instrumentToken int, interval string, fromDate time.Time, toDate time.Time, continuous bool, OI bool) ([]kiteconnect.HistoricalData, error)
}

// KiteConfig holds credentials and the requested window.
type KiteConfig struct {
	APIKey      string
	AccessToken string
	BaseURL     string
	From        time.Time
	To          time.Time
}

// KiteSource is a PriceSource that downloads daily candles for one
// instrument.
type KiteSource struct {
	client historicalClient
	ticker string
	token  int
	from   time.Time
	to     time.Time
}

var _ interfaces.PriceSource = (*KiteSource)(nil)

// NewKiteSource builds a source for ticker, identified on Kite by
// instrumentToken.
func NewKiteSource(cfg KiteConfig, ticker string, instrumentToken int) (*KiteSource, error) {
	if cfg.APIKey == "" || cfg.AccessToken == "" {
		return nil, errors.New("kite api key and access token are required")
	}
	if cfg.From.IsZero() || cfg.To.IsZero() || cfg.To.Before(cfg.From) {
		return nil, fmt.Errorf("invalid kite window %s..%s", cfg.From.Format(types.DateLayout), cfg.To.Format(types.DateLayout))
	}
	kc := kiteconnect.New(cfg.APIKey)
	kc.SetAccessToken(cfg.AccessToken)
	if cfg.BaseURL != "" {
		kc.SetBaseURI(cfg.BaseURL)
	}
	return &KiteSource{client: kc, ticker: ticker, token: instrumentToken, from: cfg.From, to: cfg.To}, nil
}

func (s *KiteSource) Name() string {
	return "kite:" + s.ticker
}

// FetchPrices returns the instrument's daily candles as raw rows. Dates are
// written as the exchange-local calendar day.
func (s *KiteSource) FetchPrices(ctx context.Context) ([]types.RawPrice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	candles, err := s.client.GetHistoricalData(s.token, dayInterval, s.from, s.to, false, false)
	if err != nil {
		return nil, fmt.Errorf("kite historical data for %s (%d): %w", s.ticker, s.token, err)
	}

	rows := make([]types.RawPrice, 0, len(candles))
	for _, c := range candles {
		rows = append(rows, types.RawPrice{
			Ticker: s.ticker,
			Date:   c.Date.Time.Format(types.DateLayout),
			Open:   formatPrice(c.Open),
			High:   formatPrice(c.High),
			Low:    formatPrice(c.Low),
			Close:  formatPrice(c.Close),
		})
	}
	logger.Info(ctx, "Kite candles fetched", "ticker", s.ticker, "token", s.token, "candles", len(rows))
	return rows, nil
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
