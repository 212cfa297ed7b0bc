package loader

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gocarina/gocsv"

	"sentcorr/internal/errs"
	"sentcorr/internal/interfaces"
	"sentcorr/internal/types"
)

// CSVNewsSource reads news rows from a CSV file with a header row.
type CSVNewsSource struct {
	Path string
}

var _ interfaces.NewsSource = (*CSVNewsSource)(nil)

func (s *CSVNewsSource) Name() string { return s.Path }

func (s *CSVNewsSource) FetchNews(ctx context.Context) ([]types.RawNews, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open news file: %w", err)
	}
	defer f.Close()
	return ReadNewsCSV(s.Path, f)
}

// ReadNewsCSV decodes news rows. The header is checked before any row is
// decoded so a missing column fails fast.
func ReadNewsCSV(source string, r io.Reader) ([]types.RawNews, error) {
	body, header, err := rewriteHeader(source, r, newsAliases)
	if err != nil {
		return nil, err
	}
	if err := requireColumns(source, header, newsRequired); err != nil {
		return nil, err
	}
	var rows []types.RawNews
	if err := gocsv.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode %s: %w", source, err)
	}
	return rows, nil
}

// CSVPriceSource reads bars from a CSV file. Ticker is applied to rows when
// the file has no ticker column, the common one-file-per-symbol layout.
type CSVPriceSource struct {
	Path   string
	Ticker string
}

var _ interfaces.PriceSource = (*CSVPriceSource)(nil)

func (s *CSVPriceSource) Name() string { return s.Path }

func (s *CSVPriceSource) FetchPrices(ctx context.Context) ([]types.RawPrice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open price file: %w", err)
	}
	defer f.Close()
	return ReadPricesCSV(s.Path, f, s.Ticker)
}

// ReadPricesCSV decodes bars, filling empty tickers with ticker.
func ReadPricesCSV(source string, r io.Reader, ticker string) ([]types.RawPrice, error) {
	body, header, err := rewriteHeader(source, r, priceAliases)
	if err != nil {
		return nil, err
	}
	if err := requireColumns(source, header, priceRequired); err != nil {
		return nil, err
	}
	if !hasColumn(header, "ticker") && ticker == "" {
		return nil, &errs.SchemaError{Source: source, Field: "ticker", Reason: "is missing and no ticker is configured"}
	}
	var rows []types.RawPrice
	if err := gocsv.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode %s: %w", source, err)
	}
	fillTicker(rows, ticker)
	return rows, nil
}

func fillTicker(rows []types.RawPrice, ticker string) {
	if ticker == "" {
		return
	}
	for i := range rows {
		if strings.TrimSpace(rows[i].Ticker) == "" {
			rows[i].Ticker = ticker
		}
	}
}

// rewriteHeader reads the whole file, canonicalizes the header and returns
// an equivalent CSV stream for gocsv together with the canonical header.
func rewriteHeader(source string, r io.Reader, aliases map[string]string) (io.Reader, []string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, &errs.ParseError{Source: source, Field: "csv", Err: err}
	}
	if len(records) == 0 {
		return nil, nil, &errs.SchemaError{Source: source, Field: "header", Reason: "is missing"}
	}
	header := canonicalHeader(records[0], aliases)
	records[0] = header
	for i := 1; i < len(records); i++ {
		for len(records[i]) < len(header) {
			records[i] = append(records[i], "")
		}
		records[i] = records[i][:len(header)]
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(records); err != nil {
		return nil, nil, fmt.Errorf("rewrite %s: %w", source, err)
	}
	return &buf, header, nil
}
