package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"sentcorr/internal/errs"
	"sentcorr/internal/interfaces"
	"sentcorr/internal/types"
)

// JSONNewsSource reads a JSON array of news objects.
type JSONNewsSource struct {
	Path string
}

var _ interfaces.NewsSource = (*JSONNewsSource)(nil)

func (s *JSONNewsSource) Name() string { return s.Path }

func (s *JSONNewsSource) FetchNews(ctx context.Context) ([]types.RawNews, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open news file: %w", err)
	}
	defer f.Close()
	return ReadNewsJSON(s.Path, f)
}

// ReadNewsJSON decodes a JSON array of news objects. Every object must carry
// the required keys.
func ReadNewsJSON(source string, r io.Reader) ([]types.RawNews, error) {
	objs, err := readObjects(source, r, newsAliases, newsRequired)
	if err != nil {
		return nil, err
	}
	rows := make([]types.RawNews, len(objs))
	for i, o := range objs {
		rows[i] = types.RawNews{
			Headline:  o["headline"],
			URL:       o["url"],
			Publisher: o["publisher"],
			Date:      o["date"],
			Stock:     o["stock"],
		}
	}
	return rows, nil
}

// JSONPriceSource reads a JSON array of bar objects.
type JSONPriceSource struct {
	Path   string
	Ticker string
}

var _ interfaces.PriceSource = (*JSONPriceSource)(nil)

func (s *JSONPriceSource) Name() string { return s.Path }

func (s *JSONPriceSource) FetchPrices(ctx context.Context) ([]types.RawPrice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open price file: %w", err)
	}
	defer f.Close()
	return ReadPricesJSON(s.Path, f, s.Ticker)
}

// ReadPricesJSON decodes a JSON array of bars, filling empty tickers.
func ReadPricesJSON(source string, r io.Reader, ticker string) ([]types.RawPrice, error) {
	required := priceRequired
	if ticker == "" {
		required = append([]string{"ticker"}, priceRequired...)
	}
	objs, err := readObjects(source, r, priceAliases, required)
	if err != nil {
		return nil, err
	}
	rows := make([]types.RawPrice, len(objs))
	for i, o := range objs {
		rows[i] = types.RawPrice{
			Ticker: o["ticker"],
			Date:   o["date"],
			Open:   o["open"],
			High:   o["high"],
			Low:    o["low"],
			Close:  o["close"],
		}
	}
	fillTicker(rows, ticker)
	return rows, nil
}

// readObjects decodes an array of flat objects into canonical string maps.
// Numbers keep their literal text so decimals are not rounded through float64.
func readObjects(source string, r io.Reader, aliases map[string]string, required []string) ([]map[string]string, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw []map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, &errs.ParseError{Source: source, Field: "json", Err: err}
	}

	out := make([]map[string]string, len(raw))
	for i, obj := range raw {
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		canon := canonicalHeader(keys, aliases)

		row := make(map[string]string, len(obj))
		for j, k := range keys {
			row[canon[j]] = stringify(obj[k])
		}
		for _, col := range required {
			if _, ok := row[col]; !ok {
				return nil, &errs.SchemaError{Source: source, Row: i + 1, Field: col, Reason: "is missing"}
			}
		}
		out[i] = row
	}
	return out, nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
