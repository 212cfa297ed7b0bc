package loader

import (
	"strings"

	"sentcorr/internal/errs"
)

var newsAliases = map[string]string{
	"timestamp": "date",
	"ticker":    "stock",
	"title":     "headline",
}

var priceAliases = map[string]string{
	"symbol": "ticker",
}

var (
	newsRequired  = []string{"headline", "date", "stock"}
	priceRequired = []string{"date", "open", "high", "low", "close"}
)

// canonicalHeader lower-cases, trims and resolves aliases. A canonical name
// that already appears in the header wins over an alias of it.
func canonicalHeader(header []string, aliases map[string]string) []string {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[normalizeColumn(h)] = true
	}
	out := make([]string, len(header))
	for i, h := range header {
		name := normalizeColumn(h)
		if canon, ok := aliases[name]; ok && !present[canon] {
			name = canon
		}
		out[i] = name
	}
	return out
}

func normalizeColumn(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.ToLower(strings.TrimSpace(h))
}

// requireColumns returns a SchemaError naming the first missing column.
func requireColumns(source string, header []string, required []string) error {
	have := make(map[string]bool, len(header))
	for _, h := range header {
		have[h] = true
	}
	for _, col := range required {
		if !have[col] {
			return &errs.SchemaError{Source: source, Field: col, Reason: "is missing"}
		}
	}
	return nil
}

func hasColumn(header []string, col string) bool {
	for _, h := range header {
		if h == col {
			return true
		}
	}
	return false
}
