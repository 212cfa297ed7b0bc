// Package report renders run reports as JSON, CSV or a console table.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"sentcorr/internal/store"
	"sentcorr/internal/types"
)

var resultHeaders = []string{"scope", "coefficient", "p_value", "sample_size", "flag"}

const rule = "═══════════════════════════════════════════════════════════════"

// Write renders r in format to w.
func Write(w io.Writer, r *types.Report, format string) error {
	switch format {
	case store.FormatJSON, "":
		return WriteJSON(w, r)
	case store.FormatCSV:
		return WriteCSV(w, r)
	case store.FormatText:
		return WriteText(w, r)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// WriteFile renders r to path, creating parent directories. An empty path
// or "-" writes to stdout.
func WriteFile(path string, r *types.Report, format string) error {
	if path == "" || path == "-" {
		return Write(os.Stdout, r, format)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(out, r, format); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// WriteJSON writes the full report, indented.
func WriteJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

// WriteCSV writes one row per correlation result, then one row per lag of
// the sweep with scope "lag=N".
func WriteCSV(w io.Writer, r *types.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(resultHeaders); err != nil {
		return err
	}
	for _, res := range r.Results {
		if err := cw.Write(resultRow(res.Scope, res)); err != nil {
			return err
		}
	}
	for _, lr := range r.LagResults {
		if err := cw.Write(resultRow("lag="+strconv.Itoa(lr.Lag), lr.Result)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func resultRow(scope string, res types.CorrelationResult) []string {
	return []string{scope, formatStat(res.Coefficient, 6), formatStat(res.PValue, 6), strconv.Itoa(res.SampleSize), string(res.Flag)}
}

// formatStat renders NaN as an empty cell.
func formatStat(v float64, prec int) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', prec, 64)
}

// WriteText writes a console summary of the run.
func WriteText(w io.Writer, r *types.Report) error {
	var b strings.Builder
	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "              SENTIMENT / RETURN CORRELATION")
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "Run ID:          %s\n", r.RunID)
	fmt.Fprintf(&b, "Generated:       %s\n", r.GeneratedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Capability:      %s\n", r.Settings.Capability)
	fmt.Fprintf(&b, "Lag / Aggregate: %d / %s\n", r.Settings.Lag, r.Settings.Aggregate)
	fmt.Fprintf(&b, "News / Bars:     %d / %d\n", r.Counts.NewsLoaded, r.Counts.BarsLoaded)
	fmt.Fprintf(&b, "Scored:          %d\n", r.Counts.Scored)
	fmt.Fprintf(&b, "Aligned events:  %d (omitted %d)\n", r.Counts.AlignedEvents, r.Counts.Omitted)
	fmt.Fprintln(&b)

	fmt.Fprintf(&b, "%-10s %12s %10s %8s  %s\n", "SCOPE", "COEFFICIENT", "P-VALUE", "N", "FLAG")
	for _, res := range r.Results {
		writeResultLine(&b, res.Scope, res)
	}

	if len(r.LagResults) > 0 {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "Lag sweep (global):")
		for _, lr := range r.LagResults {
			writeResultLine(&b, "lag="+strconv.Itoa(lr.Lag), lr.Result)
		}
	}

	if len(r.Drops) > 0 {
		fmt.Fprintln(&b)
		writeDrops(&b, r.Drops)
	}
	fmt.Fprintln(&b, rule)

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteDrops prints the per-reason drop counts, one reason per line.
// Nothing is written for an empty summary.
func WriteDrops(w io.Writer, drops types.DropSummary) error {
	if len(drops) == 0 {
		return nil
	}
	var b strings.Builder
	writeDrops(&b, drops)
	_, err := io.WriteString(w, b.String())
	return err
}

func writeDrops(b *strings.Builder, drops types.DropSummary) {
	fmt.Fprintln(b, "Dropped records:")
	for _, reason := range drops.Reasons() {
		fmt.Fprintf(b, "  %-20s %d\n", reason, drops[reason])
	}
}

func writeResultLine(b *strings.Builder, scope string, res types.CorrelationResult) {
	coef, p := formatStat(res.Coefficient, 4), formatStat(res.PValue, 4)
	if coef == "" {
		coef, p = "n/a", "n/a"
	}
	fmt.Fprintf(b, "%-10s %12s %10s %8d  %s\n", scope, coef, p, res.SampleSize, res.Flag)
}
