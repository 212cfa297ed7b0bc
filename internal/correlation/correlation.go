// Package correlation computes Pearson correlation between sentiment and
// price return, per ticker and globally.
package correlation

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"sentcorr/internal/errs"
	"sentcorr/internal/types"
)

// DefaultMinSamples is the smallest group for which a coefficient exists.
const DefaultMinSamples = 2

// Engine groups aligned events by scope and correlates each group.
type Engine struct {
	MinSamples int
}

// New returns an engine; minSamples below 2 is raised to 2.
func New(minSamples int) *Engine {
	if minSamples < DefaultMinSamples {
		minSamples = DefaultMinSamples
	}
	return &Engine{MinSamples: minSamples}
}

// Compute returns one result per ticker, ascending, followed by the global
// result. tickers lists scopes that must be reported even without events;
// noPriceData tickers are reported with the NoPriceData flag.
func (e *Engine) Compute(events []types.AlignedEvent, tickers []string, noPriceData []string) []types.CorrelationResult {
	groups := map[string][]types.AlignedEvent{}
	for _, t := range tickers {
		groups[t] = nil
	}
	for _, ev := range events {
		groups[ev.Ticker] = append(groups[ev.Ticker], ev)
	}
	noPrice := map[string]bool{}
	for _, t := range noPriceData {
		noPrice[t] = true
		groups[t] = nil
	}

	scopes := make([]string, 0, len(groups))
	for t := range groups {
		scopes = append(scopes, t)
	}
	sort.Strings(scopes)

	results := make([]types.CorrelationResult, 0, len(scopes)+1)
	for _, t := range scopes {
		if noPrice[t] {
			results = append(results, types.CorrelationResult{
				Scope:       t,
				Coefficient: math.NaN(),
				PValue:      math.NaN(),
				Flag:        types.FlagNoPriceData,
			})
			continue
		}
		results = append(results, e.Correlate(t, groups[t]))
	}
	results = append(results, e.Correlate(types.GlobalScope, events))
	return results
}

// Correlate computes the result for one group of events.
func (e *Engine) Correlate(scope string, events []types.AlignedEvent) types.CorrelationResult {
	x := make([]float64, len(events))
	y := make([]float64, len(events))
	for i, ev := range events {
		x[i] = ev.Sentiment
		y[i] = ev.PriceReturn
	}
	coef, p, flag := Pearson(x, y, e.MinSamples)
	return types.CorrelationResult{
		Scope:       scope,
		Coefficient: coef,
		SampleSize:  len(events),
		PValue:      p,
		Flag:        flag,
	}
}

// Pearson returns the coefficient of x and y with its two-sided p-value
// from Student's t with n-2 degrees of freedom. Groups smaller than
// minSamples, and groups where either side is constant, yield NaN and a flag.
func Pearson(x, y []float64, minSamples int) (coef, pValue float64, flag types.ResultFlag) {
	n := len(x)
	if n != len(y) {
		panic("correlation: length mismatch")
	}
	if minSamples < DefaultMinSamples {
		minSamples = DefaultMinSamples
	}
	if n < minSamples {
		return math.NaN(), math.NaN(), types.FlagInsufficientData
	}
	if constant(x) || constant(y) {
		return math.NaN(), math.NaN(), types.FlagConstantInput
	}

	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return math.NaN(), math.NaN(), types.FlagConstantInput
	}
	r = math.Max(-1, math.Min(1, r))
	return r, pValueFor(r, n), types.FlagNone
}

// Err returns the error behind a flagged result, or nil when the
// coefficient was computed.
func Err(res types.CorrelationResult) error {
	switch res.Flag {
	case types.FlagInsufficientData:
		return fmt.Errorf("%s: %d samples: %w", res.Scope, res.SampleSize, errs.ErrInsufficientData)
	case types.FlagNoPriceData:
		return &errs.NoPriceDataError{Ticker: res.Scope}
	case types.FlagConstantInput:
		return fmt.Errorf("%s: %w", res.Scope, errConstantInput)
	}
	return nil
}

var errConstantInput = errors.New("constant input")

func pValueFor(r float64, n int) float64 {
	df := float64(n - 2)
	if df <= 0 {
		return 1
	}
	if math.Abs(r) == 1 {
		return 0
	}
	t := r * math.Sqrt(df/(1-r*r))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * dist.Survival(math.Abs(t))
	return math.Max(0, math.Min(1, p))
}

func constant(v []float64) bool {
	for _, x := range v[1:] {
		if x != v[0] {
			return false
		}
	}
	return true
}
