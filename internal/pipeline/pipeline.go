// Package pipeline wires the loader, scorer, aligner and correlation engine
// into a single batch run.
package pipeline

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"sentcorr/internal/align"
	"sentcorr/internal/correlation"
	"sentcorr/internal/coverage"
	"sentcorr/internal/interfaces"
	"sentcorr/internal/loader"
	"sentcorr/internal/logger"
	"sentcorr/internal/types"
)

// Options are the run knobs that do not belong to any single stage.
type Options struct {
	Lag        int
	Daily      bool
	MinSamples int
	// Lags, when set, re-aligns at every lag and records the global result.
	Lags []int
	// Capability and Timezone are echoed in the report.
	Capability string
	Timezone   string
	// IncludeEvents copies the aligned events into the report.
	IncludeEvents bool
	// IncludeCoverage adds dataset coverage to the report.
	IncludeCoverage bool
}

// Deps are the collaborators a pipeline needs.
type Deps struct {
	Loader *loader.Loader
	News   []interfaces.NewsSource
	Prices []interfaces.PriceSource
	Scorer interfaces.Scorer
	Clock  clockwork.Clock
}

// Pipeline is a configured batch run. It holds no state between runs.
type Pipeline struct {
	deps   Deps
	opts   Options
	engine *correlation.Engine
}

var _ interfaces.Pipeline = (*Pipeline)(nil)

// New builds a pipeline. A negative Lag is raised to 0.
func New(deps Deps, opts Options) *Pipeline {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if opts.Lag < 0 {
		opts.Lag = 0
	}
	return &Pipeline{deps: deps, opts: opts, engine: correlation.New(opts.MinSamples)}
}

// WithOptions returns a copy of p with tweak applied to its options.
func (p *Pipeline) WithOptions(tweak func(*Options)) *Pipeline {
	opts := p.opts
	opts.Lags = append([]int(nil), p.opts.Lags...)
	tweak(&opts)
	return New(p.deps, opts)
}

// Run loads, scores, aligns and correlates. Load errors abort the run;
// per-record and per-ticker problems are reported as drops and flags.
func (p *Pipeline) Run(ctx context.Context) (*types.Report, error) {
	op := logger.StartOperation(ctx, "pipeline.load")
	news, newsDrops, err := p.deps.Loader.LoadNews(op.GetContext(), p.deps.News)
	if err != nil {
		op.EndWithError(err)
		return nil, fmt.Errorf("load news: %w", err)
	}
	bars, priceDrops, err := p.deps.Loader.LoadPrices(op.GetContext(), p.deps.Prices)
	if err != nil {
		op.EndWithError(err)
		return nil, fmt.Errorf("load prices: %w", err)
	}
	op.End("news", len(news), "bars", len(bars))

	op = logger.StartOperation(ctx, "pipeline.score", "news", len(news))
	scored, scoreDrops := p.deps.Scorer.ScoreAll(op.GetContext(), news)
	if err := ctx.Err(); err != nil {
		op.EndWithError(err)
		return nil, fmt.Errorf("score news: %w", err)
	}
	op.End("scored", len(scored), "dropped", len(scoreDrops))

	op = logger.StartOperation(ctx, "pipeline.align", "scored", len(scored), "lag", p.opts.Lag)
	aligned := align.Align(scored, bars, align.Options{Lag: p.opts.Lag, Daily: p.opts.Daily})
	for _, e := range aligned.Errors {
		logger.Warn(op.GetContext(), "Ticker has no price data", "error", e)
	}
	op.End("events", len(aligned.Events), "omitted", aligned.Omitted)

	op = logger.StartOperation(ctx, "pipeline.correlate", "events", len(aligned.Events))
	tickers := newsTickers(news)
	results := p.engine.Compute(aligned.Events, tickers, aligned.NoPriceData)
	for _, res := range results {
		if err := correlation.Err(res); err != nil {
			logger.Debug(op.GetContext(), "Correlation not computed", "scope", res.Scope, "reason", err)
		}
	}
	op.End("scopes", len(results))

	report := &types.Report{
		RunID:       uuid.NewString(),
		GeneratedAt: p.deps.Clock.Now(),
		Settings:    p.settings(),
		Counts: types.Counts{
			NewsLoaded:    len(news),
			BarsLoaded:    len(bars),
			Tickers:       len(tickers),
			Scored:        len(scored),
			AlignedEvents: len(aligned.Events),
			Omitted:       aligned.Omitted,
		},
		Results: results,
		Drops:   types.Summarize(newsDrops, priceDrops, scoreDrops, aligned.Drops),
	}
	if len(p.opts.Lags) > 0 {
		report.LagResults = p.sweep(scored, bars)
	}
	if p.opts.IncludeCoverage {
		report.Coverage = coverage.Analyze(news, scored)
	}
	if p.opts.IncludeEvents {
		report.Events = aligned.Events
	}

	if global, ok := report.Global(); ok {
		logger.Info(ctx, "Correlation computed",
			"run_id", report.RunID,
			"events", global.SampleSize,
			"coefficient", global.Coefficient,
			"p_value", global.PValue,
			"flag", string(global.Flag),
		)
	}
	return report, nil
}

// Score loads news and scores it.
func (p *Pipeline) Score(ctx context.Context) ([]types.ScoredNews, types.DropSummary, error) {
	news, drops, err := p.deps.Loader.LoadNews(ctx, p.deps.News)
	if err != nil {
		return nil, nil, fmt.Errorf("load news: %w", err)
	}
	scored, scoreDrops := p.deps.Scorer.ScoreAll(ctx, news)
	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("score news: %w", err)
	}
	return scored, types.Summarize(drops, scoreDrops), nil
}

// Coverage loads news and summarizes it.
func (p *Pipeline) Coverage(ctx context.Context, withSentiment bool) (*types.CoverageStats, error) {
	news, _, err := p.deps.Loader.LoadNews(ctx, p.deps.News)
	if err != nil {
		return nil, fmt.Errorf("load news: %w", err)
	}
	var scored []types.ScoredNews
	if withSentiment {
		scored, _ = p.deps.Scorer.ScoreAll(ctx, news)
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("score news: %w", err)
		}
	}
	return coverage.Analyze(news, scored), nil
}

// sweep re-aligns the scored news at every configured lag and keeps the
// global result for each.
func (p *Pipeline) sweep(scored []types.ScoredNews, bars []types.PriceBar) []types.LagResult {
	out := make([]types.LagResult, 0, len(p.opts.Lags))
	for _, lag := range p.opts.Lags {
		res := align.Align(scored, bars, align.Options{Lag: lag, Daily: p.opts.Daily})
		out = append(out, types.LagResult{Lag: lag, Result: p.engine.Correlate(types.GlobalScope, res.Events)})
	}
	return out
}

func (p *Pipeline) settings() types.RunSettings {
	aggregate := "none"
	if p.opts.Daily {
		aggregate = "daily"
	}
	return types.RunSettings{
		Timezone:   p.opts.Timezone,
		Capability: p.opts.Capability,
		Lag:        p.opts.Lag,
		Aggregate:  aggregate,
		MinSamples: p.engine.MinSamples,
	}
}

func newsTickers(news []types.NewsRecord) []string {
	seen := map[string]bool{}
	var out []string
	for _, n := range news {
		if !seen[n.Ticker] {
			seen[n.Ticker] = true
			out = append(out, n.Ticker)
		}
	}
	sort.Strings(out)
	return out
}
