package pipelineobs

import (
	"context"
	"time"

	"sentcorr/internal/interfaces"
	"sentcorr/internal/logger"
	"sentcorr/internal/trace"
	"sentcorr/internal/types"
)

type observablePipeline struct {
	pipeline interfaces.Pipeline
}

var _ interfaces.Pipeline = (*observablePipeline)(nil)

func Wrap(p interfaces.Pipeline) interfaces.Pipeline {
	return &observablePipeline{
		pipeline: p,
	}
}

func (op *observablePipeline) Run(ctx context.Context) (*types.Report, error) {
	ctx, span := trace.StartSpan(ctx, "pipeline.Run")
	defer span.End()

	start := time.Now()
	logger.InfoSkip(ctx, 1, "Starting correlation run")

	report, err := op.pipeline.Run(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Correlation run failed", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	logger.InfoSkip(ctx, 1, "Correlation run completed",
		"run_id", report.RunID,
		"news", report.Counts.NewsLoaded,
		"bars", report.Counts.BarsLoaded,
		"events", report.Counts.AlignedEvents,
		"omitted", report.Counts.Omitted,
		"dropped", report.Drops.Total(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	logDrops(ctx, report.Drops)
	return report, nil
}

func (op *observablePipeline) Score(ctx context.Context) ([]types.ScoredNews, types.DropSummary, error) {
	ctx, span := trace.StartSpan(ctx, "pipeline.Score")
	defer span.End()

	start := time.Now()
	scored, drops, err := op.pipeline.Score(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Scoring run failed", err)
		return nil, nil, err
	}

	logger.InfoSkip(ctx, 1, "Scoring run completed",
		"scored", len(scored),
		"dropped", drops.Total(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	logDrops(ctx, drops)
	return scored, drops, nil
}

func (op *observablePipeline) Coverage(ctx context.Context, withSentiment bool) (*types.CoverageStats, error) {
	ctx, span := trace.StartSpan(ctx, "pipeline.Coverage")
	defer span.End()

	stats, err := op.pipeline.Coverage(ctx, withSentiment)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Coverage analysis failed", err)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Coverage analysis completed",
		"articles", stats.TotalArticles,
		"publishers", len(stats.Publishers),
		"tickers", len(stats.Tickers),
	)
	return stats, nil
}

func logDrops(ctx context.Context, drops types.DropSummary) {
	for _, reason := range drops.Reasons() {
		logger.InfoSkip(ctx, 2, "Records dropped", "reason", string(reason), "count", drops[reason])
	}
}
