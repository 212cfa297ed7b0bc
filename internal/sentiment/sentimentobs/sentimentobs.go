package sentimentobs

import (
	"context"
	"time"

	"sentcorr/internal/interfaces"
	"sentcorr/internal/logger"
	"sentcorr/internal/trace"
	"sentcorr/internal/types"
)

// observableScorer wraps a Scorer with logging and tracing
type observableScorer struct {
	inner interfaces.Scorer
}

// Compile-time interface check
var _ interfaces.Scorer = (*observableScorer)(nil)

// Wrap wraps a scorer with observability middleware
func Wrap(scorer interfaces.Scorer) interfaces.Scorer {
	return &observableScorer{inner: scorer}
}

func (o *observableScorer) Score(ctx context.Context, headline string) (float64, error) {
	ctx, span := trace.StartSpan(ctx, "sentiment.Score")
	defer span.End()

	score, err := o.inner.Score(ctx, headline)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Headline scoring failed", err, "headline", headline)
		return 0, err
	}
	logger.DebugSkip(ctx, 1, "Headline scored", "headline", headline, "score", score)
	return score, nil
}

func (o *observableScorer) ScoreAll(ctx context.Context, news []types.NewsRecord) ([]types.ScoredNews, []types.Drop) {
	ctx, span := trace.StartSpan(ctx, "sentiment.ScoreAll")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Scoring headlines", "records", len(news))
	start := time.Now()

	scored, drops := o.inner.ScoreAll(ctx, news)

	logger.InfoSkip(ctx, 1, "Scoring completed",
		"scored", len(scored),
		"dropped", len(drops),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return scored, drops
}
