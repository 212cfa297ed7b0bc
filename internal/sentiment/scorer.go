// Package sentiment scores headlines through a pluggable capability.
package sentiment

import (
	"context"
	"errors"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"sentcorr/internal/errs"
	"sentcorr/internal/interfaces"
	"sentcorr/internal/logger"
	"sentcorr/internal/types"
)

var errNaNScore = errors.New("capability returned NaN")

// Scorer applies a capability with a per-call timeout and bounded fan-out.
type Scorer struct {
	capability interfaces.SentimentCapability
	timeout    time.Duration
	workers    int
}

var _ interfaces.Scorer = (*Scorer)(nil)

// NewScorer wraps capability. workers below 1 means sequential scoring.
func NewScorer(capability interfaces.SentimentCapability, timeout time.Duration, workers int) *Scorer {
	if workers < 1 {
		workers = 1
	}
	return &Scorer{capability: capability, timeout: timeout, workers: workers}
}

// Score returns the clamped polarity of headline. Any failure, including a
// timeout or a NaN result, is a ScoringError matching ErrScoringUnavailable.
func (s *Scorer) Score(ctx context.Context, headline string) (float64, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	type result struct {
		score float64
		err   error
	}
	done := make(chan result, 1)
	go func() {
		v, err := s.capability.Score(ctx, headline)
		done <- result{v, err}
	}()

	var r result
	select {
	case r = <-done:
	case <-ctx.Done():
		r.err = ctx.Err()
	}
	if r.err == nil && math.IsNaN(r.score) {
		r.err = errNaNScore
	}
	if r.err != nil {
		return 0, &errs.ScoringError{Capability: s.capability.Name(), Err: r.err}
	}
	return clamp(r.score), nil
}

// ScoreAll scores every record. Output order matches input order; each
// failed record becomes a scoring_unavailable drop.
func (s *Scorer) ScoreAll(ctx context.Context, news []types.NewsRecord) ([]types.ScoredNews, []types.Drop) {
	scores := make([]float64, len(news))
	failures := make([]error, len(news))

	g := new(errgroup.Group)
	g.SetLimit(s.workers)
	for i := range news {
		g.Go(func() error {
			scores[i], failures[i] = s.Score(ctx, news[i].Headline)
			return nil
		})
	}
	_ = g.Wait()

	scored := make([]types.ScoredNews, 0, len(news))
	var drops []types.Drop
	for i, n := range news {
		if err := failures[i]; err != nil {
			logger.Warn(ctx, "Headline dropped, scoring unavailable", "ticker", n.Ticker, "headline", n.Headline, "error", err)
			drops = append(drops, types.Drop{
				Reason:   types.DropScoringUnavailable,
				Ticker:   n.Ticker,
				Headline: n.Headline,
				Detail:   err.Error(),
			})
			continue
		}
		scored = append(scored, types.ScoredNews{
			NewsRecord: n,
			Sentiment:  scores[i],
			Label:      types.LabelFor(scores[i]),
		})
	}
	return scored, drops
}

func clamp(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}
