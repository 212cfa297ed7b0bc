package interfaces

import (
	"context"

	"sentcorr/internal/types"
)

// SentimentCapability turns one piece of text into a polarity score. The
// result should lie in [-1, 1]; callers clamp anything outside that range.
type SentimentCapability interface {
	Name() string
	Score(ctx context.Context, text string) (float64, error)
}

// Scorer applies a capability to loaded news.
type Scorer interface {
	// Score scores one headline, enforcing the per-call timeout.
	Score(ctx context.Context, headline string) (float64, error)

	// ScoreAll scores every record, returning results in input order and a
	// drop for every record that could not be scored.
	ScoreAll(ctx context.Context, news []types.NewsRecord) ([]types.ScoredNews, []types.Drop)
}
