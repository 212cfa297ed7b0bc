package interfaces

import (
	"context"

	"sentcorr/internal/types"
)

// Pipeline runs the load, score, align and correlate stages.
type Pipeline interface {
	// Run executes every stage once and returns the report.
	Run(ctx context.Context) (*types.Report, error)

	// Score loads and scores news without touching prices.
	Score(ctx context.Context) ([]types.ScoredNews, types.DropSummary, error)

	// Coverage loads news and summarizes it. withSentiment also scores the
	// headlines so per-ticker sentiment is filled in.
	Coverage(ctx context.Context, withSentiment bool) (*types.CoverageStats, error)
}
