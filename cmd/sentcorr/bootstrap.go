package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"sentcorr/internal/interfaces"
	"sentcorr/internal/logger"
	"sentcorr/internal/pipeline"
	"sentcorr/internal/pipeline/pipelineobs"
	"sentcorr/internal/runlog"
	"sentcorr/internal/sentiment"
	"sentcorr/internal/store"
	"sentcorr/internal/trace"
	"sentcorr/internal/types"
)

// initializeSystem loads .env and starts the logger and tracer.
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := trace.Init(version); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

func shutdownSystem() {
	if err := trace.Shutdown(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to flush traces: %v\n", err)
	}
	logger.Sync()
}

// loadConfig reads the config file and applies output flag overrides.
func loadConfig(cmd *cobra.Command) (*store.Config, error) {
	ctx := cmd.Context()
	path, _ := cmd.Flags().GetString("config")
	c, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", path)
		return nil, err
	}
	if f, _ := cmd.Flags().GetString("format"); f != "" {
		c.Output.Format = strings.ToLower(f)
	}
	if o, _ := cmd.Flags().GetString("output"); o != "" {
		c.Output.Path = o
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// initializePipeline builds the pipeline with observability. tweak, when
// set, adjusts run options that only the CLI controls.
func initializePipeline(ctx context.Context, clock clockwork.Clock, tweak func(*pipeline.Options)) (interfaces.Pipeline, error) {
	cleanupScoreCache(ctx, clock)

	p, err := pipeline.FromConfig(cfg, clock)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to build pipeline", err)
		return nil, err
	}
	if tweak != nil {
		p = p.WithOptions(tweak)
	}
	logger.Info(ctx, "Pipeline ready",
		"news_sources", len(cfg.News.Sources),
		"price_sources", len(cfg.Prices.Sources),
		"capability", cfg.Scorer.Capability,
		"lag", cfg.Align.Lag,
		"aggregate", cfg.Align.Aggregate,
	)
	return pipelineobs.Wrap(p), nil
}

// cleanupScoreCache removes expired entries from the score cache, if any.
func cleanupScoreCache(ctx context.Context, clock clockwork.Clock) {
	if cfg.Scorer.Cache.Dir == "" {
		return
	}
	cache, err := sentiment.NewScoreCache(cfg.Scorer.Cache.Dir, cfg.Scorer.Cache.TTL, clock)
	if err != nil {
		logger.Warn(ctx, "Score cache unavailable", "error", err)
		return
	}
	if n, err := cache.CleanupExpired(); err != nil {
		logger.Warn(ctx, "Failed to clean score cache", "error", err)
	} else if n > 0 {
		logger.Debug(ctx, "Expired scores removed", "count", n)
	}
}

// recordRun appends the run summary and compresses old run logs.
func recordRun(ctx context.Context, log *runlog.Log, rep *types.Report) {
	if err := log.Append(runlog.EntryFor(rep)); err != nil {
		logger.Warn(ctx, "Failed to append run log", "error", err)
	}
	if n, err := log.CompressOlder(cfg.RunLog.RetentionDays); err != nil {
		logger.Warn(ctx, "Failed to compress old run logs", "error", err)
	} else if n > 0 {
		logger.Info(ctx, "Old run logs compressed", "files", n)
	}
}
