// sentcorr correlates news headline sentiment with next-session stock
// returns.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"sentcorr/internal/errs"
	"sentcorr/internal/pipeline"
	"sentcorr/internal/report"
	"sentcorr/internal/runlog"
	"sentcorr/internal/store"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
)

var cfg *store.Config

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		shutdownSystem()
		os.Exit(1)
	}
	shutdownSystem()
}

var rootCmd = &cobra.Command{
	Use:           "sentcorr",
	Short:         "Correlate news sentiment with stock returns",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		if err := initializeSystem(); err != nil {
			return err
		}
		var err error
		cfg, err = loadConfig(cmd)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "config.yaml", "config file path")
	rootCmd.PersistentFlags().String("format", "", "output format override (json, csv, text)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "output file (default: output.path or stdout)")

	runCmd.Flags().Int("lag", 0, "alignment lag override")
	runCmd.Flags().String("aggregate", "", "aggregation override (none, daily)")
	runCmd.Flags().Bool("events", false, "include aligned events in the report")
	coverageCmd.Flags().Bool("with-sentiment", false, "score headlines and add per-ticker sentiment")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(coverageCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sentcorr %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Load, score, align and correlate once",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		clock := clockwork.NewRealClock()

		if cmd.Flags().Changed("lag") {
			cfg.Align.Lag, _ = cmd.Flags().GetInt("lag")
		}
		if cmd.Flags().Changed("aggregate") {
			agg, _ := cmd.Flags().GetString("aggregate")
			cfg.Align.Aggregate = strings.ToLower(agg)
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		events, _ := cmd.Flags().GetBool("events")

		p, err := initializePipeline(ctx, clock, func(o *pipeline.Options) { o.IncludeEvents = events })
		if err != nil {
			return err
		}
		rep, err := p.Run(ctx)
		if err != nil {
			if errs.IsFatal(err) {
				return fmt.Errorf("input rejected: %w", err)
			}
			return err
		}
		if err := report.WriteFile(cfg.Output.Path, rep, cfg.Output.Format); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		recordRun(ctx, runlog.New(cfg.RunLog.Dir, clock), rep)
		return nil
	},
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score headlines without aligning prices",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		p, err := initializePipeline(ctx, clockwork.NewRealClock(), nil)
		if err != nil {
			return err
		}
		scored, drops, err := p.Score(ctx)
		if err != nil {
			return err
		}
		if err := withOutput(cfg.Output.Path, func(f *os.File) error {
			return report.WriteScored(f, scored, cfg.Output.Format)
		}); err != nil {
			return err
		}
		// Stdout may carry the scored rows, so the summary goes to stderr.
		return report.WriteDrops(os.Stderr, drops)
	},
}

var coverageCmd = &cobra.Command{
	Use:   "coverage",
	Short: "Summarize publishers, tickers and publication times",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		withSentiment, _ := cmd.Flags().GetBool("with-sentiment")
		p, err := initializePipeline(ctx, clockwork.NewRealClock(), nil)
		if err != nil {
			return err
		}
		stats, err := p.Coverage(ctx, withSentiment)
		if err != nil {
			return err
		}
		return withOutput(cfg.Output.Path, func(f *os.File) error {
			return report.WriteCoverage(f, stats, cfg.Output.Format)
		})
	},
}

func withOutput(path string, write func(*os.File) error) error {
	if path == "" || path == "-" {
		return write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
