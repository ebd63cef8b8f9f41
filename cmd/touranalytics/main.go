package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stitts-dev/tour-analytics/internal/config"
	"github.com/stitts-dev/tour-analytics/internal/pipeline"
	"github.com/stitts-dev/tour-analytics/pkg/logger"
)

var (
	// CLI overrides for the named seeds and worker count
	flagSplitSeed  int64
	flagFoldSeed   int64
	flagSearchSeed int64
	flagWorkers    int
	flagLogLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "touranalytics [season.csv]",
	Short: "Season-long golf statistics analysis and top-10 classification",
	Long: `touranalytics ingests one season of tour player statistics, ranks
predictors by correlation with a top-10-finisher label, and tunes three
classifiers (elastic-net logistic regression, decision tree, random
forest) with cross-validated grid search, reporting accuracy, AUC, and
permutation feature-importance.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().Int64Var(&flagSplitSeed, "split-seed", 0, "train/test split seed (overrides config)")
	rootCmd.Flags().Int64Var(&flagFoldSeed, "fold-seed", 0, "cross-validation fold seed (overrides config)")
	rootCmd.Flags().Int64Var(&flagSearchSeed, "search-seed", 0, "random-forest search seed (overrides config)")
	rootCmd.Flags().IntVar(&flagWorkers, "workers", 0, "grid-search workers, 0 = all cores (overrides config)")
	rootCmd.Flags().StringVar(&flagLogLevel, "log-level", "", "log level (overrides config)")
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	if len(args) == 1 {
		cfg.InputPath = args[0]
	}
	f := cmd.Flags()
	if f.Changed("split-seed") {
		cfg.SplitSeed = flagSplitSeed
	}
	if f.Changed("fold-seed") {
		cfg.FoldSeed = flagFoldSeed
	}
	if f.Changed("search-seed") {
		cfg.ForestSearchSeed = flagSearchSeed
	}
	if f.Changed("workers") {
		cfg.SearchWorkers = flagWorkers
	}
	if f.Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}

	log := logger.InitLogger(cfg.LogLevel, cfg.IsDevelopment())

	if _, err := pipeline.New(cfg).Run(cmd.Context(), os.Stdout); err != nil {
		log.WithError(err).Error("Analysis run failed")
		return err
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
