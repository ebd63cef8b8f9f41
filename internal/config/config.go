package config

import (
	"fmt"
	"runtime"

	"github.com/spf13/viper"
)

type Config struct {
	// Environment
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// Input
	InputPath    string `mapstructure:"INPUT_PATH"`
	ExpectedRows int    `mapstructure:"EXPECTED_ROWS"`

	// Partitioning
	TestRows  int   `mapstructure:"TEST_ROWS"`
	CVFolds   int   `mapstructure:"CV_FOLDS"`
	SplitSeed int64 `mapstructure:"SPLIT_SEED"`
	FoldSeed  int64 `mapstructure:"FOLD_SEED"`

	// Exploration
	TopPredictors int `mapstructure:"TOP_PREDICTORS"`

	// Model tuning
	SearchWorkers    int   `mapstructure:"SEARCH_WORKERS"`
	ForestTrees      int   `mapstructure:"FOREST_TREES"`
	ForestSearchSeed int64 `mapstructure:"FOREST_SEARCH_SEED"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")

	// Set defaults
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("INPUT_PATH", "data/season_stats.csv")
	viper.SetDefault("EXPECTED_ROWS", 195)
	viper.SetDefault("TEST_ROWS", 59)
	viper.SetDefault("CV_FOLDS", 5)
	viper.SetDefault("SPLIT_SEED", 333)
	viper.SetDefault("FOLD_SEED", 333)
	viper.SetDefault("TOP_PREDICTORS", 20)
	viper.SetDefault("SEARCH_WORKERS", 0) // 0 = use all available cores
	viper.SetDefault("FOREST_TREES", 1000)
	viper.SetDefault("FOREST_SEARCH_SEED", 345)

	viper.AutomaticEnv()

	// Config file is optional; env vars and defaults cover everything
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks configuration invariants before the pipeline starts
func (c *Config) Validate() error {
	if c.ExpectedRows <= 0 {
		return fmt.Errorf("EXPECTED_ROWS must be positive, got %d", c.ExpectedRows)
	}
	if c.TestRows <= 0 || c.TestRows >= c.ExpectedRows {
		return fmt.Errorf("TEST_ROWS must be in (0, %d), got %d", c.ExpectedRows, c.TestRows)
	}
	if c.CVFolds < 2 {
		return fmt.Errorf("CV_FOLDS must be at least 2, got %d", c.CVFolds)
	}
	if c.TopPredictors < 2 {
		return fmt.Errorf("TOP_PREDICTORS must be at least 2, got %d", c.TopPredictors)
	}
	if c.ForestTrees <= 0 {
		return fmt.Errorf("FOREST_TREES must be positive, got %d", c.ForestTrees)
	}
	return nil
}

// Workers resolves the worker count, defaulting to available cores
func (c *Config) Workers() int {
	if c.SearchWorkers > 0 {
		return c.SearchWorkers
	}
	return runtime.NumCPU()
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
