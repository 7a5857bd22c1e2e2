package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/quant/config"
	"github.com/rustyeddy/quant/logger"
	"github.com/rustyeddy/quant/store"
)

var rootCmd = &cobra.Command{
	Use:   "quant",
	Short: "A single-desk quantitative research pipeline",
	Long: `Quant computes daily factors over a price database, normalizes them into
cross-sectional signals and replays scored, monthly-rebalanced portfolios.

It provides tools for:
  - Importing prices, instruments and trading calendars from CSV
  - Computing momentum, volatility, liquidity and risk factors with
    resumable checkpoints
  - Backtesting top-K scoring strategies with slippage and cost accounting
  - Inspecting and resetting pipeline state`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Setup(flagLogLevel)
	},
}

var (
	flagConfig   string
	flagDBPath   string
	flagLogLevel string
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "path to config file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVarP(&flagDBPath, "db", "d", "", "path to SQLite database (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
}

func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if flagConfig != "" {
		loaded, err := config.LoadFromFile(flagConfig)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if flagDBPath != "" {
		cfg.Storage.DBPath = flagDBPath
	}
	return cfg, nil
}

func openStore(cfg *config.Config) (*store.SQLiteStore, error) {
	s, err := store.NewSQLite(cfg.Storage.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open db %s: %w", cfg.Storage.DBPath, err)
	}
	return s, nil
}
