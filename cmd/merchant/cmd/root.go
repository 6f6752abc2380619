package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/peter-kozarec/merchant/internal/dbg"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "merchant",
	Short: "Deterministic backtesting market simulator",
	Long: `Merchant replays historical or synthetic candles through a simulated
broker and lets a strategy trade against it.

It provides tools for:
  - Running seeded, repeatable simulation episodes
  - Converting candle CSV files into binary or parquet datasets
  - Generating synthetic datasets
  - Querying the SQLite trade journal`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
}

func newLogger() (*zap.Logger, error) {
	return dbg.NewLogger(logLevel)
}
