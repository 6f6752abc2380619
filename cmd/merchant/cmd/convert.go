package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/peter-kozarec/merchant/pkg/common"
	"github.com/peter-kozarec/merchant/pkg/datasource"
	"github.com/peter-kozarec/merchant/pkg/datasource/duckdb"
	"github.com/peter-kozarec/merchant/pkg/datasource/historical"
)

const (
	formatBinary  = "binary"
	formatParquet = "parquet"
)

var convertCmd = &cobra.Command{
	Use:   "convert <candles.csv>",
	Short: "Convert a candle CSV file into a dataset",
	Long: `Convert reads candles from CSV with the columns
timestamp,ticker,open,high,low,close,volume,trades,vw_price and writes them
as a dataset the simulator can open.

Formats:
  binary   - one <TICKER>.bin file per ticker (dataset kind "historical")
  parquet  - ticker partitioned parquet files (dataset kind "duckdb")

Examples:
  merchant convert candles.csv --out data/bin
  merchant convert candles.csv --format parquet --out data/parquet`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

var (
	convertFormat string
	convertOut    string
)

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVar(&convertFormat, "format", formatBinary, "output format (binary, parquet)")
	convertCmd.Flags().StringVarP(&convertOut, "out", "o", ".", "output directory")
}

func runConvert(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	file, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("unable to open %s: %w", args[0], err)
	}
	defer func() { _ = file.Close() }()

	candles, err := datasource.ReadCSV(file)
	if err != nil {
		return fmt.Errorf("unable to read %s: %w", args[0], err)
	}

	if err := writeDataset(cmd.Context(), convertFormat, convertOut, candles); err != nil {
		return err
	}
	logger.Info("dataset written",
		zap.String("format", convertFormat),
		zap.String("out", convertOut),
		zap.Int("candles", len(candles)))
	return nil
}

// writeDataset stores candles, sorted by timestamp then ticker, in format under dir.
func writeDataset(ctx context.Context, format, dir string, candles []common.Candle) error {
	switch format {
	case formatParquet:
		return duckdb.WriteParquet(ctx, dir, candles)

	case formatBinary:
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("unable to create %s: %w", dir, err)
		}
		series := make(map[string][]common.Candle)
		for _, c := range candles {
			series[c.Symbol] = append(series[c.Symbol], c)
		}
		for ticker, tickerCandles := range series {
			path := filepath.Join(dir, ticker+historical.FileExtension)
			if err := historical.WriteFile(path, tickerCandles); err != nil {
				return fmt.Errorf("unable to write %s: %w", path, err)
			}
		}
		return nil
	}
	return fmt.Errorf("unknown format %q", format)
}
