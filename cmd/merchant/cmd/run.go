package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/peter-kozarec/merchant/pkg/journal"
	"github.com/peter-kozarec/merchant/pkg/middleware"
	"github.com/peter-kozarec/merchant/pkg/simulation"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulation",
	Long: `Run replays the configured dataset through the simulated broker, one
episode after another, and prints a performance report per episode.

Every episode starts from the same balances and replays the same random
draws, so runs with equal seeds are identical.

Examples:
  merchant run -f configs/merchant.yaml
  merchant run -f configs/merchant.yaml --episodes 5 --seed 7 --monitor rejections
  MERCHANT_STRATEGY=momentum MERCHANT_SYMBOL=BTC merchant run`,
	Args: cobra.NoArgs,
	RunE: runSimulation,
}

var (
	runConfigPath  string
	runMonitor     []string
	runMetricsFile string
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to a YAML config file")
	runCmd.Flags().StringVar(&runMetricsFile, "metrics-file", "", "write prometheus metrics to this textfile after the run")
	runCmd.Flags().StringSliceVar(&runMonitor, "monitor", nil, "log orders, executions, rejections, observations or all")
	runCmd.Flags().Int64("seed", 0, "random seed")
	runCmd.Flags().Int("episodes", 1, "number of episodes")
	runCmd.Flags().String("strategy", simulation.StrategyNoop, "strategy (noop, buy_and_hold, momentum)")
	runCmd.Flags().String("symbol", "", "symbol the strategy trades")
	runCmd.Flags().String("journal", "", "path to a SQLite journal")
	runCmd.Flags().String("start", "", "first simulated instant (RFC3339)")
	runCmd.Flags().String("end", "", "last simulated instant (RFC3339)")
}

func runSimulation(cmd *cobra.Command, _ []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := loadConfiguration(runConfigPath, cmd.Flags())
	if err != nil {
		return err
	}
	parsed, err := cfg.Parse()
	if err != nil {
		return err
	}
	monitorFlags, err := middleware.ParseMonitorFlags(runMonitor)
	if err != nil {
		return err
	}
	strategy, err := simulation.NewStrategy(cfg.Strategy, cfg.Symbol)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dataset, closeDataset, err := simulation.OpenDataset(ctx, logger, cfg, parsed)
	if err != nil {
		return fmt.Errorf("unable to open dataset: %w", err)
	}
	defer func() {
		if err := closeDataset(); err != nil {
			logger.Warn("unable to close dataset", zap.Error(err))
		}
	}()

	options := []simulation.SessionOption{simulation.WithMonitorFlags(monitorFlags)}
	if cfg.Journal != "" {
		j, err := journal.NewSQLite(ctx, cfg.Journal, journal.Run{
			Name:        cfg.Name,
			Seed:        cfg.Seed,
			Quote:       cfg.Quote,
			Fingerprint: cfg.Fingerprint(),
		})
		if err != nil {
			return err
		}
		defer func() { _ = j.Close() }()

		logger.Info("journal opened", zap.String("path", cfg.Journal), zap.Stringer("run_id", j.Run().ID))
		options = append(options, simulation.WithRecorder(j))
	}

	registry := prometheus.NewRegistry()
	if runMetricsFile != "" {
		metrics, err := middleware.NewMetrics(registry)
		if err != nil {
			return err
		}
		options = append(options, simulation.WithMetrics(metrics))
	}

	session, err := simulation.NewSession(logger, cfg, dataset, strategy, options...)
	if err != nil {
		return err
	}

	reports, err := session.Run(ctx)
	if err != nil {
		return err
	}
	if runMetricsFile != "" {
		if err := prometheus.WriteToTextfile(runMetricsFile, registry); err != nil {
			return fmt.Errorf("unable to write metrics: %w", err)
		}
	}
	logger.Info("simulation finished", zap.Int("episodes", len(reports)))
	return nil
}
