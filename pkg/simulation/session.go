package simulation

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/peter-kozarec/merchant/pkg/clock"
	"github.com/peter-kozarec/merchant/pkg/common"
	"github.com/peter-kozarec/merchant/pkg/datasource"
	"github.com/peter-kozarec/merchant/pkg/exchange"
	"github.com/peter-kozarec/merchant/pkg/exchange/sandbox"
	"github.com/peter-kozarec/merchant/pkg/middleware"
)

const sessionComponentName = "simulation.session"

var knownInstruments = []common.Instrument{common.USD, common.EUR, common.GBP, common.CHF, common.BTC, common.ETH}

type SessionOption func(*Session)

// EpisodeMarker is implemented by recorders that keep episodes apart.
type EpisodeMarker interface {
	MarkEpisode(episode int)
}

func WithRecorder(recorder exchange.Recorder) SessionOption {
	return func(s *Session) {
		s.recorder = recorder
	}
}

func WithMonitorFlags(flags middleware.MonitorFlags) SessionOption {
	return func(s *Session) {
		s.monitorFlags = flags
	}
}

func WithMetrics(metrics *middleware.Metrics) SessionOption {
	return func(s *Session) {
		s.metrics = metrics
	}
}

// Session runs a strategy against a dataset for a number of episodes. Every
// episode starts from the same balances and replays the same random draws.
type Session struct {
	logger   *zap.Logger
	cfg      Configuration
	parsed   Parsed
	dataset  datasource.Dataset
	strategy Strategy

	recorder     exchange.Recorder
	monitorFlags middleware.MonitorFlags
	metrics      *middleware.Metrics

	telemetry   *middleware.Telemetry
	performance *middleware.Performance
}

func NewSession(logger *zap.Logger, cfg Configuration, dataset datasource.Dataset, strategy Strategy, options ...SessionOption) (*Session, error) {
	parsed, err := cfg.Parse()
	if err != nil {
		return nil, err
	}

	s := &Session{
		logger:       logger,
		cfg:          cfg,
		parsed:       parsed,
		dataset:      dataset,
		strategy:     strategy,
		monitorFlags: middleware.MonitorNone,
		telemetry:    middleware.NewTelemetry(logger),
		performance:  middleware.NewPerformance(logger),
	}
	for _, option := range options {
		option(s)
	}
	return s, nil
}

func (s *Session) Telemetry() *middleware.Telemetry { return s.telemetry }

// QuoteInstrument resolves a currency symbol to one of the predefined
// instruments, or a two-digit instrument otherwise.
func QuoteInstrument(symbol string) (common.Instrument, error) {
	for _, instrument := range knownInstruments {
		if instrument.Symbol == symbol {
			return instrument, nil
		}
	}
	return common.NewInstrument(symbol, 2, symbol)
}

func (s *Session) brokerOptions(quoteInstrument common.Instrument) []sandbox.Option {
	options := []sandbox.Option{
		sandbox.WithLogger(s.logger),
		sandbox.WithQuoteInstrument(quoteInstrument),
		sandbox.WithInstrumentPrecision(s.cfg.InstrumentPrecision),
		sandbox.WithResolution(s.cfg.Resolution),
		sandbox.WithWindowSize(s.cfg.WindowSize),
		sandbox.WithQuotePrecision(s.cfg.QuotePrecision),
		sandbox.WithSeed(s.cfg.Seed),
	}
	if s.parsed.Slippage.IsPos() {
		options = append(options, sandbox.WithRandomSlippage(s.parsed.Slippage))
	}
	if s.parsed.FeeRate.IsPos() {
		options = append(options, sandbox.WithFeeHandler(sandbox.ProportionalFee(s.parsed.FeeRate)))
	}
	if s.recorder != nil {
		options = append(options, sandbox.WithRecorder(s.recorder))
	}
	return options
}

// Run executes every episode and returns one report per episode. The
// session's virtual clock is the active clock of ctx while it runs.
func (s *Session) Run(ctx context.Context) ([]Report, error) {
	c := clock.NewVirtual(s.parsed.Start, s.cfg.StepIncrement)
	ctx, scope, err := clock.Enter(ctx, c)
	if err != nil {
		return nil, err
	}
	defer scope.Exit()

	quoteInstrument, err := QuoteInstrument(s.cfg.Quote)
	if err != nil {
		return nil, err
	}
	initial := []common.Asset{common.NewAsset(quoteInstrument, s.parsed.InitialCash)}

	broker, err := sandbox.NewBroker(ctx, s.dataset, initial, s.brokerOptions(quoteInstrument)...)
	if err != nil {
		return nil, fmt.Errorf("unable to create broker: %w", err)
	}
	defer broker.Close()

	observer, err := sandbox.NewObserver(ctx, s.dataset, c, s.cfg.Resolution, s.cfg.ObserverWindow)
	if err != nil {
		return nil, fmt.Errorf("unable to create observer: %w", err)
	}

	monitor := middleware.NewMonitor(s.logger, s.monitorFlags)
	executeMiddleware := []func(exchange.ExecuteFunc) exchange.ExecuteFunc{
		monitor.WithExecute,
		s.telemetry.WithExecute,
		s.performance.WithExecute,
	}
	observeMiddleware := []func(middleware.ObserveFunc) middleware.ObserveFunc{
		monitor.WithObserve,
		s.telemetry.WithObserve,
		s.performance.WithObserve,
	}
	if s.metrics != nil {
		executeMiddleware = append(executeMiddleware, s.metrics.WithExecute)
		observeMiddleware = append(observeMiddleware, s.metrics.WithObserve)
	}

	env := &Environment{
		Logger:   s.logger,
		Clock:    c,
		Broker:   broker,
		Observer: observer,
		Execute:  middleware.Chain(executeMiddleware...)(broker.ExecuteOrder),
		Observe:  middleware.Chain(observeMiddleware...)(broker.GetObservation),
	}

	s.logger.Info("simulation started",
		zap.String("component", sessionComponentName),
		zap.String("name", s.cfg.Name),
		zap.String("strategy", s.strategy.Name()),
		zap.Time("start", s.parsed.Start),
		zap.Time("end", s.parsed.End),
		zap.Int("episodes", s.cfg.Episodes),
		zap.Int64("seed", s.cfg.Seed))

	reports := make([]Report, 0, s.cfg.Episodes)
	for episode := 0; episode < s.cfg.Episodes; episode++ {
		if episode > 0 {
			if err := c.Reset(); err != nil {
				return reports, err
			}
			if err := broker.Reset(); err != nil {
				return reports, err
			}
		}
		s.strategy.Reset()
		if marker, ok := s.recorder.(EpisodeMarker); ok {
			marker.MarkEpisode(episode)
		}

		if err := s.runEpisode(ctx, c, env); err != nil {
			return reports, fmt.Errorf("episode %d: %w", episode, err)
		}

		report := GenerateReport(broker.Portfolio())
		report.Episode = episode
		report.Print(s.logger)
		reports = append(reports, report)
	}

	s.telemetry.PrintStatistics()
	s.performance.PrintStatistics(s.telemetry)
	return reports, nil
}

func (s *Session) runEpisode(ctx context.Context, c *clock.Virtual, env *Environment) error {
	for !c.Time().After(s.parsed.End) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.strategy.OnStep(ctx, env); err != nil {
			return fmt.Errorf("strategy %s at %s: %w", s.strategy.Name(), c.Time(), err)
		}
		if _, err := env.Observe(ctx); err != nil {
			return fmt.Errorf("observation at %s: %w", c.Time(), err)
		}
		if err := c.Step(); err != nil {
			return err
		}
	}
	return nil
}
