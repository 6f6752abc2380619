package simulation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/peter-kozarec/merchant/pkg/clock"
	"github.com/peter-kozarec/merchant/pkg/common"
	"github.com/peter-kozarec/merchant/pkg/exchange"
	"github.com/peter-kozarec/merchant/pkg/exchange/sandbox"
	"github.com/peter-kozarec/merchant/pkg/indicators"
	"github.com/peter-kozarec/merchant/pkg/middleware"
	"github.com/peter-kozarec/merchant/pkg/utility/fixed"
)

const (
	StrategyNoop          = "noop"
	StrategyBuyAndHold    = "buy_and_hold"
	StrategyMomentum      = "momentum"
	StrategyMeanReversion = "mean_reversion"
)

const (
	openFeature = iota
	highFeature
	lowFeature
	closeFeature
)

var (
	investFraction = fixed.MustParse("0.99")
	sellFraction   = fixed.MustParse("0.99")
)

// Environment is what a strategy sees on every step.
type Environment struct {
	Logger   *zap.Logger
	Clock    clock.Clock
	Broker   *sandbox.Broker
	Observer *sandbox.Observer
	Execute  exchange.ExecuteFunc
	Observe  middleware.ObserveFunc
}

type Strategy interface {
	Name() string
	Reset()
	OnStep(ctx context.Context, env *Environment) error
}

func NewStrategy(name, symbol string) (Strategy, error) {
	switch name {
	case "", StrategyNoop:
		return Noop{}, nil
	case StrategyBuyAndHold:
		if symbol == "" {
			return nil, fmt.Errorf("%w: %s needs a symbol", ErrInvalidConfiguration, name)
		}
		return &BuyAndHold{Symbol: symbol}, nil
	case StrategyMomentum:
		if symbol == "" {
			return nil, fmt.Errorf("%w: %s needs a symbol", ErrInvalidConfiguration, name)
		}
		return &Momentum{Symbol: symbol, Lookback: 20}, nil
	case StrategyMeanReversion:
		if symbol == "" {
			return nil, fmt.Errorf("%w: %s needs a symbol", ErrInvalidConfiguration, name)
		}
		return NewMeanReversion(symbol), nil
	}
	return nil, fmt.Errorf("%w: unknown strategy %q", ErrInvalidConfiguration, name)
}

// rejected reports whether err is an order rejection a strategy can retry later.
func rejected(err error) bool {
	return errors.Is(err, exchange.ErrInsufficientAssets) || errors.Is(err, exchange.ErrOrderAfterValuation)
}

type Noop struct{}

func (Noop) Name() string                               { return StrategyNoop }
func (Noop) Reset()                                     {}
func (Noop) OnStep(context.Context, *Environment) error { return nil }

// BuyAndHold invests almost all cash into Symbol on the first step it can.
type BuyAndHold struct {
	Symbol string

	invested bool
}

func (s *BuyAndHold) Name() string { return StrategyBuyAndHold }
func (s *BuyAndHold) Reset()       { s.invested = false }

func (s *BuyAndHold) OnStep(ctx context.Context, env *Environment) error {
	if s.invested {
		return nil
	}

	invested, err := buyWithCash(ctx, env, s.Symbol, investFraction)
	switch {
	case err == nil:
		s.invested = invested
		return nil
	case rejected(err):
		env.Logger.Debug("buy and hold order rejected", zap.Error(err))
		return nil
	}
	return err
}

// Momentum holds Symbol while its last close is above the mean close of the
// lookback window and holds cash otherwise.
type Momentum struct {
	Symbol   string
	Lookback int

	long bool
}

func (s *Momentum) Name() string { return StrategyMomentum }
func (s *Momentum) Reset()       { s.long = false }

func (s *Momentum) OnStep(ctx context.Context, env *Environment) error {
	series, err := observedSeries(ctx, env, s.Symbol)
	if err != nil {
		return err
	}

	closes := series[closeFeature]
	if len(closes) < s.Lookback {
		return nil
	}
	closes = closes[len(closes)-s.Lookback:]
	if closes[0] == 0 {
		return nil
	}

	var sum float64
	for _, c := range closes {
		sum += c
	}
	mean := sum / float64(len(closes))
	last := closes[len(closes)-1]

	switch {
	case last > mean && !s.long:
		s.long, err = buyWithCash(ctx, env, s.Symbol, investFraction)
	case last < mean && s.long:
		var sold bool
		sold, err = sellHolding(ctx, env, s.Symbol)
		s.long = !sold
	}
	if err != nil && rejected(err) {
		env.Logger.Debug("momentum order rejected", zap.Error(err))
		return nil
	}
	return err
}

// MeanReversion buys Symbol once its close falls Threshold standard deviations
// below the window mean. It sells when the close reverts to the mean or drops
// StopATR average true ranges below the entry.
type MeanReversion struct {
	Symbol    string
	Window    int
	Threshold fixed.Point
	StopATR   fixed.Point

	zscore  *indicators.ZScore
	atr     *indicators.Atr
	lastBar time.Time
	entry   fixed.Point
	long    bool
}

func NewMeanReversion(symbol string) *MeanReversion {
	s := &MeanReversion{
		Symbol:    symbol,
		Window:    30,
		Threshold: fixed.FromInt(2, 0),
		StopATR:   fixed.FromInt(3, 0),
	}
	s.Reset()
	return s
}

func (s *MeanReversion) Name() string { return StrategyMeanReversion }

func (s *MeanReversion) Reset() {
	s.zscore = indicators.NewZScore(s.Window)
	s.atr = indicators.NewAtr(s.Window)
	s.lastBar = time.Time{}
	s.entry = fixed.Zero
	s.long = false
}

func (s *MeanReversion) OnStep(ctx context.Context, env *Environment) error {
	// Indicators advance once per candle, not once per step.
	bar := env.Clock.Time().Truncate(env.Broker.Resolution())
	if bar.Equal(s.lastBar) {
		return nil
	}

	candle, ok, err := latestCandle(ctx, env, s.Symbol)
	if err != nil || !ok {
		return err
	}
	s.lastBar = bar
	s.zscore.AddPoint(candle.Close)
	s.atr.OnCandle(candle)

	z, err := s.zscore.Value()
	if errors.Is(err, indicators.ErrNotReady) {
		return nil
	}

	switch {
	case !s.long && z.Lte(s.Threshold.Neg()):
		s.long, err = buyWithCash(ctx, env, s.Symbol, investFraction)
		if s.long {
			s.entry = candle.Close
		}
	case s.long && (candle.Close.Gte(s.zscore.Mean()) || s.stopped(candle.Close)):
		var sold bool
		sold, err = sellHolding(ctx, env, s.Symbol)
		s.long = !sold
	}
	if err != nil && rejected(err) {
		env.Logger.Debug("mean reversion order rejected", zap.Error(err))
		return nil
	}
	return err
}

func (s *MeanReversion) stopped(price fixed.Point) bool {
	if !s.atr.Ready() || !s.entry.IsPos() {
		return false
	}
	return price.Lt(s.entry.Sub(s.atr.AverageTrueRange().Mul(s.StopATR)))
}

// observedSeries returns the observer features of symbol, each oldest first.
func observedSeries(ctx context.Context, env *Environment, symbol string) ([][]float64, error) {
	observation, err := env.Observer.GetObservation(ctx)
	if err != nil {
		return nil, err
	}

	for row, ticker := range env.Observer.Tickers() {
		if ticker != symbol {
			continue
		}
		series := make([][]float64, len(observation))
		for feature := range observation {
			series[feature] = observation[feature][row]
		}
		return series, nil
	}
	return nil, fmt.Errorf("%w: %s", exchange.ErrUnknownInstrument, symbol)
}

// latestCandle rebuilds the newest completed candle of symbol. It reports false
// while no candle has completed yet.
func latestCandle(ctx context.Context, env *Environment, symbol string) (common.Candle, bool, error) {
	series, err := observedSeries(ctx, env, symbol)
	if err != nil {
		return common.Candle{}, false, err
	}
	last := len(series[closeFeature]) - 1
	if last < 0 || series[closeFeature][last] == 0 {
		return common.Candle{}, false, nil
	}
	return common.Candle{
		Symbol: symbol,
		Open:   fixed.FromFloat64(series[openFeature][last]),
		High:   fixed.FromFloat64(series[highFeature][last]),
		Low:    fixed.FromFloat64(series[lowFeature][last]),
		Close:  fixed.FromFloat64(series[closeFeature][last]),
	}, true, nil
}

// buyWithCash spends fraction of the cash balance on symbol. It reports
// whether an order was executed.
func buyWithCash(ctx context.Context, env *Environment, symbol string, fraction fixed.Point) (bool, error) {
	instrument, ok := env.Broker.Instrument(symbol)
	if !ok {
		return false, fmt.Errorf("%w: %s", exchange.ErrUnknownInstrument, symbol)
	}
	quoteInstrument := env.Broker.QuoteInstrument()

	price, err := env.Broker.Quote(ctx, symbol)
	if err != nil {
		return false, err
	}
	cash := env.Broker.Portfolio().Balance(quoteInstrument).Quantity()
	quantity := cash.Mul(fraction).Div(price).Trunc(instrument.Precision)
	if !quantity.IsPos() {
		return false, nil
	}

	return execute(ctx, env, instrument, quoteInstrument, quantity)
}

// sellHolding sells the holding of symbol for the quote instrument. The order
// quantity is in quote units, slightly below the holding's value so rounding
// of the reversed quote cannot overdraw it.
func sellHolding(ctx context.Context, env *Environment, symbol string) (bool, error) {
	instrument, ok := env.Broker.Instrument(symbol)
	if !ok {
		return false, fmt.Errorf("%w: %s", exchange.ErrUnknownInstrument, symbol)
	}
	quoteInstrument := env.Broker.QuoteInstrument()

	price, err := env.Broker.Quote(ctx, symbol)
	if err != nil {
		return false, err
	}
	holding := env.Broker.Portfolio().Balance(instrument).Quantity()
	quantity := holding.Mul(price).Mul(sellFraction).Trunc(quoteInstrument.Precision)
	if !quantity.IsPos() {
		return false, nil
	}

	return execute(ctx, env, quoteInstrument, instrument, quantity)
}

func execute(ctx context.Context, env *Environment, buy, sell common.Instrument, quantity fixed.Point) (bool, error) {
	pair, err := common.NewTradingPair(buy, sell)
	if err != nil {
		return false, err
	}
	order, err := common.NewOrder(pair, quantity, env.Clock.Time())
	if err != nil {
		return false, err
	}
	if _, err := env.Execute(ctx, order); err != nil {
		return false, err
	}
	return true, nil
}
