package sandbox

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/peter-kozarec/merchant/pkg/clock"
	"github.com/peter-kozarec/merchant/pkg/common"
	"github.com/peter-kozarec/merchant/pkg/datasource"
	"github.com/peter-kozarec/merchant/pkg/exchange"
	"github.com/peter-kozarec/merchant/pkg/market"
	"github.com/peter-kozarec/merchant/pkg/portfolio"
	"github.com/peter-kozarec/merchant/pkg/quote"
	"github.com/peter-kozarec/merchant/pkg/utility"
	"github.com/peter-kozarec/merchant/pkg/utility/fixed"
)

const (
	componentName = "exchange.sandbox"

	DefaultInstrumentPrecision = 4
	DefaultResolution          = time.Minute
)

type attacher interface {
	Attach(fn clock.HookFunc, trigger clock.Trigger) clock.HookID
	Detach(id clock.HookID) bool
}

// Broker fills orders against historical candles and keeps the portfolio of
// a single run. It is not safe for concurrent use.
type Broker struct {
	logger   *zap.Logger
	clock    clock.Clock
	dataset  datasource.Dataset
	recorder exchange.Recorder

	slippageHandler SlippageHandler
	slippageRatio   fixed.Point
	feeHandler      FeeHandler

	quoteInstrument     common.Instrument
	instrumentPrecision int
	predefined          map[string]common.Instrument
	instruments         []common.Instrument
	bySymbol            map[string]common.Instrument

	resolution     time.Duration
	windowSize     int
	quotePrecision int
	seed           int64

	rng       *rand.Rand
	resolver  *quote.Resolver
	market    *market.Market
	portfolio *portfolio.Portfolio
	sequence  utility.Sequence

	locked      bool
	lockedUntil time.Time

	hook     clock.HookID
	attached attacher
}

func NewBroker(ctx context.Context, dataset datasource.Dataset, assets []common.Asset, options ...Option) (*Broker, error) {
	b := &Broker{
		logger:              zap.NewNop(),
		dataset:             dataset,
		slippageHandler:     NoSlippage,
		feeHandler:          NoFees,
		quoteInstrument:     common.USD,
		instrumentPrecision: DefaultInstrumentPrecision,
		predefined:          make(map[string]common.Instrument),
		bySymbol:            make(map[string]common.Instrument),
		resolution:          DefaultResolution,
		windowSize:          quote.DefaultWindowSize,
		quotePrecision:      quote.DefaultPrecision,
	}

	for _, option := range options {
		option(b)
	}

	if b.clock == nil {
		b.clock = clock.FromContext(ctx, b.logger)
	}
	if b.resolution <= 0 {
		return nil, fmt.Errorf("resolution must be positive, got %s", b.resolution)
	}

	if err := b.loadInstruments(ctx); err != nil {
		return nil, err
	}

	for _, asset := range assets {
		known, ok := b.bySymbol[asset.Instrument().Symbol]
		if !ok || !known.Equal(asset.Instrument()) {
			return nil, fmt.Errorf("%w: initial asset %s", exchange.ErrUnknownInstrument, asset)
		}
	}

	var err error
	b.market, err = market.NewQuoted(b.quoteInstrument, b.instruments...)
	if err != nil {
		return nil, fmt.Errorf("unable to build market: %w", err)
	}

	b.portfolio, err = portfolio.New(b.quoteInstrument, assets...)
	if err != nil {
		return nil, fmt.Errorf("unable to build portfolio: %w", err)
	}
	for _, instrument := range b.instruments {
		b.portfolio.Track(instrument)
	}

	b.rng = rand.New(rand.NewSource(b.seed))
	b.resolver = quote.NewResolver(
		quote.NewWindow(dataset, b.resolution, b.windowSize),
		b.rng,
		quote.WithPrecision(b.quotePrecision))

	if !b.slippageRatio.IsZero() {
		b.slippageHandler = RandomSlippage(b.slippageRatio, b.rng)
	}

	if a, ok := b.clock.(attacher); ok {
		b.attached = a
		b.hook = a.Attach(func(time.Time) {
			b.portfolio.Invalidate()
		}, clock.EveryTick())
	}

	b.logger.Debug("broker ready",
		zap.String("component", componentName),
		zap.Stringer("quote", b.quoteInstrument),
		zap.Int("instruments", len(b.instruments)),
		zap.Duration("resolution", b.resolution),
		zap.Int64("seed", b.seed))

	return b, nil
}

func (b *Broker) loadInstruments(ctx context.Context) error {
	tickers, err := b.dataset.Tickers(ctx)
	if err != nil {
		return fmt.Errorf("unable to list tickers: %w", err)
	}
	if len(tickers) == 0 {
		return datasource.ErrEmptyDataset
	}

	b.bySymbol[b.quoteInstrument.Symbol] = b.quoteInstrument
	for _, ticker := range tickers {
		if ticker == b.quoteInstrument.Symbol {
			continue
		}
		instrument, ok := b.predefined[ticker]
		if !ok {
			instrument, err = common.NewInstrument(ticker, b.instrumentPrecision, ticker)
			if err != nil {
				return err
			}
		}
		b.instruments = append(b.instruments, instrument)
		b.bySymbol[ticker] = instrument
	}
	sort.Slice(b.instruments, func(i, j int) bool {
		return b.instruments[i].Symbol < b.instruments[j].Symbol
	})
	return nil
}

// Close detaches the broker from its clock.
func (b *Broker) Close() {
	if b.attached != nil {
		b.attached.Detach(b.hook)
		b.attached = nil
	}
}

func (b *Broker) Clock() clock.Clock                 { return b.clock }
func (b *Broker) Resolution() time.Duration          { return b.resolution }
func (b *Broker) Market() *market.Market             { return b.market }
func (b *Broker) Portfolio() *portfolio.Portfolio    { return b.portfolio }
func (b *Broker) QuoteInstrument() common.Instrument { return b.quoteInstrument }
func (b *Broker) Pairs() []common.TradingPair        { return b.market.Pairs() }
func (b *Broker) Locked() bool                       { return b.locked }
func (b *Broker) LockedUntil() time.Time             { return b.lockedUntil }

// Instruments returns every instrument the broker values, the quote instrument included.
func (b *Broker) Instruments() []common.Instrument {
	return b.portfolio.Instruments()
}

// Instrument looks up an instrument by symbol.
func (b *Broker) Instrument(symbol string) (common.Instrument, bool) {
	instrument, ok := b.bySymbol[symbol]
	return instrument, ok
}

// Quote returns the current price of one unit of symbol in the quote instrument.
func (b *Broker) Quote(ctx context.Context, symbol string) (fixed.Point, error) {
	if symbol == b.quoteInstrument.Symbol {
		return fixed.One, nil
	}
	if _, ok := b.bySymbol[symbol]; !ok {
		return fixed.Zero, fmt.Errorf("%w: %s", exchange.ErrUnknownInstrument, symbol)
	}
	return b.resolver.Quote(ctx, symbol, b.clock.Time())
}

// ExecuteOrder fills order at the current clock time. Either every balance
// change of the order is applied or none is.
func (b *Broker) ExecuteOrder(ctx context.Context, order common.Order) (common.OrderExecution, error) {
	now := b.clock.Time()

	if b.locked {
		if now.Before(b.lockedUntil) {
			return common.OrderExecution{}, fmt.Errorf("%w: valued at candle ending %s, now %s",
				exchange.ErrOrderAfterValuation, b.lockedUntil.Format(time.RFC3339), now.Format(time.RFC3339))
		}
		b.locked = false
	}

	if !b.market.Contains(order.Pair) {
		return common.OrderExecution{}, fmt.Errorf("%w: %s", exchange.ErrUnsupportedPair, order.Pair)
	}

	rate, candle, err := b.rate(ctx, order.Pair, now)
	if err != nil {
		return common.OrderExecution{}, err
	}

	adjusted := b.slippageHandler(order, rate, candle)
	fees := b.feeHandler(order, adjusted)

	bought := common.NewAsset(order.Pair.Buy, order.Quantity)
	sold := common.NewAsset(order.Pair.Sell, order.Quantity.Mul(adjusted))

	if err := b.checkFunds(sold, fees); err != nil {
		return common.OrderExecution{}, err
	}

	if err := b.portfolio.DecreaseHoldings(sold); err != nil {
		return common.OrderExecution{}, err
	}
	if !fees.IsZero() {
		if err := b.portfolio.DecreaseHoldings(fees); err != nil {
			_ = b.portfolio.IncreaseHoldings(sold)
			return common.OrderExecution{}, err
		}
	}
	if err := b.portfolio.IncreaseHoldings(bought); err != nil {
		return common.OrderExecution{}, err
	}

	trade := common.Trade{
		TraceID:   b.sequence.Next(),
		OrderID:   order.ID,
		Pair:      order.Pair,
		Bought:    bought,
		Sold:      sold,
		Fees:      fees,
		TimeStamp: now,
	}
	closed := b.portfolio.RecordTrade(trade)

	b.logger.Debug("order executed", append(trade.Fields(), zap.String("component", componentName))...)
	b.record(ctx, trade, closed)

	return common.OrderExecution{
		Order:     order,
		TimeStamp: now,
		Rate:      adjusted,
		Fees:      fees,
	}, nil
}

// rate returns the price of one unit of pair.Buy in pair.Sell.
func (b *Broker) rate(ctx context.Context, pair common.TradingPair, now time.Time) (fixed.Point, common.Candle, error) {
	if pair.Sell.Equal(b.quoteInstrument) {
		rate, err := b.resolver.Quote(ctx, pair.Buy.Symbol, now)
		if err != nil {
			return fixed.Zero, common.Candle{}, err
		}
		candle, err := b.resolver.Candle(ctx, pair.Buy.Symbol, now)
		return rate, candle, err
	}

	rate, err := b.resolver.ReversedQuote(ctx, pair.Sell.Symbol, now)
	if err != nil {
		return fixed.Zero, common.Candle{}, err
	}
	candle, err := b.resolver.ReversedCandle(ctx, pair.Sell.Symbol, now)
	return rate, candle, err
}

func (b *Broker) checkFunds(debits ...common.Asset) error {
	required := make(map[common.InstrumentID]common.Asset)
	for _, debit := range debits {
		id := debit.Instrument().ID()
		if sum, ok := required[id]; ok {
			total, err := sum.Add(debit)
			if err != nil {
				return err
			}
			required[id] = total
			continue
		}
		required[id] = debit
	}

	for _, need := range required {
		have := b.portfolio.Balance(need.Instrument())
		if have.Quantity().Lt(need.Quantity()) {
			return fmt.Errorf("%w: need %s, have %s", exchange.ErrInsufficientAssets, need, have)
		}
	}
	return nil
}

func (b *Broker) record(ctx context.Context, trade common.Trade, closed []common.ClosedPosition) {
	if b.recorder == nil {
		return
	}
	if err := b.recorder.RecordTrade(ctx, trade); err != nil {
		b.logger.Warn("unable to record trade", zap.String("component", componentName), zap.Error(err))
	}
	for _, position := range closed {
		if err := b.recorder.RecordClosedPosition(ctx, position); err != nil {
			b.logger.Warn("unable to record closed position", zap.String("component", componentName), zap.Error(err))
		}
	}
}

// Value returns the portfolio value in the quote instrument at the current
// clock time. The value is cached until the clock ticks or a trade happens.
func (b *Broker) Value(ctx context.Context) (common.Asset, error) {
	if value, ok := b.portfolio.Value(); ok {
		return value, nil
	}

	now := b.clock.Time()
	total := fixed.Zero
	for _, balance := range b.portfolio.Balances() {
		if balance.IsZero() {
			continue
		}
		instrument := balance.Instrument()
		if instrument.Equal(b.quoteInstrument) {
			total = total.Add(balance.Quantity())
			continue
		}
		rate, err := b.resolver.Quote(ctx, instrument.Symbol, now)
		if err != nil {
			return common.Asset{}, fmt.Errorf("unable to value %s: %w", instrument.Symbol, err)
		}
		total = total.Add(balance.Quantity().Mul(rate))
	}

	value := common.NewAsset(b.quoteInstrument, total)
	b.portfolio.SetValue(now, value)

	if b.recorder != nil {
		if err := b.recorder.RecordValuation(ctx, now, value); err != nil {
			b.logger.Warn("unable to record valuation", zap.String("component", componentName), zap.Error(err))
		}
	}
	return value, nil
}

// ObservationShape is one row per instrument with a single column.
func (b *Broker) ObservationShape() [2]int {
	return [2]int{len(b.portfolio.Instruments()), 1}
}

// GetObservation values the portfolio and returns the holdings of every
// instrument. Orders are rejected until the current candle has ended.
func (b *Broker) GetObservation(ctx context.Context) (exchange.Observation, error) {
	if _, err := b.Value(ctx); err != nil {
		return nil, err
	}

	now := b.clock.Time()
	b.locked = true
	b.lockedUntil = clock.AlignUp(now, b.resolution)

	instruments := b.portfolio.Instruments()
	observation := make(exchange.Observation, len(instruments))
	for i, instrument := range instruments {
		quantity, _ := b.portfolio.Balance(instrument).Quantity().Float64()
		observation[i] = []float64{quantity}
	}
	return observation, nil
}

// Skip returns the time from now until the next candle starts.
func (b *Broker) Skip(ctx context.Context) (time.Duration, error) {
	now := b.clock.Time()
	next, ok, err := b.resolver.Window().Next(ctx, now)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: after %s", exchange.ErrEndOfData, now.Format(time.RFC3339))
	}
	return next.Sub(now), nil
}

// Reset restores the initial balances and replays the same random draws.
func (b *Broker) Reset() error {
	if err := b.portfolio.Reset(); err != nil {
		return err
	}
	b.resolver.Reset(b.seed)
	b.sequence.Reset()
	b.locked = false
	b.lockedUntil = time.Time{}
	return nil
}
