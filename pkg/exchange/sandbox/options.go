package sandbox

import (
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/peter-kozarec/merchant/pkg/clock"
	"github.com/peter-kozarec/merchant/pkg/common"
	"github.com/peter-kozarec/merchant/pkg/exchange"
	"github.com/peter-kozarec/merchant/pkg/utility/fixed"
)

type Option func(*Broker)

// SlippageHandler adjusts the quote an order fills at.
type SlippageHandler func(order common.Order, quote fixed.Point, candle common.Candle) fixed.Point

// FeeHandler returns the fee of an order, in the sell-side instrument.
type FeeHandler func(order common.Order, rate fixed.Point) common.Asset

func WithClock(c clock.Clock) Option {
	return func(b *Broker) {
		b.clock = c
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(b *Broker) {
		b.logger = logger
	}
}

func WithSlippageHandler(slippageHandler SlippageHandler) Option {
	return func(b *Broker) {
		b.slippageHandler = slippageHandler
	}
}

// WithRandomSlippage moves every fill by up to ratio in either direction,
// drawn from the broker's own seeded source.
func WithRandomSlippage(ratio fixed.Point) Option {
	return func(b *Broker) {
		b.slippageRatio = ratio
	}
}

func WithFeeHandler(feeHandler FeeHandler) Option {
	return func(b *Broker) {
		b.feeHandler = feeHandler
	}
}

func WithQuoteInstrument(instrument common.Instrument) Option {
	return func(b *Broker) {
		b.quoteInstrument = instrument
	}
}

// WithInstrumentPrecision sets the precision of instruments created from dataset tickers.
func WithInstrumentPrecision(precision int) Option {
	return func(b *Broker) {
		b.instrumentPrecision = precision
	}
}

// WithInstruments overrides instruments created from dataset tickers by symbol.
func WithInstruments(instruments ...common.Instrument) Option {
	return func(b *Broker) {
		for _, instrument := range instruments {
			b.predefined[instrument.Symbol] = instrument
		}
	}
}

func WithResolution(resolution time.Duration) Option {
	return func(b *Broker) {
		b.resolution = resolution
	}
}

func WithWindowSize(size int) Option {
	return func(b *Broker) {
		b.windowSize = size
	}
}

func WithQuotePrecision(precision int) Option {
	return func(b *Broker) {
		b.quotePrecision = precision
	}
}

func WithSeed(seed int64) Option {
	return func(b *Broker) {
		b.seed = seed
	}
}

func WithRecorder(recorder exchange.Recorder) Option {
	return func(b *Broker) {
		b.recorder = recorder
	}
}

// NoSlippage fills at the quote.
func NoSlippage(_ common.Order, quote fixed.Point, _ common.Candle) fixed.Point {
	return quote
}

// FixedSlippage always fills ratio worse than the quote.
func FixedSlippage(ratio fixed.Point) SlippageHandler {
	factor := fixed.One.Add(ratio)
	return func(_ common.Order, quote fixed.Point, _ common.Candle) fixed.Point {
		return quote.Mul(factor)
	}
}

// RandomSlippage fills within ratio of the quote, uniformly in both directions.
func RandomSlippage(ratio fixed.Point, rng *rand.Rand) SlippageHandler {
	return func(_ common.Order, quote fixed.Point, _ common.Candle) fixed.Point {
		u := fixed.FromFloat64(rng.Float64()*2 - 1)
		return quote.Mul(fixed.One.Add(ratio.Mul(u)))
	}
}

// NoFees charges nothing, in the sell-side instrument.
func NoFees(order common.Order, _ fixed.Point) common.Asset {
	return common.NewAsset(order.Pair.Sell, fixed.Zero)
}

// ProportionalFee charges rate of the sold amount.
func ProportionalFee(rate fixed.Point) FeeHandler {
	return func(order common.Order, quote fixed.Point) common.Asset {
		return common.NewAsset(order.Pair.Sell, order.Quantity.Mul(quote).Mul(rate))
	}
}

// FlatFee charges a fixed amount of the sell-side instrument per order.
func FlatFee(amount fixed.Point) FeeHandler {
	return func(order common.Order, _ fixed.Point) common.Asset {
		return common.NewAsset(order.Pair.Sell, amount)
	}
}
