package quote

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/peter-kozarec/merchant/pkg/common"
	"github.com/peter-kozarec/merchant/pkg/utility/fixed"
)

const DefaultPrecision = 8

type Option func(*Resolver)

// WithPrecision sets the number of fractional digits quotes are rounded to.
func WithPrecision(precision int) Option {
	return func(r *Resolver) {
		r.precision = precision
	}
}

// Resolver turns candles into a single price per symbol and instant. Prices
// inside a candle are interpolated with a triangular kernel: the open
// dominates at the start of the period, a random draw between low and high
// in the middle and the close at the end.
type Resolver struct {
	window    *Window
	rng       *rand.Rand
	precision int

	memoTime time.Time
	memo     map[string]fixed.Point
}

func NewResolver(window *Window, rng *rand.Rand, options ...Option) *Resolver {
	r := &Resolver{
		window:    window,
		rng:       rng,
		precision: DefaultPrecision,
		memo:      make(map[string]fixed.Point),
	}
	for _, option := range options {
		option(r)
	}
	return r
}

func (r *Resolver) Window() *Window { return r.window }

// Reset drops every cache and reseeds the random source.
func (r *Resolver) Reset(seed int64) {
	r.window.Reset()
	r.rng.Seed(seed)
	r.memoTime = time.Time{}
	clear(r.memo)
}

// Candle returns the candle of symbol that covers ts.
func (r *Resolver) Candle(ctx context.Context, symbol string, ts time.Time) (common.Candle, error) {
	return r.window.Candle(ctx, symbol, ts)
}

// ReversedCandle returns the covering candle in inverted units.
func (r *Resolver) ReversedCandle(ctx context.Context, symbol string, ts time.Time) (common.Candle, error) {
	candle, err := r.window.Candle(ctx, symbol, ts)
	if err != nil {
		return common.Candle{}, err
	}
	return candle.Reversed(), nil
}

// Quote returns the price of one unit of symbol at ts. Repeated calls for the
// same ts return the same value.
func (r *Resolver) Quote(ctx context.Context, symbol string, ts time.Time) (fixed.Point, error) {
	if !ts.Equal(r.memoTime) {
		clear(r.memo)
		r.memoTime = ts
	}
	if price, ok := r.memo[symbol]; ok {
		return price, nil
	}

	candle, err := r.window.Candle(ctx, symbol, ts)
	if err != nil {
		return fixed.Zero, err
	}

	price := r.interpolate(candle, ts)
	if !price.IsPos() {
		return fixed.Zero, fmt.Errorf("%w: non-positive price %s for %s at %s", ErrNoCandle, price, symbol, ts)
	}

	r.memo[symbol] = price
	return price, nil
}

// ReversedQuote returns the price of one unit of the quote currency in symbol.
func (r *Resolver) ReversedQuote(ctx context.Context, symbol string, ts time.Time) (fixed.Point, error) {
	price, err := r.Quote(ctx, symbol, ts)
	if err != nil {
		return fixed.Zero, err
	}
	return price.Inv().Round(r.precision), nil
}

func (r *Resolver) interpolate(candle common.Candle, ts time.Time) fixed.Point {
	rel := fixed.FromInt64(int64(ts.Sub(candle.TimeStamp)), 0).DivInt64(int64(r.window.Period()))
	rel = rel.Max(fixed.Zero).Min(fixed.One)

	hOpen, hClose, hMid := Weights(rel)

	price := hOpen.Mul(candle.Open).Add(hClose.Mul(candle.Close))
	if !hMid.IsZero() {
		u := fixed.FromFloat64(r.rng.Float64())
		uniform := candle.Low.Add(candle.High.Sub(candle.Low).Mul(u))
		price = price.Add(hMid.Mul(uniform))
	}

	return price.Div(hOpen.Add(hClose).Add(hMid)).Round(r.precision)
}

// Weights returns the open, close and mid kernel weights for a relative
// position rel in [0, 1] inside a candle.
func Weights(rel fixed.Point) (hOpen, hClose, hMid fixed.Point) {
	hOpen = fixed.One.Sub(rel.MulInt(2)).Max(fixed.Zero)
	hClose = rel.MulInt(2).Sub(fixed.One).Max(fixed.Zero)
	hMid = fixed.One.Sub(rel.Sub(fixed.PointFive).Abs().MulInt(2)).MulInt(2).Min(fixed.One).Max(fixed.Zero)
	return hOpen, hClose, hMid
}
