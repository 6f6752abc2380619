package portfolio

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/peter-kozarec/merchant/pkg/utility/fixed"
)

var (
	ErrNotAvailable     = errors.New("benchmark not yet available")
	ErrNotEnoughHistory = errors.New("not enough value history")

	errNonFiniteGrowth = errors.New("growth rate is not finite")
)

const (
	yearDuration        = 365 * 24 * time.Hour
	benchmarkMinSamples = 2
)

// Benchmarks computes performance statistics from the value history of a
// portfolio. Results are cached until the portfolio changes or Invalidate
// is called.
type Benchmarks struct {
	portfolio *Portfolio
	version   uint64
	cache     map[string]fixed.Point
}

func NewBenchmarks(portfolio *Portfolio) *Benchmarks {
	return &Benchmarks{
		portfolio: portfolio,
		cache:     make(map[string]fixed.Point),
	}
}

func (b *Benchmarks) Invalidate() {
	clear(b.cache)
}

func (b *Benchmarks) cached(key string, compute func() (fixed.Point, error)) (fixed.Point, error) {
	if version := b.portfolio.Version(); version != b.version {
		b.Invalidate()
		b.version = version
	}
	if value, ok := b.cache[key]; ok {
		return value, nil
	}
	value, err := compute()
	if err != nil {
		return fixed.Zero, err
	}
	b.cache[key] = value
	return value, nil
}

func (b *Benchmarks) values() ([]fixed.Point, error) {
	history := b.portfolio.ValueHistory()
	if len(history) < benchmarkMinSamples {
		return nil, fmt.Errorf("%w: %d valuations", ErrNotEnoughHistory, len(history))
	}
	values := make([]fixed.Point, len(history))
	for i, point := range history {
		values[i] = point.Value.Quantity()
	}
	return values, nil
}

func (b *Benchmarks) returns() ([]fixed.Point, error) {
	values, err := b.values()
	if err != nil {
		return nil, err
	}
	returns := fixed.Returns(values)
	if len(returns) == 0 {
		return nil, fmt.Errorf("%w: no usable returns", ErrNotEnoughHistory)
	}
	return returns, nil
}

// Volatility is the standard deviation of period returns.
func (b *Benchmarks) Volatility() (fixed.Point, error) {
	return b.cached("volatility", func() (fixed.Point, error) {
		returns, err := b.returns()
		if err != nil {
			return fixed.Zero, err
		}
		return fixed.StdDev(returns, fixed.Mean(returns)), nil
	})
}

// SharpeRatio uses per period returns and a per period risk free rate.
func (b *Benchmarks) SharpeRatio(riskFreeRate fixed.Point) (fixed.Point, error) {
	return b.cached("sharpe:"+riskFreeRate.String(), func() (fixed.Point, error) {
		returns, err := b.returns()
		if err != nil {
			return fixed.Zero, err
		}
		return fixed.SharpeRatio(returns, riskFreeRate), nil
	})
}

func (b *Benchmarks) SortinoRatio(riskFreeRate fixed.Point) (fixed.Point, error) {
	return b.cached("sortino:"+riskFreeRate.String(), func() (fixed.Point, error) {
		returns, err := b.returns()
		if err != nil {
			return fixed.Zero, err
		}
		return fixed.SortinoRatio(returns, riskFreeRate), nil
	})
}

func (b *Benchmarks) MaxDrawdown() (fixed.Point, error) {
	return b.cached("max_drawdown", func() (fixed.Point, error) {
		values, err := b.values()
		if err != nil {
			return fixed.Zero, err
		}
		return fixed.MaxDrawdown(values), nil
	})
}

// GainToPain is the sum of returns over the sum of absolute losing returns.
func (b *Benchmarks) GainToPain() (fixed.Point, error) {
	return b.cached("gain_to_pain", func() (fixed.Point, error) {
		returns, err := b.returns()
		if err != nil {
			return fixed.Zero, err
		}
		gain, pain := fixed.Zero, fixed.Zero
		for _, r := range returns {
			gain = gain.Add(r)
			if r.IsNeg() {
				pain = pain.Add(r.Abs())
			}
		}
		if pain.IsZero() {
			return fixed.Zero, nil
		}
		return gain.Div(pain), nil
	})
}

// CAGR is the compound annual growth rate between the first and last valuation.
func (b *Benchmarks) CAGR() (fixed.Point, error) {
	return b.cached("cagr", func() (fixed.Point, error) {
		history := b.portfolio.ValueHistory()
		if len(history) < benchmarkMinSamples {
			return fixed.Zero, fmt.Errorf("%w: %d valuations", ErrNotEnoughHistory, len(history))
		}
		first, last := history[0], history[len(history)-1]
		elapsed := last.TimeStamp.Sub(first.TimeStamp)
		if elapsed <= 0 || !first.Value.Quantity().IsPos() {
			return fixed.Zero, fmt.Errorf("%w: empty period or non-positive start value", ErrNotEnoughHistory)
		}

		ratio, _ := last.Value.Quantity().Div(first.Value.Quantity()).Float64()
		years := elapsed.Seconds() / yearDuration.Seconds()
		growth := math.Pow(ratio, 1/years) - 1
		if math.IsNaN(growth) || math.IsInf(growth, 0) || math.Abs(growth) > 1e12 {
			return fixed.Zero, errNonFiniteGrowth
		}
		return fixed.FromFloat64(growth), nil
	})
}

// CalmarRatio is CAGR over the maximum drawdown.
func (b *Benchmarks) CalmarRatio() (fixed.Point, error) {
	return b.cached("calmar", func() (fixed.Point, error) {
		cagr, err := b.CAGR()
		if err != nil {
			return fixed.Zero, err
		}
		drawdown, err := b.MaxDrawdown()
		if err != nil {
			return fixed.Zero, err
		}
		if drawdown.IsZero() {
			return fixed.Zero, nil
		}
		return cagr.Div(drawdown), nil
	})
}

func notAvailable(name string) (fixed.Point, error) {
	return fixed.Zero, fmt.Errorf("%w: %s", ErrNotAvailable, name)
}

func (b *Benchmarks) Beta() (fixed.Point, error)             { return notAvailable("beta") }
func (b *Benchmarks) JensenAlpha() (fixed.Point, error)      { return notAvailable("jensen alpha") }
func (b *Benchmarks) TrackingError() (fixed.Point, error)    { return notAvailable("tracking error") }
func (b *Benchmarks) InformationRatio() (fixed.Point, error) { return notAvailable("information ratio") }
func (b *Benchmarks) TreynorRatio() (fixed.Point, error)     { return notAvailable("treynor ratio") }
func (b *Benchmarks) KellyCriterion() (fixed.Point, error)   { return notAvailable("kelly criterion") }

func (b *Benchmarks) RollingVolatility(time.Duration) ([]fixed.Point, error) {
	return nil, fmt.Errorf("%w: rolling volatility", ErrNotAvailable)
}

func (b *Benchmarks) RollingSharpeRatio(time.Duration) ([]fixed.Point, error) {
	return nil, fmt.Errorf("%w: rolling sharpe ratio", ErrNotAvailable)
}

func (b *Benchmarks) RollingSortinoRatio(time.Duration) ([]fixed.Point, error) {
	return nil, fmt.Errorf("%w: rolling sortino ratio", ErrNotAvailable)
}

func (b *Benchmarks) RollingBeta(time.Duration) ([]fixed.Point, error) {
	return nil, fmt.Errorf("%w: rolling beta", ErrNotAvailable)
}
