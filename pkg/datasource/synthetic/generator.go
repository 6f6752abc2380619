package synthetic

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/peter-kozarec/merchant/pkg/common"
	"github.com/peter-kozarec/merchant/pkg/datasource"
	"github.com/peter-kozarec/merchant/pkg/utility/fixed"
)

const (
	candleGeneratorComponentName = "datasource.synthetic.generator"

	year = 365 * 24 * time.Hour
)

var ErrEof = errors.New("EOF")

// CandleGenerator produces candles from a geometric brownian motion price
// path. Each candle is built from several sub steps of the path.
type CandleGenerator struct {
	symbol string
	rng    *rand.Rand

	period   time.Duration
	steps    int64
	subSteps int
	t        int64

	deltaLogPre1 fixed.Point
	deltaLogPre2 fixed.Point

	avgVolume      fixed.Point
	volumeVariance float64

	lastTime  time.Time
	lastPrice fixed.Point

	normPriceDigits  int
	normVolumeDigits int
}

func NewCandleGenerator(
	symbol string,
	rng *rand.Rand,
	startTime time.Time,
	period time.Duration,
	startPrice, mu, sigma fixed.Point,
	steps int64) *CandleGenerator {

	subSteps := 12
	deltaT := fixed.FromInt64(int64(period), 0).DivInt64(int64(year)).DivInt(subSteps)

	return &CandleGenerator{
		symbol: symbol,
		rng:    rng,

		period:   period,
		steps:    steps,
		subSteps: subSteps,

		// Pre-calculated values for GBM
		deltaLogPre1: mu.Sub(sigma.Mul(sigma).Mul(fixed.PointFive)).Mul(deltaT),
		deltaLogPre2: sigma.Mul(deltaT.Sqrt()),

		avgVolume:      fixed.FromInt64(1000, 0),
		volumeVariance: 0.5,

		lastTime:  startTime,
		lastPrice: startPrice,

		normPriceDigits:  4,
		normVolumeDigits: 2,
	}
}

func (g *CandleGenerator) SetVolume(avgVolume fixed.Point, variance float64) {
	g.avgVolume = avgVolume
	g.volumeVariance = variance
}

func (g *CandleGenerator) SetPriceDigits(digits int) {
	g.normPriceDigits = digits
}

func (g *CandleGenerator) SetVolumeDigits(digits int) {
	g.normVolumeDigits = digits
}

func (g *CandleGenerator) GetNext() (common.Candle, error) {
	var candle common.Candle

	if g.t >= g.steps {
		return candle, ErrEof
	}

	open := g.lastPrice
	high, low := open, open
	sum := fixed.Zero

	for i := 0; i < g.subSteps; i++ {
		z := g.rng.NormFloat64()
		deltaLog := g.deltaLogPre1.Add(g.deltaLogPre2.Mul(fixed.FromFloat64(z)))
		g.lastPrice = g.lastPrice.Mul(deltaLog.Exp()).Round(g.normPriceDigits + 4)

		high = high.Max(g.lastPrice)
		low = low.Min(g.lastPrice)
		sum = sum.Add(g.lastPrice)
	}

	volume := g.generateVolume()

	candle.Symbol = g.symbol
	candle.TimeStamp = g.lastTime
	candle.Open = open.Round(g.normPriceDigits)
	candle.High = high.Round(g.normPriceDigits)
	candle.Low = low.Round(g.normPriceDigits)
	candle.Close = g.lastPrice.Round(g.normPriceDigits)
	candle.VWPrice = sum.DivInt(g.subSteps).Round(g.normPriceDigits)
	candle.Volume = volume.Round(g.normVolumeDigits)
	candle.Trades = 1 + g.rng.Int63n(int64(g.subSteps)*10)

	g.lastTime = g.lastTime.Add(g.period)
	g.t++

	return candle, nil
}

func (g *CandleGenerator) generateVolume() fixed.Point {
	variation := g.rng.NormFloat64() * g.volumeVariance
	volume := g.avgVolume.Mul(fixed.FromFloat64(variation).Exp())
	if volume.Lte(fixed.Zero) {
		return fixed.One
	}
	return volume
}

// Ticker describes one synthetic ticker.
type Ticker struct {
	Symbol     string
	StartPrice fixed.Point
	Mu         fixed.Point
	Sigma      fixed.Point
}

// NewDataset generates steps candles per ticker into an in-memory table.
func NewDataset(rng *rand.Rand, start time.Time, period time.Duration, steps int64, tickers ...Ticker) (*datasource.Table, error) {
	var candles []common.Candle
	for _, t := range tickers {
		generator := NewCandleGenerator(t.Symbol, rng, start, period, t.StartPrice, t.Mu, t.Sigma, steps)
		for {
			candle, err := generator.GetNext()
			if errors.Is(err, ErrEof) {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("%s: unable to generate %s: %w", candleGeneratorComponentName, t.Symbol, err)
			}
			candles = append(candles, candle)
		}
	}
	return datasource.NewTable(candles)
}
