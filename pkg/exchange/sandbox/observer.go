package sandbox

import (
	"context"
	"fmt"
	"time"

	"github.com/peter-kozarec/merchant/pkg/clock"
	"github.com/peter-kozarec/merchant/pkg/common"
	"github.com/peter-kozarec/merchant/pkg/datasource"
)

const DefaultObserverWindow = 512

// Features per candle in observation order.
var Features = []string{"open", "high", "low", "close", "volume", "trades", "vw_price"}

// Observer exposes the most recent closed candles of every ticker.
type Observer struct {
	dataset    datasource.Dataset
	clock      clock.Clock
	resolution time.Duration
	window     int
	tickers    []string
	index      map[string]int
}

func NewObserver(ctx context.Context, dataset datasource.Dataset, c clock.Clock, resolution time.Duration, window int) (*Observer, error) {
	if window <= 0 {
		return nil, fmt.Errorf("observer window must be positive, got %d", window)
	}
	tickers, err := dataset.Tickers(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to list tickers: %w", err)
	}

	o := &Observer{
		dataset:    dataset,
		clock:      c,
		resolution: resolution,
		window:     window,
		tickers:    tickers,
		index:      make(map[string]int, len(tickers)),
	}
	for i, ticker := range tickers {
		o.index[ticker] = i
	}
	return o, nil
}

func (o *Observer) Tickers() []string { return o.tickers }

// ObservationShape is features x tickers x window.
func (o *Observer) ObservationShape() [3]int {
	return [3]int{len(Features), len(o.tickers), o.window}
}

// GetObservation returns the candles that closed before the current candle.
// Series shorter than the window are left-padded with zeros.
func (o *Observer) GetObservation(ctx context.Context) ([][][]float64, error) {
	now := o.clock.Time()
	candles, err := o.dataset.Get(ctx, now.Add(-o.resolution), o.window, datasource.Backward)
	if err != nil {
		return nil, fmt.Errorf("unable to observe market at %s: %w", now.Format(time.RFC3339), err)
	}

	series := make([][]common.Candle, len(o.tickers))
	for _, candle := range candles {
		if idx, ok := o.index[candle.Symbol]; ok {
			series[idx] = append(series[idx], candle)
		}
	}

	observation := make([][][]float64, len(Features))
	for f := range observation {
		observation[f] = make([][]float64, len(o.tickers))
		for t := range o.tickers {
			observation[f][t] = make([]float64, o.window)
		}
	}

	for t, s := range series {
		if len(s) > o.window {
			s = s[len(s)-o.window:]
		}
		offset := o.window - len(s)
		for i, candle := range s {
			for f, value := range features(candle) {
				observation[f][t][offset+i] = value
			}
		}
	}
	return observation, nil
}

func features(c common.Candle) [7]float64 {
	open, _ := c.Open.Float64()
	high, _ := c.High.Float64()
	low, _ := c.Low.Float64()
	closing, _ := c.Close.Float64()
	volume, _ := c.Volume.Float64()
	vwPrice, _ := c.VWPrice.Float64()
	return [7]float64{open, high, low, closing, volume, float64(c.Trades), vwPrice}
}
