package quote

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/peter-kozarec/merchant/pkg/clock"
	"github.com/peter-kozarec/merchant/pkg/common"
	"github.com/peter-kozarec/merchant/pkg/datasource"
)

const DefaultWindowSize = 100

var ErrNoCandle = errors.New("no candle available")

// Window caches a block of W consecutive periods of the dataset. Blocks are
// aligned to W*period, so stepping through time refetches once per block.
type Window struct {
	dataset datasource.Dataset
	period  time.Duration
	size    int

	start   time.Time
	end     time.Time
	loaded  bool
	series  map[string][]common.Candle
	fetches int
}

func NewWindow(dataset datasource.Dataset, period time.Duration, size int) *Window {
	if size <= 0 {
		size = DefaultWindowSize
	}
	return &Window{
		dataset: dataset,
		period:  period,
		size:    size,
	}
}

func (w *Window) Period() time.Duration { return w.period }

// Fetches counts dataset accesses made by the window.
func (w *Window) Fetches() int { return w.fetches }

func (w *Window) Reset() {
	w.loaded = false
	w.series = nil
	w.start, w.end = time.Time{}, time.Time{}
}

func (w *Window) Contains(ts time.Time) bool {
	return w.loaded && !ts.Before(w.start) && ts.Before(w.end)
}

func (w *Window) load(ctx context.Context, ts time.Time) error {
	if w.Contains(ts) {
		return nil
	}

	blockLength := w.period * time.Duration(w.size)
	start := clock.AlignDown(ts, blockLength)
	end := start.Add(blockLength)

	candles, err := w.dataset.Slice(ctx, start, end)
	w.fetches++
	if err != nil {
		return fmt.Errorf("unable to load window [%s, %s): %w", start, end, err)
	}

	w.series = make(map[string][]common.Candle)
	for _, candle := range candles {
		w.series[candle.Symbol] = append(w.series[candle.Symbol], candle)
	}
	w.start, w.end, w.loaded = start, end, true
	return nil
}

// Candle returns the latest candle of symbol starting at or before ts.
func (w *Window) Candle(ctx context.Context, symbol string, ts time.Time) (common.Candle, error) {
	if err := w.load(ctx, ts); err != nil {
		return common.Candle{}, err
	}

	series := w.series[symbol]
	idx := sort.Search(len(series), func(i int) bool {
		return series[i].TimeStamp.After(ts)
	})
	if idx > 0 {
		return series[idx-1], nil
	}

	// Nothing in this block yet, the latest candle lives in an earlier one.
	candles, err := w.dataset.Get(ctx, ts, 1, datasource.Backward)
	w.fetches++
	if err != nil {
		return common.Candle{}, fmt.Errorf("unable to look back from %s: %w", ts, err)
	}
	for _, candle := range candles {
		if candle.Symbol == symbol {
			return candle, nil
		}
	}
	return common.Candle{}, fmt.Errorf("%w: %s at %s", ErrNoCandle, symbol, ts)
}

// Next returns the start of the first candle of any ticker strictly after
// the candle containing ts.
func (w *Window) Next(ctx context.Context, ts time.Time) (time.Time, bool, error) {
	if err := w.load(ctx, ts); err != nil {
		return time.Time{}, false, err
	}

	var next time.Time
	found := false
	for _, series := range w.series {
		idx := sort.Search(len(series), func(i int) bool {
			return series[i].TimeStamp.After(ts)
		})
		if idx < len(series) && (!found || series[idx].TimeStamp.Before(next)) {
			next, found = series[idx].TimeStamp, true
		}
	}
	if found {
		return next, true, nil
	}

	candles, err := w.dataset.Get(ctx, ts.Add(1), 1, datasource.Forward)
	w.fetches++
	if err != nil {
		return time.Time{}, false, fmt.Errorf("unable to look ahead from %s: %w", ts, err)
	}
	if len(candles) == 0 {
		return time.Time{}, false, nil
	}
	return candles[0].TimeStamp, true, nil
}
