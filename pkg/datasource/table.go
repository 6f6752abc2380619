package datasource

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/peter-kozarec/merchant/pkg/common"
)

// Table is an in-memory dataset.
type Table struct {
	tickers []string
	series  map[string][]common.Candle
}

func NewTable(candles []common.Candle) (*Table, error) {
	if len(candles) == 0 {
		return nil, ErrEmptyDataset
	}

	t := &Table{series: make(map[string][]common.Candle)}
	for _, candle := range candles {
		if candle.Symbol == "" {
			return nil, fmt.Errorf("%w: candle at %s has no ticker", ErrSchemaMismatch, candle.TimeStamp)
		}
		if _, ok := t.series[candle.Symbol]; !ok {
			t.tickers = append(t.tickers, candle.Symbol)
		}
		t.series[candle.Symbol] = append(t.series[candle.Symbol], candle)
	}

	sort.Strings(t.tickers)
	for _, series := range t.series {
		SortCandles(series)
	}
	return t, nil
}

func (t *Table) Tickers(context.Context) ([]string, error) {
	return append([]string(nil), t.tickers...), nil
}

func (t *Table) Slice(_ context.Context, from, to time.Time) ([]common.Candle, error) {
	var result []common.Candle
	for _, ticker := range t.tickers {
		series := t.series[ticker]
		lo := search(series, from)
		hi := search(series, to)
		result = append(result, series[lo:hi]...)
	}
	SortCandles(result)
	return result, nil
}

func (t *Table) Get(_ context.Context, ts time.Time, count int, direction Direction) ([]common.Candle, error) {
	if count <= 0 {
		return nil, nil
	}

	var result []common.Candle
	for _, ticker := range t.tickers {
		series := t.series[ticker]
		switch direction {
		case Backward:
			hi := search(series, ts.Add(1))
			lo := max(0, hi-count)
			result = append(result, series[lo:hi]...)
		case Forward:
			lo := search(series, ts)
			hi := min(len(series), lo+count)
			result = append(result, series[lo:hi]...)
		}
	}
	SortCandles(result)
	return result, nil
}

// search returns the index of the first candle at or after ts.
func search(series []common.Candle, ts time.Time) int {
	return sort.Search(len(series), func(i int) bool {
		return !series[i].TimeStamp.Before(ts)
	})
}
