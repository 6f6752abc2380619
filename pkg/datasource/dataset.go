package datasource

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/peter-kozarec/merchant/pkg/common"
)

var (
	ErrDatasetNotFound = errors.New("dataset not found")
	ErrEmptyDataset    = errors.New("dataset is empty")
	ErrSchemaMismatch  = errors.New("dataset schema mismatch")
)

// Columns every dataset row carries, in storage order.
var Columns = []string{"timestamp", "ticker", "open", "high", "low", "close", "volume", "trades", "vw_price"}

type Direction int

const (
	// Backward selects candles at or before the timestamp.
	Backward Direction = iota
	// Forward selects candles at or after the timestamp.
	Forward
)

func (d Direction) String() string {
	if d == Forward {
		return "forward"
	}
	return "backward"
}

// Dataset is a read-only source of candles keyed by ticker and period start.
// Candles are always returned ordered by timestamp, then ticker.
type Dataset interface {
	Tickers(ctx context.Context) ([]string, error)
	// Slice returns every candle with from <= timestamp < to.
	Slice(ctx context.Context, from, to time.Time) ([]common.Candle, error)
	// Get returns, per ticker, up to count candles nearest to ts in the given direction.
	Get(ctx context.Context, ts time.Time, count int, direction Direction) ([]common.Candle, error)
}

// SortCandles orders candles by timestamp, then symbol.
func SortCandles(candles []common.Candle) {
	sort.SliceStable(candles, func(i, j int) bool {
		if !candles[i].TimeStamp.Equal(candles[j].TimeStamp) {
			return candles[i].TimeStamp.Before(candles[j].TimeStamp)
		}
		return candles[i].Symbol < candles[j].Symbol
	})
}
