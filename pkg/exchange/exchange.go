package exchange

import (
	"context"
	"errors"
	"time"

	"github.com/peter-kozarec/merchant/pkg/common"
)

var (
	ErrInsufficientAssets  = errors.New("insufficient assets")
	ErrOrderAfterValuation = errors.New("order placed after valuation in the same candle")
	ErrUnsupportedPair     = errors.New("unsupported trading pair")
	ErrUnknownInstrument   = errors.New("unknown instrument")
	ErrEndOfData           = errors.New("no further candles")
)

// ExecuteFunc executes a single order. Middlewares wrap it.
type ExecuteFunc func(ctx context.Context, order common.Order) (common.OrderExecution, error)

// Recorder persists what happens during a run.
type Recorder interface {
	RecordTrade(ctx context.Context, trade common.Trade) error
	RecordClosedPosition(ctx context.Context, position common.ClosedPosition) error
	RecordValuation(ctx context.Context, ts time.Time, value common.Asset) error
}

// Observation is one row per instrument.
type Observation [][]float64

// Shape returns the number of rows and columns.
func (o Observation) Shape() [2]int {
	if len(o) == 0 {
		return [2]int{0, 0}
	}
	return [2]int{len(o), len(o[0])}
}
