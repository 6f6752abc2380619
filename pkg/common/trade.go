package common

import (
	"fmt"
	"time"

	"github.com/peter-kozarec/merchant/pkg/utility"
	"github.com/peter-kozarec/merchant/pkg/utility/fixed"
	"go.uber.org/zap"
)

type Trade struct {
	TraceID   utility.TraceID     `json:"tid"`
	OrderID   utility.ExecutionID `json:"order_id"`
	Pair      TradingPair         `json:"pair"`
	Bought    Asset               `json:"bought"`
	Sold      Asset               `json:"sold"`
	Fees      Asset               `json:"fees"`
	TimeStamp time.Time           `json:"ts"`
}

// Rate is the sold quantity paid per unit bought.
func (t Trade) Rate() fixed.Point {
	if t.Bought.IsZero() {
		return fixed.Zero
	}
	return t.Sold.Quantity().Div(t.Bought.Quantity())
}

func (t Trade) Fields() []zap.Field {
	return []zap.Field{
		zap.Uint64("tid", t.TraceID),
		zap.Stringer("pair", t.Pair),
		t.Bought.Field("bought"),
		t.Sold.Field("sold"),
		t.Fees.Field("fees"),
		zap.Time("ts", t.TimeStamp),
	}
}

// ClosedPosition matches Amount of an instrument bought in Open against the
// trade that sold it in Close.
type ClosedPosition struct {
	Amount Asset `json:"amount"`
	Open   Trade `json:"open"`
	Close  Trade `json:"close"`
}

// OpenRate is the counter instrument paid per unit when the position was opened.
func (p ClosedPosition) OpenRate() fixed.Point {
	return p.Open.Rate()
}

// CloseRate is the counter instrument received per unit when the position was closed.
func (p ClosedPosition) CloseRate() fixed.Point {
	if p.Close.Sold.IsZero() {
		return fixed.Zero
	}
	return p.Close.Bought.Quantity().Div(p.Close.Sold.Quantity())
}

// RealizedPnL is the gross profit of the position in the counter instrument, fees excluded.
func (p ClosedPosition) RealizedPnL() (Asset, error) {
	counter := p.Open.Sold.Instrument()
	if !counter.Equal(p.Close.Bought.Instrument()) {
		return Asset{}, fmt.Errorf("%w: opened against %s, closed into %s",
			ErrMismatchedInstrument, counter.ID(), p.Close.Bought.Instrument().ID())
	}
	diff := p.CloseRate().Sub(p.OpenRate())
	return NewAsset(counter, p.Amount.Quantity().Mul(diff)), nil
}

func (p ClosedPosition) Duration() time.Duration {
	return p.Close.TimeStamp.Sub(p.Open.TimeStamp)
}
