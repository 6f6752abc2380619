package common

import (
	"fmt"
	"time"

	"github.com/peter-kozarec/merchant/pkg/utility"
	"github.com/peter-kozarec/merchant/pkg/utility/fixed"
	"go.uber.org/zap"
)

// Order requests Quantity units of Pair.Buy paid in Pair.Sell.
type Order struct {
	ID        utility.ExecutionID `json:"id"`
	Pair      TradingPair         `json:"pair"`
	Quantity  fixed.Point         `json:"quantity"`
	TimeStamp time.Time           `json:"ts"`
}

func NewOrder(pair TradingPair, quantity fixed.Point, timeStamp time.Time) (Order, error) {
	if pair.IsVirtual() {
		return Order{}, fmt.Errorf("%w: virtual pair %s is not tradable", ErrInvalidOrder, pair)
	}
	quantity = quantity.Trunc(pair.Buy.Precision)
	if !quantity.IsPos() {
		return Order{}, fmt.Errorf("%w: quantity %s of %s must be positive", ErrInvalidOrder, quantity, pair.Buy.Symbol)
	}
	return Order{
		ID:        utility.NewExecutionID(),
		Pair:      pair,
		Quantity:  quantity,
		TimeStamp: timeStamp,
	}, nil
}

func (o Order) Fields() []zap.Field {
	return []zap.Field{
		zap.Stringer("order_id", o.ID),
		zap.Stringer("pair", o.Pair),
		zap.String("quantity", o.Quantity.String()),
		zap.Time("ts", o.TimeStamp),
	}
}

// OrderExecution describes a filled order. Rate is the sell-side price of one
// unit of the buy side after slippage.
type OrderExecution struct {
	Order     Order       `json:"order"`
	TimeStamp time.Time   `json:"ts"`
	Rate      fixed.Point `json:"rate"`
	Fees      Asset       `json:"fees"`
}
