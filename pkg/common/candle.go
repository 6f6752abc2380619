package common

import (
	"time"

	"github.com/peter-kozarec/merchant/pkg/utility/fixed"
)

// Candle is one OHLCV period. TimeStamp marks the start of the period.
type Candle struct {
	Symbol    string      `json:"symbol,omitempty"`
	TimeStamp time.Time   `json:"ts"`
	Open      fixed.Point `json:"open"`
	High      fixed.Point `json:"high"`
	Low       fixed.Point `json:"low"`
	Close     fixed.Point `json:"close"`
	Volume    fixed.Point `json:"volume"`
	Trades    int64       `json:"trades"`
	VWPrice   fixed.Point `json:"vw_price"`
}

// Reversed expresses the candle in inverted units, as if the quote currency
// was priced in the instrument.
func (c Candle) Reversed() Candle {
	reversed := c
	reversed.Open = inv(c.Close)
	reversed.High = inv(c.Low)
	reversed.Low = inv(c.High)
	reversed.Close = inv(c.Open)
	reversed.VWPrice = inv(c.VWPrice)
	if c.VWPrice.IsZero() {
		reversed.Volume = fixed.Zero
	} else {
		reversed.Volume = c.Volume.Div(c.VWPrice)
	}
	return reversed
}

func inv(p fixed.Point) fixed.Point {
	if p.IsZero() {
		return fixed.Zero
	}
	return p.Inv()
}
