package indicators

import (
	"github.com/peter-kozarec/merchant/pkg/common"
	"github.com/peter-kozarec/merchant/pkg/utility/fixed"
)

// TrueRange is the widest of the candle's own range and its gaps to the
// previous close.
func TrueRange(c common.Candle, prevClose fixed.Point) fixed.Point {
	return c.High.Sub(c.Low).Abs().
		Max(c.High.Sub(prevClose).Abs()).
		Max(c.Low.Sub(prevClose).Abs())
}

// Atr is Wilder's average true range. The first true range seeds the
// average, later ones are smoothed over period candles.
type Atr struct {
	period int

	prevClose fixed.Point
	primed    bool
	samples   int

	tr  fixed.Point
	atr fixed.Point
}

func NewAtr(period int) *Atr {
	if period < 1 {
		period = 1
	}
	a := &Atr{period: period}
	a.Reset()
	return a
}

// OnCandle folds c into the average. The first candle only provides the
// previous close.
func (a *Atr) OnCandle(c common.Candle) {
	if !a.primed {
		a.prevClose, a.primed = c.Close, true
		return
	}

	a.tr = TrueRange(c, a.prevClose)
	a.prevClose = c.Close
	a.samples++

	if a.samples == 1 {
		a.atr = a.tr
		return
	}
	a.atr = a.atr.MulInt(a.period - 1).Add(a.tr).DivInt(a.period)
}

func (a *Atr) AverageTrueRange() fixed.Point { return a.atr }
func (a *Atr) TrueRange() fixed.Point        { return a.tr }
func (a *Atr) Ready() bool                   { return a.samples > 0 }

func (a *Atr) Reset() {
	a.prevClose, a.primed = fixed.Zero, false
	a.samples = 0
	a.tr, a.atr = fixed.Zero, fixed.Zero
}
