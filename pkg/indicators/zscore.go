package indicators

import (
	"errors"

	"github.com/peter-kozarec/merchant/pkg/utility/circular"
	"github.com/peter-kozarec/merchant/pkg/utility/fixed"
)

var ErrNotReady = errors.New("not enough data")

// ZScore measures how far the latest point lies from the window mean, in
// standard deviations.
type ZScore struct {
	data *circular.PointBuffer
}

func NewZScore(windowSize int) *ZScore {
	return &ZScore{
		data: circular.NewPointBuffer(uint(windowSize)),
	}
}

func (z *ZScore) AddPoint(p fixed.Point) {
	z.data.PushUpdate(p)
}

func (z *ZScore) Value() (fixed.Point, error) {
	if !z.IsReady() {
		return fixed.Point{}, ErrNotReady
	}

	stdDev := z.data.StdDev()
	if stdDev.IsZero() {
		return fixed.Zero, nil
	}
	return z.data.Latest().Sub(z.data.Mean()).Div(stdDev), nil
}

func (z *ZScore) Mean() fixed.Point {
	return z.data.Mean()
}

func (z *ZScore) IsReady() bool {
	return z.data.IsFull()
}

func (z *ZScore) Reset() {
	z.data.Reset()
}
