package circular

import (
	"github.com/peter-kozarec/merchant/pkg/utility/fixed"
)

// PointBuffer is a Buffer of decimals with running window statistics.
type PointBuffer struct {
	b *Buffer[fixed.Point]

	mean       fixed.Point
	stdDev     fixed.Point
	sum        fixed.Point
	sumSquares fixed.Point
	variance   fixed.Point
}

func NewPointBuffer(capacity uint) *PointBuffer {
	return &PointBuffer{
		b: NewBuffer[fixed.Point](capacity),
	}
}

func (p *PointBuffer) PushUpdate(v fixed.Point) {
	p.sum = p.sum.Add(v)
	p.sumSquares = p.sumSquares.Add(v.Mul(v))
	if evicted, ok := p.b.Push(v); ok {
		p.sum = p.sum.Sub(evicted)
		p.sumSquares = p.sumSquares.Sub(evicted.Mul(evicted))
	}

	size := int(p.b.Size())
	p.mean = p.sum.DivInt(size)
	p.variance = p.sumSquares.DivInt(size).Sub(p.mean.Mul(p.mean))
	if p.variance.IsPos() {
		p.stdDev = p.variance.Sqrt()
	} else {
		p.variance = fixed.Zero
		p.stdDev = fixed.Zero
	}
}

func (p *PointBuffer) Mean() fixed.Point     { return p.mean }
func (p *PointBuffer) Sum() fixed.Point      { return p.sum }
func (p *PointBuffer) StdDev() fixed.Point   { return p.stdDev }
func (p *PointBuffer) Variance() fixed.Point { return p.variance }
func (p *PointBuffer) Latest() fixed.Point   { return p.b.Newest() }
func (p *PointBuffer) Size() uint            { return p.b.Size() }
func (p *PointBuffer) IsFull() bool          { return p.b.IsFull() }

func (p *PointBuffer) Reset() {
	p.b.Reset()
	p.mean, p.stdDev, p.sum, p.sumSquares, p.variance = fixed.Zero, fixed.Zero, fixed.Zero, fixed.Zero, fixed.Zero
}
