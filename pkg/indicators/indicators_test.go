package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/peter-kozarec/merchant/pkg/common"
	"github.com/peter-kozarec/merchant/pkg/utility/fixed"
)

func hlc(high, low, close int) common.Candle {
	return common.Candle{
		High:  fixed.FromInt(high, 0),
		Low:   fixed.FromInt(low, 0),
		Close: fixed.FromInt(close, 0),
	}
}

func TestAtr_FirstCandle(t *testing.T) {
	atr := NewAtr(14)
	atr.OnCandle(hlc(100, 95, 98))

	assert.False(t, atr.Ready())
	assert.True(t, atr.TrueRange().IsZero())
	assert.True(t, atr.AverageTrueRange().IsZero())
}

func TestAtr_MultipleCandles(t *testing.T) {
	atr := NewAtr(3)
	for _, c := range []common.Candle{
		hlc(100, 95, 98),
		hlc(102, 97, 101),
		hlc(104, 99, 102),
		hlc(103, 100, 101),
	} {
		atr.OnCandle(c)
	}

	assert.True(t, atr.Ready())
	assert.True(t, atr.TrueRange().Eq(fixed.FromInt(3, 0)))
	assert.True(t, atr.AverageTrueRange().Eq(fixed.FromInt(13, 0).DivInt(3)))
}

func TestAtr_GapUsesPreviousClose(t *testing.T) {
	atr := NewAtr(3)
	atr.OnCandle(hlc(100, 95, 98))
	atr.OnCandle(hlc(110, 108, 109))

	assert.True(t, atr.TrueRange().Eq(fixed.FromInt(12, 0)))
}

func TestAtr_Reset(t *testing.T) {
	atr := NewAtr(14)
	atr.OnCandle(hlc(100, 95, 98))
	atr.OnCandle(hlc(102, 97, 101))
	assert.True(t, atr.Ready())

	atr.Reset()
	assert.False(t, atr.Ready())
	assert.True(t, atr.AverageTrueRange().IsZero())

	atr.OnCandle(hlc(102, 97, 101))
	assert.False(t, atr.Ready())
}

func TestTrueRange(t *testing.T) {
	tests := []struct {
		name      string
		candle    common.Candle
		prevClose int
		expected  int
	}{
		{"inside range", hlc(102, 97, 101), 98, 5},
		{"gap up", hlc(110, 108, 109), 98, 12},
		{"gap down", hlc(90, 88, 89), 98, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := TrueRange(tt.candle, fixed.FromInt(tt.prevClose, 0))
			assert.True(t, tr.Eq(fixed.FromInt(tt.expected, 0)), "got %s", tr)
		})
	}
}

func TestAtr_FlatMarketIsReady(t *testing.T) {
	atr := NewAtr(3)
	atr.OnCandle(hlc(100, 100, 100))
	atr.OnCandle(hlc(100, 100, 100))

	assert.True(t, atr.Ready())
	assert.True(t, atr.AverageTrueRange().IsZero())
}

func TestZScore(t *testing.T) {
	z := NewZScore(5)
	for _, v := range []int{1, 2, 3, 4} {
		z.AddPoint(fixed.FromInt(v, 0))
	}
	_, err := z.Value()
	assert.ErrorIs(t, err, ErrNotReady)

	z.AddPoint(fixed.FromInt(5, 0))
	value, err := z.Value()
	assert.NoError(t, err)
	// mean 3, population std dev sqrt(2)
	expected := fixed.FromInt(2, 0).Div(fixed.FromInt(2, 0).Sqrt())
	assert.True(t, value.Sub(expected).Abs().Lt(fixed.MustParse("0.000000001")), "got %s", value)
	assert.True(t, z.Mean().Eq(fixed.FromInt(3, 0)))

	z.Reset()
	assert.False(t, z.IsReady())
}

func TestZScore_Flat(t *testing.T) {
	z := NewZScore(3)
	for i := 0; i < 3; i++ {
		z.AddPoint(fixed.Hundred)
	}
	value, err := z.Value()
	assert.NoError(t, err)
	assert.True(t, value.IsZero())
}
