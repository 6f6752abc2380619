package synthetic

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peter-kozarec/merchant/pkg/utility/fixed"
)

var start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestCandleGenerator_GetNext(t *testing.T) {
	g := NewCandleGenerator("TEST", rand.New(rand.NewSource(42)), start, time.Minute,
		fixed.FromInt(100, 0), fixed.FromFloat64(0.05), fixed.FromFloat64(0.2), 50)

	previous := start.Add(-time.Minute)
	count := 0
	for {
		candle, err := g.GetNext()
		if errors.Is(err, ErrEof) {
			break
		}
		require.NoError(t, err)
		count++

		assert.Equal(t, "TEST", candle.Symbol)
		assert.Equal(t, time.Minute, candle.TimeStamp.Sub(previous))
		assert.True(t, candle.High.Gte(candle.Open) && candle.High.Gte(candle.Close), "high bounds the candle")
		assert.True(t, candle.Low.Lte(candle.Open) && candle.Low.Lte(candle.Close), "low bounds the candle")
		assert.True(t, candle.VWPrice.Gte(candle.Low) && candle.VWPrice.Lte(candle.High))
		assert.True(t, candle.Volume.IsPos())
		assert.Positive(t, candle.Trades)
		previous = candle.TimeStamp
	}
	assert.Equal(t, 50, count)
}

func TestCandleGenerator_Deterministic(t *testing.T) {
	tickers := []Ticker{{Symbol: "AAA", StartPrice: fixed.FromInt(10, 0), Mu: fixed.Zero, Sigma: fixed.FromFloat64(0.3)}}

	first, err := NewDataset(rand.New(rand.NewSource(7)), start, time.Minute, 20, tickers...)
	require.NoError(t, err)
	second, err := NewDataset(rand.New(rand.NewSource(7)), start, time.Minute, 20, tickers...)
	require.NoError(t, err)

	ctx := context.Background()
	a, err := first.Slice(ctx, start, start.Add(time.Hour))
	require.NoError(t, err)
	b, err := second.Slice(ctx, start, start.Add(time.Hour))
	require.NoError(t, err)

	require.Len(t, a, 20)
	for i := range a {
		assert.True(t, a[i].Close.Eq(b[i].Close), "same seed, same path at %d", i)
	}
}
