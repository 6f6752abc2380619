package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peter-kozarec/merchant/pkg/utility/fixed"
)

var testTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func mustParse(v string) fixed.Point {
	return fixed.MustParse(v)
}

func TestClosedPosition_RealizedPnL(t *testing.T) {
	test := MustInstrument("TEST", 4, "")

	open := Trade{
		Pair:      MustTradingPair(test, USD),
		Bought:    test.Of(mustParse("10")),
		Sold:      USD.Of(mustParse("1000")),
		TimeStamp: testTime,
	}
	closing := Trade{
		Pair:      MustTradingPair(USD, test),
		Bought:    USD.Of(mustParse("1100")),
		Sold:      test.Of(mustParse("10")),
		TimeStamp: testTime.Add(time.Hour),
	}

	position := ClosedPosition{Amount: test.Of(mustParse("4")), Open: open, Close: closing}

	assert.True(t, position.OpenRate().Eq(mustParse("100")))
	assert.True(t, position.CloseRate().Eq(mustParse("110")))
	assert.Equal(t, time.Hour, position.Duration())

	pnl, err := position.RealizedPnL()
	require.NoError(t, err)
	assert.Equal(t, "40.00 USD", pnl.String())
}

func TestClosedPosition_RealizedPnLMismatch(t *testing.T) {
	position := ClosedPosition{
		Amount: BTC.Of(fixed.One),
		Open:   Trade{Bought: BTC.Of(fixed.One), Sold: USD.Of(fixed.Ten)},
		Close:  Trade{Bought: EUR.Of(fixed.Ten), Sold: BTC.Of(fixed.One)},
	}

	_, err := position.RealizedPnL()
	assert.ErrorIs(t, err, ErrMismatchedInstrument)
}

func TestCandle_Reversed(t *testing.T) {
	candle := Candle{
		Symbol:  "TEST",
		Open:    mustParse("4"),
		High:    mustParse("10"),
		Low:     mustParse("2"),
		Close:   mustParse("5"),
		Volume:  mustParse("100"),
		Trades:  7,
		VWPrice: mustParse("4"),
	}

	reversed := candle.Reversed()

	assert.True(t, reversed.Open.Eq(mustParse("0.2")), "open = 1/close")
	assert.True(t, reversed.High.Eq(mustParse("0.5")), "high = 1/low")
	assert.True(t, reversed.Low.Eq(mustParse("0.1")), "low = 1/high")
	assert.True(t, reversed.Close.Eq(mustParse("0.25")), "close = 1/open")
	assert.True(t, reversed.VWPrice.Eq(mustParse("0.25")))
	assert.True(t, reversed.Volume.Eq(mustParse("25")), "volume = volume/vwprice")
	assert.Equal(t, int64(7), reversed.Trades)
	assert.True(t, reversed.High.Gte(reversed.Low))
}
