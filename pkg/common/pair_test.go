package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTradingPair_New(t *testing.T) {
	_, err := NewTradingPair(BTC, BTC)
	assert.ErrorIs(t, err, ErrInvalidPair)

	_, err = NewTradingPair(BTC, Instrument{})
	assert.ErrorIs(t, err, ErrInvalidPair)

	pair, err := NewTradingPair(BTC, USD)
	require.NoError(t, err)
	assert.False(t, pair.IsVirtual())
	assert.Equal(t, "BTC/USD", pair.String())
}

func TestTradingPair_EqualityAndKey(t *testing.T) {
	a := MustTradingPair(BTC, USD)
	b := MustTradingPair(MustInstrument("BTC", 8, "other description"), USD)

	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Key(), b.Key())

	index := map[PairKey]TradingPair{a.Key(): a}
	_, ok := index[b.Key()]
	assert.True(t, ok)

	assert.False(t, a.Equal(a.Invert()))
}

func TestTradingPair_Invert(t *testing.T) {
	pair := MustTradingPair(BTC, USD)
	inverted := pair.Invert()

	assert.True(t, inverted.Buy.Equal(USD))
	assert.True(t, inverted.Sell.Equal(BTC))
	assert.True(t, inverted.Invert().Equal(pair))
}

func TestTradingPair_Virtual(t *testing.T) {
	_, err := NewVirtualPair(BTC, USD)
	assert.ErrorIs(t, err, ErrInvalidPair)

	_, err = NewVirtualPair(Instrument{}, Instrument{})
	assert.ErrorIs(t, err, ErrInvalidPair)

	virtual, err := NewVirtualPair(BTC, Instrument{})
	require.NoError(t, err)
	assert.True(t, virtual.IsVirtual())
	assert.Equal(t, "BTC/~", virtual.String())
	assert.Equal(t, "~/BTC", virtual.Invert().String())
}

func TestTradingPair_Other(t *testing.T) {
	pair := MustTradingPair(BTC, USD)

	other, ok := pair.Other(USD)
	require.True(t, ok)
	assert.True(t, other.Equal(BTC))

	_, ok = pair.Other(EUR)
	assert.False(t, ok)
	assert.True(t, pair.Contains(BTC))
	assert.False(t, pair.Contains(ETH))
}

func TestOrder_New(t *testing.T) {
	pair := MustTradingPair(BTC, USD)

	_, err := NewOrder(pair, mustParse("0"), testTime)
	assert.ErrorIs(t, err, ErrInvalidOrder)

	_, err = NewOrder(pair, mustParse("0.000000001"), testTime)
	assert.ErrorIs(t, err, ErrInvalidOrder, "quantity truncating to zero is rejected")

	virtual, _ := NewVirtualPair(BTC, Instrument{})
	_, err = NewOrder(virtual, mustParse("1"), testTime)
	assert.ErrorIs(t, err, ErrInvalidOrder)

	order, err := NewOrder(pair, mustParse("0.123456789"), testTime)
	require.NoError(t, err)
	assert.Equal(t, "0.12345678", order.Quantity.String())
	assert.Equal(t, testTime, order.TimeStamp)
}
