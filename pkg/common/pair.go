package common

import (
	"fmt"
)

// TradingPair reads as "sell Sell to acquire Buy". A virtual pair leaves exactly
// one side unset and only serves as a catalog lookup key.
type TradingPair struct {
	Buy  Instrument `json:"buy"`
	Sell Instrument `json:"sell"`
}

// PairKey is the hashable identity of a pair.
type PairKey struct {
	Buy  InstrumentID
	Sell InstrumentID
}

func NewTradingPair(buy, sell Instrument) (TradingPair, error) {
	if buy.IsZero() || sell.IsZero() {
		return TradingPair{}, fmt.Errorf("%w: both sides must be set, use a virtual pair for lookups", ErrInvalidPair)
	}
	if buy.Equal(sell) {
		return TradingPair{}, fmt.Errorf("%w: %s on both sides", ErrInvalidPair, buy.Symbol)
	}
	return TradingPair{Buy: buy, Sell: sell}, nil
}

func MustTradingPair(buy, sell Instrument) TradingPair {
	pair, err := NewTradingPair(buy, sell)
	if err != nil {
		panic(err)
	}
	return pair
}

// NewVirtualPair builds a lookup pair with one unset side.
func NewVirtualPair(buy, sell Instrument) (TradingPair, error) {
	if buy.IsZero() == sell.IsZero() {
		return TradingPair{}, fmt.Errorf("%w: a virtual pair needs exactly one unset side", ErrInvalidPair)
	}
	return TradingPair{Buy: buy, Sell: sell}, nil
}

func (p TradingPair) IsVirtual() bool {
	return p.Buy.IsZero() || p.Sell.IsZero()
}

func (p TradingPair) Invert() TradingPair {
	return TradingPair{Buy: p.Sell, Sell: p.Buy}
}

func (p TradingPair) Key() PairKey {
	return PairKey{Buy: p.Buy.ID(), Sell: p.Sell.ID()}
}

func (p TradingPair) Equal(o TradingPair) bool {
	return p.Key() == o.Key()
}

func (p TradingPair) Contains(i Instrument) bool {
	return p.Buy.Equal(i) || p.Sell.Equal(i)
}

// Other returns the side of the pair that is not i.
func (p TradingPair) Other(i Instrument) (Instrument, bool) {
	switch {
	case p.Buy.Equal(i):
		return p.Sell, true
	case p.Sell.Equal(i):
		return p.Buy, true
	}
	return Instrument{}, false
}

func (p TradingPair) String() string {
	buy, sell := p.Buy.Symbol, p.Sell.Symbol
	if buy == "" {
		buy = "~"
	}
	if sell == "" {
		sell = "~"
	}
	return buy + "/" + sell
}
