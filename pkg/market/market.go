package market

import (
	"fmt"
	"sort"

	"github.com/peter-kozarec/merchant/pkg/common"
)

// Market is the catalog of tradable pairs.
type Market struct {
	pairs  map[common.PairKey]common.TradingPair
	bySell map[common.InstrumentID][]common.TradingPair
	byBuy  map[common.InstrumentID][]common.TradingPair
}

func New(pairs ...common.TradingPair) (*Market, error) {
	m := &Market{
		pairs:  make(map[common.PairKey]common.TradingPair),
		bySell: make(map[common.InstrumentID][]common.TradingPair),
		byBuy:  make(map[common.InstrumentID][]common.TradingPair),
	}
	for _, pair := range pairs {
		if err := m.Add(pair); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// NewQuoted lists, for every instrument, the pair buying it with quote and
// the pair selling it for quote.
func NewQuoted(quote common.Instrument, instruments ...common.Instrument) (*Market, error) {
	m, _ := New()
	for _, instrument := range instruments {
		if instrument.Equal(quote) {
			continue
		}
		buy, err := common.NewTradingPair(instrument, quote)
		if err != nil {
			return nil, err
		}
		if err := m.Add(buy); err != nil {
			return nil, err
		}
		if err := m.Add(buy.Invert()); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Market) Add(pair common.TradingPair) error {
	if pair.IsVirtual() {
		return fmt.Errorf("%w: virtual pair %s cannot be listed", common.ErrInvalidPair, pair)
	}
	if _, ok := m.pairs[pair.Key()]; ok {
		return nil
	}
	m.pairs[pair.Key()] = pair
	m.byBuy[pair.Buy.ID()] = append(m.byBuy[pair.Buy.ID()], pair)
	m.bySell[pair.Sell.ID()] = append(m.bySell[pair.Sell.ID()], pair)
	return nil
}

func (m *Market) Contains(pair common.TradingPair) bool {
	_, ok := m.pairs[pair.Key()]
	return ok
}

// Pairs returns every listed pair sorted by buy then sell symbol.
func (m *Market) Pairs() []common.TradingPair {
	pairs := make([]common.TradingPair, 0, len(m.pairs))
	for _, pair := range m.pairs {
		pairs = append(pairs, pair)
	}
	sortPairs(pairs)
	return pairs
}

// Lookup resolves a concrete pair to itself and a virtual pair to every
// listed pair matching its set side: (X, ~) finds what X can be bought
// with, (~, X) finds what X can be sold for.
func (m *Market) Lookup(pair common.TradingPair) []common.TradingPair {
	var result []common.TradingPair
	switch {
	case !pair.IsVirtual():
		if listed, ok := m.pairs[pair.Key()]; ok {
			result = append(result, listed)
		}
	case !pair.Buy.IsZero():
		result = append(result, m.byBuy[pair.Buy.ID()]...)
	case !pair.Sell.IsZero():
		result = append(result, m.bySell[pair.Sell.ID()]...)
	}
	sortPairs(result)
	return result
}

func sortPairs(pairs []common.TradingPair) {
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Buy.Symbol != pairs[j].Buy.Symbol {
			return pairs[i].Buy.Symbol < pairs[j].Buy.Symbol
		}
		return pairs[i].Sell.Symbol < pairs[j].Sell.Symbol
	})
}
