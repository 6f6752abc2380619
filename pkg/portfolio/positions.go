package portfolio

import (
	"github.com/peter-kozarec/merchant/pkg/common"
	"github.com/peter-kozarec/merchant/pkg/utility/fixed"
)

// Lot is an open quantity of an instrument and the trade that opened it.
type Lot struct {
	Amount common.Asset
	Open   common.Trade
}

// Positions tracks open lots per instrument and matches sells against them
// first in, first out.
type Positions struct {
	valuation common.Instrument
	lots      map[common.InstrumentID][]Lot
}

func NewPositions(valuation common.Instrument) *Positions {
	return &Positions{
		valuation: valuation,
		lots:      make(map[common.InstrumentID][]Lot),
	}
}

// HandleTrade closes lots of the sold instrument, oldest first, and opens a
// lot for the bought instrument. Quantities of the valuation instrument are
// cash and never form lots. Sold quantity without open lots is not attributed.
func (p *Positions) HandleTrade(trade common.Trade) []common.ClosedPosition {
	var closed []common.ClosedPosition

	if sold := trade.Sold.Instrument(); !sold.Equal(p.valuation) && trade.Sold.Sign() > 0 {
		closed = p.consume(trade.Sold, trade)
	}

	if bought := trade.Bought.Instrument(); !bought.Equal(p.valuation) && trade.Bought.Sign() > 0 {
		id := bought.ID()
		p.lots[id] = append(p.lots[id], Lot{Amount: trade.Bought, Open: trade})
	}

	return closed
}

func (p *Positions) consume(amount common.Asset, closing common.Trade) []common.ClosedPosition {
	instrument := amount.Instrument()
	id := instrument.ID()
	lots := p.lots[id]
	remaining := amount.Quantity()

	var closed []common.ClosedPosition
	for remaining.IsPos() && len(lots) > 0 {
		lot := &lots[0]
		take := lot.Amount.Quantity().Min(remaining)

		closed = append(closed, common.ClosedPosition{
			Amount: common.NewAsset(instrument, take),
			Open:   lot.Open,
			Close:  closing,
		})

		left := lot.Amount.Quantity().Sub(take)
		if left.IsZero() {
			lots = lots[1:]
		} else {
			lot.Amount = common.NewAsset(instrument, left)
		}
		remaining = remaining.Sub(take)
	}

	if len(lots) == 0 {
		delete(p.lots, id)
	} else {
		p.lots[id] = lots
	}
	return closed
}

// Lots returns the open lots of an instrument, oldest first.
func (p *Positions) Lots(instrument common.Instrument) []Lot {
	return append([]Lot(nil), p.lots[instrument.ID()]...)
}

// Open returns the total open quantity of an instrument.
func (p *Positions) Open(instrument common.Instrument) common.Asset {
	total := fixed.Zero
	for _, lot := range p.lots[instrument.ID()] {
		total = total.Add(lot.Amount.Quantity())
	}
	return common.NewAsset(instrument, total)
}

func (p *Positions) Count() int {
	count := 0
	for _, lots := range p.lots {
		count += len(lots)
	}
	return count
}

func (p *Positions) Reset() {
	clear(p.lots)
}
