package portfolio

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/peter-kozarec/merchant/pkg/common"
	"github.com/peter-kozarec/merchant/pkg/utility/fixed"
)

var ErrInsufficientHoldings = errors.New("insufficient holdings")

type ValuePoint struct {
	TimeStamp time.Time    `json:"ts"`
	Value     common.Asset `json:"value"`
}

// Portfolio holds balances and the recorded history of a run. Balances are
// mutated only through IncreaseHoldings and DecreaseHoldings, which the
// broker calls after it validated an order.
type Portfolio struct {
	valuation common.Instrument
	initial   []common.Asset

	balances    map[common.InstrumentID]common.Asset
	instruments map[common.InstrumentID]common.Instrument

	value  common.Asset
	valued bool

	valueHistory    []ValuePoint
	tradeHistory    []common.Trade
	positionHistory []common.ClosedPosition
	positions       *Positions

	version uint64
}

func New(valuation common.Instrument, assets ...common.Asset) (*Portfolio, error) {
	p := &Portfolio{
		valuation: valuation,
		initial:   append([]common.Asset(nil), assets...),
		positions: NewPositions(valuation),
	}
	if err := p.load(); err != nil {
		return nil, err
	}
	return p, nil
}

// load zeroes every tracked balance and applies the initial assets. Tracked
// instruments survive, so Balances keeps its shape across resets.
func (p *Portfolio) load() error {
	if p.instruments == nil {
		p.instruments = make(map[common.InstrumentID]common.Instrument)
	}
	p.balances = make(map[common.InstrumentID]common.Asset, len(p.instruments))
	for id, instrument := range p.instruments {
		p.balances[id] = common.NewAsset(instrument, fixed.Zero)
	}
	p.track(p.valuation)

	for _, asset := range p.initial {
		if asset.Sign() < 0 {
			return fmt.Errorf("%w: initial %s is negative", ErrInsufficientHoldings, asset)
		}
		if err := p.IncreaseHoldings(asset); err != nil {
			return err
		}
	}
	return nil
}

// Reset restores the initial balances and clears every history.
func (p *Portfolio) Reset() error {
	p.valueHistory = nil
	p.tradeHistory = nil
	p.positionHistory = nil
	p.positions.Reset()
	p.Invalidate()
	return p.load()
}

func (p *Portfolio) Valuation() common.Instrument { return p.valuation }

// Track registers an instrument so it shows up in Balances with zero quantity.
func (p *Portfolio) Track(instrument common.Instrument) {
	p.track(instrument)
}

func (p *Portfolio) track(instrument common.Instrument) {
	id := instrument.ID()
	if _, ok := p.instruments[id]; ok {
		return
	}
	p.instruments[id] = instrument
	p.balances[id] = common.NewAsset(instrument, fixed.Zero)
}

// Balance returns the holdings of an instrument, zero when none are held.
func (p *Portfolio) Balance(instrument common.Instrument) common.Asset {
	if balance, ok := p.balances[instrument.ID()]; ok {
		return balance
	}
	return common.NewAsset(instrument, fixed.Zero)
}

// Balances returns every tracked balance ordered by symbol.
func (p *Portfolio) Balances() []common.Asset {
	balances := make([]common.Asset, 0, len(p.balances))
	for _, instrument := range p.Instruments() {
		balances = append(balances, p.balances[instrument.ID()])
	}
	return balances
}

// Instruments returns every tracked instrument ordered by symbol.
func (p *Portfolio) Instruments() []common.Instrument {
	instruments := make([]common.Instrument, 0, len(p.instruments))
	for _, instrument := range p.instruments {
		instruments = append(instruments, instrument)
	}
	sort.Slice(instruments, func(i, j int) bool {
		if instruments[i].Symbol != instruments[j].Symbol {
			return instruments[i].Symbol < instruments[j].Symbol
		}
		return instruments[i].Precision < instruments[j].Precision
	})
	return instruments
}

func (p *Portfolio) IncreaseHoldings(asset common.Asset) error {
	p.track(asset.Instrument())
	id := asset.Instrument().ID()

	balance, err := p.balances[id].Add(asset)
	if err != nil {
		return err
	}
	p.balances[id] = balance
	p.mutated()
	return nil
}

// DecreaseHoldings fails without side effects when the balance would turn negative.
func (p *Portfolio) DecreaseHoldings(asset common.Asset) error {
	current := p.Balance(asset.Instrument())

	balance, err := current.Sub(asset)
	if err != nil {
		return err
	}
	if balance.Sign() < 0 {
		return fmt.Errorf("%w: holding %s, need %s", ErrInsufficientHoldings, current, asset)
	}

	p.track(asset.Instrument())
	p.balances[asset.Instrument().ID()] = balance
	p.mutated()
	return nil
}

// Value returns the cached valuation, if still valid.
func (p *Portfolio) Value() (common.Asset, bool) {
	return p.value, p.valued
}

// SetValue caches a fresh valuation and appends it to the value history. A
// second valuation at the same instant replaces the last history entry.
func (p *Portfolio) SetValue(ts time.Time, value common.Asset) {
	p.value, p.valued = value, true

	point := ValuePoint{TimeStamp: ts, Value: value}
	if n := len(p.valueHistory); n > 0 && p.valueHistory[n-1].TimeStamp.Equal(ts) {
		p.valueHistory[n-1] = point
	} else {
		p.valueHistory = append(p.valueHistory, point)
	}
	p.version++
}

// Invalidate drops the cached valuation. It runs on every clock tick and
// every balance mutation.
func (p *Portfolio) Invalidate() {
	p.valued = false
}

// RecordTrade appends the trade to the history and feeds the open-position
// stack. It returns the positions the trade closed.
func (p *Portfolio) RecordTrade(trade common.Trade) []common.ClosedPosition {
	p.tradeHistory = append(p.tradeHistory, trade)
	closed := p.positions.HandleTrade(trade)
	p.positionHistory = append(p.positionHistory, closed...)
	p.version++
	return closed
}

func (p *Portfolio) ValueHistory() []ValuePoint {
	return append([]ValuePoint(nil), p.valueHistory...)
}

func (p *Portfolio) TradeHistory() []common.Trade {
	return append([]common.Trade(nil), p.tradeHistory...)
}

func (p *Portfolio) PositionHistory() []common.ClosedPosition {
	return append([]common.ClosedPosition(nil), p.positionHistory...)
}

func (p *Portfolio) Positions() *Positions {
	return p.positions
}

// Version increases with every mutation and recorded valuation.
func (p *Portfolio) Version() uint64 {
	return p.version
}

func (p *Portfolio) mutated() {
	p.Invalidate()
	p.version++
}
