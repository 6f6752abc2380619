package common

import (
	"fmt"
	"strings"

	"github.com/peter-kozarec/merchant/pkg/utility/fixed"
	"go.uber.org/zap"
)

var (
	USD = MustInstrument("USD", 2, "US Dollar")
	EUR = MustInstrument("EUR", 2, "Euro")
	GBP = MustInstrument("GBP", 2, "Pound Sterling")
	CHF = MustInstrument("CHF", 2, "Swiss Franc")
	BTC = MustInstrument("BTC", 8, "Bitcoin")
	ETH = MustInstrument("ETH", 8, "Ethereum")
)

// InstrumentID is the identity of an instrument. Two instruments with the same
// symbol and precision are the same instrument regardless of description.
type InstrumentID struct {
	Symbol    string
	Precision int
}

func (id InstrumentID) String() string {
	return fmt.Sprintf("%s/%d", id.Symbol, id.Precision)
}

type Instrument struct {
	Symbol      string `json:"symbol"`
	Precision   int    `json:"precision"`
	Description string `json:"description,omitempty"`
}

func NewInstrument(symbol string, precision int, description string) (Instrument, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return Instrument{}, fmt.Errorf("%w: empty symbol", ErrInvalidInstrument)
	}
	if precision < 0 || precision > fixed.MaxScale {
		return Instrument{}, fmt.Errorf("%w: precision %d of %s out of range [0, %d]", ErrInvalidInstrument, precision, symbol, fixed.MaxScale)
	}
	return Instrument{Symbol: symbol, Precision: precision, Description: description}, nil
}

func MustInstrument(symbol string, precision int, description string) Instrument {
	instrument, err := NewInstrument(symbol, precision, description)
	if err != nil {
		panic(err)
	}
	return instrument
}

func (i Instrument) ID() InstrumentID {
	return InstrumentID{Symbol: i.Symbol, Precision: i.Precision}
}

func (i Instrument) Equal(o Instrument) bool {
	return i.ID() == o.ID()
}

// IsZero reports an unset instrument, used for the open side of a virtual pair.
func (i Instrument) IsZero() bool {
	return i.Symbol == ""
}

// Of builds an asset of this instrument.
func (i Instrument) Of(quantity fixed.Point) Asset {
	return NewAsset(i, quantity)
}

func (i Instrument) String() string {
	return i.Symbol
}

func (i Instrument) Fields() []zap.Field {
	return []zap.Field{
		zap.String("symbol", i.Symbol),
		zap.Int("precision", i.Precision),
	}
}
