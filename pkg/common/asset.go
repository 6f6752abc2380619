package common

import (
	"fmt"

	"github.com/peter-kozarec/merchant/pkg/utility/fixed"
	"go.uber.org/zap"
)

// Asset is a quantity of an instrument. The quantity is truncated, never
// rounded, to the instrument precision.
type Asset struct {
	instrument Instrument
	quantity   fixed.Point
}

func NewAsset(instrument Instrument, quantity fixed.Point) Asset {
	return Asset{
		instrument: instrument,
		quantity:   quantity.Trunc(instrument.Precision).Pad(instrument.Precision),
	}
}

func (a Asset) Instrument() Instrument { return a.instrument }
func (a Asset) Quantity() fixed.Point  { return a.quantity }
func (a Asset) IsZero() bool           { return a.quantity.IsZero() }
func (a Asset) Sign() int              { return a.quantity.Sign() }

func (a Asset) Neg() Asset {
	return Asset{instrument: a.instrument, quantity: a.quantity.Neg()}
}

func (a Asset) Add(o Asset) (Asset, error) {
	if err := a.check(o); err != nil {
		return Asset{}, err
	}
	return NewAsset(a.instrument, a.quantity.Add(o.quantity)), nil
}

func (a Asset) Sub(o Asset) (Asset, error) {
	if err := a.check(o); err != nil {
		return Asset{}, err
	}
	return NewAsset(a.instrument, a.quantity.Sub(o.quantity)), nil
}

func (a Asset) Mul(o Asset) (Asset, error) {
	if err := a.check(o); err != nil {
		return Asset{}, err
	}
	return NewAsset(a.instrument, a.quantity.Mul(o.quantity)), nil
}

func (a Asset) Div(o Asset) (Asset, error) {
	if err := a.check(o); err != nil {
		return Asset{}, err
	}
	if o.quantity.IsZero() {
		return Asset{}, fmt.Errorf("%w: %s / %s", ErrDivisionByZero, a, o)
	}
	return NewAsset(a.instrument, a.quantity.Div(o.quantity)), nil
}

func (a Asset) Cmp(o Asset) (int, error) {
	if err := a.check(o); err != nil {
		return 0, err
	}
	return a.quantity.Cmp(o.quantity), nil
}

// Scale multiplies the quantity by a plain number.
func (a Asset) Scale(factor fixed.Point) Asset {
	return NewAsset(a.instrument, a.quantity.Mul(factor))
}

// ScaleDiv divides the quantity by a plain number.
func (a Asset) ScaleDiv(divisor fixed.Point) (Asset, error) {
	if divisor.IsZero() {
		return Asset{}, fmt.Errorf("%w: %s / 0", ErrDivisionByZero, a)
	}
	return NewAsset(a.instrument, a.quantity.Div(divisor)), nil
}

func (a Asset) Equal(o Asset) bool {
	return a.instrument.Equal(o.instrument) && a.quantity.Eq(o.quantity)
}

func (a Asset) String() string {
	return a.quantity.String() + " " + a.instrument.Symbol
}

func (a Asset) Field(key string) zap.Field {
	return zap.String(key, a.String())
}

func (a Asset) check(o Asset) error {
	if !a.instrument.Equal(o.instrument) {
		return fmt.Errorf("%w: %s and %s", ErrMismatchedInstrument, a.instrument.ID(), o.instrument.ID())
	}
	return nil
}
