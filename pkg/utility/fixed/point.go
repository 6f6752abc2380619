package fixed

import (
	"fmt"

	"github.com/govalues/decimal"
)

// MaxScale is the largest number of fractional digits a Point can carry.
const MaxScale = decimal.MaxScale

// Point is an unsafe wrapper around decimal implementation. Caller must make sure the calculations
// are correct and will not result in an error state, otherwise it will panic
type Point struct {
	v decimal.Decimal
}

func FromInt(value int, scale int) Point {
	return Point{must(decimal.New(int64(value), scale))}
}

func FromInt64(value int64, scale int) Point {
	return Point{must(decimal.New(value, scale))}
}

func FromFloat64(value float64) Point {
	return Point{must(decimal.NewFromFloat64(value))}
}

// Parse converts a decimal string such as "12.3400" into a Point, keeping its scale.
func Parse(value string) (Point, error) {
	d, err := decimal.Parse(value)
	if err != nil {
		return Point{}, fmt.Errorf("unable to parse %q: %w", value, err)
	}
	return Point{d}, nil
}

func MustParse(value string) Point {
	return Point{decimal.MustParse(value)}
}

func (p Point) String() string           { return p.v.String() }
func (p Point) Float64() (float64, bool) { return p.v.Float64() }

func (p Point) Abs() Point { return Point{p.v.Abs()} }
func (p Point) Neg() Point { return Point{p.v.Neg()} }

func (p Point) Add(o Point) Point { return Point{must(p.v.Add(o.v))} }
func (p Point) Sub(o Point) Point { return Point{must(p.v.Sub(o.v))} }
func (p Point) Mul(o Point) Point { return Point{must(p.v.Mul(o.v))} }
func (p Point) Div(o Point) Point { return Point{must(p.v.Quo(o.v))} }
func (p Point) Inv() Point        { return Point{must(p.v.Inv())} }

func (p Point) MulInt64(o int64) Point { return Point{must(p.v.Mul(decimal.MustNew(o, 0)))} }
func (p Point) MulInt(o int) Point     { return Point{must(p.v.Mul(decimal.MustNew(int64(o), 0)))} }
func (p Point) DivInt64(o int64) Point { return Point{must(p.v.Quo(decimal.MustNew(o, 0)))} }
func (p Point) DivInt(o int) Point     { return Point{must(p.v.Quo(decimal.MustNew(int64(o), 0)))} }

func (p Point) Cmp(o Point) int  { return p.v.Cmp(o.v) }
func (p Point) Eq(o Point) bool  { return p.v.Cmp(o.v) == 0 }
func (p Point) Gt(o Point) bool  { return p.v.Cmp(o.v) > 0 }
func (p Point) Lt(o Point) bool  { return p.v.Cmp(o.v) < 0 }
func (p Point) Gte(o Point) bool { return p.v.Cmp(o.v) >= 0 }
func (p Point) Lte(o Point) bool { return p.v.Cmp(o.v) <= 0 }

func (p Point) Min(o Point) Point {
	if p.Lte(o) {
		return p
	}
	return o
}

func (p Point) Max(o Point) Point {
	if p.Gte(o) {
		return p
	}
	return o
}

func (p Point) Sign() int               { return p.v.Sign() }
func (p Point) IsZero() bool            { return p.v.IsZero() }
func (p Point) IsNeg() bool             { return p.v.IsNeg() }
func (p Point) IsPos() bool             { return p.v.IsPos() }
func (p Point) Scale() int              { return p.v.Scale() }
func (p Point) Rescale(scale int) Point { return Point{p.v.Rescale(scale)} }

// Trunc drops digits beyond scale, rounding toward zero.
func (p Point) Trunc(scale int) Point { return Point{p.v.Trunc(scale)} }

// Round rounds half to even to the given scale.
func (p Point) Round(scale int) Point { return Point{p.v.Round(scale)} }

// Pad appends trailing zeros up to scale. It never removes digits.
func (p Point) Pad(scale int) Point { return Point{p.v.Pad(scale)} }

// Trim removes trailing zeros down to scale.
func (p Point) Trim(scale int) Point { return Point{p.v.Trim(scale)} }

func (p Point) Pow(o Point) Point { return Point{must(p.v.Pow(o.v))} }
func (p Point) Sqrt() Point       { return Point{must(p.v.Sqrt())} }

func (p Point) Exp() Point { return Point{must(p.v.Exp())} }
func (p Point) Log() Point { return Point{must(p.v.Log())} }

func (p Point) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Point) UnmarshalText(text []byte) error {
	d, err := decimal.Parse(string(text))
	if err != nil {
		return err
	}
	p.v = d
	return nil
}

func must(v decimal.Decimal, err error) decimal.Decimal {
	if err == nil {
		// Return in the happy path
		return v
	}
	panic(err)
}
