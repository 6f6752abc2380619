package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peter-kozarec/merchant/pkg/utility/fixed"
)

func TestInstrument_New(t *testing.T) {
	tests := []struct {
		name      string
		symbol    string
		precision int
		wantErr   bool
	}{
		{"valid", "TEST", 4, false},
		{"zero precision", "IDX", 0, false},
		{"empty symbol", "  ", 2, true},
		{"negative precision", "TEST", -1, true},
		{"precision too large", "TEST", fixed.MaxScale + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewInstrument(tt.symbol, tt.precision, "")
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInstrument)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestInstrument_EqualityIgnoresDescription(t *testing.T) {
	a := MustInstrument("TEST", 4, "first")
	b := MustInstrument("TEST", 4, "second")
	c := MustInstrument("TEST", 2, "first")

	assert.True(t, a.Equal(b))
	assert.Equal(t, a.ID(), b.ID())
	assert.False(t, a.Equal(c))
}

func TestAsset_Truncation(t *testing.T) {
	tests := []struct {
		name      string
		precision int
		quantity  string
		want      string
	}{
		{"truncates extra digits", 2, "1.239", "1.23"},
		{"never rounds up", 4, "0.99999", "0.9999"},
		{"negative toward zero", 2, "-1.239", "-1.23"},
		{"pads to precision", 4, "5", "5.0000"},
		{"integral instrument", 0, "7.99", "7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			instrument := MustInstrument("TEST", tt.precision, "")
			asset := NewAsset(instrument, fixed.MustParse(tt.quantity))
			assert.Equal(t, tt.want, asset.Quantity().String())
		})
	}
}

func TestAsset_Arithmetic(t *testing.T) {
	a := USD.Of(fixed.MustParse("100.25"))
	b := USD.Of(fixed.MustParse("0.75"))

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, "101.00", sum.Quantity().String())

	back, err := sum.Sub(b)
	require.NoError(t, err)
	assert.True(t, back.Equal(a), "(a+b)-b must equal a, got %s", back)

	commuted, err := b.Add(a)
	require.NoError(t, err)
	assert.True(t, commuted.Equal(sum), "a+b must equal b+a")

	product, err := a.Mul(USD.Of(fixed.Two))
	require.NoError(t, err)
	assert.Equal(t, "200.50", product.Quantity().String())

	ratio, err := USD.Of(fixed.FromInt(10, 0)).Div(USD.Of(fixed.FromInt(3, 0)))
	require.NoError(t, err)
	assert.Equal(t, "3.33", ratio.Quantity().String())

	cmp, err := a.Cmp(b)
	require.NoError(t, err)
	assert.Equal(t, 1, cmp)

	assert.Equal(t, "-100.25", a.Neg().Quantity().String())
}

func TestAsset_MismatchedInstrument(t *testing.T) {
	usd := USD.Of(fixed.One)
	eur := EUR.Of(fixed.One)

	ops := map[string]func() error{
		"add": func() error { _, err := usd.Add(eur); return err },
		"sub": func() error { _, err := usd.Sub(eur); return err },
		"mul": func() error { _, err := usd.Mul(eur); return err },
		"div": func() error { _, err := usd.Div(eur); return err },
		"cmp": func() error { _, err := usd.Cmp(eur); return err },
	}

	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, op(), ErrMismatchedInstrument)
		})
	}
}

func TestAsset_DivisionByZero(t *testing.T) {
	_, err := USD.Of(fixed.One).Div(USD.Of(fixed.Zero))
	assert.ErrorIs(t, err, ErrDivisionByZero)

	_, err = USD.Of(fixed.One).ScaleDiv(fixed.Zero)
	assert.ErrorIs(t, err, ErrDivisionByZero)
}

func TestAsset_Scale(t *testing.T) {
	asset := BTC.Of(fixed.MustParse("0.12345678"))

	assert.Equal(t, "0.06172839", asset.Scale(fixed.PointFive).Quantity().String())

	divided, err := asset.ScaleDiv(fixed.Two)
	require.NoError(t, err)
	assert.Equal(t, "0.06172839", divided.Quantity().String())
	assert.Equal(t, "0.12345678 BTC", asset.String())
}
