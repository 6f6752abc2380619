package fixed

import (
	"testing"
)

func TestFixedPoint_FromInt64(t *testing.T) {
	tests := []struct {
		name  string
		value int64
		scale int
		want  string
	}{
		{"zero", 0, 0, "0"},
		{"positive", 123, 0, "123"},
		{"negative", -456, 0, "-456"},
		{"with scale", 123, 2, "1.23"},
		{"negative with scale", -456, 3, "-0.456"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromInt64(tt.value, tt.scale)
			if got.String() != tt.want {
				t.Errorf("FromInt64(%d, %d) = %s; want %s", tt.value, tt.scale, got.String(), tt.want)
			}
		})
	}
}

func TestFixedPoint_Parse(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    string
		wantErr bool
	}{
		{"integer", "100", "100", false},
		{"keeps scale", "12.3400", "12.3400", false},
		{"negative", "-0.5", "-0.5", false},
		{"garbage", "abc", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.value)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Parse(%q) expected error", tt.value)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.value, err)
			}
			if got.String() != tt.want {
				t.Errorf("Parse(%q) = %s; want %s", tt.value, got.String(), tt.want)
			}
		})
	}
}

func TestFixedPoint_Trunc(t *testing.T) {
	tests := []struct {
		name  string
		value string
		scale int
		want  string
	}{
		{"drops digits", "1.23456", 2, "1.23"},
		{"never rounds up", "1.999", 2, "1.99"},
		{"toward zero for negatives", "-1.999", 2, "-1.99"},
		{"shorter scale kept", "1.2", 4, "1.2"},
		{"integer", "7.9", 0, "7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MustParse(tt.value).Trunc(tt.scale)
			if got.String() != tt.want {
				t.Errorf("Trunc(%s, %d) = %s; want %s", tt.value, tt.scale, got.String(), tt.want)
			}
		})
	}
}

func TestFixedPoint_PadAndRound(t *testing.T) {
	if got := MustParse("1.2").Pad(4).String(); got != "1.2000" {
		t.Errorf("Pad = %s; want 1.2000", got)
	}
	if got := MustParse("1.23456").Pad(2).String(); got != "1.23456" {
		t.Errorf("Pad must not drop digits, got %s", got)
	}
	if got := MustParse("99.999999999").Round(8).String(); got != "100.00000000" {
		t.Errorf("Round = %s; want 100.00000000", got)
	}
}

func TestFixedPoint_Inv(t *testing.T) {
	if got := FromInt64(100, 0).Inv(); !got.Eq(MustParse("0.01")) {
		t.Errorf("Inv(100) = %s; want 0.01", got)
	}
	if got := MustParse("0.25").Inv(); !got.Eq(FromInt64(4, 0)) {
		t.Errorf("Inv(0.25) = %s; want 4", got)
	}
}

func TestFixedPoint_InvPanic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Inv of zero should panic")
		}
	}()
	Zero.Inv()
}

func TestFixedPoint_Arithmetic(t *testing.T) {
	a := MustParse("10.5")
	b := MustParse("2.25")

	tests := []struct {
		name string
		got  Point
		want string
	}{
		{"add", a.Add(b), "12.75"},
		{"sub", a.Sub(b), "8.25"},
		{"mul", a.Mul(b), "23.625"},
		{"div", a.Div(FromInt64(2, 0)), "5.25"},
		{"mul int", a.MulInt(2), "21.0"},
		{"div int", a.DivInt(3), "3.5"},
		{"neg", a.Neg(), "-10.5"},
		{"abs", a.Neg().Abs(), "10.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.got.Eq(MustParse(tt.want)) {
				t.Errorf("got %s; want %s", tt.got, tt.want)
			}
		})
	}
}

func TestFixedPoint_DivPanic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("division by zero should panic")
		}
	}()
	One.Div(Zero)
}

func TestFixedPoint_Comparisons(t *testing.T) {
	a := FromInt64(1, 0)
	b := FromInt64(2, 0)

	if !a.Lt(b) || !b.Gt(a) || !a.Lte(a) || !a.Gte(a) || a.Eq(b) {
		t.Errorf("comparison mismatch for %s and %s", a, b)
	}
	if a.Cmp(b) != -1 || b.Cmp(a) != 1 || a.Cmp(a) != 0 {
		t.Errorf("Cmp mismatch for %s and %s", a, b)
	}
	if a.Min(b) != a || a.Max(b) != b {
		t.Errorf("Min/Max mismatch for %s and %s", a, b)
	}
	if !MustParse("1.00").Eq(One) {
		t.Errorf("equality must ignore trailing zeros")
	}
	if NegOne.Sign() != -1 || Zero.Sign() != 0 || One.Sign() != 1 {
		t.Errorf("Sign mismatch")
	}
}

func TestFixedPoint_TextRoundTrip(t *testing.T) {
	var p Point
	if err := p.UnmarshalText([]byte("42.4200")); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	text, err := p.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}
	if string(text) != "42.4200" {
		t.Errorf("MarshalText = %s; want 42.4200", text)
	}
}

func TestFixedConstants_Values(t *testing.T) {
	tests := []struct {
		name     string
		constant Point
		want     string
	}{
		{"NegOne", NegOne, "-1"},
		{"Zero", Zero, "0"},
		{"One", One, "1"},
		{"Two", Two, "2"},
		{"Ten", Ten, "10"},
		{"Hundred", Hundred, "100"},
		{"PointOne", PointOne, "0.1"},
		{"PointFive", PointFive, "0.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.constant.String(); got != tt.want {
				t.Errorf("%s = %s; want %s", tt.name, got, tt.want)
			}
		})
	}

	if got := Sqrt252.Mul(Sqrt252).Round(6); !got.Eq(FromInt64(252, 0)) {
		t.Errorf("Sqrt252^2 = %s; want 252", got)
	}
}

func BenchmarkFixedPoint_Mul(b *testing.B) {
	x := MustParse("101.2345")
	y := MustParse("0.9876")
	for i := 0; i < b.N; i++ {
		_ = x.Mul(y)
	}
}
