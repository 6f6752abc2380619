package historical

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/peter-kozarec/merchant/pkg/common"
	"github.com/peter-kozarec/merchant/pkg/utility/fixed"
)

// BinaryCandle is the on-disk record, one per period, sorted by TimeStamp.
// All fields are eight bytes wide so the layout has no padding.
type BinaryCandle struct {
	TimeStamp int64
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	Trades    int64
	VWPrice   float64
}

func (b BinaryCandle) ToCandle(symbol string) (common.Candle, error) {
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close, b.Volume, b.VWPrice} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return common.Candle{}, fmt.Errorf("non-finite value in %s at %d", symbol, b.TimeStamp)
		}
	}
	return common.Candle{
		Symbol:    symbol,
		TimeStamp: time.Unix(0, b.TimeStamp).UTC(),
		Open:      fixed.FromFloat64(b.Open),
		High:      fixed.FromFloat64(b.High),
		Low:       fixed.FromFloat64(b.Low),
		Close:     fixed.FromFloat64(b.Close),
		Volume:    fixed.FromFloat64(b.Volume),
		Trades:    b.Trades,
		VWPrice:   fixed.FromFloat64(b.VWPrice),
	}, nil
}

func FromCandle(c common.Candle) BinaryCandle {
	f := func(p fixed.Point) float64 {
		v, _ := p.Float64()
		return v
	}
	return BinaryCandle{
		TimeStamp: c.TimeStamp.UnixNano(),
		Open:      f(c.Open),
		High:      f(c.High),
		Low:       f(c.Low),
		Close:     f(c.Close),
		Volume:    f(c.Volume),
		Trades:    c.Trades,
		VWPrice:   f(c.VWPrice),
	}
}

// WriteCandles writes candles of one ticker in the native byte order the
// memory mapped reader expects. Candles must already be sorted.
func WriteCandles(w io.Writer, candles []common.Candle) error {
	for _, c := range candles {
		if err := binary.Write(w, binary.NativeEndian, FromCandle(c)); err != nil {
			return fmt.Errorf("unable to write candle at %s: %w", c.TimeStamp, err)
		}
	}
	return nil
}

// WriteFile stores candles of one ticker at path.
func WriteFile(path string, candles []common.Candle) error {
	file, err := os.Create(path) // #nosec G304
	if err != nil {
		return fmt.Errorf("unable to create %q: %w", path, err)
	}
	if err := WriteCandles(file, candles); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
