package historical

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peter-kozarec/merchant/pkg/common"
	"github.com/peter-kozarec/merchant/pkg/datasource"
	"github.com/peter-kozarec/merchant/pkg/utility/fixed"
)

var start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func writeSeries(t *testing.T, dir, symbol string, base int, minutes int) {
	var candles []common.Candle
	for m := 0; m < minutes; m++ {
		price := fixed.FromInt(base+m, 0)
		candles = append(candles, common.Candle{
			Symbol:    symbol,
			TimeStamp: start.Add(time.Duration(m) * time.Minute),
			Open:      price,
			High:      price.Add(fixed.PointFive),
			Low:       price.Sub(fixed.PointFive),
			Close:     price,
			Volume:    fixed.Ten,
			Trades:    int64(m + 1),
			VWPrice:   price,
		})
	}
	require.NoError(t, WriteFile(filepath.Join(dir, symbol+FileExtension), candles))
}

func openTestStore(t *testing.T) *Store {
	dir := t.TempDir()
	writeSeries(t, dir, "AAA", 100, 10)
	writeSeries(t, dir, "BBB", 200, 5)

	store, err := Open(dir, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestHistoricalStore_OpenErrors(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing"), nil)
	assert.ErrorIs(t, err, datasource.ErrDatasetNotFound)

	_, err = Open(t.TempDir(), nil)
	assert.ErrorIs(t, err, datasource.ErrEmptyDataset)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "BAD"+FileExtension), []byte{1, 2, 3}, 0o600))
	_, err = Open(dir, nil)
	assert.ErrorIs(t, err, datasource.ErrSchemaMismatch)
}

func TestHistoricalStore_Slice(t *testing.T) {
	store := openTestStore(t)

	candles, err := store.Slice(context.Background(), start.Add(3*time.Minute), start.Add(6*time.Minute))
	require.NoError(t, err)
	require.Len(t, candles, 5)

	assert.Equal(t, "AAA", candles[0].Symbol)
	assert.True(t, candles[0].Open.Eq(fixed.FromInt(103, 0)))
	assert.True(t, candles[0].High.Eq(fixed.MustParse("103.5")))
	assert.Equal(t, int64(4), candles[0].Trades)
	assert.Equal(t, "BBB", candles[1].Symbol)
	assert.Equal(t, "AAA", candles[4].Symbol, "BBB ends at minute 4")
}

func TestHistoricalStore_Get(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	backward, err := store.Get(ctx, start.Add(8*time.Minute+30*time.Second), 2, datasource.Backward)
	require.NoError(t, err)
	require.Len(t, backward, 4)
	assert.True(t, backward[0].TimeStamp.Equal(start.Add(3*time.Minute)), "BBB's last two")
	assert.True(t, backward[3].TimeStamp.Equal(start.Add(8*time.Minute)))

	forward, err := store.Get(ctx, start.Add(9*time.Minute), 5, datasource.Forward)
	require.NoError(t, err)
	require.Len(t, forward, 1)
	assert.Equal(t, "AAA", forward[0].Symbol)
}

func TestHistoricalSource_ReadOutOfRange(t *testing.T) {
	store := openTestStore(t)

	var entry BinaryCandle
	assert.ErrorIs(t, store.sources["AAA"].Read(10, &entry), ErrEof)
	assert.ErrorIs(t, store.sources["AAA"].Read(-1, &entry), ErrEof)
	require.NoError(t, store.sources["AAA"].Read(9, &entry))
	assert.Equal(t, start.Add(9*time.Minute).UnixNano(), entry.TimeStamp)
}
