package duckdb

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

func testCandles() []common.Candle {
	var candles []common.Candle
	for i, symbol := range []string{"AAA", "BBB"} {
		for minute := 0; minute < 5; minute++ {
			price := fixed.FromInt(100*(i+1)+minute, 0)
			candles = append(candles, common.Candle{
				Symbol:    symbol,
				TimeStamp: start.Add(time.Duration(minute) * time.Minute),
				Open:      price,
				High:      price.Add(fixed.One),
				Low:       price.Sub(fixed.One),
				Close:     price,
				Volume:    fixed.FromInt(10, 0),
				Trades:    int64(minute),
				VWPrice:   price,
			})
		}
	}
	return candles
}

func openTestStore(t *testing.T) *Store {
	root := t.TempDir()
	require.NoError(t, WriteParquet(context.Background(), root, testCandles()))

	store, err := Open(context.Background(), root)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestDuckDBStore_OpenErrors(t *testing.T) {
	ctx := context.Background()

	_, err := Open(ctx, filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, datasource.ErrDatasetNotFound)

	_, err = Open(ctx, t.TempDir())
	assert.ErrorIs(t, err, datasource.ErrEmptyDataset)
}

func TestDuckDBStore_SchemaMismatch(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "ticker=AAA"), 0o750))

	store, err := Open(context.Background(), root)
	if err == nil {
		_ = store.Close()
	}
	// A partition without parquet files counts as an empty dataset.
	assert.ErrorIs(t, err, datasource.ErrEmptyDataset)

	db := openRaw(t)
	_, err = db.ExecContext(context.Background(), `COPY (SELECT TIMESTAMP '2024-01-01' AS "timestamp", 1.0 AS open)
		TO '`+filepath.Join(root, "ticker=AAA", "data.parquet")+`' (FORMAT PARQUET)`)
	require.NoError(t, err)

	_, err = Open(context.Background(), root)
	assert.ErrorIs(t, err, datasource.ErrSchemaMismatch)
}

func TestDuckDBStore_Tickers(t *testing.T) {
	tickers, err := openTestStore(t).Tickers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"AAA", "BBB"}, tickers)
}

func TestDuckDBStore_Slice(t *testing.T) {
	store := openTestStore(t)

	candles, err := store.Slice(context.Background(), start.Add(time.Minute), start.Add(3*time.Minute))
	require.NoError(t, err)
	require.Len(t, candles, 4)

	first := candles[0]
	assert.Equal(t, "AAA", first.Symbol)
	assert.True(t, first.TimeStamp.Equal(start.Add(time.Minute)))
	assert.True(t, first.Open.Eq(fixed.FromInt(101, 0)))
	assert.True(t, first.High.Eq(fixed.FromInt(102, 0)))
	assert.Equal(t, int64(1), first.Trades)

	assert.Equal(t, "BBB", candles[1].Symbol)
	assert.True(t, candles[3].TimeStamp.Equal(start.Add(2*time.Minute)))
}

func TestDuckDBStore_Get(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	backward, err := store.Get(ctx, start.Add(150*time.Second), 2, datasource.Backward)
	require.NoError(t, err)
	require.Len(t, backward, 4)
	assert.True(t, backward[0].TimeStamp.Equal(start.Add(time.Minute)))
	assert.True(t, backward[3].TimeStamp.Equal(start.Add(2*time.Minute)))

	forward, err := store.Get(ctx, start.Add(4*time.Minute), 3, datasource.Forward)
	require.NoError(t, err)
	require.Len(t, forward, 2)
	assert.True(t, forward[0].TimeStamp.Equal(start.Add(4*time.Minute)))

	none, err := store.Get(ctx, start.Add(-time.Minute), 1, datasource.Backward)
	require.NoError(t, err)
	assert.Empty(t, none)
}
