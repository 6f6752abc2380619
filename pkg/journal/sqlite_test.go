package journal

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peter-kozarec/merchant/pkg/common"
	"github.com/peter-kozarec/merchant/pkg/utility"
	"github.com/peter-kozarec/merchant/pkg/utility/fixed"
)

var (
	start = time.Date(2024, 1, 2, 3, 4, 0, 0, time.UTC)
	btc   = common.BTC
)

func p(v string) fixed.Point { return fixed.MustParse(v) }

func newTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := NewSQLite(context.Background(), path, Run{Name: "test", Seed: 7, Quote: "USD", StartedAt: start})
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j, path
}

func trade(tid utility.TraceID, pair common.TradingPair, bought, sold string, ts time.Time) common.Trade {
	return common.Trade{
		TraceID:   tid,
		OrderID:   utility.NewExecutionID(),
		Pair:      pair,
		Bought:    common.NewAsset(pair.Buy, p(bought)),
		Sold:      common.NewAsset(pair.Sell, p(sold)),
		Fees:      common.NewAsset(pair.Sell, fixed.Zero),
		TimeStamp: ts,
	}
}

func TestSQLite_SchemaCreated(t *testing.T) {
	j, path := newTestSQLite(t)
	require.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var count int
	err = db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table'
		AND name IN ('runs','trades','closed_positions','valuations')`).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestSQLite_Runs(t *testing.T) {
	j, _ := newTestSQLite(t)

	runs, err := j.Runs(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, j.Run().ID, runs[0].ID)
	assert.Equal(t, "test", runs[0].Name)
	assert.Equal(t, int64(7), runs[0].Seed)
	assert.True(t, runs[0].StartedAt.Equal(start))
}

func TestSQLite_RecordTrade(t *testing.T) {
	j, _ := newTestSQLite(t)
	ctx := context.Background()

	buy := trade(1, common.MustTradingPair(btc, common.USD), "0.5", "20000", start)
	require.NoError(t, j.RecordTrade(ctx, buy))

	trades, err := j.ListTradesByRunID(ctx, j.Run().ID)
	require.NoError(t, err)
	require.Len(t, trades, 1)

	got := trades[0]
	assert.Equal(t, utility.TraceID(1), got.TraceID)
	assert.Equal(t, buy.OrderID.String(), got.OrderID)
	assert.Equal(t, "BTC", got.Bought)
	assert.True(t, got.BoughtQty.Eq(p("0.5")))
	assert.Equal(t, "USD", got.Sold)
	assert.True(t, got.SoldQty.Eq(p("20000")))
	assert.True(t, got.FeesQty.IsZero())
	assert.True(t, got.TimeStamp.Equal(start))
}

func TestSQLite_RecordClosedPosition(t *testing.T) {
	j, _ := newTestSQLite(t)
	ctx := context.Background()

	open := trade(1, common.MustTradingPair(btc, common.USD), "1", "40000", start)
	closing := trade(2, common.MustTradingPair(common.USD, btc), "42000", "1", start.Add(time.Hour))
	position := common.ClosedPosition{Amount: common.NewAsset(btc, fixed.One), Open: open, Close: closing}

	require.NoError(t, j.RecordClosedPosition(ctx, position))

	positions, err := j.ListPositionsByRunID(ctx, j.Run().ID)
	require.NoError(t, err)
	require.Len(t, positions, 1)

	got := positions[0]
	assert.Equal(t, "BTC", got.Instrument)
	assert.Equal(t, utility.TraceID(1), got.OpenTID)
	assert.Equal(t, utility.TraceID(2), got.CloseTID)
	assert.True(t, got.OpenRate.Eq(p("40000")))
	assert.True(t, got.CloseRate.Eq(p("42000")))
	assert.True(t, got.RealizedPL.Eq(p("2000")))
	assert.True(t, got.ClosedAt.Equal(start.Add(time.Hour)))
}

func TestSQLite_RecordValuation(t *testing.T) {
	j, _ := newTestSQLite(t)
	ctx := context.Background()

	for i, v := range []string{"1000", "1010.5", "990.25"} {
		ts := start.Add(time.Duration(i) * time.Minute)
		require.NoError(t, j.RecordValuation(ctx, ts, common.NewAsset(common.USD, p(v))))
	}

	valuations, err := j.ListValuationsByRunID(ctx, j.Run().ID)
	require.NoError(t, err)
	require.Len(t, valuations, 3)
	assert.True(t, valuations[1].Value.Eq(p("1010.5")))
	assert.Equal(t, "USD", valuations[2].Instrument)
}

func TestSQLite_RunsAreIsolated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	ctx := context.Background()

	first, err := NewSQLite(ctx, path, Run{Name: "first", Quote: "USD"})
	require.NoError(t, err)
	defer first.Close()
	second, err := NewSQLite(ctx, path, Run{Name: "second", Quote: "USD"})
	require.NoError(t, err)
	defer second.Close()

	require.NoError(t, first.RecordValuation(ctx, start, common.NewAsset(common.USD, fixed.One)))

	valuations, err := second.ListValuationsByRunID(ctx, second.Run().ID)
	require.NoError(t, err)
	assert.Empty(t, valuations)

	runs, err := second.Runs(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestSQLite_OpenWithoutRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	ctx := context.Background()

	j, err := Open(ctx, path)
	require.NoError(t, err)
	defer j.Close()

	err = j.RecordValuation(ctx, start, common.NewAsset(common.USD, fixed.One))
	assert.ErrorIs(t, err, ErrNoRun)

	require.NoError(t, j.StartRun(ctx, Run{Name: "late", Quote: "USD"}))
	require.NoError(t, j.RecordValuation(ctx, start, common.NewAsset(common.USD, fixed.One)))

	runs, err := j.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "late", runs[0].Name)
}

func TestSQLite_EpisodesShareTraceIDs(t *testing.T) {
	j, _ := newTestSQLite(t)
	ctx := context.Background()
	pair := common.MustTradingPair(btc, common.USD)

	require.NoError(t, j.RecordTrade(ctx, trade(1, pair, "1", "100", start)))
	j.MarkEpisode(1)
	require.NoError(t, j.RecordTrade(ctx, trade(1, pair, "1", "100", start)))

	trades, err := j.ListTradesByRunID(ctx, j.Run().ID)
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, 0, trades[0].Episode)
	assert.Equal(t, 1, trades[1].Episode)
	assert.Equal(t, trades[0].TraceID, trades[1].TraceID)
}

func TestSQLite_Fingerprint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	ctx := context.Background()

	j, err := NewSQLite(ctx, path, Run{Name: "fp", Quote: "USD", Fingerprint: "00ff"})
	require.NoError(t, err)
	defer j.Close()

	runs, err := j.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "00ff", runs[0].Fingerprint)
}
