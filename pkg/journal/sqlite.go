package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/peter-kozarec/merchant/pkg/common"
	"github.com/peter-kozarec/merchant/pkg/utility"
	"github.com/peter-kozarec/merchant/pkg/utility/fixed"
)

type Run struct {
	ID          utility.ExecutionID
	Name        string
	Seed        int64
	Quote       string
	Fingerprint string
	StartedAt   time.Time
}

type TradeRecord struct {
	Episode   int
	TraceID   utility.TraceID
	OrderID   string
	Bought    string
	BoughtQty fixed.Point
	Sold      string
	SoldQty   fixed.Point
	Fees      string
	FeesQty   fixed.Point
	TimeStamp time.Time
}

type PositionRecord struct {
	Episode    int
	Instrument string
	Amount     fixed.Point
	OpenTID    utility.TraceID
	CloseTID   utility.TraceID
	OpenRate   fixed.Point
	CloseRate  fixed.Point
	RealizedPL fixed.Point
	OpenedAt   time.Time
	ClosedAt   time.Time
}

type ValuationRecord struct {
	Episode    int
	TimeStamp  time.Time
	Instrument string
	Value      fixed.Point
}

var ErrNoRun = errors.New("journal has no active run")

// SQLite journals runs into a single database. Records go to the run started
// last, so a started SQLite satisfies exchange.Recorder.
type SQLite struct {
	db      *sql.DB
	run     Run
	episode int
}

// Open opens (or creates) the journal at path without starting a run.
func Open(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("unable to open journal %s: %w", path, err)
	}

	if _, err := db.ExecContext(ctx, Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("unable to apply journal schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// NewSQLite opens the journal at path and starts run.
func NewSQLite(ctx context.Context, path string, run Run) (*SQLite, error) {
	j, err := Open(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := j.StartRun(ctx, run); err != nil {
		_ = j.Close()
		return nil, err
	}
	return j, nil
}

// StartRun registers run and makes it the target of later records. A zero
// ID or start time is filled in.
func (j *SQLite) StartRun(ctx context.Context, run Run) error {
	if run.ID == (utility.ExecutionID{}) {
		run.ID = utility.NewExecutionID()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	run.StartedAt = run.StartedAt.UTC()

	if _, err := j.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, name, seed, quote, fingerprint, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID.String(), run.Name, run.Seed, run.Quote, run.Fingerprint, run.StartedAt); err != nil {
		return fmt.Errorf("unable to register run %s: %w", run.ID, err)
	}
	j.run = run
	j.episode = 0
	return nil
}

// MarkEpisode tags later records with episode. Trace IDs restart every
// episode, so records are keyed by both.
func (j *SQLite) MarkEpisode(episode int) {
	j.episode = episode
}

func (j *SQLite) active() error {
	if j.run.ID == (utility.ExecutionID{}) {
		return ErrNoRun
	}
	return nil
}

func (j *SQLite) Run() Run { return j.run }

func (j *SQLite) RecordTrade(ctx context.Context, t common.Trade) error {
	if err := j.active(); err != nil {
		return err
	}
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO trades
		(run_id, episode, trace_id, order_id, bought, bought_qty, sold, sold_qty, fees, fees_qty, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.run.ID.String(), j.episode, int64(t.TraceID), t.OrderID.String(),
		t.Bought.Instrument().Symbol, t.Bought.Quantity().String(),
		t.Sold.Instrument().Symbol, t.Sold.Quantity().String(),
		t.Fees.Instrument().Symbol, t.Fees.Quantity().String(),
		t.TimeStamp.UTC(),
	)
	return err
}

func (j *SQLite) RecordClosedPosition(ctx context.Context, p common.ClosedPosition) error {
	if err := j.active(); err != nil {
		return err
	}
	pnl, err := p.RealizedPnL()
	if err != nil {
		return err
	}
	_, err = j.db.ExecContext(ctx, `
		INSERT INTO closed_positions
		(run_id, episode, instrument, amount, open_tid, close_tid, open_rate, close_rate, realized_pl, opened_at, closed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.run.ID.String(), j.episode, p.Amount.Instrument().Symbol, p.Amount.Quantity().String(),
		int64(p.Open.TraceID), int64(p.Close.TraceID),
		p.OpenRate().String(), p.CloseRate().String(), pnl.Quantity().String(),
		p.Open.TimeStamp.UTC(), p.Close.TimeStamp.UTC(),
	)
	return err
}

func (j *SQLite) RecordValuation(ctx context.Context, ts time.Time, value common.Asset) error {
	if err := j.active(); err != nil {
		return err
	}
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO valuations (run_id, episode, ts, instrument, value) VALUES (?, ?, ?, ?, ?)`,
		j.run.ID.String(), j.episode, ts.UTC(), value.Instrument().Symbol, value.Quantity().String(),
	)
	return err
}

// Runs lists every run in the journal, oldest first.
func (j *SQLite) Runs(ctx context.Context) ([]Run, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT run_id, name, seed, quote, fingerprint, started_at FROM runs ORDER BY started_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var id string
		if err := rows.Scan(&id, &run.Name, &run.Seed, &run.Quote, &run.Fingerprint, &run.StartedAt); err != nil {
			return nil, err
		}
		if run.ID, err = utility.ParseExecutionID(id); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (j *SQLite) ListTradesByRunID(ctx context.Context, runID utility.ExecutionID) ([]TradeRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT episode, trace_id, order_id, bought, bought_qty, sold, sold_qty, fees, fees_qty, ts
		FROM trades WHERE run_id = ? ORDER BY episode, trace_id`, runID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []TradeRecord
	for rows.Next() {
		var tr TradeRecord
		var traceID int64
		var boughtQty, soldQty, feesQty string
		if err := rows.Scan(&tr.Episode, &traceID, &tr.OrderID, &tr.Bought, &boughtQty, &tr.Sold, &soldQty,
			&tr.Fees, &feesQty, &tr.TimeStamp); err != nil {
			return nil, err
		}
		tr.TraceID = utility.TraceID(traceID)
		if err := parseAll(
			field{boughtQty, &tr.BoughtQty},
			field{soldQty, &tr.SoldQty},
			field{feesQty, &tr.FeesQty}); err != nil {
			return nil, err
		}
		trades = append(trades, tr)
	}
	return trades, rows.Err()
}

func (j *SQLite) ListPositionsByRunID(ctx context.Context, runID utility.ExecutionID) ([]PositionRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT episode, instrument, amount, open_tid, close_tid, open_rate, close_rate, realized_pl, opened_at, closed_at
		FROM closed_positions WHERE run_id = ? ORDER BY episode, closed_at, open_tid`, runID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []PositionRecord
	for rows.Next() {
		var pr PositionRecord
		var openTID, closeTID int64
		var amount, openRate, closeRate, pnl string
		if err := rows.Scan(&pr.Episode, &pr.Instrument, &amount, &openTID, &closeTID, &openRate, &closeRate, &pnl,
			&pr.OpenedAt, &pr.ClosedAt); err != nil {
			return nil, err
		}
		pr.OpenTID, pr.CloseTID = utility.TraceID(openTID), utility.TraceID(closeTID)
		if err := parseAll(
			field{amount, &pr.Amount},
			field{openRate, &pr.OpenRate},
			field{closeRate, &pr.CloseRate},
			field{pnl, &pr.RealizedPL}); err != nil {
			return nil, err
		}
		positions = append(positions, pr)
	}
	return positions, rows.Err()
}

func (j *SQLite) ListValuationsByRunID(ctx context.Context, runID utility.ExecutionID) ([]ValuationRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT episode, ts, instrument, value FROM valuations WHERE run_id = ? ORDER BY episode, ts`, runID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var valuations []ValuationRecord
	for rows.Next() {
		var vr ValuationRecord
		var value string
		if err := rows.Scan(&vr.Episode, &vr.TimeStamp, &vr.Instrument, &value); err != nil {
			return nil, err
		}
		if vr.Value, err = fixed.Parse(value); err != nil {
			return nil, err
		}
		valuations = append(valuations, vr)
	}
	return valuations, rows.Err()
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

type field struct {
	text string
	dst  *fixed.Point
}

func parseAll(fields ...field) error {
	for _, f := range fields {
		v, err := fixed.Parse(f.text)
		if err != nil {
			return fmt.Errorf("corrupt journal value %q: %w", f.text, err)
		}
		*f.dst = v
	}
	return nil
}
