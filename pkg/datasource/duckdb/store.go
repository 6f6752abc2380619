package duckdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/peter-kozarec/merchant/pkg/common"
	"github.com/peter-kozarec/merchant/pkg/datasource"
	"github.com/peter-kozarec/merchant/pkg/utility/fixed"
)

const (
	storeComponentName = "datasource.duckdb.store"

	selectColumns = `"timestamp", CAST(ticker AS VARCHAR), CAST(open AS DOUBLE), CAST(high AS DOUBLE),
		CAST(low AS DOUBLE), CAST(close AS DOUBLE), CAST(volume AS DOUBLE), CAST(trades AS BIGINT),
		CAST(vw_price AS DOUBLE)`
)

type Option func(*Store)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// Store reads candles from a directory of parquet files partitioned by
// ticker (ticker=<SYMBOL>/*.parquet).
type Store struct {
	root    string
	db      *sql.DB
	logger  *zap.Logger
	tickers []string
}

// Open validates the dataset at root and prepares it for querying.
func Open(ctx context.Context, root string, options ...Option) (*Store, error) {
	s := &Store{root: root, logger: zap.NewNop()}
	for _, option := range options {
		option(s)
	}

	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", datasource.ErrDatasetNotFound, root)
	}

	s.db, err = sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("unable to open duckdb: %w", err)
	}

	if err := s.init(ctx); err != nil {
		_ = s.db.Close()
		return nil, err
	}

	s.logger.Info("dataset opened",
		zap.String("component", storeComponentName),
		zap.String("root", root),
		zap.Strings("tickers", s.tickers))

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) init(ctx context.Context) error {
	files, err := filepath.Glob(filepath.Join(s.root, "*", "*.parquet"))
	if err != nil {
		return fmt.Errorf("unable to list dataset files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("%w: no parquet files under %s", datasource.ErrEmptyDataset, s.root)
	}

	pattern := quote(filepath.Join(s.root, "*", "*.parquet"))
	view := fmt.Sprintf(`CREATE VIEW candles AS SELECT * FROM read_parquet(%s, hive_partitioning = true)`, pattern)
	if _, err := s.db.ExecContext(ctx, view); err != nil {
		return fmt.Errorf("error creating candles view: %w", err)
	}

	if err := s.checkSchema(ctx); err != nil {
		return err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT CAST(ticker AS VARCHAR) AS t FROM candles ORDER BY t`)
	if err != nil {
		return fmt.Errorf("error preparing query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var ticker string
		if err := rows.Scan(&ticker); err != nil {
			return fmt.Errorf("error scanning row: %w", err)
		}
		s.tickers = append(s.tickers, ticker)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error scanning rows: %w", err)
	}
	if len(s.tickers) == 0 {
		return fmt.Errorf("%w: %s", datasource.ErrEmptyDataset, s.root)
	}
	return nil
}

func (s *Store) checkSchema(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT lower(column_name) FROM information_schema.columns WHERE table_name = 'candles'`)
	if err != nil {
		return fmt.Errorf("error preparing query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	present := make(map[string]bool)
	for rows.Next() {
		var column string
		if err := rows.Scan(&column); err != nil {
			return fmt.Errorf("error scanning row: %w", err)
		}
		present[column] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error scanning rows: %w", err)
	}

	var missing []string
	for _, column := range datasource.Columns {
		if !present[column] {
			missing = append(missing, column)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing columns %s", datasource.ErrSchemaMismatch, strings.Join(missing, ", "))
	}
	return nil
}

func (s *Store) Tickers(context.Context) ([]string, error) {
	return append([]string(nil), s.tickers...), nil
}

func (s *Store) Slice(ctx context.Context, from, to time.Time) ([]common.Candle, error) {
	query := `SELECT ` + selectColumns + ` FROM candles
		WHERE "timestamp" >= ? AND "timestamp" < ?
		ORDER BY "timestamp", ticker`
	return s.query(ctx, query, from.UTC(), to.UTC())
}

func (s *Store) Get(ctx context.Context, ts time.Time, count int, direction datasource.Direction) ([]common.Candle, error) {
	if count <= 0 {
		return nil, nil
	}

	cmp, order := "<=", "DESC"
	if direction == datasource.Forward {
		cmp, order = ">=", "ASC"
	}

	query := fmt.Sprintf(`SELECT %s FROM (
			SELECT *, row_number() OVER (PARTITION BY ticker ORDER BY "timestamp" %s) AS rn
			FROM candles WHERE "timestamp" %s ?
		) WHERE rn <= ?
		ORDER BY "timestamp", ticker`, selectColumns, order, cmp)
	return s.query(ctx, query, ts.UTC(), count)
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]common.Candle, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error preparing query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var candles []common.Candle
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.timeStamp, &r.ticker, &r.open, &r.high, &r.low, &r.close, &r.volume, &r.trades, &r.vwPrice); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		candle, err := r.toCandle()
		if err != nil {
			return nil, err
		}
		candles = append(candles, candle)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error scanning rows: %w", err)
	}
	return candles, nil
}

type row struct {
	timeStamp time.Time
	ticker    string
	open      float64
	high      float64
	low       float64
	close     float64
	volume    float64
	trades    int64
	vwPrice   float64
}

var errNonFinite = errors.New("non-finite value")

func (r row) toCandle() (common.Candle, error) {
	for _, v := range []float64{r.open, r.high, r.low, r.close, r.volume, r.vwPrice} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return common.Candle{}, fmt.Errorf("%w: %s at %s: %w", datasource.ErrSchemaMismatch, r.ticker, r.timeStamp, errNonFinite)
		}
	}
	return common.Candle{
		Symbol:    r.ticker,
		TimeStamp: r.timeStamp.UTC(),
		Open:      fixed.FromFloat64(r.open),
		High:      fixed.FromFloat64(r.high),
		Low:       fixed.FromFloat64(r.low),
		Close:     fixed.FromFloat64(r.close),
		Volume:    fixed.FromFloat64(r.volume),
		Trades:    r.trades,
		VWPrice:   fixed.FromFloat64(r.vwPrice),
	}, nil
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
