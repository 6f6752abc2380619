package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/peter-kozarec/merchant/pkg/common"
)

// WriteParquet stores candles under root partitioned by ticker, in the layout
// Open expects. Existing partitions are overwritten.
func WriteParquet(ctx context.Context, root string, candles []common.Candle) error {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return fmt.Errorf("unable to create %q: %w", root, err)
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return fmt.Errorf("unable to open duckdb: %w", err)
	}
	defer func() { _ = db.Close() }()

	const schema = `CREATE TABLE candles (
		"timestamp" TIMESTAMP,
		ticker      VARCHAR,
		open        DOUBLE,
		high        DOUBLE,
		low         DOUBLE,
		close       DOUBLE,
		volume      DOUBLE,
		trades      BIGINT,
		vw_price    DOUBLE
	)`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("error creating table: %w", err)
	}

	stmt, err := db.PrepareContext(ctx, `INSERT INTO candles VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("error preparing insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, c := range candles {
		_, err := stmt.ExecContext(ctx, c.TimeStamp.UTC(), c.Symbol,
			toFloat(c.Open), toFloat(c.High), toFloat(c.Low), toFloat(c.Close), toFloat(c.Volume), c.Trades, toFloat(c.VWPrice))
		if err != nil {
			return fmt.Errorf("error inserting %s at %s: %w", c.Symbol, c.TimeStamp, err)
		}
	}

	copyStmt := fmt.Sprintf(`COPY candles TO %s (FORMAT PARQUET, PARTITION_BY (ticker), OVERWRITE_OR_IGNORE true)`, quote(root))
	if _, err := db.ExecContext(ctx, copyStmt); err != nil {
		return fmt.Errorf("error writing parquet: %w", err)
	}
	return nil
}

func toFloat(p interface{ Float64() (float64, bool) }) float64 {
	f, _ := p.Float64()
	return f
}
