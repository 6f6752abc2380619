package duckdb

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
)

func openRaw(t *testing.T) *sql.DB {
	db, err := sql.Open("duckdb", "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}
