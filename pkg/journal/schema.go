package journal

// Schema is applied on open. Quantities are stored as decimal text.
const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id      TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	seed        INTEGER NOT NULL,
	quote       TEXT NOT NULL,
	fingerprint TEXT NOT NULL DEFAULT '',
	started_at  TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
	run_id     TEXT NOT NULL,
	episode    INTEGER NOT NULL,
	trace_id   INTEGER NOT NULL,
	order_id   TEXT NOT NULL,
	bought     TEXT NOT NULL,
	bought_qty TEXT NOT NULL,
	sold       TEXT NOT NULL,
	sold_qty   TEXT NOT NULL,
	fees       TEXT NOT NULL,
	fees_qty   TEXT NOT NULL,
	ts         TIMESTAMP NOT NULL,
	PRIMARY KEY (run_id, episode, trace_id)
);

CREATE TABLE IF NOT EXISTS closed_positions (
	run_id      TEXT NOT NULL,
	episode     INTEGER NOT NULL,
	instrument  TEXT NOT NULL,
	amount      TEXT NOT NULL,
	open_tid    INTEGER NOT NULL,
	close_tid   INTEGER NOT NULL,
	open_rate   TEXT NOT NULL,
	close_rate  TEXT NOT NULL,
	realized_pl TEXT NOT NULL,
	opened_at   TIMESTAMP NOT NULL,
	closed_at   TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS valuations (
	run_id     TEXT NOT NULL,
	episode    INTEGER NOT NULL,
	ts         TIMESTAMP NOT NULL,
	instrument TEXT NOT NULL,
	value      TEXT NOT NULL
);
`
