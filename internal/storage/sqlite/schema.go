package sqlite

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	symbol TEXT NOT NULL,
	interval TEXT NOT NULL,
	source TEXT NOT NULL,
	started_at INTEGER NOT NULL,
	finished_at INTEGER NOT NULL,
	first_candle INTEGER NOT NULL,
	last_candle INTEGER NOT NULL,
	candles_processed INTEGER NOT NULL,
	reference_price REAL NOT NULL,
	initial_amount REAL NOT NULL,
	balance REAL NOT NULL,
	available_balance REAL NOT NULL,
	total_profit REAL NOT NULL,
	open_positions INTEGER NOT NULL,
	total_trades INTEGER NOT NULL,
	profitable_trades INTEGER NOT NULL,
	unprofitable_trades INTEGER NOT NULL,
	total_fees REAL NOT NULL,
	config TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL REFERENCES runs(run_id),
	seq INTEGER NOT NULL,
	time INTEGER NOT NULL,
	type TEXT NOT NULL,
	rung_id INTEGER NOT NULL,
	price REAL NOT NULL,
	amount REAL NOT NULL,
	qty REAL NOT NULL,
	profit REAL,
	fee REAL NOT NULL,
	balance_after REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_id, seq);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
`
