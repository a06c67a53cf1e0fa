package postgres

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		symbol TEXT NOT NULL,
		interval TEXT NOT NULL,
		source TEXT NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ NOT NULL,
		first_candle BIGINT NOT NULL,
		last_candle BIGINT NOT NULL,
		candles_processed INTEGER NOT NULL,
		reference_price DOUBLE PRECISION NOT NULL,
		initial_amount DOUBLE PRECISION NOT NULL,
		balance DOUBLE PRECISION NOT NULL,
		available_balance DOUBLE PRECISION NOT NULL,
		total_profit DOUBLE PRECISION NOT NULL,
		open_positions INTEGER NOT NULL,
		total_trades INTEGER NOT NULL,
		profitable_trades INTEGER NOT NULL,
		unprofitable_trades INTEGER NOT NULL,
		total_fees DOUBLE PRECISION NOT NULL,
		config JSONB NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS trades (
		trade_id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL REFERENCES runs(run_id),
		seq INTEGER NOT NULL,
		time BIGINT NOT NULL,
		type TEXT NOT NULL,
		rung_id INTEGER NOT NULL,
		price DOUBLE PRECISION NOT NULL,
		amount DOUBLE PRECISION NOT NULL,
		qty DOUBLE PRECISION NOT NULL,
		profit DOUBLE PRECISION,
		fee DOUBLE PRECISION NOT NULL,
		balance_after DOUBLE PRECISION NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_id, seq)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at)`,
}

// Migrate creates the journal tables if they are missing.
func (p *Pool) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := p.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("Не удалось применить схему журнала: %w", err)
		}
	}
	return nil
}
