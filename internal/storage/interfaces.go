package storage

import (
	"context"
	"gridbot/internal/models"
)

// Journal persists finished runs together with their trade ledgers.
type Journal interface {
	// SaveRun stores run and trades atomically. Returns ErrDuplicateKey if the run id exists.
	SaveRun(ctx context.Context, run models.RunRecord, trades []models.Trade) error

	// GetRun returns ErrNotFound for unknown ids.
	GetRun(ctx context.Context, runID string) (models.RunRecord, error)

	// ListRuns returns the latest runs first.
	ListRuns(ctx context.Context, limit int) ([]models.RunRecord, error)

	// ListTrades returns the ledger of a run in the order it was recorded.
	ListTrades(ctx context.Context, runID string) ([]models.Trade, error)

	Close() error
}

// CandleStore keeps downloaded history for later replays.
type CandleStore interface {
	InsertBulk(ctx context.Context, symbol, interval string, candles []models.Candle) error
	Klines(ctx context.Context, symbol, interval string, startMs, endMs int64, limit int) ([]models.Candle, error)
	Close() error
}
