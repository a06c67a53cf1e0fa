package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"gridbot/internal/models"
	"gridbot/internal/storage"
	"time"

	"github.com/mattn/go-sqlite3"
)

type Journal struct {
	db *sql.DB
}

var _ storage.Journal = (*Journal)(nil)

// Open opens (or creates) the journal database at path and applies the schema.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("Не удалось открыть журнал %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("Не удалось применить схему журнала: %w", err)
	}
	return &Journal{db: db}, nil
}

func (j *Journal) SaveRun(ctx context.Context, run models.RunRecord, trades []models.Trade) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("Не удалось начать транзакцию: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (
			run_id, symbol, interval, source, started_at, finished_at,
			first_candle, last_candle, candles_processed, reference_price,
			initial_amount, balance, available_balance, total_profit, open_positions,
			total_trades, profitable_trades, unprofitable_trades, total_fees, config
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.Symbol, run.Interval, run.Source, run.StartedAt.UnixMilli(), run.FinishedAt.UnixMilli(),
		run.FirstCandle, run.LastCandle, run.CandlesProcessed, run.ReferencePrice,
		run.InitialAmount, run.Balance, run.AvailableBalance, run.TotalProfit, run.OpenPositions,
		run.Stats.TotalTrades, run.Stats.ProfitableTrades, run.Stats.UnprofitableTrades, run.Stats.TotalFees, run.ConfigJSON,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("Не удалось сохранить прогон: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trades (
			trade_id, run_id, seq, time, type, rung_id, price, amount, qty, profit, fee, balance_after
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("Не удалось подготовить запись сделок: %w", err)
	}
	defer stmt.Close()

	for i, t := range trades {
		_, err := stmt.ExecContext(ctx,
			storage.NewTradeID(), run.RunID, i, t.Time, string(t.Type), t.RungID,
			t.Price, t.Amount, t.Qty, t.Profit, t.Fee, t.BalanceAfter,
		)
		if err != nil {
			return fmt.Errorf("Не удалось сохранить сделку %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("Не удалось завершить транзакцию: %w", err)
	}
	return nil
}

const runColumns = `
	run_id, symbol, interval, source, started_at, finished_at,
	first_candle, last_candle, candles_processed, reference_price,
	initial_amount, balance, available_balance, total_profit, open_positions,
	total_trades, profitable_trades, unprofitable_trades, total_fees, config`

func (j *Journal) GetRun(ctx context.Context, runID string) (models.RunRecord, error) {
	row := j.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.RunRecord{}, storage.ErrNotFound
	}
	if err != nil {
		return models.RunRecord{}, fmt.Errorf("Не удалось прочитать прогон %s: %w", runID, err)
	}
	return run, nil
}

func (j *Journal) ListRuns(ctx context.Context, limit int) ([]models.RunRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := j.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, run_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("Не удалось прочитать список прогонов: %w", err)
	}
	defer rows.Close()

	var runs []models.RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("Не удалось прочитать прогон: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (j *Journal) ListTrades(ctx context.Context, runID string) ([]models.Trade, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT time, type, rung_id, price, amount, qty, profit, fee, balance_after
		FROM trades WHERE run_id = ? ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("Не удалось прочитать сделки: %w", err)
	}
	defer rows.Close()

	trades := []models.Trade{}
	for rows.Next() {
		var (
			t      models.Trade
			kind   string
			profit sql.NullFloat64
		)
		if err := rows.Scan(&t.Time, &kind, &t.RungID, &t.Price, &t.Amount, &t.Qty, &profit, &t.Fee, &t.BalanceAfter); err != nil {
			return nil, fmt.Errorf("Не удалось прочитать сделку: %w", err)
		}
		t.Type = models.TradeType(kind)
		if profit.Valid {
			p := profit.Float64
			t.Profit = &p
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

func (j *Journal) Close() error {
	return j.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (models.RunRecord, error) {
	var (
		run                 models.RunRecord
		startedAt, finished int64
	)
	err := s.Scan(
		&run.RunID, &run.Symbol, &run.Interval, &run.Source, &startedAt, &finished,
		&run.FirstCandle, &run.LastCandle, &run.CandlesProcessed, &run.ReferencePrice,
		&run.InitialAmount, &run.Balance, &run.AvailableBalance, &run.TotalProfit, &run.OpenPositions,
		&run.Stats.TotalTrades, &run.Stats.ProfitableTrades, &run.Stats.UnprofitableTrades, &run.Stats.TotalFees, &run.ConfigJSON,
	)
	if err != nil {
		return models.RunRecord{}, err
	}
	run.StartedAt = time.UnixMilli(startedAt).UTC()
	run.FinishedAt = time.UnixMilli(finished).UTC()
	return run, nil
}

func isDuplicateKeyError(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey || sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
