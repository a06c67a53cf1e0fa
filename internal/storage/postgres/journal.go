package postgres

import (
	"context"
	"fmt"
	"gridbot/internal/models"
	"gridbot/internal/storage"

	"github.com/jackc/pgx/v5"
)

type Journal struct {
	pool *Pool
}

var _ storage.Journal = (*Journal)(nil)

// Open connects to dsn and makes sure the journal tables exist.
func Open(ctx context.Context, dsn string) (*Journal, error) {
	pool, err := NewPool(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Journal{pool: pool}, nil
}

func NewJournal(pool *Pool) *Journal {
	return &Journal{pool: pool}
}

func (j *Journal) SaveRun(ctx context.Context, run models.RunRecord, trades []models.Trade) error {
	tx, err := j.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("Не удалось начать транзакцию: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO runs (
			run_id, symbol, interval, source, started_at, finished_at,
			first_candle, last_candle, candles_processed, reference_price,
			initial_amount, balance, available_balance, total_profit, open_positions,
			total_trades, profitable_trades, unprofitable_trades, total_fees, config
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		run.RunID, run.Symbol, run.Interval, run.Source, run.StartedAt, run.FinishedAt,
		run.FirstCandle, run.LastCandle, run.CandlesProcessed, run.ReferencePrice,
		run.InitialAmount, run.Balance, run.AvailableBalance, run.TotalProfit, run.OpenPositions,
		run.Stats.TotalTrades, run.Stats.ProfitableTrades, run.Stats.UnprofitableTrades, run.Stats.TotalFees, configJSON(run.ConfigJSON),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("Не удалось сохранить прогон: %w", err)
	}

	if len(trades) > 0 {
		rows := make([][]any, 0, len(trades))
		for i, t := range trades {
			rows = append(rows, []any{
				storage.NewTradeID(), run.RunID, int32(i), t.Time, string(t.Type), int32(t.RungID),
				t.Price, t.Amount, t.Qty, t.Profit, t.Fee, t.BalanceAfter,
			})
		}
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"trades"},
			[]string{"trade_id", "run_id", "seq", "time", "type", "rung_id", "price", "amount", "qty", "profit", "fee", "balance_after"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("Не удалось сохранить сделки: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("Не удалось завершить транзакцию: %w", err)
	}
	return nil
}

const runColumns = `
	run_id, symbol, interval, source, started_at, finished_at,
	first_candle, last_candle, candles_processed, reference_price,
	initial_amount, balance, available_balance, total_profit, open_positions,
	total_trades, profitable_trades, unprofitable_trades, total_fees, config::text`

func (j *Journal) GetRun(ctx context.Context, runID string) (models.RunRecord, error) {
	row := j.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = $1`, runID)

	run, err := scanRun(row)
	if isNotFoundError(err) {
		return models.RunRecord{}, storage.ErrNotFound
	}
	if err != nil {
		return models.RunRecord{}, fmt.Errorf("Не удалось прочитать прогон %s: %w", runID, err)
	}
	return run, nil
}

func (j *Journal) ListRuns(ctx context.Context, limit int) ([]models.RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, run_id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := j.pool.Query(ctx, query, args...)
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
	rows, err := j.pool.Query(ctx, `
		SELECT time, type, rung_id, price, amount, qty, profit, fee, balance_after
		FROM trades WHERE run_id = $1 ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("Не удалось прочитать сделки: %w", err)
	}
	defer rows.Close()

	trades := []models.Trade{}
	for rows.Next() {
		var (
			t    models.Trade
			kind string
		)
		if err := rows.Scan(&t.Time, &kind, &t.RungID, &t.Price, &t.Amount, &t.Qty, &t.Profit, &t.Fee, &t.BalanceAfter); err != nil {
			return nil, fmt.Errorf("Не удалось прочитать сделку: %w", err)
		}
		t.Type = models.TradeType(kind)
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

func (j *Journal) Close() error {
	j.pool.Close()
	return nil
}

func scanRun(row pgx.Row) (models.RunRecord, error) {
	var run models.RunRecord
	err := row.Scan(
		&run.RunID, &run.Symbol, &run.Interval, &run.Source, &run.StartedAt, &run.FinishedAt,
		&run.FirstCandle, &run.LastCandle, &run.CandlesProcessed, &run.ReferencePrice,
		&run.InitialAmount, &run.Balance, &run.AvailableBalance, &run.TotalProfit, &run.OpenPositions,
		&run.Stats.TotalTrades, &run.Stats.ProfitableTrades, &run.Stats.UnprofitableTrades, &run.Stats.TotalFees, &run.ConfigJSON,
	)
	if err != nil {
		return models.RunRecord{}, err
	}
	run.StartedAt = run.StartedAt.UTC()
	run.FinishedAt = run.FinishedAt.UTC()
	return run, nil
}

func configJSON(s string) string {
	if s == "" {
		return "{}"
	}
	return s
}
