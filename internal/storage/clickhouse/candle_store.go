package clickhouse

import (
	"context"
	"fmt"
	"gridbot/internal/exchange"
	"gridbot/internal/models"
	"gridbot/internal/storage"
)

const candlesTable = `
	CREATE TABLE IF NOT EXISTS candles (
		symbol LowCardinality(String),
		interval LowCardinality(String),
		open_time Int64,
		open Float64,
		high Float64,
		low Float64,
		close Float64,
		volume Float64,
		close_time Int64
	) ENGINE = ReplacingMergeTree
	ORDER BY (symbol, interval, open_time)`

// CandleStore keeps kline history in ClickHouse. Re-inserting a candle
// replaces it, so overlapping downloads are harmless.
type CandleStore struct {
	conn *Conn
}

var (
	_ storage.CandleStore   = (*CandleStore)(nil)
	_ exchange.CandleSource = (*CandleStore)(nil)
)

// Open connects to dsn and creates the candles table if needed.
func Open(ctx context.Context, dsn string) (*CandleStore, error) {
	conn, err := NewConn(ctx, dsn)
	if err != nil {
		return nil, err
	}
	store := NewCandleStore(conn)
	if err := store.Migrate(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return store, nil
}

func NewCandleStore(conn *Conn) *CandleStore {
	return &CandleStore{conn: conn}
}

func (s *CandleStore) Migrate(ctx context.Context) error {
	if err := s.conn.Exec(ctx, candlesTable); err != nil {
		return fmt.Errorf("Не удалось создать таблицу свечей: %w", err)
	}
	return nil
}

func (s *CandleStore) InsertBulk(ctx context.Context, symbol, interval string, candles []models.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO candles (
			symbol, interval, open_time, open, high, low, close, volume, close_time
		)
	`)
	if err != nil {
		return fmt.Errorf("Не удалось подготовить пакет свечей: %w", err)
	}

	for _, c := range candles {
		err = batch.Append(symbol, interval, c.OpenTime, c.Open, c.High, c.Low, c.Close, c.Volume, c.CloseTime)
		if err != nil {
			return fmt.Errorf("Не удалось добавить свечу %d в пакет: %w", c.OpenTime, err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("Не удалось записать свечи: %w", err)
	}
	return nil
}

// Klines serves stored candles the same way the exchange does, so a stored
// range can be replayed through the history loader.
func (s *CandleStore) Klines(ctx context.Context, symbol, interval string, startMs, endMs int64, limit int) ([]models.Candle, error) {
	if limit <= 0 || limit > exchange.MaxKlinesLimit {
		limit = exchange.MaxKlinesLimit
	}

	rows, err := s.conn.Query(ctx, `
		SELECT open_time, open, high, low, close, volume, close_time
		FROM candles FINAL
		WHERE symbol = ? AND interval = ? AND open_time >= ? AND open_time <= ?
		ORDER BY open_time ASC
		LIMIT ?`,
		symbol, interval, startMs, endMs, uint64(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("Не удалось прочитать свечи: %w", err)
	}
	defer rows.Close()

	candles := []models.Candle{}
	for rows.Next() {
		var c models.Candle
		if err := rows.Scan(&c.OpenTime, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume, &c.CloseTime); err != nil {
			return nil, fmt.Errorf("Не удалось прочитать свечу: %w", err)
		}
		candles = append(candles, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Не удалось прочитать свечи: %w", err)
	}
	return candles, nil
}

func (s *CandleStore) Close() error {
	return s.conn.Close()
}
