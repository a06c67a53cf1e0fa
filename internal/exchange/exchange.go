package exchange

import (
	"context"
	"errors"
	"gridbot/internal/models"
)

// MaxKlinesLimit is the largest page the klines endpoint returns.
const MaxKlinesLimit = 1000

var (
	ErrBadStatus        = errors.New("Неуспешный статус ответа")
	ErrMalformedPayload = errors.New("Некорректный формат ответа")
	ErrExchange         = errors.New("Ошибка биржи")
	ErrRateLimited      = errors.New("Превышен лимит запросов")
)

// CandleSource returns up to limit candles with openTime in [startMs, endMs],
// oldest first. An empty slice with a nil error means there is no more data.
type CandleSource interface {
	Klines(ctx context.Context, symbol, interval string, startMs, endMs int64, limit int) ([]models.Candle, error)
}

type EventType string

const (
	EventTypeKline     EventType = "Kline"
	EventTypeReconnect EventType = "Reconnect"
)

type Event struct {
	Type   EventType
	Symbol string
	Candle *models.Candle
}

// KlineStream delivers closed candles as they are published.
type KlineStream interface {
	Subscribe(ctx context.Context, symbol, interval string) (<-chan Event, error)
	Close() error
}

// IsRetryable reports whether a candle request may succeed when repeated.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return !errors.Is(err, ErrMalformedPayload)
}

func IsRateLimit(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
