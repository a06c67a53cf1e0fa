package history

import (
	"context"
	"fmt"
	"gridbot/internal/config"
	"gridbot/internal/exchange"
	"gridbot/internal/logger"
	"gridbot/internal/models"
	"time"

	"github.com/sirupsen/logrus"
)

// Loader pages through a CandleSource until the requested range is exhausted.
type Loader struct {
	source exchange.CandleSource
	retry  config.RetryConfig
	limit  int
	log    *logger.Logger
}

func New(source exchange.CandleSource, retry config.RetryConfig, log *logger.Logger) *Loader {
	if log == nil {
		log = logger.Discard()
	}
	return &Loader{
		source: source,
		retry:  retry,
		limit:  exchange.MaxKlinesLimit,
		log:    log,
	}
}

// FetchAll loads every candle opened between start and end into memory.
func (l *Loader) FetchAll(ctx context.Context, symbol, interval string, start, end time.Time) ([]models.Candle, error) {
	var all []models.Candle
	err := l.FetchEach(ctx, symbol, interval, start, end, func(page []models.Candle) error {
		all = append(all, page...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return all, nil
}

// FetchEach hands every page to fn as soon as it arrives. The next page starts
// one millisecond after the last candle's close time; a short or empty page
// ends the range.
func (l *Loader) FetchEach(ctx context.Context, symbol, interval string, start, end time.Time, fn func([]models.Candle) error) error {
	startMs := start.UnixMilli()
	endMs := end.UnixMilli()
	total := 0

	for startMs < endMs {
		var page []models.Candle
		err := l.withRetry(ctx, func() error {
			var err error
			page, err = l.source.Klines(ctx, symbol, interval, startMs, endMs, l.limit)
			return err
		})
		if err != nil {
			return fmt.Errorf("Не удалось загрузить свечи %s %s с %d: %w", symbol, interval, startMs, err)
		}
		if len(page) == 0 {
			break
		}

		total += len(page)
		l.logEntry().WithFields(map[string]interface{}{
			"symbol":   symbol,
			"interval": interval,
			"from":     page[0].OpenAt().Format(time.RFC3339),
		}).Info(fmt.Sprintf("Загружено %d свечей. Всего: %d", len(page), total))

		if err := fn(page); err != nil {
			return err
		}

		last := page[len(page)-1]
		if last.CloseTime+1 <= startMs {
			return fmt.Errorf("%w: время свечей не растёт (closeTime=%d)", exchange.ErrMalformedPayload, last.CloseTime)
		}
		startMs = last.CloseTime + 1

		if len(page) < l.limit {
			break
		}
	}
	return nil
}

func (l *Loader) logEntry() *logrus.Entry {
	return l.log.WithComponent("history")
}
