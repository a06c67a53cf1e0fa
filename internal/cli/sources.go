package cli

import (
	"context"
	"fmt"
	"gridbot/internal/exchange"
	"gridbot/internal/exchange/binance/rest"
	"gridbot/internal/history"
	"gridbot/internal/storage"
	"gridbot/internal/storage/clickhouse"
	"gridbot/internal/storage/postgres"
	"gridbot/internal/storage/sqlite"
)

const (
	sourceBinance    = "binance"
	sourceFile       = "file"
	sourceClickHouse = "clickhouse"
)

func nopClose() error { return nil }

func (a *app) binanceClient() *rest.Client {
	ex := a.cfg.Exchange
	return rest.New(ex.BaseUrl, ex.Timeout, ex.RequestsPerSecond, ex.Burst, a.log)
}

// candleSource opens the paged source named by backtest.source. The file
// source is not paged and is handled by the caller.
func (a *app) candleSource(ctx context.Context) (exchange.CandleSource, func() error, error) {
	switch a.cfg.Backtest.Source {
	case sourceBinance:
		return a.binanceClient(), nopClose, nil
	case sourceClickHouse:
		store, err := clickhouse.Open(ctx, a.cfg.Storage.ClickHouseDSN)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("Источник %q не поддерживает постраничную загрузку", a.cfg.Backtest.Source)
	}
}

func (a *app) loader(source exchange.CandleSource) *history.Loader {
	return history.New(source, a.cfg.Exchange.Retry, a.log)
}

// openJournal returns nil when journaling is off.
func (a *app) openJournal(ctx context.Context) (storage.Journal, error) {
	switch a.cfg.Storage.Journal {
	case "", "none":
		return nil, nil
	case "sqlite":
		return sqlite.Open(a.cfg.Storage.SQLitePath)
	case "postgres":
		return postgres.Open(ctx, a.cfg.Storage.PostgresDSN)
	default:
		return nil, fmt.Errorf("Неизвестный журнал %q", a.cfg.Storage.Journal)
	}
}
