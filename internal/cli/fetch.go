package cli

import (
	"errors"
	"fmt"
	"gridbot/internal/models"
	"gridbot/internal/storage/cache"
	"gridbot/internal/storage/clickhouse"

	"github.com/spf13/cobra"
)

func newFetchCmd(a *app) *cobra.Command {
	var (
		flags strategyFlags
		out   string
		store string
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Загрузить историю свечей с Binance",
		Long: `Загружает свечи за период backtest.start_date..backtest.end_date страницами
по 1000 штук и сохраняет их в JSON файл (--out) и/или в ClickHouse (--store clickhouse).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(cmd); err != nil {
				return err
			}
			flags.apply(a)
			if out == "" {
				out = a.cfg.Backtest.CandlesFile
			}
			if out == "" && store == "" {
				out = "candles.json"
			}

			if err := a.cfg.Strategy.Validate(); err != nil {
				return err
			}
			start, end, err := a.cfg.Backtest.Range()
			if err != nil {
				return err
			}

			var sink *clickhouse.CandleStore
			switch store {
			case "":
			case sourceClickHouse:
				if a.cfg.Storage.ClickHouseDSN == "" {
					return errors.New("Для --store clickhouse нужен storage.clickhouse_dsn")
				}
				sink, err = clickhouse.Open(cmd.Context(), a.cfg.Storage.ClickHouseDSN)
				if err != nil {
					return err
				}
				defer sink.Close()
			default:
				return fmt.Errorf("Неизвестное хранилище %q", store)
			}

			symbol, interval := a.cfg.Strategy.Symbol, a.cfg.Strategy.Interval
			a.log.WithSymbol(symbol).WithField("interval", interval).Infof("Загрузка данных с %s до %s...", a.cfg.Backtest.StartDate, a.cfg.Backtest.EndDate)

			var all []models.Candle
			err = a.loader(a.binanceClient()).FetchEach(cmd.Context(), symbol, interval, start, end, func(page []models.Candle) error {
				if sink != nil {
					if err := sink.InsertBulk(cmd.Context(), symbol, interval, page); err != nil {
						return err
					}
				}
				if out != "" {
					all = append(all, page...)
				}
				return nil
			})
			if err != nil {
				return err
			}
			a.log.WithComponent("fetch").Info("Данные полностью загружены.")

			if out != "" {
				if err := cache.Save(out, all); err != nil {
					return err
				}
				a.printf("Данные сохранены в %s. Всего загружено %d свечей.\n", out, len(all))
			}
			if sink != nil {
				a.printf("Свечи записаны в ClickHouse.\n")
			}
			return nil
		},
	}

	flags.register(cmd, true)
	cmd.Flags().StringVarP(&out, "out", "o", "", "JSON файл для свечей (по умолчанию backtest.candles_file или candles.json)")
	cmd.Flags().StringVar(&store, "store", "", "дополнительно сохранить свечи: clickhouse")
	return cmd
}
