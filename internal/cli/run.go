package cli

import (
	"context"
	"fmt"
	"gridbot/internal/engine"
	"gridbot/internal/models"
	"gridbot/internal/report"
	"gridbot/internal/storage/cache"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		flags     strategyFlags
		source    string
		candles   string
		result    string
		tradesCSV string
		journal   string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Прогнать сеточную стратегию по истории",
		Long: `Загружает свечи из источника (binance, file, clickhouse), прогоняет по ним
сетку и печатает итоги. Результат пишется в JSON (backtest.result_file), ленту
сделок можно выгрузить в CSV, прогон сохраняется в журнал (storage.journal).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(cmd); err != nil {
				return err
			}
			flags.apply(a)
			if source != "" {
				a.cfg.Backtest.Source = source
			}
			if candles != "" {
				a.cfg.Backtest.CandlesFile = candles
			}
			if result != "" {
				a.cfg.Backtest.ResultFile = result
			}
			if tradesCSV != "" {
				a.cfg.Backtest.TradesCSV = tradesCSV
			}
			if journal != "" {
				a.cfg.Storage.Journal = journal
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			return a.runBacktest(cmd.Context())
		},
	}

	flags.register(cmd, true)
	cmd.Flags().StringVar(&source, "source", "", "источник свечей: binance, file, clickhouse")
	cmd.Flags().StringVar(&candles, "candles", "", "JSON файл со свечами для source=file")
	cmd.Flags().StringVar(&result, "result", "", "файл для JSON результата")
	cmd.Flags().StringVar(&tradesCSV, "trades-csv", "", "файл для CSV ленты сделок")
	cmd.Flags().StringVar(&journal, "journal", "", "журнал прогонов: none, sqlite, postgres")
	return cmd
}

func (a *app) runBacktest(ctx context.Context) error {
	runID := uuid.New().String()
	startedAt := time.Now()
	strategy := a.cfg.Strategy
	source := a.cfg.Backtest.Source

	log := a.log.WithRunID(runID).WithField("symbol", strategy.Symbol)
	log.WithFields(map[string]interface{}{
		"source":   source,
		"interval": strategy.Interval,
		"start":    a.cfg.Backtest.StartDate,
		"end":      a.cfg.Backtest.EndDate,
	}).Info(fmt.Sprintf("Запуск стратегии для %s с %s по %s", strategy.Symbol, a.cfg.Backtest.StartDate, a.cfg.Backtest.EndDate))

	eng, err := engine.New(strategy, a.log, engine.WithProgressEvery(a.cfg.Backtest.ProgressEvery))
	if err != nil {
		return err
	}

	var st *engine.State
	if source == sourceFile {
		candles, err := cache.Load(a.cfg.Backtest.CandlesFile)
		if err != nil {
			return err
		}
		log.Info(fmt.Sprintf("Загружено всего %d свечей", len(candles)))
		st = eng.Run(candles)
	} else {
		st, err = a.streamBacktest(ctx, eng)
		if err != nil {
			return err
		}
	}
	finishedAt := time.Now()

	if err := report.WriteText(a.out, report.NewSummary(strategy, st)); err != nil {
		return err
	}

	if path := a.cfg.Backtest.ResultFile; path != "" {
		err := report.WriteJSON(path, report.Result{
			RunID:    runID,
			Source:   source,
			Strategy: strategy,
			Summary:  report.NewSummary(strategy, st),
			State:    st,
		})
		if err != nil {
			return err
		}
		log.WithField("path", path).Info("Результат сохранён.")
	}

	if path := a.cfg.Backtest.TradesCSV; path != "" {
		if err := report.SaveTradesCSV(path, st.TradesHistory); err != nil {
			return err
		}
		log.WithField("path", path).Info("Лента сделок сохранена.")
	}

	return a.journalRun(ctx, runID, source, st, startedAt, finishedAt)
}

// streamBacktest feeds pages into the engine as they arrive.
func (a *app) streamBacktest(ctx context.Context, eng *engine.Engine) (*engine.State, error) {
	start, end, err := a.cfg.Backtest.Range()
	if err != nil {
		return nil, err
	}

	src, closeSource, err := a.candleSource(ctx)
	if err != nil {
		return nil, err
	}
	defer closeSource()

	eng.Reset()
	err = a.loader(src).FetchEach(ctx, a.cfg.Strategy.Symbol, a.cfg.Strategy.Interval, start, end, func(page []models.Candle) error {
		for _, c := range page {
			eng.Step(c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return eng.Finish(), nil
}

func (a *app) journalRun(ctx context.Context, runID, source string, st *engine.State, startedAt, finishedAt time.Time) error {
	j, err := a.openJournal(ctx)
	if err != nil {
		return err
	}
	if j == nil {
		return nil
	}
	defer j.Close()

	rec, err := report.NewRunRecord(runID, source, a.cfg.Strategy, st, startedAt, finishedAt)
	if err != nil {
		return err
	}
	if err := j.SaveRun(ctx, rec, st.TradesHistory); err != nil {
		return fmt.Errorf("Не удалось сохранить прогон %s в журнал: %w", runID, err)
	}

	a.printf("Прогон сохранён в журнал: %s\n", runID)
	return nil
}
