package cli

import (
	"context"
	"gridbot/internal/engine"
	"gridbot/internal/exchange"
	"gridbot/internal/exchange/binance/ws"
	"gridbot/internal/report"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newWatchCmd(a *app) *cobra.Command {
	var (
		flags   strategyFlags
		maxBars int
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Прогонять стратегию по закрытым свечам в реальном времени",
		Long: `Подписывается на поток свечей Binance и передаёт каждую закрытую свечу в
симулятор. Заявки на биржу не отправляются. Итоги печатаются при остановке
(Ctrl+C) или после --max-candles свечей и сохраняются в журнал.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(cmd); err != nil {
				return err
			}
			flags.apply(a)
			if err := a.cfg.Strategy.Validate(); err != nil {
				return err
			}

			stream := ws.New(a.cfg.Exchange.WSUrl, a.log)
			return a.watch(cmd.Context(), stream, maxBars)
		},
	}

	flags.register(cmd, false)
	cmd.Flags().IntVar(&maxBars, "max-candles", 0, "остановиться после N закрытых свечей (0 - без ограничения)")
	return cmd
}

func (a *app) watch(ctx context.Context, stream exchange.KlineStream, maxBars int) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	runID := uuid.New().String()
	startedAt := time.Now()
	strategy := a.cfg.Strategy
	log := a.log.WithRunID(runID).WithField("symbol", strategy.Symbol)

	eng, err := engine.New(strategy, a.log, engine.WithProgressEvery(a.cfg.Backtest.ProgressEvery))
	if err != nil {
		return err
	}

	events, err := stream.Subscribe(ctx, strategy.Symbol, strategy.Interval)
	if err != nil {
		return err
	}
	defer stream.Close()

	log.Info("Ожидание закрытых свечей.")

	processed := 0
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case ev, ok := <-events:
			if !ok {
				break loop
			}
			if ev.Type == exchange.EventTypeReconnect {
				log.Warn("Поток свечей переподключён, возможен пропуск свечей.")
				continue
			}
			if ev.Candle == nil {
				continue
			}

			for _, t := range eng.Step(*ev.Candle) {
				log.WithFields(map[string]interface{}{
					"type":    t.Type,
					"rung_id": t.RungID,
					"price":   t.Price,
					"profit":  t.ProfitValue(),
					"balance": engine.Round(t.BalanceAfter, 2),
				}).Info("Сделка.")
			}

			log.WithFields(map[string]interface{}{
				"closed_at": ev.Candle.CloseAt().Format(time.RFC3339),
				"close":     ev.Candle.Close,
				"positions": eng.State().OpenPositions.Len(),
			}).Debug("Свеча обработана.")

			processed++
			if maxBars > 0 && processed >= maxBars {
				break loop
			}
		}
	}

	st := eng.Finish()
	if err := report.WriteText(a.out, report.NewSummary(strategy, st)); err != nil {
		return err
	}
	if processed == 0 {
		return nil
	}
	// The parent context may already be cancelled; the journal write still has to happen.
	return a.journalRun(context.WithoutCancel(ctx), runID, "stream", st, startedAt, time.Now())
}
