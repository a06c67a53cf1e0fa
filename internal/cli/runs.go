package cli

import (
	"errors"
	"gridbot/internal/report"
	"gridbot/internal/storage"
	"time"

	"github.com/spf13/cobra"
)

var errJournalDisabled = errors.New("Журнал прогонов отключён, задайте storage.journal или --journal")

func newRunsCmd(a *app) *cobra.Command {
	var journal string

	openJournal := func(cmd *cobra.Command) (storage.Journal, error) {
		if err := a.load(cmd); err != nil {
			return nil, err
		}
		if journal != "" {
			a.cfg.Storage.Journal = journal
		}
		j, err := a.openJournal(cmd.Context())
		if err != nil {
			return nil, err
		}
		if j == nil {
			return nil, errJournalDisabled
		}
		return j, nil
	}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Просмотр сохранённых прогонов",
	}
	cmd.PersistentFlags().StringVar(&journal, "journal", "", "журнал прогонов: sqlite, postgres")

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "Последние прогоны",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := openJournal(cmd)
			if err != nil {
				return err
			}
			defer j.Close()

			runs, err := j.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				a.printf("Прогонов нет.\n")
				return nil
			}
			for _, r := range runs {
				a.printf("%s  %s  %-10s %-4s %-10s сделок: %-5d прибыль: $%s\n",
					r.RunID, r.StartedAt.Format(time.DateTime), r.Symbol, r.Interval, r.Source,
					r.Stats.TotalTrades, report.FormatMoney(r.TotalProfit))
			}
			return nil
		},
	}
	list.Flags().IntVarP(&limit, "limit", "n", 20, "сколько прогонов показать")

	var withTrades bool
	show := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Итоги и сделки прогона",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := openJournal(cmd)
			if err != nil {
				return err
			}
			defer j.Close()

			run, err := j.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			summary := report.Summary{
				Symbol:             run.Symbol,
				Interval:           run.Interval,
				InitialAmount:      run.InitialAmount,
				Balance:            run.Balance,
				AvailableBalance:   run.AvailableBalance,
				TotalProfit:        run.TotalProfit,
				TotalTrades:        run.Stats.TotalTrades,
				ProfitableTrades:   run.Stats.ProfitableTrades,
				UnprofitableTrades: run.Stats.UnprofitableTrades,
				TotalFees:          run.Stats.TotalFees,
				OpenPositions:      run.OpenPositions,
				CandlesProcessed:   run.CandlesProcessed,
				ReferencePrice:     run.ReferencePrice,
				FirstCandleTime:    run.FirstCandle,
				LastCandleTime:     run.LastCandle,
			}
			a.printf("Прогон %s (%s)\n", run.RunID, run.Source)
			if err := report.WriteText(a.out, summary); err != nil {
				return err
			}

			if !withTrades {
				return nil
			}
			trades, err := j.ListTrades(cmd.Context(), run.RunID)
			if err != nil {
				return err
			}
			a.printf("\n")
			return report.WriteTradesCSV(a.out, trades)
		},
	}
	show.Flags().BoolVar(&withTrades, "trades", false, "вывести ленту сделок в CSV")

	cmd.AddCommand(list, show)
	return cmd
}
