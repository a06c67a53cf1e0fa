package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// strategyFlags override the loaded configuration when set on the command line.
type strategyFlags struct {
	symbol   string
	interval string
	start    string
	end      string
}

func (f *strategyFlags) register(cmd *cobra.Command, withRange bool) {
	cmd.Flags().StringVarP(&f.symbol, "symbol", "s", "", "торговая пара, например BTCUSDT")
	cmd.Flags().StringVarP(&f.interval, "interval", "i", "", "интервал свечей, например 1m")
	if withRange {
		cmd.Flags().StringVar(&f.start, "start", "", "начало периода, YYYY-MM-DD")
		cmd.Flags().StringVar(&f.end, "end", "", "конец периода, YYYY-MM-DD")
	}
}

func (f *strategyFlags) apply(a *app) {
	if f.symbol != "" {
		a.cfg.Strategy.Symbol = strings.ToUpper(f.symbol)
	}
	if f.interval != "" {
		a.cfg.Strategy.Interval = f.interval
	}
	if f.start != "" {
		a.cfg.Backtest.StartDate = f.start
	}
	if f.end != "" {
		a.cfg.Backtest.EndDate = f.end
	}
}
