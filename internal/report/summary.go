package report

import (
	"fmt"
	"gridbot/internal/config"
	"gridbot/internal/engine"
	"io"
	"time"

	"github.com/shopspring/decimal"
)

type Summary struct {
	Symbol             string  `json:"symbol"`
	Interval           string  `json:"interval"`
	InitialAmount      float64 `json:"initialAmount"`
	Balance            float64 `json:"balance"`
	AvailableBalance   float64 `json:"availableBalance"`
	TotalProfit        float64 `json:"totalProfit"`
	TotalTrades        int     `json:"totalTrades"`
	ProfitableTrades   int     `json:"profitableTrades"`
	UnprofitableTrades int     `json:"unprofitableTrades"`
	TotalFees          float64 `json:"totalFees"`
	OpenPositions      int     `json:"openPositions"`
	CandlesProcessed   int     `json:"candlesProcessed"`
	ReferencePrice     float64 `json:"referencePrice"`
	FirstCandleTime    int64   `json:"firstCandleTime,omitempty"`
	LastCandleTime     int64   `json:"lastCandleTime,omitempty"`
}

func NewSummary(cfg config.StrategyConfig, st *engine.State) Summary {
	return Summary{
		Symbol:             cfg.Symbol,
		Interval:           cfg.Interval,
		InitialAmount:      cfg.InitialAmount,
		Balance:            st.Balance,
		AvailableBalance:   st.AvailableBalance,
		TotalProfit:        st.TotalProfit,
		TotalTrades:        st.Stats.TotalTrades,
		ProfitableTrades:   st.Stats.ProfitableTrades,
		UnprofitableTrades: st.Stats.UnprofitableTrades,
		TotalFees:          st.Stats.TotalFees,
		OpenPositions:      st.OpenPositions.Len(),
		CandlesProcessed:   st.CandlesProcessed,
		ReferencePrice:     st.ReferencePrice,
		FirstCandleTime:    st.FirstCandleTime,
		LastCandleTime:     st.LastCandleTime,
	}
}

// WriteText prints the run totals in the same order the operators are used to.
func WriteText(w io.Writer, s Summary) error {
	lines := []string{
		"",
		"Итоги стратегии:",
		fmt.Sprintf("Пара: %s %s", s.Symbol, s.Interval),
	}
	if s.CandlesProcessed > 0 {
		lines = append(lines,
			fmt.Sprintf("Период: %s - %s", formatMillis(s.FirstCandleTime), formatMillis(s.LastCandleTime)),
			fmt.Sprintf("Обработано свечей: %d", s.CandlesProcessed),
		)
	}
	lines = append(lines,
		fmt.Sprintf("Начальный баланс: $%s", FormatMoney(s.InitialAmount)),
		fmt.Sprintf("Конечный баланс: $%s", FormatMoney(s.Balance)),
		fmt.Sprintf("Доступный баланс: $%s", FormatMoney(s.AvailableBalance)),
		fmt.Sprintf("Общая прибыль: $%s", FormatMoney(s.TotalProfit)),
		fmt.Sprintf("Всего сделок: %d", s.TotalTrades),
		fmt.Sprintf("Прибыльных сделок: %d", s.ProfitableTrades),
		fmt.Sprintf("Убыточных сделок: %d", s.UnprofitableTrades),
		fmt.Sprintf("Общая сумма комиссий: $%s", FormatMoney(s.TotalFees)),
		fmt.Sprintf("Открытых позиций: %d", s.OpenPositions),
	)

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("Не удалось вывести итоги: %w", err)
		}
	}
	return nil
}

// FormatMoney renders dollars with two decimals, rounding half away from zero.
func FormatMoney(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func formatMillis(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02 15:04")
}
