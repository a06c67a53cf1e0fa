package report

import (
	"encoding/csv"
	"fmt"
	"gridbot/internal/models"
	"io"
	"os"
	"strconv"
	"time"
)

var tradeHeader = []string{"time", "type", "rung_id", "price", "amount", "qty", "profit", "fee", "balance_after"}

// WriteTradesCSV writes the ledger, one row per trade. Profit is empty for BUY rows.
func WriteTradesCSV(w io.Writer, trades []models.Trade) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(tradeHeader); err != nil {
		return fmt.Errorf("Не удалось записать заголовок CSV: %w", err)
	}

	for _, t := range trades {
		profit := ""
		if t.Profit != nil {
			profit = f(*t.Profit)
		}
		row := []string{
			t.At().Format(time.RFC3339),
			string(t.Type),
			strconv.Itoa(t.RungID),
			f(t.Price),
			f(t.Amount),
			f(t.Qty),
			profit,
			f(t.Fee),
			f(t.BalanceAfter),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("Не удалось записать сделку в CSV: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func SaveTradesCSV(path string, trades []models.Trade) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("Не удалось создать файл %s: %w", path, err)
	}
	defer file.Close()

	if err := WriteTradesCSV(file, trades); err != nil {
		return err
	}
	return file.Close()
}

func f(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
