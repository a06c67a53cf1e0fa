package engine

import (
	"gridbot/internal/models"
)

func (e *Engine) openPosition(entry models.GridLevel, fee float64, c models.Candle) models.Trade {
	e.state.AvailableBalance -= entry.DollarValue + fee
	e.state.OpenPositions.Set(entry.ID, models.Position{
		EntryPrice: entry.Price,
		Amount:     entry.DollarValue,
		OpenedAt:   c.OpenTime,
	})

	e.state.Stats.TotalTrades++
	e.state.Stats.TotalFees += fee

	trade := models.Trade{
		Time:         c.OpenTime,
		Type:         models.TradeTypeBuy,
		RungID:       entry.ID,
		Price:        entry.Price,
		Amount:       entry.DollarValue,
		Qty:          CalcQty(entry.DollarValue, entry.Price, e.cfg.QtyRound),
		Fee:          fee,
		BalanceAfter: e.state.AvailableBalance,
	}
	e.state.TradesHistory = append(e.state.TradesHistory, trade)

	e.logEntry().WithFields(map[string]interface{}{
		"rung":      entry.ID,
		"price":     entry.Price,
		"amount":    entry.DollarValue,
		"available": e.state.AvailableBalance,
	}).Debug("Покупка.")
	return trade
}

// closePosition realizes the position of rung id. Profit is measured on the
// candle close; price is what gets written to the ledger.
func (e *Engine) closePosition(id int, pos models.Position, c models.Candle, kind models.TradeType, price float64) models.Trade {
	fee := pos.Amount * e.cfg.Comm
	profit := CalcProfit(pos.Amount, pos.EntryPrice, c.Close)

	e.state.AvailableBalance += pos.Amount + profit - fee
	e.state.TotalProfit += profit - fee
	e.state.Stats.TotalFees += fee

	trade := models.Trade{
		Time:         c.OpenTime,
		Type:         kind,
		RungID:       id,
		Price:        price,
		Amount:       pos.Amount,
		Qty:          CalcQty(pos.Amount, pos.EntryPrice, e.cfg.QtyRound),
		Profit:       &profit,
		Fee:          fee,
		BalanceAfter: e.state.AvailableBalance,
	}
	e.state.TradesHistory = append(e.state.TradesHistory, trade)
	e.state.OpenPositions.Delete(id)

	e.logEntry().WithFields(map[string]interface{}{
		"rung":      id,
		"type":      kind,
		"price":     price,
		"profit":    profit,
		"available": e.state.AvailableBalance,
	}).Debug("Продажа.")
	return trade
}
