package engine

import (
	"gridbot/internal/models"
)

func (e *Engine) checkTakeProfit(c models.Candle) {
	tpPercent := *e.cfg.TakeProfitPercent

	for _, id := range e.state.OpenPositions.IDs() {
		pos, _ := e.state.OpenPositions.Get(id)
		if c.Close < CalcTPPrice(pos.EntryPrice, tpPercent) {
			continue
		}

		trade := e.closePosition(id, pos, c, models.TradeTypeTakeProfit, c.Close)
		e.state.Stats.ProfitableTrades++

		e.logEntry().WithFields(map[string]interface{}{
			"rung":   id,
			"entry":  pos.EntryPrice,
			"price":  c.Close,
			"profit": trade.ProfitValue(),
		}).Debug("Сработал тейк-профит.")
	}
}
