package engine

import (
	"gridbot/internal/models"
)

// fillEntries buys every free rung at or above the close while cash allows.
func (e *Engine) fillEntries(c models.Candle) {
	for _, entry := range e.state.EntryLevels {
		if e.state.OpenPositions.Has(entry.ID) || c.Close > entry.Price {
			continue
		}

		fee := entry.DollarValue * e.cfg.Comm
		if entry.DollarValue+fee > e.state.AvailableBalance {
			e.logEntry().WithFields(map[string]interface{}{
				"rung":      entry.ID,
				"cost":      entry.DollarValue + fee,
				"available": e.state.AvailableBalance,
			}).Debug("Недостаточно средств, вход пропущен.")
			continue
		}

		e.openPosition(entry, fee, c)
	}
}

// fillExits sells every open rung whose exit level is at or below the close.
func (e *Engine) fillExits(c models.Candle) {
	for _, exit := range e.state.ExitLevels {
		pos, ok := e.state.OpenPositions.Get(exit.ID)
		if !ok || c.Close < exit.Price {
			continue
		}

		trade := e.closePosition(exit.ID, pos, c, models.TradeTypeSell, exit.Price)
		if trade.ProfitValue() > 0 {
			e.state.Stats.ProfitableTrades++
		} else {
			e.state.Stats.UnprofitableTrades++
		}
	}
}
