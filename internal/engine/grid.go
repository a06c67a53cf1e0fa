package engine

import (
	"gridbot/internal/config"
	"gridbot/internal/models"
)

// BuildEntryLevels spans [ref, ref*(1+gridRange)) in OrderQty equal steps.
// The lowest rung gets the highest id.
func BuildEntryLevels(cfg config.StrategyConfig, referencePrice float64) []models.GridLevel {
	if cfg.OrderQty <= 0 {
		return nil
	}
	low, high := gridBounds(cfg, referencePrice)

	levels := make([]models.GridLevel, 0, cfg.OrderQty)
	for i := 0; i < cfg.OrderQty; i++ {
		levels = append(levels, models.GridLevel{
			ID:          cfg.OrderQty - i,
			Price:       Round(low+(high-low)*float64(i)/float64(cfg.OrderQty), cfg.TickRound),
			DollarValue: cfg.OrderDollarValue,
		})
	}
	return levels
}

// BuildExitLevels spans (ref, ref*(1+gridRange)]; rung id pairs with the entry one step below.
func BuildExitLevels(cfg config.StrategyConfig, referencePrice float64) []models.GridLevel {
	if cfg.OrderQty <= 0 {
		return nil
	}
	low, high := gridBounds(cfg, referencePrice)

	levels := make([]models.GridLevel, 0, cfg.OrderQty)
	for i := 0; i < cfg.OrderQty; i++ {
		levels = append(levels, models.GridLevel{
			ID:    cfg.OrderQty - i,
			Price: Round(low+(high-low)*float64(i+1)/float64(cfg.OrderQty), cfg.TickRound),
		})
	}
	return levels
}

func gridBounds(cfg config.StrategyConfig, referencePrice float64) (float64, float64) {
	return referencePrice, referencePrice * (1 + cfg.GridRange)
}

func levelPrices(levels []models.GridLevel) []float64 {
	prices := make([]float64, 0, len(levels))
	for _, l := range levels {
		prices = append(prices, l.Price)
	}
	return prices
}
