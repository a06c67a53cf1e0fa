package engine

import (
	"math"

	"github.com/shopspring/decimal"
)

// Round rounds half away from zero at the given number of decimal places,
// working on the shortest decimal form of value (so 1.005 becomes 1.01).
func Round(value float64, places int) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return value
	}
	rounded, _ := decimal.NewFromFloat(value).Round(int32(places)).Float64()
	return rounded
}

func CalcTPPrice(entryPrice, tpPercent float64) float64 {
	return entryPrice * (1 + tpPercent)
}

// CalcProfit is the dollar result of a position of amount opened at entryPrice
// and valued at price.
func CalcProfit(amount, entryPrice, price float64) float64 {
	if entryPrice == 0 {
		return 0
	}
	return amount * ((price - entryPrice) / entryPrice)
}

func CalcQty(amount, price float64, qtyRound int) float64 {
	if price == 0 {
		return 0
	}
	return Round(amount/price, qtyRound)
}
