package engine

import (
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func (e *Engine) logEntry() *logrus.Entry {
	return e.log.WithComponent("engine").WithFields(logrus.Fields{
		"symbol":   e.cfg.Symbol,
		"interval": e.cfg.Interval,
	})
}

// money renders a balance for log fields: two decimals, trailing zeros dropped.
func money(v float64) string {
	return decimal.NewFromFloat(v).Round(2).String()
}
