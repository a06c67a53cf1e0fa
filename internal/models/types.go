package models

import "time"

type TradeType string

const (
	TradeTypeBuy        TradeType = "BUY"
	TradeTypeSell       TradeType = "SELL"
	TradeTypeTakeProfit TradeType = "TAKE_PROFIT"
)

// Candle is one OHLCV bar. Times are unix milliseconds, as returned by the exchange.
type Candle struct {
	OpenTime  int64   `json:"openTime"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
	CloseTime int64   `json:"closeTime"`
}

func (c Candle) OpenAt() time.Time {
	return time.UnixMilli(c.OpenTime).UTC()
}

func (c Candle) CloseAt() time.Time {
	return time.UnixMilli(c.CloseTime).UTC()
}

type GridLevel struct {
	ID          int     `json:"id"`
	Price       float64 `json:"price"`
	DollarValue float64 `json:"dollarValue,omitempty"`
}

type Position struct {
	EntryPrice float64 `json:"entryPrice"`
	Amount     float64 `json:"amount"`
	OpenedAt   int64   `json:"openedAt"`
}

// Trade is one ledger entry. Profit is nil for BUY entries.
type Trade struct {
	Time         int64     `json:"time"`
	Type         TradeType `json:"type"`
	RungID       int       `json:"rungId"`
	Price        float64   `json:"price"`
	Amount       float64   `json:"amount"`
	Qty          float64   `json:"qty"`
	Profit       *float64  `json:"profit,omitempty"`
	Fee          float64   `json:"fee"`
	BalanceAfter float64   `json:"balanceAfter"`
}

func (t Trade) At() time.Time {
	return time.UnixMilli(t.Time).UTC()
}

// ProfitValue returns the realized profit or 0 for entries.
func (t Trade) ProfitValue() float64 {
	if t.Profit == nil {
		return 0
	}
	return *t.Profit
}

type Stats struct {
	TotalTrades        int     `json:"totalTrades"`
	ProfitableTrades   int     `json:"profitableTrades"`
	UnprofitableTrades int     `json:"unprofitableTrades"`
	TotalFees          float64 `json:"totalFees"`
}

// RunRecord is what the journals persist about one simulation run.
type RunRecord struct {
	RunID            string    `json:"runId"`
	Symbol           string    `json:"symbol"`
	Interval         string    `json:"interval"`
	Source           string    `json:"source"`
	StartedAt        time.Time `json:"startedAt"`
	FinishedAt       time.Time `json:"finishedAt"`
	FirstCandle      int64     `json:"firstCandle"`
	LastCandle       int64     `json:"lastCandle"`
	CandlesProcessed int       `json:"candlesProcessed"`
	ReferencePrice   float64   `json:"referencePrice"`
	InitialAmount    float64   `json:"initialAmount"`
	Balance          float64   `json:"balance"`
	AvailableBalance float64   `json:"availableBalance"`
	TotalProfit      float64   `json:"totalProfit"`
	OpenPositions    int       `json:"openPositions"`
	Stats            Stats     `json:"stats"`
	ConfigJSON       string    `json:"config"`
}
