package engine

import (
	"math/rand"
	"testing"

	"gridbot/internal/config"
	"gridbot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-9

func scenarioConfig() config.StrategyConfig {
	return config.StrategyConfig{
		Symbol:           "BTCUSDT",
		Interval:         "1m",
		GridRange:        0.05,
		OrderQty:         2,
		OrderDollarValue: 10,
		InitialAmount:    100,
		TickRound:        2,
		QtyRound:         4,
		Comm:             0,
	}
}

func candle(i int, close float64) models.Candle {
	open := int64(1_700_000_000_000) + int64(i)*60_000
	return models.Candle{
		OpenTime:  open,
		Open:      close,
		High:      close,
		Low:       close,
		Close:     close,
		Volume:    1,
		CloseTime: open + 59_999,
	}
}

func candles(closes ...float64) []models.Candle {
	out := make([]models.Candle, 0, len(closes))
	for i, c := range closes {
		out = append(out, candle(i, c))
	}
	return out
}

func newEngine(t *testing.T, cfg config.StrategyConfig) *Engine {
	t.Helper()
	e, err := New(cfg, nil)
	require.NoError(t, err)
	return e
}

func tradeTypes(trades []models.Trade) []models.TradeType {
	out := make([]models.TradeType, 0, len(trades))
	for _, tr := range trades {
		out = append(out, tr.Type)
	}
	return out
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := scenarioConfig()
	cfg.OrderQty = 0
	_, err := New(cfg, nil)
	require.ErrorIs(t, err, config.ErrInvalidConfig)

	cfg = scenarioConfig()
	cfg.Comm = -0.1
	_, err = New(cfg, nil)
	require.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestRun_EmptyInput(t *testing.T) {
	t.Parallel()

	st := newEngine(t, scenarioConfig()).Run(nil)

	assert.Equal(t, 100.0, st.Balance)
	assert.Equal(t, 100.0, st.AvailableBalance)
	assert.Zero(t, st.TotalProfit)
	assert.Empty(t, st.TradesHistory)
	assert.Equal(t, models.Stats{}, st.Stats)
	assert.Zero(t, st.OpenPositions.Len())
	assert.Empty(t, st.EntryLevels)
	assert.Zero(t, st.CandlesProcessed)
}

func TestRun_TwoRungScenario(t *testing.T) {
	t.Parallel()

	e := newEngine(t, scenarioConfig())
	st := e.Run(candles(100, 102.5))

	assert.Equal(t, []models.GridLevel{
		{ID: 2, Price: 100, DollarValue: 10},
		{ID: 1, Price: 102.5, DollarValue: 10},
	}, st.EntryLevels)
	assert.Equal(t, []models.GridLevel{
		{ID: 2, Price: 102.5},
		{ID: 1, Price: 105},
	}, st.ExitLevels)

	// Both rungs sit at or above the first close, so both fill on candle one.
	require.Len(t, st.TradesHistory, 3)
	assert.Equal(t, []models.TradeType{models.TradeTypeBuy, models.TradeTypeBuy, models.TradeTypeSell}, tradeTypes(st.TradesHistory))

	buy2, buy1, sell2 := st.TradesHistory[0], st.TradesHistory[1], st.TradesHistory[2]
	assert.Equal(t, 2, buy2.RungID)
	assert.Equal(t, 100.0, buy2.Price)
	assert.InDelta(t, 90.0, buy2.BalanceAfter, eps)
	assert.InDelta(t, 0.1, buy2.Qty, eps)
	assert.Nil(t, buy2.Profit)

	assert.Equal(t, 1, buy1.RungID)
	assert.Equal(t, 102.5, buy1.Price)
	assert.InDelta(t, 80.0, buy1.BalanceAfter, eps)

	assert.Equal(t, 2, sell2.RungID)
	assert.Equal(t, 102.5, sell2.Price)
	require.NotNil(t, sell2.Profit)
	assert.InDelta(t, 0.25, *sell2.Profit, eps)
	assert.InDelta(t, 90.25, sell2.BalanceAfter, eps)
	assert.Equal(t, candle(1, 0).OpenTime, sell2.Time)

	assert.InDelta(t, 90.25, st.AvailableBalance, eps)
	assert.InDelta(t, 0.25, st.TotalProfit, eps)
	assert.InDelta(t, 90.5, st.Balance, eps)
	assert.Equal(t, models.Stats{TotalTrades: 2, ProfitableTrades: 1}, st.Stats)
	assert.Equal(t, []int{1}, st.OpenPositions.IDs())
	assert.Equal(t, 2, st.CandlesProcessed)
}

func TestRun_EntryBeforeExitOnSameCandle(t *testing.T) {
	t.Parallel()

	// Only one rung is affordable at a time. On the second candle the entry
	// pass runs before the exit frees cash, so rung 1 waits for candle three.
	cfg := scenarioConfig()
	cfg.InitialAmount = 10

	st := newEngine(t, cfg).Run(candles(100, 102.5, 102.5))

	require.Len(t, st.TradesHistory, 3)
	assert.Equal(t, []models.TradeType{models.TradeTypeBuy, models.TradeTypeSell, models.TradeTypeBuy}, tradeTypes(st.TradesHistory))
	assert.Equal(t, []int{2, 2, 1}, []int{st.TradesHistory[0].RungID, st.TradesHistory[1].RungID, st.TradesHistory[2].RungID})
	assert.InDelta(t, 10.25, st.TradesHistory[1].BalanceAfter, eps)
	assert.InDelta(t, 0.25, st.AvailableBalance, eps)
	assert.Equal(t, st.TradesHistory[2].Time, candle(2, 0).OpenTime)
}

func TestRun_InsufficientBalanceSkipsEntries(t *testing.T) {
	t.Parallel()

	cfg := scenarioConfig()
	cfg.OrderQty = 5
	cfg.InitialAmount = 25
	cfg.Comm = 0.001

	// Price keeps falling: no exit ever frees cash.
	st := newEngine(t, cfg).Run(candles(100, 99, 98, 97, 96, 95))

	assert.Equal(t, 2, st.Stats.TotalTrades)
	for _, tr := range st.TradesHistory {
		assert.Equal(t, models.TradeTypeBuy, tr.Type)
		assert.GreaterOrEqual(t, tr.BalanceAfter, 0.0)
	}
	assert.InDelta(t, 25-2*10.01, st.AvailableBalance, eps)
}

func TestRun_TakeProfit(t *testing.T) {
	t.Parallel()

	cfg := scenarioConfig()
	cfg.Comm = 0.001
	tp := 0.01
	cfg.TakeProfitPercent = &tp

	st := newEngine(t, cfg).Run(candles(100, 101.5))

	require.Len(t, st.TradesHistory, 3)
	tpTrade := st.TradesHistory[2]
	assert.Equal(t, models.TradeTypeTakeProfit, tpTrade.Type)
	assert.Equal(t, 2, tpTrade.RungID)
	assert.Equal(t, 101.5, tpTrade.Price)
	assert.InDelta(t, 0.15, tpTrade.ProfitValue(), eps)
	assert.InDelta(t, 0.01, tpTrade.Fee, eps)

	assert.InDelta(t, 90.12, st.AvailableBalance, eps)
	assert.InDelta(t, 0.14, st.TotalProfit, eps)
	assert.InDelta(t, 90.26, st.Balance, eps)
	assert.InDelta(t, 0.03, st.Stats.TotalFees, eps)
	assert.Equal(t, 1, st.Stats.ProfitableTrades)
	assert.Equal(t, []int{1}, st.OpenPositions.IDs())
}

func TestRun_TakeProfitPrecedesGridExit(t *testing.T) {
	t.Parallel()

	cfg := scenarioConfig()
	tp := 0.02
	cfg.TakeProfitPercent = &tp

	st := newEngine(t, cfg).Run(candles(100, 102.5))

	assert.Equal(t, []models.TradeType{models.TradeTypeBuy, models.TradeTypeBuy, models.TradeTypeTakeProfit}, tradeTypes(st.TradesHistory))
	assert.Equal(t, 102.5, st.TradesHistory[2].Price)
}

func TestRun_UnsetTakeProfitNeverFires(t *testing.T) {
	t.Parallel()

	st := newEngine(t, scenarioConfig()).Run(candles(100, 104))

	for _, tr := range st.TradesHistory {
		assert.NotEqual(t, models.TradeTypeTakeProfit, tr.Type)
	}
}

func TestRun_DegenerateGrid(t *testing.T) {
	t.Parallel()

	cfg := scenarioConfig()
	cfg.GridRange = 0

	st := newEngine(t, cfg).Run(candles(100))

	// Every rung enters and exits at the reference price within one candle.
	assert.Equal(t, []models.TradeType{
		models.TradeTypeBuy, models.TradeTypeBuy, models.TradeTypeSell, models.TradeTypeSell,
	}, tradeTypes(st.TradesHistory))
	assert.Equal(t, 2, st.Stats.UnprofitableTrades)
	assert.InDelta(t, 100.0, st.Balance, eps)
}

func TestRun_ProfitableByGrossProfit(t *testing.T) {
	t.Parallel()

	cfg := scenarioConfig()
	cfg.Comm = 0.05

	// Rung 1 was entered at 102.5 and exits at 105: gross profit is positive,
	// net of the fee it is a loss. Classification follows the gross figure.
	st := newEngine(t, cfg).Run(candles(100, 105))

	var sells []models.Trade
	for _, tr := range st.TradesHistory {
		if tr.Type == models.TradeTypeSell {
			sells = append(sells, tr)
		}
	}
	require.Len(t, sells, 2)
	assert.Less(t, sells[1].ProfitValue()-sells[1].Fee, 0.0)
	assert.Equal(t, 2, st.Stats.ProfitableTrades)
	assert.Zero(t, st.Stats.UnprofitableTrades)
	assert.Less(t, st.TotalProfit, 0.0)
}

func TestRun_EntryCostIncludesFee(t *testing.T) {
	t.Parallel()

	cfg := scenarioConfig()
	cfg.OrderQty = 1
	cfg.InitialAmount = 10
	cfg.Comm = 0.001

	// 10 covers the order but not 10.01 with the fee.
	st := newEngine(t, cfg).Run(candles(100))

	assert.Empty(t, st.TradesHistory)
	assert.Equal(t, 0, st.Stats.TotalTrades)
	assert.InDelta(t, 10.0, st.AvailableBalance, eps)
	assert.InDelta(t, 10.0, st.Balance, eps)
}

func TestStep_ReturnsCandleTrades(t *testing.T) {
	t.Parallel()

	e := newEngine(t, scenarioConfig())

	first := e.Step(candle(0, 100))
	assert.Len(t, first, 2)

	quiet := e.Step(candle(1, 101))
	assert.Empty(t, quiet)

	assert.Equal(t, 2, e.State().OpenPositions.Len())

	sell := e.Step(candle(2, 102.5))
	require.Len(t, sell, 1)
	assert.Equal(t, models.TradeTypeSell, sell[0].Type)
	assert.Equal(t, []int{2}, e.State().OpenPositions.IDs())

	st := e.Finish()
	assert.Len(t, st.TradesHistory, 3)
	assert.InDelta(t, st.AvailableBalance+st.TotalProfit, st.Balance, eps)
}

func TestRun_ResetsBetweenRuns(t *testing.T) {
	t.Parallel()

	e := newEngine(t, scenarioConfig())
	e.Run(candles(100, 102.5))
	st := e.Run(candles(200))

	assert.Equal(t, 200.0, st.ReferencePrice)
	assert.Len(t, st.TradesHistory, 2)
	assert.Equal(t, 1, st.CandlesProcessed)
}

func randomWalk(seed int64, n int, start float64) []models.Candle {
	rng := rand.New(rand.NewSource(seed))
	out := make([]models.Candle, 0, n)
	price := start
	for i := 0; i < n; i++ {
		price *= 1 + (rng.Float64()-0.5)*0.01
		out = append(out, candle(i, Round(price, 2)))
	}
	return out
}

func propertyConfigs() []config.StrategyConfig {
	tp := 0.03
	base := config.StrategyConfig{
		Symbol: "BTCUSDT", Interval: "1m", GridRange: 0.05, OrderQty: 10,
		OrderDollarValue: 20, InitialAmount: 500, TickRound: 2, QtyRound: 4, Comm: 0.001,
	}
	withTP := base
	withTP.TakeProfitPercent = &tp
	tight := base
	tight.InitialAmount = 45
	tight.OrderQty = 25
	tight.GridRange = 0.02
	return []config.StrategyConfig{base, withTP, tight}
}

func TestRun_Invariants(t *testing.T) {
	t.Parallel()

	for i, cfg := range propertyConfigs() {
		for seed := int64(1); seed <= 5; seed++ {
			st := newEngine(t, cfg).Run(randomWalk(seed, 3000, 30000))

			open := map[int]bool{}
			fees := 0.0
			for _, tr := range st.TradesHistory {
				require.GreaterOrEqual(t, tr.BalanceAfter, -eps, "config %d seed %d", i, seed)
				fees += tr.Fee

				switch tr.Type {
				case models.TradeTypeBuy:
					require.False(t, open[tr.RungID], "rung %d opened twice", tr.RungID)
					open[tr.RungID] = true
				default:
					require.True(t, open[tr.RungID], "rung %d closed while flat", tr.RungID)
					delete(open, tr.RungID)
				}
			}

			assert.InDelta(t, st.Stats.TotalFees, fees, 1e-6)
			assert.Equal(t, len(open), st.OpenPositions.Len())
			assert.InDelta(t, st.AvailableBalance+st.TotalProfit, st.Balance, eps)
		}
	}
}

func TestRun_Idempotent(t *testing.T) {
	t.Parallel()

	cfg := propertyConfigs()[1]
	data := randomWalk(42, 2000, 100)

	a := newEngine(t, cfg).Run(data)
	b := newEngine(t, cfg).Run(data)

	assert.Equal(t, a.TradesHistory, b.TradesHistory)
	assert.Equal(t, a.Stats, b.Stats)
	assert.Equal(t, a.Balance, b.Balance)
	assert.Equal(t, a.OpenPositions.IDs(), b.OpenPositions.IDs())
}
