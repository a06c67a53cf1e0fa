package engine

import (
	"gridbot/internal/config"
	"gridbot/internal/logger"
	"gridbot/internal/models"
)

const defaultProgressEvery = 1000

// Engine replays candles against a static grid. One Engine serves one run at a
// time and is not safe for concurrent use.
type Engine struct {
	cfg config.StrategyConfig
	log *logger.Logger

	progressEvery int

	state   *State
	started bool
}

type Option func(*Engine)

// WithProgressEvery sets how often (in candles) progress is logged. 0 disables it.
func WithProgressEvery(n int) Option {
	return func(e *Engine) {
		e.progressEvery = n
	}
}

func New(cfg config.StrategyConfig, log *logger.Logger, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Discard()
	}

	e := &Engine{
		cfg:           cfg,
		log:           log,
		progressEvery: defaultProgressEvery,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.Reset()
	return e, nil
}

// Reset drops all state and ladders; the next candle becomes the reference price.
func (e *Engine) Reset() {
	e.state = newState(e.cfg.InitialAmount)
	e.started = false
}

// Run replays candles from a fresh state and returns the final state.
func (e *Engine) Run(candles []models.Candle) *State {
	e.Reset()
	for _, c := range candles {
		e.Step(c)
	}
	return e.Finish()
}

// Step processes one candle: take-profit, then entries, then exits. It returns
// the trades recorded for this candle.
func (e *Engine) Step(c models.Candle) []models.Trade {
	if !e.started {
		e.initGrid(c)
	}

	before := len(e.state.TradesHistory)

	if e.cfg.TakeProfitPercent != nil {
		e.checkTakeProfit(c)
	}
	e.fillEntries(c)
	e.fillExits(c)

	index := e.state.CandlesProcessed
	e.state.CandlesProcessed++
	e.state.LastCandleTime = c.OpenTime

	if e.progressEvery > 0 && index%e.progressEvery == 0 {
		e.logEntry().WithFields(map[string]interface{}{
			"candles":   index,
			"available": money(e.state.AvailableBalance),
			"profit":    money(e.state.TotalProfit),
			"positions": e.state.OpenPositions.Len(),
		}).Info("Промежуточный результат.")
	}

	added := e.state.TradesHistory[before:]
	out := make([]models.Trade, len(added))
	copy(out, added)
	return out
}

// Finish settles the balance. It can be called repeatedly, e.g. by a stream
// that reports intermediate totals.
func (e *Engine) Finish() *State {
	e.state.Balance = e.state.AvailableBalance + e.state.TotalProfit
	return e.state
}

func (e *Engine) State() *State {
	return e.state
}

func (e *Engine) Config() config.StrategyConfig {
	return e.cfg
}

func (e *Engine) initGrid(c models.Candle) {
	e.started = true
	e.state.ReferencePrice = c.Close
	e.state.FirstCandleTime = c.OpenTime
	e.state.EntryLevels = BuildEntryLevels(e.cfg, c.Close)
	e.state.ExitLevels = BuildExitLevels(e.cfg, c.Close)

	e.logEntry().WithField("prices", levelPrices(e.state.EntryLevels)).Info("Сетка входов.")
	e.logEntry().WithField("prices", levelPrices(e.state.ExitLevels)).Info("Сетка выходов.")
	e.logEntry().WithFields(map[string]interface{}{
		"entries":         len(e.state.EntryLevels),
		"exits":           len(e.state.ExitLevels),
		"reference_price": c.Close,
	}).Info("Сетка инициализирована.")
}
