package engine

import (
	"encoding/json"
	"gridbot/internal/models"
	"sort"
)

type State struct {
	Balance          float64            `json:"balance"`
	AvailableBalance float64            `json:"availableBalance"`
	TotalProfit      float64            `json:"totalProfit"`
	OpenPositions    *Positions         `json:"openPositions"`
	TradesHistory    []models.Trade     `json:"tradesHistory"`
	Stats            models.Stats       `json:"stats"`
	ReferencePrice   float64            `json:"referencePrice"`
	EntryLevels      []models.GridLevel `json:"entryLevels"`
	ExitLevels       []models.GridLevel `json:"exitLevels"`
	CandlesProcessed int                `json:"candlesProcessed"`
	FirstCandleTime  int64              `json:"firstCandleTime"`
	LastCandleTime   int64              `json:"lastCandleTime"`
}

func newState(initialAmount float64) *State {
	return &State{
		Balance:          initialAmount,
		AvailableBalance: initialAmount,
		OpenPositions:    NewPositions(),
		TradesHistory:    []models.Trade{},
	}
}

// Positions maps rung id to its open position. Iteration is by ascending id.
type Positions struct {
	byID map[int]models.Position
	ids  []int
}

func NewPositions() *Positions {
	return &Positions{byID: make(map[int]models.Position)}
}

func (p *Positions) Has(id int) bool {
	_, ok := p.byID[id]
	return ok
}

func (p *Positions) Get(id int) (models.Position, bool) {
	pos, ok := p.byID[id]
	return pos, ok
}

// Set opens or replaces the position of rung id.
func (p *Positions) Set(id int, pos models.Position) {
	if _, ok := p.byID[id]; !ok {
		idx := sort.SearchInts(p.ids, id)
		p.ids = append(p.ids, 0)
		copy(p.ids[idx+1:], p.ids[idx:])
		p.ids[idx] = id
	}
	p.byID[id] = pos
}

func (p *Positions) Delete(id int) {
	if _, ok := p.byID[id]; !ok {
		return
	}
	delete(p.byID, id)
	idx := sort.SearchInts(p.ids, id)
	p.ids = append(p.ids[:idx], p.ids[idx+1:]...)
}

func (p *Positions) Len() int {
	return len(p.ids)
}

// IDs returns a copy of the open rung ids in ascending order.
func (p *Positions) IDs() []int {
	out := make([]int, len(p.ids))
	copy(out, p.ids)
	return out
}

func (p *Positions) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.byID)
}
