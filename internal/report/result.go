package report

import (
	"encoding/json"
	"fmt"
	"gridbot/internal/config"
	"gridbot/internal/engine"
	"gridbot/internal/models"
	"os"
	"path/filepath"
	"time"
)

// Result is the JSON document written after a run.
type Result struct {
	RunID    string                `json:"runId"`
	Source   string                `json:"source"`
	Strategy config.StrategyConfig `json:"strategy"`
	Summary  Summary               `json:"summary"`
	State    *engine.State         `json:"state"`
}

func WriteJSON(path string, res Result) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("Не удалось сериализовать результат: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("Не удалось создать каталог %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("Не удалось записать результат: %w", err)
	}
	return nil
}

// NewRunRecord flattens a finished run for the journals.
func NewRunRecord(runID, source string, cfg config.StrategyConfig, st *engine.State, startedAt, finishedAt time.Time) (models.RunRecord, error) {
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return models.RunRecord{}, fmt.Errorf("Не удалось сериализовать настройки стратегии: %w", err)
	}

	return models.RunRecord{
		RunID:            runID,
		Symbol:           cfg.Symbol,
		Interval:         cfg.Interval,
		Source:           source,
		StartedAt:        startedAt.UTC(),
		FinishedAt:       finishedAt.UTC(),
		FirstCandle:      st.FirstCandleTime,
		LastCandle:       st.LastCandleTime,
		CandlesProcessed: st.CandlesProcessed,
		ReferencePrice:   st.ReferencePrice,
		InitialAmount:    cfg.InitialAmount,
		Balance:          st.Balance,
		AvailableBalance: st.AvailableBalance,
		TotalProfit:      st.TotalProfit,
		OpenPositions:    st.OpenPositions.Len(),
		Stats:            st.Stats,
		ConfigJSON:       string(cfgJSON),
	}, nil
}
