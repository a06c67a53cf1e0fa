package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"gridbot/internal/models"
	"os"
	"path/filepath"
)

var ErrUnordered = errors.New("Свечи в файле не упорядочены по времени")

// Save writes candles as a JSON array. The file is replaced atomically.
func Save(path string, candles []models.Candle) error {
	if candles == nil {
		candles = []models.Candle{}
	}

	data, err := json.MarshalIndent(candles, "", "  ")
	if err != nil {
		return fmt.Errorf("Не удалось сериализовать свечи: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("Не удалось создать каталог %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("Не удалось создать временный файл: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("Не удалось записать свечи: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("Не удалось записать свечи: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("Не удалось сохранить файл %s: %w", path, err)
	}
	return nil
}

// Load reads a file written by Save and checks the candles are in time order.
func Load(path string) ([]models.Candle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("Не удалось прочитать файл свечей: %w", err)
	}

	var candles []models.Candle
	if err := json.Unmarshal(data, &candles); err != nil {
		return nil, fmt.Errorf("Не удалось разобрать файл свечей %s: %w", path, err)
	}

	for i := 1; i < len(candles); i++ {
		if candles[i].OpenTime < candles[i-1].OpenTime {
			return nil, fmt.Errorf("%w: позиция %d", ErrUnordered, i)
		}
	}
	return candles, nil
}
