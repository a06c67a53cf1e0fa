package rest

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// klineRow is one element of the klines response:
// [openTime, "open", "high", "low", "close", "volume", closeTime, ...].
type klineRow []json.RawMessage

func parseFloatField(raw json.RawMessage, name string) (float64, error) {
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		var num float64
		if err := json.Unmarshal(raw, &num); err != nil {
			return 0, fmt.Errorf("Некорректное значение %s=%s", name, string(raw))
		}
		return num, nil
	}
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("Некорректное значение %s=%q: %w", name, text, err)
	}
	return value, nil
}

func parseIntField(raw json.RawMessage, name string) (int64, error) {
	var value int64
	if err := json.Unmarshal(raw, &value); err != nil {
		return 0, fmt.Errorf("Некорректное значение %s=%s: %w", name, string(raw), err)
	}
	return value, nil
}
