package ws

import (
	"encoding/json"
	"gridbot/internal/exchange"
	"gridbot/internal/models"
	"strconv"
)

func (w *Client) handleKline(msg Message) {
	var k klinePayload
	if err := json.Unmarshal(msg.Kline, &k); err != nil {
		w.logEntry().WithError(err).Warn("Не удалось разобрать kline.")
		return
	}

	if !k.Closed {
		return
	}

	candle, err := k.toCandle()
	if err != nil {
		w.logEntry().WithError(err).Warn("Некорректная свеча в потоке.")
		return
	}

	w.logEntry().WithFields(map[string]interface{}{
		"interval":   k.Interval,
		"open_time":  k.OpenTime,
		"close":      k.Close,
		"event_time": msg.EventTime,
	}).Debug("kline")

	w.emit(exchange.Event{
		Type:   exchange.EventTypeKline,
		Symbol: k.Symbol,
		Candle: &candle,
	})
}

func (k klinePayload) toCandle() (models.Candle, error) {
	values := [5]float64{}
	for i, text := range [5]string{k.Open, k.High, k.Low, k.Close, k.Volume} {
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return models.Candle{}, err
		}
		values[i] = v
	}

	return models.Candle{
		OpenTime:  k.OpenTime,
		Open:      values[0],
		High:      values[1],
		Low:       values[2],
		Close:     values[3],
		Volume:    values[4],
		CloseTime: k.CloseTime,
	}, nil
}
