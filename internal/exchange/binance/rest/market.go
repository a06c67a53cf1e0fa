package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"gridbot/internal/exchange"
	"gridbot/internal/models"
	"net/url"
	"strconv"
)

const klinesPath = "/api/v3/klines"

// Klines fetches one page of candles for symbol/interval starting at startMs.
func (c *Client) Klines(ctx context.Context, symbol, interval string, startMs, endMs int64, limit int) ([]models.Candle, error) {
	if limit <= 0 || limit > exchange.MaxKlinesLimit {
		limit = exchange.MaxKlinesLimit
	}

	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", interval)
	params.Set("startTime", strconv.FormatInt(startMs, 10))
	if endMs > 0 {
		params.Set("endTime", strconv.FormatInt(endMs, 10))
	}
	params.Set("limit", strconv.Itoa(limit))

	data, err := c.doRequest(ctx, klinesPath, params)
	if err != nil {
		return nil, err
	}

	candles, err := parseKlines(data)
	if err != nil {
		return nil, err
	}

	c.logEntry().WithFields(map[string]interface{}{
		"symbol":   symbol,
		"interval": interval,
		"start":    startMs,
		"count":    len(candles),
	}).Debug("Получена страница свечей.")

	return candles, nil
}

func parseKlines(data []byte) ([]models.Candle, error) {
	var rows []klineRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("%w: ожидался массив свечей: %v", exchange.ErrMalformedPayload, err)
	}
	// null decodes into a nil slice without error.
	if rows == nil {
		return nil, fmt.Errorf("%w: ожидался массив свечей, получен null", exchange.ErrMalformedPayload)
	}

	candles := make([]models.Candle, 0, len(rows))
	for i, row := range rows {
		candle, err := parseKline(row)
		if err != nil {
			return nil, fmt.Errorf("%w: свеча %d: %v", exchange.ErrMalformedPayload, i, err)
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

func parseKline(row klineRow) (models.Candle, error) {
	if len(row) < 7 {
		return models.Candle{}, fmt.Errorf("ожидалось не менее 7 полей, получено %d", len(row))
	}

	var (
		candle models.Candle
		err    error
	)
	if candle.OpenTime, err = parseIntField(row[0], "openTime"); err != nil {
		return models.Candle{}, err
	}
	if candle.Open, err = parseFloatField(row[1], "open"); err != nil {
		return models.Candle{}, err
	}
	if candle.High, err = parseFloatField(row[2], "high"); err != nil {
		return models.Candle{}, err
	}
	if candle.Low, err = parseFloatField(row[3], "low"); err != nil {
		return models.Candle{}, err
	}
	if candle.Close, err = parseFloatField(row[4], "close"); err != nil {
		return models.Candle{}, err
	}
	if candle.Volume, err = parseFloatField(row[5], "volume"); err != nil {
		return models.Candle{}, err
	}
	if candle.CloseTime, err = parseIntField(row[6], "closeTime"); err != nil {
		return models.Candle{}, err
	}
	return candle, nil
}
