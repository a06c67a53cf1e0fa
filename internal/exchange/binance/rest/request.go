package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"gridbot/internal/exchange"
	"io"
	"net/http"
	"net/url"
)

// doRequest performs a GET and returns the raw body. Error payloads and
// non-2xx statuses are mapped onto the exchange sentinel errors.
func (c *Client) doRequest(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("Ожидание лимита запросов прервано: %w", err)
	}

	urlStr := c.baseURL + path
	if len(params) > 0 {
		urlStr += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("Не удалось создать запрос: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Ошибка запроса: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("Не удалось прочитать ответ: %w", err)
	}

	if apiErr, ok := extractAPIError(data); ok {
		if isRateLimitCode(apiErr.Code) || isRateLimitStatus(resp.StatusCode) {
			return nil, fmt.Errorf("%w: %w: %s (code=%d)", exchange.ErrExchange, exchange.ErrRateLimited, apiErr.Msg, apiErr.Code)
		}
		return nil, fmt.Errorf("%w: %s (code=%d)", exchange.ErrExchange, apiErr.Msg, apiErr.Code)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if isRateLimitStatus(resp.StatusCode) {
			return nil, fmt.Errorf("%w: %w: %s", exchange.ErrBadStatus, exchange.ErrRateLimited, resp.Status)
		}
		return nil, fmt.Errorf("%w: %s", exchange.ErrBadStatus, resp.Status)
	}

	return data, nil
}

func extractAPIError(data []byte) (apiError, bool) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return apiError{}, false
	}

	var apiErr apiError
	if err := json.Unmarshal(trimmed, &apiErr); err != nil {
		return apiError{}, false
	}
	if apiErr.Code == 0 && apiErr.Msg == "" {
		return apiError{}, false
	}
	return apiErr, true
}

func isRateLimitStatus(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusTeapot
}

func isRateLimitCode(code int) bool {
	return code == codeTooManyRequests || code == codeTooManyOrders
}
