package rest

import (
	"gridbot/internal/logger"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// New builds a public market-data client. rps <= 0 disables throttling.
func New(baseURL string, timeout time.Duration, rps float64, burst int, log *logger.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if log == nil {
		log = logger.Discard()
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if rps > 0 {
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: limiter,
		log:     log,
	}
}
