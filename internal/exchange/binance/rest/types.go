package rest

import (
	"gridbot/internal/logger"
	"net/http"

	"golang.org/x/time/rate"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *logger.Logger
}

// apiError is the body Binance sends instead of data, e.g. {"code":-1121,"msg":"Invalid symbol."}.
type apiError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// Binance error codes that mean the request weight was exceeded.
const (
	codeTooManyRequests = -1003
	codeTooManyOrders   = -1015
)
