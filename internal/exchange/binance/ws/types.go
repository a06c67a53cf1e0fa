package ws

import (
	"encoding/json"
	"gridbot/internal/exchange"
	"gridbot/internal/logger"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type Client struct {
	baseURL      string
	log          *logger.Logger
	dialer       *websocket.Dialer
	mu           sync.Mutex
	conn         *websocket.Conn
	events       chan exchange.Event
	stopCh       chan struct{}
	stopOnce     sync.Once
	symbol       string
	interval     string
	reconnectMin time.Duration
	reconnectMax time.Duration
}

// Message is the envelope of a raw kline stream frame.
type Message struct {
	Event     string          `json:"e"`
	EventTime int64           `json:"E"`
	Symbol    string          `json:"s"`
	Kline     json.RawMessage `json:"k"`
}

type klinePayload struct {
	OpenTime  int64  `json:"t"`
	CloseTime int64  `json:"T"`
	Symbol    string `json:"s"`
	Interval  string `json:"i"`
	Open      string `json:"o"`
	Close     string `json:"c"`
	High      string `json:"h"`
	Low       string `json:"l"`
	Volume    string `json:"v"`
	Closed    bool   `json:"x"`
}
