package ws

import (
	"context"
	"fmt"
	"gridbot/internal/exchange"
	"gridbot/internal/logger"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

type Option func(*Client)

// WithReconnect sets the reconnect backoff bounds.
func WithReconnect(minDelay, maxDelay time.Duration) Option {
	return func(w *Client) {
		w.reconnectMin = minDelay
		w.reconnectMax = maxDelay
	}
}

func New(baseURL string, log *logger.Logger, opts ...Option) *Client {
	if log == nil {
		log = logger.Discard()
	}
	w := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		log:          log,
		dialer:       websocket.DefaultDialer,
		events:       make(chan exchange.Event, 100),
		stopCh:       make(chan struct{}),
		reconnectMin: 1 * time.Second,
		reconnectMax: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Subscribe connects to the kline stream of symbol/interval. The returned
// channel carries closed candles only and is closed when ctx ends or Close is
// called. A Client serves one subscription.
func (w *Client) Subscribe(ctx context.Context, symbol, interval string) (<-chan exchange.Event, error) {
	w.symbol = strings.ToUpper(symbol)
	w.interval = interval

	if err := w.connect(ctx); err != nil {
		return nil, err
	}

	go w.readLoop()
	go func() {
		select {
		case <-ctx.Done():
			_ = w.Close()
		case <-w.stopCh:
		}
	}()

	return w.events, nil
}

func (w *Client) Close() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.mu.Lock()
		if w.conn != nil {
			err = w.conn.Close()
		}
		w.mu.Unlock()
	})
	return err
}

func (w *Client) streamURL() string {
	return fmt.Sprintf("%s/%s@kline_%s", w.baseURL, strings.ToLower(w.symbol), w.interval)
}

func (w *Client) connect(ctx context.Context) error {
	url := w.streamURL()
	w.logEntry().WithField("url", url).Info("Подключение к WS.")

	conn, _, err := w.dialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("Не удалось подключиться к WS: %w", err)
	}
	conn.SetReadLimit(2 << 20)

	w.mu.Lock()
	old := w.conn
	w.conn = conn
	w.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}

	w.logEntry().Info("WS соединение установлено.")
	return nil
}

func (w *Client) logEntry() *logrus.Entry {
	entry := w.log.WithComponent("binance_ws")
	if w.symbol != "" {
		entry = entry.WithField("symbol", w.symbol)
	}
	return entry
}
