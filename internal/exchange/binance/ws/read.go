package ws

import (
	"context"
	"encoding/json"
	"gridbot/internal/exchange"
	"time"
)

func (w *Client) readLoop() {
	defer close(w.events)
	defer w.closeConn()
	w.logEntry().Debug("readLoop запущен.")

	for {
		select {
		case <-w.stopCh:
			return
		default:
		}

		w.mu.Lock()
		conn := w.conn
		w.mu.Unlock()

		_, data, err := conn.ReadMessage()
		if err != nil {
			if w.stopped() {
				return
			}
			w.logEntry().WithError(err).Warn("Ошибка чтения WS.")

			if !w.reconnect() {
				return
			}
			continue
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			w.logEntry().WithError(err).Warn("Не удалось разобрать WS сообщение.")
			continue
		}

		if msg.Event != "kline" {
			continue
		}
		w.handleKline(msg)
	}
}

func (w *Client) reconnect() bool {
	backoff := w.reconnectMin

	for {
		w.logEntry().Info("Попытка переподключения к WS.")

		select {
		case <-w.stopCh:
			return false
		case <-time.After(backoff):
		}

		if err := w.connect(context.Background()); err != nil {
			w.logEntry().WithError(err).Warn("Не удалось переподключиться к WS.")
			backoff = w.nextBackoff(backoff)
			continue
		}

		if !w.emit(exchange.Event{Type: exchange.EventTypeReconnect, Symbol: w.symbol}) {
			return false
		}
		w.logEntry().Info("WS переподключён.")
		return true
	}
}

func (w *Client) nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > w.reconnectMax {
		return w.reconnectMax
	}
	return next
}

// emit delivers ev unless the client is stopping.
func (w *Client) emit(ev exchange.Event) bool {
	select {
	case w.events <- ev:
		return true
	case <-w.stopCh:
		return false
	}
}

func (w *Client) stopped() bool {
	select {
	case <-w.stopCh:
		return true
	default:
		return false
	}
}

func (w *Client) closeConn() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn != nil {
		_ = w.conn.Close()
	}
}
