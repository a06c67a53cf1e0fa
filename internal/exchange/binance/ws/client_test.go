package ws

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"gridbot/internal/exchange"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func klineFrame(openTime int64, closePrice string, closed bool) string {
	return fmt.Sprintf(`{"e":"kline","E":%d,"s":"BTCUSDT","k":{"t":%d,"T":%d,"s":"BTCUSDT","i":"1m","o":"100.0","c":"%s","h":"102.0","l":"99.0","v":"3.5","x":%t}}`,
		openTime+1, openTime, openTime+59999, closePrice, closed)
}

// streamServer serves one batch of frames per connection, then either holds
// the connection open or drops it.
func streamServer(t *testing.T, batches [][]string, paths chan<- string) string {
	t.Helper()

	var conns atomic.Int32
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if paths != nil {
			paths <- r.URL.Path
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		n := int(conns.Add(1)) - 1
		if n < len(batches) {
			for _, frame := range batches[n] {
				if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
					return
				}
			}
		}
		if n < len(batches)-1 {
			return
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func nextEvent(t *testing.T, events <-chan exchange.Event) exchange.Event {
	t.Helper()

	select {
	case ev, ok := <-events:
		require.True(t, ok, "канал событий закрыт")
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("нет события от WS")
		return exchange.Event{}
	}
}

func TestSubscribe_EmitsClosedKlinesOnly(t *testing.T) {
	t.Parallel()

	paths := make(chan string, 1)
	url := streamServer(t, [][]string{{
		`{"result":null,"id":1}`,
		klineFrame(1700000000000, "100.5", false),
		klineFrame(1700000000000, "101.25", true),
		`not json`,
		klineFrame(1700000060000, "101.75", true),
	}}, paths)

	client := New(url, nil)
	events, err := client.Subscribe(context.Background(), "btcusdt", "1m")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	assert.Equal(t, "/ws/btcusdt@kline_1m", <-paths)

	ev := nextEvent(t, events)
	assert.Equal(t, exchange.EventTypeKline, ev.Type)
	assert.Equal(t, "BTCUSDT", ev.Symbol)
	require.NotNil(t, ev.Candle)
	assert.Equal(t, int64(1700000000000), ev.Candle.OpenTime)
	assert.Equal(t, int64(1700000059999), ev.Candle.CloseTime)
	assert.Equal(t, 101.25, ev.Candle.Close)
	assert.Equal(t, 102.0, ev.Candle.High)
	assert.Equal(t, 3.5, ev.Candle.Volume)

	ev = nextEvent(t, events)
	assert.Equal(t, 101.75, ev.Candle.Close)
}

func TestSubscribe_Reconnects(t *testing.T) {
	t.Parallel()

	url := streamServer(t, [][]string{
		{klineFrame(1700000000000, "100", true)},
		{klineFrame(1700000060000, "101", true)},
	}, nil)

	client := New(url, nil, WithReconnect(10*time.Millisecond, 50*time.Millisecond))
	events, err := client.Subscribe(context.Background(), "BTCUSDT", "1m")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	assert.Equal(t, 100.0, nextEvent(t, events).Candle.Close)
	assert.Equal(t, exchange.EventTypeReconnect, nextEvent(t, events).Type)
	assert.Equal(t, 101.0, nextEvent(t, events).Candle.Close)
}

func TestSubscribe_ContextCancelClosesChannel(t *testing.T) {
	t.Parallel()

	url := streamServer(t, [][]string{{}}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	client := New(url, nil)
	events, err := client.Subscribe(ctx, "BTCUSDT", "1m")
	require.NoError(t, err)

	cancel()

	select {
	case _, ok := <-events:
		assert.False(t, ok)
	case <-time.After(3 * time.Second):
		t.Fatal("канал событий не закрыт")
	}
}

func TestSubscribe_DialError(t *testing.T) {
	t.Parallel()

	client := New("ws://127.0.0.1:1/ws", nil)
	_, err := client.Subscribe(context.Background(), "BTCUSDT", "1m")
	require.Error(t, err)
}

func TestNextBackoff(t *testing.T) {
	t.Parallel()

	client := New("ws://unused", nil, WithReconnect(time.Second, 5*time.Second))
	assert.Equal(t, 2*time.Second, client.nextBackoff(time.Second))
	assert.Equal(t, 5*time.Second, client.nextBackoff(4*time.Second))
}
