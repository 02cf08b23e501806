package ws

import (
	"context"
	"fmt"
	"strings"
	"time"

	"trendbot/internal/exchange"
	"trendbot/internal/logger"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

func New(url string, log *logger.Logger) *Client {
	return &Client{
		url:          url,
		log:          log,
		events:       make(chan exchange.PriceEvent, 100),
		stopCh:       make(chan struct{}),
		reconnectMin: 1 * time.Second,
		reconnectMax: 30 * time.Second,
	}
}

func (w *Client) Connect(ctx context.Context, symbols []string) error {
	w.symbols = symbols
	w.logEntry().WithField("url", w.url).Info("Подключение к WS.")

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, w.url, nil)
	if err != nil {
		return fmt.Errorf("Не удалось подключиться к WS: %w", err)
	}

	w.conn = conn
	w.conn.SetReadLimit(2 << 20)

	if err := w.subscribe(); err != nil {
		_ = w.conn.Close()
		return err
	}

	w.logEntry().WithField("symbols", len(symbols)).Info("WS соединение установлено.")

	go w.readLoop()

	return nil
}

func (w *Client) subscribe() error {
	streams := make([]string, 0, len(w.symbols))
	for _, symbol := range w.symbols {
		streams = append(streams, strings.ToLower(symbol)+"@miniTicker")
	}
	w.reqID++
	msg := SubscribeMessage{
		Method: "SUBSCRIBE",
		Params: streams,
		ID:     w.reqID,
	}
	if err := w.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("Не удалось подписаться на WS: %w", err)
	}
	return nil
}

func (w *Client) Close() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		if w.conn != nil {
			_ = w.conn.Close()
		}
	})
}

func (w *Client) Events() <-chan exchange.PriceEvent {
	return w.events
}

func (w *Client) logEntry() *logrus.Entry {
	return w.log.WithComponent("binance_ws")
}
