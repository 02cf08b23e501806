package ws

import (
	"encoding/json"
	"strconv"
	"time"

	"trendbot/internal/exchange"

	"github.com/gorilla/websocket"
)

func (w *Client) readLoop() {
	w.logEntry().Debug("readLoop запущен.")

	for {
		select {
		case <-w.stopCh:
			return
		default:
		}
		_, data, err := w.conn.ReadMessage()
		if err != nil {
			select {
			case <-w.stopCh:
				return
			default:
			}
			w.logEntry().WithError(err).Warn("Ошибка чтения WS.")
			if !w.reconnect() {
				return
			}
			continue
		}

		var msg miniTicker
		if err := json.Unmarshal(data, &msg); err != nil {
			w.logEntry().WithError(err).Warn("Не удалось разобрать WS сообщение.")
			continue
		}
		if msg.Event != "24hrMiniTicker" {
			continue
		}

		price, err := strconv.ParseFloat(msg.Close, 64)
		if err != nil || price <= 0 {
			continue
		}

		event := exchange.PriceEvent{
			Symbol:    msg.Symbol,
			Price:     price,
			Timestamp: time.UnixMilli(msg.EventTime),
		}

		select {
		case w.events <- event:
		default:
			// Потребитель отстаёт: старые цены не представляют ценности.
		}
	}
}

func (w *Client) reconnect() bool {
	backoff := w.reconnectMin

	for {
		select {
		case <-w.stopCh:
			return false
		default:
		}

		w.logEntry().Info("Попытка переподключения к WS.")

		time.Sleep(backoff)

		conn, _, err := websocket.DefaultDialer.Dial(w.url, nil)
		if err != nil {
			w.logEntry().WithError(err).Warn("Не удалось переподключиться к WS.")
			backoff = w.nextBackoff(backoff)
			continue
		}

		if w.conn != nil {
			_ = w.conn.Close()
		}

		w.conn = conn
		w.conn.SetReadLimit(2 << 20)

		if err := w.subscribe(); err != nil {
			w.logEntry().WithError(err).Warn("Не удалось повторно подписаться на WS.")
			backoff = w.nextBackoff(backoff)
			continue
		}

		w.logEntry().Info("WS переподключён и подписки восстановлены.")
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
