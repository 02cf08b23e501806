package ws

import (
	"sync"
	"time"

	"trendbot/internal/exchange"
	"trendbot/internal/logger"

	"github.com/gorilla/websocket"
)

type Client struct {
	url          string
	log          *logger.Logger
	conn         *websocket.Conn
	events       chan exchange.PriceEvent
	stopCh       chan struct{}
	stopOnce     sync.Once
	symbols      []string
	reqID        int64
	reconnectMin time.Duration
	reconnectMax time.Duration
}

type SubscribeMessage struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
	ID     int64    `json:"id"`
}

type miniTicker struct {
	Event     string `json:"e"`
	EventTime int64  `json:"E"`
	Symbol    string `json:"s"`
	Close     string `json:"c"`
}
