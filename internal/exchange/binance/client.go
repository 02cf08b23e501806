package binance

import (
	"context"

	"trendbot/internal/exchange"
	"trendbot/internal/exchange/binance/rest"
	"trendbot/internal/exchange/binance/ws"
	"trendbot/internal/logger"
)

type Client struct {
	*rest.Client
	wsURL string
	log   *logger.Logger
}

var _ exchange.Client = (*Client)(nil)

func New(baseURL, wsURL, apiKey, secret string, log *logger.Logger) *Client {
	return &Client{
		Client: rest.New(baseURL, apiKey, secret, log),
		wsURL:  wsURL,
		log:    log,
	}
}

func (c *Client) SubscribeTicker(ctx context.Context, symbols []string) (<-chan exchange.PriceEvent, error) {
	stream := ws.New(c.wsURL, c.log)
	if err := stream.Connect(ctx, symbols); err != nil {
		return nil, err
	}
	go func() {
		<-ctx.Done()
		stream.Close()
	}()
	return stream.Events(), nil
}
