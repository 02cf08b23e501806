package exchange

import (
	"context"
	"time"

	"trendbot/internal/models"
)

type SymbolRules struct {
	StepSize    float64
	MinQty      float64
	MinNotional float64
}

type Balance struct {
	Asset  string
	Free   float64
	Locked float64
}

type PriceEvent struct {
	Symbol    string
	Price     float64
	Timestamp time.Time
}

type Client interface {
	GetExchangeSymbols(ctx context.Context) ([]models.SymbolInfo, error)
	GetTicker(ctx context.Context, symbol string) (models.Ticker, error)
	GetKlines(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error)
	GetBalance(ctx context.Context, asset string) (Balance, error)
	GetMyTrades(ctx context.Context, symbol string) ([]models.Trade, error)
	GetSymbolRules(ctx context.Context, symbol string) (SymbolRules, error)
	PlaceMarketOrder(ctx context.Context, order models.Order) (models.Order, error)
	SubscribeTicker(ctx context.Context, symbols []string) (<-chan PriceEvent, error)
}
