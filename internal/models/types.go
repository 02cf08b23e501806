package models

import "time"

type OrderSide string
type OrderType string
type Signal int8

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"

	OrderTypeMarket OrderType = "MARKET"

	SignalExit  Signal = -1
	SignalHold  Signal = 0
	SignalEnter Signal = 1
)

func (s Signal) String() string {
	switch s {
	case SignalEnter:
		return "ENTER"
	case SignalExit:
		return "EXIT"
	default:
		return "HOLD"
	}
}

type Candle struct {
	OpenTime time.Time `json:"open_time"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
}

type SymbolInfo struct {
	Symbol     string  `json:"symbol"`
	BaseAsset  string  `json:"base_asset"`
	QuoteAsset string  `json:"quote_asset"`
	Status     string  `json:"status"`
	StepSize   float64 `json:"step_size"`
}

func (s SymbolInfo) Tradable(quoteAsset string) bool {
	return s.Status == "TRADING" && s.QuoteAsset == quoteAsset
}

type Ticker struct {
	Symbol      string    `json:"symbol"`
	LastPrice   float64   `json:"last_price"`
	QuoteVolume float64   `json:"quote_volume"`
	Timestamp   time.Time `json:"timestamp"`
}

type Trade struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Qty       float64   `json:"qty"`
	IsBuyer   bool      `json:"is_buyer"`
	Timestamp time.Time `json:"timestamp"`
}

type Order struct {
	ID     string    `json:"id"`
	LinkID string    `json:"link_id"`
	Symbol string    `json:"symbol"`
	Side   OrderSide `json:"side"`
	Type   OrderType `json:"type"`
	Qty    float64   `json:"qty"`
}
