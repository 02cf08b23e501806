package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"trendbot/internal/config"
	"trendbot/internal/exchange"
	"trendbot/internal/logger"
	"trendbot/internal/models"

	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	exchange.Client

	mu        sync.Mutex
	klines    map[string][]models.Candle
	klinesErr map[string]error
	balances  map[string]float64
	trades    map[string][]models.Trade
	orders    []models.Order
	orderErr  error
	events    chan exchange.PriceEvent
	subs      [][]string
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		klines:    map[string][]models.Candle{},
		klinesErr: map[string]error{},
		balances:  map[string]float64{},
		trades:    map[string][]models.Trade{},
	}
}

func (f *fakeClient) GetKlines(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error) {
	if err := f.klinesErr[symbol]; err != nil {
		return nil, err
	}
	return f.klines[symbol], nil
}

func (f *fakeClient) GetBalance(ctx context.Context, asset string) (exchange.Balance, error) {
	return exchange.Balance{Asset: asset, Free: f.balances[asset]}, nil
}

func (f *fakeClient) GetMyTrades(ctx context.Context, symbol string) ([]models.Trade, error) {
	return f.trades[symbol], nil
}

func (f *fakeClient) PlaceMarketOrder(ctx context.Context, order models.Order) (models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.orderErr != nil {
		return models.Order{}, f.orderErr
	}
	order.ID = "test-order"
	f.orders = append(f.orders, order)
	return order, nil
}

func (f *fakeClient) SubscribeTicker(ctx context.Context, symbols []string) (<-chan exchange.PriceEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = append(f.subs, append([]string(nil), symbols...))
	f.events = make(chan exchange.PriceEvent, 10)
	return f.events, nil
}

func (f *fakeClient) placedOrders() []models.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Order(nil), f.orders...)
}

func (f *fakeClient) setOrderErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orderErr = err
}

func (f *fakeClient) pushEvent(event exchange.PriceEvent) {
	f.mu.Lock()
	ch := f.events
	f.mu.Unlock()
	ch <- event
}

func (f *fakeClient) subscriptions() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.subs...)
}

func testConfig() *config.Config {
	return &config.Config{
		Strategy: config.StrategyConfig{
			Mode: "baseline", SMAShort: 3, SMALong: 5,
			RSIPeriod: 3, RSIBuy: 30, RSISell: 70,
			BBPeriod: 4, BBDev: 2, ATRPeriod: 3,
		},
		Risk:   config.RiskConfig{StopLossPercent: 0.05, TrailingBuffer: 0.01},
		Sizing: config.SizingConfig{Mode: "notional", Notional: 100},
		Screener: config.ScreenerConfig{
			QuoteAsset: "USDT", MinQuoteVolume: 1000000, MinVolatility: 0.02,
			CandleLimit: 500, Interval: "1d",
		},
		Runtime: config.RuntimeConfig{
			CycleInterval: time.Hour,
			RetryMax:      2,
			RetryDelay:    time.Millisecond,
			Workers:       1,
		},
	}
}

func candlesFrom(closes []float64) []models.Candle {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]models.Candle, len(closes))
	for i, c := range closes {
		candles[i] = models.Candle{OpenTime: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1000}
	}
	return candles
}

func btcInfo() models.SymbolInfo {
	return models.SymbolInfo{Symbol: "BTCUSDT", BaseAsset: "BTC", QuoteAsset: "USDT", Status: "TRADING", StepSize: 0.001}
}

// Кроссовер на последней свече: SMA3 пересекает SMA5 вверх на индексе 8.
var enterSeries = []float64{110, 108, 106, 104, 102, 100, 101, 103, 105}

// Обратный кроссовер на последней свече.
var exitSeries = []float64{100, 102, 104, 106, 108, 110, 109, 107, 105}

func TestEnterWhenFlat(t *testing.T) {
	client := newFakeClient()
	client.klines["BTCUSDT"] = candlesFrom(enterSeries)
	client.balances["USDT"] = 10000

	e := New(testConfig(), client, logger.Discard())
	require.NoError(t, e.processSymbol(context.Background(), btcInfo()))

	orders := client.placedOrders()
	require.Len(t, orders, 1)
	require.Equal(t, models.OrderSideBuy, orders[0].Side)
	require.Equal(t, models.OrderTypeMarket, orders[0].Type)
	// 100 USDT по цене 105, вниз к шагу 0.001.
	require.Equal(t, 0.952, orders[0].Qty)
	require.NotEmpty(t, orders[0].LinkID)
}

func TestEnterWhileLongIsNoop(t *testing.T) {
	client := newFakeClient()
	client.klines["BTCUSDT"] = candlesFrom(enterSeries)
	client.balances["USDT"] = 10000
	client.balances["BTC"] = 0.5
	client.trades["BTCUSDT"] = []models.Trade{{Symbol: "BTCUSDT", Price: 50, IsBuyer: true}}

	e := New(testConfig(), client, logger.Discard())
	require.NoError(t, e.processSymbol(context.Background(), btcInfo()))
	require.Empty(t, client.placedOrders())
}

func TestExitWhileLong(t *testing.T) {
	client := newFakeClient()
	client.klines["BTCUSDT"] = candlesFrom(exitSeries)
	client.balances["BTC"] = 0.5
	client.trades["BTCUSDT"] = []models.Trade{{Symbol: "BTCUSDT", Price: 100, IsBuyer: true}}

	e := New(testConfig(), client, logger.Discard())
	require.NoError(t, e.processSymbol(context.Background(), btcInfo()))

	orders := client.placedOrders()
	require.Len(t, orders, 1)
	require.Equal(t, models.OrderSideSell, orders[0].Side)
	require.Equal(t, 0.5, orders[0].Qty)
}

func TestStopLossBeforeSignal(t *testing.T) {
	// Сигналов нет (падение без кроссовера), но цена 90 ниже стопа 95.
	closes := []float64{100, 100, 100, 100, 100, 100, 100, 100, 90}
	client := newFakeClient()
	client.klines["BTCUSDT"] = candlesFrom(closes)
	client.balances["BTC"] = 0.5
	client.trades["BTCUSDT"] = []models.Trade{{Symbol: "BTCUSDT", Price: 100, IsBuyer: true}}

	e := New(testConfig(), client, logger.Discard())
	require.NoError(t, e.processSymbol(context.Background(), btcInfo()))

	orders := client.placedOrders()
	require.Len(t, orders, 1)
	require.Equal(t, models.OrderSideSell, orders[0].Side)
	require.Equal(t, 0.5, orders[0].Qty)
}

func TestExitWhileFlatIsNoop(t *testing.T) {
	client := newFakeClient()
	client.klines["BTCUSDT"] = candlesFrom(exitSeries)
	client.balances["USDT"] = 10000

	e := New(testConfig(), client, logger.Discard())
	require.NoError(t, e.processSymbol(context.Background(), btcInfo()))
	require.Empty(t, client.placedOrders())
}

func TestSymbolFailureIsIsolated(t *testing.T) {
	client := newFakeClient()
	client.klinesErr["ETHUSDT"] = errors.New("down")
	client.klines["BTCUSDT"] = candlesFrom(enterSeries)
	client.balances["USDT"] = 10000

	e := New(testConfig(), client, logger.Discard())
	symbols := []models.SymbolInfo{
		{Symbol: "ETHUSDT", BaseAsset: "ETH", QuoteAsset: "USDT", Status: "TRADING", StepSize: 0.001},
		btcInfo(),
	}

	// Ошибка по ETHUSDT не мешает обработать BTCUSDT.
	e.processSymbols(context.Background(), symbols)

	orders := client.placedOrders()
	require.Len(t, orders, 1)
	require.Equal(t, "BTCUSDT", orders[0].Symbol)
}

func TestDryRunPlacesNothing(t *testing.T) {
	cfg := testConfig()
	cfg.Runtime.DryRun = true

	client := newFakeClient()
	client.klines["BTCUSDT"] = candlesFrom(enterSeries)
	client.balances["USDT"] = 10000

	e := New(cfg, client, logger.Discard())
	require.NoError(t, e.processSymbol(context.Background(), btcInfo()))
	require.Empty(t, client.placedOrders())
}
