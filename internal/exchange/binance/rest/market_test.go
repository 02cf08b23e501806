package rest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"trendbot/internal/logger"

	"github.com/stretchr/testify/require"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	return New(server.URL, "key", "secret", logger.Discard()), server
}

func TestGetKlines(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v3/klines", r.URL.Path)
		require.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		require.Equal(t, "1d", r.URL.Query().Get("interval"))
		require.Equal(t, "500", r.URL.Query().Get("limit"))
		w.Write([]byte(`[
			[1700000000000, "100.1", "105.5", "99.9", "104.2", "1234.5", 1700086399999, "0", 0, "0", "0", "0"],
			[1700086400000, "104.2", "106.0", "103.0", "105.0", "987.6", 1700172799999, "0", 0, "0", "0", "0"]
		]`))
	}))
	defer server.Close()

	candles, err := client.GetKlines(context.Background(), "BTCUSDT", "1d", 500)
	require.NoError(t, err)
	require.Len(t, candles, 2)
	require.Equal(t, 100.1, candles[0].Open)
	require.Equal(t, 105.5, candles[0].High)
	require.Equal(t, 99.9, candles[0].Low)
	require.Equal(t, 104.2, candles[0].Close)
	require.Equal(t, 1234.5, candles[0].Volume)
	require.True(t, candles[1].OpenTime.After(candles[0].OpenTime))
}

func TestGetExchangeSymbols(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v3/exchangeInfo", r.URL.Path)
		w.Write([]byte(`{"symbols":[
			{"symbol":"BTCUSDT","status":"TRADING","baseAsset":"BTC","quoteAsset":"USDT",
			 "filters":[{"filterType":"PRICE_FILTER","tickSize":"0.01"},{"filterType":"LOT_SIZE","stepSize":"0.00001","minQty":"0.00001"}]},
			{"symbol":"ETHBTC","status":"BREAK","baseAsset":"ETH","quoteAsset":"BTC","filters":[]}
		]}`))
	}))
	defer server.Close()

	symbols, err := client.GetExchangeSymbols(context.Background())
	require.NoError(t, err)
	require.Len(t, symbols, 2)
	require.Equal(t, "BTCUSDT", symbols[0].Symbol)
	require.Equal(t, "BTC", symbols[0].BaseAsset)
	require.Equal(t, 0.00001, symbols[0].StepSize)
	require.True(t, symbols[0].Tradable("USDT"))
	require.False(t, symbols[1].Tradable("USDT"))
}

func TestGetTicker(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v3/ticker/24hr", r.URL.Path)
		w.Write([]byte(`{"symbol":"BTCUSDT","lastPrice":"43210.50","quoteVolume":"123456789.12","closeTime":1700000000000}`))
	}))
	defer server.Close()

	ticker, err := client.GetTicker(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	require.Equal(t, 43210.50, ticker.LastPrice)
	require.Equal(t, 123456789.12, ticker.QuoteVolume)
}

func TestSignedRequestCarriesSignature(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "key", r.Header.Get("X-MBX-APIKEY"))
		require.NotEmpty(t, r.URL.Query().Get("timestamp"))
		require.NotEmpty(t, r.URL.Query().Get("signature"))
		w.Write([]byte(`{"balances":[{"asset":"USDT","free":"100.5","locked":"0"}]}`))
	}))
	defer server.Close()

	balance, err := client.GetBalance(context.Background(), "USDT")
	require.NoError(t, err)
	require.Equal(t, 100.5, balance.Free)
}

func TestAPIErrorSurfaced(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
	}))
	defer server.Close()

	_, err := client.GetTicker(context.Background(), "NOPEUSDT")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Invalid symbol.")
}
