package rest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"trendbot/internal/exchange"
	"trendbot/internal/models"
)

type symbolInfo struct {
	Symbol     string `json:"symbol"`
	Status     string `json:"status"`
	BaseAsset  string `json:"baseAsset"`
	QuoteAsset string `json:"quoteAsset"`
	Filters    []struct {
		FilterType  string `json:"filterType"`
		StepSize    string `json:"stepSize"`
		MinQty      string `json:"minQty"`
		MinNotional string `json:"minNotional"`
	} `json:"filters"`
}

type exchangeInfo struct {
	Symbols []symbolInfo `json:"symbols"`
}

func (c *Client) GetExchangeSymbols(ctx context.Context) ([]models.SymbolInfo, error) {
	var resp exchangeInfo
	if err := c.doRequest(ctx, http.MethodGet, "/api/v3/exchangeInfo", nil, false, &resp); err != nil {
		return nil, err
	}

	symbols := make([]models.SymbolInfo, 0, len(resp.Symbols))
	for _, item := range resp.Symbols {
		info := models.SymbolInfo{
			Symbol:     item.Symbol,
			BaseAsset:  item.BaseAsset,
			QuoteAsset: item.QuoteAsset,
			Status:     item.Status,
		}
		for _, filter := range item.Filters {
			if filter.FilterType != "LOT_SIZE" {
				continue
			}
			step, err := parseFloatOrZero(filter.StepSize)
			if err != nil {
				return nil, fmt.Errorf("Некорректное значение stepSize=%q для %s: %w", filter.StepSize, item.Symbol, err)
			}
			info.StepSize = step
		}
		symbols = append(symbols, info)
	}
	return symbols, nil
}

func (c *Client) GetSymbolRules(ctx context.Context, symbol string) (exchange.SymbolRules, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	var resp exchangeInfo
	if err := c.doRequest(ctx, http.MethodGet, "/api/v3/exchangeInfo", params, false, &resp); err != nil {
		return exchange.SymbolRules{}, err
	}
	if len(resp.Symbols) == 0 {
		return exchange.SymbolRules{}, fmt.Errorf("Торговая пара не найдена: %s", symbol)
	}

	rules := exchange.SymbolRules{}
	for _, filter := range resp.Symbols[0].Filters {
		switch filter.FilterType {
		case "LOT_SIZE":
			step, err := parseFloatOrZero(filter.StepSize)
			if err != nil {
				return exchange.SymbolRules{}, fmt.Errorf("Некорректное значение stepSize=%q: %w", filter.StepSize, err)
			}
			minQty, err := parseFloatOrZero(filter.MinQty)
			if err != nil {
				return exchange.SymbolRules{}, fmt.Errorf("Некорректное значение minQty=%q: %w", filter.MinQty, err)
			}
			rules.StepSize = step
			rules.MinQty = minQty
		case "NOTIONAL", "MIN_NOTIONAL":
			minNotional, err := parseFloatOrZero(filter.MinNotional)
			if err != nil {
				return exchange.SymbolRules{}, fmt.Errorf("Некорректное значение minNotional=%q: %w", filter.MinNotional, err)
			}
			rules.MinNotional = minNotional
		}
	}
	if rules.StepSize == 0 {
		return exchange.SymbolRules{}, fmt.Errorf("Не удалось определить step size для торговой пары: %s", symbol)
	}
	return rules, nil
}

func (c *Client) GetTicker(ctx context.Context, symbol string) (models.Ticker, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	var resp struct {
		Symbol      string `json:"symbol"`
		LastPrice   string `json:"lastPrice"`
		QuoteVolume string `json:"quoteVolume"`
		CloseTime   int64  `json:"closeTime"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/api/v3/ticker/24hr", params, false, &resp); err != nil {
		return models.Ticker{}, err
	}

	last, err := parseFloatOrZero(resp.LastPrice)
	if err != nil {
		return models.Ticker{}, fmt.Errorf("Некорректное значение lastPrice=%q: %w", resp.LastPrice, err)
	}
	volume, err := parseFloatOrZero(resp.QuoteVolume)
	if err != nil {
		return models.Ticker{}, fmt.Errorf("Некорректное значение quoteVolume=%q: %w", resp.QuoteVolume, err)
	}

	return models.Ticker{
		Symbol:      resp.Symbol,
		LastPrice:   last,
		QuoteVolume: volume,
		Timestamp:   time.UnixMilli(resp.CloseTime),
	}, nil
}

// GetKlines разбирает строки klines: binance отдаёт смешанные массивы
// [openTime, "open", "high", "low", "close", "volume", closeTime, ...].
func (c *Client) GetKlines(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", interval)
	params.Set("limit", strconv.Itoa(limit))

	var rows [][]any
	if err := c.doRequest(ctx, http.MethodGet, "/api/v3/klines", params, false, &rows); err != nil {
		return nil, err
	}

	candles := make([]models.Candle, 0, len(rows))
	for _, row := range rows {
		if len(row) < 6 {
			return nil, fmt.Errorf("Неполная строка kline для %s: %d полей", symbol, len(row))
		}
		openTime, ok := row[0].(float64)
		if !ok {
			return nil, fmt.Errorf("Некорректное значение openTime для %s", symbol)
		}
		candle := models.Candle{OpenTime: time.UnixMilli(int64(openTime))}
		for i, dst := range []*float64{&candle.Open, &candle.High, &candle.Low, &candle.Close, &candle.Volume} {
			text, ok := row[i+1].(string)
			if !ok {
				return nil, fmt.Errorf("Некорректное поле kline #%d для %s", i+1, symbol)
			}
			value, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, fmt.Errorf("Некорректное поле kline #%d для %s: %w", i+1, symbol, err)
			}
			*dst = value
		}
		candles = append(candles, candle)
	}
	return candles, nil
}
