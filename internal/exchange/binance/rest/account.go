package rest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"trendbot/internal/exchange"
	"trendbot/internal/models"
)

func (c *Client) GetBalance(ctx context.Context, asset string) (exchange.Balance, error) {
	var resp struct {
		Balances []struct {
			Asset  string `json:"asset"`
			Free   string `json:"free"`
			Locked string `json:"locked"`
		} `json:"balances"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/api/v3/account", nil, true, &resp); err != nil {
		return exchange.Balance{}, err
	}

	for _, item := range resp.Balances {
		if item.Asset != asset {
			continue
		}
		free, err := parseFloatOrZero(item.Free)
		if err != nil {
			return exchange.Balance{}, fmt.Errorf("Некорректное значение free=%q для %s: %w", item.Free, asset, err)
		}
		locked, err := parseFloatOrZero(item.Locked)
		if err != nil {
			return exchange.Balance{}, fmt.Errorf("Некорректное значение locked=%q для %s: %w", item.Locked, asset, err)
		}
		return exchange.Balance{Asset: asset, Free: free, Locked: locked}, nil
	}

	// Актива нет в кошельке: нулевой остаток, не ошибка.
	return exchange.Balance{Asset: asset}, nil
}

func (c *Client) GetMyTrades(ctx context.Context, symbol string) ([]models.Trade, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	var resp []struct {
		Symbol  string `json:"symbol"`
		Price   string `json:"price"`
		Qty     string `json:"qty"`
		IsBuyer bool   `json:"isBuyer"`
		Time    int64  `json:"time"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/api/v3/myTrades", params, true, &resp); err != nil {
		return nil, err
	}

	trades := make([]models.Trade, 0, len(resp))
	for _, item := range resp {
		price, err := parseFloatOrZero(item.Price)
		if err != nil {
			return nil, fmt.Errorf("Некорректное значение price=%q: %w", item.Price, err)
		}
		qty, err := parseFloatOrZero(item.Qty)
		if err != nil {
			return nil, fmt.Errorf("Некорректное значение qty=%q: %w", item.Qty, err)
		}
		trades = append(trades, models.Trade{
			Symbol:    item.Symbol,
			Price:     price,
			Qty:       qty,
			IsBuyer:   item.IsBuyer,
			Timestamp: time.UnixMilli(item.Time),
		})
	}
	return trades, nil
}
