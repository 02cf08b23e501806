package rest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"trendbot/internal/models"
)

func (c *Client) PlaceMarketOrder(ctx context.Context, order models.Order) (models.Order, error) {
	if order.Type != models.OrderTypeMarket {
		return models.Order{}, fmt.Errorf("Поддерживаются только market ордера, получен: %s", order.Type)
	}

	params := url.Values{}
	params.Set("symbol", order.Symbol)
	params.Set("side", string(order.Side))
	params.Set("type", string(order.Type))
	params.Set("quantity", strconv.FormatFloat(order.Qty, 'f', -1, 64))
	if order.LinkID != "" {
		params.Set("newClientOrderId", order.LinkID)
	}

	var resp struct {
		OrderID       int64  `json:"orderId"`
		ClientOrderID string `json:"clientOrderId"`
	}
	if err := c.doRequest(ctx, http.MethodPost, "/api/v3/order", params, true, &resp); err != nil {
		return models.Order{}, err
	}

	order.ID = strconv.FormatInt(resp.OrderID, 10)
	return order, nil
}
