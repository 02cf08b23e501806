package engine

import (
	"context"
	"fmt"
	"strings"

	"trendbot/internal/exchange"
	"trendbot/internal/logger"
	"trendbot/internal/models"
	"trendbot/internal/retry"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type SizingMode string

const (
	SizingPercent  SizingMode = "percent"
	SizingNotional SizingMode = "notional"
)

type Sizing struct {
	Mode     SizingMode
	Percent  float64
	Notional float64
}

// Executor ставит не больше одного ордера за цикл по символу.
type Executor struct {
	client     exchange.Client
	log        *logger.Logger
	policy     retry.Policy
	sizing     Sizing
	quoteAsset string
	dryRun     bool
}

func NewExecutor(client exchange.Client, log *logger.Logger, policy retry.Policy, sizing Sizing, quoteAsset string, dryRun bool) *Executor {
	if quoteAsset == "" {
		quoteAsset = "USDT"
	}
	return &Executor{
		client:     client,
		log:        log,
		policy:     policy,
		sizing:     sizing,
		quoteAsset: quoteAsset,
		dryRun:     dryRun,
	}
}

// Buy отправляет market покупку, рассчитанную по политике объёма.
// Возвращает nil без ошибки, если рассчитанный объём нулевой.
func (x *Executor) Buy(ctx context.Context, info models.SymbolInfo, price float64) (*models.Order, error) {
	amount, err := x.tradeAmount(ctx)
	if err != nil {
		return nil, err
	}

	qty := SizeQty(amount, price, info.StepSize)
	if qty <= 0 {
		x.logEntry(info.Symbol).WithFields(logrus.Fields{
			"amount": amount,
			"price":  price,
			"step":   info.StepSize,
		}).Warn("Покупка пропущена: объём после приведения к шагу нулевой.")
		return nil, nil
	}

	order := models.Order{
		LinkID: newLinkID(),
		Symbol: info.Symbol,
		Side:   models.OrderSideBuy,
		Type:   models.OrderTypeMarket,
		Qty:    qty,
	}
	return x.place(ctx, order, price, "entry")
}

// SellAll продаёт весь текущий остаток позиции.
func (x *Executor) SellAll(ctx context.Context, info models.SymbolInfo, qty, price float64, reason string) (*models.Order, error) {
	qty = FloorToStep(qty, info.StepSize)
	if qty <= 0 {
		x.logEntry(info.Symbol).WithField("reason", reason).Warn("Продажа пропущена: остаток меньше шага количества.")
		return nil, nil
	}

	order := models.Order{
		LinkID: newLinkID(),
		Symbol: info.Symbol,
		Side:   models.OrderSideSell,
		Type:   models.OrderTypeMarket,
		Qty:    qty,
	}
	return x.place(ctx, order, price, reason)
}

func (x *Executor) tradeAmount(ctx context.Context) (float64, error) {
	switch x.sizing.Mode {
	case SizingNotional:
		return x.sizing.Notional, nil
	default:
		balance, err := retry.Do(ctx, x.log, x.policy, func() (exchange.Balance, error) {
			return x.client.GetBalance(ctx, x.quoteAsset)
		})
		if err != nil {
			return 0, fmt.Errorf("Не удалось получить баланс %s: %w", x.quoteAsset, err)
		}
		return balance.Free * x.sizing.Percent, nil
	}
}

func (x *Executor) place(ctx context.Context, order models.Order, price float64, reason string) (*models.Order, error) {
	entry := x.logEntry(order.Symbol).WithFields(logrus.Fields{
		"side":   order.Side,
		"qty":    order.Qty,
		"price":  price,
		"reason": reason,
	})

	if x.dryRun {
		entry.Info("Dry-run: ордер не отправлен.")
		return &order, nil
	}

	placed, err := retry.Do(ctx, x.log, x.policy, func() (models.Order, error) {
		return x.client.PlaceMarketOrder(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	entry.WithField("order_id", placed.ID).Info("Ордер отправлен.")
	return &placed, nil
}

func (x *Executor) logEntry(symbol string) *logrus.Entry {
	return x.log.WithComponent("executor").WithField("symbol", symbol)
}

func newLinkID() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "tb-" + raw[:12]
}
