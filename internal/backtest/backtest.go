package backtest

import (
	"trendbot/internal/models"
	"trendbot/internal/strategy"
)

type TradeEvent struct {
	Index   int
	Time    string
	Side    models.OrderSide
	Price   float64
	Qty     float64
	Balance float64
}

type Result struct {
	InitialBalance float64
	FinalBalance   float64
	Profit         float64
	Trades         []TradeEvent
}

// Run — чисто сигнальный бэктест: стопы и трейлинг не моделируются.
func Run(candles []models.Candle, params strategy.Params, initialBalance float64) Result {
	analysis := strategy.Analyze(candles, params)

	balance := initialBalance
	qty := 0.0
	var trades []TradeEvent

	for i := range candles {
		price := candles[i].Close
		if price <= 0 {
			continue
		}

		switch analysis.Transition(i) {
		case 1:
			if qty == 0 {
				qty = balance / price
				trades = append(trades, TradeEvent{
					Index:   i,
					Time:    candles[i].OpenTime.Format("2006-01-02"),
					Side:    models.OrderSideBuy,
					Price:   price,
					Qty:     qty,
					Balance: balance,
				})
			}
		case -1:
			if qty > 0 {
				balance = qty * price
				trades = append(trades, TradeEvent{
					Index:   i,
					Time:    candles[i].OpenTime.Format("2006-01-02"),
					Side:    models.OrderSideSell,
					Price:   price,
					Qty:     qty,
					Balance: balance,
				})
				qty = 0
			}
		}
	}

	// Открытая к концу серии позиция оценивается по последнему закрытию.
	if qty > 0 && len(candles) > 0 {
		last := candles[len(candles)-1].Close
		if last > 0 {
			balance = qty * last
		}
	}

	return Result{
		InitialBalance: initialBalance,
		FinalBalance:   balance,
		Profit:         balance - initialBalance,
		Trades:         trades,
	}
}
