package engine

import (
	"context"
	"sync"

	"trendbot/internal/exchange"
	"trendbot/internal/logger"
	"trendbot/internal/models"
	"trendbot/internal/risk"

	"github.com/sirupsen/logrus"
)

type watchTarget struct {
	info models.SymbolInfo
	qty  float64
	stop float64
}

// stopWatch слушает поток цен между циклами и продаёт позицию, как
// только цена пересекает последний рассчитанный стоп. Основной цикл
// остаётся источником истины: каждый цикл цели выставляются заново.
type stopWatch struct {
	client  exchange.Client
	exec    *Executor
	riskman *risk.Manager
	log     *logger.Logger

	mu      sync.Mutex
	targets map[string]watchTarget
	cancel  context.CancelFunc
}

func newStopWatch(client exchange.Client, exec *Executor, riskman *risk.Manager, log *logger.Logger) *stopWatch {
	return &stopWatch{
		client:  client,
		exec:    exec,
		riskman: riskman,
		log:     log,
		targets: map[string]watchTarget{},
	}
}

func (w *stopWatch) SetTarget(info models.SymbolInfo, qty, stop float64) {
	w.mu.Lock()
	w.targets[info.Symbol] = watchTarget{info: info, qty: qty, stop: stop}
	w.mu.Unlock()
}

func (w *stopWatch) ClearTarget(symbol string) {
	w.mu.Lock()
	delete(w.targets, symbol)
	w.mu.Unlock()
}

// Resubscribe пересоздаёт подписку под текущий набор открытых позиций.
func (w *stopWatch) Resubscribe(ctx context.Context) error {
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}

	w.mu.Lock()
	symbols := make([]string, 0, len(w.targets))
	for symbol := range w.targets {
		symbols = append(symbols, symbol)
	}
	w.mu.Unlock()

	if len(symbols) == 0 {
		return nil
	}

	watchCtx, cancel := context.WithCancel(ctx)
	events, err := w.client.SubscribeTicker(watchCtx, symbols)
	if err != nil {
		cancel()
		return err
	}
	w.cancel = cancel

	go w.run(watchCtx, events)
	w.logEntry().WithField("symbols", len(symbols)).Info("Наблюдение за стопами запущено.")
	return nil
}

func (w *stopWatch) run(ctx context.Context, events <-chan exchange.PriceEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			w.handle(ctx, event)
		}
	}
}

func (w *stopWatch) handle(ctx context.Context, event exchange.PriceEvent) {
	w.mu.Lock()
	target, ok := w.targets[event.Symbol]
	if ok && event.Price <= target.stop {
		delete(w.targets, event.Symbol)
	}
	w.mu.Unlock()

	if !ok || event.Price > target.stop {
		return
	}

	w.logEntry().WithFields(logrus.Fields{
		"symbol": event.Symbol,
		"price":  event.Price,
		"stop":   target.stop,
	}).Info("Стоп-лосс сработал между циклами.")

	if _, err := w.exec.SellAll(ctx, target.info, target.qty, event.Price, "stop_loss_watch"); err != nil {
		w.logEntry().WithError(err).WithField("symbol", event.Symbol).Error("Не удалось продать по наблюдаемому стопу.")
		// Цель возвращается на место: следующий тик попробует ещё раз.
		w.mu.Lock()
		if _, exists := w.targets[event.Symbol]; !exists {
			w.targets[event.Symbol] = target
		}
		w.mu.Unlock()
		return
	}
	w.riskman.Reset(event.Symbol)
}

func (w *stopWatch) logEntry() *logrus.Entry {
	return w.log.WithComponent("stop_watch")
}
