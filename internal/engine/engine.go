package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"trendbot/internal/config"
	"trendbot/internal/exchange"
	"trendbot/internal/logger"
	"trendbot/internal/marketdata"
	"trendbot/internal/models"
	"trendbot/internal/retry"
	"trendbot/internal/risk"
	"trendbot/internal/screener"
	"trendbot/internal/strategy"

	"github.com/sirupsen/logrus"
)

type Engine struct {
	cfg      *config.Config
	client   exchange.Client
	log      *logger.Logger
	policy   retry.Policy
	fetcher  *marketdata.Fetcher
	screener *screener.Screener
	riskman  *risk.Manager
	exec     *Executor
	params   strategy.Params
	watch    *stopWatch
	cycle    int64
}

func New(cfg *config.Config, client exchange.Client, log *logger.Logger) *Engine {
	policy := retry.Policy{
		MaxRetries: cfg.Runtime.RetryMax,
		Delay:      cfg.Runtime.RetryDelay,
	}
	if policy.MaxRetries <= 0 {
		policy = retry.DefaultPolicy()
	}

	params := strategy.Params{
		Mode:      strategy.ParseMode(cfg.Strategy.Mode),
		SMAShort:  cfg.Strategy.SMAShort,
		SMALong:   cfg.Strategy.SMALong,
		RSIPeriod: cfg.Strategy.RSIPeriod,
		RSIBuy:    cfg.Strategy.RSIBuy,
		RSISell:   cfg.Strategy.RSISell,
		BBPeriod:  cfg.Strategy.BBPeriod,
		BBDev:     cfg.Strategy.BBDev,
		ATRPeriod: cfg.Strategy.ATRPeriod,
	}

	fetcher := marketdata.NewFetcher(client, log, policy, cfg.Screener.Interval, cfg.Screener.CandleLimit)
	scr := screener.New(client, fetcher, log, policy, screener.Config{
		QuoteAsset:     cfg.Screener.QuoteAsset,
		MinQuoteVolume: cfg.Screener.MinQuoteVolume,
		MinVolatility:  cfg.Screener.MinVolatility,
		Workers:        cfg.Runtime.Workers,
	})
	riskman := risk.NewManager(client, log, policy, risk.Params{
		StopLossPercent: cfg.Risk.StopLossPercent,
		TrailingBuffer:  cfg.Risk.TrailingBuffer,
		AdaptiveBuffer:  params.Mode == strategy.ModeAdvanced,
	})
	exec := NewExecutor(client, log, policy, Sizing{
		Mode:     SizingMode(strings.ToLower(cfg.Sizing.Mode)),
		Percent:  cfg.Sizing.Percent,
		Notional: cfg.Sizing.Notional,
	}, cfg.Screener.QuoteAsset, cfg.Runtime.DryRun)

	e := &Engine{
		cfg:      cfg,
		client:   client,
		log:      log,
		policy:   policy,
		fetcher:  fetcher,
		screener: scr,
		riskman:  riskman,
		exec:     exec,
		params:   params,
	}
	if cfg.Runtime.StopWatch {
		e.watch = newStopWatch(client, exec, riskman, log)
	}
	return e
}

// Start крутит цикл отбора и обработки до отмены контекста. Ошибка
// по одному символу не роняет ни цикл, ни остальные символы.
func (e *Engine) Start(ctx context.Context) error {
	for {
		e.cycle++
		started := time.Now()
		e.logEntry().Info("Начало цикла.")

		symbols, err := e.screener.Screen(ctx)
		switch {
		case errors.Is(err, context.Canceled):
			return err
		case err != nil:
			e.logEntry().WithError(err).Error("Отбор символов не удался, цикл пропущен.")
		default:
			e.processSymbols(ctx, symbols)
		}

		if e.watch != nil {
			if err := e.watch.Resubscribe(ctx); err != nil {
				e.logEntry().WithError(err).Warn("Не удалось обновить подписку наблюдателя стопов.")
			}
		}

		e.logEntry().WithFields(logrus.Fields{
			"symbols": len(symbols),
			"elapsed": time.Since(started).String(),
		}).Info("Цикл завершён.")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(e.cfg.Runtime.CycleInterval):
		}
	}
}

func (e *Engine) processSymbols(ctx context.Context, symbols []models.SymbolInfo) {
	workers := e.cfg.Runtime.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(symbols) {
		workers = len(symbols)
	}
	if len(symbols) == 0 {
		return
	}

	jobs := make(chan models.SymbolInfo, len(symbols))
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for info := range jobs {
			if ctx.Err() != nil {
				return
			}
			if err := e.processSymbol(ctx, info); err != nil {
				e.logEntry().WithError(err).WithField("symbol", info.Symbol).Error("Ошибка обработки символа.")
			}
		}
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go worker()
	}
	for _, info := range symbols {
		jobs <- info
	}
	close(jobs)
	wg.Wait()
}

// processSymbol — конвейер одного символа: свечи, сигнал, риск,
// исполнение. Проверка стопа идёт раньше сигнального выхода и
// имеет приоритет.
func (e *Engine) processSymbol(ctx context.Context, info models.SymbolInfo) error {
	if info.StepSize == 0 {
		rules, err := retry.Do(ctx, e.log, e.policy, func() (exchange.SymbolRules, error) {
			return e.client.GetSymbolRules(ctx, info.Symbol)
		})
		if err != nil {
			return err
		}
		info.StepSize = rules.StepSize
	}

	candles, err := e.fetcher.Series(ctx, info.Symbol)
	if err != nil {
		return err
	}

	analysis := strategy.Analyze(candles, e.params)
	price := analysis.LastClose()
	if price <= 0 {
		return nil
	}

	pos, err := e.riskman.Snapshot(ctx, info, price)
	if err != nil {
		return err
	}

	if !pos.Flat() {
		stop := e.riskman.StopPrice(pos, analysis.LastATR())
		if stop > 0 && price <= stop {
			e.logEntry().WithFields(logrus.Fields{
				"symbol": info.Symbol,
				"price":  price,
				"stop":   stop,
			}).Info("Сработал стоп-лосс.")
			if _, err := e.exec.SellAll(ctx, info, pos.Qty, price, "stop_loss"); err != nil {
				return err
			}
			e.riskman.Reset(info.Symbol)
			e.clearWatch(info.Symbol)
			return nil
		}
		e.setWatch(info, pos.Qty, stop)
	}

	switch analysis.LastTransition() {
	case models.SignalEnter:
		if !pos.Flat() {
			return nil
		}
		if e.params.Mode == strategy.ModeAdvanced && !(price < analysis.LastBBLower()) {
			return nil
		}
		order, err := e.exec.Buy(ctx, info, price)
		if err != nil {
			return err
		}
		if order != nil {
			e.logEntry().WithFields(logrus.Fields{
				"symbol": info.Symbol,
				"qty":    order.Qty,
				"price":  price,
			}).Info("Вход в позицию.")
		}
	case models.SignalExit:
		if pos.Flat() {
			return nil
		}
		if e.params.Mode == strategy.ModeAdvanced && !(price > analysis.LastBBUpper()) {
			return nil
		}
		if _, err := e.exec.SellAll(ctx, info, pos.Qty, price, "signal_exit"); err != nil {
			return err
		}
		e.riskman.Reset(info.Symbol)
		e.clearWatch(info.Symbol)
		e.logEntry().WithFields(logrus.Fields{
			"symbol": info.Symbol,
			"qty":    pos.Qty,
			"price":  price,
		}).Info("Выход из позиции по сигналу.")
	}

	return nil
}

func (e *Engine) setWatch(info models.SymbolInfo, qty, stop float64) {
	if e.watch == nil || stop <= 0 {
		return
	}
	e.watch.SetTarget(info, qty, stop)
}

func (e *Engine) clearWatch(symbol string) {
	if e.watch == nil {
		return
	}
	e.watch.ClearTarget(symbol)
}

func (e *Engine) logEntry() *logrus.Entry {
	return e.log.WithComponent("engine").WithField("cycle", e.cycle)
}
