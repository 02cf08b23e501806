package screener

import (
	"context"
	"math"
	"sync"

	"trendbot/internal/exchange"
	"trendbot/internal/logger"
	"trendbot/internal/marketdata"
	"trendbot/internal/models"
	"trendbot/internal/retry"
	"trendbot/internal/ta"

	"github.com/sirupsen/logrus"
)

type Config struct {
	QuoteAsset     string
	MinQuoteVolume float64
	MinVolatility  float64
	Workers        int
}

type Screener struct {
	client  exchange.Client
	fetcher *marketdata.Fetcher
	log     *logger.Logger
	policy  retry.Policy
	cfg     Config
}

func New(client exchange.Client, fetcher *marketdata.Fetcher, log *logger.Logger, policy retry.Policy, cfg Config) *Screener {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QuoteAsset == "" {
		cfg.QuoteAsset = "USDT"
	}
	return &Screener{
		client:  client,
		fetcher: fetcher,
		log:     log,
		policy:  policy,
		cfg:     cfg,
	}
}

// Screen прогоняет полный отбор: статус и котировочный актив, затем
// ликвидность (дешёвый запрос тикера), затем волатильность (дорогая
// полная история). Порядок важен: фильтр ликвидности избавляет от
// лишних запросов истории.
func (s *Screener) Screen(ctx context.Context) ([]models.SymbolInfo, error) {
	candidates, err := s.Candidates(ctx)
	if err != nil {
		return nil, err
	}
	s.logEntry().WithField("count", len(candidates)).Info("Кандидаты после фильтра по статусу.")

	liquid := s.ByLiquidity(ctx, candidates)
	s.logEntry().WithField("count", len(liquid)).Info("Кандидаты после фильтра по ликвидности.")

	volatile := s.ByVolatility(ctx, liquid)
	s.logEntry().WithField("count", len(volatile)).Info("Кандидаты после фильтра по волатильности.")

	return volatile, nil
}

func (s *Screener) Candidates(ctx context.Context) ([]models.SymbolInfo, error) {
	symbols, err := retry.Do(ctx, s.log, s.policy, func() ([]models.SymbolInfo, error) {
		return s.client.GetExchangeSymbols(ctx)
	})
	if err != nil {
		return nil, err
	}

	var candidates []models.SymbolInfo
	for _, info := range symbols {
		if info.Tradable(s.cfg.QuoteAsset) {
			candidates = append(candidates, info)
		}
	}
	return candidates, nil
}

func (s *Screener) ByLiquidity(ctx context.Context, symbols []models.SymbolInfo) []models.SymbolInfo {
	return s.filterParallel(ctx, symbols, func(info models.SymbolInfo) (bool, error) {
		ticker, err := retry.Do(ctx, s.log, s.policy, func() (models.Ticker, error) {
			return s.client.GetTicker(ctx, info.Symbol)
		})
		if err != nil {
			return false, err
		}
		return ticker.QuoteVolume >= s.cfg.MinQuoteVolume, nil
	})
}

func (s *Screener) ByVolatility(ctx context.Context, symbols []models.SymbolInfo) []models.SymbolInfo {
	return s.filterParallel(ctx, symbols, func(info models.SymbolInfo) (bool, error) {
		candles, err := s.fetcher.Series(ctx, info.Symbol)
		if err != nil {
			return false, err
		}
		closes := make([]float64, len(candles))
		for i, candle := range candles {
			closes[i] = candle.Close
		}
		volatility := ta.SampleStdDev(ta.Returns(closes))
		if math.IsNaN(volatility) {
			return false, nil
		}
		return volatility >= s.cfg.MinVolatility, nil
	})
}

// Ошибка по одному символу выбрасывает только этот символ из отбора,
// остальные обрабатываются дальше.
func (s *Screener) filterParallel(ctx context.Context, symbols []models.SymbolInfo, keep func(models.SymbolInfo) (bool, error)) []models.SymbolInfo {
	if len(symbols) == 0 {
		return nil
	}

	jobs := make(chan models.SymbolInfo, len(symbols))
	var mu sync.Mutex
	var kept []models.SymbolInfo
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for info := range jobs {
			if ctx.Err() != nil {
				return
			}
			ok, err := keep(info)
			if err != nil {
				s.logEntry().WithError(err).WithField("symbol", info.Symbol).Warn("Символ исключён из отбора из-за ошибки.")
				continue
			}
			if ok {
				mu.Lock()
				kept = append(kept, info)
				mu.Unlock()
			}
		}
	}

	workers := s.cfg.Workers
	if workers > len(symbols) {
		workers = len(symbols)
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

	return kept
}

func (s *Screener) logEntry() *logrus.Entry {
	return s.log.WithComponent("screener")
}
