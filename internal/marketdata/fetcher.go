package marketdata

import (
	"context"
	"fmt"

	"trendbot/internal/exchange"
	"trendbot/internal/logger"
	"trendbot/internal/models"
	"trendbot/internal/retry"
)

// Fetcher каждый раз запрашивает полную историю свечей заново,
// без инкрементальной загрузки и кэширования между циклами.
type Fetcher struct {
	client   exchange.Client
	log      *logger.Logger
	policy   retry.Policy
	interval string
	limit    int
}

func NewFetcher(client exchange.Client, log *logger.Logger, policy retry.Policy, interval string, limit int) *Fetcher {
	if interval == "" {
		interval = "1d"
	}
	if limit <= 0 {
		limit = 500
	}
	return &Fetcher{
		client:   client,
		log:      log,
		policy:   policy,
		interval: interval,
		limit:    limit,
	}
}

func (f *Fetcher) Series(ctx context.Context, symbol string) ([]models.Candle, error) {
	candles, err := retry.Do(ctx, f.log, f.policy, func() ([]models.Candle, error) {
		return f.client.GetKlines(ctx, symbol, f.interval, f.limit)
	})
	if err != nil {
		return nil, err
	}

	for i := 1; i < len(candles); i++ {
		if !candles[i].OpenTime.After(candles[i-1].OpenTime) {
			return nil, fmt.Errorf("Нарушен порядок свечей для %s: %s после %s",
				symbol, candles[i].OpenTime, candles[i-1].OpenTime)
		}
	}
	return candles, nil
}
