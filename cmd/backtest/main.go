package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"trendbot/internal/backtest"
	"trendbot/internal/config"
	"trendbot/internal/exchange/binance"
	"trendbot/internal/logger"
	"trendbot/internal/marketdata"
	"trendbot/internal/retry"
	"trendbot/internal/strategy"
)

func main() {
	symbol := flag.String("symbol", "BTCUSDT", "торговая пара")
	balance := flag.Float64("balance", 10000, "начальный баланс в котировочном активе")
	mode := flag.String("mode", "", "режим стратегии: baseline или advanced (по умолчанию из конфига)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.Runtime.Log.Level,
		Format: cfg.Runtime.Log.Format,
	})

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
	if *mode != "" {
		params.Mode = strategy.ParseMode(*mode)
	}

	policy := retry.Policy{
		MaxRetries: cfg.Runtime.RetryMax,
		Delay:      cfg.Runtime.RetryDelay,
	}

	client := binance.New(cfg.Exchange.BaseUrl, cfg.Exchange.WSUrl, "", "", log)
	fetcher := marketdata.NewFetcher(client, log, policy, cfg.Screener.Interval, cfg.Screener.CandleLimit)

	candles, err := fetcher.Series(context.Background(), *symbol)
	if err != nil {
		log.WithError(err).Error("Не удалось получить историю свечей.")
		os.Exit(1)
	}

	result := backtest.Run(candles, params, *balance)

	for _, trade := range result.Trades {
		fmt.Printf("%s  %-4s  price=%.8f  qty=%.8f  balance=%.2f\n",
			trade.Time, trade.Side, trade.Price, trade.Qty, trade.Balance)
	}
	fmt.Printf("Символ: %s, свечей: %d, сделок: %d\n", *symbol, len(candles), len(result.Trades))
	fmt.Printf("Итоговая прибыль: %.2f (баланс %.2f -> %.2f)\n",
		result.Profit, result.InitialBalance, result.FinalBalance)
}
