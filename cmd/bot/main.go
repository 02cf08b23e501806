package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"trendbot/internal/config"
	"trendbot/internal/engine"
	"trendbot/internal/exchange/binance"
	"trendbot/internal/logger"
)

func main() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logger.New(logger.Config{
		Level:      cfg.Runtime.Log.Level,
		Format:     cfg.Runtime.Log.Format,
		Output:     cfg.Runtime.Log.File,
		MaxSize:    cfg.Runtime.Log.MaxSize,
		MaxBackups: cfg.Runtime.Log.MaxBackups,
		MaxAge:     cfg.Runtime.Log.MaxAge,
		Compress:   cfg.Runtime.Log.Compress,
	})

	logger.Info("Бот запущен.")

	client := binance.New(cfg.Exchange.BaseUrl, cfg.Exchange.WSUrl, cfg.Exchange.ApiKey, cfg.Exchange.Secret, logger)
	eng := engine.New(cfg, client, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := eng.Start(ctx); err != nil && ctx.Err() == nil {
			logger.WithError(err).Fatal("\"Двигатель\" завершился с ошибкой.")
		}
	}()
	<-sigCh

	cancel()

	logger.Info("Бот остановлен.")
}
