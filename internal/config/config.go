package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Exchange ExchangeConfig
	Strategy StrategyConfig
	Risk     RiskConfig
	Sizing   SizingConfig
	Screener ScreenerConfig
	Runtime  RuntimeConfig
}

type ExchangeConfig struct {
	BaseUrl string
	WSUrl   string
	ApiKey  string
	Secret  string
}

type StrategyConfig struct {
	Mode      string
	SMAShort  int
	SMALong   int
	RSIPeriod int
	RSIBuy    float64
	RSISell   float64
	BBPeriod  int
	BBDev     float64
	ATRPeriod int
}

type RiskConfig struct {
	StopLossPercent float64
	TrailingBuffer  float64
}

type SizingConfig struct {
	Mode     string
	Percent  float64
	Notional float64
}

type ScreenerConfig struct {
	QuoteAsset     string
	MinQuoteVolume float64
	MinVolatility  float64
	CandleLimit    int
	Interval       string
}

type RuntimeConfig struct {
	CycleInterval time.Duration
	RetryMax      int
	RetryDelay    time.Duration
	Workers       int
	DryRun        bool
	StopWatch     bool
	Log           LogConfig
}

type LogConfig struct {
	Level      string
	Format     string
	File       string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

func Load() (*Config, error) {

	cfg := &Config{}
	viper.AddConfigPath("configs")
	viper.SetConfigName("config")
	viper.ReadInConfig()

	setDefaults()

	cfg.Exchange = ExchangeConfig{
		BaseUrl: viper.GetString("exchange.base_url"),
		WSUrl:   viper.GetString("exchange.ws_url"),
		ApiKey:  envSub("exchange.api_key"),
		Secret:  envSub("exchange.secret"),
	}

	cfg.Strategy = StrategyConfig{
		Mode:      viper.GetString("strategy.mode"),
		SMAShort:  viper.GetInt("strategy.sma_short"),
		SMALong:   viper.GetInt("strategy.sma_long"),
		RSIPeriod: viper.GetInt("strategy.rsi_period"),
		RSIBuy:    viper.GetFloat64("strategy.rsi_buy"),
		RSISell:   viper.GetFloat64("strategy.rsi_sell"),
		BBPeriod:  viper.GetInt("strategy.bb_period"),
		BBDev:     viper.GetFloat64("strategy.bb_dev"),
		ATRPeriod: viper.GetInt("strategy.atr_period"),
	}

	cfg.Risk = RiskConfig{
		StopLossPercent: viper.GetFloat64("risk.stop_loss_percent"),
		TrailingBuffer:  viper.GetFloat64("risk.trailing_buffer"),
	}

	cfg.Sizing = SizingConfig{
		Mode:     viper.GetString("sizing.mode"),
		Percent:  viper.GetFloat64("sizing.percent"),
		Notional: viper.GetFloat64("sizing.notional"),
	}

	cfg.Screener = ScreenerConfig{
		QuoteAsset:     viper.GetString("screener.quote_asset"),
		MinQuoteVolume: viper.GetFloat64("screener.min_quote_volume"),
		MinVolatility:  viper.GetFloat64("screener.min_volatility"),
		CandleLimit:    viper.GetInt("screener.candle_limit"),
		Interval:       viper.GetString("screener.interval"),
	}

	cfg.Runtime = RuntimeConfig{
		CycleInterval: viper.GetDuration("runtime.cycle_interval"),
		RetryMax:      viper.GetInt("runtime.retry_max"),
		RetryDelay:    viper.GetDuration("runtime.retry_delay"),
		Workers:       viper.GetInt("runtime.workers"),
		DryRun:        viper.GetBool("runtime.dry_run"),
		StopWatch:     viper.GetBool("runtime.stop_watch"),
		Log: LogConfig{
			Level:      viper.GetString("runtime.log.level"),
			Format:     viper.GetString("runtime.log.format"),
			File:       viper.GetString("runtime.log.file"),
			MaxSize:    viper.GetInt("runtime.log.max_size"),
			MaxBackups: viper.GetInt("runtime.log.max_backups"),
			MaxAge:     viper.GetInt("runtime.log.max_age"),
			Compress:   viper.GetBool("runtime.log.compress"),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("exchange.base_url", "https://api.binance.com")
	viper.SetDefault("exchange.ws_url", "wss://stream.binance.com:9443/ws")

	viper.SetDefault("strategy.mode", "baseline")
	viper.SetDefault("strategy.sma_short", 50)
	viper.SetDefault("strategy.sma_long", 200)
	viper.SetDefault("strategy.rsi_period", 14)
	viper.SetDefault("strategy.rsi_buy", 30)
	viper.SetDefault("strategy.rsi_sell", 70)
	viper.SetDefault("strategy.bb_period", 20)
	viper.SetDefault("strategy.bb_dev", 2)
	viper.SetDefault("strategy.atr_period", 14)

	viper.SetDefault("risk.stop_loss_percent", 0.05)
	viper.SetDefault("risk.trailing_buffer", 0.01)

	viper.SetDefault("sizing.mode", "percent")
	viper.SetDefault("sizing.percent", 0.01)
	viper.SetDefault("sizing.notional", 100)

	viper.SetDefault("screener.quote_asset", "USDT")
	viper.SetDefault("screener.min_quote_volume", 1000000)
	viper.SetDefault("screener.min_volatility", 0.02)
	viper.SetDefault("screener.candle_limit", 500)
	viper.SetDefault("screener.interval", "1d")

	viper.SetDefault("runtime.cycle_interval", 4*time.Hour)
	viper.SetDefault("runtime.retry_max", 5)
	viper.SetDefault("runtime.retry_delay", 60*time.Second)
	viper.SetDefault("runtime.workers", 1)
	viper.SetDefault("runtime.log.level", "info")
}

func validate(cfg *Config) error {
	if cfg.Strategy.SMAShort <= 0 || cfg.Strategy.SMALong <= cfg.Strategy.SMAShort {
		return fmt.Errorf("Некорректные окна SMA: short=%d long=%d", cfg.Strategy.SMAShort, cfg.Strategy.SMALong)
	}
	switch strings.ToLower(cfg.Strategy.Mode) {
	case "baseline", "advanced":
	default:
		return fmt.Errorf("Неизвестный режим стратегии: %s", cfg.Strategy.Mode)
	}
	switch strings.ToLower(cfg.Sizing.Mode) {
	case "percent", "notional":
	default:
		return fmt.Errorf("Неизвестный режим расчёта объёма: %s", cfg.Sizing.Mode)
	}
	if cfg.Runtime.Workers <= 0 {
		cfg.Runtime.Workers = 1
	}
	return nil
}

func envSub(key string) string {
	val := viper.GetString(key)
	if val == "" {
		return ""
	}

	re := regexp.MustCompile(`\$\{(\w+)\}`)
	return re.ReplaceAllStringFunc(val, func(match string) string {
		envKey := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		return os.Getenv(envKey)
	})
}
