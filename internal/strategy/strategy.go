package strategy

import (
	"strings"

	"trendbot/internal/models"
	"trendbot/internal/ta"
)

type Mode string

const (
	ModeBaseline Mode = "baseline"
	ModeAdvanced Mode = "advanced"
)

func ParseMode(raw string) Mode {
	if strings.EqualFold(raw, string(ModeAdvanced)) {
		return ModeAdvanced
	}
	return ModeBaseline
}

type Params struct {
	Mode      Mode
	SMAShort  int
	SMALong   int
	RSIPeriod int
	RSIBuy    float64
	RSISell   float64
	BBPeriod  int
	BBDev     float64
	ATRPeriod int
}

func DefaultParams() Params {
	return Params{
		Mode:      ModeBaseline,
		SMAShort:  50,
		SMALong:   200,
		RSIPeriod: 14,
		RSIBuy:    30,
		RSISell:   70,
		BBPeriod:  20,
		BBDev:     2,
		ATRPeriod: 14,
	}
}

type Analysis struct {
	Closes   []float64
	SMAShort []float64
	SMALong  []float64
	RSI      []float64
	BBUpper  []float64
	BBLower  []float64
	ATR      []float64
	Signals  []models.Signal
}

// Индексы без достаточной истории дают HOLD: сравнения с NaN ложны.
func Analyze(candles []models.Candle, p Params) *Analysis {
	n := len(candles)
	closes := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	for i, candle := range candles {
		closes[i] = candle.Close
		highs[i] = candle.High
		lows[i] = candle.Low
	}

	a := &Analysis{
		Closes:   closes,
		SMAShort: ta.SMA(closes, p.SMAShort),
		SMALong:  ta.SMA(closes, p.SMALong),
		Signals:  make([]models.Signal, n),
	}

	if p.Mode == ModeAdvanced {
		a.RSI = ta.RSI(closes, p.RSIPeriod)
		a.BBUpper, a.BBLower = ta.Bollinger(closes, p.BBPeriod, p.BBDev)
		a.ATR = ta.ATR(highs, lows, closes, p.ATRPeriod)
	}

	for i := 0; i < n; i++ {
		switch p.Mode {
		case ModeAdvanced:
			switch {
			case a.SMAShort[i] > a.SMALong[i] && a.RSI[i] < p.RSIBuy:
				a.Signals[i] = models.SignalEnter
			case a.SMAShort[i] < a.SMALong[i] && a.RSI[i] > p.RSISell:
				a.Signals[i] = models.SignalExit
			}
		default:
			if i >= p.SMAShort && a.SMAShort[i] > a.SMALong[i] {
				a.Signals[i] = models.SignalEnter
			}
		}
	}

	return a
}

// Transition — разность сигналов на соседних свечах: +1 вход,
// -1 выход. Скачок через два состояния действия не порождает.
func (a *Analysis) Transition(i int) int {
	if i <= 0 || i >= len(a.Signals) {
		return 0
	}
	return int(a.Signals[i]) - int(a.Signals[i-1])
}

func (a *Analysis) LastTransition() models.Signal {
	switch a.Transition(len(a.Signals) - 1) {
	case 1:
		return models.SignalEnter
	case -1:
		return models.SignalExit
	default:
		return models.SignalHold
	}
}

func (a *Analysis) LastClose() float64 {
	if len(a.Closes) == 0 {
		return 0
	}
	return a.Closes[len(a.Closes)-1]
}

func (a *Analysis) LastATR() float64 {
	if len(a.ATR) == 0 {
		return 0
	}
	return a.ATR[len(a.ATR)-1]
}

func (a *Analysis) LastBBUpper() float64 {
	if len(a.BBUpper) == 0 {
		return 0
	}
	return a.BBUpper[len(a.BBUpper)-1]
}

func (a *Analysis) LastBBLower() float64 {
	if len(a.BBLower) == 0 {
		return 0
	}
	return a.BBLower[len(a.BBLower)-1]
}
