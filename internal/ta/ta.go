package ta

import "math"

// Все индикаторы возвращают ряд той же длины, что и вход.
// Индексы без достаточной истории заполняются NaN; сравнение с NaN
// всегда ложно, поэтому такие индексы не дают сигналов.

func SMA(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	if window <= 0 || len(values) < window {
		return out
	}
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		}
	}
	return out
}

// RSI по Уайлдеру: первое значение — простое среднее приростов и потерь,
// дальше экспоненциальное сглаживание с коэффициентом 1/period.
func RSI(closes []float64, period int) []float64 {
	out := nanSlice(len(closes))
	if period <= 0 || len(closes) < period+1 {
		return out
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			avgGain += d
		} else {
			avgLoss -= d
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiValue(avgGain, avgLoss)

	for i := period + 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if d > 0 {
			gain = d
		} else {
			loss = -d
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - (100.0 / (1.0 + rs))
}

// Bollinger использует стандартное отклонение по полной выборке окна.
func Bollinger(closes []float64, window int, dev float64) (upper, lower []float64) {
	upper = nanSlice(len(closes))
	lower = nanSlice(len(closes))
	mid := SMA(closes, window)
	if window <= 1 || len(closes) < window {
		return upper, lower
	}
	for i := window - 1; i < len(closes); i++ {
		s := 0.0
		for j := i - window + 1; j <= i; j++ {
			d := closes[j] - mid[i]
			s += d * d
		}
		sd := math.Sqrt(s / float64(window))
		upper[i] = mid[i] + dev*sd
		lower[i] = mid[i] - dev*sd
	}
	return upper, lower
}

func ATR(highs, lows, closes []float64, period int) []float64 {
	out := nanSlice(len(closes))
	if period <= 0 || len(highs) != len(closes) || len(lows) != len(closes) || len(closes) < period+1 {
		return out
	}
	trs := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		tr1 := highs[i] - lows[i]
		tr2 := math.Abs(highs[i] - closes[i-1])
		tr3 := math.Abs(lows[i] - closes[i-1])
		trs[i] = math.Max(tr1, math.Max(tr2, tr3))
	}
	sum := 0.0
	for i := 1; i <= period; i++ {
		sum += trs[i]
	}
	out[period] = sum / float64(period)
	for i := period + 1; i < len(closes); i++ {
		sum += trs[i] - trs[i-period]
		out[i] = sum / float64(period)
	}
	return out
}

// Returns считает простые дневные доходности close[t]/close[t-1]-1.
func Returns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, closes[i]/closes[i-1]-1)
	}
	return out
}

// SampleStdDev — выборочное стандартное отклонение (делитель n-1).
func SampleStdDev(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return math.NaN()
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(n)
	s := 0.0
	for _, v := range values {
		d := v - mean
		s += d * d
	}
	return math.Sqrt(s / float64(n-1))
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
