// Package analytics derives technical indicators and price forecasts from
// market chart series. Everything here is a pure function over an ordered
// price slice (ascending by time) and is safe to call from any goroutine.
package analytics

import (
	"math"

	"Chenex/internal/domain/models"
)

const (
	rsiPeriod       = 14
	macdFastPeriod  = 12
	macdSlowPeriod  = 26
	macdSignalSpan  = 9
	volWindow       = 30
	bollingerPeriod = 20
	bollingerK      = 2.0
	trendWindow     = 30
)

// RSI returns the Relative Strength Index over the trailing window.
// With fewer than period+1 points the oscillator is undefined; the
// neutral value 50 is returned and ok is false. A window with no losses
// returns 100 rather than dividing by zero.
func RSI(prices []float64, period int) (rsi float64, ok bool) {
	if len(prices) < period+1 {
		return 50, false
	}
	window := prices[len(prices)-period-1:]
	var gains, losses float64
	for i := 1; i < len(window); i++ {
		delta := window[i] - window[i-1]
		if delta > 0 {
			gains += delta
		} else {
			losses -= delta
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		if avgGain == 0 {
			// No movement at all: neither overbought nor oversold.
			return 50, true
		}
		return 100, true
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs), true
}

// EMA computes the exponential moving average series. Indices before the
// window fills use the running simple mean as the seed, so the result is
// defined at every index.
func EMA(prices []float64, period int) []float64 {
	if len(prices) == 0 {
		return nil
	}
	out := make([]float64, len(prices))
	k := 2.0 / float64(period+1)
	var sum float64
	for i, p := range prices {
		sum += p
		if i < period {
			out[i] = sum / float64(i+1)
			continue
		}
		out[i] = p*k + out[i-1]*(1-k)
	}
	return out
}

// SMA returns the simple moving average of the trailing window points,
// clamping the window to the available history.
func SMA(prices []float64, window int) float64 {
	if len(prices) == 0 {
		return 0
	}
	if window > len(prices) {
		window = len(prices)
	}
	var sum float64
	for _, p := range prices[len(prices)-window:] {
		sum += p
	}
	return sum / float64(window)
}

// MACD returns the MACD line (EMA12 − EMA26) and its EMA9 signal line.
// Both are 0 with ok=false when fewer than 26 points exist.
func MACD(prices []float64) (line, signal float64, ok bool) {
	if len(prices) < macdSlowPeriod {
		return 0, 0, false
	}
	fast := EMA(prices, macdFastPeriod)
	slow := EMA(prices, macdSlowPeriod)
	macd := make([]float64, len(prices))
	for i := range prices {
		macd[i] = fast[i] - slow[i]
	}
	sig := EMA(macd, macdSignalSpan)
	return macd[len(macd)-1], sig[len(sig)-1], true
}

// Volatility is the standard deviation of simple returns over the trailing
// window, expressed as a percentage. Fewer than 2 points yields 0.
func Volatility(prices []float64, window int) float64 {
	if len(prices) < 2 {
		return 0
	}
	start := len(prices) - window
	if start < 1 {
		start = 1
	}
	var returns []float64
	for i := start; i < len(prices); i++ {
		if prices[i-1] == 0 {
			continue
		}
		returns = append(returns, (prices[i]-prices[i-1])/prices[i-1])
	}
	return stddev(returns) * 100
}

// Bollinger computes the ±k·σ envelope around the period SMA. With fewer
// than period points the band degenerates to the latest price (equality
// of the three values, ok=false) per the short-history contract.
func Bollinger(prices []float64, period int, k float64) (upper, mid, lower float64, ok bool) {
	if len(prices) == 0 {
		return 0, 0, 0, false
	}
	last := prices[len(prices)-1]
	if len(prices) < period {
		return last, last, last, false
	}
	window := prices[len(prices)-period:]
	mid = SMA(window, period)
	sd := stddev(window)
	return mid + k*sd, mid, mid - k*sd, true
}

// TrendSlope is the ordinary least-squares slope of price against index
// over the trailing window (or all points if fewer).
func TrendSlope(prices []float64, window int) float64 {
	if len(prices) < 2 {
		return 0
	}
	if window > len(prices) {
		window = len(prices)
	}
	w := prices[len(prices)-window:]
	n := float64(len(w))
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range w {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

// ComputeIndicators evaluates the full indicator set for one price series.
func ComputeIndicators(prices []float64) models.IndicatorSet {
	var set models.IndicatorSet
	set.RSI, set.RSIFull = RSI(prices, rsiPeriod)
	set.MACDLine, set.MACDSignal, set.MACDFull = MACD(prices)
	set.Volatility = Volatility(prices, volWindow)
	set.BollingerUpper, set.BollingerMid, set.BollingerLower, set.BollingerFull = Bollinger(prices, bollingerPeriod, bollingerK)
	set.TrendSlope = TrendSlope(prices, trendWindow)
	return set
}

func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	var sq float64
	for _, x := range xs {
		d := x - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(xs)))
}
