package analytics

import (
	"math"
	"testing"
)

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func rampUp(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + float64(i)
	}
	return out
}

func rampDown(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 200 - float64(i)
	}
	return out
}

func flat(n int, price float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = price
	}
	return out
}

func TestRSIMonotonicSeries(t *testing.T) {
	rsi, ok := RSI(rampUp(20), 14)
	if !ok {
		t.Fatal("20 points should be a full window")
	}
	if rsi != 100 {
		t.Fatalf("strictly increasing series should give RSI 100, got %v", rsi)
	}

	rsi, ok = RSI(rampDown(20), 14)
	if !ok {
		t.Fatal("20 points should be a full window")
	}
	if rsi > 1 {
		t.Fatalf("strictly decreasing series should approach 0, got %v", rsi)
	}
}

func TestRSIShortHistoryIsNeutral(t *testing.T) {
	rsi, ok := RSI(rampUp(10), 14)
	if ok {
		t.Fatal("10 points cannot fill a 14-period window")
	}
	if rsi != 50 {
		t.Fatalf("short history should fall back to 50, got %v", rsi)
	}
}

func TestRSIFlatSeriesIsNeutral(t *testing.T) {
	rsi, ok := RSI(flat(20, 100), 14)
	if !ok || rsi != 50 {
		t.Fatalf("flat series: want rsi=50 ok=true, got rsi=%v ok=%v", rsi, ok)
	}
}

func TestEMASeedsWithRunningMean(t *testing.T) {
	prices := []float64{10, 20, 30, 40}
	ema := EMA(prices, 3)
	if len(ema) != 4 {
		t.Fatalf("ema must be defined at every index, got %d values", len(ema))
	}
	if ema[0] != 10 || ema[1] != 15 || ema[2] != 20 {
		t.Fatalf("seed indices should be running means, got %v", ema[:3])
	}
	// k = 2/(3+1) = 0.5 → ema[3] = 40*0.5 + 20*0.5 = 30
	if !almostEqual(ema[3], 30, 1e-9) {
		t.Fatalf("recurrence wrong: got %v, want 30", ema[3])
	}
}

func TestMACDShortHistory(t *testing.T) {
	line, signal, ok := MACD(rampUp(20))
	if ok {
		t.Fatal("MACD needs 26 points")
	}
	if line != 0 || signal != 0 {
		t.Fatalf("short-history MACD should be zero, got %v / %v", line, signal)
	}
}

func TestMACDUptrendLineAboveSignal(t *testing.T) {
	line, signal, ok := MACD(rampUp(60))
	if !ok {
		t.Fatal("60 points should satisfy the slow period")
	}
	if line <= 0 {
		t.Fatalf("sustained uptrend should give a positive MACD line, got %v", line)
	}
	if signal > line {
		t.Fatalf("signal (%v) should lag the line (%v) in a steady uptrend", signal, line)
	}
}

func TestVolatilityFlatAndShort(t *testing.T) {
	if v := Volatility(flat(40, 250), 30); v != 0 {
		t.Fatalf("flat series has zero volatility, got %v", v)
	}
	if v := Volatility([]float64{100}, 30); v != 0 {
		t.Fatalf("single point has zero volatility, got %v", v)
	}
	if v := Volatility([]float64{100, 110, 90, 105, 95}, 30); v <= 0 {
		t.Fatalf("noisy series should have positive volatility, got %v", v)
	}
}

func TestBollingerDegenerateBand(t *testing.T) {
	prices := rampUp(10) // fewer than the 20-point window
	upper, mid, lower, ok := Bollinger(prices, 20, 2)
	if ok {
		t.Fatal("10 points cannot fill a 20-period window")
	}
	last := prices[len(prices)-1]
	if upper != last || mid != last || lower != last {
		t.Fatalf("degenerate band must collapse to last price %v, got %v/%v/%v", last, upper, mid, lower)
	}
}

func TestBollingerFullWindow(t *testing.T) {
	upper, mid, lower, ok := Bollinger([]float64{
		90, 110, 95, 105, 100, 90, 110, 95, 105, 100,
		90, 110, 95, 105, 100, 90, 110, 95, 105, 100,
	}, 20, 2)
	if !ok {
		t.Fatal("20 points should fill the window")
	}
	if !almostEqual(mid, 100, 1e-9) {
		t.Fatalf("mid should equal the mean 100, got %v", mid)
	}
	if upper <= mid || lower >= mid {
		t.Fatalf("band out of order: %v / %v / %v", upper, mid, lower)
	}
	if !almostEqual(upper-mid, mid-lower, 1e-9) {
		t.Fatal("band should be symmetric around the mid")
	}
}

func TestTrendSlope(t *testing.T) {
	if s := TrendSlope(rampUp(40), 30); !almostEqual(s, 1, 1e-9) {
		t.Fatalf("unit ramp should have slope 1, got %v", s)
	}
	if s := TrendSlope(flat(40, 500), 30); !almostEqual(s, 0, 1e-9) {
		t.Fatalf("flat series should have slope 0, got %v", s)
	}
	if s := TrendSlope(rampDown(40), 30); !almostEqual(s, -1, 1e-9) {
		t.Fatalf("unit decline should have slope -1, got %v", s)
	}
}

func TestComputeIndicatorsFlagsShortWindows(t *testing.T) {
	set := ComputeIndicators(rampUp(15))
	if !set.RSIFull {
		t.Error("15 points fill the RSI window")
	}
	if set.MACDFull {
		t.Error("15 points do not fill the MACD slow period")
	}
	if set.BollingerFull {
		t.Error("15 points do not fill the Bollinger window")
	}
}
