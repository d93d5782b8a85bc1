package analytics

import (
	"fmt"

	"Chenex/internal/domain/models"
)

// minForecastPoints is the shortest price history a forecast accepts.
// Shorter series return KindInsufficientHistory instead of a degraded guess.
const minForecastPoints = 30

const (
	weightTrend    = 0.30
	weightMomentum = 0.20
	weightRSI      = 0.15
	weightMACD     = 0.10
	weightBB       = 0.15
	weightVolume   = 0.10
)

// Forecast projects the price of one series over the given horizons (in
// days). volumes may be shorter than prices or empty; the volume factor is
// simply dropped in that case.
func Forecast(prices, volumes []float64, horizons []int) (*models.ForecastResult, error) {
	if len(prices) < minForecastPoints {
		return nil, models.NewMarketError(models.KindInsufficientHistory,
			fmt.Sprintf("forecast needs at least %d price points, got %d", minForecastPoints, len(prices)), nil)
	}

	current := prices[len(prices)-1]
	set := ComputeIndicators(prices)

	sma7 := SMA(prices, 7)
	sma30 := SMA(prices, 30)
	trendFactor := 0.0
	if sma30 != 0 {
		trendFactor = (sma7 - sma30) / sma30
	}

	momentumFactor := trendFactor
	if len(prices) >= 90 {
		sma90 := SMA(prices, 90)
		if sma90 != 0 {
			momentumFactor = (current - sma90) / sma90
		}
	}

	rsiFactor := (set.RSI - 50) / 50

	macdFactor := 0.0
	switch {
	case set.MACDLine > set.MACDSignal:
		macdFactor = 1
	case set.MACDLine < set.MACDSignal:
		macdFactor = -1
	}

	bbFactor := 2 * (bollingerPosition(current, set) - 0.5)

	volumeFactor := 0.0
	if len(volumes) >= 30 {
		mean7 := SMA(volumes, 7)
		mean30 := SMA(volumes, 30)
		if mean30 != 0 {
			volumeFactor = 0.5 * (mean7/mean30 - 1)
		}
	}

	weighted := weightTrend*trendFactor +
		weightMomentum*momentumFactor +
		weightRSI*rsiFactor +
		weightMACD*macdFactor +
		weightBB*bbFactor +
		weightVolume*volumeFactor

	volInflation := 1 + min(set.Volatility/10, 1)*0.2

	predictions := make(map[string]float64, len(horizons))
	confidence := make(map[string]float64, len(horizons))
	var sevenDayChange float64
	for _, h := range horizons {
		change := weighted * (float64(h) / 30) * volInflation
		predictions[horizonLabel(h)] = current * (1 + change)
		confidence[horizonLabel(h)] = confidenceScore(set)
		if h == 7 {
			sevenDayChange = change * 100
		}
	}

	return &models.ForecastResult{
		CurrentPrice:        current,
		Predictions:         predictions,
		Confidence:          confidence,
		Sentiment:           sentimentFor(sevenDayChange),
		TechnicalIndicators: set,
		SupportResistance:   supportResistance(prices),
	}, nil
}

// bollingerPosition places the current price inside the band as a fraction
// in [0,1]; a degenerate band (upper == lower) reads as the midpoint.
func bollingerPosition(current float64, set models.IndicatorSet) float64 {
	width := set.BollingerUpper - set.BollingerLower
	if width == 0 {
		return 0.5
	}
	return (current - set.BollingerLower) / width
}

func confidenceScore(set models.IndicatorSet) float64 {
	score := 70 - 2*set.Volatility + 1000*abs(set.TrendSlope)
	if set.RSI > 40 && set.RSI < 60 {
		score += 10
	} else {
		score -= 5
	}
	if score < 20 {
		return 20
	}
	if score > 95 {
		return 95
	}
	return score
}

// sentimentFor buckets the 7-day percentage change into a label.
func sentimentFor(changePct float64) models.Sentiment {
	switch {
	case changePct > 5:
		return models.SentimentStrongBullish
	case changePct > 2:
		return models.SentimentBullish
	case changePct < -5:
		return models.SentimentStrongBearish
	case changePct < -2:
		return models.SentimentBearish
	default:
		return models.SentimentNeutral
	}
}

// supportResistance is the min/max band of the trailing 30 points plus the
// current price's percentage position inside it.
func supportResistance(prices []float64) models.SupportResistance {
	window := prices
	if len(window) > 30 {
		window = window[len(window)-30:]
	}
	lo, hi := window[0], window[0]
	for _, p := range window[1:] {
		if p < lo {
			lo = p
		}
		if p > hi {
			hi = p
		}
	}
	pos := 50.0
	if hi != lo {
		current := prices[len(prices)-1]
		pos = (current - lo) / (hi - lo) * 100
	}
	return models.SupportResistance{Support: lo, Resistance: hi, CurrentPosition: pos}
}

func horizonLabel(days int) string {
	return fmt.Sprintf("%d_day", days)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
