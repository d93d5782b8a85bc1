package models

// Sentiment labels the direction implied by the 7-day horizon.
type Sentiment string

const (
	SentimentStrongBullish Sentiment = "Strong Bullish"
	SentimentBullish       Sentiment = "Bullish"
	SentimentNeutral       Sentiment = "Neutral"
	SentimentBearish       Sentiment = "Bearish"
	SentimentStrongBearish Sentiment = "Strong Bearish"
)

// IndicatorSet holds the technical indicators derived from one price series.
// The *Full flags report whether the corresponding value was computed over
// its full window; when false the value is the documented short-history
// fallback, not a measurement.
type IndicatorSet struct {
	RSI            float64 `json:"rsi"`
	MACDLine       float64 `json:"macd_line"`
	MACDSignal     float64 `json:"macd_signal"`
	Volatility     float64 `json:"volatility"`
	BollingerUpper float64 `json:"bollinger_upper"`
	BollingerMid   float64 `json:"bollinger_mid"`
	BollingerLower float64 `json:"bollinger_lower"`
	TrendSlope     float64 `json:"trend_slope"`

	RSIFull       bool `json:"rsi_full_window"`
	MACDFull      bool `json:"macd_full_window"`
	BollingerFull bool `json:"bollinger_full_window"`
}

// SupportResistance is the trailing-window price band and where the
// current price sits inside it, in percent.
type SupportResistance struct {
	Support         float64 `json:"support"`
	Resistance      float64 `json:"resistance"`
	CurrentPosition float64 `json:"current_position"`
}

// ForecastResult is the weighted price projection for one coin.
// Predictions and Confidence are keyed by horizon label ("1_day", "7_day",
// "30_day"); confidence values live in [0, 100].
type ForecastResult struct {
	CurrentPrice        float64            `json:"current_price"`
	Predictions         map[string]float64 `json:"predictions"`
	Confidence          map[string]float64 `json:"confidence"`
	Sentiment           Sentiment          `json:"sentiment"`
	TechnicalIndicators IndicatorSet       `json:"technical_indicators"`
	SupportResistance   SupportResistance  `json:"support_resistance"`
}
