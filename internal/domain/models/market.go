package models

import "time"

// PricePoint is one observation of an asset's price/volume series,
// ordered ascending by timestamp.
type PricePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
	Volume    float64   `json:"volume"`
}

// MarketChart is a fetched time series for one coin.
type MarketChart struct {
	CoinID     string       `json:"coin_id"`
	VsCurrency string       `json:"vs_currency"`
	Points     []PricePoint `json:"points"`
}

// Prices returns the price column of the series.
func (m *MarketChart) Prices() []float64 {
	out := make([]float64, len(m.Points))
	for i, p := range m.Points {
		out[i] = p.Price
	}
	return out
}

// Volumes returns the volume column of the series.
func (m *MarketChart) Volumes() []float64 {
	out := make([]float64, len(m.Points))
	for i, p := range m.Points {
		out[i] = p.Volume
	}
	return out
}

// CoinListing is one row of the market-cap-ordered listing.
type CoinListing struct {
	ID             string  `json:"id"`
	Symbol         string  `json:"symbol"`
	Name           string  `json:"name"`
	Image          string  `json:"image"`
	CurrentPrice   float64 `json:"current_price"`
	PriceChange1h  float64 `json:"price_change_1h"`
	PriceChange24h float64 `json:"price_change_24h"`
	PriceChange7d  float64 `json:"price_change_7d"`
	MarketCap      float64 `json:"market_cap"`
	Volume         float64 `json:"volume"`
}

// CoinDetail is descriptive data for a single coin.
type CoinDetail struct {
	ID           string  `json:"id"`
	Symbol       string  `json:"symbol"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	CurrentPrice float64 `json:"current_price"`
	MarketCap    float64 `json:"market_cap"`
	Volume       float64 `json:"volume"`
	High24h      float64 `json:"high_24h"`
	Low24h       float64 `json:"low_24h"`
	ATH          float64 `json:"ath"`
	ATL          float64 `json:"atl"`
}

// ChartData is the raw series shape returned to chart consumers:
// [timestamp_ms, value] pairs, matching the upstream convention.
type ChartData struct {
	Prices  [][2]float64 `json:"prices"`
	Volumes [][2]float64 `json:"volumes"`
}
