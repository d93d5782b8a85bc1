package coingecko

// Upstream payload schemas, validated once at the fetch boundary.

type marketRow struct {
	ID             string  `json:"id"`
	Symbol         string  `json:"symbol"`
	Name           string  `json:"name"`
	Image          string  `json:"image"`
	CurrentPrice   float64 `json:"current_price"`
	PriceChange1h  float64 `json:"price_change_percentage_1h_in_currency"`
	PriceChange24h float64 `json:"price_change_percentage_24h"`
	PriceChange7d  float64 `json:"price_change_percentage_7d_in_currency"`
	MarketCap      float64 `json:"market_cap"`
	TotalVolume    float64 `json:"total_volume"`
}

type coinMarketData struct {
	CurrentPrice map[string]float64 `json:"current_price"`
	MarketCap    map[string]float64 `json:"market_cap"`
	TotalVolume  map[string]float64 `json:"total_volume"`
	High24h      map[string]float64 `json:"high_24h"`
	Low24h       map[string]float64 `json:"low_24h"`
	ATH          map[string]float64 `json:"ath"`
	ATL          map[string]float64 `json:"atl"`
}

type coinDoc struct {
	ID          string            `json:"id"`
	Symbol      string            `json:"symbol"`
	Name        string            `json:"name"`
	Description map[string]string `json:"description"`
	MarketData  *coinMarketData   `json:"market_data"`
}

type chartDoc struct {
	Prices       [][2]float64 `json:"prices"`
	TotalVolumes [][2]float64 `json:"total_volumes"`
}
