package models

// PricesRequest is the query shape of the listing endpoint.
type PricesRequest struct {
	Page int `query:"page" default:"1" validate:"gte=1,lte=50"`
}

// CoinRequest addresses a single coin by its upstream identifier.
type CoinRequest struct {
	CoinID string `param:"id" validate:"required,max=100"`
}

// ChartRequest is the query shape of the chart endpoint. Days is not
// validated here: out-of-range values are clamped, matching the upstream's
// tolerance for sloppy callers.
type ChartRequest struct {
	CoinID string `param:"id" validate:"required,max=100"`
	Days   int    `query:"days" default:"7"`
}
