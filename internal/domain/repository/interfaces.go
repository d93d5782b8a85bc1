package repository

import (
	"context"
	"time"

	"Chenex/internal/domain/models"
)

// MarketSource fetches market data from the upstream provider.
type MarketSource interface {
	Markets(ctx context.Context, vsCurrency string, page, perPage int) ([]models.CoinListing, error)
	CoinDetail(ctx context.Context, coinID string) (*models.CoinDetail, error)
	MarketChart(ctx context.Context, coinID, vsCurrency string, days int) (*models.MarketChart, error)
}

// Admission gates upstream calls per resource class.
type Admission interface {
	TryConsume(class string, cost float64) bool
	TimeUntilAvailable(class string) time.Duration
	Wait(ctx context.Context, class string) error
}

type Metrics interface {
	RecordUpstreamRequest(endpoint, outcome string)
	RecordRetry(reason string)
	RecordCache(resource string, hit bool)
	RecordAdmissionRejected(class string)
	RecordLatency(op string, seconds float64)
}
