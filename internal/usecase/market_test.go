package usecase

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"Chenex/internal/domain/models"
	svccache "Chenex/internal/service/cache"
	pkgcache "Chenex/pkg/cache"
	"Chenex/pkg/config"
)

type fakeSource struct {
	marketsCalls int32
	detailCalls  int32
	chartCalls   int32

	chartDays int32
	detail    models.CoinDetail
}

func (f *fakeSource) Markets(_ context.Context, vsCurrency string, page, perPage int) ([]models.CoinListing, error) {
	atomic.AddInt32(&f.marketsCalls, 1)
	return []models.CoinListing{{ID: "bitcoin", Symbol: "BTC", CurrentPrice: 50000}}, nil
}

func (f *fakeSource) CoinDetail(_ context.Context, coinID string) (*models.CoinDetail, error) {
	atomic.AddInt32(&f.detailCalls, 1)
	d := f.detail
	d.ID = coinID
	return &d, nil
}

func (f *fakeSource) MarketChart(_ context.Context, coinID, vsCurrency string, days int) (*models.MarketChart, error) {
	atomic.AddInt32(&f.chartCalls, 1)
	atomic.StoreInt32(&f.chartDays, int32(days))
	chart := &models.MarketChart{CoinID: coinID, VsCurrency: vsCurrency}
	base := time.Unix(1700000000, 0).UTC()
	for i := 0; i < 40; i++ {
		chart.Points = append(chart.Points, models.PricePoint{
			Timestamp: base.Add(time.Duration(i) * 24 * time.Hour),
			Price:     100 + float64(i),
			Volume:    1000,
		})
	}
	return chart, nil
}

func testService(src *fakeSource) *MarketService {
	cfg := &config.Config{}
	cfg.Market.VsCurrency = "usd"
	cfg.Market.ListingPerPage = 20
	cfg.Market.ForecastHistoryDays = 90
	cfg.Market.MaxChartDays = 365
	cfg.Market.Horizons = []int{1, 7, 30}
	cfg.Cache.TTL.Prices = config.Duration(time.Minute)
	cfg.Cache.TTL.Detail = config.Duration(time.Minute)
	cfg.Cache.TTL.Chart = config.Duration(time.Minute)
	cfg.Cache.TTL.Forecast = config.Duration(time.Minute)

	store := pkgcache.NewMemoryCache(pkgcache.WithMemoryMaxSize(128))
	return NewMarketService(src, svccache.NewResponseCache(store, nil), cfg)
}

func TestPricesReadsThroughCache(t *testing.T) {
	src := &fakeSource{}
	svc := testService(src)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		rows, err := svc.Prices(ctx, 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(rows) != 1 || rows[0].ID != "bitcoin" {
			t.Fatalf("unexpected listing: %+v", rows)
		}
	}
	if got := atomic.LoadInt32(&src.marketsCalls); got != 1 {
		t.Fatalf("repeated identical requests should hit upstream once, got %d", got)
	}

	// A different page is a different request signature.
	if _, err := svc.Prices(ctx, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := atomic.LoadInt32(&src.marketsCalls); got != 2 {
		t.Fatalf("distinct pages must not collide in the cache, got %d calls", got)
	}
}

func TestCoinDetailTruncatesDescription(t *testing.T) {
	src := &fakeSource{detail: models.CoinDetail{Description: strings.Repeat("x", 1000)}}
	svc := testService(src)

	d, err := svc.CoinDetail(context.Background(), "bitcoin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d.Description) != maxDescriptionLen {
		t.Fatalf("description should be trimmed to %d, got %d", maxDescriptionLen, len(d.Description))
	}
}

func TestChartClampsDays(t *testing.T) {
	src := &fakeSource{}
	svc := testService(src)
	ctx := context.Background()

	if _, err := svc.Chart(ctx, "bitcoin", 9999); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := atomic.LoadInt32(&src.chartDays); got != 365 {
		t.Fatalf("days should be clamped to 365, upstream saw %d", got)
	}

	if _, err := svc.Chart(ctx, "bitcoin", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := atomic.LoadInt32(&src.chartDays); got != 1 {
		t.Fatalf("days should be clamped up to 1, upstream saw %d", got)
	}
}

func TestChartShapesSeries(t *testing.T) {
	src := &fakeSource{}
	svc := testService(src)

	data, err := svc.Chart(context.Background(), "bitcoin", 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(data.Prices) != 40 || len(data.Volumes) != 40 {
		t.Fatalf("unexpected series lengths: %d/%d", len(data.Prices), len(data.Volumes))
	}
	if data.Prices[0][1] != 100 || data.Volumes[0][1] != 1000 {
		t.Fatalf("unexpected first pair: %v / %v", data.Prices[0], data.Volumes[0])
	}
	if data.Prices[0][0] != data.Volumes[0][0] {
		t.Fatal("price and volume timestamps should align")
	}
}

func TestPredictUsesForecastHistoryWindow(t *testing.T) {
	src := &fakeSource{}
	svc := testService(src)

	got, err := svc.Predict(context.Background(), "bitcoin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := atomic.LoadInt32(&src.chartDays); got != 90 {
		t.Fatalf("forecast should fetch the configured history window, upstream saw %d days", got)
	}
	if got.CurrentPrice != 139 {
		t.Fatalf("current price should be the last point, got %v", got.CurrentPrice)
	}
	for _, label := range []string{"1_day", "7_day", "30_day"} {
		if _, ok := got.Predictions[label]; !ok {
			t.Errorf("missing prediction for %s", label)
		}
		if _, ok := got.Confidence[label]; !ok {
			t.Errorf("missing confidence for %s", label)
		}
	}

	// Second call within the TTL is served from cache.
	if _, err := svc.Predict(context.Background(), "bitcoin"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := atomic.LoadInt32(&src.chartCalls); got != 1 {
		t.Fatalf("forecast should be cached, got %d upstream calls", got)
	}
}
