package coingecko

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"Chenex/internal/domain/models"
	"Chenex/internal/service/ratelimit"
	"Chenex/pkg/config"
	xlogger "Chenex/pkg/logger"
)

func testConfig(baseURL, fallbackURL string) *config.Config {
	cfg := &config.Config{}
	cfg.CoinGecko.BaseURL = baseURL
	cfg.CoinGecko.FallbackBaseURL = fallbackURL
	cfg.CoinGecko.UserAgent = "chenex-test"
	cfg.CoinGecko.Timeout = config.Duration(time.Second)
	cfg.CoinGecko.Retry.MaxAttempts = 4
	cfg.CoinGecko.Retry.BackoffBase = config.Duration(time.Second)
	cfg.CoinGecko.Retry.RateLimitBackoffCap = config.Duration(30 * time.Second)
	cfg.CoinGecko.Retry.ServerErrBackoffCap = config.Duration(8 * time.Second)
	cfg.Market.VsCurrency = "usd"
	return cfg
}

func testClient(t *testing.T, cfg *config.Config) (*Client, *[]time.Duration) {
	t.Helper()
	l, err := xlogger.New(&xlogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	limiter := ratelimit.New(map[string]ratelimit.ClassConfig{
		ClassPrices: {Capacity: 100, RefillPerSec: 100},
		ClassDetail: {Capacity: 100, RefillPerSec: 100},
		ClassChart:  {Capacity: 100, RefillPerSec: 100},
	})
	c := New(cfg, limiter, nil, l)

	var slept []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return c, &slept
}

const chartBody = `{"prices":[[1700000000000,100],[1700086400000,101]],"total_volumes":[[1700000000000,5000],[1700086400000,5200]]}`

func TestFetchSucceedsAfterRateLimitedAttempts(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(chartBody))
	}))
	defer srv.Close()

	c, slept := testClient(t, testConfig(srv.URL, ""))

	chart, err := c.MarketChart(context.Background(), "bitcoin", "usd", 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
	if len(chart.Points) != 2 || chart.Points[0].Price != 100 || chart.Points[1].Volume != 5200 {
		t.Fatalf("unexpected chart mapping: %+v", chart.Points)
	}

	// Exponential growth per error class: each wait >= the previous one.
	for i := 1; i < len(*slept); i++ {
		if (*slept)[i] < (*slept)[i-1] {
			t.Fatalf("backoff not monotonic: %v", *slept)
		}
	}
}

func TestFetchExhaustsRetryBudgetOnPersistent429(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, _ := testClient(t, testConfig(srv.URL, ""))

	_, err := c.MarketChart(context.Background(), "bitcoin", "usd", 30)
	if !models.IsKind(err, models.KindUpstreamUnavailable) {
		t.Fatalf("expected upstream_unavailable, got %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 4 {
		t.Fatalf("expected attempts to equal retry budget (4), got %d", got)
	}
}

func TestRateLimitBackoffCapExceedsServerErrorCap(t *testing.T) {
	c, _ := testClient(t, testConfig("http://unused", ""))

	rl := c.backoffFor(&statusError{code: http.StatusTooManyRequests}, 10)
	se := c.backoffFor(&statusError{code: http.StatusInternalServerError}, 10)
	if rl <= se {
		t.Fatalf("rate limit cap (%v) should exceed server error cap (%v)", rl, se)
	}
	if rl != 30*time.Second || se != 8*time.Second {
		t.Fatalf("caps not applied: rl=%v se=%v", rl, se)
	}
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c, _ := testClient(t, testConfig(srv.URL, ""))

	_, err := c.CoinDetail(context.Background(), "definitely-not-a-coin")
	if !models.IsKind(err, models.KindBadUpstreamRequest) {
		t.Fatalf("expected bad_upstream_request, got %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("client errors must not be retried, got %d attempts", got)
	}
}

func TestFetchClassifiesMalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"prices": "not-an-array"}`))
	}))
	defer srv.Close()

	c, _ := testClient(t, testConfig(srv.URL, ""))

	_, err := c.MarketChart(context.Background(), "bitcoin", "usd", 30)
	if !models.IsKind(err, models.KindMalformedUpstreamResponse) {
		t.Fatalf("expected malformed_upstream_response, got %v", err)
	}
}

func TestFetchRejectsEmptyPriceSeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"prices":[],"total_volumes":[]}`))
	}))
	defer srv.Close()

	c, _ := testClient(t, testConfig(srv.URL, ""))

	_, err := c.MarketChart(context.Background(), "bitcoin", "usd", 30)
	if !models.IsKind(err, models.KindMalformedUpstreamResponse) {
		t.Fatalf("expected malformed_upstream_response, got %v", err)
	}
}

func TestFallbackEgressAfterTransportExhaustion(t *testing.T) {
	// Primary is a closed server: every attempt is a connection failure.
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	primaryURL := primary.URL
	primary.Close()

	var fallbackHits int32
	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&fallbackHits, 1)
		w.Write([]byte(chartBody))
	}))
	defer fallback.Close()

	c, _ := testClient(t, testConfig(primaryURL, fallback.URL))

	chart, err := c.MarketChart(context.Background(), "bitcoin", "usd", 30)
	if err != nil {
		t.Fatalf("expected fallback to succeed, got %v", err)
	}
	if got := atomic.LoadInt32(&fallbackHits); got != 1 {
		t.Fatalf("fallback should be attempted exactly once, got %d", got)
	}
	if len(chart.Points) != 2 {
		t.Fatalf("unexpected chart: %+v", chart)
	}
}

func TestMarketsMapsListing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("per_page"); got != "20" {
			t.Errorf("per_page not forwarded, got %q", got)
		}
		w.Write([]byte(`[{"id":"bitcoin","symbol":"btc","name":"Bitcoin","image":"img","current_price":50000,
			"price_change_percentage_1h_in_currency":0.1,"price_change_percentage_24h":1.2,
			"price_change_percentage_7d_in_currency":-3.4,"market_cap":1e12,"total_volume":2e10}]`))
	}))
	defer srv.Close()

	c, _ := testClient(t, testConfig(srv.URL, ""))

	rows, err := c.Markets(context.Background(), "usd", 1, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one row, got %d", len(rows))
	}
	if rows[0].Symbol != "BTC" {
		t.Fatalf("symbol should be upper-cased, got %q", rows[0].Symbol)
	}
	if rows[0].PriceChange7d != -3.4 {
		t.Fatalf("unexpected 7d change %v", rows[0].PriceChange7d)
	}
}
