package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"Chenex/internal/domain/models"
	drepo "Chenex/internal/domain/repository"
	"Chenex/pkg/config"
	xhttp "Chenex/pkg/http"
	xlogger "Chenex/pkg/logger"
)

// Resource classes for admission control. Listings hit the upstream's
// heaviest endpoint and get the tightest bucket.
const (
	ClassPrices = "prices"
	ClassDetail = "detail"
	ClassChart  = "chart"
)

// RetryPolicy bounds the retry loop per error class. The rate-limit cap is
// kept above the server-error cap: a 429 signals sustained throttling, not
// a transient fault.
type RetryPolicy struct {
	MaxAttempts         int
	BackoffBase         time.Duration
	RateLimitBackoffCap time.Duration
	ServerErrBackoffCap time.Duration
}

// Client fetches market data from the CoinGecko REST API through the
// admission controller, with bounded retries and failure classification.
type Client struct {
	baseURL     string
	fallbackURL string
	vsCurrency  string
	http        *xhttp.Client
	limiter     drepo.Admission
	metrics     drepo.Metrics
	logger      *xlogger.Logger
	retry       RetryPolicy

	// sleep is swapped out by tests to observe backoff without waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a CoinGecko client. metrics may be nil.
func New(cfg *config.Config, limiter drepo.Admission, metrics drepo.Metrics, logger *xlogger.Logger) *Client {
	return &Client{
		baseURL:     strings.TrimRight(cfg.CoinGecko.BaseURL, "/"),
		fallbackURL: strings.TrimRight(cfg.CoinGecko.FallbackBaseURL, "/"),
		vsCurrency:  cfg.Market.VsCurrency,
		http: xhttp.NewClient(
			xhttp.WithTimeout(cfg.CoinGecko.Timeout.Std()),
			xhttp.WithDefaultHeader("User-Agent", cfg.CoinGecko.UserAgent),
		),
		limiter: limiter,
		metrics: metrics,
		logger:  logger,
		retry: RetryPolicy{
			MaxAttempts:         cfg.CoinGecko.Retry.MaxAttempts,
			BackoffBase:         cfg.CoinGecko.Retry.BackoffBase.Std(),
			RateLimitBackoffCap: cfg.CoinGecko.Retry.RateLimitBackoffCap.Std(),
			ServerErrBackoffCap: cfg.CoinGecko.Retry.ServerErrBackoffCap.Std(),
		},
		sleep: sleepCtx,
	}
}

var _ drepo.MarketSource = (*Client)(nil)

// Markets returns the market-cap-ordered listing page.
func (c *Client) Markets(ctx context.Context, vsCurrency string, page, perPage int) ([]models.CoinListing, error) {
	var rows []marketRow
	err := c.get(ctx, ClassPrices, "/coins/markets", map[string]string{
		"vs_currency":             vsCurrency,
		"order":                   "market_cap_desc",
		"per_page":                strconv.Itoa(perPage),
		"page":                    strconv.Itoa(page),
		"sparkline":               "false",
		"price_change_percentage": "1h,24h,7d",
	}, &rows)
	if err != nil {
		return nil, err
	}

	listings := make([]models.CoinListing, 0, len(rows))
	for _, r := range rows {
		if r.ID == "" {
			return nil, models.NewMarketError(models.KindMalformedUpstreamResponse,
				"markets row missing id", nil)
		}
		listings = append(listings, models.CoinListing{
			ID:             r.ID,
			Symbol:         strings.ToUpper(r.Symbol),
			Name:           r.Name,
			Image:          r.Image,
			CurrentPrice:   r.CurrentPrice,
			PriceChange1h:  r.PriceChange1h,
			PriceChange24h: r.PriceChange24h,
			PriceChange7d:  r.PriceChange7d,
			MarketCap:      r.MarketCap,
			Volume:         r.TotalVolume,
		})
	}
	return listings, nil
}

// CoinDetail returns descriptive data for one coin.
func (c *Client) CoinDetail(ctx context.Context, coinID string) (*models.CoinDetail, error) {
	var doc coinDoc
	if err := c.get(ctx, ClassDetail, "/coins/"+coinID, nil, &doc); err != nil {
		return nil, err
	}
	if doc.ID == "" || doc.MarketData == nil {
		return nil, models.NewMarketError(models.KindMalformedUpstreamResponse,
			"coin detail missing market_data", nil)
	}

	md := doc.MarketData
	cur := c.vsCurrency
	return &models.CoinDetail{
		ID:           doc.ID,
		Symbol:       strings.ToUpper(doc.Symbol),
		Name:         doc.Name,
		Description:  doc.Description["en"],
		CurrentPrice: md.CurrentPrice[cur],
		MarketCap:    md.MarketCap[cur],
		Volume:       md.TotalVolume[cur],
		High24h:      md.High24h[cur],
		Low24h:       md.Low24h[cur],
		ATH:          md.ATH[cur],
		ATL:          md.ATL[cur],
	}, nil
}

// MarketChart returns the price/volume series for the trailing days window.
func (c *Client) MarketChart(ctx context.Context, coinID, vsCurrency string, days int) (*models.MarketChart, error) {
	var doc chartDoc
	err := c.get(ctx, ClassChart, "/coins/"+coinID+"/market_chart", map[string]string{
		"vs_currency": vsCurrency,
		"days":        strconv.Itoa(days),
	}, &doc)
	if err != nil {
		return nil, err
	}
	if len(doc.Prices) == 0 {
		return nil, models.NewMarketError(models.KindMalformedUpstreamResponse,
			"market chart has no prices", nil)
	}

	points := make([]models.PricePoint, len(doc.Prices))
	for i, p := range doc.Prices {
		points[i] = models.PricePoint{
			Timestamp: time.UnixMilli(int64(p[0])).UTC(),
			Price:     p[1],
		}
		if i < len(doc.TotalVolumes) {
			points[i].Volume = doc.TotalVolumes[i][1]
		}
	}
	return &models.MarketChart{CoinID: coinID, VsCurrency: vsCurrency, Points: points}, nil
}

// get performs one logical fetch: admission, bounded retries with
// per-error-class backoff, one fallback-egress attempt after local
// transport exhaustion, and JSON decoding into dest.
func (c *Client) get(ctx context.Context, class, path string, params map[string]string, dest interface{}) error {
	if err := c.limiter.Wait(ctx, class); err != nil {
		if c.metrics != nil {
			c.metrics.RecordAdmissionRejected(class)
		}
		return err
	}

	var lastErr error
	transportFailed := false

	for attempt := 0; attempt < c.retry.MaxAttempts; attempt++ {
		done, err := c.attempt(ctx, c.baseURL, class, path, params, dest)
		if done {
			return err
		}
		lastErr = err
		transportFailed = isTransport(err)

		backoff := c.backoffFor(err, attempt)
		if c.metrics != nil {
			c.metrics.RecordRetry(retryReason(err))
		}
		c.logger.Warn("upstream retry",
			xlogger.String("path", path),
			xlogger.Int("attempt", attempt+1),
			xlogger.Duration("backoff", backoff),
			xlogger.Error(err),
		)
		if serr := c.sleep(ctx, backoff); serr != nil {
			return models.NewMarketError(models.KindUpstreamUnavailable,
				"fetch cancelled during backoff", serr)
		}
	}

	// One shot through the alternate egress path, only for transport-class
	// failures where a different route may still reach the provider.
	if transportFailed && c.fallbackURL != "" {
		c.logger.Warn("trying fallback egress", xlogger.String("path", path))
		if done, err := c.attempt(ctx, c.fallbackURL, class, path, params, dest); done {
			return err
		} else if err != nil {
			lastErr = err
		}
	}

	return models.NewMarketError(models.KindUpstreamUnavailable,
		fmt.Sprintf("retry budget exhausted for %s", path), lastErr)
}

// attempt issues a single request. done=true means the outcome is final
// (success or a non-retriable error); done=false carries a retriable error.
func (c *Client) attempt(ctx context.Context, baseURL, class, path string, params map[string]string, dest interface{}) (done bool, err error) {
	resp, err := c.http.SendRequest(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         baseURL + path,
		QueryParams: params,
	})
	if err != nil {
		c.recordOutcome(path, "transport_error")
		return false, &transportError{cause: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		body, rerr := io.ReadAll(resp.Body)
		if rerr != nil {
			c.recordOutcome(path, "transport_error")
			return false, &transportError{cause: rerr}
		}
		if derr := json.Unmarshal(body, dest); derr != nil {
			c.recordOutcome(path, "malformed")
			return true, models.NewMarketError(models.KindMalformedUpstreamResponse,
				"decode upstream payload", derr)
		}
		c.recordOutcome(path, "success")
		return true, nil

	case resp.StatusCode == http.StatusTooManyRequests:
		c.recordOutcome(path, "rate_limited")
		return false, &statusError{code: resp.StatusCode}

	case resp.StatusCode >= 500:
		c.recordOutcome(path, "server_error")
		return false, &statusError{code: resp.StatusCode}

	default:
		// Remaining 4xx: the request itself is wrong; retrying cannot help.
		c.recordOutcome(path, "bad_request")
		return true, models.NewMarketError(models.KindBadUpstreamRequest,
			fmt.Sprintf("upstream rejected request with status %d", resp.StatusCode), nil)
	}
}

func (c *Client) backoffFor(err error, attempt int) time.Duration {
	ceiling := c.retry.ServerErrBackoffCap
	if se, ok := err.(*statusError); ok && se.code == http.StatusTooManyRequests {
		ceiling = c.retry.RateLimitBackoffCap
	}
	backoff := time.Duration(float64(c.retry.BackoffBase) * math.Pow(2, float64(attempt)))
	if backoff > ceiling {
		backoff = ceiling
	}
	return backoff
}

func (c *Client) recordOutcome(endpoint, outcome string) {
	if c.metrics != nil {
		c.metrics.RecordUpstreamRequest(endpoint, outcome)
	}
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("upstream status %d", e.code)
}

type transportError struct {
	cause error
}

func (e *transportError) Error() string {
	return fmt.Sprintf("transport failure: %v", e.cause)
}

func (e *transportError) Unwrap() error { return e.cause }

func isTransport(err error) bool {
	_, ok := err.(*transportError)
	return ok
}

func retryReason(err error) string {
	switch e := err.(type) {
	case *statusError:
		if e.code == http.StatusTooManyRequests {
			return "rate_limited"
		}
		return "server_error"
	case *transportError:
		return "transport"
	default:
		return "other"
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
