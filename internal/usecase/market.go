package usecase

import (
	"context"

	"Chenex/internal/domain/models"
	domrepo "Chenex/internal/domain/repository"
	"Chenex/internal/service/analytics"
	svccache "Chenex/internal/service/cache"
	pkgcache "Chenex/pkg/cache"
	"Chenex/pkg/config"
	"Chenex/pkg/util"
)

const maxDescriptionLen = 400

// MarketService serves listing, detail, chart and forecast requests,
// reading through the response cache and driving the upstream source on
// misses.
type MarketService struct {
	source domrepo.MarketSource
	cache  *svccache.ResponseCache
	cfg    *config.Config
}

func NewMarketService(source domrepo.MarketSource, cache *svccache.ResponseCache, cfg *config.Config) *MarketService {
	return &MarketService{source: source, cache: cache, cfg: cfg}
}

// Prices returns one page of the market-cap-ordered listing.
func (s *MarketService) Prices(ctx context.Context, page int) ([]models.CoinListing, error) {
	if page < 1 {
		page = 1
	}
	key := pkgcache.GenerateKeyWithParams("prices", s.cfg.Market.VsCurrency, page, s.cfg.Market.ListingPerPage)
	return svccache.GetOrCompute(ctx, s.cache, key, s.cfg.Cache.TTL.Prices.Std(), func(cctx context.Context) ([]models.CoinListing, error) {
		return s.source.Markets(cctx, s.cfg.Market.VsCurrency, page, s.cfg.Market.ListingPerPage)
	})
}

// CoinDetail returns descriptive data for one coin, with the description
// trimmed to a display-friendly length.
func (s *MarketService) CoinDetail(ctx context.Context, coinID string) (*models.CoinDetail, error) {
	key := pkgcache.GenerateKey("detail", coinID)
	detail, err := svccache.GetOrCompute(ctx, s.cache, key, s.cfg.Cache.TTL.Detail.Std(), func(cctx context.Context) (*models.CoinDetail, error) {
		d, err := s.source.CoinDetail(cctx, coinID)
		if err != nil {
			return nil, err
		}
		d.Description = util.Truncate(d.Description, maxDescriptionLen)
		return d, nil
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// Chart returns the raw [timestamp_ms, value] series for one coin. days is
// clamped to [1, max_chart_days] before it reaches the upstream.
func (s *MarketService) Chart(ctx context.Context, coinID string, days int) (*models.ChartData, error) {
	days = util.Clamp(days, 1, s.cfg.Market.MaxChartDays)
	key := pkgcache.GenerateKeyWithParams("chart", coinID, s.cfg.Market.VsCurrency, days)
	return svccache.GetOrCompute(ctx, s.cache, key, s.cfg.Cache.TTL.Chart.Std(), func(cctx context.Context) (*models.ChartData, error) {
		chart, err := s.source.MarketChart(cctx, coinID, s.cfg.Market.VsCurrency, days)
		if err != nil {
			return nil, err
		}
		return chartData(chart), nil
	})
}

// Predict fetches the forecast history window and synthesizes a projection
// for the configured horizons.
func (s *MarketService) Predict(ctx context.Context, coinID string) (*models.ForecastResult, error) {
	key := pkgcache.GenerateKeyWithParams("forecast", coinID, s.cfg.Market.VsCurrency, s.cfg.Market.ForecastHistoryDays)
	return svccache.GetOrCompute(ctx, s.cache, key, s.cfg.Cache.TTL.Forecast.Std(), func(cctx context.Context) (*models.ForecastResult, error) {
		chart, err := s.source.MarketChart(cctx, coinID, s.cfg.Market.VsCurrency, s.cfg.Market.ForecastHistoryDays)
		if err != nil {
			return nil, err
		}
		return analytics.Forecast(chart.Prices(), chart.Volumes(), s.cfg.Market.Horizons)
	})
}

func chartData(chart *models.MarketChart) *models.ChartData {
	out := &models.ChartData{
		Prices:  make([][2]float64, len(chart.Points)),
		Volumes: make([][2]float64, len(chart.Points)),
	}
	for i, p := range chart.Points {
		ms := float64(p.Timestamp.UnixMilli())
		out.Prices[i] = [2]float64{ms, p.Price}
		out.Volumes[i] = [2]float64{ms, p.Volume}
	}
	return out
}
