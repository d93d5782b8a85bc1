package di

import (
	"fmt"

	"Chenex/internal/domain/repository"
	"Chenex/internal/handler/api"
	"Chenex/internal/handler/ws"
	svccache "Chenex/internal/service/cache"
	"Chenex/internal/service/coingecko"
	"Chenex/internal/service/ratelimit"
	"Chenex/internal/usecase"
	pkgcache "Chenex/pkg/cache"
	"Chenex/pkg/config"
	xhttp "Chenex/pkg/http"
	xlogger "Chenex/pkg/logger"
	"Chenex/pkg/metrics"
	"Chenex/pkg/server"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*xlogger.Logger, error) {
	l, err := xlogger.New(&xlogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideAdmission creates the per-resource-class token bucket gate.
func ProvideAdmission(cfg *config.Config) repository.Admission {
	classes := make(map[string]ratelimit.ClassConfig, len(cfg.RateLimit.Classes))
	for name, rc := range cfg.RateLimit.Classes {
		classes[name] = ratelimit.ClassConfig{
			Capacity:     rc.Capacity,
			RefillPerSec: rc.RefillPerSec,
		}
	}
	return ratelimit.New(classes,
		ratelimit.WithWaitBounds(cfg.RateLimit.MaxWait.Std(), cfg.RateLimit.MaxWaitStep.Std()))
}

// ProvideCacheStore selects the cache backend from config.
func ProvideCacheStore(cfg *config.Config) (pkgcache.Service, error) {
	switch cfg.Cache.Backend {
	case "memory":
		return pkgcache.NewMemoryCache(pkgcache.WithMemoryMaxSize(cfg.Cache.MemoryMaxSize)), nil
	case "redis":
		return pkgcache.NewRedisCache(redisOpts(cfg)...)
	case "layered":
		rc, err := pkgcache.NewRedisCache(redisOpts(cfg)...)
		if err != nil {
			return nil, err
		}
		return pkgcache.NewLayeredCache(rc, pkgcache.WithMemoryMaxSize(cfg.Cache.MemoryMaxSize)), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

func redisOpts(cfg *config.Config) []pkgcache.RedisOption {
	return []pkgcache.RedisOption{
		pkgcache.WithRedisHost(cfg.Cache.Redis.Host),
		pkgcache.WithRedisPort(cfg.Cache.Redis.Port),
		pkgcache.WithRedisPassword(cfg.Cache.Redis.Password),
		pkgcache.WithRedisDB(cfg.Cache.Redis.DB),
	}
}

// ProvideResponseCache wraps the byte store with the request-signature memo.
func ProvideResponseCache(store pkgcache.Service, m repository.Metrics) *svccache.ResponseCache {
	return svccache.NewResponseCache(store, m)
}

// ProvideMarketSource creates the CoinGecko client behind the admission gate.
func ProvideMarketSource(cfg *config.Config, adm repository.Admission, m repository.Metrics, l *xlogger.Logger) repository.MarketSource {
	return coingecko.New(cfg, adm, m, l)
}

// ProvideMarketService creates the market usecase.
func ProvideMarketService(src repository.MarketSource, rc *svccache.ResponseCache, cfg *config.Config) *usecase.MarketService {
	return usecase.NewMarketService(src, rc, cfg)
}

// ProvideStreamHub creates the WebSocket price stream.
func ProvideStreamHub(l *xlogger.Logger, market *usecase.MarketService, cfg *config.Config) *ws.Hub {
	return ws.NewHub(l, market, cfg.Stream.Interval.Std())
}

// ProvideHandler combines the API routes and the stream endpoint.
func ProvideHandler(l *xlogger.Logger, market *usecase.MarketService, hub *ws.Hub) xhttp.Handler {
	return xhttp.Handlers(api.NewMarketHandler(l, market), hub)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *xlogger.Logger,
	store pkgcache.Service,
	market *usecase.MarketService,
	handler xhttp.Handler,
	hub *ws.Hub,
) *server.App {
	return server.New(cfg, l, store, market, handler, hub)
}
