package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"Chenex/internal/handler/ws"
	"Chenex/internal/usecase"
	pkgcache "Chenex/pkg/cache"
	"Chenex/pkg/config"
	xhttp "Chenex/pkg/http"
	xlogger "Chenex/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	logger     *xlogger.Logger
	store      pkgcache.Service
	market     *usecase.MarketService
	hub        *ws.Hub
	httpServer *xhttp.Server
}

// New creates an App with all dependencies. hub may be nil when streaming
// is disabled.
func New(
	cfg *config.Config,
	logger *xlogger.Logger,
	store pkgcache.Service,
	market *usecase.MarketService,
	handler xhttp.Handler,
	hub *ws.Hub,
) *App {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}

	srv := xhttp.NewServer(handler,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout.Std(), cfg.Server.WriteTimeout.Std(), cfg.Server.ShutdownTimeout.Std()),
		xhttp.WithCORS(cfg.Server.CORS),
		xhttp.WithMetricsPath(metricsPath),
	)

	return &App{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		market:     market,
		hub:        hub,
		httpServer: srv,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if a.hub != nil && a.cfg.Stream.Enabled {
		go a.hub.Run(ctx)
		a.logger.Info("price stream started", xlogger.Duration("interval", a.cfg.Stream.Interval.Std()))
	}

	if a.cfg.Warmup.Enabled {
		go a.warmup(ctx)
	}

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", xlogger.Error(err))
		return err
	}
	a.logger.Info("server started",
		xlogger.Int("port", a.cfg.Server.Port),
		xlogger.String("environment", a.cfg.Environment))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	cancel()
	return a.shutdown()
}

// warmup primes the listing cache so the first dashboard load doesn't pay
// the upstream round trip.
func (a *App) warmup(ctx context.Context) {
	if _, err := a.market.Prices(ctx, 1); err != nil {
		a.logger.Warn("cache warmup failed", xlogger.Error(err))
		return
	}
	a.logger.Info("cache warmed", xlogger.String("resource", "prices"))
}

// shutdown gracefully stops the HTTP server and releases cache backends.
func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout.Std())
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", xlogger.Error(err))
	}

	if err := a.store.Close(); err != nil {
		a.logger.Warn("cache close error", xlogger.Error(err))
	}

	a.logger.Info("shutdown complete")
	return nil
}
