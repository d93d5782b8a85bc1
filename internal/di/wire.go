//go:build wireinject
// +build wireinject

package di

import (
	"Chenex/pkg/config"
	"Chenex/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Upstream protection
		ProvideAdmission,
		ProvideCacheStore,
		ProvideResponseCache,

		// Market data
		ProvideMarketSource,
		ProvideMarketService,

		// Transport
		ProvideStreamHub,
		ProvideHandler,

		ProvideApp,
	)
	return &server.App{}, nil
}
