//go:build wireinject
// +build wireinject

package di

import (
	"MarketWhisperer/pkg/config"
	"MarketWhisperer/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideRegistry,
		ProvideMetrics,

		// Infrastructure clients
		ProvideRedisClient,
		ProvideClickHouseClient,
		ProvideKafkaProducer,

		// Adapters and repositories
		ProvideCandleSource,
		ProvideContextProvider,
		ProvideHeadlineFetcher,
		ProvideTextModel,
		ProvideClassifier,
		ProvideJobStore,
		ProvideWhisperPublisher,
		ProvideQueue,

		// Use cases
		ProvideOrchestrator,
		ProvideAnalyzeJob,
		ProvideJobManager,
		ProvideInstruments,

		// HTTP
		ProvideLimiter,
		ProvideHTTPHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
