//go:build wireinject
// +build wireinject

package di

import (
	"FinScore/pkg/config"
	"FinScore/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,
		ProvideCache,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvidePostgres,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories
		ProvideSnapshotStore,
		ProvideBarStore,
		ProvidePublisher,

		// Delivery side channels
		ProvideNotifier,
		ProvideHub,
		ProvideBroadcaster,
		ProvideLogCollector,

		// Use cases
		ProvideSnapshotRecorder,
		ProvideSnapshotPipeline,
		ProvideMarketInputs,
		ProvideRegimeService,
		ProvideAnalysisService,
		ProvideCompareService,
		ProvideRegimeRefresher,
		ProvideRequestHandler,

		// HTTP
		ProvideHealthChecks,
		ProvideHTTPHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
