//go:build wireinject
// +build wireinject

package di

import (
	"TradePulse/pkg/config"
	"TradePulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideRedisClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideDecisionArchive,

		// Channels
		ProvideSignalPublisher,
		ProvideOrderPublisher,
		ProvideSignalSource,

		// Pattern engine
		ProvideIndicatorStore,
		ProvideInferenceChain,
		ProvideEmitter,
		ProvidePatternEngine,
		ProvideTickHandler,
		ProvideTickCollector,

		// Decision engine
		ProvideForecastProvider,
		ProvideSentimentProvider,
		ProvideAccountProvider,
		ProvideLeaderboard,
		ProvideEngine,
		ProvideSignalConsumer,

		// HTTP and application
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
