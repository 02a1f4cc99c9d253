package di

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	domrepo "TradePulse/internal/domain/repository"
	domsvc "TradePulse/internal/domain/service"
	"TradePulse/internal/emitter"
	"TradePulse/internal/engine"
	"TradePulse/internal/handler/api"
	"TradePulse/internal/indicator"
	"TradePulse/internal/inference"
	"TradePulse/internal/leaderboard"
	mid "TradePulse/internal/middleware"
	internalrepo "TradePulse/internal/repository"
	"TradePulse/internal/service/feed"
	"TradePulse/internal/services/providers"
	"TradePulse/internal/usecase"
	pkgch "TradePulse/pkg/clickhouse"
	"TradePulse/pkg/config"
	xhttp "TradePulse/pkg/http"
	pkgkafka "TradePulse/pkg/kafka"
	applogger "TradePulse/pkg/logger"
	"TradePulse/pkg/metrics"
	"TradePulse/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideMetrics creates the Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideRedisClient creates the Redis client used for signal and order
// streams.
func ProvideRedisClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// ProvideKafkaProducer creates a Kafka producer, or nil when no brokers are
// configured.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideSignalPublisher selects the signal channel backend.
func ProvideSignalPublisher(cfg *config.Config, rdb *redis.Client, producer *pkgkafka.Producer) (domrepo.SignalPublisher, error) {
	if cfg.Channel.Backend == "kafka" {
		if producer == nil {
			return nil, fmt.Errorf("kafka channel backend requires kafka brokers")
		}
		return internalrepo.NewKafkaSignalPublisher(producer, cfg.Channel.SignalsTopic), nil
	}
	return internalrepo.NewRedisSignalPublisher(rdb, cfg.Redis.SignalsStream), nil
}

// ProvideOrderPublisher selects the order channel backend.
func ProvideOrderPublisher(cfg *config.Config, rdb *redis.Client, producer *pkgkafka.Producer) (domrepo.OrderPublisher, error) {
	if cfg.Channel.Backend == "kafka" {
		if producer == nil {
			return nil, fmt.Errorf("kafka channel backend requires kafka brokers")
		}
		return internalrepo.NewKafkaOrderPublisher(producer, cfg.Channel.OrdersTopic), nil
	}
	return internalrepo.NewRedisOrderPublisher(rdb, cfg.Redis.OrdersStream), nil
}

// ProvideSignalSource selects where the decision engine reads signals from.
func ProvideSignalSource(cfg *config.Config, rdb *redis.Client) domrepo.SignalSource {
	if cfg.Channel.Backend == "kafka" {
		return internalrepo.NewKafkaSignalSource(cfg.Kafka.Brokers, cfg.Channel.SignalsTopic, cfg.Redis.ConsumerGroup)
	}
	return internalrepo.NewRedisSignalSource(rdb, cfg.Redis.SignalsStream, cfg.Redis.ConsumerGroup)
}

// ProvideDecisionArchive creates the ClickHouse archive, or nil when
// disabled.
func ProvideDecisionArchive(cfg *config.Config) (domrepo.DecisionArchive, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithAddr(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithDialTimeout(cfg.ClickHouse.DialTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return internalrepo.NewClickHouseArchive(client), nil
}

// ProvideIndicatorStore creates the per-symbol indicator store.
func ProvideIndicatorStore(cfg *config.Config) *indicator.Store {
	return indicator.NewStore(
		indicator.WithEMAPeriods(cfg.Indicators.EMAFast, cfg.Indicators.EMASlow),
		indicator.WithRSIPeriod(cfg.Indicators.RSIPeriod),
		indicator.WithATRPeriod(cfg.Indicators.ATRPeriod),
	)
}

// ProvideInferenceChain builds the backend chain in descending performance
// order. The stub terminates the chain so inference never fails outright.
func ProvideInferenceChain(cfg *config.Config, log *applogger.Logger, m domrepo.Metrics) *inference.Chain {
	var backends []inference.Backend
	if cfg.Inference.TensorRTURL != "" {
		backends = append(backends, inference.NewTensorRTBackend(cfg.Inference.TensorRTURL, cfg.Inference.GPUTimeout))
	}
	if cfg.Inference.ONNXURL != "" {
		backends = append(backends, inference.NewONNXBackend(cfg.Inference.ONNXURL, cfg.Inference.CPUTimeout))
	}
	backends = append(backends, inference.NewStub())
	return inference.NewChain(log, m, backends,
		inference.WithHealthTTL(cfg.Inference.HealthTTL, cfg.Inference.NegativeTTL),
	)
}

// ProvideEmitter creates the signal emitter.
func ProvideEmitter(cfg *config.Config, pub domrepo.SignalPublisher, log *applogger.Logger, m domrepo.Metrics) *emitter.Emitter {
	return emitter.New(pub, log, m,
		emitter.WithCooldown(cfg.Emitter.Cooldown),
		emitter.WithRetry(cfg.Emitter.MaxRetries, cfg.Emitter.RetryDelay),
	)
}

// ProvidePatternEngine creates the per-tick pipeline.
func ProvidePatternEngine(
	store *indicator.Store,
	chain *inference.Chain,
	em *emitter.Emitter,
	log *applogger.Logger,
	m domrepo.Metrics,
) *usecase.PatternEngine {
	return usecase.NewPatternEngine(store, chain, em, log, m)
}

// ProvideTickHandler registers the pattern engine on the ticks topic.
func ProvideTickHandler(cfg *config.Config, pe *usecase.PatternEngine, m domrepo.Metrics) pkgkafka.MessageHandler {
	return usecase.NewTickHandler(cfg.Kafka.TicksTopic, pe, m)
}

// ProvideKafkaConsumer creates the tick consumer, or nil when no brokers
// are configured.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.BufferSize),
		pkgkafka.WithConsumerFetch(cfg.Kafka.MinBytes, cfg.Kafka.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideTickCollector wires feed -> pipeline -> Kafka, or returns nil when
// no feed is configured.
func ProvideTickCollector(cfg *config.Config, producer *pkgkafka.Producer, engine *usecase.PatternEngine, log *applogger.Logger, m domrepo.Metrics) *usecase.TickCollector {
	if cfg.Feed.URL == "" {
		return nil
	}
	stream := feed.New(
		cfg.Feed.APIKey,
		cfg.Feed.URL,
		cfg.Feed.Symbols,
		cfg.Feed.ReconnectDelay,
		cfg.Feed.PingInterval,
		log,
	)
	// with a broker the feed forwards to the tick topic; without one it
	// feeds the engine directly
	var proc mid.Proc
	if producer != nil {
		proc = feed.NewForwarder(producer, cfg.Kafka.TicksTopic)
	} else {
		proc = usecase.NewTickSink(engine)
	}
	pipe := mid.NewTickPipeline(proc, m,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	return usecase.NewTickCollector(stream, m, pipe)
}

// ProvideForecastProvider creates the forecast provider, or nil when no
// service is configured.
func ProvideForecastProvider(cfg *config.Config) domsvc.ForecastProvider {
	if cfg.Providers.ForecastURL == "" {
		return nil
	}
	return providers.NewHTTPForecastProvider(cfg.Providers.ForecastURL, cfg.Providers.ForecastTimeout)
}

// ProvideSentimentProvider creates the sentiment provider, or nil when no
// service is configured.
func ProvideSentimentProvider(cfg *config.Config) domsvc.SentimentProvider {
	if cfg.Providers.SentimentURL == "" {
		return nil
	}
	return providers.NewHTTPSentimentProvider(cfg.Providers.SentimentURL, cfg.Providers.SentimentTimeout, cfg.Providers.SentimentCacheTTL)
}

// ProvideAccountProvider returns a static account when no account service
// is configured.
func ProvideAccountProvider(cfg *config.Config) domsvc.AccountProvider {
	return providers.NewStaticAccountProvider(1_000_000, 1_000_000)
}

// ProvideLeaderboard creates the reward tracker.
func ProvideLeaderboard() *leaderboard.Tracker {
	return leaderboard.NewTracker()
}

// ProvideEngine creates the decision engine.
func ProvideEngine(
	cfg *config.Config,
	forecast domsvc.ForecastProvider,
	sentiment domsvc.SentimentProvider,
	account domsvc.AccountProvider,
	board *leaderboard.Tracker,
	log *applogger.Logger,
	m domrepo.Metrics,
) *engine.Engine {
	ec := engine.DefaultConfig()
	ec.MinScore = cfg.Engine.MinScore
	ec.OrderThreshold = cfg.Engine.OrderThreshold
	ec.Weights = engine.Weights{
		Signal:    cfg.Engine.Weights.Signal,
		Forecast:  cfg.Engine.Weights.Forecast,
		Sentiment: cfg.Engine.Weights.Sentiment,
		Momentum:  cfg.Engine.Weights.Momentum,
	}
	ec.ForecastTimeout = cfg.Providers.ForecastTimeout
	ec.SentimentTimeout = cfg.Providers.SentimentTimeout
	ec.EnrichmentBudget = cfg.Engine.EnrichmentBudget
	ec.SentimentWindow = cfg.Providers.SentimentWindow
	ec.BaseQty = cfg.Engine.BaseQty
	ec.MinQty = cfg.Engine.MinQty
	ec.MaxQty = cfg.Engine.MaxQty
	ec.ModelBias = cfg.Engine.ModelBias
	ec.HistoryLen = cfg.Engine.HistoryLen
	return engine.New(ec, forecast, sentiment, account, board, log, m)
}

// ProvideSignalConsumer creates the decision loop.
func ProvideSignalConsumer(
	source domrepo.SignalSource,
	eng *engine.Engine,
	orders domrepo.OrderPublisher,
	archive domrepo.DecisionArchive,
	log *applogger.Logger,
	m domrepo.Metrics,
) *usecase.SignalConsumer {
	return usecase.NewSignalConsumer(source, eng, orders, archive, log, m)
}

// ProvideHTTPHandler creates the REST surface.
func ProvideHTTPHandler(log *applogger.Logger, board *leaderboard.Tracker) xhttp.Handler {
	return api.NewRewardsHandler(log, board)
}

// ProvideApp assembles the application.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	collector *usecase.TickCollector,
	consumer *pkgkafka.Consumer,
	tickHandler pkgkafka.MessageHandler,
	signals *usecase.SignalConsumer,
	archive domrepo.DecisionArchive,
	httpHandler xhttp.Handler,
	producer *pkgkafka.Producer,
	rdb *redis.Client,
	source domrepo.SignalSource,
) *server.App {
	app := server.New(cfg, log, collector, consumer, tickHandler, signals, archive, httpHandler)
	if producer != nil {
		app.AddCloser(producer)
	}
	app.AddCloser(source)
	app.AddCloser(rdb)
	return app
}
