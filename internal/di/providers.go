package di

import (
	"context"
	"fmt"
	"time"

	drepo "FinScore/internal/domain/repository"
	dsvc "FinScore/internal/domain/service"
	"FinScore/internal/handler/api"
	"FinScore/internal/handler/ws"
	mid "FinScore/internal/middleware"
	internalrepo "FinScore/internal/repository"
	"FinScore/internal/service/notifier"
	"FinScore/internal/service/ratelimit"
	"FinScore/internal/services/regime"
	"FinScore/internal/usecase"
	"FinScore/pkg/cache"
	pkgch "FinScore/pkg/clickhouse"
	"FinScore/pkg/config"
	xhttp "FinScore/pkg/http"
	pkgkafka "FinScore/pkg/kafka"
	applogger "FinScore/pkg/logger"
	"FinScore/pkg/metrics"
	"FinScore/pkg/postgres"
	"FinScore/pkg/server"
)

const initTimeout = 10 * time.Second

// ProvideLogger creates the application logger from the logging section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		TimeFormat: cfg.Logging.TimeFormat,
		Service:    "finscore",
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() drepo.Metrics {
	return metrics.New()
}

// ProvideCache returns a memory cache, layered over Redis when Redis is enabled.
func ProvideCache(cfg *config.Config, l *applogger.Logger) (cache.Service, error) {
	if !cfg.Redis.Enabled {
		return cache.NewMemoryCache(cache.WithMemoryMaxSize(cfg.Redis.MemorySize)), nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Redis.Host, cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	l.Info("redis cache connected", applogger.String("host", cfg.Redis.Host), applogger.Int("db", cfg.Redis.DB))
	return cache.NewLayeredCache(rc,
		cache.WithLayeredMemorySize(cfg.Redis.MemorySize),
		cache.WithLayeredMemoryTTL(time.Minute),
	), nil
}

// ProvideClickHouseClient connects to ClickHouse when history or bars live there.
// It returns nil otherwise.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.History.Backend != "clickhouse" && !cfg.Regime.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithAddr(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvidePostgres connects to Postgres when it is the history backend.
func ProvidePostgres(cfg *config.Config) (*postgres.Database, error) {
	if cfg.History.Backend != "postgres" {
		return nil, nil
	}
	db, err := postgres.Connect(
		postgres.WithAddr(cfg.Postgres.Host, cfg.Postgres.Port),
		postgres.WithDatabase(cfg.Postgres.Database, cfg.Postgres.User, cfg.Postgres.Password),
		postgres.WithSSLMode(cfg.Postgres.SSLMode),
		postgres.WithPool(cfg.Postgres.MaxOpenConns, cfg.Postgres.MaxIdleConns, cfg.Postgres.ConnLifetime),
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	return db, nil
}

// ProvideSnapshotStore selects the history backend and ensures its schema.
func ProvideSnapshotStore(cfg *config.Config, ch *pkgch.Client, pg *postgres.Database, l *applogger.Logger) (drepo.SnapshotStore, error) {
	var store drepo.SnapshotStore
	switch cfg.History.Backend {
	case "postgres":
		store = internalrepo.NewPGSnapshotStore(pg)
	default:
		s := internalrepo.NewCHSnapshotStore(ch)
		s.SetLogger(l)
		store = s
	}

	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("%s schema: %w", cfg.History.Backend, err)
	}
	l.Info("snapshot store ready", applogger.String("backend", cfg.History.Backend))
	return store, nil
}

// ProvideBarStore returns the ClickHouse bar reader, or nil without ClickHouse.
func ProvideBarStore(ch *pkgch.Client, l *applogger.Logger) drepo.BarStore {
	if ch == nil {
		return nil
	}
	s := internalrepo.NewCHBarStore(ch)
	s.SetLogger(l)
	return s
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvidePublisher wraps the producer for snapshot fan-out.
func ProvidePublisher(cfg *config.Config, producer *pkgkafka.Producer) drepo.Publisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
}

// ProvideSnapshotRecorder persists and publishes snapshot batches.
func ProvideSnapshotRecorder(cfg *config.Config, store drepo.SnapshotStore, pub drepo.Publisher, m drepo.Metrics, l *applogger.Logger) *usecase.SnapshotRecorder {
	return usecase.NewSnapshotRecorder(store, pub, m, cfg.History.Backend, l)
}

// ProvideSnapshotPipeline buffers snapshots off the request path.
func ProvideSnapshotPipeline(cfg *config.Config, rec *usecase.SnapshotRecorder, m drepo.Metrics, l *applogger.Logger) *mid.SnapshotPipeline {
	return mid.NewSnapshotPipeline(rec, m,
		mid.WithBufferSize(cfg.History.BufferSize),
		mid.WithBatchSize(cfg.History.BatchSize),
		mid.WithFlushInterval(cfg.History.FlushInterval),
		mid.WithPipelineLogger(l),
	)
}

// ProvideNotifier returns the webhook notifier, or a no-op without a URL.
func ProvideNotifier(cfg *config.Config, l *applogger.Logger) dsvc.Notifier {
	if cfg.Notifier.WebhookURL == "" {
		return notifier.Noop{}
	}
	client := xhttp.NewClient(
		xhttp.WithTimeout(cfg.Notifier.Timeout),
		xhttp.WithRetry(cfg.Notifier.Attempts, 200*time.Millisecond),
	)
	return notifier.NewWebhook(cfg.Notifier.WebhookURL, client, l)
}

// ProvideHub creates the websocket hub, or nil when websockets are disabled.
func ProvideHub(cfg *config.Config, l *applogger.Logger) *ws.Hub {
	if !cfg.Websocket.Enabled {
		return nil
	}
	return ws.NewHub(
		ws.WithPath(cfg.Websocket.Path),
		ws.WithWriteTimeout(cfg.Websocket.WriteTimeout),
		ws.WithSendBuffer(cfg.Websocket.SendBuffer),
		ws.WithLogger(l),
	)
}

// ProvideBroadcaster exposes the hub to services. A nil hub stays a nil interface.
func ProvideBroadcaster(hub *ws.Hub) dsvc.Broadcaster {
	if hub == nil {
		return nil
	}
	return hub
}

// ProvideMarketInputs builds regime inputs from stored bars.
func ProvideMarketInputs(cfg *config.Config, bars drepo.BarStore, l *applogger.Logger) usecase.MarketInputsProvider {
	if bars == nil || !cfg.Regime.Enabled {
		return nil
	}
	return usecase.NewMarketInputsBuilder(bars,
		cfg.Regime.IndexSymbol,
		cfg.Regime.VolatilitySymbol,
		cfg.Regime.Sectors,
		cfg.Regime.Lookback,
		l,
	)
}

func ProvideRegimeService(
	cfg *config.Config,
	c cache.Service,
	m drepo.Metrics,
	inputs usecase.MarketInputsProvider,
	n dsvc.Notifier,
	b dsvc.Broadcaster,
	l *applogger.Logger,
) *usecase.RegimeService {
	opts := []usecase.RegimeOption{
		usecase.WithRegimeNotifier(n),
		usecase.WithRegimeTTL(cfg.Regime.CacheTTL, cfg.Regime.LockTTL),
		usecase.WithRegimeLogger(l),
	}
	if inputs != nil {
		opts = append(opts, usecase.WithInputsProvider(inputs))
	}
	if b != nil {
		opts = append(opts, usecase.WithRegimeBroadcaster(b))
	}
	return usecase.NewRegimeService(regime.NewClassifier(cfg.Scoring), c, m, opts...)
}

func ProvideAnalysisService(
	cfg *config.Config,
	m drepo.Metrics,
	rs *usecase.RegimeService,
	store drepo.SnapshotStore,
	bars drepo.BarStore,
	pipe *mid.SnapshotPipeline,
	n dsvc.Notifier,
	b dsvc.Broadcaster,
	l *applogger.Logger,
) *usecase.AnalysisService {
	opts := []usecase.AnalysisOption{
		usecase.WithRegimeSource(rs),
		usecase.WithSnapshotStore(store),
		usecase.WithSubmitter(pipe),
		usecase.WithNotifier(n),
		usecase.WithAnalysisLogger(l),
	}
	if bars != nil {
		opts = append(opts, usecase.WithBarStore(bars, cfg.Regime.Lookback))
	}
	if b != nil {
		opts = append(opts, usecase.WithBroadcaster(b))
	}
	return usecase.NewAnalysisService(cfg.Scoring, m, opts...)
}

func ProvideCompareService(cfg *config.Config, as *usecase.AnalysisService, l *applogger.Logger) *usecase.CompareService {
	return usecase.NewCompareService(as, cfg.Server.RequestTimeout, l)
}

// ProvideRegimeRefresher schedules reclassification when the refresher is enabled.
func ProvideRegimeRefresher(cfg *config.Config, rs *usecase.RegimeService, inputs usecase.MarketInputsProvider, l *applogger.Logger) *usecase.RegimeRefresher {
	if !cfg.Regime.Enabled || inputs == nil {
		return nil
	}
	return usecase.NewRegimeRefresher(rs, cfg.Regime.RefreshInterval, l)
}

// ProvideKafkaConsumer creates the analysis request consumer, or nil when disabled.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || !cfg.Kafka.Consumer.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
		pkgkafka.WithConsumerLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.NewHookChain(
		pkgkafka.NewTraceHook(),
		pkgkafka.NewLoggingHook(l, time.Second),
	))
	return consumer, nil
}

// ProvideRequestHandler answers analysis requests arriving on Kafka.
func ProvideRequestHandler(
	cfg *config.Config,
	consumer *pkgkafka.Consumer,
	as *usecase.AnalysisService,
	pub drepo.Publisher,
	m drepo.Metrics,
	l *applogger.Logger,
) pkgkafka.MessageHandler {
	if consumer == nil || pub == nil {
		return nil
	}
	return usecase.NewAnalysisRequestHandler(cfg.Kafka.RequestTopic, cfg.Kafka.ResultTopic, as, pub, m, l)
}

// ProvideHealthChecks lists the dependencies reported by /healthz.
func ProvideHealthChecks(store drepo.SnapshotStore, c cache.Service) map[string]api.HealthCheck {
	return map[string]api.HealthCheck{
		"history": store.Health,
		"cache": func(ctx context.Context) error {
			_, err := c.Exists(ctx, "healthz")
			return err
		},
	}
}

// ProvideHTTPHandler assembles the REST, health and websocket routes.
func ProvideHTTPHandler(
	cfg *config.Config,
	l *applogger.Logger,
	as *usecase.AnalysisService,
	rs *usecase.RegimeService,
	cs *usecase.CompareService,
	hub *ws.Hub,
	checks map[string]api.HealthCheck,
) xhttp.Handler {
	ah := api.NewAnalysisHandler(l, as, rs, cs, cfg.Server.RequestTimeout)
	if cfg.Server.RateLimit.RPS > 0 {
		ah.Use(ratelimit.Middleware(ratelimit.New(cfg.Server.RateLimit.RPS, cfg.Server.RateLimit.Burst)))
	}
	hs := xhttp.Handlers{ah, api.NewHealthHandler(checks)}
	if hub != nil {
		hs = append(hs, hub)
	}
	return hs
}

func ProvideHTTPServer(cfg *config.Config, h xhttp.Handler, l *applogger.Logger) *xhttp.Server {
	path := cfg.Metrics.Path
	if !cfg.Metrics.Enabled {
		path = ""
	}
	return xhttp.NewServer(h,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(path),
		xhttp.WithLogger(l),
	)
}

// ProvideLogCollector ships aggregated error logs to Kafka when configured.
func ProvideLogCollector(cfg *config.Config, l *applogger.Logger, pub drepo.Publisher) LogCollectorReady {
	if !cfg.Logging.Collector.Enabled || pub == nil {
		return false
	}
	l.AddCollector(&applogger.CollectionConfig{
		TimeInterval:   cfg.Logging.Collector.Interval,
		CountThreshold: cfg.Logging.Collector.Threshold,
		Topic:          cfg.Logging.Collector.Topic,
		Publisher:      pub,
	})
	return true
}

// LogCollectorReady reports whether a log collector was attached.
type LogCollectorReady bool

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	httpServer *xhttp.Server,
	pipe *mid.SnapshotPipeline,
	rec *usecase.SnapshotRecorder,
	refresher *usecase.RegimeRefresher,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	hub *ws.Hub,
	c cache.Service,
	ch *pkgch.Client,
	pg *postgres.Database,
	collector LogCollectorReady,
) *server.App {
	closers := []server.Closer{{Name: "cache", Close: c.Close}}
	if ch != nil {
		closers = append(closers, server.Closer{Name: "clickhouse", Close: ch.Close})
	}
	if pg != nil {
		closers = append(closers, server.Closer{Name: "postgres", Close: pg.Close})
	}
	if collector {
		l.Info("log collector attached", applogger.String("topic", cfg.Logging.Collector.Topic))
	}
	return server.New(cfg, server.Components{
		Logger:     l,
		HTTPServer: httpServer,
		Pipeline:   pipe,
		Recorder:   rec,
		Refresher:  refresher,
		Consumer:   consumer,
		Handler:    kh,
		Hub:        hub,
		Closers:    closers,
	})
}
