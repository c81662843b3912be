package di

import (
	"context"
	"fmt"
	"time"

	domrepo "MarketWhisperer/internal/domain/repository"
	domsvc "MarketWhisperer/internal/domain/service"
	"MarketWhisperer/internal/handler/api"
	internalrepo "MarketWhisperer/internal/repository"
	"MarketWhisperer/internal/service/llm"
	"MarketWhisperer/internal/service/market"
	svcmetrics "MarketWhisperer/internal/service/metrics"
	"MarketWhisperer/internal/service/news"
	"MarketWhisperer/internal/service/ratelimit"
	"MarketWhisperer/internal/services/analytics"
	"MarketWhisperer/internal/usecase"
	"MarketWhisperer/pkg/cache"
	pkgch "MarketWhisperer/pkg/clickhouse"
	"MarketWhisperer/pkg/config"
	xhttp "MarketWhisperer/pkg/http"
	pkgkafka "MarketWhisperer/pkg/kafka"
	"MarketWhisperer/pkg/logger"
	"MarketWhisperer/pkg/metrics"
	"MarketWhisperer/pkg/queue"
	"MarketWhisperer/pkg/server"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

// ProvideLogger creates the application logger from the log section.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: "whisperer-" + cfg.Role,
	})
}

// ProvideRegistry creates the Prometheus registry served on /metrics.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	svcmetrics.Register(reg)
	return reg
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) domrepo.Metrics {
	return metrics.New(reg)
}

// ProvideRedisClient dials Redis when an address is configured; nil otherwise.
func ProvideRedisClient(cfg *config.Config) (*redis.Client, error) {
	if cfg.Redis.Addr == "" {
		return nil, nil
	}
	client, _, err := cache.NewRedisClient(
		cache.WithRedisAddr(cfg.Redis.Addr),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis client: %w", err)
	}
	return client, nil
}

// ProvideClickHouseClient creates a ClickHouse client when it backs the candle source.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.Market.Backend != "clickhouse" {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, internalrepo.CandleSchema(cfg.Market.Table)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer when kafka is enabled; nil otherwise.
func ProvideKafkaProducer(cfg *config.Config, reg *prometheus.Registry) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithHashByKey(true),
		pkgkafka.WithRegisterer(reg),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideWhisperPublisher publishes finished whispers to Kafka, or nothing when disabled.
func ProvideWhisperPublisher(cfg *config.Config, producer *pkgkafka.Producer) domrepo.WhisperPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaWhisperPublisher(producer, cfg.Kafka.Topic)
}

// ProvideCandleSource selects the daily candle backend.
func ProvideCandleSource(cfg *config.Config, ch *pkgch.Client, l *logger.Logger) domrepo.CandleSource {
	if cfg.Market.Backend == "clickhouse" && ch != nil {
		return internalrepo.NewCHCandleStore(ch, cfg.Market.Table, cfg.Market.Range, l)
	}
	return market.NewYahooChart(market.Options{
		BaseURL:  cfg.Market.BaseURL,
		Range:    cfg.Market.Range,
		Timeout:  cfg.Market.Timeout,
		Attempts: cfg.Market.Attempts,
	}, l)
}

// ProvideContextProvider caches market context in Redis (with an L1 in front) or in memory.
func ProvideContextProvider(cfg *config.Config, source domrepo.CandleSource, client *redis.Client, l *logger.Logger) domsvc.ContextProvider {
	var c cache.Service
	if client != nil {
		c = cache.NewLayeredCache(
			cache.NewRedisCacheFromClient(client, cfg.Redis.Prefix),
			cache.WithLayeredMemoryTTL(time.Minute),
		)
	} else {
		c = cache.NewMemoryCache()
	}
	return analytics.NewMarketContextAdapter(source, c, cfg.Analysis.ContextCacheTTL, l)
}

// ProvideHeadlineFetcher creates the Google News RSS adapter.
func ProvideHeadlineFetcher(cfg *config.Config, l *logger.Logger) domsvc.HeadlineFetcher {
	return news.NewGoogleNews(news.Options{
		BaseURL:  cfg.News.BaseURL,
		Language: cfg.News.Language,
		Country:  cfg.News.Country,
		Edition:  cfg.News.Edition,
		Timeout:  cfg.News.Timeout,
		Attempts: cfg.News.Attempts,
	}, l)
}

// ProvideTextModel creates the Gemini client; without an API key it stays unconfigured.
func ProvideTextModel(cfg *config.Config, l *logger.Logger) (domsvc.TextModel, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	g, err := llm.NewGemini(ctx, llm.Options{
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
	}, l)
	if err != nil {
		return nil, fmt.Errorf("llm client: %w", err)
	}
	return g, nil
}

// ProvideClassifier creates the language-model classifier.
func ProvideClassifier(cfg *config.Config, model domsvc.TextModel, l *logger.Logger) domsvc.Classifier {
	return analytics.NewLLMClassifier(model, cfg.LLM.Timeout, l)
}

// ProvideOrchestrator creates the per-run analysis pipeline.
func ProvideOrchestrator(
	cfg *config.Config,
	headlines domsvc.HeadlineFetcher,
	contexts domsvc.ContextProvider,
	classifier domsvc.Classifier,
	m domrepo.Metrics,
	l *logger.Logger,
) *usecase.Orchestrator {
	return usecase.NewOrchestrator(headlines, contexts, classifier, m, cfg.Analysis.PoolSize, l)
}

// ProvideJobStore keeps job snapshots in Redis, or in memory for single-process mode.
func ProvideJobStore(cfg *config.Config, client *redis.Client) domrepo.JobStore {
	if client != nil {
		return internalrepo.NewCacheJobStore(cache.NewRedisCacheFromClient(client, cfg.Redis.Prefix), cfg.Jobs.ResultTTL)
	}
	return internalrepo.NewCacheJobStore(cache.NewMemoryCache(cache.WithMemoryMaxSize(10_000)), cfg.Jobs.ResultTTL)
}

// ProvideQueue selects the work queue. The Redis mode follows the process role.
func ProvideQueue(cfg *config.Config, client *redis.Client, l *logger.Logger) (queue.Queue, error) {
	qcfg := &queue.QueueConfig{Workers: cfg.Queue.Workers, QueueSize: cfg.Queue.QueueSize}
	switch cfg.Queue.Backend {
	case "memory":
		return queue.NewMemoryQueue(l, qcfg), nil
	case "redis":
		if client == nil {
			return nil, fmt.Errorf("redis queue requires redis.addr")
		}
		mode := queue.ModeProducerConsumer
		switch cfg.Role {
		case config.RoleAPI:
			mode = queue.ModeProducerOnly
		case config.RoleWorker:
			mode = queue.ModeConsumerOnly
		}
		return queue.NewRedisQueue(l, qcfg, client, mode, queue.WithKeyPrefix(cfg.Redis.Prefix+":queue")), nil
	default:
		return nil, fmt.Errorf("unknown queue backend %q", cfg.Queue.Backend)
	}
}

// ProvideAnalyzeJob creates the queue handler that runs analyses.
func ProvideAnalyzeJob(
	cfg *config.Config,
	o *usecase.Orchestrator,
	store domrepo.JobStore,
	pub domrepo.WhisperPublisher,
	m domrepo.Metrics,
	l *logger.Logger,
) *usecase.AnalyzeJob {
	return usecase.NewAnalyzeJob(o, store, pub, m, cfg.Jobs.RunTimeout, l)
}

// ProvideJobManager creates the submit/poll facade.
func ProvideJobManager(store domrepo.JobStore, q queue.Queue, l *logger.Logger) *usecase.JobManager {
	return usecase.NewJobManager(store, q, l)
}

// ProvideInstruments creates the tracked instrument registry.
func ProvideInstruments() *usecase.Instruments {
	return usecase.NewInstruments(internalrepo.NewMemoryInstrumentStore())
}

// ProvideLimiter throttles analysis submissions per client address.
func ProvideLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.Server.StartRateLimit.Capacity, cfg.Server.StartRateLimit.RefillPerSec)
}

// ProvideHTTPHandler registers routes for the process role. Workers only expose health.
func ProvideHTTPHandler(
	cfg *config.Config,
	l *logger.Logger,
	instruments *usecase.Instruments,
	jobs *usecase.JobManager,
	limiter *ratelimit.Limiter,
	client *redis.Client,
	ch *pkgch.Client,
) xhttp.Handler {
	checks := map[string]api.HealthCheck{}
	if client != nil {
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	}
	if ch != nil {
		checks["clickhouse"] = ch.Health
	}

	handlers := xhttp.Handlers{api.NewHealthHandler(checks)}
	if cfg.Role != config.RoleWorker {
		handlers = append(handlers,
			api.NewWhisperEchoHandler(l, instruments, jobs, limiter),
			api.NewJobStreamHandler(l, jobs),
		)
	}
	return handlers
}

// ProvideHTTPServer creates the Echo server.
func ProvideHTTPServer(cfg *config.Config, l *logger.Logger, h xhttp.Handler, reg *prometheus.Registry) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(h, l,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithMetrics(reg, metricsPath, cfg.Metrics.SlowThreshold),
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *logger.Logger,
	httpServer *xhttp.Server,
	q queue.Queue,
	job *usecase.AnalyzeJob,
	producer *pkgkafka.Producer,
	client *redis.Client,
	ch *pkgch.Client,
) *server.App {
	return server.New(cfg, l, httpServer, q, job, producer, client, ch)
}
