package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"MarketWhisperer/internal/usecase"
	pkgch "MarketWhisperer/pkg/clickhouse"
	"MarketWhisperer/pkg/config"
	xhttp "MarketWhisperer/pkg/http"
	pkgkafka "MarketWhisperer/pkg/kafka"
	applogger "MarketWhisperer/pkg/logger"
	"MarketWhisperer/pkg/queue"

	"github.com/redis/go-redis/v9"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	httpServer *xhttp.Server
	queue      queue.Queue
	job        *usecase.AnalyzeJob
	producer   *pkgkafka.Producer
	redis      *redis.Client
	chClient   *pkgch.Client
	collecting bool
}

// New creates a new App instance with all dependencies. producer, redis and chClient may be nil.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	httpServer *xhttp.Server,
	q queue.Queue,
	job *usecase.AnalyzeJob,
	producer *pkgkafka.Producer,
	redisClient *redis.Client,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:        cfg,
		log:        log,
		httpServer: httpServer,
		queue:      q,
		job:        job,
		producer:   producer,
		redis:      redisClient,
		chClient:   chClient,
	}
}

// Start brings up the log collector, the queue and the HTTP server.
func (a *App) Start() (<-chan error, error) {
	if a.cfg.Log.CollectErrors && a.producer != nil {
		cc := &applogger.CollectionConfig{
			TimeInterval:   a.cfg.Log.CollectInterval,
			CountThreshold: a.cfg.Log.CollectMax,
			Topic:          a.cfg.Log.CollectorTopic,
			Publisher:      a.producer,
		}
		// set before any worker or handler goroutine can log
		a.log.AddCollector(cc)
		a.collecting = true
		a.log.Info("error log collection enabled", applogger.String("topic", cc.Topic))
	}

	// API-only processes never execute jobs.
	if a.cfg.Role != config.RoleAPI {
		a.queue.RegisterJob(a.job)
	}
	if err := a.queue.Start(); err != nil {
		return nil, err
	}

	a.log.Info("application started",
		applogger.String("env", a.cfg.Environment),
		applogger.String("role", a.cfg.Role),
		applogger.String("queue", a.cfg.Queue.Backend),
		applogger.String("market", a.cfg.Market.Backend),
		applogger.Bool("kafka", a.producer != nil))

	return a.httpServer.Start(), nil
}

// Run starts the application and blocks until interrupted or the listener fails.
func (a *App) Run() error {
	errCh, err := a.Start()
	if err != nil {
		a.log.Error("startup failed", applogger.Error(err))
		a.Shutdown(context.Background())
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	select {
	case sig := <-sigCh:
		a.log.Info("shutdown signal received", applogger.String("signal", sig.String()))
	case err, ok := <-errCh:
		if ok && err != nil {
			runErr = err
		}
	}

	a.Shutdown(context.Background())
	return runErr
}

// Shutdown stops intake first, then drains the queue, then closes clients.
func (a *App) Shutdown(ctx context.Context) {
	a.log.Info("shutting down...")

	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	qctx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.queue.Stop(qctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		a.log.Warn("queue stop error", applogger.Error(err))
	}

	if a.collecting {
		// flushes pending entries while the producer is still open
		a.log.RemoveCollector()
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.log.Warn("kafka producer close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn("redis close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
}
