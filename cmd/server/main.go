// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sentiment-aura/internal/common/camunda"
	"sentiment-aura/internal/common/config"
	"sentiment-aura/internal/common/database"
	apperrors "sentiment-aura/internal/common/errors"
	"sentiment-aura/internal/common/logger"
	"sentiment-aura/internal/common/observability"
	"sentiment-aura/internal/handlers"
	"sentiment-aura/internal/sentiment"
	as "sentiment-aura/internal/workers/analysis/analyze-sentiment"
)

// retryWithBackoff retries operation with exponential backoff.
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initialDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0

	attempt := 0
	err := backoff.RetryNotify(func() error {
		attempt++
		return operation()
	}, backoff.WithMaxRetries(b, uint64(maxRetries-1)), func(err error, next time.Duration) {
		log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.Int("maxRetries", maxRetries),
			zap.Duration("nextRetryIn", next),
		)
	})
	if err != nil {
		return fmt.Errorf("%s failed after %d attempts: %w", operationName, attempt, err)
	}
	return nil
}

func main() {
	boot := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		boot.Fatal("config load failed", zap.Error(err))
	}
	_ = boot.Sync()

	zapLog := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting sentiment service...", zap.Any("config", cfg.Redacted()))

	obs := observability.New(cfg.Observability.ServiceName,
		observability.WithTracing(cfg.Observability.TracingEnabled),
		observability.WithLogger(log),
	)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Result cache (optional) ---
	var redis *database.RedisClient
	var cache sentiment.Cache
	if cfg.Cache.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			redis, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return backoff.Permanent(err)
			}
			return redis.Ping(ctx)
		}, 5, time.Second, zapLog, "Redis connection")

		if err != nil {
			zapLog.Warn("redis unavailable, running without result cache", zap.Error(err))
			if redis != nil {
				_ = redis.Close()
				redis = nil
			}
		} else {
			cache = sentiment.NewRedisCache(redis, config.GetDuration(cfg.Cache.TTL), cfg.Cache.KeyPrefix)
			zapLog.Info("Redis connected successfully")
		}
	}

	// --- Analyzer ---
	stats := sentiment.NewStats()
	extra := []sentiment.Option{
		sentiment.WithStats(stats),
		sentiment.WithObservability(obs),
	}
	if cache != nil {
		extra = append(extra, sentiment.WithCache(cache))
	}

	var analyzer *sentiment.Analyzer
	analyzer, err = sentiment.NewFromConfig(cfg.LLM, log, nil, extra...)
	switch {
	case apperrors.IsCode(err, apperrors.ErrCodeConfiguration):
		zapLog.Warn("no LLM provider configured; sentiment analysis disabled", zap.Error(err))
		analyzer = nil
	case err != nil:
		zapLog.Fatal("analyzer init failed", zap.Error(err))
	default:
		zapLog.Info("LLM service initialized",
			zap.String("provider", string(analyzer.Provider())),
			zap.String("model", analyzer.Model()),
		)
	}

	// --- Workflow worker (optional) ---
	var zeebe *camunda.Client
	var jobWorker *camunda.CamundaWorker
	if cfg.Camunda.Enabled && config.IsWorkerEnabled(cfg, as.TaskType) {
		zeebe, jobWorker = startWorker(cfg, analyzer, log, zapLog)
	}

	// --- HTTP server ---
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	deps := handlers.Dependencies{Config: cfg, Logger: log}
	if analyzer != nil {
		deps.Analyzer = analyzer
	}
	if redis != nil {
		deps.Cache = redis
	}
	if zeebe != nil {
		deps.Workflow = zeebe
	}

	h, err := handlers.NewHandler(deps)
	if err != nil {
		zapLog.Fatal("handler init failed", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handlers.NewRouter(h),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}
	if jobWorker != nil {
		jobWorker.Stop(shutdownCtx)
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			zapLog.Error("Error closing Zeebe client", zap.Error(err))
		}
	}
	if analyzer != nil {
		_ = analyzer.Close()
	}
	if redis != nil {
		if err := redis.Close(); err != nil {
			zapLog.Error("Error closing Redis client", zap.Error(err))
		}
	}

	zapLog.Info("Sentiment service stopped gracefully")
}

func startWorker(cfg *config.Config, analyzer *sentiment.Analyzer, log logger.Logger, zapLog *zap.Logger) (*camunda.Client, *camunda.CamundaWorker) {
	client, err := camunda.NewClientWithConfig(&camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: true,
		ConnectionTimeout:      10 * time.Second,
		RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
	})
	if err != nil {
		zapLog.Error("zeebe unavailable, workflow worker disabled", zap.Error(err))
		return nil, nil
	}
	zapLog.Info("Zeebe client connected successfully")

	var a as.Analyzer
	if analyzer != nil {
		a = analyzer
	}

	wcfg := as.LoadConfig(cfg)
	handler, err := as.NewHandler(wcfg, a, log)
	if err != nil {
		zapLog.Error("failed to create analyze-sentiment handler", zap.Error(err))
		_ = client.Close()
		return nil, nil
	}

	w := camunda.NewWorker(client.GetClient(), as.TaskType, wcfg.MaxJobsActive, handler, log)
	w.Start()
	return client, w
}
