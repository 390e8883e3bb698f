// cmd/careplus-api/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"careplus/internal/api"
	"careplus/internal/cache"
	awsclients "careplus/internal/common/aws"
	"careplus/internal/common/config"
	"careplus/internal/common/database"
	"careplus/internal/common/logger"
	"careplus/internal/common/observability"
	"careplus/internal/common/validation"
	"careplus/internal/notify"
	"careplus/internal/search"
	"careplus/internal/store"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting Care+ API...",
		zap.String("environment", cfg.App.Environment),
		zap.String("address", cfg.Server.Address),
	)

	obs := observability.New("careplus-api", log)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.ConnectPostgres(ctx, cfg.Database.Postgres)
		return err
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	st := store.New(pg.DB)
	if err := st.Migrate(ctx); err != nil {
		zapLog.Fatal("schema migration failed", zap.Error(err))
	}

	opts := []api.Option{api.WithObservability(obs)}

	// --- Init Redis (optional) ---
	if cfg.Database.Redis.Enabled {
		rdb := database.NewRedis(cfg.Database.Redis)
		err = retryWithBackoff(func() error {
			return rdb.Ping(ctx)
		}, 5, time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Warn("redis unavailable, summary cache disabled", zap.Error(err))
			_ = rdb.Close()
		} else {
			defer rdb.Close()
			opts = append(opts, api.WithCache(cache.NewSummaryCache(rdb.Client, config.GetDuration(cfg.Cache.SummaryTTL), log)))
			zapLog.Info("Redis connected successfully")
		}
	}

	// --- Init Elasticsearch (optional) ---
	if cfg.Database.Elasticsearch.Enabled {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch, nil)
			if err != nil {
				return err
			}
			return esClient.Ping(ctx)
		}, 5, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Warn("elasticsearch unavailable, search falls back to postgres", zap.Error(err))
		} else {
			opts = append(opts, api.WithSearch(search.NewIndex(esClient.Client, cfg.Database.Elasticsearch.Index, log)))
			zapLog.Info("Elasticsearch connected successfully")
		}
	}

	// --- Init alert notifications ---
	opts = append(opts, api.WithNotifier(newNotifier(ctx, cfg, log, zapLog)))

	validator, err := validation.NewDefaultValidator()
	if err != nil {
		zapLog.Fatal("schema registry failed to load", zap.Error(err))
	}

	srv := api.NewServer(cfg.Server, st, validator, log, opts...)
	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      srv.Routes(),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("Care+ API listening", zap.String("address", cfg.Server.Address))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("API server failed", zap.Error(err))
		}
	}()

	// --- Health/Metrics server ---
	metricsServer := &http.Server{Addr: cfg.Metrics.Address, Handler: metricsMux(pg)}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Metrics.Address))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining requests...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down API server", zap.Error(err))
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down metrics server", zap.Error(err))
	}

	zapLog.Info("Care+ API stopped gracefully")
}

func newNotifier(ctx context.Context, cfg *config.Config, log logger.Logger, zapLog *zap.Logger) *notify.Notifier {
	n := cfg.Notifications
	if !n.Enabled {
		return notify.Disabled(log)
	}

	awsCfg, err := awsclients.LoadConfig(ctx, n.Region)
	if err != nil {
		zapLog.Warn("AWS config unavailable, alert notifications disabled", zap.Error(err))
		return notify.Disabled(log)
	}

	zapLog.Info("Alert notifications enabled",
		zap.Bool("email", n.Email.Enabled),
		zap.Bool("sms", n.SMS.Enabled),
	)
	return notify.NewNotifier(notify.Config{
		EmailEnabled: n.Email.Enabled,
		SMSEnabled:   n.SMS.Enabled,
		FromEmail:    n.Email.FromEmail,
		SenderID:     n.SMS.SenderID,
	}, awsclients.NewSESClient(awsCfg), awsclients.NewSNSClient(awsCfg), log)
}

func metricsMux(pg *database.PostgresClient) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		status, code := "ready", http.StatusOK
		if err := pg.Ping(r.Context()); err != nil {
			status, code = "not ready", http.StatusServiceUnavailable
		}
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]string{
			"status": status,
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}
