package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/strategos-ai/orchestrator/internal/cache"
	"github.com/strategos-ai/orchestrator/internal/config"
	"github.com/strategos-ai/orchestrator/internal/health"
	"github.com/strategos-ai/orchestrator/internal/httpapi"
	"github.com/strategos-ai/orchestrator/internal/listings"
	"github.com/strategos-ai/orchestrator/internal/pipeline"
	"github.com/strategos-ai/orchestrator/internal/providers"
	"github.com/strategos-ai/orchestrator/internal/research"
	"github.com/strategos-ai/orchestrator/internal/workflow"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Fingerprint cache: Redis when configured, in-memory otherwise.
	// A dead Redis degrades to memory rather than refusing to start.
	var store cache.Store
	var redisStore *cache.RedisStore
	if cfg.Cache.RedisAddr != "" {
		redisStore, err = cache.NewRedisStore(cfg.Cache.RedisAddr, os.Getenv("REDIS_PASSWORD"), cfg.Cache.TTL, logger)
		if err != nil {
			logger.Warn("Redis unavailable, using in-memory cache",
				zap.String("addr", cfg.Cache.RedisAddr),
				zap.Error(err),
			)
		} else {
			store = redisStore
			defer redisStore.Close()
		}
	}
	if store == nil {
		store = cache.NewMemoryStore(cfg.Cache.MaxEntries, cfg.Cache.TTL)
	}

	// Provider cascade in configured priority order.
	ordered := make([]providers.Provider, 0, len(cfg.Providers.Order))
	for _, name := range cfg.Providers.Order {
		pc, ok := cfg.Providers.Endpoints[name]
		if !ok || pc.Endpoint == "" {
			logger.Fatal("Provider has no configured endpoint", zap.String("provider", name))
		}
		ordered = append(ordered, providers.NewHTTPProvider(name, pc.Endpoint, os.Getenv(pc.APIKeyEnv), pc.Model))
	}
	cascade, err := providers.NewCascade(ordered, providers.CascadeConfig{
		CallTimeout:   cfg.Providers.CallTimeout,
		RatePerMinute: cfg.Providers.RatePerMinute,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to build provider cascade", zap.Error(err))
	}
	logger.Info("Provider cascade configured", zap.Strings("order", cascade.Names()))

	// Research baskets.
	baskets := make([]research.Basket, 0, len(research.BasketNames()))
	for _, name := range research.BasketNames() {
		endpoint, ok := cfg.Research.Endpoints[name]
		if !ok || endpoint == "" {
			logger.Fatal("Basket has no configured endpoint", zap.String("basket", name))
		}
		baskets = append(baskets, research.NewHTTPBasket(name, endpoint))
	}
	aggregator := research.NewAggregator(baskets, cfg.Research.BasketTimeout, logger)

	focus := pipeline.LoadFocusLibrary(cfg.Strategy.DefinitionsPath, logger)
	pipe := pipeline.New(store, aggregator, cascade, focus, pipeline.Tuning{
		QualityThreshold: cfg.Quality.Threshold,
		MaxRevisions:     cfg.Quality.MaxRevisions,
	}, logger)

	registry := workflow.NewRegistry(cfg.Registry.MaxWorkflows, research.BasketNames(), logger)
	executor := workflow.NewExecutor(registry, pipe, logger)

	// Hot-reload loop tuning on config file change.
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = config.DefaultPath
	}
	if _, statErr := os.Stat(configPath); statErr == nil {
		watcher, werr := config.NewWatcher(configPath, func(next *config.Config) {
			pipe.UpdateTuning(pipeline.Tuning{
				QualityThreshold: next.Quality.Threshold,
				MaxRevisions:     next.Quality.MaxRevisions,
			})
		}, logger)
		if werr != nil {
			logger.Warn("Config hot-reload disabled", zap.Error(werr))
		} else {
			watcher.Start()
			defer watcher.Stop()
		}
	}

	// Stock listings for the search endpoint.
	var index *listings.Index
	if cfg.Listings.Path != "" {
		index, err = listings.Load(cfg.Listings.Path)
		if err != nil {
			logger.Warn("Stock listings not loaded", zap.String("path", cfg.Listings.Path), zap.Error(err))
		} else {
			logger.Info("Loaded stock listings", zap.Int("count", index.Len()))
		}
	}

	// Health checks.
	healthMgr := health.NewManager(3*time.Second, logger)
	if redisStore != nil {
		healthMgr.Register(health.CheckerFunc{
			CheckerName: "redis",
			Fn:          redisStore.Ping,
		})
	}

	mux := http.NewServeMux()
	httpapi.NewWorkflowHandler(executor, logger).RegisterRoutes(mux)
	httpapi.NewStocksHandler(index, logger).RegisterRoutes(mux)
	httpapi.NewHealthHandler(executor, healthMgr, logger).RegisterRoutes(mux)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Metrics.Port),
			Handler:           metricsMux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("Metrics server listening", zap.Int("port", cfg.Metrics.Port))
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("Metrics server failed", zap.Error(err))
			}
		}()
	}

	go func() {
		logger.Info("Orchestrator listening", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("Shutting down", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Server shutdown incomplete", zap.Error(err))
	}
	if metricsServer != nil {
		_ = metricsServer.Shutdown(shutdownCtx)
	}
	if err := executor.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Executor shutdown incomplete", zap.Error(err))
	}
	logger.Info("Shutdown complete")
}

func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
