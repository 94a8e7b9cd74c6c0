package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/deployguard/impact-engine/internal/api"
	"github.com/deployguard/impact-engine/internal/cache"
	"github.com/deployguard/impact-engine/internal/classify"
	"github.com/deployguard/impact-engine/internal/config"
	"github.com/deployguard/impact-engine/internal/engine"
	"github.com/deployguard/impact-engine/internal/metrics"
	"github.com/deployguard/impact-engine/internal/registry"
	"github.com/deployguard/impact-engine/internal/repo"
	"github.com/deployguard/impact-engine/internal/services"
	"github.com/deployguard/impact-engine/internal/utils"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	logger.Info("starting impact-engine", slog.String("address", cfg.Server.Address))

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		os.Exit(1)
	}

	var cacheProvider cache.Provider = cache.NoopProvider{}
	if cfg.Cache.Enabled && cfg.Cache.Addr != "" {
		provider, err := cache.NewRedisProvider(cache.RedisConfig{
			Addr:         cfg.Cache.Addr,
			Username:     cfg.Cache.Username,
			Password:     cfg.Cache.Password,
			DB:           cfg.Cache.DB,
			DialTimeout:  cfg.Cache.DialTimeout,
			ReadTimeout:  cfg.Cache.ReadTimeout,
			WriteTimeout: cfg.Cache.WriteTimeout,
			MaxRetries:   cfg.Cache.MaxRetries,
		})
		if err != nil {
			logger.Warn("redis cache unavailable", slog.Any("error", err))
		} else {
			cacheProvider = provider
			defer provider.Close()
		}
	}

	serviceRegistry, err := registry.Load(cfg.Registry.Path)
	if err != nil {
		logger.Error("failed to load service registry", slog.Any("error", err))
		os.Exit(1)
	}
	classifier, err := classify.Load(cfg.Classifier.Path)
	if err != nil {
		logger.Error("failed to load classifier rules", slog.Any("error", err))
		os.Exit(1)
	}

	historyClient := repo.NewHistoryClient(
		cfg.Clients.History.BaseURL,
		cfg.Clients.History.HistoryPath,
		cfg.Clients.History.ExistsPath,
		cfg.Clients.History.AnalysesPath,
		cfg.Clients.History.Timeout,
		cacheProvider,
		cfg.Cache.HistoryTTL,
		cfg.Cache.ExistsTTL,
		logger,
	)
	if !historyClient.Enabled() {
		logger.Warn("history backend not configured, analyses will use static baselines")
	}

	analyzer := engine.NewAnalyzer(serviceRegistry)
	impactService := services.NewImpactService(logger, historyClient, classifier, analyzer)
	handlers := api.NewHandlers(logger, impactService)

	server, err := api.NewServer(cfg.Server, cfg.Auth, cfg.RateLimit, logger, handlers)
	if err != nil {
		logger.Error("failed to create HTTP server", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metricsServer *http.Server
	if cfg.Server.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		go func() {
			logger.Info("metrics server listening", slog.String("address", cfg.Server.MetricsAddress))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server exited", slog.Any("error", err))
				stop()
			}
		}()
	}

	go func() {
		if serveErr := server.Start(); serveErr != nil {
			logger.Error("HTTP server exited", slog.Any("error", serveErr))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	server.Shutdown(shutdownCtx)

	if metricsServer != nil {
		metricsCtx, cancelMetrics := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(metricsCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server shutdown", slog.Any("error", err))
		}
		cancelMetrics()
	}

	// Give remaining goroutines time to finish logging
	time.Sleep(100 * time.Millisecond)
	logger.Info("impact-engine stopped")
}
