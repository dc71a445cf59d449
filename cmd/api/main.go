// Package main is the entry point for the discovery API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/univrs/discovery/internal/api"
	"github.com/univrs/discovery/internal/auth"
	"github.com/univrs/discovery/internal/config"
	"github.com/univrs/discovery/internal/feed"
	"github.com/univrs/discovery/internal/middleware"
	"github.com/univrs/discovery/internal/rank"
	"github.com/univrs/discovery/internal/score"
	"github.com/univrs/discovery/internal/search"
	"github.com/univrs/discovery/internal/store"
	"github.com/univrs/discovery/internal/tracing"
	"github.com/univrs/discovery/internal/trending"
)

func main() {
	help := flag.Bool("help", false, "display help message")
	configPath := flag.String("config", "", "path to YAML config file (env vars take precedence)")
	flag.Parse()

	if *help {
		fmt.Println("Discovery API Server")
		fmt.Println()
		fmt.Println("Usage: api [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configPath)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintln(os.Stderr, "config error:", err)
		}
		os.Exit(1)
	}

	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)
	logger.Info("configuration loaded", "config", cfg.LogSummary())

	// Tracing
	provider, err := tracing.NewProvider(tracing.Config{
		ServiceName:  "discovery-api",
		Enabled:      cfg.TracingEnabled,
		Environment:  cfg.Env,
		ExporterType: cfg.TracingExporter,
		OTLPEndpoint: cfg.TracingEndpoint,
		SamplingRate: cfg.TracingSampleRate,
		InsecureMode: cfg.Env != "production",
	})
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	// Store selection: Postgres when configured, in-memory otherwise.
	var (
		st        store.Store
		dbChecker api.HealthChecker
	)
	if cfg.DatabaseURL != "" {
		pg, err := store.Open(cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pg.Close()
		st = pg
		dbChecker = pg
		logger.Info("using postgres store")
	} else {
		st = store.NewMemoryStore()
		logger.Warn("DATABASE_URL not set, using in-memory store")
	}

	// Trending topics come from Redis when configured.
	var trends trending.Source
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer client.Close()
		key := cfg.TrendingTopicKey
		if key == "" {
			key = trending.DefaultRedisKey
		}
		trends = trending.NewRedisSource(client, key)
		logger.Info("trending topics enabled", "redis_addr", cfg.RedisAddr, "key", key)
	}

	// Ranking weights, with optional calibration overrides.
	weights, err := score.LoadCalibration(cfg.CalibrationPath)
	if err != nil {
		logger.Warn("calibration load failed, using defaults", "error", err)
	}
	composer := rank.NewComposer(weights)

	// Metrics
	registry := prometheus.NewRegistry()
	httpMetrics := middleware.NewMetrics()
	searchMetrics := search.NewMetrics()
	if err := httpMetrics.Register(registry); err != nil {
		logger.Error("failed to register HTTP metrics", "error", err)
		os.Exit(1)
	}
	if err := searchMetrics.Register(registry); err != nil {
		logger.Error("failed to register search metrics", "error", err)
		os.Exit(1)
	}

	jwtService := auth.NewJWTServiceWithRotation(cfg.JWTSecret, cfg.JWTPreviousSecret)

	// Did-you-mean vocabulary is optional.
	var suggester search.Suggester
	if cfg.VocabPath != "" {
		vs, err := search.NewVocabSuggesterFromFile(cfg.VocabPath)
		if err != nil {
			logger.Warn("vocabulary load failed, suggestions disabled", "error", err)
		} else {
			suggester = vs
		}
	}

	assembler := feed.NewAssembler(st, composer, trends)
	orchestrator := search.NewOrchestrator(st, composer, trends, suggester, searchMetrics)

	feedHandlers := api.NewFeedHandlers(assembler)
	searchHandlers := api.NewSearchHandlers(orchestrator)
	healthHandlers := api.NewHealthHandlers(dbChecker)

	requireAuth := middleware.RequireAuth(jwtService)
	optionalAuth := middleware.OptionalAuth(jwtService)

	mux := http.NewServeMux()
	mux.Handle("GET /feed/personal", requireAuth(http.HandlerFunc(feedHandlers.PersonalFeed)))
	mux.Handle("GET /feed/universe/{slug}", optionalAuth(http.HandlerFunc(feedHandlers.UniverseFeed)))
	mux.Handle("POST /search", optionalAuth(http.HandlerFunc(searchHandlers.Search)))
	mux.HandleFunc("GET /health", healthHandlers.Health)
	mux.HandleFunc("GET /ready", healthHandlers.Ready)
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	// Middleware chain: RequestID -> Logging -> HTTP metrics
	handler := middleware.RequestID(
		middleware.Logging(logger)(
			middleware.HTTPMetrics(httpMetrics)(mux)))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	if err := provider.Shutdown(ctx); err != nil {
		logger.Error("failed to shut down tracing", "error", err)
	}

	logger.Info("server stopped")
}
