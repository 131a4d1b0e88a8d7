package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rajasatyajit/TravelAdvisor/config"
	"github.com/rajasatyajit/TravelAdvisor/internal/api"
	"github.com/rajasatyajit/TravelAdvisor/internal/cache"
	"github.com/rajasatyajit/TravelAdvisor/internal/classifier"
	"github.com/rajasatyajit/TravelAdvisor/internal/cleaner"
	"github.com/rajasatyajit/TravelAdvisor/internal/database"
	"github.com/rajasatyajit/TravelAdvisor/internal/insights"
	"github.com/rajasatyajit/TravelAdvisor/internal/lexicon"
	"github.com/rajasatyajit/TravelAdvisor/internal/logger"
	"github.com/rajasatyajit/TravelAdvisor/internal/metrics"
	middlewares "github.com/rajasatyajit/TravelAdvisor/internal/middleware"
	"github.com/rajasatyajit/TravelAdvisor/internal/normalizer"
	"github.com/rajasatyajit/TravelAdvisor/internal/pipeline"
	"github.com/rajasatyajit/TravelAdvisor/internal/ratelimit"
	"github.com/rajasatyajit/TravelAdvisor/internal/store"
)

// Version information (set by build)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Starting TravelAdvisor application",
		"version", Version,
		"build_time", BuildTime,
		"git_commit", GitCommit,
	)

	if cfg.Metrics.Enabled {
		metrics.Init()
		logger.Info("Metrics enabled", "port", cfg.Metrics.Port)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database and store
	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database", "error", err)
	}
	defer db.Close(ctx)

	advisoryStore, err := store.New(db, cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize store", "error", err)
	}
	defer closeStore(advisoryStore)

	// Initialize enrichment components
	lex := lexicon.New(cfg.Lexicon)
	norm := normalizer.New(lex)
	advisoryCleaner := cleaner.New(lex)
	analyzer := insights.New(classifier.New(lex))

	// Insight cache is best effort; the service runs without Redis
	insightCache, err := cache.New(cfg.Redis.URL, cfg.Insights.CacheTTL)
	if err != nil {
		logger.Error("Insight cache unavailable, continuing without it", "error", err)
		insightCache = nil
	}
	defer insightCache.Close()

	// Initialize pipeline
	advisoryPipeline := pipeline.New(advisoryStore, advisoryCleaner, insightCache, buildSources(cfg), cfg.Pipeline)

	go func() {
		if err := advisoryPipeline.Run(ctx); err != nil {
			logger.Error("Pipeline error", "error", err)
		}
	}()

	// Setup HTTP server
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewares.Logging)
	r.Use(middlewares.Metrics)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Server.ReadTimeout))
	r.Use(middlewares.Security)
	r.Use(middlewares.CORS(cfg.Server.CORSOrigins))
	r.Use(rateLimiter(cfg))

	apiHandler := api.NewHandler(
		advisoryStore, analyzer, norm, insightCache, advisoryPipeline,
		cfg.Insights.LookbackDays, cfg.Admin.AdminSecret,
		Version, BuildTime, GitCommit,
	)
	apiHandler.RegisterRoutes(r)

	if cfg.Metrics.Enabled {
		go startMetricsServer(cfg.Metrics.Port, cfg.Metrics.Path)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("Starting HTTP server", "address", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
}

// buildSources assembles the configured advisory sources. The RSS source is
// always on; the HTML scraper joins when a listing URL is configured.
func buildSources(cfg *config.Config) []pipeline.Source {
	var sources []pipeline.Source

	if len(cfg.Sources.RSSURLs) > 0 {
		sources = append(sources, pipeline.NewRSSSource(
			cfg.Sources.RSSName, cfg.Sources.RSSURLs, cfg.Pipeline.PollInterval,
		))
	}

	if cfg.Sources.HTMLURL != "" {
		sources = append(sources, pipeline.NewHTMLSource(
			cfg.Sources.HTMLName, cfg.Sources.HTMLURL,
			pipeline.HTMLSelectors{
				Row:         cfg.Sources.HTMLRow,
				Country:     cfg.Sources.HTMLCountry,
				RiskLevel:   cfg.Sources.HTMLRiskLevel,
				Date:        cfg.Sources.HTMLDate,
				Description: cfg.Sources.HTMLDescription,
				Link:        cfg.Sources.HTMLLink,
			},
			cfg.Pipeline.PollInterval,
		))
	}

	return sources
}

// rateLimiter prefers the Redis-backed limiter so horizontally scaled
// instances share one budget; without Redis it falls back to per-instance
// limiting.
func rateLimiter(cfg *config.Config) func(http.Handler) http.Handler {
	if cfg.Redis.URL != "" {
		limiter, err := ratelimit.NewLimiter(cfg.Redis.URL, cfg.Server.RateLimitPerMinute)
		if err == nil {
			return middlewares.RedisRateLimit(limiter)
		}
		logger.Error("Redis rate limiter unavailable, using in-process limiter", "error", err)
	}
	return middlewares.RateLimit(cfg.Server.RateLimitPerMinute)
}

func closeStore(s store.Store) {
	if closer, ok := s.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Store close failed", "error", err)
		}
	}
}

func startMetricsServer(port int, path string) {
	mux := http.NewServeMux()
	mux.Handle(path, metrics.Handler())

	addr := fmt.Sprintf(":%d", port)
	logger.Info("Starting metrics server", "address", addr, "path", path)

	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("Metrics server failed", "error", err)
	}
}
