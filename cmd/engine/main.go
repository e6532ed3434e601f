// Package main is the entry point for the deal ranking engine.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/onnwee/dealrank/internal/config"
	"github.com/onnwee/dealrank/internal/deal"
	"github.com/onnwee/dealrank/internal/engine"
	"github.com/onnwee/dealrank/internal/health"
	"github.com/onnwee/dealrank/internal/jobs"
	"github.com/onnwee/dealrank/internal/leaderboard"
	"github.com/onnwee/dealrank/internal/logging"
	"github.com/onnwee/dealrank/internal/reputation"
	"github.com/onnwee/dealrank/internal/stats"
	"github.com/onnwee/dealrank/internal/storage"
	"github.com/onnwee/dealrank/internal/tracing"
	"github.com/onnwee/dealrank/internal/vote"
)

// parseLimit reads the limit query parameter, defaulting to 0 so the
// leaderboard service applies its own default page size.
func parseLimit(r *http.Request) int {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
	}
	return 0
}

func writeJSON(w http.ResponseWriter, payload any, err error, logger *slog.Logger) {
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func main() {
	help := flag.Bool("help", false, "display help message")
	configPath := flag.String("config", "", "path to optional YAML config file")
	flag.Parse()

	if *help {
		fmt.Println("Deal Ranking Engine")
		fmt.Println()
		fmt.Println("Usage: engine [options]")
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

	logger := logging.New(cfg.Env)
	slog.SetDefault(logger)

	ctx := context.Background()

	// Tracing
	tracingProvider, err := tracing.NewProvider(tracing.Config{
		ServiceName: "dealrank-engine",
		Enabled:     cfg.TracingEnabled,
		Environment: cfg.Env,
		Endpoint:    cfg.TracingEndpoint,
		SampleRate:  1.0,
		Insecure:    cfg.TracingInsecure,
		Logger:      logger,
	})
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracingProvider.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown tracing", "error", err)
		}
	}()

	// Stores: Postgres when configured, in-memory otherwise.
	var (
		dealStore   deal.Store
		voteStore   vote.VoteStore
		ratingStore reputation.UserRatingStore
		dbChecker   health.Checker
	)
	if cfg.DatabaseURL != "" {
		db, err := storage.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		dealStore = storage.NewPostgresDealStore(db, logger)
		voteStore = storage.NewPostgresVoteStore(db, logger)
		ratingStore = storage.NewPostgresUserRatingStore(db, logger)
		dbChecker = health.NewDBChecker(db)
		logger.Info("using postgres stores")
	} else {
		dealStore = deal.NewInMemoryStore()
		voteStore = vote.NewInMemoryVoteStore()
		ratingStore = reputation.NewInMemoryUserRatingStore()
		logger.Warn("DATABASE_URL not set, using in-memory stores")
	}

	// Redis (leaderboard cache). Optional.
	var (
		redisClient  *redis.Client
		redisChecker health.Checker
		cache        *leaderboard.Cache
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		redisChecker = health.NewRedisChecker(redisClient)

		if cfg.LeaderboardCacheEnabled {
			cache = leaderboard.NewCache(redisClient, cfg.LeaderboardCacheTTL, logger)
			logger.Info("leaderboard cache enabled", "ttl", cfg.LeaderboardCacheTTL)
		}
	}

	// Metrics registry
	registry := prometheus.NewRegistry()

	engineMetrics := engine.NewMetrics()
	if err := engineMetrics.Register(registry); err != nil {
		logger.Error("failed to register engine metrics", "error", err)
		os.Exit(1)
	}
	jobMetrics := jobs.NewMetrics()
	if err := jobMetrics.Register(registry); err != nil {
		logger.Error("failed to register job metrics", "error", err)
		os.Exit(1)
	}

	// Rank weight calibration. Degrades to defaults on error.
	weights, err := engine.LoadCalibration(cfg.CalibrationPath)
	if err != nil {
		logger.Warn("using default rank weights", "error", err)
	}

	upsertStats := stats.NewUpsertStats()
	reputationModel := reputation.NewModel(ratingStore, logger)

	dirtyTracker := engine.NewDirtyTracker()

	rankEngine := engine.New(engine.Config{
		Weights:     weights,
		Logger:      logger,
		Metrics:     engineMetrics,
		UpsertStats: upsertStats,
		Dirty:       dirtyTracker,
		Batch:       cfg.BatchRecalc(),
	}, dealStore, voteStore, reputationModel)

	leaderboardService := leaderboard.NewService(leaderboard.Config{
		Cache:  cache,
		Logger: logger,
	}, dealStore, ratingStore)

	// Batch recompute job. Drains deals marked dirty by batch-mode
	// votes and by failed inline recalculations.
	recomputeJob := engine.NewRecomputeJob(engine.RecomputeJobConfig{
		Interval:    cfg.RecomputeInterval,
		Timeout:     cfg.RecomputeTimeout,
		Logger:      logger,
		JobMetrics:  jobMetrics,
		Invalidator: leaderboardService,
	}, dirtyTracker, rankEngine)

	jobCtx, jobCancel := context.WithCancel(ctx)
	defer jobCancel()
	if err := recomputeJob.Start(jobCtx); err != nil {
		logger.Error("failed to start recompute job", "error", err)
		os.Exit(1)
	}
	defer recomputeJob.Stop()

	// Ops HTTP surface: probes and metrics only.
	healthHandlers := health.NewHandlers(health.HandlersConfig{
		DBChecker:    dbChecker,
		RedisChecker: redisChecker,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", healthHandlers.Health)
	mux.HandleFunc("/readyz", healthHandlers.Ready)
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	// Read-only leaderboard views for operators and debugging. The
	// embedding application owns the user-facing API.
	mux.HandleFunc("/leaderboard/deals", func(w http.ResponseWriter, r *http.Request) {
		ranked, err := leaderboardService.TopDeals(r.Context(), parseLimit(r))
		writeJSON(w, ranked, err, logger)
	})
	mux.HandleFunc("/leaderboard/users", func(w http.ResponseWriter, r *http.Request) {
		ratings, err := leaderboardService.TopUsers(r.Context(), parseLimit(r))
		writeJSON(w, ratings, err, logger)
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      otelhttp.NewHandler(mux, "ops"),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting engine", "port", cfg.Port, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down engine...")
	upsertStats.LogSummary(logger, "deal_scores")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("engine stopped")
}
