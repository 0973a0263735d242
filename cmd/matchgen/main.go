// matchgen runs one full match generation pass: load startups, generate
// candidate investors, score every pair, and persist the ranked matches.
// Safe to rerun; existing matches are upserted and stale ones pruned.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/ugobe007/hotmatch/internal/candidates"
	"github.com/ugobe007/hotmatch/internal/config"
	"github.com/ugobe007/hotmatch/internal/observability"
	"github.com/ugobe007/hotmatch/internal/pipeline"
	"github.com/ugobe007/hotmatch/internal/repository"
	"github.com/ugobe007/hotmatch/internal/scoring"
	"github.com/ugobe007/hotmatch/pkg/database"
	"github.com/ugobe007/hotmatch/pkg/similarity"
)

const (
	exitSuccess = 0
	exitFailure = 1
)

// requiredTables must exist before a run; schema management is external.
var requiredTables = []string{"startups", "investors", "matches", "match_runs", "calibration_runs"}

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)

		return exitFailure
	}

	logger := observability.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgresPool(ctx, cfg.DatabaseURL, database.WithAfterConnect(pgxvec.RegisterTypes))
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)

		return exitFailure
	}
	defer db.Close()

	if err := database.VerifySchema(ctx, db, requiredTables); err != nil {
		logger.Error("Schema verification failed", "error", err)

		return exitFailure
	}

	provider, metrics, err := observability.NewMeterProvider("hotmatch-matchgen")
	if err != nil {
		logger.Error("Failed to create meter provider", "error", err)

		return exitFailure
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Error("Meter provider shutdown failed", "error", err)
		}
	}()

	startupsRepo := repository.NewStartupsRepository(db)
	investorsRepo := repository.NewInvestorsRepository(db)
	matchesRepo := repository.NewMatchesRepository(db)
	runsRepo := repository.NewRunsRepository(db)

	var simService candidates.SimilarityService
	if cfg.SimilarityServiceURL != "" {
		simService = similarity.NewClient(cfg.SimilarityServiceURL, cfg.SimilarityAPIKey)
		logger.Info("using external similarity service", "url", cfg.SimilarityServiceURL)
	}

	generator, err := candidates.NewGenerator(candidates.GeneratorParams{
		Investors:     investorsRepo,
		Similarity:    simService,
		Limit:         cfg.CandidateLimit,
		MinSimilarity: cfg.MinSimilarity,
		Logger:        logger,
	})
	if err != nil {
		logger.Error("Failed to create candidate generator", "error", err)

		return exitFailure
	}

	writer := pipeline.NewRetryingMatchWriter(matchesRepo, pipeline.RetryingMatchWriterConfig{
		MaxRetries:     3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     10 * time.Second,
		Metrics:        metrics,
	})

	runner := pipeline.NewRunner(pipeline.RunnerParams{
		Startups:         startupsRepo,
		Searcher:         generator,
		Scorer:           scoring.NewScorer(scoring.DefaultPolicy()),
		Writer:           writer,
		Pruner:           matchesRepo,
		Runs:             runsRepo,
		Metrics:          metrics,
		Logger:           logger,
		PageSize:         cfg.BatchSize,
		PersistFloor:     cfg.PersistFloor,
		PublishFloor:     cfg.PublishFloor,
		TopMatchesKept:   cfg.TopMatchesKept,
		BatchesPerSecond: cfg.BatchesPerSecond,
	})

	stats, err := runner.Run(ctx)
	if err != nil {
		logger.Error("Match run failed", "error", err,
			"startups_processed", stats.StartupsProcessed,
			"persisted", stats.Persisted,
		)

		return exitFailure
	}

	logger.Info("Match run complete",
		"startups_processed", stats.StartupsProcessed,
		"corrupt_skipped", stats.CorruptSkipped,
		"pairs_scored", stats.PairsScored,
		"persisted", stats.Persisted,
		"below_floor_skipped", stats.BelowFloorSkipped,
		"errors", stats.Errors,
	)

	return exitSuccess
}
