// embed-worker runs the River workers that process embedding jobs enqueued
// by backfill-embeddings. Runs until SIGINT/SIGTERM.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	pgxvec "github.com/pgvector/pgvector-go/pgx"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/sashabaranov/go-openai"

	"github.com/ugobe007/hotmatch/internal/config"
	"github.com/ugobe007/hotmatch/internal/embeddings"
	"github.com/ugobe007/hotmatch/internal/jobs"
	"github.com/ugobe007/hotmatch/internal/observability"
	"github.com/ugobe007/hotmatch/internal/repository"
	"github.com/ugobe007/hotmatch/pkg/database"
)

const (
	exitSuccess = 0
	exitFailure = 1

	// embeddingRequestsPerSecond keeps the worker under the embedding API
	// rate limit across retries.
	embeddingRequestsPerSecond = 5
	embeddingRequestBurst      = 10

	workerCount = 4
)

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

	var client embeddings.Client
	if cfg.OpenAIAPIKey != "" {
		client = embeddings.NewOpenAIClientWithModel(cfg.OpenAIAPIKey, openai.EmbeddingModel(cfg.EmbeddingModel))
	} else {
		logger.Warn("OPENAI_API_KEY not set, using deterministic mock embeddings")
		client = embeddings.NewMockClient()
	}
	client = embeddings.NewRateLimitedClient(client, embeddingRequestsPerSecond, embeddingRequestBurst)

	worker := jobs.NewEmbeddingWorker(jobs.EmbeddingWorkerDeps{
		EmbeddingClient: client,
		StartupSetter:   repository.NewStartupsRepository(db),
		InvestorSetter:  repository.NewInvestorsRepository(db),
	})

	workers := river.NewWorkers()
	river.AddWorker(workers, worker)

	riverClient, err := river.NewClient(riverpgxv5.New(db), &river.Config{
		Queues: map[string]river.QueueConfig{
			jobs.EmbeddingsQueueName: {MaxWorkers: workerCount},
		},
		Workers:      workers,
		ErrorHandler: &jobs.ErrorHandler{Logger: logger},
		MaxAttempts:  cfg.EmbeddingJobRetries,
	})
	if err != nil {
		logger.Error("Failed to create River client", "error", err)

		return exitFailure
	}

	if err := riverClient.Start(ctx); err != nil {
		logger.Error("Failed to start River client", "error", err)

		return exitFailure
	}

	logger.Info("embed-worker started", "queue", jobs.EmbeddingsQueueName, "max_workers", workerCount)

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := riverClient.Stop(shutdownCtx); err != nil {
		logger.Error("River client shutdown failed", "error", err)

		return exitFailure
	}

	logger.Info("embed-worker stopped")

	return exitSuccess
}
