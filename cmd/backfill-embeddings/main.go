// backfill-embeddings enqueues River embedding jobs for startups and
// investors with a null embedding. Run this as a one-off after imports;
// the embed-worker process picks up the jobs.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	pgxvec "github.com/pgvector/pgvector-go/pgx"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"

	"github.com/ugobe007/hotmatch/internal/config"
	"github.com/ugobe007/hotmatch/internal/jobs"
	"github.com/ugobe007/hotmatch/internal/observability"
	"github.com/ugobe007/hotmatch/internal/repository"
	"github.com/ugobe007/hotmatch/pkg/database"
)

const (
	exitSuccess = 0
	exitFailure = 1
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

	ctx := context.Background()

	db, err := database.NewPostgresPool(ctx, cfg.DatabaseURL, database.WithAfterConnect(pgxvec.RegisterTypes))
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)

		return exitFailure
	}
	defer db.Close()

	if err := database.VerifySchema(ctx, db, []string{"startups", "investors"}); err != nil {
		logger.Error("Schema verification failed", "error", err)

		return exitFailure
	}

	// Insert-only client: no workers registered here, the embed-worker
	// process runs them.
	riverClient, err := river.NewClient(riverpgxv5.New(db), &river.Config{
		Queues: map[string]river.QueueConfig{
			jobs.EmbeddingsQueueName: {},
		},
		Workers: river.NewWorkers(),
	})
	if err != nil {
		logger.Error("Failed to create River client", "error", err)

		return exitFailure
	}

	startupsRepo := repository.NewStartupsRepository(db)
	investorsRepo := repository.NewInvestorsRepository(db)
	inserter := jobs.NewRiverJobInserter(riverClient)

	stats, err := jobs.Backfill(ctx, startupsRepo, investorsRepo, inserter)
	if err != nil {
		logger.Error("Backfill failed", "error", err)

		return exitFailure
	}

	logger.Info("Backfill complete",
		"startups_enqueued", stats.StartupsEnqueued,
		"investors_enqueued", stats.InvestorsEnqueued,
		"errors", stats.Errors,
	)

	fmt.Printf("Enqueued %d startup and %d investor embedding job(s).\n",
		stats.StartupsEnqueued, stats.InvestorsEnqueued)

	return exitSuccess
}
