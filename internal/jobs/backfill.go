package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ugobe007/hotmatch/internal/models"
)

// BackfillStats holds statistics from a backfill operation.
type BackfillStats struct {
	StartupsEnqueued  int
	InvestorsEnqueued int
	Errors            int
}

// StartupBackfillSource lists and loads startups missing a vector.
type StartupBackfillSource interface {
	ListIDsMissingEmbedding(ctx context.Context) ([]uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Startup, error)
}

// InvestorBackfillSource lists and loads investors missing a vector.
type InvestorBackfillSource interface {
	ListIDsMissingEmbedding(ctx context.Context) ([]uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Investor, error)
}

// Backfill enqueues embedding jobs for all startups and investors that are
// missing embeddings. Per-entity failures are counted, not fatal, so one bad
// row never blocks the rest of the backfill.
func Backfill(
	ctx context.Context,
	startups StartupBackfillSource,
	investors InvestorBackfillSource,
	inserter JobInserter,
) (*BackfillStats, error) {
	stats := &BackfillStats{}

	startupIDs, err := startups.ListIDsMissingEmbedding(ctx)
	if err != nil {
		return nil, fmt.Errorf("list startups for backfill: %w", err)
	}

	for _, id := range startupIDs {
		s, err := startups.GetByID(ctx, id)
		if err != nil {
			slog.Error("failed to load startup for backfill", "startup_id", id, "error", err)
			stats.Errors++

			continue
		}

		if err := inserter.InsertEmbeddingJob(ctx, EmbeddingJobArgs{
			EntityID:   id,
			EntityType: EntityTypeStartup,
			Text:       s.EmbeddingText(),
		}); err != nil {
			slog.Error("failed to enqueue startup embedding job", "startup_id", id, "error", err)
			stats.Errors++

			continue
		}

		stats.StartupsEnqueued++
	}

	investorIDs, err := investors.ListIDsMissingEmbedding(ctx)
	if err != nil {
		return nil, fmt.Errorf("list investors for backfill: %w", err)
	}

	for _, id := range investorIDs {
		inv, err := investors.GetByID(ctx, id)
		if err != nil {
			slog.Error("failed to load investor for backfill", "investor_id", id, "error", err)
			stats.Errors++

			continue
		}

		if err := inserter.InsertEmbeddingJob(ctx, EmbeddingJobArgs{
			EntityID:   id,
			EntityType: EntityTypeInvestor,
			Text:       inv.EmbeddingText(),
		}); err != nil {
			slog.Error("failed to enqueue investor embedding job", "investor_id", id, "error", err)
			stats.Errors++

			continue
		}

		stats.InvestorsEnqueued++
	}

	return stats, nil
}
