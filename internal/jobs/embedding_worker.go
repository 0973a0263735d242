package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/riverqueue/river"

	"github.com/ugobe007/hotmatch/internal/embeddings"
	"github.com/ugobe007/hotmatch/internal/matcherrors"
	vecutil "github.com/ugobe007/hotmatch/pkg/embeddings"
)

// EmbeddingSetter stores a generated vector on a record. Both the startups
// and investors repositories satisfy it.
type EmbeddingSetter interface {
	SetEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error
}

// EmbeddingWorkerDeps holds the dependencies for the embedding worker.
type EmbeddingWorkerDeps struct {
	EmbeddingClient embeddings.Client
	StartupSetter   EmbeddingSetter
	InvestorSetter  EmbeddingSetter
}

// EmbeddingWorker processes embedding generation jobs.
type EmbeddingWorker struct {
	river.WorkerDefaults[EmbeddingJobArgs]
	deps EmbeddingWorkerDeps
}

// NewEmbeddingWorker creates a new embedding worker with the given dependencies.
func NewEmbeddingWorker(deps EmbeddingWorkerDeps) *EmbeddingWorker {
	return &EmbeddingWorker{deps: deps}
}

// Work processes an embedding job: generate the vector, L2-normalize it so
// cosine distance behaves, and store it on the entity.
func (w *EmbeddingWorker) Work(ctx context.Context, job *river.Job[EmbeddingJobArgs]) error {
	args := job.Args

	slog.Debug("processing embedding job",
		"job_id", job.ID,
		"entity_type", args.EntityType,
		"entity_id", args.EntityID,
		"text_length", len(args.Text),
	)

	setter := w.setter(args.EntityType)
	if setter == nil {
		slog.Error("unknown entity type",
			"job_id", job.ID,
			"entity_type", args.EntityType,
		)
		// Return nil to mark job as complete - unknown type won't be fixed by retry
		return nil
	}

	embedding, err := w.deps.EmbeddingClient.GetEmbedding(ctx, args.Text)
	if err != nil {
		slog.Error("failed to generate embedding",
			"job_id", job.ID,
			"entity_type", args.EntityType,
			"entity_id", args.EntityID,
			"error", err,
		)
		return err // River will retry based on configuration
	}

	vecutil.NormalizeL2(embedding)

	if err := setter.SetEmbedding(ctx, args.EntityID, embedding); err != nil {
		// The entity may have been deleted between enqueue and work.
		if errors.Is(err, matcherrors.ErrNotFound) {
			slog.Info("entity deleted before embedding job completed",
				"job_id", job.ID,
				"entity_type", args.EntityType,
				"entity_id", args.EntityID,
			)
			// Return nil to mark job as complete - entity no longer exists
			return nil
		}

		slog.Error("failed to store embedding",
			"job_id", job.ID,
			"entity_type", args.EntityType,
			"entity_id", args.EntityID,
			"error", err,
		)
		return err // Retry on other errors
	}

	slog.Info("embedding generated successfully",
		"job_id", job.ID,
		"entity_type", args.EntityType,
		"entity_id", args.EntityID,
	)

	return nil
}

// setter returns the store for the given entity type.
func (w *EmbeddingWorker) setter(entityType string) EmbeddingSetter {
	switch entityType {
	case EntityTypeStartup:
		return w.deps.StartupSetter
	case EntityTypeInvestor:
		return w.deps.InvestorSetter
	default:
		return nil
	}
}
