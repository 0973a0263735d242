package jobs

import "context"

// JobInserter enqueues embedding generation jobs. The backfill command and
// future ingestion paths depend on this rather than on river so they can be
// tested without a queue.
type JobInserter interface {
	InsertEmbeddingJob(ctx context.Context, args EmbeddingJobArgs) error
}
