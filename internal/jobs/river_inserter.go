package jobs

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
)

// RiverJobInserter is the river-backed JobInserter used in production.
type RiverJobInserter struct {
	client *river.Client[pgx.Tx]
}

func NewRiverJobInserter(client *river.Client[pgx.Tx]) *RiverJobInserter {
	return &RiverJobInserter{client: client}
}

// InsertEmbeddingJob enqueues one job on the embeddings queue. Jobs are
// unique by args across every non-finished state, so re-running the backfill
// never double-embeds an entity that is already waiting or in flight.
func (r *RiverJobInserter) InsertEmbeddingJob(ctx context.Context, args EmbeddingJobArgs) error {
	_, err := r.client.Insert(ctx, args, &river.InsertOpts{
		Queue: EmbeddingsQueueName,
		UniqueOpts: river.UniqueOpts{
			ByArgs: true,
			// River requires JobStatePending whenever ByState is set.
			ByState: []rivertype.JobState{
				rivertype.JobStatePending,
				rivertype.JobStateAvailable,
				rivertype.JobStateRunning,
				rivertype.JobStateRetryable,
				rivertype.JobStateScheduled,
			},
		},
	})

	return err
}
