// Package jobs provides River job workers for async processing tasks.
package jobs

import "github.com/google/uuid"

// EmbeddingJobArgs contains the arguments for an embedding generation job.
type EmbeddingJobArgs struct {
	// EntityID is the UUID of the record to generate an embedding for
	EntityID uuid.UUID `json:"entity_id"`

	// EntityType identifies which table the record belongs to
	// Valid values: "startup", "investor"
	EntityType string `json:"entity_type"`

	// Text is the content to embed (name plus description or thesis)
	Text string `json:"text"`
}

// Kind returns the job type identifier for River
func (EmbeddingJobArgs) Kind() string { return "embedding" }

// Entity type constants
const (
	EntityTypeStartup  = "startup"
	EntityTypeInvestor = "investor"
)

// EmbeddingsQueueName is the River queue embedding jobs run on.
const EmbeddingsQueueName = "embeddings"
