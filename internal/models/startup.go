package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ugobe007/hotmatch/internal/taxonomy"
)

// Startup represents a startup row as loaded from the database.
// Sectors and Stage hold the raw labels; normalization happens in Features.
type Startup struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name" validate:"required,min=2,max=255"`
	Description string    `json:"description"`
	Sectors     []string  `json:"sectors"`
	Stage       string    `json:"stage"`
	RaiseAmount int64     `json:"raise_amount"` // dollars, 0 = unknown
	Embedding   []float32 `json:"embedding,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StartupFeatures is the normalized feature view of a startup.
type StartupFeatures struct {
	StartupID   uuid.UUID
	Sectors     []taxonomy.Sector
	Stage       int // taxonomy.StageUnknown when missing
	RaiseAmount int64
}

// Features normalizes the startup's raw labels into scorer inputs.
func (s *Startup) Features() StartupFeatures {
	return StartupFeatures{
		StartupID:   s.ID,
		Sectors:     taxonomy.NormalizeSectors(s.Sectors),
		Stage:       taxonomy.NormalizeStage(s.Stage),
		RaiseAmount: s.RaiseAmount,
	}
}

// HasEmbedding reports whether the startup has a stored vector.
func (s *Startup) HasEmbedding() bool {
	return len(s.Embedding) > 0
}

// EmbeddingText builds the text fed to the embedding model.
func (s *Startup) EmbeddingText() string {
	if s.Description == "" {
		return s.Name
	}

	return s.Name + ". " + s.Description
}
