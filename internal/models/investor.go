package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/ugobe007/hotmatch/internal/taxonomy"
)

// Investor represents an investor row as loaded from the database.
type Investor struct {
	ID                 uuid.UUID       `json:"id"`
	Name               string          `json:"name" validate:"required,min=2,max=255"`
	Thesis             string          `json:"thesis"`
	Sectors            []string        `json:"sectors"`
	Stages             []string        `json:"stages"`
	CheckSizeMin       int64           `json:"check_size_min"` // dollars, 0 = unbounded below
	CheckSizeMax       int64           `json:"check_size_max"` // dollars, 0 = unbounded above
	NotableInvestments json.RawMessage `json:"notable_investments,omitempty"`
	Embedding          []float32       `json:"embedding,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// InvestorFeatures is the normalized feature view of an investor.
type InvestorFeatures struct {
	InvestorID   uuid.UUID
	Sectors      []taxonomy.Sector
	Stages       []int
	CheckSizeMin int64
	CheckSizeMax int64
}

// Features normalizes the investor's raw labels into scorer inputs.
func (inv *Investor) Features() InvestorFeatures {
	return InvestorFeatures{
		InvestorID:   inv.ID,
		Sectors:      taxonomy.NormalizeSectors(inv.Sectors),
		Stages:       taxonomy.NormalizeStages(inv.Stages),
		CheckSizeMin: inv.CheckSizeMin,
		CheckSizeMax: inv.CheckSizeMax,
	}
}

// HasEmbedding reports whether the investor has a stored vector.
func (inv *Investor) HasEmbedding() bool {
	return len(inv.Embedding) > 0
}

// EmbeddingText builds the text fed to the embedding model.
func (inv *Investor) EmbeddingText() string {
	if inv.Thesis == "" {
		return inv.Name
	}

	return inv.Name + ". " + inv.Thesis
}
