package candidates

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ugobe007/hotmatch/internal/models"
	"github.com/ugobe007/hotmatch/internal/repository"
	"github.com/ugobe007/hotmatch/internal/taxonomy"
	"github.com/ugobe007/hotmatch/pkg/similarity"
)

type mockInvestorSource struct {
	getByIDFunc            func(ctx context.Context, id uuid.UUID) (*models.Investor, error)
	nearestByEmbeddingFunc func(ctx context.Context, queryEmbedding []float32, limit int, minSimilarity float64) ([]repository.InvestorWithSimilarity, error)
	listBySectorFunc       func(ctx context.Context, sectors []string, limit int) ([]*models.Investor, error)
}

func (m *mockInvestorSource) GetByID(ctx context.Context, id uuid.UUID) (*models.Investor, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}

	return &models.Investor{ID: id, Name: "Mock Investor"}, nil
}

func (m *mockInvestorSource) NearestByEmbedding(ctx context.Context, queryEmbedding []float32, limit int, minSimilarity float64) ([]repository.InvestorWithSimilarity, error) {
	if m.nearestByEmbeddingFunc != nil {
		return m.nearestByEmbeddingFunc(ctx, queryEmbedding, limit, minSimilarity)
	}

	return nil, nil
}

func (m *mockInvestorSource) ListBySectorOverlap(ctx context.Context, sectors []string, limit int) ([]*models.Investor, error) {
	if m.listBySectorFunc != nil {
		return m.listBySectorFunc(ctx, sectors, limit)
	}

	return nil, nil
}

type mockSimilarityService struct {
	nearestFunc func(req similarity.NearestRequest) ([]similarity.NearestResult, error)
}

func (m *mockSimilarityService) NearestInvestors(ctx context.Context, req similarity.NearestRequest) ([]similarity.NearestResult, error) {
	if m.nearestFunc != nil {
		return m.nearestFunc(req)
	}

	return nil, nil
}

func embeddedStartup() *models.Startup {
	return &models.Startup{
		ID:        uuid.New(),
		Name:      "Acme Robotics",
		Sectors:   []string{"robotics"},
		Embedding: []float32{0.1, 0.2, 0.3},
	}
}

func TestGenerator_VectorPath(t *testing.T) {
	ctx := context.Background()

	t.Run("uses nearest-neighbor query when embedding present", func(t *testing.T) {
		invA := &models.Investor{ID: uuid.New(), Name: "Fund A"}
		invB := &models.Investor{ID: uuid.New(), Name: "Fund B"}

		var gotLimit int
		var gotMin float64
		source := &mockInvestorSource{
			nearestByEmbeddingFunc: func(ctx context.Context, q []float32, limit int, minSim float64) ([]repository.InvestorWithSimilarity, error) {
				gotLimit = limit
				gotMin = minSim

				return []repository.InvestorWithSimilarity{
					{Investor: invA, Similarity: 0.91},
					{Investor: invB, Similarity: 0.64},
				}, nil
			},
		}

		gen, err := NewGenerator(GeneratorParams{Investors: source, Limit: 10, MinSimilarity: 0.3})
		require.NoError(t, err)

		candidates, err := gen.CandidatesFor(ctx, embeddedStartup())
		require.NoError(t, err)
		require.Len(t, candidates, 2)

		assert.Equal(t, 10, gotLimit)
		assert.Equal(t, 0.3, gotMin)
		assert.Equal(t, invA.ID, candidates[0].Investor.ID)
		assert.Equal(t, 0.91, candidates[0].Similarity)
		assert.Equal(t, invB.ID, candidates[1].Investor.ID)
	})

	t.Run("propagates query errors", func(t *testing.T) {
		source := &mockInvestorSource{
			nearestByEmbeddingFunc: func(ctx context.Context, q []float32, limit int, minSim float64) ([]repository.InvestorWithSimilarity, error) {
				return nil, errors.New("connection refused")
			},
		}

		gen, err := NewGenerator(GeneratorParams{Investors: source})
		require.NoError(t, err)

		_, err = gen.CandidatesFor(ctx, embeddedStartup())
		assert.Error(t, err)
	})
}

func TestGenerator_ServicePath(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves service results through investor source", func(t *testing.T) {
		invID := uuid.New()
		source := &mockInvestorSource{
			getByIDFunc: func(ctx context.Context, id uuid.UUID) (*models.Investor, error) {
				return &models.Investor{ID: id, Name: "Resolved Fund"}, nil
			},
		}
		svc := &mockSimilarityService{
			nearestFunc: func(req similarity.NearestRequest) ([]similarity.NearestResult, error) {
				return []similarity.NearestResult{{InvestorID: invID, Similarity: 0.82}}, nil
			},
		}

		gen, err := NewGenerator(GeneratorParams{Investors: source, Similarity: svc})
		require.NoError(t, err)

		candidates, err := gen.CandidatesFor(ctx, embeddedStartup())
		require.NoError(t, err)
		require.Len(t, candidates, 1)
		assert.Equal(t, invID, candidates[0].Investor.ID)
		assert.Equal(t, 0.82, candidates[0].Similarity)
	})

	t.Run("drops service results below the similarity floor", func(t *testing.T) {
		svc := &mockSimilarityService{
			nearestFunc: func(req similarity.NearestRequest) ([]similarity.NearestResult, error) {
				return []similarity.NearestResult{
					{InvestorID: uuid.New(), Similarity: 0.9},
					{InvestorID: uuid.New(), Similarity: 0.1},
				}, nil
			},
		}

		gen, err := NewGenerator(GeneratorParams{
			Investors:     &mockInvestorSource{},
			Similarity:    svc,
			MinSimilarity: 0.3,
		})
		require.NoError(t, err)

		candidates, err := gen.CandidatesFor(ctx, embeddedStartup())
		require.NoError(t, err)
		assert.Len(t, candidates, 1)
	})

	t.Run("falls back to local vector search on service error", func(t *testing.T) {
		localHits := []repository.InvestorWithSimilarity{
			{Investor: &models.Investor{ID: uuid.New(), Name: "Local Fund"}, Similarity: 0.7},
		}
		source := &mockInvestorSource{
			nearestByEmbeddingFunc: func(ctx context.Context, q []float32, limit int, minSim float64) ([]repository.InvestorWithSimilarity, error) {
				return localHits, nil
			},
		}
		svc := &mockSimilarityService{
			nearestFunc: func(req similarity.NearestRequest) ([]similarity.NearestResult, error) {
				return nil, errors.New("503 service unavailable")
			},
		}

		gen, err := NewGenerator(GeneratorParams{Investors: source, Similarity: svc})
		require.NoError(t, err)

		candidates, err := gen.CandidatesFor(ctx, embeddedStartup())
		require.NoError(t, err)
		require.Len(t, candidates, 1)
		assert.Equal(t, "Local Fund", candidates[0].Investor.Name)
	})

	t.Run("caches resolved investors across calls", func(t *testing.T) {
		invID := uuid.New()
		loads := 0
		source := &mockInvestorSource{
			getByIDFunc: func(ctx context.Context, id uuid.UUID) (*models.Investor, error) {
				loads++

				return &models.Investor{ID: id}, nil
			},
		}
		svc := &mockSimilarityService{
			nearestFunc: func(req similarity.NearestRequest) ([]similarity.NearestResult, error) {
				return []similarity.NearestResult{{InvestorID: invID, Similarity: 0.8}}, nil
			},
		}

		gen, err := NewGenerator(GeneratorParams{Investors: source, Similarity: svc})
		require.NoError(t, err)

		for i := 0; i < 3; i++ {
			_, err := gen.CandidatesFor(ctx, embeddedStartup())
			require.NoError(t, err)
		}

		assert.Equal(t, 1, loads)
	})
}

func TestGenerator_CategoricalFallback(t *testing.T) {
	ctx := context.Background()

	t.Run("sector scan when startup has no embedding", func(t *testing.T) {
		matching := &models.Investor{ID: uuid.New(), Name: "Robot Fund", Sectors: []string{"Robotics"}}
		nonMatching := &models.Investor{ID: uuid.New(), Name: "Crypto Fund", Sectors: []string{"crypto"}}

		var gotLabels []string
		source := &mockInvestorSource{
			listBySectorFunc: func(ctx context.Context, sectors []string, limit int) ([]*models.Investor, error) {
				gotLabels = sectors

				return []*models.Investor{matching, nonMatching}, nil
			},
		}

		gen, err := NewGenerator(GeneratorParams{Investors: source})
		require.NoError(t, err)

		startup := &models.Startup{ID: uuid.New(), Name: "Acme", Sectors: []string{"Robotics & Automation"}}
		candidates, err := gen.CandidatesFor(ctx, startup)
		require.NoError(t, err)

		// The nonsense overlap from the raw-label query is filtered out on
		// normalized sectors.
		require.Len(t, candidates, 1)
		assert.Equal(t, matching.ID, candidates[0].Investor.ID)
		assert.Zero(t, candidates[0].Similarity)

		// Query labels carry both the raw spelling and the canonical name.
		assert.Contains(t, gotLabels, "Robotics & Automation")
		assert.Contains(t, gotLabels, string(taxonomy.SectorRobotics))
	})

	t.Run("no declared sectors yields no candidates", func(t *testing.T) {
		called := false
		source := &mockInvestorSource{
			listBySectorFunc: func(ctx context.Context, sectors []string, limit int) ([]*models.Investor, error) {
				called = true

				return nil, nil
			},
		}

		gen, err := NewGenerator(GeneratorParams{Investors: source})
		require.NoError(t, err)

		startup := &models.Startup{ID: uuid.New(), Name: "Acme"}
		candidates, err := gen.CandidatesFor(ctx, startup)
		require.NoError(t, err)
		assert.Empty(t, candidates)
		assert.False(t, called)
	})
}
