// Package candidates selects the investors worth scoring for a startup.
//
// The primary path is vector similarity over stored embeddings; startups
// without a vector fall back to a categorical sector scan so they are never
// silently excluded from matching.
package candidates

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ugobe007/hotmatch/internal/models"
	"github.com/ugobe007/hotmatch/internal/repository"
	"github.com/ugobe007/hotmatch/internal/taxonomy"
	"github.com/ugobe007/hotmatch/pkg/cache"
	"github.com/ugobe007/hotmatch/pkg/similarity"
)

// Candidate is one investor worth scoring, with its vector similarity to the
// startup. Similarity is 0 for candidates from the categorical fallback.
type Candidate struct {
	Investor   *models.Investor
	Features   models.InvestorFeatures
	Similarity float64
}

// Searcher produces scoring candidates for a startup.
type Searcher interface {
	CandidatesFor(ctx context.Context, startup *models.Startup) ([]Candidate, error)
}

// InvestorSource is the repository surface the generator needs.
type InvestorSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Investor, error)
	NearestByEmbedding(ctx context.Context, queryEmbedding []float32, limit int, minSimilarity float64) ([]repository.InvestorWithSimilarity, error)
	ListBySectorOverlap(ctx context.Context, sectors []string, limit int) ([]*models.Investor, error)
}

// SimilarityService is the optional external nearest-neighbor service.
type SimilarityService interface {
	NearestInvestors(ctx context.Context, req similarity.NearestRequest) ([]similarity.NearestResult, error)
}

// GeneratorParams configures a Generator.
type GeneratorParams struct {
	Investors     InvestorSource
	Similarity    SimilarityService // nil disables the external service
	Limit         int
	MinSimilarity float64
	CacheSize     int
	Logger        *slog.Logger
}

// Generator implements Searcher.
type Generator struct {
	investors     InvestorSource
	simService    SimilarityService
	limit         int
	minSimilarity float64
	investorCache *cache.LoaderCache[uuid.UUID, *models.Investor]
	logger        *slog.Logger
}

// Ensure Generator implements Searcher
var _ Searcher = (*Generator)(nil)

// NewGenerator creates a candidate generator.
func NewGenerator(params GeneratorParams) (*Generator, error) {
	if params.Limit <= 0 {
		params.Limit = 25
	}
	if params.CacheSize <= 0 {
		params.CacheSize = 4096
	}
	if params.Logger == nil {
		params.Logger = slog.Default()
	}

	investorCache, err := cache.NewLoaderCache[uuid.UUID, *models.Investor](
		params.CacheSize, func(id uuid.UUID) string { return id.String() },
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create investor cache: %w", err)
	}

	return &Generator{
		investors:     params.Investors,
		simService:    params.Similarity,
		limit:         params.Limit,
		minSimilarity: params.MinSimilarity,
		investorCache: investorCache,
		logger:        params.Logger,
	}, nil
}

// CandidatesFor returns the investors to score for the startup, ordered by
// similarity descending (investor id breaks ties). Output order is
// deterministic for a given database state.
func (g *Generator) CandidatesFor(ctx context.Context, startup *models.Startup) ([]Candidate, error) {
	if !startup.HasEmbedding() {
		return g.categoricalCandidates(ctx, startup)
	}

	if g.simService != nil {
		candidates, err := g.serviceCandidates(ctx, startup)
		if err == nil {
			return candidates, nil
		}

		g.logger.Warn("similarity service failed, falling back to local vector search",
			"startup_id", startup.ID, "error", err)
	}

	return g.vectorCandidates(ctx, startup)
}

// vectorCandidates runs the in-database nearest-neighbor query.
func (g *Generator) vectorCandidates(ctx context.Context, startup *models.Startup) ([]Candidate, error) {
	nearest, err := g.investors.NearestByEmbedding(ctx, startup.Embedding, g.limit, g.minSimilarity)
	if err != nil {
		return nil, fmt.Errorf("vector candidate search for startup %s: %w", startup.ID, err)
	}

	candidates := make([]Candidate, 0, len(nearest))
	for _, hit := range nearest {
		candidates = append(candidates, Candidate{
			Investor:   hit.Investor,
			Features:   hit.Investor.Features(),
			Similarity: hit.Similarity,
		})
	}

	return candidates, nil
}

// serviceCandidates asks the external similarity service for investor IDs,
// then resolves each through the investor cache.
func (g *Generator) serviceCandidates(ctx context.Context, startup *models.Startup) ([]Candidate, error) {
	results, err := g.simService.NearestInvestors(ctx, similarity.NearestRequest{
		StartupID:     startup.ID,
		Limit:         g.limit,
		MinSimilarity: g.minSimilarity,
	})
	if err != nil {
		return nil, fmt.Errorf("similarity service query: %w", err)
	}

	candidates := make([]Candidate, 0, len(results))
	for _, res := range results {
		if res.Similarity < g.minSimilarity {
			continue
		}

		inv, _, err := g.investorCache.Get(ctx, res.InvestorID, func(ctx context.Context, id uuid.UUID) (*models.Investor, error) {
			return g.investors.GetByID(ctx, id)
		})
		if err != nil {
			return nil, fmt.Errorf("resolve investor %s: %w", res.InvestorID, err)
		}

		candidates = append(candidates, Candidate{
			Investor:   inv,
			Features:   inv.Features(),
			Similarity: res.Similarity,
		})
	}

	return candidates, nil
}

// categoricalCandidates is the embedding-less fallback: investors whose
// declared sectors overlap the startup's, filtered on normalized sectors so
// label spelling differences don't produce false overlaps.
func (g *Generator) categoricalCandidates(ctx context.Context, startup *models.Startup) ([]Candidate, error) {
	startupSectors := taxonomy.NormalizeSectors(startup.Sectors)
	if len(startupSectors) == 0 {
		return nil, nil
	}

	// Query on the union of raw labels and canonical names so the array
	// overlap catches both stored forms.
	labels := make([]string, 0, len(startup.Sectors)+len(startupSectors))
	labels = append(labels, startup.Sectors...)
	for _, s := range startupSectors {
		labels = append(labels, string(s))
	}

	investors, err := g.investors.ListBySectorOverlap(ctx, labels, g.limit)
	if err != nil {
		return nil, fmt.Errorf("categorical candidate search for startup %s: %w", startup.ID, err)
	}

	wanted := make(map[taxonomy.Sector]bool, len(startupSectors))
	for _, s := range startupSectors {
		wanted[s] = true
	}

	var candidates []Candidate
	for _, inv := range investors {
		features := inv.Features()

		overlap := false
		for _, s := range features.Sectors {
			if wanted[s] {
				overlap = true
				break
			}
		}
		if !overlap {
			continue
		}

		candidates = append(candidates, Candidate{
			Investor: inv,
			Features: features,
		})
	}

	return candidates, nil
}
