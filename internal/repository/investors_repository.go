package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/ugobe007/hotmatch/internal/matcherrors"
	"github.com/ugobe007/hotmatch/internal/models"
)

// InvestorsRepository handles data access for the investors table.
type InvestorsRepository struct {
	db *pgxpool.Pool
}

// NewInvestorsRepository creates a new investors repository.
func NewInvestorsRepository(db *pgxpool.Pool) *InvestorsRepository {
	return &InvestorsRepository{db: db}
}

const investorColumns = `id, name, COALESCE(thesis, ''), COALESCE(sectors, '{}'),
	COALESCE(stages, '{}'), COALESCE(check_size_min, 0), COALESCE(check_size_max, 0),
	notable_investments, embedding, created_at, updated_at`

func scanInvestor(row pgx.Row) (*models.Investor, error) {
	var inv models.Investor
	var emb nullableEmbedding

	err := row.Scan(
		&inv.ID, &inv.Name, &inv.Thesis, &inv.Sectors,
		&inv.Stages, &inv.CheckSizeMin, &inv.CheckSizeMax,
		&inv.NotableInvestments, &emb, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	inv.Embedding = emb

	return &inv, nil
}

// GetByID returns one investor.
func (r *InvestorsRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Investor, error) {
	query := `SELECT ` + investorColumns + ` FROM investors WHERE id = $1`

	inv, err := scanInvestor(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, matcherrors.NewNotFoundError("investor", "investor not found")
		}

		return nil, fmt.Errorf("failed to get investor: %w", err)
	}

	return inv, nil
}

// InvestorWithSimilarity pairs an investor with its vector similarity to a
// query embedding.
type InvestorWithSimilarity struct {
	Investor   *models.Investor
	Similarity float64
}

// NearestByEmbedding returns the investors most similar to queryEmbedding.
// Uses cosine distance (<=>); similarity = 1 - distance. Only rows with
// similarity >= minSimilarity are returned, ordered by distance with id as a
// stable tiebreak.
func (r *InvestorsRepository) NearestByEmbedding(
	ctx context.Context, queryEmbedding []float32, limit int, minSimilarity float64,
) ([]InvestorWithSimilarity, error) {
	queryVec := pgvector.NewVector(queryEmbedding)

	query := `SELECT ` + investorColumns + `, (1 - (embedding <=> $1)) AS similarity
		FROM investors
		WHERE embedding IS NOT NULL
		  AND (1 - (embedding <=> $1)) >= $2
		ORDER BY embedding <=> $1, id
		LIMIT $3`

	rows, err := r.db.Query(ctx, query, queryVec, minSimilarity, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query nearest investors: %w", err)
	}
	defer rows.Close()

	var results []InvestorWithSimilarity

	for rows.Next() {
		var inv models.Investor
		var emb nullableEmbedding
		var similarity float64

		err := rows.Scan(
			&inv.ID, &inv.Name, &inv.Thesis, &inv.Sectors,
			&inv.Stages, &inv.CheckSizeMin, &inv.CheckSizeMax,
			&inv.NotableInvestments, &emb, &inv.CreatedAt, &inv.UpdatedAt,
			&similarity,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan nearest investor: %w", err)
		}

		inv.Embedding = emb
		results = append(results, InvestorWithSimilarity{Investor: &inv, Similarity: similarity})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating nearest investors: %w", err)
	}

	return results, nil
}

// ListBySectorOverlap returns investors whose sectors array overlaps the
// given raw sector labels. Fallback path for startups without an embedding.
func (r *InvestorsRepository) ListBySectorOverlap(ctx context.Context, sectors []string, limit int) ([]*models.Investor, error) {
	query := `SELECT ` + investorColumns + ` FROM investors
		WHERE sectors && $1
		ORDER BY id
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, sectors, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list investors by sector: %w", err)
	}
	defer rows.Close()

	var investors []*models.Investor

	for rows.Next() {
		inv, err := scanInvestor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan investor: %w", err)
		}

		investors = append(investors, inv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating investors: %w", err)
	}

	return investors, nil
}

// SetEmbedding stores the embedding vector for an investor.
func (r *InvestorsRepository) SetEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error {
	vec := pgvector.NewVector(embedding)

	tag, err := r.db.Exec(ctx,
		`UPDATE investors SET embedding = $2, updated_at = $3 WHERE id = $1`,
		id, vec, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to set investor embedding: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return matcherrors.NewNotFoundError("investor", "investor not found")
	}

	return nil
}

// ListIDsMissingEmbedding returns IDs of investors without a stored vector.
func (r *InvestorsRepository) ListIDsMissingEmbedding(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id FROM investors WHERE embedding IS NULL ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list investors missing embedding: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan investor id: %w", err)
		}

		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating investor ids: %w", err)
	}

	return ids, nil
}
