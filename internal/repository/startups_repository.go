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

var errEmbeddingScanInvalidType = errors.New("embedding scan: unexpected source type")

// nullableEmbedding scans a vector column that may be NULL without panicking (pgvector.Vector.Scan panics on empty/NULL).
type nullableEmbedding []float32

func (n *nullableEmbedding) Scan(src any) error {
	if src == nil {
		*n = nil

		return nil
	}

	buf, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("%w: got %T", errEmbeddingScanInvalidType, src)
	}

	if len(buf) == 0 {
		*n = nil

		return nil
	}

	var vec pgvector.Vector

	if err := vec.DecodeBinary(buf); err != nil {
		return fmt.Errorf("embedding decode: %w", err)
	}

	*n = vec.Slice()

	return nil
}

// StartupsRepository handles data access for the startups table.
type StartupsRepository struct {
	db *pgxpool.Pool
}

// NewStartupsRepository creates a new startups repository.
func NewStartupsRepository(db *pgxpool.Pool) *StartupsRepository {
	return &StartupsRepository{db: db}
}

const startupColumns = `id, name, COALESCE(description, ''), COALESCE(sectors, '{}'),
	COALESCE(stage, ''), COALESCE(raise_amount, 0), embedding, created_at, updated_at`

func scanStartup(row pgx.Row) (*models.Startup, error) {
	var s models.Startup
	var emb nullableEmbedding

	err := row.Scan(
		&s.ID, &s.Name, &s.Description, &s.Sectors,
		&s.Stage, &s.RaiseAmount, &emb, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.Embedding = emb

	return &s, nil
}

// GetByID returns one startup.
func (r *StartupsRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Startup, error) {
	query := `SELECT ` + startupColumns + ` FROM startups WHERE id = $1`

	s, err := scanStartup(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, matcherrors.NewNotFoundError("startup", "startup not found")
		}

		return nil, fmt.Errorf("failed to get startup: %w", err)
	}

	return s, nil
}

// ListAfter returns up to limit startups with id > afterID, ordered by id.
// The pipeline pages through the table with keyset pagination so a run
// never holds the full table in memory.
func (r *StartupsRepository) ListAfter(ctx context.Context, afterID uuid.UUID, limit int) ([]*models.Startup, error) {
	query := `SELECT ` + startupColumns + ` FROM startups WHERE id > $1 ORDER BY id LIMIT $2`

	rows, err := r.db.Query(ctx, query, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list startups: %w", err)
	}
	defer rows.Close()

	var startups []*models.Startup

	for rows.Next() {
		s, err := scanStartup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan startup: %w", err)
		}

		startups = append(startups, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating startups: %w", err)
	}

	return startups, nil
}

// SetEmbedding stores the embedding vector for a startup.
func (r *StartupsRepository) SetEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error {
	vec := pgvector.NewVector(embedding)

	tag, err := r.db.Exec(ctx,
		`UPDATE startups SET embedding = $2, updated_at = $3 WHERE id = $1`,
		id, vec, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to set startup embedding: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return matcherrors.NewNotFoundError("startup", "startup not found")
	}

	return nil
}

// ListIDsMissingEmbedding returns IDs of startups without a stored vector.
func (r *StartupsRepository) ListIDsMissingEmbedding(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id FROM startups WHERE embedding IS NULL ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list startups missing embedding: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan startup id: %w", err)
		}

		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating startup ids: %w", err)
	}

	return ids, nil
}
