package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ugobe007/hotmatch/internal/matcherrors"
	"github.com/ugobe007/hotmatch/internal/models"
)

// MatchesRepository handles data access for the matches table.
type MatchesRepository struct {
	db *pgxpool.Pool
}

// NewMatchesRepository creates a new matches repository.
func NewMatchesRepository(db *pgxpool.Pool) *MatchesRepository {
	return &MatchesRepository{db: db}
}

const upsertMatchSQL = `
	INSERT INTO matches (id, startup_id, investor_id, score, confidence, status, fit_analysis, policy_version, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
	ON CONFLICT (startup_id, investor_id)
	DO UPDATE SET
		score = EXCLUDED.score,
		confidence = EXCLUDED.confidence,
		status = EXCLUDED.status,
		fit_analysis = EXCLUDED.fit_analysis,
		policy_version = EXCLUDED.policy_version,
		updated_at = EXCLUDED.updated_at`

// BulkUpsert writes a batch of matches in one round trip. On conflict the
// score, confidence, status, fit_analysis, and policy_version are replaced;
// created_at is preserved from the original row.
func (r *MatchesRepository) BulkUpsert(ctx context.Context, matches []*models.Match) error {
	if len(matches) == 0 {
		return nil
	}

	now := time.Now()
	batch := &pgx.Batch{}

	for _, m := range matches {
		fit, err := json.Marshal(m.FitAnalysis)
		if err != nil {
			return fmt.Errorf("failed to marshal fit analysis: %w", err)
		}

		id := m.ID
		if id == uuid.Nil {
			id = uuid.New()
		}

		batch.Queue(upsertMatchSQL,
			id, m.StartupID, m.InvestorID, m.Score, m.Confidence, m.Status, fit, m.PolicyVersion, now,
		)
	}

	results := r.db.SendBatch(ctx, batch)
	defer func() {
		_ = results.Close()
	}()

	for range matches {
		if _, err := results.Exec(); err != nil {
			return matcherrors.NewStorageError("matches upsert", fmt.Sprintf("batch upsert failed: %v", err))
		}
	}

	return nil
}

// PruneForStartup deletes the startup's matches whose investor is not in
// keep. Called after an upsert so only the top-ranked rows survive a rerun.
func (r *MatchesRepository) PruneForStartup(ctx context.Context, startupID uuid.UUID, keep []uuid.UUID) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM matches WHERE startup_id = $1 AND NOT (investor_id = ANY($2))`,
		startupID, keep,
	)
	if err != nil {
		return matcherrors.NewStorageError("matches prune", fmt.Sprintf("prune failed: %v", err))
	}

	return nil
}

// ListByStartup returns the startup's matches ordered by score descending,
// investor id as tiebreak.
func (r *MatchesRepository) ListByStartup(ctx context.Context, startupID uuid.UUID) ([]*models.Match, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, startup_id, investor_id, score, confidence, status, fit_analysis, policy_version, created_at, updated_at
		FROM matches
		WHERE startup_id = $1
		ORDER BY score DESC, investor_id`,
		startupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer rows.Close()

	var matches []*models.Match

	for rows.Next() {
		var m models.Match
		var fit []byte

		err := rows.Scan(
			&m.ID, &m.StartupID, &m.InvestorID, &m.Score, &m.Confidence, &m.Status,
			&fit, &m.PolicyVersion, &m.CreatedAt, &m.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}

		if len(fit) > 0 {
			if err := json.Unmarshal(fit, &m.FitAnalysis); err != nil {
				return nil, fmt.Errorf("failed to unmarshal fit analysis: %w", err)
			}
		}

		matches = append(matches, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating matches: %w", err)
	}

	return matches, nil
}

// ScoreBandCounts returns the number of matches in each [lo, hi] score band.
// Bands are inclusive on both ends and must not overlap.
func (r *MatchesRepository) ScoreBandCounts(ctx context.Context, bands [][2]int) ([]int64, error) {
	counts := make([]int64, len(bands))

	for i, band := range bands {
		err := r.db.QueryRow(ctx,
			`SELECT count(*) FROM matches WHERE score >= $1 AND score <= $2`,
			band[0], band[1],
		).Scan(&counts[i])
		if err != nil {
			return nil, fmt.Errorf("failed to count score band [%d,%d]: %w", band[0], band[1], err)
		}
	}

	return counts, nil
}

// CountTotal returns the total number of match rows.
func (r *MatchesRepository) CountTotal(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM matches`).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count matches: %w", err)
	}

	return total, nil
}

// LegacyMatch is a candidate row for the inflated-score remap.
type LegacyMatch struct {
	ID    uuid.UUID
	Score int
}

// ListLegacyHighScores returns matches written by a policy other than
// currentPolicy with score >= threshold, ordered by id for deterministic
// dry-run output. Rows from before policy versioning carry a NULL
// policy_version and must match too, hence IS DISTINCT FROM.
func (r *MatchesRepository) ListLegacyHighScores(ctx context.Context, currentPolicy string, threshold int) ([]LegacyMatch, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, score FROM matches
		WHERE policy_version IS DISTINCT FROM $1 AND score >= $2
		ORDER BY id`,
		currentPolicy, threshold,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list legacy matches: %w", err)
	}
	defer rows.Close()

	var legacy []LegacyMatch

	for rows.Next() {
		var lm LegacyMatch
		if err := rows.Scan(&lm.ID, &lm.Score); err != nil {
			return nil, fmt.Errorf("failed to scan legacy match: %w", err)
		}

		legacy = append(legacy, lm)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating legacy matches: %w", err)
	}

	return legacy, nil
}

// UpdateScore rewrites one match's score, confidence, and policy version.
func (r *MatchesRepository) UpdateScore(ctx context.Context, id uuid.UUID, score int, confidence, policyVersion string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE matches
		SET score = $2, confidence = $3, policy_version = $4, updated_at = $5
		WHERE id = $1`,
		id, score, confidence, policyVersion, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to update match score: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return matcherrors.NewNotFoundError("match", "match not found")
	}

	return nil
}
