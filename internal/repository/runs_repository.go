package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ugobe007/hotmatch/internal/models"
)

// RunsRepository handles data access for the match_runs and calibration_runs tables.
type RunsRepository struct {
	db *pgxpool.Pool
}

// NewRunsRepository creates a new runs repository.
func NewRunsRepository(db *pgxpool.Pool) *RunsRepository {
	return &RunsRepository{db: db}
}

// StartMatchRun records the beginning of a pipeline run and returns its ID.
func (r *RunsRepository) StartMatchRun(ctx context.Context, policyVersion string) (uuid.UUID, error) {
	id := uuid.New()

	_, err := r.db.Exec(ctx, `
		INSERT INTO match_runs (id, policy_version, started_at, stats)
		VALUES ($1, $2, $3, '{}')`,
		id, policyVersion, time.Now(),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to start match run: %w", err)
	}

	return id, nil
}

// FinishMatchRun stamps the run finished and stores its stats.
func (r *RunsRepository) FinishMatchRun(ctx context.Context, id uuid.UUID, stats models.RunStats) error {
	payload, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal run stats: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		UPDATE match_runs SET finished_at = $2, stats = $3 WHERE id = $1`,
		id, time.Now(), payload,
	)
	if err != nil {
		return fmt.Errorf("failed to finish match run: %w", err)
	}

	return nil
}

// CalibrationApplied reports whether a calibration for policyVersion was
// already recorded. Guards against applying the same remap twice.
func (r *RunsRepository) CalibrationApplied(ctx context.Context, policyVersion string) (bool, error) {
	var exists bool

	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM calibration_runs WHERE policy_version = $1)`,
		policyVersion,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check calibration runs: %w", err)
	}

	return exists, nil
}

// RecordCalibration writes the calibration_runs row for an applied remap.
func (r *RunsRepository) RecordCalibration(ctx context.Context, policyVersion string, rowsChanged int) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO calibration_runs (id, policy_version, rows_changed, applied_at)
		VALUES ($1, $2, $3, $4)`,
		uuid.New(), policyVersion, rowsChanged, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to record calibration run: %w", err)
	}

	return nil
}
