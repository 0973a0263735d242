package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ugobe007/hotmatch/internal/taxonomy"
)

// Match status values. A match below the publish floor is persisted as
// pending and never surfaced to users; at or above it, suggested.
const (
	MatchStatusPending   = "pending"
	MatchStatusSuggested = "suggested"
)

// Confidence levels derived from the final score.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Match represents one startup–investor compatibility row.
type Match struct {
	ID            uuid.UUID   `json:"id"`
	StartupID     uuid.UUID   `json:"startup_id"`
	InvestorID    uuid.UUID   `json:"investor_id"`
	Score         int         `json:"score"`
	Confidence    string      `json:"confidence"`
	Status        string      `json:"status"`
	FitAnalysis   FitAnalysis `json:"fit_analysis"`
	PolicyVersion string      `json:"policy_version"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// FitAnalysis is the per-match score breakdown, persisted as JSONB so the
// composition of any score can be reconstructed later.
type FitAnalysis struct {
	Baseline       int               `json:"baseline"`
	Sector         int               `json:"sector"`
	Stage          int               `json:"stage"`
	CheckSize      int               `json:"check_size"`
	Raw            int               `json:"raw"`
	Final          int               `json:"final"`
	Similarity     float64           `json:"similarity,omitempty"`
	MatchedSectors []taxonomy.Sector `json:"matched_sectors,omitempty"`
}

// MatchRun records one pipeline execution and its summary stats.
type MatchRun struct {
	ID            uuid.UUID  `json:"id"`
	PolicyVersion string     `json:"policy_version"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
	Stats         RunStats   `json:"stats"`
}

// RunStats accumulates pipeline counters, persisted as JSONB on the run row.
type RunStats struct {
	StartupsProcessed int `json:"startups_processed"`
	CorruptSkipped    int `json:"corrupt_skipped"`
	PairsScored       int `json:"pairs_scored"`
	Persisted         int `json:"persisted"`
	BelowFloorSkipped int `json:"below_floor_skipped"`
	Errors            int `json:"errors"`
}

// CalibrationRun records one applied score remap, keyed by policy version
// so the same remap is never applied twice.
type CalibrationRun struct {
	ID            uuid.UUID `json:"id"`
	PolicyVersion string    `json:"policy_version"`
	RowsChanged   int       `json:"rows_changed"`
	AppliedAt     time.Time `json:"applied_at"`
}
