// Package audit verifies the realized match score distribution against the
// target histogram and remaps legacy inflated scores.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"

	"github.com/ugobe007/hotmatch/internal/matcherrors"
	"github.com/ugobe007/hotmatch/internal/repository"
	"github.com/ugobe007/hotmatch/internal/scoring"
)

// Band is one score band with its target share of all matches.
type Band struct {
	Lo, Hi      int
	TargetShare float64
}

// TargetBands is the intended shape of the score distribution. Most matches
// should land mid-range; scores above 80 are reserved for rare outliers.
var TargetBands = []Band{
	{Lo: 0, Hi: 20, TargetShare: 0.05},
	{Lo: 21, Hi: 35, TargetShare: 0.15},
	{Lo: 36, Hi: 50, TargetShare: 0.35},
	{Lo: 51, Hi: 65, TargetShare: 0.30},
	{Lo: 66, Hi: 80, TargetShare: 0.15},
	{Lo: 81, Hi: 99, TargetShare: 0.02},
}

// legacyThreshold marks the score at and above which a row written by an
// older policy is considered inflated.
const legacyThreshold = 60

// MatchStore is the matches-table surface the auditor needs.
type MatchStore interface {
	ScoreBandCounts(ctx context.Context, bands [][2]int) ([]int64, error)
	CountTotal(ctx context.Context) (int64, error)
	ListLegacyHighScores(ctx context.Context, currentPolicy string, threshold int) ([]repository.LegacyMatch, error)
	UpdateScore(ctx context.Context, id uuid.UUID, score int, confidence, policyVersion string) error
}

// CalibrationStore guards and records applied remaps.
type CalibrationStore interface {
	CalibrationApplied(ctx context.Context, policyVersion string) (bool, error)
	RecordCalibration(ctx context.Context, policyVersion string, rowsChanged int) error
}

// Auditor runs distribution audits and legacy remaps.
type Auditor struct {
	matches       MatchStore
	calibrations  CalibrationStore
	policyVersion string
	logger        *slog.Logger
}

// NewAuditor creates an Auditor for the given policy version.
func NewAuditor(matches MatchStore, calibrations CalibrationStore, policyVersion string, logger *slog.Logger) *Auditor {
	if logger == nil {
		logger = slog.Default()
	}

	return &Auditor{
		matches:       matches,
		calibrations:  calibrations,
		policyVersion: policyVersion,
		logger:        logger,
	}
}

// BandReport is the audit result for one band.
type BandReport struct {
	Band  Band
	Count int64
	Share float64
	Drift float64 // realized share minus target share
}

// Report is the full audit result.
type Report struct {
	Total int64
	Bands []BandReport
}

// Audit counts matches per band and compares the realized shares to the
// target distribution.
func (a *Auditor) Audit(ctx context.Context) (*Report, error) {
	total, err := a.matches.CountTotal(ctx)
	if err != nil {
		return nil, fmt.Errorf("count matches: %w", err)
	}

	ranges := make([][2]int, len(TargetBands))
	for i, b := range TargetBands {
		ranges[i] = [2]int{b.Lo, b.Hi}
	}

	counts, err := a.matches.ScoreBandCounts(ctx, ranges)
	if err != nil {
		return nil, fmt.Errorf("count score bands: %w", err)
	}

	report := &Report{Total: total, Bands: make([]BandReport, len(TargetBands))}

	for i, b := range TargetBands {
		var share float64
		if total > 0 {
			share = float64(counts[i]) / float64(total)
		}

		report.Bands[i] = BandReport{
			Band:  b,
			Count: counts[i],
			Share: share,
			Drift: share - b.TargetShare,
		}

		a.logger.Info("score band",
			"lo", b.Lo, "hi", b.Hi,
			"count", counts[i],
			"share", fmt.Sprintf("%.1f%%", share*100),
			"target", fmt.Sprintf("%.1f%%", b.TargetShare*100),
			"drift", fmt.Sprintf("%+.1f%%", (share-b.TargetShare)*100),
		)
	}

	return report, nil
}

// RemapLegacyScore maps an inflated legacy score into [50, 95]:
// 50 + (old-60) * 0.85, rounded and clamped. Monotone, so legacy ordering
// is preserved.
func RemapLegacyScore(old int) int {
	remapped := 50 + float64(old-legacyThreshold)*0.85

	out := int(math.Round(remapped))
	if out < 50 {
		out = 50
	}
	if out > 95 {
		out = 95
	}

	return out
}

// RemapChange is one planned or applied score rewrite.
type RemapChange struct {
	MatchID  uuid.UUID
	OldScore int
	NewScore int
}

// RemapReport summarizes a remap pass.
type RemapReport struct {
	Applied bool
	Changes []RemapChange
}

// Remap finds legacy high scores and rewrites them through RemapLegacyScore.
// With apply false it only reports the would-be changes. An applied remap is
// recorded in calibration_runs; a second apply for the same policy version
// returns a conflict error.
func (a *Auditor) Remap(ctx context.Context, apply bool) (*RemapReport, error) {
	if apply {
		done, err := a.calibrations.CalibrationApplied(ctx, a.policyVersion)
		if err != nil {
			return nil, fmt.Errorf("check calibration guard: %w", err)
		}
		if done {
			return nil, matcherrors.NewConflictError(
				fmt.Sprintf("calibration for policy %s was already applied", a.policyVersion))
		}
	}

	legacy, err := a.matches.ListLegacyHighScores(ctx, a.policyVersion, legacyThreshold)
	if err != nil {
		return nil, fmt.Errorf("list legacy matches: %w", err)
	}

	report := &RemapReport{Applied: apply, Changes: make([]RemapChange, 0, len(legacy))}

	for _, lm := range legacy {
		newScore := RemapLegacyScore(lm.Score)
		report.Changes = append(report.Changes, RemapChange{
			MatchID:  lm.ID,
			OldScore: lm.Score,
			NewScore: newScore,
		})

		if !apply {
			continue
		}

		confidence := scoring.Confidence(newScore)
		if err := a.matches.UpdateScore(ctx, lm.ID, newScore, confidence, a.policyVersion); err != nil {
			return nil, fmt.Errorf("remap match %s: %w", lm.ID, err)
		}
	}

	if apply {
		if err := a.calibrations.RecordCalibration(ctx, a.policyVersion, len(report.Changes)); err != nil {
			return nil, fmt.Errorf("record calibration run: %w", err)
		}
	}

	a.logger.Info("legacy score remap",
		"applied", apply,
		"rows", len(report.Changes),
		"policy_version", a.policyVersion,
	)

	return report, nil
}
