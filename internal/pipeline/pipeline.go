// Package pipeline orchestrates a full match generation run: page through
// startups, screen out corrupt records, generate candidates, score each
// pair, and persist the surviving matches in batches.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/ugobe007/hotmatch/internal/candidates"
	"github.com/ugobe007/hotmatch/internal/models"
	"github.com/ugobe007/hotmatch/internal/observability"
	"github.com/ugobe007/hotmatch/internal/scoring"
	"github.com/ugobe007/hotmatch/internal/validate"
)

// StartupSource pages through the startups table.
type StartupSource interface {
	ListAfter(ctx context.Context, afterID uuid.UUID, limit int) ([]*models.Startup, error)
}

// MatchPruner removes a startup's stale matches after an upsert.
type MatchPruner interface {
	PruneForStartup(ctx context.Context, startupID uuid.UUID, keep []uuid.UUID) error
}

// RunRecorder persists run bookkeeping rows.
type RunRecorder interface {
	StartMatchRun(ctx context.Context, policyVersion string) (uuid.UUID, error)
	FinishMatchRun(ctx context.Context, id uuid.UUID, stats models.RunStats) error
}

// RunnerParams configures a Runner.
type RunnerParams struct {
	Startups StartupSource
	Searcher candidates.Searcher
	Scorer   *scoring.Scorer
	Writer   MatchWriter
	Pruner   MatchPruner
	Runs     RunRecorder
	Metrics  observability.MatchMetrics // nil disables metrics
	Logger   *slog.Logger

	PageSize         int     // startups loaded per page; also the match rows per write batch
	PersistFloor     int     // scores below this are never written
	PublishFloor     int     // scores at/above this are suggested, below pending
	TopMatchesKept   int     // matches retained per startup
	BatchesPerSecond float64 // pacing between pages; <= 0 disables pacing
}

// Runner executes match generation runs.
type Runner struct {
	startups StartupSource
	searcher candidates.Searcher
	scorer   *scoring.Scorer
	writer   MatchWriter
	pruner   MatchPruner
	runs     RunRecorder
	metrics  observability.MatchMetrics
	logger   *slog.Logger

	pageSize     int
	persistFloor int
	publishFloor int
	topKept      int
	limiter      *rate.Limiter
}

// NewRunner creates a pipeline runner.
func NewRunner(params RunnerParams) *Runner {
	if params.PageSize <= 0 {
		params.PageSize = 500
	}
	if params.TopMatchesKept <= 0 {
		params.TopMatchesKept = 10
	}
	if params.Logger == nil {
		params.Logger = slog.Default()
	}

	var limiter *rate.Limiter
	if params.BatchesPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(params.BatchesPerSecond), 1)
	}

	return &Runner{
		startups:     params.Startups,
		searcher:     params.Searcher,
		scorer:       params.Scorer,
		writer:       params.Writer,
		pruner:       params.Pruner,
		runs:         params.Runs,
		metrics:      params.Metrics,
		logger:       params.Logger,
		pageSize:     params.PageSize,
		persistFloor: params.PersistFloor,
		publishFloor: params.PublishFloor,
		topKept:      params.TopMatchesKept,
		limiter:      limiter,
	}
}

// Run executes one full pass over the startups table and returns the run
// stats. Per-startup failures are logged and counted, not fatal; the run
// only aborts on context cancellation or a run-bookkeeping failure.
func (r *Runner) Run(ctx context.Context) (models.RunStats, error) {
	var stats models.RunStats

	policyVersion := r.scorer.Policy().Version

	runID, err := r.runs.StartMatchRun(ctx, policyVersion)
	if err != nil {
		return stats, fmt.Errorf("start match run: %w", err)
	}

	r.logger.Info("match run started", "run_id", runID, "policy_version", policyVersion)

	afterID := uuid.Nil
	pending := newWriteBuffer(r.pageSize)

	for {
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return stats, err
			}
		}

		page, err := r.startups.ListAfter(ctx, afterID, r.pageSize)
		if err != nil {
			return stats, fmt.Errorf("list startups after %s: %w", afterID, err)
		}
		if len(page) == 0 {
			break
		}

		for _, startup := range page {
			if err := ctx.Err(); err != nil {
				return stats, err
			}

			r.processStartup(ctx, startup, pending, &stats)
		}

		if err := r.flush(ctx, pending, &stats); err != nil {
			return stats, err
		}

		afterID = page[len(page)-1].ID
	}

	if err := r.runs.FinishMatchRun(ctx, runID, stats); err != nil {
		return stats, fmt.Errorf("finish match run: %w", err)
	}

	r.logger.Info("match run finished",
		"run_id", runID,
		"startups_processed", stats.StartupsProcessed,
		"corrupt_skipped", stats.CorruptSkipped,
		"pairs_scored", stats.PairsScored,
		"persisted", stats.Persisted,
		"below_floor_skipped", stats.BelowFloorSkipped,
		"errors", stats.Errors,
	)

	return stats, nil
}

// processStartup scores one startup against its candidates and queues the
// surviving matches for the next flush.
func (r *Runner) processStartup(ctx context.Context, startup *models.Startup, pending *writeBuffer, stats *models.RunStats) {
	stats.StartupsProcessed++
	if r.metrics != nil {
		r.metrics.RecordStartupProcessed(ctx)
	}

	if res := validate.Startup(startup); !res.OK {
		stats.CorruptSkipped++
		if r.metrics != nil {
			r.metrics.RecordCorruptSkipped(ctx, "startup")
		}

		r.logger.Debug("skipping corrupt startup",
			"startup_id", startup.ID, "reasons", res.Reasons)

		return
	}

	cands, err := r.searcher.CandidatesFor(ctx, startup)
	if err != nil {
		stats.Errors++
		r.logger.Error("candidate generation failed",
			"startup_id", startup.ID, "error", err)

		return
	}

	features := startup.Features()
	policyVersion := r.scorer.Policy().Version

	matches := make([]*models.Match, 0, len(cands))
	for _, cand := range cands {
		if res := validate.Investor(cand.Investor); !res.OK {
			stats.CorruptSkipped++
			if r.metrics != nil {
				r.metrics.RecordCorruptSkipped(ctx, "investor")
			}

			continue
		}

		fit := r.scorer.Score(features, cand.Features)
		fit.Similarity = cand.Similarity
		stats.PairsScored++

		if fit.Final < r.persistFloor {
			stats.BelowFloorSkipped++

			continue
		}

		matches = append(matches, &models.Match{
			StartupID:     startup.ID,
			InvestorID:    cand.Investor.ID,
			Score:         fit.Final,
			Confidence:    scoring.Confidence(fit.Final),
			Status:        scoring.Status(fit.Final, r.publishFloor),
			FitAnalysis:   fit,
			PolicyVersion: policyVersion,
		})
	}

	// Keep only the strongest matches per startup, highest score first,
	// investor id as the deterministic tiebreak.
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}

		return matches[i].InvestorID.String() < matches[j].InvestorID.String()
	})

	if len(matches) > r.topKept {
		matches = matches[:r.topKept]
	}

	keep := make([]uuid.UUID, 0, len(matches))
	for _, m := range matches {
		keep = append(keep, m.InvestorID)
	}

	pending.add(startup.ID, keep, matches)
}

// flush writes all buffered matches in page-size chunks, then prunes each
// startup's rows outside its new top set. A batch that still fails after the
// writer's retries is logged, counted, and skipped so later pages keep their
// progress; startups in a failed batch are not pruned, keeping their old
// matches intact. Only context cancellation aborts the flush.
func (r *Runner) flush(ctx context.Context, pending *writeBuffer, stats *models.RunStats) error {
	failed := make(map[uuid.UUID]bool)

	for start := 0; start < len(pending.matches); start += r.pageSize {
		end := min(start+r.pageSize, len(pending.matches))

		chunk := pending.matches[start:end]
		if err := r.writer.BulkUpsert(ctx, chunk); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			stats.Errors++
			for _, m := range chunk {
				failed[m.StartupID] = true
			}

			r.logger.Error("match batch write failed, skipping batch",
				"batch_size", len(chunk), "error", err)

			continue
		}

		stats.Persisted += len(chunk)
		if r.metrics != nil {
			for _, m := range chunk {
				r.metrics.RecordMatchPersisted(ctx, m.Score)
			}
		}
	}

	for _, p := range pending.prunes {
		if failed[p.startupID] {
			continue
		}

		if err := r.pruner.PruneForStartup(ctx, p.startupID, p.keep); err != nil {
			stats.Errors++
			r.logger.Error("match prune failed",
				"startup_id", p.startupID, "error", err)
		}
	}

	pending.reset()

	return nil
}

type pruneRequest struct {
	startupID uuid.UUID
	keep      []uuid.UUID
}

// writeBuffer accumulates matches and prune requests between flushes.
type writeBuffer struct {
	matches []*models.Match
	prunes  []pruneRequest
}

func newWriteBuffer(capacity int) *writeBuffer {
	return &writeBuffer{
		matches: make([]*models.Match, 0, capacity),
	}
}

func (b *writeBuffer) add(startupID uuid.UUID, keep []uuid.UUID, matches []*models.Match) {
	b.matches = append(b.matches, matches...)
	b.prunes = append(b.prunes, pruneRequest{startupID: startupID, keep: keep})
}

func (b *writeBuffer) reset() {
	b.matches = b.matches[:0]
	b.prunes = b.prunes[:0]
}
