package pipeline

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ugobe007/hotmatch/internal/matcherrors"
	"github.com/ugobe007/hotmatch/internal/models"
	"github.com/ugobe007/hotmatch/internal/observability"
)

const (
	defaultInitialBackoffWhenZero = 500 * time.Millisecond
	backoffMultiplier             = 2
)

// MatchWriter persists a batch of matches.
type MatchWriter interface {
	BulkUpsert(ctx context.Context, matches []*models.Match) error
}

// RetryingMatchWriter wraps a MatchWriter and retries BulkUpsert on transient
// storage errors with exponential backoff and jitter. Non-storage errors
// (marshal failures, context cancellation) are returned immediately.
type RetryingMatchWriter struct {
	inner          MatchWriter
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	metrics        observability.MatchMetrics
}

// RetryingMatchWriterConfig holds configuration for the retrying writer.
type RetryingMatchWriterConfig struct {
	MaxRetries     int           // Number of retries after the first attempt (total attempts = 1 + MaxRetries).
	InitialBackoff time.Duration // Backoff after first failure; doubles each attempt, capped by MaxBackoff.
	MaxBackoff     time.Duration // Upper bound on backoff between attempts.
	Metrics        observability.MatchMetrics
}

// NewRetryingMatchWriter returns a MatchWriter that retries BulkUpsert on
// transient storage errors. Jitter is applied to the backoff to avoid
// thundering herd when several runs share a database.
func NewRetryingMatchWriter(inner MatchWriter, cfg RetryingMatchWriterConfig) *RetryingMatchWriter {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = defaultInitialBackoffWhenZero
	}

	if cfg.MaxBackoff < cfg.InitialBackoff {
		cfg.MaxBackoff = cfg.InitialBackoff
	}

	return &RetryingMatchWriter{
		inner:          inner,
		maxRetries:     cfg.MaxRetries,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		metrics:        cfg.Metrics,
	}
}

// BulkUpsert calls the inner writer; on a transient storage error, retries up
// to maxRetries times with exponential backoff and jitter. Respects context
// cancellation during backoff.
func (w *RetryingMatchWriter) BulkUpsert(ctx context.Context, matches []*models.Match) error {
	var lastErr error

	backoff := w.initialBackoff

	for attempt := 0; attempt <= w.maxRetries; attempt++ {
		err := w.inner.BulkUpsert(ctx, matches)
		if err == nil {
			return nil
		}

		if !errors.Is(err, matcherrors.ErrStorage) {
			return err
		}

		lastErr = err

		if attempt == w.maxRetries {
			break
		}

		if w.metrics != nil {
			w.metrics.RecordBatchRetry(ctx)
		}

		sleep := w.jitter(backoff)
		slog.Warn("match batch write failed, retrying after backoff",
			"attempt", attempt+1,
			"max_attempts", w.maxRetries+1,
			"backoff", sleep,
			"batch_size", len(matches),
			"error", err,
		)

		if err := w.sleep(ctx, sleep); err != nil {
			return err
		}

		backoff = min(backoff*backoffMultiplier, w.maxBackoff)
	}

	return lastErr
}

// jitter returns a duration between 50% and 100% of duration.
func (w *RetryingMatchWriter) jitter(duration time.Duration) time.Duration {
	const jitterHalf = 2

	half := duration / jitterHalf

	if half <= 0 {
		return duration
	}

	var buf [8]byte

	if _, err := rand.Read(buf[:]); err != nil {
		return half
	}

	randVal := binary.BigEndian.Uint64(buf[:])
	halfNanos := half.Nanoseconds()

	if halfNanos <= 0 {
		return half
	}

	// randVal % halfNanos is in [0, halfNanos); duration nanos fit in int64
	//nolint:gosec // G115: modulo result is in [0, halfNanos), safe to convert to int64
	jitterNanos := int64(randVal % uint64(halfNanos))

	return half + time.Duration(jitterNanos)
}

// sleep blocks for the given duration or until ctx is cancelled; returns ctx.Err() if cancelled.
func (w *RetryingMatchWriter) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("backoff interrupted: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

// Ensure RetryingMatchWriter implements MatchWriter.
var _ MatchWriter = (*RetryingMatchWriter)(nil)
