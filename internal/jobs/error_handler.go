package jobs

import (
	"context"
	"log/slog"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
)

// ErrorHandler logs embedding job failures and panics. It never overrides
// river's retry decision; MaxAttempts on the client governs when a job is
// discarded.
type ErrorHandler struct {
	Logger *slog.Logger // nil falls back to slog.Default
}

func (h *ErrorHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}

	return slog.Default()
}

// HandleError records a failed attempt.
func (h *ErrorHandler) HandleError(ctx context.Context, job *rivertype.JobRow, err error) *river.ErrorHandlerResult {
	h.logger().Error("embedding job failed",
		"kind", job.Kind,
		"job_id", job.ID,
		"queue", job.Queue,
		"attempt", job.Attempt,
		"max_attempts", job.MaxAttempts,
		"error", err,
	)

	return nil
}

// HandlePanic records a panicking job; river marks it errored and retries.
func (h *ErrorHandler) HandlePanic(ctx context.Context, job *rivertype.JobRow, panicVal any, trace string) *river.ErrorHandlerResult {
	h.logger().Error("embedding job panicked",
		"kind", job.Kind,
		"job_id", job.ID,
		"queue", job.Queue,
		"attempt", job.Attempt,
		"panic_value", panicVal,
		"stack_trace", trace,
	)

	return nil
}
