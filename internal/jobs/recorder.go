package jobs

import (
	"context"
	"log/slog"

	"mediakit/internal/logging"
	"mediakit/internal/metrics"
	"mediakit/internal/services"
)

// Recorder tracks job lifecycle in the ledger and metrics. A nil store only
// updates metrics. Ledger failures are logged and never returned.
type Recorder struct {
	store   *Store
	metrics *metrics.Registry
	logger  *slog.Logger
}

// NewRecorder constructs a Recorder.
func NewRecorder(store *Store, m *metrics.Registry, logger *slog.Logger) *Recorder {
	return &Recorder{store: store, metrics: m, logger: logging.NewComponentLogger(logger, "jobs")}
}

// Store returns the underlying ledger, which may be nil.
func (r *Recorder) Store() *Store {
	if r == nil {
		return nil
	}
	return r.store
}

// Begin records a job start.
func (r *Recorder) Begin(ctx context.Context, id string, kind Kind, source string) {
	if r == nil {
		return
	}
	r.metrics.JobStarted(string(kind))
	if r.store == nil {
		return
	}
	if err := r.store.Start(ctx, id, kind, source); err != nil {
		r.warn(ctx, "record job start", err)
	}
}

// Finish records the outcome. A nil err marks the job completed.
func (r *Recorder) Finish(ctx context.Context, id string, kind Kind, artifact, detail string, err error) {
	if r == nil {
		return
	}
	status := StatusCompleted
	if err != nil {
		status = StatusFailed
	}
	r.metrics.JobFinished(string(kind), string(status))
	if r.store == nil {
		return
	}
	var storeErr error
	if err != nil {
		storeErr = r.store.Fail(context.WithoutCancel(ctx), id, services.UserMessage(err))
	} else {
		storeErr = r.store.Complete(context.WithoutCancel(ctx), id, artifact, detail)
	}
	if storeErr != nil {
		r.warn(ctx, "record job outcome", storeErr)
	}
}

func (r *Recorder) warn(ctx context.Context, op string, err error) {
	logging.WarnWithContext(logging.WithContext(ctx, r.logger), "job ledger write failed", "ledger_write_failed",
		logging.String("operation", op),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check jobs.db permissions and disk space"),
		logging.String(logging.FieldImpact, "job history is incomplete"),
	)
}
