package jobs

import (
	"context"
	"log/slog"
)

// RequestLogPurger deletes request log entries past retention
type RequestLogPurger interface {
	Purge(ctx context.Context) (int, error)
}

// PurgeRecorder counts removed entries
type PurgeRecorder interface {
	AddRequestLogsPurged(n int)
}

// RequestLogRetention removes request log entries older than the
// configured retention window
type RequestLogRetention struct {
	purger   RequestLogPurger
	recorder PurgeRecorder
}

// NewRequestLogRetention creates the retention job. recorder may be nil.
func NewRequestLogRetention(purger RequestLogPurger, recorder PurgeRecorder) *RequestLogRetention {
	return &RequestLogRetention{purger: purger, recorder: recorder}
}

// Name implements Job
func (j *RequestLogRetention) Name() string {
	return "request_log_retention"
}

// Run implements Job
func (j *RequestLogRetention) Run(ctx context.Context) error {
	deleted, err := j.purger.Purge(ctx)
	if err != nil {
		return err
	}
	if j.recorder != nil {
		j.recorder.AddRequestLogsPurged(deleted)
	}
	if deleted > 0 {
		slog.Info("purged request logs", slog.Int("deleted", deleted))
	}
	return nil
}
