package service

import (
	"context"
	"time"

	"github.com/forgo/lending/api/internal/model"
	"github.com/forgo/lending/api/internal/policy"
)

// RequestLogRepository defines the interface for request log storage
type RequestLogRepository interface {
	Create(ctx context.Context, entry *model.RequestLog) error
	List(ctx context.Context, limit int) ([]*model.RequestLog, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// RequestLogService records and lists the request audit log
type RequestLogService struct {
	repo      RequestLogRepository
	retention time.Duration
	now       func() time.Time
}

// RequestLogServiceConfig holds configuration for the request log service
type RequestLogServiceConfig struct {
	Repo      RequestLogRepository
	Retention time.Duration // Default: 30 days
	Now       func() time.Time
}

// NewRequestLogService creates a new request log service
func NewRequestLogService(cfg RequestLogServiceConfig) *RequestLogService {
	if cfg.Retention <= 0 {
		cfg.Retention = 30 * 24 * time.Hour
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &RequestLogService{
		repo:      cfg.Repo,
		retention: cfg.Retention,
		now:       cfg.Now,
	}
}

// Record stores one request log entry
func (s *RequestLogService) Record(ctx context.Context, entry *model.RequestLog) error {
	if entry.CreatedOn.IsZero() {
		entry.CreatedOn = s.now().UTC()
	}
	if entry.Level == "" {
		entry.Level = model.RequestLogInfo
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return storageError("create request log", err)
	}
	return nil
}

// Recent returns the newest entries, newest first
func (s *RequestLogService) Recent(ctx context.Context, actor model.Actor, limit int) ([]*model.RequestLog, error) {
	if !policy.RequireAccountant(actor) {
		return nil, ErrAccountantRequired
	}

	if limit <= 0 {
		limit = model.DefaultRequestLogLimit
	}
	if limit > model.MaxRequestLogLimit {
		limit = model.MaxRequestLogLimit
	}

	entries, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, storageError("list request logs", err)
	}
	return entries, nil
}

// Purge deletes entries older than the retention window
func (s *RequestLogService) Purge(ctx context.Context) (int, error) {
	cutoff := s.now().UTC().Add(-s.retention)
	deleted, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, storageError("purge request logs", err)
	}
	return deleted, nil
}
