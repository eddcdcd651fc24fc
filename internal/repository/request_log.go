package repository

import (
	"context"
	"time"

	"github.com/forgo/lending/api/internal/database"
	"github.com/forgo/lending/api/internal/model"
)

// RequestLogRepository handles request audit log data access
type RequestLogRepository struct {
	db database.Database
}

// NewRequestLogRepository creates a new request log repository
func NewRequestLogRepository(db database.Database) *RequestLogRepository {
	return &RequestLogRepository{db: db}
}

// Create inserts a log entry
func (r *RequestLogRepository) Create(ctx context.Context, entry *model.RequestLog) error {
	query := `
		CREATE request_log CONTENT {
			level: $level,
			message: $message,
			method: $method,
			endpoint: $endpoint,
			status: $status,
			actor_id: IF $actor_id IS NOT NULL THEN $actor_id ELSE NONE END,
			created_on: time::now()
		}
	`

	vars := map[string]interface{}{
		"level":    string(entry.Level),
		"message":  entry.Message,
		"method":   entry.Method,
		"endpoint": entry.Endpoint,
		"status":   entry.Status,
		"actor_id": ptrToNone(entry.ActorID),
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return err
	}

	created, err := unwrapRecord(firstOrNil(result))
	if err != nil {
		return err
	}
	entry.ID = convertSurrealID(created["id"])
	entry.CreatedOn = getTime(created, "created_on")
	return nil
}

// List returns the newest entries first
func (r *RequestLogRepository) List(ctx context.Context, limit int) ([]*model.RequestLog, error) {
	query := `SELECT * FROM request_log ORDER BY created_on DESC LIMIT $limit`
	result, err := r.db.Query(ctx, query, map[string]interface{}{"limit": limit})
	if err != nil {
		return nil, err
	}

	rows := extractQueryResults(result)
	entries := make([]*model.RequestLog, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, &model.RequestLog{
			ID:        convertSurrealID(row["id"]),
			Level:     model.RequestLogLevel(getString(row, "level")),
			Message:   getString(row, "message"),
			Method:    getString(row, "method"),
			Endpoint:  getString(row, "endpoint"),
			Status:    getInt(row, "status"),
			ActorID:   getStringPtr(row, "actor_id"),
			CreatedOn: getTime(row, "created_on"),
		})
	}
	return entries, nil
}

// DeleteOlderThan removes entries created before cutoff and reports how
// many were removed
func (r *RequestLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	query := `DELETE request_log WHERE created_on < <datetime>$cutoff RETURN BEFORE`
	vars := map[string]interface{}{"cutoff": cutoff.UTC().Format(time.RFC3339Nano)}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return 0, err
	}
	return len(extractQueryResults(result)), nil
}
