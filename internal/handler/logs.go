package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/forgo/lending/api/internal/model"
)

// RequestLogReader lists recent request log entries
type RequestLogReader interface {
	Recent(ctx context.Context, actor model.Actor, limit int) ([]*model.RequestLog, error)
}

// LogHandler serves the request audit log
type LogHandler struct {
	logs RequestLogReader
}

// NewLogHandler creates a new log handler
func NewLogHandler(logs RequestLogReader) *LogHandler {
	return &LogHandler{logs: logs}
}

// List handles GET /v1/logs?limit=N
func (h *LogHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			WriteError(w, model.NewValidationError([]model.FieldError{
				{Field: "limit", Message: "limit must be a positive integer"},
			}))
			return
		}
		limit = n
	}

	entries, err := h.logs.Recent(r.Context(), actor, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteCollection(w, entries, len(entries), nil)
}
