package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/forgo/lending/api/internal/model"
)

// RequestObserver receives one observation per completed request
type RequestObserver interface {
	ObserveRequest(method, route string, status int, seconds float64)
}

// Metrics records request counts and latency. It must wrap the router
// directly so the matched route pattern is visible after dispatch.
func Metrics(observer RequestObserver) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			observer.ObserveRequest(r.Method, route, wrapped.statusCode, time.Since(start).Seconds())
		})
	}
}

// RequestRecorder persists request audit entries
type RequestRecorder interface {
	Record(ctx context.Context, entry *model.RequestLog) error
}

// AuditLog records every /v1 request in the request log. Failures to record
// are logged and never change the response.
func AuditLog(recorder RequestRecorder) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, "/v1/") {
				next.ServeHTTP(w, r)
				return
			}

			r, ref := withActorRef(r)
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK, actorRef: ref}

			next.ServeHTTP(wrapped, r)

			entry := &model.RequestLog{
				Level:    model.RequestLogInfo,
				Message:  fmt.Sprintf("%s %s -> %d", r.Method, r.URL.Path, wrapped.statusCode),
				Method:   r.Method,
				Endpoint: r.URL.Path,
				Status:   wrapped.statusCode,
			}
			if wrapped.statusCode >= http.StatusInternalServerError {
				entry.Level = model.RequestLogError
			}
			if actor, ok := wrapped.actor(); ok {
				id := actor.ID
				entry.ActorID = &id
			}

			ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), 2*time.Second)
			defer cancel()
			if err := recorder.Record(ctx, entry); err != nil {
				slog.Warn("failed to record request log",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
			}
		})
	}
}
