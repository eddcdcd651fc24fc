package middleware

import (
	"compress/gzip"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/forgo/lending/api/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Chain
// ============================================================================

func TestChain_AppliesInOrder(t *testing.T) {
	t.Parallel()

	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	})

	Chain(handler, mark("first"), mark("second")).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"first", "second", "handler"}, order)
}

// ============================================================================
// RequestID
// ============================================================================

func TestRequestID(t *testing.T) {
	t.Parallel()

	t.Run("generates uuid", func(t *testing.T) {
		t.Parallel()
		next := &captureHandler{}
		rr := httptest.NewRecorder()
		RequestID(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

		id := GetRequestID(next.ctx)
		_, err := uuid.Parse(id)
		require.NoError(t, err)
		assert.Equal(t, id, rr.Header().Get("X-Request-ID"))
	})

	t.Run("preserves incoming id", func(t *testing.T) {
		t.Parallel()
		next := &captureHandler{}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "req-42")
		rr := httptest.NewRecorder()
		RequestID(next).ServeHTTP(rr, req)

		assert.Equal(t, "req-42", GetRequestID(next.ctx))
		assert.Equal(t, "req-42", rr.Header().Get("X-Request-ID"))
	})
}

// ============================================================================
// Recovery
// ============================================================================

func TestRecovery_PanicReturnsProblem(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rr := httptest.NewRecorder()
	Recovery(handler).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/loans", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
	p := decodeProblem(t, rr)
	assert.Equal(t, model.ErrCodeInternal, p.Code)
}

func TestRecovery_PanicBehindAuthReturnsProblem(t *testing.T) {
	t.Parallel()

	var captured *actorRef
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = r.Context().Value(actorRefKey).(*actorRef)
		panic("boom")
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/loans", nil)
	req.Header.Set("Authorization", "Bearer good")
	rr := httptest.NewRecorder()
	Recovery(Auth(validatorFor("account:1", model.RoleStandard))(handler)).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	require.NotNil(t, captured)
	assert.True(t, captured.set)
	assert.Equal(t, "account:1", captured.actor.ID)
}

func TestPanicAttrs_IncludesRequestAndActor(t *testing.T) {
	t.Parallel()

	attrMap := func(attrs []any) map[string]string {
		out := make(map[string]string, len(attrs))
		for _, a := range attrs {
			attr := a.(slog.Attr)
			out[attr.Key] = attr.Value.String()
		}
		return out
	}

	req := httptest.NewRequest(http.MethodPatch, "/v1/loans/loan:1", nil)
	req = req.WithContext(context.WithValue(req.Context(), RequestIDKey, "req-42"))
	ref := &actorRef{actor: model.Actor{ID: "account:9", Role: model.RoleAccountant}, set: true}

	got := attrMap(panicAttrs(req, ref, "boom"))
	assert.Equal(t, "boom", got["error"])
	assert.Equal(t, http.MethodPatch, got["method"])
	assert.Equal(t, "/v1/loans/loan:1", got["path"])
	assert.Equal(t, "req-42", got["request_id"])
	assert.Equal(t, "account:9", got["actor_id"])
	assert.Equal(t, string(model.RoleAccountant), got["role"])
	assert.NotEmpty(t, got["stack"])

	anonymous := attrMap(panicAttrs(req, &actorRef{}, "boom"))
	assert.NotContains(t, anonymous, "actor_id")
	assert.NotContains(t, anonymous, "role")
}

// ============================================================================
// CORS
// ============================================================================

func TestCORS(t *testing.T) {
	t.Parallel()

	cors := CORS([]string{"https://app.example.com"})

	t.Run("allowed origin", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://app.example.com")
		rr := httptest.NewRecorder()
		cors(&captureHandler{}).ServeHTTP(rr, req)

		assert.Equal(t, "https://app.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rr.Header().Get("Access-Control-Allow-Headers"), "Idempotency-Key")
	})

	t.Run("other origin", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rr := httptest.NewRecorder()
		cors(&captureHandler{}).ServeHTTP(rr, req)

		assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		t.Parallel()
		next := &captureHandler{}
		req := httptest.NewRequest(http.MethodOptions, "/v1/loans", nil)
		req.Header.Set("Origin", "https://app.example.com")
		rr := httptest.NewRecorder()
		cors(next).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.False(t, next.called)
	})
}

// ============================================================================
// Compress
// ============================================================================

func TestCompress(t *testing.T) {
	t.Parallel()

	const body = `{"id":"loan:1","category":"Mortgage","amount":"50000"}`
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	})

	t.Run("gzip accepted", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept-Encoding", "gzip, deflate")
		rr := httptest.NewRecorder()
		Compress(handler).ServeHTTP(rr, req)

		require.Equal(t, "gzip", rr.Header().Get("Content-Encoding"))
		reader, err := gzip.NewReader(rr.Body)
		require.NoError(t, err)
		defer func() { _ = reader.Close() }()
		got, err := io.ReadAll(reader)
		require.NoError(t, err)
		assert.Equal(t, body, string(got))
	})

	t.Run("plain", func(t *testing.T) {
		t.Parallel()
		rr := httptest.NewRecorder()
		Compress(handler).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Empty(t, rr.Header().Get("Content-Encoding"))
		assert.Equal(t, body, rr.Body.String())
	})
}

// ============================================================================
// Logger
// ============================================================================

func TestResponseWriter_FirstStatusWins(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rr, statusCode: http.StatusOK}

	rw.WriteHeader(http.StatusCreated)
	rw.WriteHeader(http.StatusInternalServerError)

	assert.Equal(t, http.StatusCreated, rw.statusCode)
	assert.Equal(t, http.StatusCreated, rr.Code)
}

func TestLogger_SeesActorResolvedDownstream(t *testing.T) {
	t.Parallel()

	var seen *responseWriter
	inner := Auth(validatorFor("account:7", model.RoleStandard))(&captureHandler{status: http.StatusTeapot})
	observe := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = w.(*responseWriter)
			next.ServeHTTP(w, r)
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/loans", nil)
	req.Header.Set("Authorization", "Bearer t")
	rr := httptest.NewRecorder()
	Chain(inner, Logger, observe).ServeHTTP(rr, req)

	require.NotNil(t, seen)
	assert.Equal(t, http.StatusTeapot, seen.statusCode)
	actor, ok := seen.actor()
	require.True(t, ok)
	assert.Equal(t, "account:7", actor.ID)
}
