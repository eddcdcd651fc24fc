package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/forgo/lending/api/internal/model"
	"github.com/forgo/lending/api/pkg/jwt"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Shared test helpers
// ============================================================================

type stubValidator struct {
	claims *jwt.Claims
	err    error
	tokens []string
}

func (s *stubValidator) Validate(token string) (*jwt.Claims, error) {
	s.tokens = append(s.tokens, token)
	return s.claims, s.err
}

func validatorFor(userID string, role model.Role) *stubValidator {
	return &stubValidator{claims: &jwt.Claims{UserID: userID, Username: "user", Role: string(role)}}
}

// captureHandler captures the request context for inspection
type captureHandler struct {
	called bool
	ctx    context.Context
	status int
}

func (h *captureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.called = true
	h.ctx = r.Context()
	status := h.status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
}

func decodeProblem(t *testing.T, rr *httptest.ResponseRecorder) model.ProblemDetails {
	t.Helper()
	var p model.ProblemDetails
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
	return p
}

func withTestActor(r *http.Request, id string, role model.Role) *http.Request {
	ctx := WithActor(r.Context(), &jwt.Claims{UserID: id, Role: string(role)})
	return r.WithContext(ctx)
}
