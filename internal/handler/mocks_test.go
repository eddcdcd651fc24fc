package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/forgo/lending/api/internal/middleware"
	"github.com/forgo/lending/api/internal/model"
	"github.com/forgo/lending/api/internal/service"
	"github.com/forgo/lending/api/pkg/jwt"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Function-field fakes
// ============================================================================

type fakeAccounts struct {
	registerFunc         func(ctx context.Context, c service.AccountCandidate) (*model.Account, error)
	createAccountantFunc func(ctx context.Context, actor model.Actor, c service.AccountCandidate) (*model.Account, error)
	authenticateFunc     func(ctx context.Context, username, password string) (*model.Account, error)
	setBlockedFunc       func(ctx context.Context, actor model.Actor, id string, blocked bool) (*model.Account, error)
	listFunc             func(ctx context.Context, actor model.Actor) ([]*model.Account, error)
	getFunc              func(ctx context.Context, actor model.Actor, id string) (*model.Account, error)
}

func (f *fakeAccounts) Register(ctx context.Context, c service.AccountCandidate) (*model.Account, error) {
	return f.registerFunc(ctx, c)
}

func (f *fakeAccounts) CreateAccountant(ctx context.Context, actor model.Actor, c service.AccountCandidate) (*model.Account, error) {
	return f.createAccountantFunc(ctx, actor, c)
}

func (f *fakeAccounts) Authenticate(ctx context.Context, username, password string) (*model.Account, error) {
	return f.authenticateFunc(ctx, username, password)
}

func (f *fakeAccounts) SetBlocked(ctx context.Context, actor model.Actor, id string, blocked bool) (*model.Account, error) {
	return f.setBlockedFunc(ctx, actor, id, blocked)
}

func (f *fakeAccounts) List(ctx context.Context, actor model.Actor) ([]*model.Account, error) {
	return f.listFunc(ctx, actor)
}

func (f *fakeAccounts) Get(ctx context.Context, actor model.Actor, id string) (*model.Account, error) {
	return f.getFunc(ctx, actor, id)
}

type fakeLoans struct {
	createFunc      func(ctx context.Context, actor model.Actor, c service.LoanCandidate) (*model.Loan, error)
	updateFunc      func(ctx context.Context, actor model.Actor, id string, c service.LoanCandidate) (*model.Loan, error)
	deleteFunc      func(ctx context.Context, actor model.Actor, id string) error
	getFunc         func(ctx context.Context, actor model.Actor, id string) (*model.Loan, error)
	listFunc        func(ctx context.Context, actor model.Actor) ([]*model.Loan, error)
	listByOwnerFunc func(ctx context.Context, actor model.Actor, ownerID string) ([]*model.Loan, error)
	transitionFunc  func(ctx context.Context, actor model.Actor, id string, s model.LoanStatus) (*model.Loan, error)
}

func (f *fakeLoans) Create(ctx context.Context, actor model.Actor, c service.LoanCandidate) (*model.Loan, error) {
	return f.createFunc(ctx, actor, c)
}

func (f *fakeLoans) Update(ctx context.Context, actor model.Actor, id string, c service.LoanCandidate) (*model.Loan, error) {
	return f.updateFunc(ctx, actor, id, c)
}

func (f *fakeLoans) Delete(ctx context.Context, actor model.Actor, id string) error {
	return f.deleteFunc(ctx, actor, id)
}

func (f *fakeLoans) Get(ctx context.Context, actor model.Actor, id string) (*model.Loan, error) {
	return f.getFunc(ctx, actor, id)
}

func (f *fakeLoans) ListForActor(ctx context.Context, actor model.Actor) ([]*model.Loan, error) {
	return f.listFunc(ctx, actor)
}

func (f *fakeLoans) ListByOwner(ctx context.Context, actor model.Actor, ownerID string) ([]*model.Loan, error) {
	return f.listByOwnerFunc(ctx, actor, ownerID)
}

func (f *fakeLoans) Transition(ctx context.Context, actor model.Actor, id string, s model.LoanStatus) (*model.Loan, error) {
	return f.transitionFunc(ctx, actor, id, s)
}

type fakeTokens struct{}

func (fakeTokens) Issue(account *model.Account) (*service.AccessToken, error) {
	return &service.AccessToken{AccessToken: "token-for-" + account.ID, TokenType: "Bearer", ExpiresIn: 3600}, nil
}

type fakeMetrics struct {
	registered, authFailures int
	blockChanges             []bool
	created, transitions     []string
}

func (m *fakeMetrics) IncrementAccountsRegistered()   { m.registered++ }
func (m *fakeMetrics) IncrementAuthFailures()         { m.authFailures++ }
func (m *fakeMetrics) RecordBlockChange(blocked bool) { m.blockChanges = append(m.blockChanges, blocked) }
func (m *fakeMetrics) RecordLoanCreated(c string)     { m.created = append(m.created, c) }
func (m *fakeMetrics) RecordLoanTransition(s string)  { m.transitions = append(m.transitions, s) }

type fakePublisher struct {
	keys []string
}

func (p *fakePublisher) Publish(_ context.Context, routingKey string, _ interface{}) error {
	p.keys = append(p.keys, routingKey)
	return nil
}

// ============================================================================
// Request helpers
// ============================================================================

var (
	standardActor   = model.Actor{ID: "account:1", Role: model.RoleStandard}
	accountantActor = model.Actor{ID: "account:9", Role: model.RoleAccountant}
)

func newRequest(method, target, body string) *http.Request {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	return httptest.NewRequest(method, target, r)
}

func asActor(r *http.Request, actor model.Actor) *http.Request {
	return r.WithContext(middleware.WithActor(r.Context(), &jwt.Claims{UserID: actor.ID, Role: string(actor.Role)}))
}

// serve routes r through a mux so path values resolve
func serve(pattern string, h http.HandlerFunc, r *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, h)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, r)
	return rr
}

func decodeData(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, v))
}

func decodeProblem(t *testing.T, rr *httptest.ResponseRecorder) model.ProblemDetails {
	t.Helper()
	var p model.ProblemDetails
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
	return p
}
