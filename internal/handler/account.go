package handler

import (
	"context"
	"net/http"

	"github.com/forgo/lending/api/internal/events"
	"github.com/forgo/lending/api/internal/model"
	"github.com/forgo/lending/api/internal/service"
)

// AccountManager is the account surface the handler depends on
type AccountManager interface {
	Register(ctx context.Context, candidate service.AccountCandidate) (*model.Account, error)
	CreateAccountant(ctx context.Context, actor model.Actor, candidate service.AccountCandidate) (*model.Account, error)
	Authenticate(ctx context.Context, username, password string) (*model.Account, error)
	SetBlocked(ctx context.Context, actor model.Actor, accountID string, blocked bool) (*model.Account, error)
	List(ctx context.Context, actor model.Actor) ([]*model.Account, error)
	Get(ctx context.Context, actor model.Actor, accountID string) (*model.Account, error)
}

// TokenIssuer signs access tokens for authenticated accounts
type TokenIssuer interface {
	Issue(account *model.Account) (*service.AccessToken, error)
}

// AccountMetrics counts account activity
type AccountMetrics interface {
	IncrementAccountsRegistered()
	IncrementAuthFailures()
	RecordBlockChange(blocked bool)
}

// AccountHandler handles account endpoints
type AccountHandler struct {
	accounts AccountManager
	tokens   TokenIssuer
	events   *events.Emitter
	metrics  AccountMetrics
}

// AccountHandlerConfig holds the account handler dependencies
type AccountHandlerConfig struct {
	Accounts AccountManager
	Tokens   TokenIssuer
	Events   *events.Emitter // optional
	Metrics  AccountMetrics  // optional
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(cfg AccountHandlerConfig) *AccountHandler {
	return &AccountHandler{
		accounts: cfg.Accounts,
		tokens:   cfg.Tokens,
		events:   cfg.Events,
		metrics:  cfg.Metrics,
	}
}

// AccountRequest represents the body of register and create-accountant
type AccountRequest struct {
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Username  string  `json:"username"`
	Email     string  `json:"email"`
	Age       int     `json:"age"`
	Password  *string `json:"password"`
}

func (req AccountRequest) candidate() service.AccountCandidate {
	return service.AccountCandidate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Username:  req.Username,
		Email:     req.Email,
		Age:       req.Age,
		Password:  req.Password,
	}
}

// AuthenticateRequest represents the authenticate endpoint request body
type AuthenticateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthenticateResponse carries the account and its access token
type AuthenticateResponse struct {
	Account *model.AccountPublic `json:"account"`
	Token   *service.AccessToken `json:"token"`
}

// BlockRequest represents the block endpoint request body
type BlockRequest struct {
	Blocked *bool `json:"blocked"`
}

func accountLinks(id string) map[string]string {
	return map[string]string{
		"self":  "/v1/accounts/" + id,
		"loans": "/v1/accounts/" + id + "/loans",
	}
}

func publicAccounts(accounts []*model.Account) []*model.AccountPublic {
	out := make([]*model.AccountPublic, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, a.ToPublic())
	}
	return out
}

// Register handles POST /v1/accounts/register
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req AccountRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		badBody(w, err)
		return
	}

	account, err := h.accounts.Register(r.Context(), req.candidate())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if h.metrics != nil {
		h.metrics.IncrementAccountsRegistered()
	}
	h.events.Emit(r.Context(), events.AccountRegistered, account.Actor(), events.NewAccountPayload(account))

	WriteData(w, http.StatusCreated, account.ToPublic(), accountLinks(account.ID))
}

// CreateAccountant handles POST /v1/accounts/accountants
func (h *AccountHandler) CreateAccountant(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req AccountRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		badBody(w, err)
		return
	}

	account, err := h.accounts.CreateAccountant(r.Context(), actor, req.candidate())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if h.metrics != nil {
		h.metrics.IncrementAccountsRegistered()
	}
	h.events.Emit(r.Context(), events.AccountAccountantCreated, actor, events.NewAccountPayload(account))

	WriteData(w, http.StatusCreated, account.ToPublic(), accountLinks(account.ID))
}

// Authenticate handles POST /v1/accounts/authenticate
func (h *AccountHandler) Authenticate(w http.ResponseWriter, r *http.Request) {
	var req AuthenticateRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		badBody(w, err)
		return
	}

	account, err := h.accounts.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if h.metrics != nil && service.KindOf(err) == service.KindUnauthorized {
			h.metrics.IncrementAuthFailures()
		}
		writeServiceError(w, r, err)
		return
	}

	token, err := h.tokens.Issue(account)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, AuthenticateResponse{
		Account: account.ToPublic(),
		Token:   token,
	}, map[string]string{"me": "/v1/accounts/me"})
}

// Me handles GET /v1/accounts/me
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	account, err := h.accounts.Get(r.Context(), actor, actor.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, account.ToPublic(), accountLinks(account.ID))
}

// Get handles GET /v1/accounts/{accountId}
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	account, err := h.accounts.Get(r.Context(), actor, r.PathValue("accountId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, account.ToPublic(), accountLinks(account.ID))
}

// List handles GET /v1/accounts
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	accounts, err := h.accounts.List(r.Context(), actor)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteCollection(w, publicAccounts(accounts), len(accounts), nil)
}

// SetBlocked handles POST /v1/accounts/{accountId}/block
func (h *AccountHandler) SetBlocked(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req BlockRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		badBody(w, err)
		return
	}
	if req.Blocked == nil {
		WriteError(w, model.NewValidationError([]model.FieldError{
			{Field: "blocked", Message: "blocked is required"},
		}))
		return
	}

	account, err := h.accounts.SetBlocked(r.Context(), actor, r.PathValue("accountId"), *req.Blocked)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordBlockChange(account.Blocked)
	}
	key := events.AccountUnblocked
	if account.Blocked {
		key = events.AccountBlocked
	}
	h.events.Emit(r.Context(), key, actor, events.NewAccountPayload(account))

	WriteData(w, http.StatusOK, account.ToPublic(), accountLinks(account.ID))
}
