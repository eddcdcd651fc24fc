package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/forgo/lending/api/internal/events"
	"github.com/forgo/lending/api/internal/model"
	"github.com/forgo/lending/api/internal/service"
	"github.com/shopspring/decimal"
)

// LoanManager is the loan surface the handler depends on
type LoanManager interface {
	Create(ctx context.Context, actor model.Actor, candidate service.LoanCandidate) (*model.Loan, error)
	Update(ctx context.Context, actor model.Actor, loanID string, candidate service.LoanCandidate) (*model.Loan, error)
	Delete(ctx context.Context, actor model.Actor, loanID string) error
	Get(ctx context.Context, actor model.Actor, loanID string) (*model.Loan, error)
	ListForActor(ctx context.Context, actor model.Actor) ([]*model.Loan, error)
	ListByOwner(ctx context.Context, actor model.Actor, accountID string) ([]*model.Loan, error)
	Transition(ctx context.Context, actor model.Actor, loanID string, target model.LoanStatus) (*model.Loan, error)
}

// LoanMetrics counts loan activity
type LoanMetrics interface {
	RecordLoanCreated(category string)
	RecordLoanTransition(status string)
}

// LoanHandler handles loan endpoints
type LoanHandler struct {
	loans   LoanManager
	events  *events.Emitter
	metrics LoanMetrics
}

// LoanHandlerConfig holds the loan handler dependencies
type LoanHandlerConfig struct {
	Loans   LoanManager
	Events  *events.Emitter // optional
	Metrics LoanMetrics     // optional
}

// NewLoanHandler creates a new loan handler
func NewLoanHandler(cfg LoanHandlerConfig) *LoanHandler {
	return &LoanHandler{
		loans:   cfg.Loans,
		events:  cfg.Events,
		metrics: cfg.Metrics,
	}
}

// LoanRequest represents the body of create and update. Amount accepts a
// JSON number or a decimal string. Server-assigned fields echoed back from a
// previous read are accepted and dropped; the service sets owner and status.
type LoanRequest struct {
	Category model.LoanCategory `json:"category"`
	Amount   decimal.Decimal    `json:"amount"`
	Currency *string            `json:"currency"`

	ID        json.RawMessage `json:"id,omitempty"`
	OwnerID   json.RawMessage `json:"owner_id,omitempty"`
	Status    json.RawMessage `json:"status,omitempty"`
	CreatedOn json.RawMessage `json:"created_on,omitempty"`
	UpdatedOn json.RawMessage `json:"updated_on,omitempty"`
}

func (req LoanRequest) candidate() service.LoanCandidate {
	return service.LoanCandidate{
		Category: req.Category,
		Amount:   req.Amount,
		Currency: req.Currency,
	}
}

// StatusRequest represents the status endpoint request body
type StatusRequest struct {
	Status model.LoanStatus `json:"status"`
}

func loanLinks(loan *model.Loan) map[string]string {
	return map[string]string{
		"self":  "/v1/loans/" + loan.ID,
		"owner": "/v1/accounts/" + loan.OwnerID,
	}
}

// Create handles POST /v1/loans
func (h *LoanHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req LoanRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		badBody(w, err)
		return
	}

	loan, err := h.loans.Create(r.Context(), actor, req.candidate())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordLoanCreated(string(loan.Category))
	}
	h.events.Emit(r.Context(), events.LoanCreated, actor, events.NewLoanPayload(loan))

	w.Header().Set("Location", "/v1/loans/"+loan.ID)
	WriteData(w, http.StatusCreated, loan, loanLinks(loan))
}

// List handles GET /v1/loans
func (h *LoanHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	loans, err := h.loans.ListForActor(r.Context(), actor)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteCollection(w, loans, len(loans), nil)
}

// ListByOwner handles GET /v1/accounts/{accountId}/loans
func (h *LoanHandler) ListByOwner(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	accountID := r.PathValue("accountId")
	loans, err := h.loans.ListByOwner(r.Context(), actor, accountID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteCollection(w, loans, len(loans), map[string]string{"owner": "/v1/accounts/" + accountID})
}

// Get handles GET /v1/loans/{loanId}
func (h *LoanHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	loan, err := h.loans.Get(r.Context(), actor, r.PathValue("loanId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, loan, loanLinks(loan))
}

// Update handles PATCH /v1/loans/{loanId}
func (h *LoanHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req LoanRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		badBody(w, err)
		return
	}

	loan, err := h.loans.Update(r.Context(), actor, r.PathValue("loanId"), req.candidate())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.events.Emit(r.Context(), events.LoanUpdated, actor, events.NewLoanPayload(loan))

	WriteData(w, http.StatusOK, loan, loanLinks(loan))
}

// Delete handles DELETE /v1/loans/{loanId}
func (h *LoanHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	loanID := r.PathValue("loanId")
	if err := h.loans.Delete(r.Context(), actor, loanID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.events.Emit(r.Context(), events.LoanDeleted, actor, events.LoanPayload{LoanID: loanID})

	WriteNoContent(w)
}

// Transition handles POST /v1/loans/{loanId}/status
func (h *LoanHandler) Transition(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req StatusRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		badBody(w, err)
		return
	}

	loan, err := h.loans.Transition(r.Context(), actor, r.PathValue("loanId"), req.Status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordLoanTransition(string(loan.Status))
	}
	h.events.Emit(r.Context(), events.LoanStatusChanged, actor, events.NewLoanPayload(loan))

	WriteData(w, http.StatusOK, loan, loanLinks(loan))
}
