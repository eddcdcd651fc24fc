package handler

import (
	"net/http"

	"github.com/forgo/lending/api/internal/middleware"
)

// RouterConfig holds everything the route table needs
type RouterConfig struct {
	Accounts *AccountHandler
	Loans    *LoanHandler
	Logs     *LogHandler
	Health   *HealthHandler
	Metrics  http.Handler // optional; served on /metrics

	Auth        middleware.Middleware // validates the bearer token
	RateLimit   middleware.Middleware // optional
	Idempotency middleware.Middleware // optional
}

// NewRouter registers every route on a new ServeMux
func NewRouter(cfg RouterConfig) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", cfg.Health.Health)
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics)
	}

	public := func(h http.HandlerFunc) http.Handler {
		return middleware.Chain(h, optional(cfg.RateLimit))
	}
	bearer := func(h http.HandlerFunc) http.Handler {
		return middleware.Chain(h, cfg.Auth, optional(cfg.RateLimit), optional(cfg.Idempotency))
	}
	accountant := func(h http.HandlerFunc) http.Handler {
		return middleware.Chain(h, cfg.Auth, middleware.RequireAccountant, optional(cfg.RateLimit), optional(cfg.Idempotency))
	}

	// Accounts
	mux.Handle("POST /v1/accounts/register", public(cfg.Accounts.Register))
	mux.Handle("POST /v1/accounts/authenticate", public(cfg.Accounts.Authenticate))
	mux.Handle("GET /v1/accounts/me", bearer(cfg.Accounts.Me))
	mux.Handle("GET /v1/accounts", accountant(cfg.Accounts.List))
	mux.Handle("POST /v1/accounts/accountants", accountant(cfg.Accounts.CreateAccountant))
	mux.Handle("GET /v1/accounts/{accountId}", bearer(cfg.Accounts.Get))
	mux.Handle("POST /v1/accounts/{accountId}/block", accountant(cfg.Accounts.SetBlocked))
	mux.Handle("GET /v1/accounts/{accountId}/loans", accountant(cfg.Loans.ListByOwner))

	// Loans
	mux.Handle("POST /v1/loans", bearer(cfg.Loans.Create))
	mux.Handle("GET /v1/loans", bearer(cfg.Loans.List))
	mux.Handle("GET /v1/loans/{loanId}", bearer(cfg.Loans.Get))
	mux.Handle("PATCH /v1/loans/{loanId}", bearer(cfg.Loans.Update))
	mux.Handle("DELETE /v1/loans/{loanId}", accountant(cfg.Loans.Delete))
	mux.Handle("POST /v1/loans/{loanId}/status", accountant(cfg.Loans.Transition))

	// Request log
	mux.Handle("GET /v1/logs", accountant(cfg.Logs.List))

	return mux
}

func optional(m middleware.Middleware) middleware.Middleware {
	if m == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return m
}
