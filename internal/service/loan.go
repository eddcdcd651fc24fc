package service

import (
	"context"
	"time"

	"github.com/forgo/lending/api/internal/model"
	"github.com/forgo/lending/api/internal/policy"
	"github.com/shopspring/decimal"
)

// LoanRepository defines the interface for loan storage.
// GetByID returns (nil, nil) when the loan does not exist.
type LoanRepository interface {
	Create(ctx context.Context, loan *model.Loan) error
	GetByID(ctx context.Context, id string) (*model.Loan, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*model.Loan, error)
	List(ctx context.Context) ([]*model.Loan, error)
	Update(ctx context.Context, loan *model.Loan) error
	Delete(ctx context.Context, id string) error
}

// AccountLookup is the part of account storage the loan service reads
type AccountLookup interface {
	GetByID(ctx context.Context, id string) (*model.Account, error)
}

// LoanService manages the loan lifecycle under the ownership policy
type LoanService struct {
	loanRepo    LoanRepository
	accountRepo AccountLookup
	now         func() time.Time
}

// LoanServiceConfig holds configuration for the loan service
type LoanServiceConfig struct {
	LoanRepo    LoanRepository
	AccountRepo AccountLookup
	Now         func() time.Time // Default: time.Now
}

// NewLoanService creates a new loan service
func NewLoanService(cfg LoanServiceConfig) *LoanService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &LoanService{
		loanRepo:    cfg.LoanRepo,
		accountRepo: cfg.AccountRepo,
		now:         cfg.Now,
	}
}

// LoanCandidate is the caller-controlled part of a loan
type LoanCandidate struct {
	Category model.LoanCategory
	Amount   decimal.Decimal
	Currency *string
}

func (c LoanCandidate) toLoan() *model.Loan {
	return &model.Loan{
		Category: c.Category,
		Amount:   c.Amount,
		Currency: c.Currency,
	}
}

// Create stores a new Pending loan owned by actor
func (s *LoanService) Create(ctx context.Context, actor model.Actor, candidate LoanCandidate) (*model.Loan, error) {
	loan := candidate.toLoan()
	if result := model.ValidateLoan(loan); !result.Valid {
		return nil, newValidationError(result)
	}

	owner, err := s.accountRepo.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, storageError("get account", err)
	}
	if owner == nil {
		return nil, ErrAccountNotFound
	}
	if owner.Blocked {
		return nil, ErrAccountBlocked
	}

	now := s.now().UTC()
	loan.OwnerID = owner.ID
	loan.Status = model.LoanStatusPending
	loan.CreatedOn = now
	loan.UpdatedOn = now

	if err := s.loanRepo.Create(ctx, loan); err != nil {
		return nil, storageError("create loan", err)
	}
	return loan, nil
}

// Update overwrites the category, amount and currency of a loan
func (s *LoanService) Update(ctx context.Context, actor model.Actor, loanID string, candidate LoanCandidate) (*model.Loan, error) {
	if result := model.ValidateLoan(candidate.toLoan()); !result.Valid {
		return nil, newValidationError(result)
	}

	loan, err := s.load(ctx, actor, loanID, policy.OpUpdate)
	if err != nil {
		return nil, err
	}

	loan.Category = candidate.Category
	loan.Amount = candidate.Amount
	loan.Currency = candidate.Currency
	loan.UpdatedOn = s.now().UTC()

	if err := s.loanRepo.Update(ctx, loan); err != nil {
		return nil, storageError("update loan", err)
	}
	return loan, nil
}

// Delete removes a loan
func (s *LoanService) Delete(ctx context.Context, actor model.Actor, loanID string) error {
	loan, err := s.load(ctx, actor, loanID, policy.OpDelete)
	if err != nil {
		return err
	}

	if err := s.loanRepo.Delete(ctx, loan.ID); err != nil {
		return storageError("delete loan", err)
	}
	return nil
}

// Get returns a loan the actor may read
func (s *LoanService) Get(ctx context.Context, actor model.Actor, loanID string) (*model.Loan, error) {
	return s.load(ctx, actor, loanID, policy.OpRead)
}

// ListForActor returns every loan for accountants and the actor's own
// loans otherwise
func (s *LoanService) ListForActor(ctx context.Context, actor model.Actor) ([]*model.Loan, error) {
	if policy.CanListAll(actor) {
		loans, err := s.loanRepo.List(ctx)
		if err != nil {
			return nil, storageError("list loans", err)
		}
		return loans, nil
	}

	loans, err := s.loanRepo.ListByOwner(ctx, actor.ID)
	if err != nil {
		return nil, storageError("list loans by owner", err)
	}
	return loans, nil
}

// ListByOwner returns the loans of another account
func (s *LoanService) ListByOwner(ctx context.Context, actor model.Actor, accountID string) ([]*model.Loan, error) {
	if !policy.RequireAccountant(actor) {
		return nil, ErrAccountantRequired
	}

	owner, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, storageError("get account", err)
	}
	if owner == nil {
		return nil, ErrAccountNotFound
	}

	loans, err := s.loanRepo.ListByOwner(ctx, owner.ID)
	if err != nil {
		return nil, storageError("list loans by owner", err)
	}
	return loans, nil
}

// Transition moves a loan to target status along an allowed edge
func (s *LoanService) Transition(ctx context.Context, actor model.Actor, loanID string, target model.LoanStatus) (*model.Loan, error) {
	if !policy.RequireAccountant(actor) {
		return nil, ErrAccountantRequired
	}

	if !target.IsValid() {
		result := model.ValidationResult{
			Valid:  false,
			Errors: map[string]string{"Status": "Invalid loan status"},
		}
		return nil, newValidationError(result)
	}

	loan, err := s.load(ctx, actor, loanID, policy.OpUpdate)
	if err != nil {
		return nil, err
	}

	if !loan.Status.CanTransitionTo(target) {
		return nil, ErrInvalidTransition
	}

	loan.Status = target
	loan.UpdatedOn = s.now().UTC()

	if err := s.loanRepo.Update(ctx, loan); err != nil {
		return nil, storageError("update loan status", err)
	}
	return loan, nil
}

// load fetches a loan and applies the ownership policy for op
func (s *LoanService) load(ctx context.Context, actor model.Actor, loanID string, op policy.Operation) (*model.Loan, error) {
	loan, err := s.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		return nil, storageError("get loan", err)
	}
	if loan == nil {
		return nil, ErrLoanNotFound
	}
	if !policy.Allowed(actor, loan.OwnerID, op) {
		return nil, ErrLoanAccessDenied
	}
	return loan, nil
}
