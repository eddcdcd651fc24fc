package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanCategory is the kind of loan requested
type LoanCategory string

const (
	LoanCategoryPersonal LoanCategory = "Personal"
	LoanCategoryMortgage LoanCategory = "Mortgage"
	LoanCategoryAuto     LoanCategory = "Auto"
	LoanCategoryStudent  LoanCategory = "Student"
)

// IsValid reports whether c is one of the defined categories
func (c LoanCategory) IsValid() bool {
	switch c {
	case LoanCategoryPersonal, LoanCategoryMortgage, LoanCategoryAuto, LoanCategoryStudent:
		return true
	}
	return false
}

// LoanStatus is the review state of a loan
type LoanStatus string

const (
	LoanStatusPending  LoanStatus = "Pending"
	LoanStatusApproved LoanStatus = "Approved"
	LoanStatusRejected LoanStatus = "Rejected"
	LoanStatusPaidOff  LoanStatus = "PaidOff"
)

// loanTransitions lists the allowed status edges. Rejected and PaidOff are terminal.
var loanTransitions = map[LoanStatus][]LoanStatus{
	LoanStatusPending:  {LoanStatusApproved, LoanStatusRejected},
	LoanStatusApproved: {LoanStatusPaidOff},
}

// IsValid reports whether s is one of the defined statuses
func (s LoanStatus) IsValid() bool {
	switch s {
	case LoanStatusPending, LoanStatusApproved, LoanStatusRejected, LoanStatusPaidOff:
		return true
	}
	return false
}

// CanTransitionTo reports whether a loan in status s may move to next
func (s LoanStatus) CanTransitionTo(next LoanStatus) bool {
	for _, allowed := range loanTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Loan amount bounds (inclusive)
var (
	MinLoanAmount = decimal.RequireFromString("0.01")
	MaxLoanAmount = decimal.RequireFromString("999999999.99")
)

// Loan represents a loan request owned by an account
type Loan struct {
	ID        string          `json:"id"`
	OwnerID   string          `json:"owner_id"`
	Category  LoanCategory    `json:"category"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  *string         `json:"currency,omitempty"`
	Status    LoanStatus      `json:"status"`
	CreatedOn time.Time       `json:"created_on"`
	UpdatedOn time.Time       `json:"updated_on"`
}

// IsOwnedBy returns true if the loan belongs to the given account
func (l *Loan) IsOwnedBy(accountID string) bool {
	return l.OwnerID == accountID
}
