package service

import (
	"errors"
	"fmt"

	"github.com/forgo/lending/api/internal/model"
)

// Centralized service layer errors.
// Every error returned by AccountService and LoanService belongs to exactly
// one ErrorKind; handlers switch on KindOf instead of matching strings.

// ErrorKind classifies a service failure
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindValidation
	KindNotFound
	KindForbidden
	KindConflict
	KindUnauthorized
	KindStorage
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindStorage:
		return "storage"
	}
	return "unknown"
}

// ===== Kind Errors =====
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrStorage      = errors.New("storage failure")
)

// ===== Account Errors =====
var (
	ErrAccountNotFound     = fmt.Errorf("account %w", ErrNotFound)
	ErrUsernameTaken       = fmt.Errorf("username already taken: %w", ErrConflict)
	ErrInvalidCredentials  = fmt.Errorf("invalid username or password: %w", ErrUnauthorized)
	ErrAccountBlocked      = fmt.Errorf("account is blocked: %w", ErrForbidden)
	ErrAccountantRequired  = fmt.Errorf("accountant role required: %w", ErrForbidden)
	ErrAccountAccessDenied = fmt.Errorf("not allowed to view this account: %w", ErrForbidden)
)

// ===== Loan Errors =====
var (
	ErrLoanNotFound      = fmt.Errorf("loan %w", ErrNotFound)
	ErrLoanAccessDenied  = fmt.Errorf("not allowed to access this loan: %w", ErrForbidden)
	ErrInvalidTransition = fmt.Errorf("loan status transition not allowed: %w", ErrConflict)
)

// ValidationError carries the field messages of a rejected candidate
type ValidationError struct {
	Result model.ValidationResult
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.Result.Errors))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func newValidationError(result model.ValidationResult) error {
	return &ValidationError{Result: result}
}

// StorageError wraps a repository failure
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() []error {
	return []error{ErrStorage, e.Err}
}

func storageError(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// KindOf reports the kind of a service error
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrStorage):
		return KindStorage
	}
	return KindUnknown
}

// ValidationResultOf returns the field messages carried by err, if any
func ValidationResultOf(err error) (model.ValidationResult, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Result, true
	}
	return model.ValidationResult{}, false
}
