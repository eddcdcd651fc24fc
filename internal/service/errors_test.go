package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/forgo/lending/api/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want ErrorKind
	}{
		{nil, KindUnknown},
		{errors.New("boom"), KindUnknown},
		{ErrAccountNotFound, KindNotFound},
		{ErrLoanNotFound, KindNotFound},
		{ErrUsernameTaken, KindConflict},
		{ErrInvalidTransition, KindConflict},
		{ErrInvalidCredentials, KindUnauthorized},
		{ErrAccountBlocked, KindForbidden},
		{ErrLoanAccessDenied, KindForbidden},
		{ErrAccountantRequired, KindForbidden},
		{newValidationError(model.ValidationResult{Errors: map[string]string{"Age": "x"}}), KindValidation},
		{storageError("op", errors.New("io")), KindStorage},
		{fmt.Errorf("wrapped: %w", ErrLoanNotFound), KindNotFound},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, KindOf(tt.err), "error: %v", tt.err)
	}
}

func TestStorageError_UnwrapsCause(t *testing.T) {
	t.Parallel()
	cause := errors.New("connection refused")
	err := storageError("get loan", cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrStorage)
	assert.Contains(t, err.Error(), "get loan")
}

func TestErrorKind_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "not_found", KindNotFound.String())
	assert.Equal(t, "unknown", ErrorKind(42).String())
}
