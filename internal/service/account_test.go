package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/forgo/lending/api/internal/database"
	"github.com/forgo/lending/api/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAccountService(repo *mockAccountRepo) *AccountService {
	return NewAccountService(AccountServiceConfig{
		AccountRepo: repo,
		Credentials: testVerifier(),
		Now:         fixedClock,
	})
}

func johnDoe() AccountCandidate {
	return AccountCandidate{
		FirstName: "John",
		LastName:  "Doe",
		Username:  "johndoe",
		Email:     "john@example.com",
		Age:       30,
		Password:  strPtr("secret123"),
	}
}

// ============================================================================
// Register Tests
// ============================================================================

func TestRegister_StoresStandardUnblockedAccount(t *testing.T) {
	t.Parallel()
	repo := newMockAccountRepo()
	svc := newTestAccountService(repo)

	account, err := svc.Register(context.Background(), johnDoe())
	require.NoError(t, err)

	assert.NotEmpty(t, account.ID)
	assert.Equal(t, model.RoleStandard, account.Role)
	assert.False(t, account.Blocked)
	assert.Equal(t, fixedNow, account.CreatedOn)
	assert.NotEmpty(t, account.PasswordHash)
	assert.NotEqual(t, "secret123", account.PasswordHash)
	assert.True(t, testVerifier().Verify("secret123", account.PasswordHash))
}

func TestRegister_DuplicateUsername_ReturnsConflict(t *testing.T) {
	t.Parallel()
	svc := newTestAccountService(newMockAccountRepo())

	_, err := svc.Register(context.Background(), johnDoe())
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), johnDoe())
	assert.ErrorIs(t, err, ErrUsernameTaken)
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestRegister_UniqueIndexViolation_ReturnsConflict(t *testing.T) {
	t.Parallel()
	repo := newMockAccountRepo()
	repo.createErr = database.ErrDuplicate
	svc := newTestAccountService(repo)

	_, err := svc.Register(context.Background(), johnDoe())
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestRegister_InvalidCandidate_FailsBeforeStorage(t *testing.T) {
	t.Parallel()
	repo := newMockAccountRepo()
	svc := newTestAccountService(repo)

	candidate := johnDoe()
	candidate.Age = 12
	candidate.Password = nil

	_, err := svc.Register(context.Background(), candidate)
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))

	result, ok := ValidationResultOf(err)
	require.True(t, ok)
	assert.Equal(t, "Age must be between 18 and 120", result.Errors["Age"])
	assert.Equal(t, "Password is required", result.Errors["Password"])
	assert.Zero(t, repo.calls, "repository must not be touched")
}

func TestRegister_StorageFailure_ReturnsStorageKind(t *testing.T) {
	t.Parallel()
	repo := newMockAccountRepo()
	repo.getErr = errors.New("connection reset")
	svc := newTestAccountService(repo)

	_, err := svc.Register(context.Background(), johnDoe())
	assert.Equal(t, KindStorage, KindOf(err))

	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.EqualError(t, storageErr.Err, "connection reset")
}

func TestRegister_PasswordOverBcryptLimit_ReturnsValidation(t *testing.T) {
	t.Parallel()
	repo := newMockAccountRepo()
	svc := newTestAccountService(repo)

	candidate := johnDoe()
	candidate.Password = strPtr(strings.Repeat("a", 80))

	_, err := svc.Register(context.Background(), candidate)
	assert.Equal(t, KindValidation, KindOf(err))

	result, ok := ValidationResultOf(err)
	require.True(t, ok)
	assert.Equal(t, "Password cannot exceed 72 bytes", result.Errors["Password"])
	assert.Zero(t, repo.calls)
}

type failingHasher struct{ err error }

func (f failingHasher) Hash(string) (string, error) { return "", f.err }
func (f failingHasher) Verify(string, string) bool  { return false }

func TestRegister_HashFailure_ReturnsTypedError(t *testing.T) {
	t.Parallel()
	svc := NewAccountService(AccountServiceConfig{
		AccountRepo: newMockAccountRepo(),
		Credentials: failingHasher{err: errors.New("entropy source unavailable")},
		Now:         fixedClock,
	})

	_, err := svc.Register(context.Background(), johnDoe())
	require.Error(t, err)
	assert.Equal(t, KindStorage, KindOf(err))
}

// ============================================================================
// CreateAccountant Tests
// ============================================================================

func TestCreateAccountant_ByAccountant_SetsRole(t *testing.T) {
	t.Parallel()
	svc := newTestAccountService(newMockAccountRepo())

	account, err := svc.CreateAccountant(context.Background(), accountantActor("account:99"), johnDoe())
	require.NoError(t, err)
	assert.Equal(t, model.RoleAccountant, account.Role)
	assert.False(t, account.Blocked)
}

func TestCreateAccountant_ByStandard_Forbidden(t *testing.T) {
	t.Parallel()
	repo := newMockAccountRepo()
	svc := newTestAccountService(repo)

	_, err := svc.CreateAccountant(context.Background(), standardActor("account:1"), johnDoe())
	assert.ErrorIs(t, err, ErrAccountantRequired)
	assert.Equal(t, KindForbidden, KindOf(err))
	assert.Zero(t, repo.calls)
}

func TestCreateAccountant_DuplicateUsername_ReturnsConflict(t *testing.T) {
	t.Parallel()
	svc := newTestAccountService(newMockAccountRepo())

	_, err := svc.Register(context.Background(), johnDoe())
	require.NoError(t, err)

	_, err = svc.CreateAccountant(context.Background(), accountantActor("account:99"), johnDoe())
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

// ============================================================================
// Authenticate Tests
// ============================================================================

func TestAuthenticate(t *testing.T) {
	t.Parallel()
	repo := newMockAccountRepo()
	svc := newTestAccountService(repo)

	registered, err := svc.Register(context.Background(), johnDoe())
	require.NoError(t, err)

	t.Run("correct password", func(t *testing.T) {
		account, err := svc.Authenticate(context.Background(), "johndoe", "secret123")
		require.NoError(t, err)
		assert.Equal(t, registered.ID, account.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Authenticate(context.Background(), "johndoe", "secret124")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.Equal(t, KindUnauthorized, KindOf(err))
	})

	t.Run("hash is not accepted as password", func(t *testing.T) {
		_, err := svc.Authenticate(context.Background(), "johndoe", registered.PasswordHash)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown username", func(t *testing.T) {
		_, err := svc.Authenticate(context.Background(), "nobody", "secret123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestAuthenticate_BlockedAccount_Forbidden(t *testing.T) {
	t.Parallel()
	svc := newTestAccountService(newMockAccountRepo())

	registered, err := svc.Register(context.Background(), johnDoe())
	require.NoError(t, err)
	_, err = svc.SetBlocked(context.Background(), accountantActor("account:99"), registered.ID, true)
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), "johndoe", "secret123")
	assert.ErrorIs(t, err, ErrAccountBlocked)
	assert.Equal(t, KindForbidden, KindOf(err))
}

// ============================================================================
// SetBlocked / List / Get Tests
// ============================================================================

func TestSetBlocked(t *testing.T) {
	t.Parallel()
	repo := newMockAccountRepo()
	svc := newTestAccountService(repo)
	accountant := accountantActor("account:99")

	registered, err := svc.Register(context.Background(), johnDoe())
	require.NoError(t, err)

	blocked, err := svc.SetBlocked(context.Background(), accountant, registered.ID, true)
	require.NoError(t, err)
	assert.True(t, blocked.Blocked)

	stored, _ := repo.GetByID(context.Background(), registered.ID)
	assert.True(t, stored.Blocked)

	unblocked, err := svc.SetBlocked(context.Background(), accountant, registered.ID, false)
	require.NoError(t, err)
	assert.False(t, unblocked.Blocked)
}

func TestSetBlocked_MissingAccount_NotFound(t *testing.T) {
	t.Parallel()
	svc := newTestAccountService(newMockAccountRepo())

	_, err := svc.SetBlocked(context.Background(), accountantActor("account:99"), "account:404", true)
	assert.ErrorIs(t, err, ErrAccountNotFound)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestSetBlocked_ByStandard_Forbidden(t *testing.T) {
	t.Parallel()
	svc := newTestAccountService(newMockAccountRepo())

	_, err := svc.SetBlocked(context.Background(), standardActor("account:1"), "account:1", true)
	assert.ErrorIs(t, err, ErrAccountantRequired)
}

func TestList_AccountantOnly(t *testing.T) {
	t.Parallel()
	svc := newTestAccountService(newMockAccountRepo())

	_, err := svc.Register(context.Background(), johnDoe())
	require.NoError(t, err)

	accounts, err := svc.List(context.Background(), accountantActor("account:99"))
	require.NoError(t, err)
	assert.Len(t, accounts, 1)

	_, err = svc.List(context.Background(), standardActor("account:1"))
	assert.ErrorIs(t, err, ErrAccountantRequired)
}

func TestGet_OwnAccountOrAccountant(t *testing.T) {
	t.Parallel()
	svc := newTestAccountService(newMockAccountRepo())

	registered, err := svc.Register(context.Background(), johnDoe())
	require.NoError(t, err)

	own, err := svc.Get(context.Background(), standardActor(registered.ID), registered.ID)
	require.NoError(t, err)
	assert.Equal(t, "johndoe", own.Username)

	_, err = svc.Get(context.Background(), accountantActor("account:99"), registered.ID)
	assert.NoError(t, err)

	_, err = svc.Get(context.Background(), standardActor("account:2"), registered.ID)
	assert.ErrorIs(t, err, ErrAccountAccessDenied)

	_, err = svc.Get(context.Background(), accountantActor("account:99"), "account:404")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}
