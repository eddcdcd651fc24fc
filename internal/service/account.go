package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/forgo/lending/api/internal/database"
	"github.com/forgo/lending/api/internal/model"
	"github.com/forgo/lending/api/internal/policy"
)

// AccountRepository defines the interface for account storage.
// Getters return (nil, nil) when the account does not exist. Create must
// report database.ErrDuplicate when the username is already stored.
type AccountRepository interface {
	Create(ctx context.Context, account *model.Account) error
	GetByID(ctx context.Context, id string) (*model.Account, error)
	GetByUsername(ctx context.Context, username string) (*model.Account, error)
	Update(ctx context.Context, account *model.Account) error
	List(ctx context.Context) ([]*model.Account, error)
}

// AccountService handles registration, authentication and account
// administration
type AccountService struct {
	accountRepo AccountRepository
	credentials CredentialVerifier
	now         func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// AccountServiceConfig holds configuration for the account service
type AccountServiceConfig struct {
	AccountRepo AccountRepository
	Credentials CredentialVerifier
	Now         func() time.Time // Default: time.Now
}

// NewAccountService creates a new account service
func NewAccountService(cfg AccountServiceConfig) *AccountService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Credentials == nil {
		cfg.Credentials = NewBcryptVerifier(DefaultBcryptCost)
	}
	return &AccountService{
		accountRepo: cfg.AccountRepo,
		credentials: cfg.Credentials,
		now:         cfg.Now,
	}
}

// AccountCandidate is the caller-supplied part of a new account
type AccountCandidate struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
	Age       int
	Password  *string
}

func (c AccountCandidate) toAccount() *model.Account {
	return &model.Account{
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Username:  c.Username,
		Email:     c.Email,
		Age:       c.Age,
	}
}

// Register creates a Standard account
func (s *AccountService) Register(ctx context.Context, candidate AccountCandidate) (*model.Account, error) {
	return s.create(ctx, candidate, model.RoleStandard)
}

// CreateAccountant creates an Accountant account on behalf of an accountant
func (s *AccountService) CreateAccountant(ctx context.Context, actor model.Actor, candidate AccountCandidate) (*model.Account, error) {
	if !policy.RequireAccountant(actor) {
		return nil, ErrAccountantRequired
	}
	return s.create(ctx, candidate, model.RoleAccountant)
}

func (s *AccountService) create(ctx context.Context, candidate AccountCandidate, role model.Role) (*model.Account, error) {
	account := candidate.toAccount()

	if result := model.ValidateAccountWithPassword(account, candidate.Password); !result.Valid {
		return nil, newValidationError(result)
	}

	existing, err := s.accountRepo.GetByUsername(ctx, account.Username)
	if err != nil {
		return nil, storageError("get account by username", err)
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	hash, err := s.credentials.Hash(*candidate.Password)
	if err != nil {
		return nil, storageError("hash password", err)
	}

	now := s.now().UTC()
	account.PasswordHash = hash
	account.Blocked = false
	account.Role = role
	account.CreatedOn = now
	account.UpdatedOn = now

	// The unique username index closes the race between lookup and insert
	if err := s.accountRepo.Create(ctx, account); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		return nil, storageError("create account", err)
	}

	return account, nil
}

// Authenticate checks a username and password
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (*model.Account, error) {
	account, err := s.accountRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, storageError("get account by username", err)
	}
	if account == nil {
		// Keep response time independent of whether the username exists
		s.credentials.Verify(password, s.dummyPasswordHash())
		return nil, ErrInvalidCredentials
	}

	if !s.credentials.Verify(password, account.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	if account.Blocked {
		return nil, ErrAccountBlocked
	}

	return account, nil
}

func (s *AccountService) dummyPasswordHash() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.credentials.Hash("lending-dummy-password")
	})
	return s.dummyHash
}

// SetBlocked blocks or unblocks an account
func (s *AccountService) SetBlocked(ctx context.Context, actor model.Actor, accountID string, blocked bool) (*model.Account, error) {
	if !policy.RequireAccountant(actor) {
		return nil, ErrAccountantRequired
	}

	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, storageError("get account", err)
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}

	account.Blocked = blocked
	account.UpdatedOn = s.now().UTC()

	if err := s.accountRepo.Update(ctx, account); err != nil {
		return nil, storageError("update account", err)
	}

	return account, nil
}

// List returns every account
func (s *AccountService) List(ctx context.Context, actor model.Actor) ([]*model.Account, error) {
	if !policy.RequireAccountant(actor) {
		return nil, ErrAccountantRequired
	}

	accounts, err := s.accountRepo.List(ctx)
	if err != nil {
		return nil, storageError("list accounts", err)
	}
	return accounts, nil
}

// Get returns an account. Actors may read their own account; accountants
// may read any.
func (s *AccountService) Get(ctx context.Context, actor model.Actor, accountID string) (*model.Account, error) {
	if actor.ID != accountID && !actor.IsAccountant() {
		return nil, ErrAccountAccessDenied
	}

	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, storageError("get account", err)
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	return account, nil
}
