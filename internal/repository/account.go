package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/forgo/lending/api/internal/database"
	"github.com/forgo/lending/api/internal/model"
)

// AccountRepository handles account data access
type AccountRepository struct {
	db database.Database
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db database.Database) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create inserts a new account. The unique username index turns a
// concurrent duplicate into database.ErrDuplicate.
func (r *AccountRepository) Create(ctx context.Context, account *model.Account) error {
	query := `
		CREATE account CONTENT {
			first_name: $first_name,
			last_name: $last_name,
			username: $username,
			email: $email,
			age: $age,
			hash: $hash,
			blocked: $blocked,
			role: $role,
			created_on: time::now(),
			updated_on: time::now()
		}
	`

	vars := map[string]interface{}{
		"first_name": account.FirstName,
		"last_name":  account.LastName,
		"username":   account.Username,
		"email":      account.Email,
		"age":        account.Age,
		"hash":       account.PasswordHash,
		"blocked":    account.Blocked,
		"role":       string(account.Role),
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: username already exists", database.ErrDuplicate)
		}
		return err
	}

	created, err := unwrapRecord(firstOrNil(result))
	if err != nil {
		return err
	}

	account.ID = convertSurrealID(created["id"])
	account.CreatedOn = getTime(created, "created_on")
	account.UpdatedOn = getTime(created, "updated_on")
	return nil
}

// GetByID retrieves an account by ID
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*model.Account, error) {
	if !isRecordOf(id, tableAccount) {
		return nil, nil
	}

	query := `SELECT * FROM type::record($id)`
	vars := map[string]interface{}{"id": id}

	return r.getOne(ctx, query, vars)
}

// GetByUsername retrieves an account by username
func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*model.Account, error) {
	query := `SELECT * FROM account WHERE username = $username LIMIT 1`
	vars := map[string]interface{}{"username": username}

	return r.getOne(ctx, query, vars)
}

func (r *AccountRepository) getOne(ctx context.Context, query string, vars map[string]interface{}) (*model.Account, error) {
	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	data, err := unwrapRecord(result)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return parseAccount(data), nil
}

// Update persists the mutable fields of an account
func (r *AccountRepository) Update(ctx context.Context, account *model.Account) error {
	query := `
		UPDATE type::record($id) SET
			first_name = $first_name,
			last_name = $last_name,
			email = $email,
			age = $age,
			blocked = $blocked,
			role = $role,
			updated_on = time::now()
	`

	vars := map[string]interface{}{
		"id":         account.ID,
		"first_name": account.FirstName,
		"last_name":  account.LastName,
		"email":      account.Email,
		"age":        account.Age,
		"blocked":    account.Blocked,
		"role":       string(account.Role),
	}

	return r.db.Execute(ctx, query, vars)
}

// List returns every account, oldest first
func (r *AccountRepository) List(ctx context.Context) ([]*model.Account, error) {
	result, err := r.db.Query(ctx, `SELECT * FROM account ORDER BY created_on ASC`, nil)
	if err != nil {
		return nil, err
	}

	rows := extractQueryResults(result)
	accounts := make([]*model.Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, parseAccount(row))
	}
	return accounts, nil
}

func parseAccount(data map[string]interface{}) *model.Account {
	return &model.Account{
		ID:           convertSurrealID(data["id"]),
		FirstName:    getString(data, "first_name"),
		LastName:     getString(data, "last_name"),
		Username:     getString(data, "username"),
		Email:        getString(data, "email"),
		Age:          getInt(data, "age"),
		PasswordHash: getString(data, "hash"),
		Blocked:      getBool(data, "blocked"),
		Role:         model.Role(getString(data, "role")),
		CreatedOn:    getTime(data, "created_on"),
		UpdatedOn:    getTime(data, "updated_on"),
	}
}

func firstOrNil(result []interface{}) interface{} {
	if len(result) == 0 {
		return nil
	}
	return result[0]
}
