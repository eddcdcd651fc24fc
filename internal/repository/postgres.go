package repository

import (
	"context"
	"errors"
	"time"

	"github.com/forgo/lending/api/internal/database"
	"github.com/forgo/lending/api/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PostgreSQL repositories. Row IDs are UUIDs generated here so the
// returned IDs never depend on the database clock or sequence.

const accountColumns = `id, first_name, last_name, username, email, age, hash, blocked, role, created_on, updated_on`

// PostgresAccountRepository is the PostgreSQL implementation of account storage
type PostgresAccountRepository struct {
	db *pgxpool.Pool
}

// NewPostgresAccountRepository creates a new PostgresAccountRepository
func NewPostgresAccountRepository(db *pgxpool.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{db: db}
}

// Create inserts a new account
func (r *PostgresAccountRepository) Create(ctx context.Context, account *model.Account) error {
	query := `
		INSERT INTO accounts (id, first_name, last_name, username, email, age, hash, blocked, role)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_on, updated_on
	`
	id := uuid.New()
	err := r.db.QueryRow(ctx, query,
		id,
		account.FirstName,
		account.LastName,
		account.Username,
		account.Email,
		account.Age,
		account.PasswordHash,
		account.Blocked,
		string(account.Role),
	).Scan(&account.CreatedOn, &account.UpdatedOn)
	if err != nil {
		return database.TranslateError(err)
	}

	account.ID = id.String()
	return nil
}

// GetByID retrieves an account by ID
func (r *PostgresAccountRepository) GetByID(ctx context.Context, id string) (*model.Account, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, parsed)
	return scanAccount(row)
}

// GetByUsername retrieves an account by username
func (r *PostgresAccountRepository) GetByUsername(ctx context.Context, username string) (*model.Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE username = $1`, username)
	return scanAccount(row)
}

// Update persists the mutable fields of an account
func (r *PostgresAccountRepository) Update(ctx context.Context, account *model.Account) error {
	query := `
		UPDATE accounts SET
			first_name = $2, last_name = $3, email = $4, age = $5,
			blocked = $6, role = $7, updated_on = NOW()
		WHERE id = $1
	`
	_, err := r.db.Exec(ctx, query,
		account.ID,
		account.FirstName,
		account.LastName,
		account.Email,
		account.Age,
		account.Blocked,
		string(account.Role),
	)
	return database.TranslateError(err)
}

// List returns every account, oldest first
func (r *PostgresAccountRepository) List(ctx context.Context) ([]*model.Account, error) {
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY created_on ASC`)
	if err != nil {
		return nil, database.TranslateError(err)
	}
	defer rows.Close()

	accounts := []*model.Account{}
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, database.TranslateError(err)
	}
	return accounts, nil
}

func scanAccount(row pgx.Row) (*model.Account, error) {
	var (
		a    model.Account
		id   uuid.UUID
		role string
	)
	err := row.Scan(&id, &a.FirstName, &a.LastName, &a.Username, &a.Email, &a.Age,
		&a.PasswordHash, &a.Blocked, &role, &a.CreatedOn, &a.UpdatedOn)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, database.TranslateError(err)
	}
	a.ID = id.String()
	a.Role = model.Role(role)
	return &a, nil
}

const loanColumns = `id, owner_id, category, amount::text, currency, status, created_on, updated_on`

// PostgresLoanRepository is the PostgreSQL implementation of loan storage
type PostgresLoanRepository struct {
	db *pgxpool.Pool
}

// NewPostgresLoanRepository creates a new PostgresLoanRepository
func NewPostgresLoanRepository(db *pgxpool.Pool) *PostgresLoanRepository {
	return &PostgresLoanRepository{db: db}
}

// Create inserts a new loan
func (r *PostgresLoanRepository) Create(ctx context.Context, loan *model.Loan) error {
	owner, err := uuid.Parse(loan.OwnerID)
	if err != nil {
		return database.ErrNotFound
	}

	query := `
		INSERT INTO loans (id, owner_id, category, amount, currency, status)
		VALUES ($1, $2, $3, $4::numeric, $5, $6)
		RETURNING created_on, updated_on
	`
	id := uuid.New()
	err = r.db.QueryRow(ctx, query,
		id,
		owner,
		string(loan.Category),
		loan.Amount.String(),
		loan.Currency,
		string(loan.Status),
	).Scan(&loan.CreatedOn, &loan.UpdatedOn)
	if err != nil {
		return database.TranslateError(err)
	}

	loan.ID = id.String()
	return nil
}

// GetByID retrieves a loan by ID
func (r *PostgresLoanRepository) GetByID(ctx context.Context, id string) (*model.Loan, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}
	row := r.db.QueryRow(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = $1`, parsed)
	return scanLoan(row)
}

// ListByOwner returns the loans of one account, oldest first
func (r *PostgresLoanRepository) ListByOwner(ctx context.Context, ownerID string) ([]*model.Loan, error) {
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return []*model.Loan{}, nil
	}
	return r.list(ctx, `SELECT `+loanColumns+` FROM loans WHERE owner_id = $1 ORDER BY created_on ASC`, owner)
}

// List returns every loan, oldest first
func (r *PostgresLoanRepository) List(ctx context.Context) ([]*model.Loan, error) {
	return r.list(ctx, `SELECT `+loanColumns+` FROM loans ORDER BY created_on ASC`)
}

func (r *PostgresLoanRepository) list(ctx context.Context, query string, args ...interface{}) ([]*model.Loan, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, database.TranslateError(err)
	}
	defer rows.Close()

	loans := []*model.Loan{}
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, loan)
	}
	if err := rows.Err(); err != nil {
		return nil, database.TranslateError(err)
	}
	return loans, nil
}

// Update persists category, amount, currency and status
func (r *PostgresLoanRepository) Update(ctx context.Context, loan *model.Loan) error {
	query := `
		UPDATE loans SET
			category = $2, amount = $3::numeric, currency = $4, status = $5, updated_on = NOW()
		WHERE id = $1
	`
	_, err := r.db.Exec(ctx, query,
		loan.ID,
		string(loan.Category),
		loan.Amount.String(),
		loan.Currency,
		string(loan.Status),
	)
	return database.TranslateError(err)
}

// Delete removes a loan
func (r *PostgresLoanRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM loans WHERE id = $1`, id)
	return database.TranslateError(err)
}

func scanLoan(row pgx.Row) (*model.Loan, error) {
	var (
		l                        model.Loan
		id, owner                uuid.UUID
		category, amount, status string
	)
	err := row.Scan(&id, &owner, &category, &amount, &l.Currency, &status, &l.CreatedOn, &l.UpdatedOn)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, database.TranslateError(err)
	}

	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, err
	}

	l.ID = id.String()
	l.OwnerID = owner.String()
	l.Category = model.LoanCategory(category)
	l.Amount = parsed
	l.Status = model.LoanStatus(status)
	return &l, nil
}

// PostgresRequestLogRepository is the PostgreSQL implementation of request log storage
type PostgresRequestLogRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRequestLogRepository creates a new PostgresRequestLogRepository
func NewPostgresRequestLogRepository(db *pgxpool.Pool) *PostgresRequestLogRepository {
	return &PostgresRequestLogRepository{db: db}
}

// Create inserts a log entry
func (r *PostgresRequestLogRepository) Create(ctx context.Context, entry *model.RequestLog) error {
	query := `
		INSERT INTO request_logs (id, level, message, method, endpoint, status, actor_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_on
	`
	id := uuid.New()
	err := r.db.QueryRow(ctx, query,
		id,
		string(entry.Level),
		entry.Message,
		entry.Method,
		entry.Endpoint,
		entry.Status,
		entry.ActorID,
	).Scan(&entry.CreatedOn)
	if err != nil {
		return database.TranslateError(err)
	}
	entry.ID = id.String()
	return nil
}

// List returns the newest entries first
func (r *PostgresRequestLogRepository) List(ctx context.Context, limit int) ([]*model.RequestLog, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, level, message, method, endpoint, status, actor_id, created_on
		FROM request_logs ORDER BY created_on DESC LIMIT $1`, limit)
	if err != nil {
		return nil, database.TranslateError(err)
	}
	defer rows.Close()

	entries := []*model.RequestLog{}
	for rows.Next() {
		var (
			e     model.RequestLog
			id    uuid.UUID
			level string
		)
		if err := rows.Scan(&id, &level, &e.Message, &e.Method, &e.Endpoint, &e.Status, &e.ActorID, &e.CreatedOn); err != nil {
			return nil, database.TranslateError(err)
		}
		e.ID = id.String()
		e.Level = model.RequestLogLevel(level)
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, database.TranslateError(err)
	}
	return entries, nil
}

// DeleteOlderThan removes entries created before cutoff
func (r *PostgresRequestLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM request_logs WHERE created_on < $1`, cutoff)
	if err != nil {
		return 0, database.TranslateError(err)
	}
	return int(tag.RowsAffected()), nil
}
