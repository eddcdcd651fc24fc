package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/forgo/lending/api/internal/database"
	"github.com/forgo/lending/api/internal/model"
	"github.com/shopspring/decimal"
)

// LoanRepository handles loan data access
type LoanRepository struct {
	db database.Database
}

// NewLoanRepository creates a new loan repository
func NewLoanRepository(db database.Database) *LoanRepository {
	return &LoanRepository{db: db}
}

// Create inserts a new loan. Amounts are stored as decimal strings.
func (r *LoanRepository) Create(ctx context.Context, loan *model.Loan) error {
	query := `
		CREATE loan CONTENT {
			owner: type::record($owner_id),
			category: $category,
			amount: $amount,
			currency: IF $currency IS NOT NULL THEN $currency ELSE NONE END,
			status: $status,
			created_on: time::now(),
			updated_on: time::now()
		}
	`

	vars := map[string]interface{}{
		"owner_id": loan.OwnerID,
		"category": string(loan.Category),
		"amount":   loan.Amount.String(),
		"currency": ptrToNone(loan.Currency),
		"status":   string(loan.Status),
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return err
	}

	created, err := unwrapRecord(firstOrNil(result))
	if err != nil {
		return err
	}

	loan.ID = convertSurrealID(created["id"])
	loan.CreatedOn = getTime(created, "created_on")
	loan.UpdatedOn = getTime(created, "updated_on")
	return nil
}

// GetByID retrieves a loan by ID
func (r *LoanRepository) GetByID(ctx context.Context, id string) (*model.Loan, error) {
	if !isRecordOf(id, tableLoan) {
		return nil, nil
	}

	result, err := r.db.QueryOne(ctx, `SELECT * FROM type::record($id)`, map[string]interface{}{"id": id})
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
	return parseLoan(data)
}

// ListByOwner returns the loans of one account, oldest first
func (r *LoanRepository) ListByOwner(ctx context.Context, ownerID string) ([]*model.Loan, error) {
	if !isRecordOf(ownerID, tableAccount) {
		return []*model.Loan{}, nil
	}

	query := `SELECT * FROM loan WHERE owner = type::record($owner_id) ORDER BY created_on ASC`
	return r.list(ctx, query, map[string]interface{}{"owner_id": ownerID})
}

// List returns every loan, oldest first
func (r *LoanRepository) List(ctx context.Context) ([]*model.Loan, error) {
	return r.list(ctx, `SELECT * FROM loan ORDER BY created_on ASC`, nil)
}

func (r *LoanRepository) list(ctx context.Context, query string, vars map[string]interface{}) ([]*model.Loan, error) {
	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}

	rows := extractQueryResults(result)
	loans := make([]*model.Loan, 0, len(rows))
	for _, row := range rows {
		loan, err := parseLoan(row)
		if err != nil {
			return nil, err
		}
		loans = append(loans, loan)
	}
	return loans, nil
}

// Update persists category, amount, currency and status
func (r *LoanRepository) Update(ctx context.Context, loan *model.Loan) error {
	query := `
		UPDATE type::record($id) SET
			category = $category,
			amount = $amount,
			currency = IF $currency IS NOT NULL THEN $currency ELSE NONE END,
			status = $status,
			updated_on = time::now()
	`

	vars := map[string]interface{}{
		"id":       loan.ID,
		"category": string(loan.Category),
		"amount":   loan.Amount.String(),
		"currency": ptrToNone(loan.Currency),
		"status":   string(loan.Status),
	}

	return r.db.Execute(ctx, query, vars)
}

// Delete removes a loan
func (r *LoanRepository) Delete(ctx context.Context, id string) error {
	return r.db.Execute(ctx, `DELETE type::record($id)`, map[string]interface{}{"id": id})
}

func parseLoan(data map[string]interface{}) (*model.Loan, error) {
	amount, err := decimal.NewFromString(getString(data, "amount"))
	if err != nil {
		return nil, fmt.Errorf("parse loan amount: %w", err)
	}

	return &model.Loan{
		ID:        convertSurrealID(data["id"]),
		OwnerID:   convertSurrealID(data["owner"]),
		Category:  model.LoanCategory(getString(data, "category")),
		Amount:    amount,
		Currency:  getStringPtr(data, "currency"),
		Status:    model.LoanStatus(getString(data, "status")),
		CreatedOn: getTime(data, "created_on"),
		UpdatedOn: getTime(data, "updated_on"),
	}, nil
}
