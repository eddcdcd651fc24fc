package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/forgo/lending/api/internal/database"
	"github.com/forgo/lending/api/internal/model"
	"golang.org/x/crypto/bcrypt"
)

// Mock implementations

type mockAccountRepo struct {
	mu        sync.Mutex
	accounts  map[string]*model.Account
	seq       int
	createErr error
	getErr    error
	updateErr error
	listErr   error
	calls     int
}

func newMockAccountRepo() *mockAccountRepo {
	return &mockAccountRepo{accounts: make(map[string]*model.Account)}
}

func (m *mockAccountRepo) Create(ctx context.Context, account *model.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.createErr != nil {
		return m.createErr
	}
	for _, existing := range m.accounts {
		if existing.Username == account.Username {
			return database.ErrDuplicate
		}
	}
	m.seq++
	account.ID = fmt.Sprintf("account:%d", m.seq)
	stored := *account
	m.accounts[account.ID] = &stored
	return nil
}

func (m *mockAccountRepo) GetByID(ctx context.Context, id string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.getErr != nil {
		return nil, m.getErr
	}
	if a, ok := m.accounts[id]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, nil
}

func (m *mockAccountRepo) GetByUsername(ctx context.Context, username string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, a := range m.accounts {
		if a.Username == username {
			copied := *a
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *mockAccountRepo) Update(ctx context.Context, account *model.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.updateErr != nil {
		return m.updateErr
	}
	stored := *account
	m.accounts[account.ID] = &stored
	return nil
}

func (m *mockAccountRepo) List(ctx context.Context) ([]*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]*model.Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		copied := *a
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// put stores an account directly, bypassing validation
func (m *mockAccountRepo) put(a *model.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *a
	m.accounts[a.ID] = &stored
}

type mockLoanRepo struct {
	mu        sync.Mutex
	loans     map[string]*model.Loan
	seq       int
	createErr error
	getErr    error
	updateErr error
	deleteErr error
	listErr   error
	calls     int
}

func newMockLoanRepo() *mockLoanRepo {
	return &mockLoanRepo{loans: make(map[string]*model.Loan)}
}

func (m *mockLoanRepo) Create(ctx context.Context, loan *model.Loan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.createErr != nil {
		return m.createErr
	}
	m.seq++
	loan.ID = fmt.Sprintf("loan:%d", m.seq)
	stored := *loan
	m.loans[loan.ID] = &stored
	return nil
}

func (m *mockLoanRepo) GetByID(ctx context.Context, id string) (*model.Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.getErr != nil {
		return nil, m.getErr
	}
	if l, ok := m.loans[id]; ok {
		copied := *l
		return &copied, nil
	}
	return nil, nil
}

func (m *mockLoanRepo) ListByOwner(ctx context.Context, ownerID string) ([]*model.Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*model.Loan
	for _, l := range m.loans {
		if l.OwnerID == ownerID {
			copied := *l
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockLoanRepo) List(ctx context.Context) ([]*model.Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]*model.Loan, 0, len(m.loans))
	for _, l := range m.loans {
		copied := *l
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockLoanRepo) Update(ctx context.Context, loan *model.Loan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.updateErr != nil {
		return m.updateErr
	}
	stored := *loan
	m.loans[loan.ID] = &stored
	return nil
}

func (m *mockLoanRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.loans, id)
	return nil
}

func (m *mockLoanRepo) put(l *model.Loan) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *l
	m.loans[l.ID] = &stored
}

type mockRequestLogRepo struct {
	entries   []*model.RequestLog
	lastLimit int
	cutoff    time.Time
	err       error
}

func (m *mockRequestLogRepo) Create(ctx context.Context, entry *model.RequestLog) error {
	if m.err != nil {
		return m.err
	}
	entry.ID = fmt.Sprintf("request_log:%d", len(m.entries)+1)
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockRequestLogRepo) List(ctx context.Context, limit int) ([]*model.RequestLog, error) {
	m.lastLimit = limit
	if m.err != nil {
		return nil, m.err
	}
	if limit > len(m.entries) {
		limit = len(m.entries)
	}
	return m.entries[:limit], nil
}

func (m *mockRequestLogRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	m.cutoff = cutoff
	if m.err != nil {
		return 0, m.err
	}
	kept := m.entries[:0]
	deleted := 0
	for _, e := range m.entries {
		if e.CreatedOn.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	m.entries = kept
	return deleted, nil
}

// Test helpers

var fixedNow = time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func testVerifier() *BcryptVerifier {
	return NewBcryptVerifier(bcrypt.MinCost)
}

func strPtr(s string) *string { return &s }

func standardActor(id string) model.Actor {
	return model.Actor{ID: id, Role: model.RoleStandard}
}

func accountantActor(id string) model.Actor {
	return model.Actor{ID: id, Role: model.RoleAccountant}
}
