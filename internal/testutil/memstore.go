// Package testutil provides in-memory stand-ins for the Postgres, Redis and
// file storage layers so services and handlers can be tested without them.
package testutil

import (
	"context"
	"io"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/expense-tracker/backend/internal/db"
	"github.com/expense-tracker/backend/internal/model"
	"github.com/google/uuid"
)

// MemStore mirrors the behavior of db.Postgres, including the unique
// constraints on email and username and the cascade from users to records.
type MemStore struct {
	mu       sync.Mutex
	users    map[uuid.UUID]model.User
	expenses []model.Expense
	incomes  []model.Income
	revoked  map[string]time.Time

	RevocationTTL time.Duration
	Now           func() time.Time

	// Fail* errors are returned by the matching method when set.
	FailDeleteExpenses error
	FailDeleteIncomes  error
	FailDeleteUser     error
	FailIsRevoked      error
	FailRevoke         error
}

func NewMemStore() *MemStore {
	return &MemStore{
		users:         map[uuid.UUID]model.User{},
		revoked:       map[string]time.Time{},
		RevocationTTL: time.Hour,
		Now:           time.Now,
	}
}

func (m *MemStore) CreateUser(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == user.Email {
			return &db.DuplicateError{Constraint: db.ConstraintUsersEmail}
		}
		if u.Username == user.Username {
			return &db.DuplicateError{Constraint: db.ConstraintUsersUsername}
		}
	}
	now := m.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	m.users[user.ID] = *user
	return nil
}

func (m *MemStore) GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return m.findUser(func(u model.User) bool { return u.ID == id })
}

func (m *MemStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return m.findUser(func(u model.User) bool { return u.Email == email })
}

func (m *MemStore) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return m.findUser(func(u model.User) bool { return u.Username == username })
}

func (m *MemStore) GetUserByRefreshTokenHash(ctx context.Context, tokenHash string) (*model.User, error) {
	return m.findUser(func(u model.User) bool {
		return u.RefreshTokenHash != nil && *u.RefreshTokenHash == tokenHash
	})
}

func (m *MemStore) SetRefreshTokenHash(ctx context.Context, userID uuid.UUID, tokenHash *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return db.ErrNotFound
	}
	u.RefreshTokenHash = copyString(tokenHash)
	m.users[userID] = u
	return nil
}

func (m *MemStore) ClearRefreshTokenHash(ctx context.Context, tokenHash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, u := range m.users {
		if u.RefreshTokenHash != nil && *u.RefreshTokenHash == tokenHash {
			u.RefreshTokenHash = nil
			m.users[id] = u
			return true, nil
		}
	}
	return false, nil
}

func (m *MemStore) UpdateUserProfile(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.users[user.ID]
	if !ok {
		return db.ErrNotFound
	}
	for _, u := range m.users {
		if u.ID != user.ID && u.Username == user.Username {
			return &db.DuplicateError{Constraint: db.ConstraintUsersUsername}
		}
	}
	stored.Username = user.Username
	stored.PasswordHash = user.PasswordHash
	stored.Photo = copyString(user.Photo)
	stored.UpdatedAt = m.Now()
	user.UpdatedAt = stored.UpdatedAt
	m.users[user.ID] = stored
	return nil
}

func (m *MemStore) DeleteUser(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailDeleteUser != nil {
		return m.FailDeleteUser
	}
	if _, ok := m.users[id]; !ok {
		return db.ErrNotFound
	}
	delete(m.users, id)
	m.expenses = filterExpenses(m.expenses, func(e model.Expense) bool { return e.UserID != id })
	m.incomes = filterIncomes(m.incomes, func(i model.Income) bool { return i.UserID != id })
	return nil
}

// UserCount is used by tests to assert on account state.
func (m *MemStore) UserCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

func (m *MemStore) findUser(match func(model.User) bool) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if match(u) {
			found := u
			found.RefreshTokenHash = copyString(u.RefreshTokenHash)
			found.Photo = copyString(u.Photo)
			return &found, nil
		}
	}
	return nil, db.ErrNotFound
}

// Expenses

func (m *MemStore) InsertExpense(ctx context.Context, e *model.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := checkAmount(e.Amount); err != nil {
		return err
	}

	if _, ok := m.users[e.UserID]; !ok {
		return db.ErrNotFound
	}
	now := m.Now()
	e.CreatedAt = now
	e.UpdatedAt = now
	m.expenses = append(m.expenses, *e)
	return nil
}

func (m *MemStore) ListExpenses(ctx context.Context, userID uuid.UUID, limit int) ([]model.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := []model.Expense{}
	for i := len(m.expenses) - 1; i >= 0; i-- {
		if m.expenses[i].UserID == userID {
			list = append(list, m.expenses[i])
		}
		if limit > 0 && len(list) == limit {
			break
		}
	}
	return list, nil
}

func (m *MemStore) GetExpense(ctx context.Context, id uuid.UUID) (*model.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.expenses {
		if e.ID == id {
			found := e
			return &found, nil
		}
	}
	return nil, db.ErrNotFound
}

func (m *MemStore) UpdateExpense(ctx context.Context, e *model.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := checkAmount(e.Amount); err != nil {
		return err
	}

	for i := range m.expenses {
		if m.expenses[i].ID == e.ID {
			e.UpdatedAt = m.Now()
			m.expenses[i] = *e
			return nil
		}
	}
	return db.ErrNotFound
}

func (m *MemStore) DeleteExpense(ctx context.Context, id, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	before := len(m.expenses)
	m.expenses = filterExpenses(m.expenses, func(e model.Expense) bool {
		return e.ID != id || e.UserID != userID
	})
	if len(m.expenses) == before {
		return db.ErrNotFound
	}
	return nil
}

func (m *MemStore) SumExpenses(ctx context.Context, userID uuid.UUID) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var total float64
	for _, e := range m.expenses {
		if e.UserID == userID {
			total += e.Amount
		}
	}
	return total, nil
}

func (m *MemStore) ExpenseTotalsByCategory(ctx context.Context, userID uuid.UUID) ([]model.CategoryTotal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	byCategory := map[string]float64{}
	for _, e := range m.expenses {
		if e.UserID == userID {
			byCategory[e.Category] += e.Amount
		}
	}
	totals := []model.CategoryTotal{}
	for category, total := range byCategory {
		totals = append(totals, model.CategoryTotal{Category: category, Total: total})
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Category < totals[j].Category })
	return totals, nil
}

func (m *MemStore) DeleteExpensesByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailDeleteExpenses != nil {
		return 0, m.FailDeleteExpenses
	}
	before := len(m.expenses)
	m.expenses = filterExpenses(m.expenses, func(e model.Expense) bool { return e.UserID != userID })
	return int64(before - len(m.expenses)), nil
}

// Incomes

func (m *MemStore) InsertIncome(ctx context.Context, i *model.Income) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := checkAmount(i.Amount); err != nil {
		return err
	}

	if _, ok := m.users[i.UserID]; !ok {
		return db.ErrNotFound
	}
	now := m.Now()
	i.CreatedAt = now
	i.UpdatedAt = now
	m.incomes = append(m.incomes, *i)
	return nil
}

func (m *MemStore) ListIncomes(ctx context.Context, userID uuid.UUID) ([]model.Income, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := []model.Income{}
	for i := len(m.incomes) - 1; i >= 0; i-- {
		if m.incomes[i].UserID == userID {
			list = append(list, m.incomes[i])
		}
	}
	return list, nil
}

func (m *MemStore) SumIncomes(ctx context.Context, userID uuid.UUID) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var total float64
	for _, i := range m.incomes {
		if i.UserID == userID {
			total += i.Amount
		}
	}
	return total, nil
}

func (m *MemStore) DeleteIncomesByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailDeleteIncomes != nil {
		return 0, m.FailDeleteIncomes
	}
	before := len(m.incomes)
	m.incomes = filterIncomes(m.incomes, func(i model.Income) bool { return i.UserID != userID })
	return int64(before - len(m.incomes)), nil
}

// RecordCount returns how many expenses and incomes userID still owns.
func (m *MemStore) RecordCount(userID uuid.UUID) (expenses, incomes int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.expenses {
		if e.UserID == userID {
			expenses++
		}
	}
	for _, i := range m.incomes {
		if i.UserID == userID {
			incomes++
		}
	}
	return expenses, incomes
}

// Revocation list

func (m *MemStore) Revoke(ctx context.Context, tokenHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailRevoke != nil {
		return m.FailRevoke
	}

	now := m.Now()
	for hash, expiresAt := range m.revoked {
		if !expiresAt.After(now) {
			delete(m.revoked, hash)
		}
	}
	m.revoked[tokenHash] = now.Add(m.RevocationTTL)
	return nil
}

func (m *MemStore) IsRevoked(ctx context.Context, tokenHash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailIsRevoked != nil {
		return false, m.FailIsRevoked
	}
	expiresAt, ok := m.revoked[tokenHash]
	return ok && expiresAt.After(m.Now()), nil
}

// MemFiles is an in-memory storage.FileStore.
type MemFiles struct {
	mu    sync.Mutex
	files map[string][]byte

	FailSave error
}

func NewMemFiles() *MemFiles {
	return &MemFiles{files: map[string][]byte{}}
}

func (f *MemFiles) Save(ctx context.Context, name, contentType string, body io.Reader) (string, error) {
	if f.FailSave != nil {
		return "", f.FailSave
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	ref := "/uploads/" + name
	f.files[ref] = data
	return ref, nil
}

func (f *MemFiles) Delete(ctx context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, ref)
	return nil
}

func (f *MemFiles) Has(ref string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.files[ref]
	return ok
}

func (f *MemFiles) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.files)
}

// checkAmount mirrors the NUMERIC(14,2) amount column and its CHECK (amount > 0).
func checkAmount(amount float64) error {
	cents := math.Round(amount * 100)
	if cents <= 0 || cents >= 1e14 {
		return db.ErrInvalidValue
	}
	return nil
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.Clone(*s)
	return &v
}

func filterExpenses(list []model.Expense, keep func(model.Expense) bool) []model.Expense {
	out := list[:0]
	for _, e := range list {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

func filterIncomes(list []model.Income, keep func(model.Income) bool) []model.Income {
	out := list[:0]
	for _, i := range list {
		if keep(i) {
			out = append(out, i)
		}
	}
	return out
}
