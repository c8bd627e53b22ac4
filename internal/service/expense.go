package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/expense-tracker/backend/internal/db"
	"github.com/expense-tracker/backend/internal/model"
	"github.com/google/uuid"
)

const recentExpenseLimit = 5

type expenseRepo interface {
	InsertExpense(ctx context.Context, e *model.Expense) error
	ListExpenses(ctx context.Context, userID uuid.UUID, limit int) ([]model.Expense, error)
	GetExpense(ctx context.Context, id uuid.UUID) (*model.Expense, error)
	UpdateExpense(ctx context.Context, e *model.Expense) error
	DeleteExpense(ctx context.Context, id, userID uuid.UUID) error
	SumExpenses(ctx context.Context, userID uuid.UUID) (float64, error)
	ExpenseTotalsByCategory(ctx context.Context, userID uuid.UUID) ([]model.CategoryTotal, error)
	SumIncomes(ctx context.Context, userID uuid.UUID) (float64, error)
}

type ExpenseService struct {
	repo expenseRepo
	now  func() time.Time
}

func NewExpenseService(repo expenseRepo) *ExpenseService {
	return &ExpenseService{repo: repo, now: time.Now}
}

func (s *ExpenseService) Create(ctx context.Context, userID uuid.UUID, req model.RecordRequest) (*model.Expense, error) {
	if err := validateRecord(req); err != nil {
		return nil, err
	}

	e := &model.Expense{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       strings.TrimSpace(req.Title),
		Amount:      req.Amount,
		Category:    strings.TrimSpace(req.Category),
		Date:        recordDate(req.Date, s.now),
		Description: req.Description,
	}
	if err := s.repo.InsertExpense(ctx, e); err != nil {
		return nil, recordWriteError(err)
	}
	return e, nil
}

func (s *ExpenseService) List(ctx context.Context, userID uuid.UUID) ([]model.Expense, error) {
	return s.repo.ListExpenses(ctx, userID, 0)
}

func (s *ExpenseService) Recent(ctx context.Context, userID uuid.UUID) ([]model.Expense, error) {
	return s.repo.ListExpenses(ctx, userID, recentExpenseLimit)
}

// Get returns the expense only when userID owns it.
func (s *ExpenseService) Get(ctx context.Context, userID, id uuid.UUID) (*model.Expense, error) {
	e, err := s.repo.GetExpense(ctx, id)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, newError(ErrNotFound, "expense not found")
		}
		return nil, err
	}
	if e.UserID != userID {
		return nil, newError(ErrForbidden, "not authorized")
	}
	return e, nil
}

// Update applies the non-empty fields of req to an owned expense.
func (s *ExpenseService) Update(ctx context.Context, userID, id uuid.UUID, req model.UpdateExpenseRequest) (*model.Expense, error) {
	e, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if title := strings.TrimSpace(req.Title); title != "" {
		e.Title = title
	}
	if req.Amount != 0 {
		if err := validateAmount(req.Amount); err != nil {
			return nil, err
		}
		e.Amount = req.Amount
	}
	if category := strings.TrimSpace(req.Category); category != "" {
		e.Category = category
	}
	if req.Date != nil && !req.Date.IsZero() {
		e.Date = req.Date.Time
	}
	if req.Description != "" {
		e.Description = req.Description
	}

	if err := s.repo.UpdateExpense(ctx, e); err != nil {
		if db.IsNoRows(err) {
			return nil, newError(ErrNotFound, "expense not found")
		}
		return nil, recordWriteError(err)
	}
	return e, nil
}

func (s *ExpenseService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.DeleteExpense(ctx, id, userID); err != nil {
		if db.IsNoRows(err) {
			return newError(ErrNotFound, "expense not found")
		}
		return err
	}
	return nil
}

func (s *ExpenseService) Summary(ctx context.Context, userID uuid.UUID) (*model.Summary, error) {
	income, err := s.repo.SumIncomes(ctx, userID)
	if err != nil {
		return nil, err
	}
	expense, err := s.repo.SumExpenses(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &model.Summary{
		Income:       income,
		TotalExpense: expense,
		Balance:      income - expense,
	}, nil
}

func (s *ExpenseService) Categories(ctx context.Context, userID uuid.UUID) ([]model.CategoryTotal, error) {
	return s.repo.ExpenseTotalsByCategory(ctx, userID)
}

// maxAmount is the first value that no longer fits NUMERIC(14,2).
const maxAmount = 1e12

func validateRecord(req model.RecordRequest) error {
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Category) == "" {
		return newError(ErrInvalidInput, "title, amount and category are required")
	}
	return validateAmount(req.Amount)
}

// validateAmount rejects amounts the column would round to zero or overflow.
func validateAmount(amount float64) error {
	if math.Round(amount*100) < 1 {
		return newError(ErrInvalidInput, "amount must be at least 0.01")
	}
	if amount >= maxAmount {
		return newError(ErrInvalidInput, "amount is too large")
	}
	return nil
}

func recordWriteError(err error) error {
	if errors.Is(err, db.ErrInvalidValue) {
		return newError(ErrInvalidInput, "invalid amount")
	}
	return err
}

func recordDate(date *model.Date, now func() time.Time) time.Time {
	if date == nil || date.IsZero() {
		return now().UTC()
	}
	return date.Time
}
