package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/expense-tracker/backend/internal/db"
	"github.com/expense-tracker/backend/internal/model"
	"github.com/expense-tracker/backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord(title string, amount float64) model.RecordRequest {
	return model.RecordRequest{Title: title, Amount: amount, Category: "Food"}
}

func newRecordFixture(t *testing.T) (*testutil.MemStore, uuid.UUID, uuid.UUID) {
	t.Helper()
	store := testutil.NewMemStore()
	owner := &model.User{ID: uuid.New(), Username: "ann", Email: "ann@example.com"}
	other := &model.User{ID: uuid.New(), Username: "bob", Email: "bob@example.com"}
	require.NoError(t, store.CreateUser(context.Background(), owner))
	require.NoError(t, store.CreateUser(context.Background(), other))
	return store, owner.ID, other.ID
}

func TestExpenseCreateDefaultsDate(t *testing.T) {
	store, owner, _ := newRecordFixture(t)
	svc := NewExpenseService(store)
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	e, err := svc.Create(context.Background(), owner, testRecord(" Lunch ", 12.5))
	require.NoError(t, err)
	assert.Equal(t, "Lunch", e.Title)
	assert.Equal(t, fixed, e.Date)
	assert.Equal(t, owner, e.UserID)
}

func TestExpenseCreateValidation(t *testing.T) {
	store, owner, _ := newRecordFixture(t)
	svc := NewExpenseService(store)

	_, err := svc.Create(context.Background(), owner, testRecord("", 10))
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Create(context.Background(), owner, testRecord("Lunch", 0))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRecordAmountBounds(t *testing.T) {
	ctx := context.Background()
	store, owner, _ := newRecordFixture(t)
	expenses := NewExpenseService(store)
	incomes := NewIncomeService(store)

	tests := []struct {
		amount  float64
		message string
	}{
		{0.001, "amount must be at least 0.01"},
		{0.004, "amount must be at least 0.01"},
		{1e12, "amount is too large"},
		{5e15, "amount is too large"},
	}
	for _, tc := range tests {
		_, err := expenses.Create(ctx, owner, testRecord("Lunch", tc.amount))
		assertKind(t, err, ErrInvalidInput, tc.message)
		_, err = incomes.Create(ctx, owner, testRecord("Salary", tc.amount))
		assertKind(t, err, ErrInvalidInput, tc.message)
	}

	e, err := expenses.Create(ctx, owner, testRecord("Lunch", 0.01))
	require.NoError(t, err)
	_, err = expenses.Create(ctx, owner, testRecord("Car", 999999999999.99))
	require.NoError(t, err)

	_, err = expenses.Update(ctx, owner, e.ID, model.UpdateExpenseRequest{Amount: 0.001})
	assertKind(t, err, ErrInvalidInput, "amount must be at least 0.01")
	_, err = expenses.Update(ctx, owner, e.ID, model.UpdateExpenseRequest{Amount: 1e12})
	assertKind(t, err, ErrInvalidInput, "amount is too large")
}

func TestRecordWriteErrorMapsRejectedValues(t *testing.T) {
	err := recordWriteError(fmt.Errorf("%w: numeric field overflow", db.ErrInvalidValue))
	assertKind(t, err, ErrInvalidInput, "invalid amount")

	other := errors.New("connection reset")
	assert.Same(t, other, recordWriteError(other))
}

func TestRecordDateFormats(t *testing.T) {
	ctx := context.Background()
	store, owner, _ := newRecordFixture(t)
	svc := NewExpenseService(store)

	var day model.Date
	require.NoError(t, day.UnmarshalJSON([]byte(`"2024-01-05"`)))
	req := testRecord("Lunch", 10)
	req.Date = &day

	e, err := svc.Create(ctx, owner, req)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), e.Date)
}

func TestExpenseOwnership(t *testing.T) {
	ctx := context.Background()
	store, owner, other := newRecordFixture(t)
	svc := NewExpenseService(store)

	e, err := svc.Create(ctx, owner, testRecord("Lunch", 12))
	require.NoError(t, err)

	_, err = svc.Get(ctx, other, e.ID)
	assertKind(t, err, ErrForbidden, "not authorized")
	_, err = svc.Update(ctx, other, e.ID, model.UpdateExpenseRequest{Title: "Stolen"})
	assertKind(t, err, ErrForbidden, "not authorized")
	err = svc.Delete(ctx, other, e.ID)
	assertKind(t, err, ErrForbidden, "not authorized")

	_, err = svc.Get(ctx, owner, uuid.New())
	assertKind(t, err, ErrNotFound, "expense not found")
}

func TestExpenseUpdateIsPartial(t *testing.T) {
	ctx := context.Background()
	store, owner, _ := newRecordFixture(t)
	svc := NewExpenseService(store)

	e, err := svc.Create(ctx, owner, model.RecordRequest{Title: "Lunch", Amount: 12, Category: "Food", Description: "tacos"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, owner, e.ID, model.UpdateExpenseRequest{Amount: 20})
	require.NoError(t, err)
	assert.Equal(t, "Lunch", updated.Title)
	assert.Equal(t, 20.0, updated.Amount)
	assert.Equal(t, "tacos", updated.Description)

	require.NoError(t, svc.Delete(ctx, owner, e.ID))
	_, err = svc.Get(ctx, owner, e.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExpenseSummaryAndCategories(t *testing.T) {
	ctx := context.Background()
	store, owner, _ := newRecordFixture(t)
	expenses := NewExpenseService(store)
	incomes := NewIncomeService(store)

	_, err := incomes.Create(ctx, owner, model.RecordRequest{Title: "Salary", Amount: 1000, Category: "Work"})
	require.NoError(t, err)
	_, err = expenses.Create(ctx, owner, testRecord("Lunch", 10))
	require.NoError(t, err)
	_, err = expenses.Create(ctx, owner, model.RecordRequest{Title: "Bus", Amount: 5, Category: "Transport"})
	require.NoError(t, err)
	_, err = expenses.Create(ctx, owner, testRecord("Dinner", 20))
	require.NoError(t, err)

	summary, err := expenses.Summary(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, model.Summary{Income: 1000, TotalExpense: 35, Balance: 965}, *summary)

	categories, err := expenses.Categories(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, []model.CategoryTotal{{Category: "Food", Total: 30}, {Category: "Transport", Total: 5}}, categories)

	incomeSummary, err := incomes.Summary(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, incomeSummary.TotalIncome)
}

func TestExpenseRecentLimit(t *testing.T) {
	ctx := context.Background()
	store, owner, _ := newRecordFixture(t)
	svc := NewExpenseService(store)

	for i := 0; i < 7; i++ {
		_, err := svc.Create(ctx, owner, testRecord("Item", float64(i+1)))
		require.NoError(t, err)
	}

	recent, err := svc.Recent(ctx, owner)
	require.NoError(t, err)
	require.Len(t, recent, 5)
	assert.Equal(t, 7.0, recent[0].Amount)

	all, err := svc.List(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, all, 7)
}
