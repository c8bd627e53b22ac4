package handler

import (
	"net/http"
	"testing"

	"github.com/expense-tracker/backend/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpenseRoutes(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "alice", "a@x.com", "p1")
	bob := s.register(t, "bob", "b@x.com", "p2")

	w := s.do(http.MethodPost, "/api/expenses", map[string]any{"title": "Lunch", "amount": 0, "category": "Food"}, withBearer(alice.AccessToken))
	assertMessage(t, w, http.StatusBadRequest, invalidRecordMessage)

	w = s.do(http.MethodPost, "/api/expenses", map[string]any{"title": "Lunch", "amount": 12.5, "category": "Food"}, withBearer(alice.AccessToken))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id, _ := decode(t, w)["id"].(string)
	require.NotEmpty(t, id)

	w = s.do(http.MethodGet, "/api/expenses/"+id, nil, withBearer(bob.AccessToken))
	assertMessage(t, w, http.StatusForbidden, "not authorized")

	w = s.do(http.MethodDelete, "/api/expenses/"+id, nil, withBearer(bob.AccessToken))
	assertMessage(t, w, http.StatusForbidden, "not authorized")

	w = s.do(http.MethodGet, "/api/expenses/"+uuid.NewString(), nil, withBearer(alice.AccessToken))
	assertMessage(t, w, http.StatusNotFound, "expense not found")

	w = s.do(http.MethodGet, "/api/expenses/not-an-id", nil, withBearer(alice.AccessToken))
	assertMessage(t, w, http.StatusNotFound, "expense not found")

	w = s.do(http.MethodPut, "/api/expenses/"+id, map[string]any{"amount": 20}, withBearer(alice.AccessToken))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, 20.0, body["amount"])
	assert.Equal(t, "Lunch", body["title"])

	w = s.do(http.MethodPost, "/api/income", map[string]any{"title": "Salary", "amount": 100, "category": "Work"}, withBearer(alice.AccessToken))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/expenses/summary", nil, withBearer(alice.AccessToken))
	require.Equal(t, http.StatusOK, w.Code)
	summary := decode(t, w)
	assert.Equal(t, 100.0, summary["income"])
	assert.Equal(t, 20.0, summary["totalExpense"])
	assert.Equal(t, 80.0, summary["balance"])

	w = s.do(http.MethodGet, "/api/income/summary", nil, withBearer(alice.AccessToken))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 100.0, decode(t, w)["totalIncome"])

	w = s.do(http.MethodGet, "/api/expenses/categories", nil, withBearer(alice.AccessToken))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"_id":"Food","total":20}]`, w.Body.String())

	w = s.do(http.MethodGet, "/api/expenses/recent", nil, withBearer(bob.AccessToken))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = s.do(http.MethodDelete, "/api/expenses/"+id, nil, withBearer(alice.AccessToken))
	assertMessage(t, w, http.StatusOK, "expense deleted")
}

func TestExpenseRecordValidation(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "alice", "a@x.com", "p1")

	w := s.do(http.MethodPost, "/api/expenses", map[string]any{"title": "Lunch", "amount": 12.5, "category": "Food", "date": "2024-01-05"}, withBearer(alice.AccessToken))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "2024-01-05T00:00:00Z", decode(t, w)["date"])

	w = s.do(http.MethodPost, "/api/income", map[string]any{"title": "Salary", "amount": 100, "category": "Work", "date": "2024-01-05T09:30:00+02:00"}, withBearer(alice.AccessToken))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/expenses", map[string]any{"title": "Lunch", "amount": 12.5, "category": "Food", "date": "05/01/2024"}, withBearer(alice.AccessToken))
	assertMessage(t, w, http.StatusBadRequest, model.ErrInvalidDate.Error())

	w = s.do(http.MethodPost, "/api/expenses", map[string]any{"title": "Lunch", "amount": 0.001, "category": "Food"}, withBearer(alice.AccessToken))
	assertMessage(t, w, http.StatusBadRequest, "amount must be at least 0.01")

	w = s.do(http.MethodPost, "/api/income", map[string]any{"title": "Salary", "amount": 1e12, "category": "Work"}, withBearer(alice.AccessToken))
	assertMessage(t, w, http.StatusBadRequest, "amount is too large")
}
