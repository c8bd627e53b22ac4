package handler

import (
	"errors"
	"net/http"

	"github.com/expense-tracker/backend/internal/model"
	"github.com/expense-tracker/backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const invalidRecordMessage = "title, category and a positive amount are required"

type ExpenseHandler struct {
	svc    *service.ExpenseService
	logger *zap.Logger
}

func NewExpenseHandler(svc *service.ExpenseService, logger *zap.Logger) *ExpenseHandler {
	return &ExpenseHandler{svc: svc, logger: logger}
}

// CreateExpense godoc
// @Summary Add an expense
// @Tags expenses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.RecordRequest true "Expense"
// @Success 201 {object} model.Expense
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Router /api/expenses [post]
func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	var req model.RecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortRecordBind(c, err, invalidRecordMessage)
		return
	}

	e, err := h.svc.Create(c.Request.Context(), GetAuthUser(c).ID, req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

// GetExpenses godoc
// @Summary List expenses, newest first
// @Tags expenses
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Expense
// @Failure 401 {object} model.ErrorResponse
// @Router /api/expenses [get]
func (h *ExpenseHandler) GetExpenses(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), GetAuthUser(c).ID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetSummary godoc
// @Summary Income, expense and balance totals
// @Tags expenses
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.Summary
// @Failure 401 {object} model.ErrorResponse
// @Router /api/expenses/summary [get]
func (h *ExpenseHandler) GetSummary(c *gin.Context) {
	summary, err := h.svc.Summary(c.Request.Context(), GetAuthUser(c).ID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetRecent godoc
// @Summary Five most recent expenses
// @Tags expenses
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Expense
// @Failure 401 {object} model.ErrorResponse
// @Router /api/expenses/recent [get]
func (h *ExpenseHandler) GetRecent(c *gin.Context) {
	list, err := h.svc.Recent(c.Request.Context(), GetAuthUser(c).ID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetCategories godoc
// @Summary Expense totals grouped by category
// @Tags expenses
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.CategoryTotal
// @Failure 401 {object} model.ErrorResponse
// @Router /api/expenses/categories [get]
func (h *ExpenseHandler) GetCategories(c *gin.Context) {
	totals, err := h.svc.Categories(c.Request.Context(), GetAuthUser(c).ID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, totals)
}

// GetExpense godoc
// @Summary Get one expense
// @Tags expenses
// @Produce json
// @Security BearerAuth
// @Param id path string true "Expense ID"
// @Success 200 {object} model.Expense
// @Failure 403 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/expenses/{id} [get]
func (h *ExpenseHandler) GetExpense(c *gin.Context) {
	id, ok := expenseID(c)
	if !ok {
		return
	}

	e, err := h.svc.Get(c.Request.Context(), GetAuthUser(c).ID, id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

// UpdateExpense godoc
// @Summary Update an expense
// @Description Only non-empty fields are applied.
// @Tags expenses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Expense ID"
// @Param request body model.UpdateExpenseRequest true "Fields to change"
// @Success 200 {object} model.Expense
// @Failure 400 {object} model.ErrorResponse
// @Failure 403 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/expenses/{id} [put]
func (h *ExpenseHandler) UpdateExpense(c *gin.Context) {
	id, ok := expenseID(c)
	if !ok {
		return
	}

	var req model.UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortRecordBind(c, err, "amount must be positive")
		return
	}

	e, err := h.svc.Update(c.Request.Context(), GetAuthUser(c).ID, id, req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

// DeleteExpense godoc
// @Summary Delete an expense
// @Tags expenses
// @Produce json
// @Security BearerAuth
// @Param id path string true "Expense ID"
// @Success 200 {object} model.MessageResponse
// @Failure 403 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/expenses/{id} [delete]
func (h *ExpenseHandler) DeleteExpense(c *gin.Context) {
	id, ok := expenseID(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), GetAuthUser(c).ID, id); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, model.MessageResponse{Message: "expense deleted"})
}

// abortRecordBind reports a malformed date precisely and any other binding
// failure with fallback.
func abortRecordBind(c *gin.Context, err error, fallback string) {
	if errors.Is(err, model.ErrInvalidDate) {
		abortJSON(c, http.StatusBadRequest, model.ErrInvalidDate.Error())
		return
	}
	abortJSON(c, http.StatusBadRequest, fallback)
}

func expenseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		abortJSON(c, http.StatusNotFound, "expense not found")
		return uuid.Nil, false
	}
	return id, true
}
