package handler

import (
	"net/http"

	"github.com/expense-tracker/backend/internal/model"
	"github.com/expense-tracker/backend/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type IncomeHandler struct {
	svc    *service.IncomeService
	logger *zap.Logger
}

func NewIncomeHandler(svc *service.IncomeService, logger *zap.Logger) *IncomeHandler {
	return &IncomeHandler{svc: svc, logger: logger}
}

// CreateIncome godoc
// @Summary Add an income
// @Tags income
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.RecordRequest true "Income"
// @Success 201 {object} model.Income
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Router /api/income [post]
func (h *IncomeHandler) CreateIncome(c *gin.Context) {
	var req model.RecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortRecordBind(c, err, invalidRecordMessage)
		return
	}

	i, err := h.svc.Create(c.Request.Context(), GetAuthUser(c).ID, req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, i)
}

// GetIncomes godoc
// @Summary List incomes, newest first
// @Tags income
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Income
// @Failure 401 {object} model.ErrorResponse
// @Router /api/income [get]
func (h *IncomeHandler) GetIncomes(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), GetAuthUser(c).ID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetIncomeSummary godoc
// @Summary Total income
// @Tags income
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.IncomeSummary
// @Failure 401 {object} model.ErrorResponse
// @Router /api/income/summary [get]
func (h *IncomeHandler) GetIncomeSummary(c *gin.Context) {
	summary, err := h.svc.Summary(c.Request.Context(), GetAuthUser(c).ID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
