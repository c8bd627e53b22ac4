package service

import (
	"context"
	"strings"
	"time"

	"github.com/expense-tracker/backend/internal/model"
	"github.com/google/uuid"
)

type incomeRepo interface {
	InsertIncome(ctx context.Context, i *model.Income) error
	ListIncomes(ctx context.Context, userID uuid.UUID) ([]model.Income, error)
	SumIncomes(ctx context.Context, userID uuid.UUID) (float64, error)
}

type IncomeService struct {
	repo incomeRepo
	now  func() time.Time
}

func NewIncomeService(repo incomeRepo) *IncomeService {
	return &IncomeService{repo: repo, now: time.Now}
}

func (s *IncomeService) Create(ctx context.Context, userID uuid.UUID, req model.RecordRequest) (*model.Income, error) {
	if err := validateRecord(req); err != nil {
		return nil, err
	}

	i := &model.Income{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       strings.TrimSpace(req.Title),
		Amount:      req.Amount,
		Category:    strings.TrimSpace(req.Category),
		Date:        recordDate(req.Date, s.now),
		Description: req.Description,
	}
	if err := s.repo.InsertIncome(ctx, i); err != nil {
		return nil, recordWriteError(err)
	}
	return i, nil
}

func (s *IncomeService) List(ctx context.Context, userID uuid.UUID) ([]model.Income, error) {
	return s.repo.ListIncomes(ctx, userID)
}

func (s *IncomeService) Summary(ctx context.Context, userID uuid.UUID) (*model.IncomeSummary, error) {
	total, err := s.repo.SumIncomes(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &model.IncomeSummary{TotalIncome: total}, nil
}
