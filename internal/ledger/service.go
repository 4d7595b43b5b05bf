package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vanguardmoney/services/internal/events"
	"github.com/vanguardmoney/services/internal/models"
	"github.com/vanguardmoney/services/internal/redisx"
	"github.com/vanguardmoney/services/internal/repository"
)

// Service records incomes and expenses and serves per-user reads. Totals are
// cached in Redis and recomputed after every write.
type Service struct {
	incomes   *repository.IncomeRepository
	expenses  *repository.ExpenseRepository
	summaries *redisx.ViewCache[models.SummaryView]
	publisher *events.Publisher
	logger    *zap.Logger
}

func NewService(
	incomes *repository.IncomeRepository,
	expenses *repository.ExpenseRepository,
	summaries *redisx.ViewCache[models.SummaryView],
	publisher *events.Publisher,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		incomes:   incomes,
		expenses:  expenses,
		summaries: summaries,
		publisher: publisher,
		logger:    logger,
	}
}

// RecordInput carries one income or expense entry. UserID always comes from
// the verified token, never from the request body.
type RecordInput struct {
	UserID string
	Amount float64
	Date   string
	Time   string
	Place  string
}

func (s *Service) RecordIncome(ctx context.Context, in RecordInput) (*models.Income, error) {
	income := &models.Income{
		ID:        uuid.NewString(),
		UserID:    in.UserID,
		Amount:    in.Amount,
		Date:      in.Date,
		Time:      in.Time,
		Place:     in.Place,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.incomes.Create(ctx, income); err != nil {
		return nil, err
	}

	s.invalidateSummary(ctx, in.UserID)
	s.publish(ctx, events.IncomeRecorded, events.TransactionRecordedEvent{
		TransactionID: income.ID,
		UserID:        income.UserID,
		Amount:        income.Amount,
		Kind:          "income",
		Place:         income.Place,
	})
	return income, nil
}

func (s *Service) RecordExpense(ctx context.Context, in RecordInput) (*models.Expense, error) {
	expense := &models.Expense{
		ID:        uuid.NewString(),
		UserID:    in.UserID,
		Amount:    in.Amount,
		Date:      in.Date,
		Time:      in.Time,
		Place:     in.Place,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.expenses.Create(ctx, expense); err != nil {
		return nil, err
	}

	s.invalidateSummary(ctx, in.UserID)
	s.publish(ctx, events.ExpenseRecorded, events.TransactionRecordedEvent{
		TransactionID: expense.ID,
		UserID:        expense.UserID,
		Amount:        expense.Amount,
		Kind:          "expense",
		Place:         expense.Place,
	})
	return expense, nil
}

func (s *Service) ListIncomes(ctx context.Context, userID string) ([]models.Income, error) {
	return s.incomes.ListByUser(ctx, userID)
}

func (s *Service) ListExpenses(ctx context.Context, userID string) ([]models.Expense, error) {
	return s.expenses.ListByUser(ctx, userID)
}

// Summary returns per-user totals, served from the Redis view cache when
// warm and recomputed from Postgres otherwise.
func (s *Service) Summary(ctx context.Context, userID string) (*models.SummaryView, error) {
	if view, ok := s.summaries.Get(ctx, summaryKey(userID)); ok {
		return view, nil
	}

	incomeTotal, incomeCount, err := s.incomes.TotalsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	expenseTotal, expenseCount, err := s.expenses.TotalsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	view := &models.SummaryView{
		UserID:       userID,
		IncomeTotal:  incomeTotal,
		ExpenseTotal: expenseTotal,
		Balance:      incomeTotal - expenseTotal,
		IncomeCount:  incomeCount,
		ExpenseCount: expenseCount,
	}
	s.summaries.Set(ctx, summaryKey(userID), view)
	return view, nil
}

// HandleUserEvent is the user.events stream handler. A fresh registration
// seeds an empty summary so the first dashboard read is a cache hit.
func (s *Service) HandleUserEvent(ctx context.Context, event events.Event) error {
	switch event.Type {
	case events.UserRegistered:
		dataBytes, _ := json.Marshal(event.Data)
		var data events.UserRegisteredEvent
		if err := json.Unmarshal(dataBytes, &data); err != nil {
			return fmt.Errorf("failed to unmarshal user.registered event: %w", err)
		}
		s.summaries.Set(ctx, summaryKey(data.UserID), &models.SummaryView{UserID: data.UserID})
		s.logger.Info("seeded summary for new user", zap.String("userId", data.UserID))
	}
	return nil
}

func (s *Service) invalidateSummary(ctx context.Context, userID string) {
	s.summaries.Delete(ctx, summaryKey(userID))
}

func (s *Service) publish(ctx context.Context, eventType string, data events.TransactionRecordedEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.TransactionEventsStream, eventType, data); err != nil {
		s.logger.Warn("failed to publish event", zap.String("type", eventType), zap.Error(err))
	}
}

func summaryKey(userID string) string {
	return "summary:" + userID
}
