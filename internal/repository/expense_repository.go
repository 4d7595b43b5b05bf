package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vanguardmoney/services/internal/models"
)

// ExpenseRepository persists expense rows in PostgreSQL.
type ExpenseRepository struct {
	db *sql.DB
}

func NewExpenseRepository(db *sql.DB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

func (r *ExpenseRepository) Create(ctx context.Context, expense *models.Expense) error {
	query := `
		INSERT INTO expenses (id, user_id, amount, date, time, place, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		expense.ID, expense.UserID, expense.Amount,
		expense.Date, expense.Time, expense.Place, expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}
	return nil
}

func (r *ExpenseRepository) ListByUser(ctx context.Context, userID string) ([]models.Expense, error) {
	query := `
		SELECT id, user_id, amount, date::text, time::text, place, created_at
		FROM expenses
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	expenses := []models.Expense{}
	for rows.Next() {
		var ex models.Expense
		if err := rows.Scan(&ex.ID, &ex.UserID, &ex.Amount, &ex.Date, &ex.Time, &ex.Place, &ex.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, ex)
	}
	return expenses, rows.Err()
}

// TotalsByUser returns the sum and count of a user's expenses.
func (r *ExpenseRepository) TotalsByUser(ctx context.Context, userID string) (float64, int, error) {
	query := `SELECT COALESCE(SUM(amount), 0), COUNT(*) FROM expenses WHERE user_id = $1`
	var total float64
	var count int
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&total, &count); err != nil {
		return 0, 0, fmt.Errorf("failed to sum expenses: %w", err)
	}
	return total, count, nil
}
