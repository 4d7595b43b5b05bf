package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vanguardmoney/services/internal/models"
)

// IncomeRepository persists income rows in PostgreSQL.
type IncomeRepository struct {
	db *sql.DB
}

func NewIncomeRepository(db *sql.DB) *IncomeRepository {
	return &IncomeRepository{db: db}
}

func (r *IncomeRepository) Create(ctx context.Context, income *models.Income) error {
	query := `
		INSERT INTO incomes (id, user_id, amount, date, time, place, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		income.ID, income.UserID, income.Amount,
		income.Date, income.Time, income.Place, income.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create income: %w", err)
	}
	return nil
}

func (r *IncomeRepository) ListByUser(ctx context.Context, userID string) ([]models.Income, error) {
	query := `
		SELECT id, user_id, amount, date::text, time::text, place, created_at
		FROM incomes
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list incomes: %w", err)
	}
	defer rows.Close()

	incomes := []models.Income{}
	for rows.Next() {
		var in models.Income
		if err := rows.Scan(&in.ID, &in.UserID, &in.Amount, &in.Date, &in.Time, &in.Place, &in.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan income: %w", err)
		}
		incomes = append(incomes, in)
	}
	return incomes, rows.Err()
}

// TotalsByUser returns the sum and count of a user's incomes.
func (r *IncomeRepository) TotalsByUser(ctx context.Context, userID string) (float64, int, error) {
	query := `SELECT COALESCE(SUM(amount), 0), COUNT(*) FROM incomes WHERE user_id = $1`
	var total float64
	var count int
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&total, &count); err != nil {
		return 0, 0, fmt.Errorf("failed to sum incomes: %w", err)
	}
	return total, count, nil
}
