package db

import (
	"context"
	"fmt"

	"github.com/expense-tracker/backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const recordColumns = `id, user_id, title, amount, category, date, description, created_at, updated_at`

// ============================================================================
// Expenses
// ============================================================================

func scanExpense(row pgx.Row) (*model.Expense, error) {
	var e model.Expense
	err := row.Scan(&e.ID, &e.UserID, &e.Title, &e.Amount, &e.Category, &e.Date, &e.Description, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return &e, nil
}

func (db *Postgres) InsertExpense(ctx context.Context, e *model.Expense) error {
	query := `
		INSERT INTO expenses (id, user_id, title, amount, category, date, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := db.Pool.QueryRow(ctx, query, e.ID, e.UserID, e.Title, e.Amount, e.Category, e.Date, e.Description).
		Scan(&e.CreatedAt, &e.UpdatedAt)
	return translate(err)
}

// ListExpenses returns the user's expenses newest first. A limit of zero
// returns all of them.
func (db *Postgres) ListExpenses(ctx context.Context, userID uuid.UUID, limit int) ([]model.Expense, error) {
	query := `SELECT ` + recordColumns + ` FROM expenses WHERE user_id = $1 ORDER BY created_at DESC`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []model.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *e)
	}
	return list, rows.Err()
}

func (db *Postgres) GetExpense(ctx context.Context, id uuid.UUID) (*model.Expense, error) {
	return scanExpense(db.Pool.QueryRow(ctx, `SELECT `+recordColumns+` FROM expenses WHERE id = $1`, id))
}

func (db *Postgres) UpdateExpense(ctx context.Context, e *model.Expense) error {
	query := `
		UPDATE expenses
		SET title = $2, amount = $3, category = $4, date = $5, description = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := db.Pool.QueryRow(ctx, query, e.ID, e.Title, e.Amount, e.Category, e.Date, e.Description).
		Scan(&e.UpdatedAt)
	return translate(err)
}

func (db *Postgres) DeleteExpense(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM expenses WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *Postgres) SumExpenses(ctx context.Context, userID uuid.UUID) (float64, error) {
	var total float64
	err := db.Pool.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0)::float8 FROM expenses WHERE user_id = $1`, userID).Scan(&total)
	return total, err
}

func (db *Postgres) ExpenseTotalsByCategory(ctx context.Context, userID uuid.UUID) ([]model.CategoryTotal, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT category, SUM(amount)::float8
		FROM expenses
		WHERE user_id = $1
		GROUP BY category
		ORDER BY category
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := []model.CategoryTotal{}
	for rows.Next() {
		var ct model.CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.Total); err != nil {
			return nil, err
		}
		totals = append(totals, ct)
	}
	return totals, rows.Err()
}

func (db *Postgres) DeleteExpensesByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	return db.deleteByUser(ctx, "expenses", userID)
}

// ============================================================================
// Incomes
// ============================================================================

func scanIncome(row pgx.Row) (*model.Income, error) {
	var i model.Income
	err := row.Scan(&i.ID, &i.UserID, &i.Title, &i.Amount, &i.Category, &i.Date, &i.Description, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return &i, nil
}

func (db *Postgres) InsertIncome(ctx context.Context, i *model.Income) error {
	query := `
		INSERT INTO incomes (id, user_id, title, amount, category, date, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := db.Pool.QueryRow(ctx, query, i.ID, i.UserID, i.Title, i.Amount, i.Category, i.Date, i.Description).
		Scan(&i.CreatedAt, &i.UpdatedAt)
	return translate(err)
}

func (db *Postgres) ListIncomes(ctx context.Context, userID uuid.UUID) ([]model.Income, error) {
	rows, err := db.Pool.Query(ctx, `SELECT `+recordColumns+` FROM incomes WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []model.Income{}
	for rows.Next() {
		i, err := scanIncome(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *i)
	}
	return list, rows.Err()
}

func (db *Postgres) SumIncomes(ctx context.Context, userID uuid.UUID) (float64, error) {
	var total float64
	err := db.Pool.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0)::float8 FROM incomes WHERE user_id = $1`, userID).Scan(&total)
	return total, err
}

func (db *Postgres) DeleteIncomesByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	return db.deleteByUser(ctx, "incomes", userID)
}

func (db *Postgres) deleteByUser(ctx context.Context, table string, userID uuid.UUID) (int64, error) {
	tag, err := db.Pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE user_id = $1`, table), userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
