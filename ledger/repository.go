package ledger

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Bindu232003/expense-tracker-api/database"
	"github.com/google/uuid"
)

var expenseColumns = []string{"id", "description", "amount", "category", "date"}

type repository struct {
	db *sql.DB
}

// NewRepository returns a Postgres-backed Store. Calls made inside a
// database.Transactor transaction join it.
func NewRepository(db *sql.DB) *repository {
	return &repository{db: db}
}

func (r *repository) Insert(ctx context.Context, e Expense) error {
	query, args, err := database.Psql.
		Insert("expenses").
		Columns(expenseColumns...).
		Values(e.ID, e.Description, e.Amount, string(e.Category), e.Date).
		ToSql()
	if err != nil {
		return err
	}

	_, err = database.RunnerFrom(ctx, r.db).ExecContext(ctx, query, args...)
	return err
}

func (r *repository) List(ctx context.Context) ([]Expense, error) {
	query, args, err := database.Psql.
		Select(expenseColumns...).
		From("expenses").
		OrderBy("date DESC", "seq ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := database.RunnerFrom(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := make([]Expense, 0)
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, expense)
	}

	return expenses, rows.Err()
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) (Expense, error) {
	query, args, err := database.Psql.
		Delete("expenses").
		Where("id = ?", id).
		Suffix("RETURNING id, description, amount, category, date").
		ToSql()
	if err != nil {
		return Expense{}, err
	}

	expense, err := scanExpense(database.RunnerFrom(ctx, r.db).QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return Expense{}, ErrNotFound
	}
	return expense, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExpense(s scanner) (Expense, error) {
	var expense Expense
	var category string
	err := s.Scan(
		&expense.ID,
		&expense.Description,
		&expense.Amount,
		&category,
		&expense.Date,
	)
	if err != nil {
		return Expense{}, err
	}
	expense.Category = Category(category)
	expense.Date = expense.Date.UTC()
	return expense, nil
}
