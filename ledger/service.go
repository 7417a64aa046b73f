package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/Bindu232003/expense-tracker-api/apperr"
	"github.com/google/uuid"
)

// Store persists expense records. List must return records ordered by date
// descending with ties in insertion order. Delete returns ErrNotFound when no
// record has the id.
type Store interface {
	Insert(ctx context.Context, e Expense) error
	List(ctx context.Context) ([]Expense, error)
	Delete(ctx context.Context, id uuid.UUID) (Expense, error)
}

// Ledger owns the lifecycle of expense records.
type Ledger struct {
	store Store
	now   func() time.Time
}

func New(store Store) *Ledger {
	return &Ledger{
		store: store,
		now:   time.Now,
	}
}

// Prepare validates params and assigns id and date without persisting.
func (l *Ledger) Prepare(params NewExpenseParams) (Expense, error) {
	return NewExpense(params, l.now())
}

func (l *Ledger) Insert(ctx context.Context, e Expense) (Expense, error) {
	if err := l.store.Insert(ctx, e); err != nil {
		return Expense{}, apperr.Store("insert expense", err)
	}
	return e, nil
}

func (l *Ledger) Create(ctx context.Context, params NewExpenseParams) (Expense, error) {
	e, err := l.Prepare(params)
	if err != nil {
		return Expense{}, err
	}
	return l.Insert(ctx, e)
}

func (l *Ledger) List(ctx context.Context) ([]Expense, error) {
	expenses, err := l.store.List(ctx)
	if err != nil {
		return nil, apperr.Store("list expenses", err)
	}
	if expenses == nil {
		expenses = []Expense{}
	}
	return expenses, nil
}

func (l *Ledger) Delete(ctx context.Context, rawID string) (Expense, error) {
	id, err := ParseID(rawID)
	if err != nil {
		return Expense{}, err
	}

	e, err := l.store.Delete(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Expense{}, apperr.NotFound(err)
	}
	if err != nil {
		return Expense{}, apperr.Store("delete expense", err)
	}
	return e, nil
}
