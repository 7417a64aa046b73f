package ledger

import (
	"context"
	"slices"
	"sync"

	"github.com/Bindu232003/expense-tracker-api/database"
	"github.com/google/uuid"
)

// MemoryStore keeps expenses in process memory. Writes made inside a
// database.MemoryTransactor transaction are undone if it fails.
type MemoryStore struct {
	mu       sync.RWMutex
	expenses []Expense
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Insert(ctx context.Context, e Expense) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.expenses = append(s.expenses, e)
	s.mu.Unlock()

	if j, ok := database.JournalFrom(ctx); ok {
		j.OnRollback(func() { s.remove(e.ID) })
	}
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]Expense, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	expenses := slices.Clone(s.expenses)
	s.mu.RUnlock()

	// ties keep insertion order
	slices.SortStableFunc(expenses, func(a, b Expense) int {
		return b.Date.Compare(a.Date)
	})
	if expenses == nil {
		expenses = []Expense{}
	}
	return expenses, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id uuid.UUID) (Expense, error) {
	if err := ctx.Err(); err != nil {
		return Expense{}, err
	}

	s.mu.Lock()
	idx := slices.IndexFunc(s.expenses, func(e Expense) bool { return e.ID == id })
	if idx < 0 {
		s.mu.Unlock()
		return Expense{}, ErrNotFound
	}
	removed := s.expenses[idx]
	s.expenses = slices.Delete(s.expenses, idx, idx+1)
	s.mu.Unlock()

	if j, ok := database.JournalFrom(ctx); ok {
		j.OnRollback(func() { s.restore(idx, removed) })
	}
	return removed, nil
}

func (s *MemoryStore) remove(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses = slices.DeleteFunc(s.expenses, func(e Expense) bool { return e.ID == id })
}

func (s *MemoryStore) restore(idx int, e Expense) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx = min(idx, len(s.expenses))
	s.expenses = slices.Insert(s.expenses, idx, e)
}
