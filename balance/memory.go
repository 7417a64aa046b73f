package balance

import (
	"context"
	"sync"
	"time"

	"github.com/Bindu232003/expense-tracker-api/database"
	"github.com/shopspring/decimal"
)

// MemoryStore holds the balance record in process memory. Adjustments made
// inside a database.MemoryTransactor transaction are reverted if it fails.
type MemoryStore struct {
	mu      sync.Mutex
	record  *Balance
	version uint64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Get(ctx context.Context) (Balance, error) {
	if err := ctx.Err(); err != nil {
		return Balance{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.record == nil {
		return Balance{}, ErrNotInitialized
	}
	return *s.record, nil
}

func (s *MemoryStore) Increment(ctx context.Context, delta decimal.Decimal, at time.Time, policy AbsentPolicy) (Balance, error) {
	if err := ctx.Err(); err != nil {
		return Balance{}, err
	}

	s.mu.Lock()
	created := false
	if s.record == nil {
		if policy == FailIfAbsent {
			s.mu.Unlock()
			return Balance{}, ErrNotInitialized
		}
		s.record = &Balance{ID: ID, CurrentBalance: decimal.Zero}
		created = true
	}
	s.record.CurrentBalance = s.record.CurrentBalance.Add(delta)
	s.record.LastUpdated = at
	s.version++
	version := s.version
	b := *s.record
	s.mu.Unlock()

	if j, ok := database.JournalFrom(ctx); ok {
		j.OnRollback(func() { s.revert(delta, created, version) })
	}
	return b, nil
}

func (s *MemoryStore) CreateIfAbsent(ctx context.Context, at time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	if s.record != nil {
		s.mu.Unlock()
		return false, nil
	}
	s.record = &Balance{ID: ID, CurrentBalance: decimal.Zero, LastUpdated: at}
	s.version++
	version := s.version
	s.mu.Unlock()

	if j, ok := database.JournalFrom(ctx); ok {
		j.OnRollback(func() { s.revert(decimal.Zero, true, version) })
	}
	return true, nil
}

// revert undoes one adjustment. A record created by it is only removed when
// nothing has touched the record since.
func (s *MemoryStore) revert(delta decimal.Decimal, created bool, version uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.record == nil {
		return
	}
	if created && s.version == version {
		s.record = nil
		return
	}
	s.record.CurrentBalance = s.record.CurrentBalance.Sub(delta)
	s.version++
}
