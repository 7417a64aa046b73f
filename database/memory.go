package database

import (
	"context"
	"sync"
)

type journalKey struct{}

// Journal collects undo steps registered by in-memory stores during a
// MemoryTransactor transaction.
type Journal struct {
	mu    sync.Mutex
	undos []func()
}

func (j *Journal) OnRollback(undo func()) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.undos = append(j.undos, undo)
}

func (j *Journal) rollback() {
	j.mu.Lock()
	defer j.mu.Unlock()
	for i := len(j.undos) - 1; i >= 0; i-- {
		j.undos[i]()
	}
	j.undos = nil
}

// JournalFrom returns the journal of the enclosing memory transaction, if any.
func JournalFrom(ctx context.Context) (*Journal, bool) {
	j, ok := ctx.Value(journalKey{}).(*Journal)
	return j, ok
}

// MemoryTransactor gives the in-memory stores all-or-nothing semantics:
// transactions run one at a time and a failed one replays its undo steps.
type MemoryTransactor struct {
	mu sync.Mutex
}

func NewMemoryTransactor() *MemoryTransactor {
	return &MemoryTransactor{}
}

func (t *MemoryTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := JournalFrom(ctx); ok {
		return fn(ctx)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	j := &Journal{}
	if err := fn(context.WithValue(ctx, journalKey{}, j)); err != nil {
		j.rollback()
		return err
	}
	return nil
}
