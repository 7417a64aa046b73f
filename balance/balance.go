package balance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Bindu232003/expense-tracker-api/apperr"
	"github.com/shopspring/decimal"
)

// ID is the key of the single balance record.
const ID = "running_balance"

type Balance struct {
	ID             string          `json:"_id"`
	CurrentBalance decimal.Decimal `json:"currentBalance"`
	LastUpdated    time.Time       `json:"lastUpdated"`
}

// AbsentPolicy decides what an adjustment does when no balance record exists.
type AbsentPolicy int

const (
	// CreateIfAbsent treats a missing record as zero and creates it.
	CreateIfAbsent AbsentPolicy = iota
	// FailIfAbsent rejects the adjustment with ErrNotInitialized.
	FailIfAbsent
)

func (p AbsentPolicy) String() string {
	switch p {
	case CreateIfAbsent:
		return "create_if_absent"
	case FailIfAbsent:
		return "fail_if_absent"
	default:
		return "unknown"
	}
}

// ParseAbsentPolicy converts the textual form produced by String.
func ParseAbsentPolicy(s string) (AbsentPolicy, error) {
	for _, p := range []AbsentPolicy{CreateIfAbsent, FailIfAbsent} {
		if p.String() == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown absent policy %q: must be %s or %s", s, CreateIfAbsent, FailIfAbsent)
}

var (
	ErrInvalidAmount   = errors.New("amount must be a positive number")
	ErrAmountPrecision = errors.New("amount can have at most 2 decimal places")
	ErrNotInitialized  = errors.New("balance not initialized")
)

// Store persists the balance record. Increment must add delta and return the
// resulting record in one atomic step.
type Store interface {
	Get(ctx context.Context) (Balance, error)
	Increment(ctx context.Context, delta decimal.Decimal, at time.Time, policy AbsentPolicy) (Balance, error)
	CreateIfAbsent(ctx context.Context, at time.Time) (bool, error)
}

// Register is the only writer of the balance record.
type Register struct {
	store  Store
	policy AbsentPolicy
	now    func() time.Time
}

type Option func(*Register)

func WithAbsentPolicy(policy AbsentPolicy) Option {
	return func(r *Register) {
		r.policy = policy
	}
}

func NewRegister(store Store, opts ...Option) *Register {
	r := &Register{
		store:  store,
		policy: CreateIfAbsent,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Read returns the current balance, zero when no record exists yet.
func (r *Register) Read(ctx context.Context) (decimal.Decimal, error) {
	b, err := r.Snapshot(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return b.CurrentBalance, nil
}

func (r *Register) Snapshot(ctx context.Context) (Balance, error) {
	b, err := r.store.Get(ctx)
	if errors.Is(err, ErrNotInitialized) {
		return Balance{ID: ID, CurrentBalance: decimal.Zero}, nil
	}
	if err != nil {
		return Balance{}, apperr.Store("read balance", err)
	}
	return b, nil
}

func (r *Register) Credit(ctx context.Context, amount decimal.Decimal) (decimal.Decimal, error) {
	amount, err := validAmount(amount)
	if err != nil {
		return decimal.Zero, err
	}
	return r.adjust(ctx, "credit balance", amount)
}

func (r *Register) Debit(ctx context.Context, amount decimal.Decimal) (decimal.Decimal, error) {
	amount, err := validAmount(amount)
	if err != nil {
		return decimal.Zero, err
	}
	return r.adjust(ctx, "debit balance", amount.Neg())
}

// Initialize creates the record with a zero balance unless it already exists.
func (r *Register) Initialize(ctx context.Context) (bool, error) {
	created, err := r.store.CreateIfAbsent(ctx, r.now().UTC())
	if err != nil {
		return false, apperr.Store("initialize balance", err)
	}
	return created, nil
}

func (r *Register) adjust(ctx context.Context, op string, delta decimal.Decimal) (decimal.Decimal, error) {
	b, err := r.store.Increment(ctx, delta, r.now().UTC(), r.policy)
	if errors.Is(err, ErrNotInitialized) {
		return decimal.Zero, apperr.NotFound(err)
	}
	if err != nil {
		return decimal.Zero, apperr.Store(op, err)
	}
	return b.CurrentBalance, nil
}

// minAmount is one cent; smaller positive amounts cannot be represented.
var minAmount = decimal.New(1, -2)

func validAmount(amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.LessThan(minAmount) {
		return decimal.Zero, apperr.Validation(ErrInvalidAmount)
	}
	if !amount.Equal(amount.Round(2)) {
		return decimal.Zero, apperr.Validation(ErrAmountPrecision)
	}
	return amount, nil
}
