package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Bindu232003/expense-tracker-api/apperr"
	"github.com/Bindu232003/expense-tracker-api/balance"
	"github.com/Bindu232003/expense-tracker-api/eventlogger"
	"github.com/Bindu232003/expense-tracker-api/ledger"
	"github.com/shopspring/decimal"
)

// Transactor runs fn so that every store write made with the ctx it receives
// is committed together or not at all.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// PartialFailure reports an expense that was persisted although the balance
// could not be adjusted and the expense could not be removed again.
type PartialFailure struct {
	Expense         ledger.Expense
	Cause           error
	CompensationErr error
}

func (e *PartialFailure) Error() string {
	return fmt.Sprintf("expense %s persisted without balance adjustment: %v (compensation failed: %v)",
		e.Expense.ID, e.Cause, e.CompensationErr)
}

func (e *PartialFailure) Unwrap() []error {
	return []error{e.Cause, e.CompensationErr}
}

// Coordinator keeps the balance consistent with recorded expenses and deposits.
// It owns no state of its own.
type Coordinator struct {
	ledger   *ledger.Ledger
	register *balance.Register
	tx       Transactor
	events   eventlogger.Publisher
	metadata func(ctx context.Context) map[string]string
}

type Option func(*Coordinator)

// WithTransactor makes the ledger write and the balance adjustment of an
// expense a single unit of work. Without it a failed adjustment is compensated
// by deleting the expense.
func WithTransactor(tx Transactor) Option {
	return func(c *Coordinator) {
		c.tx = tx
	}
}

func WithPublisher(p eventlogger.Publisher) Option {
	return func(c *Coordinator) {
		c.events = p
	}
}

// WithEventMetadata sets a function that supplies metadata, such as a request
// id, for every audit event.
func WithEventMetadata(fn func(ctx context.Context) map[string]string) Option {
	return func(c *Coordinator) {
		c.metadata = fn
	}
}

func New(l *ledger.Ledger, r *balance.Register, opts ...Option) *Coordinator {
	c := &Coordinator{
		ledger:   l,
		register: r,
		events:   discard{},
		metadata: func(context.Context) map[string]string { return nil },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RecordExpense validates and stores an expense and debits its amount from the
// balance.
func (c *Coordinator) RecordExpense(ctx context.Context, params ledger.NewExpenseParams) (e ledger.Expense, err error) {
	defer observeOperation("record_expense", time.Now(), &err)

	e, err = c.ledger.Prepare(params)
	if err != nil {
		return ledger.Expense{}, err
	}

	if c.tx != nil {
		err = c.tx.WithinTx(ctx, func(ctx context.Context) error {
			if _, err := c.ledger.Insert(ctx, e); err != nil {
				return err
			}
			_, err := c.register.Debit(ctx, e.Amount)
			return err
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to record expense", "error", err, "expense_id", e.ID)
			return ledger.Expense{}, err
		}
	} else {
		if _, err = c.ledger.Insert(ctx, e); err != nil {
			return ledger.Expense{}, err
		}
		if _, err = c.register.Debit(ctx, e.Amount); err != nil {
			return ledger.Expense{}, c.compensate(ctx, e, err)
		}
	}

	c.publish(ctx, eventlogger.TypeExpenseRecorded, e)
	return e, nil
}

func (c *Coordinator) compensate(ctx context.Context, e ledger.Expense, cause error) error {
	_, delErr := c.ledger.Delete(ctx, e.ID.String())
	if delErr == nil {
		counterCompensations.WithLabelValues("ok").Inc()
		slog.WarnContext(ctx, "balance debit failed, expense removed", "error", cause, "expense_id", e.ID)
		return cause
	}

	counterCompensations.WithLabelValues("failed").Inc()
	slog.ErrorContext(ctx, "balance debit failed and expense could not be removed",
		"error", cause, "compensation_error", delErr, "expense_id", e.ID)

	c.publish(ctx, eventlogger.TypeExpensePartialFailure, map[string]any{
		"expense": e,
		"error":   cause.Error(),
	})
	return apperr.PartialFailure("record expense", &PartialFailure{
		Expense:         e,
		Cause:           cause,
		CompensationErr: delErr,
	})
}

// RecordDeposit credits amount to the balance and returns the new balance.
func (c *Coordinator) RecordDeposit(ctx context.Context, amount decimal.Decimal) (newBalance decimal.Decimal, err error) {
	defer observeOperation("record_deposit", time.Now(), &err)

	credit := func(ctx context.Context) error {
		newBalance, err = c.register.Credit(ctx, amount)
		return err
	}
	if c.tx != nil {
		err = c.tx.WithinTx(ctx, credit)
	} else {
		err = credit(ctx)
	}
	if err != nil {
		return decimal.Zero, err
	}

	c.publish(ctx, eventlogger.TypeBalanceDeposited, map[string]any{
		"amount":     amount,
		"newBalance": newBalance,
	})
	return newBalance, nil
}

// DeleteExpense removes an expense. The balance is left untouched.
func (c *Coordinator) DeleteExpense(ctx context.Context, id string) (e ledger.Expense, err error) {
	defer observeOperation("delete_expense", time.Now(), &err)

	e, err = c.ledger.Delete(ctx, id)
	if err != nil {
		return ledger.Expense{}, err
	}

	c.publish(ctx, eventlogger.TypeExpenseDeleted, e)
	return e, nil
}

// InitializeBalance creates the balance record if it does not exist yet.
func (c *Coordinator) InitializeBalance(ctx context.Context) (created bool, err error) {
	defer observeOperation("initialize_balance", time.Now(), &err)

	created, err = c.register.Initialize(ctx)
	if err != nil {
		return false, err
	}
	if created {
		c.publish(ctx, eventlogger.TypeBalanceInitialized, map[string]any{"id": balance.ID})
	}
	return created, nil
}

func (c *Coordinator) publish(ctx context.Context, eventType string, data any) {
	c.events.Log(eventlogger.NewEvent(
		eventlogger.WithType(eventType),
		eventlogger.WithData(data),
		eventlogger.WithMetadata(c.metadata(ctx)),
	))
}

type discard struct{}

func (discard) Log(eventlogger.Event) {}
