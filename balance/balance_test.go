package balance

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Bindu232003/expense-tracker-api/apperr"
	"github.com/Bindu232003/expense-tracker-api/database"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func Test_Read_ShouldReturnZeroWhenAbsent(t *testing.T) {
	r := NewRegister(NewMemoryStore())

	got, err := r.Read(context.Background())
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	snap, err := r.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ID, snap.ID)
}

func Test_Debit_ShouldCreateRecordWhenAbsent(t *testing.T) {
	ctx := context.Background()
	r := NewRegister(NewMemoryStore())

	got, err := r.Debit(ctx, dec("50"))
	require.NoError(t, err)
	assert.Equal(t, "-50", got.String())

	read, err := r.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "-50", read.String())
}

func Test_Credit_ShouldCreateRecordWhenAbsent(t *testing.T) {
	r := NewRegister(NewMemoryStore())

	got, err := r.Credit(context.Background(), dec("50"))
	require.NoError(t, err)
	assert.Equal(t, "50", got.String())
}

func Test_Adjust_ShouldFailWhenAbsentAndPolicySaysSo(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	r := NewRegister(store, WithAbsentPolicy(FailIfAbsent))

	_, err := r.Credit(ctx, dec("10"))
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = store.Get(ctx)
	assert.ErrorIs(t, err, ErrNotInitialized)

	created, err := r.Initialize(ctx)
	require.NoError(t, err)
	assert.True(t, created)

	got, err := r.Credit(ctx, dec("10"))
	require.NoError(t, err)
	assert.Equal(t, "10", got.String())
}

func Test_ParseAbsentPolicy_ShouldRoundTrip(t *testing.T) {
	for _, policy := range []AbsentPolicy{CreateIfAbsent, FailIfAbsent} {
		parsed, err := ParseAbsentPolicy(policy.String())
		require.NoError(t, err)
		assert.Equal(t, policy, parsed)
	}

	_, err := ParseAbsentPolicy("sometimes")
	assert.Error(t, err)
}

func Test_Adjust_ShouldRejectInvalidAmounts(t *testing.T) {
	ctx := context.Background()
	r := NewRegister(NewMemoryStore())

	tests := []struct {
		amount string
		want   error
	}{
		{"0", ErrInvalidAmount},
		{"-5", ErrInvalidAmount},
		{"0.001", ErrInvalidAmount},
		{"0.005", ErrInvalidAmount},
		{"0.009", ErrInvalidAmount},
		{"10.006", ErrAmountPrecision},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			_, err := r.Credit(ctx, dec(tt.amount))
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

			_, err = r.Debit(ctx, dec(tt.amount))
			assert.ErrorIs(t, err, tt.want)
		})
	}

	read, err := r.Read(ctx)
	require.NoError(t, err)
	assert.True(t, read.IsZero())
}

func Test_Adjust_ShouldKeepExactCents(t *testing.T) {
	r := NewRegister(NewMemoryStore())

	got, err := r.Credit(context.Background(), dec("10.05"))
	require.NoError(t, err)
	assert.Equal(t, "10.05", got.String())
}

func Test_Initialize_ShouldBeIdempotent(t *testing.T) {
	ctx := context.Background()
	r := NewRegister(NewMemoryStore())

	created, err := r.Initialize(ctx)
	require.NoError(t, err)
	assert.True(t, created)

	_, err = r.Credit(ctx, dec("25"))
	require.NoError(t, err)

	created, err = r.Initialize(ctx)
	require.NoError(t, err)
	assert.False(t, created)

	read, err := r.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "25", read.String())
}

func Test_Adjust_ShouldNotLoseConcurrentUpdates(t *testing.T) {
	ctx := context.Background()
	r := NewRegister(NewMemoryStore())

	var wg sync.WaitGroup
	for range 100 {
		wg.Go(func() {
			_, err := r.Credit(ctx, dec("1.25"))
			assert.NoError(t, err)
		})
		wg.Go(func() {
			_, err := r.Debit(ctx, dec("0.25"))
			assert.NoError(t, err)
		})
	}
	wg.Wait()

	read, err := r.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "100", read.String())
}

func Test_MemoryStore_ShouldRevertInsideFailedTransaction(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	r := NewRegister(store)
	tx := database.NewMemoryTransactor()

	boom := errors.New("boom")
	err := tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := r.Debit(ctx, dec("40")); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = store.Get(ctx)
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = r.Credit(ctx, dec("100"))
	require.NoError(t, err)

	err = tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := r.Debit(ctx, dec("40")); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	read, err := r.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "100", read.String())
}
