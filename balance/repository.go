package balance

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Bindu232003/expense-tracker-api/database"
	sq "github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"
)

const returningBalance = "RETURNING id, current_balance, last_updated"

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context) (Balance, error) {
	query, args, err := getQuery()
	if err != nil {
		return Balance{}, err
	}

	b, err := scanBalance(database.RunnerFrom(ctx, r.db).QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return Balance{}, ErrNotInitialized
	}
	return b, err
}

// Increment adds delta in a single statement so concurrent adjustments never
// overwrite each other.
func (r *repository) Increment(ctx context.Context, delta decimal.Decimal, at time.Time, policy AbsentPolicy) (Balance, error) {
	query, args, err := incrementQuery(delta, at, policy)
	if err != nil {
		return Balance{}, err
	}

	b, err := scanBalance(database.RunnerFrom(ctx, r.db).QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return Balance{}, ErrNotInitialized
	}
	return b, err
}

func (r *repository) CreateIfAbsent(ctx context.Context, at time.Time) (bool, error) {
	query, args, err := initializeQuery(at)
	if err != nil {
		return false, err
	}

	result, err := database.RunnerFrom(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return inserted == 1, nil
}

func getQuery() (string, []any, error) {
	return database.Psql.
		Select("id", "current_balance", "last_updated").
		From("balances").
		Where(sq.Eq{"id": ID}).
		ToSql()
}

// incrementQuery upserts under CreateIfAbsent. Under FailIfAbsent it only
// updates, so a missing record yields no row.
func incrementQuery(delta decimal.Decimal, at time.Time, policy AbsentPolicy) (string, []any, error) {
	if policy == FailIfAbsent {
		return database.Psql.
			Update("balances").
			Set("current_balance", sq.Expr("current_balance + ?", delta)).
			Set("last_updated", at).
			Where(sq.Eq{"id": ID}).
			Suffix(returningBalance).
			ToSql()
	}
	return database.Psql.
		Insert("balances").
		Columns("id", "current_balance", "last_updated").
		Values(ID, delta, at).
		Suffix("ON CONFLICT (id) DO UPDATE SET " +
			"current_balance = balances.current_balance + EXCLUDED.current_balance, " +
			"last_updated = EXCLUDED.last_updated " + returningBalance).
		ToSql()
}

func initializeQuery(at time.Time) (string, []any, error) {
	return database.Psql.
		Insert("balances").
		Columns("id", "current_balance", "last_updated").
		Values(ID, decimal.Zero, at).
		Suffix("ON CONFLICT (id) DO NOTHING").
		ToSql()
}

func scanBalance(row *sql.Row) (Balance, error) {
	var b Balance
	if err := row.Scan(&b.ID, &b.CurrentBalance, &b.LastUpdated); err != nil {
		return Balance{}, err
	}
	b.LastUpdated = b.LastUpdated.UTC()
	return b, nil
}
