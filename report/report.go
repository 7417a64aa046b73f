package report

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/Bindu232003/expense-tracker-api/ledger"
	"github.com/jinzhu/now"
	"github.com/shopspring/decimal"
)

const dayLayout = "2006-01-02"

// Source yields every recorded expense.
type Source interface {
	List(ctx context.Context) ([]ledger.Expense, error)
}

type CategoryTotal struct {
	Category   ledger.Category `json:"_id"`
	TotalSpent decimal.Decimal `json:"totalSpent"`
	Count      int             `json:"count"`
}

type DayTotal struct {
	Day        string          `json:"_id"`
	TotalSpent decimal.Decimal `json:"totalSpent"`
}

type MonthTotal struct {
	Year       int             `json:"year"`
	Month      int             `json:"month"`
	TotalSpent decimal.Decimal `json:"totalSpent"`
}

// Views computes read-only aggregates. Nothing is cached; every call reads the
// current expenses.
type Views struct {
	source Source
}

func New(source Source) *Views {
	return &Views{source: source}
}

// ByCategory sums expenses per category, largest total first.
func (v *Views) ByCategory(ctx context.Context) ([]CategoryTotal, error) {
	expenses, err := v.source.List(ctx)
	if err != nil {
		return nil, err
	}

	index := make(map[ledger.Category]int)
	totals := make([]CategoryTotal, 0)
	for _, e := range expenses {
		i, ok := index[e.Category]
		if !ok {
			i = len(totals)
			index[e.Category] = i
			totals = append(totals, CategoryTotal{Category: e.Category, TotalSpent: decimal.Zero})
		}
		totals[i].TotalSpent = totals[i].TotalSpent.Add(e.Amount)
		totals[i].Count++
	}

	slices.SortFunc(totals, func(a, b CategoryTotal) int {
		if c := b.TotalSpent.Cmp(a.TotalSpent); c != 0 {
			return c
		}
		return cmp.Compare(a.Category, b.Category)
	})
	return totals, nil
}

// ByDay sums expenses per UTC calendar day, most recent day first.
func (v *Views) ByDay(ctx context.Context) ([]DayTotal, error) {
	expenses, err := v.source.List(ctx)
	if err != nil {
		return nil, err
	}

	byDay := make(map[time.Time]decimal.Decimal)
	for _, e := range expenses {
		day := now.With(e.Date.UTC()).BeginningOfDay()
		byDay[day] = byDay[day].Add(e.Amount)
	}

	days := make([]time.Time, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	slices.SortFunc(days, func(a, b time.Time) int { return b.Compare(a) })

	totals := make([]DayTotal, 0, len(days))
	for _, day := range days {
		totals = append(totals, DayTotal{Day: day.Format(dayLayout), TotalSpent: byDay[day]})
	}
	return totals, nil
}

// ByMonth sums expenses per UTC calendar month in chronological order.
func (v *Views) ByMonth(ctx context.Context) ([]MonthTotal, error) {
	expenses, err := v.source.List(ctx)
	if err != nil {
		return nil, err
	}

	byMonth := make(map[time.Time]decimal.Decimal)
	for _, e := range expenses {
		month := now.With(e.Date.UTC()).BeginningOfMonth()
		byMonth[month] = byMonth[month].Add(e.Amount)
	}

	months := make([]time.Time, 0, len(byMonth))
	for month := range byMonth {
		months = append(months, month)
	}
	slices.SortFunc(months, func(a, b time.Time) int { return a.Compare(b) })

	totals := make([]MonthTotal, 0, len(months))
	for _, month := range months {
		totals = append(totals, MonthTotal{
			Year:       month.Year(),
			Month:      int(month.Month()),
			TotalSpent: byMonth[month],
		})
	}
	return totals, nil
}
