package ledger

import (
	"errors"
	"strings"
	"time"

	"github.com/Bindu232003/expense-tracker-api/apperr"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryFood          Category = "Food"
	CategoryTransport     Category = "Transport"
	CategoryGroceries     Category = "Groceries"
	CategoryUtilities     Category = "Utilities"
	CategoryEntertainment Category = "Entertainment"
	CategoryOther         Category = "Other"
)

var Categories = []Category{
	CategoryFood,
	CategoryTransport,
	CategoryGroceries,
	CategoryUtilities,
	CategoryEntertainment,
	CategoryOther,
}

// MinAmount is the smallest expense that can be recorded.
var MinAmount = decimal.New(1, -2)

type Expense struct {
	ID          uuid.UUID       `json:"_id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    Category        `json:"category"`
	Date        time.Time       `json:"date"`
}

// NewExpenseParams are the caller-supplied fields of an expense. A zero Date
// means "now" and an empty Category means CategoryOther.
type NewExpenseParams struct {
	Description string
	Amount      decimal.Decimal
	Category    string
	Date        time.Time
}

var (
	ErrEmptyDescription = errors.New("description can't be empty")
	ErrInvalidAmount    = errors.New("amount must be at least 0.01")
	ErrAmountPrecision  = errors.New("amount can have at most 2 decimal places")
	ErrEmptyCategory    = errors.New("category can't be empty")
	ErrUnknownCategory  = errors.New("category must be one of Food, Transport, Groceries, Utilities, Entertainment, Other")
	ErrInvalidID        = errors.New("invalid expense id")
	ErrNotFound         = errors.New("expense not found")
)

func ParseCategory(s string) (Category, error) {
	if s == "" {
		return CategoryOther, nil
	}
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", ErrUnknownCategory
}

// NewExpense validates params and returns an expense with a fresh id.
// Amounts are stored exactly as given and must be whole cents.
func NewExpense(params NewExpenseParams, now time.Time) (Expense, error) {
	description := strings.TrimSpace(params.Description)
	if description == "" {
		return Expense{}, apperr.Validation(ErrEmptyDescription)
	}

	amount := params.Amount
	if amount.LessThan(MinAmount) {
		return Expense{}, apperr.Validation(ErrInvalidAmount)
	}
	if !amount.Equal(amount.Round(2)) {
		return Expense{}, apperr.Validation(ErrAmountPrecision)
	}

	category, err := ParseCategory(params.Category)
	if err != nil {
		return Expense{}, apperr.Validation(err)
	}

	date := params.Date
	if date.IsZero() {
		date = now
	}

	return Expense{
		ID:          uuid.New(),
		Description: description,
		Amount:      amount,
		Category:    category,
		Date:        date.UTC(),
	}, nil
}

// ParseID converts an external identifier into an expense id.
func ParseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, apperr.InvalidID(ErrInvalidID)
	}
	return id, nil
}
