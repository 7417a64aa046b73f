package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Bindu232003/expense-tracker-api/apperr"
	"github.com/Bindu232003/expense-tracker-api/balance"
	"github.com/Bindu232003/expense-tracker-api/ledger"
	"github.com/Bindu232003/expense-tracker-api/middleware"
	"github.com/Bindu232003/expense-tracker-api/report"
	"github.com/Bindu232003/expense-tracker-api/tracker"
	chimiddleware "github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

const depositValidationMessage = "Deposit amount must be a positive number."

type Deps struct {
	Tracker  *tracker.Coordinator
	Ledger   *ledger.Ledger
	Register *balance.Register
	Views    *report.Views
	// Ready reports whether the backing store is reachable.
	Ready          func(ctx context.Context) error
	AllowedOrigins []string
}

// createExpenseRequest keeps Category as a pointer so an omitted category
// (Other) can be told apart from an explicit blank one (rejected).
type createExpenseRequest struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    *string         `json:"category"`
	Date        *time.Time      `json:"date,omitempty"`
}

type depositRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type partialFailureResponse struct {
	Message        string         `json:"message"`
	Error          string         `json:"error"`
	PartialFailure bool           `json:"partialFailure"`
	Expense        ledger.Expense `json:"expense"`
}

func NewRouter(deps Deps) http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Metrics)
	router.Use(middleware.CORS(deps.AllowedOrigins))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if deps.Ready != nil {
			if err := deps.Ready(r.Context()); err != nil {
				http.Error(w, "not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.Write([]byte("ok"))
	})

	router.Handle("/metrics", promhttp.Handler())

	router.Route("/api/expenses", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			expenses, err := deps.Ledger.List(r.Context())
			if err != nil {
				writeMessageError(w, r, "Error fetching expenses", err)
				return
			}
			writeJSON(w, http.StatusOK, expenses)
		})

		r.Post("/", func(w http.ResponseWriter, r *http.Request) {
			var req createExpenseRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeMessageError(w, r, "Error creating expense", apperr.Validation(fmt.Errorf("invalid request body: %w", err)))
				return
			}

			params := ledger.NewExpenseParams{
				Description: req.Description,
				Amount:      req.Amount,
			}
			if req.Category != nil {
				if strings.TrimSpace(*req.Category) == "" {
					writeMessageError(w, r, "Error creating expense", apperr.Validation(ledger.ErrEmptyCategory))
					return
				}
				params.Category = *req.Category
			}
			if req.Date != nil {
				params.Date = *req.Date
			}

			expense, err := deps.Tracker.RecordExpense(r.Context(), params)
			var partial *tracker.PartialFailure
			if errors.As(err, &partial) {
				writeJSON(w, http.StatusInternalServerError, partialFailureResponse{
					Message:        "Expense saved but balance could not be updated",
					Error:          err.Error(),
					PartialFailure: true,
					Expense:        partial.Expense,
				})
				return
			}
			if err != nil {
				writeMessageError(w, r, "Error creating expense", err)
				return
			}
			writeJSON(w, http.StatusCreated, expense)
		})

		r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
			expense, err := deps.Tracker.DeleteExpense(r.Context(), chi.URLParam(r, "id"))
			if err != nil {
				switch apperr.KindOf(err) {
				case apperr.KindInvalidID:
					writeMessageError(w, r, "Invalid expense id", err)
				case apperr.KindNotFound:
					writeMessageError(w, r, "Expense not found", err)
				default:
					writeMessageError(w, r, "Error deleting expense", err)
				}
				return
			}
			writeJSON(w, http.StatusOK, expense)
		})

		r.Get("/summary/category", func(w http.ResponseWriter, r *http.Request) {
			summary, err := deps.Views.ByCategory(r.Context())
			if err != nil {
				writeMessageError(w, r, "Error fetching category summary", apperr.Store("category summary", err))
				return
			}
			writeJSON(w, http.StatusOK, summary)
		})

		r.Get("/summary/daily", func(w http.ResponseWriter, r *http.Request) {
			summary, err := deps.Views.ByDay(r.Context())
			if err != nil {
				writeMessageError(w, r, "Error generating daily summary", apperr.Store("daily summary", err))
				return
			}
			writeJSON(w, http.StatusOK, summary)
		})

		r.Get("/summary/monthly", func(w http.ResponseWriter, r *http.Request) {
			summary, err := deps.Views.ByMonth(r.Context())
			if err != nil {
				writeMessageError(w, r, "Error generating monthly summary", apperr.Store("monthly summary", err))
				return
			}
			writeJSON(w, http.StatusOK, summary)
		})
	})

	router.Route("/api/balance", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			current, err := deps.Register.Read(r.Context())
			if err != nil {
				writeDetailsError(w, r, "Failed to fetch balance", err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]decimal.Decimal{"currentBalance": current})
		})

		r.Post("/deposit", func(w http.ResponseWriter, r *http.Request) {
			var req depositRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeJSON(w, http.StatusBadRequest, messageResponse{Message: depositValidationMessage})
				return
			}

			newBalance, err := deps.Tracker.RecordDeposit(r.Context(), req.Amount)
			if apperr.Is(err, apperr.KindValidation) {
				writeJSON(w, http.StatusBadRequest, messageResponse{Message: depositValidationMessage})
				return
			}
			if err != nil {
				writeDetailsError(w, r, "Failed to add deposit and update balance", err)
				return
			}

			writeJSON(w, http.StatusOK, map[string]any{
				"message":    fmt.Sprintf("Successfully added ₹%s to balance.", req.Amount.String()),
				"newBalance": newBalance,
			})
		})
	})

	return router
}
