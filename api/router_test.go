package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Bindu232003/expense-tracker-api/balance"
	"github.com/Bindu232003/expense-tracker-api/database"
	"github.com/Bindu232003/expense-tracker-api/ledger"
	"github.com/Bindu232003/expense-tracker-api/report"
	"github.com/Bindu232003/expense-tracker-api/tracker"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingBalanceStore struct {
	*balance.MemoryStore
}

func (s failingBalanceStore) Increment(context.Context, decimal.Decimal, time.Time, balance.AbsentPolicy) (balance.Balance, error) {
	return balance.Balance{}, errors.New("write conflict")
}

type undeletableStore struct {
	*ledger.MemoryStore
}

func (s undeletableStore) Delete(context.Context, uuid.UUID) (ledger.Expense, error) {
	return ledger.Expense{}, errors.New("connection reset")
}

func newTestRouter(ls ledger.Store, bs balance.Store, opts ...tracker.Option) http.Handler {
	l := ledger.New(ls)
	r := balance.NewRegister(bs)
	return NewRouter(Deps{
		Tracker:        tracker.New(l, r, opts...),
		Ledger:         l,
		Register:       r,
		Views:          report.New(l),
		Ready:          func(context.Context) error { return nil },
		AllowedOrigins: []string{"*"},
	})
}

func newMemoryRouter() http.Handler {
	return newTestRouter(ledger.NewMemoryStore(), balance.NewMemoryStore(),
		tracker.WithTransactor(database.NewMemoryTransactor()))
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("content-type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func Test_Router_DepositAndExpenseScenario(t *testing.T) {
	h := newMemoryRouter()

	rec := do(t, h, http.MethodGet, "/api/balance", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"currentBalance":0}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/balance/deposit", `{"amount":100}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Successfully added ₹100 to balance.","newBalance":100}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/expenses", `{"description":"lunch","amount":15,"category":"Food"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[map[string]any](t, rec)
	assert.Equal(t, "lunch", created["description"])
	assert.Equal(t, 15.0, created["amount"])
	assert.Equal(t, "Food", created["category"])
	assert.NotEmpty(t, created["_id"])

	rec = do(t, h, http.MethodGet, "/api/balance", "")
	assert.JSONEq(t, `{"currentBalance":85}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/expenses", "")
	require.Equal(t, http.StatusOK, rec.Code)
	listed := decode[[]map[string]any](t, rec)
	require.Len(t, listed, 1)
	assert.Equal(t, created["_id"], listed[0]["_id"])

	rec = do(t, h, http.MethodGet, "/api/expenses/summary/category", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"_id":"Food","totalSpent":15,"count":1}]`, rec.Body.String())
}

func Test_Router_ShouldDefaultOmittedCategoryToOther(t *testing.T) {
	h := newMemoryRouter()

	rec := do(t, h, http.MethodPost, "/api/expenses", `{"description":"Stamps","amount":3.25}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[map[string]any](t, rec)
	assert.Equal(t, "Other", created["category"])
	assert.Equal(t, 3.25, created["amount"])

	rec = do(t, h, http.MethodPost, "/api/expenses", `{"description":"Stamps","amount":3.25,"category":null}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Other", decode[map[string]any](t, rec)["category"])
}

func Test_Router_DeleteDoesNotRecredit(t *testing.T) {
	h := newMemoryRouter()

	rec := do(t, h, http.MethodPost, "/api/expenses", `{"description":"Taxi","amount":20,"category":"Transport"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[map[string]any](t, rec)["_id"].(string)

	rec = do(t, h, http.MethodDelete, "/api/expenses/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, decode[map[string]any](t, rec)["_id"])

	rec = do(t, h, http.MethodGet, "/api/expenses", "")
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/balance", "")
	assert.JSONEq(t, `{"currentBalance":-20}`, rec.Body.String())

	rec = do(t, h, http.MethodDelete, "/api/expenses/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Expense not found", decode[map[string]any](t, rec)["message"])

	rec = do(t, h, http.MethodDelete, "/api/expenses/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid expense id", decode[map[string]any](t, rec)["message"])
}

func Test_Router_RejectsInvalidInput(t *testing.T) {
	h := newMemoryRouter()

	tests := []struct {
		name    string
		path    string
		body    string
		message string
	}{
		{"empty description", "/api/expenses", `{"description":"  ","amount":5}`, "Error creating expense"},
		{"zero amount", "/api/expenses", `{"description":"Tea","amount":0}`, "Error creating expense"},
		{"unknown category", "/api/expenses", `{"description":"Tea","amount":2,"category":"Rent"}`, "Error creating expense"},
		{"empty category", "/api/expenses", `{"description":"Tea","amount":2,"category":""}`, "Error creating expense"},
		{"blank category", "/api/expenses", `{"description":"Tea","amount":2,"category":"  "}`, "Error creating expense"},
		{"fractional cents", "/api/expenses", `{"description":"Tea","amount":10.006}`, "Error creating expense"},
		{"half cent deposit", "/api/balance/deposit", `{"amount":0.005}`, depositValidationMessage},
		{"malformed body", "/api/expenses", `{"description":`, "Error creating expense"},
		{"negative deposit", "/api/balance/deposit", `{"amount":-5}`, depositValidationMessage},
		{"zero deposit", "/api/balance/deposit", `{"amount":0}`, depositValidationMessage},
		{"missing deposit", "/api/balance/deposit", `{}`, depositValidationMessage},
		{"non-numeric deposit", "/api/balance/deposit", `{"amount":"lots"}`, depositValidationMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.message, decode[map[string]any](t, rec)["message"])
		})
	}

	rec := do(t, h, http.MethodGet, "/api/balance", "")
	assert.JSONEq(t, `{"currentBalance":0}`, rec.Body.String())
	rec = do(t, h, http.MethodGet, "/api/expenses", "")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func Test_Router_SummariesAreOrdered(t *testing.T) {
	h := newMemoryRouter()

	for _, body := range []string{
		`{"description":"a","amount":10,"category":"Food","date":"2024-01-01T10:00:00Z"}`,
		`{"description":"b","amount":20,"category":"Food","date":"2024-03-05T10:00:00Z"}`,
		`{"description":"c","amount":5,"category":"Transport","date":"2024-02-10T10:00:00Z"}`,
	} {
		rec := do(t, h, http.MethodPost, "/api/expenses", body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := do(t, h, http.MethodGet, "/api/expenses", "")
	listed := decode[[]map[string]any](t, rec)
	require.Len(t, listed, 3)
	assert.Equal(t, "b", listed[0]["description"])
	assert.Equal(t, "c", listed[1]["description"])
	assert.Equal(t, "a", listed[2]["description"])

	rec = do(t, h, http.MethodGet, "/api/expenses/summary/category", "")
	assert.JSONEq(t, `[{"_id":"Food","totalSpent":30,"count":2},{"_id":"Transport","totalSpent":5,"count":1}]`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/expenses/summary/daily", "")
	assert.JSONEq(t, `[
		{"_id":"2024-03-05","totalSpent":20},
		{"_id":"2024-02-10","totalSpent":5},
		{"_id":"2024-01-01","totalSpent":10}
	]`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/expenses/summary/monthly", "")
	assert.JSONEq(t, `[
		{"year":2024,"month":1,"totalSpent":10},
		{"year":2024,"month":2,"totalSpent":5},
		{"year":2024,"month":3,"totalSpent":20}
	]`, rec.Body.String())
}

func Test_Router_StoreFailures(t *testing.T) {
	h := newTestRouter(ledger.NewMemoryStore(), failingBalanceStore{balance.NewMemoryStore()},
		tracker.WithTransactor(database.NewMemoryTransactor()))

	rec := do(t, h, http.MethodPost, "/api/expenses", `{"description":"Rent","amount":500,"category":"Utilities"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Error creating expense", decode[map[string]any](t, rec)["message"])

	rec = do(t, h, http.MethodPost, "/api/balance/deposit", `{"amount":10}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "Failed to add deposit and update balance", body["error"])
	assert.Contains(t, body["details"], "write conflict")

	rec = do(t, h, http.MethodGet, "/api/expenses", "")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func Test_Router_PartialFailure(t *testing.T) {
	h := newTestRouter(undeletableStore{ledger.NewMemoryStore()}, failingBalanceStore{balance.NewMemoryStore()})

	rec := do(t, h, http.MethodPost, "/api/expenses", `{"description":"Rent","amount":500,"category":"Utilities"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	body := decode[map[string]any](t, rec)
	assert.Equal(t, true, body["partialFailure"])
	expense := body["expense"].(map[string]any)
	assert.Equal(t, "Rent", expense["description"])
}

func Test_Router_HealthEndpoints(t *testing.T) {
	h := newMemoryRouter()

	rec := do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "expense_tracker_http_histogram_response_time_seconds")

	notReady := NewRouter(Deps{Ready: func(context.Context) error { return errors.New("down") }})
	rec = do(t, notReady, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
