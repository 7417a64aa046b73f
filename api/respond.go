package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Bindu232003/expense-tracker-api/apperr"
	"github.com/shopspring/decimal"
)

func init() {
	// Clients expect amounts as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

type messageResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

type detailsResponse struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func statusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindValidation, apperr.KindInvalidID:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeMessageError writes the {message, error} body used by the expense
// routes. Internal failures are logged.
func writeMessageError(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), message, "error", err)
	}
	writeJSON(w, status, messageResponse{Message: message, Error: err.Error()})
}

// writeDetailsError writes the {error, details} body used by the balance routes.
func writeDetailsError(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), message, "error", err)
	}
	writeJSON(w, status, detailsResponse{Error: message, Details: err.Error()})
}
