// Package httperr maps domain errors onto HTTP responses.
package httperr

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/MrJamesThe3rd/manekat/internal/auth"
	"github.com/MrJamesThe3rd/manekat/internal/database"
	"github.com/MrJamesThe3rd/manekat/internal/master"
	"github.com/MrJamesThe3rd/manekat/internal/transaction"
)

func Write(w http.ResponseWriter, r *http.Request, err error) {
	var verr *transaction.ValidationError

	var perr *database.PersistenceError

	switch {
	case errors.As(err, &verr):
		http.Error(w, verr.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, transaction.ErrNotFound):
		http.Error(w, "transaction not found", http.StatusNotFound)
	case errors.Is(err, transaction.ErrInvalidTransition), errors.Is(err, master.ErrWouldEmpty):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, master.ErrUnsupportedField),
		errors.Is(err, master.ErrEmptyValue),
		errors.Is(err, master.ErrNegative):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, auth.ErrInvalidCredentials):
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
	case errors.As(err, &perr):
		slog.ErrorContext(r.Context(), "storage failure", "method", r.Method, "path", r.URL.Path, "error", err)

		msg := "failed to load data"
		if r.Method != http.MethodGet {
			msg = "failed to save data"
		}

		http.Error(w, msg, http.StatusServiceUnavailable)
	default:
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
