package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5"

	"peopledesk/internal/domain/authz"
)

// The wire contract is deliberately small: successes return the payload
// directly, failures return {"error": "..."} with the matching status.

func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Warn("write json failed", "err", err)
	}
}

func Success(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, data)
}

func Created(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, data)
}

func Message(w http.ResponseWriter, message string) {
	WriteJSON(w, http.StatusOK, map[string]string{"message": message})
}

func Fail(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

// FailWith maps the authorization error taxonomy onto HTTP statuses.
// Anything outside the taxonomy is a store failure: logged, surfaced as
// a generic 500.
func FailWith(w http.ResponseWriter, err error, requestID string) {
	switch {
	case errors.Is(err, authz.ErrUnauthenticated):
		Fail(w, http.StatusUnauthorized, "You must be signed in to access this endpoint")
	case errors.Is(err, authz.ErrPrincipalNotFound):
		Fail(w, http.StatusNotFound, "User account not found")
	case errors.Is(err, authz.ErrForbidden):
		Fail(w, http.StatusForbidden, "Forbidden")
	case errors.Is(err, authz.ErrRecordNotFound), errors.Is(err, pgx.ErrNoRows):
		Fail(w, http.StatusNotFound, "Record not found")
	default:
		slog.Error("store failure", "err", err, "requestId", requestID)
		Fail(w, http.StatusInternalServerError, "Internal server error")
	}
}
