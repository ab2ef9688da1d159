package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"bookline/backend/internal/service/booking"
	"bookline/backend/internal/service/users"
	"bookline/backend/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg, code string) {
	writeJSON(w, status, errorBody{Error: msg, Code: code})
}

// writeServiceError maps a service-layer failure onto the wire. Every booking
// kind is caller-correctable and gets a 4xx; SlotConflict gets its own status
// so clients can distinguish "pick another time" from "fix your input".
func writeServiceError(w http.ResponseWriter, err error) bool {
	if kind, ok := booking.KindOf(err); ok {
		writeError(w, statusForKind(kind), err.Error(), kind.String())
		return true
	}

	var vErr *users.ValidationError
	if errors.As(err, &vErr) {
		writeError(w, http.StatusBadRequest, vErr.Error(), "invalid_input")
		return true
	}

	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found", "not_found")
		return true
	case errors.Is(err, store.ErrDuplicateEmail):
		writeError(w, http.StatusConflict, "email already registered", "duplicate_email")
		return true
	case errors.Is(err, users.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid email or password", "invalid_credentials")
		return true
	}
	return false
}

func statusForKind(kind booking.Kind) int {
	switch kind {
	case booking.KindUnknownEmployee, booking.KindUnknownService:
		return http.StatusNotFound
	case booking.KindSlotConflict:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}
