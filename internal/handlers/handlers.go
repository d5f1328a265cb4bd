package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"rentshop/internal/services"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondProcessorError translates the processor's sentinel errors into HTTP
// statuses. Anything unrecognized is a storage/backend failure and surfaces
// as a plain 500; nothing is retried here.
func respondProcessorError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidAmount):
		respondError(w, http.StatusBadRequest, "invalid amount")
	case errors.Is(err, services.ErrInsufficientFunds):
		respondError(w, http.StatusPaymentRequired, "insufficient funds")
	case errors.Is(err, services.ErrItemUnavailable):
		respondError(w, http.StatusConflict, "item unavailable")
	case errors.Is(err, services.ErrNotOwner):
		respondError(w, http.StatusForbidden, "item does not belong to account")
	case errors.Is(err, services.ErrItemNotFound):
		respondError(w, http.StatusNotFound, "item not found")
	case errors.Is(err, services.ErrAccountNotFound):
		respondError(w, http.StatusNotFound, "account not found")
	case errors.Is(err, services.ErrTransactionNotFound):
		respondError(w, http.StatusNotFound, "transaction not found")
	default:
		respondError(w, http.StatusInternalServerError, "operation failed")
	}
}
