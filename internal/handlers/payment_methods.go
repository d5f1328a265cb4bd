package handlers

import (
	"encoding/json"
	"net/http"

	"rentshop/internal/middleware"
	"rentshop/internal/models"
	"rentshop/internal/money"
	"rentshop/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Payment methods are informational only: they tell the customer how to send
// a deposit. No balance linkage.

func (h *Handler) ListPaymentMethods(w http.ResponseWriter, r *http.Request) {
	rows, err := h.methods.List(r.Context(), true)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load payment methods")
		return
	}
	respondJSON(w, http.StatusOK, normalizePaymentMethods(rows))
}

func (h *Handler) StaffListPaymentMethods(w http.ResponseWriter, r *http.Request) {
	rows, err := h.methods.List(r.Context(), false)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load payment methods")
		return
	}
	respondJSON(w, http.StatusOK, normalizePaymentMethods(rows))
}

type paymentMethodRequest struct {
	Name            string `json:"name"`
	InstructionText string `json:"instruction_text"`
	IsActive        bool   `json:"is_active"`
	MinAmount       string `json:"min_amount"`
	IconRef         string `json:"icon_ref"`
	PaymentURL      string `json:"payment_url"`
}

func (h *Handler) CreatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	input, err := paymentMethodInputFromRequest(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	input.ID = uuid.NewString()
	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		if err := h.methods.Create(r.Context(), tx, input); err != nil {
			return err
		}
		return h.audit.Log(r.Context(), tx, actorID, "create_payment_method", "payment_method", input.ID, "{}")
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to create payment method")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"id": input.ID})
}

func (h *Handler) UpdatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	input, err := paymentMethodInputFromRequest(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	input.ID = chi.URLParam(r, "id")
	if _, err := h.methods.GetByID(r.Context(), input.ID); err != nil {
		respondError(w, http.StatusNotFound, "payment method not found")
		return
	}
	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		if err := h.methods.Update(r.Context(), tx, input); err != nil {
			return err
		}
		return h.audit.Log(r.Context(), tx, actorID, "update_payment_method", "payment_method", input.ID, "{}")
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update payment method")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"id": input.ID})
}

func (h *Handler) DeletePaymentMethod(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	methodID := chi.URLParam(r, "id")
	var removed int64
	err := h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		var err error
		removed, err = h.methods.Delete(r.Context(), tx, methodID)
		if err != nil {
			return err
		}
		if removed == 0 {
			return nil
		}
		return h.audit.Log(r.Context(), tx, actorID, "delete_payment_method", "payment_method", methodID, "{}")
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to delete payment method")
		return
	}
	if removed == 0 {
		respondError(w, http.StatusNotFound, "payment method not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func paymentMethodInputFromRequest(r *http.Request) (store.PaymentMethodInput, error) {
	var req paymentMethodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		return store.PaymentMethodInput{}, errInvalidPayload
	}
	var minAmount int64
	if req.MinAmount != "" && req.MinAmount != "0" {
		parsed, err := parseAmountMinor(req.MinAmount)
		if err != nil {
			return store.PaymentMethodInput{}, errInvalidAmount
		}
		minAmount = parsed
	}
	return store.PaymentMethodInput{
		Name:            req.Name,
		InstructionText: req.InstructionText,
		IsActive:        req.IsActive,
		MinAmount:       minAmount,
		IconRef:         req.IconRef,
		PaymentURL:      req.PaymentURL,
	}, nil
}

func normalizePaymentMethods(rows []models.PaymentMethod) []map[string]any {
	normalized := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		normalized = append(normalized, map[string]any{
			"id":               row.ID,
			"name":             row.Name,
			"instruction_text": row.InstructionText,
			"is_active":        row.IsActive,
			"min_amount":       money.FormatMinor(row.MinAmount),
			"icon_ref":         row.IconRef,
			"payment_url":      row.PaymentURL,
		})
	}
	return normalized
}
