package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"rentshop/internal/middleware"
	"rentshop/internal/models"
	"rentshop/internal/money"
	"rentshop/internal/store"
	"rentshop/internal/websocket"
)

type depositRequest struct {
	Amount     string `json:"amount"`
	ReceiptRef string `json:"receipt_ref"`
}

func (h *Handler) RequestDeposit(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	amount, err := parseAmountMinor(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	transactionID, err := h.processor.RequestDeposit(r.Context(), accountID, amount, req.ReceiptRef)
	if err != nil {
		respondProcessorError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{
		"transaction_id": transactionID,
		"status":         models.StatusPending,
	})
}

type withdrawRequest struct {
	Amount      string `json:"amount"`
	Destination string `json:"destination"`
}

func (h *Handler) RequestWithdrawal(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req withdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Destination == "" {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	amount, err := parseAmountMinor(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	if err := validateDestination(req.Destination); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	transactionID, err := h.processor.RequestWithdrawal(r.Context(), accountID, amount, req.Destination)
	if err != nil {
		respondProcessorError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{
		"transaction_id": transactionID,
		"status":         models.StatusPending,
	})
}

type refundRequest struct {
	Amount string `json:"amount"`
	Reason string `json:"reason"`
}

func (h *Handler) RequestRefund(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req refundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	amount, err := parseAmountMinor(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	transactionID, err := h.processor.RequestRefund(r.Context(), accountID, amount, req.Reason)
	if err != nil {
		respondProcessorError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{
		"transaction_id": transactionID,
		"status":         models.StatusPending,
	})
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	filter := transactionFilterFromQuery(r)
	filter.AccountID = accountID
	rows, err := h.transactions.List(r.Context(), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load transactions")
		return
	}
	respondJSON(w, http.StatusOK, normalizeTransactions(rows))
}

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	account, err := h.accounts.GetByID(r.Context(), accountID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load account")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"account_id": account.ID,
		"balance":    money.FormatMinor(account.Balance),
	})
}

// WSUpdates authenticates via the token query parameter (browsers cannot set
// headers on websocket dials) and subscribes the connection to balance
// updates; staff connections also receive pending-request alerts.
func (h *Handler) WSUpdates(w http.ResponseWriter, r *http.Request) {
	claims, err := h.parseQueryToken(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	role, err := h.accounts.GetRole(r.Context(), claims.AccountID)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unknown account")
		return
	}
	isStaff := role == models.RoleAdmin || role == models.RoleManager
	websocket.ServeWS(w, r, h.hub, claims.AccountID, isStaff)
}

func transactionFilterFromQuery(r *http.Request) store.TransactionFilter {
	query := r.URL.Query()
	filter := store.TransactionFilter{
		Type:   query.Get("type"),
		Status: query.Get("status"),
		Limit:  parseInt(query.Get("limit"), 50),
	}
	page := parseInt(query.Get("page"), 1)
	filter.Offset = (page - 1) * filter.Limit
	if raw := query.Get("from"); raw != "" {
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.From = &parsed
		}
	}
	if raw := query.Get("to"); raw != "" {
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.To = &parsed
		}
	}
	return filter
}

func normalizeTransactions(rows []models.Transaction) []map[string]any {
	normalized := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		receipt := ""
		if row.ReceiptRef != nil {
			receipt = *row.ReceiptRef
		}
		normalized = append(normalized, map[string]any{
			"id":           row.ID,
			"account_id":   row.AccountID,
			"type":         row.Type,
			"request_kind": row.RequestKind,
			"status":       row.Status,
			"amount":       money.FormatMinor(row.Amount),
			"description":  row.Description,
			"receipt_ref":  receipt,
			"viewed":       row.Viewed,
			"created_at":   row.CreatedAt,
		})
	}
	return normalized
}
