package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"rentshop/internal/middleware"
	"rentshop/internal/models"
	"rentshop/internal/money"
	"rentshop/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
)

type approveRequest struct {
	ManualAmount string `json:"manual_amount"`
}

func (h *Handler) ApproveTransaction(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	transactionID := chi.URLParam(r, "id")
	var req approveRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid payload")
			return
		}
	}
	var manualAmount *int64
	if req.ManualAmount != "" {
		parsed, err := parseAmountMinor(req.ManualAmount)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid amount")
			return
		}
		manualAmount = &parsed
	}
	txn, err := h.processor.Approve(r.Context(), actorID, transactionID, manualAmount)
	if err != nil {
		respondProcessorError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, normalizeTransactions([]models.Transaction{txn})[0])
}

func (h *Handler) RejectTransaction(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	transactionID := chi.URLParam(r, "id")
	txn, err := h.processor.Reject(r.Context(), actorID, transactionID)
	if err != nil {
		respondProcessorError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, normalizeTransactions([]models.Transaction{txn})[0])
}

type directRefundRequest struct {
	AccountID string `json:"account_id"`
	Amount    string `json:"amount"`
	Reason    string `json:"reason"`
}

func (h *Handler) ProcessRefund(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req directRefundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AccountID == "" {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	amount, err := parseAmountMinor(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	txn, err := h.processor.ProcessRefund(r.Context(), actorID, req.AccountID, amount, req.Reason)
	if err != nil {
		respondProcessorError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, normalizeTransactions([]models.Transaction{txn})[0])
}

func (h *Handler) ListPendingRequests(w http.ResponseWriter, r *http.Request) {
	rows, err := h.transactions.ListPendingRequests(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load requests")
		return
	}
	respondJSON(w, http.StatusOK, normalizeTransactions(rows))
}

func (h *Handler) UnviewedIncome(w http.ResponseWriter, r *http.Request) {
	count, err := h.transactions.CountUnviewedIncome(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to count income")
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"unviewed": count})
}

func (h *Handler) MarkIncomeViewed(w http.ResponseWriter, r *http.Request) {
	var marked int64
	err := h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		var err error
		marked, err = h.transactions.MarkIncomeViewed(r.Context(), tx)
		return err
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to mark income viewed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"marked": marked})
}

func (h *Handler) StaffListTransactions(w http.ResponseWriter, r *http.Request) {
	filter := transactionFilterFromQuery(r)
	filter.AccountID = r.URL.Query().Get("account_id")
	rows, err := h.transactions.List(r.Context(), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load transactions")
		return
	}
	respondJSON(w, http.StatusOK, normalizeTransactions(rows))
}

// ShiftReport aggregates approved transactions inside the current rolling
// 24-hour bucket. Reporting only; nothing transitions on shift boundaries.
func (h *Handler) ShiftReport(w http.ResponseWriter, r *http.Request) {
	from, to := services.ShiftWindow(time.Now(), h.cfg.ShiftAnchorHour)
	totals, err := h.transactions.TotalsBetween(r.Context(), from, to)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to build report")
		return
	}
	normalized := make([]map[string]any, 0, len(totals))
	for _, row := range totals {
		normalized = append(normalized, map[string]any{
			"type":  row.Type,
			"count": row.Count,
			"total": money.FormatMinor(row.Total),
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"from":   from,
		"to":     to,
		"totals": normalized,
	})
}

func (h *Handler) StaffListAccounts(w http.ResponseWriter, r *http.Request) {
	rows, err := h.accounts.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load accounts")
		return
	}
	normalized := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		normalized = append(normalized, map[string]any{
			"id":           row.ID,
			"display_name": row.DisplayName,
			"login":        row.Login,
			"balance":      money.FormatMinor(row.Balance),
			"role":         row.Role,
			"created_at":   row.CreatedAt,
		})
	}
	respondJSON(w, http.StatusOK, normalized)
}

var errBalanceNotZero = errors.New("account balance must be zero")

// DeleteAccount is manager-only; the store's balance guard makes the
// zero-balance requirement race-free. Items the account still owns are
// released back to the shelf in the same transaction, keeping the
// owner/status pairing valid through the delete.
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	accountID := chi.URLParam(r, "id")
	account, err := h.accounts.GetByID(r.Context(), accountID)
	if err != nil {
		respondError(w, http.StatusNotFound, "account not found")
		return
	}
	if account.Balance != 0 {
		respondError(w, http.StatusConflict, "account balance must be zero")
		return
	}
	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		if err := h.items.ReleaseByOwner(r.Context(), tx, accountID); err != nil {
			return err
		}
		removed, err := h.accounts.Delete(r.Context(), tx, accountID)
		if err != nil {
			return err
		}
		if removed == 0 {
			// A deposit landed between the read and the delete; abort so the
			// released items roll back too.
			return errBalanceNotZero
		}
		return h.audit.Log(r.Context(), tx, actorID, "delete_account", "account", accountID, "{}")
	})
	if errors.Is(err, errBalanceNotZero) {
		respondError(w, http.StatusConflict, "account balance must be zero")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to delete account")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit := parseInt(query.Get("limit"), 50)
	page := parseInt(query.Get("page"), 1)
	offset := (page - 1) * limit
	rows, err := h.audit.List(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load audit logs")
		return
	}
	normalized := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		actor := ""
		if row.ActorAccountID != nil {
			actor = *row.ActorAccountID
		}
		normalized = append(normalized, map[string]any{
			"id":               row.ID,
			"actor_account_id": actor,
			"action":           row.Action,
			"entity_type":      row.EntityType,
			"entity_id":        row.EntityID,
			"data":             row.Data,
			"created_at":       row.CreatedAt,
		})
	}
	respondJSON(w, http.StatusOK, normalized)
}
