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

func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	availableOnly := r.URL.Query().Get("available") == "1"
	rows, err := h.items.List(r.Context(), availableOnly)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load items")
		return
	}
	respondJSON(w, http.StatusOK, normalizeItems(rows))
}

func (h *Handler) ListOwnedItems(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	rows, err := h.items.ListByOwner(r.Context(), accountID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load items")
		return
	}
	respondJSON(w, http.StatusOK, normalizeItems(rows))
}

type reserveRequest struct {
	OfferedAmount string `json:"offered_amount"`
}

func (h *Handler) ReserveItem(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	itemID := chi.URLParam(r, "id")
	var req reserveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	// The offered amount only matters for free-price items; zero is fine for
	// items with a list price.
	var offered int64
	if req.OfferedAmount != "" {
		parsed, err := parseAmountMinor(req.OfferedAmount)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid amount")
			return
		}
		offered = parsed
	}
	txn, item, err := h.processor.Reserve(r.Context(), accountID, itemID, offered)
	if err != nil {
		respondProcessorError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"transaction": normalizeTransactions([]models.Transaction{txn})[0],
		"item":        normalizeItems([]models.CatalogItem{item})[0],
	})
}

func (h *Handler) PayRent(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	itemID := chi.URLParam(r, "id")
	var req reserveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	var offered int64
	if req.OfferedAmount != "" {
		parsed, err := parseAmountMinor(req.OfferedAmount)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid amount")
			return
		}
		offered = parsed
	}
	txn, err := h.processor.PayRent(r.Context(), accountID, itemID, offered)
	if err != nil {
		respondProcessorError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, normalizeTransactions([]models.Transaction{txn})[0])
}

type itemRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageRef    string `json:"image_ref"`
	Price       string `json:"price"`
	Quantity    int    `json:"quantity"`
	Status      string `json:"status"`
}

func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	input, err := itemInputFromRequest(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	input.ID = uuid.NewString()
	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		if err := h.items.Create(r.Context(), tx, input); err != nil {
			return err
		}
		return h.audit.Log(r.Context(), tx, actorID, "create_item", "item", input.ID, "{}")
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to create item")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"id": input.ID})
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	input, err := itemInputFromRequest(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	input.ID = chi.URLParam(r, "id")
	existing, err := h.items.GetByID(r.Context(), input.ID)
	if err != nil {
		respondError(w, http.StatusNotFound, "item not found")
		return
	}
	// Reservation states belong to the processor; a staff edit of a reserved
	// or sold item keeps its status and owner untouched.
	if existing.Status == models.ItemReserved || existing.Status == models.ItemSold {
		input.Status = existing.Status
	}
	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		if err := h.items.Update(r.Context(), tx, input); err != nil {
			return err
		}
		return h.audit.Log(r.Context(), tx, actorID, "update_item", "item", input.ID, "{}")
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update item")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"id": input.ID})
}

func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	itemID := chi.URLParam(r, "id")
	var removed int64
	err := h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		var err error
		removed, err = h.items.Delete(r.Context(), tx, itemID)
		if err != nil {
			return err
		}
		if removed == 0 {
			return nil
		}
		return h.audit.Log(r.Context(), tx, actorID, "delete_item", "item", itemID, "{}")
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to delete item")
		return
	}
	if removed == 0 {
		respondError(w, http.StatusNotFound, "item not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	itemID := chi.URLParam(r, "id")
	item, err := h.processor.CancelReservation(r.Context(), actorID, itemID)
	if err != nil {
		respondProcessorError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, normalizeItems([]models.CatalogItem{item})[0])
}

func itemInputFromRequest(r *http.Request) (store.ItemInput, error) {
	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" {
		return store.ItemInput{}, errInvalidItem
	}
	// Price 0 is meaningful (buyer names the price), so an empty field maps
	// to zero rather than an error.
	var price int64
	if req.Price != "" && req.Price != "0" {
		parsed, err := parseAmountMinor(req.Price)
		if err != nil {
			return store.ItemInput{}, errInvalidAmount
		}
		price = parsed
	}
	if req.Quantity < 0 {
		return store.ItemInput{}, errInvalidItem
	}
	status := req.Status
	if status == "" {
		status = models.ItemAvailable
	}
	if status != models.ItemAvailable && status != models.ItemUnavailable {
		return store.ItemInput{}, errInvalidItem
	}
	return store.ItemInput{
		Title:       req.Title,
		Description: req.Description,
		ImageRef:    req.ImageRef,
		Price:       price,
		Quantity:    req.Quantity,
		Status:      status,
	}, nil
}

func normalizeItems(rows []models.CatalogItem) []map[string]any {
	normalized := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		ownerID := ""
		if row.OwnerID != nil {
			ownerID = *row.OwnerID
		}
		normalized = append(normalized, map[string]any{
			"id":               row.ID,
			"title":            row.Title,
			"description":      row.Description,
			"image_ref":        row.ImageRef,
			"price":            money.FormatMinor(row.Price),
			"quantity":         row.Quantity,
			"status":           row.Status,
			"owner_id":         ownerID,
			"reserved_at":      row.ReservedAt,
			"last_paid_amount": money.FormatMinor(row.LastPaidAmount),
			"created_at":       row.CreatedAt,
		})
	}
	return normalized
}
