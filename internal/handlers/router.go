package handlers

import (
	"net/http"

	"rentshop/internal/auth"
	"rentshop/internal/config"
	"rentshop/internal/db"
	"rentshop/internal/middleware"
	"rentshop/internal/models"
	"rentshop/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Handler struct {
	cfg          config.Config
	txRunner     db.TxRunner
	accounts     AccountStore
	items        ItemStore
	methods      PaymentMethodStore
	transactions TransactionStore
	audit        AuditStore
	processor    Processor
	hub          *websocket.Hub
}

func New(cfg config.Config, txRunner db.TxRunner, accounts AccountStore, items ItemStore, methods PaymentMethodStore, transactions TransactionStore, audit AuditStore, processor Processor, hub *websocket.Hub) *Handler {
	return &Handler{
		cfg:          cfg,
		txRunner:     txRunner,
		accounts:     accounts,
		items:        items,
		methods:      methods,
		transactions: transactions,
		audit:        audit,
		processor:    processor,
		hub:          hub,
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{h.cfg.AllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	withAuth := middleware.Auth(h.cfg.JWTSecret)
	staffOnly := middleware.RequireRole(h.accounts, models.RoleAdmin, models.RoleManager)
	managerOnly := middleware.RequireRole(h.accounts, models.RoleManager)

	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.With(withAuth).Get("/me", h.Me)
	})

	router.Get("/items", h.ListItems)
	router.Get("/payment-methods", h.ListPaymentMethods)
	router.Get("/ws/updates", h.WSUpdates)

	router.Group(func(r chi.Router) {
		r.Use(withAuth)
		r.Get("/balance", h.GetBalance)
		r.Get("/items/owned", h.ListOwnedItems)
		r.Post("/items/{id}/reserve", h.ReserveItem)
		r.Post("/items/{id}/rent", h.PayRent)
		r.Post("/transactions/deposit", h.RequestDeposit)
		r.Post("/transactions/withdraw", h.RequestWithdrawal)
		r.Post("/transactions/refund-request", h.RequestRefund)
		r.Get("/transactions", h.ListTransactions)
	})

	router.Route("/staff", func(r chi.Router) {
		r.Use(withAuth)
		r.Use(staffOnly)
		r.Get("/accounts", h.StaffListAccounts)
		r.With(managerOnly).Delete("/accounts/{id}", h.DeleteAccount)
		r.Get("/requests", h.ListPendingRequests)
		r.Post("/transactions/{id}/approve", h.ApproveTransaction)
		r.Post("/transactions/{id}/reject", h.RejectTransaction)
		r.Get("/transactions", h.StaffListTransactions)
		r.Post("/refunds", h.ProcessRefund)
		r.Get("/income/unviewed", h.UnviewedIncome)
		r.Post("/income/viewed", h.MarkIncomeViewed)
		r.Get("/shift-report", h.ShiftReport)
		r.Get("/audit", h.ListAuditLogs)
		r.Post("/items", h.CreateItem)
		r.Put("/items/{id}", h.UpdateItem)
		r.Delete("/items/{id}", h.DeleteItem)
		r.Post("/items/{id}/cancel", h.CancelReservation)
		r.Get("/payment-methods", h.StaffListPaymentMethods)
		r.Post("/payment-methods", h.CreatePaymentMethod)
		r.Put("/payment-methods/{id}", h.UpdatePaymentMethod)
		r.Delete("/payment-methods/{id}", h.DeletePaymentMethod)
	})

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return router
}

func (h *Handler) parseQueryToken(r *http.Request) (*auth.Claims, error) {
	return auth.ParseToken(h.cfg.JWTSecret, r.URL.Query().Get("token"))
}
