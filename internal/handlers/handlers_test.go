package handlers

import (
	"context"
	"net/http"
	"time"

	"rentshop/internal/config"
	"rentshop/internal/middleware"
	"rentshop/internal/models"
	"rentshop/internal/store"
	"rentshop/internal/websocket"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
)

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(_ context.Context, fn func(*sqlx.Tx) error) error {
	return fn(nil)
}

type stubAccounts struct {
	createFn     func(ctx context.Context, tx store.Execer, id, displayName, login, passwordHash, role string, balance int64) error
	getByIDFn    func(ctx context.Context, accountID string) (models.Account, error)
	getByLoginFn func(ctx context.Context, login string) (models.Account, error)
	getRoleFn    func(ctx context.Context, accountID string) (string, error)
	listFn       func(ctx context.Context) ([]models.Account, error)
	deleteFn     func(ctx context.Context, tx store.Execer, accountID string) (int64, error)
}

func (s stubAccounts) Create(ctx context.Context, tx store.Execer, id, displayName, login, passwordHash, role string, balance int64) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, id, displayName, login, passwordHash, role, balance)
}

func (s stubAccounts) GetByID(ctx context.Context, accountID string) (models.Account, error) {
	if s.getByIDFn == nil {
		return models.Account{ID: accountID}, nil
	}
	return s.getByIDFn(ctx, accountID)
}

func (s stubAccounts) GetByLogin(ctx context.Context, login string) (models.Account, error) {
	if s.getByLoginFn == nil {
		return models.Account{Login: login}, nil
	}
	return s.getByLoginFn(ctx, login)
}

func (s stubAccounts) GetRole(ctx context.Context, accountID string) (string, error) {
	if s.getRoleFn == nil {
		return models.RoleUser, nil
	}
	return s.getRoleFn(ctx, accountID)
}

func (s stubAccounts) List(ctx context.Context) ([]models.Account, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx)
}

func (s stubAccounts) Delete(ctx context.Context, tx store.Execer, accountID string) (int64, error) {
	if s.deleteFn == nil {
		return 1, nil
	}
	return s.deleteFn(ctx, tx, accountID)
}

type stubItems struct {
	createFn         func(ctx context.Context, tx store.Execer, input store.ItemInput) error
	getByIDFn        func(ctx context.Context, itemID string) (models.CatalogItem, error)
	updateFn         func(ctx context.Context, tx store.Execer, input store.ItemInput) error
	listFn           func(ctx context.Context, availableOnly bool) ([]models.CatalogItem, error)
	listByOwnerFn    func(ctx context.Context, ownerID string) ([]models.CatalogItem, error)
	releaseByOwnerFn func(ctx context.Context, tx store.Execer, ownerID string) error
	deleteFn         func(ctx context.Context, tx store.Execer, itemID string) (int64, error)
}

func (s stubItems) Create(ctx context.Context, tx store.Execer, input store.ItemInput) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, input)
}

func (s stubItems) GetByID(ctx context.Context, itemID string) (models.CatalogItem, error) {
	if s.getByIDFn == nil {
		return models.CatalogItem{ID: itemID}, nil
	}
	return s.getByIDFn(ctx, itemID)
}

func (s stubItems) Update(ctx context.Context, tx store.Execer, input store.ItemInput) error {
	if s.updateFn == nil {
		return nil
	}
	return s.updateFn(ctx, tx, input)
}

func (s stubItems) List(ctx context.Context, availableOnly bool) ([]models.CatalogItem, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, availableOnly)
}

func (s stubItems) ListByOwner(ctx context.Context, ownerID string) ([]models.CatalogItem, error) {
	if s.listByOwnerFn == nil {
		return nil, nil
	}
	return s.listByOwnerFn(ctx, ownerID)
}

func (s stubItems) ReleaseByOwner(ctx context.Context, tx store.Execer, ownerID string) error {
	if s.releaseByOwnerFn == nil {
		return nil
	}
	return s.releaseByOwnerFn(ctx, tx, ownerID)
}

func (s stubItems) Delete(ctx context.Context, tx store.Execer, itemID string) (int64, error) {
	if s.deleteFn == nil {
		return 1, nil
	}
	return s.deleteFn(ctx, tx, itemID)
}

type stubMethods struct {
	createFn func(ctx context.Context, tx store.Execer, input store.PaymentMethodInput) error
	listFn   func(ctx context.Context, activeOnly bool) ([]models.PaymentMethod, error)
}

func (s stubMethods) Create(ctx context.Context, tx store.Execer, input store.PaymentMethodInput) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, input)
}

func (s stubMethods) Update(_ context.Context, _ store.Execer, _ store.PaymentMethodInput) error {
	return nil
}

func (s stubMethods) GetByID(_ context.Context, methodID string) (models.PaymentMethod, error) {
	return models.PaymentMethod{ID: methodID}, nil
}

func (s stubMethods) List(ctx context.Context, activeOnly bool) ([]models.PaymentMethod, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, activeOnly)
}

func (s stubMethods) Delete(_ context.Context, _ store.Execer, _ string) (int64, error) {
	return 1, nil
}

type stubTransactions struct {
	listFn          func(ctx context.Context, filter store.TransactionFilter) ([]models.Transaction, error)
	listPendingFn   func(ctx context.Context) ([]models.Transaction, error)
	countUnviewedFn func(ctx context.Context) (int64, error)
	markViewedFn    func(ctx context.Context, tx store.Execer) (int64, error)
	totalsFn        func(ctx context.Context, from, to time.Time) ([]store.TypeTotal, error)
}

func (s stubTransactions) List(ctx context.Context, filter store.TransactionFilter) ([]models.Transaction, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, filter)
}

func (s stubTransactions) ListPendingRequests(ctx context.Context) ([]models.Transaction, error) {
	if s.listPendingFn == nil {
		return nil, nil
	}
	return s.listPendingFn(ctx)
}

func (s stubTransactions) CountUnviewedIncome(ctx context.Context) (int64, error) {
	if s.countUnviewedFn == nil {
		return 0, nil
	}
	return s.countUnviewedFn(ctx)
}

func (s stubTransactions) MarkIncomeViewed(ctx context.Context, tx store.Execer) (int64, error) {
	if s.markViewedFn == nil {
		return 0, nil
	}
	return s.markViewedFn(ctx, tx)
}

func (s stubTransactions) TotalsBetween(ctx context.Context, from, to time.Time) ([]store.TypeTotal, error) {
	if s.totalsFn == nil {
		return nil, nil
	}
	return s.totalsFn(ctx, from, to)
}

type stubAudit struct {
	logFn func(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
}

func (s stubAudit) Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error {
	if s.logFn == nil {
		return nil
	}
	return s.logFn(ctx, tx, actorID, action, entityType, entityID, data)
}

func (s stubAudit) List(_ context.Context, _, _ int) ([]store.AuditLog, error) {
	return nil, nil
}

type stubProcessor struct {
	requestDepositFn    func(ctx context.Context, accountID string, amountMinor int64, receiptRef string) (string, error)
	requestWithdrawalFn func(ctx context.Context, accountID string, amountMinor int64, destination string) (string, error)
	requestRefundFn     func(ctx context.Context, accountID string, amountMinor int64, reason string) (string, error)
	approveFn           func(ctx context.Context, actorID, transactionID string, manualAmountMinor *int64) (models.Transaction, error)
	rejectFn            func(ctx context.Context, actorID, transactionID string) (models.Transaction, error)
	processRefundFn     func(ctx context.Context, actorID, accountID string, amountMinor int64, reason string) (models.Transaction, error)
	reserveFn           func(ctx context.Context, accountID, itemID string, offeredAmountMinor int64) (models.Transaction, models.CatalogItem, error)
	payRentFn           func(ctx context.Context, accountID, itemID string, offeredAmountMinor int64) (models.Transaction, error)
	cancelFn            func(ctx context.Context, actorID, itemID string) (models.CatalogItem, error)
}

func (s stubProcessor) RequestDeposit(ctx context.Context, accountID string, amountMinor int64, receiptRef string) (string, error) {
	if s.requestDepositFn == nil {
		return "tx-1", nil
	}
	return s.requestDepositFn(ctx, accountID, amountMinor, receiptRef)
}

func (s stubProcessor) RequestWithdrawal(ctx context.Context, accountID string, amountMinor int64, destination string) (string, error) {
	if s.requestWithdrawalFn == nil {
		return "tx-1", nil
	}
	return s.requestWithdrawalFn(ctx, accountID, amountMinor, destination)
}

func (s stubProcessor) RequestRefund(ctx context.Context, accountID string, amountMinor int64, reason string) (string, error) {
	if s.requestRefundFn == nil {
		return "tx-1", nil
	}
	return s.requestRefundFn(ctx, accountID, amountMinor, reason)
}

func (s stubProcessor) Approve(ctx context.Context, actorID, transactionID string, manualAmountMinor *int64) (models.Transaction, error) {
	if s.approveFn == nil {
		return models.Transaction{ID: transactionID, Status: models.StatusApproved}, nil
	}
	return s.approveFn(ctx, actorID, transactionID, manualAmountMinor)
}

func (s stubProcessor) Reject(ctx context.Context, actorID, transactionID string) (models.Transaction, error) {
	if s.rejectFn == nil {
		return models.Transaction{ID: transactionID, Status: models.StatusRejected}, nil
	}
	return s.rejectFn(ctx, actorID, transactionID)
}

func (s stubProcessor) ProcessRefund(ctx context.Context, actorID, accountID string, amountMinor int64, reason string) (models.Transaction, error) {
	if s.processRefundFn == nil {
		return models.Transaction{ID: "tx-1", Status: models.StatusApproved}, nil
	}
	return s.processRefundFn(ctx, actorID, accountID, amountMinor, reason)
}

func (s stubProcessor) Reserve(ctx context.Context, accountID, itemID string, offeredAmountMinor int64) (models.Transaction, models.CatalogItem, error) {
	if s.reserveFn == nil {
		return models.Transaction{ID: "tx-1"}, models.CatalogItem{ID: itemID}, nil
	}
	return s.reserveFn(ctx, accountID, itemID, offeredAmountMinor)
}

func (s stubProcessor) PayRent(ctx context.Context, accountID, itemID string, offeredAmountMinor int64) (models.Transaction, error) {
	if s.payRentFn == nil {
		return models.Transaction{ID: "tx-1"}, nil
	}
	return s.payRentFn(ctx, accountID, itemID, offeredAmountMinor)
}

func (s stubProcessor) CancelReservation(ctx context.Context, actorID, itemID string) (models.CatalogItem, error) {
	if s.cancelFn == nil {
		return models.CatalogItem{ID: itemID, Status: models.ItemAvailable}, nil
	}
	return s.cancelFn(ctx, actorID, itemID)
}

type handlerDeps struct {
	accounts     AccountStore
	items        ItemStore
	methods      PaymentMethodStore
	transactions TransactionStore
	audit        AuditStore
	processor    Processor
}

func newTestHandler(deps handlerDeps) *Handler {
	if deps.accounts == nil {
		deps.accounts = stubAccounts{}
	}
	if deps.items == nil {
		deps.items = stubItems{}
	}
	if deps.methods == nil {
		deps.methods = stubMethods{}
	}
	if deps.transactions == nil {
		deps.transactions = stubTransactions{}
	}
	if deps.audit == nil {
		deps.audit = stubAudit{}
	}
	if deps.processor == nil {
		deps.processor = stubProcessor{}
	}
	cfg := config.Config{
		JWTSecret:       "test-secret",
		TokenTTL:        time.Hour,
		AllowedOrigins:  "*",
		ShiftAnchorHour: 9,
	}
	return New(cfg, fakeTxRunner{}, deps.accounts, deps.items, deps.methods, deps.transactions, deps.audit, deps.processor, websocket.NewHub())
}

func authedRequest(r *http.Request, accountID string) *http.Request {
	return r.WithContext(middleware.ContextWithAccountID(r.Context(), accountID))
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
