package handlers

import (
	"context"
	"time"

	"rentshop/internal/models"
	"rentshop/internal/store"
)

type AccountStore interface {
	Create(ctx context.Context, tx store.Execer, id, displayName, login, passwordHash, role string, balance int64) error
	GetByID(ctx context.Context, accountID string) (models.Account, error)
	GetByLogin(ctx context.Context, login string) (models.Account, error)
	GetRole(ctx context.Context, accountID string) (string, error)
	List(ctx context.Context) ([]models.Account, error)
	Delete(ctx context.Context, tx store.Execer, accountID string) (int64, error)
}

type ItemStore interface {
	Create(ctx context.Context, tx store.Execer, input store.ItemInput) error
	GetByID(ctx context.Context, itemID string) (models.CatalogItem, error)
	Update(ctx context.Context, tx store.Execer, input store.ItemInput) error
	List(ctx context.Context, availableOnly bool) ([]models.CatalogItem, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.CatalogItem, error)
	ReleaseByOwner(ctx context.Context, tx store.Execer, ownerID string) error
	Delete(ctx context.Context, tx store.Execer, itemID string) (int64, error)
}

type PaymentMethodStore interface {
	Create(ctx context.Context, tx store.Execer, input store.PaymentMethodInput) error
	Update(ctx context.Context, tx store.Execer, input store.PaymentMethodInput) error
	GetByID(ctx context.Context, methodID string) (models.PaymentMethod, error)
	List(ctx context.Context, activeOnly bool) ([]models.PaymentMethod, error)
	Delete(ctx context.Context, tx store.Execer, methodID string) (int64, error)
}

type TransactionStore interface {
	List(ctx context.Context, filter store.TransactionFilter) ([]models.Transaction, error)
	ListPendingRequests(ctx context.Context) ([]models.Transaction, error)
	CountUnviewedIncome(ctx context.Context) (int64, error)
	MarkIncomeViewed(ctx context.Context, tx store.Execer) (int64, error)
	TotalsBetween(ctx context.Context, from, to time.Time) ([]store.TypeTotal, error)
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
	List(ctx context.Context, limit, offset int) ([]store.AuditLog, error)
}

type Processor interface {
	RequestDeposit(ctx context.Context, accountID string, amountMinor int64, receiptRef string) (string, error)
	RequestWithdrawal(ctx context.Context, accountID string, amountMinor int64, destination string) (string, error)
	RequestRefund(ctx context.Context, accountID string, amountMinor int64, reason string) (string, error)
	Approve(ctx context.Context, actorID, transactionID string, manualAmountMinor *int64) (models.Transaction, error)
	Reject(ctx context.Context, actorID, transactionID string) (models.Transaction, error)
	ProcessRefund(ctx context.Context, actorID, accountID string, amountMinor int64, reason string) (models.Transaction, error)
	Reserve(ctx context.Context, accountID, itemID string, offeredAmountMinor int64) (models.Transaction, models.CatalogItem, error)
	PayRent(ctx context.Context, accountID, itemID string, offeredAmountMinor int64) (models.Transaction, error)
	CancelReservation(ctx context.Context, actorID, itemID string) (models.CatalogItem, error)
}
