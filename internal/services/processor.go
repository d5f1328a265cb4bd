package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"rentshop/internal/db"
	"rentshop/internal/models"
	"rentshop/internal/money"
	"rentshop/internal/store"
	"rentshop/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrItemUnavailable     = errors.New("item unavailable")
	ErrNotOwner            = errors.New("item does not belong to account")
	ErrItemNotFound        = errors.New("item not found")
	ErrAccountNotFound     = errors.New("account not found")
	ErrTransactionNotFound = errors.New("transaction not found")
)

// Processor enforces the transaction/balance state machine. Every entry
// point runs inside one serializable database transaction: balance, catalog
// and transaction rows either all commit or all abort. Balance reads use row
// locks, so two operations racing on the same account or item serialize.
type Processor struct {
	txRunner     db.TxRunner
	accounts     AccountStore
	items        ItemStore
	transactions TransactionStore
	audit        AuditStore
	hub          Hub
}

type AccountStore interface {
	GetForUpdate(ctx context.Context, tx store.Getter, accountID string) (models.Account, error)
	UpdateBalance(ctx context.Context, tx store.Execer, accountID string, balance int64) error
}

type ItemStore interface {
	Create(ctx context.Context, tx store.Execer, input store.ItemInput) error
	GetForUpdate(ctx context.Context, tx store.Getter, itemID string) (models.CatalogItem, error)
	UpdateReservation(ctx context.Context, tx store.Execer, itemID, status string, ownerID *string, reservedAt *time.Time, lastPaidAmount int64) error
	SetQuantity(ctx context.Context, tx store.Execer, itemID string, quantity int) error
	SetLastPaidAmount(ctx context.Context, tx store.Execer, itemID string, lastPaidAmount int64) error
}

type TransactionStore interface {
	Create(ctx context.Context, tx store.Execer, input store.TransactionInput) error
	GetForUpdate(ctx context.Context, tx store.Getter, transactionID string) (models.Transaction, error)
	Finalize(ctx context.Context, tx store.Execer, transactionID, status string, amount int64, description string) error
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
}

type Hub interface {
	BroadcastBalance(accountID string, update websocket.BalanceUpdate)
	BroadcastPending(alert websocket.PendingAlert)
}

func NewProcessor(txRunner db.TxRunner, accounts AccountStore, items ItemStore, transactions TransactionStore, audit AuditStore, hub Hub) *Processor {
	return &Processor{
		txRunner:     txRunner,
		accounts:     accounts,
		items:        items,
		transactions: transactions,
		audit:        audit,
		hub:          hub,
	}
}

// RequestDeposit records a pending deposit with the attached receipt
// reference. The balance is untouched until staff approve it.
func (p *Processor) RequestDeposit(ctx context.Context, accountID string, amountMinor int64, receiptRef string) (string, error) {
	if amountMinor <= 0 {
		return "", ErrInvalidAmount
	}
	transactionID := uuid.NewString()
	err := p.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := p.accounts.GetForUpdate(ctx, tx, accountID); err != nil {
			return accountErr(err)
		}
		var receipt *string
		if receiptRef != "" {
			receipt = &receiptRef
		}
		return p.transactions.Create(ctx, tx, store.TransactionInput{
			ID:          transactionID,
			AccountID:   accountID,
			Type:        models.TxDeposit,
			Status:      models.StatusPending,
			Amount:      amountMinor,
			Description: "Deposit request",
			ReceiptRef:  receipt,
		})
	})
	if err != nil {
		return "", err
	}
	p.hub.BroadcastPending(websocket.PendingAlert{
		TransactionID: transactionID,
		Type:          models.TxDeposit,
		Amount:        money.FormatMinor(amountMinor),
	})
	return transactionID, nil
}

// RequestWithdrawal debits the account immediately and records the pending
// withdrawal in the same atomic transaction, so a failed insert can never
// leave the debit behind.
func (p *Processor) RequestWithdrawal(ctx context.Context, accountID string, amountMinor int64, destination string) (string, error) {
	if amountMinor <= 0 {
		return "", ErrInvalidAmount
	}
	transactionID := uuid.NewString()
	var balanceAfter int64
	err := p.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		account, err := p.accounts.GetForUpdate(ctx, tx, accountID)
		if err != nil {
			return accountErr(err)
		}
		if amountMinor > account.Balance {
			return ErrInsufficientFunds
		}
		balanceAfter = account.Balance - amountMinor
		if err := p.accounts.UpdateBalance(ctx, tx, accountID, balanceAfter); err != nil {
			return err
		}
		return p.transactions.Create(ctx, tx, store.TransactionInput{
			ID:          transactionID,
			AccountID:   accountID,
			Type:        models.TxWithdrawal,
			RequestKind: models.KindWithdrawal,
			Status:      models.StatusPending,
			Amount:      amountMinor,
			Description: "Withdrawal request: " + destination,
		})
	})
	if err != nil {
		return "", err
	}
	p.hub.BroadcastBalance(accountID, websocket.BalanceUpdate{
		AccountID: accountID,
		Balance:   money.FormatMinor(balanceAfter),
	})
	p.hub.BroadcastPending(websocket.PendingAlert{
		TransactionID: transactionID,
		Type:          models.TxWithdrawal,
		Amount:        money.FormatMinor(amountMinor),
	})
	return transactionID, nil
}

// RequestRefund records a withdrawal-shaped pending row that does not debit
// anything; approval credits the account instead.
func (p *Processor) RequestRefund(ctx context.Context, accountID string, amountMinor int64, reason string) (string, error) {
	if amountMinor <= 0 {
		return "", ErrInvalidAmount
	}
	transactionID := uuid.NewString()
	err := p.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := p.accounts.GetForUpdate(ctx, tx, accountID); err != nil {
			return accountErr(err)
		}
		return p.transactions.Create(ctx, tx, store.TransactionInput{
			ID:          transactionID,
			AccountID:   accountID,
			Type:        models.TxWithdrawal,
			RequestKind: models.KindRefundRequest,
			Status:      models.StatusPending,
			Amount:      amountMinor,
			Description: "Refund request: " + reason,
		})
	})
	if err != nil {
		return "", err
	}
	p.hub.BroadcastPending(websocket.PendingAlert{
		TransactionID: transactionID,
		Type:          models.TxWithdrawal,
		Amount:        money.FormatMinor(amountMinor),
	})
	return transactionID, nil
}

// Approve finalizes a pending request. A second call on the same id is a
// silent no-op: the status guard is what makes approvals idempotent and
// rules out double credits. When manualAmountMinor is set, the row's amount
// is overwritten before any crediting happens.
func (p *Processor) Approve(ctx context.Context, actorID, transactionID string, manualAmountMinor *int64) (models.Transaction, error) {
	if manualAmountMinor != nil && *manualAmountMinor <= 0 {
		return models.Transaction{}, ErrInvalidAmount
	}
	var result models.Transaction
	var credited string
	var balanceAfter int64
	err := p.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		credited = ""
		txn, err := p.transactions.GetForUpdate(ctx, tx, transactionID)
		if err != nil {
			return transactionErr(err)
		}
		if txn.Status != models.StatusPending {
			result = txn
			return nil
		}
		amount := txn.Amount
		if manualAmountMinor != nil {
			amount = *manualAmountMinor
		}
		description := txn.Description
		switch {
		case txn.Type == models.TxDeposit:
			after, err := p.credit(ctx, tx, txn.AccountID, amount)
			if err != nil {
				return err
			}
			credited, balanceAfter = txn.AccountID, after
			description = fmt.Sprintf("Deposit confirmed, %s credited", money.FormatUnits(amount))
		case txn.Type == models.TxWithdrawal && txn.RequestKind == models.KindRefundRequest:
			after, err := p.credit(ctx, tx, txn.AccountID, amount)
			if err != nil {
				return err
			}
			credited, balanceAfter = txn.AccountID, after
			description = fmt.Sprintf("Refund completed, %s credited", money.FormatUnits(amount))
		case txn.Type == models.TxWithdrawal:
			// Funds were already debited at request time.
			description = fmt.Sprintf("Withdrawal confirmed, %s deducted", money.FormatUnits(amount))
		}
		if err := p.transactions.Finalize(ctx, tx, transactionID, models.StatusApproved, amount, description); err != nil {
			return err
		}
		txn.Status = models.StatusApproved
		txn.Amount = amount
		txn.Description = description
		result = txn
		return p.logAction(ctx, tx, actorID, "approve", txn.ID, amount)
	})
	if err != nil {
		return models.Transaction{}, err
	}
	if credited != "" {
		p.hub.BroadcastBalance(credited, websocket.BalanceUpdate{
			AccountID: credited,
			Balance:   money.FormatMinor(balanceAfter),
		})
	}
	return result, nil
}

// Reject finalizes a pending request as rejected. A plain withdrawal gets
// its optimistic debit credited back; a refund request never debited
// anything, so its balance is untouched. Non-pending rows are a silent
// no-op, same as Approve.
func (p *Processor) Reject(ctx context.Context, actorID, transactionID string) (models.Transaction, error) {
	var result models.Transaction
	var credited string
	var balanceAfter int64
	err := p.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		credited = ""
		txn, err := p.transactions.GetForUpdate(ctx, tx, transactionID)
		if err != nil {
			return transactionErr(err)
		}
		if txn.Status != models.StatusPending {
			result = txn
			return nil
		}
		if txn.Type == models.TxWithdrawal && txn.RequestKind != models.KindRefundRequest {
			after, err := p.credit(ctx, tx, txn.AccountID, txn.Amount)
			if err != nil {
				return err
			}
			credited, balanceAfter = txn.AccountID, after
		}
		if err := p.transactions.Finalize(ctx, tx, transactionID, models.StatusRejected, txn.Amount, txn.Description); err != nil {
			return err
		}
		txn.Status = models.StatusRejected
		result = txn
		return p.logAction(ctx, tx, actorID, "reject", txn.ID, txn.Amount)
	})
	if err != nil {
		return models.Transaction{}, err
	}
	if credited != "" {
		p.hub.BroadcastBalance(credited, websocket.BalanceUpdate{
			AccountID: credited,
			Balance:   money.FormatMinor(balanceAfter),
		})
	}
	return result, nil
}

// ProcessRefund is the staff-initiated path: it credits the account
// immediately and records an already-approved refund row.
func (p *Processor) ProcessRefund(ctx context.Context, actorID, accountID string, amountMinor int64, reason string) (models.Transaction, error) {
	if amountMinor <= 0 {
		return models.Transaction{}, ErrInvalidAmount
	}
	transactionID := uuid.NewString()
	var balanceAfter int64
	var result models.Transaction
	err := p.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		account, err := p.accounts.GetForUpdate(ctx, tx, accountID)
		if err != nil {
			return accountErr(err)
		}
		balanceAfter = account.Balance + amountMinor
		if err := p.accounts.UpdateBalance(ctx, tx, accountID, balanceAfter); err != nil {
			return err
		}
		input := store.TransactionInput{
			ID:          transactionID,
			AccountID:   accountID,
			Type:        models.TxRefund,
			Status:      models.StatusApproved,
			Amount:      amountMinor,
			Description: "Refund: " + reason,
		}
		if err := p.transactions.Create(ctx, tx, input); err != nil {
			return err
		}
		result = models.Transaction{
			ID:          transactionID,
			AccountID:   accountID,
			Type:        models.TxRefund,
			Status:      models.StatusApproved,
			Amount:      amountMinor,
			Description: input.Description,
		}
		return p.logAction(ctx, tx, actorID, "refund", transactionID, amountMinor)
	})
	if err != nil {
		return models.Transaction{}, err
	}
	p.hub.BroadcastBalance(accountID, websocket.BalanceUpdate{
		AccountID: accountID,
		Balance:   money.FormatMinor(balanceAfter),
	})
	return result, nil
}

// Reserve buys or books a catalog item. Free-price items (price 0) take the
// buyer's offered amount. A single-unit item is marked reserved in place;
// unlimited or multi-stock items spawn a single-unit clone owned by the
// buyer, leaving the template available.
func (p *Processor) Reserve(ctx context.Context, accountID, itemID string, offeredAmountMinor int64) (models.Transaction, models.CatalogItem, error) {
	var txnResult models.Transaction
	var itemResult models.CatalogItem
	var balanceAfter int64
	err := p.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		item, err := p.items.GetForUpdate(ctx, tx, itemID)
		if err != nil {
			return itemErr(err)
		}
		if item.Status != models.ItemAvailable {
			return ErrItemUnavailable
		}
		finalPrice, err := resolvePrice(item.Price, offeredAmountMinor)
		if err != nil {
			return err
		}
		account, err := p.accounts.GetForUpdate(ctx, tx, accountID)
		if err != nil {
			return accountErr(err)
		}
		if account.Balance < finalPrice {
			return ErrInsufficientFunds
		}
		balanceAfter = account.Balance - finalPrice
		if err := p.accounts.UpdateBalance(ctx, tx, accountID, balanceAfter); err != nil {
			return err
		}

		now := time.Now().UTC()
		if item.Quantity == 1 {
			if err := p.items.UpdateReservation(ctx, tx, item.ID, models.ItemReserved, &accountID, &now, finalPrice); err != nil {
				return err
			}
			item.Status = models.ItemReserved
			item.OwnerID = &accountID
			item.ReservedAt = &now
			item.LastPaidAmount = finalPrice
			itemResult = item
		} else {
			clone := store.ItemInput{
				ID:             uuid.NewString(),
				Title:          item.Title,
				Description:    item.Description,
				ImageRef:       item.ImageRef,
				Price:          item.Price,
				Quantity:       1,
				Status:         models.ItemReserved,
				OwnerID:        &accountID,
				ReservedAt:     &now,
				LastPaidAmount: finalPrice,
			}
			if err := p.items.Create(ctx, tx, clone); err != nil {
				return err
			}
			if item.Quantity > 1 {
				if err := p.items.SetQuantity(ctx, tx, item.ID, item.Quantity-1); err != nil {
					return err
				}
			}
			itemResult = models.CatalogItem{
				ID:             clone.ID,
				Title:          clone.Title,
				Description:    clone.Description,
				ImageRef:       clone.ImageRef,
				Price:          clone.Price,
				Quantity:       1,
				Status:         models.ItemReserved,
				OwnerID:        &accountID,
				ReservedAt:     &now,
				LastPaidAmount: finalPrice,
			}
		}

		transactionID := uuid.NewString()
		input := store.TransactionInput{
			ID:          transactionID,
			AccountID:   accountID,
			Type:        models.TxPurchase,
			Status:      models.StatusApproved,
			Amount:      finalPrice,
			Description: fmt.Sprintf("Purchase: %s, %s", item.Title, money.FormatUnits(finalPrice)),
		}
		if err := p.transactions.Create(ctx, tx, input); err != nil {
			return err
		}
		txnResult = models.Transaction{
			ID:          transactionID,
			AccountID:   accountID,
			Type:        models.TxPurchase,
			Status:      models.StatusApproved,
			Amount:      finalPrice,
			Description: input.Description,
		}
		return nil
	})
	if err != nil {
		return models.Transaction{}, models.CatalogItem{}, err
	}
	p.hub.BroadcastBalance(accountID, websocket.BalanceUpdate{
		AccountID: accountID,
		Balance:   money.FormatMinor(balanceAfter),
	})
	return txnResult, itemResult, nil
}

// PayRent charges the current owner of an item, accumulating the item's
// last_paid_amount. The item's status does not change.
func (p *Processor) PayRent(ctx context.Context, accountID, itemID string, offeredAmountMinor int64) (models.Transaction, error) {
	var txnResult models.Transaction
	var balanceAfter int64
	err := p.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		item, err := p.items.GetForUpdate(ctx, tx, itemID)
		if err != nil {
			return itemErr(err)
		}
		if item.OwnerID == nil || *item.OwnerID != accountID {
			return ErrNotOwner
		}
		finalPrice, err := resolvePrice(item.Price, offeredAmountMinor)
		if err != nil {
			return err
		}
		account, err := p.accounts.GetForUpdate(ctx, tx, accountID)
		if err != nil {
			return accountErr(err)
		}
		if account.Balance < finalPrice {
			return ErrInsufficientFunds
		}
		balanceAfter = account.Balance - finalPrice
		if err := p.accounts.UpdateBalance(ctx, tx, accountID, balanceAfter); err != nil {
			return err
		}
		if err := p.items.SetLastPaidAmount(ctx, tx, item.ID, item.LastPaidAmount+finalPrice); err != nil {
			return err
		}
		transactionID := uuid.NewString()
		input := store.TransactionInput{
			ID:          transactionID,
			AccountID:   accountID,
			Type:        models.TxRentCharge,
			Status:      models.StatusApproved,
			Amount:      finalPrice,
			Description: fmt.Sprintf("Rent: %s, %s", item.Title, money.FormatUnits(finalPrice)),
		}
		if err := p.transactions.Create(ctx, tx, input); err != nil {
			return err
		}
		txnResult = models.Transaction{
			ID:          transactionID,
			AccountID:   accountID,
			Type:        models.TxRentCharge,
			Status:      models.StatusApproved,
			Amount:      finalPrice,
			Description: input.Description,
		}
		return nil
	})
	if err != nil {
		return models.Transaction{}, err
	}
	p.hub.BroadcastBalance(accountID, websocket.BalanceUpdate{
		AccountID: accountID,
		Balance:   money.FormatMinor(balanceAfter),
	})
	return txnResult, nil
}

// CancelReservation returns an item to the shelf, clearing owner and
// timestamps. Paid amounts are not returned: a refund, if due, is a separate
// staff decision via ProcessRefund.
func (p *Processor) CancelReservation(ctx context.Context, actorID, itemID string) (models.CatalogItem, error) {
	var result models.CatalogItem
	err := p.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		item, err := p.items.GetForUpdate(ctx, tx, itemID)
		if err != nil {
			return itemErr(err)
		}
		if err := p.items.UpdateReservation(ctx, tx, item.ID, models.ItemAvailable, nil, nil, 0); err != nil {
			return err
		}
		item.Status = models.ItemAvailable
		item.OwnerID = nil
		item.ReservedAt = nil
		item.LastPaidAmount = 0
		result = item
		return p.logAction(ctx, tx, actorID, "cancel_reservation", item.ID, 0)
	})
	if err != nil {
		return models.CatalogItem{}, err
	}
	return result, nil
}

func (p *Processor) credit(ctx context.Context, tx *sqlx.Tx, accountID string, amountMinor int64) (int64, error) {
	account, err := p.accounts.GetForUpdate(ctx, tx, accountID)
	if err != nil {
		return 0, accountErr(err)
	}
	after := account.Balance + amountMinor
	if err := p.accounts.UpdateBalance(ctx, tx, accountID, after); err != nil {
		return 0, err
	}
	return after, nil
}

func (p *Processor) logAction(ctx context.Context, tx *sqlx.Tx, actorID, action, entityID string, amountMinor int64) error {
	data, _ := json.Marshal(map[string]string{
		"amount": money.FormatMinor(amountMinor),
	})
	entityType := "transaction"
	if action == "cancel_reservation" {
		entityType = "item"
	}
	return p.audit.Log(ctx, tx, actorID, action, entityType, entityID, string(data))
}

// resolvePrice applies the free-price rule: a zero list price means the
// buyer names the amount, which must still be positive.
func resolvePrice(listPrice, offeredAmountMinor int64) (int64, error) {
	if listPrice > 0 {
		return listPrice, nil
	}
	if offeredAmountMinor <= 0 {
		return 0, ErrInvalidAmount
	}
	return offeredAmountMinor, nil
}

func accountErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrAccountNotFound
	}
	return err
}

func itemErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrItemNotFound
	}
	return err
}

func transactionErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrTransactionNotFound
	}
	return err
}
