package store

import (
	"context"
	"fmt"
	"time"

	"rentshop/internal/models"
)

type TransactionStore struct {
	db DB
}

func NewTransactionStore(db DB) *TransactionStore {
	return &TransactionStore{db: db}
}

type TransactionInput struct {
	ID          string
	AccountID   string
	Type        string
	RequestKind string
	Status      string
	Amount      int64
	Description string
	ReceiptRef  *string
}

type TransactionFilter struct {
	AccountID string
	Type      string
	Status    string
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

type TypeTotal struct {
	Type  string `db:"type"`
	Count int64  `db:"count"`
	Total int64  `db:"total"`
}

func (s *TransactionStore) Create(ctx context.Context, tx Execer, input TransactionInput) error {
	query := `
		INSERT INTO transactions (id, account_id, type, request_kind, status, amount, description, receipt_ref)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := tx.ExecContext(ctx, query,
		input.ID, input.AccountID, input.Type, input.RequestKind, input.Status,
		input.Amount, input.Description, input.ReceiptRef,
	)
	return err
}

func (s *TransactionStore) GetByID(ctx context.Context, transactionID string) (models.Transaction, error) {
	var row models.Transaction
	err := s.db.GetContext(ctx, &row, `
		SELECT id, account_id, type, request_kind, status, amount, description, receipt_ref, viewed, created_at
		FROM transactions
		WHERE id = $1
	`, transactionID)
	if err != nil {
		return models.Transaction{}, err
	}
	return row, nil
}

func (s *TransactionStore) GetForUpdate(ctx context.Context, tx Getter, transactionID string) (models.Transaction, error) {
	var row models.Transaction
	err := tx.GetContext(ctx, &row, `
		SELECT id, account_id, type, request_kind, status, amount, description, receipt_ref, viewed, created_at
		FROM transactions
		WHERE id = $1
		FOR UPDATE
	`, transactionID)
	if err != nil {
		return models.Transaction{}, err
	}
	return row, nil
}

// Finalize records the single pending -> approved/rejected transition along
// with the final amount and description. It is the only mutation an existing
// row ever sees apart from the viewed flag.
func (s *TransactionStore) Finalize(ctx context.Context, tx Execer, transactionID, status string, amount int64, description string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE transactions
		SET status = $1, amount = $2, description = $3
		WHERE id = $4
	`, status, amount, description, transactionID)
	return err
}

func (s *TransactionStore) List(ctx context.Context, filter TransactionFilter) ([]models.Transaction, error) {
	query := `
		SELECT id, account_id, type, request_kind, status, amount, description, receipt_ref, viewed, created_at
		FROM transactions
		WHERE 1=1
	`
	var args []any
	param := 1
	if filter.AccountID != "" {
		query += fmt.Sprintf(" AND account_id = $%d", param)
		args = append(args, filter.AccountID)
		param++
	}
	if filter.Type != "" {
		query += fmt.Sprintf(" AND type = $%d", param)
		args = append(args, filter.Type)
		param++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", param)
		args = append(args, filter.Status)
		param++
	}
	if filter.From != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", param)
		args = append(args, *filter.From)
		param++
	}
	if filter.To != nil {
		query += fmt.Sprintf(" AND created_at < $%d", param)
		args = append(args, *filter.To)
		param++
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", param, param+1)
	args = append(args, limit, filter.Offset)

	var rows []models.Transaction
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

// ListPendingRequests returns the staff work queue: pending rows that need a
// decision. Purchases and rent charges are excluded because they are created
// already approved.
func (s *TransactionStore) ListPendingRequests(ctx context.Context) ([]models.Transaction, error) {
	var rows []models.Transaction
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, account_id, type, request_kind, status, amount, description, receipt_ref, viewed, created_at
		FROM transactions
		WHERE status = 'pending' AND type NOT IN ('purchase', 'rent_charge')
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *TransactionStore) CountUnviewedIncome(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.GetContext(ctx, &count, `
		SELECT COUNT(*)
		FROM transactions
		WHERE type IN ('purchase', 'rent_charge') AND viewed = FALSE
	`)
	return count, err
}

func (s *TransactionStore) MarkIncomeViewed(ctx context.Context, tx Execer) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE transactions
		SET viewed = TRUE
		WHERE type IN ('purchase', 'rent_charge') AND viewed = FALSE
	`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// TotalsBetween aggregates approved transactions per type inside a reporting
// window (the shift report).
func (s *TransactionStore) TotalsBetween(ctx context.Context, from, to time.Time) ([]TypeTotal, error) {
	var rows []TypeTotal
	err := s.db.SelectContext(ctx, &rows, `
		SELECT type, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total
		FROM transactions
		WHERE status = 'approved' AND created_at >= $1 AND created_at < $2
		GROUP BY type
		ORDER BY type
	`, from, to)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
