package store

import (
	"context"
	"time"

	"rentshop/internal/models"
)

type ItemStore struct {
	db DB
}

func NewItemStore(db DB) *ItemStore {
	return &ItemStore{db: db}
}

type ItemInput struct {
	ID             string
	Title          string
	Description    string
	ImageRef       string
	Price          int64
	Quantity       int
	Status         string
	OwnerID        *string
	ReservedAt     *time.Time
	LastPaidAmount int64
}

func (s *ItemStore) Create(ctx context.Context, tx Execer, input ItemInput) error {
	query := `
		INSERT INTO catalog_items (id, title, description, image_ref, price, quantity, status, owner_id, reserved_at, last_paid_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := tx.ExecContext(ctx, query,
		input.ID, input.Title, input.Description, input.ImageRef, input.Price,
		input.Quantity, input.Status, input.OwnerID, input.ReservedAt, input.LastPaidAmount,
	)
	return err
}

func (s *ItemStore) GetByID(ctx context.Context, itemID string) (models.CatalogItem, error) {
	var row models.CatalogItem
	err := s.db.GetContext(ctx, &row, `
		SELECT id, title, description, image_ref, price, quantity, status, owner_id, reserved_at, last_paid_amount, created_at
		FROM catalog_items
		WHERE id = $1
	`, itemID)
	if err != nil {
		return models.CatalogItem{}, err
	}
	return row, nil
}

func (s *ItemStore) GetForUpdate(ctx context.Context, tx Getter, itemID string) (models.CatalogItem, error) {
	var row models.CatalogItem
	err := tx.GetContext(ctx, &row, `
		SELECT id, title, description, image_ref, price, quantity, status, owner_id, reserved_at, last_paid_amount, created_at
		FROM catalog_items
		WHERE id = $1
		FOR UPDATE
	`, itemID)
	if err != nil {
		return models.CatalogItem{}, err
	}
	return row, nil
}

// Update rewrites the staff-editable fields of an item.
func (s *ItemStore) Update(ctx context.Context, tx Execer, input ItemInput) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE catalog_items
		SET title = $1, description = $2, image_ref = $3, price = $4, quantity = $5, status = $6
		WHERE id = $7
	`, input.Title, input.Description, input.ImageRef, input.Price, input.Quantity, input.Status, input.ID)
	return err
}

// UpdateReservation moves an item between reservation states, keeping the
// owner/status pairing consistent in a single statement.
func (s *ItemStore) UpdateReservation(ctx context.Context, tx Execer, itemID, status string, ownerID *string, reservedAt *time.Time, lastPaidAmount int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE catalog_items
		SET status = $1, owner_id = $2, reserved_at = $3, last_paid_amount = $4
		WHERE id = $5
	`, status, ownerID, reservedAt, lastPaidAmount, itemID)
	return err
}

func (s *ItemStore) SetQuantity(ctx context.Context, tx Execer, itemID string, quantity int) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE catalog_items
		SET quantity = $1
		WHERE id = $2
	`, quantity, itemID)
	return err
}

func (s *ItemStore) SetLastPaidAmount(ctx context.Context, tx Execer, itemID string, lastPaidAmount int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE catalog_items
		SET last_paid_amount = $1
		WHERE id = $2
	`, lastPaidAmount, itemID)
	return err
}

func (s *ItemStore) List(ctx context.Context, availableOnly bool) ([]models.CatalogItem, error) {
	query := `
		SELECT id, title, description, image_ref, price, quantity, status, owner_id, reserved_at, last_paid_amount, created_at
		FROM catalog_items
	`
	if availableOnly {
		query += ` WHERE status = 'available'`
	}
	query += ` ORDER BY created_at DESC`
	var rows []models.CatalogItem
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *ItemStore) ListByOwner(ctx context.Context, ownerID string) ([]models.CatalogItem, error) {
	var rows []models.CatalogItem
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, title, description, image_ref, price, quantity, status, owner_id, reserved_at, last_paid_amount, created_at
		FROM catalog_items
		WHERE owner_id = $1
		ORDER BY reserved_at DESC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ReleaseByOwner returns every item owned by an account to the shelf. Must
// run in the same transaction as an account delete, before the delete: the
// owner_id FK would otherwise null out while the status still says reserved.
func (s *ItemStore) ReleaseByOwner(ctx context.Context, tx Execer, ownerID string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE catalog_items
		SET status = 'available', owner_id = NULL, reserved_at = NULL, last_paid_amount = 0
		WHERE owner_id = $1
	`, ownerID)
	return err
}

func (s *ItemStore) Delete(ctx context.Context, tx Execer, itemID string) (int64, error) {
	res, err := tx.ExecContext(ctx, `DELETE FROM catalog_items WHERE id = $1`, itemID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
