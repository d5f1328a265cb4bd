package store

import (
	"context"

	"rentshop/internal/models"
)

type PaymentMethodStore struct {
	db DB
}

func NewPaymentMethodStore(db DB) *PaymentMethodStore {
	return &PaymentMethodStore{db: db}
}

type PaymentMethodInput struct {
	ID              string
	Name            string
	InstructionText string
	IsActive        bool
	MinAmount       int64
	IconRef         string
	PaymentURL      string
}

func (s *PaymentMethodStore) Create(ctx context.Context, tx Execer, input PaymentMethodInput) error {
	query := `
		INSERT INTO payment_methods (id, name, instruction_text, is_active, min_amount, icon_ref, payment_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := tx.ExecContext(ctx, query,
		input.ID, input.Name, input.InstructionText, input.IsActive,
		input.MinAmount, input.IconRef, input.PaymentURL,
	)
	return err
}

func (s *PaymentMethodStore) Update(ctx context.Context, tx Execer, input PaymentMethodInput) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE payment_methods
		SET name = $1, instruction_text = $2, is_active = $3, min_amount = $4, icon_ref = $5, payment_url = $6
		WHERE id = $7
	`, input.Name, input.InstructionText, input.IsActive, input.MinAmount, input.IconRef, input.PaymentURL, input.ID)
	return err
}

func (s *PaymentMethodStore) GetByID(ctx context.Context, methodID string) (models.PaymentMethod, error) {
	var row models.PaymentMethod
	err := s.db.GetContext(ctx, &row, `
		SELECT id, name, instruction_text, is_active, min_amount, icon_ref, payment_url
		FROM payment_methods
		WHERE id = $1
	`, methodID)
	if err != nil {
		return models.PaymentMethod{}, err
	}
	return row, nil
}

func (s *PaymentMethodStore) List(ctx context.Context, activeOnly bool) ([]models.PaymentMethod, error) {
	query := `
		SELECT id, name, instruction_text, is_active, min_amount, icon_ref, payment_url
		FROM payment_methods
	`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY name`
	var rows []models.PaymentMethod
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *PaymentMethodStore) Delete(ctx context.Context, tx Execer, methodID string) (int64, error) {
	res, err := tx.ExecContext(ctx, `DELETE FROM payment_methods WHERE id = $1`, methodID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
