package store

import (
	"context"

	"rentshop/internal/models"
)

type AccountStore struct {
	db DB
}

func NewAccountStore(db DB) *AccountStore {
	return &AccountStore{db: db}
}

func (s *AccountStore) Create(ctx context.Context, tx Execer, id, displayName, login, passwordHash, role string, balance int64) error {
	query := `
		INSERT INTO accounts (id, display_name, login, password_hash, balance, role)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := tx.ExecContext(ctx, query, id, displayName, login, passwordHash, balance, role)
	return err
}

func (s *AccountStore) GetByID(ctx context.Context, accountID string) (models.Account, error) {
	var row models.Account
	err := s.db.GetContext(ctx, &row, `
		SELECT id, display_name, login, password_hash, balance, role, created_at
		FROM accounts
		WHERE id = $1
	`, accountID)
	if err != nil {
		return models.Account{}, err
	}
	return row, nil
}

func (s *AccountStore) GetByLogin(ctx context.Context, login string) (models.Account, error) {
	var row models.Account
	err := s.db.GetContext(ctx, &row, `
		SELECT id, display_name, login, password_hash, balance, role, created_at
		FROM accounts
		WHERE login = $1
	`, login)
	if err != nil {
		return models.Account{}, err
	}
	return row, nil
}

func (s *AccountStore) GetForUpdate(ctx context.Context, tx Getter, accountID string) (models.Account, error) {
	var row models.Account
	err := tx.GetContext(ctx, &row, `
		SELECT id, display_name, login, password_hash, balance, role, created_at
		FROM accounts
		WHERE id = $1
		FOR UPDATE
	`, accountID)
	if err != nil {
		return models.Account{}, err
	}
	return row, nil
}

func (s *AccountStore) GetRole(ctx context.Context, accountID string) (string, error) {
	var role string
	err := s.db.GetContext(ctx, &role, `
		SELECT role FROM accounts WHERE id = $1
	`, accountID)
	return role, err
}

func (s *AccountStore) UpdateBalance(ctx context.Context, tx Execer, accountID string, balance int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE accounts
		SET balance = $1
		WHERE id = $2
	`, balance, accountID)
	return err
}

func (s *AccountStore) List(ctx context.Context) ([]models.Account, error) {
	var rows []models.Account
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, display_name, login, password_hash, balance, role, created_at
		FROM accounts
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Delete removes an account only while its balance is zero; the WHERE guard
// makes the check race-free. Returns the number of rows removed.
func (s *AccountStore) Delete(ctx context.Context, tx Execer, accountID string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		DELETE FROM accounts
		WHERE id = $1 AND balance = 0
	`, accountID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
