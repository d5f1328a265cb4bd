package store

import (
	"context"
	"time"
)

// AuditStore records staff actions (approvals, rejections, refunds,
// inventory changes) in the same transaction as the mutation itself.
type AuditStore struct {
	db DB
}

type AuditLog struct {
	ID             string    `db:"id"`
	ActorAccountID *string   `db:"actor_account_id"`
	Action         string    `db:"action"`
	EntityType     string    `db:"entity_type"`
	EntityID       string    `db:"entity_id"`
	Data           string    `db:"data"`
	CreatedAt      time.Time `db:"created_at"`
}

func NewAuditStore(db DB) *AuditStore {
	return &AuditStore{db: db}
}

func (s *AuditStore) Log(ctx context.Context, tx Execer, actorID, action, entityType, entityID, data string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO audit_logs (id, actor_account_id, action, entity_type, entity_id, data)
		VALUES (gen_random_uuid()::text, $1, $2, $3, $4, $5)
	`, actorID, action, entityType, entityID, data)
	return err
}

func (s *AuditStore) List(ctx context.Context, limit, offset int) ([]AuditLog, error) {
	var rows []AuditLog
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, actor_account_id, action, entity_type, entity_id, data, created_at
		FROM audit_logs
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
