package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/davidmns/finsync/internal/apperrors"
	"github.com/davidmns/finsync/internal/model"
	"github.com/davidmns/finsync/internal/vault"
)

// SessionRepository provides data access methods for the entity_sessions
// table. Payloads are opaque to everything but the adapter and encrypted
// with the vault key at rest.
type SessionRepository struct {
	q     Querier
	vault *vault.Vault
}

// NewSessionRepository creates a new SessionRepository with the provided
// database connection and vault.
func NewSessionRepository(db *sql.DB, v *vault.Vault) *SessionRepository {
	return &SessionRepository{q: db, vault: v}
}

// WithTx rebinds the repository to an open transaction.
func (r *SessionRepository) WithTx(tx *sql.Tx) *SessionRepository {
	return &SessionRepository{q: tx, vault: r.vault}
}

// Save upserts the session for its entity.
func (r *SessionRepository) Save(ctx context.Context, s *model.Session) error {
	payload, err := r.vault.Encrypt(s.Payload)
	if err != nil {
		return fmt.Errorf("failed to encrypt session payload: %w", err)
	}

	query := `
		INSERT INTO entity_sessions (entity_id, payload, created_at, expiration)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(entity_id) DO UPDATE SET
			payload = excluded.payload,
			created_at = excluded.created_at,
			expiration = excluded.expiration
	`

	if _, err := r.q.ExecContext(ctx, query, s.EntityID, payload, formatTime(s.CreatedAt), nullTime(s.Expiration)); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Get returns the stored session for the entity, or ErrSessionNotFound.
func (r *SessionRepository) Get(ctx context.Context, entityID string) (*model.Session, error) {
	query := "SELECT payload, created_at, expiration FROM entity_sessions WHERE entity_id = ?"

	var payload, createdAtStr string
	var expirationStr sql.NullString

	err := r.q.QueryRowContext(ctx, query, entityID).Scan(&payload, &createdAtStr, &expirationStr)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan entity_sessions table results: %w", err)
	}

	s := model.Session{EntityID: entityID}
	if s.Payload, err = r.vault.Decrypt(payload); err != nil {
		return nil, fmt.Errorf("failed to decrypt session payload: %w", err)
	}
	if s.CreatedAt, err = ParseTime(createdAtStr); err != nil {
		return nil, err
	}
	if s.Expiration, err = scanNullTime(expirationStr); err != nil {
		return nil, err
	}
	return &s, nil
}

// Delete removes the session row for the entity.
func (r *SessionRepository) Delete(ctx context.Context, entityID string) error {
	if _, err := r.q.ExecContext(ctx, "DELETE FROM entity_sessions WHERE entity_id = ?", entityID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
