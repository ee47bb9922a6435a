package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/davidmns/finsync/internal/apperrors"
	"github.com/davidmns/finsync/internal/model"
	"github.com/davidmns/finsync/internal/vault"
)

// CredentialsRepository provides data access methods for the
// entity_credentials table. The credential map is serialized to JSON and
// encrypted with the vault key before it touches the database.
type CredentialsRepository struct {
	q     Querier
	vault *vault.Vault
}

// NewCredentialsRepository creates a new CredentialsRepository with the
// provided database connection and vault.
func NewCredentialsRepository(db *sql.DB, v *vault.Vault) *CredentialsRepository {
	return &CredentialsRepository{q: db, vault: v}
}

// WithTx rebinds the repository to an open transaction.
func (r *CredentialsRepository) WithTx(tx *sql.Tx) *CredentialsRepository {
	return &CredentialsRepository{q: tx, vault: r.vault}
}

// Save upserts the credential map for the entity, stamping created_at and
// last_used_at with now.
func (r *CredentialsRepository) Save(ctx context.Context, entityID string, values map[string]string, now time.Time) error {
	plaintext, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	payload, err := r.vault.Encrypt(plaintext)
	if err != nil {
		return fmt.Errorf("failed to encrypt credentials: %w", err)
	}

	query := `
		INSERT INTO entity_credentials (entity_id, payload, created_at, last_used_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(entity_id) DO UPDATE SET
			payload = excluded.payload,
			created_at = excluded.created_at,
			last_used_at = excluded.last_used_at
	`

	if _, err := r.q.ExecContext(ctx, query, entityID, payload, formatTime(now), formatTime(now)); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	return nil
}

// Get returns the stored credentials for the entity, or ErrCredentialsNotFound.
func (r *CredentialsRepository) Get(ctx context.Context, entityID string) (*model.Credentials, error) {
	query := `
		SELECT payload, created_at, last_used_at, expiration
		FROM entity_credentials
		WHERE entity_id = ?
	`

	var payload, createdAtStr, lastUsedAtStr string
	var expirationStr sql.NullString

	err := r.q.QueryRowContext(ctx, query, entityID).Scan(&payload, &createdAtStr, &lastUsedAtStr, &expirationStr)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrCredentialsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan entity_credentials table results: %w", err)
	}

	plaintext, err := r.vault.Decrypt(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt credentials: %w", err)
	}

	c := model.Credentials{EntityID: entityID}
	if err := json.Unmarshal(plaintext, &c.Values); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credentials: %w", err)
	}

	if c.CreatedAt, err = ParseTime(createdAtStr); err != nil {
		return nil, err
	}
	if c.LastUsedAt, err = ParseTime(lastUsedAtStr); err != nil {
		return nil, err
	}
	if c.Expiration, err = scanNullTime(expirationStr); err != nil {
		return nil, err
	}
	return &c, nil
}

// Delete removes the credentials row for the entity.
func (r *CredentialsRepository) Delete(ctx context.Context, entityID string) error {
	if _, err := r.q.ExecContext(ctx, "DELETE FROM entity_credentials WHERE entity_id = ?", entityID); err != nil {
		return fmt.Errorf("failed to delete credentials: %w", err)
	}
	return nil
}

// UpdateLastUsage bumps last_used_at for the entity's credentials.
func (r *CredentialsRepository) UpdateLastUsage(ctx context.Context, entityID string, now time.Time) error {
	query := "UPDATE entity_credentials SET last_used_at = ? WHERE entity_id = ?"
	if _, err := r.q.ExecContext(ctx, query, formatTime(now), entityID); err != nil {
		return fmt.Errorf("failed to update credentials usage: %w", err)
	}
	return nil
}
