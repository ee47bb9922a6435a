package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/davidmns/finsync/internal/apperrors"
	"github.com/davidmns/finsync/internal/model"
)

// EntityRepository provides data access methods for the entities table.
// Native entries are upserted at boot; manual entries are created by the
// virtual importer. Deleting an entity cascades to every dependent table.
type EntityRepository struct {
	q Querier
}

// NewEntityRepository creates a new EntityRepository with the provided database connection.
func NewEntityRepository(db *sql.DB) *EntityRepository {
	return &EntityRepository{q: db}
}

// WithTx rebinds the repository to an open transaction.
func (r *EntityRepository) WithTx(tx *sql.Tx) *EntityRepository {
	return &EntityRepository{q: tx}
}

// Upsert inserts the entity or refreshes its name, type and origin when the
// ID already exists. Used to seed the native catalog at boot.
func (r *EntityRepository) Upsert(ctx context.Context, e model.Entity) error {
	query := `
		INSERT INTO entities (id, name, natural_id, type, origin)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, type = excluded.type, origin = excluded.origin
	`

	var naturalID any
	if e.NaturalID != "" {
		naturalID = e.NaturalID
	}

	if _, err := r.q.ExecContext(ctx, query, e.ID, e.Name, naturalID, e.Type, e.Origin); err != nil {
		return fmt.Errorf("failed to upsert entity: %w", err)
	}
	return nil
}

// Create inserts a new entity row.
func (r *EntityRepository) Create(ctx context.Context, e model.Entity) error {
	query := `
		INSERT INTO entities (id, name, natural_id, type, origin)
		VALUES (?, ?, ?, ?, ?)
	`

	var naturalID any
	if e.NaturalID != "" {
		naturalID = e.NaturalID
	}

	if _, err := r.q.ExecContext(ctx, query, e.ID, e.Name, naturalID, e.Type, e.Origin); err != nil {
		return fmt.Errorf("failed to create entity: %w", err)
	}
	return nil
}

// GetByID returns the entity with the given ID, or ErrEntityNotFound.
func (r *EntityRepository) GetByID(ctx context.Context, id string) (*model.Entity, error) {
	return r.getOne(ctx, "SELECT id, name, natural_id, type, origin FROM entities WHERE id = ?", id)
}

// GetByName returns the entity with the given name, or ErrEntityNotFound.
// Used by the virtual importer to resolve sheet rows to existing entities.
func (r *EntityRepository) GetByName(ctx context.Context, name string) (*model.Entity, error) {
	return r.getOne(ctx, "SELECT id, name, natural_id, type, origin FROM entities WHERE name = ?", name)
}

func (r *EntityRepository) getOne(ctx context.Context, query string, arg any) (*model.Entity, error) {
	var e model.Entity
	var naturalID sql.NullString

	err := r.q.QueryRowContext(ctx, query, arg).Scan(&e.ID, &e.Name, &naturalID, &e.Type, &e.Origin)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrEntityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan entities table results: %w", err)
	}

	if naturalID.Valid {
		e.NaturalID = naturalID.String
	}
	return &e, nil
}

// List returns every entity ordered by name.
func (r *EntityRepository) List(ctx context.Context) ([]model.Entity, error) {
	rows, err := r.q.QueryContext(ctx, "SELECT id, name, natural_id, type, origin FROM entities ORDER BY name ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query entities table: %w", err)
	}
	defer rows.Close()

	entities := []model.Entity{}
	for rows.Next() {
		var e model.Entity
		var naturalID sql.NullString

		if err := rows.Scan(&e.ID, &e.Name, &naturalID, &e.Type, &e.Origin); err != nil {
			return nil, fmt.Errorf("failed to scan entities table results: %w", err)
		}
		if naturalID.Valid {
			e.NaturalID = naturalID.String
		}
		entities = append(entities, e)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entities table: %w", err)
	}
	return entities, nil
}

// Delete removes the entity. Credentials, sessions, positions, transactions,
// historic entries and last-fetches go with it through the schema cascades.
func (r *EntityRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.q.ExecContext(ctx, "DELETE FROM entities WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete entity: %w", err)
	}
	return nil
}
