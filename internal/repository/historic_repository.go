package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/davidmns/finsync/internal/model"
)

// HistoricRepository provides data access methods for the investment_historic
// table. The set for an entity is replaced wholesale on every historic fetch.
type HistoricRepository struct {
	q Querier
}

// NewHistoricRepository creates a new HistoricRepository with the provided database connection.
func NewHistoricRepository(db *sql.DB) *HistoricRepository {
	return &HistoricRepository{q: db}
}

// WithTx rebinds the repository to an open transaction.
func (r *HistoricRepository) WithTx(tx *sql.Tx) *HistoricRepository {
	return &HistoricRepository{q: tx}
}

// ReplaceForEntity deletes the entity's historic entries and inserts the new set.
func (r *HistoricRepository) ReplaceForEntity(ctx context.Context, entityID string, entries []model.HistoricEntry) error {
	if _, err := r.q.ExecContext(ctx, "DELETE FROM investment_historic WHERE entity_id = ?", entityID); err != nil {
		return fmt.Errorf("failed to delete historic entries: %w", err)
	}

	query := `
		INSERT INTO investment_historic
			(id, entity_id, name, product_type, invested, returned, fees, taxes, currency, maturity, related_tx_refs)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	for _, e := range entries {
		var refs any
		if len(e.RelatedTxRefs) > 0 {
			encoded, err := json.Marshal(e.RelatedTxRefs)
			if err != nil {
				return fmt.Errorf("failed to marshal related refs: %w", err)
			}
			refs = string(encoded)
		}

		_, err := r.q.ExecContext(ctx, query, e.ID, entityID, e.Name, e.ProductType,
			e.Invested, e.Returned, e.Fees, e.Taxes, e.Currency, nullDay(e.Maturity), refs)
		if err != nil {
			return fmt.Errorf("failed to insert historic entry: %w", err)
		}
	}
	return nil
}

// ListByEntity returns the entity's historic entries ordered by name.
func (r *HistoricRepository) ListByEntity(ctx context.Context, entityID string) ([]model.HistoricEntry, error) {
	query := `
		SELECT id, name, product_type, invested, returned, fees, taxes, currency, maturity, related_tx_refs
		FROM investment_historic
		WHERE entity_id = ?
		ORDER BY name ASC
	`

	rows, err := r.q.QueryContext(ctx, query, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to query investment_historic table: %w", err)
	}
	defer rows.Close()

	entries := []model.HistoricEntry{}
	for rows.Next() {
		var e model.HistoricEntry
		var maturity, refs sql.NullString

		err := rows.Scan(&e.ID, &e.Name, &e.ProductType, &e.Invested, &e.Returned,
			&e.Fees, &e.Taxes, &e.Currency, &maturity, &refs)
		if err != nil {
			return nil, fmt.Errorf("failed to scan investment_historic table results: %w", err)
		}
		if e.Maturity, err = scanNullTime(maturity); err != nil {
			return nil, err
		}
		if refs.Valid && refs.String != "" {
			if err := json.Unmarshal([]byte(refs.String), &e.RelatedTxRefs); err != nil {
				return nil, fmt.Errorf("failed to unmarshal related refs: %w", err)
			}
		}
		e.EntityID = entityID
		entries = append(entries, e)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating investment_historic table: %w", err)
	}
	return entries, nil
}
