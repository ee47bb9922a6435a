package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/davidmns/finsync/internal/model"
)

// VirtualImportRepository provides data access methods for the
// virtual_data_imports table, the bookkeeping behind spreadsheet imports.
type VirtualImportRepository struct {
	q Querier
}

// NewVirtualImportRepository creates a new VirtualImportRepository with the provided database connection.
func NewVirtualImportRepository(db *sql.DB) *VirtualImportRepository {
	return &VirtualImportRepository{q: db}
}

// WithTx rebinds the repository to an open transaction.
func (r *VirtualImportRepository) WithTx(tx *sql.Tx) *VirtualImportRepository {
	return &VirtualImportRepository{q: tx}
}

// Insert records one imported row of a batch.
func (r *VirtualImportRepository) Insert(ctx context.Context, imp model.VirtualDataImport) error {
	query := `
		INSERT INTO virtual_data_imports (import_id, global_position_id, source, date, feature, entity_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	var positionID, feature, entityID any
	if imp.GlobalPositionID != "" {
		positionID = imp.GlobalPositionID
	}
	if imp.Feature != "" {
		feature = imp.Feature
	}
	if imp.EntityID != "" {
		entityID = imp.EntityID
	}

	if _, err := r.q.ExecContext(ctx, query, imp.ImportID, positionID, imp.Source, formatTime(imp.Date), feature, entityID); err != nil {
		return fmt.Errorf("failed to insert virtual import: %w", err)
	}
	return nil
}

// ListByBatch returns every bookkeeping row of one import batch.
func (r *VirtualImportRepository) ListByBatch(ctx context.Context, importID string) ([]model.VirtualDataImport, error) {
	query := `
		SELECT import_id, global_position_id, source, date, feature, entity_id
		FROM virtual_data_imports
		WHERE import_id = ?
	`

	rows, err := r.q.QueryContext(ctx, query, importID)
	if err != nil {
		return nil, fmt.Errorf("failed to query virtual_data_imports table: %w", err)
	}
	defer rows.Close()

	imports := []model.VirtualDataImport{}
	for rows.Next() {
		var imp model.VirtualDataImport
		var positionID, feature, entityID sql.NullString
		var dateStr string

		if err := rows.Scan(&imp.ImportID, &positionID, &imp.Source, &dateStr, &feature, &entityID); err != nil {
			return nil, fmt.Errorf("failed to scan virtual_data_imports table results: %w", err)
		}
		imp.GlobalPositionID = positionID.String
		imp.Feature = model.Feature(feature.String)
		imp.EntityID = entityID.String
		if imp.Date, err = ParseTime(dateStr); err != nil {
			return nil, err
		}
		imports = append(imports, imp)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating virtual_data_imports table: %w", err)
	}
	return imports, nil
}
