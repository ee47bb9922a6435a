package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/davidmns/finsync/internal/model"
)

// FetchRecordRepository provides data access methods for the last_fetches
// table, the per-(entity, feature) high-water mark the cooldown check reads.
type FetchRecordRepository struct {
	q Querier
}

// NewFetchRecordRepository creates a new FetchRecordRepository with the
// provided database connection.
func NewFetchRecordRepository(db *sql.DB) *FetchRecordRepository {
	return &FetchRecordRepository{q: db}
}

// WithTx rebinds the repository to an open transaction.
func (r *FetchRecordRepository) WithTx(tx *sql.Tx) *FetchRecordRepository {
	return &FetchRecordRepository{q: tx}
}

// Upsert records a successful fetch of the feature at the given time.
func (r *FetchRecordRepository) Upsert(ctx context.Context, entityID string, feature model.Feature, date time.Time) error {
	query := `
		INSERT INTO last_fetches (entity_id, feature, date)
		VALUES (?, ?, ?)
		ON CONFLICT(entity_id, feature) DO UPDATE SET date = excluded.date
	`

	if _, err := r.q.ExecContext(ctx, query, entityID, feature, formatTime(date)); err != nil {
		return fmt.Errorf("failed to upsert fetch record: %w", err)
	}
	return nil
}

// Get returns the last fetch record for (entity, feature), or nil when the
// feature has never been fetched.
func (r *FetchRecordRepository) Get(ctx context.Context, entityID string, feature model.Feature) (*model.FetchRecord, error) {
	query := "SELECT date FROM last_fetches WHERE entity_id = ? AND feature = ?"

	var dateStr string
	err := r.q.QueryRowContext(ctx, query, entityID, feature).Scan(&dateStr)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan last_fetches table results: %w", err)
	}

	date, err := ParseTime(dateStr)
	if err != nil {
		return nil, err
	}
	return &model.FetchRecord{EntityID: entityID, Feature: feature, Date: date}, nil
}

// ListByEntity returns every fetch record of the entity.
func (r *FetchRecordRepository) ListByEntity(ctx context.Context, entityID string) ([]model.FetchRecord, error) {
	rows, err := r.q.QueryContext(ctx, "SELECT feature, date FROM last_fetches WHERE entity_id = ?", entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to query last_fetches table: %w", err)
	}
	defer rows.Close()

	records := []model.FetchRecord{}
	for rows.Next() {
		var rec model.FetchRecord
		var dateStr string

		if err := rows.Scan(&rec.Feature, &dateStr); err != nil {
			return nil, fmt.Errorf("failed to scan last_fetches table results: %w", err)
		}
		if rec.Date, err = ParseTime(dateStr); err != nil {
			return nil, err
		}
		rec.EntityID = entityID
		records = append(records, rec)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating last_fetches table: %w", err)
	}
	return records, nil
}
