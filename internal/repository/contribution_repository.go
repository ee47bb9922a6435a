package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/davidmns/finsync/internal/model"
)

// ContributionRepository provides data access methods for the
// auto_contributions table. The set for an entity is replaced wholesale on
// every contributions fetch.
type ContributionRepository struct {
	q Querier
}

// NewContributionRepository creates a new ContributionRepository with the provided database connection.
func NewContributionRepository(db *sql.DB) *ContributionRepository {
	return &ContributionRepository{q: db}
}

// WithTx rebinds the repository to an open transaction.
func (r *ContributionRepository) WithTx(tx *sql.Tx) *ContributionRepository {
	return &ContributionRepository{q: tx}
}

// ReplaceForEntity deletes the entity's contribution rules and inserts the new set.
func (r *ContributionRepository) ReplaceForEntity(ctx context.Context, entityID string, contributions []model.AutoContribution) error {
	if _, err := r.q.ExecContext(ctx, "DELETE FROM auto_contributions WHERE entity_id = ?", entityID); err != nil {
		return fmt.Errorf("failed to delete contributions: %w", err)
	}

	query := `
		INSERT INTO auto_contributions
			(id, entity_id, target, target_name, alias, amount, currency, periodicity, next_date, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	for _, c := range contributions {
		_, err := r.q.ExecContext(ctx, query, c.ID, entityID, c.Target, c.TargetName,
			c.Alias, c.Amount, c.Currency, c.Periodicity, nullDay(c.NextDate), c.Active)
		if err != nil {
			return fmt.Errorf("failed to insert contribution: %w", err)
		}
	}
	return nil
}

// ListByEntity returns the entity's contribution rules.
func (r *ContributionRepository) ListByEntity(ctx context.Context, entityID string) ([]model.AutoContribution, error) {
	query := `
		SELECT id, target, target_name, alias, amount, currency, periodicity, next_date, active
		FROM auto_contributions
		WHERE entity_id = ?
	`

	rows, err := r.q.QueryContext(ctx, query, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to query auto_contributions table: %w", err)
	}
	defer rows.Close()

	contributions := []model.AutoContribution{}
	for rows.Next() {
		var c model.AutoContribution
		var targetName, alias, nextDate sql.NullString

		err := rows.Scan(&c.ID, &c.Target, &targetName, &alias, &c.Amount,
			&c.Currency, &c.Periodicity, &nextDate, &c.Active)
		if err != nil {
			return nil, fmt.Errorf("failed to scan auto_contributions table results: %w", err)
		}
		c.TargetName = targetName.String
		c.Alias = alias.String
		if c.NextDate, err = scanNullTime(nextDate); err != nil {
			return nil, err
		}
		c.EntityID = entityID
		contributions = append(contributions, c)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating auto_contributions table: %w", err)
	}
	return contributions, nil
}
