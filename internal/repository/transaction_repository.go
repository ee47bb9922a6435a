package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/davidmns/finsync/internal/model"
)

// TransactionRepository provides data access methods for the
// account_transactions and investment_transactions tables. Rows are immutable
// and deduplicated on (entity_id, ref) with INSERT OR IGNORE, so re-ingesting
// a known ref is a no-op.
type TransactionRepository struct {
	q Querier
}

// NewTransactionRepository creates a new TransactionRepository with the provided database connection.
func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{q: db}
}

// WithTx rebinds the repository to an open transaction.
func (r *TransactionRepository) WithTx(tx *sql.Tx) *TransactionRepository {
	return &TransactionRepository{q: tx}
}

// Refs returns the set of source refs already registered for the entity,
// across both transaction tables. The orchestrator hands this to the adapter
// so it can skip items the store already has.
func (r *TransactionRepository) Refs(ctx context.Context, entityID string) (map[string]bool, error) {
	refs := make(map[string]bool)

	for _, table := range []string{"account_transactions", "investment_transactions"} {
		query := "SELECT ref FROM " + table + " WHERE entity_id = ?"
		if err := r.collectRefs(ctx, refs, query, entityID); err != nil {
			return nil, err
		}
	}
	return refs, nil
}

// VirtualRefs returns the refs of every non-real transaction, the dedupe set
// for spreadsheet imports.
func (r *TransactionRepository) VirtualRefs(ctx context.Context) (map[string]bool, error) {
	refs := make(map[string]bool)

	for _, table := range []string{"account_transactions", "investment_transactions"} {
		query := "SELECT ref FROM " + table + " WHERE is_real = 0"
		if err := r.collectRefs(ctx, refs, query); err != nil {
			return nil, err
		}
	}
	return refs, nil
}

func (r *TransactionRepository) collectRefs(ctx context.Context, refs map[string]bool, query string, args ...any) error {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to query transaction refs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return fmt.Errorf("failed to scan transaction refs: %w", err)
		}
		refs[ref] = true
	}
	return rows.Err()
}

// InsertAccountTransactions inserts the given cash movements, silently
// skipping refs the entity already has.
func (r *TransactionRepository) InsertAccountTransactions(ctx context.Context, txs []model.AccountTransaction) error {
	query := `
		INSERT OR IGNORE INTO account_transactions
			(id, ref, entity_id, name, date, amount, fees, currency, type, is_real, source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	for _, tx := range txs {
		_, err := r.q.ExecContext(ctx, query, tx.ID, tx.Ref, tx.EntityID, tx.Name,
			formatTime(tx.Date), tx.Amount, tx.Fees, tx.Currency, tx.Type, tx.IsReal, tx.Source)
		if err != nil {
			return fmt.Errorf("failed to insert account transaction: %w", err)
		}
	}
	return nil
}

// InsertInvestmentTransactions inserts the given investment events, silently
// skipping refs the entity already has.
func (r *TransactionRepository) InsertInvestmentTransactions(ctx context.Context, txs []model.InvestmentTransaction) error {
	query := `
		INSERT OR IGNORE INTO investment_transactions
			(id, ref, entity_id, name, date, amount, net_amount, fees, taxes, shares,
			 price, currency, product_type, type, is_real, source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	for _, tx := range txs {
		_, err := r.q.ExecContext(ctx, query, tx.ID, tx.Ref, tx.EntityID, tx.Name,
			formatTime(tx.Date), tx.Amount, tx.NetAmount, tx.Fees, tx.Taxes, tx.Shares,
			tx.Price, tx.Currency, tx.ProductType, tx.Type, tx.IsReal, tx.Source)
		if err != nil {
			return fmt.Errorf("failed to insert investment transaction: %w", err)
		}
	}
	return nil
}

// ListAccountTransactions returns the entity's cash movements ordered by date.
func (r *TransactionRepository) ListAccountTransactions(ctx context.Context, entityID string) ([]model.AccountTransaction, error) {
	query := `
		SELECT id, ref, name, date, amount, fees, currency, type, is_real, source
		FROM account_transactions
		WHERE entity_id = ?
		ORDER BY date ASC
	`

	rows, err := r.q.QueryContext(ctx, query, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to query account_transactions table: %w", err)
	}
	defer rows.Close()

	txs := []model.AccountTransaction{}
	for rows.Next() {
		var tx model.AccountTransaction
		var dateStr string

		err := rows.Scan(&tx.ID, &tx.Ref, &tx.Name, &dateStr, &tx.Amount, &tx.Fees,
			&tx.Currency, &tx.Type, &tx.IsReal, &tx.Source)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account_transactions table results: %w", err)
		}
		if tx.Date, err = ParseTime(dateStr); err != nil {
			return nil, err
		}
		tx.EntityID = entityID
		txs = append(txs, tx)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account_transactions table: %w", err)
	}
	return txs, nil
}

// ListInvestmentTransactions returns the entity's investment events ordered by date.
func (r *TransactionRepository) ListInvestmentTransactions(ctx context.Context, entityID string) ([]model.InvestmentTransaction, error) {
	query := `
		SELECT id, ref, name, date, amount, net_amount, fees, taxes, shares, price,
		       currency, product_type, type, is_real, source
		FROM investment_transactions
		WHERE entity_id = ?
		ORDER BY date ASC
	`

	rows, err := r.q.QueryContext(ctx, query, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to query investment_transactions table: %w", err)
	}
	defer rows.Close()

	txs := []model.InvestmentTransaction{}
	for rows.Next() {
		var tx model.InvestmentTransaction
		var dateStr string

		err := rows.Scan(&tx.ID, &tx.Ref, &tx.Name, &dateStr, &tx.Amount, &tx.NetAmount,
			&tx.Fees, &tx.Taxes, &tx.Shares, &tx.Price, &tx.Currency, &tx.ProductType,
			&tx.Type, &tx.IsReal, &tx.Source)
		if err != nil {
			return nil, fmt.Errorf("failed to scan investment_transactions table results: %w", err)
		}
		if tx.Date, err = ParseTime(dateStr); err != nil {
			return nil, err
		}
		tx.EntityID = entityID
		txs = append(txs, tx)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating investment_transactions table: %w", err)
	}
	return txs, nil
}

// PurgeNonReal removes every non-real transaction of the entity. Used when a
// virtual source stops being authoritative.
func (r *TransactionRepository) PurgeNonReal(ctx context.Context, entityID string) error {
	for _, table := range []string{"account_transactions", "investment_transactions"} {
		query := "DELETE FROM " + table + " WHERE entity_id = ? AND is_real = 0"
		if _, err := r.q.ExecContext(ctx, query, entityID); err != nil {
			return fmt.Errorf("failed to purge non-real transactions: %w", err)
		}
	}
	return nil
}
