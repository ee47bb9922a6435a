package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/davidmns/finsync/internal/model"
)

// PositionRepository provides data access methods for the global_positions
// table and its product child tables. At most one snapshot exists per
// (entity, date, source); replacement is delete-then-insert.
type PositionRepository struct {
	q Querier
}

// NewPositionRepository creates a new PositionRepository with the provided database connection.
func NewPositionRepository(db *sql.DB) *PositionRepository {
	return &PositionRepository{q: db}
}

// WithTx rebinds the repository to an open transaction.
func (r *PositionRepository) WithTx(tx *sql.Tx) *PositionRepository {
	return &PositionRepository{q: tx}
}

// DeleteForDay removes the snapshot for (entity, day, source) if one exists.
// Child rows go with it through the schema cascades.
func (r *PositionRepository) DeleteForDay(ctx context.Context, entityID string, day time.Time, source model.ProductSource) error {
	query := "DELETE FROM global_positions WHERE entity_id = ? AND date = ? AND source = ?"
	if _, err := r.q.ExecContext(ctx, query, entityID, formatDay(day), source); err != nil {
		return fmt.Errorf("failed to delete position: %w", err)
	}
	return nil
}

// Insert persists the snapshot header and every product child row.
func (r *PositionRepository) Insert(ctx context.Context, p *model.GlobalPosition) error {
	query := "INSERT INTO global_positions (id, entity_id, date, source) VALUES (?, ?, ?, ?)"
	if _, err := r.q.ExecContext(ctx, query, p.ID, p.EntityID, formatDay(p.Date), p.Source); err != nil {
		return fmt.Errorf("failed to insert position: %w", err)
	}

	for _, a := range p.Accounts {
		accountQuery := `
			INSERT INTO global_position_accounts (id, position_id, name, iban, total, currency, interest)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`
		if _, err := r.q.ExecContext(ctx, accountQuery, a.ID, p.ID, a.Name, a.IBAN, a.Total, a.Currency, a.Interest); err != nil {
			return fmt.Errorf("failed to insert position account: %w", err)
		}
	}

	for _, inv := range p.Investments {
		investmentQuery := `
			INSERT INTO global_position_investments
				(id, position_id, type, name, symbol, isin, shares, initial_value, market_value,
				 currency, interest_rate, maturity, wallet_address, expected_return)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		_, err := r.q.ExecContext(ctx, investmentQuery,
			inv.ID, p.ID, inv.Type, inv.Name, inv.Symbol, inv.ISIN, inv.Shares,
			inv.InitialValue, inv.MarketValue, inv.Currency, inv.InterestRate,
			nullDay(inv.Maturity), inv.WalletAddress, inv.ExpectedReturn)
		if err != nil {
			return fmt.Errorf("failed to insert position investment: %w", err)
		}
	}

	for _, l := range p.Loans {
		loanQuery := `
			INSERT INTO global_position_loans
				(id, position_id, name, current_amount, principal_paid, principal_pending,
				 interest_rate, currency, maturity)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		_, err := r.q.ExecContext(ctx, loanQuery,
			l.ID, p.ID, l.Name, l.CurrentAmount, l.PrincipalPaid, l.PrincipalPending,
			l.InterestRate, l.Currency, nullDay(l.Maturity))
		if err != nil {
			return fmt.Errorf("failed to insert position loan: %w", err)
		}
	}

	return nil
}

// GetLatest returns the most recent snapshot of the entity for the given
// source, fully loaded with its product rows, or nil when none exists.
func (r *PositionRepository) GetLatest(ctx context.Context, entityID string, source model.ProductSource) (*model.GlobalPosition, error) {
	query := `
		SELECT id, date
		FROM global_positions
		WHERE entity_id = ? AND source = ?
		ORDER BY date DESC
		LIMIT 1
	`

	var p model.GlobalPosition
	var dateStr string

	err := r.q.QueryRowContext(ctx, query, entityID, source).Scan(&p.ID, &dateStr)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan global_positions table results: %w", err)
	}

	p.EntityID = entityID
	p.Source = source
	if p.Date, err = ParseTime(dateStr); err != nil {
		return nil, err
	}

	if err := r.loadChildren(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PositionRepository) loadChildren(ctx context.Context, p *model.GlobalPosition) error {
	accountRows, err := r.q.QueryContext(ctx,
		"SELECT id, name, iban, total, currency, interest FROM global_position_accounts WHERE position_id = ?", p.ID)
	if err != nil {
		return fmt.Errorf("failed to query position accounts: %w", err)
	}
	defer accountRows.Close()

	for accountRows.Next() {
		var a model.Account
		var name, iban sql.NullString

		if err := accountRows.Scan(&a.ID, &name, &iban, &a.Total, &a.Currency, &a.Interest); err != nil {
			return fmt.Errorf("failed to scan position accounts: %w", err)
		}
		a.Name = name.String
		a.IBAN = iban.String
		p.Accounts = append(p.Accounts, a)
	}
	if err = accountRows.Err(); err != nil {
		return fmt.Errorf("error iterating position accounts: %w", err)
	}

	investmentRows, err := r.q.QueryContext(ctx, `
		SELECT id, type, name, symbol, isin, shares, initial_value, market_value,
		       currency, interest_rate, maturity, wallet_address, expected_return
		FROM global_position_investments WHERE position_id = ?`, p.ID)
	if err != nil {
		return fmt.Errorf("failed to query position investments: %w", err)
	}
	defer investmentRows.Close()

	for investmentRows.Next() {
		var inv model.Investment
		var symbol, isin, wallet, maturity sql.NullString

		err := investmentRows.Scan(&inv.ID, &inv.Type, &inv.Name, &symbol, &isin,
			&inv.Shares, &inv.InitialValue, &inv.MarketValue, &inv.Currency,
			&inv.InterestRate, &maturity, &wallet, &inv.ExpectedReturn)
		if err != nil {
			return fmt.Errorf("failed to scan position investments: %w", err)
		}
		inv.Symbol = symbol.String
		inv.ISIN = isin.String
		inv.WalletAddress = wallet.String
		if inv.Maturity, err = scanNullTime(maturity); err != nil {
			return err
		}
		p.Investments = append(p.Investments, inv)
	}
	if err = investmentRows.Err(); err != nil {
		return fmt.Errorf("error iterating position investments: %w", err)
	}

	loanRows, err := r.q.QueryContext(ctx, `
		SELECT id, name, current_amount, principal_paid, principal_pending, interest_rate, currency, maturity
		FROM global_position_loans WHERE position_id = ?`, p.ID)
	if err != nil {
		return fmt.Errorf("failed to query position loans: %w", err)
	}
	defer loanRows.Close()

	for loanRows.Next() {
		var l model.Loan
		var name, maturity sql.NullString

		err := loanRows.Scan(&l.ID, &name, &l.CurrentAmount, &l.PrincipalPaid,
			&l.PrincipalPending, &l.InterestRate, &l.Currency, &maturity)
		if err != nil {
			return fmt.Errorf("failed to scan position loans: %w", err)
		}
		l.Name = name.String
		if l.Maturity, err = scanNullTime(maturity); err != nil {
			return err
		}
		p.Loans = append(p.Loans, l)
	}
	if err = loanRows.Err(); err != nil {
		return fmt.Errorf("error iterating position loans: %w", err)
	}

	return nil
}
