package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/davidmns/finsync/internal/model"
)

// MakeID returns a fresh UUID string.
func MakeID() string {
	return uuid.New().String()
}

// EntityBuilder provides a fluent interface for creating test entities.
//
// Example usage:
//
//	// Simple creation with defaults
//	entity := testutil.NewEntity().Build(t, db)
//
//	// Customized entity
//	entity := testutil.NewEntity().
//	    WithName("Test Bank").
//	    WithOrigin(model.OriginManual).
//	    Build(t, db)
type EntityBuilder struct {
	ID     string
	Name   string
	Type   model.EntityType
	Origin model.EntityOrigin
}

// NewEntity creates an EntityBuilder with sensible defaults.
func NewEntity() *EntityBuilder {
	id := MakeID()
	return &EntityBuilder{
		ID:     id,
		Name:   "Test Entity " + id[:8],
		Type:   model.EntityTypeFinancialInstitution,
		Origin: model.OriginNative,
	}
}

// WithID sets a custom ID.
func (b *EntityBuilder) WithID(id string) *EntityBuilder {
	b.ID = id
	return b
}

// WithName sets a custom name.
func (b *EntityBuilder) WithName(name string) *EntityBuilder {
	b.Name = name
	return b
}

// WithType sets a custom entity type.
func (b *EntityBuilder) WithType(entityType model.EntityType) *EntityBuilder {
	b.Type = entityType
	return b
}

// WithOrigin sets a custom origin.
func (b *EntityBuilder) WithOrigin(origin model.EntityOrigin) *EntityBuilder {
	b.Origin = origin
	return b
}

// Build creates the entity in the database and returns it.
func (b *EntityBuilder) Build(t *testing.T, db *sql.DB) model.Entity {
	t.Helper()

	query := `
		INSERT INTO entities (id, name, type, origin)
		VALUES (?, ?, ?, ?)
	`

	_, err := db.Exec(query, b.ID, b.Name, string(b.Type), string(b.Origin))
	if err != nil {
		t.Fatalf("Failed to create test entity: %v", err)
	}

	return model.Entity{
		ID:     b.ID,
		Name:   b.Name,
		Type:   b.Type,
		Origin: b.Origin,
	}
}

// CreateEntity creates an entity with the given name and default values.
func CreateEntity(t *testing.T, db *sql.DB, name string) model.Entity {
	t.Helper()
	return NewEntity().WithName(name).Build(t, db)
}

// AccountTransactionBuilder provides a fluent interface for creating test
// account transactions.
type AccountTransactionBuilder struct {
	ID       string
	Ref      string
	EntityID string
	Name     string
	Date     time.Time
	Amount   float64
	Currency string
	Type     string
	IsReal   bool
	Source   model.ProductSource
}

// NewAccountTransaction creates an AccountTransactionBuilder with sensible
// defaults for the given entity.
func NewAccountTransaction(entityID string) *AccountTransactionBuilder {
	id := MakeID()
	return &AccountTransactionBuilder{
		ID:       id,
		Ref:      "ref-" + id[:8],
		EntityID: entityID,
		Name:     "Test transaction",
		Date:     time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Amount:   -25.50,
		Currency: "EUR",
		Type:     "PAYMENT",
		IsReal:   true,
		Source:   model.SourceReal,
	}
}

// WithRef sets a custom source ref.
func (b *AccountTransactionBuilder) WithRef(ref string) *AccountTransactionBuilder {
	b.Ref = ref
	return b
}

// WithAmount sets a custom amount.
func (b *AccountTransactionBuilder) WithAmount(amount float64) *AccountTransactionBuilder {
	b.Amount = amount
	return b
}

// WithDate sets a custom date.
func (b *AccountTransactionBuilder) WithDate(date time.Time) *AccountTransactionBuilder {
	b.Date = date
	return b
}

// Virtual marks the transaction as spreadsheet-sourced.
func (b *AccountTransactionBuilder) Virtual() *AccountTransactionBuilder {
	b.IsReal = false
	b.Source = model.SourceSheets
	return b
}

// Build creates the transaction in the database and returns it.
func (b *AccountTransactionBuilder) Build(t *testing.T, db *sql.DB) model.AccountTransaction {
	t.Helper()

	query := `
		INSERT INTO account_transactions (id, ref, entity_id, name, date, amount, fees, currency, type, is_real, source)
		VALUES (?, ?, ?, ?, ?, 0, ?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query,
		b.ID, b.Ref, b.EntityID, b.Name, b.Date.UTC().Format(time.RFC3339),
		b.Amount, b.Currency, b.Type, b.IsReal, string(b.Source),
	)
	if err != nil {
		t.Fatalf("Failed to create test transaction: %v", err)
	}

	return model.AccountTransaction{
		ID:       b.ID,
		Ref:      b.Ref,
		EntityID: b.EntityID,
		Name:     b.Name,
		Date:     b.Date,
		Amount:   b.Amount,
		Currency: b.Currency,
		Type:     b.Type,
		IsReal:   b.IsReal,
		Source:   b.Source,
	}
}

// CreateFetchRecord records a successful fetch of a feature at the given time.
func CreateFetchRecord(t *testing.T, db *sql.DB, entityID string, feature model.Feature, date time.Time) {
	t.Helper()

	query := `
		INSERT INTO last_fetches (entity_id, feature, date)
		VALUES (?, ?, ?)
	`

	_, err := db.Exec(query, entityID, string(feature), date.UTC().Format(time.RFC3339))
	if err != nil {
		t.Fatalf("Failed to create test fetch record: %v", err)
	}
}
