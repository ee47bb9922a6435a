package testutil

import (
	"context"
	"database/sql"
	"testing"

	_ "modernc.org/sqlite" // Test Package

	"github.com/davidmns/finsync/internal/database"
	"github.com/davidmns/finsync/internal/vault"
)

// TestVaultPassword unlocks the vault in tests.
const TestVaultPassword = "test-password"

// SetupTestDB creates an in-memory SQLite database for testing with the full
// production schema applied. The database is automatically cleaned up when
// the test completes.
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    db := testutil.SetupTestDB(t)
//	    // db is ready to use with schema created
//	}
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// In-memory database (destroyed when connection closes)
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	// A second pool connection would get its own empty in-memory database.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		t.Fatalf("Failed to ping test database: %v", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			t.Fatalf("Failed to set pragma: %v", err)
		}
	}

	// Same migrations as production
	if err := database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	// Cleanup when test ends
	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// SetupTestVault returns a vault unlocked with TestVaultPassword.
func SetupTestVault(t *testing.T, db *sql.DB) *vault.Vault {
	t.Helper()

	v := vault.New()
	if err := v.Unlock(db, TestVaultPassword); err != nil {
		t.Fatalf("Failed to unlock test vault: %v", err)
	}
	return v
}
