package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/davidmns/finsync/internal/apperrors"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// schemaVersion is the highest migration shipped with this binary.
// Bump it together with every new file under migrations/.
const schemaVersion = 3

// Migrate brings the database schema up to the binary's version. Migrations
// are forward-only and each one runs inside its own transaction; a database
// recorded at a version newer than schemaVersion refuses to open.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrationsFS)
	goose.SetTableName("migrations")
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	current, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if current > schemaVersion {
		return fmt.Errorf("%w: database at version %d, binary knows up to %d",
			apperrors.ErrMigrationAheadOfTime, current, schemaVersion)
	}

	if current == schemaVersion {
		return nil
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}

// SchemaVersion returns the version currently recorded in the database.
func SchemaVersion(ctx context.Context, db *sql.DB) (int64, error) {
	return goose.GetDBVersionContext(ctx, db)
}
