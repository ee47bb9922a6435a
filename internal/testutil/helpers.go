package testutil

import (
	"database/sql"
	"testing"

	"github.com/davidmns/finsync/internal/repository"
	"github.com/davidmns/finsync/internal/service"
	"github.com/davidmns/finsync/internal/vault"
)

// NewTestRepositories wires every repository against the given database and
// vault.
func NewTestRepositories(t *testing.T, db *sql.DB, v *vault.Vault) service.Repositories {
	t.Helper()

	return service.Repositories{
		Entities:      repository.NewEntityRepository(db),
		Credentials:   repository.NewCredentialsRepository(db, v),
		Sessions:      repository.NewSessionRepository(db, v),
		FetchRecords:  repository.NewFetchRecordRepository(db),
		Positions:     repository.NewPositionRepository(db),
		Transactions:  repository.NewTransactionRepository(db),
		Contributions: repository.NewContributionRepository(db),
		Historic:      repository.NewHistoricRepository(db),
		VirtualData:   repository.NewVirtualImportRepository(db),
	}
}
