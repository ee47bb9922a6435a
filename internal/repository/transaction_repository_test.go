package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/davidmns/finsync/internal/model"
	"github.com/davidmns/finsync/internal/repository"
	"github.com/davidmns/finsync/internal/testutil"
)

// TestTransactionRepository tests ref-keyed transaction persistence.
//
// WHY: Transactions are append-only facts; the (entity, ref) uniqueness and
// insert-or-ignore are what keep re-fetches from duplicating history.
func TestTransactionRepository(t *testing.T) {
	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("duplicate refs are ignored on insert", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		repo := repository.NewTransactionRepository(db)
		entity := testutil.NewEntity().Build(t, db)

		txs := []model.AccountTransaction{
			{ID: testutil.MakeID(), Ref: "tx-1", EntityID: entity.ID, Name: "Coffee", Date: date, Amount: -3, Currency: "EUR", Type: "PAYMENT", IsReal: true, Source: model.SourceReal},
			{ID: testutil.MakeID(), Ref: "tx-2", EntityID: entity.ID, Name: "Rent", Date: date, Amount: -900, Currency: "EUR", Type: "PAYMENT", IsReal: true, Source: model.SourceReal},
		}

		// Execute twice with an overlapping batch
		if err := repo.InsertAccountTransactions(context.Background(), txs); err != nil {
			t.Fatalf("First insert returned unexpected error: %v", err)
		}
		again := []model.AccountTransaction{
			{ID: testutil.MakeID(), Ref: "tx-2", EntityID: entity.ID, Name: "Rent", Date: date, Amount: -900, Currency: "EUR", Type: "PAYMENT", IsReal: true, Source: model.SourceReal},
			{ID: testutil.MakeID(), Ref: "tx-3", EntityID: entity.ID, Name: "Salary", Date: date, Amount: 2000, Currency: "EUR", Type: "INCOME", IsReal: true, Source: model.SourceReal},
		}
		if err := repo.InsertAccountTransactions(context.Background(), again); err != nil {
			t.Fatalf("Second insert returned unexpected error: %v", err)
		}

		// Assert
		stored, err := repo.ListAccountTransactions(context.Background(), entity.ID)
		if err != nil {
			t.Fatalf("ListAccountTransactions() returned unexpected error: %v", err)
		}
		if len(stored) != 3 {
			t.Errorf("Expected 3 unique transactions, got %d", len(stored))
		}
	})

	t.Run("Refs spans both transaction tables", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		repo := repository.NewTransactionRepository(db)
		entity := testutil.NewEntity().Build(t, db)

		account := []model.AccountTransaction{
			{ID: testutil.MakeID(), Ref: "acc-1", EntityID: entity.ID, Name: "Coffee", Date: date, Amount: -3, Currency: "EUR", Type: "PAYMENT", IsReal: true, Source: model.SourceReal},
		}
		investment := []model.InvestmentTransaction{
			{ID: testutil.MakeID(), Ref: "inv-1", EntityID: entity.ID, Name: "Buy fund", Date: date, Amount: -500, Currency: "EUR", ProductType: model.InvestmentTypeFund, Type: "BUY", IsReal: true, Source: model.SourceReal},
		}
		if err := repo.InsertAccountTransactions(context.Background(), account); err != nil {
			t.Fatalf("InsertAccountTransactions() returned unexpected error: %v", err)
		}
		if err := repo.InsertInvestmentTransactions(context.Background(), investment); err != nil {
			t.Fatalf("InsertInvestmentTransactions() returned unexpected error: %v", err)
		}

		// Execute
		refs, err := repo.Refs(context.Background(), entity.ID)

		// Assert
		if err != nil {
			t.Fatalf("Refs() returned unexpected error: %v", err)
		}
		if !refs["acc-1"] || !refs["inv-1"] {
			t.Errorf("Expected both refs registered, got %+v", refs)
		}
	})

	t.Run("VirtualRefs only covers non-real transactions", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		repo := repository.NewTransactionRepository(db)
		entity := testutil.NewEntity().Build(t, db)

		testutil.NewAccountTransaction(entity.ID).WithRef("real-1").Build(t, db)
		testutil.NewAccountTransaction(entity.ID).WithRef("sheet-1").Virtual().Build(t, db)

		// Execute
		refs, err := repo.VirtualRefs(context.Background())

		// Assert
		if err != nil {
			t.Fatalf("VirtualRefs() returned unexpected error: %v", err)
		}
		if refs["real-1"] {
			t.Error("Real refs must not appear in the virtual set")
		}
		if !refs["sheet-1"] {
			t.Error("Expected sheet-1 in the virtual set")
		}
	})

	t.Run("PurgeNonReal keeps real transactions", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		repo := repository.NewTransactionRepository(db)
		entity := testutil.NewEntity().Build(t, db)

		testutil.NewAccountTransaction(entity.ID).WithRef("real-1").Build(t, db)
		testutil.NewAccountTransaction(entity.ID).WithRef("sheet-1").Virtual().Build(t, db)

		// Execute
		if err := repo.PurgeNonReal(context.Background(), entity.ID); err != nil {
			t.Fatalf("PurgeNonReal() returned unexpected error: %v", err)
		}

		// Assert
		stored, err := repo.ListAccountTransactions(context.Background(), entity.ID)
		if err != nil {
			t.Fatalf("ListAccountTransactions() returned unexpected error: %v", err)
		}
		if len(stored) != 1 || stored[0].Ref != "real-1" {
			t.Errorf("Expected only the real transaction to survive, got %+v", stored)
		}
	})
}

// TestFetchRecordRepository tests the per-feature high-water marks.
func TestFetchRecordRepository(t *testing.T) {
	first := time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)
	second := time.Date(2025, 7, 1, 14, 0, 0, 0, time.UTC)

	t.Run("upsert updates the date in place", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		repo := repository.NewFetchRecordRepository(db)
		entity := testutil.NewEntity().Build(t, db)

		// Execute
		if err := repo.Upsert(context.Background(), entity.ID, model.FeaturePosition, first); err != nil {
			t.Fatalf("First Upsert() returned unexpected error: %v", err)
		}
		if err := repo.Upsert(context.Background(), entity.ID, model.FeaturePosition, second); err != nil {
			t.Fatalf("Second Upsert() returned unexpected error: %v", err)
		}

		// Assert
		record, err := repo.Get(context.Background(), entity.ID, model.FeaturePosition)
		if err != nil {
			t.Fatalf("Get() returned unexpected error: %v", err)
		}
		if record == nil {
			t.Fatal("Expected a fetch record")
		}
		if !record.Date.Equal(second) {
			t.Errorf("Expected date %s, got %s", second, record.Date)
		}

		records, err := repo.ListByEntity(context.Background(), entity.ID)
		if err != nil {
			t.Fatalf("ListByEntity() returned unexpected error: %v", err)
		}
		if len(records) != 1 {
			t.Errorf("Expected a single row after double upsert, got %d", len(records))
		}
	})

	t.Run("missing record returns nil without error", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		repo := repository.NewFetchRecordRepository(db)

		// Execute
		record, err := repo.Get(context.Background(), testutil.MakeID(), model.FeatureHistoric)

		// Assert
		if err != nil {
			t.Fatalf("Get() returned unexpected error: %v", err)
		}
		if record != nil {
			t.Errorf("Expected nil, got %+v", record)
		}
	})

	t.Run("features are tracked independently", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		repo := repository.NewFetchRecordRepository(db)
		entity := testutil.NewEntity().Build(t, db)

		// Execute
		if err := repo.Upsert(context.Background(), entity.ID, model.FeaturePosition, first); err != nil {
			t.Fatalf("Upsert(position) returned unexpected error: %v", err)
		}
		if err := repo.Upsert(context.Background(), entity.ID, model.FeatureTransactions, second); err != nil {
			t.Fatalf("Upsert(transactions) returned unexpected error: %v", err)
		}

		// Assert
		records, err := repo.ListByEntity(context.Background(), entity.ID)
		if err != nil {
			t.Fatalf("ListByEntity() returned unexpected error: %v", err)
		}
		if len(records) != 2 {
			t.Errorf("Expected 2 records, got %d", len(records))
		}
	})
}
