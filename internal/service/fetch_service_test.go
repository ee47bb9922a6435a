package service_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/davidmns/finsync/internal/adapter"
	"github.com/davidmns/finsync/internal/apperrors"
	"github.com/davidmns/finsync/internal/catalog"
	"github.com/davidmns/finsync/internal/config"
	"github.com/davidmns/finsync/internal/model"
	"github.com/davidmns/finsync/internal/repository"
	"github.com/davidmns/finsync/internal/service"
	"github.com/davidmns/finsync/internal/testutil"
)

// fixture bundles everything a fetch-service test needs.
type fixture struct {
	db       *sql.DB
	repos    service.Repositories
	adapters *adapter.Registry
	locks    *service.LockRegistry
	scrape   config.ScrapeConfig
	entity   model.Entity
	fetch    *service.FetchService
	now      time.Time
}

// newFixture wires a fetch service over an in-memory database with one test
// entity, its fake adapter, and a fixed clock.
func newFixture(t *testing.T, fake adapter.Adapter) *fixture {
	t.Helper()

	db := testutil.SetupTestDB(t)
	v := testutil.SetupTestVault(t, db)
	repos := testutil.NewTestRepositories(t, db, v)

	entity := testutil.NewEntity().WithName("Test Bank").Build(t, db)

	native := entity
	native.CredentialsTemplate = map[string]model.CredentialType{
		"user":     model.CredentialTypeUser,
		"password": model.CredentialTypePassword,
	}
	native.Features = []model.Feature{
		model.FeaturePosition,
		model.FeatureTransactions,
	}
	cat := catalog.New([]model.Entity{native})

	adapters := adapter.NewRegistry()
	if fake != nil {
		adapters.Register(entity.ID, fake)
	}

	f := &fixture{
		db:       db,
		repos:    repos,
		adapters: adapters,
		locks:    service.NewLockRegistry(),
		scrape: config.ScrapeConfig{
			UpdateCooldown: time.Hour,
			AdapterTimeout: 5 * time.Second,
		},
		entity: entity,
		now:    time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC),
	}

	f.fetch = service.NewFetchService(
		repository.NewUnitOfWork(db),
		repos,
		cat,
		adapters,
		f.locks,
		func() config.ScrapeConfig { return f.scrape },
	).WithClock(func() time.Time { return f.now })

	return f
}

// saveCredentials stores a credential map for the fixture entity.
func (f *fixture) saveCredentials(t *testing.T) {
	t.Helper()
	values := map[string]string{"user": "john", "password": "secret"}
	if err := f.repos.Credentials.Save(context.Background(), f.entity.ID, values, f.now); err != nil {
		t.Fatalf("Failed to save credentials: %v", err)
	}
}

func (f *fixture) countRows(t *testing.T, table string) int {
	t.Helper()
	var count int
	if err := f.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
		t.Fatalf("Failed to count %s: %v", table, err)
	}
	return count
}

// TestFetchService_Execute_FirstLogin tests a fetch whose login creates a
// fresh session.
//
// WHY: The Created path is the main line of the orchestrator: it must persist
// the session, keep credentials, run the features and stamp the fetch record,
// all before the result reaches the caller.
func TestFetchService_Execute_FirstLogin(t *testing.T) {
	t.Run("persists session, position and fetch record", func(t *testing.T) {
		// Setup
		fake := &testutil.FakeAdapter{
			LoginResult: adapter.LoginResult{
				Code:    adapter.LoginCreated,
				Session: &model.Session{Payload: []byte(`{"cookie":"abc"}`)},
			},
			Position: model.GlobalPosition{
				Accounts: []model.Account{{Name: "Checking", Total: 1500, Currency: "EUR"}},
			},
		}
		f := newFixture(t, fake)
		f.saveCredentials(t)

		// Execute
		result, err := f.fetch.Execute(context.Background(), service.FetchRequest{
			EntityID: f.entity.ID,
			Features: []model.Feature{model.FeaturePosition},
		})

		// Assert
		if err != nil {
			t.Fatalf("Execute() returned unexpected error: %v", err)
		}
		if result.Code != service.FetchCompleted {
			t.Fatalf("Expected COMPLETED, got %s", result.Code)
		}
		if result.Data == nil || result.Data.Position == nil {
			t.Fatal("Expected fetched position in result data")
		}

		session, err := f.repos.Sessions.Get(context.Background(), f.entity.ID)
		if err != nil {
			t.Fatalf("Expected stored session: %v", err)
		}
		if string(session.Payload) != `{"cookie":"abc"}` {
			t.Errorf("Session payload mismatch: %s", session.Payload)
		}

		position, err := f.repos.Positions.GetLatest(context.Background(), f.entity.ID, model.SourceReal)
		if err != nil {
			t.Fatalf("GetLatest() returned unexpected error: %v", err)
		}
		if position == nil || len(position.Accounts) != 1 {
			t.Fatalf("Expected stored position with one account, got %+v", position)
		}
		if position.Accounts[0].Total != 1500 {
			t.Errorf("Expected account total 1500, got %f", position.Accounts[0].Total)
		}

		record, err := f.repos.FetchRecords.Get(context.Background(), f.entity.ID, model.FeaturePosition)
		if err != nil {
			t.Fatalf("Fetch record lookup failed: %v", err)
		}
		if record == nil {
			t.Fatal("Expected fetch record after completed fetch")
		}
		if !record.Date.Equal(f.now) {
			t.Errorf("Expected fetch record at %s, got %s", f.now, record.Date)
		}
	})

	t.Run("returns NO_CREDENTIALS_AVAILABLE when nothing is stored", func(t *testing.T) {
		// Setup
		fake := &testutil.FakeAdapter{}
		f := newFixture(t, fake)

		// Execute
		result, err := f.fetch.Execute(context.Background(), service.FetchRequest{
			EntityID: f.entity.ID,
			Features: []model.Feature{model.FeaturePosition},
		})

		// Assert
		if err != nil {
			t.Fatalf("Execute() returned unexpected error: %v", err)
		}
		if result.Code != service.FetchNoCredentialsAvailable {
			t.Errorf("Expected NO_CREDENTIALS_AVAILABLE, got %s", result.Code)
		}
		if fake.LoginCalls() != 0 {
			t.Errorf("Expected no adapter calls, got %d", fake.LoginCalls())
		}
	})

	t.Run("returns DISABLED when entity is not enabled", func(t *testing.T) {
		// Setup
		fake := &testutil.FakeAdapter{}
		f := newFixture(t, fake)
		f.scrape.EnabledEntities = map[string]bool{"some-other-entity": true}

		// Execute
		result, err := f.fetch.Execute(context.Background(), service.FetchRequest{
			EntityID: f.entity.ID,
			Features: []model.Feature{model.FeaturePosition},
		})

		// Assert
		if err != nil {
			t.Fatalf("Execute() returned unexpected error: %v", err)
		}
		if result.Code != service.FetchDisabled {
			t.Errorf("Expected DISABLED, got %s", result.Code)
		}
	})
}

// TestFetchService_Execute_TwoFactorDeferred tests a login that pauses for an
// out-of-band code.
//
// WHY: A deferred login must round-trip the process ID to the caller and
// persist absolutely nothing; the retry with the code is a fresh request.
func TestFetchService_Execute_TwoFactorDeferred(t *testing.T) {
	t.Run("surfaces CODE_REQUESTED with process id and persists nothing", func(t *testing.T) {
		// Setup
		fake := &testutil.FakeAdapter{
			LoginResult: adapter.LoginResult{
				Code:      adapter.LoginCodeRequested,
				ProcessID: "proc-42",
			},
		}
		f := newFixture(t, fake)
		f.saveCredentials(t)

		// Execute
		result, err := f.fetch.Execute(context.Background(), service.FetchRequest{
			EntityID: f.entity.ID,
			Features: []model.Feature{model.FeaturePosition},
		})

		// Assert
		if err != nil {
			t.Fatalf("Execute() returned unexpected error: %v", err)
		}
		if result.Code != service.FetchCodeRequested {
			t.Fatalf("Expected CODE_REQUESTED, got %s", result.Code)
		}
		if result.Details == nil || result.Details.ProcessID != "proc-42" {
			t.Fatalf("Expected process id proc-42 in details, got %+v", result.Details)
		}

		if _, err := f.repos.Sessions.Get(context.Background(), f.entity.ID); !errors.Is(err, apperrors.ErrSessionNotFound) {
			t.Errorf("Expected no stored session, got %v", err)
		}
		if count := f.countRows(t, "global_positions"); count != 0 {
			t.Errorf("Expected no positions, got %d", count)
		}
		if count := f.countRows(t, "last_fetches"); count != 0 {
			t.Errorf("Expected no fetch records, got %d", count)
		}
	})

	t.Run("completes when retried with the code", func(t *testing.T) {
		// Setup
		fake := &testutil.FakeAdapter{
			Position: model.GlobalPosition{
				Accounts: []model.Account{{Name: "Checking", Total: 100, Currency: "EUR"}},
			},
		}
		fake.LoginFunc = func(ctx context.Context, params adapter.LoginParams) (adapter.LoginResult, error) {
			if params.TwoFactor == nil {
				return adapter.LoginResult{Code: adapter.LoginCodeRequested, ProcessID: "proc-42"}, nil
			}
			if params.TwoFactor.Code != "123456" || params.TwoFactor.ProcessID != "proc-42" {
				return adapter.LoginResult{Code: adapter.LoginInvalidCode}, nil
			}
			return adapter.LoginResult{
				Code:    adapter.LoginCreated,
				Session: &model.Session{Payload: []byte(`{}`)},
			}, nil
		}
		f := newFixture(t, fake)
		f.saveCredentials(t)

		// Execute: first attempt defers, retry carries the code.
		first, err := f.fetch.Execute(context.Background(), service.FetchRequest{
			EntityID: f.entity.ID,
			Features: []model.Feature{model.FeaturePosition},
		})
		if err != nil {
			t.Fatalf("First Execute() returned unexpected error: %v", err)
		}

		second, err := f.fetch.Execute(context.Background(), service.FetchRequest{
			EntityID:  f.entity.ID,
			Features:  []model.Feature{model.FeaturePosition},
			TwoFactor: &adapter.TwoFactor{Code: "123456", ProcessID: first.Details.ProcessID},
		})

		// Assert
		if err != nil {
			t.Fatalf("Second Execute() returned unexpected error: %v", err)
		}
		if second.Code != service.FetchCompleted {
			t.Fatalf("Expected COMPLETED after code retry, got %s", second.Code)
		}
	})
}

// TestFetchService_Execute_Cooldown tests the position cooldown window.
//
// WHY: Scheduled and manual fetches share the same entry point; the cooldown
// must stop a redundant position fetch before any adapter traffic and tell
// the caller exactly how long to wait.
func TestFetchService_Execute_Cooldown(t *testing.T) {
	t.Run("rejects a position fetch inside the window", func(t *testing.T) {
		// Setup
		fake := &testutil.FakeAdapter{}
		f := newFixture(t, fake)
		f.saveCredentials(t)
		testutil.CreateFetchRecord(t, f.db, f.entity.ID, model.FeaturePosition, f.now.Add(-30*time.Minute))

		// Execute
		result, err := f.fetch.Execute(context.Background(), service.FetchRequest{
			EntityID: f.entity.ID,
			Features: []model.Feature{model.FeaturePosition},
		})

		// Assert
		if err != nil {
			t.Fatalf("Execute() returned unexpected error: %v", err)
		}
		if result.Code != service.FetchCooldown {
			t.Fatalf("Expected COOLDOWN, got %s", result.Code)
		}
		if result.Details == nil || result.Details.Cooldown == nil {
			t.Fatal("Expected cooldown details")
		}
		if result.Details.Cooldown.Wait != 30*time.Minute {
			t.Errorf("Expected 30m wait, got %s", result.Details.Cooldown.Wait)
		}
		if fake.LoginCalls() != 0 {
			t.Errorf("Expected no adapter traffic during cooldown, got %d calls", fake.LoginCalls())
		}
	})

	t.Run("allows the fetch once the window has passed", func(t *testing.T) {
		// Setup
		fake := &testutil.FakeAdapter{
			LoginResult: adapter.LoginResult{
				Code:    adapter.LoginCreated,
				Session: &model.Session{Payload: []byte(`{}`)},
			},
		}
		f := newFixture(t, fake)
		f.saveCredentials(t)
		testutil.CreateFetchRecord(t, f.db, f.entity.ID, model.FeaturePosition, f.now.Add(-2*time.Hour))

		// Execute
		result, err := f.fetch.Execute(context.Background(), service.FetchRequest{
			EntityID: f.entity.ID,
			Features: []model.Feature{model.FeaturePosition},
		})

		// Assert
		if err != nil {
			t.Fatalf("Execute() returned unexpected error: %v", err)
		}
		if result.Code != service.FetchCompleted {
			t.Errorf("Expected COMPLETED, got %s", result.Code)
		}
	})

	t.Run("SkipCooldown overrides the window", func(t *testing.T) {
		// Setup
		fake := &testutil.FakeAdapter{
			LoginResult: adapter.LoginResult{
				Code:    adapter.LoginCreated,
				Session: &model.Session{Payload: []byte(`{}`)},
			},
		}
		f := newFixture(t, fake)
		f.saveCredentials(t)
		testutil.CreateFetchRecord(t, f.db, f.entity.ID, model.FeaturePosition, f.now.Add(-5*time.Minute))

		// Execute
		result, err := f.fetch.Execute(context.Background(), service.FetchRequest{
			EntityID:     f.entity.ID,
			Features:     []model.Feature{model.FeaturePosition},
			SkipCooldown: true,
		})

		// Assert
		if err != nil {
			t.Fatalf("Execute() returned unexpected error: %v", err)
		}
		if result.Code != service.FetchCompleted {
			t.Errorf("Expected COMPLETED, got %s", result.Code)
		}
	})

	t.Run("transactions have no cooldown", func(t *testing.T) {
		// Setup
		fake := &testutil.FakeAdapter{
			LoginResult: adapter.LoginResult{
				Code:    adapter.LoginCreated,
				Session: &model.Session{Payload: []byte(`{}`)},
			},
		}
		f := newFixture(t, fake)
		f.saveCredentials(t)
		testutil.CreateFetchRecord(t, f.db, f.entity.ID, model.FeatureTransactions, f.now.Add(-5*time.Minute))

		// Execute
		result, err := f.fetch.Execute(context.Background(), service.FetchRequest{
			EntityID: f.entity.ID,
			Features: []model.Feature{model.FeatureTransactions},
		})

		// Assert
		if err != nil {
			t.Fatalf("Execute() returned unexpected error: %v", err)
		}
		if result.Code != service.FetchCompleted {
			t.Errorf("Expected COMPLETED, got %s", result.Code)
		}
	})
}

// TestFetchService_Execute_Conflict tests per-entity mutual exclusion.
//
// WHY: Two concurrent fetches of the same entity would race on sessions and
// snapshots. The second caller must get EXECUTION_CONFLICT immediately, not
// queue behind the first.
func TestFetchService_Execute_Conflict(t *testing.T) {
	t.Run("second concurrent fetch is rejected", func(t *testing.T) {
		// Setup
		blocker := make(chan struct{})
		fake := &testutil.FakeAdapter{
			Blocker: blocker,
			LoginResult: adapter.LoginResult{
				Code:    adapter.LoginCreated,
				Session: &model.Session{Payload: []byte(`{}`)},
			},
		}
		f := newFixture(t, fake)
		f.saveCredentials(t)

		started := make(chan struct{})
		done := make(chan service.FetchResult, 1)

		// Execute: hold the first fetch inside the adapter login.
		go func() {
			close(started)
			result, err := f.fetch.Execute(context.Background(), service.FetchRequest{
				EntityID: f.entity.ID,
				Features: []model.Feature{model.FeaturePosition},
			})
			if err != nil {
				t.Errorf("First Execute() returned unexpected error: %v", err)
			}
			done <- result
		}()

		<-started
		time.Sleep(50 * time.Millisecond)

		second, err := f.fetch.Execute(context.Background(), service.FetchRequest{
			EntityID: f.entity.ID,
			Features: []model.Feature{model.FeaturePosition},
		})

		close(blocker)
		first := <-done

		// Assert
		if err != nil {
			t.Fatalf("Second Execute() returned unexpected error: %v", err)
		}
		if second.Code != service.FetchExecutionConflict {
			t.Errorf("Expected EXECUTION_CONFLICT, got %s", second.Code)
		}
		if first.Code != service.FetchCompleted {
			t.Errorf("Expected first fetch COMPLETED, got %s", first.Code)
		}
	})

	t.Run("lock is released after the fetch", func(t *testing.T) {
		// Setup
		fake := &testutil.FakeAdapter{
			LoginResult: adapter.LoginResult{
				Code:    adapter.LoginCreated,
				Session: &model.Session{Payload: []byte(`{}`)},
			},
		}
		f := newFixture(t, fake)
		f.saveCredentials(t)

		// Execute twice in sequence
		for i := 0; i < 2; i++ {
			result, err := f.fetch.Execute(context.Background(), service.FetchRequest{
				EntityID:     f.entity.ID,
				Features:     []model.Feature{model.FeatureTransactions},
				SkipCooldown: true,
			})
			if err != nil {
				t.Fatalf("Execute() %d returned unexpected error: %v", i, err)
			}
			if result.Code != service.FetchCompleted {
				t.Fatalf("Execute() %d expected COMPLETED, got %s", i, result.Code)
			}
		}
	})
}

// TestFetchService_Execute_TransactionDedupe tests ref-based idempotence.
//
// WHY: Transactions are immutable facts keyed by source ref. Fetching twice,
// or a source re-serving old items, must never duplicate rows.
func TestFetchService_Execute_TransactionDedupe(t *testing.T) {
	t.Run("already registered refs are skipped", func(t *testing.T) {
		// Setup
		fake := &testutil.FakeAdapter{
			LoginResult: adapter.LoginResult{
				Code:    adapter.LoginCreated,
				Session: &model.Session{Payload: []byte(`{}`)},
			},
			Transactions: model.Transactions{
				Account: []model.AccountTransaction{
					{Ref: "tx-a", Name: "Coffee", Date: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), Amount: -3, Currency: "EUR", Type: "PAYMENT"},
					{Ref: "tx-b", Name: "Rent", Date: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), Amount: -900, Currency: "EUR", Type: "PAYMENT"},
				},
			},
		}
		f := newFixture(t, fake)
		f.saveCredentials(t)
		testutil.NewAccountTransaction(f.entity.ID).WithRef("tx-a").Build(t, f.db)

		// Execute
		result, err := f.fetch.Execute(context.Background(), service.FetchRequest{
			EntityID: f.entity.ID,
			Features: []model.Feature{model.FeatureTransactions},
		})

		// Assert
		if err != nil {
			t.Fatalf("Execute() returned unexpected error: %v", err)
		}
		if result.Code != service.FetchCompleted {
			t.Fatalf("Expected COMPLETED, got %s", result.Code)
		}

		refs := fake.LastRegisteredRefs()
		if !refs["tx-a"] {
			t.Error("Expected tx-a in the registered refs passed to the adapter")
		}

		if count := f.countRows(t, "account_transactions"); count != 2 {
			t.Errorf("Expected 2 transactions after dedupe, got %d", count)
		}
	})

	t.Run("a second identical fetch inserts nothing", func(t *testing.T) {
		// Setup
		fake := &testutil.FakeAdapter{
			LoginResult: adapter.LoginResult{
				Code:    adapter.LoginCreated,
				Session: &model.Session{Payload: []byte(`{}`)},
			},
			Transactions: model.Transactions{
				Account: []model.AccountTransaction{
					{Ref: "tx-a", Name: "Coffee", Date: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), Amount: -3, Currency: "EUR", Type: "PAYMENT"},
				},
			},
		}
		f := newFixture(t, fake)
		f.saveCredentials(t)

		// Execute twice
		for i := 0; i < 2; i++ {
			result, err := f.fetch.Execute(context.Background(), service.FetchRequest{
				EntityID: f.entity.ID,
				Features: []model.Feature{model.FeatureTransactions},
			})
			if err != nil {
				t.Fatalf("Execute() %d returned unexpected error: %v", i, err)
			}
			if result.Code != service.FetchCompleted {
				t.Fatalf("Execute() %d expected COMPLETED, got %s", i, result.Code)
			}
		}

		// Assert
		if count := f.countRows(t, "account_transactions"); count != 1 {
			t.Errorf("Expected 1 transaction after two fetches, got %d", count)
		}
	})
}

// TestFetchService_Execute_SessionResumed tests session reuse.
//
// WHY: A valid stored session lets the adapter skip re-authentication; the
// orchestrator must hand it over and refresh the credential usage timestamp.
func TestFetchService_Execute_SessionResumed(t *testing.T) {
	t.Run("stored session is passed to the adapter", func(t *testing.T) {
		// Setup
		fake := &testutil.FakeAdapter{
			LoginResult: adapter.LoginResult{Code: adapter.LoginResumed},
		}
		f := newFixture(t, fake)
		f.saveCredentials(t)

		session := &model.Session{
			EntityID:  f.entity.ID,
			CreatedAt: f.now.Add(-time.Hour),
			Payload:   []byte(`{"cookie":"stored"}`),
		}
		if err := f.repos.Sessions.Save(context.Background(), session); err != nil {
			t.Fatalf("Failed to save session: %v", err)
		}

		// Execute
		result, err := f.fetch.Execute(context.Background(), service.FetchRequest{
			EntityID: f.entity.ID,
			Features: []model.Feature{model.FeatureTransactions},
		})

		// Assert
		if err != nil {
			t.Fatalf("Execute() returned unexpected error: %v", err)
		}
		if result.Code != service.FetchCompleted {
			t.Fatalf("Expected COMPLETED, got %s", result.Code)
		}

		params := fake.LastLoginParams()
		if params.Session == nil {
			t.Fatal("Expected stored session in login params")
		}
		if string(params.Session.Payload) != `{"cookie":"stored"}` {
			t.Errorf("Session payload mismatch: %s", params.Session.Payload)
		}
	})

	t.Run("expired session forces a new login", func(t *testing.T) {
		// Setup
		fake := &testutil.FakeAdapter{
			LoginResult: adapter.LoginResult{
				Code:    adapter.LoginCreated,
				Session: &model.Session{Payload: []byte(`{}`)},
			},
		}
		f := newFixture(t, fake)
		f.saveCredentials(t)

		expiration := f.now.Add(-time.Minute)
		session := &model.Session{
			EntityID:   f.entity.ID,
			CreatedAt:  f.now.Add(-time.Hour),
			Expiration: &expiration,
			Payload:    []byte(`{}`),
		}
		if err := f.repos.Sessions.Save(context.Background(), session); err != nil {
			t.Fatalf("Failed to save session: %v", err)
		}

		// Execute
		if _, err := f.fetch.Execute(context.Background(), service.FetchRequest{
			EntityID: f.entity.ID,
			Features: []model.Feature{model.FeatureTransactions},
		}); err != nil {
			t.Fatalf("Execute() returned unexpected error: %v", err)
		}

		// Assert
		params := fake.LastLoginParams()
		if params.Session != nil {
			t.Error("Expected expired session to be withheld from the adapter")
		}
		if !params.Options.ForceNewSession {
			t.Error("Expected ForceNewSession for an expired session")
		}
	})
}

// TestFetchService_Execute_FeatureNotSupported tests capability dispatch.
func TestFetchService_Execute_FeatureNotSupported(t *testing.T) {
	t.Run("requesting an unimplemented feature fails", func(t *testing.T) {
		// Setup
		fake := &testutil.LoginOnlyAdapter{
			Result: adapter.LoginResult{
				Code:    adapter.LoginCreated,
				Session: &model.Session{Payload: []byte(`{}`)},
			},
		}
		f := newFixture(t, fake)
		f.saveCredentials(t)

		// Execute
		_, err := f.fetch.Execute(context.Background(), service.FetchRequest{
			EntityID: f.entity.ID,
			Features: []model.Feature{model.FeaturePosition},
		})

		// Assert
		if !errors.Is(err, apperrors.ErrFeatureNotSupported) {
			t.Errorf("Expected ErrFeatureNotSupported, got %v", err)
		}
	})
}

// TestFetchService_FetchAll tests the bounded fetch-everything run.
func TestFetchService_FetchAll(t *testing.T) {
	t.Run("fetches every entity with an adapter and avoids new logins", func(t *testing.T) {
		// Setup
		fake := &testutil.FakeAdapter{
			LoginResult: adapter.LoginResult{Code: adapter.LoginResumed},
		}
		f := newFixture(t, fake)
		f.saveCredentials(t)

		// An entity without an adapter must be skipped, not failed.
		testutil.NewEntity().WithName("No Adapter Bank").Build(t, f.db)

		// Execute
		results, err := f.fetch.FetchAll(context.Background())

		// Assert
		if err != nil {
			t.Fatalf("FetchAll() returned unexpected error: %v", err)
		}
		if len(results) != 1 {
			t.Fatalf("Expected 1 result, got %d", len(results))
		}
		if _, ok := results[f.entity.ID]; !ok {
			t.Fatal("Expected a result for the adapter-backed entity")
		}

		params := fake.LastLoginParams()
		if !params.Options.AvoidNewLogin {
			t.Error("Expected AvoidNewLogin on scheduled fetches")
		}
	})
}
