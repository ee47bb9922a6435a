package adapter_test

import (
	"context"
	"errors"
	"testing"

	"github.com/davidmns/finsync/internal/adapter"
	"github.com/davidmns/finsync/internal/apperrors"
	"github.com/davidmns/finsync/internal/model"
)

type loginOnly struct{}

func (loginOnly) Login(ctx context.Context, params adapter.LoginParams) (adapter.LoginResult, error) {
	return adapter.LoginResult{Code: adapter.LoginCreated}, nil
}

type withPosition struct{ loginOnly }

func (withPosition) FetchGlobalPosition(ctx context.Context, session *model.Session) (model.GlobalPosition, error) {
	return model.GlobalPosition{}, nil
}

// TestSupports tests capability discovery by type assertion.
func TestSupports(t *testing.T) {
	t.Run("login-only adapter supports nothing", func(t *testing.T) {
		a := loginOnly{}
		for _, feature := range []model.Feature{
			model.FeaturePosition,
			model.FeatureAutoContributions,
			model.FeatureTransactions,
			model.FeatureHistoric,
		} {
			if adapter.Supports(a, feature) {
				t.Errorf("Expected %s unsupported", feature)
			}
		}
	})

	t.Run("implemented fetchers are discovered", func(t *testing.T) {
		a := withPosition{}
		if !adapter.Supports(a, model.FeaturePosition) {
			t.Error("Expected POSITION supported")
		}
		if adapter.Supports(a, model.FeatureTransactions) {
			t.Error("Expected TRANSACTIONS unsupported")
		}
	})
}

// TestLoginResultCode_Success tests the success predicate.
func TestLoginResultCode_Success(t *testing.T) {
	successful := map[adapter.LoginResultCode]bool{
		adapter.LoginCreated: true,
		adapter.LoginResumed: true,
	}

	all := []adapter.LoginResultCode{
		adapter.LoginCreated, adapter.LoginResumed, adapter.LoginCodeRequested,
		adapter.LoginManualLogin, adapter.LoginNotLogged, adapter.LoginInvalidCredentials,
		adapter.LoginInvalidCode, adapter.LoginNoCredentialsAvailable,
		adapter.LoginRequired, adapter.LoginUnexpectedError,
	}

	for _, code := range all {
		if code.Success() != successful[code] {
			t.Errorf("Success() mismatch for %s", code)
		}
	}
}

// TestRegistry tests adapter lookup.
func TestRegistry(t *testing.T) {
	t.Run("registered adapter is returned", func(t *testing.T) {
		// Setup
		registry := adapter.NewRegistry()
		registry.Register("entity-1", loginOnly{})

		// Execute
		a, err := registry.Get("entity-1")

		// Assert
		if err != nil {
			t.Fatalf("Get() returned unexpected error: %v", err)
		}
		if a == nil {
			t.Fatal("Expected an adapter")
		}
	})

	t.Run("unknown entity fails", func(t *testing.T) {
		registry := adapter.NewRegistry()

		if _, err := registry.Get("nobody"); !errors.Is(err, apperrors.ErrAdapterNotFound) {
			t.Errorf("Expected ErrAdapterNotFound, got %v", err)
		}
	})

	t.Run("wait without a limiter is a no-op", func(t *testing.T) {
		registry := adapter.NewRegistry()

		if err := registry.Wait(context.Background(), "unregistered"); err != nil {
			t.Errorf("Wait() returned unexpected error: %v", err)
		}
	})
}

// TestProcessStore tests deferred login state parking.
func TestProcessStore(t *testing.T) {
	t.Run("put then take round-trips and consumes", func(t *testing.T) {
		// Setup
		store := adapter.NewProcessStore()

		// Execute
		processID := store.Put("half-done-login")

		// Assert
		state, ok := store.Take(processID)
		if !ok {
			t.Fatal("Expected stored state")
		}
		if state.(string) != "half-done-login" {
			t.Errorf("State mismatch: %v", state)
		}

		if _, ok := store.Take(processID); ok {
			t.Error("Expected state consumed after first take")
		}
	})

	t.Run("unknown id reads as missing", func(t *testing.T) {
		store := adapter.NewProcessStore()

		if _, ok := store.Take("nope"); ok {
			t.Error("Expected missing state")
		}
	})
}
