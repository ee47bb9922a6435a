package testutil

import (
	"context"
	"sync"

	"github.com/davidmns/finsync/internal/adapter"
	"github.com/davidmns/finsync/internal/model"
)

// FakeAdapter is a configurable in-memory adapter for service tests. It
// implements every fetcher interface; tests control what Login answers and
// what each feature returns.
type FakeAdapter struct {
	mu sync.Mutex

	// LoginFunc overrides the login behavior entirely when set.
	LoginFunc func(ctx context.Context, params adapter.LoginParams) (adapter.LoginResult, error)

	// LoginResult is returned when LoginFunc is nil.
	LoginResult adapter.LoginResult
	LoginErr    error

	Position      model.GlobalPosition
	Contributions model.AutoContributions
	Transactions  model.Transactions
	Historic      model.HistoricalPosition

	PositionErr     error
	TransactionsErr error

	// Blocker, when set, is closed reads as "proceed". Login waits on it so
	// concurrency tests can hold an adapter mid-flight.
	Blocker chan struct{}

	loginCalls     int
	lastLoginInput adapter.LoginParams
	lastRefs       map[string]bool
}

// Login implements adapter.Adapter.
func (f *FakeAdapter) Login(ctx context.Context, params adapter.LoginParams) (adapter.LoginResult, error) {
	f.mu.Lock()
	f.loginCalls++
	f.lastLoginInput = params
	blocker := f.Blocker
	f.mu.Unlock()

	if blocker != nil {
		select {
		case <-blocker:
		case <-ctx.Done():
			return adapter.LoginResult{}, ctx.Err()
		}
	}

	if f.LoginFunc != nil {
		return f.LoginFunc(ctx, params)
	}
	return f.LoginResult, f.LoginErr
}

// FetchGlobalPosition implements adapter.PositionFetcher.
func (f *FakeAdapter) FetchGlobalPosition(ctx context.Context, session *model.Session) (model.GlobalPosition, error) {
	return f.Position, f.PositionErr
}

// FetchAutoContributions implements adapter.ContributionsFetcher.
func (f *FakeAdapter) FetchAutoContributions(ctx context.Context, session *model.Session) (model.AutoContributions, error) {
	return f.Contributions, nil
}

// FetchTransactions implements adapter.TransactionsFetcher. The fake honors
// the contract: refs already registered are filtered out.
func (f *FakeAdapter) FetchTransactions(ctx context.Context, session *model.Session, registeredRefs map[string]bool, opts adapter.FetchOptions) (model.Transactions, error) {
	f.mu.Lock()
	f.lastRefs = registeredRefs
	f.mu.Unlock()

	if f.TransactionsErr != nil {
		return model.Transactions{}, f.TransactionsErr
	}

	var out model.Transactions
	for _, tx := range f.Transactions.Account {
		if !registeredRefs[tx.Ref] {
			out.Account = append(out.Account, tx)
		}
	}
	for _, tx := range f.Transactions.Investment {
		if !registeredRefs[tx.Ref] {
			out.Investment = append(out.Investment, tx)
		}
	}
	return out, nil
}

// FetchHistoricPosition implements adapter.HistoricFetcher.
func (f *FakeAdapter) FetchHistoricPosition(ctx context.Context, session *model.Session) (model.HistoricalPosition, error) {
	return f.Historic, nil
}

// LoginCalls returns how many times Login ran.
func (f *FakeAdapter) LoginCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loginCalls
}

// LastLoginParams returns the input of the most recent login.
func (f *FakeAdapter) LastLoginParams() adapter.LoginParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastLoginInput
}

// LastRegisteredRefs returns the dedupe set passed to the most recent
// transactions fetch.
func (f *FakeAdapter) LastRegisteredRefs() map[string]bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastRefs
}

// LoginOnlyAdapter implements adapter.Adapter and nothing else, for
// capability tests.
type LoginOnlyAdapter struct {
	Result adapter.LoginResult
}

// Login implements adapter.Adapter.
func (a *LoginOnlyAdapter) Login(ctx context.Context, params adapter.LoginParams) (adapter.LoginResult, error) {
	return a.Result, nil
}
