// Package adapter defines the uniform contract every data source implements:
// a login step plus optional feature fetchers. Adapters are stateless with
// respect to other fetches; any per-user state lives in the session payload
// they return or consume, and they never persist anything themselves.
package adapter

import (
	"context"

	"github.com/davidmns/finsync/internal/model"
)

// LoginResultCode discriminates the outcome of a login attempt.
type LoginResultCode string

// Login result codes. Created and Resumed are the successful outcomes;
// CodeRequested and ManualLogin are deferred; the rest are terminal failures.
const (
	LoginCreated                LoginResultCode = "CREATED"
	LoginResumed                LoginResultCode = "RESUMED"
	LoginCodeRequested          LoginResultCode = "CODE_REQUESTED"
	LoginManualLogin            LoginResultCode = "MANUAL_LOGIN"
	LoginNotLogged              LoginResultCode = "NOT_LOGGED"
	LoginInvalidCredentials     LoginResultCode = "INVALID_CREDENTIALS"
	LoginInvalidCode            LoginResultCode = "INVALID_CODE"
	LoginNoCredentialsAvailable LoginResultCode = "NO_CREDENTIALS_AVAILABLE"
	LoginRequired               LoginResultCode = "LOGIN_REQUIRED"
	LoginUnexpectedError        LoginResultCode = "UNEXPECTED_ERROR"
)

// Success reports whether the code lets a fetch proceed to its features.
func (c LoginResultCode) Success() bool {
	return c == LoginCreated || c == LoginResumed
}

// TwoFactor carries the second-factor code the user obtained out of band,
// together with the process ID the adapter issued when it requested it.
type TwoFactor struct {
	Code      string `json:"code"`
	ProcessID string `json:"processId"`
}

// LoginOptions tunes the login step.
type LoginOptions struct {
	// AvoidNewLogin makes sources that need an out-of-band manual login
	// answer NotLogged instead of starting one.
	AvoidNewLogin bool `json:"avoidNewLogin"`

	// ForceNewSession discards any stored session and authenticates from
	// scratch.
	ForceNewSession bool `json:"forceNewSession"`
}

// LoginParams is the full input of one login attempt.
type LoginParams struct {
	Credentials map[string]string
	TwoFactor   *TwoFactor
	Options     LoginOptions

	// Session is the previously stored session, if any. A valid one lets
	// the adapter answer Resumed without re-authenticating.
	Session *model.Session
}

// LoginResult is the outcome of one login attempt. Session is only set for
// Created; ProcessID only for CodeRequested; Details carries human-readable
// instructions for ManualLogin.
type LoginResult struct {
	Code      LoginResultCode
	Session   *model.Session
	ProcessID string
	Details   string
}

// FetchOptions tunes feature fetches.
type FetchOptions struct {
	// Deep widens the transactions horizon. The exact meaning is
	// adapter-defined.
	Deep bool `json:"deep"`
}

// Adapter is the minimum every source implements. Feature capabilities are
// opted into by additionally implementing the fetcher interfaces below; the
// orchestrator discovers them by type assertion.
type Adapter interface {
	Login(ctx context.Context, params LoginParams) (LoginResult, error)
}

// PositionFetcher produces a snapshot of everything the entity holds.
type PositionFetcher interface {
	FetchGlobalPosition(ctx context.Context, session *model.Session) (model.GlobalPosition, error)
}

// ContributionsFetcher produces the entity's periodic contribution rules.
type ContributionsFetcher interface {
	FetchAutoContributions(ctx context.Context, session *model.Session) (model.AutoContributions, error)
}

// TransactionsFetcher produces new transactions. The adapter must skip items
// whose ref is in registeredRefs.
type TransactionsFetcher interface {
	FetchTransactions(ctx context.Context, session *model.Session, registeredRefs map[string]bool, opts FetchOptions) (model.Transactions, error)
}

// HistoricFetcher produces lifecycle summaries of closed investment products.
type HistoricFetcher interface {
	FetchHistoricPosition(ctx context.Context, session *model.Session) (model.HistoricalPosition, error)
}

// Supports reports whether the adapter implements the given feature.
func Supports(a Adapter, feature model.Feature) bool {
	switch feature {
	case model.FeaturePosition:
		_, ok := a.(PositionFetcher)
		return ok
	case model.FeatureAutoContributions:
		_, ok := a.(ContributionsFetcher)
		return ok
	case model.FeatureTransactions:
		_, ok := a.(TransactionsFetcher)
		return ok
	case model.FeatureHistoric:
		_, ok := a.(HistoricFetcher)
		return ok
	}
	return false
}
