package service

import (
	"time"

	"github.com/davidmns/finsync/internal/adapter"
	"github.com/davidmns/finsync/internal/model"
)

// FetchResultCode discriminates the outcome of one fetch request.
type FetchResultCode string

// Fetch result codes. Completed is the only outcome that carries data; the
// login-family codes mirror the adapter's login codes one to one.
const (
	FetchCompleted              FetchResultCode = "COMPLETED"
	FetchDisabled               FetchResultCode = "DISABLED"
	FetchExecutionConflict      FetchResultCode = "EXECUTION_CONFLICT"
	FetchCooldown               FetchResultCode = "COOLDOWN"
	FetchCodeRequested          FetchResultCode = "CODE_REQUESTED"
	FetchManualLogin            FetchResultCode = "MANUAL_LOGIN"
	FetchNotLogged              FetchResultCode = "NOT_LOGGED"
	FetchInvalidCredentials     FetchResultCode = "INVALID_CREDENTIALS"
	FetchInvalidCode            FetchResultCode = "INVALID_CODE"
	FetchLoginRequired          FetchResultCode = "LOGIN_REQUIRED"
	FetchNoCredentialsAvailable FetchResultCode = "NO_CREDENTIALS_AVAILABLE"
	FetchUnexpectedLoginError   FetchResultCode = "UNEXPECTED_LOGIN_ERROR"
)

// loginCodeTable is the fixed translation from login codes to fetch codes.
// Created and Resumed are absent: those proceed to feature dispatch.
var loginCodeTable = map[adapter.LoginResultCode]FetchResultCode{
	adapter.LoginInvalidCode:            FetchInvalidCode,
	adapter.LoginInvalidCredentials:     FetchInvalidCredentials,
	adapter.LoginRequired:               FetchLoginRequired,
	adapter.LoginManualLogin:            FetchManualLogin,
	adapter.LoginNoCredentialsAvailable: FetchNoCredentialsAvailable,
	adapter.LoginUnexpectedError:        FetchUnexpectedLoginError,
	adapter.LoginNotLogged:              FetchNotLogged,
	adapter.LoginCodeRequested:          FetchCodeRequested,
}

// fetchCodeForLogin translates a non-success login code.
func fetchCodeForLogin(code adapter.LoginResultCode) FetchResultCode {
	if translated, ok := loginCodeTable[code]; ok {
		return translated
	}
	return FetchUnexpectedLoginError
}

// FetchRequest is the input of one fetch.
type FetchRequest struct {
	EntityID     string               `json:"entityId"`
	Features     []model.Feature      `json:"features"`
	TwoFactor    *adapter.TwoFactor   `json:"twoFactor,omitempty"`
	LoginOptions adapter.LoginOptions `json:"loginOptions"`
	FetchOptions adapter.FetchOptions `json:"fetchOptions"`

	// SkipCooldown overrides the per-feature cooldown check.
	SkipCooldown bool `json:"skipCooldown,omitempty"`
}

// CooldownDetails tells the caller how long to wait before retrying.
type CooldownDetails struct {
	LastUpdate time.Time     `json:"lastUpdate"`
	Wait       time.Duration `json:"wait"`
}

// FetchDetails carries the optional context of a non-completed result.
type FetchDetails struct {
	ProcessID string           `json:"processId,omitempty"`
	Message   string           `json:"message,omitempty"`
	Cooldown  *CooldownDetails `json:"cooldown,omitempty"`
}

// FetchedData bundles the artifacts one completed fetch produced.
type FetchedData struct {
	Position      *model.GlobalPosition     `json:"position,omitempty"`
	Contributions *model.AutoContributions  `json:"contributions,omitempty"`
	Transactions  *model.Transactions       `json:"transactions,omitempty"`
	Historic      *model.HistoricalPosition `json:"historic,omitempty"`
}

// FetchResult is the outcome of one fetch request.
type FetchResult struct {
	Code    FetchResultCode `json:"code"`
	Details *FetchDetails   `json:"details,omitempty"`
	Data    *FetchedData    `json:"data,omitempty"`
}

// LoginRequest is the input of the login-only slice used to connect an
// entity for the first time.
type LoginRequest struct {
	EntityID    string               `json:"entityId"`
	Credentials map[string]string    `json:"credentials"`
	TwoFactor   *adapter.TwoFactor   `json:"twoFactor,omitempty"`
	Options     adapter.LoginOptions `json:"options"`
}

// LoginResponse is the outcome of the login-only slice.
type LoginResponse struct {
	Code      adapter.LoginResultCode `json:"code"`
	ProcessID string                  `json:"processId,omitempty"`
	Details   string                  `json:"details,omitempty"`
}

// VirtualFetchResult is the outcome of one spreadsheet import run.
type VirtualFetchResult struct {
	Code      FetchResultCode `json:"code"`
	ImportID  string          `json:"importId,omitempty"`
	Positions int             `json:"positions"`
	Txs       int             `json:"transactions"`
}
