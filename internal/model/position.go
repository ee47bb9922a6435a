package model

import "time"

// ProductSource records where a snapshot or transaction came from.
type ProductSource string

// Product sources.
const (
	SourceReal   ProductSource = "REAL"
	SourceSheets ProductSource = "SHEETS"
	SourceManual ProductSource = "MANUAL"
)

// GlobalPosition is a point-in-time snapshot of everything an entity holds.
// At most one snapshot exists per (entity, date, source); re-fetching on the
// same day replaces the prior snapshot of that source.
type GlobalPosition struct {
	ID       string        `json:"id"`
	EntityID string        `json:"entityId"`
	Date     time.Time     `json:"date"`
	Source   ProductSource `json:"source"`

	Accounts    []Account    `json:"accounts,omitempty"`
	Investments []Investment `json:"investments,omitempty"`
	Loans       []Loan       `json:"loans,omitempty"`
}

// Account is a cash product inside a global position snapshot.
type Account struct {
	ID       string  `json:"id"`
	Name     string  `json:"name,omitempty"`
	IBAN     string  `json:"iban,omitempty"`
	Total    float64 `json:"total"`
	Currency string  `json:"currency"`
	Interest float64 `json:"interest,omitempty"`
}

// InvestmentType classifies an investment product line.
type InvestmentType string

// Investment product types.
const (
	InvestmentTypeFund         InvestmentType = "FUND"
	InvestmentTypeStock        InvestmentType = "STOCK"
	InvestmentTypeCrypto       InvestmentType = "CRYPTO"
	InvestmentTypeDeposit      InvestmentType = "DEPOSIT"
	InvestmentTypeRealEstateCF InvestmentType = "REAL_ESTATE_CF"
	InvestmentTypeCrowdlending InvestmentType = "CROWDLENDING"
)

// Investment is one holding line inside a global position snapshot. The Type
// field selects which of the optional columns are meaningful; the shape is
// deliberately flat so every product variant shares one table.
type Investment struct {
	ID             string         `json:"id"`
	Type           InvestmentType `json:"type"`
	Name           string         `json:"name"`
	Symbol         string         `json:"symbol,omitempty"`
	ISIN           string         `json:"isin,omitempty"`
	Shares         float64        `json:"shares,omitempty"`
	InitialValue   float64        `json:"initialValue,omitempty"`
	MarketValue    float64        `json:"marketValue"`
	Currency       string         `json:"currency"`
	InterestRate   float64        `json:"interestRate,omitempty"`
	Maturity       *time.Time     `json:"maturity,omitempty"`
	WalletAddress  string         `json:"walletAddress,omitempty"`
	ExpectedReturn float64        `json:"expectedReturn,omitempty"`
}

// Loan is a liability inside a global position snapshot.
type Loan struct {
	ID               string     `json:"id"`
	Name             string     `json:"name,omitempty"`
	CurrentAmount    float64    `json:"currentAmount"`
	PrincipalPaid    float64    `json:"principalPaid,omitempty"`
	PrincipalPending float64    `json:"principalPending,omitempty"`
	InterestRate     float64    `json:"interestRate,omitempty"`
	Currency         string     `json:"currency"`
	Maturity         *time.Time `json:"maturity,omitempty"`
}
