package model

import "time"

// AccountTransaction is an immutable cash movement. Ref is the source-unique
// identifier; re-ingesting the same ref for the same entity is a no-op.
type AccountTransaction struct {
	ID       string        `json:"id"`
	Ref      string        `json:"ref"`
	EntityID string        `json:"entityId"`
	Name     string        `json:"name"`
	Date     time.Time     `json:"date"`
	Amount   float64       `json:"amount"`
	Fees     float64       `json:"fees,omitempty"`
	Currency string        `json:"currency"`
	Type     string        `json:"type"`
	IsReal   bool          `json:"isReal"`
	Source   ProductSource `json:"source"`
}

// InvestmentTransaction is an immutable investment event (buy, sell,
// subscription, repayment...). Deduplicated on (entity, ref) like account
// transactions.
type InvestmentTransaction struct {
	ID          string         `json:"id"`
	Ref         string         `json:"ref"`
	EntityID    string         `json:"entityId"`
	Name        string         `json:"name"`
	Date        time.Time      `json:"date"`
	Amount      float64        `json:"amount"`
	NetAmount   float64        `json:"netAmount,omitempty"`
	Fees        float64        `json:"fees,omitempty"`
	Taxes       float64        `json:"taxes,omitempty"`
	Shares      float64        `json:"shares,omitempty"`
	Price       float64        `json:"price,omitempty"`
	Currency    string         `json:"currency"`
	ProductType InvestmentType `json:"productType"`
	Type        string         `json:"type"`
	IsReal      bool           `json:"isReal"`
	Source      ProductSource  `json:"source"`
}

// Transactions bundles what a transactions fetch produced.
type Transactions struct {
	Account    []AccountTransaction    `json:"account,omitempty"`
	Investment []InvestmentTransaction `json:"investment,omitempty"`
}

// Refs returns the source refs of every transaction in the bundle.
func (t Transactions) Refs() []string {
	refs := make([]string, 0, len(t.Account)+len(t.Investment))
	for _, tx := range t.Account {
		refs = append(refs, tx.Ref)
	}
	for _, tx := range t.Investment {
		refs = append(refs, tx.Ref)
	}
	return refs
}

// AutoContribution is one periodic contribution rule configured at the
// source. The set for an entity is replaced wholesale on every fetch.
type AutoContribution struct {
	ID          string     `json:"id"`
	EntityID    string     `json:"entityId"`
	Target      string     `json:"target"`
	TargetName  string     `json:"targetName,omitempty"`
	Alias       string     `json:"alias,omitempty"`
	Amount      float64    `json:"amount"`
	Currency    string     `json:"currency"`
	Periodicity string     `json:"periodicity"`
	NextDate    *time.Time `json:"nextDate,omitempty"`
	Active      bool       `json:"active"`
}

// AutoContributions is the full contribution set returned by one fetch.
type AutoContributions struct {
	Periodic []AutoContribution `json:"periodic,omitempty"`
}
