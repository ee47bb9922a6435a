package model

import "time"

// HistoricEntry is the lifecycle summary of one investment product, for
// example a closed real-estate crowdfunding deal. The set for an entity is
// replaced wholesale on every historic fetch.
type HistoricEntry struct {
	ID          string         `json:"id"`
	EntityID    string         `json:"entityId"`
	Name        string         `json:"name"`
	ProductType InvestmentType `json:"productType"`
	Invested    float64        `json:"invested"`
	Returned    float64        `json:"returned"`
	Fees        float64        `json:"fees,omitempty"`
	Taxes       float64        `json:"taxes,omitempty"`
	Currency    string         `json:"currency"`
	Maturity    *time.Time     `json:"maturity,omitempty"`

	// RelatedTxRefs links the entry to the transactions that produced it.
	RelatedTxRefs []string `json:"relatedTxRefs,omitempty"`
}

// HistoricalPosition is the set of historic entries returned by one fetch.
type HistoricalPosition struct {
	Entries []HistoricEntry `json:"entries"`
}
