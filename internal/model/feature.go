package model

import "time"

// Feature identifies one kind of data an adapter can fetch for an entity.
type Feature string

// Fetch features.
const (
	FeaturePosition          Feature = "POSITION"
	FeatureAutoContributions Feature = "AUTO_CONTRIBUTIONS"
	FeatureTransactions      Feature = "TRANSACTIONS"
	FeatureHistoric          Feature = "HISTORIC"
)

// featureOrder is the canonical execution order within one fetch request.
var featureOrder = []Feature{
	FeaturePosition,
	FeatureAutoContributions,
	FeatureTransactions,
	FeatureHistoric,
}

// NormalizeFeatures deduplicates the requested features and returns them in
// canonical execution order. Unknown values are dropped.
func NormalizeFeatures(requested []Feature) []Feature {
	seen := make(map[Feature]bool, len(requested))
	for _, f := range requested {
		seen[f] = true
	}

	ordered := make([]Feature, 0, len(seen))
	for _, f := range featureOrder {
		if seen[f] {
			ordered = append(ordered, f)
		}
	}
	return ordered
}

// FetchRecord is the per-(entity, feature) high-water mark of the last
// successful fetch.
type FetchRecord struct {
	EntityID string    `json:"entityId"`
	Feature  Feature   `json:"feature"`
	Date     time.Time `json:"date"`
}
