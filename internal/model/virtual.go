package model

import "time"

// VirtualDataImport is the bookkeeping row for one record produced by a
// spreadsheet import batch. The last batch per (source, feature, entity)
// defines the authoritative virtual snapshot.
type VirtualDataImport struct {
	ImportID         string    `json:"importId"`
	GlobalPositionID string    `json:"globalPositionId,omitempty"`
	Source           string    `json:"source"`
	Date             time.Time `json:"date"`
	Feature          Feature   `json:"feature,omitempty"`
	EntityID         string    `json:"entityId,omitempty"`
}
