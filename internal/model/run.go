package model

import "time"

// AnomalyType classifies a row-level ingestion problem.
type AnomalyType string

const (
	AnomalyMissingField AnomalyType = "missing_field"
	AnomalyBadFormat    AnomalyType = "bad_format"
	AnomalyDuplicateID  AnomalyType = "duplicate_id"
	AnomalyUnreadable   AnomalyType = "unreadable"
)

// Anomaly is one recorded row-level problem. The row is skipped, the
// rest of the file proceeds.
type Anomaly struct {
	Type    AnomalyType `json:"type"`
	Sheet   string      `json:"sheet,omitempty"`
	Row     int         `json:"row"`
	Message string      `json:"message"`
}

// ImportRun is one ingestion batch across one or more source files.
// Entities carry the id of the run that last observed them; runs are
// the reference point for staleness.
type ImportRun struct {
	ID          string    `json:"id"`
	StartedAt   time.Time `json:"startedAt"`
	CompletedAt time.Time `json:"completedAt,omitempty"`
	SourceFiles []string  `json:"sourceFiles"`
	Status      string    `json:"status"` // processing/completed/failed

	TotalRows     int `json:"totalRows"`
	ResolvedRows  int `json:"resolvedRows"`
	AmbiguousRows int `json:"ambiguousRows"`
	CreatedCount  int `json:"createdCount"`
	SkippedRows   int `json:"skippedRows"`

	Anomalies []Anomaly `json:"anomalies,omitempty"`
}
