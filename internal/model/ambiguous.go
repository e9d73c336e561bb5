package model

import "time"

// AmbiguousState is the resolution state of one ambiguous row.
// PENDING is the only non-terminal state.
type AmbiguousState string

const (
	AmbiguousPending AmbiguousState = "PENDING"
	AmbiguousLinked  AmbiguousState = "LINKED"
	AmbiguousCreated AmbiguousState = "CREATED"
)

// EntityCandidate is one ranked registry match offered for review.
type EntityCandidate struct {
	UID   string  `json:"uid"`
	Key   string  `json:"key"`
	Score float64 `json:"score"`
}

// AmbiguousItem is one interpreted row whose identity could not be
// resolved confidently. It never resolves itself; only an explicit
// operator action moves it out of PENDING.
type AmbiguousItem struct {
	ID         int64             `json:"id"`
	RunID      string            `json:"runId"`
	EntityType EntityType        `json:"entityType"`
	Key        string            `json:"key"`
	Summary    string            `json:"summary"`
	RowValues  map[string]string `json:"rowValues"`
	Candidates []EntityCandidate `json:"candidates"`
	State      AmbiguousState    `json:"state"`

	ResolvedUID string    `json:"resolvedUid,omitempty"`
	ResolvedAt  time.Time `json:"resolvedAt,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	Actor       string    `json:"actor,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
