package registry

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/GeorgeMcIntyre-Web/SimPilot-sub010/internal/store"
)

// Typed domain errors. Callers branch with errors.Is.
var (
	ErrAliasConflict = errors.New("alias key already redirects to a different entity")
	ErrItemResolved  = errors.New("ambiguous item is already resolved")
	ErrKeyClaimed    = errors.New("an active entity already owns this key")
	ErrNotFound      = store.ErrNotFound
)

// Registry owns the canonical entity store and serializes every
// mutation against it. Two rows racing on "no match, create new" for
// the same real entity would otherwise mint duplicate uids, so all
// resolution and mutation paths hold the writer lock.
type Registry struct {
	store *store.Store
	log   *zap.Logger

	// mu is the single-writer lock over resolution and mutation.
	mu sync.Mutex

	// candidateThreshold is the minimum similarity for review
	// candidates; below it a row is clearly new.
	candidateThreshold float64
	// maxCandidates bounds the ranked list shown for review.
	maxCandidates int
}

// Option adjusts registry construction.
type Option func(*Registry)

// WithCandidateThreshold overrides the similarity floor for review
// candidates.
func WithCandidateThreshold(threshold float64) Option {
	return func(r *Registry) { r.candidateThreshold = threshold }
}

// New creates a registry over an opened store. The registry is built
// once at the composition root and handed to the importer and server.
func New(st *store.Store, log *zap.Logger, opts ...Option) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Registry{
		store:              st,
		log:                log,
		candidateThreshold: 0.70,
		maxCandidates:      5,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Store exposes read access for boundary surfaces (entity lists,
// audit queries). Mutations go through Registry methods only.
func (r *Registry) Store() *store.Store {
	return r.store
}
