package registry

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/GeorgeMcIntyre-Web/SimPilot-sub010/internal/model"
	"github.com/GeorgeMcIntyre-Web/SimPilot-sub010/internal/parser"
	"go.uber.org/zap"
)

// ResolutionStatus is the outcome of resolving one row's identity.
type ResolutionStatus string

const (
	// ResolutionMatched: the key belongs to an existing active entity.
	ResolutionMatched ResolutionStatus = "matched"
	// ResolutionAlias: an alias rule redirected the key to an entity.
	ResolutionAlias ResolutionStatus = "alias"
	// ResolutionAmbiguous: similar entities exist but none exactly;
	// the row was queued for review and nothing was assigned.
	ResolutionAmbiguous ResolutionStatus = "ambiguous"
	// ResolutionNew: no plausible match; creation is a separate,
	// explicit step and has not happened here.
	ResolutionNew ResolutionStatus = "new"
	// ResolutionSkipped: the row carries no resolvable key.
	ResolutionSkipped ResolutionStatus = "skipped"
)

// Resolution reports what the resolver decided for one row.
type Resolution struct {
	Status      ResolutionStatus        `json:"status"`
	EntityType  model.EntityType        `json:"entityType"`
	Key         string                  `json:"key"`
	UID         string                  `json:"uid,omitempty"`
	Candidates  []model.EntityCandidate `json:"candidates,omitempty"`
	AmbiguousID int64                   `json:"ambiguousId,omitempty"`
}

// ResolveRow resolves one interpreted row against the registry for one
// entity type. It reuses uids for exact and alias hits, queues
// near-misses for review, and classifies the rest as new without
// creating anything; creation is always a separate explicit action.
func (r *Registry) ResolveRow(runID string, t model.EntityType, row *parser.InterpretedRow) (*Resolution, error) {
	key := KeyForRow(t, row)
	if key == "" {
		return &Resolution{Status: ResolutionSkipped, EntityType: t}, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	res := &Resolution{EntityType: t, Key: key}

	// 1. Exact key match on an active entity.
	entity, err := r.store.GetActiveEntityByKey(t, key)
	if err == nil {
		res.Status = ResolutionMatched
		res.UID = entity.UID
		if err := r.store.TouchEntityLastSeen(entity.UID, runID); err != nil {
			return nil, err
		}
		return res, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	// 2. Alias redirection.
	alias, err := r.store.GetActiveAlias(t, key)
	if err == nil {
		res.Status = ResolutionAlias
		res.UID = alias.TargetUID
		if err := r.store.TouchEntityLastSeen(alias.TargetUID, runID); err != nil {
			return nil, err
		}
		return res, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	// 3. Similarity candidates → review queue. Candidates are never
	// auto-linked regardless of score.
	candidates, err := r.rankCandidates(t, key)
	if err != nil {
		return nil, err
	}
	if len(candidates) > 0 {
		item := &model.AmbiguousItem{
			RunID:      runID,
			EntityType: t,
			Key:        key,
			Summary:    row.Summary,
			RowValues:  roleValues(row),
			Candidates: candidates,
			State:      model.AmbiguousPending,
			CreatedAt:  time.Now().UTC(),
		}
		id, err := r.store.InsertAmbiguous(item)
		if err != nil {
			return nil, err
		}
		r.log.Info("row queued for review",
			zap.String("key", key),
			zap.String("entityType", string(t)),
			zap.Int("candidates", len(candidates)))
		res.Status = ResolutionAmbiguous
		res.Candidates = candidates
		res.AmbiguousID = id
		return res, nil
	}

	// 4. Clearly new. No uid is minted here.
	res.Status = ResolutionNew
	return res, nil
}

// CreateEntityForRow mints a new canonical entity for a row previously
// classified as new. Used by the importer when the run policy creates
// unseen entities, and indirectly by the review workflow.
func (r *Registry) CreateEntityForRow(runID string, t model.EntityType, key string, row *parser.InterpretedRow, reason, actor string) (*model.CanonicalEntity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// A concurrent row in the same run may have created this key
	// between classification and creation.
	if existing, err := r.store.GetActiveEntityByKey(t, key); err == nil {
		if err := r.store.TouchEntityLastSeen(existing.UID, runID); err != nil {
			return nil, err
		}
		return existing, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	labels := roleValues(row)
	return r.createEntityLocked(t, key, labels, runID, reason, actor)
}

// rankCandidates scores every active entity of one type against a key
// and returns the ranked review list above the similarity floor.
func (r *Registry) rankCandidates(t model.EntityType, key string) ([]model.EntityCandidate, error) {
	entities, err := r.store.ListActiveEntities(t)
	if err != nil {
		return nil, fmt.Errorf("rank candidates: %w", err)
	}

	var candidates []model.EntityCandidate
	for _, e := range entities {
		score := KeySimilarity(key, e.Key)
		if score >= r.candidateThreshold {
			candidates = append(candidates, model.EntityCandidate{
				UID:   e.UID,
				Key:   e.Key,
				Score: score,
			})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Key < candidates[j].Key
	})
	if len(candidates) > r.maxCandidates {
		candidates = candidates[:r.maxCandidates]
	}
	return candidates, nil
}

func roleValues(row *parser.InterpretedRow) map[string]string {
	values := make(map[string]string, len(row.Values))
	for role, v := range row.Values {
		values[string(role)] = v
	}
	return values
}
