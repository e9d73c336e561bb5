package registry

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GeorgeMcIntyre-Web/SimPilot-sub010/internal/model"
)

// Review workflow. Each queued item is a tiny state machine:
// PENDING → LINKED or PENDING → CREATED, both terminal, both driven by
// an explicit operator action and both transactional with exactly one
// audit entry. Items stay PENDING across runs until someone decides.

// PendingItems lists unresolved review items, optionally for one run.
func (r *Registry) PendingItems(runID string) ([]*model.AmbiguousItem, error) {
	return r.store.ListAmbiguous(runID, model.AmbiguousPending)
}

// Item loads one review item by id.
func (r *Registry) Item(id int64) (*model.AmbiguousItem, error) {
	return r.store.GetAmbiguous(id)
}

// RunComplete reports whether every item a run produced has left
// PENDING.
func (r *Registry) RunComplete(runID string) (bool, error) {
	n, err := r.store.CountPending(runID)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// LinkAmbiguous resolves a PENDING item to an existing entity chosen
// by the operator. The item's key is redirected to the entity with an
// alias rule (superseding any stale redirection), the item moves to
// LINKED and one audit entry records the decision. The alias write,
// item transition and audit write share one transaction.
func (r *Registry) LinkAmbiguous(itemID int64, targetUID, reason, actor string) (*model.AmbiguousItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, err := r.store.GetAmbiguous(itemID)
	if err != nil {
		return nil, err
	}
	if item.State != model.AmbiguousPending {
		return nil, fmt.Errorf("%w: item %d is %s", ErrItemResolved, itemID, item.State)
	}
	if _, err := r.store.GetEntity(targetUID); err != nil {
		return nil, fmt.Errorf("link target %s: %w", targetUID, err)
	}

	now := time.Now().UTC()
	err = r.inTx(func(tx *sql.Tx) error {
		if err := r.linkAliasTx(tx, item, targetUID, reason, actor, now); err != nil {
			return err
		}
		if err := r.store.ResolveAmbiguousTx(tx, itemID, model.AmbiguousLinked, targetUID, reason, actor, now); err != nil {
			return err
		}
		return r.store.InsertAuditTx(tx, &model.AuditEntry{
			EntityType: item.EntityType,
			EntityUID:  targetUID,
			Action:     model.ActionAddAlias,
			NewValue:   targetUID,
			Reason:     reason,
			Actor:      actor,
			Metadata: map[string]string{
				"fromKey": item.Key,
				"runId":   item.RunID,
				"itemId":  fmt.Sprintf("%d", itemID),
			},
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}

	if err := r.store.TouchEntityLastSeen(targetUID, item.RunID); err != nil {
		return nil, err
	}

	r.log.Info("ambiguous item linked",
		zap.Int64("itemId", itemID),
		zap.String("key", item.Key),
		zap.String("targetUid", targetUID))

	return r.store.GetAmbiguous(itemID)
}

// linkAliasTx adds or confirms the redirection item.Key → targetUID.
// An identical active redirection is left alone; a different one is
// superseded; the operator's explicit choice wins.
func (r *Registry) linkAliasTx(tx *sql.Tx, item *model.AmbiguousItem, targetUID, reason, actor string, now time.Time) error {
	existing, err := r.store.GetActiveAlias(item.EntityType, item.Key)
	switch {
	case err == nil && existing.TargetUID == targetUID:
		return nil
	case err == nil:
		if err := r.store.DeactivateAliasTx(tx, existing.ID); err != nil {
			return err
		}
	case !errors.Is(err, ErrNotFound):
		return err
	}

	_, err = r.store.InsertAliasTx(tx, &model.AliasRule{
		Type:      item.EntityType,
		FromKey:   item.Key,
		TargetUID: targetUID,
		Reason:    reason,
		Actor:     actor,
		Active:    true,
		CreatedAt: now,
	})
	return err
}

// CreateFromAmbiguous resolves a PENDING item by minting a brand-new
// canonical entity for it. The entity insert, the item transition and
// the single audit entry share one transaction.
func (r *Registry) CreateFromAmbiguous(itemID int64, reason, actor string) (*model.CanonicalEntity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, err := r.store.GetAmbiguous(itemID)
	if err != nil {
		return nil, err
	}
	if item.State != model.AmbiguousPending {
		return nil, fmt.Errorf("%w: item %d is %s", ErrItemResolved, itemID, item.State)
	}

	// Two pending items can share one key (the same typo queued by two
	// runs). Only the first may mint an entity; the second must be
	// linked to it instead, or the key ends up owned twice.
	if existing, err := r.store.GetActiveEntityByKey(item.EntityType, item.Key); err == nil {
		return nil, fmt.Errorf("%w: key %q belongs to %s", ErrKeyClaimed, item.Key, existing.UID)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	entity := &model.CanonicalEntity{
		UID:       uuid.NewString(),
		Type:      item.EntityType,
		Key:       item.Key,
		Labels:    copyLabels(item.RowValues),
		Status:    model.StatusActive,
		LastSeen:  item.RunID,
		CreatedAt: now,
	}

	err = r.inTx(func(tx *sql.Tx) error {
		if err := r.store.InsertEntityTx(tx, entity); err != nil {
			return err
		}
		if err := r.store.ResolveAmbiguousTx(tx, itemID, model.AmbiguousCreated, entity.UID, reason, actor, now); err != nil {
			return err
		}
		return r.store.InsertAuditTx(tx, &model.AuditEntry{
			EntityType: item.EntityType,
			EntityUID:  entity.UID,
			Action:     model.ActionCreateEntity,
			NewValue:   item.Key,
			Reason:     reason,
			Actor:      actor,
			Metadata: map[string]string{
				"runId":  item.RunID,
				"itemId": fmt.Sprintf("%d", itemID),
			},
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}

	r.log.Info("ambiguous item resolved as new entity",
		zap.Int64("itemId", itemID),
		zap.String("key", item.Key),
		zap.String("uid", entity.UID))
	return entity, nil
}

// StaleEntities lists active entities not observed by any of the
// latest recentRuns import runs.
func (r *Registry) StaleEntities(recentRuns int) ([]*model.CanonicalEntity, error) {
	if recentRuns < 1 {
		recentRuns = 1
	}
	ids, err := r.store.RecentRunIDs(recentRuns)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return r.store.ListEntitiesNotSeenSince(ids)
}

// DeactivateStale flags every stale entity inactive, one audited
// transition per entity. Returns the number deactivated.
func (r *Registry) DeactivateStale(recentRuns int, reason, actor string) (int, error) {
	stale, err := r.StaleEntities(recentRuns)
	if err != nil {
		return 0, err
	}
	for i, e := range stale {
		if err := r.Deactivate(e.UID, reason, actor); err != nil {
			return i, err
		}
	}
	return len(stale), nil
}
