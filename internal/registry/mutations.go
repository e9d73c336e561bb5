package registry

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GeorgeMcIntyre-Web/SimPilot-sub010/internal/model"
)

// Every mutation in this file pairs its entity/alias write with exactly
// one audit entry inside one transaction: both land or neither does.

// CreateEntity mints a new canonical entity with a fresh uid.
func (r *Registry) CreateEntity(t model.EntityType, key string, labels map[string]string, source, reason, actor string) (*model.CanonicalEntity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.createEntityLocked(t, key, labels, source, reason, actor)
}

func (r *Registry) createEntityLocked(t model.EntityType, key string, labels map[string]string, source, reason, actor string) (*model.CanonicalEntity, error) {
	if labels == nil {
		labels = map[string]string{}
	}
	entity := &model.CanonicalEntity{
		UID:       uuid.NewString(),
		Type:      t,
		Key:       key,
		Labels:    labels,
		Status:    model.StatusActive,
		LastSeen:  source,
		CreatedAt: time.Now().UTC(),
	}

	err := r.inTx(func(tx *sql.Tx) error {
		if err := r.store.InsertEntityTx(tx, entity); err != nil {
			return err
		}
		return r.store.InsertAuditTx(tx, &model.AuditEntry{
			EntityType: t,
			EntityUID:  entity.UID,
			Action:     model.ActionCreateEntity,
			NewValue:   key,
			Reason:     reason,
			Actor:      actor,
			Metadata:   map[string]string{"source": source},
			CreatedAt:  entity.CreatedAt,
		})
	})
	if err != nil {
		return nil, err
	}

	r.log.Info("entity created",
		zap.String("uid", entity.UID),
		zap.String("key", key),
		zap.String("entityType", string(t)))
	return entity, nil
}

// AddAliasRule redirects fromKey to targetUID. A key that already
// redirects to a different entity is rejected with ErrAliasConflict
// unless supersede is set, in which case the old rule is retired in the
// same transaction. Redefining the identical redirection is a no-op
// confirm and returns the existing rule.
func (r *Registry) AddAliasRule(t model.EntityType, fromKey, targetUID, reason, actor string, supersede bool) (*model.AliasRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addAliasLocked(t, fromKey, targetUID, reason, actor, supersede)
}

func (r *Registry) addAliasLocked(t model.EntityType, fromKey, targetUID, reason, actor string, supersede bool) (*model.AliasRule, error) {
	if _, err := r.store.GetEntity(targetUID); err != nil {
		return nil, fmt.Errorf("alias target %s: %w", targetUID, err)
	}

	existing, err := r.store.GetActiveAlias(t, fromKey)
	oldTarget := ""
	switch {
	case err == nil && existing.TargetUID == targetUID:
		return existing, nil
	case err == nil && !supersede:
		return nil, fmt.Errorf("%w: %s -> %s", ErrAliasConflict, fromKey, existing.TargetUID)
	case err == nil:
		oldTarget = existing.TargetUID
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}

	rule := &model.AliasRule{
		Type:      t,
		FromKey:   fromKey,
		TargetUID: targetUID,
		Reason:    reason,
		Actor:     actor,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}

	err = r.inTx(func(tx *sql.Tx) error {
		if existing != nil && oldTarget != "" {
			if err := r.store.DeactivateAliasTx(tx, existing.ID); err != nil {
				return err
			}
		}
		id, err := r.store.InsertAliasTx(tx, rule)
		if err != nil {
			return err
		}
		rule.ID = id
		return r.store.InsertAuditTx(tx, &model.AuditEntry{
			EntityType: t,
			EntityUID:  targetUID,
			Action:     model.ActionAddAlias,
			OldValue:   oldTarget,
			NewValue:   targetUID,
			Reason:     reason,
			Actor:      actor,
			Metadata:   map[string]string{"fromKey": fromKey},
			CreatedAt:  rule.CreatedAt,
		})
	})
	if err != nil {
		return nil, err
	}

	r.log.Info("alias rule added",
		zap.String("fromKey", fromKey),
		zap.String("targetUid", targetUID),
		zap.Bool("superseded", oldTarget != ""))
	return rule, nil
}

// Activate marks an entity active.
func (r *Registry) Activate(uid, reason, actor string) error {
	return r.setStatus(uid, model.StatusActive, model.ActionActivate, reason, actor)
}

// Deactivate marks an entity inactive. The entity and its history
// remain; only its lifecycle state changes.
func (r *Registry) Deactivate(uid, reason, actor string) error {
	return r.setStatus(uid, model.StatusInactive, model.ActionDeactivate, reason, actor)
}

func (r *Registry) setStatus(uid string, status model.EntityStatus, action model.AuditAction, reason, actor string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entity, err := r.store.GetEntity(uid)
	if err != nil {
		return err
	}

	return r.inTx(func(tx *sql.Tx) error {
		if err := r.store.UpdateEntityStatusTx(tx, uid, status); err != nil {
			return err
		}
		return r.store.InsertAuditTx(tx, &model.AuditEntry{
			EntityType: entity.Type,
			EntityUID:  uid,
			Action:     action,
			OldValue:   string(entity.Status),
			NewValue:   string(status),
			Reason:     reason,
			Actor:      actor,
			CreatedAt:  time.Now().UTC(),
		})
	})
}

// OverrideLabel replaces one display label on an entity.
func (r *Registry) OverrideLabel(uid, field, newValue, reason, actor string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entity, err := r.store.GetEntity(uid)
	if err != nil {
		return err
	}

	oldValue := entity.Labels[field]
	labels := copyLabels(entity.Labels)
	labels[field] = newValue

	return r.inTx(func(tx *sql.Tx) error {
		if err := r.store.UpdateEntityLabelsTx(tx, uid, labels); err != nil {
			return err
		}
		return r.store.InsertAuditTx(tx, &model.AuditEntry{
			EntityType: entity.Type,
			EntityUID:  uid,
			Action:     model.ActionOverrideLabel,
			OldValue:   oldValue,
			NewValue:   newValue,
			Reason:     reason,
			Actor:      actor,
			Metadata:   map[string]string{"field": field},
			CreatedAt:  time.Now().UTC(),
		})
	})
}

// UpdateAttributes applies a batch of label changes as one audited
// transition; old and new values are recorded as JSON objects.
func (r *Registry) UpdateAttributes(uid string, changes map[string]string, reason, actor string) error {
	if len(changes) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entity, err := r.store.GetEntity(uid)
	if err != nil {
		return err
	}

	oldValues := make(map[string]string, len(changes))
	labels := copyLabels(entity.Labels)
	for field, value := range changes {
		oldValues[field] = entity.Labels[field]
		labels[field] = value
	}

	oldJSON, _ := json.Marshal(oldValues)
	newJSON, _ := json.Marshal(changes)

	return r.inTx(func(tx *sql.Tx) error {
		if err := r.store.UpdateEntityLabelsTx(tx, uid, labels); err != nil {
			return err
		}
		return r.store.InsertAuditTx(tx, &model.AuditEntry{
			EntityType: entity.Type,
			EntityUID:  uid,
			Action:     model.ActionUpdateAttributes,
			OldValue:   string(oldJSON),
			NewValue:   string(newJSON),
			Reason:     reason,
			Actor:      actor,
			CreatedAt:  time.Now().UTC(),
		})
	})
}

// DeleteEntity removes an entity record. The audit trail outlives the
// entity; the uid is never reused.
func (r *Registry) DeleteEntity(uid, reason, actor string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entity, err := r.store.GetEntity(uid)
	if err != nil {
		return err
	}

	return r.inTx(func(tx *sql.Tx) error {
		if err := r.store.DeleteEntityTx(tx, uid); err != nil {
			return err
		}
		return r.store.InsertAuditTx(tx, &model.AuditEntry{
			EntityType: entity.Type,
			EntityUID:  uid,
			Action:     model.ActionDeleteEntity,
			OldValue:   entity.Key,
			Reason:     reason,
			Actor:      actor,
			CreatedAt:  time.Now().UTC(),
		})
	})
}

// inTx runs fn inside one transaction, rolling back on error.
func (r *Registry) inTx(fn func(tx *sql.Tx) error) error {
	tx, err := r.store.BeginTx()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func copyLabels(labels map[string]string) map[string]string {
	out := make(map[string]string, len(labels))
	for k, v := range labels {
		out[k] = v
	}
	return out
}
