package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/GeorgeMcIntyre-Web/SimPilot-sub010/internal/model"
)

// ErrNotFound is returned when a looked-up record does not exist.
var ErrNotFound = errors.New("record not found")

const entityColumns = "uid, type, key, plant_key, labels, status, last_seen_run, created_at"

func scanEntity(row interface{ Scan(...any) error }) (*model.CanonicalEntity, error) {
	var e model.CanonicalEntity
	var labels string
	err := row.Scan(&e.UID, &e.Type, &e.Key, &e.PlantKey, &labels, &e.Status, &e.LastSeen, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan entity: %w", err)
	}
	if err := json.Unmarshal([]byte(labels), &e.Labels); err != nil {
		e.Labels = map[string]string{}
	}
	return &e, nil
}

// InsertEntityTx inserts a new canonical entity inside a transaction.
func (s *Store) InsertEntityTx(tx *sql.Tx, e *model.CanonicalEntity) error {
	labels, err := json.Marshal(e.Labels)
	if err != nil {
		return fmt.Errorf("marshal labels: %w", err)
	}
	_, err = tx.Exec(`
		INSERT INTO entities (uid, type, key, plant_key, labels, status, last_seen_run, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.UID, e.Type, e.Key, e.PlantKey, string(labels), e.Status, e.LastSeen, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert entity %s: %w", e.UID, err)
	}
	return nil
}

// GetEntity loads one entity by uid.
func (s *Store) GetEntity(uid string) (*model.CanonicalEntity, error) {
	row := s.db.QueryRow(`SELECT `+entityColumns+` FROM entities WHERE uid = ?`, uid)
	return scanEntity(row)
}

// GetActiveEntityByKey looks up the active entity holding a key.
func (s *Store) GetActiveEntityByKey(t model.EntityType, key string) (*model.CanonicalEntity, error) {
	row := s.db.QueryRow(`
		SELECT `+entityColumns+` FROM entities
		WHERE type = ? AND key = ? AND status = ?
	`, t, key, model.StatusActive)
	return scanEntity(row)
}

// ListEntities returns entities of one type, all types when t is empty.
func (s *Store) ListEntities(t model.EntityType) ([]*model.CanonicalEntity, error) {
	query := `SELECT ` + entityColumns + ` FROM entities`
	args := []any{}
	if t != "" {
		query += ` WHERE type = ?`
		args = append(args, t)
	}
	query += ` ORDER BY key`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	defer rows.Close()

	var result []*model.CanonicalEntity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// ListActiveEntities returns active entities of one type, used by the
// resolver to rank similarity candidates.
func (s *Store) ListActiveEntities(t model.EntityType) ([]*model.CanonicalEntity, error) {
	rows, err := s.db.Query(`
		SELECT `+entityColumns+` FROM entities
		WHERE type = ? AND status = ?
	`, t, model.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("list active entities: %w", err)
	}
	defer rows.Close()

	var result []*model.CanonicalEntity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// UpdateEntityStatusTx flips an entity's lifecycle status.
func (s *Store) UpdateEntityStatusTx(tx *sql.Tx, uid string, status model.EntityStatus) error {
	res, err := tx.Exec(`UPDATE entities SET status = ? WHERE uid = ?`, status, uid)
	if err != nil {
		return fmt.Errorf("update entity status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateEntityLabelsTx replaces an entity's label bag.
func (s *Store) UpdateEntityLabelsTx(tx *sql.Tx, uid string, labels map[string]string) error {
	data, err := json.Marshal(labels)
	if err != nil {
		return fmt.Errorf("marshal labels: %w", err)
	}
	res, err := tx.Exec(`UPDATE entities SET labels = ? WHERE uid = ?`, string(data), uid)
	if err != nil {
		return fmt.Errorf("update entity labels: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteEntityTx removes an entity row. Its audit history stays.
func (s *Store) DeleteEntityTx(tx *sql.Tx, uid string) error {
	res, err := tx.Exec(`DELETE FROM entities WHERE uid = ?`, uid)
	if err != nil {
		return fmt.Errorf("delete entity: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchEntityLastSeen records the import run that last observed an
// entity. Run bookkeeping, not an audited state transition.
func (s *Store) TouchEntityLastSeen(uid, runID string) error {
	_, err := s.db.Exec(`UPDATE entities SET last_seen_run = ? WHERE uid = ?`, runID, uid)
	if err != nil {
		return fmt.Errorf("touch entity last seen: %w", err)
	}
	return nil
}

// ListEntitiesNotSeenSince returns active entities whose last observing
// run is not in runIDs; this feeds the staleness report.
func (s *Store) ListEntitiesNotSeenSince(runIDs []string) ([]*model.CanonicalEntity, error) {
	all, err := s.ListEntities("")
	if err != nil {
		return nil, err
	}
	recent := make(map[string]struct{}, len(runIDs))
	for _, id := range runIDs {
		recent[id] = struct{}{}
	}
	var stale []*model.CanonicalEntity
	for _, e := range all {
		if e.Status != model.StatusActive {
			continue
		}
		if _, ok := recent[e.LastSeen]; !ok {
			stale = append(stale, e)
		}
	}
	return stale, nil
}
