package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/GeorgeMcIntyre-Web/SimPilot-sub010/internal/model"
)

const ambiguousColumns = `id, run_id, entity_type, key, summary, row_values,
	candidates, state, resolved_uid, resolved_at, reason, actor, created_at`

func scanAmbiguous(row interface{ Scan(...any) error }) (*model.AmbiguousItem, error) {
	var it model.AmbiguousItem
	var rowValues, candidates string
	var resolvedAt sql.NullTime
	err := row.Scan(&it.ID, &it.RunID, &it.EntityType, &it.Key, &it.Summary, &rowValues,
		&candidates, &it.State, &it.ResolvedUID, &resolvedAt, &it.Reason, &it.Actor, &it.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan ambiguous item: %w", err)
	}
	if resolvedAt.Valid {
		it.ResolvedAt = resolvedAt.Time
	}
	_ = json.Unmarshal([]byte(rowValues), &it.RowValues)
	_ = json.Unmarshal([]byte(candidates), &it.Candidates)
	return &it, nil
}

// InsertAmbiguous queues one unresolved row for review.
func (s *Store) InsertAmbiguous(it *model.AmbiguousItem) (int64, error) {
	rowValues, err := json.Marshal(it.RowValues)
	if err != nil {
		return 0, fmt.Errorf("marshal row values: %w", err)
	}
	candidates, err := json.Marshal(it.Candidates)
	if err != nil {
		return 0, fmt.Errorf("marshal candidates: %w", err)
	}
	res, err := s.db.Exec(`
		INSERT INTO ambiguous_items (run_id, entity_type, key, summary, row_values, candidates, state, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, it.RunID, it.EntityType, it.Key, it.Summary, string(rowValues), string(candidates), model.AmbiguousPending, it.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert ambiguous item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("ambiguous item id: %w", err)
	}
	return id, nil
}

// GetAmbiguous loads one review item.
func (s *Store) GetAmbiguous(id int64) (*model.AmbiguousItem, error) {
	row := s.db.QueryRow(`SELECT `+ambiguousColumns+` FROM ambiguous_items WHERE id = ?`, id)
	return scanAmbiguous(row)
}

// ListAmbiguous returns review items, optionally filtered by run and
// state; empty arguments mean no constraint.
func (s *Store) ListAmbiguous(runID string, state model.AmbiguousState) ([]*model.AmbiguousItem, error) {
	query := `SELECT ` + ambiguousColumns + ` FROM ambiguous_items WHERE 1=1`
	args := []any{}
	if runID != "" {
		query += ` AND run_id = ?`
		args = append(args, runID)
	}
	if state != "" {
		query += ` AND state = ?`
		args = append(args, state)
	}
	query += ` ORDER BY id`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list ambiguous items: %w", err)
	}
	defer rows.Close()

	var result []*model.AmbiguousItem
	for rows.Next() {
		it, err := scanAmbiguous(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, it)
	}
	return result, rows.Err()
}

// ResolveAmbiguousTx moves a PENDING item to a terminal state inside a
// transaction. Resolving an already-resolved item reports ErrNotFound
// via the zero-rows guard so double submissions cannot re-resolve.
func (s *Store) ResolveAmbiguousTx(tx *sql.Tx, id int64, state model.AmbiguousState, resolvedUID, reason, actor string, at time.Time) error {
	res, err := tx.Exec(`
		UPDATE ambiguous_items
		SET state = ?, resolved_uid = ?, resolved_at = ?, reason = ?, actor = ?
		WHERE id = ? AND state = ?
	`, state, resolvedUID, at, reason, actor, id, model.AmbiguousPending)
	if err != nil {
		return fmt.Errorf("resolve ambiguous item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountPending returns the number of PENDING items for a run.
func (s *Store) CountPending(runID string) (int, error) {
	var n int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM ambiguous_items WHERE run_id = ? AND state = ?
	`, runID, model.AmbiguousPending).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count pending items: %w", err)
	}
	return n, nil
}
