package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/GeorgeMcIntyre-Web/SimPilot-sub010/internal/model"
)

const aliasColumns = "id, type, from_key, target_uid, reason, actor, active, created_at"

func scanAlias(row interface{ Scan(...any) error }) (*model.AliasRule, error) {
	var a model.AliasRule
	err := row.Scan(&a.ID, &a.Type, &a.FromKey, &a.TargetUID, &a.Reason, &a.Actor, &a.Active, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan alias rule: %w", err)
	}
	return &a, nil
}

// GetActiveAlias returns the single active redirection for a key.
func (s *Store) GetActiveAlias(t model.EntityType, fromKey string) (*model.AliasRule, error) {
	row := s.db.QueryRow(`
		SELECT `+aliasColumns+` FROM alias_rules
		WHERE type = ? AND from_key = ? AND active = 1
	`, t, fromKey)
	return scanAlias(row)
}

// InsertAliasTx adds a new active alias rule inside a transaction.
func (s *Store) InsertAliasTx(tx *sql.Tx, a *model.AliasRule) (int64, error) {
	res, err := tx.Exec(`
		INSERT INTO alias_rules (type, from_key, target_uid, reason, actor, active, created_at)
		VALUES (?, ?, ?, ?, ?, 1, ?)
	`, a.Type, a.FromKey, a.TargetUID, a.Reason, a.Actor, a.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert alias rule %s: %w", a.FromKey, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("alias rule id: %w", err)
	}
	return id, nil
}

// DeactivateAliasTx retires an alias rule. Used when a redefinition
// supersedes an existing redirection.
func (s *Store) DeactivateAliasTx(tx *sql.Tx, id int64) error {
	res, err := tx.Exec(`UPDATE alias_rules SET active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deactivate alias rule: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListAliases returns alias rules of one type, all when t is empty.
// Inactive (superseded) rules are included; callers filter as needed.
func (s *Store) ListAliases(t model.EntityType) ([]*model.AliasRule, error) {
	query := `SELECT ` + aliasColumns + ` FROM alias_rules`
	args := []any{}
	if t != "" {
		query += ` WHERE type = ?`
		args = append(args, t)
	}
	query += ` ORDER BY id`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list alias rules: %w", err)
	}
	defer rows.Close()

	var result []*model.AliasRule
	for rows.Next() {
		a, err := scanAlias(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}
