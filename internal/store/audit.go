package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/GeorgeMcIntyre-Web/SimPilot-sub010/internal/model"
)

// InsertAuditTx appends one audit entry inside a transaction. Entries
// are only ever inserted; nothing updates or deletes this table.
func (s *Store) InsertAuditTx(tx *sql.Tx, e *model.AuditEntry) error {
	meta := "{}"
	if len(e.Metadata) > 0 {
		data, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("marshal audit metadata: %w", err)
		}
		meta = string(data)
	}
	_, err := tx.Exec(`
		INSERT INTO audit_entries (entity_type, entity_uid, action, old_value, new_value, reason, actor, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.EntityType, e.EntityUID, e.Action, e.OldValue, e.NewValue, e.Reason, e.Actor, meta, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// QueryAudit reads audit entries matching a filter. Pure read.
func (s *Store) QueryAudit(f model.AuditFilter) ([]*model.AuditEntry, error) {
	query := `
		SELECT id, entity_type, entity_uid, action, old_value, new_value, reason, actor, metadata, created_at
		FROM audit_entries WHERE 1=1`
	args := []any{}

	if f.EntityType != "" {
		query += ` AND entity_type = ?`
		args = append(args, f.EntityType)
	}
	if f.EntityUID != "" {
		query += ` AND entity_uid = ?`
		args = append(args, f.EntityUID)
	}
	if f.Action != "" {
		query += ` AND action = ?`
		args = append(args, f.Action)
	}
	if f.Actor != "" {
		query += ` AND actor = ?`
		args = append(args, f.Actor)
	}
	if !f.Since.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, f.Since)
	}
	if !f.Until.IsZero() {
		query += ` AND created_at <= ?`
		args = append(args, f.Until)
	}
	query += ` ORDER BY id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var result []*model.AuditEntry
	for rows.Next() {
		var e model.AuditEntry
		var meta string
		if err := rows.Scan(&e.ID, &e.EntityType, &e.EntityUID, &e.Action, &e.OldValue, &e.NewValue, &e.Reason, &e.Actor, &meta, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if meta != "" && meta != "{}" {
			_ = json.Unmarshal([]byte(meta), &e.Metadata)
		}
		result = append(result, &e)
	}
	return result, rows.Err()
}

// CountAuditEntries returns the total number of audit entries.
func (s *Store) CountAuditEntries() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM audit_entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count audit entries: %w", err)
	}
	return n, nil
}
