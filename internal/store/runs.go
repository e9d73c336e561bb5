package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/GeorgeMcIntyre-Web/SimPilot-sub010/internal/model"
)

// InsertRun records a newly started import run.
func (s *Store) InsertRun(r *model.ImportRun) error {
	files, err := json.Marshal(r.SourceFiles)
	if err != nil {
		return fmt.Errorf("marshal source files: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO import_runs (id, started_at, source_files, status)
		VALUES (?, ?, ?, ?)
	`, r.ID, r.StartedAt, string(files), r.Status)
	if err != nil {
		return fmt.Errorf("insert import run: %w", err)
	}
	return nil
}

// UpdateRun writes a run's final counters, anomalies and status.
func (s *Store) UpdateRun(r *model.ImportRun) error {
	files, err := json.Marshal(r.SourceFiles)
	if err != nil {
		return fmt.Errorf("marshal source files: %w", err)
	}
	anomalies, err := json.Marshal(r.Anomalies)
	if err != nil {
		return fmt.Errorf("marshal anomalies: %w", err)
	}
	_, err = s.db.Exec(`
		UPDATE import_runs SET
			completed_at = ?,
			source_files = ?,
			status = ?,
			total_rows = ?,
			resolved_rows = ?,
			ambiguous_rows = ?,
			created_count = ?,
			skipped_rows = ?,
			anomalies = ?
		WHERE id = ?
	`, r.CompletedAt, string(files), r.Status, r.TotalRows, r.ResolvedRows,
		r.AmbiguousRows, r.CreatedCount, r.SkippedRows, string(anomalies), r.ID)
	if err != nil {
		return fmt.Errorf("update import run: %w", err)
	}
	return nil
}

func scanRun(row interface{ Scan(...any) error }) (*model.ImportRun, error) {
	var r model.ImportRun
	var files, anomalies string
	var completed sql.NullTime
	err := row.Scan(&r.ID, &r.StartedAt, &completed, &files, &r.Status,
		&r.TotalRows, &r.ResolvedRows, &r.AmbiguousRows, &r.CreatedCount, &r.SkippedRows, &anomalies)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan import run: %w", err)
	}
	if completed.Valid {
		r.CompletedAt = completed.Time
	}
	_ = json.Unmarshal([]byte(files), &r.SourceFiles)
	_ = json.Unmarshal([]byte(anomalies), &r.Anomalies)
	return &r, nil
}

const runColumns = `id, started_at, completed_at, source_files, status,
	total_rows, resolved_rows, ambiguous_rows, created_count, skipped_rows, anomalies`

// GetRun loads one import run.
func (s *Store) GetRun(id string) (*model.ImportRun, error) {
	row := s.db.QueryRow(`SELECT `+runColumns+` FROM import_runs WHERE id = ?`, id)
	return scanRun(row)
}

// ListRuns returns runs newest first.
func (s *Store) ListRuns(limit int) ([]*model.ImportRun, error) {
	query := `SELECT ` + runColumns + ` FROM import_runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list import runs: %w", err)
	}
	defer rows.Close()

	var result []*model.ImportRun
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// RecentRunIDs returns the ids of the latest n runs, used by the
// staleness report.
func (s *Store) RecentRunIDs(n int) ([]string, error) {
	rows, err := s.db.Query(`SELECT id FROM import_runs ORDER BY started_at DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("recent run ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan run id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
