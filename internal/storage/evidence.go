package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/runix-ai/runix/internal/model"
)

// CreateEvidenceBatch inserts the derived citation records for one answer.
// Records are appended as-is; re-finalizing an answer appends again rather
// than deduplicating.
func (s *Store) CreateEvidenceBatch(ctx context.Context, evs []model.Evidence) error {
	if len(evs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: begin evidence batch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO evidence (task_id, doc_id, source_type, section, span_start, span_end,
		 text_hash, figure_id, table_id, claim_id, raw_text, created_at, citation_index)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("storage: prepare evidence insert: %w", err)
	}
	defer stmt.Close()

	for _, ev := range evs {
		createdAt := ev.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		if _, err := stmt.ExecContext(ctx,
			ev.TaskID, ev.DocID, ev.SourceType, ev.Section, ev.SpanStart, ev.SpanEnd,
			ev.TextHash, ev.FigureID, ev.TableID, ev.ClaimID, ev.RawText,
			formatTime(createdAt), ev.CitationIndex,
		); err != nil {
			return fmt.Errorf("storage: insert evidence: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: commit evidence batch: %w", err)
	}
	return nil
}

// ListEvidence returns evidence rows, filtered by task when taskID is non-empty.
// Unfiltered listings return the most recent rows first, capped at limit.
func (s *Store) ListEvidence(ctx context.Context, taskID string, limit int) ([]model.Evidence, error) {
	if limit <= 0 {
		limit = 200
	}

	var (
		rows *sql.Rows
		err  error
	)
	const cols = `id, task_id, doc_id, source_type, section, span_start, span_end,
		 text_hash, figure_id, table_id, claim_id, raw_text, created_at, citation_index`
	if taskID != "" {
		rows, err = s.db.QueryContext(ctx,
			`SELECT `+cols+` FROM evidence WHERE task_id = ? ORDER BY id`, taskID)
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT `+cols+` FROM evidence ORDER BY id DESC LIMIT ?`, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: list evidence: %w", err)
	}
	defer rows.Close()

	var evs []model.Evidence
	for rows.Next() {
		var (
			ev        model.Evidence
			createdAt string
		)
		if err := rows.Scan(
			&ev.ID, &ev.TaskID, &ev.DocID, &ev.SourceType, &ev.Section, &ev.SpanStart, &ev.SpanEnd,
			&ev.TextHash, &ev.FigureID, &ev.TableID, &ev.ClaimID, &ev.RawText,
			&createdAt, &ev.CitationIndex,
		); err != nil {
			return nil, fmt.Errorf("storage: scan evidence: %w", err)
		}
		ev.CreatedAt = parseTime(createdAt)
		evs = append(evs, ev)
	}
	return evs, rows.Err()
}
