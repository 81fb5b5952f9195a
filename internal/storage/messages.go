package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/runix-ai/runix/internal/model"
)

// AppendMessage appends one transcript entry to a task and returns its id.
func (s *Store) AppendMessage(ctx context.Context, taskID, author, content string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (task_id, author, content, created_at) VALUES (?, ?, ?, ?)`,
		taskID, author, content, formatTime(time.Now()),
	)
	if err != nil {
		return 0, fmt.Errorf("storage: append message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: append message id: %w", err)
	}
	return id, nil
}

// ListMessages returns a task's transcript in insertion order.
func (s *Store) ListMessages(ctx context.Context, taskID string) ([]model.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, task_id, author, content, created_at
		 FROM messages WHERE task_id = ? ORDER BY id`, taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: list messages: %w", err)
	}
	defer rows.Close()

	var msgs []model.Message
	for rows.Next() {
		var (
			m         model.Message
			createdAt string
		)
		if err := rows.Scan(&m.ID, &m.TaskID, &m.Author, &m.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: scan message: %w", err)
		}
		m.CreatedAt = parseTime(createdAt)
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
