package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/runix-ai/runix/internal/model"
)

// timeFormat is the stored timestamp layout (UTC, RFC 3339 with sub-second precision).
const timeFormat = "2006-01-02T15:04:05.999999999Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// CreateTask inserts a new task row. CreatedAt/UpdatedAt default to now.
func (s *Store) CreateTask(ctx context.Context, task model.Task) error {
	now := time.Now().UTC()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	if task.UpdatedAt.IsZero() {
		task.UpdatedAt = now
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, agent, status, created_at, updated_at, thread_id, run_id, answer_markdown)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.Agent, string(task.Status),
		formatTime(task.CreatedAt), formatTime(task.UpdatedAt),
		task.ThreadID, task.RunID, task.AnswerMarkdown,
	)
	if err != nil {
		return fmt.Errorf("storage: create task: %w", err)
	}
	return nil
}

// GetTask retrieves a task by id. Returns ErrNotFound if no row exists.
func (s *Store) GetTask(ctx context.Context, id string) (model.Task, error) {
	var (
		t                    model.Task
		status               string
		createdAt, updatedAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, agent, status, created_at, updated_at, thread_id, run_id, answer_markdown
		 FROM tasks WHERE id = ?`, id,
	).Scan(&t.ID, &t.Agent, &status, &createdAt, &updatedAt, &t.ThreadID, &t.RunID, &t.AnswerMarkdown)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Task{}, ErrNotFound
	}
	if err != nil {
		return model.Task{}, fmt.Errorf("storage: get task: %w", err)
	}

	t.Status = model.TaskStatus(status)
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	return t, nil
}

// CompleteTask marks a task succeeded with its final answer.
// The terminal write happens at most once per submission or continuation.
func (s *Store) CompleteTask(ctx context.Context, id, answerMarkdown string) error {
	return s.setTaskStatus(ctx, id, model.StatusSucceeded, &answerMarkdown)
}

// FailTask marks a task failed. The answer stays as it was; the failure
// cause travels through logs and the in-band error event, not the store.
func (s *Store) FailTask(ctx context.Context, id string) error {
	return s.setTaskStatus(ctx, id, model.StatusFailed, nil)
}

func (s *Store) setTaskStatus(ctx context.Context, id string, status model.TaskStatus, answer *string) error {
	var (
		res sql.Result
		err error
	)
	if answer != nil {
		res, err = s.db.ExecContext(ctx,
			`UPDATE tasks SET status = ?, answer_markdown = ?, updated_at = ? WHERE id = ?`,
			string(status), *answer, formatTime(time.Now()), id,
		)
	} else {
		res, err = s.db.ExecContext(ctx,
			`UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?`,
			string(status), formatTime(time.Now()), id,
		)
	}
	if err != nil {
		return fmt.Errorf("storage: update task status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("storage: update task status: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountTasks returns the number of task rows. Used by tests and health checks.
func (s *Store) CountTasks(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM tasks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("storage: count tasks: %w", err)
	}
	return n, nil
}
