package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/louisbranch/taskmanager/internal/services/tasks/storage"
	"github.com/louisbranch/taskmanager/internal/services/tasks/task"
)

const taskColumns = `id, user_id, title, description, completed, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (task.Task, error) {
	var t task.Task
	var completed int64
	var createdAt, updatedAt int64
	if err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &completed, &createdAt, &updatedAt); err != nil {
		return task.Task{}, err
	}
	t.Completed = completed != 0
	t.CreatedAt = fromMillis(createdAt)
	t.UpdatedAt = fromMillis(updatedAt)
	return t, nil
}

func scanTaskRow(row rowScanner, op string) (task.Task, error) {
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return task.Task{}, storage.ErrNotFound
		}
		return task.Task{}, fmt.Errorf("%s: %w", op, err)
	}
	return t, nil
}

func boolToInt(value bool) int64 {
	if value {
		return 1
	}
	return 0
}

// ListTasks returns the owner's tasks, newest first.
func (s *Store) ListTasks(ctx context.Context, userID int64) ([]task.Task, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]task.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

// GetTask returns one task when it exists and belongs to userID.
func (s *Store) GetTask(ctx context.Context, userID, taskID int64) (task.Task, error) {
	if err := s.ready(ctx); err != nil {
		return task.Task{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ? AND user_id = ?`, taskID, userID)
	return scanTaskRow(row, "get task")
}

// CreateTask inserts a task owned by userID.
func (s *Store) CreateTask(ctx context.Context, userID int64, fields task.Fields) (task.Task, error) {
	if err := s.ready(ctx); err != nil {
		return task.Task{}, err
	}
	now := toMillis(s.clock())
	row := s.sqlDB.QueryRowContext(ctx,
		`INSERT INTO tasks (user_id, title, description, completed, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 RETURNING `+taskColumns,
		userID, fields.Title, fields.Description, boolToInt(fields.Completed), now, now,
	)
	t, err := scanTask(row)
	if err != nil {
		return task.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return t, nil
}

// UpdateTask overwrites title, description, and completed in a single
// owner-scoped statement.
func (s *Store) UpdateTask(ctx context.Context, userID, taskID int64, fields task.Fields) (task.Task, error) {
	if err := s.ready(ctx); err != nil {
		return task.Task{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx,
		`UPDATE tasks SET title = ?, description = ?, completed = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?
		 RETURNING `+taskColumns,
		fields.Title, fields.Description, boolToInt(fields.Completed), toMillis(s.clock()), taskID, userID,
	)
	return scanTaskRow(row, "update task")
}

// DeleteTask removes a task owned by userID.
func (s *Store) DeleteTask(ctx context.Context, userID, taskID int64) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx, `DELETE FROM tasks WHERE id = ? AND user_id = ?`, taskID, userID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete task rows: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ToggleTask flips completed in a single owner-scoped statement.
func (s *Store) ToggleTask(ctx context.Context, userID, taskID int64) (task.Task, error) {
	if err := s.ready(ctx); err != nil {
		return task.Task{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx,
		`UPDATE tasks SET completed = NOT completed, updated_at = ?
		 WHERE id = ? AND user_id = ?
		 RETURNING `+taskColumns,
		toMillis(s.clock()), taskID, userID,
	)
	return scanTaskRow(row, "toggle task")
}
