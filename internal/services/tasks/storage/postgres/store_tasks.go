package postgres

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
	if err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Completed, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return task.Task{}, err
	}
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
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

// ListTasks returns the owner's tasks, newest first.
func (s *Store) ListTasks(ctx context.Context, userID int64) ([]task.Task, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, userID)
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
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND user_id = $2`, taskID, userID)
	return scanTaskRow(row, "get task")
}

// CreateTask inserts a task owned by userID.
func (s *Store) CreateTask(ctx context.Context, userID int64, fields task.Fields) (task.Task, error) {
	if err := s.ready(ctx); err != nil {
		return task.Task{}, err
	}
	now := s.clock()
	row := s.sqlDB.QueryRowContext(ctx,
		`INSERT INTO tasks (user_id, title, description, completed, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+taskColumns,
		userID, fields.Title, fields.Description, fields.Completed, now, now,
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
		`UPDATE tasks SET title = $1, description = $2, completed = $3, updated_at = $4
		 WHERE id = $5 AND user_id = $6
		 RETURNING `+taskColumns,
		fields.Title, fields.Description, fields.Completed, s.clock(), taskID, userID,
	)
	return scanTaskRow(row, "update task")
}

// DeleteTask removes a task owned by userID.
func (s *Store) DeleteTask(ctx context.Context, userID, taskID int64) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, taskID, userID)
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
		`UPDATE tasks SET completed = NOT completed, updated_at = $1
		 WHERE id = $2 AND user_id = $3
		 RETURNING `+taskColumns,
		s.clock(), taskID, userID,
	)
	return scanTaskRow(row, "toggle task")
}
