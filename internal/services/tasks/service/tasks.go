package service

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/louisbranch/taskmanager/internal/platform/errors"
	"github.com/louisbranch/taskmanager/internal/services/tasks/storage"
	"github.com/louisbranch/taskmanager/internal/services/tasks/task"
)

const (
	msgTaskNotFound = "Task not found"

	msgListFailed   = "Server error fetching tasks"
	msgGetFailed    = "Server error fetching task"
	msgCreateFailed = "Server error creating task"
	msgUpdateFailed = "Server error updating task"
	msgDeleteFailed = "Server error deleting task"
	msgToggleFailed = "Server error toggling task status"
)

var errUnauthenticated = apperrors.New(apperrors.CodeUnauthenticated, "No token, authorization denied")

// Tasks handles owner-scoped task operations.
type Tasks struct {
	store storage.TaskStore
}

// NewTasks builds the task service.
func NewTasks(store storage.TaskStore) (*Tasks, error) {
	if store == nil {
		return nil, fmt.Errorf("task store is required")
	}
	return &Tasks{store: store}, nil
}

// List returns every task owned by userID, newest first.
func (s *Tasks) List(ctx context.Context, userID int64) (tasks []task.Task, err error) {
	ctx, span := startSpan(ctx, "Tasks.List", attribute.Int64("taskmanager.user_id", userID))
	defer func() { err = endSpan(span, msgListFailed, err) }()

	if userID <= 0 {
		return nil, errUnauthenticated
	}
	tasks, err = s.store.ListTasks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	span.SetAttributes(attribute.Int("taskmanager.task_count", len(tasks)))
	return tasks, nil
}

// Get returns one task owned by userID.
func (s *Tasks) Get(ctx context.Context, userID, taskID int64) (t task.Task, err error) {
	ctx, span := startTaskSpan(ctx, "Tasks.Get", userID, taskID)
	defer func() { err = endSpan(span, msgGetFailed, err) }()

	if err := checkTaskRef(userID, taskID); err != nil {
		return task.Task{}, err
	}
	t, err = s.store.GetTask(ctx, userID, taskID)
	return t, mapTaskError("get task", err)
}

// Create validates input and stores a new task owned by userID.
func (s *Tasks) Create(ctx context.Context, userID int64, input task.CreateInput) (t task.Task, err error) {
	ctx, span := startSpan(ctx, "Tasks.Create", attribute.Int64("taskmanager.user_id", userID))
	defer func() { err = endSpan(span, msgCreateFailed, err) }()

	if userID <= 0 {
		return task.Task{}, errUnauthenticated
	}
	fields, err := task.NormalizeCreateInput(input)
	if err != nil {
		return task.Task{}, err
	}
	t, err = s.store.CreateTask(ctx, userID, fields)
	if err != nil {
		return task.Task{}, fmt.Errorf("create task: %w", err)
	}
	span.SetAttributes(attribute.Int64("taskmanager.task_id", t.ID))
	return t, nil
}

// Update validates input and overwrites a task owned by userID.
func (s *Tasks) Update(ctx context.Context, userID, taskID int64, input task.UpdateInput) (t task.Task, err error) {
	ctx, span := startTaskSpan(ctx, "Tasks.Update", userID, taskID)
	defer func() { err = endSpan(span, msgUpdateFailed, err) }()

	if err := checkTaskRef(userID, taskID); err != nil {
		return task.Task{}, err
	}
	fields, err := task.NormalizeUpdateInput(input)
	if err != nil {
		return task.Task{}, err
	}
	t, err = s.store.UpdateTask(ctx, userID, taskID, fields)
	return t, mapTaskError("update task", err)
}

// Delete removes a task owned by userID.
func (s *Tasks) Delete(ctx context.Context, userID, taskID int64) (err error) {
	ctx, span := startTaskSpan(ctx, "Tasks.Delete", userID, taskID)
	defer func() { err = endSpan(span, msgDeleteFailed, err) }()

	if err := checkTaskRef(userID, taskID); err != nil {
		return err
	}
	return mapTaskError("delete task", s.store.DeleteTask(ctx, userID, taskID))
}

// Toggle flips the completed flag of a task owned by userID.
func (s *Tasks) Toggle(ctx context.Context, userID, taskID int64) (t task.Task, err error) {
	ctx, span := startTaskSpan(ctx, "Tasks.Toggle", userID, taskID)
	defer func() { err = endSpan(span, msgToggleFailed, err) }()

	if err := checkTaskRef(userID, taskID); err != nil {
		return task.Task{}, err
	}
	t, err = s.store.ToggleTask(ctx, userID, taskID)
	return t, mapTaskError("toggle task", err)
}

func startTaskSpan(ctx context.Context, name string, userID, taskID int64) (context.Context, trace.Span) {
	return startSpan(ctx, name,
		attribute.Int64("taskmanager.user_id", userID),
		attribute.Int64("taskmanager.task_id", taskID),
	)
}

// checkTaskRef rejects missing callers and ids no task can have. A bad id
// reads exactly like a task that belongs to someone else.
func checkTaskRef(userID, taskID int64) error {
	if userID <= 0 {
		return errUnauthenticated
	}
	if taskID <= 0 {
		return apperrors.New(apperrors.CodeNotFound, msgTaskNotFound)
	}
	return nil
}

func mapTaskError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, storage.ErrNotFound) {
		return apperrors.New(apperrors.CodeNotFound, msgTaskNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}
