package storage

import (
	"context"

	"github.com/louisbranch/taskmanager/internal/platform/errors"
	"github.com/louisbranch/taskmanager/internal/services/tasks/task"
	"github.com/louisbranch/taskmanager/internal/services/tasks/user"
)

// ErrNotFound indicates a requested record is missing or not visible to the caller.
var ErrNotFound = errors.New(errors.CodeNotFound, "record not found")

// ErrDuplicate indicates a unique username or email collision.
var ErrDuplicate = errors.New(errors.CodeUserAlreadyExists, "record already exists")

// NewUser is a validated account ready to be inserted.
type NewUser struct {
	Username     string
	Email        string
	PasswordHash string
}

// UserCredentials is an account with its password hash, returned only for login.
type UserCredentials struct {
	User         user.User
	PasswordHash string
}

// UserStore persists accounts.
type UserStore interface {
	CreateUser(ctx context.Context, input NewUser) (user.User, error)
	GetUser(ctx context.Context, userID int64) (user.User, error)
	GetUserByEmail(ctx context.Context, email string) (UserCredentials, error)
	UserExists(ctx context.Context, username, email string) (bool, error)
}

// TaskStore persists tasks scoped by owner.
type TaskStore interface {
	ListTasks(ctx context.Context, userID int64) ([]task.Task, error)
	GetTask(ctx context.Context, userID, taskID int64) (task.Task, error)
	CreateTask(ctx context.Context, userID int64, fields task.Fields) (task.Task, error)
	UpdateTask(ctx context.Context, userID, taskID int64, fields task.Fields) (task.Task, error)
	DeleteTask(ctx context.Context, userID, taskID int64) error
	ToggleTask(ctx context.Context, userID, taskID int64) (task.Task, error)
}

// Store is a full backend that owns a connection pool.
type Store interface {
	UserStore
	TaskStore
	Ping(ctx context.Context) error
	Close() error
}
