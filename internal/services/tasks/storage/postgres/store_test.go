package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/louisbranch/taskmanager/internal/services/tasks/storage"
	"github.com/louisbranch/taskmanager/internal/services/tasks/task"
)

var fixedNow = time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

var taskRowColumns = []string{"id", "user_id", "title", "description", "completed", "created_at", "updated_at"}

func setupMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	store := New(sqlDB)
	store.now = func() time.Time { return fixedNow }
	return store, mock
}

func expectMet(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestOpenRequiresURL(t *testing.T) {
	if _, err := Open(context.Background(), Config{}); err == nil {
		t.Fatal("expected error for empty url")
	}
}

func TestStoreNilSafe(t *testing.T) {
	var store *Store
	if store.DB() != nil {
		t.Fatal("expected nil DB for nil store")
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close nil store: %v", err)
	}
	if err := store.Ping(context.Background()); err == nil {
		t.Fatal("expected ping error for nil store")
	}
}

func TestMigrateAppliesEmbeddedFiles(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS schema_migrations`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT 1 FROM schema_migrations WHERE name = \$1`).
		WithArgs("001_init.sql").
		WillReturnRows(sqlmock.NewRows([]string{"found"}))
	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS users`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO schema_migrations`).
		WithArgs("001_init.sql", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	expectMet(t, mock)
}

func TestCreateUserReturnsInsertedRow(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("alice", "alice@example.com", "hash", fixedNow).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "created_at"}).
			AddRow(int64(1), "alice", "alice@example.com", fixedNow))

	u, err := store.CreateUser(context.Background(), storage.NewUser{Username: "alice", Email: "alice@example.com", PasswordHash: "hash"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.ID != 1 || u.Username != "alice" || !u.CreatedAt.Equal(fixedNow) {
		t.Fatalf("unexpected user %+v", u)
	}
	expectMet(t, mock)
}

func TestCreateUserMapsUniqueViolation(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pq.Error{Code: uniqueViolation, Message: "duplicate key value violates unique constraint"})

	_, err := store.CreateUser(context.Background(), storage.NewUser{Username: "alice", Email: "alice@example.com", PasswordHash: "hash"})
	if !errors.Is(err, storage.ErrDuplicate) {
		t.Fatalf("expected duplicate, got %v", err)
	}
	expectMet(t, mock)
}

func TestCreateUserWrapsOtherErrors(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectQuery(`INSERT INTO users`).WillReturnError(errors.New("connection reset"))

	_, err := store.CreateUser(context.Background(), storage.NewUser{Username: "alice", Email: "alice@example.com", PasswordHash: "hash"})
	if err == nil || errors.Is(err, storage.ErrDuplicate) {
		t.Fatalf("expected plain error, got %v", err)
	}
	expectMet(t, mock)
}

func TestGetUserByEmailNotFound(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectQuery(`SELECT id, username, email, password_hash, created_at FROM users WHERE email = \$1`).
		WithArgs("ghost@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "created_at"}))

	if _, err := store.GetUserByEmail(context.Background(), "ghost@example.com"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	expectMet(t, mock)
}

func TestUserExists(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("alice@example.com", "alice").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := store.UserExists(context.Background(), "alice", "alice@example.com")
	if err != nil {
		t.Fatalf("user exists: %v", err)
	}
	if !exists {
		t.Fatal("expected user to exist")
	}
	expectMet(t, mock)
}

func TestListTasksScopesByOwner(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectQuery(`FROM tasks WHERE user_id = \$1 ORDER BY created_at DESC, id DESC`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(taskRowColumns).
			AddRow(int64(2), int64(7), "second", "", false, fixedNow, fixedNow).
			AddRow(int64(1), int64(7), "first", "notes", true, fixedNow, fixedNow))

	tasks, err := store.ListTasks(context.Background(), 7)
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != 2 || tasks[0].ID != 2 || !tasks[1].Completed {
		t.Fatalf("unexpected tasks %+v", tasks)
	}
	expectMet(t, mock)
}

func TestUpdateTaskNotOwned(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectQuery(`UPDATE tasks SET title = \$1, description = \$2, completed = \$3, updated_at = \$4`).
		WithArgs("mine", "", true, fixedNow, int64(5), int64(8)).
		WillReturnRows(sqlmock.NewRows(taskRowColumns))

	_, err := store.UpdateTask(context.Background(), 8, 5, task.Fields{Title: "mine", Completed: true})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	expectMet(t, mock)
}

func TestToggleTaskReturnsFlippedRow(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectQuery(`UPDATE tasks SET completed = NOT completed`).
		WithArgs(fixedNow, int64(5), int64(7)).
		WillReturnRows(sqlmock.NewRows(taskRowColumns).
			AddRow(int64(5), int64(7), "buy milk", "", true, fixedNow, fixedNow))

	toggled, err := store.ToggleTask(context.Background(), 7, 5)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !toggled.Completed {
		t.Fatal("expected completed to be true")
	}
	expectMet(t, mock)
}

func TestDeleteTaskZeroRowsIsNotFound(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectExec(`DELETE FROM tasks WHERE id = \$1 AND user_id = \$2`).
		WithArgs(int64(5), int64(8)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.DeleteTask(context.Background(), 8, 5); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	expectMet(t, mock)
}

func TestDeleteTaskRemovesRow(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectExec(`DELETE FROM tasks`).
		WithArgs(int64(5), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.DeleteTask(context.Background(), 7, 5); err != nil {
		t.Fatalf("delete: %v", err)
	}
	expectMet(t, mock)
}
