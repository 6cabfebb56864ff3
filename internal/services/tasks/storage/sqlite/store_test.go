package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/louisbranch/taskmanager/internal/services/tasks/storage"
	"github.com/louisbranch/taskmanager/internal/services/tasks/task"
	"github.com/louisbranch/taskmanager/internal/services/tasks/user"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tasks.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

func createTestUser(t *testing.T, store *Store, username string) user.User {
	t.Helper()
	u, err := store.CreateUser(context.Background(), storage.NewUser{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash-" + username,
	})
	if err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestOpenCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "tasks.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()
	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.db")
	first, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	createTestUser(t, first, "alice")
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second, err := Open(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer second.Close()
	if _, err := second.GetUserByEmail(context.Background(), "alice@example.com"); err != nil {
		t.Fatalf("expected user to survive reopen: %v", err)
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
	if _, err := store.GetUser(context.Background(), 1); err == nil {
		t.Fatal("expected error from nil store")
	}
}

func TestCreateUserAndLookup(t *testing.T) {
	store := openTempStore(t)
	created := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return created }

	u := createTestUser(t, store, "alice")
	if u.ID <= 0 || u.Username != "alice" || !u.CreatedAt.Equal(created) {
		t.Fatalf("unexpected user %+v", u)
	}

	got, err := store.GetUser(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got != u {
		t.Fatalf("get user = %+v, want %+v", got, u)
	}

	creds, err := store.GetUserByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if creds.User != u || creds.PasswordHash != "hash-alice" {
		t.Fatalf("unexpected credentials %+v", creds)
	}
}

func TestCreateUserDuplicate(t *testing.T) {
	store := openTempStore(t)
	createTestUser(t, store, "alice")

	tests := []struct {
		name  string
		input storage.NewUser
	}{
		{"same email", storage.NewUser{Username: "alice2", Email: "alice@example.com", PasswordHash: "x"}},
		{"same username", storage.NewUser{Username: "alice", Email: "other@example.com", PasswordHash: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.CreateUser(context.Background(), tt.input)
			if !errors.Is(err, storage.ErrDuplicate) {
				t.Fatalf("expected duplicate, got %v", err)
			}
		})
	}
}

func TestUserExists(t *testing.T) {
	store := openTempStore(t)
	createTestUser(t, store, "alice")
	ctx := context.Background()

	for _, tt := range []struct {
		username, email string
		want            bool
	}{
		{"alice", "new@example.com", true},
		{"bob", "alice@example.com", true},
		{"bob", "bob@example.com", false},
	} {
		got, err := store.UserExists(ctx, tt.username, tt.email)
		if err != nil {
			t.Fatalf("user exists: %v", err)
		}
		if got != tt.want {
			t.Fatalf("UserExists(%q, %q) = %v, want %v", tt.username, tt.email, got, tt.want)
		}
	}
}

func TestGetUserMissing(t *testing.T) {
	store := openTempStore(t)
	if _, err := store.GetUser(context.Background(), 999); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := store.GetUserByEmail(context.Background(), "ghost@example.com"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestTaskLifecycle(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	owner := createTestUser(t, store, "alice")

	created, err := store.CreateTask(ctx, owner.ID, task.Fields{Title: "buy milk"})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if created.ID <= 0 || created.UserID != owner.ID || created.Completed || created.Description != "" {
		t.Fatalf("unexpected task %+v", created)
	}

	got, err := store.GetTask(ctx, owner.ID, created.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if got != created {
		t.Fatalf("get task = %+v, want %+v", got, created)
	}

	updated, err := store.UpdateTask(ctx, owner.ID, created.ID, task.Fields{Title: "buy oat milk", Description: "2L", Completed: true})
	if err != nil {
		t.Fatalf("update task: %v", err)
	}
	if updated.Title != "buy oat milk" || updated.Description != "2L" || !updated.Completed {
		t.Fatalf("unexpected update %+v", updated)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Fatal("expected created_at to be preserved")
	}

	toggled, err := store.ToggleTask(ctx, owner.ID, created.ID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if toggled.Completed {
		t.Fatal("expected toggle to clear completed")
	}
	toggled, err = store.ToggleTask(ctx, owner.ID, created.ID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !toggled.Completed {
		t.Fatal("expected second toggle to restore completed")
	}

	if err := store.DeleteTask(ctx, owner.ID, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.GetTask(ctx, owner.ID, created.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if err := store.DeleteTask(ctx, owner.ID, created.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestTaskOwnershipIsolation(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	alice := createTestUser(t, store, "alice")
	bob := createTestUser(t, store, "bob")

	owned, err := store.CreateTask(ctx, alice.ID, task.Fields{Title: "secret"})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	if _, err := store.GetTask(ctx, bob.ID, owned.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get: expected not found, got %v", err)
	}
	if _, err := store.UpdateTask(ctx, bob.ID, owned.ID, task.Fields{Title: "mine"}); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("update: expected not found, got %v", err)
	}
	if _, err := store.ToggleTask(ctx, bob.ID, owned.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("toggle: expected not found, got %v", err)
	}
	if err := store.DeleteTask(ctx, bob.ID, owned.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("delete: expected not found, got %v", err)
	}
	list, err := store.ListTasks(ctx, bob.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected bob to see no tasks, got %d", len(list))
	}

	got, err := store.GetTask(ctx, alice.ID, owned.ID)
	if err != nil {
		t.Fatalf("owner get: %v", err)
	}
	if got != owned {
		t.Fatalf("task changed by non-owner: %+v", got)
	}
}

func TestListTasksNewestFirst(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	owner := createTestUser(t, store, "alice")

	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	var ids []int64
	for i, title := range []string{"first", "second", "third"} {
		store.now = func() time.Time { return base.Add(time.Duration(i) * time.Minute) }
		created, err := store.CreateTask(ctx, owner.ID, task.Fields{Title: title})
		if err != nil {
			t.Fatalf("create %s: %v", title, err)
		}
		ids = append(ids, created.ID)
	}
	// Same timestamp as "third": ties break on id.
	tied, err := store.CreateTask(ctx, owner.ID, task.Fields{Title: "fourth"})
	if err != nil {
		t.Fatalf("create fourth: %v", err)
	}

	list, err := store.ListTasks(ctx, owner.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []int64{tied.ID, ids[2], ids[1], ids[0]}
	if len(list) != len(want) {
		t.Fatalf("list length = %d, want %d", len(list), len(want))
	}
	for i, id := range want {
		if list[i].ID != id {
			t.Fatalf("list[%d].ID = %d, want %d", i, list[i].ID, id)
		}
	}
}

func TestListTasksEmptyIsNotNil(t *testing.T) {
	store := openTempStore(t)
	list, err := store.ListTasks(context.Background(), 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if list == nil {
		t.Fatal("expected empty slice, got nil")
	}
}

func TestTaskIDsAreNotReused(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	owner := createTestUser(t, store, "alice")

	first, err := store.CreateTask(ctx, owner.ID, task.Fields{Title: "one"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.DeleteTask(ctx, owner.ID, first.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	second, err := store.CreateTask(ctx, owner.ID, task.Fields{Title: "two"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if second.ID <= first.ID {
		t.Fatalf("expected id greater than %d, got %d", first.ID, second.ID)
	}
}

func TestCanceledContext(t *testing.T) {
	store := openTempStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.ListTasks(ctx, 1); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
}
