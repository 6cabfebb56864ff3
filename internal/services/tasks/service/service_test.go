package service

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/louisbranch/taskmanager/internal/platform/errors"
	"github.com/louisbranch/taskmanager/internal/services/tasks/password"
	"github.com/louisbranch/taskmanager/internal/services/tasks/storage"
	"github.com/louisbranch/taskmanager/internal/services/tasks/storage/sqlite"
	"github.com/louisbranch/taskmanager/internal/services/tasks/task"
	"github.com/louisbranch/taskmanager/internal/services/tasks/token"
	"github.com/louisbranch/taskmanager/internal/services/tasks/user"
)

type testEnv struct {
	accounts *Accounts
	tasks    *Tasks
	tokens   *token.Manager
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "tasks.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	tokens, err := token.NewManager(token.Config{Secret: []byte(strings.Repeat("k", token.MinSecretLength))})
	if err != nil {
		t.Fatalf("new token manager: %v", err)
	}
	hasher, err := password.NewHasher(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("new hasher: %v", err)
	}
	accounts, err := NewAccounts(store, hasher, tokens)
	if err != nil {
		t.Fatalf("new accounts: %v", err)
	}
	tasks, err := NewTasks(store)
	if err != nil {
		t.Fatalf("new tasks: %v", err)
	}
	return testEnv{accounts: accounts, tasks: tasks, tokens: tokens}
}

func (e testEnv) register(t *testing.T, username string) AuthResult {
	t.Helper()
	result, err := e.accounts.Register(context.Background(), user.RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "secret1",
	})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return result
}

func assertCode(t *testing.T, err error, code apperrors.Code) {
	t.Helper()
	if got := apperrors.GetCode(err); got != code {
		t.Fatalf("error code = %s, want %s (err %v)", got, code, err)
	}
}

func strPtr(value string) *string { return &value }

func TestRegisterThenLoginTokenIsAccepted(t *testing.T) {
	env := newTestEnv(t)
	registered := env.register(t, "alice")
	if registered.Token == "" || registered.User.ID <= 0 {
		t.Fatalf("unexpected register result %+v", registered)
	}

	loggedIn, err := env.accounts.Login(context.Background(), user.LoginInput{Email: "ALICE@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	identity, err := env.tokens.Verify(loggedIn.Token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	profile, err := env.accounts.Profile(context.Background(), identity.UserID)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if profile != registered.User {
		t.Fatalf("profile = %+v, want %+v", profile, registered.User)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice")

	_, err := env.accounts.Register(context.Background(), user.RegisterInput{
		Username: "alice2",
		Email:    "Alice@Example.com",
		Password: "secret1",
	})
	assertCode(t, err, apperrors.CodeUserAlreadyExists)
	if err.Error() != msgUserExists {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.accounts.Register(context.Background(), user.RegisterInput{Username: "al", Email: "bad", Password: "1"})
	assertCode(t, err, apperrors.CodeValidationFailed)
	if len(apperrors.GetFields(err)) != 3 {
		t.Fatalf("fields = %+v", apperrors.GetFields(err))
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice")

	_, wrongPassword := env.accounts.Login(context.Background(), user.LoginInput{Email: "alice@example.com", Password: "nope123"})
	_, unknownEmail := env.accounts.Login(context.Background(), user.LoginInput{Email: "ghost@example.com", Password: "secret1"})
	assertCode(t, wrongPassword, apperrors.CodeInvalidCredentials)
	assertCode(t, unknownEmail, apperrors.CodeInvalidCredentials)
	if wrongPassword.Error() != unknownEmail.Error() || wrongPassword.Error() != msgInvalidCredentials {
		t.Fatalf("messages differ: %q vs %q", wrongPassword.Error(), unknownEmail.Error())
	}
}

func TestProfileMissingUser(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.accounts.Profile(context.Background(), 999)
	assertCode(t, err, apperrors.CodeNotFound)
	_, err = env.accounts.Profile(context.Background(), 0)
	assertCode(t, err, apperrors.CodeUnauthenticated)
}

func TestTaskExampleFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice").User

	created, err := env.tasks.Create(ctx, alice.ID, task.CreateInput{Title: "buy milk"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Completed || created.Title != "buy milk" {
		t.Fatalf("unexpected task %+v", created)
	}

	toggled, err := env.tasks.Toggle(ctx, alice.ID, created.ID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !toggled.Completed {
		t.Fatal("expected completed after toggle")
	}

	if err := env.tasks.Delete(ctx, alice.ID, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, err = env.tasks.Get(ctx, alice.ID, created.ID)
	assertCode(t, err, apperrors.CodeNotFound)
	if err.Error() != msgTaskNotFound {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestToggleTwiceRestoresState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice").User
	created, _ := env.tasks.Create(ctx, alice.ID, task.CreateInput{Title: "buy milk"})

	for _, want := range []bool{true, false} {
		toggled, err := env.tasks.Toggle(ctx, alice.ID, created.ID)
		if err != nil {
			t.Fatalf("toggle: %v", err)
		}
		if toggled.Completed != want {
			t.Fatalf("completed = %v, want %v", toggled.Completed, want)
		}
	}
}

func TestUpdateThenGetReturnsWrittenFields(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice").User
	created, _ := env.tasks.Create(ctx, alice.ID, task.CreateInput{Title: "buy milk", Description: strPtr("whole")})

	updated, err := env.tasks.Update(ctx, alice.ID, created.ID, task.UpdateInput{
		Title:       "  buy oat milk ",
		Description: strPtr("barista"),
		Completed:   task.NewBool(true),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := env.tasks.Get(ctx, alice.ID, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != updated {
		t.Fatalf("get = %+v, want %+v", got, updated)
	}
	if got.Title != "buy oat milk" || got.Description != "barista" || !got.Completed {
		t.Fatalf("unexpected fields %+v", got)
	}
}

func TestOtherUserCannotSeeOrMutate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice").User
	bob := env.register(t, "bob").User
	owned, err := env.tasks.Create(ctx, alice.ID, task.CreateInput{Title: "alice only"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = env.tasks.Get(ctx, bob.ID, owned.ID)
	assertCode(t, err, apperrors.CodeNotFound)
	_, err = env.tasks.Update(ctx, bob.ID, owned.ID, task.UpdateInput{Title: "bob", Completed: task.NewBool(true)})
	assertCode(t, err, apperrors.CodeNotFound)
	_, err = env.tasks.Toggle(ctx, bob.ID, owned.ID)
	assertCode(t, err, apperrors.CodeNotFound)
	assertCode(t, env.tasks.Delete(ctx, bob.ID, owned.ID), apperrors.CodeNotFound)

	list, err := env.tasks.List(ctx, bob.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("bob sees %d tasks", len(list))
	}

	got, err := env.tasks.Get(ctx, alice.ID, owned.ID)
	if err != nil {
		t.Fatalf("owner get: %v", err)
	}
	if got != owned {
		t.Fatalf("task changed: %+v", got)
	}
}

func TestInvalidTaskIDIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	for _, id := range []int64{0, -1} {
		_, err := env.tasks.Get(context.Background(), 1, id)
		assertCode(t, err, apperrors.CodeNotFound)
	}
}

func TestCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice").User
	_, err := env.tasks.Create(context.Background(), alice.ID, task.CreateInput{Title: "   "})
	assertCode(t, err, apperrors.CodeValidationFailed)
}

type failingTaskStore struct {
	storage.TaskStore
}

func (failingTaskStore) ListTasks(context.Context, int64) ([]task.Task, error) {
	return nil, errors.New("database is locked")
}

func TestStoreFailureIsInternal(t *testing.T) {
	tasks, err := NewTasks(failingTaskStore{})
	if err != nil {
		t.Fatalf("new tasks: %v", err)
	}
	_, err = tasks.List(context.Background(), 1)
	if err == nil {
		t.Fatal("expected error")
	}
	assertCode(t, err, apperrors.CodeUnknown)
	if err.Error() != "Server error fetching tasks" {
		t.Fatalf("message = %q", err.Error())
	}
	if !strings.Contains(errors.Unwrap(err).Error(), "database is locked") {
		t.Fatalf("expected store cause to be kept, got %v", errors.Unwrap(err))
	}
}

func TestConstructorsRequireDependencies(t *testing.T) {
	if _, err := NewTasks(nil); err == nil {
		t.Fatal("expected error for nil task store")
	}
	if _, err := NewAccounts(nil, password.Hasher{}, nil); err == nil {
		t.Fatal("expected error for nil user store")
	}
}
