package rest

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/louisbranch/taskmanager/internal/platform/httpx"
	"github.com/louisbranch/taskmanager/internal/services/tasks/service"
	"github.com/louisbranch/taskmanager/internal/services/tasks/task"
	"github.com/louisbranch/taskmanager/internal/services/tasks/user"
)

// APIVersion is reported by the API info route.
const APIVersion = "1.0.0"

// AccountService is the account surface the routes depend on.
type AccountService interface {
	Register(ctx context.Context, input user.RegisterInput) (service.AuthResult, error)
	Login(ctx context.Context, input user.LoginInput) (service.AuthResult, error)
	Profile(ctx context.Context, userID int64) (user.User, error)
}

// TaskService is the task surface the routes depend on.
type TaskService interface {
	List(ctx context.Context, userID int64) ([]task.Task, error)
	Get(ctx context.Context, userID, taskID int64) (task.Task, error)
	Create(ctx context.Context, userID int64, input task.CreateInput) (task.Task, error)
	Update(ctx context.Context, userID, taskID int64, input task.UpdateInput) (task.Task, error)
	Delete(ctx context.Context, userID, taskID int64) error
	Toggle(ctx context.Context, userID, taskID int64) (task.Task, error)
}

// Server hosts the JSON API routes.
type Server struct {
	accounts AccountService
	tasks    TaskService
	verifier TokenVerifier
	clock    func() time.Time
}

// NewServer builds the API route set.
func NewServer(accounts AccountService, tasks TaskService, verifier TokenVerifier) (*Server, error) {
	if accounts == nil {
		return nil, fmt.Errorf("account service is required")
	}
	if tasks == nil {
		return nil, fmt.Errorf("task service is required")
	}
	if verifier == nil {
		return nil, fmt.Errorf("token verifier is required")
	}
	return &Server{accounts: accounts, tasks: tasks, verifier: verifier, clock: time.Now}, nil
}

// RegisterRoutes registers every API route on mux, including the /api/ 404
// fallback.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	if mux == nil {
		return
	}
	authed := RequireAuth(s.verifier)

	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.Handle("GET /api/auth/profile", authed(http.HandlerFunc(s.handleProfile)))

	mux.Handle("GET /api/tasks", authed(http.HandlerFunc(s.handleListTasks)))
	mux.Handle("POST /api/tasks", authed(http.HandlerFunc(s.handleCreateTask)))
	mux.Handle("GET /api/tasks/{id}", authed(http.HandlerFunc(s.handleGetTask)))
	mux.Handle("PUT /api/tasks/{id}", authed(http.HandlerFunc(s.handleUpdateTask)))
	mux.Handle("DELETE /api/tasks/{id}", authed(http.HandlerFunc(s.handleDeleteTask)))
	mux.Handle("PATCH /api/tasks/{id}/toggle", authed(http.HandlerFunc(s.handleToggleTask)))

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api", s.handleInfo)
	mux.HandleFunc("/api/", handleRouteNotFound)
}

// Options configures the middleware stack around the routes.
type Options struct {
	Logger        *log.Logger
	AllowedOrigin string
}

// Wrap applies request ids, logging, panic recovery, CORS, and tracing.
func Wrap(handler http.Handler, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	wrapped := httpx.Chain(handler,
		httpx.RequestID(),
		httpx.RequestLogger(logger),
		httpx.RecoverPanic(logger),
		corsMiddleware(opts.AllowedOrigin),
	)
	return otelhttp.NewHandler(wrapped, "taskmanager.http")
}

func corsMiddleware(origin string) httpx.Middleware {
	origin = strings.TrimSpace(origin)
	if origin == "" {
		origin = "*"
	}
	c := cors.New(cors.Options{
		AllowedOrigins:       []string{origin},
		AllowedMethods:       []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:       []string{"Authorization", "Content-Type", httpx.RequestIDHeader},
		ExposedHeaders:       []string{httpx.RequestIDHeader},
		AllowCredentials:     true,
		OptionsSuccessStatus: http.StatusOK,
	})
	return c.Handler
}
