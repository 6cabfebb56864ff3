package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/louisbranch/taskmanager/internal/platform/timeouts"
	"github.com/louisbranch/taskmanager/internal/services/tasks/api/rest"
	"github.com/louisbranch/taskmanager/internal/services/tasks/password"
	"github.com/louisbranch/taskmanager/internal/services/tasks/service"
	"github.com/louisbranch/taskmanager/internal/services/tasks/storage"
	"github.com/louisbranch/taskmanager/internal/services/tasks/storage/postgres"
	"github.com/louisbranch/taskmanager/internal/services/tasks/storage/sqlite"
	"github.com/louisbranch/taskmanager/internal/services/tasks/token"
	"github.com/louisbranch/taskmanager/internal/services/tasks/web"
)

// HealthServiceName is reported SERVING on the gRPC health endpoint.
const HealthServiceName = "taskmanager.v1.Tasks"

const (
	// DriverSQLite selects the embedded SQLite backend.
	DriverSQLite = "sqlite"
	// DriverPostgres selects the PostgreSQL backend.
	DriverPostgres = "postgres"
)

// Config is the runtime configuration assembled by the command layer.
type Config struct {
	HTTPAddr string
	// GRPCPort enables the gRPC health endpoint when positive.
	GRPCPort int

	DBDriver        string
	DBPath          string
	DatabaseURL     string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	JWTSecret  string
	JWTIssuer  string
	JWTExpire  time.Duration
	BcryptCost int

	FrontendURL string
	Logger      *log.Logger
}

// Server hosts the HTTP API and, optionally, a gRPC health endpoint over a
// single shared store.
type Server struct {
	logger       *log.Logger
	httpListener net.Listener
	httpServer   *http.Server
	grpcListener net.Listener
	grpcServer   *grpc.Server
	health       *health.Server
	store        storage.Store
	closeOnce    sync.Once
}

// New opens storage, builds services, and binds listeners.
func New(ctx context.Context, cfg Config) (*Server, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	tokens, err := token.NewManager(token.Config{
		Secret: []byte(cfg.JWTSecret),
		Issuer: cfg.JWTIssuer,
		TTL:    cfg.JWTExpire,
	})
	if err != nil {
		return nil, fmt.Errorf("configure tokens: %w", err)
	}
	hasher, err := password.NewHasher(cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("configure password hashing: %w", err)
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	srv := &Server{logger: logger, store: store}

	handler, err := buildHandler(store, hasher, tokens, cfg.FrontendURL, logger)
	if err != nil {
		srv.Close()
		return nil, err
	}

	httpAddr := strings.TrimSpace(cfg.HTTPAddr)
	if httpAddr == "" {
		httpAddr = ":5000"
	}
	srv.httpListener, err = net.Listen("tcp", httpAddr)
	if err != nil {
		srv.Close()
		return nil, fmt.Errorf("listen on %s: %w", httpAddr, err)
	}
	srv.httpServer = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: timeouts.ReadHeader,
		ReadTimeout:       timeouts.Read,
		WriteTimeout:      timeouts.Write,
		IdleTimeout:       timeouts.Idle,
		ErrorLog:          logger,
	}

	if cfg.GRPCPort > 0 {
		srv.grpcListener, err = net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
		if err != nil {
			srv.Close()
			return nil, fmt.Errorf("listen on grpc port %d: %w", cfg.GRPCPort, err)
		}
		srv.grpcServer = grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
		srv.health = health.NewServer()
		grpc_health_v1.RegisterHealthServer(srv.grpcServer, srv.health)
		srv.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
		srv.health.SetServingStatus(HealthServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	}

	return srv, nil
}

func buildHandler(store storage.Store, hasher password.Hasher, tokens *token.Manager, frontendURL string, logger *log.Logger) (http.Handler, error) {
	accounts, err := service.NewAccounts(store, hasher, tokens)
	if err != nil {
		return nil, err
	}
	tasks, err := service.NewTasks(store)
	if err != nil {
		return nil, err
	}
	api, err := rest.NewServer(accounts, tasks, tokens)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	api.RegisterRoutes(mux)
	if err := web.RegisterRoutes(mux); err != nil {
		return nil, err
	}
	return rest.Wrap(mux, rest.Options{Logger: logger, AllowedOrigin: frontendURL}), nil
}

func openStore(ctx context.Context, cfg Config) (storage.Store, error) {
	switch driver := strings.ToLower(strings.TrimSpace(cfg.DBDriver)); driver {
	case "", DriverSQLite:
		store, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return store, nil
	case DriverPostgres:
		store, err := postgres.Open(ctx, postgres.Config{
			URL:             cfg.DatabaseURL,
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
		})
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}
}

// HTTPAddr returns the HTTP listener address.
func (s *Server) HTTPAddr() string {
	if s == nil || s.httpListener == nil {
		return ""
	}
	return s.httpListener.Addr().String()
}

// GRPCAddr returns the gRPC listener address, or "" when disabled.
func (s *Server) GRPCAddr() string {
	if s == nil || s.grpcListener == nil {
		return ""
	}
	return s.grpcListener.Addr().String()
}

// Run creates and serves a server until context cancellation.
func Run(ctx context.Context, cfg Config) error {
	server, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve runs the HTTP server, and the gRPC server when enabled, until ctx is
// canceled or either server fails. In-flight HTTP requests get
// timeouts.Shutdown to finish.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil || s.httpServer == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	serveErr := make(chan error, 2)
	s.logger.Printf("http server listening at %v", s.httpListener.Addr())
	go func() {
		err := s.httpServer.Serve(s.httpListener)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		if err != nil {
			err = fmt.Errorf("serve http: %w", err)
		}
		serveErr <- err
	}()
	running := 1
	if s.grpcServer != nil {
		s.logger.Printf("grpc health server listening at %v", s.grpcListener.Addr())
		go func() {
			err := s.grpcServer.Serve(s.grpcListener)
			if errors.Is(err, grpc.ErrServerStopped) {
				err = nil
			}
			if err != nil {
				err = fmt.Errorf("serve gRPC: %w", err)
			}
			serveErr <- err
		}()
		running++
	}

	var firstErr error
	select {
	case <-ctx.Done():
	case firstErr = <-serveErr:
		running--
	}

	s.shutdown()
	for ; running > 0; running-- {
		if err := <-serveErr; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *Server) shutdown() {
	if s.health != nil {
		s.health.Shutdown()
	}
	if s.grpcServer != nil {
		s.grpcServer.GracefulStop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Printf("http shutdown: %v", err)
		_ = s.httpServer.Close()
	}
}

// Close releases listeners and the store. It is safe to call more than once.
func (s *Server) Close() {
	if s == nil {
		return
	}
	s.closeOnce.Do(func() {
		if s.health != nil {
			s.health.Shutdown()
		}
		if s.grpcServer != nil {
			s.grpcServer.Stop()
		}
		if s.httpServer != nil {
			_ = s.httpServer.Close()
		}
		if s.grpcListener != nil {
			_ = s.grpcListener.Close()
		}
		if s.httpListener != nil {
			_ = s.httpListener.Close()
		}
		if s.store != nil {
			if err := s.store.Close(); err != nil {
				s.logger.Printf("close store: %v", err)
			}
		}
	})
}
