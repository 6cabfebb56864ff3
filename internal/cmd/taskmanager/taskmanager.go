// Package taskmanager parses task tracker flags and launches the service.
package taskmanager

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	entrypoint "github.com/louisbranch/taskmanager/internal/platform/cmd"
	server "github.com/louisbranch/taskmanager/internal/services/tasks/app"
	"github.com/louisbranch/taskmanager/internal/services/tasks/token"
)

// Config holds task tracker command configuration.
type Config struct {
	HTTPAddr string `env:"TASKMANAGER_HTTP_ADDR" envDefault:":5000"`
	GRPCPort int    `env:"TASKMANAGER_GRPC_PORT" envDefault:"0"`

	DBDriver          string        `env:"TASKMANAGER_DB_DRIVER" envDefault:"sqlite"`
	DBPath            string        `env:"TASKMANAGER_DB_PATH" envDefault:"data/tasks.db"`
	DatabaseURL       string        `env:"TASKMANAGER_DATABASE_URL"`
	DBMaxOpenConns    int           `env:"TASKMANAGER_DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns    int           `env:"TASKMANAGER_DB_MAX_IDLE_CONNS" envDefault:"25"`
	DBConnMaxLifetime time.Duration `env:"TASKMANAGER_DB_CONN_MAX_LIFETIME" envDefault:"30m"`

	JWTSecret  string        `env:"TASKMANAGER_JWT_SECRET"`
	JWTExpire  time.Duration `env:"TASKMANAGER_JWT_EXPIRE" envDefault:"168h"`
	JWTIssuer  string        `env:"TASKMANAGER_JWT_ISSUER" envDefault:"taskmanager"`
	BcryptCost int           `env:"TASKMANAGER_BCRYPT_COST" envDefault:"10"`

	FrontendURL string `env:"TASKMANAGER_FRONTEND_URL" envDefault:"*"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "The HTTP server address")
	fs.IntVar(&cfg.GRPCPort, "grpc-port", cfg.GRPCPort, "The gRPC health server port (0 disables)")
	fs.StringVar(&cfg.DBDriver, "db-driver", cfg.DBDriver, "Storage backend: sqlite or postgres")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "SQLite database path")
	fs.StringVar(&cfg.DatabaseURL, "database-url", cfg.DatabaseURL, "PostgreSQL connection URL")
	fs.DurationVar(&cfg.JWTExpire, "jwt-expire", cfg.JWTExpire, "Bearer token lifetime")
	fs.StringVar(&cfg.FrontendURL, "frontend-url", cfg.FrontendURL, "Allowed CORS origin")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c Config) Validate() error {
	if len(c.JWTSecret) < token.MinSecretLength {
		return fmt.Errorf("TASKMANAGER_JWT_SECRET must be at least %d bytes", token.MinSecretLength)
	}
	if c.JWTExpire <= 0 {
		return fmt.Errorf("jwt expire must be positive")
	}
	if c.GRPCPort < 0 {
		return fmt.Errorf("grpc port must not be negative")
	}
	switch strings.ToLower(strings.TrimSpace(c.DBDriver)) {
	case server.DriverSQLite:
		if strings.TrimSpace(c.DBPath) == "" {
			return fmt.Errorf("db path is required for sqlite")
		}
	case server.DriverPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("TASKMANAGER_DATABASE_URL is required for postgres")
		}
	default:
		return fmt.Errorf("unsupported db driver %q", c.DBDriver)
	}
	return nil
}

// Run starts the task tracker HTTP service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceTasks, func(ctx context.Context) error {
		return server.Run(ctx, cfg.serverConfig())
	})
}

func (c Config) serverConfig() server.Config {
	return server.Config{
		HTTPAddr:        c.HTTPAddr,
		GRPCPort:        c.GRPCPort,
		DBDriver:        c.DBDriver,
		DBPath:          c.DBPath,
		DatabaseURL:     c.DatabaseURL,
		MaxOpenConns:    c.DBMaxOpenConns,
		MaxIdleConns:    c.DBMaxIdleConns,
		ConnMaxLifetime: c.DBConnMaxLifetime,
		JWTSecret:       c.JWTSecret,
		JWTIssuer:       c.JWTIssuer,
		JWTExpire:       c.JWTExpire,
		BcryptCost:      c.BcryptCost,
		FrontendURL:     c.FrontendURL,
		Logger:          log.Default(),
	}
}
