// @title                       User Management API
// @version                     1.0.0
// @description                 User accounts, roles and session tokens.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"

	_ "github.com/usermanagement/identity-api/docs"
	"github.com/usermanagement/identity-api/internal/api"
	"github.com/usermanagement/identity-api/internal/core/ports"
	"github.com/usermanagement/identity-api/internal/core/service"
	"github.com/usermanagement/identity-api/internal/infrastructure/config"
	mongodb "github.com/usermanagement/identity-api/internal/infrastructure/db/mongo"
	"github.com/usermanagement/identity-api/internal/infrastructure/db/postgres"
	redisdb "github.com/usermanagement/identity-api/internal/infrastructure/db/redis"
	"github.com/usermanagement/identity-api/internal/infrastructure/http/handlers"
	"github.com/usermanagement/identity-api/internal/infrastructure/queue"
	"github.com/usermanagement/identity-api/pkg/logger"
)

const (
	serviceName     = "identity-api"
	version         = "1.0.0"
	shutdownTimeout = 15 * time.Second
)

func main() {
	var (
		envFile     string
		migrateOnly bool
	)
	pflag.StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	pflag.BoolVar(&migrateOnly, "migrate-only", false, "apply database migrations and seed system accounts, then exit")
	pflag.Parse()

	if err := run(envFile, migrateOnly); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func run(envFile string, migrateOnly bool) (err error) {
	// A missing dotenv file is normal outside local development.
	envErr := godotenv.Load(envFile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: serviceName,
		Version: version,
	})
	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		log.Warn().Err(envErr).Str("file", envFile).Msg("could not read env file")
	}

	// --- PostgreSQL: users and roles ---
	db, err := postgres.Connect(ctx, postgres.Config{
		DSN:          cfg.Postgres.DSN,
		MaxOpenConns: cfg.Postgres.MaxOpenConns,
	})
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, db.Close()) }()

	if cfg.Postgres.AutoMigrate || migrateOnly {
		if err := postgres.Migrate(db); err != nil {
			return err
		}
		log.Info().Msg("database migrations applied")
	}

	hasher := service.NewBcryptHasher(cfg.BcryptCost)
	if err := postgres.SeedSystemUsers(ctx, db, hasher, postgres.SeedPasswords{
		Admin: cfg.Seed.AdminPassword,
		User:  cfg.Seed.UserPassword,
	}, log); err != nil {
		return err
	}
	if migrateOnly {
		return nil
	}

	checks := []handlers.DependencyCheck{handlers.PostgresCheck(db)}
	authOpts := []service.AuthOption{}

	// --- MongoDB: audit trail (optional) ---
	var audit ports.AuditPublisher
	if cfg.Mongo.URI != "" {
		client, mdb, connErr := mongodb.Connect(ctx, mongodb.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			AppName:  serviceName,
		})
		if connErr != nil {
			return connErr
		}
		defer func() { err = multierr.Append(err, client.Disconnect(context.Background())) }()

		auditRepo := mongodb.NewAuditRepository(mdb)
		if err := auditRepo.EnsureIndexes(ctx); err != nil {
			return err
		}

		dispatcher := queue.NewDispatcher(cfg.AuditWorkers, auditRepo, log)
		dispatcher.Start()
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			err = multierr.Append(err, dispatcher.Close(closeCtx))
		}()

		audit = dispatcher
		authOpts = append(authOpts, service.WithAuthAudit(dispatcher))
		checks = append(checks, handlers.MongoCheck(mdb))
		log.Info().Str("database", cfg.Mongo.Database).Msg("audit trail enabled")
	}

	// --- Redis: login throttle (optional) ---
	if cfg.Redis.Addr != "" {
		rdb, connErr := redisdb.Connect(ctx, redisdb.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if connErr != nil {
			return connErr
		}
		defer func() { err = multierr.Append(err, rdb.Close()) }()

		throttle := redisdb.NewLoginThrottle(rdb, cfg.Redis.LoginMaxAttempts, cfg.Redis.LoginWindow)
		authOpts = append(authOpts, service.WithLoginThrottle(throttle))
		checks = append(checks, handlers.RedisCheck(rdb))
		log.Info().
			Int("max_attempts", cfg.Redis.LoginMaxAttempts).
			Dur("window", cfg.Redis.LoginWindow).
			Msg("login throttle enabled")
	}

	// --- Core services ---
	users := postgres.NewUserRepository(db)
	roles := postgres.NewRoleRepository(db)
	tokens := service.NewJWTIssuer(service.JWTConfig{
		Secret:   cfg.JWT.Secret,
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
		TTL:      cfg.JWT.TTL,
	})
	policy := service.NewPolicy(hasher)

	e := api.NewRouter(api.Deps{
		Log:         log,
		Version:     version,
		AuthService: service.NewAuthService(users, roles, hasher, tokens, policy, log, authOpts...),
		UserService: service.NewUserService(users, roles, hasher, policy, audit, log),
		RoleService: service.NewRoleService(roles),
		Checks:      checks,
	})

	return serve(ctx, e, ":"+cfg.Port, log)
}

// serve runs the HTTP server until ctx is cancelled, then drains in-flight
// requests.
func serve(ctx context.Context, e *echo.Echo, addr string, log zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("http server listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
