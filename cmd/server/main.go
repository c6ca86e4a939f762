// Command auth-server starts the authentication core.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/yproject/authcore/internal/config"
	"github.com/yproject/authcore/internal/migrate"
	"github.com/yproject/authcore/internal/pool"
	"github.com/yproject/authcore/internal/repository/postgres"
	"github.com/yproject/authcore/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// application bundles the wired services. A transport layer embedding this
// core hangs its handlers off these two interfaces.
type application struct {
	auth     service.AuthService
	sessions service.SessionService
	pool     *pool.Pool
}

func (a *application) close(ctx context.Context) {
	a.pool.Close(ctx)
}

// main parses configuration, runs migrations and brings up the connection
// pool and services, then waits for a shutdown signal.
func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(2)
	}

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.Int("pool_size", cfg.PoolSize),
	)

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrate.Up(ctx, cfg.DatabaseDSN); err != nil {
		logger.Fatal("migrate up", zap.Error(err))
	}

	// DB pool: fixed-size, every connection prepared up front. Any failure
	// here aborts startup.
	dbPool, err := pool.New(ctx, cfg.DatabaseDSN, cfg.PoolSize, cfg.AcquireTimeout,
		postgres.PrepareStatements, logger)
	if err != nil {
		logger.Fatal("pool.New", zap.Error(err))
	}

	// Repositories
	userRepo := postgres.NewUserRepo(dbPool)
	sessionRepo := postgres.NewSessionRepo(dbPool)

	// Services
	sessionSvc := service.NewSessionService(sessionRepo, cfg.SessionLifetime, logger)
	app := &application{
		auth:     service.NewAuthService(userRepo, sessionSvc, logger),
		sessions: sessionSvc,
		pool:     dbPool,
	}

	logger.Info("ready")

	// Wait for stop
	<-ctx.Done()

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	app.close(closeCtx)

	logger.Info("shutdown complete")
}
