package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/flight-auth/internal/api/http"
	"github.com/spec-kit/flight-auth/internal/api/http/handlers"
	"github.com/spec-kit/flight-auth/internal/auth"
	"github.com/spec-kit/flight-auth/internal/config"
	"github.com/spec-kit/flight-auth/internal/events"
	"github.com/spec-kit/flight-auth/internal/observability"
	"github.com/spec-kit/flight-auth/internal/persistence"
	"github.com/spec-kit/flight-auth/internal/repository"
	"github.com/spec-kit/flight-auth/internal/service"
	"github.com/spec-kit/flight-auth/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	var (
		userRepo  repository.UserRepository
		adminRepo repository.AdminRepository
	)
	if pg.Enabled() {
		userRepo = repository.NewUserRepository(pg.PoolHandle())
		adminRepo = repository.NewAdminRepository(pg.PoolHandle())
	} else {
		logger.Warn("POSTGRES_DSN not provided; credentials are held in process memory")
		store := repository.NewMemoryStore()
		userRepo = store.Users()
		adminRepo = store.Admins()
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	throttle := auth.NewMemoryThrottle(cfg.Auth.MaxFailedLogins, cfg.Auth.LockoutWindow())
	if redis.Enabled() {
		throttle = auth.NewRedisThrottle(redis.Client, cfg.Auth.MaxFailedLogins, cfg.Auth.LockoutWindow())
	}

	dispatcher := events.NewInMemoryDispatcher(logger)
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger))

	authService, err := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo:   userRepo,
		AdminRepo:  adminRepo,
		Throttle:   throttle,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	if err != nil {
		logger.Fatal("failed to init auth service", zap.Error(err))
	}
	if _, err := authService.EnsureSuperadmin(ctx, cfg.Auth); err != nil {
		logger.Fatal("failed to seed superadmin", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Auth:           handlers.NewAuthHandler(authService),
		Admin:          handlers.NewAdminHandler(authService, metrics),
		AuthMiddleware: auth.NewAuthMiddleware(authService),
		RateLimiter:    httptransport.NewRateLimiter(cfg.RateLimit.AuthRPM),
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.String("env", cfg.App.Env))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
