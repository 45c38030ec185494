// AngelaMos | 2026
// serve.go

package main

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"

	"github.com/carterperez-dev/advisory-backend/internal/admin"
	"github.com/carterperez-dev/advisory-backend/internal/advisory"
	"github.com/carterperez-dev/advisory-backend/internal/auth"
	"github.com/carterperez-dev/advisory-backend/internal/availability"
	"github.com/carterperez-dev/advisory-backend/internal/config"
	"github.com/carterperez-dev/advisory-backend/internal/core"
	"github.com/carterperez-dev/advisory-backend/internal/health"
	"github.com/carterperez-dev/advisory-backend/internal/middleware"
	"github.com/carterperez-dev/advisory-backend/internal/notify"
	"github.com/carterperez-dev/advisory-backend/internal/portfolio"
	"github.com/carterperez-dev/advisory-backend/internal/server"
	"github.com/carterperez-dev/advisory-backend/internal/user"
)

const (
	drainDelay         = 5 * time.Second
	tokenPruneInterval = time.Hour
)

//nolint:funlen // bootstrap code is inherently verbose
func serve(parent context.Context, configPath string) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
		"timezone", cfg.Advisory.Location().String(),
	)

	telemetry, err := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
	if err != nil {
		logger.Warn("failed to initialize telemetry", "error", err)
	} else if cfg.Otel.Enabled {
		logger.Info("OpenTelemetry tracer initialized", "endpoint", cfg.Otel.Endpoint)
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
		"auto_migrate", cfg.Database.AutoMigrate,
	)

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		_ = db.Close() //nolint:errcheck // startup failure
		return err
	}
	logger.Info("redis connected", "pool_size", cfg.Redis.PoolSize)

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return errors.Join(err, redis.Close(), db.Close())
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.GetKeyID(),
	)

	userRepo := user.NewRepository(db.DB)
	userSvc := user.NewService(userRepo)
	userHandler := user.NewHandler(userSvc)

	authSvc := auth.NewService(auth.ServiceConfig{
		Repo:      auth.NewRepository(db.DB),
		Tx:        auth.NewTxRunner(db.DB),
		Tokens:    jwtManager,
		Users:     userSvc,
		Blacklist: auth.NewBlacklist(redis.Client),
		Logger:    logger,
	})
	authHandler := auth.NewHandler(authSvc)

	hub := notify.NewHub(logger)
	var events advisory.EventPublisher
	if cfg.Notify.Enabled {
		events = notify.NewBroker(redis.Client, cfg.Notify.Channel, hub, logger)
	}

	manager := advisory.NewManager(advisory.ManagerConfig{
		Repo:             advisory.NewRepository(db.DB),
		Users:            userSvc,
		Location:         cfg.Advisory.Location(),
		MaxMessageLength: cfg.Advisory.MaxMessageLength,
		Cache:            advisory.NewListCache(redis.Client, cfg.Advisory.ListCacheTTL, logger),
		Events:           events,
		Tracer:           telemetryTracer(telemetry, "advisory"),
		Logger:           logger,
	})
	advisoryHandler := advisory.NewHandler(manager)

	portfolioSvc := portfolio.NewService(
		portfolio.NewRepository(db.DB),
		portfolio.NewTxRunner(db.DB),
		logger,
	)
	portfolioHandler := portfolio.NewHandler(portfolioSvc)

	availabilityHandler := availability.NewHandler(
		availability.NewService(availability.NewRepository(db.DB), logger),
	)

	healthHandler := health.NewHandler(
		health.Dependency{Name: "database", Checker: db},
		health.Dependency{Name: "redis", Checker: redis},
	)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		Pools:      []admin.Pool{admin.DatabasePool(db), admin.RedisPool(redis)},
		Advisories: manager,
		Projects:   portfolioSvc,
		Clients:    hub.TotalClients,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Tracing(telemetryTracer(telemetry, "http")))
	router.Use(middleware.Logger(logger))
	limiter := middleware.NewLimiter(redis.Client, logger)
	router.Use(middleware.RateLimit(
		limiter,
		middleware.PerMinute(cfg.RateLimit.Requests, cfg.RateLimit.Burst),
		middleware.KeyByIP,
	))
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	router.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())

	authenticator := middleware.Authenticator(authSvc)
	adminOnly := middleware.RequireAdmin
	bookingLimit := middleware.RoleRateLimit(limiter, "booking", middleware.RoleLimits{
		"": middleware.PerMinute(cfg.Advisory.BookingRate, cfg.Advisory.BookingBurst),
	})

	router.Route("/v1", func(r chi.Router) {
		authHandler.RegisterRoutes(r, authenticator)

		r.Post("/users", authHandler.Register)

		userHandler.RegisterRoutes(r, authenticator)
		userHandler.RegisterAdminRoutes(r, authenticator, adminOnly)
		advisoryHandler.RegisterRoutes(r, authenticator, bookingLimit)
		portfolioHandler.RegisterRoutes(r, authenticator)
		availabilityHandler.RegisterRoutes(r, authenticator)
		adminHandler.RegisterRoutes(r, authenticator, adminOnly)

		if cfg.Notify.Enabled {
			notify.NewHandler(hub, cfg.Notify, logger).RegisterRoutes(r, authenticator)
		}
	})

	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	go hub.Run(bgCtx)
	if broker, ok := events.(*notify.Broker); ok {
		go func() {
			if err := broker.Run(bgCtx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("notification broker stopped", "error", err)
			}
		}()
	}
	go authSvc.PruneExpiredTokens(bgCtx, tokenPruneInterval)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	stopBackground()

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func telemetryTracer(t *core.Telemetry, name string) trace.Tracer {
	if t == nil {
		return nil
	}
	return t.TracerProvider.Tracer(name)
}
