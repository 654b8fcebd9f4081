package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/redis/go-redis/v9"

	"github.com/afzalm/cclms/internal/cache"
	"github.com/afzalm/cclms/internal/config"
	"github.com/afzalm/cclms/internal/database"
	"github.com/afzalm/cclms/internal/handlers"
	"github.com/afzalm/cclms/internal/jobs"
	"github.com/afzalm/cclms/internal/logging"
	"github.com/afzalm/cclms/internal/middleware"
	"github.com/afzalm/cclms/internal/notify"
	"github.com/afzalm/cclms/internal/repository"
	"github.com/afzalm/cclms/internal/routes"
	"github.com/afzalm/cclms/internal/services"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	cfg := config.Load()

	// Structured logging (JSON to stdout)
	logging.Setup(cfg.Environment)

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(logging.NewGormWriter(database.DB), 5*time.Second)
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		logging.NewJSONHandler(os.Stdout, cfg.Environment),
		pgLogHandler,
	)))

	// Query cache (optional)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		client, err := cache.Connect(ctx, cfg.RedisURL)
		cancel()
		if err != nil {
			slog.Warn("redis unavailable, query cache disabled", "error", err)
		} else {
			redisClient = client
			slog.Info("query cache connected")
		}
	}
	queryCache := cache.New(redisClient, cfg.QueryCacheTTL)

	// Notifications
	var notifier notify.Notifier = notify.LogNotifier{}
	if cfg.SendGridAPIKey != "" {
		notifier = notify.NewSendGridNotifier(cfg.SendGridAPIKey, cfg.MailFromAddress, cfg.MailFromName)
	}

	// Services
	store := repository.NewStore(database.DB)
	authService := services.NewAuthService(store, cfg)
	userService := services.NewUserService(store, queryCache)
	courseService := services.NewCourseService(store, queryCache)
	moderationService := services.NewModerationService(store, queryCache)
	supportService := services.NewSupportService(store, queryCache, notifier)
	overviewService := services.NewOverviewService(store)

	// Background jobs
	var locker jobs.Locker
	if redisClient != nil {
		locker = jobs.NewRedisLocker(redisClient)
	}
	scheduler := jobs.NewScheduler(jobs.Config{
		AutoCloseAfter: cfg.TicketAutoCloseAfter,
		LogRetention:   cfg.LogRetention,
	}, supportService, func(ctx context.Context, cutoff time.Time) (int64, error) {
		return logging.DeleteBefore(ctx, database.DB, cutoff)
	}, locker)
	if err := scheduler.Start(); err != nil {
		slog.Error("scheduler start failed", "error", err)
		os.Exit(1)
	}

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	healthHandler := handlers.NewHealthHandler(database.Ping, queryCache)
	adminHandler := handlers.NewAdminHandler(userService, courseService, overviewService)
	moderationHandler := handlers.NewModerationHandler(moderationService)
	supportHandler := handlers.NewSupportHandler(supportService)
	instructorHandler := handlers.NewInstructorHandler(courseService)
	dashboardHandler := handlers.NewDashboardHandler(overviewService, courseService)

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${locals:requestid}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "same-origin")
		return c.Next()
	})

	routes.Setup(app, cfg, store, authHandler, healthHandler, adminHandler, moderationHandler, supportHandler, instructorHandler, dashboardHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Environment)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	scheduler.Stop()
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			slog.Error("redis close error", "error", err)
		}
	}
	if err := database.Close(); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error",
			"method", c.Method(),
			"path", c.Path(),
			"request_id", c.Locals("requestid"),
			"error", err.Error(),
		)
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
