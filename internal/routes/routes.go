package routes

import (
	"time"

	"github.com/afzalm/cclms/internal/config"
	"github.com/afzalm/cclms/internal/handlers"
	"github.com/afzalm/cclms/internal/middleware"
	"github.com/afzalm/cclms/internal/repository"
	"github.com/afzalm/cclms/internal/workflow"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	store repository.Store,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
	adminHandler *handlers.AdminHandler,
	moderationHandler *handlers.ModerationHandler,
	supportHandler *handlers.SupportHandler,
	instructorHandler *handlers.InstructorHandler,
	dashboardHandler *handlers.DashboardHandler,
) {
	users := store.Users()
	jwt := middleware.JWTProtected(cfg)
	signedIn := middleware.RoleRequired(users)

	// Dashboard entry points redirect rather than answer 401/403.
	dashboards := middleware.DashboardGuard(cfg, users)
	app.Get("/admin", dashboards, dashboardHandler.Show)
	app.Get("/instructor", dashboards, dashboardHandler.Show)
	app.Get("/learn", dashboards, dashboardHandler.Show)

	api := app.Group("/api")

	// General API rate limiter: 120 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               120,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Auth-specific rate limit: 10 req/min per IP (stricter)
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/signup", authHandler.Signup)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)

	api.Post("/auth/logout", jwt, authHandler.Logout)
	api.Get("/auth/me", jwt, signedIn, authHandler.Me)

	// Any signed-in user
	api.Post("/reports", jwt, signedIn, moderationHandler.CreateReport)
	support := api.Group("/support", jwt, signedIn)
	support.Post("/tickets", supportHandler.CreateTicket)
	support.Get("/tickets", supportHandler.ListMyTickets)
	support.Get("/tickets/:id", supportHandler.GetTicket)
	support.Post("/tickets/:id/messages", supportHandler.Reply)

	instructor := api.Group("/instructor", jwt, middleware.RoleRequired(users, workflow.RoleTrainer))
	instructor.Post("/courses", instructorHandler.CreateCourse)
	instructor.Get("/courses", instructorHandler.ListCourses)

	admin := api.Group("/admin", jwt, middleware.RoleRequired(users, workflow.RoleAdmin))
	admin.Get("/users", adminHandler.ListUsers)
	admin.Put("/users", adminHandler.UpdateUser)
	admin.Get("/courses", adminHandler.ListCourses)
	admin.Put("/courses", adminHandler.UpdateCourse)
	admin.Get("/overview", adminHandler.Overview)

	admin.Get("/moderation", moderationHandler.ListReports)
	admin.Post("/moderation", moderationHandler.TakeAction)
	admin.Put("/moderation", moderationHandler.UpdateReport)

	admin.Get("/support", supportHandler.ListTickets)
	admin.Get("/support/:id", supportHandler.GetTicket)
	admin.Put("/support", supportHandler.UpdateTicket)
	admin.Post("/support", supportHandler.AddMessage)
}
