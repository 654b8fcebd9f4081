package middleware

import (
	"github.com/afzalm/cclms/internal/config"
	"github.com/afzalm/cclms/internal/guard"
	"github.com/afzalm/cclms/internal/repository"
	"github.com/afzalm/cclms/internal/services"
	"github.com/afzalm/cclms/internal/workflow"
	"github.com/gofiber/fiber/v2"
)

// TokenCookie is read when no Authorization header is present.
const TokenCookie = "token"

// DashboardGuard gates the dashboard entry points. Unauthenticated callers
// go to the login page and misrouted callers to their own dashboard, both
// with 302. The role is read from the database on every entry.
func DashboardGuard(cfg *config.Config, users repository.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Get(fiber.HeaderAuthorization)
		if raw == "" {
			raw = c.Cookies(TokenCookie)
		}

		var principal *guard.Principal
		var actor services.Actor
		if userID, err := parseBearer(cfg, raw); err == nil {
			user, err := users.FindByID(c.UserContext(), userID)
			if err == nil && user.Status != workflow.UserSuspended {
				principal = &guard.Principal{Role: workflow.Role(user.Role)}
				actor = services.Actor{ID: user.ID, Role: principal.Role}
			}
		}

		d := guard.DecidePath(principal, c.Path())
		if d.Outcome != guard.Render {
			return c.Redirect(d.Location, fiber.StatusFound)
		}
		if principal != nil {
			c.Locals(actorKey, actor)
		}
		return c.Next()
	}
}
