package middleware

import (
	"github.com/afzalm/cclms/internal/dto"
	"github.com/afzalm/cclms/internal/repository"
	"github.com/afzalm/cclms/internal/services"
	"github.com/afzalm/cclms/internal/workflow"
	"github.com/gofiber/fiber/v2"
)

const actorKey = "actor"

// RoleRequired runs after JWTProtected. It reloads the caller so that a
// suspension or role change takes effect on the next request rather than at
// token expiry. With no roles any active account passes.
func RoleRequired(users repository.UserRepository, roles ...workflow.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := UserIDFromToken(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		user, err := users.FindByID(c.UserContext(), userID)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized: account no longer exists",
			})
		}
		if user.Status == workflow.UserSuspended {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: "Account suspended",
			})
		}

		role := workflow.Role(user.Role)
		if len(roles) > 0 && !hasRole(roles, role) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: string(roles[0]) + " access required",
			})
		}

		c.Locals(actorKey, services.Actor{ID: user.ID, Role: role})
		return c.Next()
	}
}

// CurrentActor returns the caller RoleRequired resolved.
func CurrentActor(c *fiber.Ctx) (services.Actor, bool) {
	a, ok := c.Locals(actorKey).(services.Actor)
	return a, ok
}

func hasRole(list []workflow.Role, r workflow.Role) bool {
	for _, item := range list {
		if item == r {
			return true
		}
	}
	return false
}
