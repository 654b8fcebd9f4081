package handlers

import (
	"errors"
	"log/slog"

	"github.com/afzalm/cclms/internal/dto"
	"github.com/afzalm/cclms/internal/middleware"
	"github.com/afzalm/cclms/internal/pagination"
	"github.com/afzalm/cclms/internal/services"
	"github.com/afzalm/cclms/internal/workflow"
	"github.com/gofiber/fiber/v2"
)

// statusFor maps service and workflow errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, workflow.ErrUnknownAction),
		errors.Is(err, workflow.ErrUnknownContentAction),
		errors.Is(err, workflow.ErrContentMismatch):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrInvalidToken):
		return fiber.StatusUnauthorized
	case errors.Is(err, workflow.ErrForbidden),
		errors.Is(err, services.ErrAccountSuspended),
		errors.Is(err, services.ErrAccountPending),
		errors.Is(err, services.ErrNotTicketOwner),
		errors.Is(err, services.ErrSelfAction):
		return fiber.StatusForbidden
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrCourseNotFound),
		errors.Is(err, services.ErrReportNotFound),
		errors.Is(err, services.ErrTicketNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, workflow.ErrIllegalTransition),
		errors.Is(err, services.ErrConcurrentChange),
		errors.Is(err, services.ErrAlreadyAssigned),
		errors.Is(err, services.ErrEmailTaken):
		return fiber.StatusConflict
	case errors.Is(err, workflow.ErrReasonRequired):
		return fiber.StatusUnprocessableEntity
	}
	return fiber.StatusInternalServerError
}

// respondError writes the error body. A non-empty action is named in the
// message so clients can tell the user which action failed.
func respondError(c *fiber.Ctx, err error, action string) error {
	code := statusFor(err)
	message := err.Error()
	if code >= fiber.StatusInternalServerError {
		slog.Error("request failed",
			"method", c.Method(),
			"path", c.Path(),
			"action", action,
			"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
			"error", err,
		)
		message = "Internal server error"
	}
	if action != "" {
		message = action + " failed: " + message
	}
	return c.Status(code).JSON(dto.ErrorResponse{Error: true, Message: message})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: true, Message: message,
	})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: true, Message: "Unauthorized",
	})
}

// actor returns the caller resolved by middleware.RoleRequired.
func actor(c *fiber.Ctx) (services.Actor, bool) {
	return middleware.CurrentActor(c)
}

// pageRequest reads page and limit. perPage is accepted as an alias of limit.
func pageRequest(c *fiber.Ctx) pagination.Request {
	limit := c.QueryInt("limit", 0)
	if limit == 0 {
		limit = c.QueryInt("perPage", pagination.DefaultPerPage)
	}
	return pagination.Normalize(c.QueryInt("page", 1), limit)
}
