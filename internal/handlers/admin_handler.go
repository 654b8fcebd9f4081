package handlers

import (
	"strings"

	"github.com/afzalm/cclms/internal/dto"
	"github.com/afzalm/cclms/internal/services"
	"github.com/afzalm/cclms/internal/workflow"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// AdminHandler serves the user, course and overview panels.
type AdminHandler struct {
	users    *services.UserService
	courses  *services.CourseService
	overview *services.OverviewService
}

func NewAdminHandler(users *services.UserService, courses *services.CourseService, overview *services.OverviewService) *AdminHandler {
	return &AdminHandler{users: users, courses: courses, overview: overview}
}

// ListUsers handles GET /api/admin/users?page&limit&search&filter.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	filter, err := services.ParseUserFilter(c.Query("search"), c.Query("filter"))
	if err != nil {
		return respondError(c, err, "")
	}

	page, err := h.users.List(c.UserContext(), filter, pageRequest(c))
	if err != nil {
		return respondError(c, err, "")
	}

	return c.JSON(dto.UserListResponse{
		Users:      page.Items,
		Total:      page.Window.Total,
		Page:       page.Window.Page,
		TotalPages: page.Window.TotalPages,
	})
}

// UpdateUser handles PUT /api/admin/users {userId, action}.
func (h *AdminHandler) UpdateUser(c *fiber.Ctx) error {
	a, ok := actor(c)
	if !ok {
		return unauthorized(c)
	}
	var req dto.UserActionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.UserID == uuid.Nil || req.Action == "" {
		return badRequest(c, "userId and action are required")
	}

	action := workflow.Action(strings.ToLower(strings.TrimSpace(req.Action)))
	user, err := h.users.Apply(c.UserContext(), a, req.UserID, action)
	if err != nil {
		return respondError(c, err, string(action))
	}

	return c.JSON(dto.ActionResponse{Success: true, Message: "User updated", Status: user.Status})
}

// ListCourses handles GET /api/admin/courses?page&limit&search&status.
func (h *AdminHandler) ListCourses(c *fiber.Ctx) error {
	filter, err := services.ParseCourseFilter(c.Query("search"), c.Query("status"))
	if err != nil {
		return respondError(c, err, "")
	}

	page, err := h.courses.List(c.UserContext(), filter, pageRequest(c))
	if err != nil {
		return respondError(c, err, "")
	}

	return c.JSON(dto.CourseListResponse{
		Courses:    page.Items,
		Total:      page.Window.Total,
		Page:       page.Window.Page,
		TotalPages: page.Window.TotalPages,
	})
}

// UpdateCourse handles PUT /api/admin/courses {courseId, action}.
func (h *AdminHandler) UpdateCourse(c *fiber.Ctx) error {
	a, ok := actor(c)
	if !ok {
		return unauthorized(c)
	}
	var req dto.CourseActionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.CourseID == uuid.Nil || req.Action == "" {
		return badRequest(c, "courseId and action are required")
	}

	action := workflow.Action(strings.ToLower(strings.TrimSpace(req.Action)))
	course, err := h.courses.Apply(c.UserContext(), a, req.CourseID, action)
	if err != nil {
		return respondError(c, err, string(action))
	}

	return c.JSON(dto.ActionResponse{Success: true, Message: "Course updated", Status: course.Status})
}

func (h *AdminHandler) Overview(c *fiber.Ctx) error {
	stats, err := h.overview.Stats(c.UserContext())
	if err != nil {
		return respondError(c, err, "")
	}
	return c.JSON(stats)
}
