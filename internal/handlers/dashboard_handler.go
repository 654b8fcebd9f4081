package handlers

import (
	"github.com/afzalm/cclms/internal/guard"
	"github.com/afzalm/cclms/internal/pagination"
	"github.com/afzalm/cclms/internal/repository"
	"github.com/afzalm/cclms/internal/services"
	"github.com/afzalm/cclms/internal/workflow"
	"github.com/gofiber/fiber/v2"
)

// DashboardHandler renders the landing payload of each role's dashboard.
// middleware.DashboardGuard has already redirected anyone who does not
// belong here.
type DashboardHandler struct {
	overview *services.OverviewService
	courses  *services.CourseService
}

func NewDashboardHandler(overview *services.OverviewService, courses *services.CourseService) *DashboardHandler {
	return &DashboardHandler{overview: overview, courses: courses}
}

func (h *DashboardHandler) Show(c *fiber.Ctx) error {
	a, ok := actor(c)
	if !ok {
		return c.Redirect(guard.LoginPath, fiber.StatusFound)
	}

	ctx := c.UserContext()
	first := pagination.Normalize(1, pagination.DefaultPerPage)
	var (
		data interface{}
		err  error
	)
	switch a.Role {
	case workflow.RoleAdmin:
		data, err = h.overview.Stats(ctx)
	case workflow.RoleTrainer:
		data, err = h.courses.ListMine(ctx, a, repository.CourseFilter{}, first)
	default:
		data, err = h.courses.List(ctx, repository.CourseFilter{Status: workflow.CoursePublished}, first)
	}
	if err != nil {
		return respondError(c, err, "")
	}

	return c.JSON(fiber.Map{
		"dashboard": guard.HomeFor(a.Role),
		"role":      a.Role,
		"data":      data,
	})
}
