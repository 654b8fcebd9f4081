package handlers

import (
	"github.com/afzalm/cclms/internal/dto"
	"github.com/afzalm/cclms/internal/services"
	"github.com/gofiber/fiber/v2"
)

type InstructorHandler struct {
	courseService *services.CourseService
}

func NewInstructorHandler(courseService *services.CourseService) *InstructorHandler {
	return &InstructorHandler{courseService: courseService}
}

func (h *InstructorHandler) CreateCourse(c *fiber.Ctx) error {
	a, ok := actor(c)
	if !ok {
		return unauthorized(c)
	}
	var req dto.CreateCourseRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	course, err := h.courseService.Create(c.UserContext(), a, &req)
	if err != nil {
		return respondError(c, err, "create course")
	}

	return c.Status(fiber.StatusCreated).JSON(course)
}

func (h *InstructorHandler) ListCourses(c *fiber.Ctx) error {
	a, ok := actor(c)
	if !ok {
		return unauthorized(c)
	}
	filter, err := services.ParseCourseFilter(c.Query("search"), c.Query("status"))
	if err != nil {
		return respondError(c, err, "")
	}

	page, err := h.courseService.ListMine(c.UserContext(), a, filter, pageRequest(c))
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
