package handlers

import (
	"github.com/afzalm/cclms/internal/dto"
	"github.com/afzalm/cclms/internal/services"
	"github.com/afzalm/cclms/internal/workflow"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ModerationHandler struct {
	moderationService *services.ModerationService
}

func NewModerationHandler(moderationService *services.ModerationService) *ModerationHandler {
	return &ModerationHandler{moderationService: moderationService}
}

// CreateReport handles POST /api/reports for any signed-in user.
func (h *ModerationHandler) CreateReport(c *fiber.Ctx) error {
	a, ok := actor(c)
	if !ok {
		return unauthorized(c)
	}
	var req dto.CreateReportRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	report, err := h.moderationService.CreateReport(c.UserContext(), a, &req)
	if err != nil {
		return respondError(c, err, "report")
	}

	return c.Status(fiber.StatusCreated).JSON(report)
}

// ListReports handles GET /api/admin/moderation.
func (h *ModerationHandler) ListReports(c *fiber.Ctx) error {
	filter, err := services.ParseReportFilter(
		c.Query("search"), c.Query("status"), c.Query("contentType"), c.Query("severity"),
	)
	if err != nil {
		return respondError(c, err, "")
	}

	page, err := h.moderationService.List(c.UserContext(), filter, pageRequest(c))
	if err != nil {
		return respondError(c, err, "")
	}

	return c.JSON(dto.ReportListResponse{Data: dto.ReportListData{
		Reports: page.Items,
		Pagination: dto.ReportPagination{
			TotalReports: page.Window.Total,
			Page:         page.Window.Page,
			Limit:        page.Window.PerPage,
			TotalPages:   page.Window.TotalPages,
		},
	}})
}

// TakeAction handles POST /api/admin/moderation.
func (h *ModerationHandler) TakeAction(c *fiber.Ctx) error {
	a, ok := actor(c)
	if !ok {
		return unauthorized(c)
	}
	var req dto.TakeActionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.ReportID == uuid.Nil || req.ActionType == "" {
		return badRequest(c, "reportId and actionType are required")
	}

	report, err := h.moderationService.TakeAction(c.UserContext(), a, &req)
	if err != nil {
		return respondError(c, err, string(workflow.ActionTakeAction))
	}

	return c.JSON(dto.ActionResponse{Success: true, Message: "Action recorded", Status: report.Status})
}

// UpdateReport handles PUT /api/admin/moderation {reportId, status, resolution}.
func (h *ModerationHandler) UpdateReport(c *fiber.Ctx) error {
	a, ok := actor(c)
	if !ok {
		return unauthorized(c)
	}
	var req dto.UpdateReportRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.ReportID == uuid.Nil || req.Status == "" {
		return badRequest(c, "reportId and status are required")
	}

	report, err := h.moderationService.UpdateStatus(c.UserContext(), a, &req)
	if err != nil {
		return respondError(c, err, "update report")
	}

	return c.JSON(dto.ActionResponse{Success: true, Message: "Report updated", Status: report.Status})
}
