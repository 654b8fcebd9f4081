package handlers

import (
	"github.com/afzalm/cclms/internal/dto"
	"github.com/afzalm/cclms/internal/models"
	"github.com/afzalm/cclms/internal/repository"
	"github.com/afzalm/cclms/internal/services"
	"github.com/afzalm/cclms/internal/workflow"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type SupportHandler struct {
	supportService *services.SupportService
}

func NewSupportHandler(supportService *services.SupportService) *SupportHandler {
	return &SupportHandler{supportService: supportService}
}

func ticketList(page *services.Page[models.SupportTicket]) dto.TicketListResponse {
	return dto.TicketListResponse{Data: dto.TicketListData{
		Tickets: page.Items,
		Pagination: dto.TicketPagination{
			TotalTickets: page.Window.Total,
			Page:         page.Window.Page,
			Limit:        page.Window.PerPage,
			TotalPages:   page.Window.TotalPages,
		},
	}}
}

// ListTickets handles GET /api/admin/support.
func (h *SupportHandler) ListTickets(c *fiber.Ctx) error {
	a, ok := actor(c)
	if !ok {
		return unauthorized(c)
	}
	filter, err := services.ParseTicketFilter(a,
		c.Query("search"), c.Query("status"), c.Query("priority"), c.Query("category"), c.Query("assignedTo"),
	)
	if err != nil {
		return respondError(c, err, "")
	}

	page, err := h.supportService.List(c.UserContext(), filter, pageRequest(c))
	if err != nil {
		return respondError(c, err, "")
	}

	return c.JSON(ticketList(page))
}

// GetTicket returns a ticket with its thread. Admins see internal notes.
func (h *SupportHandler) GetTicket(c *fiber.Ctx) error {
	a, ok := actor(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid ticket id")
	}

	ticket, err := h.supportService.Get(c.UserContext(), a, id)
	if err != nil {
		return respondError(c, err, "")
	}

	return c.JSON(dto.TicketResponse{Ticket: *ticket})
}

// UpdateTicket handles PUT /api/admin/support {ticketId, ...updates}.
func (h *SupportHandler) UpdateTicket(c *fiber.Ctx) error {
	a, ok := actor(c)
	if !ok {
		return unauthorized(c)
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.TicketID == uuid.Nil {
		return badRequest(c, "ticketId is required")
	}

	ticket, err := h.supportService.Update(c.UserContext(), a, &req)
	if err != nil {
		return respondError(c, err, updateName(&req))
	}

	return c.JSON(dto.ActionResponse{Success: true, Message: "Ticket updated", Status: ticket.Status})
}

func updateName(req *dto.UpdateTicketRequest) string {
	switch {
	case req.AssignedTo != nil:
		return string(workflow.ActionTakeOwnership)
	case req.Status != "":
		return "update status"
	}
	return "update ticket"
}

// AddMessage handles POST /api/admin/support {ticketId, message, isInternal}.
func (h *SupportHandler) AddMessage(c *fiber.Ctx) error {
	a, ok := actor(c)
	if !ok {
		return unauthorized(c)
	}
	var req dto.TicketMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.TicketID == uuid.Nil {
		return badRequest(c, "ticketId is required")
	}

	msg, err := h.supportService.Respond(c.UserContext(), a, &req)
	if err != nil {
		return respondError(c, err, string(workflow.ActionRespond))
	}

	return c.JSON(msg)
}

// CreateTicket handles POST /api/support/tickets.
func (h *SupportHandler) CreateTicket(c *fiber.Ctx) error {
	a, ok := actor(c)
	if !ok {
		return unauthorized(c)
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	ticket, err := h.supportService.Create(c.UserContext(), a, &req)
	if err != nil {
		return respondError(c, err, "open ticket")
	}

	return c.Status(fiber.StatusCreated).JSON(dto.TicketResponse{Ticket: *ticket})
}

// ListMyTickets handles GET /api/support/tickets.
func (h *SupportHandler) ListMyTickets(c *fiber.Ctx) error {
	a, ok := actor(c)
	if !ok {
		return unauthorized(c)
	}
	filter := repository.TicketFilter{Search: c.Query("search")}
	if st := c.Query("status"); st != "" {
		normalized, ok := workflow.NormalizeStatus(workflow.EntityTicket, st)
		if !ok {
			return badRequest(c, "Unknown ticket status")
		}
		filter.Status = normalized
	}

	page, err := h.supportService.ListMine(c.UserContext(), a, filter, pageRequest(c))
	if err != nil {
		return respondError(c, err, "")
	}

	return c.JSON(ticketList(page))
}

// Reply handles POST /api/support/tickets/:id/messages.
func (h *SupportHandler) Reply(c *fiber.Ctx) error {
	a, ok := actor(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid ticket id")
	}
	var req dto.ReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	msg, err := h.supportService.Reply(c.UserContext(), a, id, &req)
	if err != nil {
		return respondError(c, err, string(workflow.ActionReply))
	}

	return c.Status(fiber.StatusCreated).JSON(msg)
}
