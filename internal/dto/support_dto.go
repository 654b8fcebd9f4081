package dto

import (
	"github.com/afzalm/cclms/internal/models"
	"github.com/google/uuid"
)

type CreateTicketRequest struct {
	Subject  string `json:"subject"`
	Category string `json:"category"`
	Priority string `json:"priority"`
	Message  string `json:"message"`
}

type TicketListResponse struct {
	Data TicketListData `json:"data"`
}

type TicketListData struct {
	Tickets    []models.SupportTicket `json:"tickets"`
	Pagination TicketPagination       `json:"pagination"`
}

type TicketPagination struct {
	TotalTickets int64 `json:"totalTickets"`
	Page         int   `json:"page"`
	Limit        int   `json:"limit"`
	TotalPages   int   `json:"totalPages"`
}

// UpdateTicketRequest carries any combination of updates. Empty fields are
// left alone.
type UpdateTicketRequest struct {
	TicketID   uuid.UUID  `json:"ticketId"`
	Status     string     `json:"status"`
	Priority   string     `json:"priority"`
	AssignedTo *uuid.UUID `json:"assignedTo"`
	Resolution string     `json:"resolution"`
}

type TicketMessageRequest struct {
	TicketID   uuid.UUID `json:"ticketId"`
	Message    string    `json:"message"`
	IsInternal bool      `json:"isInternal"`
}

type ReplyRequest struct {
	Message string `json:"message"`
}

type TicketResponse struct {
	Ticket models.SupportTicket `json:"ticket"`
}
