package models

import (
	"time"

	"github.com/google/uuid"
)

// SupportTicket is a help request opened by a user and worked by admins.
type SupportTicket struct {
	ID         uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"userId"`
	Subject    string          `gorm:"not null;size:255" json:"subject"`
	Category   string          `gorm:"size:50;index" json:"category"`
	Priority   string          `gorm:"size:20;not null;default:'MEDIUM';index" json:"priority"`
	Status     string          `gorm:"size:20;not null;default:'OPEN';index" json:"status"`
	AssigneeID *uuid.UUID      `gorm:"type:uuid;index" json:"assigneeId"`
	Resolution string          `gorm:"size:2000" json:"resolution,omitempty"`
	ResolvedAt *time.Time      `json:"resolvedAt,omitempty"`
	ClosedAt   *time.Time      `json:"closedAt,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
	Messages   []TicketMessage `gorm:"foreignKey:TicketID" json:"messages,omitempty"`
	User       User            `gorm:"foreignKey:UserID" json:"-"`
}

// TicketMessage is one entry of a ticket thread. Internal messages are only
// visible to admins.
type TicketMessage struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TicketID   uuid.UUID `gorm:"type:uuid;not null;index" json:"ticketId"`
	AuthorID   uuid.UUID `gorm:"type:uuid;not null" json:"authorId"`
	Body       string    `gorm:"type:text;not null" json:"message"`
	IsInternal bool      `gorm:"default:false" json:"isInternal"`
	CreatedAt  time.Time `json:"createdAt"`
}
