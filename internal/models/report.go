package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Report is a user's complaint about a piece of content.
type Report struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ReporterID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"reporterId"`
	ContentType string     `gorm:"not null;size:20;index" json:"contentType"`
	ContentID   string     `gorm:"not null;size:255;index" json:"contentId"`
	Severity    string     `gorm:"not null;size:20;default:'LOW';index" json:"severity"`
	Reason      string     `gorm:"not null;size:1000" json:"reason"`
	Status      string     `gorm:"not null;default:'PENDING';size:20;index" json:"status"`
	Resolution  string     `gorm:"size:2000" json:"resolution,omitempty"`
	ReviewedBy  *uuid.UUID `gorm:"type:uuid" json:"reviewedBy,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	Reporter    User       `gorm:"foreignKey:ReporterID" json:"-"`
}

// ModerationAction records what an admin did about a report.
type ModerationAction struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ReportID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"reportId"`
	AdminID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"adminId"`
	ActionType  string         `gorm:"not null;size:30" json:"actionType"`
	ContentType string         `gorm:"not null;size:20" json:"contentType"`
	ContentID   string         `gorm:"not null;size:255" json:"contentId"`
	Reason      string         `gorm:"not null;size:1000" json:"reason"`
	Notes       string         `gorm:"size:2000" json:"notes,omitempty"`
	Effect      datatypes.JSON `gorm:"type:jsonb;default:'{}'" json:"effect"`
	CreatedAt   time.Time      `json:"createdAt"`
}
