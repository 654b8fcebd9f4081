package models

import (
	"time"

	"github.com/google/uuid"
)

// Course is a trainer-authored course. Money fields are in cents.
type Course struct {
	ID              uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title           string    `gorm:"not null;size:255" json:"title"`
	Description     string    `gorm:"type:text" json:"description"`
	Status          string    `gorm:"size:20;not null;default:'DRAFT';index" json:"status"`
	TrainerID       uuid.UUID `gorm:"type:uuid;not null;index" json:"trainerId"`
	PriceCents      int64     `gorm:"default:0" json:"priceCents"`
	EnrollmentCount int64     `gorm:"default:0" json:"enrollmentCount"`
	RevenueCents    int64     `gorm:"default:0" json:"revenueCents"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
	Trainer         User      `gorm:"foreignKey:TrainerID" json:"-"`
}
