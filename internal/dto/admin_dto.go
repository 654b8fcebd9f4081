package dto

import (
	"github.com/afzalm/cclms/internal/models"
	"github.com/google/uuid"
)

type UserListResponse struct {
	Users      []models.User `json:"users"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	TotalPages int           `json:"totalPages"`
}

type UserActionRequest struct {
	UserID uuid.UUID `json:"userId"`
	Action string    `json:"action"`
}

type CourseListResponse struct {
	Courses    []models.Course `json:"courses"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	TotalPages int             `json:"totalPages"`
}

type CourseActionRequest struct {
	CourseID uuid.UUID `json:"courseId"`
	Action   string    `json:"action"`
}

// CreateCourseRequest is sent by trainers. Price is in currency units.
type CreateCourseRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

// ActionResponse acknowledges a mutation and echoes the resulting status.
type ActionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Status  string `json:"status,omitempty"`
}

type OverviewResponse struct {
	Users   UserStats   `json:"users"`
	Courses CourseStats `json:"courses"`
	Reports QueueStats  `json:"reports"`
	Tickets QueueStats  `json:"tickets"`
}

type UserStats struct {
	Total    int64            `json:"total"`
	ByRole   map[string]int64 `json:"byRole"`
	ByStatus map[string]int64 `json:"byStatus"`
}

type CourseStats struct {
	Total             int64            `json:"total"`
	ByStatus          map[string]int64 `json:"byStatus"`
	TotalEnrollments  int64            `json:"totalEnrollments"`
	TotalRevenueCents int64            `json:"totalRevenueCents"`
}

// QueueStats counts a work queue. Open is everything not yet terminal.
type QueueStats struct {
	Total    int64            `json:"total"`
	Open     int64            `json:"open"`
	ByStatus map[string]int64 `json:"byStatus"`
}
