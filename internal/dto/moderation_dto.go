package dto

import (
	"github.com/afzalm/cclms/internal/models"
	"github.com/google/uuid"
)

type CreateReportRequest struct {
	ContentType string `json:"contentType"`
	ContentID   string `json:"contentId"`
	Severity    string `json:"severity"`
	Reason      string `json:"reason"`
}

type ReportListResponse struct {
	Data ReportListData `json:"data"`
}

type ReportListData struct {
	Reports    []models.Report  `json:"reports"`
	Pagination ReportPagination `json:"pagination"`
}

type ReportPagination struct {
	TotalReports int64 `json:"totalReports"`
	Page         int   `json:"page"`
	Limit        int   `json:"limit"`
	TotalPages   int   `json:"totalPages"`
}

// TakeActionRequest applies a content action to the subject of a report.
type TakeActionRequest struct {
	ReportID    uuid.UUID `json:"reportId"`
	ContentType string    `json:"contentType"`
	ContentID   string    `json:"contentId"`
	ActionType  string    `json:"actionType"`
	Reason      string    `json:"reason"`
	Notes       string    `json:"notes"`
}

type UpdateReportRequest struct {
	ReportID   uuid.UUID `json:"reportId"`
	Status     string    `json:"status"`
	Resolution string    `json:"resolution"`
}
