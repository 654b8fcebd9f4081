package services

import (
	"context"

	"github.com/afzalm/cclms/internal/dto"
	"github.com/afzalm/cclms/internal/repository"
	"github.com/afzalm/cclms/internal/workflow"
)

type OverviewService struct {
	store repository.Store
}

func NewOverviewService(store repository.Store) *OverviewService {
	return &OverviewService{store: store}
}

// Stats aggregates platform counts for the admin dashboard.
func (s *OverviewService) Stats(ctx context.Context) (*dto.OverviewResponse, error) {
	users := s.store.Users()
	byRole, err := users.CountByRole(ctx)
	if err != nil {
		return nil, err
	}
	userStatus, err := users.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	courses := s.store.Courses()
	courseStatus, err := courses.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	enrollments, revenue, err := courses.Totals(ctx)
	if err != nil {
		return nil, err
	}

	reportStatus, err := s.store.Reports().CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	ticketStatus, err := s.store.Tickets().CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	return &dto.OverviewResponse{
		Users: dto.UserStats{
			Total:    sum(byRole),
			ByRole:   byRole,
			ByStatus: userStatus,
		},
		Courses: dto.CourseStats{
			Total:             sum(courseStatus),
			ByStatus:          courseStatus,
			TotalEnrollments:  enrollments,
			TotalRevenueCents: revenue,
		},
		Reports: queue(workflow.EntityReport, reportStatus),
		Tickets: queue(workflow.EntityTicket, ticketStatus),
	}, nil
}

func queue(entity workflow.Entity, byStatus map[string]int64) dto.QueueStats {
	q := dto.QueueStats{ByStatus: byStatus}
	for status, n := range byStatus {
		q.Total += n
		if !workflow.IsTerminal(entity, status) {
			q.Open += n
		}
	}
	return q
}

func sum(m map[string]int64) int64 {
	var total int64
	for _, n := range m {
		total += n
	}
	return total
}
