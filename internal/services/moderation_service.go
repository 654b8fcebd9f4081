package services

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/afzalm/cclms/internal/cache"
	"github.com/afzalm/cclms/internal/dto"
	"github.com/afzalm/cclms/internal/models"
	"github.com/afzalm/cclms/internal/pagination"
	"github.com/afzalm/cclms/internal/repository"
	"github.com/afzalm/cclms/internal/workflow"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ModerationService struct {
	store repository.Store
	cache *cache.QueryCache
}

func NewModerationService(store repository.Store, qc *cache.QueryCache) *ModerationService {
	return &ModerationService{store: store, cache: qc}
}

// actionEffect is stored on the moderation action record.
type actionEffect struct {
	Entity  string `json:"entity,omitempty"`
	ID      string `json:"id,omitempty"`
	Action  string `json:"action,omitempty"`
	From    string `json:"from,omitempty"`
	To      string `json:"to,omitempty"`
	Applied bool   `json:"applied"`
}

func ParseReportFilter(search, status, contentType, severity string) (repository.ReportFilter, error) {
	f := repository.ReportFilter{Search: strings.TrimSpace(search)}
	var ok bool
	if !isAll(status) {
		if f.Status, ok = workflow.NormalizeStatus(workflow.EntityReport, status); !ok {
			return f, invalid("unknown report status %q", status)
		}
	}
	if !isAll(contentType) {
		if f.ContentType, ok = workflow.ParseContentType(contentType); !ok {
			return f, invalid("unknown content type %q", contentType)
		}
	}
	if !isAll(severity) {
		if f.Severity, ok = workflow.ParseSeverity(severity); !ok {
			return f, invalid("unknown severity %q", severity)
		}
	}
	return f, nil
}

func isAll(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, "all")
}

// CreateReport files a PENDING report on behalf of any authenticated user.
func (s *ModerationService) CreateReport(ctx context.Context, reporter Actor, req *dto.CreateReportRequest) (*models.Report, error) {
	contentType, ok := workflow.ParseContentType(req.ContentType)
	if !ok {
		return nil, invalid("contentType must be one of COURSE, REVIEW, USER, LESSON")
	}
	severity := workflow.SeverityLow
	if req.Severity != "" {
		if severity, ok = workflow.ParseSeverity(req.Severity); !ok {
			return nil, invalid("severity must be one of LOW, MEDIUM, HIGH, CRITICAL")
		}
	}
	contentID := strings.TrimSpace(req.ContentID)
	reason := strings.TrimSpace(req.Reason)
	if contentID == "" || reason == "" {
		return nil, invalid("contentId and reason are required")
	}
	if len(reason) > 1000 {
		return nil, invalid("reason must be at most 1000 characters")
	}

	report := models.Report{
		ID:          uuid.New(),
		ReporterID:  reporter.ID,
		ContentType: contentType,
		ContentID:   contentID,
		Severity:    severity,
		Reason:      reason,
		Status:      workflow.ReportPending,
	}
	if err := s.store.Reports().Create(ctx, &report); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, scopeReports)
	return &report, nil
}

func (s *ModerationService) List(ctx context.Context, f repository.ReportFilter, req pagination.Request) (*Page[models.Report], error) {
	return listPage(ctx, s.cache, scopeReports, f, req, func(p pagination.Request) ([]models.Report, int64, error) {
		return s.store.Reports().List(ctx, f, p)
	})
}

// TakeAction records a content action against a PENDING report, applies its
// side effect and moves the report to UNDER_REVIEW, all in one transaction.
func (s *ModerationService) TakeAction(ctx context.Context, actor Actor, req *dto.TakeActionRequest) (*models.Report, error) {
	action, ok := workflow.ParseContentAction(req.ActionType)
	if !ok {
		return nil, workflow.ErrUnknownContentAction
	}

	var (
		report  *models.Report
		touched []string
	)
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		report, err = tx.Reports().FindByID(ctx, req.ReportID)
		if err != nil {
			return storeErr(err, ErrReportNotFound)
		}
		if req.ContentType != "" && !strings.EqualFold(req.ContentType, report.ContentType) {
			return invalid("contentType does not match the report")
		}
		if req.ContentID != "" && req.ContentID != report.ContentID {
			return invalid("contentId does not match the report")
		}

		t, err := workflow.Validate(workflow.EntityReport, report.Status, workflow.ActionTakeAction, actor.Role, req.Reason)
		if err != nil {
			return err
		}
		effect, err := workflow.EffectOf(action, report.ContentType)
		if err != nil {
			return err
		}

		recorded := actionEffect{}
		if effect != nil {
			if recorded, err = applyEffect(ctx, tx, actor, effect, report.ContentID); err != nil {
				return err
			}
			if recorded.Applied {
				touched = append(touched, scopeFor(effect.Entity))
			}
		}

		meta, err := json.Marshal(recorded)
		if err != nil {
			return err
		}
		err = tx.Reports().CreateAction(ctx, &models.ModerationAction{
			ID:          uuid.New(),
			ReportID:    report.ID,
			AdminID:     actor.ID,
			ActionType:  string(action),
			ContentType: report.ContentType,
			ContentID:   report.ContentID,
			Reason:      strings.TrimSpace(req.Reason),
			Notes:       strings.TrimSpace(req.Notes),
			Effect:      datatypes.JSON(meta),
		})
		if err != nil {
			return err
		}

		reviewer := actor.ID
		err = tx.Reports().Transition(ctx, report.ID, t.From, repository.ReportUpdate{
			To:         t.To,
			ReviewedBy: &reviewer,
		})
		if err != nil {
			return storeErr(err, ErrReportNotFound)
		}

		logTransition(workflow.EntityReport, report.ID, t, actor)
		report.Status = t.To
		report.ReviewedBy = &reviewer
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, append(touched, scopeReports)...)
	return report, nil
}

// applyEffect moves the reported course or user. An entity already in the
// effect's target status is left as is.
func applyEffect(ctx context.Context, tx repository.Store, actor Actor, effect *workflow.Effect, contentID string) (actionEffect, error) {
	out := actionEffect{Entity: string(effect.Entity), ID: contentID, Action: string(effect.Action)}
	id, err := uuid.Parse(contentID)
	if err != nil {
		return out, invalid("contentId %q is not a valid id", contentID)
	}

	switch effect.Entity {
	case workflow.EntityCourse:
		course, err := tx.Courses().FindByID(ctx, id)
		if err != nil {
			return out, storeErr(err, ErrCourseNotFound)
		}
		out.From = course.Status
		if workflow.Reaches(effect.Entity, effect.Action, course.Status) {
			out.To = course.Status
			return out, nil
		}
		if course, err = applyCourseAction(ctx, tx, actor, id, effect.Action); err != nil {
			return out, err
		}
		out.To, out.Applied = course.Status, true

	case workflow.EntityUser:
		if id == actor.ID {
			return out, ErrSelfAction
		}
		user, err := tx.Users().FindByID(ctx, id)
		if err != nil {
			return out, storeErr(err, ErrUserNotFound)
		}
		out.From = user.Status
		if workflow.Reaches(effect.Entity, effect.Action, user.Status) {
			out.To = user.Status
			return out, nil
		}
		if user, err = applyUserAction(ctx, tx, actor, id, effect.Action); err != nil {
			return out, err
		}
		out.To, out.Applied = user.Status, true
	}
	return out, nil
}

func scopeFor(e workflow.Entity) string {
	switch e {
	case workflow.EntityUser:
		return scopeUsers
	case workflow.EntityCourse:
		return scopeCourses
	case workflow.EntityTicket:
		return scopeTickets
	}
	return scopeReports
}

// UpdateStatus moves a report to the requested status using whichever
// lifecycle action connects the two. Requesting the current status is a no-op.
func (s *ModerationService) UpdateStatus(ctx context.Context, actor Actor, req *dto.UpdateReportRequest) (*models.Report, error) {
	to, ok := workflow.NormalizeStatus(workflow.EntityReport, req.Status)
	if !ok || to == "" {
		return nil, invalid("status must be one of PENDING, UNDER_REVIEW, RESOLVED, DISMISSED")
	}

	var report *models.Report
	changed := false
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		report, err = tx.Reports().FindByID(ctx, req.ReportID)
		if err != nil {
			return storeErr(err, ErrReportNotFound)
		}
		if report.Status == to {
			return nil
		}

		action, err := workflow.ActionFor(workflow.EntityReport, report.Status, to, actor.Role)
		if err != nil {
			return err
		}
		t, err := workflow.Validate(workflow.EntityReport, report.Status, action, actor.Role, req.Resolution)
		if err != nil {
			return err
		}

		reviewer := actor.ID
		err = tx.Reports().Transition(ctx, report.ID, t.From, repository.ReportUpdate{
			To:         t.To,
			Resolution: strings.TrimSpace(req.Resolution),
			ReviewedBy: &reviewer,
		})
		if err != nil {
			return storeErr(err, ErrReportNotFound)
		}

		logTransition(workflow.EntityReport, report.ID, t, actor)
		report.Status = t.To
		report.ReviewedBy = &reviewer
		if r := strings.TrimSpace(req.Resolution); r != "" {
			report.Resolution = r
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.cache.Invalidate(ctx, scopeReports)
	}
	return report, nil
}
