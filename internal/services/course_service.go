package services

import (
	"context"
	"math"
	"strings"

	"github.com/afzalm/cclms/internal/cache"
	"github.com/afzalm/cclms/internal/dto"
	"github.com/afzalm/cclms/internal/models"
	"github.com/afzalm/cclms/internal/pagination"
	"github.com/afzalm/cclms/internal/repository"
	"github.com/afzalm/cclms/internal/workflow"
	"github.com/google/uuid"
)

type CourseService struct {
	store repository.Store
	cache *cache.QueryCache
}

func NewCourseService(store repository.Store, qc *cache.QueryCache) *CourseService {
	return &CourseService{store: store, cache: qc}
}

func ParseCourseFilter(search, status string) (repository.CourseFilter, error) {
	f := repository.CourseFilter{Search: strings.TrimSpace(search)}
	if strings.EqualFold(strings.TrimSpace(status), "all") {
		return f, nil
	}
	st, ok := workflow.NormalizeStatus(workflow.EntityCourse, status)
	if !ok {
		return f, invalid("unknown course status %q", status)
	}
	f.Status = st
	return f, nil
}

func (s *CourseService) List(ctx context.Context, f repository.CourseFilter, req pagination.Request) (*Page[models.Course], error) {
	return listPage(ctx, s.cache, scopeCourses, f, req, func(p pagination.Request) ([]models.Course, int64, error) {
		return s.store.Courses().List(ctx, f, p)
	})
}

// ListMine lists the trainer's own courses.
func (s *CourseService) ListMine(ctx context.Context, trainer Actor, f repository.CourseFilter, req pagination.Request) (*Page[models.Course], error) {
	id := trainer.ID
	f.TrainerID = &id
	return s.List(ctx, f, req)
}

// Create stores a new DRAFT course owned by the trainer. Pending trainers
// cannot author courses until an admin activates them.
func (s *CourseService) Create(ctx context.Context, trainer Actor, req *dto.CreateCourseRequest) (*models.Course, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, invalid("title is required")
	}
	if req.Price < 0 {
		return nil, invalid("price cannot be negative")
	}

	user, err := s.store.Users().FindByID(ctx, trainer.ID)
	if err != nil {
		return nil, storeErr(err, ErrUserNotFound)
	}
	switch user.Status {
	case workflow.UserSuspended:
		return nil, ErrAccountSuspended
	case workflow.UserPending:
		return nil, ErrAccountPending
	}

	course := models.Course{
		ID:          uuid.New(),
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		Status:      workflow.CourseDraft,
		TrainerID:   trainer.ID,
		PriceCents:  int64(math.Round(req.Price * 100)),
	}
	if err := s.store.Courses().Create(ctx, &course); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, scopeCourses)
	return &course, nil
}

// Apply runs a course lifecycle action for an admin.
func (s *CourseService) Apply(ctx context.Context, actor Actor, courseID uuid.UUID, action workflow.Action) (*models.Course, error) {
	var updated *models.Course
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		c, err := applyCourseAction(ctx, tx, actor, courseID, action)
		updated = c
		return err
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, scopeCourses)
	return updated, nil
}

func applyCourseAction(ctx context.Context, tx repository.Store, actor Actor, courseID uuid.UUID, action workflow.Action) (*models.Course, error) {
	courses := tx.Courses()
	course, err := courses.FindByID(ctx, courseID)
	if err != nil {
		return nil, storeErr(err, ErrCourseNotFound)
	}

	t, err := workflow.Validate(workflow.EntityCourse, course.Status, action, actor.Role, "")
	if err != nil {
		return nil, err
	}
	if err := courses.TransitionStatus(ctx, course.ID, t.From, t.To); err != nil {
		return nil, storeErr(err, ErrCourseNotFound)
	}

	logTransition(workflow.EntityCourse, course.ID, t, actor)
	course.Status = t.To
	return course, nil
}
