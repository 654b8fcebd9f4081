package repository

import (
	"context"

	"github.com/afzalm/cclms/internal/models"
	"github.com/afzalm/cclms/internal/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type courseRepo struct {
	db *gorm.DB
}

func (r *courseRepo) Create(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).Create(course).Error
}

func (r *courseRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).First(&course, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &course, nil
}

func (r *courseRepo) List(ctx context.Context, f CourseFilter, p pagination.Request) ([]models.Course, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Course{}).Scopes(courseFilter(f))

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var courses []models.Course
	if err := query.Order("created_at DESC").Limit(p.Limit()).Offset(p.Offset()).Find(&courses).Error; err != nil {
		return nil, 0, err
	}
	return courses, total, nil
}

func (r *courseRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from, to string) error {
	db := r.db.WithContext(ctx)
	res := db.Model(&models.Course{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return conditional(res, countID(db, &models.Course{}, id))
}

func courseFilter(f CourseFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.Status != "" {
			db = db.Where("status = ?", f.Status)
		}
		if f.TrainerID != nil {
			db = db.Where("trainer_id = ?", *f.TrainerID)
		}
		if f.Search != "" {
			db = db.Where("title ILIKE ?", likePattern(f.Search))
		}
		return db
	}
}

func (r *courseRepo) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return countBy(r.db.WithContext(ctx), &models.Course{}, "status")
}

func (r *courseRepo) Totals(ctx context.Context) (int64, int64, error) {
	var row struct {
		Enrollments int64
		Revenue     int64
	}
	err := r.db.WithContext(ctx).Model(&models.Course{}).
		Select("COALESCE(SUM(enrollment_count), 0) AS enrollments, COALESCE(SUM(revenue_cents), 0) AS revenue").
		Scan(&row).Error
	if err != nil {
		return 0, 0, err
	}
	return row.Enrollments, row.Revenue, nil
}
