package repository

import (
	"context"

	"github.com/afzalm/cclms/internal/models"
	"github.com/afzalm/cclms/internal/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type reportRepo struct {
	db *gorm.DB
}

func (r *reportRepo) Create(ctx context.Context, report *models.Report) error {
	return r.db.WithContext(ctx).Create(report).Error
}

func (r *reportRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	var report models.Report
	if err := r.db.WithContext(ctx).First(&report, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &report, nil
}

func (r *reportRepo) List(ctx context.Context, f ReportFilter, p pagination.Request) ([]models.Report, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Report{}).Scopes(reportFilter(f))

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reports []models.Report
	if err := query.Order("created_at DESC").Limit(p.Limit()).Offset(p.Offset()).Find(&reports).Error; err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

func (r *reportRepo) Transition(ctx context.Context, id uuid.UUID, from string, u ReportUpdate) error {
	updates := map[string]interface{}{"status": u.To}
	if u.Resolution != "" {
		updates["resolution"] = u.Resolution
	}
	if u.ReviewedBy != nil {
		updates["reviewed_by"] = *u.ReviewedBy
	}

	db := r.db.WithContext(ctx)
	res := db.Model(&models.Report{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	return conditional(res, countID(db, &models.Report{}, id))
}

func reportFilter(f ReportFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.Status != "" {
			db = db.Where("status = ?", f.Status)
		}
		if f.ContentType != "" {
			db = db.Where("content_type = ?", f.ContentType)
		}
		if f.Severity != "" {
			db = db.Where("severity = ?", f.Severity)
		}
		if f.Search != "" {
			pattern := likePattern(f.Search)
			db = db.Where("reason ILIKE ? OR content_id ILIKE ?", pattern, pattern)
		}
		return db
	}
}

func (r *reportRepo) CreateAction(ctx context.Context, action *models.ModerationAction) error {
	return r.db.WithContext(ctx).Create(action).Error
}

func (r *reportRepo) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return countBy(r.db.WithContext(ctx), &models.Report{}, "status")
}
