package repository

import (
	"context"

	"github.com/afzalm/cclms/internal/models"
	"github.com/afzalm/cclms/internal/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type userRepo struct {
	db *gorm.DB
}

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *userRepo) List(ctx context.Context, f UserFilter, p pagination.Request) ([]models.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.User{}).Scopes(userFilter(f))

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	if err := query.Order("created_at DESC").Limit(p.Limit()).Offset(p.Offset()).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *userRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from, to string) error {
	db := r.db.WithContext(ctx)
	res := db.Model(&models.User{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return conditional(res, countID(db, &models.User{}, id))
}

func userFilter(f UserFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.Role != "" {
			db = db.Where("role = ?", f.Role)
		}
		if f.Status != "" {
			db = db.Where("status = ?", f.Status)
		}
		if f.Search != "" {
			pattern := likePattern(f.Search)
			db = db.Where("email ILIKE ? OR name ILIKE ?", pattern, pattern)
		}
		return db
	}
}

func (r *userRepo) CountByRole(ctx context.Context) (map[string]int64, error) {
	return countBy(r.db.WithContext(ctx), &models.User{}, "role")
}

func (r *userRepo) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return countBy(r.db.WithContext(ctx), &models.User{}, "status")
}
