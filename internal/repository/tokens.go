package repository

import (
	"context"
	"time"

	"github.com/afzalm/cclms/internal/models"
	"gorm.io/gorm"
)

type tokenRepo struct {
	db *gorm.DB
}

func (r *tokenRepo) Create(ctx context.Context, token *models.RefreshToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

// FindActive returns an unrevoked, unexpired token.
func (r *tokenRepo) FindActive(ctx context.Context, hash string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	err := r.db.WithContext(ctx).
		Where("token_hash = ? AND revoked = false AND expires_at > ?", hash, time.Now()).
		First(&token).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &token, nil
}

func (r *tokenRepo) Revoke(ctx context.Context, hash string) error {
	return r.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ?", hash).
		Update("revoked", true).Error
}
