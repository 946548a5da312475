package repository

import (
	"context"
	"errors"

	"github.com/healthlane/claimflow/internal/insurer/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, insurer *domain.Insurer) error {
	return db.WithContext(ctx).Create(insurer).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, insurer *domain.Insurer) error {
	return db.WithContext(ctx).Save(insurer).Error
}

func (r *repo) FindByCode(ctx context.Context, db *gorm.DB, code string) (*domain.Insurer, error) {
	var insurer domain.Insurer
	err := db.WithContext(ctx).
		Where("code = ?", code).
		First(&insurer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &insurer, nil
}

func (r *repo) ListActive(ctx context.Context, db *gorm.DB) ([]*domain.Insurer, error) {
	var insurers []*domain.Insurer
	err := db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name asc").
		Find(&insurers).Error
	if err != nil {
		return nil, err
	}
	return insurers, nil
}
