package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/healthlane/claimflow/internal/claim/domain"
	"github.com/healthlane/claimflow/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertClaim(ctx context.Context, db *gorm.DB, claim *domain.Claim) error {
	return db.WithContext(ctx).Omit("Items").Create(claim).Error
}

func (r *repo) InsertItems(ctx context.Context, db *gorm.DB, items []domain.ClaimItem) error {
	if len(items) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&items).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Claim, error) {
	var claim domain.Claim
	err := db.WithContext(ctx).
		Preload("Items").
		First(&claim, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &claim, nil
}

func (r *repo) FindItem(ctx context.Context, db *gorm.DB, claimID, itemID snowflake.ID) (*domain.ClaimItem, error) {
	var item domain.ClaimItem
	err := db.WithContext(ctx).
		First(&item, "id = ? AND claim_id = ?", itemID, claimID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repo) UpdateClaim(ctx context.Context, db *gorm.DB, id snowflake.ID, updates map[string]any) error {
	return db.WithContext(ctx).
		Model(&domain.Claim{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repo) UpdateItem(ctx context.Context, db *gorm.DB, item *domain.ClaimItem) error {
	return db.WithContext(ctx).Save(item).Error
}

func (r *repo) DeleteItem(ctx context.Context, db *gorm.DB, itemID snowflake.ID) error {
	return db.WithContext(ctx).Delete(&domain.ClaimItem{}, "id = ?", itemID).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListClaimFilter, page pagination.Pagination) ([]*domain.Claim, int64, error) {
	stmt := db.WithContext(ctx).Model(&domain.Claim{})
	if filter.ProviderName != "" {
		stmt = stmt.Where("provider_name LIKE ?", "%"+filter.ProviderName+"%")
	}
	if filter.InsurerCode != "" {
		stmt = stmt.Where("insurer_code = ?", filter.InsurerCode)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.Specialty != "" {
		stmt = stmt.Where("specialty = ?", filter.Specialty)
	}
	if filter.PriorityLevel != nil {
		stmt = stmt.Where("priority_level = ?", *filter.PriorityLevel)
	}
	if filter.DateFrom != nil {
		stmt = stmt.Where("encounter_date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		stmt = stmt.Where("encounter_date <= ?", *filter.DateTo)
	}

	var total int64
	if err := stmt.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var claims []*domain.Claim
	err := stmt.
		Preload("Items").
		Order(orderClause(filter)).
		Offset(page.Offset()).
		Limit(page.PerPage).
		Find(&claims).Error
	if err != nil {
		return nil, 0, err
	}
	return claims, total, nil
}

func (r *repo) CountByStatus(ctx context.Context, db *gorm.DB, status domain.ClaimStatus) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Claim{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}

func (r *repo) Count(ctx context.Context, db *gorm.DB) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Model(&domain.Claim{}).Count(&count).Error
	return count, err
}

// orderClause whitelists sortable columns; anything else falls back to
// creation order.
func orderClause(filter domain.ListClaimFilter) string {
	column := "created_at"
	switch filter.SortBy {
	case "encounter_date", "submission_date", "total_amount", "priority_level", "provider_name", "created_at":
		column = filter.SortBy
	}
	direction := "desc"
	if strings.EqualFold(filter.SortOrder, "asc") {
		direction = "asc"
	}
	return column + " " + direction + ", id " + direction
}
