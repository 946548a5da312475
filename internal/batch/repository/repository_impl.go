package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/healthlane/claimflow/internal/batch/domain"
	claimdomain "github.com/healthlane/claimflow/internal/claim/domain"
	"github.com/healthlane/claimflow/pkg/db/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, batch *domain.Batch) error {
	return db.WithContext(ctx).Create(batch).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, batch *domain.Batch) error {
	return db.WithContext(ctx).Save(batch).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Delete(&domain.Batch{}, "id = ?", id).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Batch, error) {
	var batch domain.Batch
	err := db.WithContext(ctx).First(&batch, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

func (r *repo) FindOpenForUpdate(ctx context.Context, db *gorm.DB, insurerCode string, date time.Time, maxBatchSize int) (*domain.Batch, error) {
	stmt := db.WithContext(ctx).
		Where("insurer_code = ? AND batch_date = ?", insurerCode, date).
		Where("status = ?", domain.BatchStatusPending).
		Where("total_claims < ?", maxBatchSize).
		Order("total_claims desc")
	stmt = lockForUpdate(stmt)

	var batch domain.Batch
	err := stmt.First(&batch).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

func (r *repo) ExistsForDate(ctx context.Context, db *gorm.DB, insurerCode string, date time.Time) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Batch{}).
		Where("insurer_code = ? AND batch_date = ?", insurerCode, date).
		Where("status <> ?", domain.BatchStatusFailed).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) UpdateStatusGuarded(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to domain.BatchStatus, updates map[string]any) (bool, error) {
	set := map[string]any{"status": to}
	for k, v := range updates {
		set[k] = v
	}

	res := db.WithContext(ctx).
		Model(&domain.Batch{}).
		Where("id = ? AND status = ?", id, from).
		Updates(set)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repo) ListClaims(ctx context.Context, db *gorm.DB, batchID snowflake.ID) ([]*claimdomain.Claim, error) {
	var claims []*claimdomain.Claim
	err := db.WithContext(ctx).
		Where("batch_id = ? AND status = ?", batchID, claimdomain.ClaimStatusBatched).
		Order("created_at asc, id asc").
		Find(&claims).Error
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func (r *repo) ListPendingWithClaims(ctx context.Context, db *gorm.DB) ([]*domain.Batch, error) {
	var batches []*domain.Batch
	err := db.WithContext(ctx).
		Where("status = ? AND total_claims > 0", domain.BatchStatusPending).
		Order("batch_date asc, id asc").
		Find(&batches).Error
	if err != nil {
		return nil, err
	}
	return batches, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListBatchFilter, page pagination.Pagination) ([]*domain.Batch, int64, error) {
	stmt := db.WithContext(ctx).Model(&domain.Batch{})
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.InsurerCode != "" {
		stmt = stmt.Where("insurer_code = ?", filter.InsurerCode)
	}
	if filter.ProviderName != "" {
		stmt = stmt.Where(
			"id IN (?)",
			db.Model(&claimdomain.Claim{}).Select("batch_id").Where("provider_name = ? AND batch_id IS NOT NULL", filter.ProviderName),
		)
	}

	var total int64
	if err := stmt.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var batches []*domain.Batch
	err := stmt.
		Order("created_at desc, id desc").
		Offset(page.Offset()).
		Limit(page.PerPage).
		Find(&batches).Error
	if err != nil {
		return nil, 0, err
	}
	return batches, total, nil
}

// lockForUpdate adds a row lock on dialects that support it. SQLite serializes
// writers on its own.
func lockForUpdate(stmt *gorm.DB) *gorm.DB {
	if stmt.Dialector.Name() == "sqlite" {
		return stmt
	}
	return stmt.Clauses(clause.Locking{Strength: "UPDATE"})
}
