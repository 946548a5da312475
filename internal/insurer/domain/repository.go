package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, insurer *Insurer) error
	Update(ctx context.Context, db *gorm.DB, insurer *Insurer) error
	FindByCode(ctx context.Context, db *gorm.DB, code string) (*Insurer, error)
	ListActive(ctx context.Context, db *gorm.DB) ([]*Insurer, error)
}
