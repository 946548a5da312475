package service

import (
	"context"
	"strings"

	"github.com/healthlane/claimflow/internal/insurer/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo domain.Repository
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("insurer.service"),
		repo: p.Repo,
	}
}

func (s *Service) GetActiveByCode(ctx context.Context, code string) (*domain.Insurer, error) {
	insurer, err := s.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !insurer.IsActive {
		return nil, domain.ErrInsurerInactive
	}
	return insurer, nil
}

func (s *Service) GetByCode(ctx context.Context, code string) (*domain.Insurer, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, domain.ErrInsurerNotFound
	}

	insurer, err := s.repo.FindByCode(ctx, s.db, code)
	if err != nil {
		return nil, err
	}
	if insurer == nil {
		return nil, domain.ErrInsurerNotFound
	}
	return insurer, nil
}

func (s *Service) ListActive(ctx context.Context) ([]*domain.Insurer, error) {
	return s.repo.ListActive(ctx, s.db)
}
