package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/healthlane/claimflow/internal/batch/domain"
	claimdomain "github.com/healthlane/claimflow/internal/claim/domain"
	"github.com/healthlane/claimflow/internal/clock"
	insurerdomain "github.com/healthlane/claimflow/internal/insurer/domain"
	obsmetrics "github.com/healthlane/claimflow/internal/observability/metrics"
	"github.com/healthlane/claimflow/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        domain.Repository
	InsurerRepo insurerdomain.Repository
	Notifier    domain.Notifier
	Metrics     *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        domain.Repository
	insurerRepo insurerdomain.Repository
	notifier    domain.Notifier
	metrics     *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("batch.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		insurerRepo: p.InsurerRepo,
		notifier:    p.Notifier,
		metrics:     p.Metrics,
	}
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.BatchSummary, []*claimdomain.Claim, error) {
	batch, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, nil, err
	}
	if batch == nil {
		return nil, nil, domain.ErrBatchNotFound
	}

	ins, err := s.insurerRepo.FindByCode(ctx, s.db, batch.InsurerCode)
	if err != nil {
		return nil, nil, err
	}
	if ins == nil {
		return nil, nil, insurerdomain.ErrInsurerNotFound
	}

	claims, err := s.repo.ListClaims(ctx, s.db, batch.ID)
	if err != nil {
		return nil, nil, err
	}

	return s.summarize(batch, ins), claims, nil
}

func (s *Service) List(ctx context.Context, req domain.ListBatchRequest) (domain.ListBatchResponse, error) {
	page := req.Page.Normalize()
	filter := domain.ListBatchFilter{
		Status:       domain.BatchStatus(req.Status),
		InsurerCode:  req.InsurerCode,
		ProviderName: req.ProviderName,
	}

	batches, total, err := s.repo.List(ctx, s.db, filter, page)
	if err != nil {
		return domain.ListBatchResponse{}, err
	}

	insurers := make(map[string]*insurerdomain.Insurer)
	summaries := make([]*domain.BatchSummary, 0, len(batches))
	for _, batch := range batches {
		ins, ok := insurers[batch.InsurerCode]
		if !ok {
			ins, err = s.insurerRepo.FindByCode(ctx, s.db, batch.InsurerCode)
			if err != nil {
				return domain.ListBatchResponse{}, err
			}
			insurers[batch.InsurerCode] = ins
		}
		if ins == nil {
			continue
		}
		summaries = append(summaries, s.summarize(batch, ins))
	}

	return domain.ListBatchResponse{
		Batches:  summaries,
		PageInfo: pagination.BuildPageInfo(page, total),
	}, nil
}

func (s *Service) summarize(batch *domain.Batch, ins *insurerdomain.Insurer) *domain.BatchSummary {
	return &domain.BatchSummary{
		Batch:           batch,
		Insurer:         ins,
		OptimalityScore: batch.OptimalityScore(ins),
		FillPercentage:  batch.FillPercentage(ins),
		CanProcess:      batch.Status == domain.BatchStatusPending && batch.HasMinimumClaims(ins) && ins.IsActive,
		Providers:       batch.Providers(),
		ProviderStats:   batch.ProviderBreakdown.Data(),
	}
}
