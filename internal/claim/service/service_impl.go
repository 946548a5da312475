package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	batchdomain "github.com/healthlane/claimflow/internal/batch/domain"
	"github.com/healthlane/claimflow/internal/claim/domain"
	"github.com/healthlane/claimflow/internal/clock"
	"github.com/healthlane/claimflow/internal/costmodel"
	insurerdomain "github.com/healthlane/claimflow/internal/insurer/domain"
	obsmetrics "github.com/healthlane/claimflow/internal/observability/metrics"
	"github.com/healthlane/claimflow/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultPriorityLevel = 3

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       domain.Repository
	InsurerSvc insurerdomain.Service
	BatchSvc   batchdomain.Service
	Metrics    *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       domain.Repository
	insurerSvc insurerdomain.Service
	batchSvc   batchdomain.Service
	metrics    *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("claim.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		insurerSvc: p.InsurerSvc,
		batchSvc:   p.BatchSvc,
		metrics:    p.Metrics,
	}
}

// Submit validates the request, persists the claim with its items and, when
// AutoBatch is set, allocates it to a batch. Everything commits as one
// transaction: a failed allocation rolls the claim back too.
func (s *Service) Submit(ctx context.Context, req domain.SubmitClaimRequest) (*domain.Claim, error) {
	if err := validateSubmit(req); err != nil {
		return nil, err
	}

	ins, err := s.insurerSvc.GetActiveByCode(ctx, req.InsurerCode)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	submissionDate := now
	if req.SubmissionDate != nil {
		submissionDate = *req.SubmissionDate
	}
	priority := defaultPriorityLevel
	if req.PriorityLevel != nil {
		priority = *req.PriorityLevel
	}

	claim := &domain.Claim{
		ID:             s.genID.Generate(),
		ProviderName:   strings.TrimSpace(req.ProviderName),
		InsurerCode:    ins.Code,
		EncounterDate:  req.EncounterDate,
		SubmissionDate: submissionDate,
		Specialty:      strings.TrimSpace(req.Specialty),
		PriorityLevel:  priority,
		Status:         domain.ClaimStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	items := make([]domain.ClaimItem, 0, len(req.Items))
	total := 0.0
	for _, in := range req.Items {
		subtotal := costmodel.Round2(in.UnitPrice * float64(in.Quantity))
		total += subtotal
		items = append(items, domain.ClaimItem{
			ID:        s.genID.Generate(),
			ClaimID:   claim.ID,
			Name:      strings.TrimSpace(in.Name),
			UnitPrice: in.UnitPrice,
			Quantity:  in.Quantity,
			Subtotal:  subtotal,
			CreatedAt: now,
		})
	}
	claim.TotalAmount = costmodel.Round2(total)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.repo.InsertClaim(ctx, tx, claim); err != nil {
			return err
		}
		if err := s.repo.InsertItems(ctx, tx, items); err != nil {
			return err
		}

		if !req.AutoBatch {
			return nil
		}

		batchDate := claim.BatchDate(ins.BatchDatePreference())
		batch, err := s.batchSvc.FindOrCreateBatchInTx(ctx, tx, ins, batchDate)
		if err != nil {
			return err
		}
		return s.batchSvc.AddClaimInTx(ctx, tx, ins, batch, claim)
	})
	if err != nil {
		return nil, err
	}

	claim.Items = items
	if s.metrics != nil {
		s.metrics.ClaimsSubmitted.Inc()
	}
	s.log.Info("claim submitted",
		zap.String("claim_id", claim.ID.String()),
		zap.String("insurer_code", claim.InsurerCode),
		zap.String("provider_name", claim.ProviderName),
		zap.Float64("total_amount", claim.TotalAmount),
		zap.Bool("auto_batch", req.AutoBatch),
	)
	return claim, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.Claim, error) {
	claim, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if claim == nil {
		return nil, domain.ErrClaimNotFound
	}
	return claim, nil
}

func (s *Service) List(ctx context.Context, req domain.ListClaimRequest) (domain.ListClaimResponse, error) {
	page := req.Page.Normalize()
	filter := domain.ListClaimFilter{
		ProviderName:  req.ProviderName,
		InsurerCode:   req.InsurerCode,
		Status:        domain.ClaimStatus(req.Status),
		Specialty:     req.Specialty,
		PriorityLevel: req.PriorityLevel,
		DateFrom:      req.DateFrom,
		DateTo:        req.DateTo,
		SortBy:        req.SortBy,
		SortOrder:     req.SortOrder,
	}

	claims, total, err := s.repo.List(ctx, s.db, filter, page)
	if err != nil {
		return domain.ListClaimResponse{}, err
	}
	return domain.ListClaimResponse{
		Claims:   claims,
		PageInfo: pagination.BuildPageInfo(page, total),
	}, nil
}

// Cancel cancels a pending or batched claim. A batched claim is detached from
// its batch first so the aggregate stays consistent; both writes share one
// transaction.
func (s *Service) Cancel(ctx context.Context, id snowflake.ID) (*domain.Claim, error) {
	var cancelled *domain.Claim
	err := s.db.Transaction(func(tx *gorm.DB) error {
		claim, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if claim == nil {
			return domain.ErrClaimNotFound
		}

		switch claim.Status {
		case domain.ClaimStatusBatched:
			if err := s.batchSvc.RemoveClaimInTx(ctx, tx, claim); err != nil {
				return err
			}
		case domain.ClaimStatusPending:
			now := s.clock.Now()
			err := s.repo.UpdateClaim(ctx, tx, claim.ID, map[string]any{
				"status":     domain.ClaimStatusCancelled,
				"updated_at": now,
			})
			if err != nil {
				return err
			}
			claim.Status = domain.ClaimStatusCancelled
			claim.UpdatedAt = now
		default:
			return domain.ErrClaimNotCancellable
		}

		cancelled = claim
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ClaimsCancelled.Inc()
	}
	s.log.Info("claim cancelled",
		zap.String("claim_id", cancelled.ID.String()),
		zap.String("insurer_code", cancelled.InsurerCode),
	)
	return cancelled, nil
}

// CostBreakdown evaluates the cost formula at reference dates so callers can
// see how the time-of-month multiplier moves the price. The batch scenario is
// only present for claims already allocated.
func (s *Service) CostBreakdown(ctx context.Context, id snowflake.ID) (*domain.CostScenarios, error) {
	claim, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if claim == nil {
		return nil, domain.ErrClaimNotFound
	}

	ins, err := s.insurerSvc.GetByCode(ctx, claim.InsurerCode)
	if err != nil {
		return nil, err
	}

	factors := claim.CostFactors()
	now := s.clock.Now()
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	endOfMonth := firstOfMonth.AddDate(0, 1, -1)

	scenarios := &domain.CostScenarios{
		CurrentDate:  costmodel.CostBreakdown(ins, factors, now),
		FirstOfMonth: costmodel.CostBreakdown(ins, factors, firstOfMonth),
		EndOfMonth:   costmodel.CostBreakdown(ins, factors, endOfMonth),
	}

	if claim.BatchID != nil {
		summary, _, err := s.batchSvc.Get(ctx, *claim.BatchID)
		if err != nil {
			return nil, err
		}
		onBatchDate := costmodel.CostBreakdown(ins, factors, summary.Batch.BatchDate)
		scenarios.BatchDate = &onBatchDate
	}
	return scenarios, nil
}

func validateSubmit(req domain.SubmitClaimRequest) error {
	if strings.TrimSpace(req.ProviderName) == "" {
		return domain.ErrInvalidProviderName
	}
	if strings.TrimSpace(req.Specialty) == "" {
		return domain.ErrInvalidSpecialty
	}
	if req.EncounterDate.IsZero() {
		return domain.ErrInvalidEncounterDate
	}
	if req.PriorityLevel != nil && (*req.PriorityLevel < 1 || *req.PriorityLevel > 5) {
		return domain.ErrInvalidPriority
	}
	if len(req.Items) == 0 {
		return domain.ErrNoItems
	}
	for _, in := range req.Items {
		if err := validateItem(in); err != nil {
			return err
		}
	}
	return nil
}

func validateItem(in domain.ClaimItemInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return domain.ErrInvalidItemName
	}
	if in.UnitPrice < 0 {
		return domain.ErrInvalidUnitPrice
	}
	if in.Quantity < 1 {
		return domain.ErrInvalidQuantity
	}
	return nil
}
