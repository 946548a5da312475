package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/healthlane/claimflow/internal/claim/domain"
	"github.com/healthlane/claimflow/internal/costmodel"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AddItem appends a line to a pending or batched claim and recomputes the
// claim total. A batched claim's batch aggregate is recalculated in the same
// transaction.
func (s *Service) AddItem(ctx context.Context, claimID snowflake.ID, input domain.ClaimItemInput) (*domain.Claim, error) {
	if err := validateItem(input); err != nil {
		return nil, err
	}

	return s.mutateItems(ctx, claimID, func(tx *gorm.DB, claim *domain.Claim) error {
		now := s.clock.Now()
		item := domain.ClaimItem{
			ID:        s.genID.Generate(),
			ClaimID:   claim.ID,
			Name:      strings.TrimSpace(input.Name),
			UnitPrice: input.UnitPrice,
			Quantity:  input.Quantity,
			Subtotal:  costmodel.Round2(input.UnitPrice * float64(input.Quantity)),
			CreatedAt: now,
		}
		if err := s.repo.InsertItems(ctx, tx, []domain.ClaimItem{item}); err != nil {
			return err
		}
		claim.Items = append(claim.Items, item)
		return nil
	})
}

// UpdateItem reprices one line and recomputes the claim total.
func (s *Service) UpdateItem(ctx context.Context, claimID, itemID snowflake.ID, input domain.ClaimItemInput) (*domain.Claim, error) {
	if err := validateItem(input); err != nil {
		return nil, err
	}

	return s.mutateItems(ctx, claimID, func(tx *gorm.DB, claim *domain.Claim) error {
		item, err := s.repo.FindItem(ctx, tx, claim.ID, itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrItemNotFound
		}

		item.Name = strings.TrimSpace(input.Name)
		item.UnitPrice = input.UnitPrice
		item.Quantity = input.Quantity
		item.Subtotal = costmodel.Round2(input.UnitPrice * float64(input.Quantity))
		if err := s.repo.UpdateItem(ctx, tx, item); err != nil {
			return err
		}

		for i := range claim.Items {
			if claim.Items[i].ID == item.ID {
				claim.Items[i] = *item
			}
		}
		return nil
	})
}

// RemoveItem deletes one line. The last line cannot be removed; a claim with
// no items is not a claim.
func (s *Service) RemoveItem(ctx context.Context, claimID, itemID snowflake.ID) (*domain.Claim, error) {
	return s.mutateItems(ctx, claimID, func(tx *gorm.DB, claim *domain.Claim) error {
		item, err := s.repo.FindItem(ctx, tx, claim.ID, itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrItemNotFound
		}
		if len(claim.Items) <= 1 {
			return domain.ErrNoItems
		}
		if err := s.repo.DeleteItem(ctx, tx, item.ID); err != nil {
			return err
		}

		kept := claim.Items[:0]
		for _, it := range claim.Items {
			if it.ID != item.ID {
				kept = append(kept, it)
			}
		}
		claim.Items = kept
		return nil
	})
}

// mutateItems wraps an item mutation: load the claim, apply the change,
// re-derive the claim total and, for batched claims, the batch aggregate.
func (s *Service) mutateItems(ctx context.Context, claimID snowflake.ID, mutate func(tx *gorm.DB, claim *domain.Claim) error) (*domain.Claim, error) {
	var updated *domain.Claim
	err := s.db.Transaction(func(tx *gorm.DB) error {
		claim, err := s.repo.FindByID(ctx, tx, claimID)
		if err != nil {
			return err
		}
		if claim == nil {
			return domain.ErrClaimNotFound
		}
		if claim.Status != domain.ClaimStatusPending && claim.Status != domain.ClaimStatusBatched {
			return domain.ErrClaimNotEditable
		}

		if err := mutate(tx, claim); err != nil {
			return err
		}

		total := 0.0
		for _, it := range claim.Items {
			total += it.Subtotal
		}
		now := s.clock.Now()
		claim.TotalAmount = costmodel.Round2(total)
		claim.UpdatedAt = now
		err = s.repo.UpdateClaim(ctx, tx, claim.ID, map[string]any{
			"total_amount": claim.TotalAmount,
			"updated_at":   now,
		})
		if err != nil {
			return err
		}

		if claim.BatchID != nil {
			if err := s.batchSvc.RecalculateInTx(ctx, tx, *claim.BatchID); err != nil {
				return err
			}
		}

		updated = claim
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("claim items updated",
		zap.String("claim_id", updated.ID.String()),
		zap.Int("items", len(updated.Items)),
		zap.Float64("total_amount", updated.TotalAmount),
	)
	return updated, nil
}
