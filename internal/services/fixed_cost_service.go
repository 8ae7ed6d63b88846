package services

import (
	"context"
	"fmt"

	"financas/internal/core"
	"financas/internal/log"
	"financas/internal/ports"
)

// FixedCostService manages fixed costs. Deleting one leaves budgets that
// reference it untouched; the aggregator treats the id as missing.
type FixedCostService struct {
	store  ports.FixedCostStore
	logger *log.Logger
}

func NewFixedCostService(store ports.FixedCostStore, logger *log.Logger) *FixedCostService {
	if logger == nil {
		logger = log.Discard()
	}
	return &FixedCostService{store: store, logger: logger.WithComponent(log.ComponentFixedCost)}
}

func (s *FixedCostService) Create(ctx context.Context, ownerID string, c core.FixedCost) (core.FixedCost, error) {
	if err := c.Validate(); err != nil {
		return core.FixedCost{}, err
	}
	c.OwnerID = ownerID
	id, err := s.store.AddFixedCost(ctx, c)
	if err != nil {
		return core.FixedCost{}, fmt.Errorf("save fixed cost: %w", err)
	}
	c.ID = id
	s.logger.InfoContext(ctx, "Fixed cost created",
		log.FieldOwnerID, ownerID, log.FieldFixedCostID, id, log.FieldAmount, c.Amount.String())
	return c, nil
}

func (s *FixedCostService) Get(ctx context.Context, ownerID, id string) (core.FixedCost, error) {
	c, err := s.store.GetFixedCost(ctx, id)
	if err != nil {
		return core.FixedCost{}, err
	}
	if err := checkOwner(ownerID, c.OwnerID, "fixed cost", id); err != nil {
		return core.FixedCost{}, err
	}
	return c, nil
}

func (s *FixedCostService) List(ctx context.Context, ownerID string) ([]core.FixedCost, error) {
	ctx, cancel := context.WithTimeout(ctx, storeReadTimeout)
	defer cancel()
	costs, err := s.store.ListFixedCosts(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list fixed costs: %w", err)
	}
	return costs, nil
}

// Update replaces name and amount. Stored budget snapshots keep the old
// values until the budget itself is updated.
func (s *FixedCostService) Update(ctx context.Context, ownerID string, c core.FixedCost) (core.FixedCost, error) {
	if err := c.Validate(); err != nil {
		return core.FixedCost{}, err
	}
	existing, err := s.Get(ctx, ownerID, c.ID)
	if err != nil {
		return core.FixedCost{}, err
	}
	c.OwnerID = existing.OwnerID
	c.CreatedAt = existing.CreatedAt
	if err := s.store.UpdateFixedCost(ctx, c); err != nil {
		return core.FixedCost{}, fmt.Errorf("update fixed cost: %w", err)
	}
	s.logger.InfoContext(ctx, "Fixed cost updated", log.FieldOwnerID, ownerID, log.FieldFixedCostID, c.ID)
	return c, nil
}

func (s *FixedCostService) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.store.DeleteFixedCost(ctx, id); err != nil {
		return fmt.Errorf("delete fixed cost: %w", err)
	}
	s.logger.InfoContext(ctx, "Fixed cost deleted", log.FieldOwnerID, ownerID, log.FieldFixedCostID, id)
	return nil
}
