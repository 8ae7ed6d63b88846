package services

import (
	"context"
	"fmt"

	"financas/internal/core"
	"financas/internal/log"
	"financas/internal/ports"
)

type GoalService struct {
	store  ports.GoalStore
	logger *log.Logger
}

func NewGoalService(store ports.GoalStore, logger *log.Logger) *GoalService {
	if logger == nil {
		logger = log.Discard()
	}
	return &GoalService{store: store, logger: logger.WithComponent(log.ComponentGoal)}
}

func (s *GoalService) Create(ctx context.Context, ownerID string, g core.Goal) (core.Goal, error) {
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	g.OwnerID = ownerID
	id, err := s.store.AddGoal(ctx, g)
	if err != nil {
		return core.Goal{}, fmt.Errorf("save goal: %w", err)
	}
	g.ID = id
	s.logger.InfoContext(ctx, "Goal created", log.FieldOwnerID, ownerID, "goal_id", id)
	return g, nil
}

func (s *GoalService) Get(ctx context.Context, ownerID, id string) (core.Goal, error) {
	g, err := s.store.GetGoal(ctx, id)
	if err != nil {
		return core.Goal{}, err
	}
	if err := checkOwner(ownerID, g.OwnerID, "goal", id); err != nil {
		return core.Goal{}, err
	}
	return g, nil
}

func (s *GoalService) List(ctx context.Context, ownerID string) ([]core.Goal, error) {
	ctx, cancel := context.WithTimeout(ctx, storeReadTimeout)
	defer cancel()
	goals, err := s.store.ListGoals(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return goals, nil
}

// Update replaces the whole goal.
func (s *GoalService) Update(ctx context.Context, ownerID string, g core.Goal) (core.Goal, error) {
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	existing, err := s.Get(ctx, ownerID, g.ID)
	if err != nil {
		return core.Goal{}, err
	}
	g.OwnerID = existing.OwnerID
	g.CreatedAt = existing.CreatedAt
	if err := s.store.UpdateGoal(ctx, g); err != nil {
		return core.Goal{}, fmt.Errorf("update goal: %w", err)
	}
	return g, nil
}

func (s *GoalService) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.store.DeleteGoal(ctx, id); err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return nil
}
