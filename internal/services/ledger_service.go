package services

import (
	"context"
	"fmt"
	"strings"

	"financas/internal/core"
	"financas/internal/log"
	"financas/internal/ports"
)

// LedgerRepository stores expenses, incomes and their categories.
type LedgerRepository interface {
	ports.EntryStore
	ports.CategoryStore
}

// LedgerService manages expenses, incomes and categories.
type LedgerService struct {
	repo   LedgerRepository
	logger *log.Logger
}

func NewLedgerService(repo LedgerRepository, logger *log.Logger) *LedgerService {
	if logger == nil {
		logger = log.Discard()
	}
	return &LedgerService{repo: repo, logger: logger.WithComponent(log.ComponentLedger)}
}

// normalizeEntry validates e and rewrites its amount in canonical pt-BR form.
func normalizeEntry(e core.Entry) (core.Entry, error) {
	e.Description = strings.TrimSpace(e.Description)
	e.Category = strings.TrimSpace(e.Category)
	if err := e.Validate(); err != nil {
		return core.Entry{}, err
	}
	amount, err := core.ParseLocaleAmount(e.Amount)
	if err != nil {
		return core.Entry{}, core.ErrInvalidAmount
	}
	e.Amount = core.FormatLocaleAmount(amount)
	return e, nil
}

func (s *LedgerService) CreateEntry(ctx context.Context, ownerID string, e core.Entry) (core.Entry, error) {
	e, err := normalizeEntry(e)
	if err != nil {
		return core.Entry{}, err
	}
	e.OwnerID = ownerID
	id, err := s.repo.AddEntry(ctx, e)
	if err != nil {
		return core.Entry{}, fmt.Errorf("save %s: %w", e.Kind, err)
	}
	e.ID = id
	s.logger.InfoContext(ctx, "Entry created",
		log.NewFields().WithOwner(ownerID).WithEntry(string(e.Kind), id).WithOperation(log.OpCreate).ToSlice()...)
	return e, nil
}

func (s *LedgerService) ListEntries(ctx context.Context, ownerID string, kind core.EntryKind) ([]core.Entry, error) {
	if !kind.Valid() {
		return nil, core.ErrInvalidKind
	}
	ctx, cancel := context.WithTimeout(ctx, storeReadTimeout)
	defer cancel()
	entries, err := s.repo.ListEntries(ctx, kind, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	return entries, nil
}

func (s *LedgerService) getEntry(ctx context.Context, ownerID string, kind core.EntryKind, id string) (core.Entry, error) {
	e, err := s.repo.GetEntry(ctx, kind, id)
	if err != nil {
		return core.Entry{}, err
	}
	if err := checkOwner(ownerID, e.OwnerID, string(kind), id); err != nil {
		return core.Entry{}, err
	}
	return e, nil
}

func (s *LedgerService) UpdateEntry(ctx context.Context, ownerID string, e core.Entry) (core.Entry, error) {
	e, err := normalizeEntry(e)
	if err != nil {
		return core.Entry{}, err
	}
	existing, err := s.getEntry(ctx, ownerID, e.Kind, e.ID)
	if err != nil {
		return core.Entry{}, err
	}
	e.OwnerID = existing.OwnerID
	e.CreatedAt = existing.CreatedAt
	if err := s.repo.UpdateEntry(ctx, e); err != nil {
		return core.Entry{}, fmt.Errorf("update %s: %w", e.Kind, err)
	}
	return e, nil
}

func (s *LedgerService) DeleteEntry(ctx context.Context, ownerID string, kind core.EntryKind, id string) error {
	if _, err := s.getEntry(ctx, ownerID, kind, id); err != nil {
		return err
	}
	if err := s.repo.DeleteEntry(ctx, kind, id); err != nil {
		return fmt.Errorf("delete %s: %w", kind, err)
	}
	s.logger.InfoContext(ctx, "Entry deleted",
		log.NewFields().WithOwner(ownerID).WithEntry(string(kind), id).WithOperation(log.OpDelete).ToSlice()...)
	return nil
}

func (s *LedgerService) CreateCategory(ctx context.Context, ownerID string, c core.Category) (core.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	existing, err := s.repo.ListCategories(ctx, ownerID, c.Kind)
	if err != nil {
		return core.Category{}, fmt.Errorf("list categories: %w", err)
	}
	for _, e := range existing {
		if strings.EqualFold(e.Name, c.Name) {
			return core.Category{}, fmt.Errorf("category %q: %w", c.Name, core.ErrConflict)
		}
	}
	c.OwnerID = ownerID
	id, err := s.repo.AddCategory(ctx, c)
	if err != nil {
		return core.Category{}, fmt.Errorf("save category: %w", err)
	}
	c.ID = id
	return c, nil
}

// ListCategories lists categories of one kind, or of both when kind is empty.
func (s *LedgerService) ListCategories(ctx context.Context, ownerID string, kind core.EntryKind) ([]core.Category, error) {
	if kind != "" && !kind.Valid() {
		return nil, core.ErrInvalidKind
	}
	cats, err := s.repo.ListCategories(ctx, ownerID, kind)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

func (s *LedgerService) DeleteCategory(ctx context.Context, ownerID, id string) error {
	c, err := s.repo.GetCategory(ctx, id)
	if err != nil {
		return err
	}
	if err := checkOwner(ownerID, c.OwnerID, "category", id); err != nil {
		return err
	}
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}
