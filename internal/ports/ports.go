// Package ports declares the persistence and export collaborators the
// services depend on. Get-style methods return core.ErrNotFound (wrapped) when
// the document does not exist.
package ports

import (
	"context"
	"time"

	"financas/internal/core"
)

type (
	FixedCostStore interface {
		AddFixedCost(ctx context.Context, c core.FixedCost) (id string, err error)
		GetFixedCost(ctx context.Context, id string) (core.FixedCost, error)
		UpdateFixedCost(ctx context.Context, c core.FixedCost) error
		DeleteFixedCost(ctx context.Context, id string) error
		ListFixedCosts(ctx context.Context, ownerID string) ([]core.FixedCost, error)
	}

	BudgetStore interface {
		AddBudget(ctx context.Context, b core.Budget) (id string, err error)
		GetBudget(ctx context.Context, id string) (core.Budget, error)
		UpdateBudget(ctx context.Context, b core.Budget) error
		DeleteBudget(ctx context.Context, id string) error
		ListBudgets(ctx context.Context, ownerID string) ([]core.Budget, error)
	}

	GoalStore interface {
		AddGoal(ctx context.Context, g core.Goal) (id string, err error)
		GetGoal(ctx context.Context, id string) (core.Goal, error)
		UpdateGoal(ctx context.Context, g core.Goal) error
		DeleteGoal(ctx context.Context, id string) error
		ListGoals(ctx context.Context, ownerID string) ([]core.Goal, error)
	}

	// EntryStore persists expenses and incomes.
	EntryStore interface {
		AddEntry(ctx context.Context, e core.Entry) (id string, err error)
		GetEntry(ctx context.Context, kind core.EntryKind, id string) (core.Entry, error)
		UpdateEntry(ctx context.Context, e core.Entry) error
		DeleteEntry(ctx context.Context, kind core.EntryKind, id string) error
		ListEntries(ctx context.Context, kind core.EntryKind, ownerID string) ([]core.Entry, error)
	}

	CategoryStore interface {
		AddCategory(ctx context.Context, c core.Category) (id string, err error)
		GetCategory(ctx context.Context, id string) (core.Category, error)
		DeleteCategory(ctx context.Context, id string) error
		// ListCategories returns every category of the owner when kind is empty.
		ListCategories(ctx context.Context, ownerID string, kind core.EntryKind) ([]core.Category, error)
	}

	UserStore interface {
		// CreateUser returns core.ErrConflict when the email is taken.
		CreateUser(ctx context.Context, u core.User) (id string, err error)
		GetUser(ctx context.Context, id string) (core.User, error)
		GetUserByEmail(ctx context.Context, email string) (core.User, error)
	}

	SessionStore interface {
		// ReplaceSession drops every session of the user and stores s.
		ReplaceSession(ctx context.Context, s core.Session) error
		GetSession(ctx context.Context, tokenHash string) (core.Session, error)
		ExtendSession(ctx context.Context, tokenHash string, expiresAt time.Time) error
		DeleteSession(ctx context.Context, tokenHash string) error
	}

	// Store is everything a data backend provides.
	Store interface {
		FixedCostStore
		BudgetStore
		GoalStore
		EntryStore
		CategoryStore
		UserStore
		SessionStore
		Close() error
	}

	// BudgetExporter writes a budget snapshot to an external destination.
	BudgetExporter interface {
		ExportBudget(ctx context.Context, event string, b core.Budget) (ref string, err error)
	}
)
