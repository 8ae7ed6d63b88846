// Package memory is an in-process data backend. It backs DATA_BACKEND=memory
// and the service and handler tests.
package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"financas/internal/core"
	"financas/internal/ports"
)

var _ ports.Store = (*Store)(nil)

type Store struct {
	mu         sync.Mutex
	fixedCosts map[string]core.FixedCost
	budgets    map[string]core.Budget
	goals      map[string]core.Goal
	entries    map[string]core.Entry
	categories map[string]core.Category
	users      map[string]core.User
	sessions   map[string]core.Session

	// order keeps insertion order per collection so listings are stable.
	order map[string][]string
	now   func() time.Time
}

func New() *Store {
	return &Store{
		fixedCosts: map[string]core.FixedCost{},
		budgets:    map[string]core.Budget{},
		goals:      map[string]core.Goal{},
		entries:    map[string]core.Entry{},
		categories: map[string]core.Category{},
		users:      map[string]core.User{},
		sessions:   map[string]core.Session{},
		order:      map[string][]string{},
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) newID(collection string) string {
	id := uuid.NewString()
	s.order[collection] = append(s.order[collection], id)
	return id
}

func (s *Store) forget(collection, id string) {
	s.order[collection] = slices.DeleteFunc(s.order[collection], func(v string) bool { return v == id })
}

func notFound(what, id string) error {
	return fmt.Errorf("%s %q: %w", what, id, core.ErrNotFound)
}

// Fixed costs

func (s *Store) AddFixedCost(_ context.Context, c core.FixedCost) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.newID("fixed_costs")
	c.CreatedAt, c.UpdatedAt = s.now(), s.now()
	s.fixedCosts[c.ID] = c
	return c.ID, nil
}

func (s *Store) GetFixedCost(_ context.Context, id string) (core.FixedCost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.fixedCosts[id]
	if !ok {
		return core.FixedCost{}, notFound("fixed cost", id)
	}
	return c, nil
}

func (s *Store) UpdateFixedCost(_ context.Context, c core.FixedCost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.fixedCosts[c.ID]
	if !ok {
		return notFound("fixed cost", c.ID)
	}
	c.CreatedAt, c.UpdatedAt = old.CreatedAt, s.now()
	s.fixedCosts[c.ID] = c
	return nil
}

func (s *Store) DeleteFixedCost(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.fixedCosts[id]; !ok {
		return notFound("fixed cost", id)
	}
	delete(s.fixedCosts, id)
	s.forget("fixed_costs", id)
	return nil
}

func (s *Store) ListFixedCosts(_ context.Context, ownerID string) ([]core.FixedCost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.FixedCost
	for _, id := range s.order["fixed_costs"] {
		if c := s.fixedCosts[id]; c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	return out, nil
}

// Budgets

func cloneBudget(b core.Budget) core.Budget {
	b.FixedCostIDs = slices.Clone(b.FixedCostIDs)
	b.FixedCosts = slices.Clone(b.FixedCosts)
	return b
}

func (s *Store) AddBudget(_ context.Context, b core.Budget) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b = cloneBudget(b)
	b.ID = s.newID("budgets")
	b.CreatedAt, b.UpdatedAt = s.now(), s.now()
	s.budgets[b.ID] = b
	return b.ID, nil
}

func (s *Store) GetBudget(_ context.Context, id string) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok {
		return core.Budget{}, notFound("budget", id)
	}
	return cloneBudget(b), nil
}

func (s *Store) UpdateBudget(_ context.Context, b core.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.budgets[b.ID]
	if !ok {
		return notFound("budget", b.ID)
	}
	b = cloneBudget(b)
	b.CreatedAt, b.UpdatedAt = old.CreatedAt, s.now()
	s.budgets[b.ID] = b
	return nil
}

func (s *Store) DeleteBudget(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.budgets[id]; !ok {
		return notFound("budget", id)
	}
	delete(s.budgets, id)
	s.forget("budgets", id)
	return nil
}

func (s *Store) ListBudgets(_ context.Context, ownerID string) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Budget
	for _, id := range s.order["budgets"] {
		if b := s.budgets[id]; b.OwnerID == ownerID {
			out = append(out, cloneBudget(b))
		}
	}
	return out, nil
}

// Goals

func (s *Store) AddGoal(_ context.Context, g core.Goal) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g.ID = s.newID("goals")
	g.CreatedAt, g.UpdatedAt = s.now(), s.now()
	s.goals[g.ID] = g
	return g.ID, nil
}

func (s *Store) GetGoal(_ context.Context, id string) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.goals[id]
	if !ok {
		return core.Goal{}, notFound("goal", id)
	}
	return g, nil
}

func (s *Store) UpdateGoal(_ context.Context, g core.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.goals[g.ID]
	if !ok {
		return notFound("goal", g.ID)
	}
	g.CreatedAt, g.UpdatedAt = old.CreatedAt, s.now()
	s.goals[g.ID] = g
	return nil
}

func (s *Store) DeleteGoal(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.goals[id]; !ok {
		return notFound("goal", id)
	}
	delete(s.goals, id)
	s.forget("goals", id)
	return nil
}

func (s *Store) ListGoals(_ context.Context, ownerID string) ([]core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Goal
	for _, id := range s.order["goals"] {
		if g := s.goals[id]; g.OwnerID == ownerID {
			out = append(out, g)
		}
	}
	return out, nil
}

// Entries

func (s *Store) AddEntry(_ context.Context, e core.Entry) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.newID("entries")
	e.CreatedAt = s.now()
	s.entries[e.ID] = e
	return e.ID, nil
}

func (s *Store) GetEntry(_ context.Context, kind core.EntryKind, id string) (core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok || e.Kind != kind {
		return core.Entry{}, notFound(string(kind), id)
	}
	return e, nil
}

func (s *Store) UpdateEntry(_ context.Context, e core.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.entries[e.ID]
	if !ok || old.Kind != e.Kind {
		return notFound(string(e.Kind), e.ID)
	}
	e.CreatedAt = old.CreatedAt
	s.entries[e.ID] = e
	return nil
}

func (s *Store) DeleteEntry(_ context.Context, kind core.EntryKind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[id]; !ok || e.Kind != kind {
		return notFound(string(kind), id)
	}
	delete(s.entries, id)
	s.forget("entries", id)
	return nil
}

func (s *Store) ListEntries(_ context.Context, kind core.EntryKind, ownerID string) ([]core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Entry
	for _, id := range s.order["entries"] {
		if e := s.entries[id]; e.Kind == kind && e.OwnerID == ownerID {
			out = append(out, e)
		}
	}
	return out, nil
}

// Categories

func (s *Store) AddCategory(_ context.Context, c core.Category) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.newID("categories")
	s.categories[c.ID] = c
	return c.ID, nil
}

func (s *Store) GetCategory(_ context.Context, id string) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return core.Category{}, notFound("category", id)
	}
	return c, nil
}

func (s *Store) DeleteCategory(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return notFound("category", id)
	}
	delete(s.categories, id)
	s.forget("categories", id)
	return nil
}

func (s *Store) ListCategories(_ context.Context, ownerID string, kind core.EntryKind) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Category
	for _, id := range s.order["categories"] {
		c := s.categories[id]
		if c.OwnerID != ownerID || (kind != "" && c.Kind != kind) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// Users and sessions

func (s *Store) CreateUser(_ context.Context, u core.User) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return "", fmt.Errorf("email %q: %w", u.Email, core.ErrConflict)
		}
	}
	u.ID = s.newID("users")
	u.CreatedAt = s.now()
	s.users[u.ID] = u
	return u.ID, nil
}

func (s *Store) GetUser(_ context.Context, id string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, notFound("user", id)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return core.User{}, notFound("user", email)
}

func (s *Store) ReplaceSession(_ context.Context, sess core.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for hash, existing := range s.sessions {
		if existing.UserID == sess.UserID {
			delete(s.sessions, hash)
		}
	}
	s.sessions[sess.TokenHash] = sess
	return nil
}

func (s *Store) GetSession(_ context.Context, tokenHash string) (core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[tokenHash]
	if !ok {
		return core.Session{}, notFound("session", "")
	}
	return sess, nil
}

func (s *Store) ExtendSession(_ context.Context, tokenHash string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[tokenHash]
	if !ok {
		return notFound("session", "")
	}
	sess.ExpiresAt = expiresAt
	s.sessions[tokenHash] = sess
	return nil
}

func (s *Store) DeleteSession(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, tokenHash)
	return nil
}
