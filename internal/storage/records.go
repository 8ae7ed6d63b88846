package storage

import (
	"context"
	"fmt"

	"financas/internal/core"
)

type scanner interface{ Scan(...any) error }

func parseStoredDate(s string) (core.Date, error) {
	if s == "" {
		return core.Date{}, nil
	}
	return core.ParseDate(s)
}

// Goals

const goalColumns = `id, owner_id, name, target_amount, current_amount, target_date, created_at, updated_at`

func scanGoal(s scanner) (core.Goal, error) {
	var (
		g                     core.Goal
		target, current, date string
		createdAt, updatedAt  string
	)
	if err := s.Scan(&g.ID, &g.OwnerID, &g.Name, &target, &current, &date, &createdAt, &updatedAt); err != nil {
		return core.Goal{}, err
	}
	var err error
	if g.TargetAmount, err = parseDecimal(target); err != nil {
		return core.Goal{}, err
	}
	if g.CurrentAmount, err = parseDecimal(current); err != nil {
		return core.Goal{}, err
	}
	if g.TargetDate, err = parseStoredDate(date); err != nil {
		return core.Goal{}, fmt.Errorf("parse stored date %q: %w", date, err)
	}
	g.CreatedAt, g.UpdatedAt = parseTime(createdAt), parseTime(updatedAt)
	return g, nil
}

func (r *SQLiteRepository) AddGoal(ctx context.Context, g core.Goal) (string, error) {
	id := newID()
	now := r.stamp()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO goals (`+goalColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, g.OwnerID, g.Name, g.TargetAmount.String(), g.CurrentAmount.String(), g.TargetDate.String(), now, now)
	if err != nil {
		return "", fmt.Errorf("insert goal: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) GetGoal(ctx context.Context, id string) (core.Goal, error) {
	g, err := scanGoal(r.db.QueryRowContext(ctx, `SELECT `+goalColumns+` FROM goals WHERE id = ?`, id))
	if err != nil {
		return core.Goal{}, notFoundOr(err, "goal", id)
	}
	return g, nil
}

func (r *SQLiteRepository) UpdateGoal(ctx context.Context, g core.Goal) error {
	return r.exec(ctx, "update goal", g.ID,
		`UPDATE goals SET name = ?, target_amount = ?, current_amount = ?, target_date = ?, updated_at = ? WHERE id = ?`,
		g.Name, g.TargetAmount.String(), g.CurrentAmount.String(), g.TargetDate.String(), r.stamp(), g.ID)
}

func (r *SQLiteRepository) DeleteGoal(ctx context.Context, id string) error {
	return r.exec(ctx, "delete goal", id, `DELETE FROM goals WHERE id = ?`, id)
}

func (r *SQLiteRepository) ListGoals(ctx context.Context, ownerID string) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+goalColumns+` FROM goals WHERE owner_id = ? ORDER BY rowid`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var out []core.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Entries

const entryColumns = `id, owner_id, kind, description, amount, category, date, created_at`

func scanEntry(s scanner) (core.Entry, error) {
	var (
		e              core.Entry
		kind, date, at string
	)
	if err := s.Scan(&e.ID, &e.OwnerID, &kind, &e.Description, &e.Amount, &e.Category, &date, &at); err != nil {
		return core.Entry{}, err
	}
	e.Kind = core.EntryKind(kind)
	d, err := parseStoredDate(date)
	if err != nil {
		return core.Entry{}, fmt.Errorf("parse stored date %q: %w", date, err)
	}
	e.Date = d
	e.CreatedAt = parseTime(at)
	return e, nil
}

func (r *SQLiteRepository) AddEntry(ctx context.Context, e core.Entry) (string, error) {
	id := newID()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO entries (`+entryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, e.OwnerID, string(e.Kind), e.Description, e.Amount, e.Category, e.Date.String(), r.stamp())
	if err != nil {
		return "", fmt.Errorf("insert %s: %w", e.Kind, err)
	}
	return id, nil
}

func (r *SQLiteRepository) GetEntry(ctx context.Context, kind core.EntryKind, id string) (core.Entry, error) {
	e, err := scanEntry(r.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE id = ? AND kind = ?`, id, string(kind)))
	if err != nil {
		return core.Entry{}, notFoundOr(err, string(kind), id)
	}
	return e, nil
}

func (r *SQLiteRepository) UpdateEntry(ctx context.Context, e core.Entry) error {
	return r.exec(ctx, "update "+string(e.Kind), e.ID,
		`UPDATE entries SET description = ?, amount = ?, category = ?, date = ? WHERE id = ? AND kind = ?`,
		e.Description, e.Amount, e.Category, e.Date.String(), e.ID, string(e.Kind))
}

func (r *SQLiteRepository) DeleteEntry(ctx context.Context, kind core.EntryKind, id string) error {
	return r.exec(ctx, "delete "+string(kind), id,
		`DELETE FROM entries WHERE id = ? AND kind = ?`, id, string(kind))
}

func (r *SQLiteRepository) ListEntries(ctx context.Context, kind core.EntryKind, ownerID string) ([]core.Entry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE owner_id = ? AND kind = ? ORDER BY rowid`, ownerID, string(kind))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	defer rows.Close()

	var out []core.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", kind, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Categories

func (r *SQLiteRepository) AddCategory(ctx context.Context, c core.Category) (string, error) {
	id := newID()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (id, owner_id, name, kind) VALUES (?, ?, ?, ?)`,
		id, c.OwnerID, c.Name, string(c.Kind))
	if err != nil {
		return "", fmt.Errorf("insert category: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id string) (core.Category, error) {
	var (
		c    core.Category
		kind string
	)
	err := r.db.QueryRowContext(ctx, `SELECT id, owner_id, name, kind FROM categories WHERE id = ?`, id).
		Scan(&c.ID, &c.OwnerID, &c.Name, &kind)
	if err != nil {
		return core.Category{}, notFoundOr(err, "category", id)
	}
	c.Kind = core.EntryKind(kind)
	return c, nil
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id string) error {
	return r.exec(ctx, "delete category", id, `DELETE FROM categories WHERE id = ?`, id)
}

// ListCategories lists the owner's categories, all kinds when kind is empty.
func (r *SQLiteRepository) ListCategories(ctx context.Context, ownerID string, kind core.EntryKind) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, name, kind FROM categories
		WHERE owner_id = ? AND (? = '' OR kind = ?)
		ORDER BY rowid`, ownerID, string(kind), string(kind))
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var (
			c core.Category
			k string
		)
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Name, &k); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Kind = core.EntryKind(k)
		out = append(out, c)
	}
	return out, rows.Err()
}
