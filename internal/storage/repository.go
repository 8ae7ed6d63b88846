// Package storage is the SQLite data backend.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"financas/internal/core"
	"financas/internal/log"
	"financas/internal/ports"
)

const timeLayout = time.RFC3339Nano

var _ ports.Store = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db     *sql.DB
	logger *log.Logger
	now    func() time.Time
}

// NewSQLiteRepository opens the database at dbPath, creating its directory,
// and applies pending migrations.
func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if logger == nil {
		logger = log.Discard()
	}
	return &SQLiteRepository{
		db:     db,
		logger: logger.WithComponent(log.ComponentStorage),
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable. Used by /readyz.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) stamp() string {
	return r.now().Format(timeLayout)
}

func newID() string { return uuid.NewString() }

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}

func parseDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse stored decimal %q: %w", s, err)
	}
	return d, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// exec runs a write and turns "no row touched" into core.ErrNotFound.
func (r *SQLiteRepository) exec(ctx context.Context, what, id, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s %s: %w", what, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %s rows affected: %w", what, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %q: %w", what, id, core.ErrNotFound)
	}
	return nil
}

func notFoundOr(err error, what, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %q: %w", what, id, core.ErrNotFound)
	}
	return fmt.Errorf("get %s %s: %w", what, id, err)
}

// Fixed costs

func (r *SQLiteRepository) AddFixedCost(ctx context.Context, c core.FixedCost) (string, error) {
	id := newID()
	now := r.stamp()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO fixed_costs (id, owner_id, name, amount, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, c.OwnerID, c.Name, c.Amount.String(), now, now)
	if err != nil {
		return "", fmt.Errorf("insert fixed cost: %w", err)
	}
	return id, nil
}

const fixedCostColumns = `id, owner_id, name, amount, created_at, updated_at`

func scanFixedCost(s interface{ Scan(...any) error }) (core.FixedCost, error) {
	var (
		c                    core.FixedCost
		amount               string
		createdAt, updatedAt string
	)
	if err := s.Scan(&c.ID, &c.OwnerID, &c.Name, &amount, &createdAt, &updatedAt); err != nil {
		return core.FixedCost{}, err
	}
	d, err := parseDecimal(amount)
	if err != nil {
		return core.FixedCost{}, err
	}
	c.Amount = d
	c.CreatedAt, c.UpdatedAt = parseTime(createdAt), parseTime(updatedAt)
	return c, nil
}

func (r *SQLiteRepository) GetFixedCost(ctx context.Context, id string) (core.FixedCost, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+fixedCostColumns+` FROM fixed_costs WHERE id = ?`, id)
	c, err := scanFixedCost(row)
	if err != nil {
		return core.FixedCost{}, notFoundOr(err, "fixed cost", id)
	}
	return c, nil
}

func (r *SQLiteRepository) UpdateFixedCost(ctx context.Context, c core.FixedCost) error {
	return r.exec(ctx, "update fixed cost", c.ID,
		`UPDATE fixed_costs SET name = ?, amount = ?, updated_at = ? WHERE id = ?`,
		c.Name, c.Amount.String(), r.stamp(), c.ID)
}

func (r *SQLiteRepository) DeleteFixedCost(ctx context.Context, id string) error {
	return r.exec(ctx, "delete fixed cost", id, `DELETE FROM fixed_costs WHERE id = ?`, id)
}

func (r *SQLiteRepository) ListFixedCosts(ctx context.Context, ownerID string) ([]core.FixedCost, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+fixedCostColumns+` FROM fixed_costs WHERE owner_id = ? ORDER BY rowid`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list fixed costs: %w", err)
	}
	defer rows.Close()

	var out []core.FixedCost
	for rows.Next() {
		c, err := scanFixedCost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fixed cost: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
