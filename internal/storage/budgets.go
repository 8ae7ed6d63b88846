package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"financas/internal/core"
	"financas/internal/log"
)

// shareRow is the JSON shape of one fixed cost snapshot inside budgets.fixed_costs.
type shareRow struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Amount     string `json:"amount"`
	Percentage string `json:"percentage"`
}

func encodeShares(shares []core.FixedCostShare) (string, error) {
	rows := make([]shareRow, len(shares))
	for i, s := range shares {
		rows[i] = shareRow{ID: s.ID, Name: s.Name, Amount: s.Amount.String(), Percentage: core.FormatPercent(s.Percentage)}
	}
	b, err := json.Marshal(rows)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeShares(raw string) ([]core.FixedCostShare, error) {
	var rows []shareRow
	if err := json.Unmarshal([]byte(raw), &rows); err != nil {
		return nil, err
	}
	out := make([]core.FixedCostShare, 0, len(rows))
	for _, r := range rows {
		amount, err := parseDecimal(r.Amount)
		if err != nil {
			return nil, err
		}
		pct, err := parseDecimal(r.Percentage)
		if err != nil {
			return nil, err
		}
		out = append(out, core.FixedCostShare{ID: r.ID, Name: r.Name, Amount: amount, Percentage: pct})
	}
	return out, nil
}

// DecodeFixedCostIDs reads the stored id list. Anything that is not a JSON
// list of strings decodes as absent (nil).
func DecodeFixedCostIDs(raw sql.NullString) []string {
	if !raw.Valid {
		return nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw.String), &ids); err != nil {
		return nil
	}
	if ids == nil {
		return nil
	}
	return ids
}

func encodeFixedCostIDs(ids []string) sql.NullString {
	if ids == nil {
		return sql.NullString{}
	}
	b, _ := json.Marshal(ids)
	return sql.NullString{String: string(b), Valid: true}
}

func (r *SQLiteRepository) AddBudget(ctx context.Context, b core.Budget) (string, error) {
	shares, err := encodeShares(b.FixedCosts)
	if err != nil {
		return "", fmt.Errorf("encode fixed cost snapshot: %w", err)
	}
	b.ID = newID()
	now := r.stamp()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO budgets (id, owner_id, total_amount, extra_income, fixed_cost_ids, total,
			extra_income_percentage, fixed_costs, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.OwnerID, b.TotalAmount.String(), b.ExtraIncome.String(), encodeFixedCostIDs(b.FixedCostIDs),
		b.Total.String(), core.FormatPercent(b.ExtraIncomePercentage), shares, now, now)
	if err != nil {
		return "", fmt.Errorf("insert budget: %w", err)
	}
	return b.ID, nil
}

const budgetColumns = `id, owner_id, total_amount, extra_income, fixed_cost_ids, total,
	extra_income_percentage, fixed_costs, created_at, updated_at`

func (r *SQLiteRepository) scanBudget(ctx context.Context, s interface{ Scan(...any) error }) (core.Budget, error) {
	var (
		b                                         core.Budget
		totalAmount, extraIncome, total, extraPct string
		ids                                       sql.NullString
		shares, createdAt, updatedAt              string
	)
	if err := s.Scan(&b.ID, &b.OwnerID, &totalAmount, &extraIncome, &ids, &total,
		&extraPct, &shares, &createdAt, &updatedAt); err != nil {
		return core.Budget{}, err
	}

	var err error
	if b.TotalAmount, err = parseDecimal(totalAmount); err != nil {
		return core.Budget{}, err
	}
	if b.ExtraIncome, err = parseDecimal(extraIncome); err != nil {
		return core.Budget{}, err
	}
	if b.Total, err = parseDecimal(total); err != nil {
		return core.Budget{}, err
	}
	if b.ExtraIncomePercentage, err = parseDecimal(extraPct); err != nil {
		return core.Budget{}, err
	}

	b.FixedCostIDs = DecodeFixedCostIDs(ids)
	if ids.Valid && b.FixedCostIDs == nil {
		r.logger.WarnContext(ctx, "Stored fixed cost ids are not a list, treating as absent",
			log.FieldBudgetID, b.ID)
	}
	if b.FixedCosts, err = decodeShares(shares); err != nil {
		r.logger.WarnContext(ctx, "Stored fixed cost snapshot unreadable, dropping it",
			log.FieldBudgetID, b.ID, log.FieldError, err)
		b.FixedCosts = nil
	}
	b.CreatedAt, b.UpdatedAt = parseTime(createdAt), parseTime(updatedAt)
	return b, nil
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, id string) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+budgetColumns+` FROM budgets WHERE id = ?`, id)
	b, err := r.scanBudget(ctx, row)
	if err != nil {
		return core.Budget{}, notFoundOr(err, "budget", id)
	}
	return b, nil
}

func (r *SQLiteRepository) UpdateBudget(ctx context.Context, b core.Budget) error {
	shares, err := encodeShares(b.FixedCosts)
	if err != nil {
		return fmt.Errorf("encode fixed cost snapshot: %w", err)
	}
	return r.exec(ctx, "update budget", b.ID, `
		UPDATE budgets SET total_amount = ?, extra_income = ?, fixed_cost_ids = ?, total = ?,
			extra_income_percentage = ?, fixed_costs = ?, updated_at = ?
		WHERE id = ?`,
		b.TotalAmount.String(), b.ExtraIncome.String(), encodeFixedCostIDs(b.FixedCostIDs), b.Total.String(),
		core.FormatPercent(b.ExtraIncomePercentage), shares, r.stamp(), b.ID)
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, id string) error {
	return r.exec(ctx, "delete budget", id, `DELETE FROM budgets WHERE id = ?`, id)
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, ownerID string) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE owner_id = ? ORDER BY rowid`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		b, err := r.scanBudget(ctx, rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
