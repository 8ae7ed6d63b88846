package google

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"financas/internal/core"
)

// header is written once when the export sheet is created.
var header = []interface{}{
	"Timestamp", "Event", "Budget", "Owner", "Total amount", "Extra income",
	"Total", "Extra income %", "Fixed costs",
}

// budgetRow renders one budget snapshot as a sheet row. Amounts are written
// as plain numbers so USER_ENTERED input keeps them numeric.
func budgetRow(event string, b core.Budget, at time.Time) []interface{} {
	return []interface{}{
		at.UTC().Format(time.RFC3339),
		event,
		b.ID,
		b.OwnerID,
		b.TotalAmount.StringFixed(2),
		b.ExtraIncome.StringFixed(2),
		b.Total.StringFixed(2),
		core.FormatPercent(b.ExtraIncomePercentage),
		fixedCostSummary(b.FixedCosts),
	}
}

// fixedCostSummary renders "Aluguel 250.00 (25.00%); Luz 80.00 (8.00%)".
func fixedCostSummary(shares []core.FixedCostShare) string {
	parts := make([]string, 0, len(shares))
	for _, s := range shares {
		parts = append(parts, fmt.Sprintf("%s %s (%s%%)", s.Name, s.Amount.StringFixed(2), core.FormatPercent(s.Percentage)))
	}
	return strings.Join(parts, "; ")
}

// yearPrefixedName prefixes base with year unless it already starts with one.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
