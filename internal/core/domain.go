package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	KindExpense EntryKind = "despesa"
	KindIncome  EntryKind = "receita"
)

const maxNameLength = 200

type (
	EntryKind string

	FixedCost struct {
		ID        string
		OwnerID   string
		Name      string
		Amount    decimal.Decimal
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	// FixedCostShare is the snapshot of a fixed cost taken when a budget is
	// written, or the live view computed by the breakdown report.
	FixedCostShare struct {
		ID         string
		Name       string
		Amount     decimal.Decimal
		Percentage decimal.Decimal
	}

	Budget struct {
		ID                    string
		OwnerID               string
		TotalAmount           decimal.Decimal
		ExtraIncome           decimal.Decimal
		FixedCostIDs          []string // nil when absent in storage
		Total                 decimal.Decimal
		ExtraIncomePercentage decimal.Decimal
		FixedCosts            []FixedCostShare
		CreatedAt             time.Time
		UpdatedAt             time.Time
	}

	Goal struct {
		ID            string
		OwnerID       string
		Name          string
		TargetAmount  decimal.Decimal
		CurrentAmount decimal.Decimal
		TargetDate    Date
		CreatedAt     time.Time
		UpdatedAt     time.Time
	}

	// Entry is an expense or an income. Amount keeps the pt-BR string form
	// the client works with.
	Entry struct {
		ID          string
		OwnerID     string
		Kind        EntryKind
		Description string
		Amount      string
		Category    string
		Date        Date
		CreatedAt   time.Time
	}

	Category struct {
		ID      string
		OwnerID string
		Name    string
		Kind    EntryKind
	}

	User struct {
		ID           string
		Email        string
		PasswordHash string
		CreatedAt    time.Time
	}

	Session struct {
		TokenHash string
		UserID    string
		ExpiresAt time.Time
	}
)

// FixedCostPercentages returns the per-cost percentages in stored order.
func (b Budget) FixedCostPercentages() []decimal.Decimal {
	out := make([]decimal.Decimal, len(b.FixedCosts))
	for i, fc := range b.FixedCosts {
		out[i] = fc.Percentage
	}
	return out
}

// Percentage is currentAmount*100/targetAmount. It is not clamped.
func (g Goal) Percentage() decimal.Decimal {
	if g.TargetAmount.IsZero() {
		return decimal.Zero
	}
	return Percent(g.CurrentAmount, g.TargetAmount)
}

func (k EntryKind) Valid() bool {
	return k == KindExpense || k == KindIncome
}

func validateName(name string, empty error) error {
	if strings.TrimSpace(name) == "" {
		return empty
	}
	if len(name) > maxNameLength {
		return Invalid("name too long (max 200 characters)")
	}
	return nil
}

func (c FixedCost) Validate() error {
	if err := validateName(c.Name, ErrEmptyName); err != nil {
		return err
	}
	if !c.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

func (g Goal) Validate() error {
	if err := validateName(g.Name, ErrEmptyName); err != nil {
		return err
	}
	if !g.TargetAmount.IsPositive() {
		return Invalid("target amount must be greater than zero")
	}
	if g.CurrentAmount.IsNegative() {
		return Invalid("current amount cannot be negative")
	}
	if !g.TargetDate.IsEmpty() {
		if err := g.TargetDate.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (e Entry) Validate() error {
	if !e.Kind.Valid() {
		return ErrInvalidKind
	}
	if err := validateName(e.Description, ErrEmptyDescription); err != nil {
		return err
	}
	amt, err := ParseLocaleAmount(e.Amount)
	if err != nil || !amt.IsPositive() {
		return ErrInvalidAmount
	}
	return e.Date.Validate()
}

func (c Category) Validate() error {
	if !c.Kind.Valid() {
		return ErrInvalidKind
	}
	return validateName(c.Name, ErrEmptyName)
}
