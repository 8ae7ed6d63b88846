package core

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
		err  error
	}{
		{"2025-03-01", "2025-03-01", nil},
		{"01/03/2025", "2025-03-01", nil},
		{"31/02/2025", "", ErrInvalidDate},
		{"2025/03/01", "", ErrInvalidDate},
		{"", "", ErrInvalidDate},
		{"01/01/1800", "", ErrYearOutOfRange},
		{"2200-01-01", "", ErrYearOutOfRange},
	}
	for _, tc := range cases {
		got, err := ParseDate(tc.in)
		if tc.err != nil {
			if !errors.Is(err, tc.err) {
				t.Fatalf("%q: expected %v, got %v", tc.in, tc.err, err)
			}
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("%q: expected a validation error", tc.in)
			}
			continue
		}
		if err != nil || got.String() != tc.want {
			t.Fatalf("%q: expected %s, got %s (err=%v)", tc.in, tc.want, got, err)
		}
	}
}

func TestDateValidate(t *testing.T) {
	if err := NewDate(2025, 1, 1).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Date{Time: time.Time{}}).Validate(); err == nil {
		t.Fatalf("expected error for zero date")
	}
}

func TestFixedCostValidate(t *testing.T) {
	good := FixedCost{Name: "Aluguel", Amount: decimal.NewFromInt(1200)}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []FixedCost{
		{Name: "", Amount: decimal.NewFromInt(1)},
		{Name: "x", Amount: decimal.Zero},
		{Name: "x", Amount: decimal.NewFromInt(-5)},
	}
	for i, c := range bads {
		if err := c.Validate(); !errors.Is(err, ErrValidation) {
			t.Fatalf("case %d expected validation error, got %v", i, err)
		}
	}
}

func TestGoalPercentageIsNotClamped(t *testing.T) {
	g := Goal{Name: "Viagem", TargetAmount: decimal.NewFromInt(1000), CurrentAmount: decimal.NewFromInt(1500)}
	if got := FormatPercent(g.Percentage()); got != "150.00" {
		t.Fatalf("expected 150.00, got %s", got)
	}
	g.CurrentAmount = decimal.NewFromInt(-100)
	if err := g.Validate(); err == nil {
		t.Fatalf("expected error for negative current amount")
	}
}

func TestEntryValidate(t *testing.T) {
	good := Entry{Kind: KindExpense, Description: "Mercado", Amount: "1.234,56", Date: NewDate(2025, 5, 10)}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []Entry{
		{Kind: "outro", Description: "a", Amount: "1", Date: NewDate(2025, 1, 1)},
		{Kind: KindIncome, Description: "", Amount: "1", Date: NewDate(2025, 1, 1)},
		{Kind: KindIncome, Description: "a", Amount: "0,00", Date: NewDate(2025, 1, 1)},
		{Kind: KindIncome, Description: "a", Amount: "x", Date: NewDate(2025, 1, 1)},
		{Kind: KindIncome, Description: "a", Amount: "1"},
	}
	for i, e := range bads {
		if err := e.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}
