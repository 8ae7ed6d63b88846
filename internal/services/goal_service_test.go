package services

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"financas/internal/core"
	"financas/internal/storage/memory"
)

func TestGoalLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := NewGoalService(memory.New(), nil)

	g, err := svc.Create(ctx, "u1", core.Goal{Name: "Viagem", TargetAmount: dec("2000"), CurrentAmount: dec("500"), TargetDate: core.NewDate(2025, 12, 1)})
	if err != nil {
		t.Fatal(err)
	}
	if core.FormatPercent(g.Percentage()) != "25.00" {
		t.Errorf("percentage = %s", g.Percentage())
	}

	g.CurrentAmount = dec("2500")
	g, err = svc.Update(ctx, "u1", g)
	if err != nil {
		t.Fatal(err)
	}
	got, _ := svc.Get(ctx, "u1", g.ID)
	if core.FormatPercent(got.Percentage()) != "125.00" {
		t.Errorf("percentage after update = %s, want unclamped 125.00", got.Percentage())
	}

	if _, err := svc.Get(ctx, "u2", g.ID); !errors.Is(err, core.ErrForbidden) {
		t.Errorf("Get by other user err = %v", err)
	}
	if err := svc.Delete(ctx, "u1", g.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Get(ctx, "u1", g.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Get after delete err = %v", err)
	}
}

func TestGoalValidation(t *testing.T) {
	svc := NewGoalService(memory.New(), nil)
	for _, g := range []core.Goal{
		{Name: "", TargetAmount: dec("1")},
		{Name: "x", TargetAmount: decimal.Zero},
		{Name: "x", TargetAmount: dec("1"), CurrentAmount: dec("-1")},
		{Name: "x", TargetAmount: dec("1"), TargetDate: core.NewDate(2200, 1, 1)},
	} {
		if _, err := svc.Create(context.Background(), "u1", g); !errors.Is(err, core.ErrValidation) {
			t.Errorf("Create(%+v) err = %v", g, err)
		}
	}
}

func TestFixedCostServiceOwnership(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewFixedCostService(store, nil)

	c, err := svc.Create(ctx, "u1", core.FixedCost{Name: "Internet", Amount: dec("99.90")})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(ctx, "u1", core.FixedCost{Name: "Zero", Amount: decimal.Zero}); !errors.Is(err, core.ErrValidation) {
		t.Errorf("zero amount err = %v", err)
	}

	c.Amount = dec("120")
	if _, err := svc.Update(ctx, "u2", c); !errors.Is(err, core.ErrForbidden) {
		t.Errorf("update by other user err = %v", err)
	}
	if _, err := svc.Update(ctx, "u1", c); err != nil {
		t.Fatal(err)
	}
	list, _ := svc.List(ctx, "u1")
	if len(list) != 1 || !list[0].Amount.Equal(dec("120")) {
		t.Errorf("list = %+v", list)
	}
	if err := svc.Delete(ctx, "u2", c.ID); !errors.Is(err, core.ErrForbidden) {
		t.Errorf("delete by other user err = %v", err)
	}
	if err := svc.Delete(ctx, "u1", c.ID); err != nil {
		t.Fatal(err)
	}
}
