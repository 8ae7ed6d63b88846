package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"financas/internal/amqp"
	"financas/internal/core"
	"financas/internal/storage/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.BudgetEvent
	err    error
}

func (p *recordingPublisher) PublishBudgetEvent(_ context.Context, msg *amqp.BudgetEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, msg)
	return p.err
}

// failingStore makes GetFixedCost fail for one id.
type failingStore struct {
	*memory.Store
	failID string
}

func (f failingStore) GetFixedCost(ctx context.Context, id string) (core.FixedCost, error) {
	if id == f.failID {
		return core.FixedCost{}, errors.New("disk on fire")
	}
	return f.Store.GetFixedCost(ctx, id)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func addFixedCost(t *testing.T, store *memory.Store, owner, name, amount string) string {
	t.Helper()
	id, err := store.AddFixedCost(context.Background(), core.FixedCost{OwnerID: owner, Name: name, Amount: dec(amount)})
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func percents(b core.Budget) []string {
	out := make([]string, 0, len(b.FixedCosts))
	for _, p := range b.FixedCostPercentages() {
		out = append(out, core.FormatPercent(p))
	}
	return out
}

func TestCreateBudgetEndToEnd(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	pub := &recordingPublisher{}
	svc := NewBudgetService(store, pub, nil)
	f1 := addFixedCost(t, store, "u1", "Aluguel", "250")

	res, err := svc.Create(ctx, "u1", BudgetInput{TotalAmount: dec("1000"), ExtraIncome: decimal.Zero, FixedCostIDs: []string{f1}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	b := res.Budget
	if !b.Total.Equal(dec("1000")) {
		t.Errorf("total = %s, want 1000", b.Total)
	}
	if got := core.FormatPercent(b.ExtraIncomePercentage); got != "0.00" {
		t.Errorf("extraIncomePercentage = %s, want 0.00", got)
	}
	if got := percents(b); len(got) != 1 || got[0] != "25.00" {
		t.Errorf("fixedCostPercentages = %v, want [25.00]", got)
	}

	stored, err := store.GetBudget(ctx, b.ID)
	if err != nil {
		t.Fatalf("stored budget: %v", err)
	}
	if got := percents(stored); len(got) != 1 || got[0] != "25.00" {
		t.Errorf("stored percentages = %v", got)
	}
	if len(pub.events) != 1 || pub.events[0].Event != amqp.BudgetCreated {
		t.Errorf("events = %+v", pub.events)
	}
}

func TestEachPercentageIsIndependentRatio(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewBudgetService(store, nil, nil)
	a := addFixedCost(t, store, "u1", "A", "333.33")
	b := addFixedCost(t, store, "u1", "B", "1000")

	res, err := svc.Create(ctx, "u1", BudgetInput{TotalAmount: dec("700"), ExtraIncome: dec("200"), FixedCostIDs: []string{a, b}})
	if err != nil {
		t.Fatal(err)
	}
	total := dec("900")
	want := map[string]decimal.Decimal{
		"extra": dec("200").Mul(dec("100")).Div(total).Round(2),
		a:       dec("333.33").Mul(dec("100")).Div(total).Round(2),
		b:       dec("1000").Mul(dec("100")).Div(total).Round(2),
	}
	if !res.Budget.ExtraIncomePercentage.Equal(want["extra"]) {
		t.Errorf("extra = %s, want %s", res.Budget.ExtraIncomePercentage, want["extra"])
	}
	for _, fc := range res.Budget.FixedCosts {
		if !fc.Percentage.Equal(want[fc.ID]) {
			t.Errorf("%s = %s, want %s", fc.Name, fc.Percentage, want[fc.ID])
		}
	}
	if core.FormatPercent(res.Budget.FixedCosts[1].Percentage) != "111.11" {
		t.Errorf("percentages are not capped: got %s", res.Budget.FixedCosts[1].Percentage)
	}
}

func TestCreateBudgetOmitsMissingFixedCosts(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewBudgetService(store, nil, nil)
	a := addFixedCost(t, store, "u1", "A", "100")
	foreign := addFixedCost(t, store, "u2", "Other", "100")

	res, err := svc.Create(ctx, "u1", BudgetInput{TotalAmount: dec("1000"), FixedCostIDs: []string{a, "B", foreign}})
	if err != nil {
		t.Fatal(err)
	}
	stored, _ := store.GetBudget(ctx, res.Budget.ID)
	if len(stored.FixedCostIDs) != 1 || stored.FixedCostIDs[0] != a {
		t.Errorf("stored ids = %v, want [%s]", stored.FixedCostIDs, a)
	}
	if len(stored.FixedCosts) != 1 || stored.FixedCosts[0].ID != a {
		t.Errorf("stored shares = %+v", stored.FixedCosts)
	}
	if len(res.OmittedFixedCostIDs) != 2 || res.OmittedFixedCostIDs[0] != "B" || res.OmittedFixedCostIDs[1] != foreign {
		t.Errorf("omitted = %v", res.OmittedFixedCostIDs)
	}
}

func TestCreateBudgetWithOnlyMissingIDsStoresEmptyList(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewBudgetService(store, nil, nil)

	res, err := svc.Create(ctx, "u1", BudgetInput{TotalAmount: dec("100"), FixedCostIDs: []string{"gone"}})
	if err != nil {
		t.Fatal(err)
	}
	if res.Budget.FixedCostIDs == nil || len(res.Budget.FixedCostIDs) != 0 {
		t.Errorf("ids = %#v, want empty list", res.Budget.FixedCostIDs)
	}
}

func TestCreateBudgetValidation(t *testing.T) {
	svc := NewBudgetService(memory.New(), nil, nil)
	tests := []struct {
		name string
		in   BudgetInput
		want error
	}{
		{"no ids", BudgetInput{TotalAmount: dec("10")}, core.ErrFixedCostIDsMissing},
		{"zero total", BudgetInput{FixedCostIDs: []string{"a"}}, core.ErrZeroTotal},
		{"negative", BudgetInput{TotalAmount: dec("-5"), FixedCostIDs: []string{"a"}}, core.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), "u1", tt.in)
			if !errors.Is(err, tt.want) || !errors.Is(err, core.ErrValidation) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCreateBudgetStoreErrorAborts(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	a := addFixedCost(t, mem, "u1", "A", "100")
	svc := NewBudgetService(failingStore{Store: mem, failID: "boom"}, nil, nil)

	_, err := svc.Create(ctx, "u1", BudgetInput{TotalAmount: dec("100"), FixedCostIDs: []string{a, "boom"}})
	if err == nil || errors.Is(err, core.ErrValidation) || errors.Is(err, core.ErrNotFound) {
		t.Fatalf("err = %v, want internal error", err)
	}
	if list, _ := mem.ListBudgets(ctx, "u1"); len(list) != 0 {
		t.Errorf("nothing should be stored, got %d budgets", len(list))
	}
}

func TestUpdateBudgetIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewBudgetService(store, nil, nil)
	a := addFixedCost(t, store, "u1", "A", "123.45")
	b := addFixedCost(t, store, "u1", "B", "77")

	created, err := svc.Create(ctx, "u1", BudgetInput{TotalAmount: dec("500"), FixedCostIDs: []string{a}})
	if err != nil {
		t.Fatal(err)
	}
	in := BudgetInput{TotalAmount: dec("900"), ExtraIncome: dec("100"), FixedCostIDs: []string{a, b}}

	if _, err := svc.Update(ctx, "u1", created.Budget.ID, in); err != nil {
		t.Fatal(err)
	}
	first, _ := store.GetBudget(ctx, created.Budget.ID)
	if _, err := svc.Update(ctx, "u1", created.Budget.ID, in); err != nil {
		t.Fatal(err)
	}
	second, _ := store.GetBudget(ctx, created.Budget.ID)

	p1, p2 := percents(first), percents(second)
	if len(p1) != 2 || len(p1) != len(p2) {
		t.Fatalf("percentages %v vs %v", p1, p2)
	}
	for i := range p1 {
		if p1[i] != p2[i] {
			t.Errorf("percentage %d changed: %s -> %s", i, p1[i], p2[i])
		}
	}
	if !first.ExtraIncomePercentage.Equal(second.ExtraIncomePercentage) || first.ExtraIncomePercentage.String() != "10" {
		t.Errorf("extra income percentage %s vs %s", first.ExtraIncomePercentage, second.ExtraIncomePercentage)
	}
}

func TestSavedBudgetCarriesStoredTimestamps(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewBudgetService(store, nil, nil)
	a := addFixedCost(t, store, "u1", "A", "100")

	created, err := svc.Create(ctx, "u1", BudgetInput{TotalAmount: dec("400"), FixedCostIDs: []string{a}})
	if err != nil {
		t.Fatal(err)
	}
	stored, err := store.GetBudget(ctx, created.Budget.ID)
	if err != nil {
		t.Fatal(err)
	}
	if created.Budget.CreatedAt.IsZero() || !created.Budget.CreatedAt.Equal(stored.CreatedAt) {
		t.Errorf("create CreatedAt = %v, stored %v", created.Budget.CreatedAt, stored.CreatedAt)
	}
	if !created.Budget.UpdatedAt.Equal(stored.UpdatedAt) {
		t.Errorf("create UpdatedAt = %v, stored %v", created.Budget.UpdatedAt, stored.UpdatedAt)
	}

	updated, err := svc.Update(ctx, "u1", created.Budget.ID, BudgetInput{TotalAmount: dec("200"), FixedCostIDs: []string{a}})
	if err != nil {
		t.Fatal(err)
	}
	stored, _ = store.GetBudget(ctx, created.Budget.ID)
	if updated.Budget.UpdatedAt.IsZero() || !updated.Budget.UpdatedAt.Equal(stored.UpdatedAt) {
		t.Errorf("update UpdatedAt = %v, stored %v", updated.Budget.UpdatedAt, stored.UpdatedAt)
	}
	if !updated.Budget.CreatedAt.Equal(created.Budget.CreatedAt) {
		t.Errorf("update changed CreatedAt: %v -> %v", created.Budget.CreatedAt, updated.Budget.CreatedAt)
	}
}

func TestUpdateBudgetByNonOwnerIsForbidden(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	pub := &recordingPublisher{}
	svc := NewBudgetService(store, pub, nil)
	a := addFixedCost(t, store, "u1", "A", "100")

	created, err := svc.Create(ctx, "u1", BudgetInput{TotalAmount: dec("1000"), FixedCostIDs: []string{a}})
	if err != nil {
		t.Fatal(err)
	}
	before, _ := store.GetBudget(ctx, created.Budget.ID)

	_, err = svc.Update(ctx, "intruder", created.Budget.ID, BudgetInput{TotalAmount: dec("1"), FixedCostIDs: []string{a}})
	if !errors.Is(err, core.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
	after, _ := store.GetBudget(ctx, created.Budget.ID)
	if !after.Total.Equal(before.Total) || !after.UpdatedAt.Equal(before.UpdatedAt) {
		t.Errorf("budget changed: %+v -> %+v", before, after)
	}
	if err := svc.Delete(ctx, "intruder", created.Budget.ID); !errors.Is(err, core.ErrForbidden) {
		t.Errorf("delete err = %v, want ErrForbidden", err)
	}
	if len(pub.events) != 1 {
		t.Errorf("only the create should publish, got %d events", len(pub.events))
	}
}

func TestUpdateMissingBudgetIsNotFound(t *testing.T) {
	svc := NewBudgetService(memory.New(), nil, nil)
	_, err := svc.Update(context.Background(), "u1", "nope", BudgetInput{TotalAmount: dec("1"), FixedCostIDs: []string{"a"}})
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewBudgetService(store, &recordingPublisher{err: errors.New("broker down")}, nil)
	a := addFixedCost(t, store, "u1", "A", "100")

	res, err := svc.Create(ctx, "u1", BudgetInput{TotalAmount: dec("100"), FixedCostIDs: []string{a}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Delete(ctx, "u1", res.Budget.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func addEntry(t *testing.T, store *memory.Store, kind core.EntryKind, amount string) {
	t.Helper()
	_, err := store.AddEntry(context.Background(), core.Entry{OwnerID: "u1", Kind: kind, Description: "x", Amount: amount, Date: core.NewDate(2024, 1, 1)})
	if err != nil {
		t.Fatal(err)
	}
}

func TestIncomeVsExpenseRatio(t *testing.T) {
	tests := []struct {
		name     string
		expenses []string
		incomes  []string
		pct      string
		larger   string
		totalExp string
	}{
		{"no expenses", nil, []string{"500"}, "0.00", LargerIncomes, "0"},
		{"no incomes", []string{"10,00"}, nil, "0.00", LargerExpenses, "10"},
		{"nothing", nil, nil, "0.00", LargerIncomes, "0"},
		{"locale parse", []string{"1.500,00"}, []string{"3.000,00"}, "50.00", LargerIncomes, "1500"},
		{"expenses larger", []string{"900", "100"}, []string{"250"}, "25.00", LargerExpenses, "1000"},
		{"tie", []string{"100"}, []string{"100,00"}, "100.00", LargerIncomes, "100"},
		{"unparseable skipped", []string{"abc", "200"}, []string{"400"}, "50.00", LargerIncomes, "200"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.New()
			for _, a := range tt.expenses {
				addEntry(t, store, core.KindExpense, a)
			}
			for _, a := range tt.incomes {
				addEntry(t, store, core.KindIncome, a)
			}
			svc := NewBudgetService(store, nil, nil)

			r, err := svc.IncomeVsExpenseRatio(context.Background(), "u1")
			if err != nil {
				t.Fatal(err)
			}
			if got := core.FormatPercent(r.Percentage); got != tt.pct {
				t.Errorf("percentage = %s, want %s", got, tt.pct)
			}
			if r.Larger != tt.larger {
				t.Errorf("larger = %s, want %s", r.Larger, tt.larger)
			}
			if !r.TotalExpenses.Equal(dec(tt.totalExp)) {
				t.Errorf("total expenses = %s, want %s", r.TotalExpenses, tt.totalExp)
			}
		})
	}
}

func TestFixedCostBreakdownUsesLiveAmounts(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewBudgetService(store, nil, nil)
	a := addFixedCost(t, store, "u1", "A", "100")
	b := addFixedCost(t, store, "u1", "B", "100")

	res, err := svc.Create(ctx, "u1", BudgetInput{TotalAmount: dec("1000"), FixedCostIDs: []string{a, b}})
	if err != nil {
		t.Fatal(err)
	}

	fc, _ := store.GetFixedCost(ctx, a)
	fc.Amount = dec("300")
	store.UpdateFixedCost(ctx, fc)

	report, err := svc.FixedCostBreakdown(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(report) != 1 || report[0].BudgetID != res.Budget.ID {
		t.Fatalf("report = %+v", report)
	}
	if !report[0].Total.Equal(dec("400")) {
		t.Errorf("live total = %s, want 400", report[0].Total)
	}
	if got := core.FormatPercent(report[0].FixedCosts[0].Percentage); got != "75.00" {
		t.Errorf("A = %s, want 75.00", got)
	}

	stored, _ := store.GetBudget(ctx, res.Budget.ID)
	if got := core.FormatPercent(stored.FixedCosts[0].Percentage); got != "10.00" {
		t.Errorf("stored snapshot changed to %s", got)
	}
}

func TestFixedCostBreakdownSkipsUnusableBudgets(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewBudgetService(store, nil, nil)
	a := addFixedCost(t, store, "u1", "A", "100")

	store.AddBudget(ctx, core.Budget{OwnerID: "u1", FixedCostIDs: nil})
	store.AddBudget(ctx, core.Budget{OwnerID: "u1", FixedCostIDs: []string{"deleted"}})
	store.AddBudget(ctx, core.Budget{OwnerID: "u1", FixedCostIDs: []string{}})
	keep, _ := store.AddBudget(ctx, core.Budget{OwnerID: "u1", FixedCostIDs: []string{a, "deleted"}})
	store.AddBudget(ctx, core.Budget{OwnerID: "u2", FixedCostIDs: []string{a}})

	report, err := svc.FixedCostBreakdown(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(report) != 1 || report[0].BudgetID != keep {
		t.Fatalf("report = %+v, want only %s", report, keep)
	}
	if core.FormatPercent(report[0].FixedCosts[0].Percentage) != "100.00" {
		t.Errorf("percentage = %s", report[0].FixedCosts[0].Percentage)
	}
}
