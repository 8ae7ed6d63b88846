package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"financas/internal/amqp"
	"financas/internal/core"
	"financas/internal/log"
	"financas/internal/ports"
)

// resolveConcurrency bounds the fixed cost lookups of a single request.
const resolveConcurrency = 8

const (
	LargerExpenses = "despesas"
	LargerIncomes  = "receitas"
)

// EventPublisher receives budget events after a successful write.
type EventPublisher interface {
	PublishBudgetEvent(ctx context.Context, msg *amqp.BudgetEvent) error
}

// BudgetRepository is the storage the budget aggregator reads and writes.
type BudgetRepository interface {
	ports.BudgetStore
	ports.FixedCostStore
	ports.EntryStore
}

// BudgetInput is the client-supplied part of a budget.
type BudgetInput struct {
	TotalAmount  decimal.Decimal
	ExtraIncome  decimal.Decimal
	FixedCostIDs []string
}

// BudgetResult is a stored budget plus the requested fixed cost ids that
// could not be resolved and were left out.
type BudgetResult struct {
	Budget              core.Budget
	OmittedFixedCostIDs []string
}

// Ratio compares the owner's total expenses and incomes.
type Ratio struct {
	TotalExpenses decimal.Decimal
	TotalIncomes  decimal.Decimal
	Percentage    decimal.Decimal
	Larger        string
}

// BudgetBreakdown is one budget's fixed costs weighed against their live sum.
type BudgetBreakdown struct {
	BudgetID   string
	Total      decimal.Decimal
	FixedCosts []core.FixedCostShare
}

// BudgetService computes and persists budgets and the dashboard figures
// derived from them.
type BudgetService struct {
	repo      BudgetRepository
	publisher EventPublisher
	logger    *log.Logger
	events    *log.StructuredLogger
}

// NewBudgetService wires the aggregator. publisher may be nil, in which case
// events are skipped.
func NewBudgetService(repo BudgetRepository, publisher EventPublisher, logger *log.Logger) *BudgetService {
	if logger == nil {
		logger = log.Discard()
	}
	return &BudgetService{
		repo:      repo,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentBudget),
		events:    log.NewStructuredLogger(logger),
	}
}

func validateBudgetInput(in BudgetInput) error {
	if len(in.FixedCostIDs) == 0 {
		return core.ErrFixedCostIDsMissing
	}
	if in.TotalAmount.IsNegative() || in.ExtraIncome.IsNegative() {
		return core.Invalid("amounts cannot be negative")
	}
	if !in.TotalAmount.Add(in.ExtraIncome).IsPositive() {
		return core.ErrZeroTotal
	}
	return nil
}

// Create computes a new budget for ownerID and stores it.
func (s *BudgetService) Create(ctx context.Context, ownerID string, in BudgetInput) (BudgetResult, error) {
	if err := validateBudgetInput(in); err != nil {
		return BudgetResult{}, err
	}

	b, omitted, err := s.compute(ctx, ownerID, in)
	if err != nil {
		return BudgetResult{}, err
	}

	id, err := s.repo.AddBudget(ctx, b)
	if err != nil {
		return BudgetResult{}, fmt.Errorf("save budget: %w", err)
	}
	b.ID = id
	s.storedTimes(ctx, &b)

	s.events.LogBudgetSaved(ctx, log.OpCreate, ownerID, id,
		log.NewFields().WithBudget(id, b.Total, b.FixedCostIDs), omitted)
	s.publish(ctx, amqp.BudgetCreated, b)
	return BudgetResult{Budget: b, OmittedFixedCostIDs: omitted}, nil
}

// Update recomputes every derived field of budget id from in. Only the
// owner may update a budget.
func (s *BudgetService) Update(ctx context.Context, ownerID, id string, in BudgetInput) (BudgetResult, error) {
	if err := validateBudgetInput(in); err != nil {
		return BudgetResult{}, err
	}

	existing, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return BudgetResult{}, err
	}

	b, omitted, err := s.compute(ctx, ownerID, in)
	if err != nil {
		return BudgetResult{}, err
	}
	b.ID = existing.ID
	b.CreatedAt = existing.CreatedAt

	if err := s.repo.UpdateBudget(ctx, b); err != nil {
		return BudgetResult{}, fmt.Errorf("update budget: %w", err)
	}
	s.storedTimes(ctx, &b)

	s.events.LogBudgetSaved(ctx, log.OpUpdate, ownerID, id,
		log.NewFields().WithBudget(id, b.Total, b.FixedCostIDs), omitted)
	s.publish(ctx, amqp.BudgetUpdated, b)
	return BudgetResult{Budget: b, OmittedFixedCostIDs: omitted}, nil
}

// storedTimes copies the timestamps the store assigned on write into b.
func (s *BudgetService) storedTimes(ctx context.Context, b *core.Budget) {
	stored, err := s.repo.GetBudget(ctx, b.ID)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to read back saved budget",
			log.FieldBudgetID, b.ID, log.FieldError, err)
		return
	}
	b.CreatedAt, b.UpdatedAt = stored.CreatedAt, stored.UpdatedAt
}

func (s *BudgetService) Get(ctx context.Context, ownerID, id string) (core.Budget, error) {
	ctx, cancel := context.WithTimeout(ctx, storeReadTimeout)
	defer cancel()
	return s.owned(ctx, ownerID, id)
}

func (s *BudgetService) List(ctx context.Context, ownerID string) ([]core.Budget, error) {
	ctx, cancel := context.WithTimeout(ctx, storeReadTimeout)
	defer cancel()

	budgets, err := s.repo.ListBudgets(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return budgets, nil
}

func (s *BudgetService) Delete(ctx context.Context, ownerID, id string) error {
	b, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteBudget(ctx, id); err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	s.logger.InfoContext(ctx, "Budget deleted", log.FieldOwnerID, ownerID, log.FieldBudgetID, id)
	s.publish(ctx, amqp.BudgetDeleted, b)
	return nil
}

func (s *BudgetService) owned(ctx context.Context, ownerID, id string) (core.Budget, error) {
	b, err := s.repo.GetBudget(ctx, id)
	if err != nil {
		return core.Budget{}, err
	}
	if err := checkOwner(ownerID, b.OwnerID, "budget", id); err != nil {
		return core.Budget{}, err
	}
	return b, nil
}

// compute derives every stored field of a budget from the client input and
// the fixed costs that still exist. The caller has validated in.
func (s *BudgetService) compute(ctx context.Context, ownerID string, in BudgetInput) (core.Budget, []string, error) {
	costs, omitted, err := s.resolveFixedCosts(ctx, ownerID, in.FixedCostIDs)
	if err != nil {
		return core.Budget{}, nil, err
	}

	total := in.TotalAmount.Add(in.ExtraIncome)
	b := core.Budget{
		OwnerID:               ownerID,
		TotalAmount:           in.TotalAmount,
		ExtraIncome:           in.ExtraIncome,
		Total:                 total,
		ExtraIncomePercentage: core.Percent(in.ExtraIncome, total),
		FixedCostIDs:          make([]string, 0, len(costs)),
		FixedCosts:            make([]core.FixedCostShare, 0, len(costs)),
	}
	for _, c := range costs {
		b.FixedCostIDs = append(b.FixedCostIDs, c.ID)
		b.FixedCosts = append(b.FixedCosts, core.FixedCostShare{
			ID:         c.ID,
			Name:       c.Name,
			Amount:     c.Amount,
			Percentage: core.Percent(c.Amount, total),
		})
	}
	return b, omitted, nil
}

// resolveFixedCosts fetches ids concurrently and returns the costs that exist
// and belong to ownerID, in request order, plus the ids that were left out.
// Any store error other than not found aborts the whole resolution.
func (s *BudgetService) resolveFixedCosts(ctx context.Context, ownerID string, ids []string) ([]core.FixedCost, []string, error) {
	ctx, cancel := context.WithTimeout(ctx, storeReadTimeout)
	defer cancel()

	found := make([]*core.FixedCost, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(resolveConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			c, err := s.repo.GetFixedCost(gctx, id)
			if errors.Is(err, core.ErrNotFound) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("resolve fixed cost %s: %w", id, err)
			}
			if c.OwnerID != ownerID {
				return nil
			}
			found[i] = &c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var (
		costs   []core.FixedCost
		omitted []string
	)
	for i, c := range found {
		if c == nil {
			omitted = append(omitted, ids[i])
			continue
		}
		costs = append(costs, *c)
	}
	if len(omitted) > 0 {
		s.logger.WarnContext(ctx, "Fixed costs not found, omitted from budget",
			log.FieldOwnerID, ownerID,
			log.FieldOmittedIDs, omitted,
			log.FieldOperation, log.OpResolve)
	}
	return costs, omitted, nil
}

// IncomeVsExpenseRatio compares the owner's expense and income totals as
// min*100/max. When either side sums to zero the percentage is zero. Entries
// whose amount cannot be parsed are skipped.
func (s *BudgetService) IncomeVsExpenseRatio(ctx context.Context, ownerID string) (Ratio, error) {
	ctx, cancel := context.WithTimeout(ctx, storeReadTimeout)
	defer cancel()

	expenses, err := s.sumEntries(ctx, core.KindExpense, ownerID)
	if err != nil {
		return Ratio{}, err
	}
	incomes, err := s.sumEntries(ctx, core.KindIncome, ownerID)
	if err != nil {
		return Ratio{}, err
	}

	r := Ratio{
		TotalExpenses: expenses,
		TotalIncomes:  incomes,
		Percentage:    decimal.Zero,
		Larger:        LargerIncomes,
	}
	if expenses.GreaterThan(incomes) {
		r.Larger = LargerExpenses
	}
	if expenses.IsZero() || incomes.IsZero() {
		return r, nil
	}
	r.Percentage = core.Percent(decimal.Min(expenses, incomes), decimal.Max(expenses, incomes))
	return r, nil
}

func (s *BudgetService) sumEntries(ctx context.Context, kind core.EntryKind, ownerID string) (decimal.Decimal, error) {
	entries, err := s.repo.ListEntries(ctx, kind, ownerID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("list %s: %w", kind, err)
	}
	sum := decimal.Zero
	for _, e := range entries {
		amount, err := core.ParseLocaleAmount(e.Amount)
		if err != nil {
			s.logger.WarnContext(ctx, "Skipping entry with unparseable amount",
				log.FieldEntryKind, kind,
				log.FieldEntryID, e.ID,
				log.FieldAmount, e.Amount)
			continue
		}
		sum = sum.Add(amount)
	}
	return sum, nil
}

// FixedCostBreakdown re-reads every fixed cost referenced by the owner's
// budgets and weighs each against the live sum. Budgets without an id list,
// without any surviving cost, or whose costs sum to zero are left out.
func (s *BudgetService) FixedCostBreakdown(ctx context.Context, ownerID string) ([]BudgetBreakdown, error) {
	budgets, err := s.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	var out []BudgetBreakdown
	for _, b := range budgets {
		if b.FixedCostIDs == nil {
			continue
		}
		costs, _, err := s.resolveFixedCosts(ctx, ownerID, b.FixedCostIDs)
		if err != nil {
			return nil, err
		}
		if len(costs) == 0 {
			continue
		}

		live := decimal.Zero
		for _, c := range costs {
			live = live.Add(c.Amount)
		}
		if !live.IsPositive() {
			continue
		}

		bd := BudgetBreakdown{BudgetID: b.ID, Total: live}
		for _, c := range costs {
			bd.FixedCosts = append(bd.FixedCosts, core.FixedCostShare{
				ID:         c.ID,
				Name:       c.Name,
				Amount:     c.Amount,
				Percentage: core.Percent(c.Amount, live),
			})
		}
		out = append(out, bd)
	}
	return out, nil
}

func (s *BudgetService) publish(ctx context.Context, event amqp.EventType, b core.Budget) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "AMQP publisher not configured, skipping budget event", log.FieldEvent, event)
		return
	}
	if err := s.publisher.PublishBudgetEvent(ctx, amqp.NewBudgetEvent(event, b)); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish budget event",
			log.FieldEvent, event,
			log.FieldBudgetID, b.ID,
			log.FieldError, err)
	}
}
