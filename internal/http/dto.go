package http

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"financas/internal/core"
	"financas/internal/services"
)

// Amounts leave the API as JSON numbers and percentages as two-decimal
// strings ("25.00").
func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
	UID       string `json:"uid"`
	Email     string `json:"email"`
}

type identityResponse struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}

type budgetRequest struct {
	TotalAmount  decimal.Decimal  `json:"totalAmount"`
	ExtraIncome  *decimal.Decimal `json:"extraIncome"`
	FixedCostIDs []string         `json:"fixedCostIds"`
}

func (req budgetRequest) input() services.BudgetInput {
	in := services.BudgetInput{
		TotalAmount:  req.TotalAmount,
		FixedCostIDs: req.FixedCostIDs,
	}
	if req.ExtraIncome != nil {
		in.ExtraIncome = *req.ExtraIncome
	}
	return in
}

type fixedCostShareResponse struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Amount     json.Number `json:"amount"`
	Percentage string      `json:"percentage"`
}

func shareResponses(shares []core.FixedCostShare) []fixedCostShareResponse {
	out := make([]fixedCostShareResponse, 0, len(shares))
	for _, s := range shares {
		out = append(out, fixedCostShareResponse{
			ID:         s.ID,
			Name:       s.Name,
			Amount:     number(s.Amount),
			Percentage: core.FormatPercent(s.Percentage),
		})
	}
	return out
}

type budgetResponse struct {
	ID                    string                   `json:"id"`
	OwnerID               string                   `json:"ownerId"`
	TotalAmount           json.Number              `json:"totalAmount"`
	ExtraIncome           json.Number              `json:"extraIncome"`
	FixedCostIDs          []string                 `json:"fixedCostIds"`
	Total                 json.Number              `json:"total"`
	ExtraIncomePercentage string                   `json:"extraIncomePercentage"`
	FixedCostPercentages  []string                 `json:"fixedCostPercentages"`
	FixedCosts            []fixedCostShareResponse `json:"fixedCosts"`
	OmittedFixedCostIDs   []string                 `json:"omittedFixedCostIds,omitempty"`
	CreatedAt             string                   `json:"createdAt,omitempty"`
	UpdatedAt             string                   `json:"updatedAt,omitempty"`
}

func newBudgetResponse(b core.Budget, omitted []string) budgetResponse {
	pcts := make([]string, 0, len(b.FixedCosts))
	for _, p := range b.FixedCostPercentages() {
		pcts = append(pcts, core.FormatPercent(p))
	}
	ids := b.FixedCostIDs
	if ids == nil {
		ids = []string{}
	}
	return budgetResponse{
		ID:                    b.ID,
		OwnerID:               b.OwnerID,
		TotalAmount:           number(b.TotalAmount),
		ExtraIncome:           number(b.ExtraIncome),
		FixedCostIDs:          ids,
		Total:                 number(b.Total),
		ExtraIncomePercentage: core.FormatPercent(b.ExtraIncomePercentage),
		FixedCostPercentages:  pcts,
		FixedCosts:            shareResponses(b.FixedCosts),
		OmittedFixedCostIDs:   omitted,
		CreatedAt:             timestamp(b.CreatedAt),
		UpdatedAt:             timestamp(b.UpdatedAt),
	}
}

type ratioResponse struct {
	TotalExpenses json.Number `json:"totalExpenses"`
	TotalIncomes  json.Number `json:"totalIncomes"`
	Percentage    string      `json:"percentage"`
	Larger        string      `json:"larger,omitempty"`
}

func newRatioResponse(r services.Ratio) ratioResponse {
	return ratioResponse{
		TotalExpenses: number(r.TotalExpenses),
		TotalIncomes:  number(r.TotalIncomes),
		Percentage:    core.FormatPercent(r.Percentage),
		Larger:        r.Larger,
	}
}

type breakdownResponse struct {
	BudgetID   string                   `json:"budgetId"`
	Total      json.Number              `json:"total"`
	FixedCosts []fixedCostShareResponse `json:"fixedCosts"`
}

type fixedCostRequest struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

type fixedCostResponse struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Amount    json.Number `json:"amount"`
	CreatedAt string      `json:"createdAt,omitempty"`
	UpdatedAt string      `json:"updatedAt,omitempty"`
}

func newFixedCostResponse(c core.FixedCost) fixedCostResponse {
	return fixedCostResponse{
		ID:        c.ID,
		Name:      c.Name,
		Amount:    number(c.Amount),
		CreatedAt: timestamp(c.CreatedAt),
		UpdatedAt: timestamp(c.UpdatedAt),
	}
}

type goalRequest struct {
	Name          string          `json:"name"`
	TargetAmount  decimal.Decimal `json:"targetAmount"`
	CurrentAmount decimal.Decimal `json:"currentAmount"`
	TargetDate    string          `json:"targetDate"`
}

type goalResponse struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	TargetAmount  json.Number `json:"targetAmount"`
	CurrentAmount json.Number `json:"currentAmount"`
	TargetDate    string      `json:"targetDate,omitempty"`
	Percentage    string      `json:"percentage"`
}

func newGoalResponse(g core.Goal) goalResponse {
	return goalResponse{
		ID:            g.ID,
		Name:          g.Name,
		TargetAmount:  number(g.TargetAmount),
		CurrentAmount: number(g.CurrentAmount),
		TargetDate:    g.TargetDate.String(),
		Percentage:    core.FormatPercent(g.Percentage()),
	}
}

// entryRequest is an expense or income. Amount is the pt-BR string the
// client shows ("1.234,56").
type entryRequest struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Date        string `json:"date"`
}

type entryResponse struct {
	ID          string `json:"id"`
	Kind        string `json:"tipo"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Category    string `json:"category,omitempty"`
	Date        string `json:"date"`
}

func newEntryResponse(e core.Entry) entryResponse {
	return entryResponse{
		ID:          e.ID,
		Kind:        string(e.Kind),
		Description: e.Description,
		Amount:      e.Amount,
		Category:    e.Category,
		Date:        e.Date.String(),
	}
}

type categoryRequest struct {
	Name string `json:"name"`
	Kind string `json:"tipo"`
}

type categoryResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind string `json:"tipo"`
}

func newCategoryResponse(c core.Category) categoryResponse {
	return categoryResponse{ID: c.ID, Name: c.Name, Kind: string(c.Kind)}
}
