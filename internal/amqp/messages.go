package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"financas/internal/core"
)

type EventType string

const (
	BudgetCreated EventType = "budget.created"
	BudgetUpdated EventType = "budget.updated"
	BudgetDeleted EventType = "budget.deleted"
)

// FixedCostShare is one line of the budget breakdown as carried on the wire.
// Decimals travel as strings.
type FixedCostShare struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Amount     string `json:"amount"`
	Percentage string `json:"percentage"`
}

// BudgetEvent carries a full budget snapshot so consumers never need to read
// the database.
type BudgetEvent struct {
	Event                 EventType        `json:"event"`
	BudgetID              string           `json:"budgetId"`
	OwnerID               string           `json:"ownerId"`
	TotalAmount           string           `json:"totalAmount,omitempty"`
	ExtraIncome           string           `json:"extraIncome,omitempty"`
	Total                 string           `json:"total,omitempty"`
	ExtraIncomePercentage string           `json:"extraIncomePercentage,omitempty"`
	FixedCosts            []FixedCostShare `json:"fixedCosts,omitempty"`
	Timestamp             time.Time        `json:"timestamp"`
}

func NewBudgetEvent(event EventType, b core.Budget) *BudgetEvent {
	msg := &BudgetEvent{
		Event:     event,
		BudgetID:  b.ID,
		OwnerID:   b.OwnerID,
		Timestamp: time.Now().UTC(),
	}
	if event == BudgetDeleted {
		return msg
	}
	msg.TotalAmount = b.TotalAmount.String()
	msg.ExtraIncome = b.ExtraIncome.String()
	msg.Total = b.Total.String()
	msg.ExtraIncomePercentage = core.FormatPercent(b.ExtraIncomePercentage)
	for _, fc := range b.FixedCosts {
		msg.FixedCosts = append(msg.FixedCosts, FixedCostShare{
			ID:         fc.ID,
			Name:       fc.Name,
			Amount:     fc.Amount.String(),
			Percentage: core.FormatPercent(fc.Percentage),
		})
	}
	return msg
}

func (m *BudgetEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func BudgetEventFromJSON(data []byte) (*BudgetEvent, error) {
	var msg BudgetEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Event {
	case BudgetCreated, BudgetUpdated, BudgetDeleted:
	default:
		return nil, fmt.Errorf("unknown event type %q", msg.Event)
	}
	if msg.BudgetID == "" {
		return nil, fmt.Errorf("event without budget id")
	}
	return &msg, nil
}

// Budget rebuilds the snapshot carried by the event. Unparseable decimals
// come back as zero.
func (m *BudgetEvent) Budget() core.Budget {
	b := core.Budget{
		ID:                    m.BudgetID,
		OwnerID:               m.OwnerID,
		TotalAmount:           decimalOrZero(m.TotalAmount),
		ExtraIncome:           decimalOrZero(m.ExtraIncome),
		Total:                 decimalOrZero(m.Total),
		ExtraIncomePercentage: decimalOrZero(m.ExtraIncomePercentage),
		UpdatedAt:             m.Timestamp,
	}
	for _, fc := range m.FixedCosts {
		b.FixedCostIDs = append(b.FixedCostIDs, fc.ID)
		b.FixedCosts = append(b.FixedCosts, core.FixedCostShare{
			ID:         fc.ID,
			Name:       fc.Name,
			Amount:     decimalOrZero(fc.Amount),
			Percentage: decimalOrZero(fc.Percentage),
		})
	}
	return b
}

func decimalOrZero(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
