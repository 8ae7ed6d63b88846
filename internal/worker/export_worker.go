// Package worker consumes budget events and exports them.
package worker

import (
	"context"
	"fmt"
	"time"

	"financas/internal/amqp"
	"financas/internal/cache"
	"financas/internal/core"
	"financas/internal/log"
	"financas/internal/ports"
)

const (
	defaultMaxAttempts = 3
	attemptsTTL        = time.Hour
)

// ExportWorker forwards each budget event to a ports.BudgetExporter. A failed
// event is requeued until it has failed MaxAttempts times, then dropped.
type ExportWorker struct {
	exporter    ports.BudgetExporter
	logger      *log.Logger
	attempts    *cache.LRUCache[int]
	maxAttempts int
}

func NewExportWorker(exporter ports.BudgetExporter, maxAttempts int, logger *log.Logger) *ExportWorker {
	if logger == nil {
		logger = log.Discard()
	}
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	return &ExportWorker{
		exporter:    exporter,
		logger:      logger.WithComponent(log.ComponentWorker),
		attempts:    cache.NewLRUCache[int](1000, attemptsTTL),
		maxAttempts: maxAttempts,
	}
}

// Attempts exposes the retry bookkeeping so it can be registered for cleanup.
func (w *ExportWorker) Attempts() *cache.LRUCache[int] {
	return w.attempts
}

// HandleBudgetEvent is the amqp consumer callback. A returned error requeues
// the delivery.
func (w *ExportWorker) HandleBudgetEvent(ctx context.Context, msg *amqp.BudgetEvent) error {
	key := fmt.Sprintf("%s/%s/%d", msg.Event, msg.BudgetID, msg.Timestamp.UnixNano())
	w.logger.InfoContext(ctx, "Processing budget event",
		log.FieldEvent, string(msg.Event),
		log.FieldBudgetID, msg.BudgetID)

	ref, err := w.exporter.ExportBudget(ctx, string(msg.Event), msg.Budget())
	if err == nil {
		w.attempts.Delete(key)
		w.logger.InfoContext(ctx, "Budget event exported",
			log.FieldEvent, string(msg.Event),
			log.FieldBudgetID, msg.BudgetID,
			log.FieldSheetsRef, ref)
		return nil
	}

	n, _ := w.attempts.Get(key)
	n++
	if n >= w.maxAttempts {
		w.attempts.Delete(key)
		w.logger.ErrorContext(ctx, "Dropping budget event after repeated failures",
			log.FieldEvent, string(msg.Event),
			log.FieldBudgetID, msg.BudgetID,
			"attempts", n,
			log.FieldError, err)
		return nil
	}
	w.attempts.Set(key, n)
	w.logger.WarnContext(ctx, "Budget export failed, requeueing",
		log.FieldEvent, string(msg.Event),
		log.FieldBudgetID, msg.BudgetID,
		"attempts", n,
		log.FieldError, err)
	return fmt.Errorf("export budget %s: %w", msg.BudgetID, err)
}

// LogExporter is the exporter used when no spreadsheet is configured.
type LogExporter struct {
	Logger *log.Logger
}

var _ ports.BudgetExporter = LogExporter{}

func (e LogExporter) ExportBudget(ctx context.Context, event string, b core.Budget) (string, error) {
	logger := e.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger.InfoContext(ctx, "Budget event",
		log.FieldEvent, event,
		log.FieldBudgetID, b.ID,
		log.FieldOwnerID, b.OwnerID,
		log.FieldTotal, b.Total.StringFixed(2),
		"fixed_costs", len(b.FixedCosts))
	return "log", nil
}
