// Package worker regenerates the stored financial narrative whenever
// the ledger changes. Events are collapsed: a burst of changes yields
// one regeneration after the cooldown.
package worker

import (
	"context"
	"log/slog"
	"time"

	"bizbook/internal/amqp"
	"bizbook/internal/core"
	"bizbook/internal/reports"
)

// LedgerReader supplies the transaction snapshot to analyze.
type LedgerReader interface {
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
}

// InsightStore persists generated narratives.
type InsightStore interface {
	SaveInsight(ctx context.Context, body string) (int64, error)
}

// NarrativeGenerator produces the analysis text. A degraded fallback
// body with a non-nil error is persisted anyway.
type NarrativeGenerator interface {
	Generate(ctx context.Context, transactions []core.Transaction, summary core.FinancialSummary) (string, error)
}

type InsightWorker struct {
	ledger    LedgerReader
	store     InsightStore
	generator NarrativeGenerator
	cooldown  time.Duration

	trigger chan struct{}
}

func NewInsightWorker(ledger LedgerReader, store InsightStore, generator NarrativeGenerator, cooldown time.Duration) *InsightWorker {
	return &InsightWorker{
		ledger:    ledger,
		store:     store,
		generator: generator,
		cooldown:  cooldown,
		trigger:   make(chan struct{}, 1),
	}
}

// HandleLedgerEvent is the AMQP consumer callback. Every entity and
// action schedules the same regeneration, so the payload only gets
// logged.
func (w *InsightWorker) HandleLedgerEvent(msg *amqp.LedgerEventMessage) error {
	slog.Debug("Ledger event received", "entity", msg.Entity, "entity_id", msg.EntityID, "action", msg.Action)
	w.Notify()
	return nil
}

// Notify schedules a regeneration without blocking. Pending triggers
// collapse into one.
func (w *InsightWorker) Notify() {
	select {
	case w.trigger <- struct{}{}:
	default:
	}
}

// Run processes triggers until the context is cancelled, enforcing the
// cooldown between regenerations.
func (w *InsightWorker) Run(ctx context.Context) error {
	var lastRun time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.trigger:
		}

		if wait := w.cooldown - time.Since(lastRun); wait > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		w.regenerate(ctx)
		lastRun = time.Now()
	}
}

func (w *InsightWorker) regenerate(ctx context.Context) {
	transactions, err := w.ledger.ListTransactions(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load transactions for insight", "error", err)
		return
	}
	summary := reports.ComputeSummary(transactions)

	body, err := w.generator.Generate(ctx, transactions, summary)
	if err != nil {
		// The generator degrades to a readable fallback; store it so
		// the dashboard never shows a stale narrative silently.
		slog.WarnContext(ctx, "Insight generation degraded", "error", err)
	}

	id, err := w.store.SaveInsight(ctx, body)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to store insight", "error", err)
		return
	}
	slog.InfoContext(ctx, "Insight stored", "insight_id", id, "transactions", len(transactions))
}
