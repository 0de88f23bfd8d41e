package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"saldo/internal/core"
)

// RecurringProcessor runs materialization over a loaded snapshot and reports
// skipped templates as warnings.
type RecurringProcessor struct {
	newID  IDFunc
	logger *slog.Logger
}

// NewRecurringProcessor creates a new recurring transaction processor
func NewRecurringProcessor(newID IDFunc, logger *slog.Logger) *RecurringProcessor {
	if newID == nil {
		newID = NewID
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RecurringProcessor{
		newID:  newID,
		logger: logger,
	}
}

// Process materializes every template of snap up to the month of now and
// returns the updated snapshot with the number of generated transactions.
// Integrity problems never fail the pass: the affected template is kept as is.
func (p *RecurringProcessor) Process(ctx context.Context, snap core.Snapshot, now time.Time) (core.Snapshot, int) {
	p.logger.InfoContext(ctx, "Processing recurring templates",
		"total_templates", len(snap.RecurringTemplates),
		"processing_month", core.MonthOf(now).String())

	result, err := Materialize(snap.RecurringTemplates, snap.Transactions, now, p.newID)
	if err != nil {
		p.logWarnings(ctx, err)
	}

	out := snap
	out.RecurringTemplates = result.Templates
	if len(result.Created) > 0 {
		out.Transactions = make([]core.Transaction, 0, len(snap.Transactions)+len(result.Created))
		out.Transactions = append(out.Transactions, snap.Transactions...)
		out.Transactions = append(out.Transactions, result.Created...)
	}

	for _, tx := range result.Created {
		p.logger.DebugContext(ctx, "Created transaction from recurring template",
			"recurring_id", tx.RecurringID,
			"description", tx.Description,
			"amount_cents", tx.Amount.Cents,
			"date", tx.Date.String())
	}

	p.logger.InfoContext(ctx, "Recurring template processing complete",
		"created", len(result.Created),
		"total_checked", len(snap.RecurringTemplates))

	return out, len(result.Created)
}

func (p *RecurringProcessor) logWarnings(ctx context.Context, err error) {
	errs := []error{err}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	}
	for _, e := range errs {
		var w *core.IntegrityWarning
		if errors.As(e, &w) {
			p.logger.WarnContext(ctx, "Skipping recurring template",
				"template_id", w.ID,
				"error", w.Err)
			continue
		}
		p.logger.WarnContext(ctx, "Skipping recurring template", "error", e)
	}
}
