package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"budgetboard/internal/amqp"
	"budgetboard/internal/core"
	"budgetboard/internal/services"
	"budgetboard/internal/sheets"
)

// ChangeWorker reacts to change messages: it re-checks the affected budget
// and keeps the published spreadsheet report current.
type ChangeWorker struct {
	watch   *services.BudgetWatch
	reports *services.Reports
	sink    sheets.ReportSink
	now     func() time.Time
}

// NewChangeWorker creates a worker. sink may be nil when Sheets is not configured.
func NewChangeWorker(watch *services.BudgetWatch, reports *services.Reports, sink sheets.ReportSink) *ChangeWorker {
	return &ChangeWorker{watch: watch, reports: reports, sink: sink, now: time.Now}
}

// HandleChange processes a single change message from AMQP. A returned error
// requeues the message.
func (w *ChangeWorker) HandleChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	slog.DebugContext(ctx, "Processing change message",
		"entity", msg.Entity,
		"action", msg.Action,
		"id", msg.ID)

	// Anything may have changed the figures the reports are built from.
	if w.reports != nil {
		w.reports.Invalidate()
	}

	if !msg.AffectsBudget() {
		return nil
	}
	if msg.Entity == amqp.EntityBudget && msg.Action == amqp.ActionDeleted {
		return nil
	}

	alert, err := w.watch.Check(ctx, msg.BudgetID)
	if err != nil {
		return fmt.Errorf("check budget %d: %w", msg.BudgetID, err)
	}
	if alert != nil {
		slog.InfoContext(ctx, "Budget level changed",
			"budget_id", alert.BudgetID,
			"budget", alert.BudgetName,
			"level", alert.Level,
			"timestamp", msg.Timestamp)
	}
	return nil
}

// AfterSweep republishes the current year's report once a sweep finished.
func (w *ChangeWorker) AfterSweep(ctx context.Context, res services.SweepResult) error {
	if w.sink == nil {
		return nil
	}
	w.reports.Invalidate()
	return w.PublishYear(ctx, w.now().Year())
}

// PublishYear writes the report for year when it differs from the sheet.
func (w *ChangeWorker) PublishYear(ctx context.Context, year int) error {
	if w.sink == nil {
		return nil
	}
	rep, err := w.reports.MonthlyReport(ctx, year, core.ReportScope{})
	if err != nil {
		return fmt.Errorf("build monthly report: %w", err)
	}
	usage, err := w.reports.CategoryReport(ctx)
	if err != nil {
		return fmt.Errorf("build category report: %w", err)
	}

	wrote, err := sheets.PublishIfChanged(ctx, w.sink, rep, usage)
	if err != nil {
		return err
	}
	if wrote {
		slog.InfoContext(ctx, "Report republished", "year", year)
	} else {
		slog.DebugContext(ctx, "Published report already current", "year", year)
	}
	return nil
}
