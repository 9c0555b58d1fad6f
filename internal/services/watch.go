package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"budgetboard/internal/core"
	"budgetboard/internal/storage"
)

// BudgetWatch turns budget utilization into alert rows. A row is written
// only when the level of a budget changes.
type BudgetWatch struct {
	store     *storage.SQLiteRepository
	threshold int
	locks     sync.Map // budget id -> *sync.Mutex
}

func NewBudgetWatch(store *storage.SQLiteRepository, warningThreshold int) *BudgetWatch {
	if warningThreshold <= 0 || warningThreshold >= 100 {
		warningThreshold = core.DefaultWarningThreshold
	}
	return &BudgetWatch{store: store, threshold: warningThreshold}
}

// Check evaluates one budget and returns the alert it recorded, if any.
// A budget that no longer exists is not an error.
func (w *BudgetWatch) Check(ctx context.Context, budgetID int64) (*core.BudgetAlert, error) {
	unlock := w.lock(budgetID)
	defer unlock()

	b, err := w.store.GetBudget(ctx, budgetID)
	if errors.Is(err, core.ErrNotFound) {
		slog.DebugContext(ctx, "Budget gone, skipping check", "budget_id", budgetID)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load budget: %w", err)
	}
	return w.evaluate(ctx, b)
}

// lock serializes checks of one budget so the latest alert read and the
// insert that follows it cannot interleave with another check.
func (w *BudgetWatch) lock(budgetID int64) func() {
	m, _ := w.locks.LoadOrStore(budgetID, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (w *BudgetWatch) evaluate(ctx context.Context, b core.BudgetView) (*core.BudgetAlert, error) {
	level := core.ClassifyUsage(b.PercentUsed, w.threshold)

	prev := core.AlertNone
	latest, err := w.store.LatestAlert(ctx, b.ID)
	switch {
	case err == nil:
		prev = latest.Level
	case !errors.Is(err, core.ErrNotFound):
		return nil, fmt.Errorf("load latest alert: %w", err)
	}

	next, ok := transition(prev, level)
	if !ok {
		return nil, nil
	}

	alert, err := w.store.InsertAlert(ctx, core.BudgetAlert{
		BudgetID:   b.ID,
		BudgetName: b.Name,
		Level:      next,
		Spent:      b.Spent,
		Total:      b.TotalAmount,
	})
	if err != nil {
		return nil, fmt.Errorf("record alert: %w", err)
	}

	slog.InfoContext(ctx, "Budget alert recorded",
		"budget_id", b.ID,
		"level", next,
		"percent", b.PercentUsed)
	return &alert, nil
}

// transition decides which level to record given the latest recorded one.
// Dropping back under the threshold records "resolved" once.
func transition(prev, current core.AlertLevel) (core.AlertLevel, bool) {
	if current == core.AlertNone {
		if prev == core.AlertWarning || prev == core.AlertExceeded {
			return core.AlertResolved, true
		}
		return "", false
	}
	if current == prev {
		return "", false
	}
	return current, true
}

// SweepResult summarizes one pass over all budgets.
type SweepResult struct {
	Checked int
	Alerts  []core.BudgetAlert
}

// Sweep re-checks every budget. It stops at the first storage error.
func (w *BudgetWatch) Sweep(ctx context.Context) (SweepResult, error) {
	var res SweepResult

	budgets, err := w.store.AllBudgets(ctx, core.BudgetFilter{})
	if err != nil {
		return res, fmt.Errorf("list budgets: %w", err)
	}
	for _, b := range budgets {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		unlock := w.lock(b.ID)
		alert, err := w.evaluate(ctx, b)
		unlock()
		if err != nil {
			return res, fmt.Errorf("check budget %d: %w", b.ID, err)
		}
		res.Checked++
		if alert != nil {
			res.Alerts = append(res.Alerts, *alert)
		}
	}
	return res, nil
}
