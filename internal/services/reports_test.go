package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"budgetboard/internal/cache"
	"budgetboard/internal/core"
)

func newTestReports(t *testing.T) (*Board, *Reports) {
	t.Helper()
	store := newTestStore(t)
	manager := cache.NewManager()
	t.Cleanup(manager.Stop)
	reports := NewReports(store, manager, 16, time.Minute)
	return NewBoard(store, nil, reports), reports
}

func addExpense(t *testing.T, b *Board, fx fixture, cents int64, date core.Date) core.ExpenseView {
	t.Helper()
	e, err := b.CreateExpense(context.Background(), core.Expense{
		Amount: core.Money{Cents: cents}, Description: "item", Date: date,
		BudgetID: fx.budget.ID, CategoryID: fx.category.ID,
	})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}
	return e
}

func TestReportsOverview(t *testing.T) {
	board, reports := newTestReports(t)
	ctx := context.Background()
	fx := seedBoard(t, board, 10000)
	addExpense(t, board, fx, 12000, core.NewDate(2025, 2, 1))

	o, err := reports.Overview(ctx)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if o.TotalBudget.Cents != 10000 || o.TotalSpent.Cents != 12000 || o.Remaining.Cents != -2000 {
		t.Errorf("unexpected totals %+v", o)
	}
	if o.PercentUsed != 120 {
		t.Errorf("expected 120%%, got %v", o.PercentUsed)
	}
	if len(o.OverBudget) != 1 || len(o.Recent) != 1 {
		t.Errorf("expected one over-budget and one recent, got %d/%d", len(o.OverBudget), len(o.Recent))
	}
	if o.Counts.Expenses != 1 || o.Counts.Projects != 1 {
		t.Errorf("unexpected counts %+v", o.Counts)
	}
}

func TestReportsCacheFollowsWrites(t *testing.T) {
	board, reports := newTestReports(t)
	ctx := context.Background()
	fx := seedBoard(t, board, 10000)

	first, err := reports.MonthlyReport(ctx, 2025, core.ReportScope{})
	if err != nil {
		t.Fatalf("monthly: %v", err)
	}
	if first.Spent.Cents != 0 {
		t.Fatalf("expected nothing spent, got %v", first.Spent)
	}

	// A write through the repository bypasses invalidation, so the cached
	// report is still served.
	_, err = board.Store().CreateExpense(ctx, core.Expense{
		Amount: core.Money{Cents: 700}, Description: "direct", Date: core.NewDate(2025, 1, 5),
		BudgetID: fx.budget.ID, CategoryID: fx.category.ID,
	})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}
	cached, _ := reports.MonthlyReport(ctx, 2025, core.ReportScope{})
	if cached.Spent.Cents != 0 {
		t.Fatalf("expected cached report, got spent %v", cached.Spent)
	}

	addExpense(t, board, fx, 300, core.NewDate(2025, 3, 5))
	fresh, err := reports.MonthlyReport(ctx, 2025, core.ReportScope{})
	if err != nil {
		t.Fatalf("monthly: %v", err)
	}
	if fresh.Spent.Cents != 1000 {
		t.Fatalf("expected 1000 spent after invalidation, got %v", fresh.Spent)
	}
	if fresh.Points[0].Cumulative.Cents != 700 || fresh.Points[2].Cumulative.Cents != 1000 {
		t.Errorf("unexpected cumulative series %+v", fresh.Points[:3])
	}
}

// invalidatingCache runs onMiss after every cache miss, standing in for a
// write that lands while a report is being built.
type invalidatingCache[T any] struct {
	cache.Cache[T]
	onMiss func()
}

func (c invalidatingCache[T]) Get(key string) (T, bool) {
	v, ok := c.Cache.Get(key)
	if !ok && c.onMiss != nil {
		c.onMiss()
	}
	return v, ok
}

func TestReportsSkipCachingAfterConcurrentInvalidate(t *testing.T) {
	board, reports := newTestReports(t)
	ctx := context.Background()
	seedBoard(t, board, 10000)

	overview, monthly := reports.overview, reports.monthly
	reports.overview = invalidatingCache[core.Overview]{Cache: overview, onMiss: reports.Invalidate}
	reports.monthly = invalidatingCache[core.MonthlyReport]{Cache: monthly, onMiss: reports.Invalidate}

	if _, err := reports.Overview(ctx); err != nil {
		t.Fatalf("overview: %v", err)
	}
	if _, err := reports.MonthlyReport(ctx, 2025, core.ReportScope{}); err != nil {
		t.Fatalf("monthly: %v", err)
	}
	if overview.Size() != 0 || monthly.Size() != 0 {
		t.Fatalf("reports built across an invalidation were cached: overview=%d monthly=%d", overview.Size(), monthly.Size())
	}

	reports.overview, reports.monthly = overview, monthly
	if _, err := reports.Overview(ctx); err != nil {
		t.Fatalf("overview: %v", err)
	}
	if overview.Size() != 1 {
		t.Errorf("undisturbed build should be cached, size=%d", overview.Size())
	}
}

func TestReportsMonthlyScope(t *testing.T) {
	board, reports := newTestReports(t)
	ctx := context.Background()
	fx := seedBoard(t, board, 10000)
	addExpense(t, board, fx, 500, core.NewDate(2025, 6, 1))
	addExpense(t, board, fx, 900, core.NewDate(2024, 6, 1))

	rep, err := reports.MonthlyReport(ctx, 2025, core.ReportScope{ProjectID: fx.project.ID})
	if err != nil {
		t.Fatalf("monthly: %v", err)
	}
	if rep.Budget.Cents != 10000 || rep.Spent.Cents != 500 {
		t.Errorf("unexpected report budget=%v spent=%v", rep.Budget, rep.Spent)
	}

	rep, err = reports.MonthlyReport(ctx, 2025, core.ReportScope{ProjectID: fx.project.ID + 1})
	if err != nil {
		t.Fatalf("monthly: %v", err)
	}
	if rep.Budget.Cents != 0 || rep.Spent.Cents != 0 || len(rep.Points) != 12 {
		t.Errorf("foreign scope should be empty, got %+v", rep)
	}
}

func TestReportsCategoryAndAnalytics(t *testing.T) {
	board, reports := newTestReports(t)
	ctx := context.Background()
	fx := seedBoard(t, board, 10000)
	if _, err := board.CreateCategory(ctx, core.Category{Name: "Idle"}); err != nil {
		t.Fatalf("create category: %v", err)
	}
	addExpense(t, board, fx, 2500, core.NewDate(2025, 1, 10))
	addExpense(t, board, fx, 2500, core.NewDate(2025, 4, 10))

	usage, err := reports.CategoryReport(ctx)
	if err != nil {
		t.Fatalf("category report: %v", err)
	}
	if len(usage) != 2 || usage[0].Name != "Ads" || usage[0].Percent != 50 {
		t.Fatalf("unexpected usage %+v", usage)
	}
	if usage[1].Percent != 0 {
		t.Errorf("category without budget should report 0%%, got %v", usage[1].Percent)
	}

	a, err := reports.Analytics(ctx, core.ExpenseFilter{From: core.NewDate(2025, 2, 1)})
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if a.Count != 1 || a.Total.Cents != 2500 {
		t.Errorf("unexpected analytics %+v", a)
	}

	_, err = reports.Analytics(ctx, core.ExpenseFilter{From: core.NewDate(2025, 2, 1), To: core.NewDate(2025, 1, 1)})
	if !errors.Is(err, core.ErrValidation) {
		t.Errorf("expected validation error for inverted range, got %v", err)
	}
}
