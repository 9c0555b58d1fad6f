package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"budgetboard/internal/cache"
	"budgetboard/internal/core"
	"budgetboard/internal/storage"
)

// Reports serves the read side of the dashboard. Results are cached until
// the TTL expires or a write calls Invalidate.
type Reports struct {
	store    *storage.SQLiteRepository
	manager  *cache.Manager
	overview cache.Cache[core.Overview]
	expenses cache.Cache[[]core.ExpenseView]
	monthly  cache.Cache[core.MonthlyReport]
	category cache.Cache[[]core.CategoryUsage]

	// gen counts invalidations. A build only caches its result when no
	// invalidation happened since it started reading.
	gen atomic.Uint64
	mu  sync.RWMutex
}

const snapshotKey = "all"

func NewReports(store *storage.SQLiteRepository, manager *cache.Manager, size int, ttl time.Duration) *Reports {
	overview := cache.NewLRUCache[core.Overview](1, ttl)
	expenses := cache.NewLRUCache[[]core.ExpenseView](1, ttl)
	monthly := cache.NewLRUCache[core.MonthlyReport](size, ttl)
	category := cache.NewLRUCache[[]core.CategoryUsage](1, ttl)

	manager.Register("overview", overview)
	manager.Register("expenses", expenses)
	manager.Register("monthly", monthly)
	manager.Register("categories", category)

	return &Reports{
		store:    store,
		manager:  manager,
		overview: overview,
		expenses: expenses,
		monthly:  monthly,
		category: category,
	}
}

// Invalidate drops every cached report.
func (r *Reports) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen.Add(1)
	if n := r.manager.PurgeAll(); n > 0 {
		slog.Debug("Report caches purged", "entries", n)
	}
}

// storeIfCurrent caches v unless the caches were invalidated after gen was read.
func storeIfCurrent[T any](r *Reports, gen uint64, c cache.Cache[T], key string, v T) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.gen.Load() != gen {
		slog.Debug("Dropping report built before an invalidation", "key", key)
		return
	}
	c.Set(key, v)
}

func (r *Reports) Overview(ctx context.Context) (core.Overview, error) {
	gen := r.gen.Load()
	if o, ok := r.overview.Get(snapshotKey); ok {
		return o, nil
	}

	var (
		counts  core.Counts
		budgets []core.BudgetView
		recent  []core.ExpenseView
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		counts, err = r.store.Counts(gctx)
		return err
	})
	g.Go(func() (err error) {
		budgets, err = r.store.AllBudgets(gctx, core.BudgetFilter{})
		return err
	})
	g.Go(func() (err error) {
		recent, err = r.store.RecentExpenses(gctx, core.RecentExpenses)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.Overview{}, fmt.Errorf("build overview: %w", err)
	}

	o := core.BuildOverview(counts, budgets, recent)
	storeIfCurrent(r, gen, r.overview, snapshotKey, o)
	return o, nil
}

// allExpenses is the snapshot the in-memory filters and reports work on.
func (r *Reports) allExpenses(ctx context.Context) ([]core.ExpenseView, error) {
	gen := r.gen.Load()
	if items, ok := r.expenses.Get(snapshotKey); ok {
		return items, nil
	}
	items, err := r.store.FilterExpenses(ctx, core.ExpenseFilter{})
	if err != nil {
		return nil, err
	}
	storeIfCurrent(r, gen, r.expenses, snapshotKey, items)
	return items, nil
}

// Analytics filters the expense snapshot and aggregates what is left.
func (r *Reports) Analytics(ctx context.Context, f core.ExpenseFilter) (core.Analytics, error) {
	if err := f.Validate(); err != nil {
		return core.Analytics{}, err
	}
	items, err := r.allExpenses(ctx)
	if err != nil {
		return core.Analytics{}, fmt.Errorf("load expenses: %w", err)
	}
	return core.Analyze(core.FilterExpenses(items, f)), nil
}

// MonthlyReport returns the cumulative budget-vs-spent series for year.
func (r *Reports) MonthlyReport(ctx context.Context, year int, scope core.ReportScope) (core.MonthlyReport, error) {
	if year <= 0 {
		year = time.Now().Year()
	}
	gen := r.gen.Load()
	key := fmt.Sprintf("%d:%d:%d", year, scope.ProjectID, scope.CategoryID)
	if rep, ok := r.monthly.Get(key); ok {
		return rep, nil
	}

	var (
		budgets  []core.BudgetView
		expenses []core.ExpenseView
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		budgets, err = r.store.AllBudgets(gctx, core.BudgetFilter{
			ProjectID:  scope.ProjectID,
			CategoryID: scope.CategoryID,
		})
		return err
	})
	g.Go(func() (err error) {
		expenses, err = r.store.FilterExpenses(gctx, core.ExpenseFilter{
			ProjectID:  scope.ProjectID,
			CategoryID: scope.CategoryID,
			From:       core.NewDate(year, 1, 1),
			To:         core.NewDate(year, 12, 31),
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return core.MonthlyReport{}, fmt.Errorf("build monthly report %d: %w", year, err)
	}

	rep := core.BuildMonthlyReport(year, scope, budgets, expenses)
	storeIfCurrent(r, gen, r.monthly, key, rep)
	return rep, nil
}

// CategoryReport returns budgeted vs spent for every category.
func (r *Reports) CategoryReport(ctx context.Context) ([]core.CategoryUsage, error) {
	gen := r.gen.Load()
	if rep, ok := r.category.Get(snapshotKey); ok {
		return rep, nil
	}

	var (
		categories []core.Category
		budgets    []core.BudgetView
		expenses   []core.ExpenseView
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		categories, err = r.store.AllCategories(gctx)
		return err
	})
	g.Go(func() (err error) {
		budgets, err = r.store.AllBudgets(gctx, core.BudgetFilter{})
		return err
	})
	g.Go(func() (err error) {
		expenses, err = r.allExpenses(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("build category report: %w", err)
	}

	rep := core.BuildCategoryReport(categories, budgets, expenses)
	storeIfCurrent(r, gen, r.category, snapshotKey, rep)
	return rep, nil
}

// Alerts lists the newest budget alerts. They are written by the worker, so
// they bypass the caches.
func (r *Reports) Alerts(ctx context.Context, limit int) ([]core.BudgetAlert, error) {
	if limit <= 0 || limit > core.MaxPageSize {
		limit = core.DefaultPageSize
	}
	return r.store.ListAlerts(ctx, limit)
}

// CacheStats reports the usage of the report caches by name.
func (r *Reports) CacheStats() map[string]cache.Stats {
	return r.manager.Stats()
}
