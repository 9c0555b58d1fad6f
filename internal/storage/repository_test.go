package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"budgetboard/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(":memory:")
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

type fixture struct {
	project  core.Project
	category core.Category
	budget   core.BudgetView
}

func seed(t *testing.T, repo *SQLiteRepository) fixture {
	t.Helper()
	ctx := context.Background()
	p, err := repo.CreateProject(ctx, core.Project{Name: "Website"})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	c, err := repo.CreateCategory(ctx, core.Category{Name: "Ads", Color: "#ff0000"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	b, err := repo.CreateBudget(ctx, core.Budget{Name: "Launch", TotalAmount: core.Money{Cents: 100000}, ProjectID: p.ID, CategoryID: c.ID})
	if err != nil {
		t.Fatalf("create budget: %v", err)
	}
	return fixture{project: p, category: c, budget: b}
}

func TestProjectCRUD(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	p, err := repo.CreateProject(ctx, core.Project{Name: "Alpha"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.ID == 0 {
		t.Fatal("expected generated id")
	}

	p.Name = "Alpha 2"
	if _, err := repo.UpdateProject(ctx, p); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := repo.GetProject(ctx, p.ID)
	if err != nil || got.Name != "Alpha 2" {
		t.Fatalf("get: %+v %v", got, err)
	}

	if err := repo.DeleteProject(ctx, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetProject(ctx, p.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := repo.DeleteProject(ctx, p.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
	if _, err := repo.UpdateProject(ctx, core.Project{ID: 999, Name: "x"}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found on update, got %v", err)
	}
}

func TestListPaginationAndSearch(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, name := range []string{"Ann", "Bob", "Bobby", "Carla", "100%_off"} {
		if _, err := repo.CreateManager(ctx, core.Manager{Name: name}); err != nil {
			t.Fatalf("create manager: %v", err)
		}
	}

	items, total, err := repo.ListManagers(ctx, core.NewPageRequest(1, 2, 10, ""))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 5 || len(items) != 2 || items[0].Name != "100%_off" {
		t.Fatalf("unexpected first page total=%d items=%+v", total, items)
	}

	items, total, err = repo.ListManagers(ctx, core.NewPageRequest(3, 2, 10, ""))
	if err != nil || total != 5 || len(items) != 1 || items[0].Name != "Ann" {
		t.Fatalf("unexpected last page total=%d items=%+v err=%v", total, items, err)
	}

	items, total, err = repo.ListManagers(ctx, core.NewPageRequest(1, 10, 10, "bob"))
	if err != nil || total != 2 || len(items) != 2 {
		t.Fatalf("unexpected search result total=%d items=%+v err=%v", total, items, err)
	}

	items, total, err = repo.ListManagers(ctx, core.NewPageRequest(1, 10, 10, "%_"))
	if err != nil || total != 1 || items[0].Name != "100%_off" {
		t.Fatalf("wildcards must be matched literally, total=%d items=%+v err=%v", total, items, err)
	}
}

func TestForeignKeys(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	fx := seed(t, repo)

	_, err := repo.CreateBudget(ctx, core.Budget{Name: "Ghost", TotalAmount: core.Money{Cents: 1}, ProjectID: 999, CategoryID: fx.category.ID})
	if !errors.Is(err, core.ErrInvalidReference) {
		t.Fatalf("expected invalid reference, got %v", err)
	}
	if !errors.Is(err, core.ErrValidation) {
		t.Fatalf("invalid reference should be a validation error, got %v", err)
	}

	if err := repo.DeleteProject(ctx, fx.project.ID); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("expected conflict deleting referenced project, got %v", err)
	}
	if err := repo.DeleteCategory(ctx, fx.category.ID); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("expected conflict deleting referenced category, got %v", err)
	}

	e, err := repo.CreateExpense(ctx, core.Expense{
		Amount: core.Money{Cents: 500}, Description: "Banner", Date: core.NewDate(2025, 4, 2),
		BudgetID: fx.budget.ID, CategoryID: fx.category.ID,
	})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}
	if err := repo.DeleteBudget(ctx, fx.budget.ID); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("expected conflict deleting budget with expenses, got %v", err)
	}
	if err := repo.DeleteExpense(ctx, e.ID); err != nil {
		t.Fatalf("delete expense: %v", err)
	}
	if err := repo.DeleteBudget(ctx, fx.budget.ID); err != nil {
		t.Fatalf("delete budget after expenses are gone: %v", err)
	}
}

func TestBudgetViewSpent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	fx := seed(t, repo)

	for _, cents := range []int64{25000, 60000} {
		_, err := repo.CreateExpense(ctx, core.Expense{
			Amount: core.Money{Cents: cents}, Description: "x", Date: core.NewDate(2025, 1, 1),
			BudgetID: fx.budget.ID, CategoryID: fx.category.ID,
		})
		if err != nil {
			t.Fatalf("create expense: %v", err)
		}
	}

	b, err := repo.GetBudget(ctx, fx.budget.ID)
	if err != nil {
		t.Fatalf("get budget: %v", err)
	}
	if b.Spent.Cents != 85000 || b.Remaining.Cents != 15000 || b.PercentUsed != 85 {
		t.Fatalf("unexpected usage %+v", b)
	}
	if b.ProjectName != "Website" || b.CategoryName != "Ads" || b.CategoryColor != "#ff0000" {
		t.Fatalf("unexpected join fields %+v", b)
	}

	list, total, err := repo.ListBudgets(ctx, core.BudgetFilter{ProjectID: fx.project.ID}, core.NewPageRequest(1, 10, 10, "web"))
	if err != nil || total != 1 || list[0].Spent.Cents != 85000 {
		t.Fatalf("list budgets by project name: total=%d %+v %v", total, list, err)
	}
	list, total, err = repo.ListBudgets(ctx, core.BudgetFilter{CategoryID: 999}, core.NewPageRequest(1, 10, 10, ""))
	if err != nil || total != 0 || len(list) != 0 {
		t.Fatalf("expected empty list: total=%d %+v %v", total, list, err)
	}
}

func TestExpenseFilters(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	fx := seed(t, repo)

	other, err := repo.CreateCategory(ctx, core.Category{Name: "Travel", Color: "#00ff00"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	rows := []core.Expense{
		{Amount: core.Money{Cents: 100}, Description: "jan ads", Date: core.NewDate(2025, 1, 15), BudgetID: fx.budget.ID, CategoryID: fx.category.ID},
		{Amount: core.Money{Cents: 200}, Description: "feb trip", Date: core.NewDate(2025, 2, 15), BudgetID: fx.budget.ID, CategoryID: other.ID},
		{Amount: core.Money{Cents: 300}, Description: "mar ads", Date: core.NewDate(2025, 3, 15), BudgetID: fx.budget.ID, CategoryID: fx.category.ID},
	}
	for _, e := range rows {
		if _, err := repo.CreateExpense(ctx, e); err != nil {
			t.Fatalf("create expense: %v", err)
		}
	}

	all, err := repo.FilterExpenses(ctx, core.ExpenseFilter{})
	if err != nil || len(all) != 3 || all[0].Description != "mar ads" {
		t.Fatalf("expected newest first: %+v %v", all, err)
	}
	if all[0].ProjectID != fx.project.ID || all[0].BudgetName != "Launch" {
		t.Fatalf("unexpected join fields %+v", all[0])
	}

	got, err := repo.FilterExpenses(ctx, core.ExpenseFilter{CategoryID: fx.category.ID, From: core.NewDate(2025, 2, 1)})
	if err != nil || len(got) != 1 || got[0].Description != "mar ads" {
		t.Fatalf("category + from filter: %+v %v", got, err)
	}

	got, err = repo.FilterExpenses(ctx, core.ExpenseFilter{To: core.NewDate(2025, 2, 15)})
	if err != nil || len(got) != 2 {
		t.Fatalf("inclusive to filter: %+v %v", got, err)
	}

	page, total, err := repo.ListExpenses(ctx, core.ExpenseFilter{}, core.NewPageRequest(1, 10, 10, "trip"))
	if err != nil || total != 1 || page[0].CategoryName != "Travel" {
		t.Fatalf("search: total=%d %+v %v", total, page, err)
	}

	recent, err := repo.RecentExpenses(ctx, 2)
	if err != nil || len(recent) != 2 {
		t.Fatalf("recent: %+v %v", recent, err)
	}

	counts, err := repo.Counts(ctx)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if counts != (core.Counts{Projects: 1, Categories: 2, Budgets: 1, Expenses: 3}) {
		t.Fatalf("unexpected counts %+v", counts)
	}
}

func TestExpenseMalformedDate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	fx := seed(t, repo)

	e, err := repo.CreateExpense(ctx, core.Expense{
		Amount: core.Money{Cents: 100}, Description: "legacy row", Date: core.NewDate(2025, 1, 15),
		BudgetID: fx.budget.ID, CategoryID: fx.category.ID,
	})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}
	if _, err := repo.db.ExecContext(ctx, "UPDATE expenses SET date = '15/01/2025' WHERE id = ?", e.ID); err != nil {
		t.Fatalf("corrupt date: %v", err)
	}

	if _, err := repo.GetExpense(ctx, e.ID); !errors.Is(err, core.ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate in chain, got %v", err)
	}
	if _, err := repo.FilterExpenses(ctx, core.ExpenseFilter{}); !errors.Is(err, core.ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate from list, got %v", err)
	}
}

func TestAlerts(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	fx := seed(t, repo)

	if _, err := repo.LatestAlert(ctx, fx.budget.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	created := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	for _, lvl := range []core.AlertLevel{core.AlertWarning, core.AlertExceeded} {
		_, err := repo.InsertAlert(ctx, core.BudgetAlert{
			BudgetID: fx.budget.ID, Level: lvl, Spent: core.Money{Cents: 90000}, Total: core.Money{Cents: 100000}, CreatedAt: created,
		})
		if err != nil {
			t.Fatalf("insert alert: %v", err)
		}
	}

	latest, err := repo.LatestAlert(ctx, fx.budget.ID)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.Level != core.AlertExceeded || latest.BudgetName != "Launch" || !latest.CreatedAt.Equal(created) {
		t.Fatalf("unexpected latest alert %+v", latest)
	}

	list, err := repo.ListAlerts(ctx, 10)
	if err != nil || len(list) != 2 || list[0].Level != core.AlertExceeded {
		t.Fatalf("list alerts: %+v %v", list, err)
	}

	if err := repo.DeleteBudget(ctx, fx.budget.ID); err != nil {
		t.Fatalf("alerts must not block budget deletion: %v", err)
	}
	list, err = repo.ListAlerts(ctx, 10)
	if err != nil || len(list) != 0 {
		t.Fatalf("alerts should cascade: %+v %v", list, err)
	}
}
