package http

import (
	"context"
	"net/http"

	"golang.org/x/sync/errgroup"

	"budgetboard/internal/core"
)

func (s *Server) handleDashboardPage(w http.ResponseWriter, r *http.Request) {
	o, err := s.reports.Overview(r.Context())
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	alerts, err := s.reports.Alerts(r.Context(), core.RecentExpenses)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "dashboard", pageData{
		Title: "Dashboard",
		Nav:   "dashboard",
		Data:  dashboardView{Overview: o, Alerts: alerts},
	})
}

func (s *Server) handleProjectsPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req := s.pageRequest(r)
	items, total, err := s.store.ListProjects(ctx, req)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	var edit core.Project
	if id := editID(r); id > 0 {
		if edit, err = s.store.GetProject(ctx, id); err != nil {
			s.renderError(w, r, err)
			return
		}
	}
	s.render(w, r, http.StatusOK, "entity", pageData{
		Title: "Projects",
		Nav:   "projects",
		Data:  projectsView(r.URL, core.NewPage(items, total, req), req.Query, edit),
	})
}

func (s *Server) handleManagersPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req := s.pageRequest(r)
	items, total, err := s.store.ListManagers(ctx, req)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	var edit core.Manager
	if id := editID(r); id > 0 {
		if edit, err = s.store.GetManager(ctx, id); err != nil {
			s.renderError(w, r, err)
			return
		}
	}
	s.render(w, r, http.StatusOK, "entity", pageData{
		Title: "Managers",
		Nav:   "managers",
		Data:  managersView(r.URL, core.NewPage(items, total, req), req.Query, edit),
	})
}

func (s *Server) handleCategoriesPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req := s.pageRequest(r)
	items, total, err := s.store.ListCategories(ctx, req)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	var edit core.Category
	if id := editID(r); id > 0 {
		if edit, err = s.store.GetCategory(ctx, id); err != nil {
			s.renderError(w, r, err)
			return
		}
	}
	s.render(w, r, http.StatusOK, "entity", pageData{
		Title: "Categories",
		Nav:   "categories",
		Data:  categoriesView(r.URL, core.NewPage(items, total, req), req.Query, edit),
	})
}

// options loads the select lists shared by the budget, expense, analytics
// and report pages.
type options struct {
	projects   []core.Project
	categories []core.Category
	budgets    []core.BudgetView
}

func (s *Server) loadOptions(ctx context.Context, withBudgets bool) (options, error) {
	var o options
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		o.projects, err = s.store.AllProjects(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		o.categories, err = s.store.AllCategories(ctx)
		return err
	})
	if withBudgets {
		g.Go(func() error {
			var err error
			o.budgets, err = s.store.AllBudgets(ctx, core.BudgetFilter{})
			return err
		})
	}
	return o, g.Wait()
}

func (s *Server) handleBudgetsPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req := s.pageRequest(r)
	f := budgetFilter(r)
	items, total, err := s.store.ListBudgets(ctx, f, req)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	opts, err := s.loadOptions(ctx, false)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	var edit core.BudgetView
	if id := editID(r); id > 0 {
		if edit, err = s.store.GetBudget(ctx, id); err != nil {
			s.renderError(w, r, err)
			return
		}
	}
	s.render(w, r, http.StatusOK, "entity", pageData{
		Title: "Budgets",
		Nav:   "budgets",
		Data:  budgetsView(r.URL, core.NewPage(items, total, req), req.Query, f, edit, opts.projects, opts.categories),
	})
}

func (s *Server) handleExpensesPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	f, err := expenseFilter(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	req := s.pageRequest(r)
	items, total, err := s.store.ListExpenses(ctx, f, req)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	opts, err := s.loadOptions(ctx, true)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	var edit core.ExpenseView
	if id := editID(r); id > 0 {
		if edit, err = s.store.GetExpense(ctx, id); err != nil {
			s.renderError(w, r, err)
			return
		}
	}
	now := s.now()
	today := core.NewDate(now.Year(), int(now.Month()), now.Day())
	s.render(w, r, http.StatusOK, "entity", pageData{
		Title: "Expenses",
		Nav:   "expenses",
		Data: expensesView(r.URL, core.NewPage(items, total, req), req.Query, f, edit,
			opts.budgets, opts.projects, opts.categories, today),
	})
}

func (s *Server) handleAnalyticsPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	f, err := expenseFilter(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	result, err := s.reports.Analytics(ctx, f)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	opts, err := s.loadOptions(ctx, false)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "analytics", pageData{
		Title: "Analytics",
		Nav:   "analytics",
		Data: analyticsView{
			Filters: expenseFilterFields(f, opts.projects, opts.categories),
			Result:  result,
		},
	})
}

func (s *Server) handleReportsPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	year, scope := s.reportParams(r)
	rep, err := s.reports.MonthlyReport(ctx, year, scope)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	usage, err := s.reports.CategoryReport(ctx)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	opts, err := s.loadOptions(ctx, false)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "reports", pageData{
		Title: "Reports",
		Nav:   "reports",
		Data:  newReportsView(rep, usage, s.now().Year(), opts.projects, opts.categories, s.sheets != nil),
	})
}
