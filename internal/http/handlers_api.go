package http

import (
	"net/http"
	"strings"

	"budgetboard/internal/amqp"
	"budgetboard/internal/core"
	blog "budgetboard/internal/log"
)

func listJSON[T any](w http.ResponseWriter, r *http.Request, req core.PageRequest, items []T, total int, err error) {
	if err != nil {
		writeError(w, r, blog.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, core.NewPage(items, total, req))
}

func itemJSON[T any](w http.ResponseWriter, r *http.Request, item T, err error) {
	if err != nil {
		writeError(w, r, blog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// written replies to a successful write. HTMX callers also get the
// entity:changed event, a notification and a page refresh.
func written(w http.ResponseWriter, r *http.Request, status int, entity, action string, id int64, body any) {
	b := NewHTMXResponse().Status(status)
	if isHTMX(r) {
		b.TriggerEntityChanged(entity, action, id).
			TriggerSuccessNotification(strings.ToUpper(entity[:1]) + entity[1:] + " " + action).
			Refresh()
	}
	if body != nil {
		b.JSON(body)
	}
	b.Write(w)
}

// Projects

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	req := s.pageRequest(r)
	items, total, err := s.store.ListProjects(r.Context(), req)
	listJSON(w, r, req, items, total, err)
}

func (s *Server) handleAllProjects(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.AllProjects(r.Context())
	itemJSON(w, r, items, err)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, blog.OpRead, err)
		return
	}
	p, err := s.store.GetProject(r.Context(), id)
	itemJSON(w, r, p, err)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	body, ok := parseBody(w, r)
	if !ok {
		return
	}
	p, err := s.board.CreateProject(r.Context(), projectFromBody(body))
	if err != nil {
		writeError(w, r, blog.OpCreate, err)
		return
	}
	written(w, r, http.StatusCreated, amqp.EntityProject, amqp.ActionCreated, p.ID, p)
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, blog.OpUpdate, err)
		return
	}
	body, ok := parseBody(w, r)
	if !ok {
		return
	}
	in := projectFromBody(body)
	in.ID = id
	p, err := s.board.UpdateProject(r.Context(), in)
	if err != nil {
		writeError(w, r, blog.OpUpdate, err)
		return
	}
	written(w, r, http.StatusOK, amqp.EntityProject, amqp.ActionUpdated, p.ID, p)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err == nil {
		err = s.board.DeleteProject(r.Context(), id)
	}
	if err != nil {
		writeError(w, r, blog.OpDelete, err)
		return
	}
	written(w, r, http.StatusNoContent, amqp.EntityProject, amqp.ActionDeleted, id, nil)
}

// Managers

func (s *Server) handleListManagers(w http.ResponseWriter, r *http.Request) {
	req := s.pageRequest(r)
	items, total, err := s.store.ListManagers(r.Context(), req)
	listJSON(w, r, req, items, total, err)
}

func (s *Server) handleGetManager(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, blog.OpRead, err)
		return
	}
	m, err := s.store.GetManager(r.Context(), id)
	itemJSON(w, r, m, err)
}

func (s *Server) handleCreateManager(w http.ResponseWriter, r *http.Request) {
	body, ok := parseBody(w, r)
	if !ok {
		return
	}
	m, err := s.board.CreateManager(r.Context(), managerFromBody(body))
	if err != nil {
		writeError(w, r, blog.OpCreate, err)
		return
	}
	written(w, r, http.StatusCreated, amqp.EntityManager, amqp.ActionCreated, m.ID, m)
}

func (s *Server) handleUpdateManager(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, blog.OpUpdate, err)
		return
	}
	body, ok := parseBody(w, r)
	if !ok {
		return
	}
	in := managerFromBody(body)
	in.ID = id
	m, err := s.board.UpdateManager(r.Context(), in)
	if err != nil {
		writeError(w, r, blog.OpUpdate, err)
		return
	}
	written(w, r, http.StatusOK, amqp.EntityManager, amqp.ActionUpdated, m.ID, m)
}

func (s *Server) handleDeleteManager(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err == nil {
		err = s.board.DeleteManager(r.Context(), id)
	}
	if err != nil {
		writeError(w, r, blog.OpDelete, err)
		return
	}
	written(w, r, http.StatusNoContent, amqp.EntityManager, amqp.ActionDeleted, id, nil)
}

// Categories

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	req := s.pageRequest(r)
	items, total, err := s.store.ListCategories(r.Context(), req)
	listJSON(w, r, req, items, total, err)
}

func (s *Server) handleAllCategories(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.AllCategories(r.Context())
	itemJSON(w, r, items, err)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, blog.OpRead, err)
		return
	}
	c, err := s.store.GetCategory(r.Context(), id)
	itemJSON(w, r, c, err)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	body, ok := parseBody(w, r)
	if !ok {
		return
	}
	c, err := s.board.CreateCategory(r.Context(), categoryFromBody(body))
	if err != nil {
		writeError(w, r, blog.OpCreate, err)
		return
	}
	written(w, r, http.StatusCreated, amqp.EntityCategory, amqp.ActionCreated, c.ID, c)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, blog.OpUpdate, err)
		return
	}
	body, ok := parseBody(w, r)
	if !ok {
		return
	}
	in := categoryFromBody(body)
	in.ID = id
	c, err := s.board.UpdateCategory(r.Context(), in)
	if err != nil {
		writeError(w, r, blog.OpUpdate, err)
		return
	}
	written(w, r, http.StatusOK, amqp.EntityCategory, amqp.ActionUpdated, c.ID, c)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err == nil {
		err = s.board.DeleteCategory(r.Context(), id)
	}
	if err != nil {
		writeError(w, r, blog.OpDelete, err)
		return
	}
	written(w, r, http.StatusNoContent, amqp.EntityCategory, amqp.ActionDeleted, id, nil)
}

// Budgets

func budgetFilter(r *http.Request) core.BudgetFilter {
	return core.BudgetFilter{
		ProjectID:  queryInt64(r, "projectid"),
		CategoryID: queryInt64(r, "categoryid"),
	}
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	req := s.pageRequest(r)
	items, total, err := s.store.ListBudgets(r.Context(), budgetFilter(r), req)
	listJSON(w, r, req, items, total, err)
}

func (s *Server) handleAllBudgets(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.AllBudgets(r.Context(), budgetFilter(r))
	itemJSON(w, r, items, err)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, blog.OpRead, err)
		return
	}
	b, err := s.store.GetBudget(r.Context(), id)
	itemJSON(w, r, b, err)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	body, ok := parseBody(w, r)
	if !ok {
		return
	}
	in, err := budgetFromBody(body)
	if err != nil {
		writeError(w, r, blog.OpCreate, err)
		return
	}
	b, err := s.board.CreateBudget(r.Context(), in)
	if err != nil {
		writeError(w, r, blog.OpCreate, err)
		return
	}
	written(w, r, http.StatusCreated, amqp.EntityBudget, amqp.ActionCreated, b.ID, b)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, blog.OpUpdate, err)
		return
	}
	body, ok := parseBody(w, r)
	if !ok {
		return
	}
	in, err := budgetFromBody(body)
	if err != nil {
		writeError(w, r, blog.OpUpdate, err)
		return
	}
	in.ID = id
	b, err := s.board.UpdateBudget(r.Context(), in)
	if err != nil {
		writeError(w, r, blog.OpUpdate, err)
		return
	}
	written(w, r, http.StatusOK, amqp.EntityBudget, amqp.ActionUpdated, b.ID, b)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err == nil {
		err = s.board.DeleteBudget(r.Context(), id)
	}
	if err != nil {
		writeError(w, r, blog.OpDelete, err)
		return
	}
	written(w, r, http.StatusNoContent, amqp.EntityBudget, amqp.ActionDeleted, id, nil)
}

// Expenses

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	f, err := expenseFilter(r)
	if err != nil {
		writeError(w, r, blog.OpList, err)
		return
	}
	req := s.pageRequest(r)
	items, total, err := s.store.ListExpenses(r.Context(), f, req)
	listJSON(w, r, req, items, total, err)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, blog.OpRead, err)
		return
	}
	e, err := s.store.GetExpense(r.Context(), id)
	itemJSON(w, r, e, err)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	body, ok := parseBody(w, r)
	if !ok {
		return
	}
	in, err := expenseFromBody(body)
	if err != nil {
		writeError(w, r, blog.OpCreate, err)
		return
	}
	e, err := s.board.CreateExpense(r.Context(), in)
	if err != nil {
		writeError(w, r, blog.OpCreate, err)
		return
	}
	written(w, r, http.StatusCreated, amqp.EntityExpense, amqp.ActionCreated, e.ID, e)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, blog.OpUpdate, err)
		return
	}
	body, ok := parseBody(w, r)
	if !ok {
		return
	}
	in, err := expenseFromBody(body)
	if err != nil {
		writeError(w, r, blog.OpUpdate, err)
		return
	}
	in.ID = id
	e, err := s.board.UpdateExpense(r.Context(), in)
	if err != nil {
		writeError(w, r, blog.OpUpdate, err)
		return
	}
	written(w, r, http.StatusOK, amqp.EntityExpense, amqp.ActionUpdated, e.ID, e)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err == nil {
		err = s.board.DeleteExpense(r.Context(), id)
	}
	if err != nil {
		writeError(w, r, blog.OpDelete, err)
		return
	}
	written(w, r, http.StatusNoContent, amqp.EntityExpense, amqp.ActionDeleted, id, nil)
}
