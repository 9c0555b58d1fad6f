package storage

import (
	"context"
	"database/sql"
	"fmt"

	"budgetboard/internal/core"
)

const expenseSelect = `
	SELECT e.id, e.amount_cents, e.description, e.date, e.budget_id, e.category_id,
	       b.name, b.project_id, p.name, c.name, c.color
	FROM expenses e
	JOIN budgets b ON b.id = e.budget_id
	JOIN projects p ON p.id = b.project_id
	JOIN categories c ON c.id = e.category_id`

const expenseFrom = `
	FROM expenses e
	JOIN budgets b ON b.id = e.budget_id
	JOIN projects p ON p.id = b.project_id
	JOIN categories c ON c.id = e.category_id`

const expenseOrder = " ORDER BY e.date DESC, e.id DESC"

func scanExpense(s scanner) (core.ExpenseView, error) {
	var (
		v    core.ExpenseView
		date string
	)
	err := s.Scan(
		&v.ID, &v.Amount.Cents, &v.Description, &date, &v.BudgetID, &v.CategoryID,
		&v.BudgetName, &v.ProjectID, &v.ProjectName, &v.CategoryName, &v.CategoryColor,
	)
	if err != nil {
		return v, err
	}
	if v.Date, err = core.ParseDate(date); err != nil {
		return v, fmt.Errorf("expense %d has malformed date %q: %w", v.ID, date, err)
	}
	return v, nil
}

func scanExpenses(rows *sql.Rows) ([]core.ExpenseView, error) {
	defer rows.Close()
	var out []core.ExpenseView
	for rows.Next() {
		v, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func expenseWhere(f core.ExpenseFilter, q string) where {
	var w where
	if f.BudgetID != 0 {
		w.add("e.budget_id = ?", f.BudgetID)
	}
	if f.CategoryID != 0 {
		w.add("e.category_id = ?", f.CategoryID)
	}
	if f.ProjectID != 0 {
		w.add("b.project_id = ?", f.ProjectID)
	}
	if !f.From.IsZero() {
		w.add("e.date >= ?", f.From.String())
	}
	if !f.To.IsZero() {
		w.add("e.date <= ?", f.To.String())
	}
	w.search(q, "e.description", "b.name", "c.name")
	return w
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, f core.ExpenseFilter, page core.PageRequest) ([]core.ExpenseView, int, error) {
	w := expenseWhere(f, page.Query)

	total, err := r.count(ctx, "SELECT COUNT(*)"+expenseFrom+w.String(), w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("count expenses: %w", err)
	}

	args := append(w.args, page.Size, page.Offset())
	rows, err := r.db.QueryContext(ctx, expenseSelect+w.String()+expenseOrder+" LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list expenses: %w", err)
	}
	out, err := scanExpenses(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("scan expenses: %w", err)
	}
	return out, total, nil
}

// FilterExpenses returns every expense matching f, newest first.
func (r *SQLiteRepository) FilterExpenses(ctx context.Context, f core.ExpenseFilter) ([]core.ExpenseView, error) {
	w := expenseWhere(f, "")
	rows, err := r.db.QueryContext(ctx, expenseSelect+w.String()+expenseOrder, w.args...)
	if err != nil {
		return nil, fmt.Errorf("filter expenses: %w", err)
	}
	out, err := scanExpenses(rows)
	if err != nil {
		return nil, fmt.Errorf("scan expenses: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) RecentExpenses(ctx context.Context, limit int) ([]core.ExpenseView, error) {
	rows, err := r.db.QueryContext(ctx, expenseSelect+expenseOrder+" LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("recent expenses: %w", err)
	}
	out, err := scanExpenses(rows)
	if err != nil {
		return nil, fmt.Errorf("scan expenses: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.ExpenseView, error) {
	v, err := scanExpense(r.db.QueryRowContext(ctx, expenseSelect+" WHERE e.id = ?", id))
	if err != nil {
		return core.ExpenseView{}, fmt.Errorf("get expense %d: %w", id, notFound(err))
	}
	return v, nil
}

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (core.ExpenseView, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO expenses (amount_cents, description, date, budget_id, category_id) VALUES (?, ?, ?, ?, ?)",
		e.Amount.Cents, e.Description, e.Date.String(), e.BudgetID, e.CategoryID)
	if err != nil {
		return core.ExpenseView{}, fmt.Errorf("create expense: %w", writeErr(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.ExpenseView{}, fmt.Errorf("create expense: %w", err)
	}
	return r.GetExpense(ctx, id)
}

func (r *SQLiteRepository) UpdateExpense(ctx context.Context, e core.Expense) (core.ExpenseView, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE expenses SET amount_cents = ?, description = ?, date = ?, budget_id = ?, category_id = ? WHERE id = ?",
		e.Amount.Cents, e.Description, e.Date.String(), e.BudgetID, e.CategoryID, e.ID)
	if err != nil {
		return core.ExpenseView{}, fmt.Errorf("update expense %d: %w", e.ID, writeErr(err))
	}
	if err := affected(res); err != nil {
		return core.ExpenseView{}, fmt.Errorf("update expense %d: %w", e.ID, err)
	}
	return r.GetExpense(ctx, e.ID)
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete expense %d: %w", id, deleteErr(err))
	}
	if err := affected(res); err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	return nil
}
