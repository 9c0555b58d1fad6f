package storage

import (
	"context"
	"database/sql"
	"fmt"

	"budgetboard/internal/core"
)

const budgetSelect = `
	SELECT b.id, b.name, b.total_amount_cents, b.project_id, b.category_id,
	       p.name, c.name, c.color,
	       COALESCE((SELECT SUM(e.amount_cents) FROM expenses e WHERE e.budget_id = b.id), 0)
	FROM budgets b
	JOIN projects p ON p.id = b.project_id
	JOIN categories c ON c.id = b.category_id`

const budgetFrom = `
	FROM budgets b
	JOIN projects p ON p.id = b.project_id
	JOIN categories c ON c.id = b.category_id`

type scanner interface {
	Scan(dest ...any) error
}

func scanBudget(s scanner) (core.BudgetView, error) {
	var v core.BudgetView
	err := s.Scan(
		&v.ID, &v.Name, &v.TotalAmount.Cents, &v.ProjectID, &v.CategoryID,
		&v.ProjectName, &v.CategoryName, &v.CategoryColor,
		&v.Spent.Cents,
	)
	if err != nil {
		return v, err
	}
	v.Fill()
	return v, nil
}

func scanBudgets(rows *sql.Rows) ([]core.BudgetView, error) {
	defer rows.Close()
	var out []core.BudgetView
	for rows.Next() {
		v, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func budgetWhere(f core.BudgetFilter, q string) where {
	var w where
	if f.ProjectID != 0 {
		w.add("b.project_id = ?", f.ProjectID)
	}
	if f.CategoryID != 0 {
		w.add("b.category_id = ?", f.CategoryID)
	}
	w.search(q, "b.name", "p.name", "c.name")
	return w
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, f core.BudgetFilter, page core.PageRequest) ([]core.BudgetView, int, error) {
	w := budgetWhere(f, page.Query)

	total, err := r.count(ctx, "SELECT COUNT(*)"+budgetFrom+w.String(), w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("count budgets: %w", err)
	}

	args := append(w.args, page.Size, page.Offset())
	rows, err := r.db.QueryContext(ctx, budgetSelect+w.String()+" ORDER BY b.id DESC LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list budgets: %w", err)
	}
	out, err := scanBudgets(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("scan budgets: %w", err)
	}
	return out, total, nil
}

// AllBudgets returns every budget matching f, ordered by name.
func (r *SQLiteRepository) AllBudgets(ctx context.Context, f core.BudgetFilter) ([]core.BudgetView, error) {
	w := budgetWhere(f, "")
	rows, err := r.db.QueryContext(ctx, budgetSelect+w.String()+" ORDER BY b.name COLLATE NOCASE, b.id", w.args...)
	if err != nil {
		return nil, fmt.Errorf("list all budgets: %w", err)
	}
	out, err := scanBudgets(rows)
	if err != nil {
		return nil, fmt.Errorf("scan budgets: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, id int64) (core.BudgetView, error) {
	v, err := scanBudget(r.db.QueryRowContext(ctx, budgetSelect+" WHERE b.id = ?", id))
	if err != nil {
		return core.BudgetView{}, fmt.Errorf("get budget %d: %w", id, notFound(err))
	}
	return v, nil
}

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (core.BudgetView, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO budgets (name, total_amount_cents, project_id, category_id) VALUES (?, ?, ?, ?)",
		b.Name, b.TotalAmount.Cents, b.ProjectID, b.CategoryID)
	if err != nil {
		return core.BudgetView{}, fmt.Errorf("create budget: %w", writeErr(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.BudgetView{}, fmt.Errorf("create budget: %w", err)
	}
	return r.GetBudget(ctx, id)
}

func (r *SQLiteRepository) UpdateBudget(ctx context.Context, b core.Budget) (core.BudgetView, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE budgets SET name = ?, total_amount_cents = ?, project_id = ?, category_id = ? WHERE id = ?",
		b.Name, b.TotalAmount.Cents, b.ProjectID, b.CategoryID, b.ID)
	if err != nil {
		return core.BudgetView{}, fmt.Errorf("update budget %d: %w", b.ID, writeErr(err))
	}
	if err := affected(res); err != nil {
		return core.BudgetView{}, fmt.Errorf("update budget %d: %w", b.ID, err)
	}
	return r.GetBudget(ctx, b.ID)
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM budgets WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete budget %d: %w", id, deleteErr(err))
	}
	if err := affected(res); err != nil {
		return fmt.Errorf("delete budget %d: %w", id, err)
	}
	return nil
}
