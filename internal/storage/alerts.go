package storage

import (
	"context"
	"fmt"
	"time"

	"budgetboard/internal/core"
)

const alertSelect = `
	SELECT a.id, a.budget_id, b.name, a.level, a.spent_cents, a.total_cents, a.created_at
	FROM budget_alerts a
	JOIN budgets b ON b.id = a.budget_id`

func scanAlert(s scanner) (core.BudgetAlert, error) {
	var (
		a       core.BudgetAlert
		level   string
		created string
	)
	if err := s.Scan(&a.ID, &a.BudgetID, &a.BudgetName, &level, &a.Spent.Cents, &a.Total.Cents, &created); err != nil {
		return a, err
	}
	a.Level = core.AlertLevel(level)
	t, err := time.Parse(time.RFC3339, created)
	if err != nil {
		return a, fmt.Errorf("alert %d has malformed timestamp %q", a.ID, created)
	}
	a.CreatedAt = t
	return a, nil
}

// LatestAlert returns the most recent alert of a budget or core.ErrNotFound.
func (r *SQLiteRepository) LatestAlert(ctx context.Context, budgetID int64) (core.BudgetAlert, error) {
	a, err := scanAlert(r.db.QueryRowContext(ctx,
		alertSelect+" WHERE a.budget_id = ? ORDER BY a.id DESC LIMIT 1", budgetID))
	if err != nil {
		return core.BudgetAlert{}, fmt.Errorf("latest alert for budget %d: %w", budgetID, notFound(err))
	}
	return a, nil
}

func (r *SQLiteRepository) InsertAlert(ctx context.Context, a core.BudgetAlert) (core.BudgetAlert, error) {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO budget_alerts (budget_id, level, spent_cents, total_cents, created_at) VALUES (?, ?, ?, ?, ?)",
		a.BudgetID, string(a.Level), a.Spent.Cents, a.Total.Cents, a.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return core.BudgetAlert{}, fmt.Errorf("insert alert: %w", writeErr(err))
	}
	if a.ID, err = res.LastInsertId(); err != nil {
		return core.BudgetAlert{}, fmt.Errorf("insert alert: %w", err)
	}
	return a, nil
}

// ListAlerts returns the newest alerts first.
func (r *SQLiteRepository) ListAlerts(ctx context.Context, limit int) ([]core.BudgetAlert, error) {
	rows, err := r.db.QueryContext(ctx, alertSelect+" ORDER BY a.id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	out := []core.BudgetAlert{}
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	return out, nil
}
