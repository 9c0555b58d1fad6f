package storage

import (
	"context"
	"fmt"

	"budgetboard/internal/core"
)

// Projects and managers share the same (id, name) shape; the helpers below
// take the table name from these constants only.
const (
	projectsTable = "projects"
	managersTable = "managers"
)

type named struct {
	ID   int64
	Name string
}

func (r *SQLiteRepository) listNamed(ctx context.Context, table string, page core.PageRequest) ([]named, int, error) {
	var w where
	w.search(page.Query, "name")

	total, err := r.count(ctx, "SELECT COUNT(*) FROM "+table+w.String(), w.args...)
	if err != nil {
		return nil, 0, err
	}

	args := append(w.args, page.Size, page.Offset())
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name FROM "+table+w.String()+" ORDER BY id DESC LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []named
	for rows.Next() {
		var n named
		if err := rows.Scan(&n.ID, &n.Name); err != nil {
			return nil, 0, err
		}
		out = append(out, n)
	}
	return out, total, rows.Err()
}

func (r *SQLiteRepository) allNamed(ctx context.Context, table string) ([]named, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name FROM "+table+" ORDER BY name COLLATE NOCASE, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []named
	for rows.Next() {
		var n named
		if err := rows.Scan(&n.ID, &n.Name); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) getNamed(ctx context.Context, table string, id int64) (named, error) {
	n := named{ID: id}
	err := r.db.QueryRowContext(ctx, "SELECT name FROM "+table+" WHERE id = ?", id).Scan(&n.Name)
	return n, notFound(err)
}

func (r *SQLiteRepository) createNamed(ctx context.Context, table, name string) (int64, error) {
	res, err := r.db.ExecContext(ctx, "INSERT INTO "+table+" (name) VALUES (?)", name)
	if err != nil {
		return 0, writeErr(err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) updateNamed(ctx context.Context, table string, id int64, name string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE "+table+" SET name = ? WHERE id = ?", name, id)
	if err != nil {
		return writeErr(err)
	}
	return affected(res)
}

func (r *SQLiteRepository) deleteNamed(ctx context.Context, table string, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id)
	if err != nil {
		return deleteErr(err)
	}
	return affected(res)
}

func toProjects(in []named) []core.Project {
	out := make([]core.Project, len(in))
	for i, n := range in {
		out[i] = core.Project{ID: n.ID, Name: n.Name}
	}
	return out
}

func toManagers(in []named) []core.Manager {
	out := make([]core.Manager, len(in))
	for i, n := range in {
		out[i] = core.Manager{ID: n.ID, Name: n.Name}
	}
	return out
}

func (r *SQLiteRepository) ListProjects(ctx context.Context, page core.PageRequest) ([]core.Project, int, error) {
	rows, total, err := r.listNamed(ctx, projectsTable, page)
	if err != nil {
		return nil, 0, fmt.Errorf("list projects: %w", err)
	}
	return toProjects(rows), total, nil
}

func (r *SQLiteRepository) AllProjects(ctx context.Context) ([]core.Project, error) {
	rows, err := r.allNamed(ctx, projectsTable)
	if err != nil {
		return nil, fmt.Errorf("list all projects: %w", err)
	}
	return toProjects(rows), nil
}

func (r *SQLiteRepository) GetProject(ctx context.Context, id int64) (core.Project, error) {
	n, err := r.getNamed(ctx, projectsTable, id)
	if err != nil {
		return core.Project{}, fmt.Errorf("get project %d: %w", id, err)
	}
	return core.Project{ID: n.ID, Name: n.Name}, nil
}

func (r *SQLiteRepository) CreateProject(ctx context.Context, p core.Project) (core.Project, error) {
	id, err := r.createNamed(ctx, projectsTable, p.Name)
	if err != nil {
		return core.Project{}, fmt.Errorf("create project: %w", err)
	}
	p.ID = id
	return p, nil
}

func (r *SQLiteRepository) UpdateProject(ctx context.Context, p core.Project) (core.Project, error) {
	if err := r.updateNamed(ctx, projectsTable, p.ID, p.Name); err != nil {
		return core.Project{}, fmt.Errorf("update project %d: %w", p.ID, err)
	}
	return p, nil
}

func (r *SQLiteRepository) DeleteProject(ctx context.Context, id int64) error {
	if err := r.deleteNamed(ctx, projectsTable, id); err != nil {
		return fmt.Errorf("delete project %d: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) ListManagers(ctx context.Context, page core.PageRequest) ([]core.Manager, int, error) {
	rows, total, err := r.listNamed(ctx, managersTable, page)
	if err != nil {
		return nil, 0, fmt.Errorf("list managers: %w", err)
	}
	return toManagers(rows), total, nil
}

func (r *SQLiteRepository) GetManager(ctx context.Context, id int64) (core.Manager, error) {
	n, err := r.getNamed(ctx, managersTable, id)
	if err != nil {
		return core.Manager{}, fmt.Errorf("get manager %d: %w", id, err)
	}
	return core.Manager{ID: n.ID, Name: n.Name}, nil
}

func (r *SQLiteRepository) CreateManager(ctx context.Context, m core.Manager) (core.Manager, error) {
	id, err := r.createNamed(ctx, managersTable, m.Name)
	if err != nil {
		return core.Manager{}, fmt.Errorf("create manager: %w", err)
	}
	m.ID = id
	return m, nil
}

func (r *SQLiteRepository) UpdateManager(ctx context.Context, m core.Manager) (core.Manager, error) {
	if err := r.updateNamed(ctx, managersTable, m.ID, m.Name); err != nil {
		return core.Manager{}, fmt.Errorf("update manager %d: %w", m.ID, err)
	}
	return m, nil
}

func (r *SQLiteRepository) DeleteManager(ctx context.Context, id int64) error {
	if err := r.deleteNamed(ctx, managersTable, id); err != nil {
		return fmt.Errorf("delete manager %d: %w", id, err)
	}
	return nil
}
