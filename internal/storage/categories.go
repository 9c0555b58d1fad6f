package storage

import (
	"context"
	"database/sql"
	"fmt"

	"budgetboard/internal/core"
)

func scanCategories(rows *sql.Rows) ([]core.Category, error) {
	defer rows.Close()
	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Color); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, page core.PageRequest) ([]core.Category, int, error) {
	var w where
	w.search(page.Query, "name")

	total, err := r.count(ctx, "SELECT COUNT(*) FROM categories"+w.String(), w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("count categories: %w", err)
	}

	args := append(w.args, page.Size, page.Offset())
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, color FROM categories"+w.String()+" ORDER BY id DESC LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list categories: %w", err)
	}
	out, err := scanCategories(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("scan categories: %w", err)
	}
	return out, total, nil
}

func (r *SQLiteRepository) AllCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, color FROM categories ORDER BY name COLLATE NOCASE, id")
	if err != nil {
		return nil, fmt.Errorf("list all categories: %w", err)
	}
	out, err := scanCategories(rows)
	if err != nil {
		return nil, fmt.Errorf("scan categories: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	c := core.Category{ID: id}
	err := r.db.QueryRowContext(ctx, "SELECT name, color FROM categories WHERE id = ?", id).Scan(&c.Name, &c.Color)
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %d: %w", id, notFound(err))
	}
	return c, nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	res, err := r.db.ExecContext(ctx, "INSERT INTO categories (name, color) VALUES (?, ?)", c.Name, c.Color)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", writeErr(err))
	}
	if c.ID, err = res.LastInsertId(); err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	res, err := r.db.ExecContext(ctx, "UPDATE categories SET name = ?, color = ? WHERE id = ?", c.Name, c.Color, c.ID)
	if err != nil {
		return core.Category{}, fmt.Errorf("update category %d: %w", c.ID, writeErr(err))
	}
	if err := affected(res); err != nil {
		return core.Category{}, fmt.Errorf("update category %d: %w", c.ID, err)
	}
	return c, nil
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM categories WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete category %d: %w", id, deleteErr(err))
	}
	if err := affected(res); err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	return nil
}
