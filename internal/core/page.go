package core

import (
	"math"
	"strings"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	// MaxPage keeps Offset within int32 range.
	MaxPage = math.MaxInt32 / MaxPageSize
)

// PageRequest describes one page of a list query with an optional free-text search.
type PageRequest struct {
	Page  int
	Size  int
	Query string
}

// NewPageRequest clamps page to [1, MaxPage] and size to [1, MaxPageSize]. A non-positive size
// falls back to defaultSize.
func NewPageRequest(page, size, defaultSize int, query string) PageRequest {
	if defaultSize <= 0 {
		defaultSize = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if size <= 0 {
		size = defaultSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return PageRequest{Page: page, Size: size, Query: strings.TrimSpace(query)}
}

func (p PageRequest) Offset() int { return (p.Page - 1) * p.Size }

type Page[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
}

func NewPage[T any](items []T, total int, req PageRequest) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if req.Size > 0 {
		pages = (total + req.Size - 1) / req.Size
	}
	return Page[T]{Items: items, Total: total, Page: req.Page, PageSize: req.Size, TotalPages: pages}
}

func (p Page[T]) HasPrev() bool { return p.Page > 1 }

func (p Page[T]) HasNext() bool { return p.Page < p.TotalPages }

type BudgetFilter struct {
	ProjectID  int64
	CategoryID int64
}

// ExpenseFilter narrows expenses. Zero values mean "no constraint"; From and To are inclusive.
type ExpenseFilter struct {
	BudgetID   int64
	CategoryID int64
	ProjectID  int64
	From       Date
	To         Date
}

func (f ExpenseFilter) Match(e ExpenseView) bool {
	if f.BudgetID != 0 && e.BudgetID != f.BudgetID {
		return false
	}
	if f.CategoryID != 0 && e.CategoryID != f.CategoryID {
		return false
	}
	if f.ProjectID != 0 && e.ProjectID != f.ProjectID {
		return false
	}
	if !f.From.IsZero() && e.Date.Before(f.From.Time) {
		return false
	}
	if !f.To.IsZero() && e.Date.After(f.To.Time) {
		return false
	}
	return true
}

func (f ExpenseFilter) Validate() error {
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From.Time) {
		return invalid("date range end is before its start")
	}
	return nil
}
