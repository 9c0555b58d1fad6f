package core

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	DateLayout = "2006-01-02"

	DefaultCategoryColor = "#6c5ce7"

	MaxNameLength        = 100
	MaxDescriptionLength = 200
)

type (
	Date struct {
		time.Time
	}

	Project struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}

	Manager struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}

	Category struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		Color string `json:"color"`
	}

	Budget struct {
		ID          int64  `json:"id"`
		Name        string `json:"name"`
		TotalAmount Money  `json:"totalamount"`
		ProjectID   int64  `json:"projectid"`
		CategoryID  int64  `json:"categoryid"`
	}

	Expense struct {
		ID          int64  `json:"id"`
		Amount      Money  `json:"amount"`
		Description string `json:"description"`
		Date        Date   `json:"date"`
		BudgetID    int64  `json:"budgetid"`
		CategoryID  int64  `json:"categoryid"`
	}

	// BudgetView is a budget joined with its project, category and the sum of its expenses.
	BudgetView struct {
		Budget
		ProjectName   string  `json:"projectname"`
		CategoryName  string  `json:"categoryname"`
		CategoryColor string  `json:"categorycolor"`
		Spent         Money   `json:"spent"`
		Remaining     Money   `json:"remaining"`
		PercentUsed   float64 `json:"percent"`
	}

	// ExpenseView is an expense joined with its budget, project and category.
	ExpenseView struct {
		Expense
		BudgetName    string `json:"budgetname"`
		ProjectID     int64  `json:"projectid"`
		ProjectName   string `json:"projectname"`
		CategoryName  string `json:"categoryname"`
		CategoryColor string `json:"categorycolor"`
	}
)

// ValidationError marks input the caller can fix. Every ValidationError
// matches ErrValidation through errors.Is.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(msg string) error { return &ValidationError{Msg: msg} }

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("record is still referenced")

	ErrInvalidReference   = invalid("referenced record does not exist")
	ErrInvalidDate        = invalid("invalid date (expected YYYY-MM-DD)")
	ErrInvalidAmount      = invalid("invalid amount")
	ErrEmptyName          = invalid("name is required")
	ErrNameTooLong        = invalid("name too long (max 100 characters)")
	ErrEmptyDescription   = invalid("description is required")
	ErrDescriptionTooLong = invalid("description too long (max 200 characters)")
	ErrInvalidColor       = invalid("color must be a hex value like #1a2b3c")
	ErrMissingProject     = invalid("project is required")
	ErrMissingCategory    = invalid("category is required")
	ErrMissingBudget      = invalid("budget is required")
)

var colorPattern = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string. The empty string yields the zero Date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(strings.Trim(s, `"`))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func validateName(name string) error {
	if name == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return ErrNameTooLong
	}
	return nil
}

func (p *Project) Normalize() { p.Name = strings.TrimSpace(p.Name) }

func (p Project) Validate() error { return validateName(p.Name) }

func (m *Manager) Normalize() { m.Name = strings.TrimSpace(m.Name) }

func (m Manager) Validate() error { return validateName(m.Name) }

func (c *Category) Normalize() {
	c.Name = strings.TrimSpace(c.Name)
	c.Color = strings.ToLower(strings.TrimSpace(c.Color))
	if c.Color == "" {
		c.Color = DefaultCategoryColor
	}
}

func (c Category) Validate() error {
	if err := validateName(c.Name); err != nil {
		return err
	}
	if !colorPattern.MatchString(c.Color) {
		return ErrInvalidColor
	}
	return nil
}

func (b *Budget) Normalize() { b.Name = strings.TrimSpace(b.Name) }

func (b Budget) Validate() error {
	if err := validateName(b.Name); err != nil {
		return err
	}
	if err := b.TotalAmount.Validate(); err != nil {
		return err
	}
	if b.ProjectID <= 0 {
		return ErrMissingProject
	}
	if b.CategoryID <= 0 {
		return ErrMissingCategory
	}
	return nil
}

func (e *Expense) Normalize() { e.Description = strings.TrimSpace(e.Description) }

func (e Expense) Validate() error {
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if e.Description == "" {
		return ErrEmptyDescription
	}
	if utf8.RuneCountInString(e.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if e.BudgetID <= 0 {
		return ErrMissingBudget
	}
	if e.CategoryID <= 0 {
		return ErrMissingCategory
	}
	return nil
}

// Fill computes the derived usage fields from TotalAmount and Spent.
func (v *BudgetView) Fill() {
	v.Remaining = v.TotalAmount.Sub(v.Spent)
	v.PercentUsed = Percent(v.Spent, v.TotalAmount)
}
