package core

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate(" 2024-02-29 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Year() != 2024 || d.Month() != 2 || d.Day() != 29 {
		t.Fatalf("unexpected date %v", d)
	}
	if d, err := ParseDate(""); err != nil || !d.IsZero() {
		t.Fatalf("empty input should give zero date, got %v %v", d, err)
	}
	for _, in := range []string{"2023-02-29", "29/02/2024", "2024-13-01"} {
		if _, err := ParseDate(in); !errors.Is(err, ErrValidation) {
			t.Fatalf("%q expected validation error, got %v", in, err)
		}
	}
}

func TestDateJSON(t *testing.T) {
	var v struct {
		D Date `json:"d"`
	}
	if err := json.Unmarshal([]byte(`{"d":"2025-03-04"}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	out, _ := json.Marshal(v)
	if string(out) != `{"d":"2025-03-04"}` {
		t.Fatalf("unexpected json %s", out)
	}
}

func TestValidationErrorsMatchSentinel(t *testing.T) {
	for _, err := range []error{ErrEmptyName, ErrInvalidAmount, ErrInvalidReference, ErrInvalidColor} {
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("%v should match ErrValidation", err)
		}
	}
	if errors.Is(ErrNotFound, ErrValidation) || errors.Is(ErrConflict, ErrValidation) {
		t.Fatal("not found and conflict are not validation errors")
	}
}

func TestCategoryNormalizeAndValidate(t *testing.T) {
	c := Category{Name: "  Travel ", Color: ""}
	c.Normalize()
	if c.Name != "Travel" || c.Color != DefaultCategoryColor {
		t.Fatalf("unexpected normalized category %+v", c)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		c   Category
		err error
	}{
		{Category{Name: "x", Color: "#ABC"}, nil},
		{Category{Name: "x", Color: "red"}, ErrInvalidColor},
		{Category{Name: "x", Color: "#12345"}, ErrInvalidColor},
		{Category{Name: "", Color: "#abc"}, ErrEmptyName},
		{Category{Name: strings.Repeat("a", 101), Color: "#abc"}, ErrNameTooLong},
	}
	for i, tc := range cases {
		tc.c.Normalize()
		if err := tc.c.Validate(); err != tc.err {
			t.Fatalf("case %d expected %v, got %v", i, tc.err, err)
		}
	}
}

func TestBudgetValidate(t *testing.T) {
	good := Budget{Name: "Q1 ads", TotalAmount: Money{Cents: 100000}, ProjectID: 1, CategoryID: 2}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	cases := []struct {
		mut func(*Budget)
		err error
	}{
		{func(b *Budget) { b.Name = "" }, ErrEmptyName},
		{func(b *Budget) { b.TotalAmount = Money{} }, ErrInvalidAmount},
		{func(b *Budget) { b.ProjectID = 0 }, ErrMissingProject},
		{func(b *Budget) { b.CategoryID = 0 }, ErrMissingCategory},
	}
	for i, tc := range cases {
		b := good
		tc.mut(&b)
		if err := b.Validate(); err != tc.err {
			t.Fatalf("case %d expected %v, got %v", i, tc.err, err)
		}
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{
		Amount:      Money{Cents: 100},
		Description: "ok",
		Date:        NewDate(2025, 1, 1),
		BudgetID:    1,
		CategoryID:  1,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Expense{
		{Amount: Money{Cents: 0}, Description: "a", Date: NewDate(2025, 1, 1), BudgetID: 1, CategoryID: 1},
		{Amount: Money{Cents: 1}, Description: "", Date: NewDate(2025, 1, 1), BudgetID: 1, CategoryID: 1},
		{Amount: Money{Cents: 1}, Description: strings.Repeat("d", 201), Date: NewDate(2025, 1, 1), BudgetID: 1, CategoryID: 1},
		{Amount: Money{Cents: 1}, Description: "a", BudgetID: 1, CategoryID: 1}, // zero date
		{Amount: Money{Cents: 1}, Description: "a", Date: NewDate(2025, 1, 1), CategoryID: 1},
		{Amount: Money{Cents: 1}, Description: "a", Date: NewDate(2025, 1, 1), BudgetID: 1},
	}
	for i, e := range bads {
		if err := e.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestBudgetViewFill(t *testing.T) {
	v := BudgetView{Budget: Budget{TotalAmount: Money{Cents: 30000}}, Spent: Money{Cents: 10000}}
	v.Fill()
	if v.Remaining.Cents != 20000 {
		t.Fatalf("remaining = %d", v.Remaining.Cents)
	}
	if v.PercentUsed != 33.3 {
		t.Fatalf("percent = %v", v.PercentUsed)
	}
}
