package sheets

import (
	"context"
	"errors"
	"testing"

	"budgetboard/internal/core"
)

type fakeSink struct {
	snapshot  Snapshot
	found     bool
	readErr   error
	published int
}

func (f *fakeSink) ReadReport(context.Context, int) (Snapshot, bool, error) {
	return f.snapshot, f.found, f.readErr
}

func (f *fakeSink) PublishReport(_ context.Context, rep core.MonthlyReport, usage []core.CategoryUsage) (string, error) {
	f.published++
	f.snapshot = NewSnapshot(rep, usage)
	f.found = true
	return "2025 Report!A1:E16", nil
}

func budgetsOf(cents ...int64) []core.BudgetView {
	var out []core.BudgetView
	for i, c := range cents {
		b := core.BudgetView{Budget: core.Budget{ID: int64(i + 1), TotalAmount: core.Money{Cents: c}, CategoryID: 1}}
		out = append(out, b)
	}
	return out
}

func TestPublishIfChanged(t *testing.T) {
	ctx := context.Background()
	expenses := []core.ExpenseView{{Expense: core.Expense{Amount: core.Money{Cents: 900}, Date: core.NewDate(2025, 2, 1), CategoryID: 1}}}
	categories := []core.Category{{ID: 1, Name: "Ads"}}
	budgets := budgetsOf(10000)
	build := func() (core.MonthlyReport, []core.CategoryUsage) {
		return core.BuildMonthlyReport(2025, core.ReportScope{}, budgets, expenses),
			core.BuildCategoryReport(categories, budgets, expenses)
	}

	sink := &fakeSink{}
	rep, usage := build()
	wrote, err := PublishIfChanged(ctx, sink, rep, usage)
	if err != nil || !wrote {
		t.Fatalf("first publish should write: %v %v", wrote, err)
	}

	wrote, err = PublishIfChanged(ctx, sink, rep, usage)
	if err != nil || wrote {
		t.Fatalf("unchanged report should be skipped: %v %v", wrote, err)
	}

	tests := []struct {
		name   string
		change func()
	}{
		{"new expense", func() {
			expenses = append(expenses, core.ExpenseView{Expense: core.Expense{Amount: core.Money{Cents: 1}, Date: core.NewDate(2025, 12, 31), CategoryID: 1}})
		}},
		{"new budget with the same expenses", func() { budgets = budgetsOf(10000, 50000) }},
		{"budget amount edited", func() { budgets = budgetsOf(10000, 40000) }},
		{"category renamed", func() { categories = []core.Category{{ID: 1, Name: "Marketing"}} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := sink.published
			tt.change()
			rep, usage := build()
			wrote, err := PublishIfChanged(ctx, sink, rep, usage)
			if err != nil || !wrote || sink.published != before+1 {
				t.Fatalf("changed report should write: %v %v published=%d", wrote, err, sink.published)
			}
		})
	}
}

func TestSnapshotEqual(t *testing.T) {
	base := Snapshot{
		Months:     []MonthRow{{Label: "Jan", Budget: core.Money{Cents: 100}, Spent: core.Money{Cents: 50}}},
		Categories: []CategoryRow{{Name: "Ads", Budgeted: core.Money{Cents: 100}, Percent: 12.4}},
	}
	same := Snapshot{
		Months:     []MonthRow{{Label: "Jan", Budget: core.Money{Cents: 100}, Spent: core.Money{Cents: 50}}},
		Categories: []CategoryRow{{Name: "Ads", Budgeted: core.Money{Cents: 100}, Percent: 12.400000001}},
	}
	if !base.Equal(same) {
		t.Error("snapshots differing below one decimal should be equal")
	}

	budget := same
	budget.Months = []MonthRow{{Label: "Jan", Budget: core.Money{Cents: 600}, Spent: core.Money{Cents: 50}}}
	if base.Equal(budget) {
		t.Error("budget change not detected")
	}

	extra := same
	extra.Categories = append(extra.Categories, CategoryRow{Name: "Travel"})
	if base.Equal(extra) {
		t.Error("added category not detected")
	}
}

func TestPublishIfChanged_ReadError(t *testing.T) {
	boom := errors.New("quota exceeded")
	sink := &fakeSink{readErr: boom}
	rep := core.BuildMonthlyReport(2025, core.ReportScope{}, nil, nil)

	if _, err := PublishIfChanged(context.Background(), sink, rep, nil); !errors.Is(err, boom) {
		t.Fatalf("expected read error, got %v", err)
	}
	if sink.published != 0 {
		t.Error("nothing should be published after a read error")
	}
}
