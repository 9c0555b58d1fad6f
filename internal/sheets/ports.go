package sheets

import (
	"context"
	"fmt"
	"math"

	"budgetboard/internal/core"
)

// Ports for outbound adapters.
type (
	// ReportPublisher writes the yearly report into an external spreadsheet.
	ReportPublisher interface {
		// PublishReport writes rep and usage and returns the written range.
		PublishReport(ctx context.Context, rep core.MonthlyReport, usage []core.CategoryUsage) (rangeRef string, err error)
	}

	// ReportReader reads back the figures of a published report.
	ReportReader interface {
		ReadReport(ctx context.Context, year int) (Snapshot, bool, error)
	}
)

// ReportSink is implemented by adapters that can both read and write reports.
type ReportSink interface {
	ReportPublisher
	ReportReader
}

// MonthRow is one line of the monthly table as published.
type MonthRow struct {
	Label      string
	Budget     core.Money
	Spent      core.Money
	Cumulative core.Money
	Remaining  core.Money
}

// CategoryRow is one line of the category table as published.
type CategoryRow struct {
	Name     string
	Budgeted core.Money
	Spent    core.Money
	Percent  float64
}

// Snapshot holds every figure a published report shows.
type Snapshot struct {
	Months     []MonthRow
	Categories []CategoryRow
}

// NewSnapshot captures what publishing rep and usage would write.
func NewSnapshot(rep core.MonthlyReport, usage []core.CategoryUsage) Snapshot {
	s := Snapshot{
		Months:     make([]MonthRow, 0, len(rep.Points)),
		Categories: make([]CategoryRow, 0, len(usage)),
	}
	for _, p := range rep.Points {
		s.Months = append(s.Months, MonthRow{
			Label:      p.Label,
			Budget:     p.Budget,
			Spent:      p.Spent,
			Cumulative: p.Cumulative,
			Remaining:  p.Remaining,
		})
	}
	for _, u := range usage {
		s.Categories = append(s.Categories, CategoryRow{
			Name:     u.Name,
			Budgeted: u.Budgeted,
			Spent:    u.Spent,
			Percent:  u.Percent,
		})
	}
	return s
}

// Equal compares every figure; percentages match to one decimal.
func (s Snapshot) Equal(o Snapshot) bool {
	if len(s.Months) != len(o.Months) || len(s.Categories) != len(o.Categories) {
		return false
	}
	for i := range s.Months {
		if s.Months[i] != o.Months[i] {
			return false
		}
	}
	for i, c := range s.Categories {
		d := o.Categories[i]
		if c.Name != d.Name || c.Budgeted != d.Budgeted || c.Spent != d.Spent ||
			math.Round(c.Percent*10) != math.Round(d.Percent*10) {
			return false
		}
	}
	return true
}

// PublishIfChanged skips the write when the sheet already shows the same
// report. It reports whether a write happened.
func PublishIfChanged(ctx context.Context, sink ReportSink, rep core.MonthlyReport, usage []core.CategoryUsage) (bool, error) {
	current, found, err := sink.ReadReport(ctx, rep.Year)
	if err != nil {
		return false, fmt.Errorf("read published report: %w", err)
	}
	if found && current.Equal(NewSnapshot(rep, usage)) {
		return false, nil
	}
	if _, err := sink.PublishReport(ctx, rep, usage); err != nil {
		return false, fmt.Errorf("publish report: %w", err)
	}
	return true, nil
}
