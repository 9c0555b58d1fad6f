// Package export renders reports as downloadable Excel and PDF files.
package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"budgetboard/internal/core"
)

const (
	MonthlySheet    = "Monthly"
	CategoriesSheet = "Categories"

	colorPrimary = "#6C5CE7"
	colorOver    = "#D63031"
	moneyFormat  = "#,##0.00"
)

// Filename names an export of rep, e.g. "budget-report-2025-p3.xlsx".
func Filename(rep core.MonthlyReport, ext string) string {
	name := fmt.Sprintf("budget-report-%d", rep.Year)
	if rep.Scope.ProjectID != 0 {
		name += fmt.Sprintf("-p%d", rep.Scope.ProjectID)
	}
	if rep.Scope.CategoryID != 0 {
		name += fmt.Sprintf("-c%d", rep.Scope.CategoryID)
	}
	return name + "." + ext
}

type styles struct {
	header, money, moneyOver, percent, total int
}

func newStyles(f *excelize.File) (styles, error) {
	var (
		s   styles
		err error
	)
	numFmt := moneyFormat
	if s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{colorPrimary}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	}); err != nil {
		return s, err
	}
	if s.money, err = f.NewStyle(&excelize.Style{
		CustomNumFmt: &numFmt,
		Alignment:    &excelize.Alignment{Horizontal: "right"},
	}); err != nil {
		return s, err
	}
	if s.moneyOver, err = f.NewStyle(&excelize.Style{
		CustomNumFmt: &numFmt,
		Font:         &excelize.Font{Color: colorOver, Bold: true},
		Alignment:    &excelize.Alignment{Horizontal: "right"},
	}); err != nil {
		return s, err
	}
	pct := "0.0"
	if s.percent, err = f.NewStyle(&excelize.Style{
		CustomNumFmt: &pct,
		Alignment:    &excelize.Alignment{Horizontal: "right"},
	}); err != nil {
		return s, err
	}
	if s.total, err = f.NewStyle(&excelize.Style{
		CustomNumFmt: &numFmt,
		Font:         &excelize.Font{Bold: true},
		Border: []excelize.Border{
			{Type: "top", Color: "#2D3436", Style: 1},
		},
	}); err != nil {
		return s, err
	}
	return s, nil
}

// Workbook renders the monthly report and the category usage as an xlsx file
// with one sheet each.
func Workbook(rep core.MonthlyReport, usage []core.CategoryUsage) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", MonthlySheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(CategoriesSheet); err != nil {
		return nil, fmt.Errorf("add sheet: %w", err)
	}
	st, err := newStyles(f)
	if err != nil {
		return nil, fmt.Errorf("create styles: %w", err)
	}

	if err := writeMonthly(f, st, rep); err != nil {
		return nil, fmt.Errorf("write %s sheet: %w", MonthlySheet, err)
	}
	if err := writeCategories(f, st, usage); err != nil {
		return nil, fmt.Errorf("write %s sheet: %w", CategoriesSheet, err)
	}
	f.SetActiveSheet(0)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeMonthly(f *excelize.File, st styles, rep core.MonthlyReport) error {
	sheet := MonthlySheet
	header := []any{"Month", "Budget", "Spent", "Cumulative", "Remaining"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "E1", st.header); err != nil {
		return err
	}

	row := 2
	for _, p := range rep.Points {
		values := []any{p.Label, p.Budget.Float(), p.Spent.Float(), p.Cumulative.Float(), p.Remaining.Float()}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", row), &values); err != nil {
			return err
		}
		style := st.money
		if p.Over {
			style = st.moneyOver
		}
		if err := f.SetCellStyle(sheet, fmt.Sprintf("B%d", row), fmt.Sprintf("E%d", row), style); err != nil {
			return err
		}
		row++
	}

	totals := []any{"Total", rep.Budget.Float(), rep.Spent.Float(), nil, rep.Budget.Sub(rep.Spent).Float()}
	if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", row), &totals); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("E%d", row), st.total); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", "E", 16)
}

func writeCategories(f *excelize.File, st styles, usage []core.CategoryUsage) error {
	sheet := CategoriesSheet
	header := []any{"Category", "Budgeted", "Spent", "Percent"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "D1", st.header); err != nil {
		return err
	}

	for i, u := range usage {
		row := i + 2
		values := []any{u.Name, u.Budgeted.Float(), u.Spent.Float(), u.Percent}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", row), &values); err != nil {
			return err
		}
		style := st.money
		if u.Budgeted.Cents > 0 && u.Spent.Cents > u.Budgeted.Cents {
			style = st.moneyOver
		}
		if err := f.SetCellStyle(sheet, fmt.Sprintf("B%d", row), fmt.Sprintf("C%d", row), style); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, fmt.Sprintf("D%d", row), fmt.Sprintf("D%d", row), st.percent); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(sheet, "A", "A", 24); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "B", "D", 14)
}
