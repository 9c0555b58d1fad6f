package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"budgetboard/internal/core"
)

func sampleData() (core.MonthlyReport, []core.CategoryUsage) {
	budgets := []core.BudgetView{
		{Budget: core.Budget{TotalAmount: core.Money{Cents: 50000}, ProjectID: 1, CategoryID: 1}},
	}
	expenses := []core.ExpenseView{
		{Expense: core.Expense{Amount: core.Money{Cents: 30000}, Date: core.NewDate(2025, 1, 10), CategoryID: 1}, ProjectID: 1},
		{Expense: core.Expense{Amount: core.Money{Cents: 25000}, Date: core.NewDate(2025, 2, 10), CategoryID: 1}, ProjectID: 1},
	}
	rep := core.BuildMonthlyReport(2025, core.ReportScope{}, budgets, expenses)
	usage := core.BuildCategoryReport(
		[]core.Category{{ID: 1, Name: "Café", Color: "#0a0"}, {ID: 2, Name: "Travel", Color: "#00cec9"}},
		budgets, expenses)
	return rep, usage
}

func TestWorkbook(t *testing.T) {
	rep, usage := sampleData()
	data, err := Workbook(rep, usage)
	if err != nil {
		t.Fatalf("workbook: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != MonthlySheet || sheets[1] != CategoriesSheet {
		t.Fatalf("unexpected sheets %v", sheets)
	}

	rows, err := f.GetRows(MonthlySheet, excelize.Options{RawCellValue: true})
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 14 {
		t.Fatalf("expected header, 12 months and a total row, got %d rows", len(rows))
	}
	if rows[0][3] != "Cumulative" || rows[2][0] != "Feb" || rows[2][3] != "550" {
		t.Errorf("unexpected February row %v", rows[2])
	}
	if rows[13][0] != "Total" || rows[13][2] != "550" {
		t.Errorf("unexpected total row %v", rows[13])
	}

	cats, err := f.GetRows(CategoriesSheet, excelize.Options{RawCellValue: true})
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(cats) != 3 || cats[1][0] != "Café" || cats[1][3] != "110" {
		t.Errorf("unexpected category rows %v", cats)
	}
}

func TestPDF(t *testing.T) {
	rep, usage := sampleData()
	generated := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	data, err := PDF(rep, usage, generated)
	if err != nil {
		t.Fatalf("pdf: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("output is not a PDF: %q", data[:8])
	}

	empty, err := PDF(core.BuildMonthlyReport(2024, core.ReportScope{}, nil, nil), nil, generated)
	if err != nil || len(empty) == 0 {
		t.Fatalf("empty report should still render: %v", err)
	}
}

func TestFilename(t *testing.T) {
	tests := []struct {
		scope core.ReportScope
		ext   string
		want  string
	}{
		{core.ReportScope{}, "xlsx", "budget-report-2025.xlsx"},
		{core.ReportScope{ProjectID: 3}, "pdf", "budget-report-2025-p3.pdf"},
		{core.ReportScope{ProjectID: 3, CategoryID: 7}, "xlsx", "budget-report-2025-p3-c7.xlsx"},
	}
	for _, tt := range tests {
		got := Filename(core.MonthlyReport{Year: 2025, Scope: tt.scope}, tt.ext)
		if got != tt.want {
			t.Errorf("Filename(%+v) = %q, want %q", tt.scope, got, tt.want)
		}
	}
}

func TestHexToRGB(t *testing.T) {
	tests := []struct {
		in   string
		want rgb
	}{
		{"#ff0000", rgb{255, 0, 0}},
		{"#0a0", rgb{0, 170, 0}},
		{"00cec9", rgb{0, 206, 201}},
		{"nope", pdfPrimary},
		{"#zzzzzz", pdfPrimary},
	}
	for _, tt := range tests {
		if got := hexToRGB(tt.in); got != tt.want {
			t.Errorf("hexToRGB(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestBarWidth(t *testing.T) {
	if w := barWidth(50, 100, 40); w != 20 {
		t.Errorf("half bar = %v", w)
	}
	if w := barWidth(150, 100, 40); w != 40 {
		t.Errorf("overflow should clamp, got %v", w)
	}
	if w := barWidth(10, 0, 40); w != 0 {
		t.Errorf("zero scale should be empty, got %v", w)
	}
}
