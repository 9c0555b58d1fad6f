package google

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"budgetboard/internal/core"
	ports "budgetboard/internal/sheets"
)

var (
	monthlyHeader  = []any{"Month", "Budget", "Spent", "Cumulative", "Remaining"}
	categoryHeader = []any{"Category", "Budgeted", "Spent", "Percent"}
)

// reportRows lays out the monthly table, a blank row, then the category table.
// Amounts are plain numbers so the sheet can format and chart them.
func reportRows(rep core.MonthlyReport, usage []core.CategoryUsage) [][]any {
	rows := make([][]any, 0, len(rep.Points)+len(usage)+3)
	rows = append(rows, monthlyHeader)
	for _, p := range rep.Points {
		rows = append(rows, []any{p.Label, p.Budget.Float(), p.Spent.Float(), p.Cumulative.Float(), p.Remaining.Float()})
	}
	rows = append(rows, []any{})
	rows = append(rows, categoryHeader)
	for _, u := range usage {
		rows = append(rows, []any{u.Name, u.Budgeted.Float(), u.Spent.Float(), u.Percent})
	}
	return rows
}

// parseReport reads both tables of a published report back into a snapshot.
func parseReport(values [][]any) (ports.Snapshot, bool, error) {
	var snap ports.Snapshot
	if len(values) == 0 {
		return snap, false, nil
	}
	headers := toStrings(values[0])
	if indexOf(headers, "Month") != 0 {
		return snap, false, fmt.Errorf("unexpected report header: got headers=%v", headers)
	}
	cols := make([]int, 0, 4)
	for _, h := range monthlyHeader[1:] {
		i := indexOf(headers, h.(string))
		if i == -1 {
			return snap, false, fmt.Errorf("unexpected report header: got headers=%v", headers)
		}
		cols = append(cols, i)
	}
	if len(values) < 13 {
		return snap, false, fmt.Errorf("report has %d month rows, want 12", len(values)-1)
	}

	for i := 0; i < 12; i++ {
		row := toStrings(values[i+1])
		var amounts [4]core.Money
		for j, col := range cols {
			cents, ok := parseAmountToCents(safeGet(row, col))
			if !ok {
				return snap, false, fmt.Errorf("month %d: malformed %s value", i+1, monthlyHeader[j+1])
			}
			amounts[j] = core.Money{Cents: cents}
		}
		snap.Months = append(snap.Months, ports.MonthRow{
			Label:      safeGet(row, 0),
			Budget:     amounts[0],
			Spent:      amounts[1],
			Cumulative: amounts[2],
			Remaining:  amounts[3],
		})
	}

	rest := values[13:]
	for len(rest) > 0 && len(toStrings(rest[0])) == 0 {
		rest = rest[1:]
	}
	if len(rest) == 0 {
		return snap, true, nil
	}
	if h := toStrings(rest[0]); indexOf(h, "Category") != 0 {
		return snap, false, fmt.Errorf("unexpected category header: got headers=%v", h)
	}
	for i, raw := range rest[1:] {
		row := toStrings(raw)
		if len(row) == 0 || row[0] == "" {
			break
		}
		budgeted, ok1 := parseAmountToCents(safeGet(row, 1))
		spent, ok2 := parseAmountToCents(safeGet(row, 2))
		pct, ok3 := parsePercent(safeGet(row, 3))
		if !ok1 || !ok2 || !ok3 {
			return snap, false, fmt.Errorf("category row %d: malformed value", i+1)
		}
		snap.Categories = append(snap.Categories, ports.CategoryRow{
			Name:     row[0],
			Budgeted: core.Money{Cents: budgeted},
			Spent:    core.Money{Cents: spent},
			Percent:  pct,
		})
	}
	return snap, true, nil
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}

// parseAmountToCents accepts sheet-formatted numbers such as "1,234.50",
// "-$12.00" or "12,5". A comma is a decimal separator only when it is the
// sole separator and one or two digits follow it. Empty cells count as zero.
func parseAmountToCents(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(s, "-"), "$"))
	if s == "" {
		return 0, true
	}
	if decimalComma(s) {
		s = strings.Replace(s, ",", ".", 1)
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	if neg {
		d = d.Neg()
	}
	return d.Shift(2).Round(0).IntPart(), true
}

func decimalComma(s string) bool {
	if strings.Contains(s, ".") || strings.Count(s, ",") != 1 {
		return false
	}
	frac := len(s) - strings.Index(s, ",") - 1
	return frac == 1 || frac == 2
}

// parsePercent reads a percent cell written as 12.4 or shown as "12.4%".
func parsePercent(s string) (float64, bool) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if s == "" {
		return 0, true
	}
	if decimalComma(s) {
		s = strings.Replace(s, ",", ".", 1)
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	return d.InexactFloat64(), true
}
