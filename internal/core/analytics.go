package core

import (
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

const (
	AlertNone     AlertLevel = ""
	AlertWarning  AlertLevel = "warning"
	AlertExceeded AlertLevel = "exceeded"
	AlertResolved AlertLevel = "resolved"

	DefaultWarningThreshold = 80
	RecentExpenses          = 5
)

type (
	AlertLevel string

	Counts struct {
		Projects   int `json:"projects"`
		Managers   int `json:"managers"`
		Categories int `json:"categories"`
		Budgets    int `json:"budgets"`
		Expenses   int `json:"expenses"`
	}

	Overview struct {
		Counts      Counts        `json:"counts"`
		TotalBudget Money         `json:"totalbudget"`
		TotalSpent  Money         `json:"totalspent"`
		Remaining   Money         `json:"remaining"`
		PercentUsed float64       `json:"percent"`
		Recent      []ExpenseView `json:"recent"`
		OverBudget  []BudgetView  `json:"overbudget"`
	}

	// CategoryAmount is an amount aggregated by category.
	CategoryAmount struct {
		CategoryID int64   `json:"categoryid"`
		Name       string  `json:"name"`
		Color      string  `json:"color"`
		Amount     Money   `json:"amount"`
		Count      int     `json:"count"`
		Share      float64 `json:"share"`
	}

	MonthAmount struct {
		Year   int    `json:"year"`
		Month  int    `json:"month"`
		Label  string `json:"label"`
		Amount Money  `json:"amount"`
	}

	Analytics struct {
		Total      Money            `json:"total"`
		Count      int              `json:"count"`
		Average    Money            `json:"average"`
		Min        Money            `json:"min"`
		Max        Money            `json:"max"`
		ByCategory []CategoryAmount `json:"bycategory"`
		ByMonth    []MonthAmount    `json:"bymonth"`
		Expenses   []ExpenseView    `json:"expenses"`
	}

	ReportScope struct {
		ProjectID  int64 `json:"projectid,omitempty"`
		CategoryID int64 `json:"categoryid,omitempty"`
	}

	MonthlyPoint struct {
		Month      int    `json:"month"`
		Label      string `json:"label"`
		Budget     Money  `json:"budget"`
		Spent      Money  `json:"spent"`
		Cumulative Money  `json:"cumulative"`
		Remaining  Money  `json:"remaining"`
		Over       bool   `json:"over"`
	}

	MonthlyReport struct {
		Year   int            `json:"year"`
		Scope  ReportScope    `json:"scope"`
		Budget Money          `json:"budget"`
		Spent  Money          `json:"spent"`
		Points []MonthlyPoint `json:"points"`
	}

	CategoryUsage struct {
		CategoryID int64   `json:"categoryid"`
		Name       string  `json:"name"`
		Color      string  `json:"color"`
		Budgeted   Money   `json:"budgeted"`
		Spent      Money   `json:"spent"`
		Percent    float64 `json:"percent"`
	}

	BudgetAlert struct {
		ID         int64      `json:"id"`
		BudgetID   int64      `json:"budgetid"`
		BudgetName string     `json:"budgetname"`
		Level      AlertLevel `json:"level"`
		Spent      Money      `json:"spent"`
		Total      Money      `json:"total"`
		CreatedAt  time.Time  `json:"created_at"`
	}
)

// ClassifyUsage maps a utilization percentage to an alert level.
func ClassifyUsage(percent float64, warningThreshold int) AlertLevel {
	if warningThreshold <= 0 || warningThreshold >= 100 {
		warningThreshold = DefaultWarningThreshold
	}
	switch {
	case percent >= 100:
		return AlertExceeded
	case percent >= float64(warningThreshold):
		return AlertWarning
	default:
		return AlertNone
	}
}

// BuildOverview summarizes budgets and the most recent expenses. recent is
// expected newest first and is truncated to RecentExpenses.
func BuildOverview(counts Counts, budgets []BudgetView, recent []ExpenseView) Overview {
	o := Overview{Counts: counts, Recent: []ExpenseView{}, OverBudget: []BudgetView{}}
	for _, b := range budgets {
		o.TotalBudget = o.TotalBudget.Add(b.TotalAmount)
		o.TotalSpent = o.TotalSpent.Add(b.Spent)
		if b.Spent.Cents > b.TotalAmount.Cents {
			o.OverBudget = append(o.OverBudget, b)
		}
	}
	o.Remaining = o.TotalBudget.Sub(o.TotalSpent)
	o.PercentUsed = Percent(o.TotalSpent, o.TotalBudget)
	if len(recent) > RecentExpenses {
		recent = recent[:RecentExpenses]
	}
	o.Recent = append(o.Recent, recent...)
	sort.SliceStable(o.OverBudget, func(i, j int) bool {
		return o.OverBudget[i].PercentUsed > o.OverBudget[j].PercentUsed
	})
	return o
}

func FilterExpenses(items []ExpenseView, f ExpenseFilter) []ExpenseView {
	out := make([]ExpenseView, 0, len(items))
	for _, e := range items {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	return out
}

// Analyze computes totals, a category breakdown sorted by amount and a
// chronological month series for the given expenses.
func Analyze(items []ExpenseView) Analytics {
	a := Analytics{
		ByCategory: []CategoryAmount{},
		ByMonth:    []MonthAmount{},
		Expenses:   items,
	}
	if a.Expenses == nil {
		a.Expenses = []ExpenseView{}
	}
	if len(items) == 0 {
		return a
	}

	byCat := map[int64]*CategoryAmount{}
	type ym struct{ y, m int }
	byMonth := map[ym]Money{}

	a.Min = items[0].Amount
	a.Max = items[0].Amount
	for _, e := range items {
		a.Total = a.Total.Add(e.Amount)
		a.Count++
		if e.Amount.Cents < a.Min.Cents {
			a.Min = e.Amount
		}
		if e.Amount.Cents > a.Max.Cents {
			a.Max = e.Amount
		}
		ca, ok := byCat[e.CategoryID]
		if !ok {
			ca = &CategoryAmount{CategoryID: e.CategoryID, Name: e.CategoryName, Color: e.CategoryColor}
			byCat[e.CategoryID] = ca
		}
		ca.Amount = ca.Amount.Add(e.Amount)
		ca.Count++
		k := ym{e.Date.Year(), e.Date.Month()}
		byMonth[k] = byMonth[k].Add(e.Amount)
	}

	avg := decimal.NewFromInt(a.Total.Cents).DivRound(decimal.NewFromInt(int64(a.Count)), 0)
	a.Average = Money{Cents: avg.IntPart()}

	for _, ca := range byCat {
		ca.Share = Percent(ca.Amount, a.Total)
		a.ByCategory = append(a.ByCategory, *ca)
	}
	sort.Slice(a.ByCategory, func(i, j int) bool {
		if a.ByCategory[i].Amount.Cents != a.ByCategory[j].Amount.Cents {
			return a.ByCategory[i].Amount.Cents > a.ByCategory[j].Amount.Cents
		}
		return a.ByCategory[i].Name < a.ByCategory[j].Name
	})

	for k, amt := range byMonth {
		a.ByMonth = append(a.ByMonth, MonthAmount{
			Year:   k.y,
			Month:  k.m,
			Label:  time.Month(k.m).String()[:3] + " " + strconv.Itoa(k.y),
			Amount: amt,
		})
	}
	sort.Slice(a.ByMonth, func(i, j int) bool {
		if a.ByMonth[i].Year != a.ByMonth[j].Year {
			return a.ByMonth[i].Year < a.ByMonth[j].Year
		}
		return a.ByMonth[i].Month < a.ByMonth[j].Month
	})
	return a
}

func (s ReportScope) budget(b BudgetView) bool {
	return (s.ProjectID == 0 || b.ProjectID == s.ProjectID) &&
		(s.CategoryID == 0 || b.CategoryID == s.CategoryID)
}

func (s ReportScope) expense(e ExpenseView) bool {
	return (s.ProjectID == 0 || e.ProjectID == s.ProjectID) &&
		(s.CategoryID == 0 || e.CategoryID == s.CategoryID)
}

// BuildMonthlyReport returns twelve points for year. The budget line is the
// total of all budgets in scope; spent is accumulated month over month and
// compared against it.
func BuildMonthlyReport(year int, scope ReportScope, budgets []BudgetView, expenses []ExpenseView) MonthlyReport {
	r := MonthlyReport{Year: year, Scope: scope, Points: make([]MonthlyPoint, 12)}
	for _, b := range budgets {
		if scope.budget(b) {
			r.Budget = r.Budget.Add(b.TotalAmount)
		}
	}

	var spent [12]Money
	for _, e := range expenses {
		if e.Date.Year() != year || !scope.expense(e) {
			continue
		}
		m := e.Date.Month() - 1
		spent[m] = spent[m].Add(e.Amount)
	}

	var cumulative Money
	for i := range r.Points {
		cumulative = cumulative.Add(spent[i])
		r.Points[i] = MonthlyPoint{
			Month:      i + 1,
			Label:      time.Month(i + 1).String()[:3],
			Budget:     r.Budget,
			Spent:      spent[i],
			Cumulative: cumulative,
			Remaining:  r.Budget.Sub(cumulative),
			Over:       cumulative.Cents > r.Budget.Cents,
		}
	}
	r.Spent = cumulative
	return r
}

// BuildCategoryReport returns budgeted vs spent per category, including
// categories with neither, sorted by spent desc then name.
func BuildCategoryReport(categories []Category, budgets []BudgetView, expenses []ExpenseView) []CategoryUsage {
	idx := make(map[int64]int, len(categories))
	out := make([]CategoryUsage, 0, len(categories))
	for _, c := range categories {
		idx[c.ID] = len(out)
		out = append(out, CategoryUsage{CategoryID: c.ID, Name: c.Name, Color: c.Color})
	}
	for _, b := range budgets {
		if i, ok := idx[b.CategoryID]; ok {
			out[i].Budgeted = out[i].Budgeted.Add(b.TotalAmount)
		}
	}
	for _, e := range expenses {
		if i, ok := idx[e.CategoryID]; ok {
			out[i].Spent = out[i].Spent.Add(e.Amount)
		}
	}
	for i := range out {
		out[i].Percent = Percent(out[i].Spent, out[i].Budgeted)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Spent.Cents != out[j].Spent.Cents {
			return out[i].Spent.Cents > out[j].Spent.Cents
		}
		return out[i].Name < out[j].Name
	})
	return out
}
