package http

import (
	"net/http"
	"net/url"
	"strconv"

	"budgetboard/internal/core"
)

// pageData is what every page template receives; Data holds the page view.
type pageData struct {
	Title  string
	Nav    string
	Sheets bool
	Data   any
}

type column struct {
	Label   string
	Numeric bool
}

type cell struct {
	Text    string
	Color   string
	Numeric bool
	Over    bool
}

type row struct {
	ID    int64
	Cells []cell
}

type option struct {
	Value    string
	Label    string
	Selected bool
}

// formField describes one input; Type is an <input> type, "select" or "textarea".
type formField struct {
	Name     string
	Label    string
	Type     string
	Value    string
	Step     string
	Required bool
	Options  []option
}

type formView struct {
	Method  string
	Action  string
	ID      int64
	Editing bool
	Fields  []formField
}

type pager struct {
	Page       int
	TotalPages int
	Total      int
	PrevURL    string
	NextURL    string
}

// entityView renders the table, search, filters and form of one entity page.
type entityView struct {
	Path     string
	API      string
	Singular string
	Query    string
	Filters  []formField
	Columns  []column
	Rows     []row
	Pager    pager
	Form     formView
}

type dashboardView struct {
	Overview core.Overview
	Alerts   []core.BudgetAlert
}

type analyticsView struct {
	Filters []formField
	Result  core.Analytics
}

type reportsView struct {
	Filters    []formField
	Report     core.MonthlyReport
	Usage      []core.CategoryUsage
	Bars       BarChart
	Radial     RadialChart
	ExportXLSX string
	ExportPDF  string
	SheetsURL  string
}

func id64(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

// pageURL links to page of the current listing, keeping its filters.
func pageURL(u *url.URL, page int) string {
	q := u.Query()
	q.Del("edit")
	q.Set("page", strconv.Itoa(page))
	return u.Path + "?" + q.Encode()
}

func newPager[T any](u *url.URL, p core.Page[T]) pager {
	pg := pager{Page: p.Page, TotalPages: p.TotalPages, Total: p.Total}
	if p.HasPrev() {
		pg.PrevURL = pageURL(u, p.Page-1)
	}
	if p.HasNext() {
		pg.NextURL = pageURL(u, p.Page+1)
	}
	return pg
}

// newForm prepares a create form, or an edit form when id is set.
func newForm(api string, id int64, fields ...formField) formView {
	if id == 0 {
		return formView{Method: "post", Action: api, Fields: fields}
	}
	return formView{Method: "put", Action: api + "/" + id64(id), ID: id, Editing: true, Fields: fields}
}

func withBlank(label string, opts []option) []option {
	return append([]option{{Value: "", Label: label}}, opts...)
}

func projectOptions(items []core.Project, selected int64) []option {
	out := make([]option, 0, len(items))
	for _, p := range items {
		out = append(out, option{Value: id64(p.ID), Label: p.Name, Selected: p.ID == selected})
	}
	return out
}

func categoryOptions(items []core.Category, selected int64) []option {
	out := make([]option, 0, len(items))
	for _, c := range items {
		out = append(out, option{Value: id64(c.ID), Label: c.Name, Selected: c.ID == selected})
	}
	return out
}

func budgetOptions(items []core.BudgetView, selected int64) []option {
	out := make([]option, 0, len(items))
	for _, b := range items {
		out = append(out, option{
			Value:    id64(b.ID),
			Label:    b.Name + " (" + b.ProjectName + ")",
			Selected: b.ID == selected,
		})
	}
	return out
}

func yearOptions(current, selected int) []option {
	out := make([]option, 0, 6)
	for y := current + 1; y >= current-4; y-- {
		out = append(out, option{Value: strconv.Itoa(y), Label: strconv.Itoa(y), Selected: y == selected})
	}
	return out
}

func nameField(value string) formField {
	return formField{Name: "name", Label: "Name", Type: "text", Value: value, Required: true}
}

func namedView(path, singular, q string) entityView {
	return entityView{
		Path:     "/" + path,
		API:      "/api/" + path,
		Singular: singular,
		Query:    q,
		Columns:  []column{{Label: "Name"}},
	}
}

func projectsView(u *url.URL, page core.Page[core.Project], q string, edit core.Project) entityView {
	v := namedView("projects", "project", q)
	for _, p := range page.Items {
		v.Rows = append(v.Rows, row{ID: p.ID, Cells: []cell{{Text: p.Name}}})
	}
	v.Pager = newPager(u, page)
	v.Form = newForm(v.API, edit.ID, nameField(edit.Name))
	return v
}

func managersView(u *url.URL, page core.Page[core.Manager], q string, edit core.Manager) entityView {
	v := namedView("managers", "manager", q)
	for _, m := range page.Items {
		v.Rows = append(v.Rows, row{ID: m.ID, Cells: []cell{{Text: m.Name}}})
	}
	v.Pager = newPager(u, page)
	v.Form = newForm(v.API, edit.ID, nameField(edit.Name))
	return v
}

func categoriesView(u *url.URL, page core.Page[core.Category], q string, edit core.Category) entityView {
	v := namedView("categories", "category", q)
	v.Columns = append(v.Columns, column{Label: "Color"})
	for _, c := range page.Items {
		v.Rows = append(v.Rows, row{ID: c.ID, Cells: []cell{{Text: c.Name}, {Text: c.Color, Color: c.Color}}})
	}
	v.Pager = newPager(u, page)
	color := edit.Color
	if color == "" {
		color = core.DefaultCategoryColor
	}
	v.Form = newForm(v.API, edit.ID,
		nameField(edit.Name),
		formField{Name: "color", Label: "Color", Type: "color", Value: color, Required: true})
	return v
}

func budgetsView(u *url.URL, page core.Page[core.BudgetView], q string, f core.BudgetFilter, edit core.BudgetView, projects []core.Project, categories []core.Category) entityView {
	v := namedView("budgets", "budget", q)
	v.Filters = []formField{
		{Name: "projectid", Label: "Project", Type: "select", Options: withBlank("All projects", projectOptions(projects, f.ProjectID))},
		{Name: "categoryid", Label: "Category", Type: "select", Options: withBlank("All categories", categoryOptions(categories, f.CategoryID))},
	}
	v.Columns = []column{
		{Label: "Name"}, {Label: "Project"}, {Label: "Category"},
		{Label: "Total", Numeric: true}, {Label: "Spent", Numeric: true},
		{Label: "Remaining", Numeric: true}, {Label: "Used", Numeric: true},
	}
	for _, b := range page.Items {
		over := b.Spent.Cents > b.TotalAmount.Cents
		v.Rows = append(v.Rows, row{ID: b.ID, Cells: []cell{
			{Text: b.Name},
			{Text: b.ProjectName},
			{Text: b.CategoryName, Color: b.CategoryColor},
			{Text: b.TotalAmount.Format(), Numeric: true},
			{Text: b.Spent.Format(), Numeric: true, Over: over},
			{Text: b.Remaining.Format(), Numeric: true, Over: over},
			{Text: strconv.FormatFloat(b.PercentUsed, 'f', 1, 64) + "%", Numeric: true, Over: over},
		}})
	}
	v.Pager = newPager(u, page)
	amount := ""
	if edit.ID != 0 {
		amount = edit.TotalAmount.String()
	}
	v.Form = newForm(v.API, edit.ID,
		nameField(edit.Name),
		formField{Name: "totalamount", Label: "Total amount", Type: "number", Step: "0.01", Value: amount, Required: true},
		formField{Name: "projectid", Label: "Project", Type: "select", Required: true,
			Options: withBlank("Select a project", projectOptions(projects, edit.ProjectID))},
		formField{Name: "categoryid", Label: "Category", Type: "select", Required: true,
			Options: withBlank("Select a category", categoryOptions(categories, edit.CategoryID))},
	)
	return v
}

func expenseFilterFields(f core.ExpenseFilter, projects []core.Project, categories []core.Category) []formField {
	return []formField{
		{Name: "categoryid", Label: "Category", Type: "select", Options: withBlank("All categories", categoryOptions(categories, f.CategoryID))},
		{Name: "projectid", Label: "Project", Type: "select", Options: withBlank("All projects", projectOptions(projects, f.ProjectID))},
		{Name: "from", Label: "From", Type: "date", Value: f.From.String()},
		{Name: "to", Label: "To", Type: "date", Value: f.To.String()},
	}
}

func expensesView(u *url.URL, page core.Page[core.ExpenseView], q string, f core.ExpenseFilter, edit core.ExpenseView, budgets []core.BudgetView, projects []core.Project, categories []core.Category, today core.Date) entityView {
	v := namedView("expenses", "expense", q)
	v.Filters = expenseFilterFields(f, projects, categories)
	v.Columns = []column{
		{Label: "Date"}, {Label: "Description"}, {Label: "Budget"}, {Label: "Project"},
		{Label: "Category"}, {Label: "Amount", Numeric: true},
	}
	for _, e := range page.Items {
		v.Rows = append(v.Rows, row{ID: e.ID, Cells: []cell{
			{Text: e.Date.String()},
			{Text: e.Description},
			{Text: e.BudgetName},
			{Text: e.ProjectName},
			{Text: e.CategoryName, Color: e.CategoryColor},
			{Text: e.Amount.Format(), Numeric: true},
		}})
	}
	v.Pager = newPager(u, page)
	amount, date := "", today.String()
	if edit.ID != 0 {
		amount, date = edit.Amount.String(), edit.Date.String()
	}
	v.Form = newForm(v.API, edit.ID,
		formField{Name: "description", Label: "Description", Type: "textarea", Value: edit.Description, Required: true},
		formField{Name: "amount", Label: "Amount", Type: "number", Step: "0.01", Value: amount, Required: true},
		formField{Name: "date", Label: "Date", Type: "date", Value: date, Required: true},
		formField{Name: "budgetid", Label: "Budget", Type: "select", Required: true,
			Options: withBlank("Select a budget", budgetOptions(budgets, edit.BudgetID))},
		formField{Name: "categoryid", Label: "Category", Type: "select", Required: true,
			Options: withBlank("Select a category", categoryOptions(categories, edit.CategoryID))},
	)
	return v
}

func reportQuery(year int, scope core.ReportScope) string {
	q := url.Values{}
	q.Set("year", strconv.Itoa(year))
	if scope.ProjectID != 0 {
		q.Set("projectid", id64(scope.ProjectID))
	}
	if scope.CategoryID != 0 {
		q.Set("categoryid", id64(scope.CategoryID))
	}
	return q.Encode()
}

func newReportsView(rep core.MonthlyReport, usage []core.CategoryUsage, currentYear int, projects []core.Project, categories []core.Category, sheets bool) reportsView {
	q := reportQuery(rep.Year, rep.Scope)
	v := reportsView{
		Filters: []formField{
			{Name: "year", Label: "Year", Type: "select", Options: yearOptions(currentYear, rep.Year)},
			{Name: "projectid", Label: "Project", Type: "select", Options: withBlank("All projects", projectOptions(projects, rep.Scope.ProjectID))},
			{Name: "categoryid", Label: "Category", Type: "select", Options: withBlank("All categories", categoryOptions(categories, rep.Scope.CategoryID))},
		},
		Report:     rep,
		Usage:      usage,
		Bars:       buildBarChart(rep),
		Radial:     buildRadialChart(usage),
		ExportXLSX: "/api/reports/monthly.xlsx?" + q,
		ExportPDF:  "/api/reports/monthly.pdf?" + q,
	}
	if sheets {
		v.SheetsURL = "/api/reports/sheets?year=" + strconv.Itoa(rep.Year)
	}
	return v
}

// editID reads ?edit=, 0 when absent.
func editID(r *http.Request) int64 {
	return queryInt64(r, "edit")
}
