// Package seed fills an empty board with fake projects, budgets and expenses
// for demos and local development.
package seed

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"budgetboard/internal/core"
	blog "budgetboard/internal/log"
	"budgetboard/internal/services"
)

var categoryNames = []string{"Advertising", "Software", "Travel", "Hardware", "Consulting", "Events"}

type Config struct {
	Projects int
	Managers int
	Budgets  int
	Expenses int
	// Year receives every generated expense date.
	Year int
	// Seed makes the generated data reproducible; 0 picks a random seed.
	Seed int64
}

// DefaultConfig sizes the data around the expense count.
func DefaultConfig(expenses int, year int) Config {
	return Config{
		Projects: 3,
		Managers: 4,
		Budgets:  6,
		Expenses: expenses,
		Year:     year,
	}
}

type Result struct {
	Projects   int
	Managers   int
	Categories int
	Budgets    int
	Expenses   int
}

// Run creates the records through the board so they are validated and
// announced like user writes.
func Run(ctx context.Context, board *services.Board, cfg Config) (Result, error) {
	var res Result
	if cfg.Projects <= 0 || cfg.Budgets <= 0 {
		return res, fmt.Errorf("seed needs at least one project and one budget")
	}
	faker := gofakeit.New(cfg.Seed)
	logger := blog.FromContext(ctx).WithComponent(blog.ComponentSeed)

	projects := make([]core.Project, 0, cfg.Projects)
	for i := 0; i < cfg.Projects; i++ {
		p, err := board.CreateProject(ctx, core.Project{Name: truncate(faker.Company(), core.MaxNameLength)})
		if err != nil {
			return res, fmt.Errorf("create project: %w", err)
		}
		projects = append(projects, p)
		res.Projects++
	}

	for i := 0; i < cfg.Managers; i++ {
		if _, err := board.CreateManager(ctx, core.Manager{Name: faker.Name()}); err != nil {
			return res, fmt.Errorf("create manager: %w", err)
		}
		res.Managers++
	}

	categories := make([]core.Category, 0, len(categoryNames))
	for _, name := range categoryNames {
		c, err := board.CreateCategory(ctx, core.Category{Name: name, Color: faker.HexColor()})
		if err != nil {
			return res, fmt.Errorf("create category: %w", err)
		}
		categories = append(categories, c)
		res.Categories++
	}

	budgets := make([]core.BudgetView, 0, cfg.Budgets)
	for i := 0; i < cfg.Budgets; i++ {
		project := projects[i%len(projects)]
		category := categories[faker.Number(0, len(categories)-1)]
		b, err := board.CreateBudget(ctx, core.Budget{
			Name:        truncate(category.Name+" "+faker.BuzzWord(), core.MaxNameLength),
			TotalAmount: cents(faker.Price(1000, 20000)),
			ProjectID:   project.ID,
			CategoryID:  category.ID,
		})
		if err != nil {
			return res, fmt.Errorf("create budget: %w", err)
		}
		budgets = append(budgets, b)
		res.Budgets++
	}

	start := time.Date(cfg.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(cfg.Year, time.December, 31, 0, 0, 0, 0, time.UTC)
	for i := 0; i < cfg.Expenses; i++ {
		b := budgets[faker.Number(0, len(budgets)-1)]
		d := faker.DateRange(start, end)
		if _, err := board.CreateExpense(ctx, core.Expense{
			Amount:      cents(faker.Price(5, 1500)),
			Description: truncate(faker.Sentence(4), core.MaxDescriptionLength),
			Date:        core.NewDate(d.Year(), int(d.Month()), d.Day()),
			BudgetID:    b.ID,
			CategoryID:  b.CategoryID,
		}); err != nil {
			return res, fmt.Errorf("create expense: %w", err)
		}
		res.Expenses++
	}

	logger.InfoContext(ctx, "Demo data created",
		"projects", res.Projects,
		"budgets", res.Budgets,
		"expenses", res.Expenses)
	return res, nil
}

func cents(amount float64) core.Money {
	c := int64(math.Round(amount * 100))
	if c < 1 {
		c = 1
	}
	return core.Money{Cents: c}
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) > max {
		return string(r[:max])
	}
	return s
}
