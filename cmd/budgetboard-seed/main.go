package main

import (
	"context"
	"os"
	"time"

	"budgetboard/internal/cli"
	blog "budgetboard/internal/log"
	"budgetboard/internal/seed"
	"budgetboard/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig(blog.ComponentSeed)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	board := services.NewBoard(repo, nil, nil)
	defer board.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	counts, err := repo.Counts(ctx)
	if err != nil {
		logger.Error("Failed to read board counts", "error", err)
		os.Exit(1)
	}
	if counts.Projects > 0 && os.Getenv("SEED_FORCE") != "true" {
		logger.Info("Database already has data, skipping seed (set SEED_FORCE=true to add more)",
			"projects", counts.Projects, "expenses", counts.Expenses)
		return
	}

	res, err := seed.Run(blog.WithLogger(ctx, logger), board, seed.DefaultConfig(cfg.SeedCount, time.Now().Year()))
	if err != nil {
		logger.Error("Seeding failed", "error", err)
		board.Close()
		os.Exit(1)
	}
	logger.Info("Seed complete",
		"projects", res.Projects,
		"managers", res.Managers,
		"categories", res.Categories,
		"budgets", res.Budgets,
		"expenses", res.Expenses)
}
