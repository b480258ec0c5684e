// Command seed populates the configured database with fake users and tasks.
//
//	go run ./cmd/seed -users 20 -tasks-per-user 5
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/sakif/taskmanager/internal/config"
	sqliteRepo "github.com/sakif/taskmanager/internal/repository/sqlite"
	"github.com/sakif/taskmanager/internal/seed"
	"github.com/sakif/taskmanager/internal/service"
)

func main() {
	numUsers := flag.Int("users", 10, "Number of users to create")
	tasksPerUser := flag.Int("tasks-per-user", 3, "Number of tasks to create for each user")
	fakerSeed := flag.Int64("seed", 0, "Seed for reproducible data (0 = random)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := cfg.NewLogger(os.Stderr)

	db, err := sqliteRepo.New(cfg.DBPath, sqliteRepo.Options{
		Logger:     logger,
		LogQueries: cfg.DBLogQueries,
	})
	if err != nil {
		logger.Error("failed to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	s := seed.NewSeeder(
		service.NewUserService(db, logger),
		service.NewTaskService(db, db, logger),
		logger,
	)

	res, err := s.Run(context.Background(), seed.Options{
		Users:        *numUsers,
		TasksPerUser: *tasksPerUser,
		Seed:         *fakerSeed,
	})
	if err != nil {
		logger.Error("seeding failed",
			slog.Int("users_created", res.Users),
			slog.Int("tasks_created", res.Tasks),
			slog.String("error", err.Error()),
		)
		db.Close()
		os.Exit(1)
	}
}
