// Package seed fills a database with fake users and tasks for development
// and demos. It goes through the services, so seeded rows carry the same
// slugs and pass the same validation as anything created over HTTP.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/sakif/taskmanager/internal/apperror"
	"github.com/sakif/taskmanager/internal/service"
)

// maxUsernameAttempts bounds retries when the faker repeats a username.
const maxUsernameAttempts = 5

// Options controls how much data Run creates.
type Options struct {
	Users        int
	TasksPerUser int
	// Seed makes the generated data reproducible. Zero means time-based.
	Seed int64
}

// Result reports what Run created.
type Result struct {
	Users int
	Tasks int
}

// Seeder creates fake data through the service layer.
type Seeder struct {
	users  *service.UserService
	tasks  *service.TaskService
	logger *slog.Logger
}

func NewSeeder(users *service.UserService, tasks *service.TaskService, logger *slog.Logger) *Seeder {
	return &Seeder{users: users, tasks: tasks, logger: logger}
}

// Run creates opts.Users users with opts.TasksPerUser tasks each. It stops
// at the first error, returning what was created so far.
func (s *Seeder) Run(ctx context.Context, opts Options) (Result, error) {
	var res Result
	if opts.Users < 0 || opts.TasksPerUser < 0 {
		return res, fmt.Errorf("seed: counts must not be negative (users=%d, tasks=%d)", opts.Users, opts.TasksPerUser)
	}

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	faker := gofakeit.New(seed)

	for i := 0; i < opts.Users; i++ {
		userID, err := s.createUser(ctx, faker)
		if err != nil {
			return res, err
		}
		res.Users++

		for j := 0; j < opts.TasksPerUser; j++ {
			content := faker.Paragraph(1, 2, 8, " ")
			_, err := s.tasks.Create(ctx, userID,
				faker.Sentence(faker.Number(2, 6)),
				&content,
				faker.Number(0, 5),
				faker.Bool(),
			)
			if err != nil {
				return res, fmt.Errorf("seed: creating task for user %d: %w", userID, err)
			}
			res.Tasks++
		}
	}

	s.logger.Info("seeding finished",
		slog.Int("users", res.Users),
		slog.Int("tasks", res.Tasks),
		slog.Int64("seed", seed),
	)
	return res, nil
}

func (s *Seeder) createUser(ctx context.Context, faker *gofakeit.Faker) (int64, error) {
	firstname := faker.FirstName()
	lastname := faker.LastName()
	age := faker.Number(18, 90)
	base := faker.Username()

	username := base
	for attempt := 1; ; attempt++ {
		user, err := s.users.Create(ctx, username, &firstname, &lastname, &age)
		if err == nil {
			return user.ID, nil
		}
		if !errors.Is(err, apperror.ErrConflict) || attempt >= maxUsernameAttempts {
			return 0, fmt.Errorf("seed: creating user %q: %w", username, err)
		}
		username = fmt.Sprintf("%s%d", base, faker.Number(1, 9999))
	}
}
