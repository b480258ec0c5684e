package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/taskmanager/internal/apperror"
	"github.com/sakif/taskmanager/internal/metrics"
	"github.com/sakif/taskmanager/internal/model"
	"github.com/sakif/taskmanager/internal/repository"
	"github.com/sakif/taskmanager/internal/slug"
)

const (
	MaxTitleLength   = 200
	MaxContentLength = 10000
)

// TaskService handles business logic for tasks. It reads users only to
// check that a referenced owner exists.
type TaskService struct {
	tasks  repository.TaskRepository
	users  repository.UserRepository
	logger *slog.Logger
}

func NewTaskService(tasks repository.TaskRepository, users repository.UserRepository, logger *slog.Logger) *TaskService {
	return &TaskService{
		tasks:  tasks,
		users:  users,
		logger: logger,
	}
}

// Create saves a task owned by userID. It returns apperror.ErrNotFound when
// the user doesn't exist, both from the pre-check and, if the user is
// deleted in between, from the store's foreign key.
func (s *TaskService) Create(ctx context.Context, userID int64, title string, content *string, priority int, completed bool) (*model.Task, error) {
	title, err := validateTitle(title)
	if err != nil {
		return nil, err
	}
	if err := validateContent(content); err != nil {
		return nil, err
	}

	if _, err := s.users.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	task := &model.Task{
		Title:     title,
		Content:   content,
		Priority:  priority,
		Completed: completed,
		UserID:    userID,
		Slug:      slug.Make(title),
	}
	if err := s.tasks.CreateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}

	metrics.EntitiesCreatedTotal.WithLabelValues("task").Inc()
	s.logger.Info("task created",
		slog.Int64("id", task.ID),
		slog.Int64("user_id", userID),
		slog.String("slug", task.Slug),
	)
	return task, nil
}

func (s *TaskService) List(ctx context.Context, opts repository.ListOptions) ([]model.Task, error) {
	opts, err := normalizeListOptions(opts)
	if err != nil {
		return nil, err
	}

	tasks, err := s.tasks.ListTasks(ctx, opts)
	if err != nil {
		s.logger.Error("failed to list tasks", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) GetByID(ctx context.Context, id int64) (*model.Task, error) {
	return s.tasks.GetTask(ctx, id)
}

// ListByUser returns apperror.ErrNotFound for an unknown user, and an empty
// slice for a user without tasks.
func (s *TaskService) ListByUser(ctx context.Context, userID int64) ([]model.Task, error) {
	if _, err := s.users.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	tasks, err := s.tasks.ListTasksByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing tasks of user %d: %w", userID, err)
	}
	return tasks, nil
}

// Update applies the non-nil fields of patch, recomputing the slug when the
// title changes.
func (s *TaskService) Update(ctx context.Context, id int64, patch model.TaskPatch) error {
	patch.Slug = nil

	if _, err := s.tasks.GetTask(ctx, id); err != nil {
		return err
	}

	if patch.Title != nil {
		title, err := validateTitle(*patch.Title)
		if err != nil {
			return err
		}
		taskSlug := slug.Make(title)
		patch.Title = &title
		patch.Slug = &taskSlug
	}
	if err := validateContent(patch.Content); err != nil {
		return err
	}

	if err := s.tasks.UpdateTask(ctx, id, patch); err != nil {
		return fmt.Errorf("updating task: %w", err)
	}

	s.logger.Info("task updated", slog.Int64("id", id))
	return nil
}

func (s *TaskService) Delete(ctx context.Context, id int64) error {
	if err := s.tasks.DeleteTask(ctx, id); err != nil {
		return err
	}

	metrics.EntitiesDeletedTotal.WithLabelValues("task").Inc()
	s.logger.Info("task deleted", slog.Int64("id", id))
	return nil
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", apperror.ValidationFailed("title", "title is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return "", apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}
	return title, nil
}

func validateContent(content *string) error {
	if content != nil && utf8.RuneCountInString(*content) > MaxContentLength {
		return apperror.ValidationFailed("content",
			fmt.Sprintf("content must be %d characters or less", MaxContentLength))
	}
	return nil
}
