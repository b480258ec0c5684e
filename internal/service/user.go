// Package service contains the business logic layer of the application.
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, derives slugs, enforces existence
//	Repository (Data layer)  → reads/writes the SQLite file
//
// Services take repository interfaces, never *sqlite.DB, so tests inject
// in-memory fakes (see mock_test.go).
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

// Validation limits for user fields.
const (
	MaxUsernameLength = 64
	MaxNameLength     = 100
	MaxAge            = 150
	MaxListLimit      = 1000
)

// UserService handles business logic for users.
type UserService struct {
	repo   repository.UserRepository
	logger *slog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(repo repository.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{
		repo:   repo,
		logger: logger,
	}
}

// Create validates and saves a new user with a slug derived from username.
//
// The username pre-check gives the common case a clean Conflict; the UNIQUE
// index in the store catches the concurrent case the pre-check can miss.
func (s *UserService) Create(ctx context.Context, username string, firstname, lastname *string, age *int) (*model.User, error) {
	username, err := validateUsername(username)
	if err != nil {
		return nil, err
	}
	if err := validateProfile(firstname, lastname, age); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("checking username: %w", err)
	}
	if existing != nil {
		return nil, apperror.Conflict("user", "username", username)
	}

	user := &model.User{
		Username:  username,
		Firstname: firstname,
		Lastname:  lastname,
		Age:       age,
		Slug:      slug.Make(username),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	metrics.EntitiesCreatedTotal.WithLabelValues("user").Inc()
	s.logger.Info("user created",
		slog.Int64("id", user.ID),
		slog.String("slug", user.Slug),
	)
	return user, nil
}

// List returns users in store order. opts.Limit of 0 returns every user.
func (s *UserService) List(ctx context.Context, opts repository.ListOptions) ([]model.User, error) {
	opts, err := normalizeListOptions(opts)
	if err != nil {
		return nil, err
	}

	users, err := s.repo.ListUsers(ctx, opts)
	if err != nil {
		s.logger.Error("failed to list users", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// GetByID returns apperror.ErrNotFound if the user doesn't exist.
func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return s.repo.GetUser(ctx, id)
}

// Update applies the non-nil fields of patch. A new username recomputes the
// slug; any Slug set by the caller is discarded.
func (s *UserService) Update(ctx context.Context, id int64, patch model.UserPatch) error {
	patch.Slug = nil

	if _, err := s.repo.GetUser(ctx, id); err != nil {
		return err
	}

	if patch.Username != nil {
		username, err := validateUsername(*patch.Username)
		if err != nil {
			return err
		}
		existing, err := s.repo.GetUserByUsername(ctx, username)
		if err != nil {
			return fmt.Errorf("checking username: %w", err)
		}
		if existing != nil && existing.ID != id {
			return apperror.Conflict("user", "username", username)
		}
		userSlug := slug.Make(username)
		patch.Username = &username
		patch.Slug = &userSlug
	}
	if err := validateProfile(patch.Firstname, patch.Lastname, patch.Age); err != nil {
		return err
	}

	if err := s.repo.UpdateUser(ctx, id, patch); err != nil {
		return fmt.Errorf("updating user: %w", err)
	}

	s.logger.Info("user updated", slog.Int64("id", id))
	return nil
}

// Delete removes the user and, in the same transaction, every task it owns.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return err
	}

	metrics.EntitiesDeletedTotal.WithLabelValues("user").Inc()
	s.logger.Info("user deleted", slog.Int64("id", id))
	return nil
}

func validateUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", apperror.ValidationFailed("username", "username is required")
	}
	if utf8.RuneCountInString(username) > MaxUsernameLength {
		return "", apperror.ValidationFailed("username",
			fmt.Sprintf("username must be %d characters or less", MaxUsernameLength))
	}
	return username, nil
}

func validateProfile(firstname, lastname *string, age *int) error {
	if firstname != nil && utf8.RuneCountInString(*firstname) > MaxNameLength {
		return apperror.ValidationFailed("firstname",
			fmt.Sprintf("firstname must be %d characters or less", MaxNameLength))
	}
	if lastname != nil && utf8.RuneCountInString(*lastname) > MaxNameLength {
		return apperror.ValidationFailed("lastname",
			fmt.Sprintf("lastname must be %d characters or less", MaxNameLength))
	}
	if age != nil && (*age < 0 || *age > MaxAge) {
		return apperror.ValidationFailed("age",
			fmt.Sprintf("age must be between 0 and %d", MaxAge))
	}
	return nil
}

func normalizeListOptions(opts repository.ListOptions) (repository.ListOptions, error) {
	if opts.Limit < 0 {
		return opts, apperror.ValidationFailed("limit", "limit must not be negative")
	}
	if opts.Offset < 0 {
		return opts, apperror.ValidationFailed("offset", "offset must not be negative")
	}
	if opts.Limit > MaxListLimit {
		opts.Limit = MaxListLimit
	}
	return opts, nil
}
