// Package repository declares the storage contracts the services depend on.
// The sqlite subpackage is the only production implementation.
package repository

import (
	"context"

	"github.com/sakif/taskmanager/internal/model"
)

// ListOptions bounds a list query. A zero Limit means no limit.
type ListOptions struct {
	Limit  int
	Offset int
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id int64) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	ListUsers(ctx context.Context, opts ListOptions) ([]model.User, error)
	UpdateUser(ctx context.Context, id int64, patch model.UserPatch) error
	// DeleteUser removes the user and every task it owns atomically.
	DeleteUser(ctx context.Context, id int64) error
}

type TaskRepository interface {
	CreateTask(ctx context.Context, task *model.Task) error
	GetTask(ctx context.Context, id int64) (*model.Task, error)
	ListTasks(ctx context.Context, opts ListOptions) ([]model.Task, error)
	ListTasksByUser(ctx context.Context, userID int64) ([]model.Task, error)
	UpdateTask(ctx context.Context, id int64, patch model.TaskPatch) error
	DeleteTask(ctx context.Context, id int64) error
}
