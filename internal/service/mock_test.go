package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"testing"

	"github.com/sakif/taskmanager/internal/apperror"
	"github.com/sakif/taskmanager/internal/model"
	"github.com/sakif/taskmanager/internal/repository"
)

// =========================================================================
// MOCK REPOSITORY
// =========================================================================
//
// mockStore implements repository.UserRepository and
// repository.TaskRepository in memory, with the same observable rules as the
// SQLite store: unique usernames, task owners must exist, deleting a user
// deletes its tasks.

type mockStore struct {
	users  map[int64]model.User
	tasks  map[int64]model.Task
	nextID int64

	// failNext makes the next repository call return this error.
	failNext error
}

var (
	_ repository.UserRepository = (*mockStore)(nil)
	_ repository.TaskRepository = (*mockStore)(nil)
)

func newMockStore() *mockStore {
	return &mockStore{
		users: make(map[int64]model.User),
		tasks: make(map[int64]model.Task),
	}
}

func (m *mockStore) fail() error {
	err := m.failNext
	m.failNext = nil
	return err
}

func (m *mockStore) CreateUser(_ context.Context, user *model.User) error {
	if err := m.fail(); err != nil {
		return err
	}
	for _, u := range m.users {
		if u.Username == user.Username {
			return apperror.Conflict("user", "username", user.Username)
		}
	}
	m.nextID++
	user.ID = m.nextID
	m.users[user.ID] = *user
	return nil
}

func (m *mockStore) GetUser(_ context.Context, id int64) (*model.User, error) {
	if err := m.fail(); err != nil {
		return nil, err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	return &u, nil
}

func (m *mockStore) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	if err := m.fail(); err != nil {
		return nil, err
	}
	for _, u := range m.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, nil
}

func (m *mockStore) ListUsers(_ context.Context, opts repository.ListOptions) ([]model.User, error) {
	if err := m.fail(); err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(m.users))
	for id := range m.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]model.User, 0, len(ids))
	for _, id := range paginate(ids, opts) {
		out = append(out, m.users[id])
	}
	return out, nil
}

func (m *mockStore) UpdateUser(_ context.Context, id int64, patch model.UserPatch) error {
	if err := m.fail(); err != nil {
		return err
	}
	u, ok := m.users[id]
	if !ok {
		return apperror.NotFound("user", id)
	}
	if patch.Username != nil {
		u.Username = *patch.Username
	}
	if patch.Firstname != nil {
		u.Firstname = patch.Firstname
	}
	if patch.Lastname != nil {
		u.Lastname = patch.Lastname
	}
	if patch.Age != nil {
		u.Age = patch.Age
	}
	if patch.Slug != nil {
		u.Slug = *patch.Slug
	}
	m.users[id] = u
	return nil
}

func (m *mockStore) DeleteUser(_ context.Context, id int64) error {
	if err := m.fail(); err != nil {
		return err
	}
	if _, ok := m.users[id]; !ok {
		return apperror.NotFound("user", id)
	}
	for tid, t := range m.tasks {
		if t.UserID == id {
			delete(m.tasks, tid)
		}
	}
	delete(m.users, id)
	return nil
}

func (m *mockStore) CreateTask(_ context.Context, task *model.Task) error {
	if err := m.fail(); err != nil {
		return err
	}
	if _, ok := m.users[task.UserID]; !ok {
		return apperror.NotFound("user", task.UserID)
	}
	m.nextID++
	task.ID = m.nextID
	m.tasks[task.ID] = *task
	return nil
}

func (m *mockStore) GetTask(_ context.Context, id int64) (*model.Task, error) {
	if err := m.fail(); err != nil {
		return nil, err
	}
	t, ok := m.tasks[id]
	if !ok {
		return nil, apperror.NotFound("task", id)
	}
	return &t, nil
}

func (m *mockStore) ListTasks(_ context.Context, opts repository.ListOptions) ([]model.Task, error) {
	if err := m.fail(); err != nil {
		return nil, err
	}
	out := make([]model.Task, 0)
	for _, id := range paginate(m.taskIDs(func(model.Task) bool { return true }), opts) {
		out = append(out, m.tasks[id])
	}
	return out, nil
}

func (m *mockStore) ListTasksByUser(_ context.Context, userID int64) ([]model.Task, error) {
	if err := m.fail(); err != nil {
		return nil, err
	}
	out := make([]model.Task, 0)
	for _, id := range m.taskIDs(func(t model.Task) bool { return t.UserID == userID }) {
		out = append(out, m.tasks[id])
	}
	return out, nil
}

func (m *mockStore) UpdateTask(_ context.Context, id int64, patch model.TaskPatch) error {
	if err := m.fail(); err != nil {
		return err
	}
	t, ok := m.tasks[id]
	if !ok {
		return apperror.NotFound("task", id)
	}
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Content != nil {
		t.Content = patch.Content
	}
	if patch.Priority != nil {
		t.Priority = *patch.Priority
	}
	if patch.Completed != nil {
		t.Completed = *patch.Completed
	}
	if patch.Slug != nil {
		t.Slug = *patch.Slug
	}
	m.tasks[id] = t
	return nil
}

func (m *mockStore) DeleteTask(_ context.Context, id int64) error {
	if err := m.fail(); err != nil {
		return err
	}
	if _, ok := m.tasks[id]; !ok {
		return apperror.NotFound("task", id)
	}
	delete(m.tasks, id)
	return nil
}

func (m *mockStore) taskIDs(keep func(model.Task) bool) []int64 {
	ids := make([]int64, 0, len(m.tasks))
	for id, t := range m.tasks {
		if keep(t) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func paginate(ids []int64, opts repository.ListOptions) []int64 {
	if opts.Offset >= len(ids) {
		return nil
	}
	ids = ids[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(ids) {
		ids = ids[:opts.Limit]
	}
	return ids
}

// =========================================================================
// TEST HELPERS
// =========================================================================

var errDatabaseDown = errors.New("database is down")

func newTestServices(t *testing.T) (*UserService, *TaskService, *mockStore) {
	t.Helper()
	store := newMockStore()
	logger := slog.New(slog.DiscardHandler)
	return NewUserService(store, logger), NewTaskService(store, store, logger), store
}

func ptr[T any](v T) *T { return &v }
