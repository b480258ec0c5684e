package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sakif/taskmanager/internal/apperror"
	"github.com/sakif/taskmanager/internal/model"
	"github.com/sakif/taskmanager/internal/repository"
)

func TestTaskCreate_Success(t *testing.T) {
	users, tasks, _ := newTestServices(t)
	ctx := context.Background()
	owner, _ := users.Create(ctx, "alice", nil, nil, nil)

	created, err := tasks.Create(ctx, owner.ID, "Buy Milk", ptr("2 liters"), 3, false)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := tasks.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Slug != "buy-milk" {
		t.Errorf("Slug = %q, want %q", got.Slug, "buy-milk")
	}
	if got.UserID != owner.ID || got.Priority != 3 || got.Completed {
		t.Errorf("unexpected task: %+v", got)
	}
}

func TestTaskCreate_UnknownUser(t *testing.T) {
	_, tasks, store := newTestServices(t)

	_, err := tasks.Create(context.Background(), 999, "orphan", nil, 1, false)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Create() error = %v, want ErrNotFound", err)
	}
	if len(store.tasks) != 0 {
		t.Errorf("store has %d tasks, want 0", len(store.tasks))
	}
}

func TestTaskCreate_Validation(t *testing.T) {
	users, tasks, _ := newTestServices(t)
	ctx := context.Background()
	owner, _ := users.Create(ctx, "bob", nil, nil, nil)

	tests := []struct {
		name    string
		title   string
		content *string
		field   string
	}{
		{"empty title", "", nil, "title"},
		{"blank title", "\t ", nil, "title"},
		{"title too long", strings.Repeat("t", MaxTitleLength+1), nil, "title"},
		{"content too long", "ok", ptr(strings.Repeat("c", MaxContentLength+1)), "content"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tasks.Create(ctx, owner.ID, tt.title, tt.content, 1, false)
			var appErr *apperror.AppError
			if !errors.As(err, &appErr) || !errors.Is(err, apperror.ErrValidation) {
				t.Fatalf("Create() error = %v, want validation AppError", err)
			}
			if appErr.Field != tt.field {
				t.Errorf("Field = %q, want %q", appErr.Field, tt.field)
			}
		})
	}
}

func TestTaskList(t *testing.T) {
	users, tasks, _ := newTestServices(t)
	ctx := context.Background()
	a, _ := users.Create(ctx, "a", nil, nil, nil)
	b, _ := users.Create(ctx, "b", nil, nil, nil)
	tasks.Create(ctx, a.ID, "one", nil, 1, false)
	tasks.Create(ctx, b.ID, "two", nil, 1, false)
	tasks.Create(ctx, a.ID, "three", nil, 1, true)

	all, err := tasks.List(ctx, repository.ListOptions{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 3 {
		t.Errorf("List() returned %d tasks, want 3", len(all))
	}

	if _, err := tasks.List(ctx, repository.ListOptions{Offset: -1}); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("List(negative offset) error = %v, want ErrValidation", err)
	}
}

func TestTaskListByUser(t *testing.T) {
	users, tasks, _ := newTestServices(t)
	ctx := context.Background()
	a, _ := users.Create(ctx, "a", nil, nil, nil)
	b, _ := users.Create(ctx, "b", nil, nil, nil)
	tasks.Create(ctx, a.ID, "first", nil, 1, false)
	tasks.Create(ctx, b.ID, "other", nil, 1, false)
	tasks.Create(ctx, a.ID, "second", nil, 2, false)

	got, err := tasks.ListByUser(ctx, a.ID)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(got) != 2 || got[0].Title != "first" || got[1].Title != "second" {
		t.Errorf("ListByUser() = %+v, want [first second]", got)
	}
}

func TestTaskListByUser_NoTasks(t *testing.T) {
	users, tasks, _ := newTestServices(t)
	ctx := context.Background()
	idle, _ := users.Create(ctx, "idle", nil, nil, nil)

	got, err := tasks.ListByUser(ctx, idle.ID)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("ListByUser() = %#v, want empty non-nil slice", got)
	}
}

func TestTaskListByUser_UnknownUser(t *testing.T) {
	_, tasks, _ := newTestServices(t)

	_, err := tasks.ListByUser(context.Background(), 5)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("ListByUser() error = %v, want ErrNotFound", err)
	}
}

func TestTaskUpdate(t *testing.T) {
	tests := []struct {
		name      string
		patch     model.TaskPatch
		wantTitle string
		wantSlug  string
		wantDone  bool
		wantPrio  int
	}{
		{
			name:      "title recomputes slug",
			patch:     model.TaskPatch{Title: ptr("Walk the Dog")},
			wantTitle: "Walk the Dog",
			wantSlug:  "walk-the-dog",
			wantPrio:  1,
		},
		{
			name:      "completed keeps slug",
			patch:     model.TaskPatch{Completed: ptr(true)},
			wantTitle: "Buy Milk",
			wantSlug:  "buy-milk",
			wantDone:  true,
			wantPrio:  1,
		},
		{
			name:      "client slug is ignored",
			patch:     model.TaskPatch{Slug: ptr("forged"), Priority: ptr(9)},
			wantTitle: "Buy Milk",
			wantSlug:  "buy-milk",
			wantPrio:  9,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users, tasks, _ := newTestServices(t)
			ctx := context.Background()
			owner, _ := users.Create(ctx, "owner", nil, nil, nil)
			task, _ := tasks.Create(ctx, owner.ID, "Buy Milk", nil, 1, false)

			if err := tasks.Update(ctx, task.ID, tt.patch); err != nil {
				t.Fatalf("Update() error = %v", err)
			}

			got, _ := tasks.GetByID(ctx, task.ID)
			if got.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", got.Title, tt.wantTitle)
			}
			if got.Slug != tt.wantSlug {
				t.Errorf("Slug = %q, want %q", got.Slug, tt.wantSlug)
			}
			if got.Completed != tt.wantDone {
				t.Errorf("Completed = %v, want %v", got.Completed, tt.wantDone)
			}
			if got.Priority != tt.wantPrio {
				t.Errorf("Priority = %d, want %d", got.Priority, tt.wantPrio)
			}
		})
	}
}

func TestTaskUpdate_NotFound(t *testing.T) {
	_, tasks, _ := newTestServices(t)

	err := tasks.Update(context.Background(), 1, model.TaskPatch{Completed: ptr(true)})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
}

func TestTaskUpdate_BlankTitle(t *testing.T) {
	users, tasks, _ := newTestServices(t)
	ctx := context.Background()
	owner, _ := users.Create(ctx, "owner", nil, nil, nil)
	task, _ := tasks.Create(ctx, owner.ID, "keep", nil, 1, false)

	err := tasks.Update(ctx, task.ID, model.TaskPatch{Title: ptr("")})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Update() error = %v, want ErrValidation", err)
	}
}

func TestTaskDelete(t *testing.T) {
	users, tasks, _ := newTestServices(t)
	ctx := context.Background()
	owner, _ := users.Create(ctx, "owner", nil, nil, nil)
	task, _ := tasks.Create(ctx, owner.ID, "gone soon", nil, 1, false)

	if err := tasks.Delete(ctx, task.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := tasks.Delete(ctx, task.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
	if _, err := users.GetByID(ctx, owner.ID); err != nil {
		t.Errorf("owner lost after task delete: %v", err)
	}
}
