package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sakif/taskmanager/internal/apperror"
	"github.com/sakif/taskmanager/internal/model"
	"github.com/sakif/taskmanager/internal/repository"
)

var _ repository.TaskRepository = (*DB)(nil)

const taskColumns = `id, title, content, priority, completed, user_id, slug`

func scanTask(s scanner, t *model.Task) error {
	return s.Scan(&t.ID, &t.Title, &t.Content, &t.Priority, &t.Completed, &t.UserID, &t.Slug)
}

// CreateTask inserts task and sets task.ID. A task.UserID that references
// no user fails the foreign key and is reported as the user not being found.
func (db *DB) CreateTask(ctx context.Context, task *model.Task) error {
	res, err := db.exec(ctx, db.conn, "tasks",
		`INSERT INTO tasks (title, content, priority, completed, user_id, slug)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		task.Title, task.Content, task.Priority, task.Completed, task.UserID, task.Slug,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.NotFound("user", task.UserID)
		}
		return fmt.Errorf("sqlite: creating task: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading task id: %w", err)
	}
	task.ID = id
	return nil
}

func (db *DB) GetTask(ctx context.Context, id int64) (*model.Task, error) {
	var t model.Task
	err := scanTask(db.queryRow(ctx, db.conn, "tasks",
		`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id), &t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("task", id)
		}
		return nil, fmt.Errorf("sqlite: getting task %d: %w", id, err)
	}
	return &t, nil
}

func (db *DB) ListTasks(ctx context.Context, opts repository.ListOptions) ([]model.Task, error) {
	limit, offset := limitArgs(opts.Limit, opts.Offset)
	rows, err := db.query(ctx, db.conn, "tasks",
		`SELECT `+taskColumns+` FROM tasks ORDER BY id LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing tasks: %w", err)
	}
	return collectTasks(rows)
}

// ListTasksByUser does not check that the user exists; an unknown id simply
// yields an empty slice.
func (db *DB) ListTasksByUser(ctx context.Context, userID int64) ([]model.Task, error) {
	rows, err := db.query(ctx, db.conn, "tasks",
		`SELECT `+taskColumns+` FROM tasks WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing tasks of user %d: %w", userID, err)
	}
	return collectTasks(rows)
}

func collectTasks(rows *sql.Rows) ([]model.Task, error) {
	defer rows.Close()

	tasks := make([]model.Task, 0)
	for rows.Next() {
		var t model.Task
		if err := scanTask(rows, &t); err != nil {
			return nil, fmt.Errorf("sqlite: scanning task row: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating tasks: %w", err)
	}
	return tasks, nil
}

func (db *DB) UpdateTask(ctx context.Context, id int64, patch model.TaskPatch) error {
	if patch.Empty() {
		_, err := db.GetTask(ctx, id)
		return err
	}

	var (
		sets []string
		args []any
	)
	set := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}
	if patch.Title != nil {
		set("title", *patch.Title)
	}
	if patch.Content != nil {
		set("content", *patch.Content)
	}
	if patch.Priority != nil {
		set("priority", *patch.Priority)
	}
	if patch.Completed != nil {
		set("completed", *patch.Completed)
	}
	if patch.Slug != nil {
		set("slug", *patch.Slug)
	}
	args = append(args, id)

	result, err := db.exec(ctx, db.conn, "tasks",
		`UPDATE tasks SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("sqlite: updating task %d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("task", id)
	}
	return nil
}

func (db *DB) DeleteTask(ctx context.Context, id int64) error {
	result, err := db.exec(ctx, db.conn, "tasks", `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting task %d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("task", id)
	}
	return nil
}
