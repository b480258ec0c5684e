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

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, username, firstname, lastname, age, slug`

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner, u *model.User) error {
	return s.Scan(&u.ID, &u.Username, &u.Firstname, &u.Lastname, &u.Age, &u.Slug)
}

// CreateUser inserts user and sets user.ID to the assigned row id.
//
// The UNIQUE index on username is the real guard against duplicates: two
// concurrent creates can both pass the service's pre-check, but only one
// INSERT succeeds and the other gets apperror.ErrConflict here.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	res, err := db.exec(ctx, db.conn, "users",
		`INSERT INTO users (username, firstname, lastname, age, slug)
		 VALUES (?, ?, ?, ?, ?)`,
		user.Username, user.Firstname, user.Lastname, user.Age, user.Slug,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", "username", user.Username)
		}
		return fmt.Errorf("sqlite: creating user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading user id: %w", err)
	}
	user.ID = id
	return nil
}

// GetUser returns apperror.ErrNotFound when no row has the id.
func (db *DB) GetUser(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	err := scanUser(db.queryRow(ctx, db.conn, "users",
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id), &u)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %d: %w", id, err)
	}
	return &u, nil
}

// GetUserByUsername returns (nil, nil) when the username is free.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	err := scanUser(db.queryRow(ctx, db.conn, "users",
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username), &u)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("sqlite: getting user by username: %w", err)
	}
	return &u, nil
}

// ListUsers returns users in insertion (id) order.
func (db *DB) ListUsers(ctx context.Context, opts repository.ListOptions) ([]model.User, error) {
	limit, offset := limitArgs(opts.Limit, opts.Offset)

	rows, err := db.query(ctx, db.conn, "users",
		`SELECT `+userColumns+` FROM users ORDER BY id LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		var u model.User
		if err := scanUser(rows, &u); err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}

	return users, nil
}

// UpdateUser writes the non-nil fields of patch. An empty patch only checks
// that the user exists.
func (db *DB) UpdateUser(ctx context.Context, id int64, patch model.UserPatch) error {
	if patch.Empty() {
		_, err := db.GetUser(ctx, id)
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
	if patch.Username != nil {
		set("username", *patch.Username)
	}
	if patch.Firstname != nil {
		set("firstname", *patch.Firstname)
	}
	if patch.Lastname != nil {
		set("lastname", *patch.Lastname)
	}
	if patch.Age != nil {
		set("age", *patch.Age)
	}
	if patch.Slug != nil {
		set("slug", *patch.Slug)
	}
	args = append(args, id)

	result, err := db.exec(ctx, db.conn, "users",
		`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		if isUniqueViolation(err) && patch.Username != nil {
			return apperror.Conflict("user", "username", *patch.Username)
		}
		return fmt.Errorf("sqlite: updating user %d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}

// DeleteUser deletes the user's tasks and then the user in one transaction,
// so a failure between the two statements leaves both in place.
func (db *DB) DeleteUser(ctx context.Context, id int64) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := db.exec(ctx, tx, "tasks",
			`DELETE FROM tasks WHERE user_id = ?`, id); err != nil {
			return fmt.Errorf("sqlite: deleting tasks of user %d: %w", id, err)
		}

		result, err := db.exec(ctx, tx, "users", `DELETE FROM users WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("sqlite: deleting user %d: %w", id, err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: checking rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return apperror.NotFound("user", id)
		}
		return nil
	})
}
