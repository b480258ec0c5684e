// Package sqlite implements the repository interfaces on a single SQLite file.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means you need a C compiler installed and
// cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code.
//
// CONNECTION POLICY:
// Every pooled connection is opened with the same pragmas, passed through the
// DSN so they apply to each connection and not only the first one:
//
//	foreign_keys(1)     tasks.user_id is enforced by the engine
//	busy_timeout(5000)  writers wait up to 5s for the lock instead of failing
//	journal_mode(WAL)   readers don't block the writer (file databases only)
//
// An in-memory database exists per connection, so ":memory:" is pinned to a
// single connection; otherwise two queries could see two different databases.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/taskmanager/internal/metrics"
)

// MemoryPath opens a private in-memory database. Used by tests.
const MemoryPath = ":memory:"

// Options tunes the store. The zero value is valid.
type Options struct {
	// Logger receives statement logs. Nil discards them.
	Logger *slog.Logger
	// LogQueries logs every statement with its arguments at debug level.
	LogQueries bool
}

// DB wraps a sql.DB connection pool and provides repository methods.
type DB struct {
	conn       *sql.DB
	logger     *slog.Logger
	logQueries bool
}

// querier is the subset of *sql.DB and *sql.Tx the repository methods use,
// so the same statement helpers run inside and outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New opens (creating if needed) the database at dbPath and creates the
// schema. The caller owns the returned DB and must Close it.
func New(dbPath string, opts Options) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	if dbPath == MemoryPath {
		conn.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := wrap(conn, opts)
	if err := db.migrate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

func wrap(conn *sql.DB, opts Options) *DB {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &DB{conn: conn, logger: logger, logQueries: opts.LogQueries}
}

func dsn(dbPath string) string {
	pragmas := []string{"_pragma=foreign_keys(1)", "_pragma=busy_timeout(5000)"}
	if dbPath != MemoryPath {
		pragmas = append(pragmas, "_pragma=journal_mode(WAL)")
	}
	// A file: URI may already carry its own query string.
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + strings.Join(pragmas, "&")
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks that the database file is still reachable.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite: ping: %w", err)
	}
	return nil
}

// migrate creates the tables declared by the model package.
// CREATE ... IF NOT EXISTS keeps it safe to run on every start.
func (db *DB) migrate(ctx context.Context) error {
	_, err := db.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			username  TEXT    NOT NULL UNIQUE,
			firstname TEXT,
			lastname  TEXT,
			age       INTEGER,
			slug      TEXT    NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_users_slug ON users(slug);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// ON DELETE CASCADE backs up DeleteUser, which removes tasks explicitly.
	_, err = db.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS tasks (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			title     TEXT    NOT NULL,
			content   TEXT,
			priority  INTEGER NOT NULL,
			completed BOOLEAN NOT NULL DEFAULT 0,
			user_id   INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			slug      TEXT    NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_tasks_user_id ON tasks(user_id);
		CREATE INDEX IF NOT EXISTS idx_tasks_slug ON tasks(slug);
	`)
	if err != nil {
		return fmt.Errorf("creating tasks table: %w", err)
	}

	return nil
}

// withTx runs fn inside a transaction. The transaction commits only when fn
// returns nil; any error or panic rolls it back.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	// Rollback after a successful Commit is a no-op returning sql.ErrTxDone.
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing transaction: %w", err)
	}
	return nil
}

func (db *DB) exec(ctx context.Context, q querier, table, query string, args ...any) (sql.Result, error) {
	defer db.observe(table, query, args)()
	return q.ExecContext(ctx, query, args...)
}

func (db *DB) query(ctx context.Context, q querier, table, query string, args ...any) (*sql.Rows, error) {
	defer db.observe(table, query, args)()
	return q.QueryContext(ctx, query, args...)
}

func (db *DB) queryRow(ctx context.Context, q querier, table, query string, args ...any) *sql.Row {
	defer db.observe(table, query, args)()
	return q.QueryRowContext(ctx, query, args...)
}

// observe records statement latency and, when enabled, logs the statement.
// Call it as `defer db.observe(...)()`.
func (db *DB) observe(table, query string, args []any) func() {
	start := time.Now()
	op := operation(query)
	return func() {
		took := time.Since(start)
		metrics.DBQueryDuration.WithLabelValues(op, table).Observe(took.Seconds())
		if db.logQueries {
			db.logger.Debug("sql",
				slog.String("op", op),
				slog.String("query", strings.Join(strings.Fields(query), " ")),
				slog.Any("args", args),
				slog.Duration("took", took),
			)
		}
	}
}

// operation is the leading SQL keyword, lower-cased: "select", "insert", ...
func operation(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return "unknown"
	}
	return strings.ToLower(fields[0])
}

// constraintCode returns the extended SQLite result code of a constraint
// violation, or 0 if err is not one.
func constraintCode(err error) int {
	var sqliteErr *moderncsqlite.Error
	if !errors.As(err, &sqliteErr) {
		return 0
	}
	code := sqliteErr.Code()
	if code&0xff != sqlite3.SQLITE_CONSTRAINT {
		return 0
	}
	if code != sqlite3.SQLITE_CONSTRAINT {
		return code
	}
	// Primary result code only: recover the kind from the message.
	msg := sqliteErr.Error()
	switch {
	case strings.Contains(msg, "UNIQUE"):
		return sqlite3.SQLITE_CONSTRAINT_UNIQUE
	case strings.Contains(msg, "FOREIGN KEY"):
		return sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
	}
	return code
}

func isUniqueViolation(err error) bool {
	return constraintCode(err) == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

func isForeignKeyViolation(err error) bool {
	return constraintCode(err) == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
}

// limitArgs converts ListOptions to LIMIT/OFFSET arguments.
// SQLite treats a negative LIMIT as "no limit".
func limitArgs(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = -1
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
