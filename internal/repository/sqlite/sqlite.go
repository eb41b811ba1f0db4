// Package sqlite implements the repository interfaces on SQLite.
//
// The driver is modernc.org/sqlite, a pure Go translation of SQLite, so the
// binary builds without cgo. The schema lives in migrations/*.sql and is
// applied with goose on startup.
//
// One *DB implements every repository interface; method names carry the
// entity (CreateTool, FindCategory, ...) so they do not collide.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/pressly/goose/v3"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/altdirectory/internal/apperror"
	"github.com/sakif/altdirectory/internal/model"
	"github.com/sakif/altdirectory/internal/repository"
)

//go:embed migrations/*.sql
var migrations embed.FS

// querier is satisfied by both *sql.DB and *sql.Tx, so finders can run
// inside or outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB wraps a sql.DB connection pool and provides repository methods.
type DB struct {
	conn *sql.DB
}

// Open connects to the database without touching the schema.
//
// dbPath examples:
//   - "data/directory.db" → file-based database
//   - ":memory:"          → in-memory database, used by tests
//
// Pragmas go in the DSN so that every pooled connection gets them, not just
// the first one.
func Open(dbPath string) (*DB, error) {
	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
	if dbPath != ":memory:" {
		dsn += "&_pragma=journal_mode(WAL)"
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Each connection to ":memory:" is its own empty database.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	return &DB{conn: conn}, nil
}

// New opens the database and applies pending migrations.
func New(ctx context.Context, dbPath string) (*DB, error) {
	db, err := Open(dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping is used by the health check.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Migrate applies every pending migration and reports what ran.
func (db *DB) Migrate(ctx context.Context) ([]*goose.MigrationResult, error) {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("sqlite: loading migrations: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db.conn, fsys)
	if err != nil {
		return nil, fmt.Errorf("sqlite: creating migration provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return results, fmt.Errorf("sqlite: running migrations: %w", err)
	}
	return results, nil
}

// withTx runs fn in a transaction, committing on nil and rolling back on error.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing transaction: %w", err)
	}
	return nil
}

// constraint names the record being written, for error messages.
type constraint struct {
	resource string
	key      string // unique column, e.g. "slug"
	value    string
	refField string // request field holding a foreign key, if any
}

// constraintError turns SQLite constraint failures into domain errors.
// It returns nil when err is not a constraint failure.
func constraintError(err error, c constraint) error {
	var se *msqlite.Error
	if !errors.As(err, &se) {
		return nil
	}
	code := se.Code()
	if code&0xff != sqlite3.SQLITE_CONSTRAINT {
		return nil
	}
	msg := se.Error()
	switch {
	case code == sqlite3.SQLITE_CONSTRAINT_UNIQUE, code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY,
		strings.Contains(msg, "UNIQUE constraint"):
		return apperror.Conflict(c.resource, c.key, c.value)
	case code == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY, strings.Contains(msg, "FOREIGN KEY constraint"):
		return apperror.ValidationFailed(c.refField, "referenced record does not exist")
	}
	return nil
}

// expectOne maps zero affected rows to NotFound.
func expectOne(res sql.Result, resource, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(resource, "id", id)
	}
	return nil
}

// likePattern escapes LIKE wildcards in a user query.
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(q) + "%"
}

// setList accumulates "column = ?" assignments for a dynamic UPDATE.
type setList struct {
	cols []string
	args []any
}

func (s *setList) add(col string, v any) {
	s.cols = append(s.cols, col+" = ?")
	s.args = append(s.args, v)
}

func (s *setList) addString(col string, v *string) {
	if v != nil {
		s.add(col, *v)
	}
}

func (s *setList) addBool(col string, v *bool) {
	if v != nil {
		s.add(col, *v)
	}
}

func (s *setList) joined() string {
	return strings.Join(s.cols, ", ")
}

// exec runs UPDATE table SET ... WHERE id = ?.
func (s *setList) exec(ctx context.Context, q querier, table, id string) (sql.Result, error) {
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", table, s.joined())
	return q.ExecContext(ctx, query, append(s.args, id)...)
}

// listing describes the paginated listing of one table.
type listing[T any] struct {
	table   string
	columns string
	search  [2]string
	scan    func(scanner) (T, error)
}

type scanner interface {
	Scan(dest ...any) error
}

// list returns one page of def.table.
//
// Total is always COUNT(*) of the whole table; the search filter only
// narrows Data.
func list[T any](ctx context.Context, q querier, def listing[T], opts repository.ListOptions) (*model.Page[T], error) {
	var total int
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+def.table).Scan(&total); err != nil {
		return nil, fmt.Errorf("sqlite: counting %s: %w", def.table, err)
	}

	stmt := "SELECT " + def.columns + " FROM " + def.table
	args := []any{}
	if opts.Query != "" {
		// LIKE folds ASCII case only.
		stmt += fmt.Sprintf(` WHERE (%s LIKE ? ESCAPE '\' OR %s LIKE ? ESCAPE '\')`, def.search[0], def.search[1])
		pattern := likePattern(opts.Query)
		args = append(args, pattern, pattern)
	}
	stmt += " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, opts.Limit, opts.Offset())

	rows, err := q.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing %s: %w", def.table, err)
	}
	defer rows.Close()

	items, err := collect(rows, def.scan)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing %s: %w", def.table, err)
	}
	return &model.Page[T]{Data: items, Total: total, Page: opts.Page, PageSize: opts.Limit}, nil
}

func collect[T any](rows *sql.Rows, scan func(scanner) (T, error)) ([]T, error) {
	items := []T{}
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
