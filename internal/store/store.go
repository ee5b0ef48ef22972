// Package store persists users, checklist logs, meetings and the admin
// configuration tables through bun. SQLite is the default local backend;
// PostgreSQL is supported through lib/pq.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"lidercheck/internal/apperr"
	"lidercheck/internal/clock"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Default query bounds.
const (
	DefaultLogLimit     = 1000
	DefaultMeetingLimit = 500
)

//go:embed migrations
var migrationsFS embed.FS

// Open connects to the database and verifies it answers.
func Open(ctx context.Context, driver, dsn string) (*bun.DB, error) {
	var db *bun.DB
	switch driver {
	case DriverSQLite, "":
		sqldb, err := sql.Open(DriverSQLite, dsn)
		if err != nil {
			return nil, storageError(err, "open sqlite")
		}
		sqldb.SetMaxOpenConns(1)
		db = bun.NewDB(sqldb, sqlitedialect.New())
	case DriverPostgres:
		sqldb, err := sql.Open(DriverPostgres, dsn)
		if err != nil {
			return nil, storageError(err, "open postgres")
		}
		db = bun.NewDB(sqldb, pgdialect.New())
	default:
		return nil, fmt.Errorf("store: unsupported driver %q", driver)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, storageError(err, "ping database")
	}
	return db, nil
}

// Config wires the Store.
type Config struct {
	DB           *bun.DB
	Location     *time.Location
	LogLimit     int
	MeetingLimit int
}

// Store is the storage collaborator behind every handler.
type Store struct {
	db           *bun.DB
	loc          *time.Location
	logLimit     int
	meetingLimit int
}

// New constructs a Store.
func New(cfg Config) (*Store, error) {
	if cfg.DB == nil {
		return nil, errors.New("store: db required")
	}
	loc := cfg.Location
	if loc == nil {
		loc = clock.Zone(clock.DefaultOffset)
	}
	logLimit := cfg.LogLimit
	if logLimit <= 0 {
		logLimit = DefaultLogLimit
	}
	meetingLimit := cfg.MeetingLimit
	if meetingLimit <= 0 {
		meetingLimit = DefaultMeetingLimit
	}
	return &Store{
		db:           cfg.DB,
		loc:          loc,
		logLimit:     logLimit,
		meetingLimit: meetingLimit,
	}, nil
}

// DB exposes the underlying handle.
func (s *Store) DB() *bun.DB {
	return s.db
}

// Ping reports whether the database answers.
func (s *Store) Ping(ctx context.Context) error {
	return storageError(s.db.PingContext(ctx), "ping database")
}

// Migrate applies the embedded migrations for the connected dialect that
// have not been applied yet. Each file runs in its own transaction.
func (s *Store) Migrate(ctx context.Context) error {
	dir := "migrations/sqlite"
	if s.db.Dialect().Name() == dialect.PG {
		dir = "migrations/postgres"
	}

	if _, err := s.db.NewCreateTable().
		Model((*migrationRecord)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return storageError(err, "create schema_migrations")
	}

	var applied []string
	if err := s.db.NewSelect().
		Model((*migrationRecord)(nil)).
		Column("name").
		Scan(ctx, &applied); err != nil {
		return storageError(err, "list migrations")
	}
	done := make(map[string]bool, len(applied))
	for _, name := range applied {
		done[name] = true
	}

	entries, err := fs.ReadDir(migrationsFS, dir)
	if err != nil {
		return fmt.Errorf("store: read migrations: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		if done[name] {
			continue
		}
		content, err := fs.ReadFile(migrationsFS, path.Join(dir, name))
		if err != nil {
			return fmt.Errorf("store: read %s: %w", name, err)
		}
		err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			for _, stmt := range splitStatements(string(content)) {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
			}
			_, err := tx.NewInsert().
				Model(&migrationRecord{Name: name, AppliedAt: time.Now().UTC()}).
				Exec(ctx)
			return err
		})
		if err != nil {
			return storageError(err, "migrate")
		}
	}
	return nil
}

// splitStatements breaks a migration file into statements, dropping blank
// lines and "--" comments.
func splitStatements(sql string) []string {
	var builder strings.Builder
	var statements []string
	for _, line := range strings.Split(sql, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		builder.WriteString(line)
		if strings.HasSuffix(line, ";") {
			statements = append(statements, strings.TrimSuffix(builder.String(), ";"))
			builder.Reset()
		} else {
			builder.WriteString(" ")
		}
	}
	if builder.Len() > 0 {
		statements = append(statements, builder.String())
	}
	return statements
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// storageError classifies a driver error. Unique key violations become a
// ConflictError; anything else is StorageUnavailable.
func storageError(err error, op string) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return apperr.Conflict("%s: record already exists", op)
	}
	return apperr.Unavailable(err, op)
}

func isUniqueViolation(err error) bool {
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var pgErr *pq.Error
	if errors.As(err, &pgErr) {
		return pgErr.Code.Name() == "unique_violation"
	}
	return false
}
