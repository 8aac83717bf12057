package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"io"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/fieldsync/internal/clock"
	"github.com/roach88/fieldsync/internal/ids"
)

//go:embed schema.sql
var schemaSQL string

// pragma is a connection setting applied on open. Want is the value
// PRAGMA reports back once it is in effect.
type pragma struct {
	name  string
	value string
	want  string
}

var pragmas = []pragma{
	{"journal_mode", "WAL", "wal"},
	{"synchronous", "NORMAL", "1"},
	{"busy_timeout", "5000", "5000"},
	{"foreign_keys", "ON", "1"},
}

// migration upgrades a database whose user_version is below version.
type migration struct {
	version int
	stmt    string
}

// migrations run in order on top of schema.sql. Every statement must be
// safe to re-run, since a fresh database gets both.
var migrations = []migration{
	// Daily and monthly sales totals filter lines on created_at.
	{1, `CREATE INDEX IF NOT EXISTS idx_order_booking_lines_created_at
		ON order_booking_lines(created_at)`},
}

// schemaVersion is the user_version of a fully migrated database.
var schemaVersion = migrations[len(migrations)-1].version

// Store is the on-device database handle. It is created once by Open and
// passed explicitly to every component that reads or writes field data.
type Store struct {
	db          *sql.DB
	ids         ids.Generator
	clock       clock.Clock
	logger      *slog.Logger
	phoneRegion string
	seed        bool

	// beforeCommit runs right before a transaction commits. Tests use it to
	// simulate a failure after the statements succeeded.
	beforeCommit func(op string) error
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator sets the generator for locally created record ids.
func WithIDGenerator(g ids.Generator) Option {
	return func(s *Store) { s.ids = g }
}

// WithClock sets the clock that decides "today" and creation timestamps.
func WithClock(c clock.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithPhoneRegion sets the ISO region used to normalize phone numbers of
// customers added on the device. Empty disables normalization.
func WithPhoneRegion(region string) Option {
	return func(s *Store) { s.phoneRegion = region }
}

// WithoutSeed skips the demo customer and catalog seeding on first run.
func WithoutSeed() Option {
	return func(s *Store) { s.seed = false }
}

// Open opens the database at path, creating it when missing, and brings it
// to the current schema. Customers and items are seeded from the demo data
// when their tables are empty, unless WithoutSeed is given. Opening an
// existing database is safe on every launch.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{
		ids:    ids.UUIDv7Generator{},
		clock:  clock.System{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		seed:   true,
	}
	for _, opt := range opts {
		opt(s)
	}

	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	s.db = db

	if s.seed {
		if err := s.seedData(context.Background()); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to seed data: %w", err)
		}
	}
	return s, nil
}

// openDB connects to path with a single connection, since SQLite allows
// one writer, and applies pragmas, schema and migrations.
func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, p := range pragmas {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA %s = %s", p.name, p.value)); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply pragma %s: %w", p.name, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return db, nil
}

// migrate runs every migration newer than the database's user_version and
// records the new version.
func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	for _, m := range migrations {
		if m.version <= version {
			continue
		}
		if _, err := db.Exec(m.stmt); err != nil {
			return fmt.Errorf("migration %d: %w", m.version, err)
		}
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// Close closes the database. It is a no-op on a store that never opened.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the connection for read-only inspection, such as scenario
// assertions. Writes go through Store methods.
func (s *Store) DB() *sql.DB {
	return s.db
}

// today returns the store clock's calendar date.
func (s *Store) today() string {
	return clock.Today(s.clock)
}

// now returns the store clock's timestamp.
func (s *Store) now() string {
	return clock.Timestamp(s.clock)
}
