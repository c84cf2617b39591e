package database

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"
	"sort"
	"strings"

	"go-resume-backend/pkg/logger"

	"github.com/cockroachdb/errors"
	_ "github.com/lib/pq" // registers the "postgres" driver for database/sql
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migration is a named schema change applied once
type Migration struct {
	Name string
	SQL  string
}

// LoadMigrations returns the embedded migrations ordered by file name.
func LoadMigrations() ([]Migration, error) {
	return loadMigrations(migrationFiles, "migrations")
}

func loadMigrations(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, errors.Wrap(err, "read migrations")
	}

	var migrations []Migration
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		body, err := fs.ReadFile(fsys, dir+"/"+e.Name())
		if err != nil {
			return nil, errors.Wrapf(err, "read migration %s", e.Name())
		}
		migrations = append(migrations, Migration{
			Name: strings.TrimSuffix(e.Name(), ".sql"),
			SQL:  string(body),
		})
	}
	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Name < migrations[j].Name })
	return migrations, nil
}

// OpenSQL opens a database/sql handle through lib/pq. The migration runner
// uses it instead of the pgx pool so schema changes run over a short-lived
// connection.
func OpenSQL(connString string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	return db, nil
}

// Migrator applies embedded migrations and records them in schema_migrations.
type Migrator struct {
	db         *sql.DB
	migrations []Migration
}

func NewMigrator(db *sql.DB, migrations []Migration) *Migrator {
	return &Migrator{db: db, migrations: migrations}
}

const createMigrationsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
	name       TEXT PRIMARY KEY,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Applied returns the names of migrations already recorded.
func (m *Migrator) Applied(ctx context.Context) (map[string]bool, error) {
	if _, err := m.db.ExecContext(ctx, createMigrationsTable); err != nil {
		return nil, errors.Wrap(err, "create schema_migrations")
	}

	rows, err := m.db.QueryContext(ctx, `SELECT name FROM schema_migrations`)
	if err != nil {
		return nil, errors.Wrap(err, "list applied migrations")
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "scan migration name")
		}
		applied[name] = true
	}
	return applied, rows.Err()
}

// Up applies every pending migration, each in its own transaction.
// It returns the names applied during this call.
func (m *Migrator) Up(ctx context.Context) ([]string, error) {
	logger.Log.Info("Starting database migrations")

	applied, err := m.Applied(ctx)
	if err != nil {
		return nil, err
	}

	var done []string
	for _, mig := range m.migrations {
		if applied[mig.Name] {
			continue
		}
		if err := m.apply(ctx, mig); err != nil {
			logger.Log.Error("Migration failed", "name", mig.Name, "error", err)
			return done, err
		}
		logger.Log.Info("Migration completed", "name", mig.Name)
		done = append(done, mig.Name)
	}

	logger.Log.Info("All migrations completed", "applied", len(done))
	return done, nil
}

func (m *Migrator) apply(ctx context.Context, mig Migration) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin migration")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, mig.SQL); err != nil {
		return errors.Wrapf(err, "apply %s", mig.Name)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, mig.Name); err != nil {
		return errors.Wrapf(err, "record %s", mig.Name)
	}
	return errors.Wrapf(tx.Commit(), "commit %s", mig.Name)
}

// MigrateUp opens a short-lived database/sql connection and applies every
// pending embedded migration.
func MigrateUp(ctx context.Context, connString string) ([]string, error) {
	migrations, err := LoadMigrations()
	if err != nil {
		return nil, err
	}
	db, err := OpenSQL(connString)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	return NewMigrator(db, migrations).Up(ctx)
}
