package database

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// SchemaVersion is the state recorded in the schema_migrations table.
type SchemaVersion struct {
	Version uint
	Dirty   bool
	// Empty is set when no migration has been applied yet.
	Empty bool
}

// Migrator applies the embedded SQL migrations to one database.
type Migrator struct {
	m   *migrate.Migrate
	log *slog.Logger
}

// NewMigrator opens dsn with the .sql files found at the root of migrations.
func NewMigrator(log *slog.Logger, dsn string, migrations fs.FS) (*Migrator, error) {
	source, err := iofs.New(migrations, ".")
	if err != nil {
		return nil, fmt.Errorf("reading migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", source, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening migrator: %w", err)
	}
	m.Log = migrateLog{log: log}
	return &Migrator{m: m, log: log}, nil
}

func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	return errors.Join(srcErr, dbErr)
}

// Up applies every pending migration. Being current already is not an error.
func (mg *Migrator) Up() (SchemaVersion, error) {
	if err := ignoreNoChange(mg.m.Up()); err != nil {
		return SchemaVersion{}, fmt.Errorf("applying migrations: %w", err)
	}
	return mg.Version()
}

// Down rolls back steps migrations, or all of them when steps is 0.
func (mg *Migrator) Down(steps int) (SchemaVersion, error) {
	var err error
	if steps > 0 {
		err = mg.m.Steps(-steps)
	} else {
		err = mg.m.Down()
	}
	if err := ignoreNoChange(err); err != nil {
		return SchemaVersion{}, fmt.Errorf("rolling back migrations: %w", err)
	}
	return mg.Version()
}

func (mg *Migrator) Version() (SchemaVersion, error) {
	v, dirty, err := mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return SchemaVersion{Empty: true}, nil
	}
	if err != nil {
		return SchemaVersion{}, fmt.Errorf("reading schema version: %w", err)
	}
	return SchemaVersion{Version: v, Dirty: dirty}, nil
}

// Force records version without running anything, clearing a dirty state
// left by a failed migration.
func (mg *Migrator) Force(version int) error {
	if err := mg.m.Force(version); err != nil {
		return fmt.Errorf("forcing version %d: %w", version, err)
	}
	return nil
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

// migrateLog routes golang-migrate's progress lines into slog.
type migrateLog struct {
	log *slog.Logger
}

func (l migrateLog) Printf(format string, v ...any) {
	l.log.Debug("migrate", slog.String("detail", fmt.Sprintf(format, v...)))
}

func (l migrateLog) Verbose() bool { return false }
