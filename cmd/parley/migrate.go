package main

import (
	"fmt"
	"io/fs"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/vedran77/parley/db"
	"github.com/vedran77/parley/internal/database"
	"github.com/vedran77/parley/internal/logger"
)

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect the postgres schema",
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations (all of them unless --steps is set)",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(m *database.Migrator, _ []string) error {
			v, err := m.Down(steps)
			if err != nil {
				return err
			}
			logVersion("migrations rolled back", v)
			return nil
		}),
	}
	down.Flags().IntVar(&steps, "steps", 0, "number of migrations to roll back")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply every pending migration",
			Args:  cobra.NoArgs,
			RunE: withMigrator(func(m *database.Migrator, _ []string) error {
				v, err := m.Up()
				if err != nil {
					return err
				}
				logVersion("migration complete", v)
				return nil
			}),
		},
		down,
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied schema version",
			Args:  cobra.NoArgs,
			RunE: withMigrator(func(m *database.Migrator, _ []string) error {
				v, err := m.Version()
				if err != nil {
					return err
				}
				logVersion("current version", v)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "force VERSION",
			Short: "Mark VERSION as applied without running it",
			Args:  cobra.ExactArgs(1),
			RunE: withMigrator(func(m *database.Migrator, args []string) error {
				version, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q: %w", args[0], err)
				}
				if err := m.Force(version); err != nil {
					return err
				}
				logger.L.Info("forced version", slog.Int("version", version))
				return nil
			}),
		},
	)
	return cmd
}

// withMigrator loads configuration and hands run a migrator over the
// embedded migrations, closing it afterwards.
func withMigrator(run func(m *database.Migrator, args []string) error) func(*cobra.Command, []string) error {
	return func(_ *cobra.Command, args []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}
		if cfg.StoreDriver != "postgres" {
			return fmt.Errorf("migrate needs STORE_DRIVER=postgres, got %q", cfg.StoreDriver)
		}

		migrations, err := fs.Sub(db.MigrationsFS, "migrations")
		if err != nil {
			return fmt.Errorf("reading embedded migrations: %w", err)
		}
		m, err := database.NewMigrator(logger.L, cfg.DSN(), migrations)
		if err != nil {
			return err
		}
		defer func() {
			if err := m.Close(); err != nil {
				logger.L.Warn("closing migrator", slog.Any("error", err))
			}
		}()
		return run(m, args)
	}
}

func logVersion(msg string, v database.SchemaVersion) {
	if v.Empty {
		logger.L.Info(msg, slog.String("version", "none"))
		return
	}
	logger.L.Info(msg, slog.Uint64("version", uint64(v.Version)), slog.Bool("dirty", v.Dirty))
}
