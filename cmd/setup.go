package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/moodfit/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup initializes the database and runs migrations, or rolls back the latest one.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	path := r.config.Database.DSN()
	r.logger.Info("initializing database", "path", path)

	db, err := shared.NewDatabase(path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if cmd.Bool("rollback") {
		version, err := shared.RollbackMigration(db)
		if err != nil {
			return err
		}
		r.logger.Info("rolled back migration", "version", version)
		if err := r.writePlain("%s rolled back migration %04d\n", r.palette.OK("✓"), version); err != nil {
			return err
		}
	} else {
		r.logger.Info("running database migrations")
		applied, err := shared.RunMigrations(db)
		if err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		if len(applied) == 0 {
			err = r.writePlain("%s database is up to date: %s\n", r.palette.OK("✓"), path)
		} else {
			err = r.writePlain("%s applied %d migration(s) to %s\n", r.palette.OK("✓"), len(applied), path)
		}
		if err != nil {
			return err
		}
	}

	if cmd.Bool("status") {
		return r.writeMigrationStatus(db)
	}
	return nil
}

func (r *Runner) writeMigrationStatus(db *sql.DB) error {
	status, err := shared.MigrationStatus(db)
	if err != nil {
		return err
	}

	if len(status) == 0 {
		return r.writePlain("%s\n", r.palette.Warn("no migrations applied"))
	}

	rows := make([][]string, 0, len(status))
	for _, m := range status {
		rows = append(rows, []string{fmt.Sprintf("%04d", m.Version), m.AppliedAt.Format("2006-01-02 15:04:05")})
	}

	return r.writePlain("\n%s", r.palette.Table([]string{"VERSION", "APPLIED AT"}, rows))
}
