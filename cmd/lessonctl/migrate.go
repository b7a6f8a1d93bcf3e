package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/vmx-pso/lesson-service/internal/migrations"

	_ "github.com/lib/pq"
)

func dsnFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "dsn",
		Usage:    "PostgreSQL DSN",
		Required: true,
		Sources:  cli.EnvVars("LESSONS_DB_DSN"),
	}
}

func migrateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply or roll back database migrations",
		Commands: []*cli.Command{
			{
				Name:   "up",
				Usage:  "Apply every pending migration",
				Flags:  []cli.Flag{dsnFlag()},
				Action: r.MigrateUp,
			},
			{
				Name:   "down",
				Usage:  "Roll back the most recent migration",
				Flags:  []cli.Flag{dsnFlag()},
				Action: r.MigrateDown,
			},
		},
	}
}

func (r *Runner) MigrateUp(ctx context.Context, cmd *cli.Command) error {
	db, err := openDB(ctx, cmd.String("dsn"))
	if err != nil {
		return err
	}
	defer db.Close()

	applied, err := migrations.Up(ctx, db)
	if err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}

	if len(applied) == 0 {
		r.logger.Info("database is up to date")
		return nil
	}

	for _, version := range applied {
		r.logger.Info("applied migration", "version", version)
	}

	return nil
}

func (r *Runner) MigrateDown(ctx context.Context, cmd *cli.Command) error {
	db, err := openDB(ctx, cmd.String("dsn"))
	if err != nil {
		return err
	}
	defer db.Close()

	version, err := migrations.Down(ctx, db)
	if errors.Is(err, migrations.ErrNoMigrations) {
		r.logger.Info("no migrations to roll back")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migrate down: %w", err)
	}

	r.logger.Info("rolled back migration", "version", version)

	return nil
}

func openDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	return db, nil
}
