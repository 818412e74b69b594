package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Strob0t/crm/internal/adapter/postgres"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if err := postgres.RunMigrations(cmd.Context(), cfg.Postgres.ConnString()); err != nil {
				return err
			}
			fmt.Fprintln(os.Stderr, "Migrations applied")
			return nil
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if steps < 1 {
				return errors.New("--steps must be at least 1")
			}
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if err := postgres.RollbackMigrations(cmd.Context(), cfg.Postgres.ConnString(), steps); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Rolled back %d migration(s)\n", steps)
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	var createDB bool
	status := &cobra.Command{
		Use:   "status",
		Short: "Show the schema version and the tables present",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if createDB {
				created, err := postgres.EnsureDatabase(ctx, cfg.Postgres)
				if err != nil {
					return err
				}
				if created {
					fmt.Fprintf(os.Stderr, "Database %s created\n", cfg.Postgres.Database)
				}
			}

			version, err := postgres.MigrationVersion(ctx, cfg.Postgres.ConnString())
			if err != nil {
				return err
			}

			pool, err := postgres.NewPool(ctx, cfg.Postgres)
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer pool.Close()

			store := postgres.NewStore(pool)
			name, err := store.CurrentDatabase(ctx)
			if err != nil {
				return err
			}
			tables, err := store.ListTables(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("database: %s\nversion:  %d\ntables:\n", name, version)
			for _, t := range tables {
				fmt.Printf("  - %s\n", t)
			}
			return nil
		},
	}
	status.Flags().BoolVar(&createDB, "create-db", false, "create the configured database if it does not exist")

	cmd.AddCommand(up, down, status)
	return cmd
}
