package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/banshee-data/clever/internal/recodb"
)

func newMigrateCmd() *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage result database migrations",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "Result database path")
	_ = cmd.MarkPersistentFlagRequired("db")

	withDB := func(fn func(*recodb.DB) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			db, err := recodb.Open(dbPath)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := fn(db); err != nil {
				return err
			}
			return printVersion(cmd, db)
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE:  withDB(func(db *recodb.DB) error { return db.MigrateUp() }),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE:  withDB(func(db *recodb.DB) error { return db.MigrateDown() }),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied and latest migration versions",
		RunE:  withDB(func(*recodb.DB) error { return nil }),
	})
	return cmd
}

func printVersion(cmd *cobra.Command, db *recodb.DB) error {
	v, dirty, err := db.MigrateVersion()
	if err != nil {
		return err
	}
	latest, err := recodb.LatestVersion()
	if err != nil {
		return err
	}
	state := "clean"
	if dirty {
		state = "dirty"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d of %d (%s)\n", v, latest, state)
	return nil
}
