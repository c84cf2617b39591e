package main

import (
	"fmt"
	"os"

	"go-resume-backend/config"
	"go-resume-backend/pkg/database"
	"go-resume-backend/pkg/logger"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dbURL string

	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the resume database schema",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			logger.Init(cfg.LogLevel)
			if dbURL == "" {
				dbURL = cfg.DBUrl
			}
			if dbURL == "" {
				return errors.New("no database URL: set DATABASE_URL or pass --database-url")
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&dbURL, "database-url", "", "Postgres connection string (defaults to DATABASE_URL)")

	root.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			applied, err := database.MigrateUp(cmd.Context(), dbURL)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
				return nil
			}
			for _, name := range applied {
				fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", name)
			}
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List migrations and whether they are applied",
		RunE: func(cmd *cobra.Command, args []string) error {
			migrations, err := database.LoadMigrations()
			if err != nil {
				return err
			}
			db, err := database.OpenSQL(dbURL)
			if err != nil {
				return err
			}
			defer db.Close()

			applied, err := database.NewMigrator(db, migrations).Applied(cmd.Context())
			if err != nil {
				return err
			}
			for _, m := range migrations {
				state := "pending"
				if applied[m.Name] {
					state = "applied"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-8s %s\n", state, m.Name)
			}
			return nil
		},
	})

	return root
}
