package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/config"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/database/seeders"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/database"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/logger"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/migration"
)

// bootDB loads config and opens the database. The caller closes it.
func bootDB() (*gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger.Setup(cfg.IsProduction())
	return database.Open(cfg.DBDriver, cfg.DatabaseDSN)
}

func withDB(fn func(cmd *cobra.Command, db *gorm.DB) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		db, err := bootDB()
		if err != nil {
			return err
		}
		defer database.Close(db) //nolint:errcheck
		return fn(cmd, db)
	}
}

// shop migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run all pending database migrations",
	RunE: withDB(func(cmd *cobra.Command, db *gorm.DB) error {
		_, err := migration.New(db, cmd.OutOrStdout()).Run(cmd.Context())
		return err
	}),
}

// shop migrate:rollback
var migrateRollbackCmd = &cobra.Command{
	Use:   "migrate:rollback",
	Short: "Roll back the last batch of migrations",
	RunE: withDB(func(cmd *cobra.Command, db *gorm.DB) error {
		_, err := migration.New(db, cmd.OutOrStdout()).Rollback(cmd.Context())
		return err
	}),
}

// shop migrate:status
var migrateStatusCmd = &cobra.Command{
	Use:   "migrate:status",
	Short: "Show the status of each migration",
	RunE: withDB(func(cmd *cobra.Command, db *gorm.DB) error {
		list, err := migration.New(db, cmd.OutOrStdout()).Status(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "MIGRATION\tRAN\tBATCH")
		for _, s := range list {
			ran, batch := "No", "-"
			if s.Ran {
				ran, batch = "Yes", fmt.Sprint(s.Batch)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", s.Name, ran, batch)
		}
		return w.Flush()
	}),
}

// shop seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the sample catalog and the default admin",
	RunE: withDB(func(cmd *cobra.Command, db *gorm.DB) error {
		return seeders.RunAll(cmd.Context(), db, cmd.OutOrStdout())
	}),
}
