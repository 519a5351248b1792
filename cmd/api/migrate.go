package main

import (
	"github.com/spf13/cobra"

	"github.com/picshelf/service/internal/config"
	"github.com/picshelf/service/internal/db"
)

func newMigrateCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.UsesSQLite() {
				return db.MigrateSQLite(cfg.SQLitePath())
			}
			return db.Migrate(cfg.DatabaseURL)
		},
	}
}
