package main

import (
	"github.com/spf13/cobra"

	"github.com/picshelf/service/internal/config"
)

func newRootCmd(cfg *config.Config) *cobra.Command {
	var logLevel string

	serve := newServeCmd(cfg)

	cmd := &cobra.Command{
		Use:           "picshelf",
		Short:         "Picshelf hands out presigned URLs for images kept in your own bucket",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return configureLogger(cmd.ErrOrStderr(), logLevel, cfg)
		},
		// Running the binary without a subcommand starts the server.
		RunE: serve.RunE,
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); overrides LOG_LEVEL")

	cmd.AddCommand(
		serve,
		newMigrateCmd(cfg),
	)
	return cmd
}
