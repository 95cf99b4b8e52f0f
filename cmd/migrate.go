package main

import (
	"fmt"

	"member-dedup/config"
	"member-dedup/internal/repository/postgres"

	"github.com/spf13/cobra"
)

func newMigrateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Repository.Backend != config.BackendPostgres {
				return fmt.Errorf("migrate requires the %s backend, got %s", config.BackendPostgres, a.cfg.Repository.Backend)
			}
			return postgres.New(cmd.Context(), a.log, a.cfg).Migrate(cmd.Context())
		},
	}
}
