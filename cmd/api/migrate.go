package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spec-kit/support-desk/internal/persistence"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down|status]",
	Short:     "Apply, roll back or inspect database migrations",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{string(persistence.MigrateUp), string(persistence.MigrateDown), string(persistence.MigrateStatus)},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		if !a.pg.Enabled() {
			return errors.New("migrate: POSTGRES_DSN is not set")
		}
		if err := persistence.RunMigrations(cmd.Context(), a.pg.Pool, a.logger, persistence.MigrationCommand(args[0])); err != nil {
			return fmt.Errorf("migrate %s: %w", args[0], err)
		}
		return nil
	},
}
