package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// migrateCmd applies pending migrations and exits.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer rt.close()

		applied, err := rt.db.Migrate(cmd.Context())
		if err != nil {
			return err
		}
		if len(applied) == 0 {
			rt.logger.Info("Database is up to date")
			return nil
		}
		rt.logger.Info("Migrations applied", zap.Strings("versions", applied))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(migrateCmd)
}
