package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, closeFn, err := openDB(load)
			if err != nil {
				return err
			}
			defer closeFn()

			fmt.Fprintf(cmd.OutOrStdout(), "Migrated %s database %s\n", cfg.Database.Driver, cfg.Database.DBName)
			return nil
		},
	}
}
