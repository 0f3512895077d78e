package cli

import (
	"github.com/blues/smartfarmer/internal/logic"
	"github.com/blues/smartfarmer/internal/repository"
	"github.com/spf13/cobra"
)

func newPayoutCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "payout",
		Short: "Run the maturity payout sweep once and print the summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, closeFn, err := openDB(load)
			if err != nil {
				return err
			}
			defer closeFn()

			store := repository.NewGormStore(db, cfg.Investment)
			summary, err := logic.NewPayoutLogic(store, logic.WithWorkers(cfg.Payout.Workers)).Sweep(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), summary)
		},
	}
}
