package cli

import (
	"github.com/blues/smartfarmer/internal/logic"
	"github.com/blues/smartfarmer/internal/repository"
	"github.com/spf13/cobra"
)

func newROICmd(load configLoader) *cobra.Command {
	var (
		projectId int64
		units     int64
	)

	cmd := &cobra.Command{
		Use:   "roi",
		Short: "Estimate the return of buying units of a project now",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, closeFn, err := openDB(load)
			if err != nil {
				return err
			}
			defer closeFn()

			store := repository.NewGormStore(db, cfg.Investment)
			roi, err := logic.NewProjectLogic(db, store, nil).CalculateROI(cmd.Context(), projectId, units)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), roi)
		},
	}
	cmd.Flags().Int64Var(&projectId, "project", 0, "Project id (required)")
	cmd.Flags().Int64Var(&units, "units", 1, "Number of units")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}
