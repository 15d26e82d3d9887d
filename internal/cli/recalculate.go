package cli

import (
	"github.com/spf13/cobra"
)

func newRecalculateCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "recalculate",
		Short: "Trigger a server-side recalculation, then check consistency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := opts.logger()
			defer func() { _ = log.Sync() }()

			uc, err := opts.consistencyUseCase(log)
			if err != nil {
				return err
			}

			report, err := uc.RecalculateAndCheck(cmd.Context())
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), opts.output, report)
		},
	}
}
