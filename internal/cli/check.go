package cli

import (
	"github.com/spf13/cobra"
)

func newCheckCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the server's pipeline health against a local calculation",
		Long: `check fetches GET /pipeline-health, validates the payload schema,
recomputes the score from the reported raw metrics and exits non-zero
when the two calculations disagree.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := opts.logger()
			defer func() { _ = log.Sync() }()

			uc, err := opts.consistencyUseCase(log)
			if err != nil {
				return err
			}

			report, err := uc.Execute(cmd.Context())
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), opts.output, report)
		},
	}
}
