package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/hiresphere/pipeline-health/internal/application/dto"
	"github.com/hiresphere/pipeline-health/internal/application/usecase"
	"github.com/hiresphere/pipeline-health/internal/domain/service"
	"github.com/hiresphere/pipeline-health/internal/domain/valueobject"
)

// scoreFlags - сырые метрики; незаданный флаг трактуется как отсутствующее значение
var scoreFlags = []struct {
	name  string
	usage string
	field func(in *dto.SnapshotInput) **float64
}{
	{"active-candidates", "number of active candidates", func(in *dto.SnapshotInput) **float64 { return &in.ActiveCandidates }},
	{"open-positions", "number of open positions", func(in *dto.SnapshotInput) **float64 { return &in.OpenPositions }},
	{"weekly-applications", "applications received in the last 7 days", func(in *dto.SnapshotInput) **float64 { return &in.WeeklyApplications }},
	{"avg-days-to-fill", "average days to fill a position", func(in *dto.SnapshotInput) **float64 { return &in.AvgDaysToFill }},
	{"diverse-candidates", "number of candidates from underrepresented groups", func(in *dto.SnapshotInput) **float64 { return &in.DiverseCandidates }},
	{"total-candidates", "total number of candidates", func(in *dto.SnapshotInput) **float64 { return &in.TotalCandidates }},
}

func newScoreCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Compute the pipeline health score locally from raw metrics",
		Example: `  pipeline-health score --active-candidates 50 --open-positions 5 \
    --weekly-applications 15 --avg-days-to-fill 25 \
    --diverse-candidates 10 --total-candidates 50`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := opts.logger()
			defer func() { _ = log.Sync() }()

			input, err := snapshotFromFlags(cmd.Flags())
			if err != nil {
				return err
			}

			cfg := valueobject.DefaultScoringConfig()
			uc := usecase.NewPreviewHealthUseCase(
				service.NewMetricsCalculator(cfg),
				service.NewAlertGenerator(cfg),
				log,
			)
			payload := uc.Execute(input)

			if opts.output == "json" {
				return writeJSON(cmd.OutOrStdout(), payload)
			}
			writeScore(cmd.OutOrStdout(), payload)
			return nil
		},
	}

	for _, f := range scoreFlags {
		cmd.Flags().Float64(f.name, 0, f.usage)
	}
	return cmd
}

// snapshotFromFlags возвращает nil, если не задана ни одна метрика ("no data")
func snapshotFromFlags(flags *pflag.FlagSet) (*dto.SnapshotInput, error) {
	input := &dto.SnapshotInput{}
	changed := false
	for _, f := range scoreFlags {
		if !flags.Changed(f.name) {
			continue
		}
		v, err := flags.GetFloat64(f.name)
		if err != nil {
			return nil, fmt.Errorf("invalid --%s: %w", f.name, err)
		}
		*f.field(input) = &v
		changed = true
	}
	if !changed {
		return nil, nil
	}
	return input, nil
}

func writeScore(out io.Writer, payload *dto.PipelineHealthDTO) {
	fmt.Fprintf(out, "Pipeline health: %s %s\n", service.FormatHealthScore(float64(payload.HealthScore)), payload.Label)
	if payload.Status == valueobject.StatusNoData.String() {
		return
	}

	m := payload.Metrics
	fmt.Fprintf(out, "  Candidate volume:  %s\n", service.FormatHealthScore(float64(m.CandidateVolumeHealth)))
	fmt.Fprintf(out, "  Application rate:  %s\n", service.FormatHealthScore(float64(m.ApplicationRateHealth)))
	fmt.Fprintf(out, "  Time to fill:      %s\n", service.FormatHealthScore(float64(m.TimeToFillHealth)))
	fmt.Fprintf(out, "  Diversity:         %s (ratio %s)\n", service.FormatHealthScore(float64(m.DiversityHealth)), service.FormatPercentage(m.DiversityRatio))

	for _, a := range payload.Alerts {
		fmt.Fprintf(out, "[%s] %s: %s\n", a.Severity, a.Title, a.Message)
	}
	for _, r := range payload.Recommendations {
		fmt.Fprintf(out, "  * %s\n", r)
	}
}
