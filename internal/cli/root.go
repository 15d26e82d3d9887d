package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/hiresphere/pipeline-health/internal/application/dto"
	"github.com/hiresphere/pipeline-health/internal/application/usecase"
	"github.com/hiresphere/pipeline-health/internal/domain/service"
	"github.com/hiresphere/pipeline-health/internal/domain/valueobject"
	"github.com/hiresphere/pipeline-health/internal/infrastructure/client/healthapi"
	"github.com/hiresphere/pipeline-health/pkg/logger"
)

// ErrDivergence возвращается check/recalculate, когда локальный расчет
// расходится с серверным (CI падает с ненулевым кодом)
var ErrDivergence = errors.New("pipeline health diverges from server")

// options - общие флаги всех команд
type options struct {
	url      string
	token    string
	timeout  time.Duration
	logLevel string
	output   string
}

// NewRootCommand собирает дерево команд pipeline-health
func NewRootCommand(out io.Writer) *cobra.Command {
	_ = godotenv.Load()

	opts := &options{}

	root := &cobra.Command{
		Use:           "pipeline-health",
		Short:         "Pipeline health checker",
		Long:          `pipeline-health computes the recruiting pipeline health score locally and verifies it against the HireSphere backend.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	root.PersistentFlags().StringVar(&opts.url, "url", envOr("PIPELINE_HEALTH_URL", "http://localhost:8080"), "pipeline health service base URL")
	root.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("AUTH_BEARER_TOKEN"), "bearer token for the service")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "HTTP timeout")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", envOr("LOG_LEVEL", "warn"), "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", "text", "output format (text or json)")

	root.AddCommand(newCheckCommand(opts))
	root.AddCommand(newRecalculateCommand(opts))
	root.AddCommand(newScoreCommand(opts))

	return root
}

// Execute запускает CLI и возвращает код выхода процесса
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := NewRootCommand(os.Stdout)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

func (o *options) logger() *logger.Logger {
	return logger.New(o.logLevel)
}

func (o *options) consistencyUseCase(log *logger.Logger) (*usecase.CheckConsistencyUseCase, error) {
	client, err := healthapi.NewClient(o.url, o.token, o.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to create health API client: %w", err)
	}

	calculator := service.NewMetricsCalculator(valueobject.DefaultScoringConfig())
	return usecase.NewCheckConsistencyUseCase(client, service.NewConsistencyValidator(calculator), nil, log), nil
}

func writeReport(out io.Writer, format string, report *dto.ConsistencyReportDTO) error {
	if format == "json" {
		if err := writeJSON(out, report); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(out, "Server health: %s (%s)\n", service.FormatHealthScore(report.HealthScore), report.Status)
		if report.Consistent {
			fmt.Fprintln(out, "Consistent: local calculation matches the server")
		} else {
			fmt.Fprintln(out, "Inconsistent:")
			for _, issue := range report.Issues {
				fmt.Fprintf(out, "  - %s\n", issue)
			}
		}
	}

	if !report.Consistent {
		return fmt.Errorf("%w: %s", ErrDivergence, strings.Join(report.Issues, "; "))
	}
	return nil
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}

func envOr(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
