package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiresphere/pipeline-health/internal/application/dto"
	"github.com/hiresphere/pipeline-health/internal/domain/service"
	"github.com/hiresphere/pipeline-health/internal/domain/valueobject"
)

func workedExamplePayload() *dto.PipelineHealthDTO {
	cfg := valueobject.DefaultScoringConfig()
	result := service.NewMetricsCalculator(cfg).Calculate(&valueobject.MetricsSnapshot{
		ActiveCandidates:   50,
		OpenPositions:      5,
		WeeklyApplications: 15,
		AvgDaysToFill:      25,
		DiverseCandidates:  10,
		TotalCandidates:    50,
	})
	generator := service.NewAlertGenerator(cfg)
	conditions := generator.ForResult(result)
	return dto.NewPipelineHealthDTO(result, dto.FromConditions(conditions), generator.Recommendations(conditions))
}

func healthServer(t *testing.T, payload *dto.PipelineHealthDTO) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/pipeline-health":
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(payload)
		case "/calculate-health":
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusAccepted)
			_ = json.NewEncoder(w).Encode(dto.CalculationDTO{RecordID: "rec-1", HealthScore: payload.HealthScore, Status: payload.Status})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand(&out)
	cmd.SetArgs(append(args, "--log-level", "error"))
	err := cmd.Execute()
	return out.String(), err
}

func TestCheck_Consistent(t *testing.T) {
	server := healthServer(t, workedExamplePayload())

	out, err := run(t, "check", "--url", server.URL, "--token", "secret")
	require.NoError(t, err)
	assert.Contains(t, out, "Server health: 76% (warning)")
	assert.Contains(t, out, "Consistent")
}

func TestCheck_DivergenceFails(t *testing.T) {
	payload := workedExamplePayload()
	payload.HealthScore = 73

	server := healthServer(t, payload)

	out, err := run(t, "check", "--url", server.URL, "--token", "secret")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDivergence)
	assert.Contains(t, out, "Health Score: Frontend 76 vs Backend 73")
}

func TestCheck_JSONOutput(t *testing.T) {
	server := healthServer(t, workedExamplePayload())

	out, err := run(t, "check", "--url", server.URL, "--token", "secret", "-o", "json")
	require.NoError(t, err)

	var report dto.ConsistencyReportDTO
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.True(t, report.Consistent)
	assert.Equal(t, 76.0, report.HealthScore)
}

func TestCheck_Unauthorized(t *testing.T) {
	server := healthServer(t, workedExamplePayload())

	_, err := run(t, "check", "--url", server.URL, "--token", "wrong")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDivergence)
}

func TestRecalculate(t *testing.T) {
	server := healthServer(t, workedExamplePayload())

	out, err := run(t, "recalculate", "--url", server.URL, "--token", "secret")
	require.NoError(t, err)
	assert.Contains(t, out, "Consistent")
}

func TestScore(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		contains []string
	}{
		{
			name: "worked example",
			args: []string{
				"--active-candidates", "50", "--open-positions", "5",
				"--weekly-applications", "15", "--avg-days-to-fill", "25",
				"--diverse-candidates", "10", "--total-candidates", "50",
			},
			contains: []string{"Pipeline health: 76%", "Application rate:  75%", "Time to fill:      17%", "ratio 20%", "[warning] Low application rate"},
		},
		{
			name:     "no flags means no data",
			args:     nil,
			contains: []string{"Pipeline health: 0% No Data"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, append([]string{"score"}, tt.args...)...)
			require.NoError(t, err)
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
		})
	}
}

func TestScore_JSON(t *testing.T) {
	out, err := run(t, "score", "-o", "json", "--active-candidates", "0", "--open-positions", "3")
	require.NoError(t, err)

	var payload dto.PipelineHealthDTO
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.Equal(t, "critical", payload.Status)
	assert.Equal(t, 0, payload.Metrics.CandidateVolumeHealth)
}
