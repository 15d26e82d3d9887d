package healthapi

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/hiresphere/pipeline-health/internal/application/dto"
)

// ErrInvalidPayload is returned when the server response does not match the pipeline health schema.
var ErrInvalidPayload = errors.New("invalid pipeline health payload")

//go:embed schema/pipeline_health.schema.json
var pipelineHealthSchema string

const maxResponseBytes = 1 << 20

// Client calls a remote pipeline health service (implements port.HealthAPI).
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	schema     *gojsonschema.Schema
}

func NewClient(baseURL, token string, timeout time.Duration) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(pipelineHealthSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile pipeline health schema: %w", err)
	}

	return &Client{
		baseURL:    baseURL,
		token:      strings.TrimSpace(token),
		httpClient: &http.Client{Timeout: timeout},
		schema:     schema,
	}, nil
}

func (c *Client) FetchHealth(ctx context.Context) (*dto.ReportedPipelineHealthDTO, error) {
	body, err := c.do(ctx, http.MethodGet, "/pipeline-health", http.StatusOK)
	if err != nil {
		return nil, err
	}

	if err := c.validate(body); err != nil {
		return nil, err
	}

	var health dto.ReportedPipelineHealthDTO
	if err := json.Unmarshal(body, &health); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	return &health, nil
}

func (c *Client) TriggerCalculation(ctx context.Context) (*dto.CalculationDTO, error) {
	body, err := c.do(ctx, http.MethodPost, "/calculate-health", http.StatusAccepted)
	if err != nil {
		return nil, err
	}

	var calc dto.CalculationDTO
	if err := json.Unmarshal(body, &calc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	return &calc, nil
}

func (c *Client) do(ctx context.Context, method, path string, expectedStatus int) ([]byte, error) {
	var reqBody io.Reader
	if method == http.MethodPost {
		reqBody = bytes.NewReader([]byte("{}"))
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != expectedStatus {
		return nil, fmt.Errorf("%s %s: unexpected status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return body, nil
}

func (c *Client) validate(body []byte) error {
	result, err := c.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, resultErr := range result.Errors() {
			problems = append(problems, resultErr.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidPayload, strings.Join(problems, "; "))
	}

	return nil
}
