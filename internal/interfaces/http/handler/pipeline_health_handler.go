package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hiresphere/pipeline-health/internal/application/dto"
	"github.com/hiresphere/pipeline-health/internal/application/usecase"
	"github.com/hiresphere/pipeline-health/internal/interfaces/http/middleware"
	"github.com/hiresphere/pipeline-health/pkg/logger"
)

const maxPreviewBodyBytes = 64 << 10

// PipelineHealthHandler обрабатывает запросы оценки здоровья воронки
type PipelineHealthHandler struct {
	getHealthUC *usecase.GetPipelineHealthUseCase
	calculateUC *usecase.CalculateHealthUseCase
	historyUC   *usecase.GetHealthHistoryUseCase
	previewUC   *usecase.PreviewHealthUseCase
	maxDuration time.Duration
	logger      *logger.Logger
}

// NewPipelineHealthHandler создает новый handler
func NewPipelineHealthHandler(
	getHealthUC *usecase.GetPipelineHealthUseCase,
	calculateUC *usecase.CalculateHealthUseCase,
	historyUC *usecase.GetHealthHistoryUseCase,
	previewUC *usecase.PreviewHealthUseCase,
	maxDuration time.Duration,
	logger *logger.Logger,
) *PipelineHealthHandler {
	if maxDuration <= 0 {
		maxDuration = 30 * 24 * time.Hour
	}

	return &PipelineHealthHandler{
		getHealthUC: getHealthUC,
		calculateUC: calculateUC,
		historyUC:   historyUC,
		previewUC:   previewUC,
		maxDuration: maxDuration,
		logger:      logger,
	}
}

// GetPipelineHealth возвращает текущую оценку (GET /pipeline-health)
func (h *PipelineHealthHandler) GetPipelineHealth(w http.ResponseWriter, r *http.Request) {
	health, err := h.getHealthUC.Execute(r.Context())
	if err != nil {
		h.logger.Error("Failed to get pipeline health", err,
			"request_id", middleware.RequestIDFromContext(r.Context()))
		writeUseCaseError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, health)
}

// CalculateHealth запускает пересчет (POST /calculate-health)
func (h *PipelineHealthHandler) CalculateHealth(w http.ResponseWriter, r *http.Request) {
	result, err := h.calculateUC.Execute(r.Context())
	if err != nil {
		if !errors.Is(err, usecase.ErrNoData) {
			h.logger.Error("Failed to calculate pipeline health", err,
				"request_id", middleware.RequestIDFromContext(r.Context()))
		}
		writeUseCaseError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusAccepted, result)
}

// GetHistory возвращает историю оценок (GET /api/v1/pipeline-health/history?duration=24h)
func (h *PipelineHealthHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	durationStr := strings.TrimSpace(r.URL.Query().Get("duration"))
	if durationStr == "" {
		durationStr = "24h"
	}

	duration, err := time.ParseDuration(durationStr)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid duration format")
		return
	}
	if duration <= 0 || duration > h.maxDuration {
		middleware.WriteError(w, http.StatusBadRequest, "duration out of allowed range")
		return
	}

	history, err := h.historyUC.Execute(r.Context(), duration)
	if err != nil {
		h.logger.Error("Failed to get health history", err)
		writeUseCaseError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, history)
}

// Preview считает оценку для присланного снимка без сохранения
// (POST /api/v1/pipeline-health/preview). Тело "null" дает ответ no_data.
func (h *PipelineHealthHandler) Preview(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxPreviewBodyBytes+1))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if len(body) > maxPreviewBodyBytes {
		middleware.WriteError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	var input *dto.SnapshotInput
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, &input); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "invalid snapshot payload")
			return
		}
	}

	middleware.WriteJSON(w, http.StatusOK, h.previewUC.Execute(input))
}
