package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/hiresphere/pipeline-health/internal/application/usecase"
	"github.com/hiresphere/pipeline-health/internal/interfaces/http/middleware"
	"github.com/hiresphere/pipeline-health/pkg/logger"
)

// AlertsHandler обрабатывает жизненный цикл alert'ов
type AlertsHandler struct {
	alertsUC *usecase.ManageAlertsUseCase
	logger   *logger.Logger
}

func NewAlertsHandler(alertsUC *usecase.ManageAlertsUseCase, logger *logger.Logger) *AlertsHandler {
	return &AlertsHandler{
		alertsUC: alertsUC,
		logger:   logger,
	}
}

// List возвращает alert'ы (GET /api/v1/alerts?include_resolved=true)
func (h *AlertsHandler) List(w http.ResponseWriter, r *http.Request) {
	includeResolved := false
	if raw := strings.TrimSpace(r.URL.Query().Get("include_resolved")); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "include_resolved must be a boolean")
			return
		}
		includeResolved = parsed
	}

	list, err := h.alertsUC.List(r.Context(), includeResolved)
	if err != nil {
		h.logger.Error("Failed to list alerts", err)
		writeUseCaseError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, list)
}

// Acknowledge подтверждает alert (POST /api/v1/alerts/{id}/acknowledge)
func (h *AlertsHandler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		middleware.WriteError(w, http.StatusBadRequest, "alert id is required")
		return
	}

	alert, err := h.alertsUC.Acknowledge(r.Context(), id)
	if err != nil {
		h.logger.Warn("Failed to acknowledge alert", "id", id, "error", err.Error())
		writeUseCaseError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, alert)
}

// Resolve закрывает alert (POST /api/v1/alerts/{id}/resolve)
func (h *AlertsHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		middleware.WriteError(w, http.StatusBadRequest, "alert id is required")
		return
	}

	alert, err := h.alertsUC.Resolve(r.Context(), id)
	if err != nil {
		h.logger.Warn("Failed to resolve alert", "id", id, "error", err.Error())
		writeUseCaseError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, alert)
}
