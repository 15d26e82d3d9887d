package handler

import (
	"net/http"

	"github.com/hiresphere/pipeline-health/internal/interfaces/http/middleware"
	"github.com/hiresphere/pipeline-health/internal/scheduler"
)

// SchedulerStatusProvider отдает состояние планировщика пересчета
type SchedulerStatusProvider interface {
	Snapshot() scheduler.Status
}

type SchedulerHandler struct {
	runner SchedulerStatusProvider
}

func NewSchedulerHandler(runner SchedulerStatusProvider) *SchedulerHandler {
	return &SchedulerHandler{runner: runner}
}

// Status возвращает состояние последнего пересчета (GET /api/v1/scheduler/status)
func (h *SchedulerHandler) Status(w http.ResponseWriter, _ *http.Request) {
	if h.runner == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "scheduler is disabled")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, h.runner.Snapshot())
}
