package handler

import (
	"errors"
	"net/http"

	"github.com/hiresphere/pipeline-health/internal/application/port"
	"github.com/hiresphere/pipeline-health/internal/application/usecase"
	"github.com/hiresphere/pipeline-health/internal/domain/entity"
	"github.com/hiresphere/pipeline-health/internal/interfaces/http/middleware"
)

// statusFor сопоставляет ошибку use case с HTTP статусом и текстом для клиента
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, usecase.ErrNoData):
		return http.StatusUnprocessableEntity, "no pipeline metrics available"
	case errors.Is(err, port.ErrAlertNotFound):
		return http.StatusNotFound, "alert not found"
	case errors.Is(err, entity.ErrAlertResolved):
		return http.StatusConflict, "alert already resolved"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func writeUseCaseError(w http.ResponseWriter, err error) {
	status, message := statusFor(err)
	middleware.WriteError(w, status, message)
}
