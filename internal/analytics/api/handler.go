package analytics_api

import (
	"fmt"
	"net/http"

	"ms-turnos/internal/analytics"
	"ms-turnos/internal/auth"
	"ms-turnos/internal/logger"
	"ms-turnos/internal/turnos/report"
	"ms-turnos/internal/utils"

	"github.com/go-chi/chi/v5"
)

// Handler handles analytics HTTP endpoints
type Handler struct {
	Service *analytics.Service
	Logger  *logger.Logger
}

func NewHandler(service *analytics.Service, logger *logger.Logger) *Handler {
	return &Handler{
		Service: service,
		Logger:  logger,
	}
}

// RegisterRoutes registers the analytics routes on a chi router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(auth.RequireAPISession).Get("/api/estadisticas", h.GetPeriodAnalytics)
}

// GetPeriodAnalytics answers /api/estadisticas?filtro=daily|weekly|monthly.
// Without a filter it reports the current day.
func (h *Handler) GetPeriodAnalytics(w http.ResponseWriter, r *http.Request) {
	period := report.Daily
	if filtro := r.URL.Query().Get("filtro"); filtro != "" {
		period = report.ParsePeriod(filtro)
	}

	result, err := h.Service.GetPeriodAnalytics(r.Context(), period)
	if err != nil {
		h.Logger.Error("ANALYTICS", fmt.Sprintf("Failed to get %s analytics: %v", period, err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("failed to get analytics", err.Error()))
		return
	}

	h.Logger.Debug("ANALYTICS", fmt.Sprintf("%s analytics: %d tickets over %d days", period, result.TotalIssued, len(result.DailyTickets)))
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse(period.Title(), result))
}
