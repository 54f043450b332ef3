package turno_api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"ms-turnos/internal/models"
	"ms-turnos/internal/turnos/db"
	"ms-turnos/internal/utils"

	"github.com/go-chi/chi/v5"
)

type todayPayload struct {
	Tickets []models.Ticket    `json:"turnos"`
	Counts  models.StatusCount `json:"conteo"`
}

func (h *Handler) ListToday(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.TicketService.Today(r.Context())
	if err != nil {
		h.Logger.Error("DATABASE", fmt.Sprintf("Failed to load today's tickets: %v", err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("failed to load tickets", err.Error()))
		return
	}
	counts, err := h.TicketService.TodayCounts(r.Context())
	if err != nil {
		h.Logger.Error("DATABASE", fmt.Sprintf("Failed to count today's tickets: %v", err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("failed to count tickets", err.Error()))
		return
	}
	if tickets == nil {
		tickets = []models.Ticket{}
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("today's tickets", todayPayload{Tickets: tickets, Counts: counts}))
}

func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid ticket id", err.Error()))
		return
	}

	ticket, err := h.TicketService.GetTicket(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrTicketNotFound) {
			utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("ticket not found", err.Error()))
			return
		}
		h.Logger.Error("DATABASE", fmt.Sprintf("Failed to load ticket %d: %v", id, err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("failed to load ticket", err.Error()))
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("ticket", ticket))
}

type healthPayload struct {
	Status  string `json:"status"`
	Clients int    `json:"clients"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.HealthCheck != nil {
		if err := h.HealthCheck(r.Context()); err != nil {
			h.Logger.Error("HEALTH", fmt.Sprintf("Health check failed: %v", err))
			utils.WriteJSON(w, http.StatusServiceUnavailable, utils.ErrorResponse("unhealthy", err.Error()))
			return
		}
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("healthy", healthPayload{Status: "ok", Clients: h.Emitter.ClientCount()}))
}
