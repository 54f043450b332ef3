package turno_api

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"ms-turnos/internal/auth"
	"ms-turnos/internal/models"
	"ms-turnos/internal/turnos/db"
	"ms-turnos/internal/turnos/report"
	turnos "ms-turnos/internal/turnos/service"

	"github.com/go-chi/chi/v5"
)

const reportFileName = "reporte_turnos.pdf"

type dashboardView struct {
	Username        string
	Tickets         []models.Ticket
	Counts          models.StatusCount
	QR              template.URL
	RegistrationURL string
}

type registerView struct {
	Ticket *models.Ticket
	Error  string
}

type historyView struct {
	Username string
	Filter   report.Period
	Periods  []report.Period
	Title    string
	Tickets  []models.Ticket
}

func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "login", nil)
}

// Login re-renders the bare form on any credential mismatch.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	username := r.PostFormValue("usuario")
	password := r.PostFormValue("password")

	user, err := h.UserDB.Authenticate(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, db.ErrInvalidCredentials) {
			h.Logger.LogSecurity("LOGIN_FAILED", fmt.Sprintf("rejected credentials for %q", username))
			h.render(w, http.StatusOK, "login", nil)
			return
		}
		h.serverError(w, "AUTH", fmt.Errorf("authenticate %q: %w", username, err))
		return
	}

	if err := h.Sessions.Start(w, user.Username); err != nil {
		h.serverError(w, "AUTH", err)
		return
	}
	h.Logger.Info("AUTH", fmt.Sprintf("User %s logged in", user.Username))
	http.Redirect(w, r, "/secretaria", http.StatusFound)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.Sessions.Clear(w)
	if username := auth.Username(r.Context()); username != "" {
		h.Logger.Info("AUTH", fmt.Sprintf("User %s logged out", username))
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// Dashboard shows today's tickets by number and the registration QR.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tickets, err := h.TicketService.Today(ctx)
	if err != nil {
		h.serverError(w, "DATABASE", fmt.Errorf("load today's tickets: %w", err))
		return
	}
	counts, err := h.TicketService.TodayCounts(ctx)
	if err != nil {
		h.serverError(w, "DATABASE", fmt.Errorf("count today's tickets: %w", err))
		return
	}
	png, err := h.QRGenerator.Base64PNG()
	if err != nil {
		h.serverError(w, "QR", fmt.Errorf("render registration QR: %w", err))
		return
	}

	h.render(w, http.StatusOK, "secretaria", dashboardView{
		Username:        auth.Username(ctx),
		Tickets:         tickets,
		Counts:          counts,
		QR:              template.URL("data:image/png;base64," + png),
		RegistrationURL: h.QRGenerator.URL(),
	})
}

func (h *Handler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "registrar", registerView{})
}

// Register issues the next ticket of the day and shows its number.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	ticket, err := h.TicketService.Issue(r.Context(), r.PostFormValue("nombre"), r.PostFormValue("dni"))
	if err != nil {
		if errors.Is(err, turnos.ErrValidation) {
			h.render(w, http.StatusUnprocessableEntity, "registrar", registerView{Error: "Ingrese nombre y DNI"})
			return
		}
		h.serverError(w, "TURNO", fmt.Errorf("issue ticket: %w", err))
		return
	}

	h.render(w, http.StatusOK, "registrar", registerView{Ticket: ticket})
}

// History lists the tickets of the selected period in insertion order.
// A missing filter means daily; an unknown one means monthly.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	period := report.Daily
	if filtro := r.URL.Query().Get("filtro"); filtro != "" {
		period = report.ParsePeriod(filtro)
	}

	tickets, err := h.Reports.Query(r.Context(), period)
	if err != nil {
		h.serverError(w, "DATABASE", fmt.Errorf("query %s history: %w", period, err))
		return
	}

	h.render(w, http.StatusOK, "historial", historyView{
		Username: auth.Username(r.Context()),
		Filter:   period,
		Periods:  report.Periods(),
		Title:    period.Title(),
		Tickets:  tickets,
	})
}

// ReportPDF streams the period's report as an attachment.
func (h *Handler) ReportPDF(w http.ResponseWriter, r *http.Request) {
	period := report.ParsePeriod(chi.URLParam(r, "tipo"))

	tickets, err := h.Reports.Query(r.Context(), period)
	if err != nil {
		h.serverError(w, "DATABASE", fmt.Errorf("query %s report: %w", period, err))
		return
	}

	data, err := h.PDFGenerator.Generate(period.Title(), tickets)
	if err != nil {
		h.serverError(w, "REPORT", fmt.Errorf("render %s report: %w", period, err))
		return
	}

	h.Logger.Info("REPORT", fmt.Sprintf("Generated %s report with %d tickets", period, len(tickets)))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", reportFileName))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
