package turno_api

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"ms-turnos/internal/auth"
	"ms-turnos/internal/logger"
	"ms-turnos/internal/models"
	"ms-turnos/internal/realtime"
	qr "ms-turnos/internal/turnos/qr_generator"
	"ms-turnos/internal/turnos/report"
	turnos "ms-turnos/internal/turnos/service"
	pdftemplate "ms-turnos/internal/turnos/template"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

//go:embed templates/*.html
var templateFS embed.FS

type UserDBLayer interface {
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
}

type Handler struct {
	TicketService *turnos.TicketService
	Reports       *report.Service
	PDFGenerator  *pdftemplate.ReportPDFGenerator
	QRGenerator   *qr.QRGenerator
	Emitter       *realtime.Emitter
	UserDB        UserDBLayer
	Sessions      *auth.Sessions
	Logger        *logger.Logger

	// HealthCheck reports whether the backing stores are reachable.
	HealthCheck func(ctx context.Context) error

	views map[string]*template.Template
}

// NewHandler parses the embedded views. It panics on a malformed template
// since that can only be a build defect.
func NewHandler(
	ticketService *turnos.TicketService,
	reports *report.Service,
	userDB UserDBLayer,
	sessions *auth.Sessions,
	emitter *realtime.Emitter,
	qrGenerator *qr.QRGenerator,
	log *logger.Logger,
) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{
		TicketService: ticketService,
		Reports:       reports,
		PDFGenerator:  pdftemplate.NewReportPDFGenerator(),
		QRGenerator:   qrGenerator,
		Emitter:       emitter,
		UserDB:        userDB,
		Sessions:      sessions,
		Logger:        log,
		views:         parseViews(),
	}
}

var viewFuncs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}

func parseViews() map[string]*template.Template {
	views := make(map[string]*template.Template)
	for _, name := range []string{"login", "secretaria", "registrar", "historial"} {
		views[name] = template.Must(template.New(name).Funcs(viewFuncs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html"))
	}
	return views
}

// RegisterRoutes mounts every page, the realtime endpoints and the JSON API.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Recoverer)
	r.Use(h.requestLogger)
	r.Use(h.Sessions.Middleware())

	// Public routes
	r.Get("/", h.LoginPage)
	r.Post("/", h.Login)
	r.Get("/logout", h.Logout)
	r.Get("/registrar", h.RegisterPage)
	r.Post("/registrar", h.Register)
	r.Get("/reporte_pdf/{tipo}", h.ReportPDF)
	r.Get("/ws", h.ServeWS)
	r.Get("/events", h.StreamEvents)
	r.Get("/healthz", h.Health)

	// Staff routes
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSession("/"))
		r.Get("/secretaria", h.Dashboard)
		r.Get("/historial", h.History)
	})

	r.Route("/api/turnos", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
		r.Use(auth.RequireAPISession)
		r.Get("/hoy", h.ListToday)
		r.Get("/{id}", h.GetTicket)
	})
}

// render executes a view into a buffer first so template failures become a
// clean 500 instead of a half-written page.
func (h *Handler) render(w http.ResponseWriter, status int, name string, data interface{}) {
	view, ok := h.views[name]
	if !ok {
		h.Logger.Error("HTTP", fmt.Sprintf("Unknown view %q", name))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := view.ExecuteTemplate(&buf, "layout", data); err != nil {
		h.Logger.Error("HTTP", fmt.Sprintf("Failed to render %s: %v", name, err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (h *Handler) serverError(w http.ResponseWriter, category string, err error) {
	h.Logger.Error(category, err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}
