package report

import (
	"context"
	"strings"
	"time"

	"ms-turnos/internal/clock"
	"ms-turnos/internal/models"
)

type Period string

const (
	Daily   Period = "daily"
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
)

// ParsePeriod accepts the English names and the Spanish ones used by the
// staff links (diario, semanal, mensual). Anything else is Monthly.
func ParsePeriod(value string) Period {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "daily", "diario":
		return Daily
	case "weekly", "semanal":
		return Weekly
	default:
		return Monthly
	}
}

// Range returns the inclusive YYYY-MM-DD bounds of the period around today.
func (p Period) Range(today time.Time) (start, end string) {
	end = today.Format(clock.DateLayout)
	switch p {
	case Daily:
		return end, end
	case Weekly:
		return today.AddDate(0, 0, -7).Format(clock.DateLayout), end
	default:
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		last := first.AddDate(0, 1, -1)
		return first.Format(clock.DateLayout), last.Format(clock.DateLayout)
	}
}

func (p Period) Title() string {
	switch p {
	case Daily:
		return "REPORTE DIARIO DE TURNOS"
	case Weekly:
		return "REPORTE SEMANAL DE TURNOS"
	default:
		return "REPORTE MENSUAL DE TURNOS"
	}
}

func (p Period) Label() string {
	switch p {
	case Daily:
		return "Diario"
	case Weekly:
		return "Semanal"
	default:
		return "Mensual"
	}
}

// Periods lists the filters offered in the history view.
func Periods() []Period {
	return []Period{Daily, Weekly, Monthly}
}

type ReportDBLayer interface {
	QueryByDateRange(ctx context.Context, start, end string) ([]models.Ticket, error)
}

type Service struct {
	DB    ReportDBLayer
	Clock clock.Clock
}

func NewService(db ReportDBLayer, clk clock.Clock) *Service {
	if clk == nil {
		clk = clock.Real(nil)
	}
	return &Service{DB: db, Clock: clk}
}

// Query returns the tickets of the period in insertion order.
func (s *Service) Query(ctx context.Context, period Period) ([]models.Ticket, error) {
	start, end := period.Range(s.Clock.Now())
	return s.DB.QueryByDateRange(ctx, start, end)
}
