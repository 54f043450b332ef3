package analytics

import (
	"context"
	"fmt"

	"ms-turnos/internal/clock"
	"ms-turnos/internal/models"
	"ms-turnos/internal/turnos/report"

	"github.com/uptrace/bun"
)

// Service aggregates ticket activity per day.
type Service struct {
	db    *bun.DB
	clock clock.Clock
}

func NewService(db *bun.DB, clk clock.Clock) *Service {
	if clk == nil {
		clk = clock.Real(nil)
	}
	return &Service{db: db, clock: clk}
}

// DailyTicketMetrics contains the counters of a single day
type DailyTicketMetrics struct {
	Date     string `json:"fecha"`
	Issued   int    `json:"emitidos"`
	Attended int    `json:"atendidos"`
	Waiting  int    `json:"en_espera"`
}

// PeriodAnalytics summarizes a report period
type PeriodAnalytics struct {
	Period        report.Period        `json:"periodo"`
	From          string               `json:"desde"`
	To            string               `json:"hasta"`
	TotalIssued   int                  `json:"total_emitidos"`
	TotalAttended int                  `json:"total_atendidos"`
	BusiestDate   string               `json:"dia_mayor_demanda,omitempty"`
	DailyTickets  []DailyTicketMetrics `json:"por_dia"`
}

// GetPeriodAnalytics returns per-day counters over the same date range the
// period's report covers. Days without tickets are omitted.
func (s *Service) GetPeriodAnalytics(ctx context.Context, period report.Period) (*PeriodAnalytics, error) {
	from, to := period.Range(s.clock.Now())

	type dailyTicketsRaw struct {
		Date     string `bun:"ticket_date"`
		Issued   int    `bun:"issued"`
		Attended int    `bun:"attended"`
	}

	var rows []dailyTicketsRaw
	err := s.db.NewSelect().
		Model((*models.Ticket)(nil)).
		ColumnExpr("fecha AS ticket_date").
		ColumnExpr("COUNT(*) AS issued").
		ColumnExpr("SUM(CASE WHEN estado = ? THEN 1 ELSE 0 END) AS attended", string(models.StatusAttended)).
		Where("fecha BETWEEN ? AND ?", from, to).
		Group("fecha").
		Order("fecha").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("daily ticket counts %s..%s: %w", from, to, err)
	}

	result := &PeriodAnalytics{
		Period:       period,
		From:         from,
		To:           to,
		DailyTickets: make([]DailyTicketMetrics, 0, len(rows)),
	}

	busiest := 0
	for _, row := range rows {
		result.DailyTickets = append(result.DailyTickets, DailyTicketMetrics{
			Date:     row.Date,
			Issued:   row.Issued,
			Attended: row.Attended,
			Waiting:  row.Issued - row.Attended,
		})
		result.TotalIssued += row.Issued
		result.TotalAttended += row.Attended
		if row.Issued > busiest {
			busiest = row.Issued
			result.BusiestDate = row.Date
		}
	}

	return result, nil
}
