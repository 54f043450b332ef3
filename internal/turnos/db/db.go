package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ms-turnos/internal/models"

	"github.com/uptrace/bun"
)

var ErrTicketNotFound = errors.New("ticket not found")

type DB struct {
	Bun *bun.DB
}

// InsertTicket appends a WAITING ticket and returns its id.
func (d *DB) InsertTicket(ctx context.Context, name, identifier string, number int, date, hour string) (int64, error) {
	ticket := models.Ticket{
		Name:         name,
		Identifier:   identifier,
		TicketNumber: number,
		Date:         date,
		Time:         hour,
		Status:       models.StatusWaiting,
	}
	_, err := d.Bun.NewInsert().
		Model(&ticket).
		Returning("id").
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("insert ticket: %w", err)
	}
	return ticket.ID, nil
}

// MaxTicketNumber returns the highest number issued on date. ok is false when
// no ticket exists for that date.
func (d *DB) MaxTicketNumber(ctx context.Context, date string) (max int, ok bool, err error) {
	var value sql.NullInt64
	err = d.Bun.NewSelect().
		Model((*models.Ticket)(nil)).
		ColumnExpr("MAX(numero_orden)").
		Where("fecha = ?", date).
		Scan(ctx, &value)
	if err != nil {
		return 0, false, fmt.Errorf("max ticket number: %w", err)
	}
	if !value.Valid {
		return 0, false, nil
	}
	return int(value.Int64), true, nil
}

// SetStatus updates one ticket. Unknown ids are a silent no-op.
func (d *DB) SetStatus(ctx context.Context, id int64, status models.TicketStatus) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Ticket)(nil)).
		Set("estado = ?", status).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	return nil
}

// QueryByDateRange returns tickets dated within [start, end] in insertion order.
func (d *DB) QueryByDateRange(ctx context.Context, start, end string) ([]models.Ticket, error) {
	tickets := []models.Ticket{}
	err := d.Bun.NewSelect().
		Model(&tickets).
		Where("fecha BETWEEN ? AND ?", start, end).
		Order("id").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("query by date range: %w", err)
	}
	return tickets, nil
}

// QueryTodayOrdered returns the tickets of one day ordered by ticket number.
func (d *DB) QueryTodayOrdered(ctx context.Context, today string) ([]models.Ticket, error) {
	tickets := []models.Ticket{}
	err := d.Bun.NewSelect().
		Model(&tickets).
		Where("fecha = ?", today).
		Order("numero_orden").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("query today: %w", err)
	}
	return tickets, nil
}

func (d *DB) GetTicketByID(ctx context.Context, id int64) (*models.Ticket, error) {
	var ticket models.Ticket
	err := d.Bun.NewSelect().
		Model(&ticket).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTicketNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get ticket %d: %w", id, err)
	}
	return &ticket, nil
}

// CountByStatus returns waiting/attended counters for one date.
func (d *DB) CountByStatus(ctx context.Context, date string) (models.StatusCount, error) {
	var rows []struct {
		Status models.TicketStatus `bun:"estado"`
		Count  int                 `bun:"total"`
	}
	err := d.Bun.NewSelect().
		Model((*models.Ticket)(nil)).
		Column("estado").
		ColumnExpr("COUNT(*) AS total").
		Where("fecha = ?", date).
		Group("estado").
		Scan(ctx, &rows)
	if err != nil {
		return models.StatusCount{}, fmt.Errorf("count by status: %w", err)
	}

	var counts models.StatusCount
	for _, row := range rows {
		switch row.Status {
		case models.StatusAttended:
			counts.Attended += row.Count
		default:
			counts.Waiting += row.Count
		}
	}
	return counts, nil
}
