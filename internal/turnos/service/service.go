package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ms-turnos/internal/clock"
	"ms-turnos/internal/logger"
	"ms-turnos/internal/models"
)

var ErrValidation = errors.New("nombre and dni are required")

type TicketDBLayer interface {
	InsertTicket(ctx context.Context, name, identifier string, number int, date, hour string) (int64, error)
	MaxTicketNumber(ctx context.Context, date string) (int, bool, error)
	SetStatus(ctx context.Context, id int64, status models.TicketStatus) error
	QueryTodayOrdered(ctx context.Context, today string) ([]models.Ticket, error)
	CountByStatus(ctx context.Context, date string) (models.StatusCount, error)
	GetTicketByID(ctx context.Context, id int64) (*models.Ticket, error)
}

// Notifier tells connected dashboards to reload.
type Notifier interface {
	BroadcastRefresh() int
}

// EventPublisher forwards ticket lifecycle events to external consumers.
type EventPublisher interface {
	PublishTicketEvent(ctx context.Context, event models.TicketEvent) error
}

type TicketService struct {
	DB        TicketDBLayer
	Notifier  Notifier
	Publisher EventPublisher
	Sequencer Sequencer
	Clock     clock.Clock
	Logger    *logger.Logger

	// RequireFields rejects empty nombre/dni. Off by default: the desk
	// historically accepted blank registrations.
	RequireFields bool
}

func NewTicketService(db TicketDBLayer, notifier Notifier, log *logger.Logger) *TicketService {
	if log == nil {
		log = logger.NewNop()
	}
	return &TicketService{
		DB:        db,
		Notifier:  notifier,
		Sequencer: NewLocalSequencer(),
		Clock:     clock.Real(nil),
		Logger:    log,
	}
}

// Issue assigns the next number of the current day and stores the ticket.
func (s *TicketService) Issue(ctx context.Context, name, identifier string) (*models.Ticket, error) {
	name = strings.TrimSpace(name)
	identifier = strings.TrimSpace(identifier)
	if s.RequireFields && (name == "" || identifier == "") {
		return nil, ErrValidation
	}

	now := s.Clock.Now()
	date := now.Format(clock.DateLayout)
	hour := now.Format(clock.TimeLayout)

	release, err := s.Sequencer.Acquire(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("acquire sequence for %s: %w", date, err)
	}
	ticket, err := s.issueLocked(ctx, name, identifier, date, hour)
	release()
	if err != nil {
		return nil, err
	}

	s.Logger.LogTicket("ISSUE", ticket.ID, fmt.Sprintf("turno %d for %s", ticket.TicketNumber, date))
	s.notify(ctx, models.TicketEvent{
		Type:         models.TicketEventIssued,
		TicketID:     ticket.ID,
		TicketNumber: ticket.TicketNumber,
		Date:         date,
		Status:       models.StatusWaiting,
		OccurredAt:   now,
	})
	return ticket, nil
}

func (s *TicketService) issueLocked(ctx context.Context, name, identifier, date, hour string) (*models.Ticket, error) {
	last, ok, err := s.DB.MaxTicketNumber(ctx, date)
	if err != nil {
		return nil, err
	}
	next := 1
	if ok {
		next = last + 1
	}

	id, err := s.DB.InsertTicket(ctx, name, identifier, next, date, hour)
	if err != nil {
		return nil, err
	}

	return &models.Ticket{
		ID:           id,
		Name:         name,
		Identifier:   identifier,
		TicketNumber: next,
		Date:         date,
		Time:         hour,
		Status:       models.StatusWaiting,
	}, nil
}

// Attend marks the ticket ATTENDED. It checks neither the current status nor
// that the id exists, and every call triggers a refresh.
func (s *TicketService) Attend(ctx context.Context, id int64) error {
	if err := s.DB.SetStatus(ctx, id, models.StatusAttended); err != nil {
		return err
	}

	s.Logger.LogTicket("ATTEND", id, "marked attended")
	s.notify(ctx, models.TicketEvent{
		Type:       models.TicketEventAttended,
		TicketID:   id,
		Status:     models.StatusAttended,
		OccurredAt: s.Clock.Now(),
	})
	return nil
}

// Today returns the current day's tickets ordered by number.
func (s *TicketService) Today(ctx context.Context) ([]models.Ticket, error) {
	return s.DB.QueryTodayOrdered(ctx, clock.Today(s.Clock))
}

func (s *TicketService) TodayCounts(ctx context.Context) (models.StatusCount, error) {
	return s.DB.CountByStatus(ctx, clock.Today(s.Clock))
}

func (s *TicketService) GetTicket(ctx context.Context, id int64) (*models.Ticket, error) {
	return s.DB.GetTicketByID(ctx, id)
}

func (s *TicketService) notify(ctx context.Context, event models.TicketEvent) {
	if s.Notifier != nil {
		delivered := s.Notifier.BroadcastRefresh()
		s.Logger.LogRealtime("BROADCAST", fmt.Sprintf("%s delivered to %d clients", models.EventNewTicket, delivered))
	}
	if s.Publisher != nil {
		if err := s.Publisher.PublishTicketEvent(ctx, event); err != nil {
			s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish %s for ticket %d: %v", event.Type, event.TicketID, err))
		}
	}
}
