package service_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"ms-turnos/internal/clock"
	"ms-turnos/internal/logger"
	"ms-turnos/internal/models"
	"ms-turnos/internal/turnos/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockTicketDB is a mock implementation of the TicketDBLayer interface
type MockTicketDB struct {
	mock.Mock
}

func (m *MockTicketDB) InsertTicket(ctx context.Context, name, identifier string, number int, date, hour string) (int64, error) {
	args := m.Called(name, identifier, number, date, hour)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTicketDB) MaxTicketNumber(ctx context.Context, date string) (int, bool, error) {
	args := m.Called(date)
	return args.Int(0), args.Bool(1), args.Error(2)
}

func (m *MockTicketDB) SetStatus(ctx context.Context, id int64, status models.TicketStatus) error {
	args := m.Called(id, status)
	return args.Error(0)
}

func (m *MockTicketDB) QueryTodayOrdered(ctx context.Context, today string) ([]models.Ticket, error) {
	args := m.Called(today)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Ticket), args.Error(1)
}

func (m *MockTicketDB) CountByStatus(ctx context.Context, date string) (models.StatusCount, error) {
	args := m.Called(date)
	return args.Get(0).(models.StatusCount), args.Error(1)
}

func (m *MockTicketDB) GetTicketByID(ctx context.Context, id int64) (*models.Ticket, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}

type countingNotifier struct {
	calls atomic.Int32
}

func (n *countingNotifier) BroadcastRefresh() int {
	n.calls.Add(1)
	return 1
}

type recordingPublisher struct {
	events []models.TicketEvent
	err    error
}

func (p *recordingPublisher) PublishTicketEvent(ctx context.Context, event models.TicketEvent) error {
	p.events = append(p.events, event)
	return p.err
}

var jan1 = time.Date(2024, 1, 1, 9, 30, 15, 0, time.UTC)

func newService(db service.TicketDBLayer) (*service.TicketService, *countingNotifier) {
	notifier := &countingNotifier{}
	svc := service.NewTicketService(db, notifier, logger.NewNop())
	svc.Clock = clock.NewFixed(jan1)
	return svc, notifier
}

func TestIssueFirstTicketOfTheDay(t *testing.T) {
	mockDB := new(MockTicketDB)
	svc, notifier := newService(mockDB)

	mockDB.On("MaxTicketNumber", "2024-01-01").Return(0, false, nil)
	mockDB.On("InsertTicket", "Ana", "123", 1, "2024-01-01", "09:30:15").Return(int64(10), nil)

	ticket, err := svc.Issue(context.Background(), "  Ana ", "123")

	require.NoError(t, err)
	assert.Equal(t, int64(10), ticket.ID)
	assert.Equal(t, 1, ticket.TicketNumber)
	assert.Equal(t, models.StatusWaiting, ticket.Status)
	assert.Equal(t, int32(1), notifier.calls.Load())
	mockDB.AssertExpectations(t)
}

func TestIssueIncrementsMax(t *testing.T) {
	mockDB := new(MockTicketDB)
	svc, _ := newService(mockDB)

	mockDB.On("MaxTicketNumber", "2024-01-01").Return(4, true, nil)
	mockDB.On("InsertTicket", "Ana", "123", 5, "2024-01-01", "09:30:15").Return(int64(11), nil)

	ticket, err := svc.Issue(context.Background(), "Ana", "123")

	require.NoError(t, err)
	assert.Equal(t, 5, ticket.TicketNumber)
	mockDB.AssertExpectations(t)
}

func TestIssueAcceptsEmptyFieldsByDefault(t *testing.T) {
	mockDB := new(MockTicketDB)
	svc, _ := newService(mockDB)

	mockDB.On("MaxTicketNumber", "2024-01-01").Return(0, false, nil)
	mockDB.On("InsertTicket", "", "", 1, "2024-01-01", "09:30:15").Return(int64(1), nil)

	_, err := svc.Issue(context.Background(), "", "  ")
	assert.NoError(t, err)
}

func TestIssueRejectsEmptyFieldsWhenRequired(t *testing.T) {
	mockDB := new(MockTicketDB)
	svc, notifier := newService(mockDB)
	svc.RequireFields = true

	_, err := svc.Issue(context.Background(), "Ana", "")

	assert.ErrorIs(t, err, service.ErrValidation)
	assert.Equal(t, int32(0), notifier.calls.Load())
	mockDB.AssertNotCalled(t, "InsertTicket", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestIssueStoreFailureDoesNotBroadcast(t *testing.T) {
	mockDB := new(MockTicketDB)
	svc, notifier := newService(mockDB)

	mockDB.On("MaxTicketNumber", "2024-01-01").Return(0, false, nil)
	mockDB.On("InsertTicket", "Ana", "1", 1, "2024-01-01", "09:30:15").Return(int64(0), errors.New("disk full"))

	_, err := svc.Issue(context.Background(), "Ana", "1")

	assert.Error(t, err)
	assert.Equal(t, int32(0), notifier.calls.Load())
}

func TestIssuePublishesEvent(t *testing.T) {
	mockDB := new(MockTicketDB)
	svc, _ := newService(mockDB)
	publisher := &recordingPublisher{err: errors.New("broker down")}
	svc.Publisher = publisher

	mockDB.On("MaxTicketNumber", "2024-01-01").Return(2, true, nil)
	mockDB.On("InsertTicket", "Ana", "1", 3, "2024-01-01", "09:30:15").Return(int64(7), nil)

	_, err := svc.Issue(context.Background(), "Ana", "1")

	// Publisher errors are logged, not returned
	require.NoError(t, err)
	require.Len(t, publisher.events, 1)
	assert.Equal(t, models.TicketEventIssued, publisher.events[0].Type)
	assert.Equal(t, int64(7), publisher.events[0].TicketID)
	assert.Equal(t, 3, publisher.events[0].TicketNumber)
}

func TestAttendBroadcastsEveryCall(t *testing.T) {
	mockDB := new(MockTicketDB)
	svc, notifier := newService(mockDB)

	mockDB.On("SetStatus", int64(3), models.StatusAttended).Return(nil).Twice()

	require.NoError(t, svc.Attend(context.Background(), 3))
	require.NoError(t, svc.Attend(context.Background(), 3))

	assert.Equal(t, int32(2), notifier.calls.Load())
	mockDB.AssertExpectations(t)
}

func TestAttendPropagatesStoreError(t *testing.T) {
	mockDB := new(MockTicketDB)
	svc, notifier := newService(mockDB)

	mockDB.On("SetStatus", int64(3), models.StatusAttended).Return(errors.New("locked"))

	assert.Error(t, svc.Attend(context.Background(), 3))
	assert.Equal(t, int32(0), notifier.calls.Load())
}

func TestTodayUsesClockDate(t *testing.T) {
	mockDB := new(MockTicketDB)
	svc, _ := newService(mockDB)

	expected := []models.Ticket{{ID: 1, TicketNumber: 1, Date: "2024-01-01"}}
	mockDB.On("QueryTodayOrdered", "2024-01-01").Return(expected, nil)
	mockDB.On("CountByStatus", "2024-01-01").Return(models.StatusCount{Waiting: 1}, nil)

	tickets, err := svc.Today(context.Background())
	require.NoError(t, err)
	assert.Equal(t, expected, tickets)

	counts, err := svc.TodayCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Waiting)
}
