package kafka_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	turnoskafka "ms-turnos/internal/kafka"
	"ms-turnos/internal/logger"
	"ms-turnos/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestPublishTicketEvent(t *testing.T) {
	w := &fakeWriter{}
	p := &turnoskafka.Producer{Writer: w, Logger: logger.NewNop()}

	event := models.TicketEvent{
		Type:         models.TicketEventIssued,
		TicketID:     42,
		TicketNumber: 3,
		Date:         "2024-01-01",
		Status:       models.StatusWaiting,
		OccurredAt:   time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, p.PublishTicketEvent(context.Background(), event))

	require.Len(t, w.messages, 1)
	msg := w.messages[0]
	assert.Equal(t, "2024-01-01", string(msg.Key))
	assert.Equal(t, "type", msg.Headers[0].Key)
	assert.Equal(t, models.TicketEventIssued, string(msg.Headers[0].Value))
	assert.Equal(t, "42", string(msg.Headers[1].Value))

	var decoded models.TicketEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, 3, decoded.TicketNumber)
	assert.Equal(t, models.StatusWaiting, decoded.Status)
}

func TestPublishTicketEventPropagatesWriterError(t *testing.T) {
	p := &turnoskafka.Producer{Writer: &fakeWriter{err: errors.New("broker down")}}

	err := p.PublishTicketEvent(context.Background(), models.TicketEvent{Type: models.TicketEventAttended})
	assert.EqualError(t, err, "broker down")
}

func TestEnsureTopicsExistRequiresBroker(t *testing.T) {
	assert.Error(t, turnoskafka.EnsureTopicsExist(nil, []string{"turnos.events"}))
}
