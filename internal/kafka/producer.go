package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"ms-turnos/internal/logger"
	"ms-turnos/internal/models"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the subset of *kafka.Writer the producer needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	Writer MessageWriter
	Logger *logger.Logger
}

func NewProducer(brokers []string, topic string, log *logger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return &Producer{Writer: writer, Logger: log}
}

// PublishTicketEvent streams a ticket lifecycle event keyed by ticket date,
// so all events of one day land on the same partition in order.
func (p *Producer) PublishTicketEvent(ctx context.Context, event models.TicketEvent) error {
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal ticket event: %w", err)
	}

	if p.Logger != nil {
		p.Logger.Debug("KAFKA", fmt.Sprintf("Publishing [%s]: %s", event.Type, string(msgBytes)))
	}

	return p.Writer.WriteMessages(ctx,
		kafka.Message{
			Key:   []byte(event.Date),
			Value: msgBytes,
			Headers: []kafka.Header{
				{Key: "type", Value: []byte(event.Type)},
				{Key: "ticket_id", Value: []byte(strconv.FormatInt(event.TicketID, 10))},
			},
		},
	)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
