package models

import (
	"encoding/json"
	"time"
)

// Real-time event names exchanged with dashboard clients.
const (
	EventNewTicket    = "nuevo_turno"
	EventAttendTicket = "atender_turno"
)

// RealtimeMessage is the websocket envelope. nuevo_turno carries no data;
// atender_turno carries the ticket id.
type RealtimeMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// TicketEvent is published to Kafka whenever a ticket changes.
type TicketEvent struct {
	Type         string       `json:"type"`
	TicketID     int64        `json:"ticket_id"`
	TicketNumber int          `json:"numero_orden,omitempty"`
	Date         string       `json:"fecha,omitempty"`
	Status       TicketStatus `json:"estado"`
	OccurredAt   time.Time    `json:"occurred_at"`
}

const (
	TicketEventIssued   = "turno.issued"
	TicketEventAttended = "turno.attended"
)

// StatusCount holds the dashboard counters for one day.
type StatusCount struct {
	Waiting  int `json:"en_espera"`
	Attended int `json:"atendidos"`
}

func (c StatusCount) Total() int {
	return c.Waiting + c.Attended
}
