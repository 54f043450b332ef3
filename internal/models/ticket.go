package models

import (
	"github.com/uptrace/bun"
)

// TicketStatus values are stored verbatim in orden_llegada.estado.
type TicketStatus string

const (
	StatusWaiting  TicketStatus = "EN ESPERA"
	StatusAttended TicketStatus = "ATENDIDO"
)

// Ticket is one visitor's queue entry for a given day.
type Ticket struct {
	bun.BaseModel `bun:"table:orden_llegada"`

	ID           int64        `bun:"id,pk,autoincrement" json:"id"`
	Name         string       `bun:"nombre" json:"nombre"`
	Identifier   string       `bun:"dni" json:"dni"`
	TicketNumber int          `bun:"numero_orden" json:"numero_orden"`
	Date         string       `bun:"fecha" json:"fecha"`
	Time         string       `bun:"hora" json:"hora"`
	Status       TicketStatus `bun:"estado,notnull,default:'EN ESPERA'" json:"estado"`
}

func (t Ticket) Attended() bool {
	return t.Status == StatusAttended
}
