package realtime

import (
	"context"
	"sync"

	"ms-turnos/internal/models"

	"github.com/google/uuid"
)

const clientBuffer = 10

// Event is what subscribers receive. It never carries ticket data: clients
// re-read the store when they get one.
type Event struct {
	Name string
}

// Emitter keeps the set of connected dashboard clients and fans refresh
// signals out to them.
type Emitter struct {
	clients     map[string]chan Event
	clientMutex sync.RWMutex
}

func NewEmitter() *Emitter {
	return &Emitter{
		clients: make(map[string]chan Event),
	}
}

// Subscribe registers a client until ctx is done or Unsubscribe is called.
func (e *Emitter) Subscribe(ctx context.Context) (string, <-chan Event) {
	id := uuid.NewString()
	clientChan := make(chan Event, clientBuffer)

	e.clientMutex.Lock()
	e.clients[id] = clientChan
	e.clientMutex.Unlock()

	go func() {
		<-ctx.Done()
		e.Unsubscribe(id)
	}()

	return id, clientChan
}

// Unsubscribe removes the client and closes its channel. Safe to call twice.
func (e *Emitter) Unsubscribe(id string) {
	e.clientMutex.Lock()
	defer e.clientMutex.Unlock()

	if clientChan, ok := e.clients[id]; ok {
		delete(e.clients, id)
		close(clientChan)
	}
}

// BroadcastRefresh sends nuevo_turno to every client connected right now and
// returns how many accepted it. Clients with a full buffer already have a
// refresh pending and are skipped.
func (e *Emitter) BroadcastRefresh() int {
	e.clientMutex.RLock()
	defer e.clientMutex.RUnlock()

	delivered := 0
	for _, clientChan := range e.clients {
		select {
		case clientChan <- Event{Name: models.EventNewTicket}:
			delivered++
		default:
		}
	}
	return delivered
}

// ClientCount returns the number of clients currently subscribed.
func (e *Emitter) ClientCount() int {
	e.clientMutex.RLock()
	defer e.clientMutex.RUnlock()
	return len(e.clients)
}
