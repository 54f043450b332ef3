package turno_api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ms-turnos/internal/auth"
	"ms-turnos/internal/models"
	"ms-turnos/internal/realtime"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// wsClient is a middleman between one dashboard connection and the emitter.
type wsClient struct {
	id       string
	conn     *websocket.Conn
	events   <-chan realtime.Event
	username string
	h        *Handler
}

// ServeWS upgrades the request and keeps the connection until either side
// goes away. Only connections opened with a staff session may attend tickets.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Logger.Warn("REALTIME", fmt.Sprintf("Websocket upgrade failed: %v", err))
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	id, events := h.Emitter.Subscribe(ctx)
	client := &wsClient{
		id:       id,
		conn:     conn,
		events:   events,
		username: auth.Username(r.Context()),
		h:        h,
	}
	h.Logger.LogRealtime("CONNECT", fmt.Sprintf("client %s connected (%d online)", id, h.Emitter.ClientCount()))

	go client.writePump()
	client.readPump(ctx)

	h.Emitter.Unsubscribe(id)
	h.Logger.LogRealtime("DISCONNECT", fmt.Sprintf("client %s left", id))
}

func (c *wsClient) readPump(ctx context.Context) {
	defer c.conn.Close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.h.Logger.Warn("REALTIME", fmt.Sprintf("client %s read error: %v", c.id, err))
			}
			return
		}

		var msg models.RealtimeMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.h.Logger.Warn("REALTIME", fmt.Sprintf("client %s sent undecodable message: %v", c.id, err))
			continue
		}
		c.handle(ctx, msg)
	}
}

func (c *wsClient) handle(ctx context.Context, msg models.RealtimeMessage) {
	switch msg.Event {
	case models.EventAttendTicket:
		if c.username == "" {
			c.h.Logger.LogSecurity("WS_ATTEND_REJECTED", fmt.Sprintf("client %s has no session", c.id))
			return
		}
		id, err := parseTicketID(msg.Data)
		if err != nil {
			c.h.Logger.Warn("REALTIME", fmt.Sprintf("client %s sent bad ticket id: %v", c.id, err))
			return
		}
		if err := c.h.TicketService.Attend(ctx, id); err != nil {
			c.h.Logger.Error("TURNO", fmt.Sprintf("Failed to attend ticket %d: %v", id, err))
		}
	default:
		c.h.Logger.LogRealtime("IGNORED", fmt.Sprintf("client %s sent unknown event %q", c.id, msg.Event))
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.events:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The emitter dropped this client.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(models.RealtimeMessage{Event: event.Name}); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// parseTicketID accepts the id as a JSON number or a numeric string.
func parseTicketID(raw json.RawMessage) (int64, error) {
	if len(raw) == 0 {
		return 0, errors.New("missing ticket id")
	}

	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("ticket id %s is neither number nor string", string(raw))
	}
	return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
}
