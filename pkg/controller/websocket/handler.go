package websocket

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/wardops-lab/lifeline/pkg/domain/model/auth"
	"github.com/wardops-lab/lifeline/pkg/domain/types"
	"github.com/wardops-lab/lifeline/pkg/utils/logging"
)

// Handler upgrades dashboard connections and attaches them to the hub. The
// stream is read-mostly: clients only ever send pings, all state changes go
// through the HTTP API.
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

func NewHandler(hub *Hub) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// dashboards are served from the same origin in production;
				// cross-origin connections are for development convenience
				return true
			},
		},
	}
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// HandleAlerts serves the live alert stream. The subscription scope comes
// from the authenticated principal: admins see all hospitals, everyone else
// sees their own.
func (h *Handler) HandleAlerts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.From(ctx)

	p := auth.From(ctx)
	if p == nil {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	scope := p.HospitalID
	if p.Role == types.RoleAdmin {
		scope = types.EmptyHospitalID
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("failed to upgrade connection", "error", err, "user_id", p.ID)
		// the upgrader already wrote an error response
		return
	}

	client := &Client{
		hub:        h.hub,
		conn:       conn,
		send:       make(chan []byte, clientSendBufferSize),
		hospitalID: scope,
		userID:     p.ID,
	}
	select {
	case h.hub.register <- client:
	case <-h.hub.ctx.Done():
		_ = conn.Close()
		return
	}

	go h.writePump(client)
	go h.readPump(client)
}

// readPump discards client messages and watches for disconnect.
func (h *Handler) readPump(client *Client) {
	defer func() {
		select {
		case h.hub.unregister <- client:
		case <-h.hub.ctx.Done():
		}
		_ = client.conn.Close()
	}()

	client.conn.SetReadLimit(maxMessageSize)
	_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump forwards hub broadcasts to the connection and keeps it alive
// with pings.
func (h *Handler) writePump(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = client.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-client.send:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
