package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/wardops-lab/lifeline/pkg/domain/model/alert"
	"github.com/wardops-lab/lifeline/pkg/domain/types"
	"github.com/wardops-lab/lifeline/pkg/utils/logging"
)

// Hub maintains the set of dashboard clients and broadcasts alert lifecycle
// updates to the clients of the affected hospital. Admin clients connect with
// an empty hospital scope and receive everything.
type Hub struct {
	// Registered clients grouped by hospital
	hospitals map[types.HospitalID]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *broadcastMessage

	mu sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
}

// Client is a middleman between one websocket connection and the hub.
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	hospitalID types.HospitalID
	userID     types.UserID
}

type broadcastMessage struct {
	hospitalID types.HospitalID
	payload    []byte
}

const (
	maxMessageSize       = 4 * 1024
	clientSendBufferSize = 64
	broadcastBufferSize  = 256
)

func NewHub(ctx context.Context) *Hub {
	ctx, cancel := context.WithCancel(ctx)
	return &Hub{
		hospitals:  make(map[types.HospitalID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *broadcastMessage, broadcastBufferSize),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Run starts the hub's main loop. It returns when the hub's context is
// cancelled.
func (h *Hub) Run() {
	logger := logging.From(h.ctx)
	logger.Info("alert stream hub started")

	defer func() {
		logger.Info("alert stream hub stopped")
		h.cancel()
	}()

	for {
		select {
		case <-h.ctx.Done():
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.broadcastToHospital(msg)
		}
	}
}

// Stop shuts the hub down and disconnects every client.
func (h *Hub) Stop() {
	h.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, clients := range h.hospitals {
		for client := range clients {
			close(client.send)
			delete(clients, client)
		}
	}
}

// Publish implements interfaces.AlertStream. It never blocks: if the hub is
// stopped or saturated the update is dropped, because the repository remains
// the source of truth for dashboards that reconnect.
func (h *Hub) Publish(ctx context.Context, a *alert.Alert) {
	payload, err := json.Marshal(a)
	if err != nil {
		logging.From(ctx).Error("failed to marshal alert update", "error", err, "alert_id", a.ID)
		return
	}

	msg := &broadcastMessage{hospitalID: a.HospitalID, payload: payload}
	select {
	case h.broadcast <- msg:
	case <-h.ctx.Done():
	default:
		logging.From(ctx).Warn("alert stream saturated, dropping update", "alert_id", a.ID)
	}
}

// ClientCount reports connected clients, for tests and health reporting.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var n int
	for _, clients := range h.hospitals {
		n += len(clients)
	}
	return n
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.hospitals[client.hospitalID]
	if !ok {
		clients = make(map[*Client]bool)
		h.hospitals[client.hospitalID] = clients
	}
	clients[client] = true

	logging.From(h.ctx).Info("dashboard client connected",
		"user_id", client.userID, "hospital_id", client.hospitalID)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.hospitals[client.hospitalID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.hospitals, client.hospitalID)
	}

	logging.From(h.ctx).Info("dashboard client disconnected",
		"user_id", client.userID, "hospital_id", client.hospitalID)
}

func (h *Hub) broadcastToHospital(msg *broadcastMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	deliver := func(clients map[*Client]bool) {
		for client := range clients {
			select {
			case client.send <- msg.payload:
			default:
				// slow client, drop the update rather than stall the hub
			}
		}
	}

	deliver(h.hospitals[msg.hospitalID])
	// admin scope sees all hospitals
	if msg.hospitalID != types.EmptyHospitalID {
		deliver(h.hospitals[types.EmptyHospitalID])
	}
}
