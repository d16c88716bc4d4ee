package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/gridiron/internal/engine"
)

type broadcast struct {
	teams   []string
	message ServerMessage
}

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	clients   map[*Client]bool
	clientsMu sync.RWMutex

	broadcast  chan broadcast
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	log *logrus.Entry
}

// NewHub creates a new Hub instance
func NewHub(log *logrus.Entry) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan broadcast, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log.WithField("component", "ws_hub"),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case c := <-h.register:
			h.clientsMu.Lock()
			h.clients[c] = true
			n := len(h.clients)
			h.clientsMu.Unlock()
			h.log.WithFields(logrus.Fields{"client_id": c.ID, "clients": n}).Info("client connected")
		case c := <-h.unregister:
			h.remove(c)
		case b := <-h.broadcast:
			h.deliver(b)
		}
	}
}

// Register adds a client to the hub. It reports false once the hub has
// stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// BroadcastGame announces a processed game to clients following either team.
func (h *Hub) BroadcastGame(summary *engine.Summary) {
	h.Broadcast([]string{summary.HomeTeam, summary.AwayTeam}, ServerMessage{
		Type:      MessageTypeGameProcessed,
		Payload:   summary,
		Timestamp: time.Now().UTC(),
	})
}

// Broadcast queues a message for clients whose filter matches teams. The
// message is dropped when the queue is full.
func (h *Hub) Broadcast(teams []string, msg ServerMessage) {
	select {
	case h.broadcast <- broadcast{teams: teams, message: msg}:
	default:
		h.log.WithField("type", msg.Type).Warn("broadcast buffer full, dropping message")
	}
}

// ClientCount returns the number of active clients
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

func (h *Hub) remove(c *Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.closeSend()
		h.log.WithFields(logrus.Fields{"client_id": c.ID, "clients": len(h.clients)}).Info("client disconnected")
	}
}

func (h *Hub) deliver(b broadcast) {
	h.clientsMu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clientsMu.RUnlock()

	for _, c := range clients {
		if !c.Filter().matches(b.teams) {
			continue
		}
		if !c.TrySend(b.message) {
			h.log.WithField("client_id", c.ID).Warn("client buffer full, disconnecting")
			go h.Unregister(c)
		}
	}
}

func (h *Hub) shutdown() {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	close(h.done)
	for c := range h.clients {
		c.closeSend()
		delete(h.clients, c)
	}
	h.log.Info("hub stopped")
}
