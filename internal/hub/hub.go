package hub

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Server-to-client event names. StokHareketReceived fires for both kinds
// so clients can follow a single stream.
const (
	EventStokHareketCreated  = "StokHareketCreated"
	EventStokHareketUpdated  = "StokHareketUpdated"
	EventStokHareketReceived = "StokHareketReceived"
)

const groupPrefix = "tenant"

// GroupName derives the group a tenant's events are delivered to. The
// same convention is used on join (from the subeIds claim) and on
// fan-out (from the event's cost-center), so it must stay stable.
func GroupName(subeID int64) string {
	return fmt.Sprintf("%s_%d", groupPrefix, subeID)
}

// Identity is what the gateway keeps of the authenticated connection:
// the scope list is read once at connect time and never recomputed, so
// a permission change takes effect only after a reconnect.
type Identity struct {
	UserCode string
	SubeIDs  []int64
}

// Groups lists the group names the identity joins.
func (i Identity) Groups() []string {
	groups := make([]string, 0, len(i.SubeIDs))

	for _, id := range i.SubeIDs {
		groups = append(groups, GroupName(id))
	}

	return groups
}

// serverFrame is the wire envelope for pushed events.
type serverFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Hub is the connection registry of the push gateway. Broadcast reads
// and connect/disconnect writes run concurrently, guarded by one
// RWMutex.
type Hub struct {
	log *zap.Logger

	mu      sync.RWMutex
	clients map[uuid.UUID]*Client
	groups  map[string]map[uuid.UUID]*Client
}

func New(log *zap.Logger) *Hub {
	return &Hub{
		log:     log,
		clients: make(map[uuid.UUID]*Client),
		groups:  make(map[string]map[uuid.UUID]*Client),
	}
}

// HandleConnection registers the connection, joins it to its tenant
// groups and starts its pump goroutines. An identity with no scopes
// joins no groups and only ever sees broadcast-to-all events.
func (h *Hub) HandleConnection(conn *websocket.Conn, identity Identity) *Client {
	client := newClient(h, conn, identity)

	h.register(client)

	go client.writePump()
	go client.readPump()

	return client
}

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.id] = client

	for _, group := range client.identity.Groups() {
		members, ok := h.groups[group]
		if !ok {
			members = make(map[uuid.UUID]*Client)
			h.groups[group] = members
		}

		members[client.id] = client
	}

	h.log.Info("Client connected",
		zap.String("connection_id", client.id.String()),
		zap.String("user_code", client.identity.UserCode),
		zap.Strings("groups", client.identity.Groups()),
	)
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.id]; !ok {
		return
	}

	delete(h.clients, client.id)

	for _, group := range client.identity.Groups() {
		members, ok := h.groups[group]
		if !ok {
			continue
		}

		delete(members, client.id)

		if len(members) == 0 {
			delete(h.groups, group)
		}
	}

	close(client.send)

	h.log.Info("Client disconnected",
		zap.String("connection_id", client.id.String()),
		zap.String("user_code", client.identity.UserCode),
	)
}

// BroadcastToAll delivers the event to every connected client.
func (h *Hub) BroadcastToAll(event string, payload any) error {
	frame, err := json.Marshal(serverFrame{Event: event, Data: payload})
	if err != nil {
		return fmt.Errorf("failed to marshal %s frame: %w", event, err)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		h.enqueue(client, frame, event)
	}

	return nil
}

// BroadcastToGroup delivers the event to the members of one group. A
// group nobody joined is not an error; the event just has no audience.
func (h *Hub) BroadcastToGroup(group, event string, payload any) error {
	frame, err := json.Marshal(serverFrame{Event: event, Data: payload})
	if err != nil {
		return fmt.Errorf("failed to marshal %s frame: %w", event, err)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.groups[group] {
		h.enqueue(client, frame, event)
	}

	return nil
}

// enqueue hands a frame to a client's writer without blocking the
// broadcast. A client whose buffer is full loses the frame; its writer
// is too far behind to catch up within the event's useful lifetime.
func (h *Hub) enqueue(client *Client, frame []byte, event string) {
	select {
	case client.send <- frame:
	default:
		h.log.Warn("Client send buffer full, dropping event",
			zap.String("connection_id", client.id.String()),
			zap.String("event", event),
		)
	}
}

// ClientCount reports how many connections are registered.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

// GroupSize reports how many connections joined the given group.
func (h *Hub) GroupSize(group string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.groups[group])
}
