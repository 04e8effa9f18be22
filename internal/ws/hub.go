package ws

import (
	"sync"

	"github.com/google/uuid"

	"matchlink/internal/metrics"
)

// Conn is the write side of a live connection. *websocket.Conn satisfies it;
// tests substitute fakes.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

// Client is one live authenticated connection. A profile may hold several
// clients at once (multiple tabs or devices).
type Client struct {
	ID        string
	ProfileID int64

	conn Conn
	mu   sync.Mutex // serializes writes; gorilla allows one writer at a time
}

// Send writes a JSON payload to the connection.
func (c *Client) Send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// Hub is the presence registry and broadcast router: it maps profiles to
// their live clients and chat rooms to the clients currently joined. State
// is node-local; there is no cross-node sharing.
type Hub struct {
	mu       sync.RWMutex
	presence map[int64]map[*Client]struct{}
	rooms    map[int64]map[*Client]struct{}
	joined   map[*Client]map[int64]struct{}
}

func NewHub() *Hub {
	return &Hub{
		presence: make(map[int64]map[*Client]struct{}),
		rooms:    make(map[int64]map[*Client]struct{}),
		joined:   make(map[*Client]map[int64]struct{}),
	}
}

// Register records a freshly authenticated connection and returns its client
// handle.
func (h *Hub) Register(profileID int64, conn Conn) *Client {
	c := &Client{
		ID:        uuid.NewString(),
		ProfileID: profileID,
		conn:      conn,
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.presence[profileID] == nil {
		h.presence[profileID] = make(map[*Client]struct{})
	}
	h.presence[profileID][c] = struct{}{}
	h.joined[c] = make(map[int64]struct{})
	metrics.ActiveConnections.Inc()
	return c
}

// Unregister removes the client from the presence registry and from every
// room it had joined. Called on disconnect.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.presence[c.ProfileID]; ok {
		if _, present := clients[c]; present {
			delete(clients, c)
			metrics.ActiveConnections.Dec()
		}
		if len(clients) == 0 {
			delete(h.presence, c.ProfileID)
		}
	}
	for chatID := range h.joined[c] {
		h.removeFromRoom(c, chatID)
	}
	delete(h.joined, c)
}

// JoinRoom adds the client to the chat's broadcast group.
func (h *Hub) JoinRoom(c *Client, chatID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[chatID] == nil {
		h.rooms[chatID] = make(map[*Client]struct{})
	}
	h.rooms[chatID][c] = struct{}{}
	if h.joined[c] == nil {
		h.joined[c] = make(map[int64]struct{})
	}
	h.joined[c][chatID] = struct{}{}
}

// LeaveRoom removes the client from the chat's broadcast group.
func (h *Hub) LeaveRoom(c *Client, chatID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeFromRoom(c, chatID)
	delete(h.joined[c], chatID)
}

func (h *Hub) removeFromRoom(c *Client, chatID int64) {
	if room, ok := h.rooms[chatID]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, chatID)
		}
	}
}

// BroadcastRoom sends the payload to every client currently joined to the
// chat's room. Failed connections are closed; the read loop cleans them up.
func (h *Hub) BroadcastRoom(chatID int64, payload any) {
	h.broadcast(chatID, nil, payload)
}

// BroadcastRoomExcept sends the payload to every client in the room except
// the given one. Used for typing indicators.
func (h *Hub) BroadcastRoomExcept(chatID int64, except *Client, payload any) {
	h.broadcast(chatID, except, payload)
}

func (h *Hub) broadcast(chatID int64, except *Client, payload any) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.rooms[chatID]))
	for c := range h.rooms[chatID] {
		if c != except {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	metrics.BroadcastFanout.Observe(float64(len(targets)))
	for _, c := range targets {
		if err := c.Send(payload); err != nil {
			c.conn.Close()
		}
	}
}

// OnlineProfiles returns the profile ids with at least one live connection.
func (h *Hub) OnlineProfiles() []int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]int64, 0, len(h.presence))
	for id := range h.presence {
		ids = append(ids, id)
	}
	return ids
}

// RoomSize returns the number of clients joined to the chat's room.
func (h *Hub) RoomSize(chatID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[chatID])
}
