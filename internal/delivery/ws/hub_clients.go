package ws

import (
	"github.com/mmuslimabdulj/chat-together/internal/domain"
	"github.com/mmuslimabdulj/chat-together/internal/usecase"
)

// Register adds a client to the hub
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Dispatch queues an inbound frame for the event loop
func (h *Hub) Dispatch(c *Client, env domain.Envelope) {
	select {
	case h.inbound <- inboundEvent{client: c, env: env}:
	case <-h.done:
	}
}

// ForceDisconnect sends notice to every connection of username and closes them.
// It returns the number of connections dropped.
func (h *Hub) ForceDisconnect(username, notice string) int {
	req := disconnectRequest{username: username, notice: notice, reply: make(chan int, 1)}
	select {
	case h.disconnects <- req:
	case <-h.done:
		return 0
	}
	select {
	case n := <-req.reply:
		return n
	case <-h.done:
		return 0
	}
}

// ClientCount returns the number of open connections
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomCount returns the number of rooms with at least one subscriber
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// Registry exposes the presence registry for read-only HTTP views
func (h *Hub) Registry() *usecase.Registry {
	return h.registry
}

// Stats exposes the message counters
func (h *Hub) Stats() *usecase.Stats {
	return h.stats
}

// Done is closed once Run has returned
func (h *Hub) Done() <-chan struct{} {
	return h.done
}
