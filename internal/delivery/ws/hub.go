package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/mmuslimabdulj/chat-together/internal/domain"
	"github.com/mmuslimabdulj/chat-together/internal/usecase"
)

// ProfileStore is the part of the profile collaborator the hub needs
type ProfileStore interface {
	usecase.RoleLookup
	GetOrDefault(ctx context.Context, username string) (*domain.Profile, error)
	UpdateRole(ctx context.Context, username, role string) error
}

// HubOptions wires the hub to its collaborators. Nil fields get fresh defaults.
type HubOptions struct {
	Registry       *usecase.Registry
	Reactions      *usecase.ReactionLedger
	Stats          *usecase.Stats
	Profiles       ProfileStore
	Logger         *slog.Logger
	MaxMessageSize int64
}

// inboundEvent is a frame read from a client, queued for the event loop
type inboundEvent struct {
	client *Client
	env    domain.Envelope
}

// disconnectRequest asks the loop to drop every session of a username
type disconnectRequest struct {
	username string
	notice   string
	reply    chan int
}

// Hub owns every connection and processes all events on a single goroutine,
// so handlers never run concurrently with each other.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client            // conn id -> client
	rooms   map[string]map[string]*Client // room -> conn id -> client

	register    chan *Client
	unregister  chan *Client
	inbound     chan inboundEvent
	disconnects chan disconnectRequest
	done        chan struct{}

	registry       *usecase.Registry
	reactions      *usecase.ReactionLedger
	stats          *usecase.Stats
	profiles       ProfileStore
	logger         *slog.Logger
	maxMessageSize int64
}

// NewHub creates a new Hub
func NewHub(opts HubOptions) *Hub {
	h := &Hub{
		clients:        make(map[string]*Client),
		rooms:          make(map[string]map[string]*Client),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		inbound:        make(chan inboundEvent, 256),
		disconnects:    make(chan disconnectRequest),
		done:           make(chan struct{}),
		registry:       opts.Registry,
		reactions:      opts.Reactions,
		stats:          opts.Stats,
		profiles:       opts.Profiles,
		logger:         opts.Logger,
		maxMessageSize: opts.MaxMessageSize,
	}

	if h.registry == nil {
		var roles usecase.RoleLookup
		if opts.Profiles != nil {
			roles = opts.Profiles
		}
		h.registry = usecase.NewRegistry(roles)
	}
	if h.reactions == nil {
		h.reactions = usecase.NewReactionLedger()
	}
	if h.stats == nil {
		h.stats = usecase.NewStats()
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.maxMessageSize <= 0 {
		h.maxMessageSize = domain.MaxMessageSize
	}
	return h
}

// Run starts the hub's main event loop. It returns when ctx is cancelled,
// after closing every client's send queue.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			h.logger.Debug("connection opened", "conn", client.ID)

		case client := <-h.unregister:
			// Closed sockets leave their room like an explicit leaveRoom
			h.removeClient(client)

		case ev := <-h.inbound:
			// A forcibly disconnected client may still have frames queued
			if _, ok := h.clients[ev.client.ID]; !ok {
				continue
			}
			h.handle(ctx, ev.client, ev.env)

		case req := <-h.disconnects:
			req.reply <- h.disconnectUser(req.username, req.notice)
		}
	}
}

// handle routes one inbound frame to its handler
func (h *Hub) handle(ctx context.Context, c *Client, env domain.Envelope) {
	switch env.Type {
	case domain.EventJoinRoom:
		h.handleJoin(ctx, c, env.Payload)
	case domain.EventChatMessage:
		h.handleChat(c, env.Payload)
	case domain.EventToggleReaction:
		h.handleReaction(c, env.Payload)
	case domain.EventTyping:
		h.handleTyping(c, domain.EventTyping)
	case domain.EventStopTyping:
		h.handleTyping(c, domain.EventStopTyping)
	case domain.EventMessageDelivered:
		h.handleReceipt(c, env.Payload, domain.ReceiptDelivered)
	case domain.EventMessageSeen:
		h.handleReceipt(c, env.Payload, domain.ReceiptSeen)
	case domain.EventEditMessage:
		h.handleEdit(c, env.Payload)
	case domain.EventDeleteMessage:
		h.handleDelete(c, env.Payload)
	case domain.EventKickUser:
		h.handleKick(c, env.Payload)
	case domain.EventUpdateUserRole:
		h.handleRoleUpdate(ctx, c, env.Payload)
	case domain.EventLeaveRoom:
		h.leaveRoom(c)
	default:
		h.logger.Debug("unknown event", "conn", c.ID, "type", env.Type)
	}
}

// session returns the caller's session; events from connections outside a room are ignored
func (h *Hub) session(c *Client) (domain.Session, bool) {
	return h.registry.SessionOf(c.ID)
}

// decode unmarshals a payload, logging malformed frames
func (h *Hub) decode(c *Client, raw json.RawMessage, v interface{}) bool {
	if len(raw) == 0 {
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		h.logger.Debug("malformed payload", "conn", c.ID, "error", err)
		return false
	}
	return true
}

// removeClient forgets a connection, leaves its room and closes its send queue.
// Removing an unknown client is a no-op.
func (h *Hub) removeClient(c *Client) {
	if _, ok := h.clients[c.ID]; !ok {
		return
	}

	h.leaveRoom(c)

	h.mu.Lock()
	delete(h.clients, c.ID)
	h.mu.Unlock()

	close(c.send)
	h.logger.Debug("connection closed", "conn", c.ID)
}

// shutdown closes every send queue so the write pumps send a close frame
func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, c := range h.clients {
		h.registry.Leave(id)
		close(c.send)
		delete(h.clients, id)
	}
	h.rooms = make(map[string]map[string]*Client)
}
