package ws

import (
	"fmt"

	"github.com/mmuslimabdulj/chat-together/internal/domain"
)

// publishRoom encodes payload once and queues it for every subscriber of room
// except the connection with id except. Subscribers whose queue is full are
// disconnected after the fan-out.
// NOTE: must only be called from the event loop
func (h *Hub) publishRoom(room string, event domain.EventType, payload interface{}, except string) {
	data, err := domain.Encode(event, payload)
	if err != nil {
		h.logger.Error("failed to encode event", "type", event, "error", err)
		return
	}

	var slow []*Client
	for _, c := range h.members(room) {
		if c.ID == except {
			continue
		}
		if !c.Send(data) {
			slow = append(slow, c)
		}
	}

	for _, c := range slow {
		h.logger.Warn("send buffer full, dropping connection", "conn", c.ID, "room", room)
		h.removeClient(c)
	}
}

// publishTo queues an event for a single connection
func (h *Hub) publishTo(c *Client, event domain.EventType, payload interface{}) {
	data, err := domain.Encode(event, payload)
	if err != nil {
		h.logger.Error("failed to encode event", "type", event, "error", err)
		return
	}
	if !c.Send(data) {
		h.logger.Warn("send buffer full, message dropped", "conn", c.ID, "type", event)
	}
}

// botMessage builds a system chat message authored by the bot
func botMessage(room, text string) domain.ChatMessage {
	return domain.NewChatMessage(domain.BotName, text, room)
}

func welcomeText(username, room string) string {
	return fmt.Sprintf("Welcome %s,\n%s - your chat network!\nYou are currently in the %s room!\n\n%s v%s Beta",
		username, domain.BotName, room, domain.BotName, domain.Version)
}

func joinedText(username string) string {
	return fmt.Sprintf("%s has joined.", username)
}

func leftText(username string) string {
	return fmt.Sprintf("%s has left the room.", username)
}

// broadcastRoomUsers sends the current member list of room to everyone in it
func (h *Hub) broadcastRoomUsers(room string) {
	h.publishRoom(room, domain.EventRoomUsers, domain.RoomUsersPayload{
		Room:  room,
		Users: h.registry.SessionsInRoom(room),
	}, "")
}
