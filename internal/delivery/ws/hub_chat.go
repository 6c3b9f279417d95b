package ws

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/mmuslimabdulj/chat-together/internal/domain"
	"github.com/mmuslimabdulj/chat-together/internal/usecase"
)

const joinFailedNotice = "Could not join the room, please try again."

// handleJoin binds the connection to (username, room). A connection that is
// already in a room leaves it first, but only once the new pair is known to be
// free: a refused join keeps the current session.
func (h *Hub) handleJoin(ctx context.Context, c *Client, raw json.RawMessage) {
	var p domain.JoinRoomPayload
	if !h.decode(c, raw, &p) {
		h.publishTo(c, domain.EventUsernameError, userFacing(usecase.ErrMissingFields))
		return
	}

	username, room := SanitizeName(p.Username), SanitizeName(p.Room)
	if username == "" || room == "" {
		h.publishTo(c, domain.EventUsernameError, userFacing(usecase.ErrMissingFields))
		return
	}
	if taken, ok := h.registry.SessionByUsername(username, room); ok && taken.ID != c.ID {
		h.publishTo(c, domain.EventUsernameError, userFacing(usecase.ErrDuplicateName))
		return
	}

	h.leaveRoom(c)

	session, err := h.registry.Join(ctx, c.ID, username, room)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrDuplicateName), errors.Is(err, usecase.ErrMissingFields):
			h.publishTo(c, domain.EventUsernameError, userFacing(err))
		default:
			h.logger.Error("join failed", "conn", c.ID, "username", p.Username, "error", err)
			h.publishTo(c, domain.EventUsernameError, joinFailedNotice)
		}
		return
	}

	h.subscribe(c, session.Room)

	h.publishTo(c, domain.EventMessage, botMessage(session.Room, welcomeText(session.Username, session.Room)))
	h.publishRoom(session.Room, domain.EventMessage, botMessage(session.Room, joinedText(session.Username)), c.ID)
	h.broadcastRoomUsers(session.Room)

	h.logger.Info("user joined", "username", session.Username, "room", session.Room, "role", session.Role)
}

// leaveRoom drops the connection's session and announces it. Without a session it does nothing.
func (h *Hub) leaveRoom(c *Client) {
	session, ok := h.registry.Leave(c.ID)
	if !ok {
		return
	}

	h.unsubscribe(c, session.Room)
	h.publishRoom(session.Room, domain.EventMessage, botMessage(session.Room, leftText(session.Username)), "")
	h.broadcastRoomUsers(session.Room)

	h.logger.Info("user left", "username", session.Username, "room", session.Room)
}

// handleChat stamps the message and relays it to the sender's room, sender included
func (h *Hub) handleChat(c *Client, raw json.RawMessage) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	p, err := domain.DecodeChatPayload(raw)
	if err != nil {
		h.logger.Debug("malformed chat payload", "conn", c.ID, "error", err)
		return
	}

	msg := domain.NewChatMessage(session.Username, p.Text, session.Room)
	msg.ReplyTo = p.ReplyTo
	if p.FileInfo != nil {
		if !IsUploadPath(p.FileInfo.Path) {
			h.logger.Warn("rejected file message", "username", session.Username, "path", p.FileInfo.Path)
			return
		}
		msg.FileInfo = p.FileInfo
		msg.MessageType = "file"
	}

	if strings.TrimSpace(msg.Text) == "" && msg.FileInfo == nil {
		return
	}

	h.stats.RecordMessage()
	h.publishRoom(session.Room, domain.EventMessage, msg, "")
}

// handleReaction toggles the caller's reaction and publishes the message's full reaction map
func (h *Hub) handleReaction(c *Client, raw json.RawMessage) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var p domain.ReactionPayload
	if !h.decode(c, raw, &p) || p.MessageID == "" || p.Emoji == "" {
		return
	}

	reactions := h.reactions.Toggle(p.MessageID, p.Emoji, session.Username)
	h.publishRoom(session.Room, domain.EventReactionsUpdated, domain.ReactionsUpdatedPayload{
		MessageID: p.MessageID,
		Reactions: reactions,
	}, "")
}

// handleTyping relays typing indicators to the rest of the room
func (h *Hub) handleTyping(c *Client, event domain.EventType) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	h.publishRoom(session.Room, event, domain.TypingPayload{Username: session.Username}, c.ID)
}

// handleReceipt relays a delivered or seen receipt to the room
func (h *Hub) handleReceipt(c *Client, raw json.RawMessage, kind string) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var p domain.ReceiptPayload
	if !h.decode(c, raw, &p) || p.MessageID == "" {
		return
	}

	h.publishRoom(session.Room, domain.EventMessageReceipt, domain.ReceiptEvent{
		MessageID: p.MessageID,
		Type:      kind,
		By:        session.Username,
	}, "")
}

// handleEdit relays an edit to the room. Messages are not stored, so ownership
// is left to the clients.
func (h *Hub) handleEdit(c *Client, raw json.RawMessage) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var p domain.EditPayload
	if !h.decode(c, raw, &p) || p.ID == "" {
		return
	}

	h.publishRoom(session.Room, domain.EventMessageEdited, p, "")
}

// userFacing turns registry errors into the sentence shown to the user
func userFacing(err error) string {
	switch {
	case errors.Is(err, usecase.ErrDuplicateName):
		return "This username is already taken in this room."
	case errors.Is(err, usecase.ErrMissingFields):
		return "Username and room are required."
	default:
		return joinFailedNotice
	}
}
