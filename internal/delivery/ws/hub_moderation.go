package ws

import (
	"context"
	"encoding/json"

	"github.com/mmuslimabdulj/chat-together/internal/domain"
)

const (
	// KickNotice is sent to a member removed by a moderator
	KickNotice = "You have been removed from the room."

	// RoleChangedNotice is sent to a member whose role was changed
	RoleChangedNotice = "Your role has been changed. Please log in again."
)

// handleDelete lets moderators remove a message for everyone in the room
func (h *Hub) handleDelete(c *Client, raw json.RawMessage) {
	session, ok := h.session(c)
	if !ok || !domain.CanModerate(session.Role) {
		return
	}

	var p domain.DeletePayload
	if !h.decode(c, raw, &p) || p.ID == "" {
		return
	}

	h.publishRoom(session.Room, domain.EventDeleteMessageGlobal, p, "")
	h.logger.Info("message deleted", "by", session.Username, "room", session.Room, "message", p.ID)
}

// handleKick removes a member of the caller's room. Moderators cannot kick
// moderators or admins; admins can kick anyone.
func (h *Hub) handleKick(c *Client, raw json.RawMessage) {
	session, ok := h.session(c)
	if !ok || !domain.CanModerate(session.Role) {
		return
	}

	name, err := domain.DecodeKickTarget(raw)
	if err != nil || name == "" {
		return
	}

	target, ok := h.registry.SessionByUsername(name, session.Room)
	if !ok {
		return
	}
	if session.Role == domain.RoleMod && domain.CanModerate(target.Role) {
		h.logger.Warn("kick denied", "by", session.Username, "target", target.Username)
		return
	}

	h.disconnect(target.ID, KickNotice)
	h.logger.Info("user kicked", "by", session.Username, "target", target.Username, "room", session.Room)
}

// handleRoleUpdate lets admins persist a new role. Every live session of the
// target is disconnected so the role is picked up on the next join.
func (h *Hub) handleRoleUpdate(ctx context.Context, c *Client, raw json.RawMessage) {
	session, ok := h.session(c)
	if !ok || session.Role != domain.RoleAdmin || h.profiles == nil {
		return
	}

	var p domain.RoleUpdatePayload
	if !h.decode(c, raw, &p) || p.Username == "" || p.Role == "" {
		return
	}

	// Guests read as the default profile; UpdateRole creates theirs
	profile, err := h.profiles.GetOrDefault(ctx, p.Username)
	if err != nil {
		h.logger.Error("role update skipped", "target", p.Username, "error", err)
		return
	}
	if profile.Role == domain.RoleAdmin && p.Role != domain.RoleAdmin {
		h.logger.Warn("cannot demote an admin", "by", session.Username, "target", p.Username)
		return
	}

	if err := h.profiles.UpdateRole(ctx, p.Username, p.Role); err != nil {
		h.logger.Error("failed to update role", "target", p.Username, "error", err)
		return
	}

	n := h.disconnectUser(p.Username, RoleChangedNotice)
	h.logger.Info("role updated", "by", session.Username, "target", p.Username, "role", p.Role, "disconnected", n)
}

// disconnect sends notice to one connection, cleans up its session and closes it.
// The write pump flushes the notice before the close frame.
func (h *Hub) disconnect(connID, notice string) {
	c, ok := h.clients[connID]
	if !ok {
		return
	}
	h.publishTo(c, domain.EventUsernameError, notice)
	h.removeClient(c)
}

// disconnectUser disconnects every session of username in any room
func (h *Hub) disconnectUser(username, notice string) int {
	sessions := h.registry.SessionsOfUser(username)
	for _, s := range sessions {
		h.disconnect(s.ID, notice)
	}
	return len(sessions)
}
