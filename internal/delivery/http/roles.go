package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/mmuslimabdulj/chat-together/internal/delivery/ws"
	"github.com/mmuslimabdulj/chat-together/internal/domain"
	"github.com/mmuslimabdulj/chat-together/internal/middleware"
	"github.com/mmuslimabdulj/chat-together/internal/store"
)

type assignRequest struct {
	RoleID   string `json:"roleId"`
	Username string `json:"username"`
}

type assignResult struct {
	Kicked bool `json:"kicked"`
}

// HandleListRoles returns every custom role with its members
func (h *Handler) HandleListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.roles.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list roles", "error", err)
		writeJSON(w, http.StatusInternalServerError, response{Message: "Failed to load roles."})
		return
	}
	writeJSON(w, http.StatusOK, response{Success: true, Data: roles})
}

// HandleCreateRole creates a custom role
func (h *Handler) HandleCreateRole(w http.ResponseWriter, r *http.Request) {
	var role domain.Role
	if !decodeJSON(w, r, &role) {
		return
	}

	err := h.roles.Create(r.Context(), role)
	switch {
	case errors.Is(err, store.ErrRoleInvalid):
		writeJSON(w, http.StatusBadRequest, response{Message: "Missing fields."})
	case errors.Is(err, store.ErrRoleExists):
		writeJSON(w, http.StatusBadRequest, response{Message: "Role already exists."})
	case err != nil:
		h.roleError(w, err)
	default:
		h.logger.Info("role created", "role", role.RoleID, "by", actor(r))
		writeJSON(w, http.StatusOK, response{Success: true})
	}
}

// HandleUpdateRole edits name, prefix or color of a role
func (h *Handler) HandleUpdateRole(w http.ResponseWriter, r *http.Request) {
	var upd store.RoleUpdate
	if !decodeJSON(w, r, &upd) {
		return
	}

	err := h.roles.Update(r.Context(), r.PathValue("roleId"), upd)
	switch {
	case errors.Is(err, store.ErrRoleNotFound):
		writeJSON(w, http.StatusNotFound, response{Message: "Role not found."})
	case err != nil:
		h.roleError(w, err)
	default:
		writeJSON(w, http.StatusOK, response{Success: true})
	}
}

// HandleDeleteRole removes a role and its memberships
func (h *Handler) HandleDeleteRole(w http.ResponseWriter, r *http.Request) {
	roleID := r.PathValue("roleId")

	err := h.roles.Delete(r.Context(), roleID)
	switch {
	case errors.Is(err, store.ErrRoleNotFound):
		writeJSON(w, http.StatusNotFound, response{Message: "Role not found."})
	case err != nil:
		h.roleError(w, err)
	default:
		h.logger.Info("role deleted", "role", roleID, "by", actor(r))
		writeJSON(w, http.StatusOK, response{Success: true})
	}
}

// HandleAssignRole moves a user into a role, writes the role id to the profile and
// disconnects every live session of that user so the role applies on the next join.
func (h *Handler) HandleAssignRole(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.RoleID = strings.TrimSpace(req.RoleID)
	req.Username = strings.TrimSpace(req.Username)
	if req.RoleID == "" || req.Username == "" {
		writeJSON(w, http.StatusBadRequest, response{Message: "Missing fields."})
		return
	}

	if err := h.roles.Assign(r.Context(), req.RoleID, req.Username); err != nil {
		if errors.Is(err, store.ErrRoleNotFound) {
			writeJSON(w, http.StatusBadRequest, response{Message: "Failed to assign role."})
			return
		}
		h.roleError(w, err)
		return
	}

	// Guests without an account get a profile holding the role
	if err := h.profiles.UpdateRole(r.Context(), req.Username, req.RoleID); err != nil {
		h.roleError(w, err)
		return
	}

	kicked := h.hub.ForceDisconnect(req.Username, ws.RoleChangedNotice) > 0

	h.logger.Info("role assigned", "role", req.RoleID, "target", req.Username, "by", actor(r), "kicked", kicked)
	writeJSON(w, http.StatusOK, response{Success: true, Data: assignResult{Kicked: kicked}})
}

// HandleUserRole returns the custom role of a user, or null
func (h *Handler) HandleUserRole(w http.ResponseWriter, r *http.Request) {
	role, err := h.roles.RoleOfUser(r.Context(), r.PathValue("username"))
	if err != nil {
		h.roleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Success: true, Data: role})
}

func (h *Handler) roleError(w http.ResponseWriter, err error) {
	h.logger.Error("role store failure", "error", err)
	writeJSON(w, http.StatusInternalServerError, response{Message: "Server error."})
}

// actor names the admin performing a request, for logs
func actor(r *http.Request) string {
	name, _ := middleware.UsernameFrom(r.Context())
	return name
}
