package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/mmuslimabdulj/chat-together/internal/domain"
	"github.com/mmuslimabdulj/chat-together/internal/storage"
	"github.com/mmuslimabdulj/chat-together/internal/store"
)

type credentials struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

type loginResult struct {
	Token     string `json:"token"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	ExpiresIn int64  `json:"expiresIn"` // seconds
}

// HandleRegister creates an account with the default user role
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, response{Message: "Username and password are required."})
		return
	}

	_, err := h.profiles.Create(r.Context(), req.Username, req.Password, req.DisplayName)
	switch {
	case errors.Is(err, store.ErrInvalidCredentials):
		writeJSON(w, http.StatusBadRequest, response{Message: "Username and password must be at least 3 characters long."})
		return
	case errors.Is(err, store.ErrProfileExists):
		writeJSON(w, http.StatusBadRequest, response{Message: "Username already exists."})
		return
	case err != nil:
		h.logger.Error("registration failed", "username", req.Username, "error", err)
		writeJSON(w, http.StatusInternalServerError, response{Message: "Registration failed."})
		return
	}

	h.logger.Info("account registered", "username", req.Username)
	writeJSON(w, http.StatusOK, response{Success: true, Message: "Registration successful."})
}

// HandleLogin checks the password and issues a bearer token
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, response{Message: "Username and password are required."})
		return
	}

	ok, err := h.profiles.CheckPassword(r.Context(), req.Username, req.Password)
	if err != nil {
		h.logger.Error("login failed", "username", req.Username, "error", err)
		writeJSON(w, http.StatusInternalServerError, response{Message: "Login failed."})
		return
	}
	if !ok {
		writeJSON(w, http.StatusUnauthorized, response{Message: "Wrong username or password."})
		return
	}

	role, err := h.profiles.RoleOf(r.Context(), req.Username)
	if err != nil {
		h.logger.Error("login failed", "username", req.Username, "error", err)
		writeJSON(w, http.StatusInternalServerError, response{Message: "Login failed."})
		return
	}

	token, err := h.tokens.Issue(req.Username)
	if err != nil {
		h.logger.Error("failed to issue token", "username", req.Username, "error", err)
		writeJSON(w, http.StatusInternalServerError, response{Message: "Login failed."})
		return
	}

	writeJSON(w, http.StatusOK, response{Success: true, Message: "Login successful.", Data: loginResult{
		Token:     token,
		Username:  req.Username,
		Role:      role,
		ExpiresIn: int64(h.tokens.TTL() / time.Second),
	}})
}

// HandleGetProfile returns a profile. Unknown usernames get the default profile.
func (h *Handler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profiles.GetOrDefault(r.Context(), r.PathValue("username"))
	if err != nil {
		h.logger.Error("failed to load profile", "username", r.PathValue("username"), "error", err)
		writeJSON(w, http.StatusInternalServerError, response{Message: "Failed to load profile."})
		return
	}
	writeJSON(w, http.StatusOK, response{Success: true, Data: profile})
}

// HandleUpdateProfile overwrites the editable profile fields from a multipart form.
// An optional "avatar" file replaces the profile picture.
func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxAvatarSize+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		h.formError(w, err)
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	if username == "" {
		writeJSON(w, http.StatusBadRequest, response{Message: "Username is required."})
		return
	}

	displayName := strings.TrimSpace(r.FormValue("displayName"))
	if displayName == "" {
		displayName = username
	}
	bio := r.FormValue("bio")
	location := r.FormValue("location")
	website := r.FormValue("website")

	upd := domain.ProfileUpdate{
		DisplayName: &displayName,
		Bio:         &bio,
		Location:    &location,
		Website:     &website,
	}

	var avatar *storage.Stored
	if file, header, err := r.FormFile("avatar"); err == nil {
		defer file.Close()
		avatar, err = h.uploads.SaveAvatar(file, header.Filename)
		if err != nil {
			h.uploadError(w, err)
			return
		}
		upd.Avatar = &avatar.Path
		h.logger.Info("avatar uploaded", "username", username, "file", avatar.Filename)
	}

	// Guests without an account get a profile created here
	if err := h.profiles.Update(r.Context(), username, upd); err != nil {
		h.logger.Error("failed to update profile", "username", username, "error", err)
		if avatar != nil {
			if rmErr := h.uploads.RemoveAvatar(avatar); rmErr != nil {
				h.logger.Error("failed to discard avatar", "file", avatar.Filename, "error", rmErr)
			}
		}
		writeJSON(w, http.StatusInternalServerError, response{Message: "Failed to save profile."})
		return
	}

	writeJSON(w, http.StatusOK, response{Success: true, Message: "Profile updated."})
}
