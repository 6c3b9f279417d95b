package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/mmuslimabdulj/chat-together/internal/auth"
	"github.com/mmuslimabdulj/chat-together/internal/config"
	"github.com/mmuslimabdulj/chat-together/internal/delivery/ws"
	"github.com/mmuslimabdulj/chat-together/internal/domain"
	"github.com/mmuslimabdulj/chat-together/internal/storage"
	"github.com/mmuslimabdulj/chat-together/internal/store"
	"github.com/mmuslimabdulj/chat-together/internal/view"
)

// response is the JSON envelope of every API route
type response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Deps are the collaborators of the HTTP layer
type Deps struct {
	Hub      *ws.Hub
	Profiles *store.Profiles
	Roles    *store.Roles
	Uploads  *storage.Store
	Tokens   *auth.TokenManager
	Config   *config.Config
	Logger   *slog.Logger
}

type Handler struct {
	hub      *ws.Hub
	profiles *store.Profiles
	roles    *store.Roles
	uploads  *storage.Store
	tokens   *auth.TokenManager
	cfg      *config.Config
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewHandler(d Deps) *Handler {
	h := &Handler{
		hub:      d.Hub,
		profiles: d.Profiles,
		roles:    d.Roles,
		uploads:  d.Uploads,
		tokens:   d.Tokens,
		cfg:      d.Config,
		logger:   d.Logger,
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return h.cfg.IsOriginAllowed(r.Header.Get("Origin"))
		},
	}
	return h
}

// HandleLobby serves the lobby page with the rooms that currently have members
func (h *Handler) HandleLobby(w http.ResponseWriter, r *http.Request) {
	registry := h.hub.Registry()
	data := view.LobbyData{
		Rooms:         view.RoomsFromCounts(registry.RoomCounts()),
		OnlineUsers:   registry.Count(),
		DailyMessages: h.hub.Stats().DailyMessages(),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := view.Lobby(data).Render(r.Context(), w); err != nil {
		h.logger.Error("failed to render lobby", "error", err)
	}
}

// HandleWebSocket upgrades HTTP to WebSocket. The connection joins a room with a joinRoom event.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	client := ws.NewClient(h.hub, conn)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}

// HandleRoomUsers returns the member count of every active room
func (h *Handler) HandleRoomUsers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, response{Success: true, Data: h.hub.Registry().RoomCounts()})
}

// HandleStats returns the live statistics snapshot
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, response{Success: true, Data: h.hub.Stats().Snapshot(h.hub.Registry())})
}

// HandleUsers lists connected sessions for the moderation UI, optionally filtered by ?room=
func (h *Handler) HandleUsers(w http.ResponseWriter, r *http.Request) {
	registry := h.hub.Registry()

	var sessions []domain.Session
	if room := strings.TrimSpace(r.URL.Query().Get("room")); room != "" {
		sessions = registry.SessionsInRoom(room)
	} else {
		sessions = registry.AllSessions()
	}
	writeJSON(w, http.StatusOK, response{Success: true, Data: sessions})
}

// HandleUploadFile stores a chat file and returns the file info clients attach to a chat message
func (h *Handler) HandleUploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxFileSize+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		h.formError(w, err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, response{Message: "No file uploaded."})
		return
	}
	defer file.Close()

	stored, err := h.uploads.SaveFile(file, header.Filename)
	if err != nil {
		h.uploadError(w, err)
		return
	}

	uploadedBy := strings.TrimSpace(r.FormValue("username"))
	if uploadedBy == "" {
		uploadedBy = "unknown"
	}

	h.logger.Info("chat file uploaded", "file", stored.Filename, "original", stored.OriginalName, "user", uploadedBy)
	writeJSON(w, http.StatusOK, response{Success: true, Data: domain.FileInfo{
		Filename:     stored.Filename,
		OriginalName: stored.OriginalName,
		Mimetype:     stored.Mimetype,
		Size:         stored.Size,
		Path:         stored.Path,
		UploadedBy:   uploadedBy,
		UploadedAt:   stored.UploadedAt,
	}})
}

const (
	// multipartOverhead leaves room for form fields and boundaries on top of the file limit
	multipartOverhead = 1 << 20
	multipartMemory   = 1 << 20
)

// formError maps multipart parsing failures
func (h *Handler) formError(w http.ResponseWriter, err error) {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		writeJSON(w, http.StatusRequestEntityTooLarge, response{Message: "File is too large."})
		return
	}
	writeJSON(w, http.StatusBadRequest, response{Message: "Invalid form data."})
}

// uploadError maps storage errors to status codes
func (h *Handler) uploadError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrFileTooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, response{Message: "File is too large."})
	case errors.Is(err, storage.ErrTypeNotAllowed):
		writeJSON(w, http.StatusUnsupportedMediaType, response{Message: "File type not allowed."})
	case errors.Is(err, storage.ErrEmptyFile):
		writeJSON(w, http.StatusBadRequest, response{Message: "No file uploaded."})
	default:
		h.logger.Error("failed to store upload", "error", err)
		writeJSON(w, http.StatusInternalServerError, response{Message: "Failed to upload file."})
	}
}

// decodeJSON reads a JSON request body, writing a 400 on failure
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, response{Message: "Invalid request."})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
