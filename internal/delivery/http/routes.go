package http

import (
	"net/http"

	"github.com/mmuslimabdulj/chat-together/internal/middleware"
)

// Routes builds the application router wrapped in logging and security headers
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	admin := middleware.RequireAdmin(h.tokens, h.profiles, h.logger)

	// Pages and realtime
	mux.Handle("GET /{$}", middleware.NoCache(http.HandlerFunc(h.HandleLobby)))
	mux.HandleFunc("GET /ws", h.HandleWebSocket)

	// Accounts
	mux.HandleFunc("POST /api/register", h.HandleRegister)
	mux.HandleFunc("POST /api/login", h.HandleLogin)
	mux.HandleFunc("GET /api/profile/{username}", h.HandleGetProfile)
	mux.HandleFunc("POST /api/profile/update", h.HandleUpdateProfile)

	// Live state
	mux.HandleFunc("GET /api/room-users", h.HandleRoomUsers)
	mux.HandleFunc("GET /api/stats", h.HandleStats)
	mux.HandleFunc("GET /api/users", h.HandleUsers)

	// Files
	mux.HandleFunc("POST /api/upload-file", h.HandleUploadFile)
	mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(h.cfg.UploadDir))))

	// Roles
	mux.HandleFunc("GET /api/roles", h.HandleListRoles)
	mux.HandleFunc("GET /api/roles/user/{username}", h.HandleUserRole)
	mux.Handle("POST /api/roles", admin(http.HandlerFunc(h.HandleCreateRole)))
	mux.Handle("PUT /api/roles/{roleId}", admin(http.HandlerFunc(h.HandleUpdateRole)))
	mux.Handle("DELETE /api/roles/{roleId}", admin(http.HandlerFunc(h.HandleDeleteRole)))
	mux.Handle("POST /api/roles/assign", admin(http.HandlerFunc(h.HandleAssignRole)))

	// Static assets
	mux.Handle("GET /", http.FileServer(http.Dir(h.cfg.PublicDir)))

	return middleware.RequestLogger(h.logger)(middleware.SecurityHeaders(mux))
}
