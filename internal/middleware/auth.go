package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mmuslimabdulj/chat-together/internal/auth"
	"github.com/mmuslimabdulj/chat-together/internal/domain"
)

type contextKey string

const usernameKey contextKey = "username"

// TokenValidator validates bearer tokens
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// RoleLookup resolves the stored role of a username
type RoleLookup interface {
	RoleOf(ctx context.Context, username string) (string, error)
}

// RequireAdmin only lets requests through that carry a valid bearer token of an admin profile.
// The role is read from the store on every request, so a demotion takes effect immediately.
func RequireAdmin(tokens TokenValidator, roles RoleLookup, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				deny(w, http.StatusUnauthorized, "Authentication required")
				return
			}

			claims, err := tokens.Validate(raw)
			if err != nil {
				msg := "Invalid token"
				if errors.Is(err, auth.ErrExpiredToken) {
					msg = "Token expired"
				}
				deny(w, http.StatusUnauthorized, msg)
				return
			}

			role, err := roles.RoleOf(r.Context(), claims.Username)
			if err != nil {
				logger.Error("failed to load role", "username", claims.Username, "error", err)
				deny(w, http.StatusInternalServerError, "Server error")
				return
			}
			if role != domain.RoleAdmin {
				logger.Warn("admin route denied", "username", claims.Username, "path", r.URL.Path)
				deny(w, http.StatusForbidden, "Admin role required")
				return
			}

			ctx := context.WithValue(r.Context(), usernameKey, claims.Username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UsernameFrom returns the authenticated username stored by RequireAdmin
func UsernameFrom(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(usernameKey).(string)
	return name, ok
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// deny writes the same {success, message} envelope the API handlers use
func deny(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"message": message,
	})
}
