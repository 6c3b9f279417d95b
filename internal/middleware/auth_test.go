package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mmuslimabdulj/chat-together/internal/auth"
	"github.com/mmuslimabdulj/chat-together/internal/domain"
)

type staticRoles map[string]string

func (s staticRoles) RoleOf(_ context.Context, username string) (string, error) {
	if username == "broken" {
		return "", errors.New("store unavailable")
	}
	if role, ok := s[username]; ok {
		return role, nil
	}
	return domain.RoleUser, nil
}

func TestRequireAdmin(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	roles := staticRoles{"root": domain.RoleAdmin, "mo": domain.RoleMod}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var seen string
	handler := RequireAdmin(tokens, roles, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UsernameFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	bearer := func(username string) string {
		tok, err := tokens.Issue(username)
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		return "Bearer " + tok
	}

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"No header", "", http.StatusUnauthorized},
		{"Wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"Garbage token", "Bearer not-a-token", http.StatusUnauthorized},
		{"Plain user", bearer("alice"), http.StatusForbidden},
		{"Moderator", bearer("mo"), http.StatusForbidden},
		{"Store failure", bearer("broken"), http.StatusInternalServerError},
		{"Admin", bearer("root"), http.StatusNoContent},
		{"Lowercase scheme", "bearer " + bearer("root")[7:], http.StatusNoContent},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest("POST", "/api/roles", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tc.status {
				t.Errorf("Expected status %d, got %d", tc.status, w.Code)
			}
			if tc.status == http.StatusNoContent && seen != "root" {
				t.Errorf("Expected username root in context, got %q", seen)
			}
		})
	}
}

func TestUsernameFrom_Missing(t *testing.T) {
	if _, ok := UsernameFrom(context.Background()); ok {
		t.Error("Expected no username in empty context")
	}
}
