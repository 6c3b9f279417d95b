package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/mmuslimabdulj/chat-together/internal/domain"
)

var (
	// ErrDuplicateName is returned when the username is already present in the room
	ErrDuplicateName = errors.New("this username is already taken in this room")

	// ErrMissingFields is returned when username or room is empty
	ErrMissingFields = errors.New("username and room are required")
)

// RoleLookup resolves the stored role of a username
type RoleLookup interface {
	RoleOf(ctx context.Context, username string) (string, error)
}

// Registry tracks which connection is in which room under which name.
// Sessions are kept in join order and every lookup is a linear scan.
type Registry struct {
	mu       sync.RWMutex
	sessions []domain.Session
	roles    RoleLookup
}

// NewRegistry creates an empty registry that snapshots roles from the given lookup
func NewRegistry(roles RoleLookup) *Registry {
	return &Registry{
		sessions: make([]domain.Session, 0),
		roles:    roles,
	}
}

// Join binds a connection to (username, room). A second join with the same pair fails
// with ErrDuplicateName and leaves the registry untouched.
func (r *Registry) Join(ctx context.Context, connID, username, room string) (domain.Session, error) {
	username = strings.TrimSpace(username)
	room = strings.TrimSpace(room)
	if username == "" || room == "" {
		return domain.Session{}, ErrMissingFields
	}

	// Fast reject before touching the profile store
	if _, ok := r.SessionByUsername(username, room); ok {
		return domain.Session{}, ErrDuplicateName
	}

	role := domain.RoleUser
	if r.roles != nil {
		stored, err := r.roles.RoleOf(ctx, username)
		if err != nil {
			return domain.Session{}, fmt.Errorf("failed to load role for %s: %w", username, err)
		}
		if stored != "" {
			role = stored
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// The store call above ran unlocked, so check again
	for _, s := range r.sessions {
		if s.Username == username && s.Room == room {
			return domain.Session{}, ErrDuplicateName
		}
	}

	session := domain.Session{ID: connID, Username: username, Room: room, Role: role}
	r.sessions = append(r.sessions, session)
	return session, nil
}

// Leave removes the session of a connection. The second call for the same id returns false.
func (r *Registry) Leave(connID string) (domain.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, s := range r.sessions {
		if s.ID == connID {
			r.sessions = append(r.sessions[:i], r.sessions[i+1:]...)
			return s, true
		}
	}
	return domain.Session{}, false
}

// SessionOf returns the session bound to a connection
func (r *Registry) SessionOf(connID string) (domain.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.sessions {
		if s.ID == connID {
			return s, true
		}
	}
	return domain.Session{}, false
}

// SessionByUsername returns the session of username in room
func (r *Registry) SessionByUsername(username, room string) (domain.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.sessions {
		if s.Username == username && s.Room == room {
			return s, true
		}
	}
	return domain.Session{}, false
}

// SessionsOfUser returns every session of username across rooms
func (r *Registry) SessionsOfUser(username string) []domain.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Session, 0)
	for _, s := range r.sessions {
		if s.Username == username {
			out = append(out, s)
		}
	}
	return out
}

// SessionsInRoom returns the members of a room in join order
func (r *Registry) SessionsInRoom(room string) []domain.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Session, 0)
	for _, s := range r.sessions {
		if s.Room == room {
			out = append(out, s)
		}
	}
	return out
}

// AllSessions returns a copy of every session
func (r *Registry) AllSessions() []domain.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Session, len(r.sessions))
	copy(out, r.sessions)
	return out
}

// RoomCounts returns the number of sessions per room
func (r *Registry) RoomCounts() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int)
	for _, s := range r.sessions {
		counts[s.Room]++
	}
	return counts
}

// Count returns the number of sessions
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
