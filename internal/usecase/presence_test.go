package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
)

// fakeRoles is an in-memory RoleLookup
type fakeRoles struct {
	mu    sync.Mutex
	roles map[string]string
	err   error
	calls int
}

func (f *fakeRoles) RoleOf(_ context.Context, username string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.roles[username], nil
}

func TestRegistry_Join(t *testing.T) {
	roles := &fakeRoles{roles: map[string]string{"root": "admin"}}
	r := NewRegistry(roles)

	s, err := r.Join(context.Background(), "c1", "alice", "Global")
	if err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	if s.ID != "c1" || s.Username != "alice" || s.Room != "Global" {
		t.Errorf("unexpected session %+v", s)
	}
	if s.Role != "user" {
		t.Errorf("expected default role user, got %s", s.Role)
	}

	admin, err := r.Join(context.Background(), "c2", "root", "Global")
	if err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	if admin.Role != "admin" {
		t.Errorf("expected role snapshot admin, got %s", admin.Role)
	}
}

func TestRegistry_JoinDuplicateName(t *testing.T) {
	r := NewRegistry(&fakeRoles{})
	ctx := context.Background()

	if _, err := r.Join(ctx, "A", "alice", "Global"); err != nil {
		t.Fatalf("first join failed: %v", err)
	}

	_, err := r.Join(ctx, "B", "alice", "Global")
	if !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}

	if r.Count() != 1 {
		t.Errorf("duplicate join mutated registry: %d sessions", r.Count())
	}
	s, ok := r.SessionOf("A")
	if !ok || s.Username != "alice" {
		t.Error("original session should be unaffected")
	}
	if _, ok := r.SessionOf("B"); ok {
		t.Error("rejected connection must not have a session")
	}

	// Same name in another room is fine
	if _, err := r.Join(ctx, "B", "alice", "Gaming"); err != nil {
		t.Errorf("join in a different room should succeed: %v", err)
	}
}

func TestRegistry_JoinMissingFields(t *testing.T) {
	r := NewRegistry(nil)

	tests := []struct {
		name     string
		username string
		room     string
	}{
		{"Empty username", "", "Global"},
		{"Empty room", "alice", ""},
		{"Whitespace only", "  ", "  "},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := r.Join(context.Background(), "c1", tc.username, tc.room)
			if !errors.Is(err, ErrMissingFields) {
				t.Errorf("expected ErrMissingFields, got %v", err)
			}
		})
	}
	if r.Count() != 0 {
		t.Errorf("expected empty registry, got %d", r.Count())
	}
}

func TestRegistry_JoinRoleLookupError(t *testing.T) {
	r := NewRegistry(&fakeRoles{err: errors.New("disk on fire")})

	if _, err := r.Join(context.Background(), "c1", "alice", "Global"); err == nil {
		t.Fatal("expected error from role lookup")
	}
	if r.Count() != 0 {
		t.Error("failed join must not create a session")
	}
}

func TestRegistry_DuplicateSkipsRoleLookup(t *testing.T) {
	roles := &fakeRoles{}
	r := NewRegistry(roles)
	r.Join(context.Background(), "A", "alice", "Global")
	r.Join(context.Background(), "B", "alice", "Global")

	if roles.calls != 1 {
		t.Errorf("expected 1 role lookup, got %d", roles.calls)
	}
}

func TestRegistry_LeaveIdempotent(t *testing.T) {
	r := NewRegistry(nil)
	r.Join(context.Background(), "c1", "alice", "Global")
	r.Join(context.Background(), "c2", "bob", "Global")

	s, ok := r.Leave("c1")
	if !ok || s.Username != "alice" {
		t.Fatalf("Leave() = %+v, %v", s, ok)
	}
	if r.Count() != 1 {
		t.Errorf("expected 1 session, got %d", r.Count())
	}

	if _, ok := r.Leave("c1"); ok {
		t.Error("second leave should be a no-op")
	}
	if r.Count() != 1 {
		t.Errorf("second leave removed a session: %d left", r.Count())
	}

	// Name is free again
	if _, err := r.Join(context.Background(), "c3", "alice", "Global"); err != nil {
		t.Errorf("rejoin after leave failed: %v", err)
	}
}

func TestRegistry_Lookups(t *testing.T) {
	r := NewRegistry(nil)
	ctx := context.Background()
	r.Join(ctx, "c1", "alice", "Global")
	r.Join(ctx, "c2", "bob", "Global")
	r.Join(ctx, "c3", "carol", "Gaming")
	r.Join(ctx, "c4", "alice", "Gaming")

	if s, ok := r.SessionByUsername("bob", "Global"); !ok || s.ID != "c2" {
		t.Errorf("SessionByUsername(bob, Global) = %+v, %v", s, ok)
	}
	if _, ok := r.SessionByUsername("bob", "Gaming"); ok {
		t.Error("bob is not in Gaming")
	}

	global := r.SessionsInRoom("Global")
	if len(global) != 2 || global[0].Username != "alice" || global[1].Username != "bob" {
		t.Errorf("SessionsInRoom(Global) = %+v", global)
	}

	if got := len(r.SessionsOfUser("alice")); got != 2 {
		t.Errorf("expected 2 sessions for alice, got %d", got)
	}

	if got := len(r.AllSessions()); got != 4 {
		t.Errorf("expected 4 sessions, got %d", got)
	}

	counts := r.RoomCounts()
	if counts["Global"] != 2 || counts["Gaming"] != 2 {
		t.Errorf("RoomCounts() = %v", counts)
	}
}

func TestRegistry_AllSessionsIsCopy(t *testing.T) {
	r := NewRegistry(nil)
	r.Join(context.Background(), "c1", "alice", "Global")

	all := r.AllSessions()
	all[0].Username = "mallory"

	if s, _ := r.SessionOf("c1"); s.Username != "alice" {
		t.Error("mutating the returned slice changed the registry")
	}
}

func TestRegistry_ConcurrentJoinSameName(t *testing.T) {
	r := NewRegistry(&fakeRoles{})

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := r.Join(context.Background(), string(rune('A'+i)), "alice", "Global"); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if successes != 1 {
		t.Errorf("expected exactly 1 successful join, got %d", successes)
	}
	if r.Count() != 1 {
		t.Errorf("expected 1 session, got %d", r.Count())
	}
}
