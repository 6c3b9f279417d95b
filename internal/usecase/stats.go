package usecase

import (
	"sync"
	"time"
)

// Snapshot is the live statistics payload
type Snapshot struct {
	OnlineUsers   int            `json:"onlineUsers"`
	ActiveRooms   int            `json:"activeRooms"`
	RoomStats     map[string]int `json:"roomStats"`
	DailyMessages int            `json:"dailyMessages"`
	Uptime        float64        `json:"uptime"` // seconds
	Timestamp     int64          `json:"timestamp"`
}

// Stats counts chat messages per calendar day
type Stats struct {
	mu        sync.Mutex
	startedAt time.Time
	day       string
	count     int
	now       func() time.Time
}

// NewStats starts the uptime clock
func NewStats() *Stats {
	return newStatsWithClock(time.Now)
}

func newStatsWithClock(now func() time.Time) *Stats {
	started := now()
	return &Stats{
		startedAt: started,
		day:       started.Format("2006-01-02"),
		now:       now,
	}
}

// resetIfNewDay must be called with mu held
func (s *Stats) resetIfNewDay() {
	today := s.now().Format("2006-01-02")
	if today != s.day {
		s.day = today
		s.count = 0
	}
}

// RecordMessage counts one chat message
func (s *Stats) RecordMessage() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetIfNewDay()
	s.count++
}

// DailyMessages returns today's message count
func (s *Stats) DailyMessages() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetIfNewDay()
	return s.count
}

// Snapshot combines the counters with the registry's room occupancy
func (s *Stats) Snapshot(r *Registry) Snapshot {
	rooms := r.RoomCounts()
	online := 0
	for _, n := range rooms {
		online += n
	}

	now := s.now()
	return Snapshot{
		OnlineUsers:   online,
		ActiveRooms:   len(rooms),
		RoomStats:     rooms,
		DailyMessages: s.DailyMessages(),
		Uptime:        now.Sub(s.startedAt).Seconds(),
		Timestamp:     now.UnixMilli(),
	}
}
