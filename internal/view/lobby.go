// Package view renders the server-side HTML pages. Components live in .templ
// files; the *_templ.go files are generated by templ.
package view

import "sort"

//go:generate templ generate

// RoomSummary is one entry of the lobby's room list
type RoomSummary struct {
	Name  string
	Users int
}

// LobbyData is what the lobby page shows
type LobbyData struct {
	Rooms         []RoomSummary
	OnlineUsers   int
	DailyMessages int
}

// RoomsFromCounts turns a room -> member count map into a list sorted by size, then name
func RoomsFromCounts(counts map[string]int) []RoomSummary {
	rooms := make([]RoomSummary, 0, len(counts))
	for name, n := range counts {
		rooms = append(rooms, RoomSummary{Name: name, Users: n})
	}
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].Users != rooms[j].Users {
			return rooms[i].Users > rooms[j].Users
		}
		return rooms[i].Name < rooms[j].Name
	})
	return rooms
}
