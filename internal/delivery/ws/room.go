package ws

// Room membership for fan-out. Only the event loop mutates h.rooms;
// the lock is taken so RoomCount can read from other goroutines.

// subscribe adds a client to a room's fan-out set, creating the room on first use
func (h *Hub) subscribe(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[room]
	if !ok {
		members = make(map[string]*Client)
		h.rooms[room] = members
	}
	members[c.ID] = c
}

// unsubscribe removes a client from a room, dropping the room once it is empty
func (h *Hub) unsubscribe(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, c.ID)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

// members returns the clients subscribed to room
func (h *Hub) members(room string) []*Client {
	set := h.rooms[room]
	list := make([]*Client, 0, len(set))
	for _, c := range set {
		list = append(list, c)
	}
	return list
}
