package core

import "sync"

// room groups the clients subscribed to one channel at the transport level.
type room struct {
	name    string
	clients map[*Client]struct{}
}

// Router fans events out to the connections currently grouped in a room.
// Grouping is transport-level bookkeeping; the Presence table stays the
// authority on who is considered present.
type Router struct {
	mu    sync.Mutex
	rooms map[string]*room
}

// NewRouter constructs an empty router.
func NewRouter() *Router {
	return &Router{rooms: make(map[string]*room)}
}

// Join adds a client to a room's fan-out group.
func (r *Router) Join(name string, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[name]
	if !ok {
		rm = &room{name: name, clients: make(map[*Client]struct{})}
		r.rooms[name] = rm
	}
	rm.clients[c] = struct{}{}
}

// Leave removes a client from a room's fan-out group, dropping the group
// when it becomes empty.
func (r *Router) Leave(name string, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[name]
	if !ok {
		return
	}
	delete(rm.clients, c)
	if len(rm.clients) == 0 {
		delete(r.rooms, name)
	}
}

// Broadcast sends an event to all clients in the room.
func (r *Router) Broadcast(name string, event *Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[name]
	if !ok {
		return
	}
	for client := range rm.clients {
		select {
		case client.Events <- event:
		default:
			// Drop if slow consumer.
		}
	}
}

// SendToOne delivers an event to exactly one client.
func (r *Router) SendToOne(c *Client, event *Event) {
	select {
	case c.Events <- event:
	default:
		// Drop if slow consumer.
	}
}
