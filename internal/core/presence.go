package core

import (
	"sort"
	"sync"
	"time"
)

type removalKey struct {
	room string
	user string
}

// EvictFunc is called after a grace timer fires and actually removes a user.
// roster is the room's membership right after the removal.
type EvictFunc func(room, user string, roster []string)

// Presence is the authoritative in-memory mapping of room to present
// usernames, plus the grace-period scheduler for abrupt disconnects.
// All operations for a given (room, user) pair are serialized by the table
// mutex, so a timer firing concurrently with a rejoin either fully cancels
// or fully completes.
type Presence struct {
	mu      sync.Mutex
	grace   time.Duration
	rooms   map[string]map[string]struct{}
	pending map[removalKey]*time.Timer
	onEvict EvictFunc
}

// NewPresence constructs an empty presence table. onEvict may be nil.
func NewPresence(grace time.Duration, onEvict EvictFunc) *Presence {
	return &Presence{
		grace:   grace,
		rooms:   make(map[string]map[string]struct{}),
		pending: make(map[removalKey]*time.Timer),
		onEvict: onEvict,
	}
}

// Join adds user to room's roster, creating the room on first join, and
// cancels any pending removal for the pair. Joining while already present is
// a no-op on the roster but still counts as "present now" for the scheduler.
// Returns the roster after the join.
func (p *Presence) Join(room, user string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.cancelPendingLocked(room, user)

	users, ok := p.rooms[room]
	if !ok {
		users = make(map[string]struct{})
		p.rooms[room] = users
	}
	users[user] = struct{}{}

	return p.rosterLocked(room)
}

// LeaveNow removes user from room's roster synchronously. Used for explicit,
// user-initiated leaves; no grace period applies. Returns the roster after
// the removal.
func (p *Presence) LeaveNow(room, user string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.cancelPendingLocked(room, user)
	p.removeLocked(room, user)

	return p.rosterLocked(room)
}

// ScheduleRemoval starts a grace timer that evicts user from room unless a
// Join for the same pair arrives first. A second call while a timer is
// outstanding is a no-op: a repeated disconnect must not extend or duplicate
// the grace window. Scheduling for an absent user is also a no-op.
func (p *Presence) ScheduleRemoval(room, user string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := removalKey{room: room, user: user}
	if _, exists := p.pending[key]; exists {
		return
	}
	users, ok := p.rooms[room]
	if !ok {
		return
	}
	if _, ok := users[user]; !ok {
		return
	}

	var timer *time.Timer
	timer = time.AfterFunc(p.grace, func() {
		p.expire(key, timer)
	})
	p.pending[key] = timer
}

// Snapshot returns the current roster for a room. An unknown room yields an
// empty roster, not an error.
func (p *Presence) Snapshot(room string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rosterLocked(room)
}

// expire runs when a grace timer fires. The identity check against the
// registered timer makes firing race-free against cancellation: a timer that
// lost the race to a Join finds itself replaced or deleted and does nothing.
func (p *Presence) expire(key removalKey, timer *time.Timer) {
	p.mu.Lock()
	current, ok := p.pending[key]
	if !ok || current != timer {
		p.mu.Unlock()
		return
	}
	delete(p.pending, key)

	if !p.removeLocked(key.room, key.user) {
		p.mu.Unlock()
		return
	}
	roster := p.rosterLocked(key.room)
	onEvict := p.onEvict
	p.mu.Unlock()

	if onEvict != nil {
		onEvict(key.room, key.user, roster)
	}
}

func (p *Presence) cancelPendingLocked(room, user string) {
	key := removalKey{room: room, user: user}
	if timer, ok := p.pending[key]; ok {
		timer.Stop()
		delete(p.pending, key)
	}
}

// removeLocked deletes user from room, dropping the room entirely when its
// roster becomes empty. Returns true if the user was present.
func (p *Presence) removeLocked(room, user string) bool {
	users, ok := p.rooms[room]
	if !ok {
		return false
	}
	if _, ok := users[user]; !ok {
		return false
	}
	delete(users, user)
	if len(users) == 0 {
		delete(p.rooms, room)
	}
	return true
}

func (p *Presence) rosterLocked(room string) []string {
	users := p.rooms[room]
	roster := make([]string, 0, len(users))
	for user := range users {
		roster = append(roster, user)
	}
	sort.Strings(roster)
	return roster
}
