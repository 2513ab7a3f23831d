package main

import (
	"crypto/rand"
	"sync"
	"time"
)

// Player holds the data we store server-side for one participant.
type Player struct {
	Name string `json:"name"`
	Card int    `json:"card"` // 0 until a round has been dealt
	Clue string `json:"clue"`
}

// Theme is a labeled scale players use to interpret their cards,
// e.g. "Temperature" from "cold" to "hot".
type Theme struct {
	Title string `json:"title"`
	Low   string `json:"low"`
	High  string `json:"high"`
}

// Room is one isolated game session. Fields are only ever mutated from the
// coordinator's event loop; the registry mutex covers the room map itself
// plus the housekeeping timestamps read by the reaper.
type Room struct {
	Code    string             `json:"code"`
	HostID  string             `json:"host"`
	Players map[string]*Player `json:"players"`
	Order   []string           `json:"order"`
	Started bool               `json:"started"`
	Theme   *Theme             `json:"theme"`

	createdAt  time.Time
	lastActive time.Time
}

// Snapshot returns a copy detached from live room state, safe to serialize
// on a client's write goroutine while the next event mutates the original.
func (room *Room) Snapshot() *Room {
	players := make(map[string]*Player, len(room.Players))
	for id, player := range room.Players {
		copied := *player
		players[id] = &copied
	}

	var theme *Theme
	if room.Theme != nil {
		copied := *room.Theme
		theme = &copied
	}

	return &Room{
		Code:    room.Code,
		HostID:  room.HostID,
		Players: players,
		Order:   append([]string{}, room.Order...),
		Started: room.Started,
		Theme:   theme,
	}
}

// Registry owns the mapping from room code to live room.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room
}

func newRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]*Room),
	}
}

// newRoomCode generates a crypto-random room code and ensures it doesn't
// collide with existing rooms. Caller must hold reg.mu.
func (reg *Registry) newRoomCode() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	for {
		buf := make([]byte, 4)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, 4)
		for i := range out {
			out[i] = letters[int(buf[i])%len(letters)]
		}
		code := string(out)

		if _, exists := reg.rooms[code]; !exists {
			return code
		}
	}
}

// CreateRoom initializes an empty, unstarted room owned by hostID and
// returns it.
func (reg *Registry) CreateRoom(hostID string) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	now := time.Now()
	room := &Room{
		Code:       reg.newRoomCode(),
		HostID:     hostID,
		Players:    make(map[string]*Player),
		Order:      []string{},
		createdAt:  now,
		lastActive: now,
	}
	reg.rooms[room.Code] = room

	return room
}

// GetRoom looks up a room by code. A missing room is a normal outcome, not
// an error.
func (reg *Registry) GetRoom(code string) (*Room, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	room, ok := reg.rooms[code]
	return room, ok
}

// JoinRoom adds (or overwrites, on re-join) a player entry. Returns false if
// the room doesn't exist.
func (reg *Registry) JoinRoom(code, playerID, name string) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	room, ok := reg.rooms[code]
	if !ok {
		return false
	}

	room.Players[playerID] = &Player{
		Name: name,
	}
	room.lastActive = time.Now()

	return true
}

// Touch refreshes a room's idle timestamp.
func (reg *Registry) Touch(room *Room) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	room.lastActive = time.Now()
}

// Remove drops a room from the registry. Game handlers never call this;
// removal belongs to housekeeping (the reaper).
func (reg *Registry) Remove(code string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	delete(reg.rooms, code)
}

func (reg *Registry) Len() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	return len(reg.rooms)
}

// sweepIdle removes every room idle since before cutoff and returns the
// removed codes.
func (reg *Registry) sweepIdle(cutoff time.Time) []string {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	var removed []string
	for code, room := range reg.rooms {
		if room.lastActive.Before(cutoff) {
			delete(reg.rooms, code)
			removed = append(removed, code)
		}
	}

	return removed
}
