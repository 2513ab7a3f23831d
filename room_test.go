package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRoomCodes(t *testing.T) {
	reg := newRegistry()

	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codes := make(map[string]bool)
	for range 100 {
		room := reg.CreateRoom("host")
		require.Len(t, room.Code, 4)
		for _, r := range room.Code {
			assert.True(t, strings.ContainsRune(alphabet, r), "unexpected code character %q", r)
		}
		assert.False(t, codes[room.Code], "duplicate live room code %s", room.Code)
		codes[room.Code] = true
	}

	assert.Equal(t, 100, reg.Len())
}

func TestCreateRoomInitialState(t *testing.T) {
	reg := newRegistry()
	room := reg.CreateRoom("host-id")

	assert.Equal(t, "host-id", room.HostID)
	assert.Empty(t, room.Players)
	assert.Empty(t, room.Order)
	assert.False(t, room.Started)
	assert.Nil(t, room.Theme)
}

func TestGetRoomMissing(t *testing.T) {
	reg := newRegistry()

	_, ok := reg.GetRoom("ZZZZ")
	assert.False(t, ok)
}

func TestJoinRoomMissing(t *testing.T) {
	reg := newRegistry()

	ok := reg.JoinRoom("ZZZZ", "p1", "Ana")
	assert.False(t, ok)
	assert.Equal(t, 0, reg.Len())
}

func TestJoinRoomRejoinOverwrites(t *testing.T) {
	reg := newRegistry()
	room := reg.CreateRoom("host")

	require.True(t, reg.JoinRoom(room.Code, "p1", "Ana"))
	room.Players["p1"].Card = 17

	require.True(t, reg.JoinRoom(room.Code, "p1", "Ana Clara"))

	require.Len(t, room.Players, 1)
	assert.Equal(t, "Ana Clara", room.Players["p1"].Name)
	assert.Zero(t, room.Players["p1"].Card, "re-join replaces the whole entry")
}

func TestSweepIdle(t *testing.T) {
	reg := newRegistry()
	stale := reg.CreateRoom("host-a")
	fresh := reg.CreateRoom("host-b")

	reg.mu.Lock()
	reg.rooms[stale.Code].lastActive = time.Now().Add(-2 * time.Hour)
	reg.mu.Unlock()

	removed := reg.sweepIdle(time.Now().Add(-time.Hour))

	assert.Equal(t, []string{stale.Code}, removed)
	_, ok := reg.GetRoom(stale.Code)
	assert.False(t, ok)
	_, ok = reg.GetRoom(fresh.Code)
	assert.True(t, ok)
}

func TestTouchKeepsRoomAlive(t *testing.T) {
	reg := newRegistry()
	room := reg.CreateRoom("host")

	reg.mu.Lock()
	reg.rooms[room.Code].lastActive = time.Now().Add(-2 * time.Hour)
	reg.mu.Unlock()

	reg.Touch(room)

	removed := reg.sweepIdle(time.Now().Add(-time.Hour))
	assert.Empty(t, removed)
}
