package ws

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// fakeConn records every payload written to it.
type fakeConn struct {
	mu       sync.Mutex
	payloads []any
	closed   bool
	writeErr error
}

func (f *fakeConn) WriteJSON(v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.payloads = append(f.payloads, v)
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) received() []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]any(nil), f.payloads...)
}

func TestHubRegisterUnregister(t *testing.T) {
	hub := NewHub()

	c1 := hub.Register(1, &fakeConn{})
	c2 := hub.Register(1, &fakeConn{})
	c3 := hub.Register(2, &fakeConn{})

	assert.NotEmpty(t, c1.ID)
	assert.NotEqual(t, c1.ID, c2.ID)
	assert.ElementsMatch(t, []int64{1, 2}, hub.OnlineProfiles())

	// Profile 1 stays online while one of its clients remains.
	hub.Unregister(c1)
	assert.ElementsMatch(t, []int64{1, 2}, hub.OnlineProfiles())

	hub.Unregister(c2)
	assert.ElementsMatch(t, []int64{2}, hub.OnlineProfiles())

	hub.Unregister(c3)
	assert.Empty(t, hub.OnlineProfiles())
}

func TestHubJoinLeaveRoom(t *testing.T) {
	hub := NewHub()
	c := hub.Register(1, &fakeConn{})

	hub.JoinRoom(c, 10)
	hub.JoinRoom(c, 11)
	assert.Equal(t, 1, hub.RoomSize(10))
	assert.Equal(t, 1, hub.RoomSize(11))

	hub.LeaveRoom(c, 10)
	assert.Equal(t, 0, hub.RoomSize(10))
	assert.Equal(t, 1, hub.RoomSize(11))
}

func TestHubUnregisterLeavesAllRooms(t *testing.T) {
	hub := NewHub()
	c := hub.Register(1, &fakeConn{})
	hub.JoinRoom(c, 10)
	hub.JoinRoom(c, 11)

	hub.Unregister(c)
	assert.Equal(t, 0, hub.RoomSize(10))
	assert.Equal(t, 0, hub.RoomSize(11))
}

func TestHubBroadcastRoom(t *testing.T) {
	hub := NewHub()
	f1, f2, f3 := &fakeConn{}, &fakeConn{}, &fakeConn{}
	c1 := hub.Register(1, f1)
	c2 := hub.Register(2, f2)
	hub.Register(3, f3) // online but never joins the room

	hub.JoinRoom(c1, 10)
	hub.JoinRoom(c2, 10)

	payload := map[string]any{"event": "newMessage"}
	hub.BroadcastRoom(10, payload)

	assert.Len(t, f1.received(), 1)
	assert.Len(t, f2.received(), 1)
	assert.Empty(t, f3.received())
}

func TestHubBroadcastRoomExcept(t *testing.T) {
	hub := NewHub()
	f1, f2 := &fakeConn{}, &fakeConn{}
	c1 := hub.Register(1, f1)
	c2 := hub.Register(2, f2)
	hub.JoinRoom(c1, 10)
	hub.JoinRoom(c2, 10)

	hub.BroadcastRoomExcept(10, c1, map[string]any{"event": "userTyping"})

	assert.Empty(t, f1.received())
	assert.Len(t, f2.received(), 1)
}

func TestHubBroadcastClosesFailedConn(t *testing.T) {
	hub := NewHub()
	bad := &fakeConn{writeErr: assert.AnError}
	good := &fakeConn{}
	c1 := hub.Register(1, bad)
	c2 := hub.Register(2, good)
	hub.JoinRoom(c1, 10)
	hub.JoinRoom(c2, 10)

	hub.BroadcastRoom(10, map[string]any{"event": "newMessage"})

	assert.True(t, bad.closed)
	assert.Len(t, good.received(), 1)
}
