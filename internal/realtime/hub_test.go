package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestClient(h *Hub, userID string) *Client {
	return &Client{
		hub:    h,
		send:   make(chan []byte, 16),
		userID: userID,
		rooms:  make(map[string]bool),
	}
}

func waitForConnections(h *Hub, want int) bool {
	deadline := time.After(time.Second)
	for {
		if h.ConnectionCount() == want {
			return true
		}
		select {
		case <-deadline:
			return false
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func receiveMessage(t *testing.T, c *Client) *Message {
	t.Helper()
	select {
	case raw := <-c.send:
		var msg Message
		assert.NoError(t, json.Unmarshal(raw, &msg))
		return &msg
	case <-time.After(time.Second):
		t.Fatal("等待消息超时")
		return nil
	}
}

func TestHubRegisterAndCount(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	a := newTestClient(hub, "user-a")
	b := newTestClient(hub, "user-b")
	hub.register <- a
	hub.register <- b
	assert.True(t, waitForConnections(hub, 2))

	hub.unregister <- a
	assert.True(t, waitForConnections(hub, 1))

	// 注销后发送通道被关闭
	_, open := <-a.send
	assert.False(t, open)
}

func TestBroadcastToRoom(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	a := newTestClient(hub, "user-a")
	b := newTestClient(hub, "user-b")
	outsider := newTestClient(hub, "user-c")
	hub.register <- a
	hub.register <- b
	hub.register <- outsider
	assert.True(t, waitForConnections(hub, 3))

	hub.JoinRoom(a, "booking:b1")
	hub.JoinRoom(b, "booking:b1")
	assert.Equal(t, 2, hub.RoomCount("booking:b1"))

	hub.BroadcastToRoom("booking:b1", "booking_message", map[string]string{"content": "hello"})

	for _, c := range []*Client{a, b} {
		msg := receiveMessage(t, c)
		assert.Equal(t, "booking_message", msg.Type)
		assert.Equal(t, "booking:b1", msg.Room)
		assert.NotEmpty(t, msg.ID)
		assert.False(t, msg.Timestamp.IsZero())
	}

	select {
	case <-outsider.send:
		t.Fatal("房间外的客户端不应收到广播")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSendToUserTargetsAllConnections(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	first := newTestClient(hub, "user-a")
	second := newTestClient(hub, "user-a")
	other := newTestClient(hub, "user-b")
	hub.register <- first
	hub.register <- second
	hub.register <- other
	assert.True(t, waitForConnections(hub, 3))

	hub.SendToUser("user-a", "booking_status_update", map[string]string{"status": "confirmed"})

	for _, c := range []*Client{first, second} {
		msg := receiveMessage(t, c)
		assert.Equal(t, "booking_status_update", msg.Type)
	}

	select {
	case <-other.send:
		t.Fatal("其他用户不应收到定向消息")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnregisterLeavesRooms(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	a := newTestClient(hub, "user-a")
	hub.register <- a
	assert.True(t, waitForConnections(hub, 1))

	hub.JoinRoom(a, CommunityFeedRoom)
	assert.Equal(t, 1, hub.RoomCount(CommunityFeedRoom))

	hub.unregister <- a
	assert.True(t, waitForConnections(hub, 0))
	assert.Equal(t, 0, hub.RoomCount(CommunityFeedRoom))
}

func TestLeaveRoomIsIdempotent(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	a := newTestClient(hub, "user-a")
	hub.register <- a
	assert.True(t, waitForConnections(hub, 1))

	hub.JoinRoom(a, "city:springfield-il")
	hub.LeaveRoom(a, "city:springfield-il")
	hub.LeaveRoom(a, "city:springfield-il")
	assert.Equal(t, 0, hub.RoomCount("city:springfield-il"))
	assert.False(t, a.rooms["city:springfield-il"])
}
