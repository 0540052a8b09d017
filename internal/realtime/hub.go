package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/Dutta2005/TrustCircle/internal/util"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Message 下发给客户端的统一消息格式
type Message struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Room      string          `json:"room,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`

	// 仅投递给该用户，空则按房间或全体投递
	userID string
}

// Hub 管理所有在线的WebSocket连接与房间成员关系
type Hub struct {
	clients     map[*Client]bool
	userClients map[string][]*Client
	rooms       map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:     make(map[*Client]bool),
		userClients: make(map[string][]*Client),
		rooms:       make(map[string]map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		broadcast:   make(chan *Message, 64),
	}
}

// Run 处理连接注册、注销和消息分发，必须在独立协程中运行
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.userClients[client.userID] = append(h.userClients[client.userID], client)
			h.mu.Unlock()
			util.Logger.Info("实时连接建立", zap.String("user_id", client.userID))

		case client := <-h.unregister:
			h.removeClient(client)

		case message := <-h.broadcast:
			h.deliver(message)
		}
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)

	for room := range client.rooms {
		if members, ok := h.rooms[room]; ok {
			delete(members, client)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}

	clients := h.userClients[client.userID]
	for i, c := range clients {
		if c == client {
			h.userClients[client.userID] = append(clients[:i], clients[i+1:]...)
			break
		}
	}
	if len(h.userClients[client.userID]) == 0 {
		delete(h.userClients, client.userID)
	}

	util.Logger.Info("实时连接断开", zap.String("user_id", client.userID))
}

func (h *Hub) deliver(message *Message) {
	payload, err := json.Marshal(message)
	if err != nil {
		util.Logger.Error("序列化实时消息失败", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	var targets map[*Client]bool
	switch {
	case message.userID != "":
		targets = make(map[*Client]bool)
		for _, c := range h.userClients[message.userID] {
			targets[c] = true
		}
	case message.Room != "":
		targets = h.rooms[message.Room]
	default:
		targets = h.clients
	}

	for client := range targets {
		select {
		case client.send <- payload:
		default:
			// 发送缓冲已满，视为掉线客户端，由读协程负责清理
		}
	}
}

// JoinRoom 把客户端加入房间
func (h *Hub) JoinRoom(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]bool)
	}
	h.rooms[room][client] = true
	client.rooms[room] = true
}

// LeaveRoom 把客户端移出房间
func (h *Hub) LeaveRoom(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.rooms[room]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(client.rooms, room)
}

// BroadcastToRoom 向房间内所有客户端广播事件
func (h *Hub) BroadcastToRoom(room, eventType string, data interface{}) {
	h.enqueue(&Message{Type: eventType, Room: room, Data: marshalData(data)})
}

// SendToUser 向某用户的所有连接发送事件
func (h *Hub) SendToUser(userID, eventType string, data interface{}) {
	h.enqueue(&Message{Type: eventType, Data: marshalData(data), userID: userID})
}

// BroadcastAll 向所有在线客户端广播事件
func (h *Hub) BroadcastAll(eventType string, data interface{}) {
	h.enqueue(&Message{Type: eventType, Data: marshalData(data)})
}

func (h *Hub) enqueue(message *Message) {
	message.ID = uuid.NewString()
	message.Timestamp = time.Now()
	select {
	case h.broadcast <- message:
	default:
		util.Logger.Warn("实时广播队列已满，丢弃消息", zap.String("type", message.Type))
	}
}

// ConnectionCount 当前在线连接数
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomCount 某房间当前成员数
func (h *Hub) RoomCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func marshalData(data interface{}) json.RawMessage {
	if data == nil {
		return nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		util.Logger.Error("序列化事件数据失败", zap.Error(err))
		return nil
	}
	return raw
}
