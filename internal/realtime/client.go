package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/Dutta2005/TrustCircle/internal/util"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// 向客户端写消息的超时
	writeWait = 10 * time.Second

	// 等待客户端pong的超时，超时视为掉线
	pongWait = 60 * time.Second

	// ping间隔，必须小于 pongWait
	pingPeriod = (pongWait * 9) / 10

	// 单条客户端消息的上限
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 跨域由网关层控制
		return true
	},
}

// Client 一条已认证的WebSocket连接
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID string
	rooms  map[string]bool

	mu       sync.Mutex
	lastSeen time.Time
}

// ClientEvent 客户端上行事件
type ClientEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

func (c *Client) touch() {
	c.mu.Lock()
	c.lastSeen = time.Now()
	c.mu.Unlock()
}

// LastSeen 该连接最近一次收到客户端消息的时间
func (c *Client) LastSeen() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSeen
}

func (c *Client) readPump(router *EventRouter) {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				util.Logger.Warn("实时连接异常关闭", zap.Error(err), zap.String("user_id", c.userID))
			}
			return
		}
		c.touch()

		var event ClientEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			c.sendError("无法解析的事件")
			continue
		}

		if event.Type == "disconnect" {
			return
		}
		router.Dispatch(c, &event)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// reply 直接回给本连接一个事件，不经过广播队列
func (c *Client) reply(eventType string, data interface{}) {
	payload, err := json.Marshal(&Message{
		ID:        uuid.NewString(),
		Type:      eventType,
		Data:      marshalData(data),
		Timestamp: time.Now(),
	})
	if err != nil {
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}

func (c *Client) sendError(message string) {
	c.reply("error", map[string]string{"message": message})
}
