package realtime

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/Dutta2005/TrustCircle/internal/errors"
	"github.com/Dutta2005/TrustCircle/internal/service"
	"github.com/Dutta2005/TrustCircle/internal/util"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CommunityFeedRoom 社区动态流的公共房间
const CommunityFeedRoom = "community:feed"

const eventTimeout = 5 * time.Second

// EventRouter 把客户端上行事件分发到对应的业务处理，并在必要时重新校验权限
type EventRouter struct {
	hub              *Hub
	userService      service.UserServiceInterface
	bookingService   service.BookingServiceInterface
	listingService   service.ListingServiceInterface
	communityService service.CommunityServiceInterface
}

func NewEventRouter(hub *Hub, userService service.UserServiceInterface, bookingService service.BookingServiceInterface, listingService service.ListingServiceInterface, communityService service.CommunityServiceInterface) *EventRouter {
	return &EventRouter{
		hub:              hub,
		userService:      userService,
		bookingService:   bookingService,
		listingService:   listingService,
		communityService: communityService,
	}
}

// ServeWS 完成认证并把HTTP连接升级为WebSocket
func (r *EventRouter) ServeWS(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	}
	if token == "" || r.userService.IsTokenBlacklisted(token) {
		errors.HandleError(c, errors.New(errors.ErrUnauthorized, "需要认证"))
		return
	}

	userID, err := util.ValidateToken(token)
	if err != nil {
		errors.HandleError(c, errors.New(errors.ErrInvalidToken, "无效的令牌"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), eventTimeout)
	defer cancel()
	user, err := r.userService.GetUserByID(ctx, userID)
	if err != nil || user == nil || !user.IsActive || user.Suspended {
		errors.HandleError(c, errors.New(errors.ErrUnauthorized, "账号不可用"))
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		util.Logger.Warn("升级WebSocket连接失败", zap.Error(err))
		return
	}

	client := &Client{
		hub:      r.hub,
		conn:     conn,
		send:     make(chan []byte, 256),
		userID:   userID,
		rooms:    make(map[string]bool),
		lastSeen: time.Now(),
	}
	r.hub.register <- client

	// 自动加入个人房间、地理网格房间和城市房间
	rooms := []string{util.UserRoom(userID)}
	if len(user.Location.Coordinates) == 2 {
		rooms = append(rooms, util.GeoCellRoom(user.Location.Lat(), user.Location.Lng()))
	}
	if user.Address.City != "" {
		rooms = append(rooms, util.CityRoom(user.Address.City, user.Address.State))
	}
	for _, room := range rooms {
		r.hub.JoinRoom(client, room)
	}

	go client.writePump()
	go client.readPump(r)

	client.reply("connected", gin.H{"user_id": userID, "rooms": rooms})
}

// Dispatch 处理一条客户端事件，所有写操作都重新校验当事人身份
func (r *EventRouter) Dispatch(c *Client, event *ClientEvent) {
	switch event.Type {
	case "user_connect":
		r.handleUserConnect(c)
	case "join_booking":
		r.handleJoinBooking(c, event.Data)
	case "leave_booking":
		r.handleLeaveBooking(c, event.Data)
	case "booking_message":
		r.handleBookingMessage(c, event.Data)
	case "booking_status_update":
		r.handleBookingStatusUpdate(c, event.Data)
	case "join_community_feed":
		r.hub.JoinRoom(c, CommunityFeedRoom)
		c.reply("community_feed_joined", gin.H{"members": r.hub.RoomCount(CommunityFeedRoom)})
	case "community_post_like":
		r.handlePostLike(c, event.Data)
	case "share_location":
		r.handleShareLocation(c, event.Data)
	case "service_availability_update":
		r.handleAvailabilityUpdate(c, event.Data)
	case "booking_typing_start", "booking_typing_stop":
		r.handleTyping(c, event.Type, event.Data)
	case "emergency_alert":
		r.handleEmergencyAlert(c, event.Data)
	case "heartbeat":
		c.reply("heartbeat_ack", gin.H{"server_time": time.Now()})
	case "get_community_stats":
		c.reply("community_stats", gin.H{
			"online_connections": r.hub.ConnectionCount(),
			"feed_members":       r.hub.RoomCount(CommunityFeedRoom),
		})
	default:
		c.sendError("未知的事件类型: " + event.Type)
	}
}

func (r *EventRouter) handleUserConnect(c *Client) {
	rooms := make([]string, 0, len(c.rooms))
	for room := range c.rooms {
		rooms = append(rooms, room)
	}
	c.reply("connected", gin.H{"user_id": c.userID, "rooms": rooms})
}

func (r *EventRouter) handleJoinBooking(c *Client, data json.RawMessage) {
	var req struct {
		BookingID string `json:"booking_id"`
	}
	if err := json.Unmarshal(data, &req); err != nil || req.BookingID == "" {
		c.sendError("缺少订单ID")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()
	if _, err := r.bookingService.GetBookingByID(ctx, req.BookingID, c.userID); err != nil {
		c.sendError("无权加入该订单会话")
		return
	}

	r.hub.JoinRoom(c, util.BookingRoom(req.BookingID))
	c.reply("booking_joined", gin.H{"booking_id": req.BookingID})
}

func (r *EventRouter) handleLeaveBooking(c *Client, data json.RawMessage) {
	var req struct {
		BookingID string `json:"booking_id"`
	}
	if err := json.Unmarshal(data, &req); err != nil || req.BookingID == "" {
		c.sendError("缺少订单ID")
		return
	}

	r.hub.LeaveRoom(c, util.BookingRoom(req.BookingID))
	c.reply("booking_left", gin.H{"booking_id": req.BookingID})
}

func (r *EventRouter) handleBookingMessage(c *Client, data json.RawMessage) {
	var req struct {
		BookingID string `json:"booking_id"`
		Content   string `json:"content"`
	}
	if err := json.Unmarshal(data, &req); err != nil || req.BookingID == "" {
		c.sendError("缺少订单ID")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()
	message, err := r.bookingService.SendMessage(ctx, req.BookingID, c.userID, req.Content)
	if err != nil {
		c.sendError("消息发送失败")
		return
	}

	r.hub.BroadcastToRoom(util.BookingRoom(req.BookingID), "booking_message", gin.H{
		"booking_id": req.BookingID,
		"message":    message,
	})
}

func (r *EventRouter) handleBookingStatusUpdate(c *Client, data json.RawMessage) {
	var req struct {
		BookingID string `json:"booking_id"`
		Status    string `json:"status"`
		Reason    string `json:"reason"`
		Notes     string `json:"notes"`
	}
	if err := json.Unmarshal(data, &req); err != nil || req.BookingID == "" || req.Status == "" {
		c.sendError("缺少订单ID或目标状态")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()
	booking, err := r.bookingService.UpdateBookingStatus(ctx, req.BookingID, c.userID, req.Status, req.Reason, req.Notes)
	if err != nil {
		c.sendError("订单状态更新失败")
		return
	}

	payload := gin.H{"booking_id": req.BookingID, "status": booking.Status, "booking": booking}
	r.hub.BroadcastToRoom(util.BookingRoom(req.BookingID), "booking_status_update", payload)
	r.hub.SendToUser(booking.CustomerID.Hex(), "booking_status_update", payload)
	r.hub.SendToUser(booking.ProviderID.Hex(), "booking_status_update", payload)
}

func (r *EventRouter) handlePostLike(c *Client, data json.RawMessage) {
	var req struct {
		PostID string `json:"post_id"`
		Like   *bool  `json:"like"`
	}
	if err := json.Unmarshal(data, &req); err != nil || req.PostID == "" || req.Like == nil {
		c.sendError("缺少帖子ID")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()
	post, changed, err := r.communityService.LikePost(ctx, req.PostID, c.userID, *req.Like)
	if err != nil {
		c.sendError("点赞失败")
		return
	}
	if !changed {
		return
	}

	r.hub.BroadcastToRoom(CommunityFeedRoom, "community_post_like", gin.H{
		"post_id":    req.PostID,
		"user_id":    c.userID,
		"like":       *req.Like,
		"like_count": len(post.Likes),
	})
}

func (r *EventRouter) handleShareLocation(c *Client, data json.RawMessage) {
	var req struct {
		Lng float64 `json:"lng"`
		Lat float64 `json:"lat"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		c.sendError("无效的位置数据")
		return
	}

	// 离开旧的地理网格房间再加入新的
	for room := range c.rooms {
		if strings.HasPrefix(room, "geo:") {
			r.hub.LeaveRoom(c, room)
		}
	}
	room := util.GeoCellRoom(req.Lat, req.Lng)
	r.hub.JoinRoom(c, room)
	c.reply("location_updated", gin.H{"room": room})
}

func (r *EventRouter) handleAvailabilityUpdate(c *Client, data json.RawMessage) {
	var req struct {
		ServiceID string `json:"service_id"`
		Paused    *bool  `json:"paused"`
	}
	if err := json.Unmarshal(data, &req); err != nil || req.ServiceID == "" || req.Paused == nil {
		c.sendError("缺少服务ID")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()
	svc, err := r.listingService.PauseService(ctx, req.ServiceID, c.userID, *req.Paused)
	if err != nil {
		c.sendError("更新服务状态失败")
		return
	}

	r.hub.BroadcastToRoom(CommunityFeedRoom, "service_availability_update", gin.H{
		"service_id": req.ServiceID,
		"paused":     svc.IsPaused,
	})
}

func (r *EventRouter) handleTyping(c *Client, eventType string, data json.RawMessage) {
	var req struct {
		BookingID string `json:"booking_id"`
	}
	if err := json.Unmarshal(data, &req); err != nil || req.BookingID == "" {
		c.sendError("缺少订单ID")
		return
	}

	room := util.BookingRoom(req.BookingID)
	if !c.rooms[room] {
		c.sendError("尚未加入该订单会话")
		return
	}

	r.hub.BroadcastToRoom(room, eventType, gin.H{
		"booking_id": req.BookingID,
		"user_id":    c.userID,
	})
}

func (r *EventRouter) handleEmergencyAlert(c *Client, data json.RawMessage) {
	var req struct {
		Message string  `json:"message"`
		Lng     float64 `json:"lng"`
		Lat     float64 `json:"lat"`
	}
	if err := json.Unmarshal(data, &req); err != nil || req.Message == "" {
		c.sendError("告警内容不能为空")
		return
	}

	alert := gin.H{
		"alert_id": uuid.NewString(),
		"user_id":  c.userID,
		"message":  req.Message,
		"lng":      req.Lng,
		"lat":      req.Lat,
	}

	// 按告警坐标广播到地理网格，并同步到发起者所在的城市房间
	r.hub.BroadcastToRoom(util.GeoCellRoom(req.Lat, req.Lng), "emergency_alert", alert)
	for room := range c.rooms {
		if strings.HasPrefix(room, "city:") {
			r.hub.BroadcastToRoom(room, "emergency_alert", alert)
		}
	}

	util.Logger.Warn("收到紧急告警",
		zap.String("user_id", c.userID),
		zap.Float64("lng", req.Lng),
		zap.Float64("lat", req.Lat))
}
